// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for obbpatch.
//
// Configuration is loaded from a single file given by either the
// OBBPATCH_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). Without either, [Default] applies. There is no
// automatic file search.
//
// Files are YAML. Files ending in .json or .jsonc are read as JSON with
// comments and trailing commas allowed. Values in a file are merged
// over [Default]; omitted keys keep their defaults. Unknown keys are
// an error, so a misspelled key is reported rather than ignored.
//
// A file whose top level has none of the section names (smf, rsb, rsgp,
// encryption, rton, paths) is read as a flat legacy options.json from
// the older OBBEdit patcher and mapped onto the same sections.
//
// Unpack levels may be written by name (DECODED) or number (7). Each
// container layer accepts its own range of levels, checked by
// [Config.Validate].
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No environment
// variable overrides config values.
//
// Key exports:
//
//   - [Config] -- master struct with SMF, RSB, RSGP, Encryption, RTON, Paths
//   - [Default] -- returns the built-in defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.Layer] -- resolves the settings of one container layer
package config
