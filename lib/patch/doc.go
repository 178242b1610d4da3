// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package patch runs whole-tree jobs: it mirrors an input file or
// directory into an output path and converts every file a job selects.
//
// Jobs:
//
//   - [Containers] patches RSB/OBB/SMF containers and bare sections
//     from a tree of replacement files.
//   - [Encode] builds RTON files from JSON.
//   - [Encrypt] seals RTON files with the entry cipher.
//   - [Decode] renders RTON files as JSON.
//
// Traversal is depth-first in sorted order and never descends into the
// output or patch root. A failure on one file is recorded in the run
// report and the traversal moves on; only failures writing output stop
// a job.
package patch
