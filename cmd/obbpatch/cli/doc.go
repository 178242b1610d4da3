// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework of the obbpatch binary.
//
// A [Command] tree dispatches on the first positional argument, parses
// pflag flag sets built from tagged parameter structs ([FlagsFromParams]),
// and suggests the closest command or flag on a typo. [NewCommandLogger]
// picks a text or JSON slog handler depending on whether stderr is a
// terminal. [PrintSummary] renders the end of a run, and [ExitError]
// carries a non-zero exit code without an extra message.
package cli
