// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the obbpatch command tree.
package commands

import (
	"io"
	"os"

	"github.com/bureau-foundation/obbpatch/cmd/obbpatch/cli"
)

// Root returns the obbpatch command tree, writing results to stdout.
func Root() *cli.Command {
	return root(os.Stdout)
}

func root(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "obbpatch",
		Summary: "Patch resource containers and convert RTON files",
		Description: `obbpatch patches resource containers (.obb, .rsb, .rsgp) with
replacement files, and converts RTON files to and from JSON.

Configuration comes from --config, the OBBPATCH_CONFIG environment
variable, or built-in defaults, in that order.`,
		Subcommands: []*cli.Command{
			patchCommand(stdout),
			encodeCommand(stdout),
			encryptCommand(stdout),
			decodeCommand(stdout),
			reportCommand(stdout),
			versionCommand(stdout),
		},
	}
}
