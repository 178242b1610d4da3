// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/obbpatch/cmd/obbpatch/cli"
	"github.com/bureau-foundation/obbpatch/lib/config"
	"github.com/bureau-foundation/obbpatch/lib/patch"
	"github.com/bureau-foundation/obbpatch/lib/rsb"
	"github.com/bureau-foundation/obbpatch/lib/unpack"
)

type patchParams struct {
	commonParams
	treeParams
	keyParams
	Patch string       `flag:"patch,p" desc:"directory of replacement files mirroring the input (default paths.patch)"`
	Layer string       `flag:"layer" desc:"container layer to work at: rsgp, rsb or smf" default:"rsgp"`
	Level unpack.Level `flag:"level,l" desc:"unpack level by name or number (default from the layer's configuration)"`
}

func patchCommand(stdout io.Writer) *cli.Command {
	var params patchParams

	return &cli.Command{
		Name:    "patch",
		Summary: "Patch containers with replacement files",
		Description: `Patch every container in the input with the files in the patch
directory, writing the results to the output.

Replacements for dir/main.obb are looked up in <patch>/dir/main. For a
single input file the patch directory itself holds them. Inside it, an
entry is replaced by the file at its path; at the DECODED level RTON
entries are built from a .json file of the same name. A whole section is
replaced by <SECTION>.section (level SECTION) or <SECTION>.rsgp (level
RSGP).

Files that fail are recorded in the run report and skipped. The command
exits with code 2 when any file failed.`,
		Usage: "obbpatch patch --input IN --output OUT --patch DIR [flags]",
		Examples: []cli.Example{
			{
				Description: "Patch RTON entries from JSON sources",
				Command:     "obbpatch patch -i main.obb -o patched/main.obb -p patches",
			},
			{
				Description: "Replace whole sections from .rsgp files",
				Command:     "obbpatch patch -i data -o out -p patches --layer rsb --level RSGP",
			},
			{
				Description: "Pack plain containers into the SMF envelope",
				Command:     "obbpatch patch -i unpacked -o packed --layer smf --level RSB",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("patch", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			cfg, err := prepare(args, params.commonParams, params.treeParams, params.keyParams.apply)
			if err != nil {
				return err
			}
			layer, err := cfg.Layer(params.Layer)
			if err != nil {
				return err
			}
			if params.Level != unpack.Specify {
				if layer, err = layer.WithLevel(params.Level); err != nil {
					return err
				}
			}

			if params.Patch == "" {
				params.Patch = cfg.Paths.Patch
			}
			// Below RSGP containers are only repacked.
			if params.Patch == "" && layer.Level >= unpack.RSGP {
				return fmt.Errorf("--patch is required at level %v (or set paths.patch)", layer.Level)
			}
			job, err := containersJob(cfg, layer, params.Patch)
			if err != nil {
				return err
			}
			return runJob(ctx, stdout, params.commonParams, cfg, params.treeParams, job)
		},
	}
}

// containersJob configures the container job for one layer.
func containersJob(cfg *config.Config, layer config.Layer, patchRoot string) (patch.Containers, error) {
	cbc, err := entryCipher(cfg)
	if err != nil {
		return patch.Containers{}, err
	}
	options := rsb.Options{
		Level:    layer.Level,
		Sections: layer.Sections,
		Entries:  layer.Entries,
		Cipher:   cbc,
	}
	if cfg.Encryption.DecryptSections {
		options.SectionCipher = cbc
	}
	return patch.Containers{
		Patch:      patchRoot,
		Extensions: layer.Extensions,
		Exclude:    layer.Exclude,
		Walker:     options,
	}, nil
}
