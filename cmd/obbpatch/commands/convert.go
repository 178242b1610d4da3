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
)

type encodeParams struct {
	commonParams
	treeParams
}

func encodeCommand(stdout io.Writer) *cli.Command {
	var params encodeParams

	return &cli.Command{
		Name:    "encode",
		Summary: "Encode JSON files as RTON",
		Description: `Encode every .json file in the input as RTON. The output name drops
.json, and gains .rton when no extension is left, unless the name starts
with one of rton.no_extension_prefixes.`,
		Usage: "obbpatch encode --input IN --output OUT [flags]",
		Examples: []cli.Example{
			{
				Description: "Encode a directory of level JSON",
				Command:     "obbpatch encode -i levels-json -o levels",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("encode", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			cfg, err := prepare(args, params.commonParams, params.treeParams)
			if err != nil {
				return err
			}
			job := patch.Encode{NoExtensionPrefixes: cfg.RTON.NoExtensionPrefixes}
			return runJob(ctx, stdout, params.commonParams, cfg, params.treeParams, job)
		},
	}
}

type encryptParams struct {
	commonParams
	treeParams
	keyParams
}

func encryptCommand(stdout io.Writer) *cli.Command {
	var params encryptParams

	return &cli.Command{
		Name:    "encrypt",
		Summary: "Seal RTON files with the entry cipher",
		Description: `Encrypt every RTON file in the input with the entry cipher, writing
the encrypted-entry marker followed by the ciphertext under the same
name. Selected files that hold JSON are encoded to RTON instead.`,
		Usage: "obbpatch encrypt --input IN --output OUT [--key K | --key-file F] [flags]",
		Examples: []cli.Example{
			{
				Description: "Encrypt with a key read from a file",
				Command:     "obbpatch encrypt -i levels -o sealed --key-file ~/.config/obbpatch/key",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("encrypt", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			cfg, err := prepare(args, params.commonParams, params.treeParams, params.keyParams.apply)
			if err != nil {
				return err
			}
			cbc, err := entryCipher(cfg)
			if err != nil {
				return err
			}
			job := patch.Encrypt{
				Extensions:          cfg.Encryption.Extensions,
				NoExtensionPrefixes: cfg.RTON.NoExtensionPrefixes,
				Cipher:              cbc,
			}
			return runJob(ctx, stdout, params.commonParams, cfg, params.treeParams, job)
		},
	}
}

type decodeParams struct {
	commonParams
	treeParams
	keyParams
	Repair bool `flag:"repair" desc:"end truncated RTON files instead of failing (default rton.repair)"`
}

func decodeCommand(stdout io.Writer) *cli.Command {
	var params decodeParams

	return &cli.Command{
		Name:    "decode",
		Summary: "Decode RTON files as JSON",
		Description: `Decode every RTON file in the input as ordered JSON. Key order and
duplicate keys are kept, so encoding the result reproduces the
document. Encrypted files are opened with the entry cipher.

Files are selected by rton.extensions, or by a base name starting with
one of rton.no_extension_prefixes.`,
		Usage: "obbpatch decode --input IN --output OUT [--repair] [flags]",
		Examples: []cli.Example{
			{
				Description: "Decode save files, repairing truncated ones",
				Command:     "obbpatch decode -i saves -o saves-json --repair",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("decode", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			cfg, err := prepare(args, params.commonParams, params.treeParams, params.keyParams.apply, func(cfg *config.Config) {
				if params.Repair {
					cfg.RTON.Repair = true
				}
			})
			if err != nil {
				return err
			}
			cbc, err := entryCipher(cfg)
			if err != nil {
				return err
			}
			job := patch.Decode{
				Extensions:          cfg.RTON.Extensions,
				NoExtensionPrefixes: cfg.RTON.NoExtensionPrefixes,
				Repair:              cfg.RTON.Repair,
				Indent:              cfg.RTON.Indent,
				ShortNames:          cfg.RTON.ShortNames,
				Cipher:              cbc,
			}
			return runJob(ctx, stdout, params.commonParams, cfg, params.treeParams, job)
		},
	}
}

// prepare checks the positional arguments and tree flags, loads the
// configuration, applies overrides and validates the result.
func prepare(args []string, common commonParams, tree treeParams, overrides ...func(*config.Config)) (*config.Config, error) {
	if len(args) > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", args[0])
	}
	if err := tree.check(); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(common.Config)
	if err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
