// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/obbpatch/cmd/obbpatch/cli"
	"github.com/bureau-foundation/obbpatch/lib/clock"
	"github.com/bureau-foundation/obbpatch/lib/config"
	"github.com/bureau-foundation/obbpatch/lib/patch"
	"github.com/bureau-foundation/obbpatch/lib/report"
	"github.com/bureau-foundation/obbpatch/lib/rijndael"
	"github.com/bureau-foundation/obbpatch/lib/secret"
)

// commonParams are accepted by every job command.
type commonParams struct {
	Config  string `flag:"config,c" desc:"configuration file, YAML or JSON with comments (default $OBBPATCH_CONFIG)"`
	Report  string `flag:"report" desc:"save the run report as CBOR to this path (default paths.report)"`
	Verbose bool   `flag:"verbose,v" desc:"log debug output"`
}

type treeParams struct {
	Input  string `flag:"input,i" desc:"input file or directory (required)"`
	Output string `flag:"output,o" desc:"output file or directory (required)"`
}

type keyParams struct {
	Key     string `flag:"key" desc:"entry cipher key as raw text (default encryption.key)"`
	KeyFile string `flag:"key-file" desc:"read the entry cipher key from a file, - for stdin"`
}

// loadConfig loads path, or the file named by OBBPATCH_CONFIG, falling
// back to the defaults when neither is given. Callers apply their flag
// overrides and then validate.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNotConfigured) {
		return config.Default(), nil
	}
	return cfg, err
}

// apply overrides the configured key.
func (p keyParams) apply(cfg *config.Config) {
	switch {
	case p.KeyFile != "":
		cfg.Encryption.KeyFile = p.KeyFile
	case p.Key != "":
		cfg.Encryption.Key = p.Key
		cfg.Encryption.KeyFile = ""
	}
}

func (p treeParams) check() error {
	if p.Input == "" || p.Output == "" {
		return fmt.Errorf("--input and --output are required")
	}
	return nil
}

func entryCipher(cfg *config.Config) (*rijndael.CBC, error) {
	return secret.Cipher(cfg.Encryption.Key, cfg.Encryption.KeyFile, cfg.Encryption.BlockSize)
}

// runJob runs job over the tree, saves the report and prints the
// summary. A run that recorded errors ends with exit code 2.
func runJob(ctx context.Context, stdout io.Writer, common commonParams, cfg *config.Config, tree treeParams, job patch.Job) error {
	logger := cli.NewCommandLogger(common.Verbose)
	run := report.New(logger, clock.Real())

	err := job.Run(ctx, patch.Tree{
		Input:  tree.Input,
		Output: tree.Output,
		Run:    run,
	})

	summary := run.Finish()
	reportPath := common.Report
	if reportPath == "" {
		reportPath = cfg.Paths.Report
	}
	if reportPath != "" {
		if saveErr := summary.Save(reportPath); saveErr != nil {
			logger.Error("saving run report", "path", reportPath, "error", saveErr)
			reportPath = ""
		}
	}
	if err != nil {
		return err
	}
	cli.PrintSummary(stdout, summary, reportPath)
	if run.HasErrors() {
		return &cli.ExitError{Code: cli.ExitCodeErrors}
	}
	return nil
}
