// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// obbpatch patches resource containers and converts RTON files.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/obbpatch/cmd/obbpatch/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that already reported the outcome return an error
		// carrying only an exit code.
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands.Root().Execute(ctx, os.Args[1:])
}
