// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/obbpatch/cmd/obbpatch/cli"
	"github.com/bureau-foundation/obbpatch/lib/report"
)

type reportParams struct {
	All bool `flag:"all,a" desc:"list every event, not only warnings and errors"`
}

func reportCommand(stdout io.Writer) *cli.Command {
	var params reportParams

	return &cli.Command{
		Name:    "report",
		Summary: "Show a saved run report",
		Description: `Print the warnings and errors of a run report saved with --report,
followed by the run's summary.`,
		Usage: "obbpatch report [--all] FILE",
		Examples: []cli.Example{
			{
				Description: "Show what failed in the last run",
				Command:     "obbpatch report run.cbor",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("report", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected one report file, got %d arguments", len(args))
			}
			summary, err := report.Load(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "obbpatch %s, started %s\n\n", summary.Version, summary.Started.Format(time.RFC3339))
			tw := tabwriter.NewWriter(stdout, 2, 0, 2, ' ', 0)
			for _, event := range summary.Events {
				if !params.All && event.Kind != report.KindWarning && event.Kind != report.KindError {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", event.Kind, event.Path, event.Entry, describe(event))
			}
			tw.Flush()
			fmt.Fprintln(stdout)
			cli.PrintSummary(stdout, summary, "")
			return nil
		},
	}
}

func describe(event report.Event) string {
	if event.Message != "" {
		return event.Message
	}
	if event.Digest != nil {
		return fmt.Sprintf("%d bytes, %s", event.Size, event.Digest)
	}
	return ""
}
