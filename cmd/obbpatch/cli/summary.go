// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/obbpatch/lib/report"
)

// PrintSummary writes the closing lines of a run to w. Styles are only
// rendered when w is a color terminal.
func PrintSummary(w io.Writer, summary *report.Summary, reportPath string) {
	renderer := lipgloss.NewRenderer(w)
	doneStyle := renderer.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warningStyle := renderer.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	errorStyle := renderer.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	faintStyle := renderer.NewStyle().Faint(true)

	counts := summary.Counts()
	fmt.Fprintf(w, "%s %s\n",
		doneStyle.Render("finished"),
		faintStyle.Render(fmt.Sprintf("in %s: %s patched, %s written",
			summary.Elapsed.Round(time.Millisecond),
			plural(counts.Patched, "entry", "entries"),
			plural(counts.Wrote, "file", "files"))))

	if counts.Warnings > 0 {
		fmt.Fprintf(w, "%s\n", warningStyle.Render(plural(counts.Warnings, "warning", "warnings")))
	}
	if counts.Errors > 0 {
		line := plural(counts.Errors, "error", "errors") + " occurred"
		if reportPath != "" {
			line += ", see " + reportPath
		}
		fmt.Fprintf(w, "%s\n", errorStyle.Render(line))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
