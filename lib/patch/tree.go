// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package patch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/obbpatch/lib/report"
)

// Job converts the files of a tree.
type Job interface {
	Run(ctx context.Context, tree Tree) error
}

// Tree is an input file or directory mirrored into an output path.
type Tree struct {
	Input  string
	Output string
	// Skip lists further directories the traversal never enters. The
	// output is always skipped.
	Skip []string
	Run  *report.Run
}

// OutputError reports a failure writing output. It stops the job.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }

// visitor converts one file. rel is the file's slash-separated path
// relative to the tree input, or "" when the input is a single file.
type visitor func(in, out, rel string) error

func (t Tree) walk(ctx context.Context, visit visitor) error {
	info, err := os.Stat(t.Input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if !info.IsDir() {
		return t.visitFile(t.Input, t.Output, "", visit)
	}

	skip := make([]string, 0, len(t.Skip)+1)
	for _, root := range append([]string{t.Output}, t.Skip...) {
		if root == "" {
			continue
		}
		absolute, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", root, err)
		}
		skip = append(skip, absolute)
	}
	return t.walkDir(ctx, t.Input, t.Output, ".", skip, visit)
}

func (t Tree) walkDir(ctx context.Context, inDir, outDir, rel string, skip []string, visit visitor) error {
	entries, err := os.ReadDir(inDir)
	if err != nil {
		t.Run.Error(inDir, "", err)
		return nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return &OutputError{Path: outDir, Err: err}
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		in := filepath.Join(inDir, entry.Name())
		out := filepath.Join(outDir, entry.Name())
		childRel := path.Join(rel, entry.Name())

		info, err := os.Stat(in)
		if err != nil {
			t.Run.Error(in, "", err)
			continue
		}
		if info.IsDir() {
			if within(in, skip) {
				t.Run.Info(in, "", "not descending into output or patch directory")
				continue
			}
			if err := t.walkDir(ctx, in, out, childRel, skip, visit); err != nil {
				return err
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if err := t.visitFile(in, out, childRel, visit); err != nil {
			return err
		}
	}
	return nil
}

func (t Tree) visitFile(in, out, rel string, visit visitor) error {
	err := visit(in, out, rel)
	if err == nil {
		return nil
	}
	var outputErr *OutputError
	if errors.As(err, &outputErr) {
		return err
	}
	t.Run.Error(in, "", err)
	return nil
}

// write stores data at name, creating parent directories.
func (t Tree) write(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return &OutputError{Path: name, Err: err}
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return &OutputError{Path: name, Err: err}
	}
	t.Run.Wrote(name, data)
	return nil
}

// within reports whether dir equals or lies inside any of roots, all
// of which are absolute.
func within(dir string, roots []string) bool {
	absolute, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	for _, root := range roots {
		rel, err := filepath.Rel(root, absolute)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

// hasSuffixFold reports whether name ends with any of suffixes,
// ignoring case.
func hasSuffixFold(name string, suffixes []string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range suffixes {
		if strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

// hasPrefixFold reports whether name starts with any of prefixes,
// ignoring case.
func hasPrefixFold(name string, prefixes []string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range prefixes {
		if strings.HasPrefix(lower, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}
