// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package patch

import (
	"context"
	"os"
	"path"

	"github.com/bureau-foundation/obbpatch/lib/rsb"
)

// Containers patches every container in a tree from a directory of
// replacement files that mirrors the input: the replacements for
// dir/main.obb live in <Patch>/dir/main. For a single input file the
// patch directory itself holds them.
type Containers struct {
	// Patch is the root directory of the replacement files.
	Patch string
	// Extensions selects the files treated as containers.
	Extensions []string
	// Exclude removes files matching Extensions that also end in one of
	// these suffixes.
	Exclude []string
	// Walker configures container patching. Its Source and Run are
	// filled in from Patch and the tree.
	Walker rsb.Options
}

func (c Containers) Run(ctx context.Context, tree Tree) error {
	options := c.Walker
	options.Source = os.DirFS(c.Patch)
	options.Run = tree.Run
	walker := rsb.New(options)

	tree.Skip = append(append([]string(nil), tree.Skip...), c.Patch)
	return tree.walk(ctx, func(in, out, rel string) error {
		if !hasSuffixFold(in, c.Extensions) || hasSuffixFold(in, c.Exclude) {
			return nil
		}
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		result, err := walker.Patch(in, patchDir(rel), data)
		if err != nil || result == nil {
			return err
		}
		return tree.write(out+result.Suffix, result.Data)
	})
}

// patchDir is the replacement directory, relative to the patch root,
// for the container at rel: rel without its last extension.
func patchDir(rel string) string {
	if rel == "" {
		return "."
	}
	return rel[:len(rel)-len(path.Ext(rel))]
}
