// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rsb

import (
	"bytes"
	"errors"
	"io/fs"
	"path"

	"github.com/bureau-foundation/obbpatch/lib/binio"
	"github.com/bureau-foundation/obbpatch/lib/report"
	"github.com/bureau-foundation/obbpatch/lib/rijndael"
	"github.com/bureau-foundation/obbpatch/lib/rsgp"
	"github.com/bureau-foundation/obbpatch/lib/unpack"
)

// Replacement file suffixes.
const (
	RSGPSuffix = ".rsgp"
	SMFSuffix  = ".smf"
)

// bareSectionName is the section name a bare "pgsr" file is patched
// under.
const bareSectionName = "data"

// Options configures a Walker.
type Options struct {
	Level unpack.Level

	// Sections selects the container sections to patch. Bare section
	// files are always patched.
	Sections unpack.Filter
	// Entries selects the section entries to patch.
	Entries unpack.Filter

	Cipher        *rijndael.CBC
	SectionCipher *rijndael.CBC

	// Source holds the replacement files.
	Source fs.FS
	Run    *report.Run
}

// Walker patches containers.
type Walker struct {
	options Options
	patcher *rsgp.Patcher
}

// New returns a Walker.
func New(options Options) *Walker {
	return &Walker{
		options: options,
		patcher: rsgp.New(rsgp.Options{
			Level:         options.Level,
			Entries:       options.Entries,
			Cipher:        options.Cipher,
			SectionCipher: options.SectionCipher,
			Source:        options.Source,
			Run:           options.Run,
		}),
	}
}

// Result is a patched container ready to be written.
type Result struct {
	Data []byte
	// Suffix is appended to the output name: SMFSuffix when a plain
	// container was packed into an envelope, otherwise empty.
	Suffix string
}

// Patch patches one container. name identifies it in the run report and
// dir is the directory of the source file system holding its
// replacement files. A nil Result means there is nothing to write.
//
// Failures confined to one section are recorded in the run report;
// the returned error means the container as a whole could not be
// patched.
func (w *Walker) Patch(name, dir string, data []byte) (*Result, error) {
	level := w.options.Level
	wrapped := IsWrapped(data) && level > unpack.RSB
	if wrapped {
		w.options.Run.Info(name, "", "decompressing envelope")
		var err error
		if data, err = Unwrap(data); err != nil {
			return nil, err
		}
	}

	out := binio.NewBuffer(bytes.Clone(data))
	r := binio.NewReader(data)
	switch {
	case r.Magic(Magic):
		result := &Result{}
		if level < unpack.RSGP {
			result.Suffix = SMFSuffix
		} else if err := w.patchSections(out, name, dir); err != nil {
			return nil, err
		}
		if level < unpack.RSGP || wrapped {
			w.options.Run.Info(name, "", "compressing envelope")
			packed, err := Wrap(out.Bytes())
			if err != nil {
				return nil, err
			}
			result.Data = packed
			return result, nil
		}
		result.Data = out.Bytes()
		return result, nil

	case r.Magic(rsgp.Magic):
		if err := w.patcher.Patch(out, rsgp.Section{Name: bareSectionName, Dir: dir, Path: name}); err != nil {
			return nil, err
		}
		if wrapped {
			packed, err := Wrap(out.Bytes())
			if err != nil {
				return nil, err
			}
			return &Result{Data: packed}, nil
		}
		return &Result{Data: out.Bytes()}, nil

	case IsWrapped(data):
		w.options.Run.Info(name, "", "already packed")
		return nil, nil
	}
	return nil, binio.Formatf(0, "unrecognized container magic % x", data[:min(len(data), 4)])
}

// patchSections applies replacements to every selected section of a
// "1bsr" container.
func (w *Walker) patchSections(out *binio.Buffer, name, dir string) error {
	records, err := ParseTable(out.Bytes())
	if err != nil {
		return err
	}
	for _, record := range records {
		if !w.options.Sections.Match(record.Name) {
			continue
		}
		if w.options.Level < unpack.Section {
			err = w.replaceSection(out, name, dir, record)
		} else {
			err = w.patcher.Patch(out, rsgp.Section{Name: record.Name, Offset: int(record.Offset), Size: int(record.Size), Dir: dir, Path: name})
		}
		if err != nil {
			w.options.Run.Error(name, record.Name, err)
		}
	}
	return nil
}

// replaceSection overwrites a whole section from its .rsgp file.
func (w *Walker) replaceSection(out *binio.Buffer, name, dir string, record Record) error {
	source := record.Name + RSGPSuffix
	data, err := fs.ReadFile(w.options.Source, path.Join(dir, source))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := out.WriteRegion(int(record.Offset), int(record.Size), data); err != nil {
		return err
	}
	w.options.Run.Patched(name, source, data)
	return nil
}
