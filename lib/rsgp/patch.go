// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rsgp

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/bureau-foundation/obbpatch/lib/binio"
	"github.com/bureau-foundation/obbpatch/lib/report"
	"github.com/bureau-foundation/obbpatch/lib/rijndael"
	"github.com/bureau-foundation/obbpatch/lib/rton"
	"github.com/bureau-foundation/obbpatch/lib/unpack"
)

// SectionSuffix names the whole-blob replacement file of a section.
const SectionSuffix = ".section"

const rtonSuffix = ".rton"

// Options configures a Patcher.
type Options struct {
	// Level selects how deeply sections are patched. Values at or
	// below unpack.Section replace the whole blob.
	Level unpack.Level

	// Entries selects the entries to patch.
	Entries unpack.Filter

	// Cipher seals replacement payloads of encrypted RTON entries. It
	// may be nil, in which case patching such an entry is an error.
	Cipher *rijndael.CBC

	// SectionCipher decrypts and re-encrypts encrypted blobs. When nil
	// an encrypted blob is patched as if it were stored.
	SectionCipher *rijndael.CBC

	// Source holds the replacement files.
	Source fs.FS

	Run *report.Run
}

// Patcher applies replacement files to sections.
type Patcher struct {
	options Options
}

// New returns a Patcher.
func New(options Options) *Patcher {
	return &Patcher{options: options}
}

// Section identifies one section to patch.
type Section struct {
	// Name is the section's name in its container. A bare section file
	// is named "data".
	Name string
	// Offset is where the section starts within the output buffer.
	Offset int
	// Size bounds the section; zero means it runs to the end of the
	// buffer.
	Size int
	// Dir is the directory of Source holding this container's
	// replacement files.
	Dir string
	// Path identifies the container in the run report.
	Path string
}

// sizeUpdate is a pending rewrite of an entry's size field.
type sizeUpdate struct {
	entry   string
	field   int
	payload []byte
}

// Patch patches the section s within out. Failures confined to a single
// entry are recorded in the run report and do not stop the section;
// the returned error covers the section as a whole. When nothing is
// replaced the section is left byte for byte as it was.
func (p *Patcher) Patch(out *binio.Buffer, s Section) error {
	size := s.Size
	if size == 0 {
		size = out.Len() - s.Offset
	}
	view, err := out.Slice(s.Offset, size)
	if err != nil {
		return err
	}
	if p.options.Level <= unpack.Section {
		return p.replaceBlob(out, view, s)
	}

	contents, err := Read(view, p.options.SectionCipher)
	if err != nil {
		return err
	}
	if contents.Data == nil {
		p.options.Run.Info(s.Path, s.Name, "section declares no data")
		return nil
	}

	decoded := binio.NewBuffer(contents.Data)
	var updates []sizeUpdate
	for _, entry := range contents.Entries {
		if !p.options.Entries.Match(entry.Name) {
			continue
		}
		payload, patched, err := p.patchEntry(decoded, s, entry)
		if err != nil {
			p.options.Run.Error(s.Path, entry.Name, err)
			continue
		}
		if !patched {
			continue
		}
		updates = append(updates, sizeUpdate{entry: entry.Name, field: s.Offset + entry.SizeField, payload: payload})
	}
	if len(updates) == 0 {
		return nil
	}

	if err := writeBlob(out, s.Offset, contents.Blob, decoded.Bytes(), p.options.SectionCipher); err != nil {
		return err
	}
	for _, update := range updates {
		if err := out.PutUint32(update.field, uint32(len(update.payload))); err != nil {
			return fmt.Errorf("updating size of %s: %w", update.entry, err)
		}
		p.options.Run.Patched(s.Path, update.entry, update.payload)
	}
	return nil
}

// replaceBlob swaps the whole decoded blob for the section's
// replacement file.
func (p *Patcher) replaceBlob(out *binio.Buffer, view []byte, s Section) error {
	header, err := ParseHeader(view)
	if err != nil {
		return err
	}
	blob, ok, err := header.Blob()
	if err != nil {
		return err
	}
	if ok {
		if err := blob.check(len(view)); err != nil {
			return err
		}
	}

	name := s.Name + SectionSuffix
	data, err := fs.ReadFile(p.options.Source, path.Join(s.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !ok {
		return binio.Formatf(s.Offset, "section %s declares no data to replace", s.Name)
	}
	if len(data) > int(blob.UncompressedSize) {
		return &binio.CapacityError{What: name, Need: len(data), Have: int(blob.UncompressedSize)}
	}
	if err := writeBlob(out, s.Offset, blob, data, p.options.SectionCipher); err != nil {
		return err
	}
	p.options.Run.Patched(s.Path, name, data)
	return nil
}

// patchEntry writes the replacement for entry into the decoded blob. It
// returns the payload written; patched is false when the entry has no
// replacement file.
func (p *Patcher) patchEntry(decoded *binio.Buffer, s Section, entry Entry) (payload []byte, patched bool, err error) {
	if entry.Slot < 0 {
		return nil, false, binio.Formatf(int(entry.Offset), "entry lies beyond the end of the blob")
	}
	slot, err := decoded.Slice(int(entry.Offset), entry.Slot)
	if err != nil {
		return nil, false, err
	}

	name := strings.ReplaceAll(entry.Name, `\`, "/")
	isRTON := strings.HasSuffix(unpack.Normalize(name), rtonSuffix)
	payload, err = p.replacement(s.Dir, name, isRTON)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if isRTON && p.options.Level > unpack.Encrypted && rijndael.IsSealed(slot) {
		if p.options.Cipher == nil {
			return nil, false, fmt.Errorf("entry is encrypted and no key is configured")
		}
		payload = p.options.Cipher.SealEntry(payload)
	}

	if err := decoded.WriteRegion(int(entry.Offset), entry.Slot, payload); err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// replacement reads the replacement payload for an entry. At the
// DECODED level RTON entries are built from JSON; everything else is
// copied as is.
func (p *Patcher) replacement(dir, name string, isRTON bool) ([]byte, error) {
	if p.options.Level < unpack.Decoded || !isRTON {
		return fs.ReadFile(p.options.Source, path.Join(dir, name))
	}

	stem := name[:len(name)-len(rtonSuffix)]
	source, err := fs.ReadFile(p.options.Source, path.Join(dir, stem+".JSON"))
	if errors.Is(err, fs.ErrNotExist) {
		source, err = fs.ReadFile(p.options.Source, path.Join(dir, stem+".json"))
	}
	if err != nil {
		return nil, err
	}
	root, err := rton.ParseJSON(source)
	if err != nil {
		return nil, err
	}
	return rton.Encode(root)
}
