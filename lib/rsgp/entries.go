// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rsgp

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/bureau-foundation/obbpatch/lib/binio"
)

// flaggedExtra is the size of the metadata that follows a flagged
// entry record.
const flaggedExtra = 20

// Entry is one record of a section's entry table.
type Entry struct {
	// Name is the entry path as stored, backslash separated.
	Name string
	// Offset is the payload position within the decoded blob.
	Offset uint32
	// Size is the stored payload length.
	Size    uint32
	Flagged bool

	// SizeField is the position of the stored size relative to the
	// section start.
	SizeField int

	// Slot is the space available at Offset: the distance to the next
	// entry, or to the end of the blob for the last one. It is -1 for
	// an entry that sorts after the end of the blob.
	Slot int
}

// prefix is a name shared by the records that follow, valid until the
// table cursor passes end.
type prefix struct {
	name string
	end  int
}

// ParseEntries decodes the entry table of a section and returns its
// entries sorted by offset, with Slot set. blobSize is the decoded blob
// length and closes the last slot.
//
// Names are prefix-compressed. Each name byte is followed by a 24-bit
// word; when non-zero it records, in units of four bytes from the
// table start, where the sibling branch that shares the name so far
// begins. A record starts from the most recently registered prefix
// whose branch has not yet been passed. An empty name ends the table,
// as does reaching the declared table size.
func ParseEntries(section []byte, h Header, blobSize uint32) ([]Entry, error) {
	start := int(h.InfoOffset)
	limit := start + int(h.InfoSize)
	r := binio.NewReader(section)
	if err := r.Seek(start); err != nil {
		return nil, fmt.Errorf("seeking to entry table: %w", err)
	}

	var prefixes []prefix
	var entries []Entry
	for r.Pos() < limit {
		position := r.Pos()
		name := ""
		kept := prefixes[:0]
		for _, p := range prefixes {
			if start+p.end < position {
				continue
			}
			kept = append(kept, p)
			name = p.name
		}
		prefixes = kept

		buf := []byte(name)
		for {
			c, err := r.U8()
			if err != nil {
				return nil, fmt.Errorf("reading entry name: %w", err)
			}
			branch, err := r.U24()
			if err != nil {
				return nil, fmt.Errorf("reading entry name: %w", err)
			}
			if branch != 0 {
				prefixes = registerPrefix(prefixes, string(buf), 4*int(branch))
			}
			if c == 0 {
				break
			}
			buf = append(buf, c)
		}
		if len(buf) == 0 {
			break
		}

		entry := Entry{Name: string(buf)}
		flag, err := r.U32()
		if err == nil {
			entry.Offset, err = r.U32()
		}
		if err == nil {
			entry.Size, err = r.U32()
		}
		if err != nil {
			return nil, fmt.Errorf("reading entry %q: %w", entry.Name, err)
		}
		entry.SizeField = r.Pos() - 4
		if flag != 0 {
			entry.Flagged = true
			if err := r.Skip(flaggedExtra); err != nil {
				return nil, fmt.Errorf("reading entry %q: %w", entry.Name, err)
			}
		}
		entries = append(entries, entry)
	}

	// The end of the blob closes the last slot; it takes part in the
	// ordering but is not returned.
	entries = append(entries, Entry{Offset: blobSize})
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
	result := make([]Entry, 0, len(entries)-1)
	for i, entry := range entries {
		if entry.Name == "" {
			continue
		}
		entry.Slot = -1
		if i+1 < len(entries) {
			entry.Slot = int(entries[i+1].Offset - entry.Offset)
		}
		result = append(result, entry)
	}
	return result, nil
}

// registerPrefix records name with the given branch end, replacing the
// end of an existing registration in place.
func registerPrefix(prefixes []prefix, name string, end int) []prefix {
	for i := range prefixes {
		if prefixes[i].name == name {
			prefixes[i].end = end
			return prefixes
		}
	}
	return append(prefixes, prefix{name: name, end: end})
}
