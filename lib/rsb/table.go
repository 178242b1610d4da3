// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rsb

import (
	"fmt"

	"github.com/bureau-foundation/obbpatch/lib/binio"
)

// Magic identifies a "1bsr" container.
const Magic = "1bsr"

// The section count and table offset are consecutive words at
// offsetCount. Records are fixed width.
const (
	offsetCount    = 40
	recordNameSize = 128
	recordReserved = 68
	recordSize     = recordNameSize + 8 + recordReserved
)

// Record is one row of a container's section table.
type Record struct {
	Name   string
	Offset uint32
	Size   uint32
}

// ParseTable reads the section table of a "1bsr" container.
func ParseTable(container []byte) ([]Record, error) {
	r := binio.NewReader(container)
	if !r.Magic(Magic) {
		return nil, binio.Formatf(0, "bad container magic, want %q", Magic)
	}
	if err := r.Seek(offsetCount); err != nil {
		return nil, fmt.Errorf("reading container header: %w", err)
	}
	count, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("reading section count: %w", err)
	}
	table, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("reading section table offset: %w", err)
	}
	// Reject counts the file cannot possibly hold before allocating.
	if uint64(count)*recordSize > uint64(len(container)) {
		return nil, binio.Formatf(offsetCount, "section count %d exceeds the container size", count)
	}
	if err := r.Seek(int(table)); err != nil {
		return nil, fmt.Errorf("seeking to section table: %w", err)
	}

	records := make([]Record, 0, count)
	for i := range int(count) {
		var record Record
		record.Name, err = r.FixedString(recordNameSize)
		if err == nil {
			record.Offset, err = r.U32()
		}
		if err == nil {
			record.Size, err = r.U32()
		}
		if err == nil {
			err = r.Skip(recordReserved)
		}
		if err != nil {
			return nil, fmt.Errorf("reading section record %d: %w", i, err)
		}
		records = append(records, record)
	}
	return records, nil
}
