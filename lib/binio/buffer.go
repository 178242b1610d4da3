// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binio

import (
	"encoding/binary"
	"strconv"
)

// Buffer is an owned, fixed-length byte buffer that patch code writes
// into. Writes are bounds-checked and never grow the buffer; only
// PadTo extends it.
type Buffer struct {
	data []byte
}

// NewBuffer takes ownership of data.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Bytes returns the buffer contents. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the buffer length.
func (b *Buffer) Len() int { return len(b.data) }

// Slice returns n bytes starting at offset, aliasing the buffer.
func (b *Buffer) Slice(offset, n int) ([]byte, error) {
	if err := b.checkRange(offset, n); err != nil {
		return nil, err
	}
	return b.data[offset : offset+n], nil
}

// WriteRegion copies data into the slot [offset, offset+slot) and
// zero-fills the remainder of the slot. If data is longer than the slot
// the buffer is not modified and a *CapacityError is returned.
func (b *Buffer) WriteRegion(offset, slot int, data []byte) error {
	if err := b.checkRange(offset, slot); err != nil {
		return err
	}
	if len(data) > slot {
		return &CapacityError{What: "region at offset " + itoa(offset), Need: len(data), Have: slot}
	}
	region := b.data[offset : offset+slot]
	n := copy(region, data)
	clear(region[n:])
	return nil
}

// PutUint32 stores v little-endian at offset.
func (b *Buffer) PutUint32(offset int, v uint32) error {
	if err := b.checkRange(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b.data[offset:], v)
	return nil
}

// PadTo zero-extends the buffer to n bytes. A buffer already at least n
// bytes long is left as is; PadTo never truncates.
func (b *Buffer) PadTo(n int) {
	if n > len(b.data) {
		b.data = append(b.data, make([]byte, n-len(b.data))...)
	}
}

func (b *Buffer) checkRange(offset, n int) error {
	if offset < 0 || n < 0 || offset > len(b.data) || n > len(b.data)-offset {
		return Formatf(offset, "region of %d bytes outside buffer of %d", n, len(b.data))
	}
	return nil
}

func itoa(n int) string { return strconv.Itoa(n) }
