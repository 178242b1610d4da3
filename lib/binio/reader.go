// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binio

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Reader reads little-endian values from an in-memory byte slice.
// Slices returned by Bytes alias the underlying data.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

// Size returns the total length of the underlying data.
func (r *Reader) Size() int { return len(r.data) }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.data) - r.pos }

// Seek moves the read offset to an absolute position. Seeking to
// exactly Size is allowed (the reader is then at end of input).
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return &FormatError{Offset: pos, Reason: "seek outside input", Err: io.ErrUnexpectedEOF}
	}
	r.pos = pos
	return nil
}

// Skip advances the read offset by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		return Formatf(r.pos, "negative skip %d", n)
	}
	return r.Seek(r.pos + n)
}

// Bytes returns the next n bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, &FormatError{
			Offset: r.pos,
			Reason: "need " + itoa(n) + " bytes, have " + itoa(r.Len()),
			Err:    io.ErrUnexpectedEOF,
		}
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// U8 reads one byte.
func (r *Reader) U8() (byte, error) {
	b, err := r.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U24 reads a little-endian 3-byte unsigned integer.
func (r *Reader) U24() (uint32, error) {
	b, err := r.Bytes(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Uvarint reads a base-128 unsigned varint, low group first. The wire
// form is the one encoding/binary produces.
func (r *Reader) Uvarint() (uint64, error) {
	value, n := binary.Uvarint(r.data[r.pos:])
	switch {
	case n == 0:
		return 0, &FormatError{Offset: r.pos, Reason: "truncated varint", Err: io.ErrUnexpectedEOF}
	case n < 0:
		return 0, Formatf(r.pos, "varint overflows 64 bits")
	}
	r.pos += n
	return value, nil
}

// FixedString reads an n-byte field and strips NUL padding from both
// ends.
func (r *Reader) FixedString(n int) (string, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	return string(bytes.Trim(b, "\x00")), nil
}

// Magic reports whether the unread input starts with magic, without
// consuming them.
func (r *Reader) Magic(magic string) bool {
	return r.Len() >= len(magic) && string(r.data[r.pos:r.pos+len(magic)]) == magic
}
