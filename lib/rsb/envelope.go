// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rsb

import (
	"bytes"
	"encoding/binary"

	"github.com/bureau-foundation/obbpatch/lib/binio"
	"github.com/bureau-foundation/obbpatch/lib/deflate"
)

// EnvelopeMagic starts an SMF envelope.
var EnvelopeMagic = []byte{0xD4, 0xFE, 0xAD, 0xDE}

const envelopeHeaderSize = 8

// IsWrapped reports whether data starts with EnvelopeMagic.
func IsWrapped(data []byte) bool {
	return bytes.HasPrefix(data, EnvelopeMagic)
}

// Unwrap returns the contents of an SMF envelope.
func Unwrap(data []byte) ([]byte, error) {
	if !IsWrapped(data) {
		return nil, binio.Formatf(0, "missing envelope magic")
	}
	r := binio.NewReader(data)
	if err := r.Skip(len(EnvelopeMagic)); err != nil {
		return nil, err
	}
	size, err := r.U32()
	if err != nil {
		return nil, err
	}
	return deflate.Decompress(data[envelopeHeaderSize:], int(size))
}

// Wrap packs data into an SMF envelope at maximum compression.
func Wrap(data []byte) ([]byte, error) {
	compressed, err := deflate.Compress(data, deflate.BestCompression)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, envelopeHeaderSize+len(compressed))
	out = append(out, EnvelopeMagic...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	return append(out, compressed...), nil
}
