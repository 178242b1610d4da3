// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package deflate compresses and decompresses the zlib-framed deflate
// streams used by section blobs and the outer container envelope.
package deflate

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// BestCompression is the level used when re-encoding patched blobs.
// Output at this level is what the game's own packer produces, which
// keeps recompressed blobs inside their original reserved size.
const BestCompression = zlib.BestCompression

// Compress returns data as a zlib stream at the given level.
func Compress(data []byte, level int) ([]byte, error) {
	var out bytes.Buffer
	writer, err := zlib.NewWriterLevel(&out, level)
	if err != nil {
		return nil, fmt.Errorf("deflate: creating writer at level %d: %w", level, err)
	}
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("deflate: compressing: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("deflate: finishing stream: %w", err)
	}
	return out.Bytes(), nil
}

// MaxRatio is the largest factor by which a deflate stream can expand.
const MaxRatio = 1032

// ErrTooLarge reports a stream that inflates past its declared size.
var ErrTooLarge = errors.New("deflate: stream inflates past its declared size")

// Decompress inflates a zlib stream. Bytes after the end of the stream
// (zero padding up to a reserved size) are ignored. When size is
// positive it is the declared uncompressed size: a stream that
// inflates to more fails with ErrTooLarge. Preallocation never exceeds
// what data could inflate to.
func Decompress(data []byte, size int) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("deflate: reading stream header: %w", err)
	}
	defer reader.Close()

	var out bytes.Buffer
	var source io.Reader = reader
	if size > 0 {
		out.Grow(min(size, MaxRatio*len(data)))
		source = io.LimitReader(reader, int64(size)+1)
	}
	if _, err := io.Copy(&out, source); err != nil {
		return nil, fmt.Errorf("deflate: decompressing: %w", err)
	}
	if size > 0 && out.Len() > size {
		return nil, fmt.Errorf("%w (%d bytes declared)", ErrTooLarge, size)
	}
	return out.Bytes(), nil
}
