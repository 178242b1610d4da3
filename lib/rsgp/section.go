// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rsgp

import (
	"bytes"
	"fmt"

	"github.com/bureau-foundation/obbpatch/lib/binio"
	"github.com/bureau-foundation/obbpatch/lib/deflate"
	"github.com/bureau-foundation/obbpatch/lib/rijndael"
	"github.com/bureau-foundation/obbpatch/lib/unpack"
)

// Magic starts every section.
const Magic = "pgsr"

// Header field positions, relative to the section start.
const (
	offsetVersion    = 4
	offsetType       = 16
	offsetBase       = 20
	offsetPrimary    = 24
	offsetSecondary  = 40
	offsetInfoSize   = 72
	offsetInfoOffset = 76

	// HeaderSize is the number of header bytes the patcher reads.
	HeaderSize = 80
)

// Descriptor locates a data blob: where it starts relative to the
// section, how many bytes it occupies and how many it expands to.
type Descriptor struct {
	DataOffset       uint32
	CompressedSize   uint32
	UncompressedSize uint32
}

// Header is the parsed fixed part of a section.
type Header struct {
	Version uint32
	// Type is the blob encoding code.
	Type uint32
	Base uint32

	Primary   Descriptor
	Secondary Descriptor

	// InfoSize and InfoOffset locate the entry table.
	InfoSize   uint32
	InfoOffset uint32
}

// ParseHeader reads the header of the section starting at section[0].
func ParseHeader(section []byte) (Header, error) {
	if !bytes.HasPrefix(section, []byte(Magic)) {
		return Header{}, binio.Formatf(0, "missing %s magic", Magic)
	}
	r := binio.NewReader(section)
	var h Header
	fields := []struct {
		offset int
		dst    *uint32
	}{
		{offsetVersion, &h.Version},
		{offsetType, &h.Type},
		{offsetBase, &h.Base},
		{offsetPrimary, &h.Primary.DataOffset},
		{offsetPrimary + 4, &h.Primary.CompressedSize},
		{offsetPrimary + 8, &h.Primary.UncompressedSize},
		{offsetSecondary, &h.Secondary.DataOffset},
		{offsetSecondary + 4, &h.Secondary.CompressedSize},
		{offsetSecondary + 8, &h.Secondary.UncompressedSize},
		{offsetInfoSize, &h.InfoSize},
		{offsetInfoOffset, &h.InfoOffset},
	}
	for _, field := range fields {
		if err := r.Seek(field.offset); err != nil {
			return Header{}, err
		}
		v, err := r.U32()
		if err != nil {
			return Header{}, fmt.Errorf("reading section header: %w", err)
		}
		*field.dst = v
	}
	return h, nil
}

// Encoding is how a blob is stored.
type Encoding int

const (
	Stored Encoding = iota
	Deflated
	Encrypted
)

func (e Encoding) String() string {
	switch e {
	case Stored:
		return "stored"
	case Deflated:
		return "deflated"
	case Encrypted:
		return "encrypted"
	}
	return fmt.Sprintf("encoding(%d)", int(e))
}

// Blob is the descriptor in effect for a section and its encoding.
type Blob struct {
	Descriptor
	// Secondary is set when the primary descriptor declared no data
	// and the secondary one is used.
	Secondary bool
	Encoding  Encoding
}

// Blob returns the blob the section declares. ok is false when neither
// descriptor declares any data.
func (h Header) Blob() (blob Blob, ok bool, err error) {
	blob = Blob{Descriptor: h.Primary}
	if blob.UncompressedSize == 0 {
		blob = Blob{Descriptor: h.Secondary, Secondary: true}
		if blob.UncompressedSize == 0 {
			return Blob{}, false, nil
		}
	}
	blob.Encoding, err = encodingOf(h.Type, blob.Secondary)
	if err != nil {
		return Blob{}, false, err
	}
	return blob, true, nil
}

// encodingOf maps a type code to an encoding. Behind the primary
// descriptor 1 is stored and 3 is deflated; behind the secondary one
// every non-zero code up to 3 is deflated. 0 is encrypted in both.
func encodingOf(code uint32, secondary bool) (Encoding, error) {
	switch {
	case code == 0:
		return Encrypted, nil
	case code == 1 && !secondary:
		return Stored, nil
	case code == 3, secondary && code <= 3:
		return Deflated, nil
	}
	return 0, &binio.UnsupportedTypeError{What: "section blob", Code: code}
}

// check rejects a blob that does not fit in a section of sectionSize
// bytes or whose uncompressed size its encoding cannot produce from
// CompressedSize bytes. Blobs are padded to UncompressedSize in memory,
// so the size must be checked before anything is allocated.
func (b Blob) check(sectionSize int) error {
	if uint64(b.DataOffset)+uint64(b.CompressedSize) > uint64(sectionSize) {
		return binio.Formatf(int(b.DataOffset), "%s blob of %d bytes extends past the %d-byte section", b.Encoding, b.CompressedSize, sectionSize)
	}
	limit := uint64(b.CompressedSize)
	if b.Encoding == Deflated {
		limit *= deflate.MaxRatio
	}
	if uint64(b.UncompressedSize) > limit {
		return binio.Formatf(int(b.DataOffset), "%s blob of %d bytes cannot hold %d uncompressed bytes", b.Encoding, b.CompressedSize, b.UncompressedSize)
	}
	return nil
}

// readBlob returns the decoded blob, padded to its uncompressed size.
// Encrypted blobs are decrypted only when cipher is non-nil and are
// otherwise returned as stored.
func readBlob(section []byte, blob Blob, cipher *rijndael.CBC) ([]byte, error) {
	if err := blob.check(len(section)); err != nil {
		return nil, err
	}
	r := binio.NewReader(section)
	if err := r.Seek(int(blob.DataOffset)); err != nil {
		return nil, err
	}
	raw, err := r.Bytes(int(blob.CompressedSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s blob: %w", blob.Encoding, err)
	}

	var data []byte
	switch blob.Encoding {
	case Deflated:
		data, err = deflate.Decompress(raw, int(blob.UncompressedSize))
		if err != nil {
			return nil, err
		}
	case Encrypted:
		if cipher == nil {
			data = bytes.Clone(raw)
			break
		}
		data, err = cipher.Decrypt(raw)
		if err != nil {
			return nil, fmt.Errorf("decrypting section blob: %w", err)
		}
	default:
		data = bytes.Clone(raw)
	}

	buffer := binio.NewBuffer(data)
	buffer.PadTo(int(blob.UncompressedSize))
	return buffer.Bytes(), nil
}

// writeBlob encodes data the way blob is encoded and writes it into the
// blob's reserved space in out, zero-filling the rest. The section
// starts at start within out.
func writeBlob(out *binio.Buffer, start int, blob Blob, data []byte, cipher *rijndael.CBC) error {
	buffer := binio.NewBuffer(data)
	buffer.PadTo(int(blob.UncompressedSize))
	data = buffer.Bytes()

	encoded := data
	switch blob.Encoding {
	case Deflated:
		var err error
		encoded, err = deflate.Compress(data, deflate.BestCompression)
		if err != nil {
			return err
		}
	case Encrypted:
		if cipher != nil {
			encoded = cipher.Encrypt(data)
		}
	}
	if err := out.WriteRegion(start+int(blob.DataOffset), int(blob.CompressedSize), encoded); err != nil {
		return fmt.Errorf("writing %s section blob: %w", blob.Encoding, err)
	}
	return nil
}

// Contents is a decoded section.
type Contents struct {
	Header Header
	Blob   Blob
	// Data is the decoded blob, at least Blob.UncompressedSize long.
	Data    []byte
	Entries []Entry
}

// Read decodes the section starting at section[0]. Encrypted blobs are
// decrypted when cipher is non-nil. A section whose descriptors
// declare no data has no Data and no Entries.
func Read(section []byte, cipher *rijndael.CBC) (*Contents, error) {
	header, err := ParseHeader(section)
	if err != nil {
		return nil, err
	}
	blob, ok, err := header.Blob()
	if err != nil {
		return nil, err
	}
	contents := &Contents{Header: header, Blob: blob}
	if !ok {
		return contents, nil
	}
	if contents.Data, err = readBlob(section, blob, cipher); err != nil {
		return nil, err
	}
	if contents.Entries, err = ParseEntries(section, header, blob.UncompressedSize); err != nil {
		return nil, err
	}
	return contents, nil
}

// Lookup finds an entry by name. Case and separator style are ignored.
func (c *Contents) Lookup(name string) (Entry, bool) {
	want := unpack.Normalize(name)
	for _, entry := range c.Entries {
		if unpack.Normalize(entry.Name) == want {
			return entry, true
		}
	}
	return Entry{}, false
}

// Payload returns the stored bytes of entry, as recorded by its size
// field.
func (c *Contents) Payload(entry Entry) ([]byte, error) {
	end := uint64(entry.Offset) + uint64(entry.Size)
	if end > uint64(len(c.Data)) {
		return nil, binio.Formatf(int(entry.Offset), "entry %s of %d bytes extends past the blob", entry.Name, entry.Size)
	}
	return c.Data[entry.Offset:end], nil
}
