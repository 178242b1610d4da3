// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rton

import (
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/bureau-foundation/obbpatch/lib/binio"
)

// DecodeOptions controls decoding.
type DecodeOptions struct {
	// Repair accepts documents truncated inside an object or array,
	// keeping everything decoded before the truncation and recording a
	// Warning for it.
	Repair bool
}

// Warning is a non-fatal structural problem found while decoding.
type Warning struct {
	Offset  int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("offset %d: %s", w.Offset, w.Message)
}

// Document is a decoded RTON file.
type Document struct {
	Version  uint32
	Root     Object
	Warnings []Warning
}

// IsRTON reports whether data starts with the RTON magic.
func IsRTON(data []byte) bool {
	return len(data) >= len(Magic) && string(data[:len(Magic)]) == Magic
}

// Decode decodes a complete RTON document with a fresh string cache.
func Decode(data []byte, options DecodeOptions) (*Document, error) {
	return NewDecoder(NewStringCache(), options).Decode(data)
}

// MaxDepth bounds how deeply objects and arrays may nest, in both the
// RTON decoder and the JSON parser.
const MaxDepth = 10000

// Decoder decodes RTON documents into a caller-owned StringCache.
type Decoder struct {
	cache    *StringCache
	options  DecodeOptions
	reader   *binio.Reader
	warnings []Warning
	depth    int
}

// NewDecoder returns a Decoder that interns strings into cache.
func NewDecoder(cache *StringCache, options DecodeOptions) *Decoder {
	return &Decoder{cache: cache, options: options}
}

// Decode decodes one document. Bytes after the root object terminator,
// such as the completion marker, are ignored.
func (d *Decoder) Decode(data []byte) (*Document, error) {
	d.reader = binio.NewReader(data)
	d.warnings = nil
	d.depth = 0

	if !IsRTON(data) {
		return nil, binio.Formatf(0, "missing %s magic", Magic)
	}
	if err := d.reader.Skip(len(Magic)); err != nil {
		return nil, err
	}
	version, err := d.reader.U32()
	if err != nil {
		return nil, err
	}
	root, err := d.objectBody()
	if err != nil {
		return nil, err
	}
	return &Document{Version: version, Root: root, Warnings: d.warnings}, nil
}

func (d *Decoder) warn(offset int, format string, args ...any) {
	d.warnings = append(d.warnings, Warning{Offset: offset, Message: fmt.Sprintf(format, args...)})
}

// tolerate decides what a premature end of input means for the
// enclosing container. In repair mode the container simply ends there
// and tolerate returns nil; otherwise it returns err unchanged.
func (d *Decoder) tolerate(err error) error {
	if !d.options.Repair || !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	d.warn(d.reader.Pos(), "end of input inside a container")
	return nil
}

func (d *Decoder) objectBody() (Object, error) {
	object := Object{}
	for {
		tag, err := d.tag()
		if err != nil {
			return object, d.tolerate(err)
		}
		if tag == TagObjectEnd {
			return object, nil
		}
		key, err := d.key(tag)
		if err != nil {
			return object, d.tolerate(err)
		}
		value, err := d.next()
		if err != nil {
			return object, d.tolerate(err)
		}
		object = append(object, Pair{Key: key, Value: value})
	}
}

func (d *Decoder) array() (Array, error) {
	start := d.reader.Pos()
	marker, err := d.tag()
	if err != nil {
		return Array{}, d.tolerate(err)
	}
	if marker != TagArrayStart {
		return nil, binio.Formatf(start, "array starts with %#02x, want %#02x", byte(marker), byte(TagArrayStart))
	}
	declared, err := d.reader.Uvarint()
	if err != nil {
		return Array{}, d.tolerate(err)
	}

	array := Array{}
	for {
		tag, err := d.tag()
		if err == nil && tag == TagArrayEnd {
			break
		}
		var value Value
		if err == nil {
			value, err = d.value(tag)
		}
		if err != nil {
			if err := d.tolerate(err); err != nil {
				return nil, err
			}
			break
		}
		array = append(array, value)
	}

	if uint64(len(array)) != declared {
		d.warn(d.reader.Pos(), "array declares %d elements, found %d", declared, len(array))
	}
	return array, nil
}

func (d *Decoder) tag() (Tag, error) {
	b, err := d.reader.U8()
	return Tag(b), err
}

func (d *Decoder) next() (Value, error) {
	tag, err := d.tag()
	if err != nil {
		return nil, err
	}
	return d.value(tag)
}

// key decodes an object key. Keys are strings; references are accepted
// and rendered in their text form.
func (d *Decoder) key(tag Tag) (string, error) {
	offset := d.reader.Pos() - 1
	value, err := d.value(tag)
	if err != nil {
		return "", err
	}
	switch key := value.(type) {
	case String:
		return string(key), nil
	case Reference:
		return key.String(), nil
	default:
		return "", binio.Formatf(offset, "object key has type %s", value.Kind())
	}
}

func (d *Decoder) value(tag Tag) (Value, error) {
	offset := d.reader.Pos() - 1
	r := d.reader

	switch tag {
	case TagFalse:
		return Bool(false), nil
	case TagTrue:
		return Bool(true), nil
	case TagNull:
		return Null{}, nil

	case TagInt8:
		b, err := r.U8()
		return Int{Width: 8, Signed: true, bits: uint64(int64(int8(b))), neg: int8(b) < 0}, err
	case TagUint8:
		b, err := r.U8()
		return Int{Width: 8, bits: uint64(b)}, err
	case TagInt16:
		v, err := r.U16()
		return Int{Width: 16, Signed: true, bits: uint64(int64(int16(v))), neg: int16(v) < 0}, err
	case TagUint16:
		v, err := r.U16()
		return Int{Width: 16, bits: uint64(v)}, err
	case TagInt32:
		v, err := r.U32()
		return Int{Width: 32, Signed: true, bits: uint64(int64(int32(v))), neg: int32(v) < 0}, err
	case TagUint32:
		v, err := r.U32()
		return Int{Width: 32, bits: uint64(v)}, err
	case TagInt64:
		v, err := r.U64()
		return Int{Width: 64, Signed: true, bits: v, neg: int64(v) < 0}, err
	case TagUint64:
		v, err := r.U64()
		return Int{Width: 64, bits: v}, err

	case TagInt8Zero:
		return Int{Width: 8, Signed: true}, nil
	case TagUint8Zero:
		return Int{Width: 8}, nil
	case TagInt16Zero:
		return Int{Width: 16, Signed: true}, nil
	case TagUint16Zero:
		return Int{Width: 16}, nil
	case TagInt32Zero:
		return Int{Width: 32, Signed: true}, nil
	case TagUint32Zero:
		return Int{Width: 32}, nil
	case TagInt64Zero:
		return Int{Width: 64, Signed: true}, nil
	case TagUint64Zero:
		return Int{Width: 64}, nil

	case TagInt32Uvarint:
		return d.uvarint(32, true)
	case TagUint32Uvarint:
		return d.uvarint(32, false)
	case TagInt64Uvarint:
		return d.uvarint(64, true)
	case TagUint64Uvarint:
		return d.uvarint(64, false)
	case TagInt32Varint, TagUint32Varint:
		return d.zigzag(32)
	case TagInt64Varint, TagUint64Varint:
		return d.zigzag(64)

	case TagFloat32:
		v, err := r.U32()
		return Float32(math.Float32frombits(v)), err
	case TagFloat32Zero:
		return Float32(0), nil
	case TagFloat64:
		v, err := r.U64()
		return Float64(math.Float64frombits(v)), err
	case TagFloat64Zero:
		return Float64(0), nil

	case TagString:
		s, err := d.plainString()
		return String(s), err
	case TagPrintable:
		s, err := d.printableString()
		return String(s), err
	case TagCachedString:
		s, err := d.plainString()
		if err != nil {
			return nil, err
		}
		d.cache.StorePlain(s)
		return String(s), nil
	case TagCachedPrintable:
		s, err := d.printableString()
		if err != nil {
			return nil, err
		}
		d.cache.StorePrintable(s)
		return String(s), nil
	case TagCacheRef:
		index, err := r.Uvarint()
		if err != nil {
			return nil, err
		}
		s, ok := d.cache.Plain(index)
		if !ok {
			plain, _ := d.cache.Len()
			return nil, binio.Formatf(offset, "string cache index %d out of range (%d cached)", index, plain)
		}
		return String(s), nil
	case TagPrintableRef:
		index, err := r.Uvarint()
		if err != nil {
			return nil, err
		}
		s, ok := d.cache.Printable(index)
		if !ok {
			_, printable := d.cache.Len()
			return nil, binio.Formatf(offset, "printable cache index %d out of range (%d cached)", index, printable)
		}
		return String(s), nil

	case TagReference:
		return d.reference()
	case TagObject, TagArray:
		if d.depth >= MaxDepth {
			return nil, binio.Formatf(offset, "containers nested deeper than %d", MaxDepth)
		}
		d.depth++
		defer func() { d.depth-- }()
		if tag == TagObject {
			return d.objectBody()
		}
		return d.array()
	}
	return nil, binio.Formatf(offset, "unknown tag %#02x", byte(tag))
}

func (d *Decoder) uvarint(width int, signed bool) (Value, error) {
	v, err := d.reader.Uvarint()
	return Int{Width: width, Signed: signed, bits: v}, err
}

// zigzag decodes raw as raw/2 for even raw and -(raw+1)/2 for odd raw.
func (d *Decoder) zigzag(width int) (Value, error) {
	raw, err := d.reader.Uvarint()
	if err != nil {
		return nil, err
	}
	n := int64(raw >> 1)
	if raw&1 != 0 {
		n = -n - 1
	}
	return Int{Width: width, Signed: true, bits: uint64(n), neg: n < 0}, nil
}

// plainString reads a byte-length-prefixed string. Bytes that are not
// valid UTF-8 are read as Latin-1.
func (d *Decoder) plainString() (string, error) {
	length, err := d.reader.Uvarint()
	if err != nil {
		return "", err
	}
	if length > uint64(d.reader.Len()) {
		return "", &binio.FormatError{Offset: d.reader.Pos(), Reason: "string longer than input", Err: io.ErrUnexpectedEOF}
	}
	b, err := d.reader.Bytes(int(length))
	if err != nil {
		return "", err
	}
	if utf8.Valid(b) {
		return string(b), nil
	}
	return latin1(b), nil
}

// printableString reads a character count, a byte length and UTF-8
// bytes. A character count that disagrees with the bytes is a warning.
func (d *Decoder) printableString() (string, error) {
	start := d.reader.Pos()
	characters, err := d.reader.Uvarint()
	if err != nil {
		return "", err
	}
	length, err := d.reader.Uvarint()
	if err != nil {
		return "", err
	}
	if length > uint64(d.reader.Len()) {
		return "", &binio.FormatError{Offset: d.reader.Pos(), Reason: "string longer than input", Err: io.ErrUnexpectedEOF}
	}
	b, err := d.reader.Bytes(int(length))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", binio.Formatf(start, "printable string is not valid UTF-8")
	}
	s := string(b)
	if count := utf8.RuneCountInString(s); uint64(count) != characters {
		d.warn(start, "printable string of %d characters declares %d", count, characters)
	}
	return s, nil
}

func (d *Decoder) reference() (Value, error) {
	offset := d.reader.Pos()
	subtype, err := d.reader.U8()
	if err != nil {
		return nil, err
	}
	switch subtype {
	case refSubtypeEmpty:
		return Reference{Form: RefEmpty}, nil
	case refSubtypeNumeric:
		typeName, err := d.printableString()
		if err != nil {
			return nil, err
		}
		part2, err := d.reader.Uvarint()
		if err != nil {
			return nil, err
		}
		part1, err := d.reader.Uvarint()
		if err != nil {
			return nil, err
		}
		hash, err := d.reader.Bytes(4)
		if err != nil {
			return nil, err
		}
		ref := Reference{Form: RefNumeric, Type: typeName, Part1: part1, Part2: part2}
		for i := range ref.Hash {
			ref.Hash[i] = hash[3-i]
		}
		return ref, nil
	case refSubtypeNamed:
		typeName, err := d.printableString()
		if err != nil {
			return nil, err
		}
		name, err := d.printableString()
		if err != nil {
			return nil, err
		}
		return Reference{Form: RefNamed, Type: typeName, Name: name}, nil
	}
	return nil, binio.Formatf(offset, "unknown reference subtype %#02x", subtype)
}

func latin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}
