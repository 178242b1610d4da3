// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rton

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/bureau-foundation/obbpatch/lib/binio"
)

// header is the magic plus version 1.
var header = []byte{'R', 'T', 'O', 'N', 0x01, 0x00, 0x00, 0x00}

func document(body ...byte) []byte {
	return append(bytes.Clone(header), body...)
}

func mustDecode(t *testing.T, data []byte, options DecodeOptions) *Document {
	t.Helper()
	doc, err := Decode(data, options)
	if err != nil {
		t.Fatalf("Decode(%x): %v", data, err)
	}
	return doc
}

func mustEncode(t *testing.T, root Object) []byte {
	t.Helper()
	data, err := Encode(root)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return data
}

func TestDecodeSingleZero(t *testing.T) {
	data := []byte{0x52, 0x54, 0x4F, 0x4E, 0x01, 0x00, 0x00, 0x00, 0x90, 0x03, 0x6B, 0x65, 0x79, 0x21, 0xFF}
	doc := mustDecode(t, data, DecodeOptions{})

	if doc.Version != 1 {
		t.Errorf("Version = %d, want 1", doc.Version)
	}
	want := Object{{Key: "key", Value: IntOf(0)}}
	if !Equal(doc.Root, want) {
		t.Errorf("Root = %#v, want %#v", doc.Root, want)
	}
	if len(doc.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", doc.Warnings)
	}
}

func TestEncodeSingleZero(t *testing.T) {
	got := mustEncode(t, Object{{Key: "key", Value: IntOf(0)}})
	want := []byte{0x52, 0x54, 0x4F, 0x4E, 0x01, 0x00, 0x00, 0x00, 0x90, 0x03, 0x6B, 0x65, 0x79, 0x21, 0xFF}
	if !bytes.HasPrefix(got, want) {
		t.Fatalf("Encode = %x, want prefix %x", got, want)
	}
	if rest := got[len(want):]; string(rest) != Trailer {
		t.Errorf("bytes after terminator = %q, want %q", rest, Trailer)
	}
}

func TestStringCacheReuse(t *testing.T) {
	root := Object{
		{Key: "a", Value: String("key")},
		{Key: "b", Value: String("key")},
	}
	got := mustEncode(t, root)
	want := document(
		0x90, 0x01, 'a',
		0x90, 0x03, 'k', 'e', 'y',
		0x90, 0x01, 'b',
		0x91, 0x01,
		0xFF, 'D', 'O', 'N', 'E',
	)
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode = %x, want %x", got, want)
	}

	doc := mustDecode(t, got, DecodeOptions{})
	for _, key := range []string{"a", "b"} {
		value, ok := doc.Root.Get(key)
		if !ok || !Equal(value, String("key")) {
			t.Errorf("Root[%q] = %#v, want \"key\"", key, value)
		}
	}
}

func TestEncoderCacheIsPerCall(t *testing.T) {
	root := Object{{Key: "k", Value: String("v")}}
	first := mustEncode(t, root)
	second := mustEncode(t, root)
	if !bytes.Equal(first, second) {
		t.Errorf("second Encode = %x, first = %x; cache leaked between calls", second, first)
	}

	cache := NewStringCache()
	if _, err := NewEncoder(cache).Encode(root); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if plain, printable := cache.Len(); plain != 2 || printable != 0 {
		t.Errorf("cache.Len() = %d, %d; want 2, 0", plain, printable)
	}
}

func TestVarintRoundTrip(t *testing.T) {
	for _, value := range []int64{0, 127, 128, 16383, 16384, 1 << 35} {
		root := Object{{Key: "n", Value: IntOf(value)}}
		doc := mustDecode(t, mustEncode(t, root), DecodeOptions{})
		got, _ := doc.Root.Get("n")
		n, ok := got.(Int).Int64()
		if !ok || n != value {
			t.Errorf("round trip of %d = %v", value, got)
		}
	}
}

func TestEncodeIntegerClasses(t *testing.T) {
	le32 := func(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }
	le64 := func(v uint64) []byte { return binary.LittleEndian.AppendUint64(nil, v) }
	uvarint := func(v uint64) []byte { return binary.AppendUvarint(nil, v) }

	tests := []struct {
		name  string
		value Int
		tag   Tag
		body  []byte
	}{
		{"zero", IntOf(0), TagInt32Zero, nil},
		{"one", IntOf(1), TagInt32Uvarint, []byte{0x01}},
		{"128", IntOf(128), TagInt32Uvarint, []byte{0x80, 0x01}},
		{"max uvarint32", IntOf(2097151), TagInt32Uvarint, []byte{0xFF, 0xFF, 0x7F}},
		{"above uvarint32", IntOf(2097152), TagInt32, le32(2097152)},
		{"minus one", IntOf(-1), TagInt32Varint, []byte{0x01}},
		{"minus two", IntOf(-2), TagInt32Varint, []byte{0x03}},
		{"min varint32", IntOf(-1048576), TagInt32Varint, uvarint(2097151)},
		{"below varint32", IntOf(-1048577), TagInt32, le32(uint32(0xFFEFFFFF))},
		{"max int32", IntOf(math.MaxInt32), TagInt32, le32(math.MaxInt32)},
		{"above int32", IntOf(math.MaxInt32 + 1), TagUint32, le32(math.MaxInt32 + 1)},
		{"largest uint32 tag", IntOf(4294967294), TagUint32, le32(4294967294)},
		{"max uint32", IntOf(4294967295), TagInt64Uvarint, uvarint(4294967295)},
		{"max uvarint64", IntOf(562949953421311), TagInt64Uvarint, uvarint(562949953421311)},
		{"above uvarint64", IntOf(562949953421312), TagInt64, le64(562949953421312)},
		{"below int32", IntOf(math.MinInt32 - 1), TagInt64Varint, uvarint(uint64(-1 - 2*(int64(math.MinInt32)-1)))},
		{"min varint64", IntOf(-281474976710656), TagInt64Varint, uvarint(562949953421311)},
		{"below varint64", IntOf(-281474976710657), TagInt64, le64(uint64(0xFFFEFFFFFFFFFFFF))},
		{"min int64", IntOf(math.MinInt64), TagInt64, le64(1 << 63)},
		{"max uint64", UintOf(math.MaxUint64), TagUint64, le64(math.MaxUint64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := mustEncode(t, Object{{Key: "n", Value: tt.value}})
			want := document(append(append([]byte{0x90, 0x01, 'n', byte(tt.tag)}, tt.body...), 0xFF, 'D', 'O', 'N', 'E')...)
			if !bytes.Equal(encoded, want) {
				t.Errorf("Encode(%s) = %x, want %x", tt.value, encoded, want)
			}

			doc := mustDecode(t, encoded, DecodeOptions{})
			got, _ := doc.Root.Get("n")
			if !Equal(got, tt.value) {
				t.Errorf("decoded %v, want %s", got, tt.value)
			}
		})
	}
}

func TestDecodeIntegerTags(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		want string
	}{
		{"int8", []byte{0x08, 0xFF}, "-1"},
		{"uint8", []byte{0x0a, 0xFF}, "255"},
		{"int16", []byte{0x10, 0x00, 0x80}, "-32768"},
		{"uint16", []byte{0x12, 0x00, 0x80}, "32768"},
		{"int64 zero", []byte{0x41}, "0"},
		{"uint64 uvarint", []byte{0x48, 0x80, 0x01}, "128"},
		{"uint32 zigzag", []byte{0x29, 0x04}, "2"},
		{"int64 zigzag", []byte{0x45, 0x05}, "-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := document(append(append([]byte{0x90, 0x01, 'n'}, tt.body...), 0xFF)...)
			doc := mustDecode(t, data, DecodeOptions{})
			got, _ := doc.Root.Get("n")
			if got.(Int).String() != tt.want {
				t.Errorf("decoded %v, want %s", got, tt.want)
			}
		})
	}
}

func TestEncodeFloats(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		tag   Tag
	}{
		{"zero", 0, TagFloat32Zero},
		{"exact in float32", 1.5, TagFloat32},
		{"needs float64", 0.1, TagFloat64},
		{"beyond float32 range", 1e39, TagFloat64},
		{"nan", math.NaN(), TagFloat64},
		{"infinity", math.Inf(1), TagFloat64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := mustEncode(t, Object{{Key: "f", Value: Float64(tt.value)}})
			if got := Tag(encoded[len(header)+3]); got != tt.tag {
				t.Errorf("tag = %#02x, want %#02x", byte(got), byte(tt.tag))
			}
			doc := mustDecode(t, encoded, DecodeOptions{})
			got, _ := doc.Root.Get("f")
			if !Equal(got, Float64(tt.value)) {
				t.Errorf("decoded %v, want %v", got, tt.value)
			}
		})
	}
}

func TestReferences(t *testing.T) {
	tests := []struct {
		name string
		text string
		wire []byte
	}{
		{
			name: "numeric",
			text: "RTID(1.2.0a0b0c0d@uid)",
			wire: []byte{0x83, 0x02, 0x03, 0x03, 'u', 'i', 'd', 0x02, 0x01, 0x0d, 0x0c, 0x0b, 0x0a},
		},
		{
			name: "named",
			text: "RTID(Foo@Level)",
			wire: []byte{0x83, 0x03, 0x05, 0x05, 'L', 'e', 'v', 'e', 'l', 0x03, 0x03, 'F', 'o', 'o'},
		},
		{
			name: "empty",
			text: "RTID()",
			wire: []byte{0x83, 0x00},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := mustEncode(t, Object{{Key: "r", Value: String(tt.text)}})
			body := encoded[len(header)+3 : len(encoded)-len(Trailer)-1]
			if !bytes.Equal(body, tt.wire) {
				t.Errorf("encoded %x, want %x", body, tt.wire)
			}

			doc := mustDecode(t, encoded, DecodeOptions{})
			got, _ := doc.Root.Get("r")
			ref, ok := got.(Reference)
			if !ok {
				t.Fatalf("decoded %T, want Reference", got)
			}
			if ref.String() != tt.text {
				t.Errorf("rendered %q, want %q", ref.String(), tt.text)
			}
		})
	}
}

func TestReferenceLikeStrings(t *testing.T) {
	for _, text := range []string{"RTID(no type)", "RTID(", "rtid(a@b)"} {
		if _, ok := ParseReference(text); ok {
			t.Errorf("ParseReference(%q) accepted a non-reference", text)
		}
		encoded := mustEncode(t, Object{{Key: "s", Value: String(text)}})
		if got := Tag(encoded[len(header)+3]); got != TagCachedString {
			t.Errorf("%q encoded with tag %#02x, want a cached string", text, byte(got))
		}
	}
}

func TestArrayLengthMismatch(t *testing.T) {
	data := document(0x90, 0x01, 'a', 0x86, 0xfd, 0x03, 0x21, 0x21, 0xfe, 0xff)
	doc := mustDecode(t, data, DecodeOptions{})

	got, _ := doc.Root.Get("a")
	array, ok := got.(Array)
	if !ok || len(array) != 2 {
		t.Fatalf("decoded %#v, want a 2 element array", got)
	}
	if len(doc.Warnings) != 1 {
		t.Errorf("warnings = %v, want exactly one", doc.Warnings)
	}
}

func TestArrayRoundTrip(t *testing.T) {
	root := Object{{Key: "list", Value: Array{IntOf(1), String("two"), Array{}, Null{}}}}
	encoded := mustEncode(t, root)
	doc := mustDecode(t, encoded, DecodeOptions{})
	if !Equal(doc.Root, root) {
		t.Errorf("round trip = %#v, want %#v", doc.Root, root)
	}
	if len(doc.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", doc.Warnings)
	}
}

func TestPrintableStrings(t *testing.T) {
	// 0x92 stores "héllo" (5 characters, 6 bytes); 0x93 refers back.
	data := document(
		0x90, 0x01, 'a', 0x92, 0x05, 0x06, 'h', 0xC3, 0xA9, 'l', 'l', 'o',
		0x90, 0x01, 'b', 0x93, 0x00,
		0xFF,
	)
	doc := mustDecode(t, data, DecodeOptions{})
	for _, key := range []string{"a", "b"} {
		value, _ := doc.Root.Get(key)
		if !Equal(value, String("héllo")) {
			t.Errorf("Root[%q] = %#v, want héllo", key, value)
		}
	}
	if len(doc.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", doc.Warnings)
	}
}

func TestPrintableCharacterMismatch(t *testing.T) {
	data := document(0x90, 0x01, 'a', 0x82, 0x05, 0x03, 'a', 'b', 'c', 0xFF)
	doc := mustDecode(t, data, DecodeOptions{})
	value, _ := doc.Root.Get("a")
	if !Equal(value, String("abc")) {
		t.Errorf("decoded %#v, want abc", value)
	}
	if len(doc.Warnings) != 1 {
		t.Errorf("warnings = %v, want exactly one", doc.Warnings)
	}
}

func TestLatin1Fallback(t *testing.T) {
	data := document(0x90, 0x01, 'a', 0x81, 0x02, 0xE9, 0x41, 0xFF)
	doc := mustDecode(t, data, DecodeOptions{})
	value, _ := doc.Root.Get("a")
	if !Equal(value, String("éA")) {
		t.Errorf("decoded %#v, want éA", value)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"bad magic", []byte("RTOX\x01\x00\x00\x00\xff")},
		{"unknown tag", document(0x90, 0x01, 'a', 0x30, 0xFF)},
		{"cache index out of range", document(0x90, 0x01, 'a', 0x91, 0x05, 0xFF)},
		{"non-string key", document(0x21, 0x21, 0xFF)},
		{"terminator as value", document(0x90, 0x01, 'a', 0xFF)},
		{"array without start marker", document(0x90, 0x01, 'a', 0x86, 0x00, 0xFE, 0xFF)},
		{"unknown reference subtype", document(0x90, 0x01, 'a', 0x83, 0x01, 0xFF)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, DecodeOptions{Repair: true})
			if !errors.Is(err, binio.ErrFormat) {
				t.Errorf("Decode error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestDecodeNestingLimit(t *testing.T) {
	nested := func(depth int) []byte {
		body := []byte{0x90, 0x01, 'a'}
		body = append(body, bytes.Repeat([]byte{0x86, 0xFD, 0x01}, depth)...)
		body = append(body, bytes.Repeat([]byte{0xFE}, depth)...)
		return document(append(body, 0xFF)...)
	}

	if _, err := Decode(nested(MaxDepth), DecodeOptions{}); err != nil {
		t.Errorf("Decode(%d nested arrays): %v", MaxDepth, err)
	}
	for _, options := range []DecodeOptions{{}, {Repair: true}} {
		_, err := Decode(nested(MaxDepth+1), options)
		if !errors.Is(err, binio.ErrFormat) {
			t.Errorf("Decode(%d nested arrays, %+v) error = %v, want ErrFormat", MaxDepth+1, options, err)
		}
	}

	// Far deeper than the limit and never closed.
	deep := document(append([]byte{0x90, 0x01, 'a'}, bytes.Repeat([]byte{0x86, 0xFD, 0x01}, 200000)...)...)
	if _, err := Decode(deep, DecodeOptions{Repair: true}); !errors.Is(err, binio.ErrFormat) {
		t.Errorf("Decode(200000 open arrays) error = %v, want ErrFormat", err)
	}
}

func TestTruncation(t *testing.T) {
	data := document(0x90, 0x01, 'a', 0x21)

	_, err := Decode(data, DecodeOptions{})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("strict Decode error = %v, want io.ErrUnexpectedEOF", err)
	}

	doc := mustDecode(t, data, DecodeOptions{Repair: true})
	if !Equal(doc.Root, Object{{Key: "a", Value: IntOf(0)}}) {
		t.Errorf("repaired Root = %#v", doc.Root)
	}
	if len(doc.Warnings) != 1 {
		t.Errorf("warnings = %v, want exactly one", doc.Warnings)
	}
}

func TestNestedTruncationRepair(t *testing.T) {
	// Inner object loses its value mid-varint; both levels end early.
	data := document(0x90, 0x01, 'o', 0x85, 0x90, 0x01, 'x', 0x24)
	doc := mustDecode(t, data, DecodeOptions{Repair: true})

	want := Object{{Key: "o", Value: Object{}}}
	if !Equal(doc.Root, want) {
		t.Errorf("Root = %#v, want %#v", doc.Root, want)
	}
	if len(doc.Warnings) != 2 {
		t.Errorf("warnings = %v, want two", doc.Warnings)
	}
}

func TestRoundTripTree(t *testing.T) {
	root := Object{
		{Key: "objclass", Value: String("PlantProperties")},
		{Key: "enabled", Value: Bool(true)},
		{Key: "disabled", Value: Bool(false)},
		{Key: "none", Value: Null{}},
		{Key: "small", Value: IntOf(-42)},
		{Key: "wide", Value: IntOf(1 << 40)},
		{Key: "huge", Value: UintOf(math.MaxUint64)},
		{Key: "half", Value: Float32(0.5)},
		{Key: "tenth", Value: Float64(0.1)},
		{Key: "ref", Value: Reference{Form: RefNamed, Type: "CurrentLevel", Name: "Mower"}},
		{Key: "numeric", Value: String("RTID(7.9.deadbeef@uid)")},
		{Key: "objclass", Value: String("duplicate keys survive")},
		{Key: "nested", Value: Object{
			{Key: "list", Value: Array{String("PlantProperties"), IntOf(3), Object{}}},
			{Key: "unicode", Value: String("日本語")},
		}},
	}

	doc := mustDecode(t, mustEncode(t, root), DecodeOptions{})
	if !Equal(doc.Root, root) {
		t.Errorf("decode(encode(tree)) = %#v\nwant %#v", doc.Root, root)
	}
}

func TestTrailingBytesIgnored(t *testing.T) {
	data := document(0x90, 0x01, 'a', 0x21, 0xFF, 'D', 'O', 'N', 'E', 0x00, 0x00)
	doc := mustDecode(t, data, DecodeOptions{})
	if len(doc.Root) != 1 {
		t.Errorf("Root = %#v, want one pair", doc.Root)
	}
}
