// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rton

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// Integer ranges that select the compact encodings.
const (
	maxUvarint32 = 2097151
	minVarint32  = -1048576
	maxUvarint64 = 562949953421311
	minVarint64  = -281474976710656
	maxUint32Tag = 4294967295 // exclusive
)

// Encode encodes root as a complete RTON document with a fresh string
// cache.
func Encode(root Object) ([]byte, error) {
	return NewEncoder(NewStringCache()).Encode(root)
}

// Encoder encodes RTON documents using a caller-owned StringCache.
type Encoder struct {
	cache *StringCache
	buf   []byte
}

// NewEncoder returns an Encoder that interns strings into cache.
func NewEncoder(cache *StringCache) *Encoder {
	return &Encoder{cache: cache}
}

// Encode writes the magic, the version, the root pairs, the object
// terminator and the completion marker.
func (e *Encoder) Encode(root Object) ([]byte, error) {
	e.buf = append(e.buf[:0], Magic...)
	e.buf = binary.LittleEndian.AppendUint32(e.buf, Version)
	if err := e.pairs(root); err != nil {
		return nil, err
	}
	e.buf = append(e.buf, Trailer...)
	out := e.buf
	e.buf = nil
	return out, nil
}

func (e *Encoder) tag(t Tag) {
	e.buf = append(e.buf, byte(t))
}

func (e *Encoder) pairs(object Object) error {
	for _, pair := range object {
		e.cachedString(pair.Key)
		if err := e.value(pair.Value); err != nil {
			return fmt.Errorf("key %q: %w", pair.Key, err)
		}
	}
	e.tag(TagObjectEnd)
	return nil
}

func (e *Encoder) value(v Value) error {
	switch v := v.(type) {
	case Null:
		e.tag(TagNull)
	case Bool:
		if v {
			e.tag(TagTrue)
		} else {
			e.tag(TagFalse)
		}
	case Int:
		e.integer(v)
	case Float32:
		e.float(float64(v))
	case Float64:
		e.float(float64(v))
	case String:
		if ref, ok := ParseReference(string(v)); ok {
			e.reference(ref)
		} else {
			e.cachedString(string(v))
		}
	case Reference:
		e.reference(v)
	case Array:
		e.tag(TagArray)
		e.tag(TagArrayStart)
		e.buf = binary.AppendUvarint(e.buf, uint64(len(v)))
		for i, element := range v {
			if err := e.value(element); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		e.tag(TagArrayEnd)
	case Object:
		e.tag(TagObject)
		return e.pairs(v)
	case nil:
		return fmt.Errorf("nil value")
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

// integer writes the smallest encoding that reproduces the value. The
// first matching range wins.
func (e *Encoder) integer(i Int) {
	n, fits := i.Int64()
	if !fits {
		u, _ := i.Uint64()
		e.tag(TagUint64)
		e.buf = binary.LittleEndian.AppendUint64(e.buf, u)
		return
	}

	switch {
	case n == 0:
		e.tag(TagInt32Zero)
	case n > 0 && n <= maxUvarint32:
		e.tag(TagInt32Uvarint)
		e.buf = binary.AppendUvarint(e.buf, uint64(n))
	case n < 0 && n >= minVarint32:
		e.tag(TagInt32Varint)
		e.buf = binary.AppendUvarint(e.buf, uint64(-1-2*n))
	case n >= math.MinInt32 && n <= math.MaxInt32:
		e.tag(TagInt32)
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(int32(n)))
	case n > 0 && n < maxUint32Tag:
		e.tag(TagUint32)
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(n))
	case n > 0 && n <= maxUvarint64:
		e.tag(TagInt64Uvarint)
		e.buf = binary.AppendUvarint(e.buf, uint64(n))
	case n < 0 && n >= minVarint64:
		e.tag(TagInt64Varint)
		e.buf = binary.AppendUvarint(e.buf, uint64(-1-2*n))
	default:
		e.tag(TagInt64)
		e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(n))
	}
}

// float uses the 32-bit form only when it reproduces f exactly.
func (e *Encoder) float(f float64) {
	switch {
	case f == 0:
		e.tag(TagFloat32Zero)
	case !math.IsNaN(f) && !math.IsInf(f, 0) && math.Abs(f) <= math.MaxFloat32 && float64(float32(f)) == f:
		e.tag(TagFloat32)
		e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(float32(f)))
	default:
		e.tag(TagFloat64)
		e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(f))
	}
}

func (e *Encoder) cachedString(s string) {
	if index, ok := e.cache.LookupPlain(s); ok {
		e.tag(TagCacheRef)
		e.buf = binary.AppendUvarint(e.buf, uint64(index))
		return
	}
	e.cache.StorePlain(s)
	e.tag(TagCachedString)
	e.buf = binary.AppendUvarint(e.buf, uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *Encoder) printable(s string) {
	e.buf = binary.AppendUvarint(e.buf, uint64(utf8.RuneCountInString(s)))
	e.buf = binary.AppendUvarint(e.buf, uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *Encoder) reference(ref Reference) {
	e.tag(TagReference)
	switch ref.Form {
	case RefNumeric:
		e.buf = append(e.buf, refSubtypeNumeric)
		e.printable(ref.Type)
		e.buf = binary.AppendUvarint(e.buf, ref.Part2)
		e.buf = binary.AppendUvarint(e.buf, ref.Part1)
		e.buf = append(e.buf, ref.Hash[3], ref.Hash[2], ref.Hash[1], ref.Hash[0])
	case RefNamed:
		e.buf = append(e.buf, refSubtypeNamed)
		e.printable(ref.Type)
		e.printable(ref.Name)
	default:
		e.buf = append(e.buf, refSubtypeEmpty)
	}
}
