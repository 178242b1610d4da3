// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rton

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat32
	KindFloat64
	KindString
	KindReference
	KindArray
	KindObject
)

var kindNames = [...]string{"null", "bool", "int", "float32", "float64", "string", "reference", "array", "object"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Value is one node of an RTON tree. The set of implementations is
// closed; switch on the concrete type.
type Value interface {
	Kind() Kind
	isValue()
}

// Null is the RTON null value.
type Null struct{}

// Bool is a boolean.
type Bool bool

// Int is an integer together with the width and signedness of the tag
// it was decoded from. Two Ints are equal when their numeric values are
// equal; width and signedness are informational and the encoder picks
// the smallest tag that holds the value.
type Int struct {
	// Width is 8, 16, 32 or 64 for decoded values, 0 when constructed.
	Width  int
	Signed bool

	// bits holds the value; negative values are stored two's complement
	// with neg set.
	bits uint64
	neg  bool
}

// IntOf returns an Int holding n.
func IntOf(n int64) Int {
	return Int{Signed: true, bits: uint64(n), neg: n < 0}
}

// UintOf returns an Int holding n.
func UintOf(n uint64) Int {
	return Int{bits: n}
}

// Int64 returns the value and whether it fits in an int64.
func (i Int) Int64() (int64, bool) {
	if i.neg || i.bits <= math.MaxInt64 {
		return int64(i.bits), true
	}
	return 0, false
}

// Uint64 returns the value and whether it is non-negative.
func (i Int) Uint64() (uint64, bool) {
	if i.neg {
		return 0, false
	}
	return i.bits, true
}

// Equal reports whether i and other hold the same number.
func (i Int) Equal(other Int) bool {
	return i.bits == other.bits && i.neg == other.neg
}

func (i Int) String() string {
	if i.neg {
		return strconv.FormatInt(int64(i.bits), 10)
	}
	return strconv.FormatUint(i.bits, 10)
}

// Float32 is a single precision float.
type Float32 float32

// Float64 is a double precision float.
type Float64 float64

// String is a text string.
type String string

// Array is an ordered list of values.
type Array []Value

// Pair is one key/value entry of an Object.
type Pair struct {
	Key   string
	Value Value
}

// Object is an ordered list of pairs. Keys may repeat.
type Object []Pair

// Get returns the value of the first pair with the given key.
func (o Object) Get(key string) (Value, bool) {
	for _, pair := range o {
		if pair.Key == key {
			return pair.Value, true
		}
	}
	return nil, false
}

// RefForm selects which fields of a Reference are meaningful.
type RefForm int

const (
	// RefEmpty is RTID().
	RefEmpty RefForm = iota
	// RefNumeric is RTID(part1.part2.hash@type).
	RefNumeric
	// RefNamed is RTID(name@type).
	RefNamed
)

// Reference is a typed cross-reference literal.
type Reference struct {
	Form RefForm
	Type string
	Name string

	Part1 uint64
	Part2 uint64
	// Hash is in display order; the wire form is byte-reversed.
	Hash [4]byte
}

// String renders the reference in its RTID(...) text form.
func (r Reference) String() string {
	switch r.Form {
	case RefNumeric:
		return "RTID(" + strconv.FormatUint(r.Part1, 10) + "." + strconv.FormatUint(r.Part2, 10) +
			"." + hex.EncodeToString(r.Hash[:]) + "@" + r.Type + ")"
	case RefNamed:
		return "RTID(" + r.Name + "@" + r.Type + ")"
	default:
		return "RTID()"
	}
}

const (
	refPrefix = "RTID("
	refSuffix = ")"
)

// ParseReference parses the RTID(...) text form. It reports false for
// strings that are not reference literals, including RTID(...) strings
// without a type separator, which encode as ordinary strings.
func ParseReference(s string) (Reference, bool) {
	if len(s) < len(refPrefix)+len(refSuffix) || !strings.HasPrefix(s, refPrefix) || !strings.HasSuffix(s, refSuffix) {
		return Reference{}, false
	}
	inner := s[len(refPrefix) : len(s)-len(refSuffix)]
	if inner == "" {
		return Reference{Form: RefEmpty}, true
	}
	at := strings.LastIndexByte(inner, '@')
	if at < 0 {
		return Reference{}, false
	}
	name, typeName := inner[:at], inner[at+1:]

	if parts := strings.Split(name, "."); len(parts) == 3 {
		part1, err1 := strconv.ParseUint(parts[0], 10, 64)
		part2, err2 := strconv.ParseUint(parts[1], 10, 64)
		hash, err3 := hex.DecodeString(parts[2])
		if err1 == nil && err2 == nil && err3 == nil && len(hash) == 4 {
			ref := Reference{Form: RefNumeric, Type: typeName, Part1: part1, Part2: part2}
			copy(ref.Hash[:], hash)
			return ref, true
		}
	}
	return Reference{Form: RefNamed, Type: typeName, Name: name}, true
}

func (Null) Kind() Kind      { return KindNull }
func (Bool) Kind() Kind      { return KindBool }
func (Int) Kind() Kind       { return KindInt }
func (Float32) Kind() Kind   { return KindFloat32 }
func (Float64) Kind() Kind   { return KindFloat64 }
func (String) Kind() Kind    { return KindString }
func (Reference) Kind() Kind { return KindReference }
func (Array) Kind() Kind     { return KindArray }
func (Object) Kind() Kind    { return KindObject }

func (Null) isValue()      {}
func (Bool) isValue()      {}
func (Int) isValue()       {}
func (Float32) isValue()   {}
func (Float64) isValue()   {}
func (String) isValue()    {}
func (Reference) isValue() {}
func (Array) isValue()     {}
func (Object) isValue()    {}

// Equal reports whether two trees are equivalent: same ordered pairs,
// same strings and numerically equal numbers. The encoder chooses
// integer and float widths from the value alone, so widths are not
// compared: Float32 and Float64 holding the same number are equal, and
// a String holding a reference literal equals the Reference it encodes
// to. Float NaNs compare equal to each other.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		other, ok := b.(Bool)
		return ok && a == other
	case Int:
		other, ok := b.(Int)
		return ok && a.Equal(other)
	case Float32, Float64:
		x, _ := floatValue(a)
		y, ok := floatValue(b)
		return ok && floatEqual(x, y)
	case String, Reference:
		x, xRef, _ := referenceText(a)
		y, yRef, ok := referenceText(b)
		return ok && xRef == yRef && x == y
	case Array:
		other, ok := b.(Array)
		if !ok || len(a) != len(other) {
			return false
		}
		for i := range a {
			if !Equal(a[i], other[i]) {
				return false
			}
		}
		return true
	case Object:
		other, ok := b.(Object)
		if !ok || len(a) != len(other) {
			return false
		}
		for i := range a {
			if a[i].Key != other[i].Key || !Equal(a[i].Value, other[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

func floatValue(v Value) (float64, bool) {
	switch v := v.(type) {
	case Float32:
		return float64(v), true
	case Float64:
		return float64(v), true
	}
	return 0, false
}

// referenceText returns the canonical text of a string-like value and
// whether that text is a reference literal. ok is false for values
// that are neither strings nor references.
func referenceText(v Value) (text string, isRef, ok bool) {
	switch v := v.(type) {
	case Reference:
		return v.String(), true, true
	case String:
		if ref, parsed := ParseReference(string(v)); parsed {
			return ref.String(), true, true
		}
		return string(v), false, true
	}
	return "", false, false
}

func floatEqual(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}
