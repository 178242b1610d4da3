// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rton converts between RTON, the tagged binary object notation
// used by the game's data files, and an in-memory value tree.
//
// An RTON document is the magic "RTON", a 4-byte little-endian version,
// then the pairs of an implicit root object closed by 0xff. [Encode]
// also appends the "DONE" completion marker the game writes.
//
// Values are the closed union [Value]: [Null], [Bool], [Int], [Float32],
// [Float64], [String], [Reference], [Array] and [Object]. Objects keep
// their pairs in order and may repeat keys. References are the typed
// cross-reference literals written textually as RTID(...).
//
// Strings are interned per document through a [StringCache]: the first
// occurrence of a string is stored under the next index and later
// occurrences refer back by index. A cache belongs to exactly one
// decode or encode call; [Decode] and [Encode] create a fresh one, and
// [NewDecoder] / [NewEncoder] accept a caller-owned one.
//
// Decoding is strict by default. With [DecodeOptions].Repair set, a
// document truncated inside an object or array is accepted up to the
// truncation point and the truncation is reported as a [Warning].
// Array length mismatches and printable-string character count
// mismatches are always warnings, never errors.
//
// [ParseJSON] and [MarshalJSON] bridge to JSON text, preserving key
// order and duplicate keys in both directions.
package rton
