// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binio provides the bounds-checked little-endian primitives
// shared by the container, section and RTON layers.
//
// [Reader] walks an in-memory byte slice. Every read checks the
// remaining length first, so truncated or hostile input surfaces as a
// [FormatError] instead of a panic. [Buffer] is the owned, mutable side:
// patch code writes replacement payloads into fixed slots with
// [Buffer.WriteRegion], which zero-fills the unused tail of the slot and
// refuses (with a [CapacityError]) to write past it. A Buffer never
// grows implicitly.
//
// The error taxonomy lives here so every layer reports the same types:
//
//   - [FormatError] / [ErrFormat] -- bad magic, unknown tag, truncation
//   - [CapacityError] / [ErrCapacity] -- replacement larger than its slot
//   - [UnsupportedTypeError] / [ErrUnsupportedType] -- unknown type code
//
// All three match their sentinel with errors.Is and their concrete type
// with errors.As.
package binio
