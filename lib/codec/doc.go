// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides obbpatch's CBOR encoding configuration.
//
// JSON is the format users edit (patch sources, decoded RTON files,
// options). CBOR is the format obbpatch writes for itself: the
// persisted run report. Every package that writes CBOR goes through
// this package so encoding is identical everywhere. The encoder uses
// Core Deterministic Encoding (RFC 8949 §4.2), so the same report
// always produces identical bytes.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types implementing encoding.TextMarshaler are written as CBOR text
// strings and read back through encoding.TextUnmarshaler.
package codec
