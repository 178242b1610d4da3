// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash provides BLAKE3 content digests for patch payloads
// and written outputs.
//
// The run report records a digest for every replacement payload
// written into a container and for every output file, so two runs
// over the same inputs can be compared entry by entry without keeping
// the bytes around.
//
//   - [Sum] -- digest of an in-memory payload
//   - [HashFile] -- streams a file through the hasher with constant
//     memory
//   - [ParseDigest] -- parses the hex form written by [Digest.String]
package binhash
