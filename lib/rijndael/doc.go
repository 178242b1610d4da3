// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rijndael implements the Rijndael block cipher with the full
// parameter family: 16, 24 or 32 byte keys combined with 16, 24 or 32
// byte blocks. AES is the 16-byte-block subset; the game assets this
// module patches use 24-byte blocks, which crypto/aes cannot produce.
//
// [Cipher] implements crypto/cipher.Block, so chaining modes come from
// the standard library. [CBC] wraps the exact scheme the asset format
// uses: zero padding to a block multiple (no padding when the input is
// already aligned) and an IV taken from bytes 4..4+blockSize of the raw
// key material. [CBC.SealEntry] adds the two-byte marker that flags an
// encrypted RTON entry.
//
// Lookup tables (GF(2^8) log/antilog, S-boxes, round T-tables and the
// key schedule's inverse-MixColumns tables) are computed once at init.
package rijndael
