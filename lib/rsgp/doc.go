// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rsgp parses and patches RSGP resource sections (magic
// "pgsr") in place.
//
// A section is an 80-byte header, a prefix-compressed entry table and
// a data blob that is stored, zlib-compressed or encrypted. The blob
// holds every entry's payload back to back; an entry may grow into the
// gap before the next entry's offset but no further. Patching
// decompresses the blob, overwrites the selected entries' slots,
// re-encodes the blob into the space the original reserved, and then
// rewrites the entries' size fields in the table.
//
// How far the patcher descends is set by the unpack level:
//
//   - SECTION replaces the whole decompressed blob from
//     "<dir>/<section>.section".
//   - ENCRYPTED and ENCODED replace entries byte for byte from
//     "<dir>/<entry>".
//   - DECODED builds ".rton" entries from "<dir>/<entry stem>.JSON"
//     (or ".json") through the RTON encoder.
//
// Above ENCRYPTED, ".rton" entries whose original payload carries the
// encrypted marker are sealed again with the configured CBC cipher.
package rsgp
