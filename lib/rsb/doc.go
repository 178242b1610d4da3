// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rsb walks top-level asset containers and patches the sections
// they hold.
//
// A container is either a "1bsr" archive (RSB, OBB, SMF once unwrapped)
// whose entry table points at "pgsr" sections by offset and size, or a
// bare "pgsr" section file. Either may be wrapped in the SMF envelope:
// the magic D4 FE AD DE, the little-endian uncompressed size and a zlib
// stream.
//
// The Walker's unpack level decides what happens to each section the
// section filter selects:
//
//   - SMF and RSB: the container is only packed into the envelope.
//   - RSGP: the section is replaced whole from <name>.rsgp, zero-padded
//     to the section's size.
//   - SECTION and deeper: the section is handed to [rsgp.Patcher].
//
// Replacement files are looked up in the Walker's source file system
// under the directory given for each container.
package rsb
