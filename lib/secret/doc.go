// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds the entry cipher key in protected memory.
//
// [Buffer] allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock, and marks it excluded from core
// dumps via madvise(MADV_DONTDUMP). On Close, the memory is zeroed,
// unlocked, and unmapped.
//
// [Key] loads the key from a configured string or a key file ("-" reads
// stdin). [Cipher] builds a [rijndael.CBC] from it and releases the
// buffer; the cipher keeps only its derived schedule and IV.
//
// Depends on golang.org/x/sys/unix and lib/rijndael.
package secret
