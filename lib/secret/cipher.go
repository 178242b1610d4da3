// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"fmt"

	"github.com/bureau-foundation/obbpatch/lib/rijndael"
)

// Key loads the entry cipher key: the trimmed contents of file when it
// is set, otherwise the raw bytes of literal.
func Key(literal, file string) (*Buffer, error) {
	if file != "" {
		buffer, err := ReadFromPath(file)
		if err != nil {
			return nil, fmt.Errorf("reading key file: %w", err)
		}
		return buffer, nil
	}
	if literal == "" {
		return nil, fmt.Errorf("no key configured")
	}
	return NewFromBytes([]byte(literal))
}

// Cipher builds the entry cipher from a key loaded by Key. The key is
// released before Cipher returns.
func Cipher(literal, file string, blockSize int) (*rijndael.CBC, error) {
	key, err := Key(literal, file)
	if err != nil {
		return nil, err
	}
	defer key.Close()

	cbc, err := rijndael.NewCBC(key.Bytes(), blockSize)
	if err != nil {
		return nil, fmt.Errorf("building cipher: %w", err)
	}
	return cbc, nil
}
