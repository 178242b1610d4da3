// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rijndael

import (
	"bytes"
	"crypto/cipher"
	"fmt"
)

// DefaultBlockSize is the block size the asset format encrypts with.
const DefaultBlockSize = 24

// ivOffset is where the IV starts inside the raw key material.
const ivOffset = 4

// EncryptedMarker prefixes an encrypted entry payload.
var EncryptedMarker = []byte{0x10, 0x00}

// IsSealed reports whether payload starts with EncryptedMarker.
func IsSealed(payload []byte) bool {
	return bytes.HasPrefix(payload, EncryptedMarker)
}

// CBC encrypts with Rijndael in CBC mode using zero padding and an IV
// derived from the key.
type CBC struct {
	block *Cipher
	iv    []byte
}

// NewCBC builds a CBC cipher from raw key material. The IV is
// key[4:4+blockSize], so the key must be at least blockSize+4 bytes
// long as well as a valid Rijndael key length. NewCBC copies what it
// needs; the caller may wipe key afterwards.
func NewCBC(key []byte, blockSize int) (*CBC, error) {
	block, err := NewCipher(key, blockSize)
	if err != nil {
		return nil, err
	}
	if len(key) < ivOffset+blockSize {
		return nil, fmt.Errorf("rijndael: %d-byte key too short to derive a %d-byte IV", len(key), blockSize)
	}
	return &CBC{
		block: block,
		iv:    bytes.Clone(key[ivOffset : ivOffset+blockSize]),
	}, nil
}

// BlockSize returns the cipher block size.
func (c *CBC) BlockSize() int { return c.block.BlockSize() }

// Encrypt zero-pads plaintext to a block multiple and encrypts it.
// An empty plaintext encrypts to an empty ciphertext.
func (c *CBC) Encrypt(plaintext []byte) []byte {
	padded := ZeroPad(plaintext, c.block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)
	return out
}

// Decrypt reverses Encrypt. Zero padding cannot be told apart from
// trailing zero plaintext, so the result keeps the padding; callers
// that know the true length truncate.
func (c *CBC) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%c.block.BlockSize() != 0 {
		return nil, fmt.Errorf("rijndael: ciphertext length %d is not a multiple of the %d-byte block",
			len(ciphertext), c.block.BlockSize())
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, ciphertext)
	return out, nil
}

// SealEntry encrypts an entry payload and prefixes EncryptedMarker.
func (c *CBC) SealEntry(plaintext []byte) []byte {
	return append(bytes.Clone(EncryptedMarker), c.Encrypt(plaintext)...)
}

// OpenEntry strips EncryptedMarker and decrypts the rest.
func (c *CBC) OpenEntry(sealed []byte) ([]byte, error) {
	if !IsSealed(sealed) {
		return nil, fmt.Errorf("rijndael: payload does not start with the encrypted marker")
	}
	return c.Decrypt(sealed[len(EncryptedMarker):])
}

// ZeroPad returns data extended with zeros to a multiple of blockSize.
// Aligned input is returned unchanged.
func ZeroPad(data []byte, blockSize int) []byte {
	remainder := len(data) % blockSize
	if remainder == 0 {
		return data
	}
	padded := make([]byte, len(data)+blockSize-remainder)
	copy(padded, data)
	return padded
}
