// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rijndael

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"strconv"
)

// KeySizeError is returned for a key length other than 16, 24 or 32.
type KeySizeError int

func (k KeySizeError) Error() string {
	return "rijndael: invalid key size " + strconv.Itoa(int(k))
}

// BlockSizeError is returned for a block size other than 16, 24 or 32.
type BlockSizeError int

func (b BlockSizeError) Error() string {
	return "rijndael: invalid block size " + strconv.Itoa(int(b))
}

// rounds is indexed by (keySize-16)/8 and (blockSize-16)/8.
var rounds = [3][3]int{
	{10, 12, 14},
	{12, 12, 14},
	{14, 14, 14},
}

// shifts holds the ShiftRows offsets of rows 1..3 for 4, 6 and 8 column
// states; decryption uses the complementary offsets.
var (
	encShifts = [3][3]int{{1, 2, 3}, {1, 2, 3}, {1, 3, 4}}
	decShifts = [3][3]int{{3, 2, 1}, {5, 4, 3}, {7, 5, 4}}
)

// Cipher is an expanded Rijndael key for one block size. It implements
// cipher.Block and is safe for concurrent use.
type Cipher struct {
	columns int
	rounds  int
	enc     [][]uint32
	dec     [][]uint32
	encRot  [3]int
	decRot  [3]int
}

var _ cipher.Block = (*Cipher)(nil)

func validSize(n int) bool { return n == 16 || n == 24 || n == 32 }

// NewCipher expands key for blocks of blockSize bytes.
func NewCipher(key []byte, blockSize int) (*Cipher, error) {
	if !validSize(len(key)) {
		return nil, KeySizeError(len(key))
	}
	if !validSize(blockSize) {
		return nil, BlockSizeError(blockSize)
	}

	c := &Cipher{
		columns: blockSize / 4,
		rounds:  rounds[(len(key)-16)/8][(blockSize-16)/8],
		encRot:  encShifts[(blockSize-16)/8],
		decRot:  decShifts[(blockSize-16)/8],
	}
	c.expandKey(key)
	return c, nil
}

func (c *Cipher) expandKey(key []byte) {
	bc := c.columns
	kc := len(key) / 4
	total := (c.rounds + 1) * bc

	c.enc = make([][]uint32, c.rounds+1)
	c.dec = make([][]uint32, c.rounds+1)
	for r := range c.enc {
		c.enc[r] = make([]uint32, bc)
		c.dec[r] = make([]uint32, bc)
	}

	tk := make([]uint32, kc)
	for i := range tk {
		tk[i] = binary.BigEndian.Uint32(key[4*i:])
	}

	t := 0
	store := func() {
		for j := 0; j < kc && t < total; j++ {
			c.enc[t/bc][t%bc] = tk[j]
			c.dec[c.rounds-t/bc][t%bc] = tk[j]
			t++
		}
	}
	store()

	for step := 0; t < total; step++ {
		last := tk[kc-1]
		tk[0] ^= subWord(last<<8|last>>24) ^ uint32(rcon[step])<<24
		if kc != 8 {
			for i := 1; i < kc; i++ {
				tk[i] ^= tk[i-1]
			}
		} else {
			for i := 1; i < kc/2; i++ {
				tk[i] ^= tk[i-1]
			}
			tk[kc/2] ^= subWord(tk[kc/2-1])
			for i := kc/2 + 1; i < kc; i++ {
				tk[i] ^= tk[i-1]
			}
		}
		store()
	}

	// The equivalent inverse cipher needs InvMixColumns applied to the
	// inner decryption round keys.
	for r := 1; r < c.rounds; r++ {
		for j, w := range c.dec[r] {
			c.dec[r][j] = keyTables[0][w>>24] ^ keyTables[1][w>>16&0xFF] ^
				keyTables[2][w>>8&0xFF] ^ keyTables[3][w&0xFF]
		}
	}
}

// BlockSize returns the block size in bytes.
func (c *Cipher) BlockSize() int { return c.columns * 4 }

// Encrypt encrypts the first block of src into dst.
func (c *Cipher) Encrypt(dst, src []byte) {
	c.crypt(dst, src, c.enc, &encTables, &sbox, c.encRot)
}

// Decrypt decrypts the first block of src into dst.
func (c *Cipher) Decrypt(dst, src []byte) {
	c.crypt(dst, src, c.dec, &decTables, &sboxInv, c.decRot)
}

func (c *Cipher) crypt(dst, src []byte, keys [][]uint32, tables *[4][256]uint32, box *[256]byte, rot [3]int) {
	bc := c.columns
	size := bc * 4
	if len(src) < size {
		panic(fmt.Sprintf("rijndael: input not a full block (%d < %d)", len(src), size))
	}
	if len(dst) < size {
		panic(fmt.Sprintf("rijndael: output not a full block (%d < %d)", len(dst), size))
	}

	var stateBuffer, nextBuffer [8]uint32
	state, next := stateBuffer[:bc], nextBuffer[:bc]
	for i := range state {
		state[i] = binary.BigEndian.Uint32(src[4*i:]) ^ keys[0][i]
	}

	s1, s2, s3 := rot[0], rot[1], rot[2]
	for r := 1; r < c.rounds; r++ {
		for i := range next {
			next[i] = tables[0][state[i]>>24] ^
				tables[1][state[(i+s1)%bc]>>16&0xFF] ^
				tables[2][state[(i+s2)%bc]>>8&0xFF] ^
				tables[3][state[(i+s3)%bc]&0xFF] ^
				keys[r][i]
		}
		state, next = next, state
	}

	var out [32]byte
	for i := range bc {
		k := keys[c.rounds][i]
		out[4*i] = box[state[i]>>24] ^ byte(k>>24)
		out[4*i+1] = box[state[(i+s1)%bc]>>16&0xFF] ^ byte(k>>16)
		out[4*i+2] = box[state[(i+s2)%bc]>>8&0xFF] ^ byte(k>>8)
		out[4*i+3] = box[state[(i+s3)%bc]&0xFF] ^ byte(k)
	}
	copy(dst, out[:size])
}
