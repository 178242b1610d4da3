// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rijndael

var (
	antilog [256]byte // antilog[i] = 3^i in GF(2^8)
	logs    [256]int

	sbox    [256]byte
	sboxInv [256]byte

	// encTables are the forward round tables, decTables the inverse
	// round tables and keyTables apply inverse MixColumns to a raw
	// round-key word.
	encTables [4][256]uint32
	decTables [4][256]uint32
	keyTables [4][256]uint32

	rcon [30]byte
)

// mixRows are the rows of the MixColumns matrix and unmixRows those of
// its inverse, in the row order the T-tables are built from.
var (
	mixRows   = [4][4]byte{{2, 1, 1, 3}, {3, 2, 1, 1}, {1, 3, 2, 1}, {1, 1, 3, 2}}
	unmixRows = [4][4]byte{{14, 9, 13, 11}, {11, 14, 9, 13}, {13, 11, 14, 9}, {9, 13, 11, 14}}
)

func init() {
	// Field with generator 3, reduction polynomial x^8+x^4+x^3+x+1.
	x := 1
	for i := range 256 {
		antilog[i] = byte(x)
		x ^= x << 1
		if x&0x100 != 0 {
			x ^= 0x11B
		}
	}
	for i := 1; i < 255; i++ {
		logs[antilog[i]] = i
	}

	for i := range 256 {
		var inverse byte
		if i != 0 {
			inverse = antilog[255-logs[i]]
		}
		s := inverse ^ rotl8(inverse, 1) ^ rotl8(inverse, 2) ^ rotl8(inverse, 3) ^ rotl8(inverse, 4) ^ 0x63
		sbox[i] = s
		sboxInv[s] = byte(i)
	}

	for i := range 256 {
		for row := range 4 {
			encTables[row][i] = mulWord(sbox[i], mixRows[row])
			decTables[row][i] = mulWord(sboxInv[i], unmixRows[row])
			keyTables[row][i] = mulWord(byte(i), unmixRows[row])
		}
	}

	r := byte(1)
	for i := range rcon {
		rcon[i] = r
		r = mul(2, r)
	}
}

func mul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return antilog[(logs[a]+logs[b])%255]
}

// mulWord multiplies a by each coefficient and packs the products
// big-endian.
func mulWord(a byte, coefficients [4]byte) uint32 {
	var word uint32
	for _, c := range coefficients {
		word = word<<8 | uint32(mul(a, c))
	}
	return word
}

func rotl8(b byte, n uint) byte {
	return b<<n | b>>(8-n)
}

func subWord(w uint32) uint32 {
	return uint32(sbox[w>>24])<<24 | uint32(sbox[w>>16&0xFF])<<16 |
		uint32(sbox[w>>8&0xFF])<<8 | uint32(sbox[w&0xFF])
}
