package checksum

import (
	"encoding/binary"
	"github.com/dgryski/go-farm"
	"math/bits"
)

// nativeLongMin is the input length from which the SSE4.1 lowering of the
// general hash switches to a vectorized loop. No portable code reproduces it.
const nativeLongMin = 512

const (
	k1 uint64 = 0xb492b66fbe98f273
	k2 uint64 = 0x9ae16a3b2f90404f
)

func fetch64(s []byte, i int) uint64 { return binary.LittleEndian.Uint64(s[i : i+8]) }

func shiftMix(v uint64) uint64 { return v ^ (v >> 47) }

// xoH32 hashes the 32 bytes of s.
func xoH32(s []byte, mul, seed0, seed1 uint64) uint64 {
	a := fetch64(s, 0) * k1
	b := fetch64(s, 8)
	c := fetch64(s, len(s)-8) * mul
	d := fetch64(s, len(s)-16) * k2
	u := bits.RotateLeft64(a+b, -43) + bits.RotateLeft64(c, -30) + d + seed0
	v := a + bits.RotateLeft64(b+k2, -18) + c + seed1
	a = shiftMix((u ^ v) * mul)
	b = shiftMix((v ^ a) * mul)
	return b
}

func xoHashLen33to64(s []byte) uint64 {
	mul0 := k2 - 30
	mul1 := k2 - 30 + 2*uint64(len(s))
	h0 := xoH32(s[:32], mul0, 0, 0)
	h1 := xoH32(s[len(s)-32:], mul1, 0, 0)
	return (h1*mul1 + h0) * mul1
}

func xoHashLen65to96(s []byte) uint64 {
	mul0 := k2 - 114
	mul1 := k2 - 114 + 2*uint64(len(s))
	h0 := xoH32(s[:32], mul0, 0, 0)
	h1 := xoH32(s[32:64], mul1, 0, 0)
	h2 := xoH32(s[len(s)-32:], mul1, h0, h1)
	return (h2*9 + (h0 >> 17) + (h1 >> 21)) * mul1
}

// xoHash64 is farmhash's xo 64-bit hash. Below 33 bytes and from 97 to 256
// bytes it is the na hash, which go-farm exposes as Fingerprint64. From 257
// bytes it is the uo hash, which go-farm exposes as Hash64.
func xoHash64(s []byte) uint64 {
	switch n := len(s); {
	case n <= 32:
		return farm.Fingerprint64(s)
	case n <= 64:
		return xoHashLen33to64(s)
	case n <= 96:
		return xoHashLen65to96(s)
	case n <= 256:
		return farm.Fingerprint64(s)
	default:
		return farm.Hash64(s)
	}
}
