package quack

import "math/bits"

// 32-bit backend: p = 2^32 - 5, Barrett reduction. The product of two
// residues needs the full 64 bits; the Barrett quotient needs the high word
// of a 64x64 multiply.
const (
	p32 = 1<<32 - 5
	// mu32 = floor(2^64 / p32) = 2^32 + 5, since
	// (2^32-5)(2^32+5) = 2^64 - 25.
	mu32 = 1<<32 + 5
)

// F32 is the 32-bit Barrett backend.
var F32 Field = field32{}

type field32 struct{}

func (field32) Width() uint8    { return 32 }
func (field32) Modulus() uint64 { return p32 }
func (field32) One() uint64     { return 1 }

func (field32) Add(x, y uint64) uint64 {
	s := x + y
	if s >= p32 {
		s -= p32
	}
	return s
}

func (field32) Sub(x, y uint64) uint64 {
	if x < y {
		x += p32
	}
	return x - y
}

func (field32) Mul(x, y uint64) uint64 {
	z := x * y // both < 2^32, exact in 64 bits
	q, _ := bits.Mul64(z, mu32)
	// q undershoots floor(z/p32) by at most one; the subtraction wraps
	// correctly because the true remainder is < 2*p32.
	r := z - q*p32
	if r >= p32 {
		r -= p32
	}
	return r
}

func (f field32) Pow(x, k uint64) uint64 { return powmod(f, x, k) }
func (f field32) Inv(x uint64) (uint64, error) { return invmod(f, x) }

func (field32) Encode(u uint64) uint64 { return u % p32 }
func (field32) Decode(x uint64) uint64 { return x }
