package quack

import "math/bits"

// 64-bit backend: Montgomery form over the 63-bit prime p = 2^63 - 25 with
// R = 2^63. The prime is deliberately one bit short of the word: the final
// Montgomery step needs (T + m*p)/R < 2p to fit in a word before its
// conditional subtract, which forces a spare top bit.
//
// Because 2^63 = p + 25, the constants collapse pleasantly:
// R mod p = 25 (the Montgomery image of 1) and R^2 mod p = 625.
const (
	p63    = 1<<63 - 25
	r63    = 25
	r63sq  = 625
	mask63 = 1<<63 - 1
)

// np63 is -p^-1 mod 2^63, derived once by Newton iteration: for odd p the
// seed p is a correct inverse mod 8, and each step doubles the valid bits.
var np63 = func() uint64 {
	inv := uint64(p63)
	for i := 0; i < 5; i++ {
		inv *= 2 - p63*inv
	}
	return (-inv) & mask63
}()

// F63 is the 64-bit Montgomery backend. Its wire width is 64; identifiers
// must still be non-zero mod the 63-bit prime.
var F63 Field = field63{}

type field63 struct{}

func (field63) Width() uint8    { return 64 }
func (field63) Modulus() uint64 { return p63 }
func (field63) One() uint64     { return r63 }

func (field63) Add(x, y uint64) uint64 {
	s := x + y
	if s >= p63 {
		s -= p63
	}
	return s
}

func (field63) Sub(x, y uint64) uint64 {
	if x < y {
		x += p63
	}
	return x - y
}

// montReduce maps T = hi*2^64 + lo < p*R to T*R^-1 mod p.
func montReduce(hi, lo uint64) uint64 {
	m := (lo * np63) & mask63
	mhi, mlo := bits.Mul64(m, p63)
	lo2, carry := bits.Add64(lo, mlo, 0)
	hi2, _ := bits.Add64(hi, mhi, carry)
	// T + m*p is divisible by R = 2^63 and below 2*p*R.
	u := hi2<<1 | lo2>>63
	if u >= p63 {
		u -= p63
	}
	return u
}

func (field63) Mul(x, y uint64) uint64 {
	hi, lo := bits.Mul64(x, y)
	return montReduce(hi, lo)
}

func (f field63) Pow(x, k uint64) uint64 { return powmod(f, x, k) }
func (f field63) Inv(x uint64) (uint64, error) { return invmod(f, x) }

func (f field63) Encode(u uint64) uint64 { return f.Mul(u%p63, r63sq) }
func (field63) Decode(x uint64) uint64 { return montReduce(0, x) }
