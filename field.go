package quack

import "golang.org/x/xerrors"

// Field is the modular-arithmetic contract shared by the three backends.
// Elements are carried as uint64 in an internal representation: the
// canonical residue in [0, p) for the 16- and 32-bit backends, and the
// Montgomery image x*R mod p for the 64-bit one. Encode and Decode convert
// between raw integers and internal form; everything in between operates on
// internal values only. 0 is internal zero for all backends.
//
// Backend choice is per-digest, so the cost of the interface dispatch is
// noise next to the reductions themselves.
type Field interface {
	// Width is the wire width in bits: 16, 32 or 64.
	Width() uint8
	// Modulus is the field prime p.
	Modulus() uint64
	// One is the internal multiplicative identity (R mod p for the
	// Montgomery backend).
	One() uint64
	Add(x, y uint64) uint64
	Sub(x, y uint64) uint64
	Mul(x, y uint64) uint64
	// Pow raises x to a plain (non-field) exponent; Pow(x, 0) is One.
	Pow(x, k uint64) uint64
	// Inv fails on x == 0.
	Inv(x uint64) (uint64, error)
	// Encode reduces a raw integer mod p and converts to internal form.
	Encode(u uint64) uint64
	// Decode converts internal form back to the canonical residue.
	Decode(x uint64) uint64
}

// fieldForWidth maps a configured bit-width to its backend. 63 and 64 both
// name the Montgomery backend: its wire width is 64 even though the prime
// is 63 bits.
func fieldForWidth(width uint8) (Field, error) {
	switch width {
	case 16:
		return F16, nil
	case 32:
		return F32, nil
	case 63, 64:
		return F63, nil
	}
	return nil, xerrors.Errorf("field width %d: %w", width, ErrUnsupportedDigest)
}

// powmod is square-and-multiply over any backend, LSB first.
func powmod(f Field, x, k uint64) uint64 {
	r := f.One()
	for ; k > 0; k >>= 1 {
		if k&1 == 1 {
			r = f.Mul(r, x)
		}
		x = f.Mul(x, x)
	}
	return r
}

// invmod is Fermat inversion: x^(p-2).
func invmod(f Field, x uint64) (uint64, error) {
	if x == 0 {
		return 0, ErrInvalidInverse
	}
	return f.Pow(x, f.Modulus()-2), nil
}

// fieldSqrt returns a square root of a (internal form) and whether one
// exists. For p = 3 mod 4 a single exponentiation suffices; the 16-bit
// prime 65521 is 1 mod 4 and takes the Tonelli-Shanks path.
func fieldSqrt(f Field, a uint64) (uint64, bool) {
	if a == 0 {
		return 0, true
	}
	p := f.Modulus()
	one := f.One()
	if f.Pow(a, (p-1)/2) != one {
		return 0, false
	}
	if p%4 == 3 {
		return f.Pow(a, (p+1)/4), true
	}

	// Tonelli-Shanks. p-1 = q * 2^s with q odd.
	q, s := p-1, 0
	for q%2 == 0 {
		q /= 2
		s++
	}
	var z uint64
	for u := uint64(2); ; u++ {
		z = f.Encode(u)
		if f.Pow(z, (p-1)/2) != one {
			break
		}
	}
	c := f.Pow(z, q)
	r := f.Pow(a, (q+1)/2)
	t := f.Pow(a, q)
	m := s
	for t != one {
		i, t2 := 0, t
		for t2 != one {
			t2 = f.Mul(t2, t2)
			i++
		}
		b := c
		for j := 0; j < m-i-1; j++ {
			b = f.Mul(b, b)
		}
		r = f.Mul(r, b)
		c = f.Mul(b, b)
		t = f.Mul(t, c)
		m = i
	}
	return r, true
}
