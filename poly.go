package quack

import "math/rand"

// Dense univariate polynomials over a backend's field, coefficients in
// internal form, index i = coefficient of X^i. The zero polynomial is the
// empty slice; everything below keeps inputs trimmed of leading zeros.

func polyTrim(a []uint64) []uint64 {
	n := len(a)
	for n > 0 && a[n-1] == 0 {
		n--
	}
	return a[:n]
}

func polyEval(f Field, a []uint64, x uint64) uint64 {
	var acc uint64
	for i := len(a) - 1; i >= 0; i-- {
		acc = f.Add(f.Mul(acc, x), a[i])
	}
	return acc
}

func polySub(f Field, a, b []uint64) []uint64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]uint64, n)
	for i := range out {
		var av, bv uint64
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		out[i] = f.Sub(av, bv)
	}
	return polyTrim(out)
}

// polyMonic scales a to leading coefficient One. a must be non-zero.
func polyMonic(f Field, a []uint64) []uint64 {
	a = polyTrim(a)
	lead := a[len(a)-1]
	if lead == f.One() {
		return a
	}
	inv, err := f.Inv(lead)
	if err != nil {
		panic(err) // lead is non-zero after trim
	}
	out := make([]uint64, len(a))
	for i, c := range a {
		out[i] = f.Mul(c, inv)
	}
	return out
}

// polyMod reduces a modulo the monic polynomial m, destroying its scratch
// copy rather than the caller's slice.
func polyMod(f Field, a, m []uint64) []uint64 {
	dm := len(m) - 1
	if len(a) <= dm {
		return polyTrim(a)
	}
	r := make([]uint64, len(a))
	copy(r, a)
	for i := len(r) - 1; i >= dm; i-- {
		c := r[i]
		if c == 0 {
			continue
		}
		r[i] = 0
		for j := 0; j < dm; j++ {
			r[i-dm+j] = f.Sub(r[i-dm+j], f.Mul(c, m[j]))
		}
	}
	return polyTrim(r[:dm])
}

// polyMulMod is the schoolbook product reduced modulo the monic m.
func polyMulMod(f Field, a, b, m []uint64) []uint64 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	prod := make([]uint64, len(a)+len(b)-1)
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, bv := range b {
			prod[i+j] = f.Add(prod[i+j], f.Mul(av, bv))
		}
	}
	return polyMod(f, prod, m)
}

// polyPowMod raises base to a plain exponent modulo the monic m by repeated
// squaring: O(log k) modular polynomial products.
func polyPowMod(f Field, base []uint64, k uint64, m []uint64) []uint64 {
	res := []uint64{f.One()}
	b := polyMod(f, base, m)
	for ; k > 0; k >>= 1 {
		if k&1 == 1 {
			res = polyMulMod(f, res, b, m)
		}
		b = polyMulMod(f, b, b, m)
	}
	return res
}

// polyGCD returns the monic greatest common divisor.
func polyGCD(f Field, a, b []uint64) []uint64 {
	a, b = polyTrim(a), polyTrim(b)
	for len(b) > 0 {
		bm := polyMonic(f, b)
		a, b = bm, polyMod(f, a, bm)
	}
	if len(a) == 0 {
		return a
	}
	return polyMonic(f, a)
}

// polyDiv divides a by the monic b, returning the quotient. Used only when
// b is known to divide a (splitting off an equal-degree factor), so the
// remainder is dropped.
func polyDiv(f Field, a, b []uint64) []uint64 {
	a = polyTrim(a)
	db := len(b) - 1
	if len(a) <= db {
		return nil
	}
	r := make([]uint64, len(a))
	copy(r, a)
	q := make([]uint64, len(a)-db)
	for i := len(r) - 1; i >= db; i-- {
		c := r[i]
		q[i-db] = c
		if c == 0 {
			continue
		}
		for j := 0; j <= db; j++ {
			r[i-db+j] = f.Sub(r[i-db+j], f.Mul(c, b[j]))
		}
	}
	return polyTrim(q)
}

// gfRoots returns the distinct roots of the monic polynomial c in GF(p),
// in internal form. It first strips c to its squarefree GF(p)-splitting
// part g = gcd(c, X^p - X), then splits g into linear factors.
func gfRoots(f Field, c []uint64) []uint64 {
	one := f.One()
	xPoly := []uint64{0, one}

	// X^p mod c by repeated squaring in the quotient ring.
	xp := polyPowMod(f, xPoly, f.Modulus(), c)
	g := polyGCD(f, c, polySub(f, xp, xPoly))
	if len(g) < 2 {
		return nil
	}

	var roots []uint64
	splitLinear(f, g, &roots)
	return roots
}

// splitLinear is Cantor-Zassenhaus equal-degree splitting specialized to a
// product of distinct linear factors: gcd with (X+a)^((p-1)/2) - 1 for a
// random shift a separates the roots r with quadratic-residue r+a from the
// rest, a coin flip per root, so each attempt splits with probability
// about 1/2.
func splitLinear(f Field, g []uint64, roots *[]uint64) {
	for {
		switch len(g) - 1 {
		case 0:
			return
		case 1:
			// monic X + g0: the root is -g0
			*roots = append(*roots, f.Sub(0, g[0]))
			return
		}
		a := f.Encode(rand.Uint64())
		w := polyPowMod(f, []uint64{a, f.One()}, (f.Modulus()-1)/2, g)
		w = polySub(f, w, []uint64{f.One()})
		h := polyGCD(f, g, w)
		if d := len(h) - 1; d > 0 && d < len(g)-1 {
			splitLinear(f, h, roots)
			g = polyDiv(f, g, h)
		}
	}
}
