package quack

import (
	"sort"

	"golang.org/x/xerrors"
)

// RootStrategy selects how Decode finds the roots of the difference
// polynomial.
type RootStrategy int

const (
	// StrategyAuto plugs in every field element for the 16-bit field at
	// small degrees and factors otherwise.
	StrategyAuto RootStrategy = iota
	// StrategyPlugIn evaluates the polynomial at every x in [1, p):
	// O(p*d) multiplications. Only sane for the 16-bit field.
	StrategyPlugIn
	// StrategyFactor computes gcd(f, X^p - X) by repeated squaring and
	// splits the result into linear factors: O(d^2 log p) field ops.
	StrategyFactor
)

// Rough crossover where factoring starts beating exhaustive evaluation on
// the 16-bit field.
const plugInMaxDegree = 10

// Decode reconstructs the multiset summarized by the digest, sorted
// ascending with multiplicities. After MergeSubtract this is the set of
// identifiers the peer has not seen. The call is pure compute on a copy of
// the state; it never mutates the digest, but for large differences it can
// run for milliseconds and belongs off the per-packet path.
//
// A zero count with non-zero power sums means the two multisets differed
// without a subset relation ("silent reordering") and fails with
// ErrNotEnoughRoots, the same way a partially-splitting polynomial does.
func (ps *PowerSum) Decode() ([]uint64, error) {
	d := ps.count
	switch {
	case d < 0:
		return nil, xerrors.Errorf("count %d: %w", d, ErrNegativeCount)
	case d > len(ps.sums):
		return nil, xerrors.Errorf("count %d, threshold %d: %w", d, len(ps.sums), ErrCountExceedsThreshold)
	case d == 0:
		for _, s := range ps.sums {
			if s != 0 {
				return nil, xerrors.Errorf("count is 0 but power sums are not: %w", ErrNotEnoughRoots)
			}
		}
		return nil, nil
	case d == 1:
		if ps.sums[0] == 0 {
			return nil, xerrors.Errorf("single missing identifier is 0: %w", ErrZeroRoot)
		}
		return []uint64{ps.f.Decode(ps.sums[0])}, nil
	}

	c := ps.differencePolynomial(d)
	if c[0] == 0 {
		// f(0) = 0: the reserved identifier is among the roots
		return nil, xerrors.Errorf("degree-%d polynomial has constant term 0: %w", d, ErrZeroRoot)
	}

	var distinct []uint64
	if d == 2 {
		var ok bool
		if distinct, ok = ps.quadraticRoots(c); !ok {
			return nil, xerrors.Errorf("quadratic has no roots in GF(p): %w", ErrNotEnoughRoots)
		}
	} else {
		strat := ps.strategy
		if strat == StrategyAuto {
			if ps.f.Modulus() < 1<<16 && d < plugInMaxDegree {
				strat = StrategyPlugIn
			} else {
				strat = StrategyFactor
			}
		}
		if strat == StrategyPlugIn {
			distinct = plugInRoots(ps.f, c)
		} else {
			distinct = gfRoots(ps.f, c)
		}
	}

	out := deflateRoots(ps.f, c, distinct)
	if len(out) != d {
		return nil, xerrors.Errorf("found %d of %d roots: %w", len(out), d, ErrNotEnoughRoots)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// differencePolynomial converts the first d power sums into the monic
// polynomial whose roots are the missing identifiers, low-order
// coefficients first.
//
// Newton's identities give the elementary symmetric polynomials:
//
//	k*e_k = sum_{i=1..k} (-1)^(i-1) * e_(k-i) * p_i
//
// and the polynomial is X^d - e1*X^(d-1) + e2*X^(d-2) - ... + (-1)^d*e_d.
func (ps *PowerSum) differencePolynomial(d int) []uint64 {
	f := ps.f
	e := make([]uint64, d+1)
	e[0] = f.One()
	for k := 1; k <= d; k++ {
		var acc uint64
		for i := 1; i <= k; i++ {
			term := f.Mul(e[k-i], ps.sums[i-1])
			if i&1 == 1 {
				acc = f.Add(acc, term)
			} else {
				acc = f.Sub(acc, term)
			}
		}
		e[k] = f.Mul(ps.kinv[k], acc)
	}

	c := make([]uint64, d+1)
	c[d] = f.One()
	for k := 1; k <= d; k++ {
		v := e[k]
		if k&1 == 1 {
			v = f.Sub(0, v)
		}
		c[d-k] = v
	}
	return c
}

// quadraticRoots solves X^2 + c1*X + c0 directly through the field's
// square root instead of factoring.
func (ps *PowerSum) quadraticRoots(c []uint64) ([]uint64, bool) {
	f := ps.f
	four := f.Encode(4)
	disc := f.Sub(f.Mul(c[1], c[1]), f.Mul(four, c[0]))
	s, ok := fieldSqrt(f, disc)
	if !ok {
		return nil, false
	}
	negC1 := f.Sub(0, c[1])
	half := ps.kinv[2]
	r1 := f.Mul(half, f.Add(negC1, s))
	if s == 0 {
		// double root, deflation supplies the multiplicity
		return []uint64{r1}, true
	}
	r2 := f.Mul(half, f.Sub(negC1, s))
	return []uint64{r1, r2}, true
}

// plugInRoots evaluates the polynomial at every non-zero field element by
// Horner's rule, collecting the distinct roots.
func plugInRoots(f Field, c []uint64) []uint64 {
	var roots []uint64
	for u := uint64(1); u < f.Modulus(); u++ {
		x := f.Encode(u)
		if polyEval(f, c, x) == 0 {
			roots = append(roots, x)
		}
	}
	return roots
}

// deflateRoots divides out (X - r) for each distinct root as often as it
// goes, turning distinct roots into the decoded multiset in canonical
// form. A repeated insert shows up as a repeated root of the polynomial
// and must be reported with its multiplicity.
func deflateRoots(f Field, c []uint64, distinct []uint64) []uint64 {
	w := c
	var out []uint64
	for _, r := range distinct {
		for len(w) > 1 && polyEval(f, w, r) == 0 {
			w = deflate(f, w, r)
			out = append(out, f.Decode(r))
		}
	}
	return out
}

// deflate is synthetic division of c by (X - r); the caller guarantees r
// is a root, so the remainder is discarded.
func deflate(f Field, c []uint64, r uint64) []uint64 {
	n := len(c) - 1
	q := make([]uint64, n)
	q[n-1] = c[n]
	for i := n - 2; i >= 0; i-- {
		q[i] = f.Add(c[i+1], f.Mul(r, q[i+1]))
	}
	return q
}
