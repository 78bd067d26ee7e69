package quack

import (
	"encoding"
	"sync"

	"golang.org/x/xerrors"
)

// Largest threshold (and strawman window) accepted by the constructors and
// by the wire-header parser.
const maxThreshold = 1024

// PowerSum is the power-sum digest: sums[k-1] holds the k-th power sum of
// the inserted-minus-removed multiset, k = 1..t, in the
// backend's internal representation. Subtracting a peer's digest leaves the
// power sums of the symmetric difference, which Decode turns back into
// identifiers whenever the count difference is at most t.
type PowerSum struct {
	f        Field
	sums     []uint64
	count    int
	last     uint64
	kinv     []uint64 // shared 1/k table, kinv[k] for k = 1..t
	strategy RootStrategy
}

var (
	_ Digest                     = &PowerSum{}
	_ encoding.BinaryUnmarshaler = &PowerSum{}
)

// NewPowerSum returns an empty power-sum digest. width selects the
// arithmetic backend (16, 32, or 63/64); t is the decoding threshold,
// 1 <= t <= 1024, fixed for the life of the digest.
func NewPowerSum(width uint8, t int) (*PowerSum, error) {
	f, err := fieldForWidth(width)
	if err != nil {
		return nil, err
	}
	if t < 1 || t > maxThreshold {
		return nil, xerrors.Errorf("threshold %d out of range [1, %d]: %w", t, maxThreshold, ErrUnsupportedDigest)
	}
	return &PowerSum{
		f:    f,
		sums: make([]uint64, t),
		kinv: kinvTable(f, t),
	}, nil
}

func (ps *PowerSum) Kind() Kind        { return KindPowerSum }
func (ps *PowerSum) Width() uint8      { return ps.f.Width() }
func (ps *PowerSum) Threshold() int    { return len(ps.sums) }
func (ps *PowerSum) Count() int        { return ps.count }
func (ps *PowerSum) LastValue() uint64 { return ps.last }

// Field exposes the digest's arithmetic backend, mainly so callers can map
// raw packet bytes into the right identifier range (see IDMapper).
func (ps *PowerSum) Field() Field { return ps.f }

// SetRootStrategy overrides how Decode searches for polynomial roots. The
// default (StrategyAuto) is right for everything but benchmarks.
func (ps *PowerSum) SetRootStrategy(s RootStrategy) { ps.strategy = s }

// Insert adds one identifier: t multiplications to extend the running
// power, t additions to fold it in. Identifiers that reduce to 0 are
// rejected and the digest is left untouched.
func (ps *PowerSum) Insert(id uint64) error {
	x, err := ps.checkID(id)
	if err != nil {
		return err
	}
	pw := x
	ps.sums[0] = ps.f.Add(ps.sums[0], pw)
	for k := 1; k < len(ps.sums); k++ {
		pw = ps.f.Mul(pw, x)
		ps.sums[k] = ps.f.Add(ps.sums[k], pw)
	}
	ps.count++
	ps.last = id
	return nil
}

// Remove is the exact inverse of Insert. It does not verify that the
// identifier was ever inserted; removing a stranger silently corrupts the
// digest the same way it would corrupt a counter.
func (ps *PowerSum) Remove(id uint64) error {
	x, err := ps.checkID(id)
	if err != nil {
		return err
	}
	pw := x
	ps.sums[0] = ps.f.Sub(ps.sums[0], pw)
	for k := 1; k < len(ps.sums); k++ {
		pw = ps.f.Mul(pw, x)
		ps.sums[k] = ps.f.Sub(ps.sums[k], pw)
	}
	ps.count--
	return nil
}

func (ps *PowerSum) checkID(id uint64) (uint64, error) {
	if id%ps.f.Modulus() == 0 {
		return 0, xerrors.Errorf("identifier %d: %w", id, ErrForbiddenIdentifier)
	}
	return ps.f.Encode(id), nil
}

// MergeSubtract subtracts other elementwise: afterwards the receiver
// summarizes the multiset difference of the two input multisets.
func (ps *PowerSum) MergeSubtract(other Digest) error {
	o, ok := other.(*PowerSum)
	if !ok || o.f.Width() != ps.f.Width() || len(o.sums) != len(ps.sums) {
		return xerrors.Errorf("merge of %v/%d/%d into %v/%d/%d: %w",
			other.Kind(), other.Width(), other.Threshold(),
			ps.Kind(), ps.Width(), ps.Threshold(), ErrThresholdMismatch)
	}
	for k := range ps.sums {
		ps.sums[k] = ps.f.Sub(ps.sums[k], o.sums[k])
	}
	ps.count -= o.count
	return nil
}

// Reset re-zeroes the digest in place, keeping width and threshold.
func (ps *PowerSum) Reset() {
	for k := range ps.sums {
		ps.sums[k] = 0
	}
	ps.count = 0
	ps.last = 0
}

// The 1/k tables are immutable after construction and shared by every
// digest with the same backend and threshold.
type kinvKey struct {
	width uint8
	t     int
}

var (
	kinvMu     sync.Mutex
	kinvTables = map[kinvKey][]uint64{}
)

func kinvTable(f Field, t int) []uint64 {
	kinvMu.Lock()
	defer kinvMu.Unlock()

	key := kinvKey{f.Width(), t}
	if tab, ok := kinvTables[key]; ok {
		return tab
	}
	tab := make([]uint64, t+1)
	for k := 1; k <= t; k++ {
		// k <= 1024 < p, so the inverse always exists
		inv, err := f.Inv(f.Encode(uint64(k)))
		if err != nil {
			panic(err)
		}
		tab[k] = inv
	}
	kinvTables[key] = tab
	return tab
}
