package quack

import (
	"bytes"
	"fmt"
	"testing"

	randmath "math/rand"

	"golang.org/x/xerrors"
)

var allWidths = []uint8{16, 32, 63}

func mustPowerSum(t testing.TB, width uint8, thr int) *PowerSum {
	t.Helper()
	ps, err := NewPowerSum(width, thr)
	if err != nil {
		t.Fatal(err)
	}
	return ps
}

func mustInsert(t testing.TB, d Digest, ids ...uint64) {
	t.Helper()
	for _, id := range ids {
		if err := d.Insert(id); err != nil {
			t.Fatalf("insert %d: %s", id, err)
		}
	}
}

func marshal(t testing.TB, d Digest) []byte {
	t.Helper()
	b, err := d.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// The power sums depend only on the multiset of inserts, never their
// order: the observer may sniff packets in any order and still produce a
// digest the sender can subtract.
func TestInsertOrderIndependence(t *testing.T) {
	t.Parallel()

	for _, width := range allWidths {
		width := width
		t.Run(fmt.Sprintf("width%d", width), func(t *testing.T) {
			t.Parallel()
			rand := randmath.New(randmath.NewSource(555))

			ids := make([]uint64, 100)
			for i := range ids {
				ids[i] = randomID(rand, width)
			}

			a := mustPowerSum(t, width, 16)
			mustInsert(t, a, ids...)

			rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
			b := mustPowerSum(t, width, 16)
			mustInsert(t, b, ids...)

			// last_value differs by design; compare the rest
			ba, bb := marshal(t, a), marshal(t, b)
			if !bytes.Equal(ba[:8], bb[:8]) || !bytes.Equal(ba[16:], bb[16:]) {
				t.Fatal("digests of permuted insert orders differ")
			}
			if a.Count() != b.Count() {
				t.Fatalf("counts differ: %d vs %d", a.Count(), b.Count())
			}
		})
	}
}

func TestRemoveUndoesInsert(t *testing.T) {
	t.Parallel()

	for _, width := range allWidths {
		a := mustPowerSum(t, width, 8)
		b := mustPowerSum(t, width, 8)

		mustInsert(t, a, 11, 22, 33)
		if err := a.Remove(22); err != nil {
			t.Fatal(err)
		}
		mustInsert(t, b, 11, 33)

		ba, bb := marshal(t, a), marshal(t, b)
		if !bytes.Equal(ba[16:], bb[16:]) {
			t.Fatalf("width %d: remove did not undo insert", width)
		}
		if a.Count() != 2 {
			t.Fatalf("width %d: count = %d after 3 inserts and 1 remove", width, a.Count())
		}
	}
}

func TestForbiddenIdentifier(t *testing.T) {
	t.Parallel()

	for _, width := range allWidths {
		ps := mustPowerSum(t, width, 4)
		mustInsert(t, ps, 5)
		before := marshal(t, ps)

		for _, id := range []uint64{0, ps.Field().Modulus(), 2 * ps.Field().Modulus()} {
			if err := ps.Insert(id); !xerrors.Is(err, ErrForbiddenIdentifier) {
				t.Fatalf("width %d: insert(%d) error = %v", width, id, err)
			}
			if err := ps.Remove(id); !xerrors.Is(err, ErrForbiddenIdentifier) {
				t.Fatalf("width %d: remove(%d) error = %v", width, id, err)
			}
		}

		// a rejected insert must leave the digest untouched
		if !bytes.Equal(before, marshal(t, ps)) {
			t.Fatalf("width %d: digest mutated by rejected insert", width)
		}
	}
}

func TestMergeSubtractMismatch(t *testing.T) {
	t.Parallel()

	a := mustPowerSum(t, 32, 8)

	cases := []struct {
		name  string
		other Digest
	}{
		{"threshold", mustPowerSum(t, 32, 9)},
		{"width", mustPowerSum(t, 16, 8)},
		{"kind", func() Digest {
			d, err := NewSlidingSet(32, 8)
			if err != nil {
				t.Fatal(err)
			}
			return d
		}()},
	}
	for _, tc := range cases {
		if err := a.MergeSubtract(tc.other); !xerrors.Is(err, ErrThresholdMismatch) {
			t.Errorf("%s mismatch: error = %v, want ErrThresholdMismatch", tc.name, err)
		}
	}
}

func TestMergeSubtractCommutesWithInsert(t *testing.T) {
	t.Parallel()

	// (A + x) - B == (A - B) + x on the power sums
	a1 := mustPowerSum(t, 32, 8)
	a2 := mustPowerSum(t, 32, 8)
	b1 := mustPowerSum(t, 32, 8)
	b2 := mustPowerSum(t, 32, 8)
	mustInsert(t, a1, 100, 200)
	mustInsert(t, a2, 100, 200)
	mustInsert(t, b1, 100)
	mustInsert(t, b2, 100)

	mustInsert(t, a1, 300)
	if err := a1.MergeSubtract(b1); err != nil {
		t.Fatal(err)
	}

	if err := a2.MergeSubtract(b2); err != nil {
		t.Fatal(err)
	}
	mustInsert(t, a2, 300)

	if !bytes.Equal(marshal(t, a1)[16:], marshal(t, a2)[16:]) {
		t.Fatal("merge-subtract does not commute with insert")
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	ps := mustPowerSum(t, 32, 4)
	empty := marshal(t, ps)
	mustInsert(t, ps, 1, 2, 3)
	ps.Reset()
	if !bytes.Equal(empty, marshal(t, ps)) {
		t.Fatal("reset digest differs from a fresh one")
	}
}

func TestNewPowerSumValidation(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		width uint8
		t     int
	}{
		{8, 4}, {33, 4}, {32, 0}, {32, -1}, {32, maxThreshold + 1},
	} {
		if _, err := NewPowerSum(tc.width, tc.t); !xerrors.Is(err, ErrUnsupportedDigest) {
			t.Errorf("NewPowerSum(%d, %d) error = %v", tc.width, tc.t, err)
		}
	}
}

func randomID(rand *randmath.Rand, width uint8) uint64 {
	f, err := fieldForWidth(width)
	if err != nil {
		panic(err)
	}
	return rand.Uint64()%(f.Modulus()-1) + 1
}

func BenchmarkInsert(b *testing.B) {
	for _, width := range allWidths {
		width := width
		for _, thr := range []int{10, 40, 160} {
			thr := thr
			b.Run(fmt.Sprintf("width%d/t%d", width, thr), func(b *testing.B) {
				ps, err := NewPowerSum(width, thr)
				if err != nil {
					b.Fatal(err)
				}
				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if err := ps.Insert(uint64(i%60000) + 1); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
