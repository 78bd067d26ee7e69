// Package quack implements a selective-acknowledgment digest: a compact,
// mergeable, subtractable summary of a multiset of packet identifiers. An
// on-path observer and a data sender each feed the identifiers they have
// witnessed into their own digest; subtracting the observer's digest from
// the sender's and decoding the difference recovers exactly the identifiers
// the sender transmitted but the observer never saw, as long as the
// difference is no larger than a threshold fixed at construction.
//
// The workhorse is the power-sum digest (PowerSum): a vector of the first t
// power sums of the inserted identifiers over a prime field, encoding in
// O(t) per packet and decoding a difference of d <= t identifiers by
// polynomial root-finding. Three field widths are supported, each with its
// own arithmetic backend: 16-bit (reciprocal reduction), 32-bit (Barrett)
// and 64-bit (Montgomery over a 63-bit prime).
//
// Three strawman digests (SlidingSet, RingBuffer, CounterMap) share the
// same interface and wire framing; they exist to compare space/accuracy
// trade-offs and as fallbacks for flows that cannot bound their loss.
package quack

import (
	"encoding"

	"golang.org/x/xerrors"
)

// Kind is the wire tag identifying a digest flavor.
type Kind uint8

// Wire kind tags.
const (
	KindPowerSum   Kind = 0x01
	KindSlidingSet Kind = 0x02
	KindRingBuffer Kind = 0x03
	KindCounterMap Kind = 0x04
)

func (k Kind) String() string {
	switch k {
	case KindPowerSum:
		return "power-sum"
	case KindSlidingSet:
		return "sliding-set"
	case KindRingBuffer:
		return "ring-buffer"
	case KindCounterMap:
		return "counter-map"
	}
	return "unknown"
}

// ParseKind maps the spelling used by the benchmark harness back to a tag.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "power-sum":
		return KindPowerSum, nil
	case "sliding-set":
		return KindSlidingSet, nil
	case "ring-buffer":
		return KindRingBuffer, nil
	case "counter-map":
		return KindCounterMap, nil
	}
	return 0, xerrors.Errorf("digest kind %q: %w", s, ErrUnsupportedDigest)
}

// Digest is the contract shared by the power-sum digest and the three
// strawmen. Identifiers are opaque unsigned integers in [1, p) for the
// power-sum digest, and [1, 2^width) for the strawmen; 0 is reserved and
// always rejected.
//
// A Digest is not self-synchronizing: confine each instance to a single
// goroutine, or wrap it in a caller-owned lock.
type Digest interface {
	Kind() Kind
	// Width is the wire field width in bits: 16, 32 or 64.
	Width() uint8
	// Threshold is the decoding threshold t for the power-sum digest and
	// the window size w for the strawmen.
	Threshold() int
	Insert(id uint64) error
	Remove(id uint64) error
	// MergeSubtract subtracts other from the receiver elementwise. The two
	// digests must agree on kind, width and threshold.
	MergeSubtract(other Digest) error
	// Count is the number of inserts minus removes for the power-sum
	// digest, and goes negative after subtracting a larger digest. For
	// CounterMap it is the sum of its counters over the window (also
	// possibly negative); SlidingSet and RingBuffer report how many
	// identifiers they currently hold.
	Count() int
	// LastValue is the most recently inserted identifier, 0 if none yet.
	LastValue() uint64
	// Decode recovers the multiset summarized by the digest, typically
	// called after MergeSubtract to obtain the set difference. The result
	// is sorted ascending and carries multiplicities.
	Decode() ([]uint64, error)
	// Reset re-zeroes the digest in place, keeping its configuration.
	Reset()

	encoding.BinaryMarshaler
}

// New constructs an empty digest of the requested kind. width is one of
// 16, 32, 63 or 64 (63 and 64 both select the 64-bit backend, whose field
// is the 63-bit prime 2^63-25). t is the decoding threshold, or the window
// size for the strawman kinds.
func New(kind Kind, width uint8, t int) (Digest, error) {
	switch kind {
	case KindPowerSum:
		return NewPowerSum(width, t)
	case KindSlidingSet:
		return NewSlidingSet(width, t)
	case KindRingBuffer:
		return NewRingBuffer(width, t)
	case KindCounterMap:
		return NewCounterMap(width, t)
	}
	return nil, xerrors.Errorf("digest kind 0x%02x: %w", uint8(kind), ErrUnsupportedDigest)
}
