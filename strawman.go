package quack

import (
	"encoding"
	"sort"

	"golang.org/x/xerrors"
)

// The strawman digests trade the power-sum digest's fixed size for
// simplicity: none of them can misdecode, but all of them grow linearly in
// the window. They exist as baselines for throughput/accuracy comparisons
// and as fallbacks for flows that cannot bound their loss.

func strawmanWidth(width uint8) (uint8, error) {
	switch width {
	case 16, 32:
		return width, nil
	case 63, 64:
		return 64, nil
	}
	return 0, xerrors.Errorf("field width %d: %w", width, ErrUnsupportedDigest)
}

func checkStrawmanID(id uint64, width uint8) error {
	if id == 0 {
		return xerrors.Errorf("identifier 0 is reserved: %w", ErrForbiddenIdentifier)
	}
	if width < 64 && id>>width != 0 {
		return xerrors.Errorf("identifier %d does not fit %d bits: %w", id, width, ErrForbiddenIdentifier)
	}
	return nil
}

func checkStrawmanWindow(w int) error {
	if w < 1 || w > maxThreshold {
		return xerrors.Errorf("window %d out of range [1, %d]: %w", w, maxThreshold, ErrUnsupportedDigest)
	}
	return nil
}

// SlidingSet is strawman A: the last w distinct identifiers in insertion
// order. Re-inserting a member refreshes its recency instead of growing
// the set.
type SlidingSet struct {
	width uint8
	w     int
	order []uint64
	seen  map[uint64]struct{}
	last  uint64
}

var (
	_ Digest                     = &SlidingSet{}
	_ encoding.BinaryUnmarshaler = &SlidingSet{}
)

// NewSlidingSet returns an empty sliding distinct set holding up to w
// identifiers of the given width.
func NewSlidingSet(width uint8, w int) (*SlidingSet, error) {
	wd, err := strawmanWidth(width)
	if err != nil {
		return nil, err
	}
	if err := checkStrawmanWindow(w); err != nil {
		return nil, err
	}
	return &SlidingSet{width: wd, w: w, seen: make(map[uint64]struct{}, w)}, nil
}

func (ss *SlidingSet) Kind() Kind        { return KindSlidingSet }
func (ss *SlidingSet) Width() uint8      { return ss.width }
func (ss *SlidingSet) Threshold() int    { return ss.w }
func (ss *SlidingSet) Count() int        { return len(ss.order) }
func (ss *SlidingSet) LastValue() uint64 { return ss.last }

func (ss *SlidingSet) Insert(id uint64) error {
	if err := checkStrawmanID(id, ss.width); err != nil {
		return err
	}
	if _, ok := ss.seen[id]; ok {
		ss.drop(id)
	}
	ss.order = append(ss.order, id)
	ss.seen[id] = struct{}{}
	if len(ss.order) > ss.w {
		oldest := ss.order[0]
		ss.order = ss.order[1:]
		delete(ss.seen, oldest)
	}
	ss.last = id
	return nil
}

func (ss *SlidingSet) Remove(id uint64) error {
	if err := checkStrawmanID(id, ss.width); err != nil {
		return err
	}
	if _, ok := ss.seen[id]; ok {
		ss.drop(id)
		delete(ss.seen, id)
	}
	return nil
}

func (ss *SlidingSet) drop(id uint64) {
	for i, v := range ss.order {
		if v == id {
			ss.order = append(ss.order[:i], ss.order[i+1:]...)
			return
		}
	}
}

// MergeSubtract removes every identifier the peer has seen; what remains
// is the candidate-loss set.
func (ss *SlidingSet) MergeSubtract(other Digest) error {
	o, ok := other.(*SlidingSet)
	if !ok || o.width != ss.width || o.w != ss.w {
		return xerrors.Errorf("merge of %v/%d into %v/%d/%d: %w",
			other.Kind(), other.Threshold(), ss.Kind(), ss.width, ss.w, ErrThresholdMismatch)
	}
	for id := range o.seen {
		if _, ok := ss.seen[id]; ok {
			ss.drop(id)
			delete(ss.seen, id)
		}
	}
	return nil
}

func (ss *SlidingSet) Decode() ([]uint64, error) {
	out := append([]uint64(nil), ss.order...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (ss *SlidingSet) Reset() {
	ss.order = nil
	ss.seen = make(map[uint64]struct{}, ss.w)
	ss.last = 0
}

// RingBuffer is strawman B: the last w identifiers with duplicates
// preserved. The ring is kept unrolled as a slice, oldest first.
type RingBuffer struct {
	width uint8
	w     int
	buf   []uint64
	last  uint64
}

var (
	_ Digest                     = &RingBuffer{}
	_ encoding.BinaryUnmarshaler = &RingBuffer{}
)

// NewRingBuffer returns an empty ring holding the last w identifiers.
func NewRingBuffer(width uint8, w int) (*RingBuffer, error) {
	wd, err := strawmanWidth(width)
	if err != nil {
		return nil, err
	}
	if err := checkStrawmanWindow(w); err != nil {
		return nil, err
	}
	return &RingBuffer{width: wd, w: w}, nil
}

func (rb *RingBuffer) Kind() Kind        { return KindRingBuffer }
func (rb *RingBuffer) Width() uint8      { return rb.width }
func (rb *RingBuffer) Threshold() int    { return rb.w }
func (rb *RingBuffer) Count() int        { return len(rb.buf) }
func (rb *RingBuffer) LastValue() uint64 { return rb.last }

func (rb *RingBuffer) Insert(id uint64) error {
	if err := checkStrawmanID(id, rb.width); err != nil {
		return err
	}
	rb.buf = append(rb.buf, id)
	if len(rb.buf) > rb.w {
		rb.buf = rb.buf[1:]
	}
	rb.last = id
	return nil
}

func (rb *RingBuffer) Remove(id uint64) error {
	if err := checkStrawmanID(id, rb.width); err != nil {
		return err
	}
	for i := len(rb.buf) - 1; i >= 0; i-- {
		if rb.buf[i] == id {
			rb.buf = append(rb.buf[:i], rb.buf[i+1:]...)
			return nil
		}
	}
	return nil
}

// MergeSubtract removes one occurrence from the ring per occurrence in the
// peer: multiset difference, saturating at zero.
func (rb *RingBuffer) MergeSubtract(other Digest) error {
	o, ok := other.(*RingBuffer)
	if !ok || o.width != rb.width || o.w != rb.w {
		return xerrors.Errorf("merge of %v/%d into %v/%d/%d: %w",
			other.Kind(), other.Threshold(), rb.Kind(), rb.width, rb.w, ErrThresholdMismatch)
	}
	take := make(map[uint64]int, len(o.buf))
	for _, id := range o.buf {
		take[id]++
	}
	kept := rb.buf[:0]
	for _, id := range rb.buf {
		if take[id] > 0 {
			take[id]--
			continue
		}
		kept = append(kept, id)
	}
	rb.buf = kept
	return nil
}

func (rb *RingBuffer) Decode() ([]uint64, error) {
	out := append([]uint64(nil), rb.buf...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (rb *RingBuffer) Reset() {
	rb.buf = nil
	rb.last = 0
}

// CounterMap is strawman C: a running count per identifier over a sliding
// window of the last w inserts. Merge-subtract subtracts counters
// pairwise; decode reports identifiers with positive residual count.
type CounterMap struct {
	width  uint8
	w      int
	counts map[uint64]int
	window []uint64
	count  int
	last   uint64
}

var (
	_ Digest                     = &CounterMap{}
	_ encoding.BinaryUnmarshaler = &CounterMap{}
)

// NewCounterMap returns an empty counter map over a window of w inserts.
func NewCounterMap(width uint8, w int) (*CounterMap, error) {
	wd, err := strawmanWidth(width)
	if err != nil {
		return nil, err
	}
	if err := checkStrawmanWindow(w); err != nil {
		return nil, err
	}
	return &CounterMap{width: wd, w: w, counts: make(map[uint64]int, w)}, nil
}

func (cm *CounterMap) Kind() Kind        { return KindCounterMap }
func (cm *CounterMap) Width() uint8      { return cm.width }
func (cm *CounterMap) Threshold() int    { return cm.w }
func (cm *CounterMap) Count() int        { return cm.count }
func (cm *CounterMap) LastValue() uint64 { return cm.last }

func (cm *CounterMap) Insert(id uint64) error {
	if err := checkStrawmanID(id, cm.width); err != nil {
		return err
	}
	cm.counts[id]++
	cm.count++
	cm.window = append(cm.window, id)
	if len(cm.window) > cm.w {
		evicted := cm.window[0]
		cm.window = cm.window[1:]
		cm.bump(evicted, -1)
		cm.count--
	}
	cm.last = id
	return nil
}

// Remove decrements the counter without touching the recency window; a
// digest that has been shipped and subtracted no longer tracks recency.
func (cm *CounterMap) Remove(id uint64) error {
	if err := checkStrawmanID(id, cm.width); err != nil {
		return err
	}
	cm.bump(id, -1)
	cm.count--
	return nil
}

func (cm *CounterMap) bump(id uint64, by int) {
	c := cm.counts[id] + by
	if c == 0 {
		delete(cm.counts, id)
		return
	}
	cm.counts[id] = c
}

func (cm *CounterMap) MergeSubtract(other Digest) error {
	o, ok := other.(*CounterMap)
	if !ok || o.width != cm.width || o.w != cm.w {
		return xerrors.Errorf("merge of %v/%d into %v/%d/%d: %w",
			other.Kind(), other.Threshold(), cm.Kind(), cm.width, cm.w, ErrThresholdMismatch)
	}
	for id, c := range o.counts {
		cm.bump(id, -c)
	}
	cm.count -= o.count
	return nil
}

func (cm *CounterMap) Decode() ([]uint64, error) {
	var out []uint64
	for id, c := range cm.counts {
		for ; c > 0; c-- {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (cm *CounterMap) Reset() {
	cm.counts = make(map[uint64]int, cm.w)
	cm.window = nil
	cm.count = 0
	cm.last = 0
}
