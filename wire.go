package quack

import (
	"encoding/binary"
	"sort"

	"golang.org/x/xerrors"
)

// Every digest shares a 16-byte header:
//
//	[ 1 ] kind tag
//	[ 1 ] field width in bits
//	[ 2 ] threshold t (window size for strawmen), big-endian
//	[ 4 ] count, signed two's-complement big-endian
//	[ 8 ] last inserted identifier, zero-padded big-endian
//
// followed by a kind-specific payload. Power sums travel in canonical
// residue form regardless of backend: the Montgomery backend decodes on
// write and re-encodes on read.
const wireHeaderLen = 16

func putWireHeader(buf []byte, kind Kind, width uint8, t, count int, last uint64) {
	buf[0] = byte(kind)
	buf[1] = width
	binary.BigEndian.PutUint16(buf[2:4], uint16(t))
	binary.BigEndian.PutUint32(buf[4:8], uint32(int32(count)))
	binary.BigEndian.PutUint64(buf[8:16], last)
}

type wireHeader struct {
	kind  Kind
	width uint8
	t     int
	count int
	last  uint64
}

func parseWireHeader(b []byte) (wireHeader, error) {
	if len(b) < wireHeaderLen {
		return wireHeader{}, xerrors.Errorf("digest header is %d bytes, need %d: %w", len(b), wireHeaderLen, ErrUnsupportedDigest)
	}
	h := wireHeader{
		kind:  Kind(b[0]),
		width: b[1],
		t:     int(binary.BigEndian.Uint16(b[2:4])),
		count: int(int32(binary.BigEndian.Uint32(b[4:8]))),
		last:  binary.BigEndian.Uint64(b[8:16]),
	}
	switch h.width {
	case 16, 32, 64:
	default:
		return wireHeader{}, xerrors.Errorf("field width %d: %w", h.width, ErrUnsupportedDigest)
	}
	if h.t < 1 || h.t > maxThreshold {
		return wireHeader{}, xerrors.Errorf("threshold %d out of range [1, %d]: %w", h.t, maxThreshold, ErrUnsupportedDigest)
	}
	return h, nil
}

func elemSize(width uint8) int { return int(width) / 8 }

func putElem(buf []byte, width uint8, v uint64) {
	switch width {
	case 16:
		binary.BigEndian.PutUint16(buf, uint16(v))
	case 32:
		binary.BigEndian.PutUint32(buf, uint32(v))
	default:
		binary.BigEndian.PutUint64(buf, v)
	}
}

func getElem(buf []byte, width uint8) uint64 {
	switch width {
	case 16:
		return uint64(binary.BigEndian.Uint16(buf))
	case 32:
		return uint64(binary.BigEndian.Uint32(buf))
	default:
		return binary.BigEndian.Uint64(buf)
	}
}

// Deserialize parses any digest kind off the wire. A failure is fatal for
// the message, not for the connection.
func Deserialize(b []byte) (Digest, error) {
	h, err := parseWireHeader(b)
	if err != nil {
		return nil, err
	}
	var d interface {
		Digest
		UnmarshalBinary([]byte) error
	}
	switch h.kind {
	case KindPowerSum:
		d = &PowerSum{}
	case KindSlidingSet:
		d = &SlidingSet{}
	case KindRingBuffer:
		d = &RingBuffer{}
	case KindCounterMap:
		d = &CounterMap{}
	default:
		return nil, xerrors.Errorf("digest kind 0x%02x: %w", b[0], ErrUnsupportedDigest)
	}
	if err := d.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return d, nil
}

// MarshalBinary implements encoding.BinaryMarshaler: the common header
// followed by the t power sums in canonical big-endian form.
func (ps *PowerSum) MarshalBinary() ([]byte, error) {
	t := len(ps.sums)
	es := elemSize(ps.f.Width())
	buf := make([]byte, wireHeaderLen+t*es)
	putWireHeader(buf, KindPowerSum, ps.f.Width(), t, ps.count, ps.last)
	for k, s := range ps.sums {
		putElem(buf[wireHeaderLen+k*es:], ps.f.Width(), ps.f.Decode(s))
	}
	return buf, nil
}

// UnmarshalBinary replaces the receiver with the digest on the wire.
func (ps *PowerSum) UnmarshalBinary(b []byte) error {
	h, err := parseWireHeader(b)
	if err != nil {
		return err
	}
	if h.kind != KindPowerSum {
		return xerrors.Errorf("kind %v is not a power-sum digest: %w", h.kind, ErrUnsupportedDigest)
	}
	f, err := fieldForWidth(h.width)
	if err != nil {
		return err
	}
	es := elemSize(h.width)
	if len(b) != wireHeaderLen+h.t*es {
		return xerrors.Errorf("power-sum digest is %d bytes, want %d: %w", len(b), wireHeaderLen+h.t*es, ErrUnsupportedDigest)
	}
	sums := make([]uint64, h.t)
	for k := range sums {
		sums[k] = f.Encode(getElem(b[wireHeaderLen+k*es:], h.width))
	}
	*ps = PowerSum{
		f:     f,
		sums:  sums,
		count: h.count,
		last:  h.last,
		kinv:  kinvTable(f, h.t),
	}
	return nil
}

// Strawman payloads.
//
// SlidingSet and RingBuffer ship their identifiers oldest first behind a
// 2-byte element count; CounterMap ships (identifier, signed count) pairs
// in ascending identifier order.

func marshalIDList(kind Kind, width uint8, w, count int, last uint64, ids []uint64) []byte {
	es := elemSize(width)
	buf := make([]byte, wireHeaderLen+2+len(ids)*es)
	putWireHeader(buf, kind, width, w, count, last)
	binary.BigEndian.PutUint16(buf[wireHeaderLen:], uint16(len(ids)))
	for i, id := range ids {
		putElem(buf[wireHeaderLen+2+i*es:], width, id)
	}
	return buf
}

func unmarshalIDList(b []byte, kind Kind) (wireHeader, []uint64, error) {
	h, err := parseWireHeader(b)
	if err != nil {
		return wireHeader{}, nil, err
	}
	if h.kind != kind {
		return wireHeader{}, nil, xerrors.Errorf("kind %v is not %v: %w", h.kind, kind, ErrUnsupportedDigest)
	}
	if len(b) < wireHeaderLen+2 {
		return wireHeader{}, nil, xerrors.Errorf("truncated %v digest: %w", kind, ErrUnsupportedDigest)
	}
	n := int(binary.BigEndian.Uint16(b[wireHeaderLen:]))
	es := elemSize(h.width)
	if len(b) != wireHeaderLen+2+n*es {
		return wireHeader{}, nil, xerrors.Errorf("%v digest is %d bytes, want %d: %w", kind, len(b), wireHeaderLen+2+n*es, ErrUnsupportedDigest)
	}
	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = getElem(b[wireHeaderLen+2+i*es:], h.width)
	}
	return h, ids, nil
}

func (ss *SlidingSet) MarshalBinary() ([]byte, error) {
	return marshalIDList(KindSlidingSet, ss.width, ss.w, len(ss.order), ss.last, ss.order), nil
}

func (ss *SlidingSet) UnmarshalBinary(b []byte) error {
	h, ids, err := unmarshalIDList(b, KindSlidingSet)
	if err != nil {
		return err
	}
	n, err := NewSlidingSet(h.width, h.t)
	if err != nil {
		return err
	}
	n.last = h.last
	for _, id := range ids {
		n.order = append(n.order, id)
		n.seen[id] = struct{}{}
	}
	*ss = *n
	return nil
}

func (rb *RingBuffer) MarshalBinary() ([]byte, error) {
	return marshalIDList(KindRingBuffer, rb.width, rb.w, len(rb.buf), rb.last, rb.buf), nil
}

func (rb *RingBuffer) UnmarshalBinary(b []byte) error {
	h, ids, err := unmarshalIDList(b, KindRingBuffer)
	if err != nil {
		return err
	}
	n, err := NewRingBuffer(h.width, h.t)
	if err != nil {
		return err
	}
	n.last = h.last
	n.buf = ids
	*rb = *n
	return nil
}

func (cm *CounterMap) MarshalBinary() ([]byte, error) {
	ids := make([]uint64, 0, len(cm.counts))
	for id := range cm.counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	es := elemSize(cm.width)
	buf := make([]byte, wireHeaderLen+2+len(ids)*(es+4))
	putWireHeader(buf, KindCounterMap, cm.width, cm.w, cm.count, cm.last)
	binary.BigEndian.PutUint16(buf[wireHeaderLen:], uint16(len(ids)))
	off := wireHeaderLen + 2
	for _, id := range ids {
		putElem(buf[off:], cm.width, id)
		binary.BigEndian.PutUint32(buf[off+es:], uint32(int32(cm.counts[id])))
		off += es + 4
	}
	return buf, nil
}

func (cm *CounterMap) UnmarshalBinary(b []byte) error {
	h, err := parseWireHeader(b)
	if err != nil {
		return err
	}
	if h.kind != KindCounterMap {
		return xerrors.Errorf("kind %v is not %v: %w", h.kind, KindCounterMap, ErrUnsupportedDigest)
	}
	if len(b) < wireHeaderLen+2 {
		return xerrors.Errorf("truncated %v digest: %w", KindCounterMap, ErrUnsupportedDigest)
	}
	n := int(binary.BigEndian.Uint16(b[wireHeaderLen:]))
	es := elemSize(h.width)
	if len(b) != wireHeaderLen+2+n*(es+4) {
		return xerrors.Errorf("%v digest is %d bytes, want %d: %w", KindCounterMap, len(b), wireHeaderLen+2+n*(es+4), ErrUnsupportedDigest)
	}
	out, err := NewCounterMap(h.width, h.t)
	if err != nil {
		return err
	}
	out.count = h.count
	out.last = h.last
	off := wireHeaderLen + 2
	for i := 0; i < n; i++ {
		id := getElem(b[off:], h.width)
		out.counts[id] = int(int32(binary.BigEndian.Uint32(b[off+es:])))
		off += es + 4
	}
	*cm = *out
	return nil
}
