package quack

import (
	"encoding/binary"
	"hash"
	"sync"

	sha256simd "github.com/minio/sha256-simd"
)

var shaPool = sync.Pool{New: func() interface{} { return sha256simd.New() }}

// IDMapper derives digest identifiers from raw packet bytes: a keyed hash
// folded into [1, p). Both ends of a flow must use the same key, or their
// digests summarize unrelated multisets. The fold can never yield the
// reserved identifier 0, so the result is always safe to Insert.
//
// An IDMapper is safe for concurrent use.
type IDMapper struct {
	f   Field
	key []byte
}

// NewIDMapper returns a mapper into the identifier range of the given
// field width. The key may be empty for unkeyed (but still
// collision-resistant) mapping.
func NewIDMapper(width uint8, key []byte) (*IDMapper, error) {
	f, err := fieldForWidth(width)
	if err != nil {
		return nil, err
	}
	return &IDMapper{f: f, key: append([]byte(nil), key...)}, nil
}

// ID maps a packet's bytes to an identifier in [1, p). The fold into p-1
// residues carries a bias below 2^-63 per residue; against a collision
// probability of n/p per connection it is noise.
func (m *IDMapper) ID(payload []byte) uint64 {
	h := shaPool.Get().(hash.Hash)
	h.Reset()
	h.Write(m.key)
	h.Write(payload)
	var sum [32]byte
	d := h.Sum(sum[:0])
	shaPool.Put(h)
	u := binary.BigEndian.Uint64(d[:8])
	return u%(m.f.Modulus()-1) + 1
}
