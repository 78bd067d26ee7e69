package quack

import (
	"fmt"
	"testing"

	randmath "math/rand"
)

func TestIDMapperRange(t *testing.T) {
	t.Parallel()

	for _, width := range allWidths {
		width := width
		t.Run(fmt.Sprintf("width%d", width), func(t *testing.T) {
			t.Parallel()
			m, err := NewIDMapper(width, []byte("flow-key"))
			if err != nil {
				t.Fatal(err)
			}
			f, _ := fieldForWidth(width)

			rand := randmath.New(randmath.NewSource(808))
			payload := make([]byte, 1200)
			for i := 0; i < 2000; i++ {
				rand.Read(payload)
				id := m.ID(payload)
				if id == 0 || id >= f.Modulus() {
					t.Fatalf("identifier %d outside [1, p)", id)
				}
			}
		})
	}
}

func TestIDMapperDeterministic(t *testing.T) {
	t.Parallel()

	m1, _ := NewIDMapper(32, []byte("k"))
	m2, _ := NewIDMapper(32, []byte("k"))
	m3, _ := NewIDMapper(32, []byte("other"))

	payload := []byte("some packet bytes")
	if m1.ID(payload) != m2.ID(payload) {
		t.Fatal("same key, same payload, different identifiers")
	}
	if m1.ID(payload) == m3.ID(payload) {
		t.Fatal("distinct keys mapped a payload identically")
	}
}

// Mapped identifiers must be directly insertable: the mapper can never
// produce the reserved identifier.
func TestIDMapperFeedsDigest(t *testing.T) {
	t.Parallel()

	m, _ := NewIDMapper(16, nil)
	ps := mustPowerSum(t, 16, 8)
	payload := make([]byte, 64)
	for i := 0; i < 500; i++ {
		payload[i%64]++
		if err := ps.Insert(m.ID(payload)); err != nil {
			t.Fatal(err)
		}
	}
	if ps.Count() != 500 {
		t.Fatalf("count %d", ps.Count())
	}
}

func TestIDMapperWidthValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewIDMapper(24, nil); err == nil {
		t.Fatal("width 24 accepted")
	}
}
