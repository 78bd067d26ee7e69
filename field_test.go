package quack

import (
	"fmt"
	"math/big"
	"testing"

	randmath "math/rand"

	"golang.org/x/xerrors"
)

var allFields = []Field{F16, F32, F63}

// Cross-check every backend against arbitrary-precision arithmetic on a
// dense random sample.
func TestFieldAgainstBigInt(t *testing.T) {
	t.Parallel()

	for _, f := range allFields {
		f := f
		t.Run(fmt.Sprintf("width%d", f.Width()), func(t *testing.T) {
			t.Parallel()
			rand := randmath.New(randmath.NewSource(1337))
			p := new(big.Int).SetUint64(f.Modulus())

			for i := 0; i < 2000; i++ {
				a := rand.Uint64() % f.Modulus()
				b := rand.Uint64() % f.Modulus()
				ba := new(big.Int).SetUint64(a)
				bb := new(big.Int).SetUint64(b)
				ea, eb := f.Encode(a), f.Encode(b)

				got := f.Decode(f.Add(ea, eb))
				want := new(big.Int).Add(ba, bb)
				want.Mod(want, p)
				if got != want.Uint64() {
					t.Fatalf("add(%d, %d) = %d, want %d", a, b, got, want)
				}

				got = f.Decode(f.Sub(ea, eb))
				want.Sub(ba, bb)
				want.Mod(want, p)
				if got != want.Uint64() {
					t.Fatalf("sub(%d, %d) = %d, want %d", a, b, got, want)
				}

				got = f.Decode(f.Mul(ea, eb))
				want.Mul(ba, bb)
				want.Mod(want, p)
				if got != want.Uint64() {
					t.Fatalf("mul(%d, %d) = %d, want %d", a, b, got, want)
				}
			}
		})
	}
}

func TestFieldEncodeDecodeRoundtrip(t *testing.T) {
	t.Parallel()

	for _, f := range allFields {
		f := f
		t.Run(fmt.Sprintf("width%d", f.Width()), func(t *testing.T) {
			t.Parallel()
			rand := randmath.New(randmath.NewSource(42))
			for i := 0; i < 1000; i++ {
				u := rand.Uint64() % f.Modulus()
				if got := f.Decode(f.Encode(u)); got != u {
					t.Fatalf("decode(encode(%d)) = %d", u, got)
				}
			}
			// values beyond p reduce on ingress
			if got := f.Decode(f.Encode(f.Modulus() + 7)); got != 7 {
				t.Fatalf("decode(encode(p+7)) = %d, want 7", got)
			}
		})
	}
}

func TestFieldPow(t *testing.T) {
	t.Parallel()

	for _, f := range allFields {
		f := f
		t.Run(fmt.Sprintf("width%d", f.Width()), func(t *testing.T) {
			t.Parallel()
			rand := randmath.New(randmath.NewSource(7))
			p := new(big.Int).SetUint64(f.Modulus())

			// x^0 is the multiplicative identity, even for x = 0
			if got := f.Pow(0, 0); got != f.One() {
				t.Fatalf("pow(0, 0) = %d, want One() = %d", got, f.One())
			}
			if got := f.Decode(f.One()); got != 1 {
				t.Fatalf("Decode(One()) = %d, want 1", got)
			}

			for i := 0; i < 200; i++ {
				x := rand.Uint64() % f.Modulus()
				k := rand.Uint64() % 1000
				got := f.Decode(f.Pow(f.Encode(x), k))
				want := new(big.Int).Exp(
					new(big.Int).SetUint64(x),
					new(big.Int).SetUint64(k),
					p,
				)
				if got != want.Uint64() {
					t.Fatalf("pow(%d, %d) = %d, want %d", x, k, got, want)
				}
			}
		})
	}
}

func TestFieldInv(t *testing.T) {
	t.Parallel()

	for _, f := range allFields {
		f := f
		t.Run(fmt.Sprintf("width%d", f.Width()), func(t *testing.T) {
			t.Parallel()
			rand := randmath.New(randmath.NewSource(99))

			if _, err := f.Inv(0); !xerrors.Is(err, ErrInvalidInverse) {
				t.Fatalf("inv(0) error = %v, want ErrInvalidInverse", err)
			}

			for i := 0; i < 200; i++ {
				x := rand.Uint64()%(f.Modulus()-1) + 1
				ex := f.Encode(x)
				inv, err := f.Inv(ex)
				if err != nil {
					t.Fatal(err)
				}
				if got := f.Mul(ex, inv); got != f.One() {
					t.Fatalf("x * inv(x) = %d for x = %d, want One()", got, x)
				}
			}
		})
	}
}

func TestFieldMulZero(t *testing.T) {
	t.Parallel()

	for _, f := range allFields {
		for _, x := range []uint64{0, 1, f.Modulus() - 1} {
			ex := f.Encode(x)
			if got := f.Mul(ex, 0); got != 0 {
				t.Errorf("width %d: mul(%d, 0) = %d", f.Width(), x, got)
			}
			if got := f.Mul(0, ex); got != 0 {
				t.Errorf("width %d: mul(0, %d) = %d", f.Width(), x, got)
			}
		}
	}
}

// The 16-bit prime is 1 mod 4 and exercises Tonelli-Shanks; the other two
// are 3 mod 4 and take the exponentiation shortcut.
func TestFieldSqrt(t *testing.T) {
	t.Parallel()

	for _, f := range allFields {
		f := f
		t.Run(fmt.Sprintf("width%d", f.Width()), func(t *testing.T) {
			t.Parallel()
			rand := randmath.New(randmath.NewSource(2024))

			residues := 0
			for i := 0; i < 200; i++ {
				x := f.Encode(rand.Uint64() % f.Modulus())
				sq := f.Mul(x, x)
				r, ok := fieldSqrt(f, sq)
				if !ok {
					t.Fatalf("square %d reported as non-residue", f.Decode(sq))
				}
				if got := f.Mul(r, r); got != sq {
					t.Fatalf("sqrt(%d)^2 = %d", f.Decode(sq), f.Decode(got))
				}

				// roughly half of random non-zero elements are non-residues
				y := f.Encode(rand.Uint64()%(f.Modulus()-1) + 1)
				if _, ok := fieldSqrt(f, y); ok {
					residues++
				}
			}
			if residues == 0 || residues == 200 {
				t.Fatalf("residue count %d/200 is implausible", residues)
			}
		})
	}
}

func TestFieldWidths(t *testing.T) {
	t.Parallel()

	if F16.Modulus() != 65521 {
		t.Errorf("p16 = %d", F16.Modulus())
	}
	if F32.Modulus() != 4294967291 {
		t.Errorf("p32 = %d", F32.Modulus())
	}
	if F63.Modulus() != 1<<63-25 {
		t.Errorf("p63 = %d", F63.Modulus())
	}
	if F63.Width() != 64 {
		t.Errorf("the Montgomery backend serializes at width %d, want 64", F63.Width())
	}

	if _, err := fieldForWidth(48); !xerrors.Is(err, ErrUnsupportedDigest) {
		t.Errorf("width 48 error = %v", err)
	}
	for _, w := range []uint8{63, 64} {
		f, err := fieldForWidth(w)
		if err != nil || f != F63 {
			t.Errorf("width %d: %v, %v", w, f, err)
		}
	}
}

func BenchmarkMul(b *testing.B) {
	for _, f := range allFields {
		f := f
		b.Run(fmt.Sprintf("width%d", f.Width()), func(b *testing.B) {
			x := f.Encode(0x1234567)
			y := f.Encode(0x89abcdef % f.Modulus())
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				x = f.Mul(x, y)
			}
			sinkUint = x
		})
	}
}

var sinkUint uint64
