package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/pborman/options"
	quack "github.com/sidekick-project/go-quack"
)

func main() {
	opts := &struct {
		Width       uint         `getopt:"--width -b       Field bit-width: one of 16, 32, 63"`
		Threshold   uint         `getopt:"--threshold -t   Decoding threshold (window size for the strawman kinds)"`
		Trials      uint         `getopt:"--trials         Number of timed trials"`
		NumPackets  uint         `getopt:"-n               Identifiers inserted per trial"`
		Backend     string       `getopt:"--backend        Arithmetic backend: precompute, barrett or montgomery"`
		PayloadSize uint         `getopt:"--payload-size   Derive identifiers by hashing synthetic payloads of this many bytes"`
		Help        options.Help `getopt:"--help -h        Display help"`
	}{
		Threshold:  20,
		Trials:     10,
		NumPackets: 1000,
	}
	args := options.RegisterAndParse(opts)

	kind := quack.KindPowerSum
	if len(args) > 0 {
		var err error
		if kind, err = quack.ParseKind(args[0]); err != nil {
			log.Fatal(err)
		}
	}
	width, err := resolveWidth(opts.Width, opts.Backend)
	if err != nil {
		log.Fatal(err)
	}

	dg, err := quack.New(kind, uint8(width), int(opts.Threshold))
	if err != nil {
		log.Fatal(err)
	}

	n := int(opts.NumPackets)
	var payloads [][]byte
	var mapper *quack.IDMapper
	if opts.PayloadSize > 0 {
		if mapper, err = quack.NewIDMapper(uint8(width), []byte("benchmark")); err != nil {
			log.Fatal(err)
		}
		payloads = make([][]byte, n)
		for i := range payloads {
			payloads[i] = make([]byte, opts.PayloadSize)
			rand.Read(payloads[i])
		}
	}

	fmt.Printf("benchmark_construct: %v width=%d threshold=%d n=%d trials=%d\n",
		kind, width, opts.Threshold, n, opts.Trials)

	var totalNs float64
	for trial := uint(0); trial < opts.Trials; trial++ {
		dg.Reset()

		var elapsed time.Duration
		if mapper != nil {
			start := time.Now()
			for _, p := range payloads {
				if err := dg.Insert(mapper.ID(p)); err != nil {
					log.Fatal(err)
				}
			}
			elapsed = time.Since(start)
		} else {
			ids := randomIDs(kind, width, n)
			start := time.Now()
			for _, id := range ids {
				if err := dg.Insert(id); err != nil {
					log.Fatal(err)
				}
			}
			elapsed = time.Since(start)
		}

		ns := float64(elapsed.Nanoseconds())
		totalNs += ns
		fmt.Printf("trial %d: %.3fµs\n", trial, ns/1e3)
	}

	avgNs := totalNs / float64(opts.Trials)
	fmt.Printf("avg = %.3fµs\n", avgNs/1e3)
	fmt.Printf("avg (per-packet): %.1fns/packet\n", avgNs/float64(n))
}

// resolveWidth reconciles --width and --backend: the backend names are
// aliases for the widths, and naming both only works when they agree.
func resolveWidth(width uint, backend string) (uint, error) {
	if backend == "" {
		if width == 0 {
			width = 32
		}
		return width, nil
	}
	var bw uint
	switch backend {
	case "precompute":
		bw = 16
	case "barrett":
		bw = 32
	case "montgomery":
		bw = 63
	default:
		return 0, fmt.Errorf("unknown backend %q (want precompute, barrett or montgomery)", backend)
	}
	if width != 0 && width != bw {
		return 0, fmt.Errorf("backend %q contradicts --width %d", backend, width)
	}
	return bw, nil
}

// randomIDs draws n identifiers valid for the digest kind: non-zero
// residues of the field prime for the power-sum digest, non-zero
// width-sized integers for the strawmen.
func randomIDs(kind quack.Kind, width uint, n int) []uint64 {
	var max uint64
	if kind == quack.KindPowerSum {
		switch width {
		case 16:
			max = quack.F16.Modulus()
		case 32:
			max = quack.F32.Modulus()
		default:
			max = quack.F63.Modulus()
		}
	} else if width >= 64 {
		max = 1 << 63 // any non-zero word works; stay clear of wrap
	} else {
		max = 1 << width
	}
	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = rand.Uint64()%(max-1) + 1
	}
	return ids
}
