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
		Width      uint         `getopt:"--width -b       Field bit-width: one of 16, 32, 63"`
		Threshold  uint         `getopt:"--threshold -t   Decoding threshold (window size for the strawman kinds)"`
		Trials     uint         `getopt:"--trials         Number of timed trials"`
		NumPackets uint         `getopt:"-n               Identifiers inserted into the sender digest per trial"`
		NumMissing uint         `getopt:"-d               Identifiers withheld from the observer digest per trial"`
		Backend    string       `getopt:"--backend        Arithmetic backend: precompute, barrett or montgomery"`
		Factor     bool         `getopt:"--factor         Force polynomial factorization instead of plug-in root search"`
		Help       options.Help `getopt:"--help -h        Display help"`
	}{
		Threshold:  20,
		Trials:     10,
		NumPackets: 1000,
		NumMissing: 5,
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
	n, d := int(opts.NumPackets), int(opts.NumMissing)
	if d > n {
		log.Fatalf("-d %d exceeds -n %d", d, n)
	}

	fmt.Printf("benchmark_decode: %v width=%d threshold=%d n=%d d=%d trials=%d\n",
		kind, width, opts.Threshold, n, d, opts.Trials)

	var totalNs float64
	for trial := uint(0); trial < opts.Trials; trial++ {
		sender, err := quack.New(kind, uint8(width), int(opts.Threshold))
		if err != nil {
			log.Fatal(err)
		}
		observer, err := quack.New(kind, uint8(width), int(opts.Threshold))
		if err != nil {
			log.Fatal(err)
		}
		if ps, ok := sender.(*quack.PowerSum); ok && opts.Factor {
			ps.SetRootStrategy(quack.StrategyFactor)
		}

		ids := randomIDs(kind, width, n)
		missing := make(map[int]bool, d)
		for len(missing) < d {
			missing[rand.Intn(n)] = true
		}
		for i, id := range ids {
			if err := sender.Insert(id); err != nil {
				log.Fatal(err)
			}
			if missing[i] {
				continue
			}
			if err := observer.Insert(id); err != nil {
				log.Fatal(err)
			}
		}

		start := time.Now()
		if err := sender.MergeSubtract(observer); err != nil {
			log.Fatal(err)
		}
		decoded, err := sender.Decode()
		elapsed := time.Since(start)
		if err != nil {
			log.Fatal(err)
		}
		if kind == quack.KindPowerSum && len(decoded) != d {
			log.Fatalf("trial %d: decoded %d identifiers, expected %d", trial, len(decoded), d)
		}

		ns := float64(elapsed.Nanoseconds())
		totalNs += ns
		fmt.Printf("trial %d: %.3fµs\n", trial, ns/1e3)
	}

	avgNs := totalNs / float64(opts.Trials)
	if avgNs >= 1e6 {
		fmt.Printf("avg = %.3fms\n", avgNs/1e6)
	} else {
		fmt.Printf("avg = %.3fµs\n", avgNs/1e3)
	}
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

// randomIDs draws n identifiers valid for the digest kind.
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
		max = 1 << 63
	} else {
		max = 1 << width
	}
	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = rand.Uint64()%(max-1) + 1
	}
	return ids
}
