package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/mattn/go-isatty"
	"github.com/pborman/options"
	quack "github.com/sidekick-project/go-quack"
)

func main() {
	opts := &struct {
		Decode bool         `getopt:"--decode -d Decode the digest and print the summarized identifiers"`
		Spew   bool         `getopt:"--spew      Dump the parsed in-memory structure"`
		Help   options.Help `getopt:"--help -h   Display help"`
	}{}
	options.RegisterAndParse(opts)

	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		log.Println("Reading from STDIN...")
	}

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatal(err)
	}

	dg, err := quack.Deserialize(raw)
	if err != nil {
		log.Fatalf("undecodeable digest (%d bytes): %s", len(raw), err)
	}

	fmt.Printf(`Kind:      %s
Width:     %d bits
Threshold: %d
Count:     %d
Last:      %d
Wire size: %d bytes
`,
		dg.Kind(),
		dg.Width(),
		dg.Threshold(),
		dg.Count(),
		dg.LastValue(),
		len(raw),
	)

	if opts.Spew {
		spew.Fdump(os.Stderr, dg)
	}

	if opts.Decode {
		ids, err := dg.Decode()
		if err != nil {
			log.Fatalf("decode failed: %s", err)
		}
		fmt.Printf("Decoded:   %d identifiers\n", len(ids))
		for _, id := range ids {
			fmt.Printf("  %d\n", id)
		}
	}
}
