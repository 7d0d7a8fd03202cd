// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// ocpi-dump decodes and displays timed-sample message files.
//
// Usage: ocpi-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> ocpi-dump -p complex_short_timed_sample ./testdata/port.msg
//	=== file ./testdata/port.msg ===
//	protocol: complex_short_timed_sample
//	messages:          4
//	samples:           3
//	[     0] time             size=   12 12.5
//	[     1] sample           size=    8 [(1+2i) (3+4i)]
//	[     2] sample           size=    4 [(5+6i)]
//	[     3] flush            size=    0
package main // import "github.com/go-lpc/ocpi/cmd/ocpi-dump"

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/ocpi"
	"github.com/go-lpc/ocpi/msgfile"
	"github.com/go-lpc/ocpi/protocol"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	log.SetPrefix("ocpi-dump: ")
	log.SetFlags(0)

	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	var (
		fset = flag.NewFlagSet("ocpi-dump", flag.ExitOnError)

		proto   = fset.String("p", "", "timed-sample protocol of the input files")
		raw     = fset.Bool("raw", false, "display raw payloads instead of decoded data")
		nmsgs   = fset.Int("n", -1, "keep only the first n messages, truncating the input files (-1: disabled)")
		verbose = fset.Bool("v", false, "enable verbose mode")
		vers    = fset.Bool("version", false, "print version and exit")
	)

	fset.Usage = func() {
		fmt.Printf(`ocpi-dump decodes and displays timed-sample message files.

Usage: ocpi-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> ocpi-dump -p complex_short_timed_sample ./testdata/port.msg
 === file ./testdata/port.msg ===
 protocol: complex_short_timed_sample
 messages:          4
 samples:           3
 [     0] time             size=   12 12.5
 [     1] sample           size=    8 [(1+2i) (3+4i)]
 [     2] sample           size=    4 [(5+6i)]
 [     3] flush            size=    0

Protocols: %v

Options:
`, protocol.Protocols())
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if *vers {
		v, sum := ocpi.Version()
		fmt.Fprintf(w, "ocpi-dump version=%q sum=%q\n", v, sum)
		return
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input message file")
	}

	if *proto == "" {
		fset.Usage()
		log.Fatalf("missing timed-sample protocol")
	}

	opts := []msgfile.Option{msgfile.WithMaxMessages(*nmsgs)}
	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("could not create logger: %+v", err)
		}
		defer logger.Sync()
		opts = append(opts, msgfile.WithLogger(logger))
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, *proto, *raw, opts...)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname, proto string, raw bool, opts ...msgfile.Option) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	r, err := msgfile.Open(fname, proto, opts...)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer r.Close()

	nsamples, err := r.SampleDataLength(msgfile.Elements)
	if err != nil {
		return fmt.Errorf("could not compute sample data length: %w", err)
	}

	fmt.Fprintf(wbuf, "=== file %s ===\n", fname)
	fmt.Fprintf(wbuf, "protocol: %s\n", r.Codec().Name())
	fmt.Fprintf(wbuf, "messages: % 10d\n", r.Len())
	fmt.Fprintf(wbuf, "samples:  % 10d\n", nsamples)

	var (
		hdrs = r.Headers()
		data = r.Data()
		pays = r.Payloads()
	)
	for i, hdr := range hdrs {
		fmt.Fprintf(wbuf, "[% 6d] %-16s size=% 5d", i, hdr.Opcode, hdr.Size)
		switch {
		case raw:
			p, err := pays.At(i)
			if err != nil {
				return fmt.Errorf("could not read payload %d: %w", i, err)
			}
			if len(p) > 0 {
				fmt.Fprintf(wbuf, " %x", p)
			}
		default:
			v, err := data.At(i)
			if err != nil {
				return fmt.Errorf("could not decode message %d: %w", i, err)
			}
			if s := format(v); s != "" {
				fmt.Fprintf(wbuf, " %s", s)
			}
		}
		fmt.Fprintf(wbuf, "\n")
	}

	return nil
}

func format(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return v.String()
	case protocol.Metadata:
		return fmt.Sprintf("id=%d value=%d", v.ID, v.Value)
	default:
		return fmt.Sprintf("%v", v)
	}
}
