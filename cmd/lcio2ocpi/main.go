// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command lcio2ocpi converts a LCIO file into a timed-sample message file.
package main // import "github.com/go-lpc/ocpi/cmd/lcio2ocpi"

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/go-lpc/ocpi/internal/xcnv"
	"github.com/go-lpc/ocpi/msgfile"
	"go-hep.org/x/hep/lcio"
	"go.uber.org/zap"
)

func main() {
	log.SetPrefix("lcio2ocpi: ")
	log.SetFlags(0)

	var (
		oname = flag.String("o", "out.msg", "path to output message file")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: lcio2ocpi [OPTIONS] file.lcio

ex:
 $> lcio2ocpi -o out.msg ./input.lcio

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing input LCIO file")
	}

	if *oname == "" {
		flag.Usage()
		log.Fatalf("invalid output message file name")
	}

	proto, n, err := inspect(flag.Arg(0))
	if err != nil {
		log.Fatalf("could not inspect input file: %+v", err)
	}
	log.Printf("input:    %s", flag.Arg(0))
	log.Printf("protocol: %s", proto)
	log.Printf("events:   %d", n)

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("could not create logger: %+v", err)
	}
	defer logger.Sync()

	err = process(*oname, flag.Arg(0), proto, int(n/10), logger.Sugar())
	if err != nil {
		log.Fatalf("could not convert LCIO file: %+v", err)
	}
}

// inspect returns the protocol recorded in the run header of the named
// LCIO file, together with its number of events.
func inspect(fname string) (string, int64, error) {
	r, err := lcio.Open(fname)
	if err != nil {
		return "", 0, fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer r.Close()

	var n int64
	for r.Next() {
		n++
	}

	err = r.Err()
	if err != nil && !errors.Is(err, io.EOF) {
		return "", 0, fmt.Errorf("could not assess number of events in %q: %w", fname, err)
	}

	rhdr := r.RunHeader()
	protos := rhdr.Params.Strings["Protocol"]
	if len(protos) != 1 {
		return "", 0, fmt.Errorf("could not find protocol in run header of %q", fname)
	}

	return protos[0], n, nil
}

func process(oname, fname, proto string, freq int, slog *zap.SugaredLogger) error {
	r, err := lcio.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open LCIO file: %w", err)
	}
	defer r.Close()

	w, err := msgfile.Create(oname, proto)
	if err != nil {
		return fmt.Errorf("could not create output message file: %w", err)
	}
	defer w.Close()

	err = xcnv.LCIOToMsg(w, r, freq, slog)
	if err != nil {
		return fmt.Errorf("could not convert LCIO to message file: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output message file: %w", err)
	}
	return nil
}
