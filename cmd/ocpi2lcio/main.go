// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ocpi2lcio converts a timed-sample message file to an LCIO one.
package main // import "github.com/go-lpc/ocpi/cmd/ocpi2lcio"

import (
	"compress/flate"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-lpc/ocpi/internal/xcnv"
	"github.com/go-lpc/ocpi/msgfile"
	"go-hep.org/x/hep/lcio"
	"go.uber.org/zap"
)

var (
	msg = log.New(os.Stdout, "ocpi2lcio: ", 0)
)

func main() {
	var (
		oname = flag.String("o", "out.lcio", "path to output LCIO file")
		proto = flag.String("p", "", "timed-sample protocol of the input file")
		compr = flag.Int("lvl", flate.DefaultCompression, "compression level for output LCIO file")
		run   = flag.Int("run", -1, "run number (default: inferred from input file name)")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: ocpi2lcio [OPTIONS] file.msg

ex:
 $> ocpi2lcio -p short_timed_sample -o out.lcio -lvl=9 ./run_063.msg

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		msg.Fatalf("missing input message file")
	}

	if *oname == "" {
		flag.Usage()
		msg.Fatalf("invalid output LCIO file name")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		msg.Fatalf("could not create logger: %+v", err)
	}
	defer logger.Sync()

	err = process(*oname, *proto, *compr, int32(*run), flag.Arg(0), logger.Sugar())
	if err != nil {
		msg.Fatalf("could not convert message file: %+v", err)
	}
}

func process(oname, proto string, lvl int, run int32, fname string, slog *zap.SugaredLogger) error {
	r, err := msgfile.Open(fname, proto)
	if err != nil {
		return fmt.Errorf("could not open message file: %w", err)
	}
	defer r.Close()

	if run < 0 {
		run, err = runNbrFrom(fname)
		if err != nil {
			return fmt.Errorf("could not infer run from %q: %w", fname, err)
		}
	}

	w, err := lcio.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output LCIO file: %w", err)
	}
	defer w.Close()

	w.SetCompressionLevel(lvl)

	err = xcnv.MsgToLCIO(w, r, run, 100, slog)
	if err != nil {
		return fmt.Errorf("could not convert message file to LCIO: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output LCIO file: %w", err)
	}

	return nil
}

func runNbrFrom(fname string) (int32, error) {
	var (
		name = filepath.Base(fname)
		run  int32
	)
	_, err := fmt.Sscanf(name, "run_%d.msg", &run)
	return run, err
}
