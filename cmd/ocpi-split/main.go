// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ocpi-split extracts the sample data of a message file into
// stream files, one per segment of sample data.
package main // import "github.com/go-lpc/ocpi/cmd/ocpi-split"

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-lpc/ocpi/msgfile"
	"github.com/go-lpc/ocpi/protocol"
	"github.com/go-lpc/ocpi/streamfile"
	"go.uber.org/multierr"
)

var (
	msg = log.New(os.Stdout, "ocpi-split: ", 0)
)

func main() {
	xmain(os.Args[1:])
}

func xmain(args []string) {
	var (
		fset = flag.NewFlagSet("ocpi-split", flag.ExitOnError)

		oname   = fset.String("o", "out.bin", "path to output stream file")
		proto   = fset.String("p", "", "timed-sample protocol of the input file")
		splitOn = fset.String("split-on", "discontinuity", "comma-separated list of opcodes starting a new stream file")
		stopOn  = fset.String("stop-on", "", "comma-separated list of opcodes ending the extraction")
	)

	fset.Usage = func() {
		fmt.Printf(`Usage: ocpi-split [OPTIONS] file.msg

ex:
 $> ocpi-split -p short_timed_sample -o out.bin -split-on=discontinuity,flush ./input.msg
 ocpi-split: creating output file "out-000.bin"...
 ocpi-split: creating output file "out-001.bin"...

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() != 1 {
		fset.Usage()
		msg.Fatalf("missing input message file")
	}

	if *oname == "" {
		fset.Usage()
		msg.Fatalf("invalid output stream file")
	}

	split, err := protocol.ParseOpcodes(*splitOn)
	if err != nil {
		msg.Fatalf("invalid -split-on opcodes: %+v", err)
	}

	stop, err := protocol.ParseOpcodes(*stopOn)
	if err != nil {
		msg.Fatalf("invalid -stop-on opcodes: %+v", err)
	}

	for _, arg := range fset.Args() {
		_, err := process(*oname, *proto, arg, split, stop)
		if err != nil {
			msg.Fatalf("could not split message file %q: %+v", arg, err)
		}
	}
}

func process(oname, proto, fname string, splitOn, stopOn []protocol.Opcode) ([]string, error) {
	r, err := msgfile.Open(fname, proto)
	if err != nil {
		return nil, fmt.Errorf("could not open message file: %w", err)
	}
	defer r.Close()

	segs, err := r.SplitSampleData(splitOn, stopOn)
	if err != nil {
		return nil, fmt.Errorf("could not read sample data: %w", err)
	}

	onames := make([]string, 0, len(segs))
	for i, seg := range segs {
		oid := outFileFrom(oname, i)
		msg.Printf("creating output file %q...", oid)
		err := write(oid, proto, seg)
		if err != nil {
			return onames, fmt.Errorf("could not write segment %d: %w", i, err)
		}
		onames = append(onames, oid)
	}

	return onames, nil
}

func write(oname, proto string, data any) (err error) {
	w, err := streamfile.Create(oname, proto)
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, w.Close())
	}()

	err = w.Write(data)
	if err != nil {
		return fmt.Errorf("could not write sample data: %w", err)
	}

	return nil
}

func outFileFrom(fname string, id int) string {
	var (
		ext   = filepath.Ext(fname)
		oname = strings.TrimSuffix(fname, ext) + fmt.Sprintf("-%03d%s", id, ext)
	)
	return oname
}
