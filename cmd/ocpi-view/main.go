// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// ocpi-view displays side by side the messages of the message files
// recorded on the ports of a component.
//
// Usage: ocpi-view [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Rows are aligned on the message index. A port with fewer messages than
// the others displays "[End of messages]" past its last message.
//
// Example:
//
//	$> ocpi-view -p complex_short_timed_sample in.msg out.msg
//	#  in.msg                  out.msg
//	0  time: 2                 sample_interval: 0.5
//	1  flush                   discontinuity
//	2  metadata: id=1 value=2  metadata: id=1 value=2
//	3  metadata: id=3 value=4  [End of messages]
//
// With -i, ocpi-view starts an interactive prompt accepting:
//
//	N           display row N (negative rows count from the end)
//	LO:HI       display rows [LO, HI)
//	LO:HI:STEP  display every STEP-th row of [LO, HI)
//	samples     display the sample data of each port
//	help        display this help
//	quit        exit
package main // import "github.com/go-lpc/ocpi/cmd/ocpi-view"

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/go-lpc/ocpi/msgfile"
	"github.com/go-lpc/ocpi/protocol"
	"github.com/peterh/liner"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.SetPrefix("ocpi-view: ")
	log.SetFlags(0)

	err := xmain(os.Stdout, os.Args[1:])
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func xmain(w io.Writer, args []string) error {
	var (
		fset = flag.NewFlagSet("ocpi-view", flag.ExitOnError)

		proto  = fset.String("p", "", "timed-sample protocol of the input files")
		inter  = fset.Bool("i", false, "enable interactive mode")
		stopOn = fset.String("stop-on", "flush", "comma-separated list of opcodes ending the sample data")
	)

	fset.Usage = func() {
		fmt.Printf(`ocpi-view displays side by side the messages of message files.

Usage: ocpi-view [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> ocpi-view -p complex_short_timed_sample in.msg out.msg
 $> ocpi-view -p complex_short_timed_sample -i in.msg out.msg

Options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		return fmt.Errorf("could not parse input arguments: %w", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		return fmt.Errorf("missing path to input message file")
	}

	if *proto == "" {
		fset.Usage()
		return fmt.Errorf("missing timed-sample protocol")
	}

	stop, err := protocol.ParseOpcodes(*stopOn)
	if err != nil {
		return fmt.Errorf("invalid -stop-on opcodes: %w", err)
	}

	v, err := newViewer(w, *proto, fset.Args(), stop)
	if err != nil {
		return err
	}
	defer v.close()

	switch {
	case *inter:
		err = v.interactive()
	default:
		err = v.rows(0, v.len(), 1)
	}
	if err != nil {
		return err
	}

	return v.close()
}

type viewer struct {
	w      io.Writer
	names  []string
	ports  []*msgfile.Reader
	stopOn []protocol.Opcode
}

// newViewer opens and indexes all the port files concurrently.
func newViewer(w io.Writer, proto string, fnames []string, stopOn []protocol.Opcode) (*viewer, error) {
	var (
		grp   errgroup.Group
		ports = make([]*msgfile.Reader, len(fnames))
		names = make([]string, len(fnames))
	)
	for i := range fnames {
		i := i
		names[i] = filepath.Base(fnames[i])
		grp.Go(func() error {
			r, err := msgfile.Open(fnames[i], proto)
			if err != nil {
				return fmt.Errorf("could not open port file %q: %w", fnames[i], err)
			}
			ports[i] = r
			return nil
		})
	}

	v := &viewer{
		w:      w,
		names:  names,
		ports:  ports,
		stopOn: stopOn,
	}

	err := grp.Wait()
	if err != nil {
		_ = v.close()
		return nil, err
	}

	return v, nil
}

func (v *viewer) close() error {
	var err error
	for i, r := range v.ports {
		if r == nil {
			continue
		}
		err = multierr.Append(err, r.Close())
		v.ports[i] = nil
	}
	return err
}

// len returns the number of rows, ie the number of messages of the
// longest port.
func (v *viewer) len() int {
	n := 0
	for _, r := range v.ports {
		if r.Len() > n {
			n = r.Len()
		}
	}
	return n
}

func (v *viewer) interactive() error {
	term := liner.NewLiner()
	defer term.Close()

	term.SetCtrlCAborts(true)

	fmt.Fprintf(v.w, "ocpi-view: %d port(s), %d row(s). Type 'help' for help.\n",
		len(v.ports), v.len(),
	)

	for {
		line, err := term.Prompt("> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			return fmt.Errorf("could not read command: %w", err)
		}
		term.AppendHistory(line)

		quit, err := v.eval(line)
		if err != nil {
			fmt.Fprintf(v.w, "error: %v\n", err)
			continue
		}
		if quit {
			return nil
		}
	}
}
