// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/go-lpc/ocpi/msgfile"
	"github.com/go-lpc/ocpi/protocol"
	"github.com/shopspring/decimal"
)

const (
	endOfMessages = "[End of messages]"
	noSamples     = "[No samples to display]"
)

const help = `commands:
 N           display row N (negative rows count from the end)
 LO:HI       display rows [LO, HI)
 LO:HI:STEP  display every STEP-th row of [LO, HI)
 samples     display the sample data of each port
 help        display this help
 quit        exit
`

// eval evaluates a command from the interactive prompt.
// It reports whether the session should end.
func (v *viewer) eval(line string) (bool, error) {
	cmd := strings.TrimSpace(strings.ToLower(line))
	switch cmd {
	case "":
		return false, nil
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprint(v.w, help)
		return false, nil
	case "samples":
		return false, v.samples()
	}

	lo, hi, step, err := parseRange(cmd, v.len())
	if err != nil {
		return false, err
	}
	return false, v.rows(lo, hi, step)
}

// parseRange parses a row index or a LO:HI[:STEP] range of rows,
// for a table of n rows. Bounds may be omitted.
func parseRange(cmd string, n int) (lo, hi, step int, err error) {
	toks := strings.Split(cmd, ":")
	if len(toks) > 3 {
		return 0, 0, 0, fmt.Errorf("invalid range %q", cmd)
	}

	vals := make([]*int, len(toks))
	for i, tok := range toks {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid command %q", cmd)
		}
		vals[i] = &v
	}

	if len(toks) == 1 {
		if vals[0] == nil {
			return 0, 0, 0, fmt.Errorf("invalid command %q", cmd)
		}
		i := *vals[0]
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return 0, 0, 0, fmt.Errorf("row %s out of range (rows=%d)", toks[0], n)
		}
		return i, i + 1, 1, nil
	}

	step = 1
	if len(toks) == 3 && vals[2] != nil {
		step = *vals[2]
	}
	if step == 0 {
		return 0, 0, 0, fmt.Errorf("invalid null step")
	}

	switch {
	case step > 0:
		lo, hi = 0, n
	default:
		lo, hi = n-1, -n-1
	}
	if vals[0] != nil {
		lo = *vals[0]
	}
	if vals[1] != nil {
		hi = *vals[1]
	}
	lo, hi = msgfile.SliceBounds(lo, hi, step, n)
	return lo, hi, step, nil
}

// rows displays every step-th row of [lo, hi).
func (v *viewer) rows(lo, hi, step int) error {
	tw := tabwriter.NewWriter(v.w, 0, 8, 2, ' ', 0)

	fmt.Fprintf(tw, "#\t%s\n", strings.Join(v.names, "\t"))
	for i := lo; (step > 0 && i < hi) || (step < 0 && i > hi); i += step {
		cells := make([]string, len(v.ports))
		for j, r := range v.ports {
			cell, err := v.cell(r, i)
			if err != nil {
				return fmt.Errorf("could not display message %d of %q: %w", i, v.names[j], err)
			}
			cells[j] = cell
		}
		fmt.Fprintf(tw, "%d\t%s\n", i, strings.Join(cells, "\t"))
	}

	return tw.Flush()
}

func (v *viewer) cell(r *msgfile.Reader, i int) (string, error) {
	if i >= r.Len() {
		return endOfMessages, nil
	}

	msg, err := r.Message(i)
	if err != nil {
		return "", err
	}

	switch msg.Opcode {
	case protocol.OpFlush, protocol.OpDiscontinuity:
		return msg.Opcode.String(), nil
	case protocol.OpSample:
		return fmt.Sprintf("%v: %s", msg.Opcode, formatSamples(msg.Data)), nil
	default:
		return fmt.Sprintf("%v: %s", msg.Opcode, format(msg.Data)), nil
	}
}

// samples displays the sample data of each port, up to the first message
// whose opcode is one of the viewer's stop opcodes.
func (v *viewer) samples() error {
	tw := tabwriter.NewWriter(v.w, 0, 8, 2, ' ', 0)
	for i, r := range v.ports {
		data, err := r.SampleData(v.stopOn...)
		if err != nil {
			return fmt.Errorf("could not read sample data of %q: %w", v.names[i], err)
		}
		fmt.Fprintf(tw, "%s:\t%s\n", v.names[i], formatSamples(data))
	}
	return tw.Flush()
}

func formatSamples(data any) string {
	if data == nil || reflect.ValueOf(data).Len() == 0 {
		return noSamples
	}
	return fmt.Sprintf("%v", data)
}

func format(v any) string {
	switch v := v.(type) {
	case decimal.Decimal:
		return v.String()
	case protocol.Metadata:
		return fmt.Sprintf("id=%d value=%d", v.ID, v.Value)
	default:
		return fmt.Sprintf("%v", v)
	}
}
