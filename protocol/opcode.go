// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package protocol

import (
	"fmt"
	"strings"
)

// Opcode identifies the kind of a timed-sample message.
type Opcode uint8

const (
	OpSample         Opcode = 0
	OpTime           Opcode = 1
	OpSampleInterval Opcode = 2
	OpFlush          Opcode = 3
	OpDiscontinuity  Opcode = 4
	OpMetadata       Opcode = 5
)

var opcodeNames = [...]string{
	OpSample:         "sample",
	OpTime:           "time",
	OpSampleInterval: "sample_interval",
	OpFlush:          "flush",
	OpDiscontinuity:  "discontinuity",
	OpMetadata:       "metadata",
}

// Opcodes returns all the defined opcodes, ordered by code.
func Opcodes() []Opcode {
	return []Opcode{OpSample, OpTime, OpSampleInterval, OpFlush, OpDiscontinuity, OpMetadata}
}

// Valid reports whether op is one of the defined opcodes.
func (op Opcode) Valid() bool { return int(op) < len(opcodeNames) }

func (op Opcode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Opcode(%d)", uint8(op))
	}
	return opcodeNames[op]
}

// OpcodeFrom returns the opcode with the provided code.
func OpcodeFrom(code uint8) (Opcode, error) {
	op := Opcode(code)
	if !op.Valid() {
		return op, fmt.Errorf("%w (code=%d)", ErrUnknownOpcode, code)
	}
	return op, nil
}

// ParseOpcode returns the opcode with the provided name.
func ParseOpcode(name string) (Opcode, error) {
	for i, v := range opcodeNames {
		if v == name {
			return Opcode(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownOpcode, name)
}

// ParseOpcodes parses a comma-separated list of opcode names.
// An empty string yields an empty list.
func ParseOpcodes(names string) ([]Opcode, error) {
	if strings.TrimSpace(names) == "" {
		return nil, nil
	}
	var ops []Opcode
	for _, name := range strings.Split(names, ",") {
		op, err := ParseOpcode(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}
