// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package protocol describes the OpenCPI timed-sample protocols and
// implements the binary codec of their opcodes.
package protocol // import "github.com/go-lpc/ocpi/protocol"

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProtocol   = errors.New("protocol: unknown protocol")
	ErrUnknownOpcode     = errors.New("protocol: unknown opcode")
	ErrSampleType        = errors.New("protocol: incorrect sample data type")
	ErrRange             = errors.New("protocol: value out of range")
	ErrMalformedMetadata = errors.New("protocol: malformed metadata")
)

// MaxPayloadSize is the maximum size in bytes of a sample payload.
const MaxPayloadSize = 16384

// Kind is the numeric kind of a sample component.
type Kind uint8

const (
	Boolean Kind = iota
	Integer
	Float
)

func (k Kind) String() string {
	switch k {
	case Boolean:
		return "boolean"
	case Integer:
		return "integer"
	case Float:
		return "float"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Descriptor describes a timed-sample protocol.
type Descriptor struct {
	Name    string
	Complex bool
	Kind    Kind
	Bits    int  // bits per sample component
	Signed  bool // two's complement integer components
	MaxSize int  // maximum number of samples per message
}

// ComponentSize returns the size in bytes of one sample component.
func (d Descriptor) ComponentSize() int { return d.Bits / 8 }

// DataSize returns the size in bytes of one packed sample element.
func (d Descriptor) DataSize() int {
	if d.Complex {
		return 2 * d.ComponentSize()
	}
	return d.ComponentSize()
}

func desc(name string, cplx bool, kind Kind, bits int, signed bool) Descriptor {
	d := Descriptor{
		Name:    name,
		Complex: cplx,
		Kind:    kind,
		Bits:    bits,
		Signed:  signed,
	}
	d.MaxSize = MaxPayloadSize / d.DataSize()
	return d
}

var protocols = []Descriptor{
	desc("bool_timed_sample", false, Boolean, 8, false),
	desc("char_timed_sample", false, Integer, 8, true),
	desc("uchar_timed_sample", false, Integer, 8, false),
	desc("short_timed_sample", false, Integer, 16, true),
	desc("ushort_timed_sample", false, Integer, 16, false),
	desc("long_timed_sample", false, Integer, 32, true),
	desc("ulong_timed_sample", false, Integer, 32, false),
	desc("longlong_timed_sample", false, Integer, 64, true),
	desc("ulonglong_timed_sample", false, Integer, 64, false),
	desc("float_timed_sample", false, Float, 32, true),
	desc("double_timed_sample", false, Float, 64, true),
	desc("complex_char_timed_sample", true, Integer, 8, true),
	desc("complex_short_timed_sample", true, Integer, 16, true),
	desc("complex_long_timed_sample", true, Integer, 32, true),
	desc("complex_longlong_timed_sample", true, Integer, 64, true),
	desc("complex_float_timed_sample", true, Float, 32, true),
	desc("complex_double_timed_sample", true, Float, 64, true),
}

var registry = func() map[string]Descriptor {
	db := make(map[string]Descriptor, len(protocols))
	for _, p := range protocols {
		db[p.Name] = p
	}
	return db
}()

// Lookup returns the descriptor of the named protocol.
func Lookup(name string) (Descriptor, error) {
	d, ok := registry[name]
	if !ok {
		return d, fmt.Errorf("%w %q", ErrUnknownProtocol, name)
	}
	return d, nil
}

// Protocols returns the names of all the registered protocols.
func Protocols() []string {
	names := make([]string, len(protocols))
	for i, p := range protocols {
		names[i] = p.Name
	}
	return names
}
