// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrPayloadSize is returned when a payload has an invalid size for
// its opcode.
var ErrPayloadSize = errors.New("protocol: invalid payload size")

// Codec packs and unpacks opcode payloads of a timed-sample protocol.
// A Codec is immutable and may be shared between goroutines.
type Codec struct {
	desc Descriptor
}

// New returns the codec of the named protocol.
func New(name string) (*Codec, error) {
	desc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return &Codec{desc: desc}, nil
}

// Must is a helper that wraps a call to New and panics if the error is
// non-nil.
func Must(c *Codec, err error) *Codec {
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the name of the codec's protocol.
func (c *Codec) Name() string { return c.desc.Name }

// Descriptor returns the descriptor of the codec's protocol.
func (c *Codec) Descriptor() Descriptor { return c.desc }

// DataSize returns the size in bytes of one packed sample element.
func (c *Codec) DataSize() int { return c.desc.DataSize() }

// MaxSamples returns the maximum number of samples per message.
func (c *Codec) MaxSamples() int { return c.desc.MaxSize }

// SampleCount returns the number of sample elements held in a packed
// sample payload of n bytes.
func (c *Codec) SampleCount(n int) int { return n / c.DataSize() }

// Pack encodes the payload of an opcode.
//
// Sample data is a slice of Go numbers (complex numbers for complex
// protocols). Time and sample interval data is a non-negative number
// (see TimeFrom). Metadata is a Metadata value or a map holding the
// "id" and "value" keys. Flush and discontinuity data is ignored.
func (c *Codec) Pack(op Opcode, data any) ([]byte, error) {
	switch op {
	case OpSample:
		return c.PackSample(data)
	case OpTime, OpSampleInterval:
		t, err := TimeFrom(data)
		if err != nil {
			return nil, fmt.Errorf("protocol: could not pack %s: %w", op, err)
		}
		return packTime(t), nil
	case OpFlush, OpDiscontinuity:
		return []byte{}, nil
	case OpMetadata:
		md, err := MetadataFrom(data)
		if err != nil {
			return nil, fmt.Errorf("protocol: could not pack %s: %w", op, err)
		}
		return packMetadata(md), nil
	}
	return nil, fmt.Errorf("protocol: could not pack: %w (code=%d)", ErrUnknownOpcode, uint8(op))
}

// Unpack decodes the payload of an opcode.
//
// Sample payloads are decoded to the native slice type of the protocol
// (see PackSample). Time and sample interval payloads are decoded to a
// decimal.Decimal. Metadata payloads are decoded to a Metadata value.
// Flush and discontinuity payloads are decoded to nil.
func (c *Codec) Unpack(op Opcode, raw []byte) (any, error) {
	switch op {
	case OpSample:
		return c.UnpackSample(raw)
	case OpTime, OpSampleInterval:
		t, err := UnpackTime(raw)
		if err != nil {
			return nil, fmt.Errorf("protocol: could not unpack %s: %w", op, err)
		}
		return t.Decimal(), nil
	case OpFlush, OpDiscontinuity:
		return nil, nil
	case OpMetadata:
		md, err := UnpackMetadata(raw)
		if err != nil {
			return nil, fmt.Errorf("protocol: could not unpack %s: %w", op, err)
		}
		return md, nil
	}
	return nil, fmt.Errorf("protocol: could not unpack: %w (code=%d)", ErrUnknownOpcode, uint8(op))
}

// PackSample encodes sample data.
//
// Complex values are interleaved as (real, imag) pairs. Real values
// are accepted by complex protocols, with a null imaginary part.
// Integral floating point components are accepted by complex integer
// protocols.
func (c *Codec) PackSample(data any) ([]byte, error) {
	n, at, err := elems(data)
	if err != nil {
		return nil, fmt.Errorf("protocol: could not pack sample for %s: %w", c.desc.Name, err)
	}

	var (
		csz = c.desc.ComponentSize()
		out = make([]byte, n*c.DataSize())
	)
	for i := 0; i < n; i++ {
		v := at(i)
		switch {
		case c.desc.Complex:
			re, im := v, scalar{kind: sInt}
			if v.kind == sComplex {
				re = scalar{kind: sFloat, f: real(v.c)}
				im = scalar{kind: sFloat, f: imag(v.c)}
			}
			p := out[2*i*csz:]
			err = putComponent(p[:csz], c.desc, re, v.kind == sComplex)
			if err == nil {
				err = putComponent(p[csz:2*csz], c.desc, im, v.kind == sComplex)
			}
		default:
			if v.kind == sComplex {
				err = fmt.Errorf("%w: complex value for %s", ErrSampleType, c.desc.Name)
				break
			}
			err = putComponent(out[i*csz:(i+1)*csz], c.desc, v, false)
		}
		if err != nil {
			return nil, fmt.Errorf("protocol: could not pack sample %d: %w", i, err)
		}
	}
	return out, nil
}

// UnpackSample decodes sample data to the native slice type of the
// protocol:
//   - bool: []bool
//   - char, uchar: []int8, []uint8
//   - short, ushort: []int16, []uint16
//   - long, ulong: []int32, []uint32
//   - longlong, ulonglong: []int64, []uint64
//   - float, double: []float32, []float64
//   - complex_float: []complex64
//   - complex_double and complex integer protocols: []complex128
func (c *Codec) UnpackSample(raw []byte) (any, error) {
	var (
		d  = c.desc
		sz = d.DataSize()
	)
	if len(raw)%sz != 0 {
		return nil, fmt.Errorf(
			"protocol: could not unpack sample for %s: %w (size=%d, element=%d)",
			d.Name, ErrPayloadSize, len(raw), sz,
		)
	}
	n := len(raw) / sz

	if d.Complex {
		csz := d.ComponentSize()
		if d.Kind == Float && d.Bits == 32 {
			out := make([]complex64, n)
			for i := range out {
				p := raw[i*sz:]
				out[i] = complex64(complex(getFloat(p, d), getFloat(p[csz:], d)))
			}
			return out, nil
		}
		out := make([]complex128, n)
		for i := range out {
			p := raw[i*sz:]
			out[i] = complex(getFloat(p, d), getFloat(p[csz:], d))
		}
		return out, nil
	}

	switch d.Kind {
	case Boolean:
		out := make([]bool, n)
		for i := range out {
			out[i] = raw[i] != 0
		}
		return out, nil
	case Float:
		if d.Bits == 32 {
			out := make([]float32, n)
			for i := range out {
				out[i] = float32(getFloat(raw[i*sz:], d))
			}
			return out, nil
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = getFloat(raw[i*sz:], d)
		}
		return out, nil
	}

	switch {
	case d.Bits == 8 && d.Signed:
		out := make([]int8, n)
		for i := range out {
			out[i] = int8(raw[i])
		}
		return out, nil
	case d.Bits == 8:
		out := make([]uint8, n)
		copy(out, raw)
		return out, nil
	case d.Bits == 16 && d.Signed:
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(raw[i*sz:]))
		}
		return out, nil
	case d.Bits == 16:
		out := make([]uint16, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint16(raw[i*sz:])
		}
		return out, nil
	case d.Bits == 32 && d.Signed:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(raw[i*sz:]))
		}
		return out, nil
	case d.Bits == 32:
		out := make([]uint32, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(raw[i*sz:])
		}
		return out, nil
	case d.Signed:
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(raw[i*sz:]))
		}
		return out, nil
	default:
		out := make([]uint64, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint64(raw[i*sz:])
		}
		return out, nil
	}
}

func packTime(t Time) []byte {
	out := make([]byte, timeSize)
	binary.LittleEndian.PutUint64(out[0:8], t.Fraction&fractionMask)
	binary.LittleEndian.PutUint32(out[8:12], t.Units)
	return out
}

// PackTime encodes a time or sample interval payload.
func PackTime(v any) ([]byte, error) {
	t, err := TimeFrom(v)
	if err != nil {
		return nil, err
	}
	return packTime(t), nil
}

// UnpackTime decodes a time or sample interval payload.
func UnpackTime(raw []byte) (Time, error) {
	if len(raw) != timeSize {
		return Time{}, fmt.Errorf("%w (size=%d, want=%d)", ErrPayloadSize, len(raw), timeSize)
	}
	return Time{
		Fraction: binary.LittleEndian.Uint64(raw[0:8]),
		Units:    binary.LittleEndian.Uint32(raw[8:12]),
	}, nil
}

// TimeDecimal is a convenience function decoding a time or sample
// interval payload to a decimal value.
func TimeDecimal(raw []byte) (decimal.Decimal, error) {
	t, err := UnpackTime(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return t.Decimal(), nil
}

func packMetadata(md Metadata) []byte {
	out := make([]byte, metadataSize)
	binary.LittleEndian.PutUint32(out[0:4], md.ID)
	// out[4:8] is padding, for 64b alignment.
	binary.LittleEndian.PutUint64(out[8:16], md.Value)
	return out
}

// PackMetadata encodes a metadata payload.
func PackMetadata(v any) ([]byte, error) {
	md, err := MetadataFrom(v)
	if err != nil {
		return nil, err
	}
	return packMetadata(md), nil
}

// UnpackMetadata decodes a metadata payload.
func UnpackMetadata(raw []byte) (Metadata, error) {
	if len(raw) != metadataSize {
		return Metadata{}, fmt.Errorf("%w (size=%d, want=%d)", ErrPayloadSize, len(raw), metadataSize)
	}
	return Metadata{
		ID:    binary.LittleEndian.Uint32(raw[0:4]),
		Value: binary.LittleEndian.Uint64(raw[8:16]),
	}, nil
}
