// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
)

type scalarKind uint8

const (
	sBool scalarKind = iota
	sInt
	sUint
	sFloat
	sComplex
)

// scalar is a single sample value, as provided by the user.
type scalar struct {
	kind scalarKind
	b    bool
	i    int64
	u    uint64
	f    float64
	c    complex128
}

// elems returns the number of values held by the slice data and an
// accessor to its i-th value.
func elems(data any) (int, func(i int) scalar, error) {
	switch v := data.(type) {
	case nil:
		return 0, nil, nil
	case []bool:
		return len(v), func(i int) scalar { return scalar{kind: sBool, b: v[i]} }, nil
	case []int:
		return len(v), func(i int) scalar { return scalar{kind: sInt, i: int64(v[i])} }, nil
	case []int8:
		return len(v), func(i int) scalar { return scalar{kind: sInt, i: int64(v[i])} }, nil
	case []int16:
		return len(v), func(i int) scalar { return scalar{kind: sInt, i: int64(v[i])} }, nil
	case []int32:
		return len(v), func(i int) scalar { return scalar{kind: sInt, i: int64(v[i])} }, nil
	case []int64:
		return len(v), func(i int) scalar { return scalar{kind: sInt, i: v[i]} }, nil
	case []uint:
		return len(v), func(i int) scalar { return scalar{kind: sUint, u: uint64(v[i])} }, nil
	case []uint8:
		return len(v), func(i int) scalar { return scalar{kind: sUint, u: uint64(v[i])} }, nil
	case []uint16:
		return len(v), func(i int) scalar { return scalar{kind: sUint, u: uint64(v[i])} }, nil
	case []uint32:
		return len(v), func(i int) scalar { return scalar{kind: sUint, u: uint64(v[i])} }, nil
	case []uint64:
		return len(v), func(i int) scalar { return scalar{kind: sUint, u: v[i]} }, nil
	case []float32:
		return len(v), func(i int) scalar { return scalar{kind: sFloat, f: float64(v[i])} }, nil
	case []float64:
		return len(v), func(i int) scalar { return scalar{kind: sFloat, f: v[i]} }, nil
	case []complex64:
		return len(v), func(i int) scalar { return scalar{kind: sComplex, c: complex128(v[i])} }, nil
	case []complex128:
		return len(v), func(i int) scalar { return scalar{kind: sComplex, c: v[i]} }, nil
	}
	return 0, nil, fmt.Errorf("%w: %T", ErrSampleType, data)
}

// putComponent encodes one sample component into p, little-endian.
// fromComplex reports whether s is the real or imaginary part of a
// complex value, in which case integral floats are accepted for
// integer layouts.
func putComponent(p []byte, d Descriptor, s scalar, fromComplex bool) error {
	switch d.Kind {
	case Boolean:
		var v bool
		switch s.kind {
		case sBool:
			v = s.b
		case sInt:
			v = s.i != 0
		case sUint:
			v = s.u != 0
		default:
			return fmt.Errorf("%w: %s value for %s", ErrSampleType, s.kind, d.Name)
		}
		p[0] = 0
		if v {
			p[0] = 1
		}
		return nil

	case Integer:
		var (
			neg bool
			mag uint64
		)
		switch s.kind {
		case sBool:
			if s.b {
				mag = 1
			}
		case sInt:
			neg = s.i < 0
			mag = uint64(s.i)
			if neg {
				mag = uint64(-(s.i + 1)) + 1
			}
		case sUint:
			mag = s.u
		case sFloat:
			if !fromComplex || s.f != math.Trunc(s.f) || math.IsInf(s.f, 0) {
				return fmt.Errorf("%w: non-integer value %v for %s", ErrSampleType, s.f, d.Name)
			}
			if math.Abs(s.f) >= 1<<64 {
				return fmt.Errorf("%w: value %v for %s", ErrRange, s.f, d.Name)
			}
			neg = s.f < 0
			mag = uint64(math.Abs(s.f))
		default:
			return fmt.Errorf("%w: %s value for %s", ErrSampleType, s.kind, d.Name)
		}
		v, err := twos(d, neg, mag)
		if err != nil {
			return err
		}
		putUint(p, d.Bits, v)
		return nil

	case Float:
		var f float64
		switch s.kind {
		case sBool:
			if s.b {
				f = 1
			}
		case sInt:
			f = float64(s.i)
		case sUint:
			f = float64(s.u)
		case sFloat:
			f = s.f
		default:
			return fmt.Errorf("%w: %s value for %s", ErrSampleType, s.kind, d.Name)
		}
		switch d.Bits {
		case 32:
			if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
				return fmt.Errorf("%w: value %v overflows float32", ErrRange, f)
			}
			binary.LittleEndian.PutUint32(p, math.Float32bits(float32(f)))
		default:
			binary.LittleEndian.PutUint64(p, math.Float64bits(f))
		}
		return nil
	}
	panic(fmt.Errorf("protocol: invalid kind %v", d.Kind))
}

// twos returns the two's complement representation of the integer
// (neg, mag) in d.Bits bits, checking its range.
func twos(d Descriptor, neg bool, mag uint64) (uint64, error) {
	if neg && mag == 0 {
		neg = false
	}
	switch {
	case d.Signed:
		lim := uint64(1) << (d.Bits - 1) // |min|, max+1
		if (neg && mag > lim) || (!neg && mag >= lim) {
			return 0, fmt.Errorf("%w: %s value for %s", ErrRange, fmtInt(neg, mag), d.Name)
		}
		if neg {
			return -mag, nil
		}
		return mag, nil
	default:
		if neg || (d.Bits < 64 && mag >= uint64(1)<<d.Bits) {
			return 0, fmt.Errorf("%w: %s value for %s", ErrRange, fmtInt(neg, mag), d.Name)
		}
		return mag, nil
	}
}

func fmtInt(neg bool, mag uint64) string {
	if neg {
		return fmt.Sprintf("-%d", mag)
	}
	return fmt.Sprintf("%d", mag)
}

func putUint(p []byte, bits int, v uint64) {
	switch bits {
	case 8:
		p[0] = byte(v)
	case 16:
		binary.LittleEndian.PutUint16(p, uint16(v))
	case 32:
		binary.LittleEndian.PutUint32(p, uint32(v))
	case 64:
		binary.LittleEndian.PutUint64(p, v)
	}
}

func getUint(p []byte, bits int) uint64 {
	switch bits {
	case 8:
		return uint64(p[0])
	case 16:
		return uint64(binary.LittleEndian.Uint16(p))
	case 32:
		return uint64(binary.LittleEndian.Uint32(p))
	default:
		return binary.LittleEndian.Uint64(p)
	}
}

// getFloat decodes one component of a complex sample.
func getFloat(p []byte, d Descriptor) float64 {
	switch d.Kind {
	case Float:
		if d.Bits == 32 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(p))
	default:
		v := getUint(p, d.Bits)
		switch d.Bits {
		case 8:
			return float64(int8(v))
		case 16:
			return float64(int16(v))
		case 32:
			return float64(int32(v))
		default:
			return float64(int64(v))
		}
	}
}

func (k scalarKind) String() string {
	switch k {
	case sBool:
		return "bool"
	case sInt:
		return "int"
	case sUint:
		return "uint"
	case sFloat:
		return "float"
	case sComplex:
		return "complex"
	}
	return fmt.Sprintf("scalarKind(%d)", uint8(k))
}

// bigIntFrom converts a Go integer value to a big.Int.
func bigIntFrom(v any) (*big.Int, error) {
	switch v := v.(type) {
	case int:
		return big.NewInt(int64(v)), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("%w: nil integer", ErrSampleType)
		}
		return v, nil
	}
	return nil, fmt.Errorf("%w: %T is not an integer", ErrSampleType, v)
}
