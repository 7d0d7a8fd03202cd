// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package protocol

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// fractionMask keeps the 40 most significant bits of a fraction.
	fractionMask = ^uint64(0xffffff)

	timeSize = 12
)

var (
	two64  = new(big.Int).Lsh(big.NewInt(1), 64)
	five64 = new(big.Int).Exp(big.NewInt(5), big.NewInt(64), nil)
)

// Time is a non-negative 32.64 fixed-point number of seconds, as carried
// by the time and sample_interval opcodes.
// Only the 40 most significant bits of Fraction are significant.
type Time struct {
	Units    uint32 // integer seconds
	Fraction uint64 // fractional seconds, scaled by 2^64
}

// TimeFrom converts v to a fixed-point time.
// v may be a Time, a decimal.Decimal, a *big.Rat, a float or an integer.
// The fraction is truncated to its 40 most significant bits.
func TimeFrom(v any) (Time, error) {
	var r *big.Rat
	switch v := v.(type) {
	case Time:
		v.Fraction &= fractionMask
		return v, nil
	case *Time:
		if v == nil {
			return Time{}, fmt.Errorf("%w: nil time", ErrSampleType)
		}
		return TimeFrom(*v)
	case decimal.Decimal:
		r = v.Rat()
	case *big.Rat:
		if v == nil {
			return Time{}, fmt.Errorf("%w: nil rational", ErrSampleType)
		}
		r = v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Time{}, fmt.Errorf("%w: invalid time %v", ErrRange, v)
		}
		r = new(big.Rat).SetFloat64(v)
	case float32:
		return TimeFrom(float64(v))
	default:
		iv, err := bigIntFrom(v)
		if err != nil {
			return Time{}, fmt.Errorf("%w: time of type %T", ErrSampleType, v)
		}
		r = new(big.Rat).SetInt(iv)
	}
	return timeFromRat(r)
}

func timeFromRat(r *big.Rat) (Time, error) {
	if r.Sign() < 0 {
		return Time{}, fmt.Errorf("%w: negative time %s", ErrRange, r.FloatString(20))
	}

	var (
		num   = r.Num()
		den   = r.Denom()
		units = new(big.Int)
		rem   = new(big.Int)
	)
	units.QuoRem(num, den, rem)
	if !units.IsUint64() || units.Uint64() > math.MaxUint32 {
		return Time{}, fmt.Errorf("%w: time %s exceeds 32 bits of seconds", ErrRange, units)
	}

	frac := rem.Mul(rem, two64)
	frac.Quo(frac, den)

	return Time{
		Units:    uint32(units.Uint64()),
		Fraction: frac.Uint64() & fractionMask,
	}, nil
}

// Rat returns the exact value of t.
func (t Time) Rat() *big.Rat {
	r := new(big.Rat).SetFrac(new(big.Int).SetUint64(t.Fraction), two64)
	return r.Add(r, new(big.Rat).SetInt64(int64(t.Units)))
}

// Decimal returns the exact decimal value of t.
func (t Time) Decimal() decimal.Decimal {
	// fraction/2^64 == fraction*5^64/10^64
	frac := new(big.Int).SetUint64(t.Fraction)
	frac.Mul(frac, five64)
	return decimal.NewFromInt(int64(t.Units)).Add(decimal.NewFromBigInt(frac, -64))
}

// Float64 returns the nearest float64 value of t.
func (t Time) Float64() float64 {
	return float64(t.Units) + float64(t.Fraction)/(1<<64)
}

func (t Time) String() string {
	return t.Decimal().String()
}
