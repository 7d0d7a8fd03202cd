// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msgfile

import (
	"errors"
	"fmt"
)

// View gives indexed access to the messages of a Reader, each message
// being presented as a value of type T.
// A View is only valid until its Reader is closed.
type View[T any] struct {
	r   *Reader
	get func(hdr Header, msg []byte) (T, error)
}

// Len returns the number of messages in the view.
func (v *View[T]) Len() int { return v.r.Len() }

// At returns the i-th message.
// Negative indices count from the end.
func (v *View[T]) At(i int) (T, error) {
	var zero T
	if v.r.f == nil {
		return zero, ErrClosed
	}
	i, err := v.r.normalize(i)
	if err != nil {
		return zero, err
	}
	return v.at(i)
}

func (v *View[T]) at(i int) (T, error) {
	var zero T
	if v.r.f == nil {
		return zero, ErrClosed
	}
	buf, err := v.r.readRange(i, i+1)
	if err != nil {
		return zero, err
	}
	return v.get(v.r.hdrs[i], buf)
}

// Slice returns the messages [lo, hi).
// Negative bounds count from the end, and bounds are clamped to the
// number of messages.
func (v *View[T]) Slice(lo, hi int) ([]T, error) {
	return v.SliceStep(lo, hi, 1)
}

// SliceStep returns every step-th message in [lo, hi), following the
// semantics of extended slices: a negative step walks backwards from lo
// down to hi (excluded).
func (v *View[T]) SliceStep(lo, hi, step int) ([]T, error) {
	if v.r.f == nil {
		return nil, ErrClosed
	}
	if step == 0 {
		return nil, errors.New("msgfile: slice step cannot be zero")
	}

	lo, hi = SliceBounds(lo, hi, step, v.r.Len())
	if step == 1 {
		return v.contiguous(lo, hi)
	}

	var out []T
	for i := lo; (step > 0 && i < hi) || (step < 0 && i > hi); i += step {
		elem, err := v.at(i)
		if err != nil {
			return nil, err
		}
		out = append(out, elem)
	}
	return out, nil
}

// contiguous reads the messages [lo, hi) with a single read.
func (v *View[T]) contiguous(lo, hi int) ([]T, error) {
	if lo >= hi {
		return []T{}, nil
	}

	buf, err := v.r.readRange(lo, hi)
	if err != nil {
		return nil, err
	}

	var (
		out  = make([]T, 0, hi-lo)
		base = v.r.offs[lo]
	)
	for i := lo; i < hi; i++ {
		var (
			beg = v.r.offs[i] - base
			end = v.r.offs[i+1] - base
		)
		elem, err := v.get(v.r.hdrs[i], buf[beg:end:end])
		if err != nil {
			return nil, fmt.Errorf("msgfile: could not decode message %d: %w", i, err)
		}
		out = append(out, elem)
	}
	return out, nil
}

// Iter returns an iterator over all the messages of the view.
func (v *View[T]) Iter() *Iterator[T] {
	return &Iterator[T]{v: v}
}

// SliceBounds clamps the bounds [lo, hi) of an extended slice with the
// provided step over a sequence of length n.
// Negative bounds count from the end. With a negative step, the returned
// hi may be -1, meaning the walk includes index 0.
func SliceBounds(lo, hi, step, n int) (int, int) {
	clamp := func(i int) int {
		if i < 0 {
			i += n
			if i < 0 {
				if step < 0 {
					return -1
				}
				return 0
			}
		}
		if i >= n {
			if step < 0 {
				return n - 1
			}
			return n
		}
		return i
	}
	return clamp(lo), clamp(hi)
}

// Iterator iterates over the messages of a view.
//
//	it := r.Data().Iter()
//	for it.Next() {
//		v := it.Value()
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator[T any] struct {
	v   *View[T]
	i   int
	cur T
	err error
}

// Next advances the iterator to the next message.
// It returns false at the end of the view or after an error.
func (it *Iterator[T]) Next() bool {
	if it.err != nil {
		return false
	}
	if it.v.r.f == nil {
		it.err = ErrClosed
		return false
	}
	if it.i >= it.v.Len() {
		return false
	}
	it.cur, it.err = it.v.at(it.i)
	if it.err != nil {
		return false
	}
	it.i++
	return true
}

// Index returns the index of the current message.
func (it *Iterator[T]) Index() int { return it.i - 1 }

// Value returns the current message.
func (it *Iterator[T]) Value() T { return it.cur }

// Err returns the first error encountered during the iteration.
func (it *Iterator[T]) Err() error { return it.err }
