// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package streamfile

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/go-lpc/ocpi/internal/mmap"
	"github.com/go-lpc/ocpi/protocol"
)

// Reader gives random and sequential access to the records of a stream
// file. The file is memory-mapped for the lifetime of the reader.
type Reader struct {
	h     *mmap.Handle
	name  string
	codec *protocol.Codec

	n   int // number of records
	pos int // read cursor, in records
}

// Open opens the named stream file for reading, with the provided
// timed-sample protocol.
func Open(fname, proto string) (*Reader, error) {
	codec, err := protocol.New(proto)
	if err != nil {
		return nil, fmt.Errorf("streamfile: could not open %q: %w", fname, err)
	}

	h, err := mmap.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("streamfile: could not open %q: %w", fname, err)
	}

	sz := codec.DataSize()
	err = checkSize(h.Len(), sz)
	if err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("streamfile: could not open %q: %w", fname, err)
	}

	return &Reader{
		h:     h,
		name:  fname,
		codec: codec,
		n:     h.Len() / sz,
	}, nil
}

// Close unmaps the underlying file.
func (r *Reader) Close() error {
	if r.h == nil {
		return ErrClosed
	}
	err := r.h.Close()
	r.h = nil
	r.n = 0
	r.pos = 0
	if err != nil {
		return fmt.Errorf("streamfile: could not close %q: %w", r.name, err)
	}
	return nil
}

// Name returns the name of the underlying file.
func (r *Reader) Name() string { return r.name }

// Codec returns the codec of the file's protocol.
func (r *Reader) Codec() *protocol.Codec { return r.codec }

// Len returns the number of records in the file.
func (r *Reader) Len() int { return r.n }

// RawAt returns a copy of the i-th record.
// Negative indices count from the end.
func (r *Reader) RawAt(i int) ([]byte, error) {
	if r.h == nil {
		return nil, ErrClosed
	}
	i, err := r.normalize(i)
	if err != nil {
		return nil, err
	}
	return r.raw(i, i+1)
}

// At returns the i-th sample element, as a value of the protocol's native
// element type (e.g. int16 for short_timed_sample).
// Negative indices count from the end.
func (r *Reader) At(i int) (any, error) {
	raw, err := r.RawAt(i)
	if err != nil {
		return nil, err
	}
	v, err := r.codec.UnpackSample(raw)
	if err != nil {
		return nil, err
	}
	return reflect.ValueOf(v).Index(0).Interface(), nil
}

// Slice returns the sample elements [lo, hi) as a slice of the protocol's
// native type. Negative bounds count from the end, and bounds are clamped
// to the number of records.
func (r *Reader) Slice(lo, hi int) (any, error) {
	if r.h == nil {
		return nil, ErrClosed
	}
	lo, hi = r.clamp(lo), r.clamp(hi)
	if hi < lo {
		hi = lo
	}
	raw, err := r.raw(lo, hi)
	if err != nil {
		return nil, err
	}
	return r.codec.UnpackSample(raw)
}

// ReadRaw reads at most n records from the read cursor, and advances it.
// All the remaining records are read when n is negative.
// ReadRaw returns io.EOF when the cursor is at the end of the file.
func (r *Reader) ReadRaw(n int) ([]byte, error) {
	if r.h == nil {
		return nil, ErrClosed
	}
	if r.pos >= r.n && n != 0 {
		return []byte{}, io.EOF
	}
	end := r.n
	if n >= 0 && n < end-r.pos {
		end = r.pos + n
	}
	raw, err := r.raw(r.pos, end)
	if err != nil {
		return nil, err
	}
	r.pos = end
	return raw, nil
}

// Read reads at most n sample elements from the read cursor, and advances
// it. All the remaining elements are read when n is negative.
// Read returns io.EOF, together with an empty slice, when the cursor is at
// the end of the file.
func (r *Reader) Read(n int) (any, error) {
	raw, err := r.ReadRaw(n)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	v, uerr := r.codec.UnpackSample(raw)
	if uerr != nil {
		return nil, uerr
	}
	return v, err
}

// Seek moves the read cursor to the i-th record.
// Negative indices count from the end. Seeking to Len() is allowed.
func (r *Reader) Seek(i int) error {
	if r.h == nil {
		return ErrClosed
	}
	if i < 0 {
		i += r.n
	}
	if i < 0 || i > r.n {
		return fmt.Errorf("%w: seek to record %d (len=%d)", ErrIndex, i, r.n)
	}
	r.pos = i
	return nil
}

// Tell returns the position of the read cursor, in records.
func (r *Reader) Tell() int { return r.pos }

// Iter returns an iterator over all the sample elements of the file.
// The iterator does not move the read cursor.
func (r *Reader) Iter() *Iterator {
	return &Iterator{r: r}
}

func (r *Reader) normalize(i int) (int, error) {
	if i < 0 {
		i += r.n
	}
	if i < 0 || i >= r.n {
		return 0, fmt.Errorf("%w: record %d (len=%d)", ErrIndex, i, r.n)
	}
	return i, nil
}

func (r *Reader) clamp(i int) int {
	if i < 0 {
		i += r.n
		if i < 0 {
			return 0
		}
	}
	if i > r.n {
		return r.n
	}
	return i
}

// raw returns a copy of the records [lo, hi).
func (r *Reader) raw(lo, hi int) ([]byte, error) {
	var (
		sz  = r.codec.DataSize()
		out = make([]byte, (hi-lo)*sz)
	)
	_, err := r.h.ReadAt(out, int64(lo*sz))
	if err != nil {
		return nil, fmt.Errorf("streamfile: could not read records [%d, %d) from %q: %w",
			lo, hi, r.name, err,
		)
	}
	return out, nil
}

// Iterator iterates over the sample elements of a stream file.
type Iterator struct {
	r   *Reader
	i   int
	cur any
	err error
}

// Next advances the iterator to the next element.
// It returns false at the end of the file or after an error.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	if it.r.h == nil {
		it.err = ErrClosed
		return false
	}
	if it.i >= it.r.n {
		return false
	}
	it.cur, it.err = it.r.At(it.i)
	if it.err != nil {
		return false
	}
	it.i++
	return true
}

// Index returns the index of the current element.
func (it *Iterator) Index() int { return it.i - 1 }

// Value returns the current element.
func (it *Iterator) Value() any { return it.cur }

// Err returns the first error encountered during the iteration.
func (it *Iterator) Err() error { return it.err }
