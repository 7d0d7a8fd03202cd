// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package streamfile

import (
	"bufio"
	"fmt"
	"os"

	"github.com/go-lpc/ocpi/protocol"
	"go.uber.org/multierr"
)

// Writer appends sample records to a stream file.
type Writer struct {
	f     *os.File
	w     *bufio.Writer
	name  string
	codec *protocol.Codec

	n int // number of records written
}

// Create creates the named stream file for writing, with the provided
// timed-sample protocol.
// The file is truncated unless WithAppend is provided.
func Create(fname, proto string, opts ...Option) (*Writer, error) {
	codec, err := protocol.New(proto)
	if err != nil {
		return nil, fmt.Errorf("streamfile: could not create %q: %w", fname, err)
	}

	var (
		cfg  = newConfig(opts)
		flag = os.O_WRONLY | os.O_CREATE
	)
	switch {
	case cfg.append:
		flag |= os.O_APPEND
	default:
		flag |= os.O_TRUNC
	}

	f, err := os.OpenFile(fname, flag, 0644)
	if err != nil {
		return nil, fmt.Errorf("streamfile: could not create %q: %w", fname, err)
	}

	return &Writer{
		f:     f,
		w:     bufio.NewWriterSize(f, 64*1024),
		name:  fname,
		codec: codec,
	}, nil
}

// Name returns the name of the underlying file.
func (w *Writer) Name() string { return w.name }

// Codec returns the codec of the file's protocol.
func (w *Writer) Codec() *protocol.Codec { return w.codec }

// Len returns the number of records written so far.
func (w *Writer) Len() int { return w.n }

// Write packs and appends sample data.
// data is either a single value or a slice of values.
func (w *Writer) Write(data any) error {
	if w.f == nil {
		return ErrClosed
	}
	raw, err := w.codec.PackSample(sliceOf(data))
	if err != nil {
		return fmt.Errorf("streamfile: could not pack record %d: %w", w.n, err)
	}
	return w.write(raw)
}

// WriteRaw appends already packed records.
func (w *Writer) WriteRaw(p []byte) error {
	if w.f == nil {
		return ErrClosed
	}
	err := checkSize(len(p), w.codec.DataSize())
	if err != nil {
		return fmt.Errorf("streamfile: could not write record %d: %w", w.n, err)
	}
	return w.write(p)
}

func (w *Writer) write(p []byte) error {
	_, err := w.w.Write(p)
	if err != nil {
		return fmt.Errorf("streamfile: could not write record %d: %w", w.n, err)
	}
	w.n += len(p) / w.codec.DataSize()
	return nil
}

// Flush writes any buffered record to the underlying file.
func (w *Writer) Flush() error {
	if w.f == nil {
		return ErrClosed
	}
	err := w.w.Flush()
	if err != nil {
		return fmt.Errorf("streamfile: could not flush %q: %w", w.name, err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if w.f == nil {
		return ErrClosed
	}
	err := multierr.Append(w.w.Flush(), w.f.Close())
	w.f = nil
	w.w = nil
	if err != nil {
		return fmt.Errorf("streamfile: could not close %q: %w", w.name, err)
	}
	return nil
}
