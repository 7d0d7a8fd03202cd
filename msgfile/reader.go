// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msgfile

import (
	"fmt"
	"os"
	"reflect"

	"github.com/go-lpc/ocpi/protocol"
	"go.uber.org/zap"
)

// Reader gives sequential and random access to the messages of a file.
//
// All the message headers are read when the file is opened, to build an
// index of the messages. Payloads are only read on demand.
type Reader struct {
	f     *os.File
	name  string
	codec *protocol.Codec

	hdrs []Header
	offs []int64 // offs[i] is the offset of message i. offs[len(hdrs)] is the end.
}

// Open opens the named message file for reading, with the provided
// timed-sample protocol.
//
// A trailing incomplete message is not indexed. If WithMaxMessages is
// provided, the file is truncated after the last indexed message.
func Open(fname, proto string, opts ...Option) (*Reader, error) {
	codec, err := protocol.New(proto)
	if err != nil {
		return nil, fmt.Errorf("msgfile: could not open %q: %w", fname, err)
	}

	cfg := newConfig(opts)

	var f *os.File
	switch {
	case cfg.max >= 0:
		f, err = os.OpenFile(fname, os.O_RDWR, 0)
	default:
		f, err = os.Open(fname)
	}
	if err != nil {
		return nil, fmt.Errorf("msgfile: could not open %q: %w", fname, err)
	}

	r := &Reader{
		f:     f,
		name:  fname,
		codec: codec,
	}

	err = r.index(cfg)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("msgfile: could not index %q: %w", fname, err)
	}

	return r, nil
}

func (r *Reader) index(cfg config) error {
	fi, err := r.f.Stat()
	if err != nil {
		return fmt.Errorf("could not stat file: %w", err)
	}

	var (
		size = fi.Size()
		off  int64
		buf  = make([]byte, HeaderSize)
	)
	r.hdrs = r.hdrs[:0]
	r.offs = append(r.offs[:0], 0)

	for cfg.max < 0 || len(r.hdrs) < cfg.max {
		if off+HeaderSize > size {
			break
		}
		_, err = r.f.ReadAt(buf, off)
		if err != nil {
			return fmt.Errorf("could not read header %d: %w", len(r.hdrs), err)
		}
		hdr, err := ParseHeader(buf)
		if err != nil {
			return fmt.Errorf("invalid header %d at offset %d: %w", len(r.hdrs), off, err)
		}
		end := off + HeaderSize + int64(hdr.Size)
		if end > size {
			break
		}
		r.hdrs = append(r.hdrs, hdr)
		r.offs = append(r.offs, end)
		off = end
	}

	if cfg.max >= 0 && off < size {
		cfg.log.Warn(
			"truncating message file",
			zap.String("file", r.name),
			zap.Int("messages", len(r.hdrs)),
			zap.Int64("size", size),
			zap.Int64("truncated", off),
		)
		err = r.f.Truncate(off)
		if err != nil {
			return fmt.Errorf("could not truncate file to %d bytes: %w", off, err)
		}
	}

	return nil
}

// Close closes the underlying file.
// The reader and its views are unusable after Close.
func (r *Reader) Close() error {
	if r.f == nil {
		return ErrClosed
	}
	err := r.f.Close()
	r.f = nil
	r.hdrs = nil
	r.offs = nil
	if err != nil {
		return fmt.Errorf("msgfile: could not close %q: %w", r.name, err)
	}
	return nil
}

// Name returns the name of the underlying file.
func (r *Reader) Name() string { return r.name }

// Codec returns the codec of the file's protocol.
func (r *Reader) Codec() *protocol.Codec { return r.codec }

// Len returns the number of indexed messages, or 0 once the reader is closed.
func (r *Reader) Len() int { return len(r.hdrs) }

// Headers returns a copy of the headers index.
// The index is empty once the reader is closed.
func (r *Reader) Headers() []Header {
	hdrs := make([]Header, len(r.hdrs))
	copy(hdrs, r.hdrs)
	return hdrs
}

// Offset returns the offset in bytes of the i-th message header.
// Offset(Len()) is the size of the indexed part of the file.
func (r *Reader) Offset(i int) (int64, error) {
	if r.f == nil {
		return 0, ErrClosed
	}
	if i < 0 || i >= len(r.offs) {
		return 0, fmt.Errorf("%w: offset %d (len=%d)", ErrIndex, i, len(r.hdrs))
	}
	return r.offs[i], nil
}

// Raw returns the view of the messages as raw bytes, header included.
func (r *Reader) Raw() *View[[]byte] {
	return &View[[]byte]{
		r: r,
		get: func(_ Header, msg []byte) ([]byte, error) {
			return msg, nil
		},
	}
}

// Payloads returns the view of the messages' payloads.
func (r *Reader) Payloads() *View[[]byte] {
	return &View[[]byte]{
		r: r,
		get: func(_ Header, msg []byte) ([]byte, error) {
			return msg[HeaderSize:], nil
		},
	}
}

// Data returns the view of the messages' decoded payloads.
// See protocol.Codec.Unpack for the type of the decoded values.
func (r *Reader) Data() *View[any] {
	return &View[any]{
		r: r,
		get: func(hdr Header, msg []byte) (any, error) {
			return r.codec.Unpack(hdr.Opcode, msg[HeaderSize:])
		},
	}
}

// Messages returns the decoded messages whose opcode is one of filter.
// All messages are returned when filter is empty.
//
// Messages reads the whole file: views should be preferred for large files.
func (r *Reader) Messages(filter ...protocol.Opcode) ([]Message, error) {
	if r.f == nil {
		return nil, ErrClosed
	}
	var (
		msgs []Message
		data = r.Data()
	)
	for i, hdr := range r.hdrs {
		if len(filter) > 0 && !contains(filter, hdr.Opcode) {
			continue
		}
		v, err := data.at(i)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, Message{Opcode: hdr.Opcode, Data: v})
	}
	return msgs, nil
}

// Message returns the i-th decoded message.
// Negative indices count from the end.
func (r *Reader) Message(i int) (Message, error) {
	v, err := r.Data().At(i)
	if err != nil {
		return Message{}, err
	}
	i, _ = r.normalize(i)
	return Message{Opcode: r.hdrs[i].Opcode, Data: v}, nil
}

// SampleData returns the concatenation of the sample data of all the
// sample messages, as a slice of the protocol's native type.
// Reading stops at the first message whose opcode is one of stopOn.
func (r *Reader) SampleData(stopOn ...protocol.Opcode) (any, error) {
	segs, err := r.sampleData(nil, stopOn, true)
	if err != nil {
		return nil, err
	}
	return segs[0], nil
}

// SplitSampleData returns the sample data of the file, split into
// segments at each message whose opcode is one of splitOn.
// Reading stops at the first message whose opcode is one of stopOn.
// Empty segments are not returned.
func (r *Reader) SplitSampleData(splitOn, stopOn []protocol.Opcode) ([]any, error) {
	return r.sampleData(splitOn, stopOn, false)
}

func (r *Reader) sampleData(splitOn, stopOn []protocol.Opcode, keepEmpty bool) ([]any, error) {
	if r.f == nil {
		return nil, ErrClosed
	}

	empty, err := r.codec.UnpackSample(nil)
	if err != nil {
		return nil, err
	}

	var (
		segs []any
		cur  = reflect.ValueOf(empty)
		pays = r.Payloads()
	)
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		segs = append(segs, cur.Interface())
		cur = reflect.ValueOf(empty)
	}

loop:
	for i, hdr := range r.hdrs {
		switch {
		case contains(stopOn, hdr.Opcode):
			break loop
		case contains(splitOn, hdr.Opcode):
			flush()
		case hdr.Opcode == protocol.OpSample:
			raw, err := pays.at(i)
			if err != nil {
				return nil, err
			}
			v, err := r.codec.UnpackSample(raw)
			if err != nil {
				return nil, fmt.Errorf("msgfile: could not decode message %d: %w", i, err)
			}
			cur = reflect.AppendSlice(cur, reflect.ValueOf(v))
		}
	}
	flush()

	if keepEmpty && len(segs) == 0 {
		segs = append(segs, empty)
	}
	return segs, nil
}

// Unit is the unit of a sample data length.
type Unit uint8

const (
	Elements Unit = iota // number of sample elements
	Bytes                // number of bytes
)

// SampleDataLength returns the total length of the sample data held in
// the file. It is computed from the headers index only.
func (r *Reader) SampleDataLength(unit Unit) (int, error) {
	if r.f == nil {
		return 0, ErrClosed
	}
	n := 0
	for _, hdr := range r.hdrs {
		if hdr.Opcode == protocol.OpSample {
			n += int(hdr.Size)
		}
	}
	if unit == Elements {
		n = r.codec.SampleCount(n)
	}
	return n, nil
}

// normalize resolves a possibly negative message index.
func (r *Reader) normalize(i int) (int, error) {
	n := len(r.hdrs)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: message %d (len=%d)", ErrIndex, i, n)
	}
	return i, nil
}

// readRange reads the messages [lo, hi).
func (r *Reader) readRange(lo, hi int) ([]byte, error) {
	var (
		beg = r.offs[lo]
		end = r.offs[hi]
		buf = make([]byte, end-beg)
	)
	_, err := r.f.ReadAt(buf, beg)
	if err != nil {
		return nil, fmt.Errorf("msgfile: could not read messages [%d, %d) from %q: %w",
			lo, hi, r.name, err,
		)
	}
	return buf, nil
}

func contains(ops []protocol.Opcode, op protocol.Opcode) bool {
	for _, v := range ops {
		if v == op {
			return true
		}
	}
	return false
}
