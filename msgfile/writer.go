// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msgfile

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"github.com/go-lpc/ocpi/protocol"
	"go.uber.org/multierr"
)

// Writer appends framed messages to a file.
type Writer struct {
	f     *os.File
	w     *bufio.Writer
	name  string
	codec *protocol.Codec

	hdr [HeaderSize]byte
	n   int // number of messages written
}

// Create creates the named message file for writing, with the provided
// timed-sample protocol.
// The file is truncated unless WithAppend is provided.
func Create(fname, proto string, opts ...Option) (*Writer, error) {
	codec, err := protocol.New(proto)
	if err != nil {
		return nil, fmt.Errorf("msgfile: could not create %q: %w", fname, err)
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
		return nil, fmt.Errorf("msgfile: could not create %q: %w", fname, err)
	}

	return &Writer{
		f:     f,
		w:     bufio.NewWriterSize(f, 32*1024),
		name:  fname,
		codec: codec,
	}, nil
}

// Name returns the name of the underlying file.
func (w *Writer) Name() string { return w.name }

// Codec returns the codec of the file's protocol.
func (w *Writer) Codec() *protocol.Codec { return w.codec }

// Len returns the number of messages written so far.
func (w *Writer) Len() int { return w.n }

// WriteMessage packs data for the provided opcode and appends the
// resulting message to the file.
func (w *Writer) WriteMessage(op protocol.Opcode, data any) error {
	if w.f == nil {
		return ErrClosed
	}
	payload, err := w.codec.Pack(op, data)
	if err != nil {
		return fmt.Errorf("msgfile: could not pack message %d: %w", w.n, err)
	}
	return w.write(op, payload)
}

// WriteRaw appends a message with an already packed payload.
func (w *Writer) WriteRaw(op protocol.Opcode, payload []byte) error {
	if w.f == nil {
		return ErrClosed
	}
	return w.write(op, payload)
}

// WriteMessages packs and appends all the provided messages.
func (w *Writer) WriteMessages(msgs []Message) error {
	for _, msg := range msgs {
		err := w.WriteMessage(msg.Opcode, msg.Data)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteSized appends messages whose payloads are truncated or zero-padded
// to the size declared by their header.
// data holds packed payloads ([]byte) when raw is true, values to be
// packed otherwise.
//
// WriteSized is meant to create corrupted or synthetic files.
func (w *Writer) WriteSized(hdrs []Header, data []any, raw bool) error {
	if w.f == nil {
		return ErrClosed
	}
	if len(hdrs) != len(data) {
		return fmt.Errorf("msgfile: headers/data length mismatch (%d != %d)", len(hdrs), len(data))
	}

	for i, hdr := range hdrs {
		var payload []byte
		switch {
		case raw:
			p, ok := data[i].([]byte)
			if !ok && data[i] != nil {
				return fmt.Errorf("msgfile: raw payload %d is not a byte slice (%T)", i, data[i])
			}
			payload = p
		default:
			p, err := w.codec.Pack(hdr.Opcode, data[i])
			if err != nil {
				return fmt.Errorf("msgfile: could not pack message %d: %w", w.n, err)
			}
			payload = p
		}

		sized := make([]byte, hdr.Size)
		copy(sized, payload)
		err := w.write(hdr.Opcode, sized)
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) write(op protocol.Opcode, payload []byte) error {
	if !op.Valid() {
		return fmt.Errorf("msgfile: could not write message %d: %w (code=%d)",
			w.n, protocol.ErrUnknownOpcode, uint8(op),
		)
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("msgfile: payload of message %d too big (%d bytes)", w.n, len(payload))
	}

	PutHeader(w.hdr[:], Header{Opcode: op, Size: uint32(len(payload))})
	_, err := w.w.Write(w.hdr[:])
	if err != nil {
		return fmt.Errorf("msgfile: could not write header %d: %w", w.n, err)
	}
	_, err = w.w.Write(payload)
	if err != nil {
		return fmt.Errorf("msgfile: could not write payload %d: %w", w.n, err)
	}
	w.n++
	return nil
}

// Flush writes any buffered message to the underlying file.
func (w *Writer) Flush() error {
	if w.f == nil {
		return ErrClosed
	}
	err := w.w.Flush()
	if err != nil {
		return fmt.Errorf("msgfile: could not flush %q: %w", w.name, err)
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
		return fmt.Errorf("msgfile: could not close %q: %w", w.name, err)
	}
	return nil
}
