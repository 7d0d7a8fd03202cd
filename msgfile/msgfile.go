// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package msgfile reads and writes files of framed timed-sample messages.
//
// Each message is made of an 8-byte header followed by its payload:
//
//	bytes[0:4]  little-endian uint32  payload size
//	byte[4]     uint8                 opcode
//	bytes[5:8]  reserved, 0x00 0x00 0x00
//	bytes[8:8+size]                   payload
package msgfile // import "github.com/go-lpc/ocpi/msgfile"

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-lpc/ocpi/protocol"
	"go.uber.org/zap"
)

// HeaderSize is the size in bytes of a message header.
const HeaderSize = 8

var (
	ErrClosed = errors.New("msgfile: file already closed")
	ErrIndex  = errors.New("msgfile: index out of range")
)

// Header is the header of a framed message.
type Header struct {
	Opcode protocol.Opcode
	Size   uint32 // payload size in bytes
}

// Message is a decoded message.
type Message struct {
	Opcode protocol.Opcode
	Data   any
}

// PutHeader encodes hdr into p, which must be at least HeaderSize bytes.
func PutHeader(p []byte, hdr Header) {
	binary.LittleEndian.PutUint32(p[0:4], hdr.Size)
	p[4] = uint8(hdr.Opcode)
	p[5] = 0
	p[6] = 0
	p[7] = 0
}

// ParseHeader decodes a message header.
func ParseHeader(p []byte) (Header, error) {
	if len(p) < HeaderSize {
		return Header{}, fmt.Errorf("msgfile: could not parse header: %w", io.ErrUnexpectedEOF)
	}
	op, err := protocol.OpcodeFrom(p[4])
	if err != nil {
		return Header{}, fmt.Errorf("msgfile: could not parse header: %w", err)
	}
	return Header{
		Opcode: op,
		Size:   binary.LittleEndian.Uint32(p[0:4]),
	}, nil
}

// Frame returns the framed message made of the header for op and payload,
// followed by payload.
func Frame(op protocol.Opcode, payload []byte) ([]byte, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("msgfile: could not frame message: %w (code=%d)",
			protocol.ErrUnknownOpcode, uint8(op),
		)
	}
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("msgfile: payload too big (%d bytes)", len(payload))
	}
	out := make([]byte, HeaderSize+len(payload))
	PutHeader(out, Header{Opcode: op, Size: uint32(len(payload))})
	copy(out[HeaderSize:], payload)
	return out, nil
}

// Option configures a Reader or a Writer.
type Option func(*config)

type config struct {
	max    int // maximum number of messages to index, -1 for all.
	append bool
	log    *zap.Logger
}

func newConfig(opts []Option) config {
	cfg := config{
		max: -1,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithMaxMessages limits the number of messages a Reader indexes.
// The file is truncated after the n-th complete message, discarding any
// further (complete or partial) message.
// WithMaxMessages(0) thus empties the file.
// A negative n disables the limit.
func WithMaxMessages(n int) Option {
	return func(cfg *config) {
		if n < 0 {
			n = -1
		}
		cfg.max = n
	}
}

// WithLogger sets the logger used to report repair actions.
func WithLogger(log *zap.Logger) Option {
	return func(cfg *config) {
		if log == nil {
			log = zap.NewNop()
		}
		cfg.log = log
	}
}

// WithAppend configures a Writer to append to an existing file instead
// of truncating it.
func WithAppend() Option {
	return func(cfg *config) {
		cfg.append = true
	}
}
