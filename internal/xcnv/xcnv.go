// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv provides tools to convert message files to/from LCIO.
//
// Each message is stored as an LCIO event holding a single generic object
// collection. The object's int32 words are:
//
//	[0]   opcode
//	[1]   payload size, in bytes
//	[2:]  payload, little-endian, zero-padded to a multiple of 4 bytes
package xcnv // import "github.com/go-lpc/ocpi/internal/xcnv"

import (
	"encoding/binary"
	"fmt"
)

const (
	// Collection is the name of the LCIO collection holding a message.
	Collection = "OCPI_MSG"

	// Detector is the detector name of the LCIO run header and events.
	Detector = "OCPI"

	i32sz = 4
	hdrsz = 2 // number of header words
)

// i32sFrom packs a message into int32 words, reusing buf.
func i32sFrom(buf []int32, op uint8, payload []byte) []int32 {
	n := hdrsz + (len(payload)+i32sz-1)/i32sz
	if cap(buf) < n {
		buf = make([]int32, n)
	}
	buf = buf[:n]
	buf[0] = int32(op)
	buf[1] = int32(uint32(len(payload)))

	var word [i32sz]byte
	for i := range buf[hdrsz:] {
		word = [i32sz]byte{}
		copy(word[:], payload[i*i32sz:])
		buf[hdrsz+i] = int32(binary.LittleEndian.Uint32(word[:]))
	}
	return buf
}

// bytesFrom unpacks the opcode and payload of a message from int32 words.
func bytesFrom(raw []int32) (uint8, []byte, error) {
	if len(raw) < hdrsz {
		return 0, nil, fmt.Errorf("xcnv: message too short (words=%d)", len(raw))
	}
	var (
		op   = raw[0]
		size = int64(uint32(raw[1]))
		lim  = int64(len(raw)-hdrsz) * i32sz
	)
	if op < 0 || op > 0xff {
		return 0, nil, fmt.Errorf("xcnv: invalid opcode word %d", op)
	}
	if size > lim {
		return 0, nil, fmt.Errorf("xcnv: payload size %d exceeds message words (%d bytes)", size, lim)
	}

	out := make([]byte, lim)
	for i, v := range raw[hdrsz:] {
		binary.LittleEndian.PutUint32(out[i*i32sz:], uint32(v))
	}
	return uint8(op), out[:size], nil
}
