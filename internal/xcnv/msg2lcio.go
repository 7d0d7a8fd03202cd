// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"fmt"

	"github.com/go-lpc/ocpi/msgfile"
	"go-hep.org/x/hep/lcio"
	"go.uber.org/zap"
)

// MsgToLCIO writes every message of r as an LCIO event of the provided run.
// Progress is logged every freq messages.
func MsgToLCIO(w *lcio.Writer, r *msgfile.Reader, run int32, freq int, msg *zap.SugaredLogger) error {
	if freq <= 0 {
		freq = 100
	}

	proto := r.Codec().Name()
	err := w.WriteRunHeader(&lcio.RunHeader{
		RunNumber: run,
		Detector:  Detector,
		Descr:     proto,
		Params: lcio.Params{
			Ints: map[string][]int32{
				"Messages": {int32(r.Len())},
			},
			Strings: map[string][]string{
				"Protocol": {proto},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("could not write run header: %w", err)
	}

	var (
		raw = &lcio.GenericObject{
			Data: []lcio.GenericObjectData{
				{I32s: nil},
			},
		}
		it = r.Raw().Iter()
	)

	for it.Next() {
		i := it.Index()
		if i%freq == 0 {
			msg.Infof("processing msg %d...", i)
		}

		buf := it.Value()
		hdr, err := msgfile.ParseHeader(buf)
		if err != nil {
			return fmt.Errorf("could not parse message %d: %w", i, err)
		}

		evt := lcio.Event{
			RunNumber:   run,
			EventNumber: int32(i),
			Detector:    Detector,
		}
		raw.Data[0].I32s = i32sFrom(raw.Data[0].I32s, uint8(hdr.Opcode), buf[msgfile.HeaderSize:])
		evt.Add(Collection, raw)

		err = w.WriteEvent(&evt)
		if err != nil {
			return fmt.Errorf("could not write message %d: %w", i, err)
		}
	}

	err = it.Err()
	if err != nil {
		return fmt.Errorf("could not read messages: %w", err)
	}

	return nil
}
