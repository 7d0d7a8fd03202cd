// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-lpc/ocpi/msgfile"
	"github.com/go-lpc/ocpi/protocol"
	"go-hep.org/x/hep/lcio"
	"go.uber.org/zap"
)

// LCIOToMsg appends the messages stored in the LCIO events of r to w.
// Progress is logged every freq events.
func LCIOToMsg(w *msgfile.Writer, r *lcio.Reader, freq int, msg *zap.SugaredLogger) error {
	if freq <= 0 {
		freq = 100
	}

	i := 0
	for r.Next() {
		if i%freq == 0 {
			msg.Infof("processing evt %d...", i)
		}
		evt := r.Event()
		if !evt.Has(Collection) {
			return fmt.Errorf("event %d has no %q collection", i, Collection)
		}
		obj, ok := evt.Get(Collection).(*lcio.GenericObject)
		if !ok || len(obj.Data) == 0 {
			return fmt.Errorf("event %d: invalid %q collection", i, Collection)
		}

		code, payload, err := bytesFrom(obj.Data[0].I32s)
		if err != nil {
			return fmt.Errorf("could not decode event %d: %w", i, err)
		}
		op, err := protocol.OpcodeFrom(code)
		if err != nil {
			return fmt.Errorf("could not decode event %d: %w", i, err)
		}

		err = w.WriteRaw(op, payload)
		if err != nil {
			return fmt.Errorf("could not write message %d: %w", i, err)
		}
		i++
	}

	err := r.Err()
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("could not read LCIO file: %w", err)
	}

	return nil
}
