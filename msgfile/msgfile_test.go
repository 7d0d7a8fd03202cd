// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msgfile

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-lpc/ocpi/protocol"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const cshort = "complex_short_timed_sample"

func writeFile(t *testing.T, fname, proto string, msgs []Message) {
	t.Helper()

	w, err := Create(fname, proto)
	if err != nil {
		t.Fatalf("could not create message file: %+v", err)
	}
	defer w.Close()

	err = w.WriteMessages(msgs)
	if err != nil {
		t.Fatalf("could not write messages: %+v", err)
	}

	err = w.Close()
	if err != nil {
		t.Fatalf("could not close message file: %+v", err)
	}
}

func TestHeader(t *testing.T) {
	raw, err := Frame(protocol.OpMetadata, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("could not frame message: %+v", err)
	}
	want := []byte{3, 0, 0, 0, 5, 0, 0, 0, 1, 2, 3}
	if !bytes.Equal(raw, want) {
		t.Fatalf("invalid frame:\ngot= %v\nwant=%v", raw, want)
	}

	hdr, err := ParseHeader(raw)
	if err != nil {
		t.Fatalf("could not parse header: %+v", err)
	}
	if got, want := hdr, (Header{Opcode: protocol.OpMetadata, Size: 3}); got != want {
		t.Fatalf("invalid header: got=%+v, want=%+v", got, want)
	}

	_, err = ParseHeader([]byte{0, 0, 0, 0, 6, 0, 0, 0})
	if !errors.Is(err, protocol.ErrUnknownOpcode) {
		t.Fatalf("invalid error: %+v", err)
	}

	_, err = ParseHeader([]byte{0, 0, 0})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("invalid error: %+v", err)
	}

	_, err = Frame(protocol.Opcode(7), nil)
	if !errors.Is(err, protocol.ErrUnknownOpcode) {
		t.Fatalf("invalid error: %+v", err)
	}
}

func TestComplexShortRoundTrip(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "data.msg")
	writeFile(t, fname, cshort, []Message{
		{Opcode: protocol.OpSample, Data: []complex128{complex(1, 2), complex(3, 4)}},
		{Opcode: protocol.OpSample, Data: []complex128{complex(5, 6)}},
	})

	r, err := Open(fname, cshort)
	if err != nil {
		t.Fatalf("could not open message file: %+v", err)
	}
	defer r.Close()

	want := []Header{
		{Opcode: protocol.OpSample, Size: 8},
		{Opcode: protocol.OpSample, Size: 4},
	}
	if diff := cmp.Diff(want, r.Headers()); diff != "" {
		t.Fatalf("invalid headers index (-want +got):\n%s", diff)
	}

	data, err := r.Data().Slice(0, r.Len())
	if err != nil {
		t.Fatalf("could not read data: %+v", err)
	}
	wantData := []any{
		[]complex128{complex(1, 2), complex(3, 4)},
		[]complex128{complex(5, 6)},
	}
	if diff := cmp.Diff(wantData, data); diff != "" {
		t.Fatalf("invalid data (-want +got):\n%s", diff)
	}

	for i := 0; i < r.Len(); i++ {
		beg, err := r.Offset(i)
		if err != nil {
			t.Fatalf("could not get offset %d: %+v", i, err)
		}
		end, err := r.Offset(i + 1)
		if err != nil {
			t.Fatalf("could not get offset %d: %+v", i+1, err)
		}
		if got, want := end-beg, int64(HeaderSize+want[i].Size); got != want {
			t.Fatalf("invalid message %d extent: got=%d, want=%d", i, got, want)
		}
	}

	for _, tc := range []struct {
		unit Unit
		want int
	}{
		{Elements, 3},
		{Bytes, 12},
	} {
		got, err := r.SampleDataLength(tc.unit)
		if err != nil {
			t.Fatalf("could not compute sample length: %+v", err)
		}
		if got != tc.want {
			t.Fatalf("invalid sample length: got=%d, want=%d", got, tc.want)
		}
	}
}

func testMessages() []Message {
	return []Message{
		{Opcode: protocol.OpTime, Data: 1.5},
		{Opcode: protocol.OpSample, Data: []int16{1, 2, 3}},
		{Opcode: protocol.OpSampleInterval, Data: decimal.RequireFromString("0.25")},
		{Opcode: protocol.OpSample, Data: []int16{4, 5}},
		{Opcode: protocol.OpDiscontinuity},
		{Opcode: protocol.OpSample, Data: []int16{6}},
		{Opcode: protocol.OpMetadata, Data: protocol.Metadata{ID: 1, Value: 2}},
		{Opcode: protocol.OpFlush},
		{Opcode: protocol.OpSample, Data: []int16{7, 8}},
	}
}

func TestViews(t *testing.T) {
	const proto = "short_timed_sample"
	fname := filepath.Join(t.TempDir(), "data.msg")
	msgs := testMessages()
	writeFile(t, fname, proto, msgs)

	r, err := Open(fname, proto)
	if err != nil {
		t.Fatalf("could not open message file: %+v", err)
	}
	defer r.Close()

	if got, want := r.Len(), len(msgs); got != want {
		t.Fatalf("invalid number of messages: got=%d, want=%d", got, want)
	}

	t.Run("raw", func(t *testing.T) {
		got, err := r.Raw().At(1)
		if err != nil {
			t.Fatalf("could not read raw message: %+v", err)
		}
		want := []byte{6, 0, 0, 0, 0, 0, 0, 0, 1, 0, 2, 0, 3, 0}
		if !bytes.Equal(got, want) {
			t.Fatalf("invalid raw message:\ngot= %v\nwant=%v", got, want)
		}
	})

	t.Run("payload", func(t *testing.T) {
		got, err := r.Payloads().At(-1)
		if err != nil {
			t.Fatalf("could not read payload: %+v", err)
		}
		if want := []byte{7, 0, 8, 0}; !bytes.Equal(got, want) {
			t.Fatalf("invalid payload:\ngot= %v\nwant=%v", got, want)
		}

		got, err = r.Payloads().At(-2)
		if err != nil {
			t.Fatalf("could not read payload: %+v", err)
		}
		if len(got) != 0 {
			t.Fatalf("invalid flush payload: %v", got)
		}
	})

	t.Run("data", func(t *testing.T) {
		v, err := r.Data().At(0)
		if err != nil {
			t.Fatalf("could not read data: %+v", err)
		}
		if got := v.(decimal.Decimal); !got.Equal(decimal.RequireFromString("1.5")) {
			t.Fatalf("invalid time: got=%v", got)
		}

		v, err = r.Data().At(6)
		if err != nil {
			t.Fatalf("could not read data: %+v", err)
		}
		if got, want := v, (protocol.Metadata{ID: 1, Value: 2}); got != want {
			t.Fatalf("invalid metadata: got=%v, want=%v", got, want)
		}

		msg, err := r.Message(-4)
		if err != nil {
			t.Fatalf("could not read message: %+v", err)
		}
		if msg.Opcode != protocol.OpSample || !reflect.DeepEqual(msg.Data, []int16{6}) {
			t.Fatalf("invalid message: %+v", msg)
		}
	})

	t.Run("out-of-range", func(t *testing.T) {
		for _, i := range []int{len(msgs), len(msgs) + 10, -len(msgs) - 1} {
			_, err := r.Data().At(i)
			if !errors.Is(err, ErrIndex) {
				t.Fatalf("invalid error for index %d: %+v", i, err)
			}
		}
	})

	t.Run("slice", func(t *testing.T) {
		pays := r.Payloads()
		for _, tc := range []struct {
			lo, hi, step int
			want         []int
		}{
			{lo: 1, hi: 4, step: 1, want: []int{1, 2, 3}},
			{lo: -2, hi: 100, step: 1, want: []int{7, 8}},
			{lo: -100, hi: 2, step: 1, want: []int{0, 1}},
			{lo: 5, hi: 2, step: 1, want: []int{}},
			{lo: 0, hi: 100, step: 3, want: []int{0, 3, 6}},
			{lo: 100, hi: -100, step: -4, want: []int{8, 4, 0}},
			{lo: 3, hi: 0, step: -1, want: []int{3, 2, 1}},
		} {
			got, err := pays.SliceStep(tc.lo, tc.hi, tc.step)
			if err != nil {
				t.Fatalf("could not slice [%d:%d:%d]: %+v", tc.lo, tc.hi, tc.step, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("invalid slice [%d:%d:%d] length: got=%d, want=%d",
					tc.lo, tc.hi, tc.step, len(got), len(tc.want),
				)
			}
			for j, i := range tc.want {
				want, err := pays.At(i)
				if err != nil {
					t.Fatalf("could not read payload %d: %+v", i, err)
				}
				if !bytes.Equal(got[j], want) {
					t.Fatalf("invalid slice [%d:%d:%d] element %d:\ngot= %v\nwant=%v",
						tc.lo, tc.hi, tc.step, j, got[j], want,
					)
				}
			}
		}

		_, err := pays.SliceStep(0, 1, 0)
		if err == nil {
			t.Fatalf("expected an error for a null step")
		}
	})

	t.Run("iter", func(t *testing.T) {
		var (
			it  = r.Raw().Iter()
			n   = 0
			buf = new(bytes.Buffer)
		)
		for it.Next() {
			if it.Index() != n {
				t.Fatalf("invalid iterator index: got=%d, want=%d", it.Index(), n)
			}
			buf.Write(it.Value())
			n++
		}
		if err := it.Err(); err != nil {
			t.Fatalf("could not iterate: %+v", err)
		}
		if n != len(msgs) {
			t.Fatalf("invalid number of iterations: got=%d, want=%d", n, len(msgs))
		}

		raw, err := os.ReadFile(fname)
		if err != nil {
			t.Fatalf("could not read file: %+v", err)
		}
		if !bytes.Equal(buf.Bytes(), raw) {
			t.Fatalf("raw messages do not reproduce file content")
		}
	})
}

func TestBulkAccessors(t *testing.T) {
	const proto = "short_timed_sample"
	fname := filepath.Join(t.TempDir(), "data.msg")
	writeFile(t, fname, proto, testMessages())

	r, err := Open(fname, proto)
	if err != nil {
		t.Fatalf("could not open message file: %+v", err)
	}
	defer r.Close()

	t.Run("messages", func(t *testing.T) {
		msgs, err := r.Messages(protocol.OpSample, protocol.OpMetadata)
		if err != nil {
			t.Fatalf("could not read messages: %+v", err)
		}
		want := []Message{
			{Opcode: protocol.OpSample, Data: []int16{1, 2, 3}},
			{Opcode: protocol.OpSample, Data: []int16{4, 5}},
			{Opcode: protocol.OpSample, Data: []int16{6}},
			{Opcode: protocol.OpMetadata, Data: protocol.Metadata{ID: 1, Value: 2}},
			{Opcode: protocol.OpSample, Data: []int16{7, 8}},
		}
		if diff := cmp.Diff(want, msgs); diff != "" {
			t.Fatalf("invalid messages (-want +got):\n%s", diff)
		}

		all, err := r.Messages()
		if err != nil {
			t.Fatalf("could not read messages: %+v", err)
		}
		if got, want := len(all), r.Len(); got != want {
			t.Fatalf("invalid number of messages: got=%d, want=%d", got, want)
		}
	})

	t.Run("sample-data", func(t *testing.T) {
		for _, tc := range []struct {
			name   string
			stopOn []protocol.Opcode
			want   []int16
		}{
			{"all", nil, []int16{1, 2, 3, 4, 5, 6, 7, 8}},
			{"stop-on-flush", []protocol.Opcode{protocol.OpFlush}, []int16{1, 2, 3, 4, 5, 6}},
			{"stop-on-time", []protocol.Opcode{protocol.OpTime}, []int16{}},
		} {
			t.Run(tc.name, func(t *testing.T) {
				got, err := r.SampleData(tc.stopOn...)
				if err != nil {
					t.Fatalf("could not read sample data: %+v", err)
				}
				if diff := cmp.Diff(tc.want, got); diff != "" {
					t.Fatalf("invalid sample data (-want +got):\n%s", diff)
				}
			})
		}
	})

	t.Run("split-sample-data", func(t *testing.T) {
		got, err := r.SplitSampleData(
			[]protocol.Opcode{protocol.OpDiscontinuity, protocol.OpMetadata},
			[]protocol.Opcode{protocol.OpFlush},
		)
		if err != nil {
			t.Fatalf("could not read sample data: %+v", err)
		}
		want := []any{
			[]int16{1, 2, 3, 4, 5},
			[]int16{6},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("invalid sample data (-want +got):\n%s", diff)
		}
	})
}

func TestNoSamples(t *testing.T) {
	dir := t.TempDir()
	for _, tc := range []struct {
		name string
		msgs []Message
	}{
		{
			name: "port-1",
			msgs: []Message{
				{Opcode: protocol.OpTime, Data: 2},
				{Opcode: protocol.OpFlush},
				{Opcode: protocol.OpMetadata, Data: map[string]any{"id": 1, "value": 2}},
				{Opcode: protocol.OpMetadata, Data: map[string]any{"id": 3, "value": 4}},
			},
		},
		{
			name: "port-2",
			msgs: []Message{
				{Opcode: protocol.OpSampleInterval, Data: 0.5},
				{Opcode: protocol.OpDiscontinuity},
				{Opcode: protocol.OpMetadata, Data: map[string]any{"id": 1, "value": 2}},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fname := filepath.Join(dir, tc.name+".msg")
			writeFile(t, fname, cshort, tc.msgs)

			r, err := Open(fname, cshort)
			if err != nil {
				t.Fatalf("could not open message file: %+v", err)
			}
			defer r.Close()

			if got, want := r.Len(), len(tc.msgs); got != want {
				t.Fatalf("invalid number of messages: got=%d, want=%d", got, want)
			}

			v, err := r.SampleData(protocol.OpFlush)
			if err != nil {
				t.Fatalf("could not read sample data: %+v", err)
			}
			if got, want := v, []complex128{}; !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid sample data: got=%#v, want=%#v", got, want)
			}
			n, err := r.SampleDataLength(Elements)
			if err != nil {
				t.Fatalf("could not compute sample length: %+v", err)
			}
			if n != 0 {
				t.Fatalf("invalid sample length: %d", n)
			}
		})
	}
}

func TestTruncatedFile(t *testing.T) {
	const proto = "short_timed_sample"
	for _, tc := range []struct {
		name  string
		extra []byte
		want  int
	}{
		{name: "complete", extra: nil, want: 3},
		{name: "partial-header", extra: []byte{4, 0, 0}, want: 3},
		{name: "partial-payload", extra: []byte{4, 0, 0, 0, 0, 0, 0, 0, 1, 0}, want: 3},
		{name: "complete-empty-payload", extra: []byte{0, 0, 0, 0, 3, 0, 0, 0}, want: 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fname := filepath.Join(t.TempDir(), "data.msg")
			writeFile(t, fname, proto, []Message{
				{Opcode: protocol.OpSample, Data: []int16{1, 2}},
				{Opcode: protocol.OpTime, Data: 1},
				{Opcode: protocol.OpSample, Data: []int16{3}},
			})
			f, err := os.OpenFile(fname, os.O_WRONLY|os.O_APPEND, 0)
			if err != nil {
				t.Fatalf("could not open file: %+v", err)
			}
			_, err = f.Write(tc.extra)
			if err != nil {
				t.Fatalf("could not write extra data: %+v", err)
			}
			_ = f.Close()

			fi, err := os.Stat(fname)
			if err != nil {
				t.Fatalf("could not stat file: %+v", err)
			}

			r, err := Open(fname, proto)
			if err != nil {
				t.Fatalf("could not open message file: %+v", err)
			}
			defer r.Close()

			if got, want := r.Len(), tc.want; got != want {
				t.Fatalf("invalid number of messages: got=%d, want=%d", got, want)
			}

			// without a messages limit, the file is left untouched.
			after, err := os.Stat(fname)
			if err != nil {
				t.Fatalf("could not stat file: %+v", err)
			}
			if got, want := after.Size(), fi.Size(); got != want {
				t.Fatalf("file was modified: got=%d, want=%d", got, want)
			}
		})
	}
}

func TestMaxMessages(t *testing.T) {
	const proto = "short_timed_sample"
	for _, tc := range []struct {
		name  string
		max   int
		extra []byte
		want  int
		size  int64
		warn  bool
	}{
		{name: "limit-0", max: 0, want: 0, size: 0, warn: true},
		{name: "limit-1", max: 1, want: 1, size: 12, warn: true},
		{name: "limit-3", max: 3, want: 3, size: 12 + 20 + 10},
		{name: "limit-10", max: 10, want: 3, size: 12 + 20 + 10},
		{name: "partial", max: 10, extra: []byte{2, 0, 0, 0, 0, 0}, want: 3, size: 12 + 20 + 10, warn: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fname := filepath.Join(t.TempDir(), "data.msg")
			writeFile(t, fname, proto, []Message{
				{Opcode: protocol.OpSample, Data: []int16{1, 2}},
				{Opcode: protocol.OpTime, Data: 1},
				{Opcode: protocol.OpSample, Data: []int16{3}},
			})
			if tc.extra != nil {
				f, err := os.OpenFile(fname, os.O_WRONLY|os.O_APPEND, 0)
				if err != nil {
					t.Fatalf("could not open file: %+v", err)
				}
				_, _ = f.Write(tc.extra)
				_ = f.Close()
			}

			core, logs := observer.New(zap.WarnLevel)
			r, err := Open(fname, proto, WithMaxMessages(tc.max), WithLogger(zap.New(core)))
			if err != nil {
				t.Fatalf("could not open message file: %+v", err)
			}
			defer r.Close()

			if got, want := r.Len(), tc.want; got != want {
				t.Fatalf("invalid number of messages: got=%d, want=%d", got, want)
			}

			fi, err := os.Stat(fname)
			if err != nil {
				t.Fatalf("could not stat file: %+v", err)
			}
			if got, want := fi.Size(), tc.size; got != want {
				t.Fatalf("invalid file size: got=%d, want=%d", got, want)
			}

			if got, want := logs.Len() == 1, tc.warn; got != want {
				t.Fatalf("invalid truncation log: got=%d entries", logs.Len())
			}
		})
	}
}

func TestWriteSized(t *testing.T) {
	const proto = "ushort_timed_sample"
	fname := filepath.Join(t.TempDir(), "data.msg")

	w, err := Create(fname, proto)
	if err != nil {
		t.Fatalf("could not create message file: %+v", err)
	}
	defer w.Close()

	err = w.WriteSized(
		[]Header{
			{Opcode: protocol.OpSample, Size: 2},
			{Opcode: protocol.OpSample, Size: 6},
			{Opcode: protocol.OpTime, Size: 12},
		},
		[]any{
			[]uint16{1, 2, 3},
			[]uint16{4},
			1,
		},
		false,
	)
	if err != nil {
		t.Fatalf("could not write sized messages: %+v", err)
	}

	err = w.WriteSized(
		[]Header{{Opcode: protocol.OpFlush, Size: 4}},
		[]any{[]byte{0xff, 0xff, 0xff, 0xff, 0xff}},
		true,
	)
	if err != nil {
		t.Fatalf("could not write sized raw messages: %+v", err)
	}
	if got, want := w.Len(), 4; got != want {
		t.Fatalf("invalid number of written messages: got=%d, want=%d", got, want)
	}

	err = w.Close()
	if err != nil {
		t.Fatalf("could not close message file: %+v", err)
	}

	r, err := Open(fname, proto)
	if err != nil {
		t.Fatalf("could not open message file: %+v", err)
	}
	defer r.Close()

	pays, err := r.Payloads().Slice(0, r.Len())
	if err != nil {
		t.Fatalf("could not read payloads: %+v", err)
	}
	want := [][]byte{
		{1, 0},
		{4, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0},
		{0xff, 0xff, 0xff, 0xff},
	}
	if diff := cmp.Diff(want, pays); diff != "" {
		t.Fatalf("invalid payloads (-want +got):\n%s", diff)
	}
}

func TestAppend(t *testing.T) {
	const proto = "double_timed_sample"
	fname := filepath.Join(t.TempDir(), "data.msg")
	writeFile(t, fname, proto, []Message{
		{Opcode: protocol.OpSample, Data: []float64{1}},
	})

	w, err := Create(fname, proto, WithAppend())
	if err != nil {
		t.Fatalf("could not open message file: %+v", err)
	}
	err = w.WriteMessage(protocol.OpSample, []float64{2, 3})
	if err != nil {
		t.Fatalf("could not write message: %+v", err)
	}
	err = w.WriteRaw(protocol.OpFlush, nil)
	if err != nil {
		t.Fatalf("could not write raw message: %+v", err)
	}
	err = w.Close()
	if err != nil {
		t.Fatalf("could not close message file: %+v", err)
	}

	r, err := Open(fname, proto)
	if err != nil {
		t.Fatalf("could not open message file: %+v", err)
	}
	defer r.Close()

	got, err := r.SampleData()
	if err != nil {
		t.Fatalf("could not read sample data: %+v", err)
	}
	if diff := cmp.Diff([]float64{1, 2, 3}, got); diff != "" {
		t.Fatalf("invalid sample data (-want +got):\n%s", diff)
	}
	if got, want := r.Len(), 3; got != want {
		t.Fatalf("invalid number of messages: got=%d, want=%d", got, want)
	}
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Create(filepath.Join(dir, "data.msg"), "not_a_protocol")
	if !errors.Is(err, protocol.ErrUnknownProtocol) {
		t.Fatalf("invalid error: %+v", err)
	}

	fname := filepath.Join(dir, "corrupt.msg")
	err = os.WriteFile(fname, []byte{0, 0, 0, 0, 9, 0, 0, 0}, 0644)
	if err != nil {
		t.Fatalf("could not create file: %+v", err)
	}
	_, err = Open(fname, cshort)
	if !errors.Is(err, protocol.ErrUnknownOpcode) {
		t.Fatalf("invalid error: %+v", err)
	}
	_, err = Open(fname, "not_a_protocol")
	if !errors.Is(err, protocol.ErrUnknownProtocol) {
		t.Fatalf("invalid error: %+v", err)
	}

	fname = filepath.Join(dir, "data.msg")
	w, err := Create(fname, cshort)
	if err != nil {
		t.Fatalf("could not create message file: %+v", err)
	}
	err = w.WriteMessage(protocol.OpSample, []float64{1.5})
	if !errors.Is(err, protocol.ErrSampleType) {
		t.Fatalf("invalid error: %+v", err)
	}
	err = w.WriteMessage(protocol.OpTime, -1)
	if !errors.Is(err, protocol.ErrRange) {
		t.Fatalf("invalid error: %+v", err)
	}
	err = w.WriteRaw(protocol.Opcode(42), nil)
	if !errors.Is(err, protocol.ErrUnknownOpcode) {
		t.Fatalf("invalid error: %+v", err)
	}
	if got := w.Len(); got != 0 {
		t.Fatalf("invalid number of written messages: %d", got)
	}
	err = w.WriteMessage(protocol.OpFlush, nil)
	if err != nil {
		t.Fatalf("could not write flush: %+v", err)
	}
	err = w.Close()
	if err != nil {
		t.Fatalf("could not close writer: %+v", err)
	}
	if err := w.WriteMessage(protocol.OpFlush, nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("invalid error: %+v", err)
	}
	if err := w.Close(); !errors.Is(err, ErrClosed) {
		t.Fatalf("invalid error: %+v", err)
	}

	r, err := Open(fname, cshort)
	if err != nil {
		t.Fatalf("could not open message file: %+v", err)
	}
	if got, want := r.Len(), 1; got != want {
		t.Fatalf("invalid number of messages: got=%d, want=%d", got, want)
	}
	data := r.Data()
	it := data.Iter()
	err = r.Close()
	if err != nil {
		t.Fatalf("could not close reader: %+v", err)
	}

	if _, err := data.At(0); !errors.Is(err, ErrClosed) {
		t.Fatalf("invalid error: %+v", err)
	}
	if _, err := data.Slice(0, 1); !errors.Is(err, ErrClosed) {
		t.Fatalf("invalid error: %+v", err)
	}
	if it.Next() || !errors.Is(it.Err(), ErrClosed) {
		t.Fatalf("invalid iterator error: %+v", it.Err())
	}
	if _, err := r.Messages(); !errors.Is(err, ErrClosed) {
		t.Fatalf("invalid error: %+v", err)
	}
	if _, err := r.SampleData(); !errors.Is(err, ErrClosed) {
		t.Fatalf("invalid error: %+v", err)
	}
	if _, err := r.SampleDataLength(Bytes); !errors.Is(err, ErrClosed) {
		t.Fatalf("invalid error: %+v", err)
	}
	if _, err := r.Offset(0); !errors.Is(err, ErrClosed) {
		t.Fatalf("invalid error: %+v", err)
	}
	if got := r.Len(); got != 0 {
		t.Fatalf("invalid closed reader length: %d", got)
	}
	if got := r.Headers(); len(got) != 0 {
		t.Fatalf("invalid closed reader headers: %v", got)
	}
	if err := r.Close(); !errors.Is(err, ErrClosed) {
		t.Fatalf("invalid error: %+v", err)
	}
}

func TestSliceBounds(t *testing.T) {
	for _, tc := range []struct {
		lo, hi, step, n int
		wlo, whi        int
	}{
		{lo: 0, hi: 5, step: 1, n: 5, wlo: 0, whi: 5},
		{lo: -2, hi: 100, step: 1, n: 5, wlo: 3, whi: 5},
		{lo: -100, hi: -100, step: 1, n: 5, wlo: 0, whi: 0},
		{lo: 100, hi: -100, step: -1, n: 5, wlo: 4, whi: -1},
		{lo: 3, hi: 0, step: -2, n: 5, wlo: 3, whi: 0},
		{lo: 0, hi: 1, step: 1, n: 0, wlo: 0, whi: 0},
	} {
		lo, hi := SliceBounds(tc.lo, tc.hi, tc.step, tc.n)
		if lo != tc.wlo || hi != tc.whi {
			t.Fatalf("invalid bounds for [%d:%d:%d] (n=%d): got=[%d:%d], want=[%d:%d]",
				tc.lo, tc.hi, tc.step, tc.n, lo, hi, tc.wlo, tc.whi,
			)
		}
	}
}
