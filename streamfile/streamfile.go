// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package streamfile reads and writes header-less files of sample data.
//
// A stream file is a flat sequence of fixed-size records, one per sample
// element, the record size being the data size of the file's protocol.
// Every record is implicitly a sample: there is no framing and no other
// opcode.
package streamfile // import "github.com/go-lpc/ocpi/streamfile"

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrClosed     = errors.New("streamfile: file already closed")
	ErrIndex      = errors.New("streamfile: index out of range")
	ErrRecordSize = errors.New("streamfile: size is not a multiple of the record size")
)

// Option configures a Writer.
type Option func(*config)

type config struct {
	append bool
}

func newConfig(opts []Option) config {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithAppend configures a Writer to append to an existing file instead
// of truncating it.
func WithAppend() Option {
	return func(cfg *config) {
		cfg.append = true
	}
}

// sliceOf wraps a single value into a one-element slice.
// Slices are returned unchanged.
func sliceOf(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		return v
	}
	s := reflect.MakeSlice(reflect.SliceOf(rv.Type()), 1, 1)
	s.Index(0).Set(rv)
	return s.Interface()
}

func checkSize(n, sz int) error {
	if n%sz != 0 {
		return fmt.Errorf("%w (size=%d, record=%d)", ErrRecordSize, n, sz)
	}
	return nil
}
