// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ocpi holds code to read and write OpenCPI timed-sample data.
//
// The protocol package packs and unpacks the payloads of the 6 opcodes of
// the 17 timed-sample protocols. The msgfile and streamfile packages read
// and write message files (framed messages of any opcode) and stream
// files (header-less sample records).
package ocpi // import "github.com/go-lpc/ocpi"

import (
	"fmt"
	"runtime/debug"
)

const root = "github.com/go-lpc/ocpi"

// Version returns the version of ocpi and its checksum.
// The returned values are only valid in binaries built with module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	m := moduleOf(b)
	if m == nil {
		return "", ""
	}
	return describe(m)
}

// moduleOf returns the ocpi module recorded in the build info, either as
// the main module or as a dependency.
func moduleOf(b *debug.BuildInfo) *debug.Module {
	switch {
	case b == nil:
		return nil
	case b.Main.Path == root:
		return &b.Main
	}
	for _, m := range b.Deps {
		if m != nil && m.Path == root {
			return m
		}
	}
	return nil
}

// describe formats the version of m, following its replace directive.
// A replacement by a local directory is flagged with a trailing '*'.
func describe(m *debug.Module) (version, sum string) {
	r := m.Replace
	switch {
	case r == nil:
		return m.Version, m.Sum
	case r.Path != "" && r.Version != "":
		return fmt.Sprintf("%s %s", r.Path, r.Version), r.Sum
	case r.Version != "":
		return r.Version, r.Sum
	case r.Path != "":
		return r.Path, r.Sum
	default:
		return m.Version + "*", ""
	}
}
