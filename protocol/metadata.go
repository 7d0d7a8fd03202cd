// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package protocol

import (
	"fmt"
	"math"
	"math/big"
)

const metadataSize = 16 // id (4 bytes) + padding (4 bytes) + value (8 bytes)

// Metadata is the payload of a metadata message.
type Metadata struct {
	ID    uint32
	Value uint64
}

// MetadataFrom converts v to a metadata payload.
// v may be a Metadata, a *Metadata or a map holding the "id" and "value"
// keys with integer values.
func MetadataFrom(v any) (Metadata, error) {
	switch v := v.(type) {
	case Metadata:
		return v, nil
	case *Metadata:
		if v == nil {
			return Metadata{}, fmt.Errorf("%w: nil metadata", ErrMalformedMetadata)
		}
		return *v, nil
	case map[string]uint64:
		m := make(map[string]any, len(v))
		for k, x := range v {
			m[k] = x
		}
		return MetadataFrom(m)
	case map[string]int:
		m := make(map[string]any, len(v))
		for k, x := range v {
			m[k] = x
		}
		return MetadataFrom(m)
	case map[string]any:
		id, err := metadataField(v, "id", math.MaxUint32)
		if err != nil {
			return Metadata{}, err
		}
		val, err := metadataField(v, "value", math.MaxUint64)
		if err != nil {
			return Metadata{}, err
		}
		return Metadata{ID: uint32(id), Value: val}, nil
	}
	return Metadata{}, fmt.Errorf("%w: invalid type %T", ErrMalformedMetadata, v)
}

func metadataField(m map[string]any, key string, lim uint64) (uint64, error) {
	raw, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q key", ErrMalformedMetadata, key)
	}
	v, err := bigIntFrom(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer (%T)", ErrMalformedMetadata, key, raw)
	}
	if v.Sign() < 0 || v.Cmp(new(big.Int).SetUint64(lim)) > 0 {
		return 0, fmt.Errorf("%w: metadata %s=%s", ErrRange, key, v)
	}
	return v.Uint64(), nil
}
