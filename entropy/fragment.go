// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package entropy

import (
	"encoding/binary"
	"math/bits"
)

// FragmentLength is the length of every fragment in bytes.
const FragmentLength = 8

// Fragment is one normalized reading of one source. Fragments are immutable.
type Fragment struct {
	Source      Source
	TimestampNs int64
	Data        []byte
}

// FragmentSize returns the required fragment length of the given source, or 0 for unknown sources.
func FragmentSize(src Source) int {
	if !src.Valid() {
		return 0
	}
	return FragmentLength
}

// CheckShape returns a *FragmentShapeError if the fragment does not fit its source.
func (f Fragment) CheckShape() error {
	want := FragmentSize(f.Source)
	if want == 0 || len(f.Data) != want {
		return &FragmentShapeError{
			Source: f.Source,
			Want:   want,
			Got:    len(f.Data),
		}
	}
	return nil
}

func newFragment(src Source, ts int64, value uint64) Fragment {
	data := make([]byte, FragmentLength)
	binary.BigEndian.PutUint64(data, value)
	return Fragment{
		Source:      src,
		TimestampNs: ts,
		Data:        data,
	}
}

// mix folds all values into one word. Every value is rotated by a different
// amount before it is xored in, so equal values in different fields do not
// cancel out. The result is finalized with the murmur3 64 bit finalizer.
func mix(values ...uint64) uint64 {
	var acc uint64
	for i, v := range values {
		acc ^= bits.RotateLeft64(v, 13*i+7)
		acc = bits.RotateLeft64(acc, 29)
	}

	acc ^= acc >> 33
	acc *= 0xff51afd7ed558ccd
	acc ^= acc >> 33
	acc *= 0xc4ceb9fe1a85ec53
	acc ^= acc >> 33
	return acc
}
