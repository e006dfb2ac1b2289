// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package dsd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBatch struct {
	Session     string         `json:"session"`
	TimestampNs int64          `json:"ts"`
	Values      []int          `json:"values"`
	Details     map[string]int `json:"details,omitempty"`
	Ready       bool           `json:"ready"`
}

func TestConversion(t *testing.T) {
	t.Parallel()

	subject := &testBatch{
		Session:     "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		TimestampNs: 1760000000123456789,
		Values:      []int{0, 1024, 2047},
		Details:     map[string]int{"mouse": 300},
		Ready:       true,
	}

	for _, format := range []SerializationFormat{JSON, CBOR, MsgPack} {
		data, err := Dump(subject, format)
		require.NoError(t, err, format.String())
		assert.Equal(t, byte(format), data[0])

		loaded := &testBatch{}
		loadedFormat, err := Load(data, loaded)
		require.NoError(t, err, format.String())
		assert.Equal(t, format, loadedFormat)
		assert.Equal(t, subject, loaded, "%s: loaded object must equal subject", format)
	}

	// AUTO uses the default format
	data, err := Dump(subject, AUTO)
	require.NoError(t, err)
	assert.Equal(t, byte(JSON), data[0])
	assert.Contains(t, string(data[1:]), `"ts":1760000000123456789`)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := Load(nil, &testBatch{})
	assert.ErrorIs(t, err, ErrNoMoreSpace)

	_, err = Load([]byte("X{}"), &testBatch{})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load([]byte("J{broken"), &testBatch{})
	assert.Error(t, err)

	_, err = Dump(&testBatch{}, SerializationFormat(1))
	assert.ErrorIs(t, err, ErrIncompatibleFormat)
}

func TestFormatFromName(t *testing.T) {
	t.Parallel()

	for name, expected := range map[string]SerializationFormat{
		"json":      JSON,
		"CBOR":      CBOR,
		"msgpack":   MsgPack,
		"x-msgpack": MsgPack,
		"":          AUTO,
	} {
		format, err := FormatFromName(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, format, name)
	}

	_, err := FormatFromName("yaml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Equal(t, "unknown", SerializationFormat(99).String())
}
