// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package rng

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/entropyrng/crypto/hash"
)

func TestStream(t *testing.T) {
	t.Parallel()

	view := readyCollector(t).Pool().Snapshot()

	for _, cipherName := range []string{"aes", "serpent"} {
		s, err := NewStream(cipherName, hash.SHA2_256)
		require.NoError(t, err, cipherName)
		assert.False(t, s.Seeded())

		_, err = s.Bytes(16)
		assert.ErrorIs(t, err, ErrNotSeeded)
		_, err = s.Number(10)
		assert.ErrorIs(t, err, ErrNotSeeded)

		require.NoError(t, s.Reseed(view, Salt(1, 2, 3)))
		assert.True(t, s.Seeded())

		a, err := s.Bytes(64)
		require.NoError(t, err)
		b, err := s.Bytes(64)
		require.NoError(t, err)
		assert.Len(t, a, 64)
		assert.False(t, bytes.Equal(a, b), "consecutive reads must differ")

		for i := 0; i < 1000; i++ {
			n, err := s.Number(6)
			require.NoError(t, err)
			assert.LessOrEqual(t, n, uint64(6))
		}

		reseeds, read := s.Stats()
		assert.Equal(t, uint64(1), reseeds)
		assert.GreaterOrEqual(t, read, uint64(128+8000))

		_, err = io.ReadFull(s, make([]byte, 100))
		assert.NoError(t, err)
	}

	// same seed, same output
	s1, err := NewStream("aes", hash.SHA2_256)
	require.NoError(t, err)
	s2, err := NewStream("aes", hash.SHA2_256)
	require.NoError(t, err)
	require.NoError(t, s1.Reseed(view, Salt(7, 7, 7)))
	require.NoError(t, s2.Reseed(view, Salt(7, 7, 7)))
	out1, err := s1.Bytes(32)
	require.NoError(t, err)
	out2, err := s2.Bytes(32)
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}

func TestStreamErrors(t *testing.T) {
	t.Parallel()

	_, err := NewStream("rc4", hash.SHA2_256)
	assert.Error(t, err)
	_, err = NewStream("aes", 0)
	assert.ErrorIs(t, err, hash.ErrUnknownAlgorithm)

	s, err := NewStream("aes", hash.BLAKE2B_256)
	require.NoError(t, err)
	err = s.Reseed(nil, nil)
	assert.True(t, IsInsufficientEntropy(err))
	assert.False(t, s.Seeded())
}
