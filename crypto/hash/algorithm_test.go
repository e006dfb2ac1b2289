// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package hash

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributes(t *testing.T) {
	t.Parallel()

	for alg := range registry {
		h := alg.New()
		require.NotNil(t, h, "function missing for %s", alg)

		assert.NotEmpty(t, alg.String())
		assert.True(t, alg.Valid())
		assert.Equal(t, h.BlockSize(), alg.BlockSize(), "block size mismatch at %s", alg)
		assert.Equal(t, h.Size(), alg.Size(), "size mismatch at %s", alg)
		assert.Equal(t, alg.Size()*8, alg.Bits())

		found, err := FromName(alg.String())
		require.NoError(t, err)
		assert.Equal(t, alg, found)
	}

	noAlg := Algorithm(255)
	assert.False(t, noAlg.Valid())
	assert.Equal(t, "", noAlg.String())
	assert.Equal(t, 0, noAlg.BlockSize())
	assert.Equal(t, 0, noAlg.Size())
	assert.Nil(t, noAlg.New())
	assert.Nil(t, noAlg.Sum([]byte("x")))

	assert.Len(t, Names(), len(registry))
}

func TestFromName(t *testing.T) {
	t.Parallel()

	alg, err := FromName("sha2-256")
	require.NoError(t, err)
	assert.Equal(t, SHA2_256, alg)

	_, err = FromName("md5")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestSum(t *testing.T) {
	t.Parallel()

	expected := sha256.Sum256([]byte("hello world"))
	assert.Equal(t, expected[:], SHA2_256.Sum([]byte("hello"), []byte(" "), []byte("world")))

	// parts are not separated
	assert.Equal(t, SHA3_256.Sum([]byte("ab"), []byte("c")), SHA3_256.Sum([]byte("a"), []byte("bc")))
}
