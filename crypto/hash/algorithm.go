// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

// Package hash provides a registry of cryptographic digest algorithms that can be selected by name.
package hash

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Algorithm is a digest algorithm.
type Algorithm uint8

// Available Algorithms.
const (
	SHA2_224 Algorithm = 1 + iota
	SHA2_256
	SHA2_512_224
	SHA2_512_256
	SHA2_384
	SHA2_512
	SHA3_224
	SHA3_256
	SHA3_384
	SHA3_512
	BLAKE2S_256
	BLAKE2B_256
	BLAKE2B_384
	BLAKE2B_512
)

// ErrUnknownAlgorithm is returned when an algorithm name cannot be resolved.
var ErrUnknownAlgorithm = errors.New("unknown digest algorithm")

type attributes struct {
	name      string
	blockSize uint8 // in bytes
	size      uint8 // in bytes
	newFn     func() hash.Hash
}

var registry = map[Algorithm]attributes{
	SHA2_224:     {"SHA2-224", 64, 28, sha256.New224},
	SHA2_256:     {"SHA2-256", 64, 32, sha256.New},
	SHA2_512_224: {"SHA2-512/224", 128, 28, sha512.New512_224},
	SHA2_512_256: {"SHA2-512/256", 128, 32, sha512.New512_256},
	SHA2_384:     {"SHA2-384", 128, 48, sha512.New384},
	SHA2_512:     {"SHA2-512", 128, 64, sha512.New},
	SHA3_224:     {"SHA3-224", 144, 28, sha3.New224},
	SHA3_256:     {"SHA3-256", 136, 32, sha3.New256},
	SHA3_384:     {"SHA3-384", 104, 48, sha3.New384},
	SHA3_512:     {"SHA3-512", 72, 64, sha3.New512},
	BLAKE2S_256:  {"BLAKE2s-256", 64, 32, newBlake2s256},
	BLAKE2B_256:  {"BLAKE2b-256", 128, 32, newBlake2b256},
	BLAKE2B_384:  {"BLAKE2b-384", 128, 48, newBlake2b384},
	BLAKE2B_512:  {"BLAKE2b-512", 128, 64, newBlake2b512},
}

// FromName returns the algorithm with the given name. Matching is case insensitive.
func FromName(name string) (Algorithm, error) {
	for alg, att := range registry {
		if strings.EqualFold(att.name, name) {
			return alg, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Names returns the names of all available algorithms, ordered by ID.
func Names() []string {
	names := make([]string, 0, len(registry))
	for alg := SHA2_224; alg <= BLAKE2B_512; alg++ {
		names = append(names, registry[alg].name)
	}
	return names
}

// BlockSize returns the block size of the algorithm in bytes.
func (a Algorithm) BlockSize() int {
	return int(registry[a].blockSize)
}

// Size returns the digest size in bytes.
func (a Algorithm) Size() int {
	return int(registry[a].size)
}

// Bits returns the digest size in bits.
func (a Algorithm) Bits() int {
	return a.Size() * 8
}

// SecurityStrength returns the collision resistance in bytes.
func (a Algorithm) SecurityStrength() int {
	return a.Size() / 2
}

// Valid returns whether the algorithm is known.
func (a Algorithm) Valid() bool {
	_, ok := registry[a]
	return ok
}

func (a Algorithm) String() string {
	return registry[a].name
}

// New returns a new hash.Hash, or nil if the algorithm is unknown.
func (a Algorithm) New() hash.Hash {
	att, ok := registry[a]
	if !ok {
		return nil
	}
	return att.newFn()
}

// Sum returns the digest of all given parts, written in order.
func (a Algorithm) Sum(parts ...[]byte) []byte {
	h := a.New()
	if h == nil {
		return nil
	}
	for _, part := range parts {
		_, _ = h.Write(part)
	}
	return h.Sum(nil)
}
