// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package rng

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/aead/serpent"
	"github.com/seehuhn/fortuna"

	"github.com/safing/entropyrng/crypto/hash"
	"github.com/safing/entropyrng/entropy"
)

// Stream is an io.Reader of random bytes produced by a Fortuna generator
// that is seeded from pool snapshots.
type Stream struct {
	lock sync.Mutex

	gen    *fortuna.Generator
	digest hash.Algorithm
	seeded bool

	reseeds   uint64
	bytesRead uint64
}

func newCipherFunc(name string) (func(key []byte) (cipher.Block, error), error) {
	switch name {
	case "aes":
		return aes.NewCipher, nil
	case "serpent":
		return serpent.NewCipher, nil
	default:
		return nil, fmt.Errorf("unknown or unsupported cipher: %s", name)
	}
}

// NewStream returns a new, unseeded stream using the given block cipher ("aes" or "serpent").
func NewStream(cipherName string, digest hash.Algorithm) (*Stream, error) {
	newCipher, err := newCipherFunc(cipherName)
	if err != nil {
		return nil, err
	}
	if !digest.Valid() {
		return nil, fmt.Errorf("%w: %d", hash.ErrUnknownAlgorithm, digest)
	}

	return &Stream{
		gen:    fortuna.NewGenerator(newCipher),
		digest: digest,
	}, nil
}

// Reseed feeds the digest of the snapshot's mix and the salt into the generator.
func (s *Stream) Reseed(view *entropy.View, salt []byte) error {
	switch {
	case view == nil:
		return &InsufficientEntropyError{}
	case !view.Ready():
		return &InsufficientEntropyError{Status: view.Status()}
	}

	seed := s.digest.Sum(view.Mix(), salt)

	s.lock.Lock()
	defer s.lock.Unlock()

	s.gen.Reseed(seed)
	s.seeded = true
	s.reseeds++
	return nil
}

// Seeded returns whether the stream was seeded at least once.
func (s *Stream) Seeded() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.seeded
}

// Stats returns the amount of reseeds and the bytes read since the last reseed.
func (s *Stream) Stats() (reseeds, bytesRead uint64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.reseeds, s.bytesRead
}

// Read reads random bytes into the supplied byte slice.
func (s *Stream) Read(b []byte) (n int, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.seeded {
		return 0, ErrNotSeeded
	}

	s.bytesRead += uint64(len(b))
	return copy(b, s.gen.PseudoRandomData(uint(len(b)))), nil
}

// Bytes allocates a new byte slice of given length and fills it with random data.
func (s *Stream) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := s.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Number returns a random number from 0 to (incl.) max.
func (s *Stream) Number(max uint64) (uint64, error) {
	b := make([]byte, 8)

	// full range
	if max == math.MaxUint64 {
		if _, err := s.Read(b); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(b), nil
	}

	n := max + 1
	secureLimit := math.MaxUint64 - (math.MaxUint64 % n)
	for {
		if _, err := s.Read(b); err != nil {
			return 0, err
		}

		candidate := binary.LittleEndian.Uint64(b)
		if candidate < secureLimit {
			return candidate % n, nil
		}
	}
}
