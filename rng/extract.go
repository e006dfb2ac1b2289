// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package rng

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/safing/entropyrng/crypto/hash"
	"github.com/safing/entropyrng/entropy"
	"github.com/safing/entropyrng/log"
)

// Default extraction parameters.
const (
	DefaultRange          = 2048
	DefaultTruncationBits = 16
	DefaultDigest         = hash.SHA2_256

	// SaltSize is the length of the per value salt appended to the mix.
	SaltSize = 24
)

// Strategy describes how truncated digests are mapped into the output range.
type Strategy uint8

// Reduction Strategies.
const (
	// StrategyModulo reduces the truncated digest modulo the range. Only used if the range divides 2^bits.
	StrategyModulo Strategy = iota
	// StrategyRejection discards truncated values above the largest multiple of the range and continues with the next bits of the digest.
	StrategyRejection
)

func (s Strategy) String() string {
	switch s {
	case StrategyModulo:
		return "modulo"
	case StrategyRejection:
		return "rejection-sampling"
	default:
		return "unknown"
	}
}

// ExtractorConfig configures an Extractor.
type ExtractorConfig struct {
	Digest         hash.Algorithm
	Range          uint64
	TruncationBits int

	// AllowRejectionSampling permits ranges that do not divide 2^TruncationBits.
	AllowRejectionSampling bool

	// Clock returns the current time in nanoseconds. Defaults to the wall clock.
	Clock func() int64
}

// DefaultExtractorConfig returns the default extractor configuration.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Digest:         DefaultDigest,
		Range:          DefaultRange,
		TruncationBits: DefaultTruncationBits,
	}
}

// Extractor derives bounded output values from pool snapshots.
type Extractor struct {
	digest   hash.Algorithm
	rangeN   uint64
	bits     int
	limit    uint64
	strategy Strategy
	clock    func() int64

	counter uint64
}

// NewExtractor returns a new extractor. A range that does not divide
// 2^TruncationBits would bias the output when reduced by modulo, so it is
// refused with ErrBiasedTruncation unless rejection sampling is allowed.
func NewExtractor(cfg ExtractorConfig) (*Extractor, error) {
	switch {
	case !cfg.Digest.Valid():
		return nil, fmt.Errorf("%w: %d", hash.ErrUnknownAlgorithm, cfg.Digest)
	case cfg.TruncationBits < 1 || cfg.TruncationBits > 63:
		return nil, fmt.Errorf("truncation bits must be between 1 and 63, got %d", cfg.TruncationBits)
	case cfg.TruncationBits > cfg.Digest.Bits():
		return nil, fmt.Errorf("cannot truncate %s digest to %d bits", cfg.Digest, cfg.TruncationBits)
	case cfg.Range < 2:
		return nil, fmt.Errorf("output range must be at least 2, got %d", cfg.Range)
	case cfg.Range > uint64(1)<<cfg.TruncationBits:
		return nil, fmt.Errorf("output range %d exceeds %d truncated bits", cfg.Range, cfg.TruncationBits)
	}

	space := uint64(1) << cfg.TruncationBits
	e := &Extractor{
		digest: cfg.Digest,
		rangeN: cfg.Range,
		bits:   cfg.TruncationBits,
		limit:  space - space%cfg.Range,
		clock:  cfg.Clock,
	}
	if e.clock == nil {
		e.clock = func() int64 {
			return time.Now().UnixNano()
		}
	}

	if space%cfg.Range != 0 {
		if !cfg.AllowRejectionSampling {
			return nil, fmt.Errorf(
				"%w: %d %% %d = %d",
				ErrBiasedTruncation, space, cfg.Range, space%cfg.Range,
			)
		}
		e.strategy = StrategyRejection
		log.Warningf(
			"rng: output range %d does not divide 2^%d, using rejection sampling instead of modulo",
			cfg.Range, cfg.TruncationBits,
		)
	}

	return e, nil
}

// Strategy returns the reduction strategy.
func (e *Extractor) Strategy() Strategy {
	return e.strategy
}

// Unbiased returns whether plain modulo reduction is free of bias.
func (e *Extractor) Unbiased() bool {
	return e.strategy == StrategyModulo
}

// Range returns the size of the output range.
func (e *Extractor) Range() uint64 {
	return e.rangeN
}

// Calls returns how many generate calls have been made.
func (e *Extractor) Calls() uint64 {
	return atomic.LoadUint64(&e.counter)
}

// Generate derives count values in [0, range) from the snapshot. It fails
// with an *InsufficientEntropyError if the snapshot is not ready.
func (e *Extractor) Generate(view *entropy.View, count int) ([]int, error) {
	return e.generate(view, count, nil)
}

func (e *Extractor) generate(view *entropy.View, count int, observe func(msg []byte)) ([]int, error) {
	switch {
	case view == nil:
		return nil, &InsufficientEntropyError{}
	case !view.Ready():
		return nil, &InsufficientEntropyError{Status: view.Status()}
	case count < 0:
		return nil, fmt.Errorf("invalid count %d", count)
	}

	counter := atomic.AddUint64(&e.counter, 1)
	mix := view.Mix()

	values := make([]int, count)
	for i := range values {
		ts := e.clock()
		if observe != nil {
			observe(Message(mix, uint64(i), ts, counter))
		}
		values[i] = e.DeriveValue(mix, uint64(i), ts, counter)
	}
	return values, nil
}

// DeriveValue is the pure extraction function: the same inputs always
// produce the same value.
func (e *Extractor) DeriveValue(mix []byte, index uint64, timestampNs int64, counter uint64) int {
	digest := e.digest.Sum(mix, Salt(index, timestampNs, counter))
	return int(e.reduce(digest))
}

// reduce maps a digest into the output range. With modulo reduction, the
// first truncated value is always below the limit.
func (e *Extractor) reduce(digest []byte) uint64 {
	for {
		for offset := 0; offset+e.bits <= len(digest)*8; offset += e.bits {
			v := readBits(digest, offset, e.bits)
			if v < e.limit {
				return v % e.rangeN
			}
		}
		// all bits rejected, continue with the digest of the digest
		digest = e.digest.Sum(digest)
	}
}

// Salt returns the per value salt: index, timestamp and call counter, each big-endian.
func Salt(index uint64, timestampNs int64, counter uint64) []byte {
	salt := make([]byte, SaltSize)
	binary.BigEndian.PutUint64(salt[0:8], index)
	binary.BigEndian.PutUint64(salt[8:16], uint64(timestampNs))
	binary.BigEndian.PutUint64(salt[16:24], counter)
	return salt
}

// Message returns the digest input for one value.
func Message(mix []byte, index uint64, timestampNs int64, counter uint64) []byte {
	msg := make([]byte, 0, len(mix)+SaltSize)
	msg = append(msg, mix...)
	return append(msg, Salt(index, timestampNs, counter)...)
}

// readBits reads width bits starting at the given bit offset, most significant bit first.
func readBits(buf []byte, offset, width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		bit := offset + i
		v = v<<1 | uint64(buf[bit/8]>>(7-bit%8)&1)
	}
	return v
}

// IsInsufficientEntropy returns whether the error reports a pool that is not ready yet.
func IsInsufficientEntropy(err error) bool {
	return errors.Is(err, ErrInsufficientEntropy)
}
