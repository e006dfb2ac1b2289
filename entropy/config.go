// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package entropy

import (
	"fmt"
	"time"
)

// Default pool parameters.
const (
	DefaultCapacity          = 2000
	DefaultInactivityTimeout = 2 * time.Second
	DefaultMinMouseSamples   = 300
	DefaultMinActiveDuration = 30 * time.Second
	DefaultMinAudioSamples   = 100
)

// Requirements define when a pool is ready for extraction.
type Requirements struct {
	MinMouseSamples   int
	MinActiveDuration time.Duration
	MinAudioSamples   int
	// AudioEnabled makes audio samples a requirement.
	AudioEnabled bool
}

// Satisfied is the readiness predicate.
func (req Requirements) Satisfied(mouseSamples, audioSamples int, active time.Duration) bool {
	return mouseSamples >= req.MinMouseSamples &&
		active >= req.MinActiveDuration &&
		(!req.AudioEnabled || audioSamples >= req.MinAudioSamples)
}

// PoolConfig configures a Pool.
type PoolConfig struct {
	// Capacity is the maximum amount of fragments held per source.
	Capacity int
	// InactivityTimeout is the maximum gap between two mouse fragments that still counts as active movement.
	InactivityTimeout time.Duration

	Requirements
}

// DefaultPoolConfig returns the default pool configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Capacity:          DefaultCapacity,
		InactivityTimeout: DefaultInactivityTimeout,
		Requirements: Requirements{
			MinMouseSamples:   DefaultMinMouseSamples,
			MinActiveDuration: DefaultMinActiveDuration,
			MinAudioSamples:   DefaultMinAudioSamples,
		},
	}
}

// Validate checks that a pool with this configuration can become ready.
func (cfg PoolConfig) Validate() error {
	switch {
	case cfg.Capacity < 1:
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, cfg.Capacity)
	case cfg.InactivityTimeout <= 0:
		return fmt.Errorf("%w: inactivity timeout must be positive, got %s", ErrInvalidConfig, cfg.InactivityTimeout)
	case cfg.MinMouseSamples < 0 || cfg.MinAudioSamples < 0 || cfg.MinActiveDuration < 0:
		return fmt.Errorf("%w: requirements must not be negative", ErrInvalidConfig)
	case cfg.MinMouseSamples > cfg.Capacity:
		return fmt.Errorf(
			"%w: capacity %d is below the required %d mouse samples",
			ErrInvalidConfig, cfg.Capacity, cfg.MinMouseSamples,
		)
	case cfg.AudioEnabled && cfg.MinAudioSamples > cfg.Capacity:
		return fmt.Errorf(
			"%w: capacity %d is below the required %d audio samples",
			ErrInvalidConfig, cfg.Capacity, cfg.MinAudioSamples,
		)
	}
	return nil
}
