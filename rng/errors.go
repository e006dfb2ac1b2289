// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package rng

import (
	"errors"
	"fmt"
	"strings"

	"github.com/safing/entropyrng/entropy"
)

var (
	// ErrInsufficientEntropy is returned when extraction is requested before the pool is ready.
	ErrInsufficientEntropy = errors.New("insufficient entropy")
	// ErrBiasedTruncation is returned for output ranges that do not divide the truncated digest space, unless rejection sampling is allowed.
	ErrBiasedTruncation = errors.New("output range does not divide truncated digest space")
	// ErrSourceHalted is returned when feeding a source that was halted after a shape mismatch.
	ErrSourceHalted = errors.New("entropy source halted")
	// ErrNotSeeded is returned when reading from a stream that was never seeded.
	ErrNotSeeded = errors.New("stream not seeded")
	// ErrNotStarted is returned by the service before it was started.
	ErrNotStarted = errors.New("rng not started")
)

// InsufficientEntropyError carries the pool status at the time of the refused request.
type InsufficientEntropyError struct {
	Status entropy.Status
}

func (e *InsufficientEntropyError) Error() string {
	missing := e.Status.Missing()
	if len(missing) == 0 {
		return ErrInsufficientEntropy.Error()
	}
	return fmt.Sprintf("%s: missing %s", ErrInsufficientEntropy, strings.Join(missing, ", "))
}

// Unwrap returns ErrInsufficientEntropy.
func (e *InsufficientEntropyError) Unwrap() error {
	return ErrInsufficientEntropy
}
