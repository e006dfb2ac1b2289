// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package randtest

import (
	"errors"
	"fmt"
)

// ErrInvalidPolicy is returned for policies that cannot be evaluated.
var ErrInvalidPolicy = errors.New("invalid test policy")

// Policy holds the parameters and thresholds of the test suite.
type Policy struct {
	// Range is the size of the value range [0, Range).
	Range int

	// Frequency test.
	Buckets int
	Alpha   float64

	// Runs test.
	MaxRunsZ float64

	// Serial correlation test.
	MaxSerialR float64

	// Gap test.
	GapTarget    int
	GapTolerance float64

	// Entropy test.
	MinEntropyRatio float64
}

// DefaultPolicy returns the default policy for values in [0, 2047].
func DefaultPolicy() Policy {
	return Policy{
		Range:           2048,
		Buckets:         2048,
		Alpha:           0.05,
		MaxRunsZ:        1.96,
		MaxSerialR:      0.1,
		GapTarget:       1024,
		GapTolerance:    0.3,
		MinEntropyRatio: 0.95,
	}
}

// PolicyForRange returns the default policy adapted to values in [0, n).
// The bucket count is capped at n and the gap target is the middle value.
func PolicyForRange(n int) Policy {
	p := DefaultPolicy()
	p.Range = n
	if n < p.Buckets {
		p.Buckets = n
	}
	p.GapTarget = n / 2
	return p
}

// Check returns an error if the policy cannot be evaluated.
func (p Policy) Check() error {
	switch {
	case p.Range < 2:
		return fmt.Errorf("%w: range must be at least 2, got %d", ErrInvalidPolicy, p.Range)
	case p.Buckets < 2 || p.Buckets > p.Range:
		return fmt.Errorf("%w: buckets must be in [2, %d], got %d", ErrInvalidPolicy, p.Range, p.Buckets)
	case p.Alpha <= 0 || p.Alpha >= 1:
		return fmt.Errorf("%w: alpha must be in (0, 1), got %v", ErrInvalidPolicy, p.Alpha)
	case p.MaxRunsZ <= 0:
		return fmt.Errorf("%w: runs z threshold must be positive, got %v", ErrInvalidPolicy, p.MaxRunsZ)
	case p.MaxSerialR <= 0 || p.MaxSerialR > 1:
		return fmt.Errorf("%w: serial correlation threshold must be in (0, 1], got %v", ErrInvalidPolicy, p.MaxSerialR)
	case p.GapTarget < 0 || p.GapTarget >= p.Range:
		return fmt.Errorf("%w: gap target %d is out of range", ErrInvalidPolicy, p.GapTarget)
	case p.GapTolerance <= 0:
		return fmt.Errorf("%w: gap tolerance must be positive, got %v", ErrInvalidPolicy, p.GapTolerance)
	case p.MinEntropyRatio <= 0 || p.MinEntropyRatio > 1:
		return fmt.Errorf("%w: entropy ratio must be in (0, 1], got %v", ErrInvalidPolicy, p.MinEntropyRatio)
	}
	return nil
}
