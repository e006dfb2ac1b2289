// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package entropy

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidReading is returned for malformed raw readings. The reading is discarded.
	ErrInvalidReading = errors.New("invalid reading")
	// ErrFragmentShapeMismatch is returned when a fragment's length does not match its source.
	ErrFragmentShapeMismatch = errors.New("fragment shape mismatch")
	// ErrInvalidConfig is returned for pool configurations that can never become ready.
	ErrInvalidConfig = errors.New("invalid pool configuration")
)

// InvalidReadingError describes why a reading was rejected.
type InvalidReadingError struct {
	Source Source
	Reason string
}

func (e *InvalidReadingError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidReading, e.Source, e.Reason)
}

// Unwrap returns ErrInvalidReading.
func (e *InvalidReadingError) Unwrap() error {
	return ErrInvalidReading
}

func invalidReading(src Source, format string, a ...interface{}) error {
	return &InvalidReadingError{
		Source: src,
		Reason: fmt.Sprintf(format, a...),
	}
}

// FragmentShapeError describes a fragment that does not fit its declared source.
type FragmentShapeError struct {
	Source Source
	Want   int
	Got    int
}

func (e *FragmentShapeError) Error() string {
	return fmt.Sprintf("%s: %s fragments must be %d bytes, got %d", ErrFragmentShapeMismatch, e.Source, e.Want, e.Got)
}

// Unwrap returns ErrFragmentShapeMismatch.
func (e *FragmentShapeError) Unwrap() error {
	return ErrFragmentShapeMismatch
}
