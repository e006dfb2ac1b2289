// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

// Package entropy normalizes raw environmental readings into fixed size
// fragments and accumulates them in a bounded, source segmented pool.
package entropy

import (
	"fmt"
	"strings"
)

// Source identifies an entropy source.
type Source uint8

// Entropy Sources.
const (
	SourceMouse Source = iota
	SourceScheduler
	SourceAudio

	numSources = 3
)

// Sources lists all sources in mixing order.
var Sources = []Source{SourceMouse, SourceScheduler, SourceAudio}

// Valid returns whether the source is known.
func (s Source) Valid() bool {
	return s < numSources
}

func (s Source) String() string {
	switch s {
	case SourceMouse:
		return "mouse"
	case SourceScheduler:
		return "scheduler"
	case SourceAudio:
		return "audio"
	default:
		return fmt.Sprintf("source#%d", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid source %d", s)
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Source) UnmarshalText(text []byte) error {
	parsed, err := ParseSource(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSource returns the source with the given name.
func ParseSource(name string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mouse":
		return SourceMouse, nil
	case "scheduler", "cpu":
		return SourceScheduler, nil
	case "audio":
		return SourceAudio, nil
	default:
		return 0, fmt.Errorf("unknown entropy source %q", name)
	}
}
