// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package entropy

import (
	"math"
	"sync"
)

// Normalizer converts raw readings into fragments. It remembers the previous
// mouse timestamp to derive the timing delta and is safe for concurrent use.
type Normalizer struct {
	lock        sync.Mutex
	prevMouseNs int64
}

// NewNormalizer returns a new Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize converts a reading into a fragment. Malformed readings are
// rejected with an error wrapping ErrInvalidReading and do not change the
// normalizer's state.
func (n *Normalizer) Normalize(r Reading) (Fragment, error) {
	if _, err := SourceOf(r); err != nil {
		return Fragment{}, err
	}

	switch reading := r.(type) {
	case MouseReading:
		return n.normalizeMouse(reading)
	case *MouseReading:
		return n.normalizeMouse(*reading)
	case SchedulerReading:
		return NormalizeScheduler(reading)
	case *SchedulerReading:
		return NormalizeScheduler(*reading)
	case AudioReading:
		return NormalizeAudio(reading)
	case *AudioReading:
		return NormalizeAudio(*reading)
	default:
		return Fragment{}, invalidReading(r.Source(), "unsupported reading type %T", r)
	}
}

// SourceOf returns the source of the reading. A missing reading, including a
// nil pointer to one of the reading types, is invalid.
func SourceOf(r Reading) (Source, error) {
	var missing bool
	switch reading := r.(type) {
	case nil:
		missing = true
	case *MouseReading:
		missing = reading == nil
	case *SchedulerReading:
		missing = reading == nil
	case *AudioReading:
		missing = reading == nil
	}
	if missing {
		return numSources, invalidReading(numSources, "missing reading")
	}
	return r.Source(), nil
}

func (n *Normalizer) normalizeMouse(r MouseReading) (Fragment, error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	f, err := NormalizeMouse(r, n.prevMouseNs)
	if err != nil {
		return f, err
	}
	n.prevMouseNs = r.TimestampNs
	return f, nil
}

// NormalizeMouse mixes the coordinates, the timestamp and the delta to the
// previous mouse timestamp. Pass 0 as prevNs for the first sample.
func NormalizeMouse(r MouseReading, prevNs int64) (Fragment, error) {
	if r.TimestampNs <= 0 {
		return Fragment{}, invalidReading(SourceMouse, "timestamp %d is not positive", r.TimestampNs)
	}

	var delta int64
	if prevNs > 0 {
		delta = r.TimestampNs - prevNs
		if delta < 0 {
			delta = -delta
		}
	}

	return newFragment(SourceMouse, r.TimestampNs, mix(
		uint64(int64(r.X)),
		uint64(int64(r.Y)),
		uint64(r.TimestampNs),
		uint64(delta),
	)), nil
}

// NormalizeScheduler mixes all fields of a scheduler snapshot.
func NormalizeScheduler(r SchedulerReading) (Fragment, error) {
	switch {
	case r.TimestampNs <= 0:
		return Fragment{}, invalidReading(SourceScheduler, "timestamp %d is not positive", r.TimestampNs)
	case !validTime(r.User):
		return Fragment{}, invalidReading(SourceScheduler, "invalid user time %v", r.User)
	case !validTime(r.System):
		return Fragment{}, invalidReading(SourceScheduler, "invalid system time %v", r.System)
	case !validTime(r.Idle):
		return Fragment{}, invalidReading(SourceScheduler, "invalid idle time %v", r.Idle)
	case r.ProcessCount < 0:
		return Fragment{}, invalidReading(SourceScheduler, "negative process count %d", r.ProcessCount)
	}

	return newFragment(SourceScheduler, r.TimestampNs, mix(
		math.Float64bits(r.User),
		math.Float64bits(r.System),
		math.Float64bits(r.Idle),
		uint64(r.ProcessCount),
		uint64(r.TimestampNs),
	)), nil
}

// NormalizeAudio mixes the RMS, peak amplitude and variance of a PCM block with its timestamp.
func NormalizeAudio(r AudioReading) (Fragment, error) {
	if r.TimestampNs <= 0 {
		return Fragment{}, invalidReading(SourceAudio, "timestamp %d is not positive", r.TimestampNs)
	}
	if len(r.Samples) == 0 {
		return Fragment{}, invalidReading(SourceAudio, "empty sample block")
	}
	for i, s := range r.Samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return Fragment{}, invalidReading(SourceAudio, "sample %d is %v", i, s)
		}
	}

	rms, peak, variance := AudioStats(r.Samples)
	return newFragment(SourceAudio, r.TimestampNs, mix(
		math.Float64bits(rms),
		math.Float64bits(peak),
		math.Float64bits(variance),
		uint64(r.TimestampNs),
	)), nil
}

// AudioStats returns the root mean square, the peak absolute amplitude and
// the population variance of the samples.
func AudioStats(samples []float64) (rms, peak, variance float64) {
	if len(samples) == 0 {
		return 0, 0, 0
	}

	var sum, sumSquares float64
	for _, s := range samples {
		sum += s
		sumSquares += s * s
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}

	n := float64(len(samples))
	mean := sum / n
	rms = math.Sqrt(sumSquares / n)

	for _, s := range samples {
		d := s - mean
		variance += d * d
	}
	variance /= n

	return rms, peak, variance
}

func validTime(t float64) bool {
	return !math.IsNaN(t) && !math.IsInf(t, 0) && t >= 0
}
