// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package entropy

import (
	"fmt"
	"strings"
	"time"
)

// Status summarizes the state of a pool.
type Status struct {
	MouseSamples     int
	SchedulerSamples int
	AudioSamples     int
	ActiveDuration   time.Duration
	LastMouseNs      int64
	Ready            bool
	Requirements     Requirements
}

// Count returns the amount of fragments of the source.
func (s Status) Count(src Source) int {
	switch src {
	case SourceMouse:
		return s.MouseSamples
	case SourceScheduler:
		return s.SchedulerSamples
	case SourceAudio:
		return s.AudioSamples
	default:
		return 0
	}
}

// Total returns the amount of fragments of all sources.
func (s Status) Total() int {
	return s.MouseSamples + s.SchedulerSamples + s.AudioSamples
}

// RemainingActive returns how much more active movement is required.
func (s Status) RemainingActive() time.Duration {
	if s.ActiveDuration >= s.Requirements.MinActiveDuration {
		return 0
	}
	return s.Requirements.MinActiveDuration - s.ActiveDuration
}

// Missing lists the unmet requirements in human readable form.
func (s Status) Missing() []string {
	var missing []string
	if s.MouseSamples < s.Requirements.MinMouseSamples {
		missing = append(missing, fmt.Sprintf("%d/%d mouse samples", s.MouseSamples, s.Requirements.MinMouseSamples))
	}
	if s.ActiveDuration < s.Requirements.MinActiveDuration {
		missing = append(missing, fmt.Sprintf(
			"%.1fs/%.0fs active movement",
			s.ActiveDuration.Seconds(), s.Requirements.MinActiveDuration.Seconds(),
		))
	}
	if s.Requirements.AudioEnabled && s.AudioSamples < s.Requirements.MinAudioSamples {
		missing = append(missing, fmt.Sprintf("%d/%d audio samples", s.AudioSamples, s.Requirements.MinAudioSamples))
	}
	return missing
}

func (s Status) String() string {
	if s.Ready {
		return fmt.Sprintf(
			"ready: %d mouse, %d scheduler, %d audio samples, %.1fs active movement",
			s.MouseSamples, s.SchedulerSamples, s.AudioSamples, s.ActiveDuration.Seconds(),
		)
	}
	return "not ready: missing " + strings.Join(s.Missing(), ", ")
}

// View is an immutable snapshot of a pool.
type View struct {
	fragments [numSources][]Fragment
	status    Status
}

// Status returns the pool status at the time of the snapshot.
func (v *View) Status() Status {
	return v.status
}

// Ready returns whether the snapshot satisfies the readiness predicate.
func (v *View) Ready() bool {
	return v.status.Ready
}

// Count returns the amount of fragments of the source in the snapshot.
func (v *View) Count(src Source) int {
	if !src.Valid() {
		return 0
	}
	return len(v.fragments[src])
}

// Fragments returns the fragments of the source in arrival order.
func (v *View) Fragments(src Source) []Fragment {
	if !src.Valid() {
		return nil
	}
	out := make([]Fragment, len(v.fragments[src]))
	copy(out, v.fragments[src])
	return out
}

// Mix returns the concatenation of all fragment data, source-major:
// all mouse fragments, then all scheduler fragments, then all audio fragments.
func (v *View) Mix() []byte {
	size := 0
	for _, src := range Sources {
		for _, f := range v.fragments[src] {
			size += len(f.Data)
		}
	}

	mix := make([]byte, 0, size)
	for _, src := range Sources {
		for _, f := range v.fragments[src] {
			mix = append(mix, f.Data...)
		}
	}
	return mix
}
