// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package entropy

// Reading is a raw measurement of an entropy source.
type Reading interface {
	Source() Source
	Timestamp() int64
}

// MouseReading is a single pointer movement event.
type MouseReading struct {
	X           int
	Y           int
	TimestampNs int64
}

// SchedulerReading is a snapshot of the host's cumulative CPU times (in seconds) and process count.
type SchedulerReading struct {
	User         float64
	System       float64
	Idle         float64
	ProcessCount int
	TimestampNs  int64
}

// AudioReading is a block of PCM samples.
type AudioReading struct {
	Samples     []float64
	TimestampNs int64
}

// Source returns SourceMouse.
func (r MouseReading) Source() Source { return SourceMouse }

// Timestamp returns the reading timestamp in nanoseconds.
func (r MouseReading) Timestamp() int64 { return r.TimestampNs }

// Source returns SourceScheduler.
func (r SchedulerReading) Source() Source { return SourceScheduler }

// Timestamp returns the reading timestamp in nanoseconds.
func (r SchedulerReading) Timestamp() int64 { return r.TimestampNs }

// Source returns SourceAudio.
func (r AudioReading) Source() Source { return SourceAudio }

// Timestamp returns the reading timestamp in nanoseconds.
func (r AudioReading) Timestamp() int64 { return r.TimestampNs }
