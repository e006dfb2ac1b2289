// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package entropy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMouse(t *testing.T) {
	t.Parallel()

	n := NewNormalizer()

	first, err := n.Normalize(MouseReading{X: 10, Y: 20, TimestampNs: 1000})
	require.NoError(t, err)
	assert.Equal(t, SourceMouse, first.Source)
	assert.Len(t, first.Data, FragmentLength)
	assert.NoError(t, first.CheckShape())

	// first sample has a delta of 0
	expected, err := NormalizeMouse(MouseReading{X: 10, Y: 20, TimestampNs: 1000}, 0)
	require.NoError(t, err)
	assert.Equal(t, expected, first)

	// following samples use the delta to the previous timestamp
	next, err := n.Normalize(MouseReading{X: 10, Y: 20, TimestampNs: 1500})
	require.NoError(t, err)
	withDelta, err := NormalizeMouse(MouseReading{X: 10, Y: 20, TimestampNs: 1500}, 1000)
	require.NoError(t, err)
	withoutDelta, err := NormalizeMouse(MouseReading{X: 10, Y: 20, TimestampNs: 1500}, 0)
	require.NoError(t, err)
	assert.Equal(t, withDelta, next)
	assert.NotEqual(t, withoutDelta.Data, next.Data)

	// invalid readings do not update the previous timestamp
	_, err = n.Normalize(MouseReading{X: 1, Y: 1, TimestampNs: 0})
	assert.ErrorIs(t, err, ErrInvalidReading)
	third, err := n.Normalize(&MouseReading{X: 3, Y: 4, TimestampNs: 2000})
	require.NoError(t, err)
	expected, err = NormalizeMouse(MouseReading{X: 3, Y: 4, TimestampNs: 2000}, 1500)
	require.NoError(t, err)
	assert.Equal(t, expected, third)

	// clock going backwards uses the absolute delta
	back1, err := NormalizeMouse(MouseReading{X: 3, Y: 4, TimestampNs: 1000}, 1500)
	require.NoError(t, err)
	back2, err := NormalizeMouse(MouseReading{X: 3, Y: 4, TimestampNs: 1000}, 500)
	require.NoError(t, err)
	assert.Equal(t, back1, back2)
}

func TestNormalizeMissing(t *testing.T) {
	t.Parallel()

	n := NewNormalizer()
	for _, r := range []Reading{nil, (*MouseReading)(nil), (*SchedulerReading)(nil), (*AudioReading)(nil)} {
		_, err := n.Normalize(r)
		assert.ErrorIs(t, err, ErrInvalidReading, "reading %T", r)

		_, err = SourceOf(r)
		assert.ErrorIs(t, err, ErrInvalidReading, "reading %T", r)
	}

	src, err := SourceOf(&AudioReading{})
	require.NoError(t, err)
	assert.Equal(t, SourceAudio, src)
}

func TestNormalizeFieldsMatter(t *testing.T) {
	t.Parallel()

	base := MouseReading{X: 100, Y: 200, TimestampNs: 1_700_000_000_000_000_000}
	baseFrag, err := NormalizeMouse(base, base.TimestampNs-1_000_000)
	require.NoError(t, err)

	variants := []MouseReading{
		{X: 101, Y: 200, TimestampNs: base.TimestampNs},
		{X: 100, Y: 201, TimestampNs: base.TimestampNs},
		{X: 200, Y: 100, TimestampNs: base.TimestampNs},
		{X: 100, Y: 200, TimestampNs: base.TimestampNs + 1},
	}
	for _, v := range variants {
		f, err := NormalizeMouse(v, base.TimestampNs-1_000_000)
		require.NoError(t, err)
		assert.NotEqual(t, baseFrag.Data, f.Data, "variant %+v", v)
	}

	// equal coordinates must not cancel out
	a, err := NormalizeMouse(MouseReading{X: 5, Y: 5, TimestampNs: 1}, 0)
	require.NoError(t, err)
	b, err := NormalizeMouse(MouseReading{X: 7, Y: 7, TimestampNs: 1}, 0)
	require.NoError(t, err)
	assert.NotEqual(t, a.Data, b.Data)
}

func TestNormalizeScheduler(t *testing.T) {
	t.Parallel()

	valid := SchedulerReading{User: 12.5, System: 3.25, Idle: 1000.125, ProcessCount: 321, TimestampNs: 42}
	f, err := NormalizeScheduler(valid)
	require.NoError(t, err)
	assert.Equal(t, SourceScheduler, f.Source)
	assert.Equal(t, int64(42), f.TimestampNs)
	assert.Len(t, f.Data, FragmentLength)

	again, err := NewNormalizer().Normalize(valid)
	require.NoError(t, err)
	assert.Equal(t, f, again)

	invalid := []SchedulerReading{
		{User: 1, System: 1, Idle: 1, ProcessCount: 1, TimestampNs: 0},
		{User: math.NaN(), System: 1, Idle: 1, ProcessCount: 1, TimestampNs: 1},
		{User: 1, System: math.Inf(1), Idle: 1, ProcessCount: 1, TimestampNs: 1},
		{User: 1, System: 1, Idle: -1, ProcessCount: 1, TimestampNs: 1},
		{User: 1, System: 1, Idle: 1, ProcessCount: -1, TimestampNs: 1},
	}
	for _, r := range invalid {
		_, err := NormalizeScheduler(r)
		var readingErr *InvalidReadingError
		require.ErrorAs(t, err, &readingErr, "reading %+v", r)
		assert.Equal(t, SourceScheduler, readingErr.Source)
		assert.ErrorIs(t, err, ErrInvalidReading)
	}
}

func TestNormalizeAudio(t *testing.T) {
	t.Parallel()

	f, err := NormalizeAudio(AudioReading{Samples: []float64{0.5, -0.25, 0.125, -1}, TimestampNs: 7})
	require.NoError(t, err)
	assert.Equal(t, SourceAudio, f.Source)
	assert.Len(t, f.Data, FragmentLength)

	_, err = NormalizeAudio(AudioReading{TimestampNs: 7})
	assert.ErrorIs(t, err, ErrInvalidReading)
	_, err = NormalizeAudio(AudioReading{Samples: []float64{0.1, math.NaN()}, TimestampNs: 7})
	assert.ErrorIs(t, err, ErrInvalidReading)
	_, err = NormalizeAudio(AudioReading{Samples: []float64{0.1}, TimestampNs: -7})
	assert.ErrorIs(t, err, ErrInvalidReading)
}

func TestAudioStats(t *testing.T) {
	t.Parallel()

	rms, peak, variance := AudioStats([]float64{1, -1, 1, -1})
	assert.InDelta(t, 1.0, rms, 1e-12)
	assert.InDelta(t, 1.0, peak, 1e-12)
	assert.InDelta(t, 1.0, variance, 1e-12)

	rms, peak, variance = AudioStats([]float64{0.5, 0.5})
	assert.InDelta(t, 0.5, rms, 1e-12)
	assert.InDelta(t, 0.5, peak, 1e-12)
	assert.InDelta(t, 0.0, variance, 1e-12)

	rms, peak, variance = AudioStats(nil)
	assert.Zero(t, rms)
	assert.Zero(t, peak)
	assert.Zero(t, variance)
}

func TestParseSource(t *testing.T) {
	t.Parallel()

	for _, src := range Sources {
		parsed, err := ParseSource(src.String())
		require.NoError(t, err)
		assert.Equal(t, src, parsed)
	}
	_, err := ParseSource("keyboard")
	assert.Error(t, err)
	assert.False(t, Source(7).Valid())
}
