// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package entropy

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const second = int64(time.Second)

func mouseFragment(t *testing.T, i int, ts int64) Fragment {
	t.Helper()

	f, err := NormalizeMouse(MouseReading{X: i, Y: 2 * i, TimestampNs: ts}, 0)
	require.NoError(t, err)
	return f
}

func schedulerFragment(t *testing.T, i int, ts int64) Fragment {
	t.Helper()

	f, err := NormalizeScheduler(SchedulerReading{User: float64(i), ProcessCount: i, TimestampNs: ts})
	require.NoError(t, err)
	return f
}

func smallConfig() PoolConfig {
	return PoolConfig{
		Capacity:          10,
		InactivityTimeout: 2 * time.Second,
		Requirements: Requirements{
			MinMouseSamples:   5,
			MinActiveDuration: 3 * time.Second,
			MinAudioSamples:   2,
		},
	}
}

func TestPoolConfigValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultPoolConfig().Validate())

	cfg := DefaultPoolConfig()
	cfg.Capacity = 299
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultPoolConfig()
	cfg.Capacity = 0
	cfg.MinMouseSamples = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultPoolConfig()
	cfg.InactivityTimeout = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	// audio minimum only matters if audio is enabled
	cfg = DefaultPoolConfig()
	cfg.MinAudioSamples = 5000
	assert.NoError(t, cfg.Validate())
	cfg.AudioEnabled = true
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	_, err := NewPool(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRingBound(t *testing.T) {
	t.Parallel()

	p, err := NewPool(smallConfig())
	require.NoError(t, err)

	var appended []Fragment
	for i := 0; i < 25; i++ {
		f := schedulerFragment(t, i, int64(i+1))
		appended = append(appended, f)

		evicted, err := p.Append(f)
		require.NoError(t, err)
		assert.Equal(t, i >= 10, evicted)
		assert.LessOrEqual(t, p.Count(SourceScheduler), 10)
	}

	// newest fragments in arrival order
	held := p.Snapshot().Fragments(SourceScheduler)
	require.Len(t, held, 10)
	assert.Equal(t, appended[15:], held)

	total, evicted := p.Counters(SourceScheduler)
	assert.Equal(t, uint64(25), total)
	assert.Equal(t, uint64(15), evicted)

	// other sources are not affected
	assert.Equal(t, 0, p.Count(SourceMouse))
	assert.Equal(t, 0, p.Count(SourceAudio))
}

func TestActiveDurationFreeze(t *testing.T) {
	t.Parallel()

	p, err := NewPool(smallConfig())
	require.NoError(t, err)

	ts := 10 * second
	_, err = p.Append(mouseFragment(t, 0, ts))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), p.ActiveDuration())

	// active movement
	for i := 1; i <= 4; i++ {
		ts += second / 2
		_, err = p.Append(mouseFragment(t, i, ts))
		require.NoError(t, err)
	}
	assert.Equal(t, 2*time.Second, p.ActiveDuration())
	assert.True(t, p.MouseActive(ts+second))
	assert.False(t, p.MouseActive(ts+2*second))

	// gap at the timeout is not counted, but does not reset
	ts += 2 * second
	_, err = p.Append(mouseFragment(t, 5, ts))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, p.ActiveDuration())

	// long gap
	ts += 60 * second
	_, err = p.Append(mouseFragment(t, 6, ts))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, p.ActiveDuration())

	// resumes advancing
	ts += second
	_, err = p.Append(mouseFragment(t, 7, ts))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, p.ActiveDuration())

	// timestamps going backwards do not advance
	_, err = p.Append(mouseFragment(t, 8, ts-second/2))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, p.ActiveDuration())

	// and the next fragment only counts the time since the latest one
	ts += second / 4
	_, err = p.Append(mouseFragment(t, 9, ts))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second+250*time.Millisecond, p.ActiveDuration())

	// fragments of other sources do not count as activity
	_, err = p.Append(schedulerFragment(t, 1, ts+second/10))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second+250*time.Millisecond, p.ActiveDuration())
}

func TestReadinessMonotonic(t *testing.T) {
	t.Parallel()

	p, err := NewPool(smallConfig())
	require.NoError(t, err)

	ts := second
	wasReady := false
	for i := 0; i < 100; i++ {
		// irregular movement with pauses
		switch {
		case i%17 == 0:
			ts += 5 * second
		case i%3 == 0:
			ts += second
		default:
			ts += second / 4
		}
		_, err := p.Append(mouseFragment(t, i, ts))
		require.NoError(t, err)
		_, err = p.Append(schedulerFragment(t, i, ts))
		require.NoError(t, err)

		ready := p.IsReady()
		if wasReady {
			assert.True(t, ready, "readiness revoked after %d appends", i+1)
		}
		wasReady = ready
	}
	assert.True(t, wasReady)
}

func TestReadinessRequirements(t *testing.T) {
	t.Parallel()

	cfg := smallConfig()
	cfg.AudioEnabled = true
	p, err := NewPool(cfg)
	require.NoError(t, err)

	ts := second
	for i := 0; i < 10; i++ {
		ts += second / 2
		_, err := p.Append(mouseFragment(t, i, ts))
		require.NoError(t, err)
	}
	status := p.Status()
	assert.Equal(t, 10, status.MouseSamples)
	assert.Equal(t, 4500*time.Millisecond, status.ActiveDuration)
	assert.False(t, status.Ready, "audio is still missing")
	assert.Equal(t, []string{"0/2 audio samples"}, status.Missing())

	for i := 0; i < 2; i++ {
		f, err := NormalizeAudio(AudioReading{Samples: []float64{0.1, float64(i)}, TimestampNs: ts + int64(i)})
		require.NoError(t, err)
		_, err = p.Append(f)
		require.NoError(t, err)
	}
	assert.True(t, p.IsReady())
	assert.Empty(t, p.Status().Missing())
	assert.Contains(t, p.Status().String(), "ready")

	// pure predicate
	req := cfg.Requirements
	assert.True(t, req.Satisfied(5, 2, 3*time.Second))
	assert.False(t, req.Satisfied(4, 2, 3*time.Second))
	assert.False(t, req.Satisfied(5, 1, 3*time.Second))
	assert.False(t, req.Satisfied(5, 2, 3*time.Second-1))
	req.AudioEnabled = false
	assert.True(t, req.Satisfied(5, 0, 3*time.Second))
}

func TestFragmentShapeMismatch(t *testing.T) {
	t.Parallel()

	p, err := NewPool(smallConfig())
	require.NoError(t, err)

	_, err = p.Append(Fragment{Source: SourceMouse, TimestampNs: 1, Data: []byte{1, 2, 3}})
	var shapeErr *FragmentShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, FragmentLength, shapeErr.Want)
	assert.Equal(t, 3, shapeErr.Got)
	assert.ErrorIs(t, err, ErrFragmentShapeMismatch)

	_, err = p.Append(Fragment{Source: Source(9), TimestampNs: 1, Data: make([]byte, 8)})
	assert.ErrorIs(t, err, ErrFragmentShapeMismatch)

	// nothing was admitted
	assert.Equal(t, 0, p.Status().Total())
	assert.Equal(t, time.Duration(0), p.ActiveDuration())
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	p, err := NewPool(smallConfig())
	require.NoError(t, err)

	m := mouseFragment(t, 1, second)
	s := schedulerFragment(t, 1, second)
	_, err = p.Append(s)
	require.NoError(t, err)
	_, err = p.Append(m)
	require.NoError(t, err)

	view := p.Snapshot()

	// later appends and caller modifications do not affect the snapshot
	_, err = p.Append(mouseFragment(t, 2, 2*second))
	require.NoError(t, err)
	m.Data[0] ^= 0xFF
	frags := view.Fragments(SourceMouse)
	frags[0].Source = SourceAudio

	assert.Equal(t, 1, view.Count(SourceMouse))
	assert.Equal(t, 1, view.Count(SourceScheduler))
	assert.Equal(t, 0, view.Count(SourceAudio))
	assert.Equal(t, 2, p.Count(SourceMouse))
	assert.Equal(t, SourceMouse, view.Fragments(SourceMouse)[0].Source)

	// source-major order
	m.Data[0] ^= 0xFF
	expected := append(append([]byte{}, m.Data...), s.Data...)
	assert.Equal(t, expected, view.Mix())
	assert.Len(t, view.Mix(), 16)
}

func TestConcurrentAppends(t *testing.T) {
	t.Parallel()

	p, err := NewPool(DefaultPoolConfig())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, src := range Sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			for i := 0; i < 3000; i++ {
				f := newFragment(src, int64(i+1)*int64(time.Millisecond), uint64(i))
				_, err := p.Append(f)
				assert.NoError(t, err)
			}
		}(src)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			v := p.Snapshot()
			assert.Len(t, v.Mix(), FragmentLength*v.Status().Total())
			_ = p.IsReady()
		}
	}()
	wg.Wait()

	for _, src := range Sources {
		assert.Equal(t, DefaultCapacity, p.Count(src))
	}
	assert.Equal(t, 2999*time.Millisecond, p.ActiveDuration())
}
