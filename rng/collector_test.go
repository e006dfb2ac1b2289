// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package rng

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/entropyrng/entropy"
)

func TestCollectorFeed(t *testing.T) {
	t.Parallel()

	pool, err := entropy.NewPool(testPoolConfig())
	require.NoError(t, err)
	c := NewCollector(pool)
	assert.Same(t, pool, c.Pool())

	require.NoError(t, c.FeedMouse(entropy.MouseReading{X: 1, Y: 2, TimestampNs: second}))
	require.NoError(t, c.FeedScheduler(entropy.SchedulerReading{User: 1.5, System: 0.5, Idle: 10, ProcessCount: 120, TimestampNs: second}))
	require.NoError(t, c.FeedAudio(entropy.AudioReading{Samples: []float64{0.1, -0.2, 0.3}, TimestampNs: second}))
	require.NoError(t, c.Feed(&entropy.MouseReading{X: 3, Y: 4, TimestampNs: 2 * second}))

	// invalid readings leave the pool untouched
	assert.ErrorIs(t, c.FeedMouse(entropy.MouseReading{X: 1, Y: 1, TimestampNs: 0}), entropy.ErrInvalidReading)
	assert.ErrorIs(t, c.FeedScheduler(entropy.SchedulerReading{User: math.NaN(), TimestampNs: second}), entropy.ErrInvalidReading)
	assert.ErrorIs(t, c.FeedAudio(entropy.AudioReading{TimestampNs: second}), entropy.ErrInvalidReading)
	assert.ErrorIs(t, c.Feed(nil), entropy.ErrInvalidReading)
	assert.ErrorIs(t, c.Feed((*entropy.MouseReading)(nil)), entropy.ErrInvalidReading)
	assert.ErrorIs(t, c.Feed((*entropy.SchedulerReading)(nil)), entropy.ErrInvalidReading)
	assert.ErrorIs(t, c.Feed((*entropy.AudioReading)(nil)), entropy.ErrInvalidReading)

	status := pool.Status()
	assert.Equal(t, 2, status.MouseSamples)
	assert.Equal(t, 1, status.SchedulerSamples)
	assert.Equal(t, 1, status.AudioSamples)
	assert.Equal(t, second, status.ActiveDuration.Nanoseconds())
}

func TestCollectorHalt(t *testing.T) {
	t.Parallel()

	pool, err := entropy.NewPool(testPoolConfig())
	require.NoError(t, err)
	c := NewCollector(pool)
	require.NoError(t, c.FeedMouse(entropy.MouseReading{X: 1, Y: 2, TimestampNs: second}))

	err = c.Append(entropy.Fragment{Source: entropy.SourceMouse, TimestampNs: 2 * second, Data: []byte{1, 2, 3}})
	assert.ErrorIs(t, err, entropy.ErrFragmentShapeMismatch)
	assert.True(t, c.Halted(entropy.SourceMouse))
	assert.False(t, c.Halted(entropy.SourceScheduler))
	assert.False(t, c.Halted(entropy.Source(99)))

	// the source stays halted, other sources keep working
	err = c.FeedMouse(entropy.MouseReading{X: 5, Y: 6, TimestampNs: 3 * second})
	assert.ErrorIs(t, err, ErrSourceHalted)
	require.NoError(t, c.FeedScheduler(entropy.SchedulerReading{User: 1, TimestampNs: 3 * second}))

	assert.Equal(t, 1, pool.Count(entropy.SourceMouse))
	assert.Equal(t, 1, pool.Count(entropy.SourceScheduler))
}
