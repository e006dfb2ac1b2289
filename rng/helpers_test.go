// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package rng

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/safing/entropyrng/entropy"
)

const second = int64(time.Second)

func testPoolConfig() entropy.PoolConfig {
	return entropy.PoolConfig{
		Capacity:          20,
		InactivityTimeout: 2 * time.Second,
		Requirements: entropy.Requirements{
			MinMouseSamples:   5,
			MinActiveDuration: 3 * time.Second,
			MinAudioSamples:   2,
		},
	}
}

// feedMouse feeds n mouse readings, spaced by step, starting at ts.
func feedMouse(t *testing.T, c *Collector, n int, ts, step int64) int64 {
	t.Helper()

	for i := 0; i < n; i++ {
		require.NoError(t, c.FeedMouse(entropy.MouseReading{
			X:           100 + i*3,
			Y:           200 + i*7%11,
			TimestampNs: ts,
		}))
		ts += step
	}
	return ts
}

func readyCollector(t *testing.T) *Collector {
	t.Helper()

	pool, err := entropy.NewPool(testPoolConfig())
	require.NoError(t, err)
	c := NewCollector(pool)
	feedMouse(t, c, 5, second, second)
	require.True(t, pool.IsReady())
	return c
}

func fixedClock(ts int64) func() int64 {
	return func() int64 {
		return ts
	}
}
