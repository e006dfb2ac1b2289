// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package rng

import (
	"context"
	"time"

	"github.com/safing/entropyrng/entropy"
)

// Polling bounds for WaitUntilReady.
const (
	DefaultPollInterval = 100 * time.Millisecond
	maxPollInterval     = 2 * time.Second
)

// WaitUntilReady polls the pool until it is ready or the context is done.
// While the readiness relevant state does not change, the poll interval
// doubles up to a cap. It resets as soon as new mouse or audio entropy arrives.
// The optional progress function is called with the pool status on every poll.
func WaitUntilReady(ctx context.Context, pool *entropy.Pool, poll time.Duration, progress func(entropy.Status)) (entropy.Status, error) {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	limit := maxPollInterval
	if poll > limit {
		limit = poll
	}

	interval := poll
	var last entropy.Status
	for {
		status := pool.Status()
		if progress != nil {
			progress(status)
		}
		if status.Ready {
			return status, nil
		}

		if advanced(last, status) {
			interval = poll
		} else {
			interval *= 2
			if interval > limit {
				interval = limit
			}
		}
		last = status

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func advanced(prev, cur entropy.Status) bool {
	return cur.MouseSamples != prev.MouseSamples ||
		cur.AudioSamples != prev.AudioSamples ||
		cur.ActiveDuration != prev.ActiveDuration
}
