// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package rng

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bluele/gcache"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/process"

	"github.com/safing/entropyrng/entropy"
	"github.com/safing/entropyrng/log"
)

// DefaultSchedulerInterval is the sampling cadence of the scheduler source.
const DefaultSchedulerInterval = 10 * time.Millisecond

// processCountTTL limits how often the process table is read.
const processCountTTL = 250 * time.Millisecond

// SchedulerSource supplies scheduler readings.
type SchedulerSource interface {
	Sample(ctx context.Context) (entropy.SchedulerReading, error)
}

// HostSchedulerSource reads cumulative CPU times and the process count of the host.
type HostSchedulerSource struct {
	procCache gcache.Cache
}

// NewHostSchedulerSource returns a new HostSchedulerSource.
func NewHostSchedulerSource() *HostSchedulerSource {
	return &HostSchedulerSource{
		procCache: gcache.New(1).
			LRU().
			Expiration(processCountTTL).
			LoaderFunc(func(interface{}) (interface{}, error) {
				pids, err := process.Pids()
				if err != nil {
					return nil, err
				}
				return len(pids), nil
			}).
			Build(),
	}
}

// Sample implements SchedulerSource.
func (h *HostSchedulerSource) Sample(ctx context.Context) (entropy.SchedulerReading, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return entropy.SchedulerReading{}, fmt.Errorf("failed to get cpu times: %w", err)
	}
	if len(times) == 0 {
		return entropy.SchedulerReading{}, errors.New("no cpu times available")
	}

	procs, err := h.procCache.Get("pids")
	if err != nil {
		return entropy.SchedulerReading{}, fmt.Errorf("failed to get process count: %w", err)
	}
	procCount, _ := procs.(int)

	return entropy.SchedulerReading{
		User:         times[0].User,
		System:       times[0].System,
		Idle:         times[0].Idle,
		ProcessCount: procCount,
		TimestampNs:  time.Now().UnixNano(),
	}, nil
}

// RunScheduler samples the source at a fixed cadence and feeds the readings
// into the collector until the context is canceled. Failed samples and
// invalid readings are skipped. It returns nil if the scheduler source was halted.
func RunScheduler(ctx context.Context, c *Collector, src SchedulerSource, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSchedulerInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var failed uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		reading, err := src.Sample(ctx)
		if err != nil {
			failed++
			// only log every 100th failure, this runs every few milliseconds
			if failed%100 == 1 {
				log.Debugf("rng: failed to sample scheduler (%d times): %s", failed, err)
			}
			continue
		}

		err = c.FeedScheduler(reading)
		switch {
		case err == nil:
		case errors.Is(err, ErrSourceHalted), errors.Is(err, entropy.ErrFragmentShapeMismatch):
			log.Warning("rng: scheduler source halted, stopping sampling")
			return nil
		default:
			log.Debugf("rng: discarded scheduler reading: %s", err)
		}
	}
}
