// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package metrics

import (
	"sync/atomic"

	"github.com/safing/entropyrng/log"
)

// PoolStats is a point in time summary of the entropy pool.
type PoolStats struct {
	MouseSamples     int
	SchedulerSamples int
	AudioSamples     int
	ActiveSeconds    float64
	Ready            bool
}

var poolStatsFunc atomic.Value // func() PoolStats

// SetPoolStatsFunc sets the function used to fetch the pool gauges. Pass nil when the pool is discarded.
func SetPoolStatsFunc(fn func() PoolStats) {
	if fn == nil {
		fn = func() PoolStats { return PoolStats{} }
	}
	poolStatsFunc.Store(fn)
}

func currentPoolStats() PoolStats {
	fn, ok := poolStatsFunc.Load().(func() PoolStats)
	if !ok {
		return PoolStats{}
	}
	return fn()
}

func init() {
	SetPoolStatsFunc(nil)

	set.NewGauge(name("pool_samples", "source", "mouse"), func() float64 {
		return float64(currentPoolStats().MouseSamples)
	})
	set.NewGauge(name("pool_samples", "source", "scheduler"), func() float64 {
		return float64(currentPoolStats().SchedulerSamples)
	})
	set.NewGauge(name("pool_samples", "source", "audio"), func() float64 {
		return float64(currentPoolStats().AudioSamples)
	})
	set.NewGauge(name("pool_active_seconds"), func() float64 {
		return currentPoolStats().ActiveSeconds
	})
	set.NewGauge(name("pool_ready"), func() float64 {
		if currentPoolStats().Ready {
			return 1
		}
		return 0
	})

	// log lines
	set.NewGauge(name("log_lines_total", "level", "warning"), func() float64 {
		return float64(log.TotalWarningLogLines())
	})
	set.NewGauge(name("log_lines_total", "level", "error"), func() float64 {
		return float64(log.TotalErrorLogLines())
	})
	set.NewGauge(name("log_lines_total", "level", "critical"), func() float64 {
		return float64(log.TotalCriticalLogLines())
	})
}
