// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/load"
	"github.com/shirou/gopsutil/mem"

	"github.com/safing/entropyrng/log"
)

// Host load shapes the scheduler samples, so it is exported next to the pool metrics.

const hostStatTTL = 1 * time.Second

var (
	loadAvgStat = &cachedStat[*load.AvgStat]{name: "load avg", fetch: load.Avg}
	memStat     = &cachedStat[*mem.VirtualMemoryStat]{name: "memory stats", fetch: mem.VirtualMemory}
)

func init() {
	set.NewGauge(name("host_load_avg_1"), func() float64 {
		v, _ := LoadAvg1()
		return v
	})
	set.NewGauge(name("host_mem_used_percent"), func() float64 {
		v, _ := MemUsedPercent()
		return v
	})
}

// cachedStat fetches a host statistic at most once per hostStatTTL.
type cachedStat[T any] struct {
	name  string
	fetch func() (T, error)

	lock    sync.Mutex
	value   T
	ok      bool
	expires time.Time
}

func (c *cachedStat[T]) get() (T, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	now := time.Now()
	if now.Before(c.expires) {
		return c.value, c.ok
	}

	v, err := c.fetch()
	if err != nil {
		log.Warningf("metrics: failed to get %s: %s", c.name, err)
		var zero T
		v = zero
	}
	c.value, c.ok = v, err == nil
	c.expires = now.Add(hostStatTTL)
	return c.value, c.ok
}

// LoadAvg1 returns the 1 minute load average per CPU.
func LoadAvg1() (loadAvg float64, ok bool) {
	if stat, ok := loadAvgStat.get(); ok && stat != nil {
		return stat.Load1 / float64(runtime.NumCPU()), true
	}
	return 0, false
}

// MemUsedPercent returns the used memory in percent.
func MemUsedPercent() (usedPercent float64, ok bool) {
	if stat, ok := memStat.get(); ok && stat != nil {
		return stat.UsedPercent, true
	}
	return 0, false
}
