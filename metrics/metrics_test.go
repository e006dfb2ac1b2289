// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package metrics

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWriteMetrics(t *testing.T) {
	t.Parallel()

	SetPoolStatsFunc(func() PoolStats {
		return PoolStats{MouseSamples: 42, ActiveSeconds: 1.5, Ready: true}
	})
	defer SetPoolStatsFunc(nil)

	FragmentAppended("mouse", false)
	FragmentAppended("mouse", true)
	ReadingRejected("audio")
	ValuesGenerated(24, time.Now())
	ValidationRun("GOOD", 5, 5)

	buf := new(bytes.Buffer)
	WriteMetrics(buf, false)
	out := buf.String()

	assert.Contains(t, out, `entropyrng_fragments_appended_total{source="mouse"}`)
	assert.Contains(t, out, `entropyrng_fragments_evicted_total{source="mouse"} 1`)
	assert.Contains(t, out, `entropyrng_readings_rejected_total{source="audio"} 1`)
	assert.Contains(t, out, `entropyrng_pool_samples{source="mouse"} 42`)
	assert.Contains(t, out, `entropyrng_pool_ready 1`)
	assert.Contains(t, out, `entropyrng_values_generated_total 24`)
	assert.Contains(t, out, `entropyrng_validations_total{verdict="GOOD"} 1`)
	assert.NotContains(t, out, "process_resident_memory_bytes")
}

func TestName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "entropyrng_x", name("x"))
	assert.Equal(t, `entropyrng_x{a="1",b="2"}`, name("x", "a", "1", "b", "2"))
}

func TestCachedStat(t *testing.T) {
	t.Parallel()

	calls := 0
	fail := false
	c := &cachedStat[int]{
		name: "test stat",
		fetch: func() (int, error) {
			calls++
			if fail {
				return 0, errors.New("unavailable")
			}
			return 42, nil
		},
	}

	v, ok := c.get()
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	// cached within the ttl
	_, _ = c.get()
	assert.Equal(t, 1, calls)

	// expired, failing fetch
	fail = true
	c.expires = time.Time{}
	v, ok = c.get()
	assert.False(t, ok)
	assert.Equal(t, 0, v)
	assert.Equal(t, 2, calls)
}
