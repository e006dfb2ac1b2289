// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

// Package metrics collects the service metrics in a VictoriaMetrics set and
// exports them in the Prometheus text format.
package metrics

import (
	"fmt"
	"io"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
)

const prefix = "entropyrng_"

var set = vm.NewSet()

func name(metric string, labels ...string) string {
	if len(labels) == 0 {
		return prefix + metric
	}

	full := prefix + metric + "{"
	for i := 0; i+1 < len(labels); i += 2 {
		if i > 0 {
			full += ","
		}
		full += fmt.Sprintf("%s=%q", labels[i], labels[i+1])
	}
	return full + "}"
}

// FragmentAppended counts a fragment admitted to the pool.
func FragmentAppended(source string, evicted bool) {
	set.GetOrCreateCounter(name("fragments_appended_total", "source", source)).Inc()
	if evicted {
		set.GetOrCreateCounter(name("fragments_evicted_total", "source", source)).Inc()
	}
}

// ReadingRejected counts a discarded invalid reading.
func ReadingRejected(source string) {
	set.GetOrCreateCounter(name("readings_rejected_total", "source", source)).Inc()
}

// SourceHalted counts a source halted after a shape mismatch.
func SourceHalted(source string) {
	set.GetOrCreateCounter(name("sources_halted_total", "source", source)).Inc()
}

// ValuesGenerated records a successful extraction.
func ValuesGenerated(count int, started time.Time) {
	set.GetOrCreateCounter(name("values_generated_total")).Add(count)
	set.GetOrCreateHistogram(name("extraction_duration_seconds")).UpdateDuration(started)
}

// ExtractionRefused counts extraction requests refused for insufficient entropy.
func ExtractionRefused() {
	set.GetOrCreateCounter(name("extractions_refused_total")).Inc()
}

// ValidationRun records a validation run and its verdict.
func ValidationRun(verdict string, passed, total int) {
	set.GetOrCreateCounter(name("validations_total", "verdict", verdict)).Inc()
	set.GetOrCreateCounter(name("validation_tests_passed_total")).Add(passed)
	set.GetOrCreateCounter(name("validation_tests_total")).Add(total)
}

// WriteMetrics writes all metrics to the given writer. Process metrics are
// only included if requested.
func WriteMetrics(w io.Writer, withProcess bool) {
	set.WritePrometheus(w)
	if withProcess {
		vm.WriteProcessMetrics(w)
	}
}
