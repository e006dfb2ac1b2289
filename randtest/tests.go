// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package randtest

import (
	"errors"
	"fmt"
	"math"
)

// Test names.
const (
	TestFrequency         = "frequency"
	TestRuns              = "runs"
	TestSerialCorrelation = "serial_correlation"
	TestGap               = "gap"
	TestEntropy           = "entropy"
)

// Names lists the tests in the order they are reported.
var Names = []string{TestFrequency, TestRuns, TestSerialCorrelation, TestGap, TestEntropy}

var (
	// ErrInsufficientData is reported by tests that cannot evaluate the given amount of values.
	ErrInsufficientData = errors.New("not enough data")
	// ErrOutOfRange is reported for values outside of the policy range.
	ErrOutOfRange = errors.New("value out of range")
	// ErrZeroVariance is reported by the serial correlation test for constant sequences.
	ErrZeroVariance = errors.New("sequence has zero variance")
)

// Result is the outcome of a single test. Tests that could not be evaluated
// carry an error and are never passed.
type Result struct {
	Name      string             `json:"name"`
	Statistic float64            `json:"statistic"`
	Passed    bool               `json:"passed"`
	Details   map[string]float64 `json:"details,omitempty"`
	Error     string             `json:"error,omitempty"`

	err error
}

// Err returns the evaluation error of the test.
func (r *Result) Err() error {
	return r.err
}

func failed(name string, err error) *Result {
	return &Result{
		Name:  name,
		Error: err.Error(),
		err:   err,
	}
}

// Frequency compares the bucket counts with a uniform distribution using a
// chi-square statistic. The test passes if the p-value is at least alpha.
func Frequency(values []int, p Policy) *Result {
	if len(values) == 0 {
		return failed(TestFrequency, ErrInsufficientData)
	}

	// buckets may have different widths if they do not divide the range
	counts := make([]int, p.Buckets)
	widths := make([]int, p.Buckets)
	for v := 0; v < p.Range; v++ {
		widths[bucket(v, p)]++
	}
	for _, v := range values {
		if v < 0 || v >= p.Range {
			return failed(TestFrequency, fmt.Errorf("%w: %d", ErrOutOfRange, v))
		}
		counts[bucket(v, p)]++
	}

	n := float64(len(values))
	var chi float64
	for i, observed := range counts {
		expected := n * float64(widths[i]) / float64(p.Range)
		diff := float64(observed) - expected
		chi += diff * diff / expected
	}

	df := p.Buckets - 1
	pValue := chiSquarePValue(chi, df)
	return &Result{
		Name:      TestFrequency,
		Statistic: chi,
		Passed:    pValue >= p.Alpha,
		Details: map[string]float64{
			"degrees_of_freedom": float64(df),
			"p_value":            pValue,
			"alpha":              p.Alpha,
		},
	}
}

func bucket(v int, p Policy) int {
	return int(int64(v) * int64(p.Buckets) / int64(p.Range))
}

// Runs counts the runs of consecutive increases and decreases and compares
// the count with the expectation for independent values. Equal neighbors
// count as a decrease.
func Runs(values []int, p Policy) *Result {
	n := len(values)
	if n < 3 {
		return failed(TestRuns, ErrInsufficientData)
	}

	runs := 1
	up := values[1] > values[0]
	for i := 2; i < n; i++ {
		next := values[i] > values[i-1]
		if next != up {
			runs++
		}
		up = next
	}

	expected := float64(2*n-1) / 3
	variance := float64(16*n-29) / 90
	z := (float64(runs) - expected) / math.Sqrt(variance)

	return &Result{
		Name:      TestRuns,
		Statistic: z,
		Passed:    math.Abs(z) < p.MaxRunsZ,
		Details: map[string]float64{
			"runs":          float64(runs),
			"expected_runs": expected,
			"max_abs_z":     p.MaxRunsZ,
		},
	}
}

// SerialCorrelation computes the lag-1 correlation of the sequence.
func SerialCorrelation(values []int, p Policy) *Result {
	n := len(values)
	if n < 2 {
		return failed(TestSerialCorrelation, ErrInsufficientData)
	}

	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / float64(n)

	var num, den float64
	for i := 0; i < n-1; i++ {
		d := float64(values[i]) - mean
		num += d * (float64(values[i+1]) - mean)
		den += d * d
	}
	if den == 0 {
		return failed(TestSerialCorrelation, ErrZeroVariance)
	}

	r := num / den
	return &Result{
		Name:      TestSerialCorrelation,
		Statistic: r,
		Passed:    math.Abs(r) < p.MaxSerialR,
		Details: map[string]float64{
			"mean":      mean,
			"max_abs_r": p.MaxSerialR,
		},
	}
}

// Gap measures the gaps between successive occurrences of the target value.
// For uniform values, gaps are geometrically distributed with a mean of
// range-1. The test passes if the mean gap is within the tolerance.
// The fit of the gap lengths to the geometric distribution is reported as
// additional p-value.
func Gap(values []int, p Policy) *Result {
	var gaps []int
	last := -1
	for i, v := range values {
		if v == p.GapTarget {
			if last >= 0 {
				gaps = append(gaps, i-last-1)
			}
			last = i
		}
	}
	if len(gaps) == 0 {
		return failed(TestGap, fmt.Errorf("%w: value %d occurs less than twice", ErrInsufficientData, p.GapTarget))
	}

	var sum float64
	for _, g := range gaps {
		sum += float64(g)
	}
	mean := sum / float64(len(gaps))
	expected := float64(p.Range - 1)

	return &Result{
		Name:      TestGap,
		Statistic: mean,
		Passed:    math.Abs(mean-expected) < expected*p.GapTolerance,
		Details: map[string]float64{
			"target":       float64(p.GapTarget),
			"gaps":         float64(len(gaps)),
			"expected_gap": expected,
			"geometric_p":  geometricFit(gaps, 1/float64(p.Range)),
		},
	}
}

// geometricFit returns the chi-square p-value of the gaps against a
// geometric distribution with success probability q, using four classes of
// equal probability.
func geometricFit(gaps []int, q float64) float64 {
	const classes = 4

	// class i holds gaps below bounds[i]
	var bounds [classes - 1]float64
	for i := range bounds {
		share := float64(i+1) / classes
		bounds[i] = math.Log(1-share) / math.Log(1-q)
	}

	var counts [classes]int
	for _, g := range gaps {
		c := 0
		for c < len(bounds) && float64(g) >= bounds[c] {
			c++
		}
		counts[c]++
	}

	// expected counts from the exact class probabilities
	var chi float64
	lower := 0.0
	for i := 0; i < classes; i++ {
		upper := 1.0
		if i < len(bounds) {
			upper = 1 - math.Pow(1-q, math.Ceil(bounds[i]))
		}
		expected := float64(len(gaps)) * (upper - lower)
		if expected > 0 {
			diff := float64(counts[i]) - expected
			chi += diff * diff / expected
		}
		lower = upper
	}
	return chiSquarePValue(chi, classes-1)
}

// Entropy estimates the Shannon entropy of the value distribution and
// compares it with the maximum for the range.
func Entropy(values []int, p Policy) *Result {
	n := len(values)
	if n == 0 {
		return failed(TestEntropy, ErrInsufficientData)
	}

	counts := make(map[int]int)
	for _, v := range values {
		counts[v]++
	}

	var h float64
	for _, c := range counts {
		prob := float64(c) / float64(n)
		h -= prob * math.Log2(prob)
	}
	maxH := math.Log2(float64(p.Range))
	ratio := h / maxH

	return &Result{
		Name:      TestEntropy,
		Statistic: ratio,
		Passed:    ratio > p.MinEntropyRatio,
		Details: map[string]float64{
			"entropy":       h,
			"max_entropy":   maxH,
			"unique_values": float64(len(counts)),
			"min_ratio":     p.MinEntropyRatio,
		},
	}
}
