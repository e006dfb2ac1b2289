// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package randtest

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/entropyrng/config"
)

// shuffledUniform returns k copies of every value in [0, 2048), shuffled
// with a seeded SplitMix64 Fisher-Yates shuffle.
func shuffledUniform(k int, seed uint64) []int {
	values := make([]int, 2048*k)
	for i := range values {
		values[i] = i % 2048
	}

	state := seed
	next := func() uint64 {
		state += 0x9E3779B97F4A7C15
		z := state
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		return z ^ (z >> 31)
	}
	for i := len(values) - 1; i > 0; i-- {
		j := int(next() % uint64(i+1))
		values[i], values[j] = values[j], values[i]
	}
	return values
}

func constant(v, n int) []int {
	values := make([]int, n)
	for i := range values {
		values[i] = v
	}
	return values
}

func TestShuffle(t *testing.T) {
	t.Parallel()

	values := shuffledUniform(16, 4)
	assert.Len(t, values, 32768)
	assert.Equal(t, []int{728, 147, 1473, 1813, 1195}, values[:5])
}

func TestUniformPasses(t *testing.T) {
	t.Parallel()

	report, err := Validate(shuffledUniform(16, 4), DefaultPolicy())
	require.NoError(t, err)

	for _, name := range Names {
		res := report.Results[name]
		require.NotNil(t, res, name)
		assert.NoError(t, res.Err(), name)
		assert.True(t, res.Passed, "%s should pass: %+v", name, res)
	}
	assert.Empty(t, report.Failed())
	assert.Equal(t, Summary{Passed: 5, Total: 5, PassRate: 1, Verdict: VerdictGood}, report.Summary)

	// exact counts
	assert.Equal(t, 0.0, report.Results[TestFrequency].Statistic)
	assert.Equal(t, 1.0, report.Results[TestFrequency].Details["p_value"])
	assert.InDelta(t, 1.0, report.Results[TestEntropy].Statistic, 1e-9)
	assert.Equal(t, 15.0, report.Results[TestGap].Details["gaps"])

	assert.InDelta(t, 0.0524, report.Results[TestRuns].Statistic, 0.001)
	assert.InDelta(t, 0.00107, report.Results[TestSerialCorrelation].Statistic, 0.0001)
	assert.InDelta(t, 1922.8, report.Results[TestGap].Statistic, 0.01)
}

func TestConstantFails(t *testing.T) {
	t.Parallel()

	report, err := Validate(constant(1024, 4096), DefaultPolicy())
	require.NoError(t, err)

	assert.False(t, report.Passed(TestFrequency))
	assert.InDelta(t, 0, report.Results[TestFrequency].Details["p_value"], 1e-12)
	assert.False(t, report.Passed(TestEntropy))
	assert.InDelta(t, 0, report.Results[TestEntropy].Statistic, 1e-12)
	assert.False(t, report.Passed(TestRuns))
	assert.False(t, report.Passed(TestGap))
	assert.ErrorIs(t, report.Results[TestSerialCorrelation].Err(), ErrZeroVariance)

	// the serial correlation test could not be evaluated
	assert.Equal(t, Summary{Passed: 0, Total: 4, PassRate: 0, Verdict: VerdictPoor}, report.Summary)
	assert.Equal(t, Names, report.Failed())
}

func TestSortedSequence(t *testing.T) {
	t.Parallel()

	values := make([]int, 2048*16)
	for i := range values {
		values[i] = i % 2048
	}

	report, err := Validate(values, DefaultPolicy())
	require.NoError(t, err)

	// the distribution is perfect, the order is not
	assert.True(t, report.Passed(TestFrequency))
	assert.True(t, report.Passed(TestEntropy))
	assert.True(t, report.Passed(TestGap))
	assert.Equal(t, 2047.0, report.Results[TestGap].Statistic)
	assert.False(t, report.Passed(TestRuns))
	assert.Equal(t, 31.0, report.Results[TestRuns].Details["runs"])
	assert.False(t, report.Passed(TestSerialCorrelation))
	assert.Greater(t, report.Results[TestSerialCorrelation].Statistic, 0.99)

	assert.Equal(t, VerdictAcceptable, report.Summary.Verdict)
	assert.Equal(t, []string{TestRuns, TestSerialCorrelation}, report.Failed())
}

func TestInsufficientData(t *testing.T) {
	t.Parallel()

	report, err := Validate(nil, DefaultPolicy())
	require.NoError(t, err)
	for _, name := range Names {
		assert.ErrorIs(t, report.Results[name].Err(), ErrInsufficientData, name)
		assert.False(t, report.Passed(name))
	}
	assert.Equal(t, 0, report.Summary.Total)
	assert.Equal(t, VerdictPoor, report.Summary.Verdict)

	// one occurrence of the gap target is not enough
	res := Gap([]int{1, 1024, 3}, DefaultPolicy())
	assert.ErrorIs(t, res.Err(), ErrInsufficientData)
	assert.Contains(t, res.Error, "1024")
}

func TestOutOfRange(t *testing.T) {
	t.Parallel()

	res := Frequency([]int{1, 2, 2048}, DefaultPolicy())
	assert.ErrorIs(t, res.Err(), ErrOutOfRange)
	assert.False(t, res.Passed)

	res = Frequency([]int{1, -1}, DefaultPolicy())
	assert.ErrorIs(t, res.Err(), ErrOutOfRange)
}

func TestFrequencyBuckets(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	p.Range = 10
	p.Buckets = 3

	// bucket widths are 4, 3 and 3
	res := Frequency([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, p)
	require.NoError(t, res.Err())
	assert.InDelta(t, 0, res.Statistic, 1e-12)
	assert.True(t, res.Passed)

	res = Frequency([]int{0, 0, 0, 0, 0, 0, 0, 0, 0, 9}, p)
	require.NoError(t, res.Err())
	// expected 4, 3, 3; observed 9, 0, 1
	assert.InDelta(t, 25.0/4+3+4.0/3, res.Statistic, 1e-9)
	assert.False(t, res.Passed)
}

func TestIgamc(t *testing.T) {
	t.Parallel()

	// Q(1, x) = e^-x
	for _, x := range []float64{0.1, 0.5, 1, 2, 5, 20} {
		assert.InDelta(t, math.Exp(-x), igamc(1, x), 1e-10, "x=%v", x)
	}
	// Q(0.5, x) = erfc(sqrt(x))
	for _, x := range []float64{0.2, 1, 3, 10} {
		assert.InDelta(t, math.Erfc(math.Sqrt(x)), igamc(0.5, x), 1e-10, "x=%v", x)
	}
	assert.Equal(t, 1.0, igamc(3, 0))
	assert.True(t, math.IsNaN(igamc(0, 1)))

	// chi-square with 2 degrees of freedom at the 5% critical value
	assert.InDelta(t, 0.05, chiSquarePValue(5.991464547, 2), 1e-6)
}

func TestPolicyCheck(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultPolicy().Check())

	for _, mutate := range []func(p *Policy){
		func(p *Policy) { p.Range = 1 },
		func(p *Policy) { p.Buckets = 1 },
		func(p *Policy) { p.Buckets = 4096 },
		func(p *Policy) { p.Alpha = 0 },
		func(p *Policy) { p.Alpha = 1 },
		func(p *Policy) { p.MaxRunsZ = 0 },
		func(p *Policy) { p.MaxSerialR = 1.5 },
		func(p *Policy) { p.GapTarget = 2048 },
		func(p *Policy) { p.GapTolerance = 0 },
		func(p *Policy) { p.MinEntropyRatio = 0 },
	} {
		p := DefaultPolicy()
		mutate(&p)
		_, err := Validate([]int{1, 2, 3}, p)
		assert.True(t, errors.Is(err, ErrInvalidPolicy), "policy %+v should be invalid", p)
	}

	assert.Equal(t, DefaultPolicy(), PolicyForRange(2048))
	small := PolicyForRange(1000)
	assert.Equal(t, 1000, small.Buckets)
	assert.Equal(t, 500, small.GapTarget)
	require.NoError(t, small.Check())
}

func TestPolicyFromConfig(t *testing.T) { //nolint:paralleltest
	assert.Equal(t, DefaultPolicy(), PolicyFromConfig())

	require.NoError(t, prep())
	require.NoError(t, config.Register(&config.Option{
		Name:         "Output Range",
		Key:          CfgRange,
		Description:  "Size of the output range.",
		OptType:      config.OptTypeInt,
		DefaultValue: 2048,
	}))
	assert.Equal(t, DefaultPolicy(), PolicyFromConfig())

	// a smaller range moves the derived parameters along
	require.NoError(t, config.SetConfigOption(CfgRange, 1000))
	defer func() {
		require.NoError(t, config.SetConfigOption(CfgRange, nil))
		require.NoError(t, config.SetConfigOption(CfgBuckets, nil))
	}()

	p := PolicyFromConfig()
	assert.Equal(t, 1000, p.Range)
	assert.Equal(t, 1000, p.Buckets)
	assert.Equal(t, 500, p.GapTarget)

	values := make([]int, 1000*20)
	for i := range values {
		values[i] = i % 1000
	}
	report, err := Validate(values, p)
	require.NoError(t, err)
	assert.Equal(t, 1000, report.Policy.Range)

	// explicit values win
	require.NoError(t, config.SetConfigOption(CfgBuckets, 250))
	assert.Equal(t, 250, PolicyFromConfig().Buckets)
}

func TestParseValues(t *testing.T) {
	t.Parallel()

	values, err := ParseValues(strings.NewReader("1 2,3\n4\t5\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, values)

	values, err = ParseValues(strings.NewReader("[1298, 1809, 342]"))
	require.NoError(t, err)
	assert.Equal(t, []int{1298, 1809, 342}, values)

	values, err = ParseValues(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, values)

	_, err = ParseValues(strings.NewReader("1 2 three"))
	assert.ErrorContains(t, err, "value 3")
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	report, err := Validate(constant(1024, 100), DefaultPolicy())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf))
	text := buf.String()
	assert.Contains(t, text, "RANDOMNESS QUALITY ANALYSIS (100 values)")
	assert.Contains(t, text, "frequency: FAIL")
	assert.Contains(t, text, "serial_correlation: ERROR - sequence has zero variance")
	assert.Contains(t, text, "OVERALL SCORE: 0/4 tests passed")
	assert.Contains(t, text, "VERDICT: POOR")

	// details are sorted
	assert.Less(t, strings.Index(text, "alpha"), strings.Index(text, "degrees_of_freedom"))
}

func BenchmarkValidate(b *testing.B) {
	values := shuffledUniform(16, 4)
	p := DefaultPolicy()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Validate(values, p); err != nil {
			b.Fatal(err)
		}
	}
}
