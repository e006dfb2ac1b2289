// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package randtest

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/exp/maps"
)

// Verdicts.
const (
	VerdictGood       = "GOOD"
	VerdictAcceptable = "ACCEPTABLE"
	VerdictPoor       = "POOR"
)

// Summary aggregates the test results. Tests that could not be evaluated
// do not count towards the total.
type Summary struct {
	Passed   int     `json:"passed"`
	Total    int     `json:"total"`
	PassRate float64 `json:"pass_rate"`
	Verdict  string  `json:"verdict"`
}

// Report holds the results of all tests, keyed by test name.
type Report struct {
	Count   int                `json:"count"`
	Policy  Policy             `json:"policy"`
	Results map[string]*Result `json:"results"`
	Summary Summary            `json:"summary"`
}

func newReport(count int, p Policy, results []*Result) *Report {
	r := &Report{
		Count:   count,
		Policy:  p,
		Results: make(map[string]*Result, len(results)),
	}
	for _, res := range results {
		r.Results[res.Name] = res
		if res.err != nil {
			continue
		}
		r.Summary.Total++
		if res.Passed {
			r.Summary.Passed++
		}
	}

	if r.Summary.Total > 0 {
		r.Summary.PassRate = float64(r.Summary.Passed) / float64(r.Summary.Total)
	}
	switch {
	case r.Summary.PassRate >= 0.8:
		r.Summary.Verdict = VerdictGood
	case r.Summary.PassRate >= 0.6:
		r.Summary.Verdict = VerdictAcceptable
	default:
		r.Summary.Verdict = VerdictPoor
	}
	return r
}

// Passed returns whether the named test passed.
func (r *Report) Passed(name string) bool {
	res, ok := r.Results[name]
	return ok && res.Passed
}

// Failed returns the names of all tests that did not pass, in report order.
func (r *Report) Failed() []string {
	var failed []string
	for _, name := range Names {
		if !r.Passed(name) {
			failed = append(failed, name)
		}
	}
	return failed
}

// WriteText writes a human readable report.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "RANDOMNESS QUALITY ANALYSIS (%d values)\n", r.Count)

	for _, name := range Names {
		res, ok := r.Results[name]
		if !ok {
			continue
		}
		if res.err != nil {
			fmt.Fprintf(&b, "\n%s: ERROR - %s\n", name, res.Error)
			continue
		}

		status := "FAIL"
		if res.Passed {
			status = "PASS"
		}
		fmt.Fprintf(&b, "\n%s: %s\n  statistic: %.4f\n", name, status, res.Statistic)

		keys := maps.Keys(res.Details)
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&b, "  %s: %.4f\n", key, res.Details[key])
		}
	}

	fmt.Fprintf(
		&b, "\nOVERALL SCORE: %d/%d tests passed\nPASS RATE: %.1f%%\nVERDICT: %s\n",
		r.Summary.Passed, r.Summary.Total, r.Summary.PassRate*100, r.Summary.Verdict,
	)

	_, err := io.WriteString(w, b.String())
	return err
}
