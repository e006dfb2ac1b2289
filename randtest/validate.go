// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package randtest

import (
	"golang.org/x/sync/errgroup"

	"github.com/safing/entropyrng/log"
)

type testFunc func(values []int, p Policy) *Result

var suite = []testFunc{
	Frequency,
	Runs,
	SerialCorrelation,
	Gap,
	Entropy,
}

// Validate runs all tests on the values. Every test runs and reports, a
// failing or unevaluable test does not stop the others. An error is only
// returned for an invalid policy.
func Validate(values []int, p Policy) (*Report, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}

	results := make([]*Result, len(suite))
	var g errgroup.Group
	for i, fn := range suite {
		i, fn := i, fn
		g.Go(func() error {
			results[i] = fn(values, p)
			return nil
		})
	}
	_ = g.Wait()

	report := newReport(len(values), p, results)
	log.Debugf(
		"randtest: validated %d values: %d/%d passed (%s)",
		len(values), report.Summary.Passed, report.Summary.Total, report.Summary.Verdict,
	)
	return report, nil
}
