// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package randtest

import "math"

// igamc returns the regularized upper incomplete gamma function Q(a, x).
func igamc(a, x float64) float64 {
	if x < 0 || a <= 0 {
		return math.NaN()
	}
	if x == 0 {
		return 1
	}

	const (
		eps   = 1e-14
		fpmin = 1e-300
	)
	gln, _ := math.Lgamma(a)

	// series of the lower function, Q = 1 - P
	if x < a+1 {
		ap := a
		sum := 1 / a
		del := sum
		for n := 1; n < 1000; n++ {
			ap++
			del *= x / ap
			sum += del
			if math.Abs(del) < math.Abs(sum)*eps {
				break
			}
		}
		return 1 - sum*math.Exp(-x+a*math.Log(x)-gln)
	}

	// continued fraction of the upper function
	b := x + 1 - a
	c := 1 / fpmin
	d := 1 / b
	h := d
	for i := 1; i < 1000; i++ {
		an := -float64(i) * (float64(i) - a)
		b += 2
		d = an*d + b
		if math.Abs(d) < fpmin {
			d = fpmin
		}
		c = b + an/c
		if math.Abs(c) < fpmin {
			c = fpmin
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < eps {
			break
		}
	}
	return math.Exp(-x+a*math.Log(x)-gln) * h
}

// chiSquarePValue returns the probability of a chi-square statistic of at
// least chi with the given degrees of freedom.
func chiSquarePValue(chi float64, df int) float64 {
	return igamc(float64(df)/2, chi/2)
}
