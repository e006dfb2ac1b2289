// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

// Package randtest implements a suite of statistical tests that estimate
// the quality of a sequence of random values: frequency, runs, serial
// correlation, gap and entropy.
package randtest
