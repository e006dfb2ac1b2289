// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package log

import "flag"

var (
	logLevelFlag     string
	pkgLogLevelsFlag string
	noColorFlag      bool
)

func init() {
	flag.StringVar(&logLevelFlag, "log", "", "set log level to [trace|debug|info|warning|error|critical]")
	flag.StringVar(&pkgLogLevelsFlag, "plog", "", "set log level of packages: rng=trace,api=debug")
	flag.BoolVar(&noColorFlag, "no-color", false, "disable log colors")
}
