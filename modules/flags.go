// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package modules

import "flag"

// HelpFlag is set when the -help flag was given.
var HelpFlag bool

func init() {
	flag.BoolVar(&HelpFlag, "help", false, "print help")
}

func parseFlags() error {
	// parse flags
	if !flag.Parsed() {
		flag.Parse()
	}

	if HelpFlag {
		flag.Usage()
		return ErrCleanExit
	}

	return nil
}
