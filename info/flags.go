// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package info

import (
	"flag"
	"fmt"

	"github.com/safing/entropyrng/modules"
)

var showVersion bool

func init() {
	modules.Register("info", prep, nil, nil)

	flag.BoolVar(&showVersion, "version", false, "show version and exit")
}

func prep() error {
	err := CheckVersion()
	if err != nil {
		return err
	}

	if showVersion {
		fmt.Println(FullVersion())
		return modules.ErrCleanExit
	}

	return nil
}
