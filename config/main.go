// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package config

import (
	"flag"

	"github.com/safing/entropyrng/modules"
)

var configFileFlag string

func init() {
	flag.StringVar(&configFileFlag, "config", "", "load configuration from a JSON or YAML file")

	modules.Register("config", nil, start, nil)
}

func start() error {
	if configFileFlag == "" {
		return nil
	}
	return LoadFile(configFileFlag)
}
