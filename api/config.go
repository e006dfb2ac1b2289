// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package api

import (
	"flag"

	"github.com/safing/entropyrng/config"
	"github.com/safing/entropyrng/history"
	"github.com/safing/entropyrng/log"
)

// Config Keys.
const (
	CfgListenAddressKey = "api/listen"
	CfgHistoryPathKey    = "history/path"
	CfgHistoryBackendKey = "history/backend"

	defaultListenAddress = "127.0.0.1:8117"
)

var (
	listenAddressFlag string

	listenAddress config.StringOption
	historyPath    config.StringOption
	historyBackend config.StringOption
)

func init() {
	flag.StringVar(&listenAddressFlag, "api-address", "", "override api listen address")
}

func getDefaultListenAddress() string {
	// check if overridden
	if listenAddressFlag != "" {
		return listenAddressFlag
	}
	return defaultListenAddress
}

func registerConfig() error {
	if listenAddressFlag != "" {
		log.Warning("api: api/listen default config is being overridden by -api-address flag")
	}

	err := config.Register(&config.Option{
		Name:            "API Address",
		Key:             CfgListenAddressKey,
		Description:     "Defines the IP address and port of the HTTP API and the capture page.",
		OptType:         config.OptTypeString,
		ExpertiseLevel:  config.ExpertiseLevelDeveloper,
		DefaultValue:    getDefaultListenAddress(),
		ValidationRegex: "^([0-9]{1,3}.[0-9]{1,3}.[0-9]{1,3}.[0-9]{1,3}:[0-9]{1,5}|\\[[:0-9A-Fa-f]+\\]:[0-9]{1,5}|localhost:[0-9]{1,5})$",
		RequiresRestart: true,
	})
	if err != nil {
		return err
	}
	listenAddress = config.Concurrent.GetAsString(CfgListenAddressKey, getDefaultListenAddress())

	err = config.Register(&config.Option{
		Name:            "History Database",
		Key:             CfgHistoryPathKey,
		Description:     "Path of the database storing generated values. Values are only kept in memory if empty.",
		OptType:         config.OptTypeString,
		ExpertiseLevel:  config.ExpertiseLevelExpert,
		DefaultValue:    "",
		RequiresRestart: true,
	})
	if err != nil {
		return err
	}
	historyPath = config.Concurrent.GetAsString(CfgHistoryPathKey, "")

	err = config.Register(&config.Option{
		Name:            "History Backend",
		Key:             CfgHistoryBackendKey,
		Description:     "Database used for the history. bbolt keeps a single file at the history path, badger a directory.",
		OptType:         config.OptTypeString,
		ExpertiseLevel:  config.ExpertiseLevelExpert,
		DefaultValue:    history.BackendBBolt,
		ValidationRegex: "^(" + history.BackendBBolt + "|" + history.BackendBadger + ")$",
		RequiresRestart: true,
	})
	if err != nil {
		return err
	}
	historyBackend = config.Concurrent.GetAsString(CfgHistoryBackendKey, history.BackendBBolt)

	return nil
}
