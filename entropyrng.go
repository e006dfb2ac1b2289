// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/davecgh/go-spew/spew"

	"github.com/safing/entropyrng/api"
	"github.com/safing/entropyrng/cli"
	"github.com/safing/entropyrng/info"
	"github.com/safing/entropyrng/rng"
	"github.com/safing/entropyrng/run"
)

func main() {
	// Set Info
	info.Set("EntropyRNG", "0.1.0", "GPLv3")

	// Register modules
	service := rng.NewService(rng.NewHostSchedulerSource())
	api.NewServer(service)
	cli.Register(service)

	// Print the service status on SIGUSR1
	dump := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	run.SetStatusFunc(func() string {
		status, err := service.Status()
		if err != nil {
			return err.Error()
		}
		return status.Pool.String() + "\n" + dump.Sdump(status)
	})

	// Run
	os.Exit(run.Run())
}
