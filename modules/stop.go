// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package modules

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/tevino/abool"

	"github.com/safing/entropyrng/log"
)

var (
	shutdownSignal         = make(chan struct{})
	shutdownSignalClosed   = abool.NewBool(false)
	shutdownCompleteSignal = make(chan struct{})
)

// ErrShutdownInProgress is returned by Shutdown if it was already called.
var ErrShutdownInProgress = errors.New("shutdown already initiated")

// IsShuttingDown returns whether the global shutdown is in progress.
func IsShuttingDown() bool {
	return shutdownSignalClosed.IsSet()
}

// ShuttingDown returns a channel read on the global shutdown signal.
func ShuttingDown() <-chan struct{} {
	return shutdownSignal
}

// Shutdown stops all modules in the correct order. Errors of individual modules do not prevent other modules from stopping.
func Shutdown() error {
	if !shutdownSignalClosed.SetToIf(false, true) {
		return ErrShutdownInProgress
	}
	close(shutdownSignal)

	if startComplete.IsSet() {
		log.Warning("modules: starting shutdown...")
	} else {
		log.Warning("modules: aborting, shutting down...")
	}

	modulesLock.RLock()
	err := stopModules()
	modulesLock.RUnlock()

	if err != nil {
		log.Errorf("modules: shutdown completed with error: %s", err)
		if CurrentExitStatusCode() == 0 {
			SetExitStatusCode(1)
		}
	} else {
		log.Info("modules: shutdown complete")
	}

	log.Shutdown()
	close(shutdownCompleteSignal)
	return err
}

func stopModules() error {
	var result *multierror.Error
	reports := make(chan *report)
	execCnt := 0
	reportCnt := 0

	for {
		// find modules to stop
		for _, m := range modules {
			if m.ReadyToStop() {
				execCnt++
				m.inTransition.Set()

				execM := m
				go func() {
					reports <- &report{
						module: execM,
						err:    execM.shutdown(),
					}
				}()
			}
		}

		// nothing running and nothing left to stop
		if execCnt == reportCnt {
			break
		}

		// wait for reports
		rep := <-reports
		rep.module.inTransition.UnSet()
		// mark as stopped even on error, so that dependencies can continue to stop
		rep.module.Stopped.Set()
		reportCnt++
		if rep.err != nil {
			result = multierror.Append(result, fmt.Errorf("could not stop module %s: %w", rep.module.Name, rep.err))
		} else {
			log.Infof("modules: stopped %s", rep.module.Name)
		}
	}

	// cancel workers of modules that never started
	for _, m := range modules {
		if !m.Started.IsSet() {
			m.shutdownFlag.Set()
			m.cancelCtx()
		}
	}

	return result.ErrorOrNil()
}
