// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package modules

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tevino/abool"

	"github.com/safing/entropyrng/log"
)

var (
	startComplete       = abool.NewBool(false)
	startCompleteSignal = make(chan struct{})
)

// StartCompleted returns whether starting has completed.
func StartCompleted() bool {
	return startComplete.IsSet()
}

// WaitForStartCompletion returns as soon as starting has completed.
func WaitForStartCompletion() <-chan struct{} {
	return startCompleteSignal
}

// Start preps and starts all modules in dependency order. In case of an
// error, the caller is expected to call Shutdown.
func Start() error {
	modulesLock.RLock()
	defer modulesLock.RUnlock()

	if err := initDependencies(); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: failed to initialize modules: %s\n", err)
		return err
	}

	if err := parseFlags(); err != nil {
		if !errors.Is(err, ErrCleanExit) {
			fmt.Fprintf(os.Stderr, "CRITICAL ERROR: failed to parse flags: %s\n", err)
		}
		return err
	}

	// Prep functions register config options and may request a clean exit,
	// so logging only starts afterwards.
	if err := runPhase(prepPhase); err != nil {
		if !errors.Is(err, ErrCleanExit) {
			fmt.Fprintf(os.Stderr, "CRITICAL ERROR: %s\n", err)
		}
		return err
	}

	if err := log.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: failed to start logging: %s\n", err)
		return err
	}

	log.Info("modules: initiating...")
	if err := runPhase(startPhase); err != nil {
		log.Critical(err.Error())
		return err
	}

	log.Infof("modules: started %d modules", len(modules))
	if startComplete.SetToIf(false, true) {
		close(startCompleteSignal)
	}

	if cmdLineOperation != nil {
		go runCmdLineOperation(cmdLineOperation)
	}
	return nil
}

// phase is a step of the module lifecycle that runs in dependency order.
type phase struct {
	name    string
	timeout time.Duration
	ready   func(m *Module) bool
	fn      func(m *Module) func() error
	done    func(m *Module)
}

var (
	prepPhase = phase{
		name:    "prep",
		timeout: 10 * time.Second,
		ready:   (*Module).ReadyToPrep,
		fn:      func(m *Module) func() error { return m.prep },
		done:    func(m *Module) { m.Prepped.Set() },
	}
	startPhase = phase{
		name:    "start",
		timeout: 60 * time.Second,
		ready:   (*Module).ReadyToStart,
		fn:      func(m *Module) func() error { return m.start },
		done: func(m *Module) {
			m.Started.Set()
			log.Infof("modules: started %s", m.Name)
		},
	}
)

type report struct {
	module *Module
	err    error
}

// runPhase runs the phase of every module as soon as its dependencies
// finished the phase. It returns on the first error.
func runPhase(p phase) error {
	if len(modules) == 0 {
		return nil
	}

	reports := make(chan *report, len(modules))
	launched := 0
	finished := 0

	for {
		for _, m := range modules {
			if !p.ready(m) {
				continue
			}
			launched++
			m.inTransition.Set()

			go func(m *Module) {
				reports <- &report{
					module: m,
					err:    m.runCtrlFnWithTimeout(p.name+" module", p.timeout, p.fn(m)),
				}
			}(m)
		}

		// nothing in flight means the rest waits on each other
		if launched == finished {
			return errors.New("modules: dependency loop detected, cannot continue")
		}

		rep := <-reports
		rep.module.inTransition.UnSet()
		if rep.err != nil {
			if errors.Is(rep.err, ErrCleanExit) {
				return rep.err
			}
			return fmt.Errorf("modules: failed to %s module %s: %w", p.name, rep.module.Name, rep.err)
		}
		finished++
		p.done(rep.module)

		if finished == len(modules) {
			return nil
		}
	}
}
