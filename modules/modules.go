// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package modules

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tevino/abool"

	"github.com/safing/entropyrng/log"
)

var (
	modulesLock sync.RWMutex
	modules     = make(map[string]*Module)

	// ErrCleanExit is returned by Start() when the program exits before
	// starting, for example for the "-help" or "-version" flag or a command
	// line operation that finished during prep.
	ErrCleanExit = errors.New("clean exit requested")

	moduleStopTimeout = 3 * time.Second
)

// Module is a unit of the program lifecycle. Modules are prepped and started
// after their dependencies and stopped before them.
type Module struct {
	Name string

	// Ctx is canceled when the module shuts down. Workers receive it.
	Ctx context.Context

	// lifecycle state
	Prepped      *abool.AtomicBool
	Started      *abool.AtomicBool
	Stopped      *abool.AtomicBool
	inTransition *abool.AtomicBool

	prep  func() error
	start func() error
	stop  func() error

	cancelCtx    func()
	shutdownFlag *abool.AtomicBool
	workerGroup  sync.WaitGroup
	workerCnt    int32

	depNames   []string
	depModules []*Module
	depReverse []*Module
}

// IsStopping returns whether the module has started shutting down.
func (m *Module) IsStopping() bool {
	return m.shutdownFlag.IsSet()
}

// Stopping returns a channel that is closed when the module shuts down.
func (m *Module) Stopping() <-chan struct{} {
	return m.Ctx.Done()
}

// RunningWorkers returns the amount of workers currently running.
func (m *Module) RunningWorkers() int32 {
	return atomic.LoadInt32(&m.workerCnt)
}

func (m *Module) addWorker() {
	atomic.AddInt32(&m.workerCnt, 1)
	m.workerGroup.Add(1)
}

func (m *Module) finishWorker() {
	atomic.AddInt32(&m.workerCnt, -1)
	m.workerGroup.Done()
}

// shutdown cancels the module context, waits for the workers and then calls
// the stop function.
func (m *Module) shutdown() error {
	m.shutdownFlag.Set()
	m.cancelCtx()

	workersDone := make(chan struct{})
	go func() {
		m.workerGroup.Wait()
		close(workersDone)
	}()
	select {
	case <-workersDone:
	case <-time.After(moduleStopTimeout):
		log.Warningf(
			"modules: timed out while waiting for %d workers of module %s to finish",
			m.RunningWorkers(), m.Name,
		)
	}

	return m.runCtrlFnWithTimeout("stop module", 10*time.Second, m.stop)
}

// Register registers a new module. All control functions are optional.
// stop is called after all workers of the module finished.
func Register(name string, prep, start, stop func() error, dependencies ...string) *Module {
	m := initNewModule(name, prep, start, stop, dependencies...)

	modulesLock.Lock()
	defer modulesLock.Unlock()
	modules[name] = m
	return m
}

func initNewModule(name string, prep, start, stop func() error, dependencies ...string) *Module {
	ctx, cancelCtx := context.WithCancel(context.Background())
	return &Module{
		Name:         name,
		Ctx:          ctx,
		Prepped:      abool.New(),
		Started:      abool.New(),
		Stopped:      abool.New(),
		inTransition: abool.New(),
		prep:         prep,
		start:        start,
		stop:         stop,
		cancelCtx:    cancelCtx,
		shutdownFlag: abool.New(),
		depNames:     dependencies,
	}
}

// initDependencies links the registered modules by their dependency names.
func initDependencies() error {
	for _, m := range modules {
		m.depModules = nil
		m.depReverse = nil
	}

	for _, m := range modules {
		for _, depName := range m.depNames {
			dep, ok := modules[depName]
			if !ok {
				return fmt.Errorf("module %s declares dependency %q, but this module has not been registered", m.Name, depName)
			}
			m.depModules = append(m.depModules, dep)
			dep.depReverse = append(dep.depReverse, m)
		}
	}
	return nil
}

// allSet returns whether the flag picked from every module is set.
func allSet(mods []*Module, flag func(*Module) *abool.AtomicBool) bool {
	for _, m := range mods {
		if !flag(m).IsSet() {
			return false
		}
	}
	return true
}

// ReadyToPrep returns whether all dependencies are prepped and this module is not.
func (m *Module) ReadyToPrep() bool {
	if m.inTransition.IsSet() || m.Prepped.IsSet() {
		return false
	}
	return allSet(m.depModules, func(dep *Module) *abool.AtomicBool { return dep.Prepped })
}

// ReadyToStart returns whether all dependencies are started and this module is not.
func (m *Module) ReadyToStart() bool {
	if m.inTransition.IsSet() || m.Started.IsSet() {
		return false
	}
	return allSet(m.depModules, func(dep *Module) *abool.AtomicBool { return dep.Started })
}

// ReadyToStop returns whether this module is running and no started module
// depending on it is still running.
func (m *Module) ReadyToStop() bool {
	if !m.Started.IsSet() || m.inTransition.IsSet() || m.Stopped.IsSet() {
		return false
	}

	for _, revDep := range m.depReverse {
		if revDep.Started.IsSet() && !revDep.Stopped.IsSet() {
			return false
		}
	}
	return true
}
