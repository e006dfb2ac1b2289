// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package modules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/safing/entropyrng/log"
)

// Default Worker Configuration.
const (
	DefaultBackoffDuration = 2 * time.Second

	// backoffResetAfter is the time without failure after which the backoff starts over.
	backoffResetAfter = 5 * time.Minute
)

var (
	// ErrRestartNow may be returned (wrapped) by service workers to request an immediate restart.
	ErrRestartNow = errors.New("requested restart")
	errNoModule   = errors.New("missing module (is nil!)")
)

// StartWorker runs fn in a new goroutine, tracked by the module. Errors are
// logged, a canceled context only at debug level.
func (m *Module) StartWorker(name string, fn func(context.Context) error) {
	go func() {
		err := m.RunWorker(name, fn)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			log.Debugf("%s: worker %s was canceled: %s", m.Name, name, err)
		default:
			log.Errorf("%s: worker %s failed: %s", m.Name, name, err)
		}
	}()
}

// RunWorker runs fn and blocks until it returns. Panics are recovered and
// returned as *ModuleError.
func (m *Module) RunWorker(name string, fn func(context.Context) error) error {
	if m == nil {
		log.Errorf(`modules: cannot start worker "%s" with nil module`, name)
		return errNoModule
	}

	m.addWorker()
	defer m.finishWorker()

	return m.runWorker(name, fn)
}

// StartServiceWorker runs fn in a new goroutine and restarts it when it
// fails. Every consecutive failure adds backoffDuration to the wait before
// the next restart; pass 0 for DefaultBackoffDuration. Returning nil or
// context.Canceled ends the service worker.
func (m *Module) StartServiceWorker(name string, backoffDuration time.Duration, fn func(context.Context) error) {
	if m == nil {
		log.Errorf(`modules: cannot start service worker "%s" with nil module`, name)
		return
	}
	if backoffDuration == 0 {
		backoffDuration = DefaultBackoffDuration
	}

	m.addWorker()
	go m.runServiceWorker(name, &backoff{step: backoffDuration}, fn)
}

// backoff is a linear backoff that starts over after a quiet period.
type backoff struct {
	step     time.Duration
	failures int
	lastFail time.Time
}

// fail records a failure at now and returns how long to wait.
func (b *backoff) fail(now time.Time) time.Duration {
	if !b.lastFail.IsZero() && now.Sub(b.lastFail) > backoffResetAfter {
		b.failures = 0
	}
	b.failures++
	b.lastFail = now
	return time.Duration(b.failures) * b.step
}

func (m *Module) runServiceWorker(name string, b *backoff, fn func(context.Context) error) {
	defer m.finishWorker()

	for !m.IsStopping() {
		err := m.runWorker(name, fn)
		switch {
		case err == nil, errors.Is(err, context.Canceled):
			return
		case errors.Is(err, ErrRestartNow):
			continue
		}

		wait := b.fail(time.Now())
		log.Errorf("%s: service-worker %s failed (%d): %s - restarting in %s", m.Name, name, b.failures, err, wait)
		select {
		case <-time.After(wait):
		case <-m.Ctx.Done():
			return
		}
	}
}

func (m *Module) runWorker(name string, fn func(context.Context) error) (err error) {
	defer func() {
		if x := recover(); x != nil {
			me := m.NewPanicError(name, TaskTypeWorker, x)
			me.Report()
			err = me
		}
	}()

	return fn(m.Ctx)
}

func (m *Module) runCtrlFnWithTimeout(name string, timeout time.Duration, fn func() error) error {
	result := make(chan error, 1)
	go func() {
		result <- m.runCtrlFn(name, fn)
	}()

	select {
	case err := <-result:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("%s timed out after %s", name, timeout)
	}
}

func (m *Module) runCtrlFn(name string, fn func() error) (err error) {
	if fn == nil {
		return nil
	}

	defer func() {
		if x := recover(); x != nil {
			me := m.NewPanicError(name, TaskTypeControl, x)
			me.Report()
			err = me
		}
	}()

	return fn()
}
