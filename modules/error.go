// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package modules

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Task types and severities of module errors.
const (
	TaskTypeWorker  = "worker"
	TaskTypeControl = "module-control"

	SeverityPanic = "panic"
)

var errorReportingChannel chan *ModuleError

// ModuleError is a recovered panic of a worker or control function.
type ModuleError struct {
	Message string

	ModuleName string
	TaskName   string
	TaskType   string
	Severity   string

	PanicValue interface{}
	StackTrace string
}

// NewPanicError wraps a recovered panic value, including the stack trace.
func (m *Module) NewPanicError(taskName, taskType string, panicValue interface{}) *ModuleError {
	return &ModuleError{
		Message:    fmt.Sprintf("panic: %v", panicValue),
		ModuleName: m.Name,
		TaskName:   taskName,
		TaskType:   taskType,
		Severity:   SeverityPanic,
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
	}
}

func (me *ModuleError) Error() string {
	return me.Message
}

// Report sends the error to the reporting channel without blocking.
func (me *ModuleError) Report() {
	if errorReportingChannel == nil {
		return
	}
	select {
	case errorReportingChannel <- me:
	default:
	}
}

// IsPanic returns whether err is a recovered panic, and the panic if so.
func IsPanic(err error) (bool, *ModuleError) {
	var me *ModuleError
	if errors.As(err, &me) && me.Severity == SeverityPanic {
		return true, me
	}
	return false, nil
}

// SetErrorReportingChannel sets the channel recovered panics are reported to.
// Only the first call has an effect.
func SetErrorReportingChannel(reportingChannel chan *ModuleError) {
	if errorReportingChannel == nil {
		errorReportingChannel = reportingChannel
	}
}
