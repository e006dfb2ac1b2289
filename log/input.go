// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package log

import (
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// callerDepth is the stack depth of the code calling a logging function,
// seen from caller(): caller <- log <- emit <- Info <- calling code.
const callerDepth = 4

// emit counts warnings and errors and hands the line to the writer if the
// level is enabled.
func emit(level Severity, format string, things []interface{}) {
	switch level {
	case WarningLevel:
		atomic.AddUint64(warnLogLines, 1)
	case ErrorLevel:
		atomic.AddUint64(errLogLines, 1)
	case CriticalLevel:
		atomic.AddUint64(critLogLines, 1)
	}

	if !fastcheck(level) {
		return
	}
	if things != nil {
		format = fmt.Sprintf(format, things...)
	}
	log(level, format)
}

func log(level Severity, msg string) {
	if !started.IsSet() {
		// Keep lines logged before the start, they are written once logging started.
		go func() {
			<-startedSignal
			log(level, msg)
		}()
		return
	}

	// writer is gone
	if shutdownFlag.IsSet() {
		return
	}

	if !pkgLevelsActive.IsSet() && uint32(level) < atomic.LoadUint32(logLevel) {
		return
	}

	now := time.Now()
	file, line := caller()
	if pkgLevelsActive.IsSet() && !pkgLevelEnabled(file, level) {
		return
	}

	queue(&logLine{
		msg:       msg,
		level:     level,
		timestamp: now,
		file:      file,
		line:      line,
	})
}

// caller returns the file (without the .go suffix) and line of the code
// calling the logging function.
func caller() (file string, line int) {
	_, file, line, ok := runtime.Caller(callerDepth)
	if !ok || len(file) <= 3 {
		return "", 0
	}
	return file[:len(file)-3], line
}

// pkgLevelEnabled checks the level against the package level of the file's
// package, falling back to the global level.
func pkgLevelEnabled(file string, level Severity) bool {
	pathSegments := strings.Split(file, "/")
	if len(pathSegments) < 2 {
		// file too short for package levels
		return false
	}

	pkgLevelsLock.Lock()
	sev, ok := pkgLevels[pathSegments[len(pathSegments)-2]]
	pkgLevelsLock.Unlock()
	if ok {
		return level >= sev
	}
	return uint32(level) >= atomic.LoadUint32(logLevel)
}

// queue sends the line to the writer, forcing a write if the buffer is full.
func queue(line *logLine) {
	select {
	case logBuffer <- line:
	default:
		select {
		case forceEmptyingOfBuffer <- struct{}{}:
		default:
		}
		logBuffer <- line
	}

	// wake up writer if necessary
	if logsWaitingFlag.SetToIf(false, true) {
		select {
		case logsWaiting <- struct{}{}:
		default:
		}
	}
}

func fastcheck(level Severity) bool {
	return pkgLevelsActive.IsSet() || uint32(level) >= atomic.LoadUint32(logLevel)
}

// Trace is used to log tiny steps.
func Trace(msg string) { emit(TraceLevel, msg, nil) }

// Tracef is used to log tiny steps.
func Tracef(format string, things ...interface{}) { emit(TraceLevel, format, things) }

// Debug is used to log minor errors or unexpected events. These occurrences are usually not worth mentioning in itself, but they might hint at a bigger problem.
func Debug(msg string) { emit(DebugLevel, msg, nil) }

// Debugf is used to log minor errors or unexpected events. These occurrences are usually not worth mentioning in itself, but they might hint at a bigger problem.
func Debugf(format string, things ...interface{}) { emit(DebugLevel, format, things) }

// Info is used to log mildly significant events. Should be used to inform about somewhat bigger or user affecting events that happen.
func Info(msg string) { emit(InfoLevel, msg, nil) }

// Infof is used to log mildly significant events. Should be used to inform about somewhat bigger or user affecting events that happen.
func Infof(format string, things ...interface{}) { emit(InfoLevel, format, things) }

// Warning is used to log (potentially) bad events, but nothing broke (even a little) and there is no need to panic yet.
func Warning(msg string) { emit(WarningLevel, msg, nil) }

// Warningf is used to log (potentially) bad events, but nothing broke (even a little) and there is no need to panic yet.
func Warningf(format string, things ...interface{}) { emit(WarningLevel, format, things) }

// Error is used to log errors that break or impair functionality. The task/process may have to be aborted and tried again later. The system is still operational.
func Error(msg string) { emit(ErrorLevel, msg, nil) }

// Errorf is used to log errors that break or impair functionality. The task/process may have to be aborted and tried again later. The system is still operational.
func Errorf(format string, things ...interface{}) { emit(ErrorLevel, format, things) }

// Critical is used to log events that completely break the system. Operation cannot continue. User/Admin must be informed.
func Critical(msg string) { emit(CriticalLevel, msg, nil) }

// Criticalf is used to log events that completely break the system. Operation cannot continue. User/Admin must be informed.
func Criticalf(format string, things ...interface{}) { emit(CriticalLevel, format, things) }
