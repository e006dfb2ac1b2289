// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package modules

import "sync/atomic"

var exitStatusCode int32

// SetExitStatusCode sets the exit code that the program shall return to the host after shutdown.
func SetExitStatusCode(n int) {
	atomic.StoreInt32(&exitStatusCode, int32(n))
}

// GetExitStatusCode waits for the shutdown to complete and then returns the exit code.
func GetExitStatusCode() int {
	<-shutdownCompleteSignal
	return CurrentExitStatusCode()
}

// CurrentExitStatusCode returns the exit code without waiting for the shutdown.
func CurrentExitStatusCode() int {
	return int(atomic.LoadInt32(&exitStatusCode))
}
