// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package modules

import (
	"fmt"
	"os"

	"github.com/safing/entropyrng/log"
)

var cmdLineOperation func() error

// SetCmdLineOperation sets a command line operation to be executed after all modules started. The program shuts down as soon as the operation returns. Must be called before Start, usually from a prep function.
func SetCmdLineOperation(fn func() error) {
	cmdLineOperation = fn
}

func runCmdLineOperation(fn func() error) {
	var err error
	func() {
		defer func() {
			if x := recover(); x != nil {
				err = fmt.Errorf("panic: %v", x)
			}
		}()
		err = fn()
	}()

	if err != nil {
		SetExitStatusCode(3)
		log.Errorf("modules: command line operation failed: %s", err)
		fmt.Fprintf(os.Stderr, "command line operation failed: %s\n", err)
	}

	_ = Shutdown()
}
