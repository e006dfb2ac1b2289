// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	output     io.Writer = os.Stdout
	outputLock sync.Mutex
)

// SetOutput replaces the writer log lines are written to.
func SetOutput(w io.Writer) {
	outputLock.Lock()
	defer outputLock.Unlock()
	output = w
}

func writeLine(line *logLine, duplicates uint64) {
	outputLock.Lock()
	defer outputLock.Unlock()

	_, _ = fmt.Fprintln(output, formatLine(line, duplicates, !noColorFlag && output == os.Stdout))
}

func startWriter() {
	shutdownWaitGroup.Add(1)
	go writer()
}

func writer() {
	defer shutdownWaitGroup.Done()

	var line *logLine
	var lastLine *logLine
	var duplicates uint64

	flush := func() {
		if lastLine != nil {
			writeLine(lastLine, duplicates)
			lastLine = nil
			duplicates = 0
		}
	}

	for {
		// wait until logs need to be processed
		select {
		case <-logsWaiting:
			logsWaitingFlag.UnSet()
		case <-forceEmptyingOfBuffer:
		case <-shutdownSignal:
			// write remaining lines and exit
			for {
				select {
				case line = <-logBuffer:
					if lastLine != nil && line.msg == lastLine.msg && line.level == lastLine.level {
						duplicates++
						continue
					}
					flush()
					lastLine = line
				case <-time.After(10 * time.Millisecond):
					flush()
					writeLine(&logLine{
						msg:       "===== LOGGING STOPPED =====",
						level:     WarningLevel,
						timestamp: time.Now(),
					}, 0)
					return
				}
			}
		}

		// write all the logs!
	writeLoop:
		for {
			select {
			case line = <-logBuffer:
				// collapse identical consecutive lines
				if lastLine != nil && line.msg == lastLine.msg && line.level == lastLine.level && line.file == lastLine.file {
					duplicates++
					continue
				}
				flush()
				lastLine = line
			default:
				flush()
				break writeLoop
			}
		}
	}
}
