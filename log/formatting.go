// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package log

import (
	"fmt"
	"strings"
)

var counter uint16

const (
	maxCount   uint16 = 999
	rightArrow        = "▶"

	timeFormat = "060102 15:04:05.000"
	// fileTail is the amount of trailing characters of the file path that are shown.
	fileTail = 10
)

var severityTags = map[Severity]string{
	TraceLevel:    "TRAC",
	DebugLevel:    "DEBU",
	InfoLevel:     "INFO",
	WarningLevel:  "WARN",
	ErrorLevel:    "ERRO",
	CriticalLevel: "CRIT",
}

func (s Severity) String() string {
	if tag, ok := severityTags[s]; ok {
		return tag
	}
	return "NONE"
}

// formatLine formats a line as
// "YYMMDD hh:mm:ss.mmm file:line ▶ LEVL 001 [2x] message".
// Only called by the writer goroutine.
func formatLine(line *logLine, duplicates uint64, useColor bool) string {
	counter++
	if counter > maxCount {
		counter = 1
	}

	var b strings.Builder
	if useColor {
		b.WriteString(line.level.color())
	}
	b.WriteString(line.timestamp.Format(timeFormat))
	if line.line == 0 {
		b.WriteString(" ?")
	} else {
		file := line.file
		if len(file) > fileTail {
			file = file[len(file)-fileTail:]
		}
		fmt.Fprintf(&b, " %s:%03d", file, line.line)
	}
	fmt.Fprintf(&b, " %s %s %03d", rightArrow, line.level, counter)
	if duplicates > 0 {
		fmt.Fprintf(&b, " [%dx]", duplicates+1)
	}
	if useColor {
		b.WriteString(endColor())
	}
	b.WriteString(" ")
	b.WriteString(line.msg)
	return b.String()
}
