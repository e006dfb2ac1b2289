// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package log

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	sync.Mutex
	buf bytes.Buffer
}

func (sb *syncBuffer) Write(p []byte) (int, error) {
	sb.Lock()
	defer sb.Unlock()
	return sb.buf.Write(p)
}

func (sb *syncBuffer) String() string {
	sb.Lock()
	defer sb.Unlock()
	return sb.buf.String()
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for _, level := range []Severity{TraceLevel, DebugLevel, InfoLevel, WarningLevel, ErrorLevel, CriticalLevel} {
		assert.Equal(t, level, ParseLevel(level.Name()), "level %s should round-trip", level)
	}
	assert.Equal(t, Severity(0), ParseLevel("verbose"))
	assert.Equal(t, "NONE", Severity(0xFF).String())
}

// test waiting
func TestLogging(t *testing.T) {
	out := &syncBuffer{}
	SetOutput(out)

	// logged before start, must still show up
	Warning("before start")

	err := Start()
	require.NoError(t, err)

	// set levels (static random)
	SetLogLevel(WarningLevel)
	SetLogLevel(InfoLevel)
	SetLogLevel(ErrorLevel)
	SetLogLevel(DebugLevel)
	SetLogLevel(CriticalLevel)
	SetLogLevel(TraceLevel)
	assert.Equal(t, TraceLevel, GetLogLevel())

	// log
	Trace("Trace")
	Debug("Debug")
	Info("Info")
	Warning("Warning")
	Error("Error")
	Critical("Critical")

	// logf
	Tracef("Trace %s", "f")
	Debugf("Debug %s", "f")
	Infof("Info %s", "f")
	Warningf("Warning %s", "f")
	Errorf("Error %s", "f")
	Criticalf("Critical %s", "f")

	// play with levels
	SetLogLevel(CriticalLevel)
	Info("suppressed info")
	SetLogLevel(TraceLevel)

	// package levels
	SetPkgLevels(map[string]Severity{"log": ErrorLevel})
	Info("suppressed by package level")
	UnSetPkgLevels()

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Critical f")
	}, time.Second, 5*time.Millisecond)

	Shutdown()

	logged := out.String()
	assert.Contains(t, logged, "before start")
	assert.Contains(t, logged, "TRAC")
	assert.Contains(t, logged, "Warning f")
	assert.NotContains(t, logged, "suppressed info")
	assert.NotContains(t, logged, "suppressed by package level")
	assert.Contains(t, logged, "LOGGING STOPPED")
	assert.GreaterOrEqual(t, TotalWarningLogLines(), uint64(3))
	assert.GreaterOrEqual(t, TotalErrorLogLines(), uint64(2))
	assert.GreaterOrEqual(t, TotalCriticalLogLines(), uint64(2))
}

func TestFormatLine(t *testing.T) {
	ts := time.Date(2023, 11, 14, 22, 13, 20, 5e6, time.UTC)
	line := formatLine(&logLine{
		msg:       "pool ready",
		level:     InfoLevel,
		timestamp: ts,
		file:      "/src/entropyrng/rng/service",
		line:      42,
	}, 2, false)
	assert.Regexp(t, `^231114 22:13:20\.005 ng/service:042 ▶ INFO \d{3} \[3x\] pool ready$`, line)

	line = formatLine(&logLine{msg: "no caller", level: CriticalLevel, timestamp: ts}, 0, false)
	assert.Regexp(t, `^231114 22:13:20\.005 \? ▶ CRIT \d{3} no caller$`, line)
}
