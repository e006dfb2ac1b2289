// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/entropyrng/entropy"
	"github.com/safing/entropyrng/randtest"
)

func writeValues(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "values.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestValidateFile(t *testing.T) {
	t.Parallel()

	path := writeValues(t, strings.Repeat("1024\n", 4096))

	var out bytes.Buffer
	code, err := ValidateFile(path, "text", &out)
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "RANDOMNESS QUALITY ANALYSIS (4096 values)")
	assert.Contains(t, out.String(), "serial_correlation: ERROR")
	assert.Contains(t, out.String(), "VERDICT: POOR")

	out.Reset()
	code, err = ValidateFile(path, "json", &out)
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	var report randtest.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 4, report.Summary.Total)

	_, err = ValidateFile(path, "yaml", &out)
	assert.Error(t, err)

	_, err = ValidateFile(filepath.Join(t.TempDir(), "missing.txt"), "text", &out)
	assert.Error(t, err)

	_, err = ValidateFile(writeValues(t, "1 2 three"), "text", &out)
	assert.Error(t, err)
}

func TestValidateFileSorted(t *testing.T) {
	t.Parallel()

	// 0..2047, 16 times
	var b strings.Builder
	for i := 0; i < 16; i++ {
		for v := 0; v < 2048; v++ {
			b.WriteString(strconv.Itoa(v))
			b.WriteByte(',')
		}
	}

	var out bytes.Buffer
	code, err := ValidateFile(writeValues(t, "["+strings.TrimSuffix(b.String(), ",")+"]"), "text", &out)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "VERDICT: ACCEPTABLE")
}

type testGenerator struct {
	ready  bool
	values []int
}

func (g *testGenerator) WaitUntilReady(ctx context.Context, poll time.Duration, progress func(entropy.Status)) (entropy.Status, error) {
	status := entropy.Status{
		Requirements: entropy.Requirements{MinMouseSamples: 5},
	}
	progress(status)
	if !g.ready {
		<-ctx.Done()
		return status, ctx.Err()
	}
	status.Ready = true
	return status, nil
}

func (g *testGenerator) Generate(count int) ([]int, error) {
	return g.values[:count], nil
}

func TestPrintValues(t *testing.T) {
	t.Parallel()

	gen := &testGenerator{ready: true, values: []int{7, 2047, 0}}

	var out, status bytes.Buffer
	require.NoError(t, PrintValues(context.Background(), gen, 3, "text", &out, &status))
	assert.Equal(t, "7\n2047\n0\n", out.String())
	assert.Contains(t, status.String(), "missing: 0/5 mouse samples")

	out.Reset()
	require.NoError(t, PrintValues(context.Background(), gen, 2, "json", &out, &status))
	assert.Equal(t, "[7,2047]\n", out.String())

	// canceled while waiting
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out.Reset()
	require.NoError(t, PrintValues(ctx, &testGenerator{}, 3, "text", &out, &status))
	assert.Empty(t, out.String())
}
