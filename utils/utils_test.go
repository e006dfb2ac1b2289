// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirectory(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	dir := filepath.Join(base, "a", "b")
	require.NoError(t, EnsureDirectory(dir, 0o700))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	if runtime.GOOS != "windows" {
		require.NoError(t, EnsureDirectory(dir, 0o750))
		info, err = os.Stat(dir)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
	}

	file := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	assert.Error(t, EnsureDirectory(file, 0o700))

	require.NoError(t, EnsureParentDirectory(filepath.Join(base, "c", "history.db"), 0o700))
	assert.DirExists(t, filepath.Join(base, "c"))
}

func TestSafeFirst16Bytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "<empty>", SafeFirst16Bytes(nil))
	line := SafeFirst16Bytes([]byte(`{"x":1}`))
	assert.True(t, strings.HasPrefix(line, "7b 22 78 22 3a 31 7d "), line)
	assert.Contains(t, line, `|{"x":1}|`)
	assert.NotContains(t, line, "\n")
}
