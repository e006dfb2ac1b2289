// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMapConversion(t *testing.T) {
	t.Parallel()

	jsonData := `{
  "a": "b",
  "c": {
    "d": "e",
    "f": "g",
    "h": {
      "i": "j",
      "k": "l",
      "m": {
        "n": "o"
      }
    }
  },
  "p": "q"
}`
	jsonBytes := []byte(jsonData)

	mapData := map[string]interface{}{
		"a":       "b",
		"p":       "q",
		"c/d":     "e",
		"c/f":     "g",
		"c/h/i":   "j",
		"c/h/k":   "l",
		"c/h/m/n": "o",
	}

	m, err := JSONToMap(jsonBytes)
	require.NoError(t, err)
	assert.Equal(t, mapData, m)

	j, err := MapToJSON(mapData)
	require.NoError(t, err)
	assert.JSONEq(t, jsonData, string(j))
}

func TestLoadFile(t *testing.T) { //nolint:paralleltest
	// reset
	resetRegistry()
	quickRegister(t, "rng/pool/capacity", OptTypeInt, 2000)
	quickRegister(t, "randtest/alpha", OptTypeFloat, 0.05)

	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("rng:\n  pool:\n    capacity: 500\nrandtest:\n  alpha: 0.01\nunknown: 1\n"), 0o600))
	require.NoError(t, LoadFile(yamlPath))
	assert.Equal(t, int64(500), GetAsInt("rng/pool/capacity", 0)())
	assert.InDelta(t, 0.01, GetAsFloat("randtest/alpha", 0)(), 1e-9)

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"rng": {"pool": {"capacity": 3000}}}`), 0o600))
	require.NoError(t, LoadFile(jsonPath))
	assert.Equal(t, int64(3000), GetAsInt("rng/pool/capacity", 0)())
	// not present anymore, back to default
	assert.InDelta(t, 0.05, GetAsFloat("randtest/alpha", 0)(), 1e-9)

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{"rng": {"pool": {"capacity": "many"}}}`), 0o600))
	assert.Error(t, LoadFile(badPath))

	assert.Error(t, LoadFile(filepath.Join(dir, "missing.json")))
}
