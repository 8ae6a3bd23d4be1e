package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBytes_HumanReadable(t *testing.T) {
	assert.Equal(t, "1.0 kB", formatBytes(1000))
	assert.Equal(t, "0 B", formatBytes(0))
}

func TestLoadJSON_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	type payload struct {
		Name string `json:"name"`
	}
	data, err := json.Marshal(payload{Name: "group-1"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	var got payload
	require.NoError(t, loadJSON(path, &got))
	assert.Equal(t, "group-1", got.Name)
}

func TestLoadJSON_MissingFileReturnsErr(t *testing.T) {
	var v map[string]any
	err := loadJSON(filepath.Join(t.TempDir(), "missing.json"), &v)
	assert.Error(t, err)
}
