package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yaml")
	doc := "mapPath: floor1.json\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.StrideScale)
	assert.Equal(t, 3500, cfg.WifiScanIntervalMs)
	assert.Equal(t, 1.75, cfg.Snap.MaxSnapMeters)
	assert.Equal(t, 3000, cfg.Reroute.PersistMs)
}

func TestLoadRequiresMapPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strideScale: 1.1\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/session.yaml")
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")
	cfg := &Session{MapPath: "floor1.json", StrideScale: 1.2, WifiEnabled: true}
	require.NoError(t, Save(path, cfg))

	reloaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1.2, reloaded.StrideScale)
	assert.True(t, reloaded.WifiEnabled)
}
