package config

import (
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewWithConfigDir(dir)
	require.NoError(t, err)

	w, err := NewWatcher(cfg)
	require.NoError(t, err)

	var reloads atomic.Int32
	w.AddCallback(func(*Config) { reloads.Add(1) })
	require.NoError(t, w.Start())
	defer w.Stop()

	content := `
models:
  table:
    hot-added: "anthropic.hot-v1:0"
`
	// Keep the modtime strictly after the one captured in Start.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.WriteFile(cfg.ConfigFile, []byte(content), 0o600))

	require.Eventually(t, func() bool {
		return reloads.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	backend, res := cfg.Mapper().Resolve("hot-added")
	assert.Equal(t, "anthropic.hot-v1:0", backend)
	assert.Equal(t, ResolutionMapped, res)
}

func TestWatcher_StopCancelsPendingReload(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewWithConfigDir(dir)
	require.NoError(t, err)

	w, err := NewWatcher(cfg)
	require.NoError(t, err)

	var reloads atomic.Int32
	w.AddCallback(func(*Config) { reloads.Add(1) })
	require.NoError(t, w.Start())

	// Touch the file so a debounce timer is armed, then stop before it
	// fires. The change must not be applied after Stop.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.WriteFile(cfg.ConfigFile, []byte("log:\n  level: debug\n"), 0o600))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, w.Stop())

	time.Sleep(debounceDelay + 200*time.Millisecond)
	assert.Zero(t, reloads.Load())
}

func TestWatcher_StopTwice(t *testing.T) {
	cfg, err := NewWithConfigDir(t.TempDir())
	require.NoError(t, err)

	w, err := NewWatcher(cfg)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
