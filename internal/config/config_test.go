package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithConfigDir_CreatesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := NewWithConfigDir(dir)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8088", cfg.Server.Listen)
	assert.Equal(t, 600, cfg.Upstream.TimeoutSeconds)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.Models.Table)
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
}

func TestNewWithConfigDir_LoadsExisting(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  listen: "0.0.0.0:9000"
  auth_token: "secret"
upstream:
  bedrock_base_url: "https://bedrock-runtime.eu-west-1.amazonaws.com"
models:
  inference_profile: "us."
  table:
    my-model: "anthropic.my-model-v1:0"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	cfg, err := NewWithConfigDir(dir)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
	assert.Equal(t, "secret", cfg.Server.AuthToken)
	assert.Equal(t, "https://bedrock-runtime.eu-west-1.amazonaws.com", cfg.Upstream.BedrockBaseURL)

	backend, res := cfg.Mapper().Resolve("my-model")
	assert.Equal(t, "us.anthropic.my-model-v1:0", backend)
	assert.Equal(t, ResolutionMapped, res)
}

func TestConfig_Reload(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewWithConfigDir(dir)
	require.NoError(t, err)

	content := `
models:
  table:
    freshly-added: "anthropic.fresh-v1:0"
`
	require.NoError(t, os.WriteFile(cfg.ConfigFile, []byte(content), 0o600))
	require.NoError(t, cfg.Reload())

	backend, res := cfg.Mapper().Resolve("freshly-added")
	assert.Equal(t, "anthropic.fresh-v1:0", backend)
	assert.Equal(t, ResolutionMapped, res)
}

func TestNewWithConfigDir_EmptyDir(t *testing.T) {
	_, err := NewWithConfigDir("")
	require.Error(t, err)
}
