// Package config owns the rockbridge configuration file and the model
// mapping table derived from it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigDirName = ".rockbridge"
	configFileName       = "config.yaml"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Listen    string `yaml:"listen"`     // address the proxy binds, e.g. "127.0.0.1:8088"
	AuthToken string `yaml:"auth_token"` // static bearer token clients must present; empty disables the check
}

// UpstreamConfig configures the two backends the proxy can forward to.
type UpstreamConfig struct {
	BedrockBaseURL   string `yaml:"bedrock_base_url"`   // e.g. "https://bedrock-runtime.us-east-1.amazonaws.com"
	BedrockToken     string `yaml:"bedrock_token"`      // bearer token for the Bedrock runtime API
	AnthropicBaseURL string `yaml:"anthropic_base_url"` // native endpoint for non-Bedrock models
	AnthropicToken   string `yaml:"anthropic_token"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"` // per-request deadline; 0 keeps the default
	MaxFrameBytes    int    `yaml:"max_frame_bytes"` // per-frame safety bound; 0 keeps the default
}

// ModelsConfig holds the public-model to backend-model table. InferenceProfile
// is an optional routing prefix ("us.", "global.") applied to mapped ids.
type ModelsConfig struct {
	InferenceProfile string            `yaml:"inference_profile"`
	Table            map[string]string `yaml:"table"`
}

// LogConfig configures process logging.
type LogConfig struct {
	Level      string `yaml:"level"` // trace, debug, info, warn, error
	File       string `yaml:"file"`  // empty logs to stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Config is the full configuration file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Models   ModelsConfig   `yaml:"models"`
	Log      LogConfig      `yaml:"log"`

	ConfigFile string `yaml:"-"`

	mu sync.RWMutex
}

// DefaultConfigDir returns ~/.rockbridge.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, defaultConfigDirName), nil
}

// New loads the configuration from the default directory, creating a default
// file on first run.
func New() (*Config, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return nil, err
	}
	return NewWithConfigDir(dir)
}

// NewWithConfigDir loads the configuration from a custom directory.
func NewWithConfigDir(configDir string) (*Config, error) {
	if configDir == "" {
		return nil, fmt.Errorf("config directory is empty")
	}
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	cfg := &Config{
		ConfigFile: filepath.Join(configDir, configFileName),
	}
	if err := cfg.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg.applyDefaults()
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = "127.0.0.1:8088"
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 600
	}
	if c.Models.Table == nil {
		c.Models.Table = DefaultModelTable()
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
}

func (c *Config) load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Reload re-reads the configuration file in place.
func (c *Config) Reload() error {
	if err := c.load(); err != nil {
		return err
	}
	c.applyDefaults()
	return nil
}

// Save writes the configuration back to its file.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(c.ConfigFile, data, 0o600)
}

// Mapper builds a read-only model mapper from the current table snapshot.
func (c *Config) Mapper() *Mapper {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return NewMapper(c.Models.Table, c.Models.InferenceProfile)
}
