// Package config provides configuration loading for the player.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/gigurra/cornwall-player/cmd/common"
)

const (
	DefaultChunkMs = 50
	DefaultTickMs  = 33
)

// Config represents the player configuration file structure.
type Config struct {
	ChunkMs int   `json:"chunk_ms,omitempty"`
	TickMs  int   `json:"tick_ms,omitempty"`
	Loop    *bool `json:"loop,omitempty"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	loop := true
	return &Config{
		ChunkMs: DefaultChunkMs,
		TickMs:  DefaultTickMs,
		Loop:    &loop,
	}
}

// ConfigPath returns the path to the config file (~/.cornwall/player.json).
func ConfigPath() string {
	dir := common.ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "player.json")
}

// Load loads the config from ~/.cornwall/player.json.
// Returns default config if file doesn't exist.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom loads the config at path, filling unset fields with defaults.
func LoadFrom(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	if config.ChunkMs <= 0 {
		config.ChunkMs = defaults.ChunkMs
	}
	if config.TickMs <= 0 {
		config.TickMs = defaults.TickMs
	}
	if config.Loop == nil {
		config.Loop = defaults.Loop
	}
	return &config, nil
}

// TickInterval returns the transport tick as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickMs) * time.Millisecond
}

// Looping returns the configured initial loop state.
func (c *Config) Looping() bool {
	return c.Loop == nil || *c.Loop
}
