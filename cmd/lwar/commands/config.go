package commands

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds the demo's settings. Zero values fall back to defaults.
type Config struct {
	Listen   string `yaml:"listen"`    // serve: listen address
	Server   string `yaml:"server"`    // join: server address
	Name     string `yaml:"name"`      // join: player name
	LogLevel string `yaml:"log_level"` // logrus level name

	TickRate int `yaml:"tick_rate"` // protocol ticks per second

	MaxPlayers int `yaml:"max_players"` // serve: identity pool size
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Listen:     ":27100",
		Server:     "localhost:27100",
		Name:       "player",
		LogLevel:   "info",
		TickRate:   30,
		MaxPlayers: 64,
	}
}

// LoadConfig reads a YAML config from path over the defaults. An empty
// path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	if cfg.TickRate <= 0 {
		return Config{}, fmt.Errorf("%s: tick_rate must be positive", path)
	}
	if cfg.MaxPlayers <= 0 {
		return Config{}, fmt.Errorf("%s: max_players must be positive", path)
	}

	return cfg, nil
}

// TickInterval returns the duration of one protocol tick.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}
