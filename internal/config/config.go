package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Limits struct {
		MaxConnections int `yaml:"maxConnections"`
		MaxRoomSize    int `yaml:"maxRoomSize"`
	} `yaml:"limits"`
}

// Capacity defaults; both are policy constants, overridable per deployment.
const (
	DefaultMaxConnections = 2000
	DefaultMaxRoomSize    = 60
)

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// MaxConnections returns the configured connection ceiling or the default.
func (c Config) MaxConnections() int {
	if c.Limits.MaxConnections > 0 {
		return c.Limits.MaxConnections
	}
	return DefaultMaxConnections
}

// MaxRoomSize returns the configured per-room cap or the default.
func (c Config) MaxRoomSize() int {
	if c.Limits.MaxRoomSize > 0 {
		return c.Limits.MaxRoomSize
	}
	return DefaultMaxRoomSize
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
