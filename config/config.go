// Package config loads and validates the settings a client.Client needs
// to dial a provider: host/port, timeouts, and optional TLS.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emberplus-go/goember/emberrors"
	"github.com/emberplus-go/goember/internal/tlsutil"
)

// maxFileSize bounds how large a config file this loader will read.
const maxFileSize = 1 << 20 // 1MB

// Config holds everything needed to connect to and converse with an
// Ember+ provider.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	RequestTimeout    time.Duration `yaml:"request_timeout"`
	KeepAliveInterval time.Duration `yaml:"keepalive_interval"`
	KeepAliveTimeout  time.Duration `yaml:"keepalive_timeout"`

	TLS tlsutil.ClientConfig `yaml:"tls"`
}

// Default returns a Config with the conventional Ember+ TCP port and
// timeouts matched to typical provider keep-alive cadences.
func Default() Config {
	return Config{
		Host:              "localhost",
		Port:              9000,
		RequestTimeout:    3 * time.Second,
		KeepAliveInterval: 2 * time.Second,
		KeepAliveTimeout:  10 * time.Second,
	}
}

// Load reads a YAML file into a Config seeded from Default, then applies
// EMBER_*-prefixed environment overrides on top.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, emberrors.WrapInvalid(err, "config", "Load", "parse "+path)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, emberrors.WrapInvalid(err, "config", "readFile", "stat "+path)
	}
	if !info.Mode().IsRegular() {
		return nil, emberrors.WrapInvalid(emberrors.ErrInvalidRequest, "config", "readFile", path+" is not a regular file")
	}
	if info.Size() > maxFileSize {
		return nil, emberrors.WrapInvalid(emberrors.ErrInvalidRequest, "config", "readFile", fmt.Sprintf("%s exceeds %d bytes", path, maxFileSize))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, emberrors.WrapInvalid(err, "config", "readFile", "read "+path)
	}
	return data, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EMBER_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("EMBER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv("EMBER_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv("EMBER_KEEPALIVE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.KeepAliveInterval = d
		}
	}
	if v := os.Getenv("EMBER_KEEPALIVE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.KeepAliveTimeout = d
		}
	}
	if v := os.Getenv("EMBER_TLS_ENABLED"); v != "" {
		cfg.TLS.Enabled = v == "true" || v == "1"
	}
}

// Validate rejects a Config that cannot be used to dial a provider.
func (c Config) Validate() error {
	if c.Host == "" {
		return emberrors.WrapInvalid(emberrors.ErrInvalidRequest, "config", "Validate", "host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return emberrors.WrapInvalid(emberrors.ErrInvalidRequest, "config", "Validate", fmt.Sprintf("port %d out of range", c.Port))
	}
	if c.RequestTimeout <= 0 {
		return emberrors.WrapInvalid(emberrors.ErrInvalidRequest, "config", "Validate", "request_timeout must be positive")
	}
	if c.KeepAliveInterval > 0 && c.KeepAliveTimeout > 0 && c.KeepAliveTimeout <= c.KeepAliveInterval {
		return emberrors.WrapInvalid(emberrors.ErrInvalidRequest, "config", "Validate", "keepalive_timeout must exceed keepalive_interval")
	}
	return nil
}

// Addr formats the host:port pair for net.Dial.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
