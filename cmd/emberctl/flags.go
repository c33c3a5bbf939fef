package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration for the demo binary.
type CLIConfig struct {
	Host              string
	Port              int
	RequestTimeout    time.Duration
	KeepAliveInterval time.Duration
	KeepAliveTimeout  time.Duration
	TLSEnabled        bool
	LogLevel          string
	LogFormat         string
	ShowVersion       bool
	ShowHelp          bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.Host, "host",
		getEnv("EMBER_HOST", "localhost"),
		"Provider host (env: EMBER_HOST)")

	flag.IntVar(&cfg.Port, "port",
		getEnvInt("EMBER_PORT", 9000),
		"Provider port (env: EMBER_PORT)")

	flag.DurationVar(&cfg.RequestTimeout, "request-timeout",
		getEnvDuration("EMBER_REQUEST_TIMEOUT", 3*time.Second),
		"Per-request timeout (env: EMBER_REQUEST_TIMEOUT)")

	flag.DurationVar(&cfg.KeepAliveInterval, "keepalive-interval",
		getEnvDuration("EMBER_KEEPALIVE_INTERVAL", 10*time.Second),
		"Keep-alive request interval (env: EMBER_KEEPALIVE_INTERVAL)")

	flag.DurationVar(&cfg.KeepAliveTimeout, "keepalive-timeout",
		getEnvDuration("EMBER_KEEPALIVE_TIMEOUT", 30*time.Second),
		"Keep-alive response deadline (env: EMBER_KEEPALIVE_TIMEOUT)")

	flag.BoolVar(&cfg.TLSEnabled, "tls",
		getEnvBool("EMBER_TLS_ENABLED", false),
		"Dial over TLS (env: EMBER_TLS_ENABLED)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("EMBER_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: EMBER_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("EMBER_LOG_FORMAT", "text"),
		"Log format: json, text (env: EMBER_LOG_FORMAT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	flag.Usage = printDetailedHelp

	flag.Parse()
	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}
	if cfg.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}
	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Ember+ provider directory walker

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Connect to a local provider and print its tree
  %s --host=192.168.1.50 --port=9000

  # Connect over TLS with debug logging
  %s --host=console.local --tls --log-level=debug

Version: %s
`, os.Args[0], os.Args[0], Version)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
