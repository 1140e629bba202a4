// Package config provides configuration management for the clinic service.
// This file contains the environment-only configuration of the standalone
// symptom checker MCP server.
package config

import (
	"os"
	"strings"
)

// LiteConfig configures the MCP symptom checker. It needs no database,
// cache or messaging gateway.
type LiteConfig struct {
	ServerName    string // Name announced to MCP clients
	ServerVersion string

	// Logging. Output defaults to stderr because stdout carries the MCP stream.
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text
	LogOutput string // stderr, stdout
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	return &LiteConfig{
		ServerName:    "maditrack-symptom-checker",
		ServerVersion: "v0.1.0",
		LogLevel:      "info",
		LogFormat:     "json",
		LogOutput:     "stderr",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("MADITRACK_MCP_SERVER_NAME"); v != "" {
		cfg.ServerName = v
	}

	if v := os.Getenv("MADITRACK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("MADITRACK_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	// stdout is reserved for the protocol stream
	if v := os.Getenv("MADITRACK_LOG_OUTPUT"); v != "" && v != "stdout" {
		cfg.LogOutput = v
	}

	return cfg
}
