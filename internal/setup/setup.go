// Package setup registers the symptom checker MCP server with desktop MCP
// clients.
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ServerName is the key the server is registered under in the client config
const ServerName = "maditrack-symptom-checker"

// ClientConfig represents the desktop client's configuration file structure.
// Unknown top-level keys are preserved on save.
type ClientConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
	extra      map[string]json.RawMessage
}

// MCPServerConfig represents a single MCP server configuration.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options contains options for registering the server.
type Options struct {
	BinaryPath string // Path to the server binary
	LogLevel   string // Optional MADITRACK_LOG_LEVEL for the server process
}

// Status represents the current registration status.
type Status struct {
	ConfigPath string
	Registered bool
	BinaryPath string
	Issues     []string
}

// DefaultConfigPath returns the path to Claude Desktop's config file.
func DefaultConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "Claude")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config", "Claude")
		}
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

// LoadClientConfig loads the client configuration. A missing file yields an
// empty configuration.
func LoadClientConfig(configPath string) (*ClientConfig, error) {
	config := &ClientConfig{
		MCPServers: make(map[string]MCPServerConfig),
		extra:      make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &config.extra); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if raw, ok := config.extra["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &config.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
		delete(config.extra, "mcpServers")
	}
	if config.MCPServers == nil {
		config.MCPServers = make(map[string]MCPServerConfig)
	}

	return config, nil
}

// SaveClientConfig writes the configuration, creating the directory if needed.
func SaveClientConfig(configPath string, config *ClientConfig) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := make(map[string]interface{}, len(config.extra)+1)
	for key, value := range config.extra {
		out[key] = value
	}
	out["mcpServers"] = config.MCPServers

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Register adds or updates the symptom checker entry in the client config.
func Register(configPath string, opts Options) error {
	if opts.BinaryPath == "" {
		return fmt.Errorf("server binary path is required")
	}

	config, err := LoadClientConfig(configPath)
	if err != nil {
		return err
	}

	serverConfig := MCPServerConfig{Command: opts.BinaryPath}
	if opts.LogLevel != "" {
		serverConfig.Env = map[string]string{"MADITRACK_LOG_LEVEL": opts.LogLevel}
	}
	config.MCPServers[ServerName] = serverConfig

	return SaveClientConfig(configPath, config)
}

// GetStatus reports whether the server is registered and its binary exists.
func GetStatus(configPath string) (*Status, error) {
	status := &Status{ConfigPath: configPath, Issues: []string{}}

	config, err := LoadClientConfig(configPath)
	if err != nil {
		return nil, err
	}

	serverConfig, ok := config.MCPServers[ServerName]
	if !ok {
		status.Issues = append(status.Issues, "Symptom checker is not registered")
		return status, nil
	}

	status.Registered = true
	status.BinaryPath = serverConfig.Command
	if _, err := os.Stat(serverConfig.Command); os.IsNotExist(err) {
		status.Issues = append(status.Issues, fmt.Sprintf("Server binary not found at: %s", serverConfig.Command))
	}
	return status, nil
}

// findBinary looks for the server binary on PATH and next to the running executable.
func findBinary() (string, error) {
	const binaryName = "mcp-server-lite"

	if path, err := exec.LookPath(binaryName); err == nil {
		return path, nil
	}
	if execPath, err := os.Executable(); err == nil {
		return execPath, nil
	}
	return "", fmt.Errorf("binary '%s' not found", binaryName)
}
