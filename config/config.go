// Package config defines ConnectionConfig, the construction-time settings
// for a netconn.Connection, and a YAML loader for it.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/orbital-games/netlobby/wire/protocol"
	"gopkg.in/yaml.v3"
)

// Default timing for the reconnection trajectory, per spec §9's resolved
// Open Question.
const (
	DefaultReconnectWindow        = 10 * time.Second
	DefaultReconnectRetryInterval = 1 * time.Second
)

// ConnectionConfig is the construction-time configuration for a
// netconn.Connection.
type ConnectionConfig struct {
	// ServerHost and ServerPort address the punchthrough rendezvous
	// server.
	ServerHost string `yaml:"serverHost"`
	ServerPort uint16 `yaml:"serverPort"`

	// LobbyCapacity is the configured lobby capacity (including the
	// host). It is fixed once StartGame is invoked.
	LobbyCapacity uint32 `yaml:"lobbyCapacity"`

	// APIVersion gates cross-version matches; clients with a mismatched
	// version never reach Connected.
	APIVersion protocol.APIVersion `yaml:"apiVersion"`

	// ReconnectWindow bounds how long a disconnected client will keep
	// retrying before giving up and transitioning to Disconnected. Zero
	// means DefaultReconnectWindow.
	ReconnectWindow time.Duration `yaml:"reconnectWindow"`
	// ReconnectRetryInterval is the delay between successive reconnect
	// attempts. Zero means DefaultReconnectRetryInterval.
	ReconnectRetryInterval time.Duration `yaml:"reconnectRetryInterval"`

	// Logger configures the ambient structured logger.
	Logger Logger `yaml:"logger"`
	// Metrics configures the ambient Prometheus metrics.
	Metrics Metrics `yaml:"metrics"`
}

// Logger holds logger settings. Validate checks Encoding; no code in this
// module builds a logger from these fields (the netlobby command always
// uses zap's development preset, and library constructors take a
// *zap.Logger directly).
type Logger struct {
	// Encoding is "console", "json", or empty.
	Encoding string `yaml:"encoding"`
	// Level is a zapcore level name ("debug", "info", "warn", "error");
	// it is not validated.
	Level string `yaml:"level"`
}

// Validate returns an error if Logger's configuration is not valid.
func (l Logger) Validate() error {
	if l.Encoding != "" && l.Encoding != "console" && l.Encoding != "json" {
		return fmt.Errorf("config: invalid logger encoding %q", l.Encoding)
	}
	return nil
}

// Metrics configures the Prometheus metrics this module registers.
type Metrics struct {
	// Enabled turns metric recording on; when false, metric calls are
	// no-ops. The collectors are registered at package init either way.
	Enabled bool `yaml:"enabled"`
}

// Validate returns an error describing the first invalid field found in c,
// or nil.
func (c ConnectionConfig) Validate() error {
	if c.ServerHost == "" {
		return fmt.Errorf("config: serverHost is required")
	}
	if c.LobbyCapacity < 2 || c.LobbyCapacity > 16 {
		return fmt.Errorf("config: lobbyCapacity must be in [2, 16], got %d", c.LobbyCapacity)
	}
	return c.Logger.Validate()
}

// ReconnectWindowOrDefault returns c.ReconnectWindow, or
// DefaultReconnectWindow if unset.
func (c ConnectionConfig) ReconnectWindowOrDefault() time.Duration {
	if c.ReconnectWindow <= 0 {
		return DefaultReconnectWindow
	}
	return c.ReconnectWindow
}

// ReconnectRetryIntervalOrDefault returns c.ReconnectRetryInterval, or
// DefaultReconnectRetryInterval if unset.
func (c ConnectionConfig) ReconnectRetryIntervalOrDefault() time.Duration {
	if c.ReconnectRetryInterval <= 0 {
		return DefaultReconnectRetryInterval
	}
	return c.ReconnectRetryInterval
}

// Load reads and parses a ConnectionConfig from a YAML file at path.
func Load(path string) (ConnectionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ConnectionConfig{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var c ConnectionConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return ConnectionConfig{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return ConnectionConfig{}, err
	}
	return c, nil
}
