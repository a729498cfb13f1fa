// Package config provides application configuration management for chatmarks.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Config holds the chatmarks configuration.
type Config struct {
	HostRoot string        `json:"host_root,omitempty"` // Root of the observed chat application (default ~/.aichat)
	Storage  StorageConfig `json:"storage"`             // Key-value storage settings
	Engine   EngineConfig  `json:"engine"`              // Sync engine timing settings
	Settings PanelSettings `json:"settings"`            // Panel behaviour settings (stored, not interpreted by the engine)
	Logging  LoggingConfig `json:"logging"`             // File logger settings
}

// LoggingConfig controls the file logger.
type LoggingConfig struct {
	Level string `json:"level"` // "debug", "info", "warn", or "error"
}

// StorageConfig selects and configures the key-value backend.
type StorageConfig struct {
	Backend string `json:"backend"` // "file" or "duckdb"
	Path    string `json:"path,omitempty"`
}

// EngineConfig holds sync engine timing knobs.
type EngineConfig struct {
	Poll          string `json:"poll"`           // Conversation poll interval (e.g. "500ms")
	Debounce      string `json:"debounce"`       // Refresh debounce quiet window
	RenderRetries int    `json:"render_retries"` // Attempts while the transcript has not materialized
	RetryDelay    string `json:"retry_delay"`    // Delay between render attempts
}

// PanelSettings mirrors the recognized panel options. The engine persists
// these for the settings surface but never acts on them itself.
type PanelSettings struct {
	AutoTopic     string `json:"autoTopic"`     // "enabled" or "disabled"
	TopicPosition string `json:"topicPosition"` // "left" or "right"
}

// PollDuration returns the parsed poll interval (default: 500ms).
func (c EngineConfig) PollDuration() time.Duration {
	return parseDuration(c.Poll, 500*time.Millisecond)
}

// DebounceDuration returns the parsed debounce window (default: 300ms).
func (c EngineConfig) DebounceDuration() time.Duration {
	return parseDuration(c.Debounce, 300*time.Millisecond)
}

// RetryDelayDuration returns the parsed render retry delay (default: 500ms).
func (c EngineConfig) RetryDelayDuration() time.Duration {
	return parseDuration(c.RetryDelay, 500*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// Dir returns the path to the .chatmarks directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".chatmarks"), nil
}

// Path returns the path to the main config file.
func Path() (string, error) {
	configDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// Load loads the configuration from ~/.chatmarks/config.json.
func Load() (Config, error) {
	configPath, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from the given path.
func LoadFrom(configPath string) (Config, error) {
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		cfg := Default()
		if saveErr := SaveTo(configPath, cfg); saveErr != nil {
			return cfg, nil // return defaults even if save fails
		}
		return cfg, nil
	} else if err != nil {
		return Config{}, err
	}

	// Start from defaults so missing keys keep their default values
	// (older configs without the settings section must still load with
	// autoTopic/topicPosition populated).
	config := Default()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}

	if config.Settings.AutoTopic == "" {
		config.Settings.AutoTopic = "enabled"
	}
	if config.Settings.TopicPosition == "" {
		config.Settings.TopicPosition = "right"
	}
	if config.Storage.Backend == "" {
		config.Storage.Backend = "file"
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "debug"
	}

	return config, nil
}

// Default returns a default configuration with all defaults set.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Backend: "file",
		},
		Engine: EngineConfig{
			Poll:          "500ms",
			Debounce:      "300ms",
			RenderRetries: 5,
			RetryDelay:    "500ms",
		},
		Settings: PanelSettings{
			AutoTopic:     "enabled",
			TopicPosition: "right",
		},
		Logging: LoggingConfig{
			Level: "debug",
		},
	}
}

// DefaultHostRoot returns the host application root, honouring the override.
func (c Config) DefaultHostRoot() (string, error) {
	if c.HostRoot != "" {
		return c.HostRoot, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".aichat"), nil
}

// StorePath returns the key-value store path, defaulting under Dir().
func (c Config) StorePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if c.Storage.Backend == "duckdb" {
		return filepath.Join(dir, "marks.duckdb"), nil
	}
	return filepath.Join(dir, "marks.json"), nil
}

// Save saves the configuration to ~/.chatmarks/config.json.
func Save(config Config) error {
	configPath, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(configPath, config)
}

// SaveTo saves the configuration to the given path.
func SaveTo(configPath string, config Config) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}
