// Package config loads application configuration from a TOML file with
// sensible defaults for everything.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Engine   EngineConfig   `toml:"engine"`
	Runner   RunnerConfig   `toml:"runner"`
	Oracle   OracleConfig   `toml:"oracle"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// EngineConfig holds orchestrator settings
type EngineConfig struct {
	MaxFixAttempts int    `toml:"max_fix_attempts"`
	DatasetTTL     string `toml:"dataset_ttl"`
	DatasetDir     string `toml:"dataset_dir"`
	SweepSchedule  string `toml:"sweep_schedule"`
}

// RunnerConfig holds script runner settings
type RunnerConfig struct {
	Interpreter string `toml:"interpreter"`
	Timeout     string `toml:"timeout"`
}

// OracleConfig holds code-generation oracle settings. The API key is read
// from the environment variable named by APIKeyEnv, never from the file.
type OracleConfig struct {
	BaseURL   string `toml:"base_url"`
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
}

// DatabaseConfig holds result store settings
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Engine: EngineConfig{
			MaxFixAttempts: 2,
			DatasetTTL:     "1h",
			SweepSchedule:  "@every 10m",
		},
		Runner: RunnerConfig{
			Interpreter: "python3",
			Timeout:     "5m",
		},
		Oracle: OracleConfig{
			BaseURL:   "https://generativelanguage.googleapis.com",
			Model:     "gemini-2.0-flash",
			APIKeyEnv: "DATALAB_ORACLE_API_KEY",
		},
		Database: DatabaseConfig{
			Path: filepath.Join(home, ".datalab", "results.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Engine.DatasetDir = ExpandPath(cfg.Engine.DatasetDir)

	return cfg, nil
}

// DatasetTTL parses the dataset TTL, falling back to one hour
func (c *Config) DatasetTTL() time.Duration {
	d, err := time.ParseDuration(c.Engine.DatasetTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// RunnerTimeout parses the runner timeout, falling back to five minutes
func (c *Config) RunnerTimeout() time.Duration {
	d, err := time.ParseDuration(c.Runner.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// OracleAPIKey resolves the oracle API key from the environment
func (c *Config) OracleAPIKey() string {
	return os.Getenv(c.Oracle.APIKeyEnv)
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "datalab", "config.toml")
}
