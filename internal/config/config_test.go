package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Engine.MaxFixAttempts != 2 {
		t.Errorf("max fix attempts = %d, want 2", cfg.Engine.MaxFixAttempts)
	}
	if cfg.DatasetTTL() != time.Hour {
		t.Errorf("dataset ttl = %v, want 1h", cfg.DatasetTTL())
	}
	if cfg.RunnerTimeout() != 5*time.Minute {
		t.Errorf("runner timeout = %v, want 5m", cfg.RunnerTimeout())
	}
	if cfg.Runner.Interpreter != "python3" {
		t.Errorf("interpreter = %q", cfg.Runner.Interpreter)
	}
	if cfg.Oracle.Model == "" || cfg.Oracle.APIKeyEnv == "" {
		t.Error("oracle defaults incomplete")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("addr = %q, want default", cfg.Server.Addr)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
addr = "0.0.0.0:9090"

[engine]
max_fix_attempts = 3
dataset_ttl = "30m"

[runner]
timeout = "90s"

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != "0.0.0.0:9090" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Engine.MaxFixAttempts != 3 {
		t.Errorf("max fix attempts = %d, want 3", cfg.Engine.MaxFixAttempts)
	}
	if cfg.DatasetTTL() != 30*time.Minute {
		t.Errorf("dataset ttl = %v, want 30m", cfg.DatasetTTL())
	}
	if cfg.RunnerTimeout() != 90*time.Second {
		t.Errorf("runner timeout = %v, want 90s", cfg.RunnerTimeout())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
	// Sections absent from the file keep their defaults
	if cfg.Oracle.Model != Default().Oracle.Model {
		t.Errorf("model = %q, want default", cfg.Oracle.Model)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("invalid TOML loaded, want error")
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := Default()
	cfg.Engine.DatasetTTL = "garbage"
	cfg.Runner.Timeout = "-5s"

	if cfg.DatasetTTL() != time.Hour {
		t.Errorf("bad ttl fallback = %v, want 1h", cfg.DatasetTTL())
	}
	if cfg.RunnerTimeout() != 5*time.Minute {
		t.Errorf("bad timeout fallback = %v, want 5m", cfg.RunnerTimeout())
	}
}

func TestOracleAPIKey(t *testing.T) {
	cfg := Default()
	cfg.Oracle.APIKeyEnv = "DATALAB_TEST_API_KEY"
	t.Setenv("DATALAB_TEST_API_KEY", "sekrit")

	if got := cfg.OracleAPIKey(); got != "sekrit" {
		t.Errorf("api key = %q, want sekrit", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	if got := ExpandPath("~/data/x.db"); got != filepath.Join(home, "data", "x.db") {
		t.Errorf("ExpandPath = %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path changed: %q", got)
	}
}
