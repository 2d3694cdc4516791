package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.Address() != "localhost:8080" {
		t.Errorf("Address() = %q, want localhost:8080", cfg.Address())
	}
	if cfg.API.BaseURL != "http://localhost:3002" {
		t.Errorf("API.BaseURL = %q, want the default", cfg.API.BaseURL)
	}
	if cfg.Standalone.Enabled {
		t.Error("Standalone.Enabled = true by default, want false")
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("GOLD_API_URL", "https://gold.example.com")
	t.Setenv("STANDALONE", "true")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.Server.Port != "9999" {
		t.Errorf("Server.Port = %q, want 9999", cfg.Server.Port)
	}
	if cfg.API.BaseURL != "https://gold.example.com" {
		t.Errorf("API.BaseURL = %q, want the env value", cfg.API.BaseURL)
	}
	if !cfg.Standalone.Enabled {
		t.Error("Standalone.Enabled = false, want true from env")
	}
}

func TestNew_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
host = "0.0.0.0"
port = "3000"

[api]
base_url = "https://api.example.com"

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("GOLDTRACKER_CONFIG", path)

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.Address() != "0.0.0.0:3000" {
		t.Errorf("Address() = %q, want 0.0.0.0:3000", cfg.Address())
	}
	if cfg.API.BaseURL != "https://api.example.com" {
		t.Errorf("API.BaseURL = %q, want the file value", cfg.API.BaseURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestNew_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	os.WriteFile(path, []byte("[server]\nport = \"3000\"\n"), 0644)
	t.Setenv("GOLDTRACKER_CONFIG", path)
	t.Setenv("PORT", "4000")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Server.Port != "4000" {
		t.Errorf("Server.Port = %q, want the env override 4000", cfg.Server.Port)
	}
}

func TestNew_MissingConfigFile_ReturnsError(t *testing.T) {
	t.Setenv("GOLDTRACKER_CONFIG", filepath.Join(t.TempDir(), "nope.toml"))

	if _, err := New(); err == nil {
		t.Error("New() error = nil, want error for a missing config file")
	}
}
