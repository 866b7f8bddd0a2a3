package config

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/yctsai/readnest/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "data" || cfg.LogLevel != "info" || cfg.InstallID != "default" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readnest.yaml")
	content := `
data_dir: /var/lib/readnest
log_level: debug
remote:
  base_url: https://api.example.com
  token: tok-123
mirror:
  provider: minio
  endpoint: localhost:9000
  bucket: readnest
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/var/lib/readnest" || cfg.LogLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Remote.BaseURL != "https://api.example.com" || cfg.Remote.Token != "tok-123" {
		t.Errorf("remote = %+v", cfg.Remote)
	}
	if cfg.Mirror.Provider != "minio" || cfg.Mirror.Bucket != "readnest" {
		t.Errorf("mirror = %+v", cfg.Mirror)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readnest.yaml")
	if err := os.WriteFile(path, []byte("log_level: debug\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("READNEST_LOG_LEVEL", "error")
	t.Setenv("READNEST_REMOTE_URL", "https://override.example.com")
	t.Setenv("READNEST_MIRROR_USE_SSL", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, env must win over file", cfg.LogLevel)
	}
	if cfg.Remote.BaseURL != "https://override.example.com" {
		t.Errorf("BaseURL = %q", cfg.Remote.BaseURL)
	}
	if !cfg.Mirror.UseSSL {
		t.Error("UseSSL should parse from env")
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "data" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
	}{
		{"bad log level", "READNEST_LOG_LEVEL", "verbose"},
		{"bad remote url", "READNEST_REMOTE_URL", "http://bad url with spaces"},
		{"bad mirror provider", "READNEST_MIRROR_PROVIDER", "gcs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(""); !apperrors.Is(err, apperrors.ErrValidation) {
				t.Errorf("err = %v, want VALIDATION_ERROR", err)
			}
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("data_dir: [unclosed"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); !apperrors.Is(err, apperrors.ErrInvalid) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
}
