// Package config loads runtime configuration from an optional YAML
// file with environment variable overrides. Environment always wins
// over the file.
package config

import (
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"

	apperrors "github.com/yctsai/readnest/internal/errors"
)

// RemoteConfig points at the authoritative record service.
type RemoteConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// MirrorConfig holds the optional cloud mirror settings. Credentials
// given here are only used to enable the mirror; afterwards they live
// encrypted in the local store.
type MirrorConfig struct {
	Provider  string `yaml:"provider"` // aws, minio or r2
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	AccountID string `yaml:"account_id"` // r2 only
	UseSSL    bool   `yaml:"use_ssl"`    // minio only
}

// Config is the full runtime configuration.
type Config struct {
	DataDir   string       `yaml:"data_dir"`
	LogLevel  string       `yaml:"log_level"`
	InstallID string       `yaml:"install_id"`
	Remote    RemoteConfig `yaml:"remote"`
	Mirror    MirrorConfig `yaml:"mirror"`
}

// Load reads path (skipped silently when empty or missing) and applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir:   "data",
		LogLevel:  "info",
		InstallID: "default",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, apperrors.Wrap(apperrors.ErrInvalid, fmt.Sprintf("reading config file %s", path), err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalid, fmt.Sprintf("parsing config file %s", path), err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overlay(&cfg.DataDir, "READNEST_DATA_DIR")
	overlay(&cfg.LogLevel, "READNEST_LOG_LEVEL")
	overlay(&cfg.InstallID, "READNEST_INSTALL_ID")
	overlay(&cfg.Remote.BaseURL, "READNEST_REMOTE_URL")
	overlay(&cfg.Remote.Token, "READNEST_REMOTE_TOKEN")
	overlay(&cfg.Mirror.Provider, "READNEST_MIRROR_PROVIDER")
	overlay(&cfg.Mirror.Endpoint, "READNEST_MIRROR_ENDPOINT")
	overlay(&cfg.Mirror.Bucket, "READNEST_MIRROR_BUCKET")
	overlay(&cfg.Mirror.Region, "READNEST_MIRROR_REGION")
	overlay(&cfg.Mirror.AccessKey, "READNEST_MIRROR_ACCESS_KEY")
	overlay(&cfg.Mirror.SecretKey, "READNEST_MIRROR_SECRET_KEY")
	overlay(&cfg.Mirror.AccountID, "READNEST_MIRROR_ACCOUNT_ID")
	if v := os.Getenv("READNEST_MIRROR_USE_SSL"); v != "" {
		cfg.Mirror.UseSSL = v == "true" || v == "1"
	}
}

func overlay(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks field formats. The remote URL and mirror provider
// are only validated when set; both features are optional.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.LogLevel,
			validation.In("debug", "info", "warn", "error").Error("log level must be debug, info, warn or error")),
	)
	if err == nil {
		err = validation.Validate(c.Remote.BaseURL, is.URL)
	}
	if err == nil {
		err = validation.Validate(c.Mirror.Provider,
			validation.In("aws", "minio", "r2").Error("mirror provider must be aws, minio or r2"))
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, "invalid configuration", err)
	}
	return nil
}
