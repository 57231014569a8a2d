package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Blob backends.
const (
	BlobFS = "fs"
	BlobS3 = "s3"
)

// Config represents the global ~/.hype/config.toml.
type Config struct {
	DefaultSession string       `toml:"default_session"`
	Server         ServerConfig `toml:"server"`
	Blob           BlobConfig   `toml:"blob"`
}

// ServerConfig configures the hyped daemon.
type ServerConfig struct {
	Socket   string `toml:"socket"`
	DataDir  string `toml:"data_dir"`
	TokenTTL string `toml:"token_ttl"`
	ResetTTL string `toml:"reset_ttl"`
}

// BlobConfig selects and configures the blob backend.
type BlobConfig struct {
	Backend string   `toml:"backend"`
	Dir     string   `toml:"dir"`
	S3      S3Config `toml:"s3"`
}

// S3Config holds S3-compatible object storage settings.
type S3Config struct {
	Region        string `toml:"region"`
	Bucket        string `toml:"bucket"`
	Endpoint      string `toml:"endpoint"`
	AccessKey     string `toml:"access_key"`
	SecretKey     string `toml:"secret_key"`
	PublicBaseURL string `toml:"public_base_url"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			TokenTTL: "720h",
			ResetTTL: "1h",
		},
		Blob: BlobConfig{Backend: BlobFS},
	}
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault reads config from path, falling back to Default when the file
// does not exist. Unset fields are filled from Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.fill()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) fill() {
	d := Default()
	if c.Server.TokenTTL == "" {
		c.Server.TokenTTL = d.Server.TokenTTL
	}
	if c.Server.ResetTTL == "" {
		c.Server.ResetTTL = d.Server.ResetTTL
	}
	if c.Blob.Backend == "" {
		c.Blob.Backend = d.Blob.Backend
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := c.Server.TokenLifetime(); err != nil {
		return err
	}
	if _, err := c.Server.ResetLifetime(); err != nil {
		return err
	}
	switch c.Blob.Backend {
	case BlobFS:
	case BlobS3:
		if c.Blob.S3.Bucket == "" {
			return fmt.Errorf("blob.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown blob backend %q", c.Blob.Backend)
	}
	return nil
}

// TokenLifetime parses token_ttl.
func (s ServerConfig) TokenLifetime() (time.Duration, error) {
	d, err := time.ParseDuration(s.TokenTTL)
	if err != nil {
		return 0, fmt.Errorf("server.token_ttl: %w", err)
	}
	return d, nil
}

// ResetLifetime parses reset_ttl.
func (s ServerConfig) ResetLifetime() (time.Duration, error) {
	d, err := time.ParseDuration(s.ResetTTL)
	if err != nil {
		return 0, fmt.Errorf("server.reset_ttl: %w", err)
	}
	return d, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
