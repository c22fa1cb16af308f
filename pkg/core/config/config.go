// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leseb/pdf-columns/pkg/layout"
)

// Config represents the main configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Upload  UploadConfig  `yaml:"upload"`
	Layout  LayoutConfig  `yaml:"layout"`
	Staging StagingConfig `yaml:"staging"`
	Records RecordsConfig `yaml:"records"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxConnections int           `yaml:"max_connections"` // 0 = unlimited
	CORS           *bool         `yaml:"cors"`            // default true
}

// CORSEnabled reports whether pre-flight and cross-origin headers are served.
func (s ServerConfig) CORSEnabled() bool {
	return s.CORS == nil || *s.CORS
}

// LoggingConfig contains logger configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// UploadConfig contains upload receiver configuration
type UploadConfig struct {
	MaxBytes int64  `yaml:"max_bytes"` // default 10 MiB
	Field    string `yaml:"field"`     // multipart field name, default "pdf"
}

// LayoutConfig contains column clustering configuration
type LayoutConfig struct {
	ColumnTolerance float64 `yaml:"column_tolerance"` // default 40
}

// StagingConfig selects where uploads are held while a request runs
type StagingConfig struct {
	Type       string        `yaml:"type"`     // "filesystem" (default), "memory" or "s3"
	BaseDir    string        `yaml:"base_dir"` // filesystem only
	S3Bucket   string        `yaml:"s3_bucket"`
	S3Region   string        `yaml:"s3_region"`
	S3Prefix   string        `yaml:"s3_prefix"`
	S3Endpoint string        `yaml:"s3_endpoint"` // e.g. MinIO
	MaxAge     time.Duration `yaml:"max_age"`     // leftovers older than this are swept at startup
}

// Params returns the provider parameters for the configured backend.
func (s StagingConfig) Params() map[string]string {
	return map[string]string{
		"base_dir": s.BaseDir,
		"bucket":   s.S3Bucket,
		"region":   s.S3Region,
		"prefix":   s.S3Prefix,
		"endpoint": s.S3Endpoint,
	}
}

// RecordsConfig selects the extraction record store
type RecordsConfig struct {
	Type string `yaml:"type"` // "memory" (default), "sqlite" or "postgres"
	DSN  string `yaml:"dsn"`
}

// Params returns the provider parameters for the configured backend.
func (r RecordsConfig) Params() map[string]string {
	return map[string]string{"dsn": r.DSN}
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Load from environment variables (override file config)
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns default configuration with environment overrides applied.
// Malformed numeric environment values are ignored.
func Default() *Config {
	cfg := &Config{}
	_ = applyEnv(cfg)
	applyDefaults(cfg)
	return cfg
}

// Validate reports configuration values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("server.max_connections must not be negative"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("upload.max_bytes must be positive"))
	}
	if err := layout.ValidateTolerance(c.Layout.ColumnTolerance); err != nil {
		errs = append(errs, fmt.Errorf("layout.column_tolerance: %w", err))
	}
	if c.Staging.Type == "s3" && c.Staging.S3Bucket == "" {
		errs = append(errs, fmt.Errorf("staging.s3_bucket is required for s3 staging"))
	}
	if c.Records.Type == "postgres" && c.Records.DSN == "" {
		errs = append(errs, fmt.Errorf("records.dsn is required for postgres records"))
	}
	return errors.Join(errs...)
}

func applyEnv(cfg *Config) error {
	strs := []struct {
		env string
		dst *string
	}{
		{"PDFCOLUMNS_HOST", &cfg.Server.Host},
		{"PDFCOLUMNS_LOG_LEVEL", &cfg.Logging.Level},
		{"PDFCOLUMNS_LOG_FORMAT", &cfg.Logging.Format},
		{"PDFCOLUMNS_UPLOAD_FIELD", &cfg.Upload.Field},
		{"PDFCOLUMNS_STAGING_TYPE", &cfg.Staging.Type},
		{"PDFCOLUMNS_STAGING_DIR", &cfg.Staging.BaseDir},
		{"PDFCOLUMNS_S3_BUCKET", &cfg.Staging.S3Bucket},
		{"PDFCOLUMNS_S3_REGION", &cfg.Staging.S3Region},
		{"PDFCOLUMNS_S3_PREFIX", &cfg.Staging.S3Prefix},
		{"PDFCOLUMNS_S3_ENDPOINT", &cfg.Staging.S3Endpoint},
		{"PDFCOLUMNS_RECORDS_TYPE", &cfg.Records.Type},
		{"PDFCOLUMNS_RECORDS_DSN", &cfg.Records.DSN},
	}
	for _, s := range strs {
		if v := os.Getenv(s.env); v != "" {
			*s.dst = v
		}
	}

	var errs []error
	if v := os.Getenv("PDFCOLUMNS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PDFCOLUMNS_PORT: %w", err))
		} else {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PDFCOLUMNS_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("PDFCOLUMNS_MAX_UPLOAD_BYTES: %w", err))
		} else {
			cfg.Upload.MaxBytes = n
		}
	}
	if v := os.Getenv("PDFCOLUMNS_COLUMN_TOLERANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("PDFCOLUMNS_COLUMN_TOLERANCE: %w", err))
		} else {
			cfg.Layout.ColumnTolerance = f
		}
	}
	// A Postgres DSN in the environment implies the postgres backend.
	if v := os.Getenv("DATABASE_URL"); v != "" && cfg.Records.DSN == "" {
		cfg.Records.DSN = v
		cfg.Records.Type = "postgres"
	}
	return errors.Join(errs...)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 60 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Upload.MaxBytes == 0 {
		cfg.Upload.MaxBytes = 10 << 20
	}
	if cfg.Upload.Field == "" {
		cfg.Upload.Field = "pdf"
	}
	if cfg.Layout.ColumnTolerance == 0 {
		cfg.Layout.ColumnTolerance = layout.DefaultTolerance
	}
	if cfg.Staging.Type == "" {
		cfg.Staging.Type = "filesystem"
	}
	if cfg.Staging.MaxAge == 0 {
		cfg.Staging.MaxAge = time.Hour
	}
	if cfg.Records.Type == "" {
		cfg.Records.Type = "memory"
	}
}
