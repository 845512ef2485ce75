package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations accept
// strings such as "2s" or integer nanoseconds. Zero values leave the
// current setting untouched, so a file only needs the keys it changes.
type FileConfig struct {
	PGHost     string `json:"pg_host" yaml:"pg_host"`
	PGPort     int    `json:"pg_port" yaml:"pg_port"`
	PGUser     string `json:"pg_user" yaml:"pg_user"`
	PGPassword string `json:"pg_password" yaml:"pg_password"`
	PGDatabase string `json:"pg_database" yaml:"pg_database"`
	PGSSLMode  string `json:"pg_sslmode" yaml:"pg_sslmode"`

	FallbackPath     string `json:"fallback_path" yaml:"fallback_path"`
	AuditDir         string `json:"audit_dir" yaml:"audit_dir"`
	AuditExportLimit int    `json:"audit_export_limit" yaml:"audit_export_limit"`

	RetryAttempts  int            `json:"retry_attempts" yaml:"retry_attempts"`
	RetryDelay     timex.Duration `json:"retry_delay" yaml:"retry_delay"`
	ConnectTimeout timex.Duration `json:"connect_timeout" yaml:"connect_timeout"`

	Actor string `json:"actor" yaml:"actor"`

	S3Bucket    string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region    string `json:"s3_region" yaml:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint" yaml:"s3_endpoint"`
	S3AccessKey string `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key" yaml:"s3_secret_key"`
	S3Prefix    string `json:"s3_prefix" yaml:"s3_prefix"`

	LogLevel    string `json:"log_level" yaml:"log_level"`
	LogFormat   string `json:"log_format" yaml:"log_format"`
	MetricsFile string `json:"metrics_file" yaml:"metrics_file"`
}

// loadFile overlays the file at path. Files ending in .yaml or .yml are
// read as YAML, anything else as JSON.
func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, fc)
	default:
		err = json.Unmarshal(b, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.apply(fc)
	return nil
}

func (c *Config) apply(fc *FileConfig) {
	setString(&c.PGHost, fc.PGHost)
	setInt(&c.PGPort, fc.PGPort)
	setString(&c.PGUser, fc.PGUser)
	setString(&c.PGPassword, fc.PGPassword)
	setString(&c.PGDatabase, fc.PGDatabase)
	setString(&c.PGSSLMode, fc.PGSSLMode)
	setString(&c.FallbackPath, fc.FallbackPath)
	setString(&c.AuditDir, fc.AuditDir)
	setInt(&c.AuditExportLimit, fc.AuditExportLimit)
	setInt(&c.RetryAttempts, fc.RetryAttempts)
	setDuration(&c.RetryDelay, fc.RetryDelay)
	setDuration(&c.ConnectTimeout, fc.ConnectTimeout)
	setString(&c.Actor, fc.Actor)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3Endpoint, fc.S3Endpoint)
	setString(&c.S3AccessKey, fc.S3AccessKey)
	setString(&c.S3SecretKey, fc.S3SecretKey)
	setString(&c.S3Prefix, fc.S3Prefix)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)
	setString(&c.MetricsFile, fc.MetricsFile)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
