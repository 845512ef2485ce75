// Package config handles configuration for the recordkeeper CLI:
// defaults, an optional JSON or YAML file, environment variables and
// command-line flags, applied in that order.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/audit"
	"github.com/dmitrijs2005/recordkeeper/internal/common"
	"github.com/dmitrijs2005/recordkeeper/internal/persistence"
	"github.com/dmitrijs2005/recordkeeper/internal/storage"
	"github.com/go-playground/validator/v10"
)

// Config holds runtime settings.
//
// Fields:
//   - PG*: location of the primary PostgreSQL store.
//   - FallbackPath: SQLite file of the fallback store, created on demand.
//   - AuditDir / AuditExportLimit: where daily exports go and how many entries they hold.
//   - RetryAttempts / RetryDelay: primary write policy.
//   - ConnectTimeout: bound on opening and pinging either store.
//   - Actor: name recorded in audit entries.
//   - S3*: optional off-site copy of audit exports; disabled without a bucket.
//   - MetricsFile: Prometheus textfile written after each command, if set.
type Config struct {
	PGHost     string `validate:"required"`
	PGPort     int    `validate:"min=1,max=65535"`
	PGUser     string `validate:"required"`
	PGPassword string
	PGDatabase string `validate:"required"`
	PGSSLMode  string `validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`

	FallbackPath     string `validate:"required"`
	AuditDir         string `validate:"required"`
	AuditExportLimit int    `validate:"min=1"`

	RetryAttempts  int           `validate:"min=1,max=100"`
	RetryDelay     time.Duration `validate:"min=0"`
	ConnectTimeout time.Duration `validate:"min=0"`

	Actor string `validate:"required"`

	S3Bucket    string
	S3Region    string `validate:"required_with=S3Bucket"`
	S3Endpoint  string `validate:"omitempty,url"`
	S3AccessKey string `validate:"required_with=S3SecretKey"`
	S3SecretKey string `validate:"required_with=S3AccessKey"`
	S3Prefix    string

	LogLevel    string `validate:"oneof=debug info warn error"`
	LogFormat   string `validate:"oneof=text json"`
	MetricsFile string
}

// LoadDefaults populates Config with local development defaults. With them
// an unreachable primary leaves the fallback store in charge.
func (c *Config) LoadDefaults() {
	c.PGHost = "localhost"
	c.PGPort = 5432
	c.PGUser = "postgres"
	c.PGPassword = ""
	c.PGDatabase = "recordkeeper"
	c.PGSSLMode = "disable"
	c.FallbackPath = "recordkeeper.db"
	c.AuditDir = "logs_audit"
	c.AuditExportLimit = audit.DefaultExportLimit
	c.RetryAttempts = 5
	c.RetryDelay = 2 * time.Second
	c.ConnectTimeout = 5 * time.Second
	c.Actor = common.DefaultActor
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Load builds a Config from defaults, then the file at path (skipped when
// empty), then the environment as seen through lookup.
func Load(path string, lookup LookupFunc) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags above.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Primary returns the connection settings of the primary store.
func (c *Config) Primary() storage.PrimaryConfig {
	return storage.PrimaryConfig{
		Host:           c.PGHost,
		Port:           c.PGPort,
		User:           c.PGUser,
		Password:       c.PGPassword,
		Database:       c.PGDatabase,
		SSLMode:        c.PGSSLMode,
		ConnectTimeout: c.ConnectTimeout,
	}
}

// Retry returns the primary write policy.
func (c *Config) Retry() persistence.RetryPolicy {
	return persistence.RetryPolicy{Attempts: c.RetryAttempts, Delay: c.RetryDelay}
}

// S3 returns the audit upload settings.
func (c *Config) S3() audit.S3Config {
	return audit.S3Config{
		Bucket:    c.S3Bucket,
		Region:    c.S3Region,
		Endpoint:  c.S3Endpoint,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		Prefix:    c.S3Prefix,
	}
}
