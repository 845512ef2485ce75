package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LookupFunc reads one environment variable; os.LookupEnv in production.
type LookupFunc func(key string) (string, bool)

// EnvPrefix starts every environment variable the configuration reads.
const EnvPrefix = "RECORDKEEPER_"

// applyEnv overlays variables that are set and non-empty.
//
//	RECORDKEEPER_PG_HOST, _PG_PORT, _PG_USER, _PG_PASSWORD, _PG_DATABASE, _PG_SSLMODE
//	RECORDKEEPER_FALLBACK_PATH, _AUDIT_DIR, _AUDIT_EXPORT_LIMIT, _ACTOR
//	RECORDKEEPER_RETRY_ATTEMPTS, _RETRY_DELAY, _CONNECT_TIMEOUT
//	RECORDKEEPER_S3_BUCKET, _S3_REGION, _S3_ENDPOINT, _S3_ACCESS_KEY, _S3_SECRET_KEY, _S3_PREFIX
//	RECORDKEEPER_LOG_LEVEL, _LOG_FORMAT, _METRICS_FILE
func (c *Config) applyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return v, ok && v != ""
	}

	strs := map[string]*string{
		"PG_HOST":       &c.PGHost,
		"PG_USER":       &c.PGUser,
		"PG_PASSWORD":   &c.PGPassword,
		"PG_DATABASE":   &c.PGDatabase,
		"PG_SSLMODE":    &c.PGSSLMode,
		"FALLBACK_PATH": &c.FallbackPath,
		"AUDIT_DIR":     &c.AuditDir,
		"ACTOR":         &c.Actor,
		"S3_BUCKET":     &c.S3Bucket,
		"S3_REGION":     &c.S3Region,
		"S3_ENDPOINT":   &c.S3Endpoint,
		"S3_ACCESS_KEY": &c.S3AccessKey,
		"S3_SECRET_KEY": &c.S3SecretKey,
		"S3_PREFIX":     &c.S3Prefix,
		"LOG_LEVEL":     &c.LogLevel,
		"LOG_FORMAT":    &c.LogFormat,
		"METRICS_FILE":  &c.MetricsFile,
	}
	for name, dst := range strs {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PG_PORT":            &c.PGPort,
		"AUDIT_EXPORT_LIMIT": &c.AuditExportLimit,
		"RETRY_ATTEMPTS":     &c.RetryAttempts,
	}
	for name, dst := range ints {
		v, ok := get(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"RETRY_DELAY":     &c.RetryDelay,
		"CONNECT_TIMEOUT": &c.ConnectTimeout,
	}
	for name, dst := range durations {
		v, ok := get(name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
	}
	return nil
}
