package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "localhost", c.PGHost)
	assert.Equal(t, 5432, c.PGPort)
	assert.Equal(t, "postgres", c.PGUser)
	assert.Equal(t, "", c.PGPassword)
	assert.Equal(t, "recordkeeper", c.PGDatabase)
	assert.Equal(t, "recordkeeper.db", c.FallbackPath)
	assert.Equal(t, "logs_audit", c.AuditDir)
	assert.Equal(t, 1000, c.AuditExportLimit)
	assert.Equal(t, 5, c.RetryAttempts)
	assert.Equal(t, 2*time.Second, c.RetryDelay)
	assert.Equal(t, 5*time.Second, c.ConnectTimeout)
	assert.Equal(t, "Utilisateur", c.Actor)
	require.NoError(t, c.Validate())
}

func TestLoad_NoFileNoEnvGivesDefaults(t *testing.T) {
	c, err := Load("", env(nil))
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, &want, c)
}

func TestLoad_JSONFile(t *testing.T) {
	path := writeFile(t, "cfg.json", `{
		"pg_host": "db.internal",
		"pg_port": 6543,
		"retry_delay": "250ms",
		"connect_timeout": 1000000000,
		"s3_bucket": "audit",
		"s3_region": "eu-west-3"
	}`)

	c, err := Load(path, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", c.PGHost)
	assert.Equal(t, 6543, c.PGPort)
	assert.Equal(t, 250*time.Millisecond, c.RetryDelay)
	assert.Equal(t, time.Second, c.ConnectTimeout)
	assert.Equal(t, "postgres", c.PGUser, "keys absent from the file keep their default")
	assert.True(t, c.S3().Enabled())
	require.NoError(t, c.Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "cfg.yaml", "pg_database: fleet\nfallback_path: /var/lib/rk/fallback.db\nretry_attempts: 3\nretry_delay: 1s\n")

	c, err := Load(path, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "fleet", c.PGDatabase)
	assert.Equal(t, "/var/lib/rk/fallback.db", c.FallbackPath)
	assert.Equal(t, 3, c.RetryAttempts)
	assert.Equal(t, time.Second, c.Retry().Delay)
}

func TestLoad_FileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), env(nil))
	require.Error(t, err)

	bad := writeFile(t, "bad.json", `{"retry_delay": "soon"}`)
	_, err = Load(bad, env(nil))
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "cfg.json", `{"pg_host": "from-file", "pg_user": "file-user"}`)

	c, err := Load(path, env(map[string]string{
		"RECORDKEEPER_PG_HOST":         "from-env",
		"RECORDKEEPER_PG_PORT":         "15432",
		"RECORDKEEPER_PG_PASSWORD":     "s3cret",
		"RECORDKEEPER_RETRY_DELAY":     "10ms",
		"RECORDKEEPER_ACTOR":           "Marie",
		"RECORDKEEPER_FALLBACK_PATH":   "",
		"RECORDKEEPER_METRICS_FILE":    "/tmp/rk.prom",
		"RECORDKEEPER_AUDIT_DIR":       "exports",
		"RECORDKEEPER_RETRY_ATTEMPTS":  "2",
		"RECORDKEEPER_S3_ACCESS_KEY":   "AKIA",
		"RECORDKEEPER_S3_SECRET_KEY":   "secret",
		"RECORDKEEPER_CONNECT_TIMEOUT": "3s",
	}))
	require.NoError(t, err)

	assert.Equal(t, "from-env", c.PGHost)
	assert.Equal(t, "file-user", c.PGUser)
	assert.Equal(t, 15432, c.PGPort)
	assert.Equal(t, "s3cret", c.Primary().Password)
	assert.Equal(t, 10*time.Millisecond, c.RetryDelay)
	assert.Equal(t, "Marie", c.Actor)
	assert.Equal(t, "recordkeeper.db", c.FallbackPath, "empty variables are ignored")
	assert.Equal(t, "/tmp/rk.prom", c.MetricsFile)
	assert.Equal(t, "exports", c.AuditDir)
	assert.Equal(t, 2, c.Retry().Attempts)
	assert.Equal(t, 3*time.Second, c.Primary().ConnectTimeout)
	assert.Equal(t, "AKIA", c.S3().AccessKey)
}

func TestLoad_EnvParseErrors(t *testing.T) {
	_, err := Load("", env(map[string]string{"RECORDKEEPER_PG_PORT": "five"}))
	require.ErrorContains(t, err, "RECORDKEEPER_PG_PORT")

	_, err = Load("", env(map[string]string{"RECORDKEEPER_RETRY_DELAY": "2"}))
	require.ErrorContains(t, err, "RECORDKEEPER_RETRY_DELAY")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(c *Config) {}, ok: true},
		{name: "port out of range", mutate: func(c *Config) { c.PGPort = 70000 }},
		{name: "no host", mutate: func(c *Config) { c.PGHost = "" }},
		{name: "no attempts", mutate: func(c *Config) { c.RetryAttempts = 0 }},
		{name: "negative delay", mutate: func(c *Config) { c.RetryDelay = -time.Second }},
		{name: "zero delay", mutate: func(c *Config) { c.RetryDelay = 0 }, ok: true},
		{name: "unknown sslmode", mutate: func(c *Config) { c.PGSSLMode = "sometimes" }},
		{name: "bucket without region", mutate: func(c *Config) { c.S3Bucket = "audit" }},
		{name: "bucket with region", mutate: func(c *Config) { c.S3Bucket = "audit"; c.S3Region = "eu-west-3" }, ok: true},
		{name: "access key alone", mutate: func(c *Config) { c.S3AccessKey = "AKIA" }},
		{name: "bad endpoint", mutate: func(c *Config) { c.S3Endpoint = "not a url" }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tc.mutate(&c)
			err := c.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
