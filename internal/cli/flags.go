package cli

import (
	"github.com/dmitrijs2005/recordkeeper/internal/config"
	"github.com/spf13/pflag"
)

// bindConfigFlags registers the configuration flags with c's values as
// defaults.
func bindConfigFlags(fs *pflag.FlagSet, c *config.Config) {
	fs.StringVar(&c.PGHost, "pg-host", c.PGHost, "PostgreSQL host")
	fs.IntVar(&c.PGPort, "pg-port", c.PGPort, "PostgreSQL port")
	fs.StringVar(&c.PGUser, "pg-user", c.PGUser, "PostgreSQL user")
	fs.StringVar(&c.PGDatabase, "pg-database", c.PGDatabase, "PostgreSQL database")
	fs.StringVar(&c.PGSSLMode, "pg-sslmode", c.PGSSLMode, "PostgreSQL sslmode")
	fs.StringVar(&c.FallbackPath, "fallback", c.FallbackPath, "SQLite fallback file")
	fs.StringVar(&c.AuditDir, "audit-dir", c.AuditDir, "directory for daily audit exports")
	fs.IntVar(&c.RetryAttempts, "retry-attempts", c.RetryAttempts, "primary write attempts")
	fs.DurationVar(&c.RetryDelay, "retry-delay", c.RetryDelay, "pause between primary write attempts")
	fs.DurationVar(&c.ConnectTimeout, "connect-timeout", c.ConnectTimeout, "store connect timeout")
	fs.StringVar(&c.Actor, "actor", c.Actor, "name recorded in the audit trail")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "text or json")
	fs.StringVar(&c.MetricsFile, "metrics-file", c.MetricsFile, "write Prometheus metrics to this file")
}

// applyFlags copies the flags set on the command line from src to dst.
func applyFlags(fs *pflag.FlagSet, dst, src *config.Config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "pg-host":
			dst.PGHost = src.PGHost
		case "pg-port":
			dst.PGPort = src.PGPort
		case "pg-user":
			dst.PGUser = src.PGUser
		case "pg-database":
			dst.PGDatabase = src.PGDatabase
		case "pg-sslmode":
			dst.PGSSLMode = src.PGSSLMode
		case "fallback":
			dst.FallbackPath = src.FallbackPath
		case "audit-dir":
			dst.AuditDir = src.AuditDir
		case "retry-attempts":
			dst.RetryAttempts = src.RetryAttempts
		case "retry-delay":
			dst.RetryDelay = src.RetryDelay
		case "connect-timeout":
			dst.ConnectTimeout = src.ConnectTimeout
		case "actor":
			dst.Actor = src.Actor
		case "log-level":
			dst.LogLevel = src.LogLevel
		case "log-format":
			dst.LogFormat = src.LogFormat
		case "metrics-file":
			dst.MetricsFile = src.MetricsFile
		}
	})
}
