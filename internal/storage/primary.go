package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/dbx"
	"github.com/dmitrijs2005/recordkeeper/internal/repositories/repomanager"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PrimaryConfig locates the PostgreSQL server.
type PrimaryConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	SSLMode        string
	ConnectTimeout time.Duration
}

// DSN renders cfg as a pgx connection URL.
func (cfg PrimaryConfig) DSN() string {
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	if cfg.ConnectTimeout > 0 {
		secs := int(cfg.ConnectTimeout.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Database,
		RawQuery: q.Encode(),
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}
	return u.String()
}

// Redacted is DSN with the password masked, for logs.
func (cfg PrimaryConfig) Redacted() string {
	u, err := url.Parse(cfg.DSN())
	if err != nil {
		return fmt.Sprintf("postgres://%s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Database)
	}
	return u.Redacted()
}

// PostgresOpener opens pgx handles for dsn.
func PostgresOpener(dsn string) dbx.Opener {
	return func(ctx context.Context) (*sql.DB, error) {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		return db, nil
	}
}

// NewPrimary returns the PostgreSQL backend described by cfg.
func NewPrimary(cfg PrimaryConfig, opts ...Option) *Backend {
	opts = append([]Option{WithConnectTimeout(cfg.ConnectTimeout)}, opts...)
	return New("primary", PostgresOpener(cfg.DSN()), repomanager.NewPostgresRepositoryManager(), opts...)
}
