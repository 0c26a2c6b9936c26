package pg

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const (
	defaultMaxOpenConns     = 25
	defaultMaxIdleConns     = 5
	connMaxLifetime         = 5 * time.Minute
	connMaxIdleTime         = 1 * time.Minute
	defaultStatementTimeout = 60 * time.Second
	connectTimeout          = 10 * time.Second
)

type Config struct {
	Host             string        `envconfig:"HOST"`
	Port             string        `envconfig:"PORT" default:"5432"`
	Username         string        `envconfig:"USERNAME"`
	Password         string        `envconfig:"PASSWORD"`
	Database         string        `envconfig:"DATABASE"`
	SSLMode          string        `envconfig:"SSL_MODE" default:"disable"`
	StatementTimeout time.Duration `envconfig:"STATEMENT_TIMEOUT" default:"60s"`
	MaxOpenConns     int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns     int           `envconfig:"MAX_IDLE_CONNS" default:"5"`
	ApplicationName  string        `envconfig:"APPLICATION_NAME" default:"nanny-bot"`
}

func (c *Config) dsn() string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=%s",
		c.Host,
		c.Port,
		c.Username,
		c.Database,
		c.Password,
		c.SSLMode,
	)
}

// connConfig statement_timeout задаётся параметром сессии, чтобы действовать на каждом соединении пула
func (c *Config) connConfig() (*pgx.ConnConfig, error) {
	connConfig, err := pgx.ParseConfig(c.dsn())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	timeout := c.StatementTimeout
	if timeout <= 0 {
		timeout = defaultStatementTimeout
	}
	if connConfig.RuntimeParams == nil {
		connConfig.RuntimeParams = make(map[string]string)
	}
	connConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(timeout.Milliseconds(), 10)
	if c.ApplicationName != "" {
		connConfig.RuntimeParams["application_name"] = c.ApplicationName
	}
	return connConfig, nil
}

// NewConnection открывает пул соединений через драйвер pgx и проверяет его ping-ом
func (c *Config) NewConnection() (*sqlx.DB, error) {
	connConfig, err := c.connConfig()
	if err != nil {
		return nil, err
	}

	db := sqlx.NewDb(stdlib.OpenDB(*connConfig), "pgx")

	maxOpen := c.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := c.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdleConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}
