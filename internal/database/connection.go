// Package database opens the PostgreSQL connection pool and applies schema
// migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"

	"github.com/maditrack-server/internal/domain"
)

// Config holds database pool configuration
type Config struct {
	Host        string
	Port        int
	Database    string
	Username    string
	Password    string
	MaxConns    int32
	MinConns    int32
	MaxConnLife time.Duration
	MaxConnIdle time.Duration
	SSLMode     string
}

// ConfigFrom maps the application database settings onto pool settings.
func ConfigFrom(cfg domain.DatabaseConfig) Config {
	return Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		Database:    cfg.Database,
		Username:    cfg.Username,
		Password:    cfg.Password,
		MaxConns:    int32(cfg.MaxOpenConns),
		MinConns:    int32(cfg.MaxIdleConns),
		MaxConnLife: cfg.ConnMaxLifetime,
		MaxConnIdle: cfg.ConnMaxIdleTime,
		SSLMode:     cfg.SSLMode,
	}
}

// DB wraps the pgx pool together with a database/sql view of the same pool.
type DB struct {
	Pool *pgxpool.Pool
	sql  *sql.DB
	log  *logrus.Logger
}

// NewConnection creates and pings a PostgreSQL connection pool
func NewConnection(ctx context.Context, config Config, logger *logrus.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		config.Host, config.Port, config.Database, config.Username, config.Password, config.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	if config.MinConns > 0 && config.MinConns <= poolConfig.MaxConns {
		poolConfig.MinConns = config.MinConns
	}
	if config.MaxConnLife > 0 {
		poolConfig.MaxConnLifetime = config.MaxConnLife
	}
	if config.MaxConnIdle > 0 {
		poolConfig.MaxConnIdleTime = config.MaxConnIdle
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"host":      config.Host,
		"port":      config.Port,
		"database":  config.Database,
		"max_conns": poolConfig.MaxConns,
	}).Info("Database connection pool established")

	return &DB{
		Pool: pool,
		sql:  stdlib.OpenDBFromPool(pool),
		log:  logger,
	}, nil
}

// SQL returns a *sql.DB backed by the pgx pool.
func (db *DB) SQL() *sql.DB {
	return db.sql
}

// Close closes the database/sql handle and the pool
func (db *DB) Close() {
	if db.sql != nil {
		if err := db.sql.Close(); err != nil {
			db.log.WithError(err).Warn("Closing database/sql handle")
		}
	}
	if db.Pool != nil {
		db.Pool.Close()
		db.log.Info("Database connection pool closed")
	}
}

// Health checks the database connection health
func (db *DB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Stats returns connection pool statistics
func (db *DB) Stats() *pgxpool.Stat {
	return db.Pool.Stat()
}
