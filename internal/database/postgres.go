// Package database opens the Postgres pool backing the audit trail.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthassist/healthassist/internal/config"
)

const connectTimeout = 10 * time.Second

// Open migrates the schema and returns a connected pool.
func Open(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	if err := RunMigrations(cfg.DSN(), cfg.MigrationsPath); err != nil {
		return nil, err
	}
	return NewPostgresPool(ctx, cfg)
}

func NewPostgresPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing postgres config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.ConnConfig.ConnectTimeout = connectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	slog.Info("connected to PostgreSQL", "host", cfg.Host, "port", cfg.Port, "db", cfg.Name, "max_conns", cfg.MaxConns)
	return pool, nil
}

// Checker reports pool health for /health.
type Checker struct {
	pool *pgxpool.Pool
}

func NewChecker(pool *pgxpool.Pool) *Checker {
	return &Checker{pool: pool}
}

func (c *Checker) Check(ctx context.Context) error {
	return c.pool.Ping(ctx)
}
