// Package redis connects the shared Redis client used by the rate limiter.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/healthassist/healthassist/internal/config"
)

const clientName = "healthassist-api"

func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       cfg.Addr(),
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: clientName,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr(), err)
	}

	slog.Info("connected to Redis", "addr", cfg.Addr(), "db", cfg.DB)
	return client, nil
}

// Checker reports client health for /health.
type Checker struct {
	client *redis.Client
}

func NewChecker(client *redis.Client) *Checker {
	return &Checker{client: client}
}

func (c *Checker) Check(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
