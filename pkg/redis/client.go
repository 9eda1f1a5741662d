package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/movers/pkg/config"
)

const dialTimeout = 3 * time.Second

// Client wraps a Redis connection. Caching is optional for this service,
// so a disabled config yields a client whose operations are all no-ops
// and callers never branch on availability.
type Client struct {
	rdb     *redis.Client
	enabled bool
}

// New connects to Redis when caching is enabled, verifying the
// connection with a ping before returning.
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s:%s: %w", cfg.Redis.Host, cfg.Redis.Port, err)
	}

	return &Client{rdb: rdb, enabled: true}, nil
}

// Enabled reports whether a live Redis connection is held.
func (c *Client) Enabled() bool { return c.enabled }

// Redis exposes the underlying go-redis client.
func (c *Client) Redis() *redis.Client { return c.rdb }

func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
