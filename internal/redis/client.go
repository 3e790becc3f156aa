package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the shared Redis connection pool used by the summary cache.
type Client struct {
	*redis.Client
}

// NewClient creates a client from a URL of the form redis://[:password@]host:port[/db].
func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second

	return &Client{Client: redis.NewClient(opts)}, nil
}

// Connect returns (nil, nil) when redisURL is empty so callers can run without a cache.
func Connect(ctx context.Context, redisURL string) (*Client, error) {
	if redisURL == "" {
		log.Println("[Redis] REDIS_URL not set, author summary cache disabled")
		return nil, nil
	}
	c, err := NewClient(redisURL)
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, err
	}
	log.Println("[Redis] connected")
	return c, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}
