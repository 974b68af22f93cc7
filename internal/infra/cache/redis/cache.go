// Package redis stores posterior tables in Redis as JSON under a key prefix.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"pedigreecore/pkg/domain"
)

// DefaultPrefix namespaces cached posteriors.
const DefaultPrefix = "pedigreecore:posterior:"

// Cache implements the posterior cache on a Redis client.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the expiration of cached tables; zero keeps them indefinitely.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New connects to the Redis server at address.
func New(address, password string, db int, opts ...Option) *Cache {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	c := &Cache{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) key(fingerprint string) string { return c.prefix + fingerprint }

// Get loads the table cached under fingerprint.
func (c *Cache) Get(ctx context.Context, fingerprint string) (domain.PosteriorTable, bool, error) {
	val, err := c.client.Get(ctx, c.key(fingerprint)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get from redis: %w", err)
	}
	var table domain.PosteriorTable
	if err := json.Unmarshal(val, &table); err != nil {
		return nil, false, fmt.Errorf("decode cached posterior: %w", err)
	}
	return table, true, nil
}

// Set stores table under fingerprint.
func (c *Cache) Set(ctx context.Context, fingerprint string, table domain.PosteriorTable) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode posterior: %w", err)
	}
	if err := c.client.Set(ctx, c.key(fingerprint), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set in redis: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error { return c.client.Ping(ctx).Err() }

// Close closes the redis client.
func (c *Cache) Close() error { return c.client.Close() }
