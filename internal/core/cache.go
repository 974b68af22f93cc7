package core

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"pedigreecore/internal/infra/cache/memory"
	"pedigreecore/internal/infra/cache/redis"
	"pedigreecore/pkg/domain"
)

// PosteriorCache stores posterior tables keyed by a pedigree/model fingerprint.
type PosteriorCache interface {
	Get(ctx context.Context, fingerprint string) (domain.PosteriorTable, bool, error)
	Set(ctx context.Context, fingerprint string, table domain.PosteriorTable) error
}

// CacheDriver identifies a posterior cache implementation.
type CacheDriver string

const (
	CacheNone   CacheDriver = "none"
	CacheMemory CacheDriver = "memory"
	CacheRedis  CacheDriver = "redis"
)

// OpenPosteriorCache selects a cache using environment variables. A nil cache
// with a nil error means caching is disabled.
//
//	PEDIGREECORE_CACHE_DRIVER: none|memory|redis (default none)
//	PEDIGREECORE_CACHE_SIZE: entry bound for the memory cache (default 128)
//	PEDIGREECORE_CACHE_TTL: expiry for redis entries, Go duration (default none)
//	PEDIGREECORE_REDIS_ADDR: redis address (default localhost:6379)
//	PEDIGREECORE_REDIS_PASSWORD / PEDIGREECORE_REDIS_DB
func OpenPosteriorCache(ctx context.Context) (PosteriorCache, error) {
	driver := os.Getenv("PEDIGREECORE_CACHE_DRIVER")
	if driver == "" {
		driver = string(CacheNone)
	}
	switch CacheDriver(driver) {
	case CacheNone:
		return nil, nil
	case CacheMemory:
		size, err := envInt("PEDIGREECORE_CACHE_SIZE", memory.DefaultCapacity)
		if err != nil {
			return nil, err
		}
		return memory.New(size), nil
	case CacheRedis:
		addr := os.Getenv("PEDIGREECORE_REDIS_ADDR")
		if addr == "" {
			addr = "localhost:6379"
		}
		db, err := envInt("PEDIGREECORE_REDIS_DB", 0)
		if err != nil {
			return nil, err
		}
		var opts []redis.Option
		if raw := os.Getenv("PEDIGREECORE_CACHE_TTL"); raw != "" {
			ttl, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("parse PEDIGREECORE_CACHE_TTL: %w", err)
			}
			opts = append(opts, redis.WithTTL(ttl))
		}
		c := redis.New(addr, os.Getenv("PEDIGREECORE_REDIS_PASSWORD"), db, opts...)
		if err := c.Ping(ctx); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %s", driver)
	}
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}
