package config

import (
	"context"
	"time"

	"github.com/m-mizutani/ghchangelog/pkg/domain/interfaces"
	"github.com/m-mizutani/ghchangelog/pkg/infra/cache"
	"github.com/urfave/cli/v3"
)

// Cache holds release cache configuration
type Cache struct {
	Location string
	TTL      time.Duration
	Disabled bool
}

// Flags returns CLI flags for cache configuration
func (c *Cache) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "cache-dir",
			Usage:       "Release cache location, a directory or gs://bucket/prefix (default: user cache directory)",
			Destination: &c.Location,
			Sources:     cli.EnvVars("GHCHANGELOG_CACHE_DIR"),
		},
		&cli.DurationFlag{
			Name:        "cache-ttl",
			Usage:       "How long cached releases are used",
			Value:       cache.DefaultTTL,
			Destination: &c.TTL,
			Sources:     cli.EnvVars("GHCHANGELOG_CACHE_TTL"),
		},
		&cli.BoolFlag{
			Name:        "no-cache",
			Usage:       "Always retrieve releases from GitHub",
			Destination: &c.Disabled,
			Sources:     cli.EnvVars("GHCHANGELOG_NO_CACHE"),
		},
	}
}

// Wrap returns inner behind the configured cache. The returned function
// releases the cache backend.
func (c *Cache) Wrap(ctx context.Context, inner interfaces.ReleaseFetcher) (interfaces.ReleaseFetcher, func() error, error) {
	noop := func() error { return nil }
	if c.Disabled {
		return inner, noop, nil
	}

	if cache.IsGCSURL(c.Location) {
		store, err := cache.NewGCSStore(ctx, c.Location)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewFetcher(inner, store, cache.WithTTL(c.TTL)), store.Close, nil
	}

	store, err := cache.NewFileStore(c.Location)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewFetcher(inner, store, cache.WithTTL(c.TTL)), noop, nil
}
