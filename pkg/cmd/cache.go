package cmd

import (
	"context"
	"log/slog"

	"github.com/n8njson/directory/pkg/cache"
)

// NewCache connects to Redis when redisURL is set and caches nothing otherwise.
//
// nolint:ireturn // the no-op cache stands in when Redis is not configured
func NewCache(ctx context.Context, logger *slog.Logger, redisURL string) (cache.Cache, error) {
	if redisURL == "" {
		logger.InfoContext(ctx, "Redis not configured, filter options are not cached")

		return cache.Noop{}, nil
	}

	redisCache, err := cache.NewRedis(ctx, logger, redisURL)
	if err != nil {
		return nil, err
	}

	return redisCache, nil
}
