package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/weatherflow/pkg/status"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

func NewStatusStore(ctx context.Context, logger *slog.Logger, provider, redisURL string) (status.Store, error) {
	switch provider {
	case StoreMemory:
		return status.NewMemoryStore(), nil
	case StoreRedis:
		if redisURL == "" {
			return nil, fmt.Errorf("%w: redis status store needs a redis url", ErrUnsupportedProvider)
		}

		store, err := status.NewRedisStore(ctx, logger, redisURL, status.DefaultRedisKey)
		if err != nil {
			return nil, fmt.Errorf("failed to connect redis status store: %w", err)
		}

		return store, nil
	default:
		return nil, fmt.Errorf("%w: status store %q", ErrUnsupportedProvider, provider)
	}
}
