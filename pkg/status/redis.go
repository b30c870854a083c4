package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dukex/weatherflow/pkg/models"
)

// DefaultRedisKey is the hash holding one field per node.
const DefaultRedisKey = "weatherflow:node-status"

// RedisStore keeps statuses in a single Redis hash so several engines can share one view.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	logger *slog.Logger
}

// NewRedisStore connects using a redis:// URL and verifies the connection.
func NewRedisStore(ctx context.Context, logger *slog.Logger, redisURL, key string) (*RedisStore, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr, "db", options.DB)

	return NewRedisStoreWithClient(client, logger, key), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient, logger *slog.Logger, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}

	return &RedisStore{
		client: client,
		key:    key,
		logger: logger.With("module", "status_store"),
	}
}

func (s *RedisStore) Set(ctx context.Context, status models.NodeStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	return s.client.HSet(ctx, s.key, status.NodeID, data).Err()
}

func (s *RedisStore) Get(ctx context.Context, nodeID string) (models.NodeStatus, error) {
	data, err := s.client.HGet(ctx, s.key, nodeID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.NodeStatus{}, ErrNotFound
		}

		return models.NodeStatus{}, err
	}

	var status models.NodeStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return models.NodeStatus{}, fmt.Errorf("decode status: %w", err)
	}

	return status, nil
}

func (s *RedisStore) List(ctx context.Context) ([]models.NodeStatus, error) {
	entries, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}

	statuses := make([]models.NodeStatus, 0, len(entries))

	for nodeID, data := range entries {
		var status models.NodeStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			s.logger.Warn("Skipping undecodable status", "node_id", nodeID, "error", err)

			continue
		}

		statuses = append(statuses, status)
	}

	sortByNode(statuses)

	return statuses, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
