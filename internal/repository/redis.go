package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisRegistry implements KeyRegistry with one Redis hash per project
type RedisRegistry struct {
	client *redis.Client
	hash   string
}

// NewRedisRegistry creates a registry storing keys under xray:<project>:tests
func NewRedisRegistry(client *redis.Client, projectKey string) *RedisRegistry {
	return &RedisRegistry{
		client: client,
		hash:   HashKey(projectKey),
	}
}

// HashKey returns the Redis hash holding a project's test keys
func HashKey(projectKey string) string {
	return "xray:" + projectKey + ":tests"
}

// Remember records the key created for a scenario
func (r *RedisRegistry) Remember(ctx context.Context, feature, scenario, key string) error {
	field := Field(feature, scenario)
	slog.Debug("Recording test key in Redis", "hash", r.hash, "field", field, "key", key)

	if err := r.client.HSet(ctx, r.hash, field, key).Err(); err != nil {
		slog.Error("Failed to record test key", "hash", r.hash, "field", field)
		return fmt.Errorf("error recording key for %s: %w", field, err)
	}

	return nil
}

// Lookup returns the key recorded for a scenario
func (r *RedisRegistry) Lookup(ctx context.Context, feature, scenario string) (string, error) {
	field := Field(feature, scenario)
	slog.Debug("Looking up test key in Redis", "hash", r.hash, "field", field)

	value, err := r.client.HGet(ctx, r.hash, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			slog.Debug("Test key not found", "hash", r.hash, "field", field)
			return "", nil
		}
		slog.Error("Failed to look up test key", "hash", r.hash, "field", field)
		return "", fmt.Errorf("error looking up key for %s: %w", field, err)
	}

	return value, nil
}

// All returns every recorded key of the project
func (r *RedisRegistry) All(ctx context.Context) (map[string]string, error) {
	slog.Debug("Retrieving all test keys", "hash", r.hash)

	data, err := r.client.HGetAll(ctx, r.hash).Result()
	if err != nil {
		slog.Error("Failed to retrieve test keys", "hash", r.hash)
		return nil, fmt.Errorf("error retrieving test keys: %w", err)
	}

	slog.Debug("Test keys retrieved", "hash", r.hash, "count", len(data))
	return data, nil
}

// Ping checks the Redis connection
func (r *RedisRegistry) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
