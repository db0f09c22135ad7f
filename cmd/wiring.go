package cmd

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"xray-sync/internal/client"
	"xray-sync/internal/config"
	"xray-sync/internal/repository"
	"xray-sync/internal/service"
)

// app holds the wired dependencies shared by the subcommands
type app struct {
	registry repository.KeyRegistry
	xray     *client.XrayClient
	sync     *service.SyncServiceImpl
	rdb      *redis.Client
}

func newApp(c *config.Config) (*app, error) {
	slog.Debug("Initializing service layer dependencies")

	registry, rdb, err := newRegistry(c)
	if err != nil {
		return nil, err
	}

	xray := client.NewXrayClient(c)
	keys := service.NewKeyCollector(registry, c)

	return &app{
		registry: registry,
		xray:     xray,
		sync:     service.NewSyncService(xray, registry, keys, c),
		rdb:      rdb,
	}, nil
}

// newRegistry uses Redis when REDIS_URL is set and process memory otherwise
func newRegistry(c *config.Config) (repository.KeyRegistry, *redis.Client, error) {
	if c.RedisURL == "" {
		slog.Debug("REDIS_URL not set, using in-memory key registry")
		return repository.NewMemoryRegistry(), nil, nil
	}

	opt, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		slog.Error("Failed to parse Redis URL", "error", err)
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	slog.Info("Using Redis key registry", "addr", opt.Addr, "hash", repository.HashKey(c.ProjectKey))
	rdb := redis.NewClient(opt)
	return repository.NewRedisRegistry(rdb, c.ProjectKey), rdb, nil
}

func (a *app) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}
