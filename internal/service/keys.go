package service

import (
	"context"
	"log/slog"
	"strings"

	"xray-sync/internal/config"
	"xray-sync/internal/report"
	"xray-sync/internal/repository"
)

// KeyCollectorImpl implements KeyCollector
type KeyCollectorImpl struct {
	registry repository.KeyRegistry
	config   *config.Config
}

// NewKeyCollector creates a new key collector instance
func NewKeyCollector(registry repository.KeyRegistry, cfg *config.Config) *KeyCollectorImpl {
	return &KeyCollectorImpl{
		registry: registry,
		config:   cfg,
	}
}

// Collect returns caller keys, then keys tagged on report scenarios, then keys
// the registry holds for report scenarios. Duplicates keep their first position.
func (k *KeyCollectorImpl) Collect(ctx context.Context, callerKeys []string, rep *report.Report) []string {
	seen := make(map[string]bool)
	keys := []string{}

	add := func(key string) {
		key = strings.TrimSpace(key)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		keys = append(keys, key)
	}

	for _, key := range callerKeys {
		add(key)
	}

	if rep == nil {
		return keys
	}

	for _, key := range rep.KeysForProject(k.config.ProjectKey) {
		add(key)
	}

	for _, s := range rep.Scenarios {
		key, err := k.registry.Lookup(ctx, s.Feature, s.Name)
		if err != nil {
			slog.Warn("Failed to look up test key for executed scenario",
				"error", err,
				"feature", s.Feature,
				"scenario", s.Name,
			)
			continue
		}
		add(key)
	}

	slog.Debug("Collected execution test keys",
		"caller_keys", len(callerKeys),
		"total_keys", len(keys),
	)

	return keys
}
