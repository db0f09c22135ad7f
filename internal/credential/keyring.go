// Package credential resolves Xray client credentials from the system keyring
// when they are not present in the environment or properties file.
package credential

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/99designs/keyring"
)

const serviceName = "xray-sync"

// Keyring item names.
const (
	ClientIDKey     = "xray.client.id"
	ClientSecretKey = "xray.client.secret"
)

// Store is the subset of keyring.Keyring used here.
type Store interface {
	Get(key string) (keyring.Item, error)
	Set(item keyring.Item) error
}

// Open returns the system keyring for this tool.
func Open() (Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/xray-sync/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("xray-sync-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get returns the value stored under key. A missing item is returned as an
// empty string without error.
func Get(store Store, key string) (string, error) {
	item, err := store.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func Set(store Store, key, value string) error {
	if err := store.Set(keyring.Item{Key: key, Data: []byte(value)}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Fill sets id and secret from the store when they are empty. Lookup errors
// leave the values untouched; missing credentials are not fatal.
func Fill(store Store, id, secret *string) {
	if *id != "" && *secret != "" {
		return
	}

	if *id == "" {
		value, err := Get(store, ClientIDKey)
		if err != nil {
			slog.Warn("Failed to read client id from keyring", "error", err)
		}
		*id = value
	}

	if *secret == "" {
		value, err := Get(store, ClientSecretKey)
		if err != nil {
			slog.Warn("Failed to read client secret from keyring", "error", err)
		}
		*secret = value
	}

	slog.Debug("Credentials resolved from keyring",
		"client_id_configured", *id != "",
		"client_secret_configured", *secret != "",
	)
}
