//go:build unit

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRedisRegistry_Remember tests recording scenario keys
func TestRedisRegistry_Remember(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		feature     string
		scenario    string
		key         string
		setupMock   func(mock redismock.ClientMock)
		expectError bool
	}{
		{
			name:     "successful record",
			feature:  "Login",
			scenario: "User logs in",
			key:      "XSP-12",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectHSet("xray:XSP:tests", "Login::User logs in", "XSP-12").SetVal(1)
			},
			expectError: false,
		},
		{
			name:     "redis failure",
			feature:  "Login",
			scenario: "User logs out",
			key:      "XSP-13",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectHSet("xray:XSP:tests", "Login::User logs out", "XSP-13").SetErr(errors.New("connection refused"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := redismock.NewClientMock()
			registry := NewRedisRegistry(client, "XSP")

			tt.setupMock(mock)

			err := registry.Remember(ctx, tt.feature, tt.scenario, tt.key)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// TestRedisRegistry_Lookup tests reading scenario keys
func TestRedisRegistry_Lookup(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		setupMock   func(mock redismock.ClientMock)
		expectKey   string
		expectError bool
	}{
		{
			name: "known scenario",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectHGet("xray:XSP:tests", "Cart::Add item").SetVal("XSP-7")
			},
			expectKey: "XSP-7",
		},
		{
			name: "unknown scenario",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectHGet("xray:XSP:tests", "Cart::Add item").RedisNil()
			},
			expectKey: "",
		},
		{
			name: "redis failure",
			setupMock: func(mock redismock.ClientMock) {
				mock.ExpectHGet("xray:XSP:tests", "Cart::Add item").SetErr(errors.New("timeout"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := redismock.NewClientMock()
			registry := NewRedisRegistry(client, "XSP")

			tt.setupMock(mock)

			key, err := registry.Lookup(ctx, "Cart", "Add item")

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectKey, key)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// TestRedisRegistry_All tests listing the project's keys
func TestRedisRegistry_All(t *testing.T) {
	client, mock := redismock.NewClientMock()
	registry := NewRedisRegistry(client, "SHOP")

	mock.ExpectHGetAll("xray:SHOP:tests").SetVal(map[string]string{
		"Login::User logs in": "SHOP-1",
		"Cart::Add item":      "SHOP-2",
	})

	keys, err := registry.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Login::User logs in": "SHOP-1",
		"Cart::Add item":      "SHOP-2",
	}, keys)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestRedisRegistry_Ping tests the readiness probe
func TestRedisRegistry_Ping(t *testing.T) {
	client, mock := redismock.NewClientMock()
	registry := NewRedisRegistry(client, "XSP")

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, registry.Ping(context.Background()))

	mock.ExpectPing().SetErr(errors.New("down"))
	assert.Error(t, registry.Ping(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMemoryRegistry tests the in-memory round trip
func TestMemoryRegistry(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryRegistry()

	key, err := registry.Lookup(ctx, "Login", "User logs in")
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, registry.Remember(ctx, "Login", "User logs in", "XSP-1"))
	require.NoError(t, registry.Remember(ctx, "Login", "User logs in", "XSP-2"))

	key, err = registry.Lookup(ctx, "Login", "User logs in")
	require.NoError(t, err)
	assert.Equal(t, "XSP-2", key)

	all, err := registry.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Login::User logs in": "XSP-2"}, all)

	all["Login::User logs in"] = "mutated"
	key, _ = registry.Lookup(ctx, "Login", "User logs in")
	assert.Equal(t, "XSP-2", key)

	assert.NoError(t, registry.Ping(ctx))
}

func TestHashKey(t *testing.T) {
	assert.Equal(t, "xray:XSP:tests", HashKey("XSP"))
	assert.Equal(t, "Login::User logs in", Field("Login", "User logs in"))
}
