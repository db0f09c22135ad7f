package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/hashicorp/go-retryablehttp"
)

// Session exchanges client credentials for a bearer token. The token lives as
// long as the session; it is written once and never refreshed.
type Session struct {
	httpClient  *retryablehttp.Client
	authURL     string
	credentials Credentials

	mu    sync.RWMutex
	token string
}

// NewSession creates a session that authenticates against authURL
func NewSession(httpClient *retryablehttp.Client, authURL string, credentials Credentials) *Session {
	slog.Debug("Initializing Xray session",
		"auth_url", authURL,
		"client_id_configured", credentials.ClientID != "",
		"client_secret_configured", credentials.ClientSecret != "",
	)

	return &Session{
		httpClient:  httpClient,
		authURL:     authURL,
		credentials: credentials,
	}
}

// Authenticate obtains a token. Missing credentials return false without a
// network call. Any non-200 response, transport failure or empty token also
// returns false and leaves the session unauthenticated.
func (s *Session) Authenticate(ctx context.Context) bool {
	if s.IsAuthenticated() {
		slog.Debug("Reusing existing Xray token")
		return true
	}

	if !s.credentials.Complete() {
		slog.Warn("Xray credentials not configured. Set XRAY_CLIENT_ID and XRAY_CLIENT_SECRET environment variables.")
		return false
	}

	payload, err := json.Marshal(authRequest{
		ClientID:     s.credentials.ClientID,
		ClientSecret: s.credentials.ClientSecret,
	})
	if err != nil {
		slog.Error("Failed to marshal authentication request", "error", err)
		return false
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.authURL, payload)
	if err != nil {
		slog.Error("Failed to create authentication request", "error", err, "url", s.authURL)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("Sending authentication request", "url", s.authURL)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Error("Error during Xray authentication", "error", err, "url", s.authURL)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Failed to read authentication response", "error", err)
		return false
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("Xray authentication failed", "status_code", resp.StatusCode)
		return false
	}

	token := strings.Trim(strings.TrimSpace(string(body)), `"`)
	if token == "" {
		slog.Error("Xray authentication returned an empty token")
		return false
	}

	s.mu.Lock()
	if s.token == "" {
		s.token = token
	}
	s.mu.Unlock()

	slog.Info("Successfully authenticated with Xray")
	return true
}

// IsAuthenticated reports whether a token is held. It never calls the network.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Authorize sets the bearer authorization header on req
func (s *Session) Authorize(req *retryablehttp.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req.Header.Set("Authorization", "Bearer "+s.token)
}
