package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// ForwardRequest is the body accepted by a serving instance's /results endpoint
type ForwardRequest struct {
	ReportPath string   `json:"reportPath"`
	Summary    string   `json:"summary,omitempty"`
	TestKeys   []string `json:"testKeys,omitempty"`
}

// ForwardResponse is the subset of the /results response the forwarder reads
type ForwardResponse struct {
	Uploaded     bool   `json:"uploaded"`
	ExecutionKey string `json:"executionKey"`
	Error        string `json:"error"`
}

// ResultsForwarder hands a finished report to a remote xray-sync service
type ResultsForwarder struct {
	endpoint    string
	bearerToken string
	retryMax    int
	timeout     time.Duration
}

// NewResultsForwarder creates a forwarder for the service at endpoint. Failed
// deliveries are retried up to twice with exponential backoff.
func NewResultsForwarder(endpoint, bearerToken string) *ResultsForwarder {
	return &ResultsForwarder{
		endpoint:    strings.TrimRight(endpoint, "/"),
		bearerToken: bearerToken,
		retryMax:    2,
		timeout:     10 * time.Second,
	}
}

// Forward posts req to <endpoint>/results
func (f *ResultsForwarder) Forward(ctx context.Context, req ForwardRequest) (*ForwardResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("error marshaling payload: %w", err)
	}

	httpClient := NewHTTPClient(f.timeout, f.retryMax, false)

	httpReq, err := newJSONRequest(ctx, f.endpoint+"/results", payload)
	if err != nil {
		return nil, err
	}
	if f.bearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+f.bearerToken)
	}

	slog.Debug("Forwarding results", "endpoint", f.endpoint, "report", req.ReportPath)
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error sending results: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	var out ForwardResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("received status code %d: %s", resp.StatusCode, truncate(body))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &out, fmt.Errorf("received non-success status code: %d", resp.StatusCode)
	}

	slog.Info("Results forwarded", "endpoint", f.endpoint, "execution_key", out.ExecutionKey)
	return &out, nil
}
