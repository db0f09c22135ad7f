package service

import (
	"context"
	"errors"

	"xray-sync/internal/report"
)

var (
	// ErrNotAuthenticated is returned when the remote service rejected or was never given credentials
	ErrNotAuthenticated = errors.New("not authenticated with Xray")

	// ErrDisabled is returned when the operation is switched off in configuration
	ErrDisabled = errors.New("operation disabled by configuration")

	// ErrRemoteFailed marks an item the remote service did not accept
	ErrRemoteFailed = errors.New("remote operation failed")
)

// Scenario outcome statuses
const (
	StatusCreated = "created"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// ScenarioOutcome is the result of synchronizing one scenario, or of reading
// one file when Scenario is empty
type ScenarioOutcome struct {
	File     string `json:"file"`
	Feature  string `json:"feature,omitempty"`
	Scenario string `json:"scenario,omitempty"`
	Key      string `json:"key,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Err      error  `json:"-"`
}

// UploadOutcome is the result of a report upload
type UploadOutcome struct {
	Report       string   `json:"report"`
	Uploaded     bool     `json:"uploaded"`
	ExecutionKey string   `json:"executionKey,omitempty"`
	TestKeys     []string `json:"testKeys"`
	Passed       int      `json:"passed"`
	Failed       int      `json:"failed"`
	Error        string   `json:"error,omitempty"`
	Err          error    `json:"-"`
}

// SyncService defines the synchronization workflows
type SyncService interface {
	// CreateTestsFromDirectory creates a test issue for every scenario found under path
	CreateTestsFromDirectory(ctx context.Context, path string) ([]ScenarioOutcome, error)

	// UploadResults imports a report and optionally links its tests in a new execution
	UploadResults(ctx context.Context, reportPath, summary string, testKeys []string) UploadOutcome
}

// KeyCollector gathers the test keys an execution should link
type KeyCollector interface {
	// Collect merges caller keys with keys derived from the report, first seen wins
	Collect(ctx context.Context, callerKeys []string, rep *report.Report) []string
}
