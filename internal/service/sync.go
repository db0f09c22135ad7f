package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"xray-sync/internal/client"
	"xray-sync/internal/config"
	"xray-sync/internal/report"
	"xray-sync/internal/repository"
	"xray-sync/internal/scenario"
)

// SyncServiceImpl implements the SyncService interface
type SyncServiceImpl struct {
	testManager client.TestManager
	registry    repository.KeyRegistry
	keys        KeyCollector
	config      *config.Config
}

// NewSyncService creates a new sync service instance
func NewSyncService(
	testManager client.TestManager,
	registry repository.KeyRegistry,
	keys KeyCollector,
	cfg *config.Config,
) *SyncServiceImpl {
	return &SyncServiceImpl{
		testManager: testManager,
		registry:    registry,
		keys:        keys,
		config:      cfg,
	}
}

// BuildTestIssueRecord maps a parsed scenario onto a test issue request
func BuildTestIssueRecord(def scenario.Definition, cfg *config.Config) client.TestIssueRecord {
	labels := append([]string{}, cfg.DefaultLabels...)
	if cfg.IncludeScenarioTags {
		labels = append(labels, def.Tags...)
	}

	return client.TestIssueRecord{
		ProjectKey:  cfg.ProjectKey,
		Summary:     def.Title,
		Description: fmt.Sprintf("Automated test from %s feature\n\nFeature: %s", def.SourceFile, def.FeatureTitle),
		IssueType:   client.IssueTypeTest,
		TestType:    cfg.TestType,
		Gherkin:     def.Body,
		Labels:      labels,
	}
}

// CreateTestsFromDirectory walks path and creates a test issue per scenario.
// Only disabled configuration, failed authentication and an unreadable root
// return an error; per-file and per-scenario failures are reported as outcomes.
func (s *SyncServiceImpl) CreateTestsFromDirectory(ctx context.Context, path string) ([]ScenarioOutcome, error) {
	if !s.config.CreateTestsEnabled {
		slog.Info("Test creation is disabled, skipping", "path", path)
		return nil, ErrDisabled
	}

	if !s.testManager.Authenticate(ctx) {
		slog.Error("Failed to authenticate with Xray. Check your credentials.")
		return nil, ErrNotAuthenticated
	}

	files, err := scenario.Walk(path, s.config.FeatureExtension)
	if err != nil {
		slog.Error("Failed to list feature files", "error", err, "path", path)
		return nil, fmt.Errorf("failed to list feature files: %w", err)
	}

	slog.Info("Starting test creation", "path", path, "file_count", len(files))

	var outcomes []ScenarioOutcome
	for _, file := range files {
		outcomes = append(outcomes, s.processFeatureFile(ctx, file)...)
	}

	created, skipped, failed := countOutcomes(outcomes)
	slog.Info("Test creation finished",
		"path", path,
		"created", created,
		"skipped", skipped,
		"failed", failed,
	)

	return outcomes, nil
}

func (s *SyncServiceImpl) processFeatureFile(ctx context.Context, file string) []ScenarioOutcome {
	defs, err := scenario.ParseFile(file)
	if err != nil {
		slog.Error("Error reading feature file", "error", err, "file", file)
		return []ScenarioOutcome{failedOutcome(ScenarioOutcome{File: filepath.Base(file)}, err)}
	}

	slog.Info("Processing feature file", "file", filepath.Base(file), "scenario_count", len(defs))

	outcomes := make([]ScenarioOutcome, 0, len(defs))
	for _, def := range defs {
		outcomes = append(outcomes, s.createTest(ctx, def))
	}
	return outcomes
}

func (s *SyncServiceImpl) createTest(ctx context.Context, def scenario.Definition) ScenarioOutcome {
	outcome := ScenarioOutcome{
		File:     def.SourceFile,
		Feature:  def.FeatureTitle,
		Scenario: def.Title,
	}

	if !s.config.UpdateExistingTests {
		existing, err := s.registry.Lookup(ctx, def.FeatureTitle, def.Title)
		if err != nil {
			slog.Warn("Failed to look up existing test key", "error", err, "scenario", def.Title)
		} else if existing != "" {
			slog.Info("Test already exists, skipping", "key", existing, "scenario", def.Title)
			outcome.Key = existing
			outcome.Status = StatusSkipped
			return outcome
		}
	}

	key, ok := s.testManager.CreateTestIssue(ctx, BuildTestIssueRecord(def, s.config))
	if !ok {
		slog.Warn("Failed to create test for scenario", "scenario", def.Title, "file", def.SourceFile)
		return failedOutcome(outcome, ErrRemoteFailed)
	}

	if err := s.registry.Remember(ctx, def.FeatureTitle, def.Title, key); err != nil {
		slog.Warn("Failed to record test key", "error", err, "key", key, "scenario", def.Title)
	}

	slog.Info("Created test for scenario", "key", key, "scenario", def.Title)
	outcome.Key = key
	outcome.Status = StatusCreated
	return outcome
}

// UploadResults authenticates, uploads the report and, when configured,
// creates a test execution. Failed authentication never reaches the upload.
func (s *SyncServiceImpl) UploadResults(ctx context.Context, reportPath, summary string, testKeys []string) UploadOutcome {
	outcome := UploadOutcome{Report: reportPath, TestKeys: []string{}}

	if !s.config.UploadResultsEnabled {
		slog.Info("Result upload is disabled, skipping", "report", reportPath)
		return failedUpload(outcome, ErrDisabled)
	}

	if !s.testManager.Authenticate(ctx) {
		slog.Error("Failed to authenticate with Xray. Cannot upload results.")
		return failedUpload(outcome, ErrNotAuthenticated)
	}

	rep, err := report.Read(reportPath)
	if err != nil {
		var decodeErr *report.DecodeError
		if !errors.As(err, &decodeErr) {
			slog.Error("Cucumber JSON report not found", "error", err, "report", reportPath)
			return failedUpload(outcome, fmt.Errorf("failed to read report: %w", err))
		}
		// The remote side owns the format; an undecodable report is still uploaded.
		slog.Warn("Report could not be decoded, uploading without key extraction", "error", err, "report", reportPath)
		rep = nil
	}

	if rep != nil {
		outcome.Passed, outcome.Failed = rep.Summary()
	}

	if !s.testManager.UploadResults(ctx, reportPath) {
		return failedUpload(outcome, fmt.Errorf("failed to upload results: %w", ErrRemoteFailed))
	}
	outcome.Uploaded = true

	if !s.config.AutoCreateExecution {
		slog.Info("Results uploaded", "report", reportPath, "passed", outcome.Passed, "failed", outcome.Failed)
		return outcome
	}

	outcome.TestKeys = s.keys.Collect(ctx, testKeys, rep)

	executionKey, ok := s.testManager.CreateExecution(ctx, summary, outcome.TestKeys)
	if !ok {
		slog.Warn("Failed to create test execution", "report", reportPath)
		return failedUpload(outcome, fmt.Errorf("failed to create test execution: %w", ErrRemoteFailed))
	}

	slog.Info("Created test execution",
		"key", executionKey,
		"test_count", len(outcome.TestKeys),
		"passed", outcome.Passed,
		"failed", outcome.Failed,
	)
	outcome.ExecutionKey = executionKey
	return outcome
}

func failedOutcome(o ScenarioOutcome, err error) ScenarioOutcome {
	o.Status = StatusFailed
	o.Err = err
	o.Error = err.Error()
	return o
}

func failedUpload(o UploadOutcome, err error) UploadOutcome {
	o.Err = err
	o.Error = err.Error()
	return o
}

func countOutcomes(outcomes []ScenarioOutcome) (created, skipped, failed int) {
	for _, o := range outcomes {
		switch o.Status {
		case StatusCreated:
			created++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return created, skipped, failed
}
