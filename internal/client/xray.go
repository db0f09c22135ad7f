package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"xray-sync/internal/config"
)

const (
	authenticatePath  = "/api/v1/authenticate"
	importFeaturePath = "/api/v1/import/feature"
	importResultsPath = "/api/v1/import/execution/cucumber"
	createIssuePath   = "/rest/api/2/issue"

	executionDescription = "Automated test execution for E-Commerce application"
	summaryTimeLayout    = "2006-01-02 15:04"
	maxLoggedBody        = 512
)

// XrayClient implements TestManager against Xray Cloud and Jira
type XrayClient struct {
	httpClient *retryablehttp.Client
	session    *Session
	fields     FieldNames

	xrayBaseURL     string
	jiraURL         string
	projectKey      string
	testEnvironment string
	defaultVersion  string

	now func() time.Time
}

// NewXrayClient creates a new Xray client instance
func NewXrayClient(cfg *config.Config) *XrayClient {
	slog.Debug("Initializing Xray client",
		"xray_url", cfg.XrayBaseURL,
		"jira_url", cfg.JiraURL,
		"project_key", cfg.ProjectKey,
		"retry_max", cfg.RetryMax,
		"skip_tls", cfg.SkipTLS,
	)

	// Authentication is never retried.
	authClient := NewHTTPClient(cfg.HTTPTimeout, 0, cfg.SkipTLS)
	session := NewSession(authClient, cfg.XrayBaseURL+authenticatePath, Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	})

	slog.Info("Xray client initialized", "project_key", cfg.ProjectKey)

	return &XrayClient{
		httpClient: NewHTTPClient(cfg.HTTPTimeout, cfg.RetryMax, cfg.SkipTLS),
		session:    session,
		fields: FieldNames{
			TestType:    cfg.TestTypeField,
			Gherkin:     cfg.GherkinField,
			Environment: cfg.EnvironmentField,
			Version:     cfg.VersionField,
			Tests:       cfg.TestsField,
		},
		xrayBaseURL:     cfg.XrayBaseURL,
		jiraURL:         cfg.JiraURL,
		projectKey:      cfg.ProjectKey,
		testEnvironment: cfg.TestEnvironment,
		defaultVersion:  cfg.DefaultVersion,
		now:             time.Now,
	}
}

// Authenticate delegates to the session
func (x *XrayClient) Authenticate(ctx context.Context) bool {
	return x.session.Authenticate(ctx)
}

// IsAuthenticated delegates to the session
func (x *XrayClient) IsAuthenticated() bool {
	return x.session.IsAuthenticated()
}

// CreateTestIssue imports a test issue and returns the key assigned by Xray
func (x *XrayClient) CreateTestIssue(ctx context.Context, record TestIssueRecord) (string, bool) {
	if !x.IsAuthenticated() {
		slog.Warn("Not authenticated with Xray. Cannot create test issue.", "summary", record.Summary)
		return "", false
	}

	req, err := record.request(x.fields)
	if err != nil {
		slog.Error("Failed to build test issue request", "error", err, "summary", record.Summary)
		return "", false
	}

	payload, err := json.Marshal(req)
	if err != nil {
		slog.Error("Failed to marshal test issue request", "error", err, "summary", record.Summary)
		return "", false
	}

	status, body, err := x.post(ctx, x.xrayBaseURL+importFeaturePath, payload)
	if err != nil {
		slog.Error("Error creating test issue", "error", err, "summary", record.Summary)
		return "", false
	}

	if status != http.StatusOK {
		slog.Error("Failed to create test issue",
			"status_code", status,
			"body", truncate(body),
			"summary", record.Summary,
		)
		return "", false
	}

	var resp importResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Error("Failed to decode test issue response", "error", err, "body", truncate(body))
		return "", false
	}

	key := resp.firstKey()
	if key == "" {
		slog.Error("Test issue response contained no key", "errors", resp.Errors, "body", truncate(body))
		return "", false
	}

	slog.Info("Successfully created test issue", "key", key, "summary", record.Summary)
	return key, true
}

// UploadResults imports a Cucumber JSON report. A missing report fails
// locally without contacting Xray.
func (x *XrayClient) UploadResults(ctx context.Context, reportPath string) bool {
	if !x.IsAuthenticated() {
		slog.Warn("Not authenticated with Xray. Cannot upload results.", "report", reportPath)
		return false
	}

	content, err := readReport(reportPath)
	if err != nil {
		slog.Error("Cucumber JSON report not readable", "error", err, "report", reportPath)
		return false
	}

	status, body, err := x.post(ctx, x.xrayBaseURL+importResultsPath, content)
	if err != nil {
		slog.Error("Error uploading test results", "error", err, "report", reportPath)
		return false
	}

	if status != http.StatusOK {
		slog.Error("Failed to upload test results",
			"status_code", status,
			"body", truncate(body),
			"report", reportPath,
		)
		return false
	}

	var resp issueResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Key != "" {
		slog.Info("Successfully uploaded test results to Xray", "report", reportPath, "import_key", resp.Key)
	} else {
		slog.Info("Successfully uploaded test results to Xray", "report", reportPath)
	}
	return true
}

// CreateExecution creates a Test Execution issue linking testKeys. An empty
// summary is replaced by a timestamped default.
func (x *XrayClient) CreateExecution(ctx context.Context, summary string, testKeys []string) (string, bool) {
	if !x.IsAuthenticated() {
		slog.Warn("Not authenticated with Xray. Cannot create test execution.")
		return "", false
	}

	if summary == "" {
		summary = DefaultExecutionSummary(x.now())
	}

	record := ExecutionRecord{
		ProjectKey:  x.projectKey,
		Summary:     summary,
		Description: executionDescription,
		Environment: x.testEnvironment,
		Version:     x.defaultVersion,
		TestKeys:    testKeys,
	}

	req, err := record.request(x.fields)
	if err != nil {
		slog.Error("Failed to build test execution request", "error", err, "summary", summary)
		return "", false
	}

	payload, err := json.Marshal(req)
	if err != nil {
		slog.Error("Failed to marshal test execution request", "error", err, "summary", summary)
		return "", false
	}

	status, body, err := x.post(ctx, x.jiraURL+createIssuePath, payload)
	if err != nil {
		slog.Error("Error creating test execution", "error", err, "summary", summary)
		return "", false
	}

	if status != http.StatusCreated {
		slog.Error("Failed to create test execution",
			"status_code", status,
			"body", truncate(body),
			"summary", summary,
		)
		return "", false
	}

	var resp issueResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Key == "" {
		slog.Error("Test execution response contained no key", "error", err, "body", truncate(body))
		return "", false
	}

	slog.Info("Successfully created test execution", "key", resp.Key, "test_count", len(testKeys))
	return resp.Key, true
}

// DefaultExecutionSummary is the summary used when the caller supplies none
func DefaultExecutionSummary(t time.Time) string {
	return "Automated Test Execution - " + t.Format(summaryTimeLayout)
}

// post sends an authorized JSON POST and returns status and body
func (x *XrayClient) post(ctx context.Context, url string, payload []byte) (int, []byte, error) {
	req, err := newJSONRequest(ctx, url, payload)
	if err != nil {
		return 0, nil, err
	}
	requestID := req.Header.Get("X-Request-ID")
	x.session.Authorize(req)

	slog.Debug("Sending HTTP request to Xray", "url", url, "request_id", requestID, "bytes", len(payload))
	resp, err := x.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("error reading response: %w", err)
	}

	slog.Debug("Received response from Xray", "url", url, "request_id", requestID, "status_code", resp.StatusCode)
	return resp.StatusCode, body, nil
}

// newJSONRequest builds a JSON POST carrying a fresh X-Request-ID
func newJSONRequest(ctx context.Context, url string, payload []byte) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

func readReport(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return io.ReadAll(f)
}

func truncate(body []byte) string {
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "..."
	}
	return string(body)
}
