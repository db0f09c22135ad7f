package client

import "context"

// TestManager defines the remote test-management operations. None of them
// return errors: failures are logged and reported as a false/empty result.
type TestManager interface {
	// Authenticate exchanges the configured credentials for a token
	Authenticate(ctx context.Context) bool

	// IsAuthenticated reports whether a token is held
	IsAuthenticated() bool

	// CreateTestIssue creates or updates a test issue and returns its key
	CreateTestIssue(ctx context.Context, record TestIssueRecord) (string, bool)

	// UploadResults imports an execution report file
	UploadResults(ctx context.Context, reportPath string) bool

	// CreateExecution creates a test execution linking testKeys
	CreateExecution(ctx context.Context, summary string, testKeys []string) (string, bool)
}
