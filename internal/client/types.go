package client

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Issue type names used by Xray.
const (
	IssueTypeTest          = "Test"
	IssueTypeTestExecution = "Test Execution"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Credentials are the Xray API client id and secret.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Complete reports whether both values are present.
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// TestIssueRecord is the request shape for creating or updating a test issue.
type TestIssueRecord struct {
	ProjectKey  string   `validate:"required"`
	Summary     string   `validate:"required"`
	Description string
	IssueType   string   `validate:"required"`
	TestType    string   `validate:"required"`
	Gherkin     string   `validate:"required"`
	Labels      []string `validate:"dive,required"`
}

// ExecutionRecord is the request shape for creating a test execution issue.
type ExecutionRecord struct {
	ProjectKey  string `validate:"required"`
	Summary     string `validate:"required"`
	Description string
	Environment string
	Version     string
	TestKeys    []string `validate:"dive,required"`
}

// FieldNames maps record attributes to the tracker's custom field ids.
type FieldNames struct {
	TestType    string
	Gherkin     string
	Environment string
	Version     string
	Tests       string
}

type issueRequest struct {
	Fields map[string]interface{} `json:"fields"`
}

type project struct {
	Key string `json:"key"`
}

type issueType struct {
	Name string `json:"name"`
}

type optionValue struct {
	Value string `json:"value"`
}

type authRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// issueResponse is returned by Jira issue creation and by the Xray execution
// import endpoints.
type issueResponse struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// importResponse is returned by the Xray feature import endpoint.
type importResponse struct {
	UpdatedOrCreatedTests []issueResponse `json:"updatedOrCreatedTests"`
	Errors                []string        `json:"errors"`
	Key                   string          `json:"key"`
}

func (r importResponse) firstKey() string {
	for _, t := range r.UpdatedOrCreatedTests {
		if t.Key != "" {
			return t.Key
		}
	}
	return r.Key
}

func (r TestIssueRecord) request(names FieldNames) (issueRequest, error) {
	if err := validate.Struct(r); err != nil {
		return issueRequest{}, fmt.Errorf("invalid test issue record: %w", err)
	}

	labels := r.Labels
	if labels == nil {
		labels = []string{}
	}

	return issueRequest{Fields: map[string]interface{}{
		"project":      project{Key: r.ProjectKey},
		"summary":      r.Summary,
		"description":  r.Description,
		"issuetype":    issueType{Name: r.IssueType},
		names.TestType: optionValue{Value: r.TestType},
		names.Gherkin:  r.Gherkin,
		"labels":       labels,
	}}, nil
}

func (r ExecutionRecord) request(names FieldNames) (issueRequest, error) {
	if err := validate.Struct(r); err != nil {
		return issueRequest{}, fmt.Errorf("invalid execution record: %w", err)
	}

	tests := r.TestKeys
	if tests == nil {
		tests = []string{}
	}

	return issueRequest{Fields: map[string]interface{}{
		"project":         project{Key: r.ProjectKey},
		"summary":         r.Summary,
		"description":     r.Description,
		"issuetype":       issueType{Name: IssueTypeTestExecution},
		names.Environment: r.Environment,
		names.Version:     r.Version,
		names.Tests:       tests,
	}}, nil
}
