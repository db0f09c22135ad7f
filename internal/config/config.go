package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// Config holds application configuration
type Config struct {
	// Logging configuration
	LogLevel string

	// Xray credentials
	ClientID     string
	ClientSecret string
	UseKeyring   bool

	// Remote endpoints
	XrayBaseURL string
	JiraURL     string
	HTTPTimeout time.Duration
	RetryMax    int
	SkipTLS     bool

	// Project configuration
	ProjectKey      string
	TestType        string
	TestEnvironment string
	DefaultVersion  string
	DefaultLabels   []string

	// Custom field ids of the tracker schema
	TestTypeField    string
	GherkinField     string
	EnvironmentField string
	VersionField     string
	TestsField       string

	// Feature switches
	CreateTestsEnabled   bool
	UpdateExistingTests  bool
	UploadResultsEnabled bool
	AutoCreateExecution  bool
	IncludeScenarioTags  bool

	// Scenario discovery
	FeatureExtension string

	// Key registry
	RedisURL string

	// Server configuration
	EnableAuthentication bool
	BearerToken          string
	Port                 string
}

// properties is the optional key=value file layered under the environment.
type properties struct {
	file *ini.File
}

func (p properties) get(key string) string {
	if p.file == nil {
		return ""
	}
	return p.file.Section(ini.DefaultSection).Key(key).String()
}

// LoadConfig loads configuration from environment variables, falling back to
// the properties file named by XRAY_PROPERTIES (default xray.properties).
func LoadConfig() *Config {
	props := loadProperties(getEnvString("XRAY_PROPERTIES", "xray.properties"))

	return &Config{
		// Logging
		LogLevel: getEnvString("LOG_LEVEL", "info"),

		// Credentials
		ClientID:     lookup(props, "XRAY_CLIENT_ID", "xray.client.id", ""),
		ClientSecret: lookup(props, "XRAY_CLIENT_SECRET", "xray.client.secret", ""),
		UseKeyring:   lookupBool(props, "XRAY_USE_KEYRING", "xray.use.keyring", false),

		// Endpoints
		XrayBaseURL: strings.TrimRight(lookup(props, "XRAY_BASE_URL", "xray.base.url", "https://xray.cloud.getxray.app"), "/"),
		JiraURL:     strings.TrimRight(lookup(props, "XRAY_JIRA_URL", "xray.jira.url", "https://dirtybootsstudios.atlassian.net"), "/"),
		HTTPTimeout: time.Duration(lookupInt(props, "XRAY_HTTP_TIMEOUT", "xray.http.timeout", 30)) * time.Second,
		RetryMax:    lookupInt(props, "XRAY_RETRY_MAX", "xray.retry.max", 0),
		SkipTLS:     lookupBool(props, "XRAY_SKIP_TLS_VERIFY", "xray.skip.tls.verify", false),

		// Project
		ProjectKey:      lookup(props, "XRAY_PROJECT_KEY", "xray.project.key", "XSP"),
		TestType:        lookup(props, "XRAY_TEST_TYPE", "xray.test.type", "Cucumber"),
		TestEnvironment: lookup(props, "XRAY_TEST_ENVIRONMENT", "xray.test.environment", "localhost:3000"),
		DefaultVersion:  lookup(props, "XRAY_DEFAULT_VERSION", "xray.default.version", "1.0.0"),
		DefaultLabels:   splitList(lookup(props, "XRAY_DEFAULT_LABELS", "xray.default.labels", "automation,e2e,cucumber")),

		// Custom fields
		TestTypeField:    lookup(props, "XRAY_FIELD_TEST_TYPE", "xray.field.test.type", "customfield_10100"),
		GherkinField:     lookup(props, "XRAY_FIELD_GHERKIN", "xray.field.gherkin", "customfield_10200"),
		EnvironmentField: lookup(props, "XRAY_FIELD_ENVIRONMENT", "xray.field.environment", "customfield_10300"),
		VersionField:     lookup(props, "XRAY_FIELD_VERSION", "xray.field.version", "customfield_10400"),
		TestsField:       lookup(props, "XRAY_FIELD_TESTS", "xray.field.tests", "customfield_10500"),

		// Switches
		CreateTestsEnabled:   lookupBool(props, "XRAY_CREATE_TESTS_ENABLED", "xray.create.tests.enabled", true),
		UpdateExistingTests:  lookupBool(props, "XRAY_UPDATE_EXISTING_TESTS", "xray.update.existing.tests", true),
		UploadResultsEnabled: lookupBool(props, "XRAY_UPLOAD_RESULTS_ENABLED", "xray.upload.results.enabled", true),
		AutoCreateExecution:  lookupBool(props, "XRAY_AUTO_CREATE_TEST_EXECUTION", "xray.auto.create.test.execution", true),
		IncludeScenarioTags:  lookupBool(props, "XRAY_INCLUDE_SCENARIO_TAGS", "xray.include.scenario.tags", false),

		FeatureExtension: lookup(props, "XRAY_FEATURE_EXTENSION", "xray.feature.extension", ".feature"),

		// Redis
		RedisURL: getEnvString("REDIS_URL", ""),

		// Server
		EnableAuthentication: getEnvBool("ENABLE_AUTHENTICATION", false),
		BearerToken:          getEnvString("BEARER_TOKEN", ""),
		Port:                 getEnvString("PORT", "8080"),
	}
}

// Validate checks if required configuration is present. Missing credentials
// are not a validation error: authentication is skipped for those runs.
func (c *Config) Validate() error {
	if c.XrayBaseURL == "" {
		return &ConfigError{Field: "XRAY_BASE_URL", Message: "Xray base URL is required"}
	}

	if c.JiraURL == "" {
		return &ConfigError{Field: "XRAY_JIRA_URL", Message: "Jira URL is required"}
	}

	if c.ProjectKey == "" {
		return &ConfigError{Field: "XRAY_PROJECT_KEY", Message: "Project key is required"}
	}

	if c.RetryMax < 0 {
		return &ConfigError{Field: "XRAY_RETRY_MAX", Message: "Retry count cannot be negative"}
	}

	if c.HTTPTimeout <= 0 {
		return &ConfigError{Field: "XRAY_HTTP_TIMEOUT", Message: "HTTP timeout must be positive"}
	}

	if c.EnableAuthentication && c.BearerToken == "" {
		return &ConfigError{Field: "BEARER_TOKEN", Message: "Bearer token is required when authentication is enabled"}
	}

	return nil
}

// HasCredentials reports whether both client id and secret are configured
func (c *Config) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// GetLogLevel returns the slog.Level for the configured log level
func (c *Config) GetLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "Configuration error for " + e.Field + ": " + e.Message
}

func loadProperties(path string) properties {
	if path == "" {
		return properties{}
	}

	// Loose ignores a missing file; the properties file is optional.
	file, err := ini.LoadSources(ini.LoadOptions{Loose: true, IgnoreInlineComment: true}, path)
	if err != nil {
		slog.Warn("Failed to read properties file, using environment only", "path", path, "error", err)
		return properties{}
	}

	return properties{file: file}
}

// Helper functions for environment variable parsing

func lookup(props properties, envKey, propKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	if value := props.get(propKey); value != "" {
		return value
	}
	return defaultValue
}

func lookupBool(props properties, envKey, propKey string, defaultValue bool) bool {
	if value := lookup(props, envKey, propKey, ""); value != "" {
		return strings.ToLower(value) == "true"
	}
	return defaultValue
}

func lookupInt(props properties, envKey, propKey string, defaultValue int) int {
	if value := lookup(props, envKey, propKey, ""); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true"
	}
	return defaultValue
}
