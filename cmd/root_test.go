//go:build unit

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xray-sync/internal/config"
	"xray-sync/internal/credential"
	"xray-sync/internal/repository"
	"xray-sync/internal/service"
)

func getTestConfig() *config.Config {
	return &config.Config{
		XrayBaseURL:          "http://127.0.0.1:1",
		JiraURL:              "http://127.0.0.1:1",
		HTTPTimeout:          time.Second,
		ProjectKey:           "XSP",
		TestType:             "Cucumber",
		DefaultLabels:        []string{"automation"},
		TestTypeField:        "customfield_10100",
		GherkinField:         "customfield_10200",
		EnvironmentField:     "customfield_10300",
		VersionField:         "customfield_10400",
		TestsField:           "customfield_10500",
		CreateTestsEnabled:   true,
		UploadResultsEnabled: true,
		FeatureExtension:     ".feature",
		EnableAuthentication: true,
		BearerToken:          "serve-token",
	}
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "xray-sync", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestSubcommands(t *testing.T) {
	found := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}

	for _, expected := range []string{"tests", "results", "run", "serve", "credentials", "version"} {
		assert.True(t, found[expected], "missing subcommand %s", expected)
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3-test")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "xray-sync version 1.2.3-test\n", buf.String())
}

func TestCommandArgs(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		args  []string
		valid bool
	}{
		{cmd: newTestsCmd(), args: nil, valid: true},
		{cmd: newTestsCmd(), args: []string{"features"}, valid: true},
		{cmd: newTestsCmd(), args: []string{"a", "b"}, valid: false},
		{cmd: newResultsCmd(), args: nil, valid: false},
		{cmd: newResultsCmd(), args: []string{"cucumber.json"}, valid: true},
		{cmd: newRunCmd(), args: nil, valid: false},
		{cmd: newRunCmd(), args: []string{"mvn", "test"}, valid: true},
		{cmd: newServeCmd(), args: []string{"extra"}, valid: false},
	}

	for _, tt := range tests {
		err := tt.cmd.Args(tt.cmd, tt.args)
		if tt.valid {
			assert.NoError(t, err, "%s %v", tt.cmd.Name(), tt.args)
		} else {
			assert.Error(t, err, "%s %v", tt.cmd.Name(), tt.args)
		}
	}
}

func TestNewRegistry(t *testing.T) {
	c := getTestConfig()

	registry, rdb, err := newRegistry(c)
	require.NoError(t, err)
	assert.Nil(t, rdb)
	assert.IsType(t, &repository.MemoryRegistry{}, registry)

	c.RedisURL = "redis://localhost:6379/0"
	registry, rdb, err = newRegistry(c)
	require.NoError(t, err)
	require.NotNil(t, rdb)
	defer func() { _ = rdb.Close() }()
	assert.IsType(t, &repository.RedisRegistry{}, registry)

	c.RedisURL = "not a url"
	_, _, err = newRegistry(c)
	assert.Error(t, err)
}

func TestStoreCredentials(t *testing.T) {
	store := keyring.NewArrayKeyring(nil)

	require.NoError(t, storeCredentials(store, "id", "secret"))

	id, err := credential.Get(store, credential.ClientIDKey)
	require.NoError(t, err)
	assert.Equal(t, "id", id)

	secret, err := credential.Get(store, credential.ClientSecretKey)
	require.NoError(t, err)
	assert.Equal(t, "secret", secret)
}

func TestPrintOutcomes(t *testing.T) {
	var buf bytes.Buffer
	printOutcomes(&buf, []service.ScenarioOutcome{
		{File: "login.feature", Scenario: "User logs in", Key: "XSP-1", Status: service.StatusCreated},
		{File: "login.feature", Scenario: "User logs out", Status: service.StatusFailed, Error: "remote operation failed"},
	})

	out := buf.String()
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "XSP-1")
	assert.Contains(t, out, "User logs out (remote operation failed)")
}

func TestRouter(t *testing.T) {
	c := getTestConfig()
	a, err := newApp(c)
	require.NoError(t, err)
	defer a.Close()

	server := httptest.NewServer(newRouter(a, c, "test"))
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, err = http.Get(server.URL + "/ready")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/tests")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/tests", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer serve-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	// Credentials are absent, so the upload is refused before any remote call.
	req, err = http.NewRequest(http.MethodPost, server.URL+"/results", bytes.NewBufferString(`{"reportPath": "cucumber.json"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer serve-token")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, http.StatusBadGateway, resp2.StatusCode)
}

func TestRunTestCommand(t *testing.T) {
	code, err := runTestCommand(context.Background(), []string{"sh", "-c", "exit 3"})
	require.NoError(t, err)
	assert.Equal(t, 3, code)

	code, err = runTestCommand(context.Background(), []string{"sh", "-c", "exit 0"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	_, err = runTestCommand(context.Background(), []string{filepath.Join(t.TempDir(), "missing-binary")})
	assert.Error(t, err)
}

func TestRunTestCommand_Interrupted(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	code, err := runTestCommand(ctx, []string{"sleep", "5"})
	require.NoError(t, err)
	assert.Equal(t, 128+9, code, "a killed command reports 128+SIGKILL")
}

func TestPublishUnlessInterrupted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"uploaded":true}`))
	}))
	defer server.Close()

	cfg = getTestConfig()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	publishUnlessInterrupted(cmd, server.URL, "cucumber.json", "", nil)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	cmd.SetContext(context.Background())
	publishUnlessInterrupted(cmd, server.URL, "cucumber.json", "", nil)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPublishResults_Endpoint(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/results", r.URL.Path)
		assert.Equal(t, "Bearer serve-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"report":"cucumber.json","uploaded":true,"executionKey":"XSP-77","testKeys":["XSP-1"]}`))
	}))
	defer server.Close()

	cfg = getTestConfig()

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetContext(context.Background())

	require.NoError(t, publishResults(cmd, server.URL+"/", "cucumber.json", "Nightly", []string{"XSP-1"}))

	assert.Equal(t, "cucumber.json", received["reportPath"])
	assert.Equal(t, "Nightly", received["summary"])
	assert.Equal(t, "Execution: XSP-77\n", buf.String())
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("XRAY_PROPERTIES", filepath.Join(t.TempDir(), "absent.properties"))
	t.Setenv("XRAY_PROJECT_KEY", "SHOP")
	t.Setenv("XRAY_USE_KEYRING", "false")

	c, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "SHOP", c.ProjectKey)

	t.Setenv("XRAY_RETRY_MAX", "-1")
	_, err = loadConfig()
	assert.Error(t, err)
}
