package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"xray-sync/internal/config"
	"xray-sync/internal/credential"
)

// cfg is loaded once by the root command before any subcommand runs
var cfg *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xray-sync",
	Short: "Synchronize Cucumber scenarios and results with Xray",
	Long: `xray-sync creates Xray test issues from Gherkin feature files and
uploads Cucumber JSON reports, optionally linking the executed tests
in a new Test Execution. It can also run as an HTTP service.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command and exits non-zero on failure.
// SIGINT and SIGTERM cancel the command context.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "xray-sync version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newTestsCmd())
	rootCmd.AddCommand(newResultsCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCredentialsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// loadConfig loads and validates configuration, installs the process logger
// and resolves missing credentials from the keyring when enabled
func loadConfig() (*config.Config, error) {
	c := config.LoadConfig()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	setupLogging(c)

	if c.UseKeyring && !c.HasCredentials() {
		store, err := credential.Open()
		if err != nil {
			slog.Warn("Keyring unavailable, continuing without stored credentials", "error", err)
		} else {
			credential.Fill(store, &c.ClientID, &c.ClientSecret)
		}
	}

	slog.Debug("Configuration loaded",
		"log_level", c.LogLevel,
		"project_key", c.ProjectKey,
		"xray_url", c.XrayBaseURL,
		"jira_url", c.JiraURL,
		"credentials_configured", c.HasCredentials(),
		"redis_configured", c.RedisURL != "",
		"retry_max", c.RetryMax,
	)

	return c, nil
}

func setupLogging(c *config.Config) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: c.GetLogLevel(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String("time", a.Value.Time().Format("2006-01-02 15:04:05"))
			}
			return a
		},
	})))
}
