package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"xray-sync/internal/client"
)

const defaultReportPath = "build/reports/cucumber/cucumber.json"

// exitCodeError carries the wrapped command's exit code back to main
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("test command exited with code %d", e.code)
}

func newRunCmd() *cobra.Command {
	var (
		reportPath string
		summary    string
		testKeys   []string
		endpoint   string
	)

	cmd := &cobra.Command{
		Use:   "run [flags] -- <test command> [args...]",
		Short: "Run a test command and upload its Cucumber report",
		Long: `Runs the test command with the terminal attached, then uploads the
report whether the tests passed or not. With --endpoint (or
XRAY_SYNC_ENDPOINT) the report is handed to a running "xray-sync serve"
instead of being uploaded directly. The test command's exit code is kept.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if endpoint == "" {
				endpoint = os.Getenv("XRAY_SYNC_ENDPOINT")
			}

			exitCode, runErr := runTestCommand(cmd.Context(), args)
			if runErr != nil {
				return runErr
			}

			publishUnlessInterrupted(cmd, endpoint, reportPath, summary, testKeys)

			if exitCode != 0 {
				return &exitCodeError{code: exitCode}
			}
			return nil
		},
	}

	// Everything after the first positional argument belongs to the test command.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVar(&reportPath, "report", defaultReportPath, "Cucumber JSON report written by the test command")
	cmd.Flags().StringVar(&summary, "summary", "", "Test Execution summary (default: timestamped)")
	cmd.Flags().StringSliceVar(&testKeys, "key", nil, "Test issue key to link in the execution (repeatable)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "URL of an xray-sync service to forward the report to")

	return cmd
}

// runTestCommand returns the command's exit code; err is set only when the
// command could not be started
func runTestCommand(ctx context.Context, args []string) (int, error) {
	slog.Info("Executing test command", "command", strings.Join(args, " "))

	c := exec.CommandContext(ctx, args[0], args[1:]...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	err := c.Run()
	if err == nil {
		slog.Info("Test command finished", "exit_code", 0)
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitStatus(exitErr)
		slog.Info("Test command finished", "exit_code", code)
		return code, nil
	}

	return 1, fmt.Errorf("error executing test command: %w", err)
}

// exitStatus follows the shell convention of 128+signal for a killed command.
func exitStatus(exitErr *exec.ExitError) int {
	if code := exitErr.ExitCode(); code >= 0 {
		return code
	}
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return 1
}

// publishUnlessInterrupted skips publishing once SIGINT or SIGTERM has
// cancelled the command context.
func publishUnlessInterrupted(cmd *cobra.Command, endpoint, reportPath, summary string, testKeys []string) {
	if err := cmd.Context().Err(); err != nil {
		slog.Warn("Run interrupted, results not published", "error", err, "report", reportPath)
		return
	}
	if err := publishResults(cmd, endpoint, reportPath, summary, testKeys); err != nil {
		slog.Error("Results were not published", "error", err, "report", reportPath)
	}
}

func publishResults(cmd *cobra.Command, endpoint, reportPath, summary string, testKeys []string) error {
	if endpoint != "" {
		resp, err := client.NewResultsForwarder(endpoint, cfg.BearerToken).Forward(cmd.Context(), client.ForwardRequest{
			ReportPath: reportPath,
			Summary:    summary,
			TestKeys:   testKeys,
		})
		if err != nil {
			if resp != nil && resp.Error != "" {
				return fmt.Errorf("%w: %s", err, resp.Error)
			}
			return err
		}
		if resp.ExecutionKey != "" {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Execution: %s\n", resp.ExecutionKey)
		}
		return nil
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	outcome := a.sync.UploadResults(cmd.Context(), reportPath, summary, testKeys)
	printUpload(cmd.OutOrStdout(), outcome)
	if !outcome.Uploaded {
		return outcome.Err
	}
	return nil
}
