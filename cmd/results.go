package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"xray-sync/internal/service"
)

func newResultsCmd() *cobra.Command {
	var (
		summary  string
		testKeys []string
	)

	cmd := &cobra.Command{
		Use:   "results <cucumber-json-report>",
		Short: "Upload a Cucumber JSON report to Xray",
		Long: `Uploads the report and, when auto creation is enabled, creates a Test
Execution linking the given keys, keys tagged on report scenarios and keys
previously recorded for the executed scenarios.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			outcome := a.sync.UploadResults(cmd.Context(), args[0], summary, testKeys)
			printUpload(cmd.OutOrStdout(), outcome)

			if !outcome.Uploaded {
				return outcome.Err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&summary, "summary", "", "Test Execution summary (default: timestamped)")
	cmd.Flags().StringSliceVar(&testKeys, "key", nil, "Test issue key to link in the execution (repeatable)")

	return cmd
}

func printUpload(out io.Writer, o service.UploadOutcome) {
	_, _ = fmt.Fprintf(out, "Report:    %s\n", o.Report)
	_, _ = fmt.Fprintf(out, "Uploaded:  %t\n", o.Uploaded)
	_, _ = fmt.Fprintf(out, "Scenarios: %d passed, %d failed\n", o.Passed, o.Failed)
	if o.ExecutionKey != "" {
		_, _ = fmt.Fprintf(out, "Execution: %s (%s)\n", o.ExecutionKey, strings.Join(o.TestKeys, ", "))
	}
	if o.Error != "" {
		_, _ = fmt.Fprintf(out, "Error:     %s\n", o.Error)
	}
}
