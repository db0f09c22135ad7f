package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"xray-sync/internal/service"
)

const defaultFeaturesDir = "src/test/resources/features/"

func newTestsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tests [features-dir]",
		Short: "Create Xray test issues from feature files",
		Long: `Walks the features directory (default ` + defaultFeaturesDir + `) and creates
or updates one Xray test issue per scenario. A failing scenario does not stop
the remaining ones.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := defaultFeaturesDir
			if len(args) > 0 {
				dir = args[0]
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			outcomes, err := a.sync.CreateTestsFromDirectory(cmd.Context(), dir)
			if err != nil {
				return err
			}

			printOutcomes(cmd.OutOrStdout(), outcomes)
			return nil
		},
	}
}

func printOutcomes(out io.Writer, outcomes []service.ScenarioOutcome) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STATUS\tKEY\tFILE\tSCENARIO")
	for _, o := range outcomes {
		key := o.Key
		if key == "" {
			key = "-"
		}
		scenario := o.Scenario
		if o.Error != "" {
			scenario += " (" + o.Error + ")"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.Status, key, o.File, scenario)
	}
	_ = w.Flush()
}
