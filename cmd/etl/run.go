package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/balneabilidade-etl/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch the newest reports and update the feed",
	Long: "Locates the newest reports, extracts station results and merges them into the feed. " +
		"A report whose newest date is not after the feed's newest date is ignored.",
	RunE: runETL,
}

var (
	runLimit     int
	runFromFile  string
	runSourceURL string
)

func init() {
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "Number of reports to fetch (overrides REPORT_LIMIT)")
	runCmd.Flags().StringVar(&runFromFile, "from-file", "", "Process a local report PDF instead of locating one")
	runCmd.Flags().StringVar(&runSourceURL, "source-url", "", "Source URL recorded for --from-file")

	rootCmd.AddCommand(runCmd)
}

func runETL(cmd *cobra.Command, _ []string) error {
	if runSourceURL != "" && runFromFile == "" {
		return fmt.Errorf("--source-url requires --from-file")
	}

	a, err := newApp(runLimit)
	if err != nil {
		return err
	}
	defer a.finish()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var res pipeline.Result
	if runFromFile != "" {
		res, err = a.pipeline.RunFile(ctx, runFromFile, runSourceURL)
	} else {
		res, err = a.pipeline.Run(ctx)
	}
	if err != nil {
		a.logger.Error("run failed", "error", err)
		return err
	}

	printResult(res)
	return nil
}

func printResult(res pipeline.Result) {
	fmt.Printf("outcome: %s\n", res.Outcome)
	fmt.Printf("reports processed: %d\n", res.ReportsFetched)
	fmt.Printf("stations: %d (updated %d, without coordinates %d)\n", res.Stations, len(res.Affected), res.MissingCoords)
	if len(res.Sources) > 0 {
		fmt.Printf("sources: %s\n", strings.Join(res.Sources, ", "))
	}
}
