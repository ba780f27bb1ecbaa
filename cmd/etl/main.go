// Command etl updates the beach water-quality feed from the latest
// balneabilidade reports and maintains the station coordinate table.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/balneabilidade-etl/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "etl",
	Short:         "Balneabilidade report ETL",
	Long:          "Downloads beach water-quality reports, extracts per-station results and publishes an append-only points feed.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
