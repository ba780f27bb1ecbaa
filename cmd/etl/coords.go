package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/balneabilidade-etl/internal/adapter/coords"
	"github.com/couchcryptid/balneabilidade-etl/internal/adapter/feedstore"
	"github.com/couchcryptid/balneabilidade-etl/internal/config"
)

var importCoordsCmd = &cobra.Command{
	Use:   "import-coords",
	Short: "Merge a CSV or XLSX of station coordinates into the side table",
	Long: "Reads a spreadsheet of station codes and coordinates and merges it into COORDINATES_PATH. " +
		"With --refresh the feed is rewritten with the new coordinates; readings are never touched.",
	RunE: runImportCoords,
}

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "List published stations that have no coordinates",
	RunE:  runCoverage,
}

var (
	importSrc     string
	importRefresh bool
)

func init() {
	importCoordsCmd.Flags().StringVar(&importSrc, "src", "", "Path to the CSV or XLSX file to import")
	importCoordsCmd.Flags().BoolVar(&importRefresh, "refresh", false, "Also re-join coordinates into the published feed")
	_ = importCoordsCmd.MarkFlagRequired("src")

	rootCmd.AddCommand(importCoordsCmd)
	rootCmd.AddCommand(coverageCmd)
}

func runImportCoords(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	stats, err := coords.Import(cfg.CoordinatesPath, importSrc)
	if err != nil {
		return err
	}
	fmt.Printf("coordinates imported: %d added, %d updated, %d total\n", stats.Added, stats.Updated, stats.Total)
	if !importRefresh {
		return nil
	}

	a, err := newApp(0)
	if err != nil {
		return err
	}
	defer a.finish()

	res, err := a.pipeline.Refresh(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("feed refreshed: %d stations, %d without coordinates\n", res.Stations, res.MissingCoords)
	return nil
}

func runCoverage(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	records, err := feedstore.ReadFeed(cfg.FeedPath)
	if err != nil {
		return err
	}
	table, err := coords.LoadTable(cfg.CoordinatesPath)
	if err != nil {
		return err
	}
	fmt.Print(coords.CoverageOfRecords(records, table).String())
	return nil
}
