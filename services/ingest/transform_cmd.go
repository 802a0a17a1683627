package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wroclaw-bike-stats/bikestats/services/ingest/internal/transform"
)

var transformCmd = &cobra.Command{
	Use:   "transform FILE",
	Short: "Clean a local export into the cleaned CSV layout",
	Long: `Reads a rides export from disk, applies the same cleaning as fetch and writes
the cleaned CSV to the output directory under the same file name. The warehouse is
not touched.`,
	Args: cobra.ExactArgs(1),
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)
}

func runTransform(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	result, err := transform.ReadRides(f, catalog, cfg.DistanceMethod)
	if err != nil {
		return fmt.Errorf("cleaning %s: %w", args[0], err)
	}
	logCleaning(result)

	path, err := writeCleaned(args[0], result.Rides)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s rides written to %s (%s dropped, %s without coordinates)\n",
		humanize.Comma(int64(len(result.Rides))), path,
		humanize.Comma(int64(result.Dropped)), humanize.Comma(int64(result.Unlocated)))
	return nil
}
