package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/salesops/stackranker/internal/loader"
)

// sampleCmd represents the sample command
var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Generate a synthetic dataset CSV",
	Long: `Writes a synthetic sales pipeline dataset to a CSV file. The same
seed always produces the same dataset.

Example:
  go run ./cmd/ranker sample --rows 500 --seed 42 --out data/sales_data.csv`,
	RunE: runSample,
}

var (
	sampleRows int
	sampleSeed int64
	sampleOut  string
)

func init() {
	rootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().IntVar(&sampleRows, "rows", 200, "number of opportunities")
	sampleCmd.Flags().Int64Var(&sampleSeed, "seed", 42, "random seed")
	sampleCmd.Flags().StringVar(&sampleOut, "out", "data/sales_data.csv", "output path")
}

func runSample(cmd *cobra.Command, args []string) error {
	if sampleRows < 1 {
		return fmt.Errorf("rows must be positive, got %d", sampleRows)
	}

	ds := loader.Generate(sampleRows, sampleSeed, time.Now().UTC())

	if dir := filepath.Dir(sampleOut); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(sampleOut)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if err := loader.WriteCSV(f, ds); err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}

	fmt.Printf("Wrote %d rows to %s (seed %d)\n", ds.Len(), sampleOut, sampleSeed)
	return nil
}
