package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ranker",
	Short: "Sales Stack Ranker - pipeline analytics service",
	Long: `Sales Stack Ranker CLI

Metrics and alerting service for sales pipeline CSV exports.

Usage:
  go run ./cmd/ranker [command]

Examples:
  go run ./cmd/ranker serve
  go run ./cmd/ranker digest
  go run ./cmd/ranker alerts
  go run ./cmd/ranker sample --rows 500 --out data/sales_data.csv`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
