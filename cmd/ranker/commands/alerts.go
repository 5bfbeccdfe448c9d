package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/salesops/stackranker/internal/alerts"
	"github.com/salesops/stackranker/internal/loader"
	"github.com/salesops/stackranker/internal/metrics"
	"github.com/salesops/stackranker/pkg/config"
)

// alertsCmd represents the alerts command
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Evaluate alert rules against the dataset",
	Long: `Loads the dataset, computes the metrics snapshot and evaluates the
alert rules once, printing the triggered alerts as JSON.

The pipeline drop rule needs a previous snapshot and never fires here;
use the running service for drop detection.

Example:
  go run ./cmd/ranker alerts`,
	RunE: runAlerts,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
}

func runAlerts(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ds, err := loader.LoadFile(cfg.DataPath)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	snap, err := metrics.Compute(ds, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("compute metrics: %w", err)
	}

	alertConfig := alerts.Config{
		DropFraction:           cfg.Alerts.DropFraction,
		AgingDaysThreshold:     cfg.Alerts.AgingDaysThreshold,
		RepPerformanceFraction: cfg.Alerts.RepPerformanceFraction,
	}
	if err := alertConfig.Validate(); err != nil {
		return fmt.Errorf("alert config: %w", err)
	}

	events := alerts.Evaluate(snap, nil, alertConfig)
	if len(events) == 0 {
		fmt.Println("No alerts triggered")
		return nil
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(events)
}
