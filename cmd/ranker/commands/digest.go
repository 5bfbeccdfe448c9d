package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/salesops/stackranker/internal/digest"
	"github.com/salesops/stackranker/internal/loader"
	"github.com/salesops/stackranker/internal/metrics"
	"github.com/salesops/stackranker/pkg/config"
	"github.com/salesops/stackranker/pkg/logger"
)

// digestCmd represents the digest command
var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Render and send the pipeline digest once",
	Long: `Loads the dataset, computes the metrics snapshot and sends the
digest email. With --print the HTML is written to stdout instead of being
mailed, which is useful for previewing template changes.

Example:
  go run ./cmd/ranker digest
  go run ./cmd/ranker digest --print`,
	RunE: runDigest,
}

var digestPrint bool

func init() {
	rootCmd.AddCommand(digestCmd)

	digestCmd.Flags().BoolVar(&digestPrint, "print", false, "print HTML to stdout instead of sending")
}

func runDigest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	ds, err := loader.LoadFile(cfg.DataPath)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	asOf := time.Now().UTC()
	snap, err := metrics.Compute(ds, asOf)
	if err != nil {
		return fmt.Errorf("compute metrics: %w", err)
	}

	renderer, err := digest.NewRenderer()
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	quarterMonth := time.Month((int(asOf.Month())-1)/3*3 + 1)
	rangeStart := time.Date(asOf.Year(), quarterMonth, 1, 0, 0, 0, 0, time.UTC)

	html, err := renderer.RenderDigest(snap, rangeStart, asOf)
	if err != nil {
		return fmt.Errorf("render digest: %w", err)
	}

	if digestPrint {
		fmt.Println(html)
		return nil
	}

	mailer := digest.NewMailer(cfg.SMTP, log)
	if !mailer.Enabled() {
		return fmt.Errorf("SMTP is disabled; use --print or set SMTP_ENABLED=true")
	}

	subject := "Sales Pipeline Digest - " + asOf.Format("Jan 2, 2006")
	if err := mailer.Send(subject, html); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	fmt.Println("Digest sent")
	return nil
}
