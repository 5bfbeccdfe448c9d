package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/salesops/stackranker/internal/contracts"
)

// Synthetic feed parameters, tuned so a generated quarter looks like a real
// eight-rep team with a handful of closed-won deals.
var (
	sampleReps = []string{
		"Sarah Johnson", "Michael Chen", "Emily Rodriguez", "David Kim",
		"Rachel Thompson", "James Wilson", "Lisa Garcia", "John Smith",
	}
	sampleRegions    = []string{"North", "South", "East", "West"}
	sampleSources    = []string{"Inbound", "Outbound", "Partner", "Referral"}
	sampleCategories = []string{"Marketing", "Sales", "Partner"}

	// Cumulative stage weights: 20% / 20% / 30% / 20% / 10% closed-won.
	stageWeights = []float64{0.2, 0.4, 0.7, 0.9, 1.0}
)

const sampleBaseTarget = 1_000_000 // per-rep quarterly target base, USD

// Generate builds a deterministic synthetic dataset of n opportunities,
// used when no CSV feed is configured. Identical (n, seed, asOf) inputs
// yield identical datasets.
func Generate(n int, seed int64, asOf time.Time) *contracts.Dataset {
	rng := rand.New(rand.NewSource(seed))

	quarterStart := quarterStartOf(asOf)

	// Targets are challenging but achievable: base +/- 20%.
	targets := make(map[string]float64, len(sampleReps))
	for _, rep := range sampleReps {
		targets[rep] = sampleBaseTarget * (0.8 + 0.4*rng.Float64())
	}

	ds := &contracts.Dataset{
		HasLateStageColumn: true,
		Rows:               make([]contracts.Opportunity, 0, n),
	}

	for i := 0; i < n; i++ {
		owner := sampleReps[rng.Intn(len(sampleReps))]
		stage := pickStage(rng.Float64())

		// Log-normal amounts rounded to the nearest thousand.
		amount := math.Exp(12.5+0.6*rng.NormFloat64())
		amount = math.Round(amount/1000) * 1000

		created := quarterStart.AddDate(0, 0, rng.Intn(90))
		closed := created.AddDate(0, 0, 30+rng.Intn(90))

		avgAge := float64(15 + rng.Intn(45))

		row := contracts.Opportunity{
			ID:                 fmt.Sprintf("OPP-%04d", i),
			Owner:              owner,
			Role:               "Sales Representative",
			Region:             sampleRegions[rng.Intn(len(sampleRegions))],
			CreatedDate:        created,
			CloseDate:          closed,
			Stage:              stage,
			Amount:             amount,
			Source:             sampleSources[rng.Intn(len(sampleSources))],
			LeadSourceCategory: sampleCategories[rng.Intn(len(sampleCategories))],
			AvgAge:             avgAge,
			PipelineCreatedQTD: amount,
			PipelineTargetQTD:  targets[owner],
		}

		if stage >= contracts.StageQualified {
			row.QualifiedPipeQTD = amount
		}
		if stage >= contracts.StageLate {
			row.LateStageAmount = amount
		}
		if stage == contracts.StageProspecting {
			row.Stage0Age = avgAge
			row.Stage0Count = 1
		}

		ds.Rows = append(ds.Rows, row)
	}

	return ds
}

// pickStage maps a uniform draw onto the weighted stage distribution.
func pickStage(u float64) int {
	for stage, cum := range stageWeights {
		if u < cum {
			return stage
		}
	}
	return contracts.StageClosedWon
}

// quarterStartOf returns the first day of the calendar quarter containing t.
func quarterStartOf(t time.Time) time.Time {
	quarterMonth := time.Month(((int(t.Month())-1)/3)*3 + 1)
	return time.Date(t.Year(), quarterMonth, 1, 0, 0, 0, 0, time.UTC)
}

// WriteCSV writes a dataset back out in the canonical column order. Used by
// the sample command and the template download endpoint.
func WriteCSV(w io.Writer, ds *contracts.Dataset) error {
	cw := csv.NewWriter(w)

	header := append([]string{}, requiredColumns...)
	header = append(header, lateStageColumn)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, row := range ds.Rows {
		record := []string{
			row.ID,
			row.Owner,
			row.Role,
			row.Region,
			row.CreatedDate.Format("2006-01-02"),
			row.CloseDate.Format("2006-01-02"),
			strconv.Itoa(row.Stage),
			formatFloat(row.Amount),
			row.Source,
			row.LeadSourceCategory,
			formatFloat(row.QualifiedPipeQTD),
			formatFloat(row.AvgAge),
			formatFloat(row.Stage0Age),
			strconv.Itoa(row.Stage0Count),
			formatFloat(row.PipelineCreatedQTD),
			formatFloat(row.PipelineTargetQTD),
			formatFloat(row.LateStageAmount),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// TemplateCSV returns the two-row example file offered to users preparing
// their own upload.
func TemplateCSV() ([]byte, error) {
	ds := &contracts.Dataset{
		HasLateStageColumn: true,
		Rows: []contracts.Opportunity{
			{
				ID: "OPP001", Owner: "John Doe", Role: "Account Executive", Region: "West",
				CreatedDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				CloseDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				Stage:       0, Amount: 50000, Source: "Rep", LeadSourceCategory: "Inbound",
				AvgAge: 30, Stage0Age: 30, Stage0Count: 1,
				PipelineCreatedQTD: 50000, PipelineTargetQTD: 60000,
			},
			{
				ID: "OPP002", Owner: "Jane Smith", Role: "Senior AE", Region: "East",
				CreatedDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
				CloseDate:   time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
				Stage:       1, Amount: 75000, Source: "Marketing", LeadSourceCategory: "Outbound",
				QualifiedPipeQTD: 0, AvgAge: 45,
				PipelineCreatedQTD: 75000, PipelineTargetQTD: 90000,
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, ds); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
