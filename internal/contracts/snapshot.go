package contracts

import (
	"sort"
	"time"
)

// StageBucketUnknown labels rows whose stage falls outside the 0-4 range.
// Keeping them in their own bucket preserves the invariant that stage
// bucket counts sum to the dataset row count.
const StageBucketUnknown = "unknown"

// SourceUnknown labels rows with an empty source or lead source category.
const SourceUnknown = "Unknown"

// MetricsSnapshot is the derived output of one Compute pass. It is owned by
// the caller for the duration of one render/alert cycle and never mutated
// after creation.
type MetricsSnapshot struct {
	AsOf time.Time `json:"as_of"`

	// Scalar KPIs. Plain numbers; display formatting is the presentation
	// layer's job.
	TotalPipeline     float64 `json:"total_pipeline"`
	QualifiedPipeline float64 `json:"qualified_pipeline"`
	AvgDealSize       float64 `json:"avg_deal_size"`
	WinRate           float64 `json:"win_rate"` // 0.0 - 1.0
	LateStageAmount   float64 `json:"late_stage_amount"`
	PipelineVelocity  float64 `json:"pipeline_velocity"` // days

	// Rankings, sorted by percent-to-plan desc, qualified pipeline desc,
	// owner name asc.
	RepPerformance []RepPerformance `json:"rep_performance"`

	// Distributions, in fixed order for deterministic output.
	StageDistribution   []StageBucket  `json:"stage_distribution"`
	SourceBreakdown     []SourceBucket `json:"source_breakdown"`
	LeadSourceBreakdown []SourceBucket `json:"lead_source_breakdown"`

	PipelineHealth PipelineHealth `json:"pipeline_health"`

	Diagnostics Diagnostics `json:"diagnostics"`
}

// RepPerformance is one rep's rollup.
type RepPerformance struct {
	Rank              int     `json:"rank"`
	Owner             string  `json:"owner"`
	QualifiedPipeline float64 `json:"qualified_pipeline"`
	Target            float64 `json:"target"`
	PercentToPlan     float64 `json:"percent_to_plan"` // qualified/target * 100; 0 when target is 0
}

// StageBucket is the count and amount for one pipeline stage.
type StageBucket struct {
	Stage  string  `json:"stage"` // "0".."4" or "unknown"
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// SourceBucket is the rollup for one source or lead source category.
type SourceBucket struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Amount  float64 `json:"amount"`
	WinRate float64 `json:"win_rate"`
}

// AgingBucket counts stage-0 opportunities inside one age band.
type AgingBucket struct {
	Label string `json:"label"` // "0-30", "31-60", "61-90", "90+"
	Count int    `json:"count"`
}

// PipelineHealth captures stage-0 staleness, a leading indicator.
type PipelineHealth struct {
	AvgStage0Age float64       `json:"avg_stage0_age"` // days
	Stage0Count  int           `json:"stage0_count"`
	AgingBuckets []AgingBucket `json:"aging_buckets"`
}

// Diagnostics accumulates non-fatal data-quality warnings so the caller can
// surface a banner without blocking the dashboard.
type Diagnostics struct {
	MalformedRows    int      `json:"malformed_rows"`
	InvertedDateRows int      `json:"inverted_date_rows"` // close date before created date
	UnknownStageRows int      `json:"unknown_stage_rows"`
	IssueSamples     []string `json:"issue_samples,omitempty"`
}

// HasWarnings reports whether any row-level data-quality issue was seen.
func (d Diagnostics) HasWarnings() bool {
	return d.MalformedRows > 0 || d.InvertedDateRows > 0 || d.UnknownStageRows > 0
}

// AbovePlanCount returns how many reps are at or above 100% of plan.
func (s *MetricsSnapshot) AbovePlanCount() int {
	count := 0
	for _, rep := range s.RepPerformance {
		if rep.PercentToPlan >= 100 {
			count++
		}
	}
	return count
}

// AvgAttainment returns the mean percent-to-plan across reps, 0 when there
// are no reps.
func (s *MetricsSnapshot) AvgAttainment() float64 {
	if len(s.RepPerformance) == 0 {
		return 0
	}

	var sum float64
	for _, rep := range s.RepPerformance {
		sum += rep.PercentToPlan
	}
	return sum / float64(len(s.RepPerformance))
}

// MedianAttainment returns the median percent-to-plan across reps, 0 when
// there are no reps.
func (s *MetricsSnapshot) MedianAttainment() float64 {
	n := len(s.RepPerformance)
	if n == 0 {
		return 0
	}

	values := make([]float64, n)
	for i, rep := range s.RepPerformance {
		values[i] = rep.PercentToPlan
	}
	sort.Float64s(values)

	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

// TopReps returns the first n reps by ranking order.
func (s *MetricsSnapshot) TopReps(n int) []RepPerformance {
	if n > len(s.RepPerformance) {
		n = len(s.RepPerformance)
	}
	return s.RepPerformance[:n]
}
