package contracts

import "time"

// Pipeline stages are ordinal: 0 is earliest prospecting, 4 is closed-won.
// Lost deals are not represented in the feed; see DESIGN.md for the
// documented assumption behind StageClosedWon.
const (
	StageProspecting = 0
	StageQualified   = 2
	StageLate        = 3
	StageClosedWon   = 4
)

// Opportunity is a single CRM pipeline row, immutable once loaded.
//
// The QTD fields are pre-aggregated by the upstream CRM; the engine only
// reduces them (sum/mean) and never re-derives them from row data.
type Opportunity struct {
	ID                 string    `json:"opportunity_id"`
	Owner              string    `json:"owner"`
	Role               string    `json:"role"`
	Region             string    `json:"region"`
	CreatedDate        time.Time `json:"created_date"`
	CloseDate          time.Time `json:"close_date"`
	Stage              int       `json:"stage"`
	Amount             float64   `json:"amount"`
	Source             string    `json:"source"`
	LeadSourceCategory string    `json:"lead_source_category"`
	QualifiedPipeQTD   float64   `json:"qualified_pipe_qtd"`
	LateStageAmount    float64   `json:"late_stage_amount"`
	AvgAge             float64   `json:"avg_age"`
	Stage0Age          float64   `json:"stage0_age"`
	Stage0Count        int       `json:"stage0_count"`
	PipelineCreatedQTD float64   `json:"pipeline_created_qtd"`
	PipelineTargetQTD  float64   `json:"pipeline_target_qtd"`
}

// HasKnownStage reports whether the stage is inside the 0-4 ordinal range.
// Rows outside the range stay in the dataset but are bucketed as "unknown"
// and excluded from stage-dependent aggregates.
func (o *Opportunity) HasKnownStage() bool {
	return o.Stage >= StageProspecting && o.Stage <= StageClosedWon
}

// IsClosedWon reports whether the opportunity reached the terminal stage.
func (o *Opportunity) IsClosedWon() bool {
	return o.Stage == StageClosedWon
}

// IsLateStage reports whether the opportunity is in stage 3 or 4.
func (o *Opportunity) IsLateStage() bool {
	return o.Stage >= StageLate && o.Stage <= StageClosedWon
}

// Dataset is the canonical in-memory table produced by the loader for one
// analysis pass. Rows are never mutated after loading.
type Dataset struct {
	Rows []Opportunity `json:"rows"`

	// HasLateStageColumn is false when the optional LateStageAmount column
	// was missing from the source; the calculator then derives late-stage
	// value from Amount for stage >= 3.
	HasLateStageColumn bool `json:"has_late_stage_column"`

	// Load-time diagnostics, carried into the snapshot.
	MalformedRows int      `json:"malformed_rows"`
	IssueSamples  []string `json:"issue_samples,omitempty"`
}

// Len returns the number of canonical rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}
