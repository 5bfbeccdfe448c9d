package contracts

// AlertType identifies which alert condition fired.
type AlertType string

const (
	AlertPipelineDrop       AlertType = "pipeline_drop"
	AlertAgingOpportunities AlertType = "aging_opportunities"
	AlertRepPerformance     AlertType = "rep_performance"
)

// Label returns the human-readable name used by the email templates.
func (t AlertType) Label() string {
	switch t {
	case AlertPipelineDrop:
		return "Pipeline Drop"
	case AlertAgingOpportunities:
		return "Aging Opportunities"
	case AlertRepPerformance:
		return "Rep Performance"
	default:
		return string(t)
	}
}

// AlertEvent is one triggered alert condition. Detail carries the
// type-specific payload; consumers type-switch over it exhaustively.
type AlertEvent struct {
	Type         AlertType   `json:"alert_type"`
	CurrentValue float64     `json:"current_value"`
	Threshold    float64     `json:"threshold"`
	Detail       AlertDetail `json:"detail"`
}

// AlertDetail is the tagged-variant payload interface. Exactly one concrete
// type exists per AlertType.
type AlertDetail interface {
	alertDetail()
}

// PipelineDropDetail carries the pipeline_drop payload.
type PipelineDropDetail struct {
	PreviousValue  float64 `json:"previous_value"`
	CurrentValue   float64 `json:"current_value"`
	DropPercentage float64 `json:"drop_percentage"`
}

func (PipelineDropDetail) alertDetail() {}

// AgingDetail carries the aging_opportunities payload.
type AgingDetail struct {
	Stage0Count int     `json:"stage0_count"`
	AvgAge      float64 `json:"avg_age"` // days
}

func (AgingDetail) alertDetail() {}

// RepPerformanceDetail carries the rep_performance payload. Reps keeps the
// snapshot's ranking order.
type RepPerformanceDetail struct {
	Reps           []string `json:"reps"`
	MinPerformance float64  `json:"min_performance"` // fraction of plan, 0.0 - 1.0+
}

func (RepPerformanceDetail) alertDetail() {}
