package alerts

import (
	"fmt"

	"github.com/salesops/stackranker/internal/contracts"
)

// Default thresholds, matching the documented configuration surface.
const (
	DefaultDropFraction           = 0.20
	DefaultAgingDaysThreshold     = 30
	DefaultRepPerformanceFraction = 0.70
)

// ConfigError is fatal at startup; invalid thresholds are never silently
// clamped or defaulted past.
type ConfigError struct {
	Field   string
	Message string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("alert config %s: %s", e.Field, e.Message)
}

// Config holds the alert evaluator thresholds.
type Config struct {
	DropFraction           float64 // pipeline drop trigger, fraction of previous total
	AgingDaysThreshold     int     // stage-0 average age trigger, days
	RepPerformanceFraction float64 // percent-to-plan floor, fraction of target
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		DropFraction:           DefaultDropFraction,
		AgingDaysThreshold:     DefaultAgingDaysThreshold,
		RepPerformanceFraction: DefaultRepPerformanceFraction,
	}
}

// Validate checks the threshold configuration.
func (c Config) Validate() error {
	if c.DropFraction < 0 {
		return ConfigError{"drop_fraction", "must not be negative"}
	}
	if c.AgingDaysThreshold < 0 {
		return ConfigError{"aging_days_threshold", "must not be negative"}
	}
	if c.RepPerformanceFraction < 0 {
		return ConfigError{"rep_performance_fraction", "must not be negative"}
	}
	return nil
}

// Evaluate compares a snapshot against the configured thresholds and
// returns the alert events that fire.
//
// Evaluate is pure and deterministic: the rules are independent, zero or
// more may fire per call, and output order always matches the rule order
// below. previous may be nil (first evaluation of a session); the
// pipeline_drop rule then never fires.
func Evaluate(current, previous *contracts.MetricsSnapshot, cfg Config) []contracts.AlertEvent {
	if current == nil {
		return nil
	}

	events := make([]contracts.AlertEvent, 0, 3)

	if event, ok := checkPipelineDrop(current, previous, cfg); ok {
		events = append(events, event)
	}
	if event, ok := checkAgingOpportunities(current, cfg); ok {
		events = append(events, event)
	}
	if event, ok := checkRepPerformance(current, cfg); ok {
		events = append(events, event)
	}

	return events
}

// checkPipelineDrop fires when total pipeline shrank by more than the
// configured fraction since the previous snapshot.
func checkPipelineDrop(current, previous *contracts.MetricsSnapshot, cfg Config) (contracts.AlertEvent, bool) {
	if previous == nil || previous.TotalPipeline <= 0 {
		return contracts.AlertEvent{}, false
	}

	drop := (previous.TotalPipeline - current.TotalPipeline) / previous.TotalPipeline
	if drop <= cfg.DropFraction {
		return contracts.AlertEvent{}, false
	}

	return contracts.AlertEvent{
		Type:         contracts.AlertPipelineDrop,
		CurrentValue: current.TotalPipeline,
		Threshold:    cfg.DropFraction,
		Detail: contracts.PipelineDropDetail{
			PreviousValue:  previous.TotalPipeline,
			CurrentValue:   current.TotalPipeline,
			DropPercentage: drop * 100,
		},
	}, true
}

// checkAgingOpportunities fires when the average stage-0 age crosses the
// configured day threshold.
func checkAgingOpportunities(current *contracts.MetricsSnapshot, cfg Config) (contracts.AlertEvent, bool) {
	health := current.PipelineHealth
	if health.AvgStage0Age <= float64(cfg.AgingDaysThreshold) {
		return contracts.AlertEvent{}, false
	}

	return contracts.AlertEvent{
		Type:         contracts.AlertAgingOpportunities,
		CurrentValue: health.AvgStage0Age,
		Threshold:    float64(cfg.AgingDaysThreshold),
		Detail: contracts.AgingDetail{
			Stage0Count: health.Stage0Count,
			AvgAge:      health.AvgStage0Age,
		},
	}, true
}

// checkRepPerformance fires when at least one rep sits below the configured
// fraction of plan. Affected reps keep the snapshot's ranking order.
func checkRepPerformance(current *contracts.MetricsSnapshot, cfg Config) (contracts.AlertEvent, bool) {
	threshold := cfg.RepPerformanceFraction * 100 // PercentToPlan is 0-100 scaled

	var affected []string
	minPerformance := 0.0
	for _, rep := range current.RepPerformance {
		if rep.PercentToPlan >= threshold {
			continue
		}
		affected = append(affected, rep.Owner)
		fraction := rep.PercentToPlan / 100
		if len(affected) == 1 || fraction < minPerformance {
			minPerformance = fraction
		}
	}

	if len(affected) == 0 {
		return contracts.AlertEvent{}, false
	}

	return contracts.AlertEvent{
		Type:         contracts.AlertRepPerformance,
		CurrentValue: float64(len(affected)),
		Threshold:    cfg.RepPerformanceFraction,
		Detail: contracts.RepPerformanceDetail{
			Reps:           affected,
			MinPerformance: minPerformance,
		},
	}, true
}
