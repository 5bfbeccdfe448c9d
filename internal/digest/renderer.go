package digest

import (
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/salesops/stackranker/internal/contracts"
)

// Display formatting lives here, never in the core: snapshots carry plain
// numbers and the renderer owns the currency/percent/day conventions.

// FormatCurrency renders a dollar amount with thousands separators and no
// decimals, e.g. 1234567.8 -> "$1,234,568".
func FormatCurrency(v float64) string {
	rounded := int64(math.Round(math.Abs(v)))

	digits := strconv.FormatInt(rounded, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	if v < 0 {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// FormatPercent renders a 0.0-1.0 fraction with one decimal, e.g.
// 0.237 -> "23.7%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// FormatPlan renders an already-scaled percent-to-plan value with one
// decimal, e.g. 150.0 -> "150.0%".
func FormatPlan(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// FormatDays renders a day count with one decimal, e.g. 42.5 -> "42.5 days".
func FormatDays(v float64) string {
	return fmt.Sprintf("%.1f days", v)
}

// Renderer turns snapshots and alert events into email-ready HTML.
type Renderer struct {
	digest *template.Template
	alert  *template.Template
}

// NewRenderer parses the embedded templates. A parse failure is a
// programming error and surfaces at startup.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"currency": FormatCurrency,
		"percent":  FormatPercent,
		"plan":     FormatPlan,
		"days":     FormatDays,
	}

	digestTmpl, err := template.New("digest").Funcs(funcs).Parse(digestTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse digest template: %w", err)
	}

	alertTmpl, err := template.New("alert").Funcs(funcs).Parse(alertTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse alert template: %w", err)
	}

	return &Renderer{digest: digestTmpl, alert: alertTmpl}, nil
}

type digestData struct {
	CurrentDate string
	RangeStart  string
	RangeEnd    string
	Snapshot    *contracts.MetricsSnapshot
}

// RenderDigest renders the daily digest email body for a snapshot covering
// the given date range.
func (r *Renderer) RenderDigest(snap *contracts.MetricsSnapshot, rangeStart, rangeEnd time.Time) (string, error) {
	if snap == nil {
		return "", fmt.Errorf("render digest: nil snapshot")
	}

	data := digestData{
		CurrentDate: snap.AsOf.Format("January 2, 2006"),
		RangeStart:  rangeStart.Format("Jan 2, 2006"),
		RangeEnd:    rangeEnd.Format("Jan 2, 2006"),
		Snapshot:    snap,
	}

	var b strings.Builder
	if err := r.digest.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return b.String(), nil
}

type alertField struct {
	Name  string
	Value string
}

type alertData struct {
	Label       string
	CurrentDate string
	Fields      []alertField
}

// RenderAlert renders a single alert notification email body.
func (r *Renderer) RenderAlert(event contracts.AlertEvent, now time.Time) (string, error) {
	fields, err := alertFields(event)
	if err != nil {
		return "", err
	}

	data := alertData{
		Label:       event.Type.Label(),
		CurrentDate: now.Format("January 2, 2006"),
		Fields:      fields,
	}

	var b strings.Builder
	if err := r.alert.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render alert: %w", err)
	}
	return b.String(), nil
}

// alertFields flattens the typed alert payload into name/value rows. The
// switch is exhaustive over the detail variants; an unknown detail type is
// a programming error.
func alertFields(event contracts.AlertEvent) ([]alertField, error) {
	switch detail := event.Detail.(type) {
	case contracts.PipelineDropDetail:
		return []alertField{
			{"Previous Total Pipeline", FormatCurrency(detail.PreviousValue)},
			{"Current Total Pipeline", FormatCurrency(detail.CurrentValue)},
			{"Drop", FormatPlan(detail.DropPercentage)},
			{"Alert Threshold", FormatPercent(event.Threshold)},
		}, nil
	case contracts.AgingDetail:
		return []alertField{
			{"Stage 0 Opportunities", strconv.Itoa(detail.Stage0Count)},
			{"Average Stage 0 Age", FormatDays(detail.AvgAge)},
			{"Alert Threshold", FormatDays(event.Threshold)},
		}, nil
	case contracts.RepPerformanceDetail:
		return []alertField{
			{"Reps Below Plan", strconv.Itoa(len(detail.Reps))},
			{"Affected Reps", strings.Join(detail.Reps, ", ")},
			{"Lowest Attainment", FormatPercent(detail.MinPerformance)},
			{"Alert Threshold", FormatPercent(event.Threshold)},
		}, nil
	default:
		return nil, fmt.Errorf("render alert: unknown detail type %T", event.Detail)
	}
}
