package digest

import (
	"io"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesops/stackranker/internal/contracts"
	"github.com/salesops/stackranker/pkg/config"
	"github.com/salesops/stackranker/pkg/logger"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{999, "$999"},
		{1000, "$1,000"},
		{1234567.8, "$1,234,568"},
		{-4500, "-$4,500"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(tt.in))
	}
}

func TestFormatPercentAndDays(t *testing.T) {
	assert.Equal(t, "23.7%", FormatPercent(0.237))
	assert.Equal(t, "0.0%", FormatPercent(0))
	assert.Equal(t, "150.0%", FormatPlan(150))
	assert.Equal(t, "42.5 days", FormatDays(42.5))
}

func sampleSnapshot() *contracts.MetricsSnapshot {
	return &contracts.MetricsSnapshot{
		AsOf:              time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		TotalPipeline:     2500000,
		QualifiedPipeline: 1200000,
		AvgDealSize:       125000,
		WinRate:           0.237,
		LateStageAmount:   640000,
		PipelineVelocity:  48.2,
		RepPerformance: []contracts.RepPerformance{
			{Rank: 1, Owner: "Sarah Johnson", QualifiedPipeline: 450000, Target: 300000, PercentToPlan: 150},
			{Rank: 2, Owner: "Michael Chen", QualifiedPipeline: 200000, Target: 400000, PercentToPlan: 50},
		},
		PipelineHealth: contracts.PipelineHealth{
			AvgStage0Age: 21.4,
			Stage0Count:  9,
			AgingBuckets: []contracts.AgingBucket{
				{Label: "0-30", Count: 6},
				{Label: "31-60", Count: 2},
				{Label: "61-90", Count: 1},
				{Label: "90+", Count: 0},
			},
		},
	}
}

func TestRenderDigest(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	snap := sampleSnapshot()
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	html, err := r.RenderDigest(snap, start, snap.AsOf)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	assert.Equal(t, "Sales Pipeline Digest", doc.Find("h1").Text())
	assert.Contains(t, doc.Text(), "August 15, 2026")
	assert.Contains(t, doc.Text(), "Jul 1, 2026")

	// Formatted KPI values appear in the metrics table.
	assert.Contains(t, doc.Text(), "$2,500,000")
	assert.Contains(t, doc.Text(), "23.7%")
	assert.Contains(t, doc.Text(), "48.2 days")

	// One ranking row per rep, in rank order.
	rows := doc.Find("tbody tr")
	require.Equal(t, 2, rows.Length())
	assert.Contains(t, rows.First().Text(), "Sarah Johnson")
	assert.Contains(t, rows.First().Text(), "150.0%")
	assert.Contains(t, rows.Last().Text(), "Michael Chen")

	// No diagnostics banner on a clean dataset.
	assert.NotContains(t, doc.Text(), "Data quality")
}

func TestRenderDigest_DiagnosticsBanner(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	snap := sampleSnapshot()
	snap.Diagnostics = contracts.Diagnostics{MalformedRows: 3, UnknownStageRows: 1}

	html, err := r.RenderDigest(snap, snap.AsOf, snap.AsOf)
	require.NoError(t, err)
	assert.Contains(t, html, "Data quality")
	assert.Contains(t, html, "3 malformed rows")
}

func TestRenderDigest_NilSnapshot(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, err = r.RenderDigest(nil, time.Now(), time.Now())
	assert.Error(t, err)
}

func TestRenderAlert(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	now := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event contracts.AlertEvent
		want  []string
	}{
		{
			name: "pipeline drop",
			event: contracts.AlertEvent{
				Type:         contracts.AlertPipelineDrop,
				CurrentValue: 79000,
				Threshold:    0.20,
				Detail: contracts.PipelineDropDetail{
					PreviousValue:  100000,
					CurrentValue:   79000,
					DropPercentage: 21,
				},
			},
			want: []string{"Pipeline Drop Alert", "$100,000", "$79,000", "21.0%", "20.0%"},
		},
		{
			name: "aging opportunities",
			event: contracts.AlertEvent{
				Type:         contracts.AlertAgingOpportunities,
				CurrentValue: 42.5,
				Threshold:    30,
				Detail:       contracts.AgingDetail{Stage0Count: 7, AvgAge: 42.5},
			},
			want: []string{"Aging Opportunities Alert", "42.5 days", "30.0 days", "7"},
		},
		{
			name: "rep performance",
			event: contracts.AlertEvent{
				Type:         contracts.AlertRepPerformance,
				CurrentValue: 2,
				Threshold:    0.70,
				Detail: contracts.RepPerformanceDetail{
					Reps:           []string{"Michael Chen", "Emily Rodriguez"},
					MinPerformance: 0.40,
				},
			},
			want: []string{"Rep Performance Alert", "Michael Chen, Emily Rodriguez", "40.0%", "70.0%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := r.RenderAlert(tt.event, now)
			require.NoError(t, err)

			doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
			require.NoError(t, err)

			text := doc.Text()
			for _, want := range tt.want {
				assert.Contains(t, text, want)
			}
			assert.Contains(t, text, "August 15, 2026")
		})
	}
}

func TestRenderAlert_UnknownDetail(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, err = r.RenderAlert(contracts.AlertEvent{Type: "bogus"}, time.Now())
	assert.Error(t, err)
}

func TestMailer_Send(t *testing.T) {
	cfg := config.SMTPConfig{
		Enabled:  true,
		Host:     "mail.example.com",
		Port:     "587",
		Username: "digest",
		Password: "secret",
		From:     "digest@example.com",
		To:       []string{"vp-sales@example.com", "ops@example.com"},
	}

	m := NewMailer(cfg, logger.NewWriter(io.Discard, "error"))

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := m.Send("Daily Pipeline Digest", "<html><body>hello</body></html>")
	require.NoError(t, err)

	assert.Equal(t, "mail.example.com:587", gotAddr)
	assert.Equal(t, "digest@example.com", gotFrom)
	assert.Equal(t, cfg.To, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Daily Pipeline Digest")
	assert.Contains(t, string(gotMsg), "Content-Type: text/html")
	assert.Contains(t, string(gotMsg), "hello")
}

func TestMailer_Disabled(t *testing.T) {
	m := NewMailer(config.SMTPConfig{Enabled: false}, logger.NewWriter(io.Discard, "error"))
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called when smtp is disabled")
		return nil
	}

	assert.NoError(t, m.Send("subject", "body"))
}
