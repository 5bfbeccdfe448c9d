package commentary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/salesops/stackranker/internal/contracts"
	"github.com/salesops/stackranker/internal/digest"
	"github.com/salesops/stackranker/pkg/config"
	"github.com/salesops/stackranker/pkg/httputil"
	"github.com/salesops/stackranker/pkg/logger"
)

// Client generates a short narrative summary of a snapshot through an
// OpenAI-compatible chat completions endpoint. The service is best-effort:
// any failure degrades to a deterministic template so the dashboard never
// blocks on it.
type Client struct {
	cfg  config.CommentaryConfig
	http *httputil.Client
	log  *logger.Logger
}

// New creates a commentary client from configuration.
func New(cfg config.CommentaryConfig, log *logger.Logger) *Client {
	httpClient := httputil.NewWithTimeout(log, cfg.Timeout).
		WithRetry(2, cfg.Timeout/10).
		WithRateLimit(cfg.RateLimit)

	return &Client{
		cfg:  cfg,
		http: httpClient,
		log:  log,
	}
}

// Enabled reports whether an API key is configured. When disabled, Generate
// returns the fallback directly without a network call.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate returns a narrative summary for the snapshot. The result is
// always usable text; network or service failures are logged and replaced
// by Fallback.
func (c *Client) Generate(ctx context.Context, snap *contracts.MetricsSnapshot) string {
	if snap == nil {
		return ""
	}
	if !c.Enabled() {
		return Fallback(snap)
	}

	text, err := c.complete(ctx, snap)
	if err != nil {
		c.log.WithError(err).Warn("commentary service failed, using fallback")
		return Fallback(snap)
	}
	return text
}

func (c *Client) complete(ctx context.Context, snap *contracts.MetricsSnapshot) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a concise sales operations analyst. Summarize pipeline metrics in two or three sentences for a sales leadership audience."},
			{Role: "user", Content: buildPrompt(snap)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("commentary service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("commentary service returned no choices")
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("commentary service returned empty content")
	}
	return text, nil
}

// buildPrompt flattens the snapshot into the metric lines the model sees.
func buildPrompt(snap *contracts.MetricsSnapshot) string {
	var b strings.Builder
	b.WriteString("Current pipeline metrics:\n")
	fmt.Fprintf(&b, "- Total pipeline: %s\n", digest.FormatCurrency(snap.TotalPipeline))
	fmt.Fprintf(&b, "- Qualified pipeline (QTD): %s\n", digest.FormatCurrency(snap.QualifiedPipeline))
	fmt.Fprintf(&b, "- Late stage pipeline: %s\n", digest.FormatCurrency(snap.LateStageAmount))
	fmt.Fprintf(&b, "- Average deal size: %s\n", digest.FormatCurrency(snap.AvgDealSize))
	fmt.Fprintf(&b, "- Win rate: %s\n", digest.FormatPercent(snap.WinRate))
	fmt.Fprintf(&b, "- Pipeline velocity: %s\n", digest.FormatDays(snap.PipelineVelocity))
	fmt.Fprintf(&b, "- Reps at or above plan: %d of %d\n", snap.AbovePlanCount(), len(snap.RepPerformance))

	if top := snap.TopReps(3); len(top) > 0 {
		b.WriteString("Top reps by percent to plan:\n")
		for _, rep := range top {
			fmt.Fprintf(&b, "- %s: %s of %s target\n",
				rep.Owner, digest.FormatCurrency(rep.QualifiedPipeline), digest.FormatCurrency(rep.Target))
		}
	}

	return b.String()
}

// Fallback builds the deterministic commentary used when the service is
// unavailable or disabled. Same snapshot, same text.
func Fallback(snap *contracts.MetricsSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total pipeline stands at %s with %s qualified quarter to date.",
		digest.FormatCurrency(snap.TotalPipeline), digest.FormatCurrency(snap.QualifiedPipeline))
	fmt.Fprintf(&b, " Win rate is %s and late stage coverage is %s.",
		digest.FormatPercent(snap.WinRate), digest.FormatCurrency(snap.LateStageAmount))

	if n := len(snap.RepPerformance); n > 0 {
		fmt.Fprintf(&b, " %d of %d reps are at or above plan", snap.AbovePlanCount(), n)
		if top := snap.TopReps(1); len(top) > 0 {
			fmt.Fprintf(&b, ", led by %s at %s to plan", top[0].Owner, digest.FormatPlan(top[0].PercentToPlan))
		}
		b.WriteString(".")
	}

	return b.String()
}
