package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"swapagent"
	"swapagent/pipeline"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	webhookURL string
	channel    string
	httpClient doer
}

var _ swapagent.SlackClient = (*Client)(nil)

func NewClient(webhookURL, channel string, httpClient doer) *Client {
	return &Client{
		webhookURL: webhookURL,
		channel:    channel,
		httpClient: httpClient,
	}
}

func (c *Client) PostMessage(ctx context.Context, message string) error {
	payload, err := json.Marshal(map[string]any{
		"channel": c.channel,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	return nil
}

// PostReport posts a short before/after summary of an analysis.
func (c *Client) PostReport(ctx context.Context, report *pipeline.Report) error {
	return c.PostMessage(ctx, Summary(report))
}

// Summary renders a report as Slack mrkdwn.
func Summary(report *pipeline.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*: %.1f (%s) → %.1f (%s)",
		report.RecipeName,
		report.OriginalScore.Score, report.OriginalScore.Rating,
		report.ImprovedScore.Score, report.ImprovedScore.Rating,
	)
	if report.ScoreImprovement != 0 {
		fmt.Fprintf(&b, " [%+.2f]", report.ScoreImprovement)
	}
	b.WriteString("\n")

	for _, s := range report.Swaps {
		fmt.Fprintf(&b, "• %s → %s (rank %.1f)\n", s.Original, s.Substitute.Name, s.Substitute.RankScore)
	}
	if len(report.Swaps) == 0 {
		b.WriteString("• no swaps suggested\n")
	}

	fmt.Fprintf(&b, "_source: %s_", report.SwapSource)
	if report.NutritionFallback {
		b.WriteString(" _(default nutrition)_")
	}
	return b.String()
}
