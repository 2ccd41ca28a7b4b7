package slack_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"swapagent/food"
	"swapagent/health"
	"swapagent/pipeline"
	"swapagent/slack"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

type mockDoer struct {
	resp   *http.Response
	err    error
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockDoer) Do(req *http.Request) (*http.Response, error) {
	if m.doFunc != nil {
		return m.doFunc(req)
	}
	return m.resp, m.err
}

func TestNewClient(t *testing.T) {
	webhook := "http://slack.com/webhook"
	client := slack.NewClient(webhook, "#recipes", &mockDoer{})
	must.NotNil(t, client, "expected non-nil client")
}

func TestPostMessage(t *testing.T) {
	tests := []struct {
		name    string
		doFunc  func(req *http.Request) (*http.Response, error)
		wantErr error
	}{
		{
			name: "success",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
			},
			wantErr: nil,
		},
		{
			name: "failure status",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusBadRequest, Status: "400 Bad Request", Body: io.NopCloser(bytes.NewBufferString("bad request"))}, nil
			},
			wantErr: fmt.Errorf("failed to post message: 400 Bad Request"),
		},
		{
			name: "do error",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("network error")
			},
			wantErr: fmt.Errorf("network error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := slack.NewClient("http://example.com/webhook", "#general", &mockDoer{doFunc: tt.doFunc})
			err := client.PostMessage(context.Background(), "Hello, world!")
			should.Equal(t, tt.wantErr, err)
		})
	}
}

func testReport() *pipeline.Report {
	return &pipeline.Report{
		RecipeName:    "Shortbread",
		OriginalScore: health.HealthScore{Score: 41.2, Rating: health.Decent},
		ImprovedScore: health.HealthScore{Score: 47.85, Rating: health.Decent},
		Swaps: []food.Swap{{
			Original:   "shortening",
			Substitute: food.SubstituteOption{Name: "coconut oil", RankScore: 61.4},
			Accepted:   true,
		}},
		ScoreImprovement: 6.65,
		SwapSource:       "ranker",
	}
}

func TestPostReport(t *testing.T) {
	var sent map[string]any
	client := slack.NewClient("http://example.com/webhook", "#recipes", &mockDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		must.NoError(t, json.Unmarshal(body, &sent))
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
	}})

	must.NoError(t, client.PostReport(context.Background(), testReport()))
	should.Equal(t, "#recipes", sent["channel"])
	should.Equal(t, slack.Summary(testReport()), sent["text"])
}

func TestSummary(t *testing.T) {
	got := slack.Summary(testReport())
	should.Equal(t, "*Shortbread*: 41.2 (Decent) → 47.9 (Decent) [+6.65]\n"+
		"• shortening → coconut oil (rank 61.4)\n"+
		"_source: ranker_", got)

	empty := &pipeline.Report{
		RecipeName:        "Oat Bowl",
		OriginalScore:     health.HealthScore{Score: 82, Rating: health.Excellent},
		ImprovedScore:     health.HealthScore{Score: 82, Rating: health.Excellent},
		SwapSource:        "agent",
		NutritionFallback: true,
	}
	should.Equal(t, "*Oat Bowl*: 82.0 (Excellent) → 82.0 (Excellent)\n"+
		"• no swaps suggested\n"+
		"_source: agent_ _(default nutrition)_", slack.Summary(empty))
}
