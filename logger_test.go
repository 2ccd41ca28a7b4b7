package swapagent

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCoordinationLogFilePath(t *testing.T) {
	tests := []struct {
		name   string
		model  string
		recipe string
		suffix string
	}{
		{name: "plain", model: "ranker", recipe: "shortbread", suffix: ".ranker.shortbread.json"},
		{name: "model with colon", model: "llama3.2:latest", recipe: "Banana Bread", suffix: ".llama3.2_latest.banana-bread.json"},
		{name: "bedrock arn", model: "us.anthropic/claude", recipe: "", suffix: ".us.anthropic_claude.unnamed.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCoordinationLogFilePath(tt.model, tt.recipe)
			assert.True(t, strings.HasPrefix(got, "./logs/"), got)
			assert.True(t, strings.HasSuffix(got, tt.suffix), got)
		})
	}
}

func TestFileCoordinationLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFileCoordinationLogger(&buf, "Shortbread")

	require.NoError(t, logger.LogIteration(IterationLog{Iteration: 1, Timestamp: time.Now(), State: "tool_calls", ToolCalls: []ToolCallLog{{
		Name:   "get_flavor_profile",
		Input:  map[string]any{"ingredient_name": "shortening"},
		Output: map[string]any{"found": true},
	}}}))
	require.NoError(t, logger.LogIteration(IterationLog{Iteration: 2, Timestamp: time.Now(), State: "final", Termination: "success"}))
	assert.Zero(t, buf.Len(), "nothing is written before Flush")

	require.NoError(t, logger.Flush())

	var doc struct {
		Session struct {
			Recipe     string         `json:"recipe"`
			Iterations []IterationLog `json:"iterations"`
		} `json:"agent_session"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Shortbread", doc.Session.Recipe)
	require.Len(t, doc.Session.Iterations, 2)
	assert.Equal(t, "get_flavor_profile", doc.Session.Iterations[0].ToolCalls[0].Name)
	assert.Equal(t, "success", doc.Session.Iterations[1].Termination)

	buf.Reset()
	require.NoError(t, logger.Flush())
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Empty(t, doc.Session.Iterations)
}

func TestFileCoordinationLoggerNilWriter(t *testing.T) {
	logger := NewFileCoordinationLogger(nil, "x")
	require.NoError(t, logger.LogIteration(IterationLog{Iteration: 1}))
	assert.NoError(t, logger.Flush())
}

func TestStdoutCoordinationLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := &StdoutCoordinationLogger{out: &buf}

	require.NoError(t, logger.LogIteration(IterationLog{Iteration: 1, State: "tool_calls"}))
	require.NoError(t, logger.LogIteration(IterationLog{Iteration: 2, State: "final", Error: "boom"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var second IterationLog
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, 2, second.Iteration)
	assert.Equal(t, "boom", second.Error)
}

func TestNoOpCoordinationLogger(t *testing.T) {
	var logger CoordinationLogger = NewNoOpCoordinationLogger()
	assert.NoError(t, logger.LogIteration(IterationLog{Iteration: 1}))
}
