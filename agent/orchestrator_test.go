package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"swapagent"
	"swapagent/food"
	"swapagent/tools"
)

// mockLLM replays scripted responses and records every prompt it receives.
type mockLLM struct {
	responses []Response
	callCount int
	prompts   []Prompt
}

func (m *mockLLM) Invoke(ctx context.Context, prompt Prompt) (Response, error) {
	m.prompts = append(m.prompts, prompt)
	if m.callCount >= len(m.responses) {
		return Response{}, errors.New("no more responses available")
	}
	resp := m.responses[m.callCount]
	m.callCount++
	return resp, nil
}

func newMockLLM(responses ...Response) *mockLLM {
	return &mockLLM{responses: responses}
}

type fakeTool struct {
	name   string
	output map[string]any
	err    error
	calls  int
}

func (f *fakeTool) Name() string                     { return f.name }
func (f *fakeTool) Title() string                    { return f.name }
func (f *fakeTool) Description() string              { return "fake " + f.name }
func (f *fakeTool) InputSchema() *jsonschema.Schema  { return &jsonschema.Schema{Type: "object"} }
func (f *fakeTool) OutputSchema() *jsonschema.Schema { return &jsonschema.Schema{Type: "object"} }

func (f *fakeTool) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

type fakeTools struct {
	tools []*fakeTool
}

func (f *fakeTools) GetTools() []tools.Tool {
	out := make([]tools.Tool, len(f.tools))
	for i, t := range f.tools {
		out[i] = t
	}
	return out
}

func (f *fakeTools) GetTool(name string) (tools.Tool, error) {
	for _, t := range f.tools {
		if t.name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("tool %q not found in registry", name)
}

func newFakeTools() *fakeTools {
	return &fakeTools{tools: []*fakeTool{
		{name: "flavordb_get_entity_by_name", output: map[string]any{"entity_alias_readable": "butter", "molecules": []any{"diacetyl"}}},
		{name: "recipedb_search_by_ingredient", err: errors.New("RecipeDB unavailable")},
	}}
}

type recordingLogger struct {
	iterations []swapagent.IterationLog
}

func (l *recordingLogger) LogIteration(iteration swapagent.IterationLog) error {
	l.iterations = append(l.iterations, iteration)
	return nil
}

const finalAnswer = `{
	"substitutions": [
		{
			"original_ingredient": "butter",
			"substitute_ingredient": "olive oil",
			"confidence": 0.8,
			"flavor_similarity_score": 72,
			"health_improvement_reasoning": "Olive oil replaces saturated fat with monounsaturated fat.",
			"flavor_preservation_reasoning": "Both carry fatty, buttery notes.",
			"functional_role_match": "fat",
			"scientific_basis": {"shared_molecules": ["hexanal", "nonanal"]},
			"apis_used": ["flavordb_get_entity_by_name"]
		}
	],
	"overall_confidence": 0.75,
	"data_completeness": "full",
	"no_substitute_ingredients": ["sugar"]
}`

func toolCall(name string, input map[string]any) Response {
	return Response{ToolCalls: []tools.Call{{Name: name, Input: input}}}
}

func testRequest() Request {
	return Request{
		RecipeName:    "Butter Cookies",
		Ingredients:   []string{"butter", "flour", "sugar"},
		Nutrition:     food.Nutrition{Calories: 300, SaturatedFat: 6, Sugar: 12, Fiber: 2},
		OriginalScore: 42.5,
	}
}

func TestOrchestratorRun(t *testing.T) {
	tests := []struct {
		name             string
		maxIterations    int
		responses        []Response
		wantCompleteness Completeness
		wantTermination  Termination
		wantIterations   int
		wantSubs         int
		wantAPIs         []string
		wantRaw          string
	}{
		{
			name:             "direct final answer",
			maxIterations:    5,
			responses:        []Response{{Content: finalAnswer}},
			wantCompleteness: CompletenessFull,
			wantTermination:  TerminationSuccess,
			wantIterations:   1,
			wantSubs:         1,
			wantAPIs:         []string{},
		},
		{
			name:          "tool call then final answer",
			maxIterations: 5,
			responses: []Response{
				toolCall("flavordb_get_entity_by_name", map[string]any{"name": "butter"}),
				{Content: "Here is my answer:\n```json\n" + finalAnswer + "\n```"},
			},
			wantCompleteness: CompletenessFull,
			wantTermination:  TerminationSuccess,
			wantIterations:   2,
			wantSubs:         1,
			wantAPIs:         []string{"flavordb_get_entity_by_name"},
		},
		{
			name:             "provider error",
			maxIterations:    5,
			wantCompleteness: CompletenessParseError,
			wantTermination:  TerminationProviderError,
			wantIterations:   1,
			wantAPIs:         []string{},
			wantRaw:          "LLM API error: no more responses available",
		},
		{
			name:             "non-JSON final answer",
			maxIterations:    5,
			responses:        []Response{{Content: "I could not decide on any swaps."}},
			wantCompleteness: CompletenessParseError,
			wantTermination:  TerminationParseError,
			wantIterations:   1,
			wantAPIs:         []string{},
			wantRaw:          "I could not decide on any swaps.",
		},
		{
			name:          "iteration ceiling",
			maxIterations: 2,
			responses: []Response{
				toolCall("flavordb_get_entity_by_name", map[string]any{"name": "butter"}),
				toolCall("flavordb_get_entity_by_name", map[string]any{"name": "olive oil"}),
				{Content: finalAnswer},
			},
			wantCompleteness: CompletenessPartial,
			wantTermination:  TerminationMaxIterations,
			wantIterations:   2,
			wantAPIs:         []string{"flavordb_get_entity_by_name", "flavordb_get_entity_by_name"},
			wantRaw:          "Agent reached maximum iteration limit",
		},
		{
			name:             "empty response",
			maxIterations:    5,
			responses:        []Response{{Content: "  "}},
			wantCompleteness: CompletenessPartial,
			wantTermination:  TerminationEmptyResponse,
			wantIterations:   1,
			wantAPIs:         []string{},
			wantRaw:          emptyResponseReasoning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &recordingLogger{}
			o := NewOrchestrator(newMockLLM(tt.responses...), newFakeTools(), tt.maxIterations, logger)

			result := o.Run(context.Background(), testRequest())

			require.NotNil(t, result)
			assert.Equal(t, tt.wantCompleteness, result.DataCompleteness)
			assert.Equal(t, tt.wantTermination, result.Termination)
			assert.Equal(t, tt.wantIterations, result.Iterations)
			assert.Len(t, result.Substitutions, tt.wantSubs)
			assert.Equal(t, tt.wantAPIs, result.APIsCalled)
			if tt.wantRaw != "" {
				assert.Equal(t, tt.wantRaw, result.RawReasoning)
			}

			require.Len(t, logger.iterations, tt.wantIterations)
			if tt.wantTermination == TerminationMaxIterations {
				return
			}
			last := logger.iterations[len(logger.iterations)-1]
			assert.Equal(t, tt.wantTermination.String(), last.Termination)
			assert.Equal(t, StateDone.String(), last.State)
		})
	}
}

func TestOrchestratorToolResults(t *testing.T) {
	llm := newMockLLM(
		Response{
			Content: "Looking up butter first.",
			ToolCalls: []tools.Call{
				{Name: "flavordb_get_entity_by_name", Input: map[string]any{"name": "butter"}, ToolUseID: "t1"},
				{Name: "recipedb_search_by_ingredient", Input: map[string]any{"ingredient": "olive oil"}},
				{Name: "nonexistent_tool"},
			},
		},
		Response{Content: finalAnswer},
	)
	provider := newFakeTools()
	logger := &recordingLogger{}

	result := NewOrchestrator(llm, provider, 5, logger).Run(context.Background(), testRequest())

	assert.Equal(t, TerminationSuccess, result.Termination)
	assert.Equal(t, []string{"flavordb_get_entity_by_name", "recipedb_search_by_ingredient", "nonexistent_tool"}, result.APIsCalled)
	assert.Equal(t, 1, provider.tools[0].calls)
	assert.Equal(t, 1, provider.tools[1].calls)

	require.Len(t, llm.prompts, 2)
	msgs := llm.prompts[1].Messages
	require.Len(t, msgs, 3)

	assistant := msgs[1]
	assert.Equal(t, "assistant", assistant.Role)
	require.Len(t, assistant.Content, 4)
	assert.Equal(t, "Looking up butter first.", assistant.Content[0].Text)
	assert.Equal(t, "t1", assistant.Content[1].ToolUseID)
	assert.Equal(t, "call_1_1", assistant.Content[2].ToolUseID)

	results := msgs[2]
	assert.Equal(t, "user", results.Role)
	require.Len(t, results.Content, 3)
	assert.Equal(t, "tool_result", results.Content[0].Type)
	assert.Equal(t, "butter", results.Content[0].Data["entity_alias_readable"])
	assert.Equal(t, map[string]any{
		"error": "RecipeDB unavailable",
		"note":  toolFailureNote,
	}, results.Content[1].Data)
	assert.Equal(t, map[string]any{"error": "Unknown tool: nonexistent_tool"}, results.Content[2].Data)
	assert.True(t, llm.prompts[1].HasToolResult("recipedb_search_by_ingredient"))

	require.Len(t, logger.iterations, 2)
	first := logger.iterations[0]
	assert.Equal(t, StateToolCalling.String(), first.State)
	assert.Empty(t, first.Termination)
	require.Len(t, first.ToolCalls, 3)
	assert.Empty(t, first.ToolCalls[0].Error)
	assert.Equal(t, "RecipeDB unavailable", first.ToolCalls[1].Error)
	assert.NotEmpty(t, first.ToolCalls[2].Error)
}

func TestNewOrchestratorDefaultIterations(t *testing.T) {
	tests := []struct {
		name string
		max  int
		want int
	}{
		{name: "zero", max: 0, want: DefaultMaxIterations},
		{name: "negative", max: -3, want: DefaultMaxIterations},
		{name: "explicit", max: 4, want: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrchestrator(newMockLLM(), newFakeTools(), tt.max, nil)
			assert.Equal(t, tt.want, o.maxIterations)
		})
	}
}

func TestOrchestratorPrompt(t *testing.T) {
	llm := newMockLLM(Response{Content: finalAnswer})
	NewOrchestrator(llm, newFakeTools(), 0, nil).Run(context.Background(), testRequest())

	require.Len(t, llm.prompts, 1)
	p := llm.prompts[0]
	assert.Equal(t, systemPrompt, p.System)
	assert.Equal(t, float32(DefaultTemperature), p.Temperature)
	require.Len(t, p.Tools, 2)
	assert.Equal(t, "flavordb_get_entity_by_name", p.Tools[0].Name)
	assert.NotNil(t, p.Tools[0].InputSchema)

	require.Len(t, p.Messages, 1)
	text := p.Messages[0].Content.Join()
	assert.Contains(t, text, "Recipe: Butter Cookies")
	assert.Contains(t, text, "Ingredients: butter, flour, sugar")
	assert.Contains(t, text, "Current health score: 42.5/100")
	assert.Contains(t, text, "Allergens to avoid: none")
	assert.Contains(t, text, `"saturated_fat":6`)
}

func TestInstrumentedOrchestratorRecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	llm := newMockLLM(
		toolCall("recipedb_search_by_ingredient", map[string]any{"ingredient": "olive oil"}),
		Response{Content: finalAnswer},
	)
	o := NewInstrumentedOrchestrator(llm, newFakeTools(), 5, nil, nil, mp.Meter("test"))

	result := o.Run(context.Background(), testRequest())
	assert.Equal(t, TerminationSuccess, result.Termination)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}

	assert.Equal(t, int64(1), sums["agent_runs_total"])
	assert.Equal(t, int64(1), sums["agent_terminations_total"])
	assert.Equal(t, int64(2), sums["agent_iterations_total"])
	assert.Equal(t, int64(1), sums["tool_calls_total"])
	assert.Equal(t, int64(1), sums["tool_calls_failed_total"])
}

func TestMachine(t *testing.T) {
	m := newMachine(2)
	assert.Equal(t, StatePlanning, m.state)

	require.True(t, m.next())
	m.toolCalls()
	assert.Equal(t, StateToolCalling, m.state)

	require.True(t, m.next())
	assert.False(t, m.next())
	assert.True(t, m.done())
	assert.Equal(t, TerminationMaxIterations, m.termination)
	assert.Equal(t, 2, m.iteration)

	m.finish(TerminationSuccess)
	assert.Equal(t, TerminationMaxIterations, m.termination, "first terminal reason sticks")

	m = newMachine(3)
	m.next()
	m.finalize()
	assert.Equal(t, StateFinalizing, m.state)
	m.finish(TerminationParseError)
	assert.False(t, m.next())
	assert.Equal(t, 1, m.iteration)
}

func TestTerminationText(t *testing.T) {
	b, err := TerminationMaxIterations.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "max_iterations", string(b))
	assert.Equal(t, "termination(42)", Termination(42).String())
}
