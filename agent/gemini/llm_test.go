package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapagent/agent"
	"swapagent/tools"
)

type fakeGenerator struct {
	resp *genai.GenerateContentResponse
	err  error
	got  request
}

func (f *fakeGenerator) Generate(ctx context.Context, req request) (*genai.GenerateContentResponse, error) {
	f.got = req
	return f.resp, f.err
}

func respond(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: "model", Parts: parts},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func conversation() agent.Prompt {
	return agent.Prompt{
		System:      "You are a food-substitution agent.",
		Temperature: agent.DefaultTemperature,
		Tools: []agent.ToolSpec{{
			Name:        "flavordb_get_entity_by_name",
			Description: "Flavor profile",
			InputSchema: &jsonschema.Schema{
				Type:     "object",
				Required: []string{"name"},
				Properties: map[string]*jsonschema.Schema{
					"name": {Type: "string", Description: "Ingredient name"},
				},
			},
		}},
		Messages: []agent.Message{
			{Role: "user", Content: agent.MessageParts{{Type: "text", Text: "Analyze butter cookies"}}},
			{Role: "assistant", Content: agent.MessageParts{
				{Type: "tool_use", ToolUseID: "call_1_0", ToolName: "flavordb_get_entity_by_name", Data: map[string]any{"name": "butter"}},
			}},
			agent.NewToolResultMessage([]agent.ToolResult{
				{ToolUseID: "call_1_0", ToolName: "flavordb_get_entity_by_name", Data: map[string]any{"molecules": []any{"diacetyl"}}},
			}),
		},
	}
}

func TestClient_Invoke(t *testing.T) {
	tests := []struct {
		name     string
		resp     *genai.GenerateContentResponse
		err      error
		expected agent.Response
		wantErr  bool
	}{
		{
			name:     "final answer",
			resp:     respond(genai.Text(`{"substitutions": []}`)),
			expected: agent.Response{Content: `{"substitutions": []}`},
		},
		{
			name: "function calls",
			resp: respond(
				genai.Text("Checking pairings."),
				genai.FunctionCall{Name: "flavordb_get_flavor_pairings", Args: map[string]any{"ingredient": "olive oil"}},
				genai.FunctionCall{Name: "recipedb_search_by_cuisine"},
			),
			expected: agent.Response{
				Content: "Checking pairings.",
				ToolCalls: []tools.Call{
					{Name: "flavordb_get_flavor_pairings", Input: map[string]any{"ingredient": "olive oil"}},
					{Name: "recipedb_search_by_cuisine", Input: map[string]any{}},
				},
			},
		},
		{
			name:     "no candidates",
			resp:     &genai.GenerateContentResponse{},
			expected: agent.Response{},
		},
		{
			name:    "api error",
			err:     assert.AnError,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{gen: &fakeGenerator{resp: tt.resp, err: tt.err}, model: "test"}
			got, err := c.Invoke(context.Background(), conversation())
			if tt.wantErr {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestClient_InvokeRequest(t *testing.T) {
	gen := &fakeGenerator{resp: respond(genai.Text("{}"))}
	c := &Client{gen: gen, model: "test"}

	_, err := c.Invoke(context.Background(), conversation())
	require.NoError(t, err)

	req := gen.got
	require.NotNil(t, req.System)
	assert.Equal(t, []genai.Part{genai.Text("You are a food-substitution agent.")}, req.System.Parts)
	assert.Equal(t, float32(agent.DefaultTemperature), req.Temperature)

	require.Len(t, req.History, 2)
	assert.Equal(t, "user", req.History[0].Role)
	assert.Equal(t, "model", req.History[1].Role)
	assert.Equal(t, []genai.Part{genai.FunctionCall{Name: "flavordb_get_entity_by_name", Args: map[string]any{"name": "butter"}}}, req.History[1].Parts)

	assert.Equal(t, []genai.Part{genai.FunctionResponse{
		Name:     "flavordb_get_entity_by_name",
		Response: map[string]any{"molecules": []any{"diacetyl"}},
	}}, req.Parts)

	require.Len(t, req.Tools, 1)
	require.Len(t, req.Tools[0].FunctionDeclarations, 1)
	decl := req.Tools[0].FunctionDeclarations[0]
	assert.Equal(t, "flavordb_get_entity_by_name", decl.Name)
	require.NotNil(t, decl.Parameters)
	assert.Equal(t, genai.TypeObject, decl.Parameters.Type)
	assert.Equal(t, []string{"name"}, decl.Parameters.Required)
	assert.Equal(t, genai.TypeString, decl.Parameters.Properties["name"].Type)
}

func TestClient_InvokeEmptyPrompt(t *testing.T) {
	c := &Client{gen: &fakeGenerator{}, model: "test"}
	_, err := c.Invoke(context.Background(), agent.Prompt{})
	assert.Error(t, err)
}

func TestToSchema(t *testing.T) {
	s := toSchema(&jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"names":      {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"min_weight": {Type: "number"},
			"limit":      {Type: "integer"},
			"strict":     {Type: "boolean"},
			"untyped":    {},
		},
	})

	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, genai.TypeArray, s.Properties["names"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["names"].Items.Type)
	assert.Equal(t, genai.TypeNumber, s.Properties["min_weight"].Type)
	assert.Equal(t, genai.TypeInteger, s.Properties["limit"].Type)
	assert.Equal(t, genai.TypeBoolean, s.Properties["strict"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["untyped"].Type)
	assert.Nil(t, toSchema(nil))
}
