package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapagent/agent"
	"swapagent/tools"
)

// mockHTTPClient implements the HTTPClient interface for testing
type mockHTTPClient struct {
	response *http.Response
	err      error
	body     []byte
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		m.body, _ = io.ReadAll(req.Body)
	}
	return m.response, m.err
}

// createMockResponse creates a mock HTTP response
func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func userPrompt(text string) agent.Prompt {
	return agent.Prompt{
		System:   "You are a food-substitution agent.",
		Messages: []agent.Message{{Role: "user", Content: agent.MessageParts{{Type: "text", Text: text}}}},
	}
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(ClientOpts{BaseEndpoint: "http://localhost:11434/", ModelID: "llama3.2"})
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", c.model)
	assert.Equal(t, "http://localhost:11434/api/chat", c.endpoint)
	assert.Equal(t, options{Temperature: agent.DefaultTemperature, TopP: 0.9, RepeatPenalty: 1.05, NumCtx: 16384}, c.options)
	assert.NotNil(t, c.httpClient)

	_, err = NewClient(ClientOpts{BaseEndpoint: "http://localhost:11434"})
	assert.Error(t, err)
}

func TestClient_Invoke(t *testing.T) {
	tests := []struct {
		name           string
		mockResponse   *http.Response
		mockError      error
		expectedResult agent.Response
		wantErr        error
	}{
		{
			name: "final answer",
			mockResponse: createMockResponse(200, `{
				"message": {"role": "assistant", "content": "{\"substitutions\": []}"}
			}`),
			expectedResult: agent.Response{Content: `{"substitutions": []}`},
		},
		{
			name: "native tool calls",
			mockResponse: createMockResponse(200, `{
				"message": {
					"role": "assistant",
					"content": "I need the flavor profile first.",
					"tool_calls": [
						{"function": {"name": "flavordb_get_entity_by_name", "arguments": {"name": "butter"}}},
						{"function": {"name": "recipedb_search_by_cuisine"}}
					]
				}
			}`),
			expectedResult: agent.Response{
				Content: "I need the flavor profile first.",
				ToolCalls: []tools.Call{
					{Name: "flavordb_get_entity_by_name", Input: map[string]any{"name": "butter"}},
					{Name: "recipedb_search_by_cuisine", Input: map[string]any{}},
				},
			},
		},
		{
			name: "tool calls embedded in text",
			mockResponse: createMockResponse(200, `{
				"message": {
					"role": "assistant",
					"content": "{\"tool_calls\": [{\"name\": \"flavordb_get_flavor_pairings\", \"input\": {\"ingredient\": \"butter\"}}]}"
				}
			}`),
			expectedResult: agent.Response{
				ToolCalls: []tools.Call{
					{Name: "flavordb_get_flavor_pairings", Input: map[string]any{"ingredient": "butter"}},
				},
			},
		},
		{
			name:         "HTTP error",
			mockResponse: createMockResponse(500, `{"error": "Internal server error"}`),
			wantErr:      ErrStatus,
		},
		{
			name:      "network error",
			mockError: io.EOF,
			wantErr:   io.EOF,
		},
		{
			name:           "malformed JSON response",
			mockResponse:   createMockResponse(200, `{"message": {"content": "cut off"`),
			expectedResult: agent.Response{Content: `{"message": {"content": "cut off"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(ClientOpts{
				BaseEndpoint: "http://localhost:11434",
				ModelID:      "llama3.2",
				HTTPClient:   &mockHTTPClient{response: tt.mockResponse, err: tt.mockError},
			})
			require.NoError(t, err)

			result, err := client.Invoke(context.Background(), userPrompt("Analyze butter cookies"))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedResult, result)
		})
	}
}

func TestClient_InvokeRequest(t *testing.T) {
	httpClient := &mockHTTPClient{response: createMockResponse(200, `{"message": {"content": "{}"}}`)}
	client, err := NewClient(ClientOpts{BaseEndpoint: "http://ollama:11434", ModelID: "qwen3", HTTPClient: httpClient})
	require.NoError(t, err)

	prompt := userPrompt("Analyze butter cookies")
	prompt.Temperature = 0.5
	prompt.Tools = []agent.ToolSpec{{
		Name:        "flavordb_get_entity_by_name",
		Description: "Flavor profile",
		InputSchema: &jsonschema.Schema{Type: "object", Required: []string{"name"}},
	}}

	_, err = client.Invoke(context.Background(), prompt)
	require.NoError(t, err)

	var sent wireRequest
	require.NoError(t, json.Unmarshal(httpClient.body, &sent))
	assert.Equal(t, "qwen3", sent.Model)
	assert.False(t, sent.Stream)
	assert.Equal(t, 0.5, sent.Options.Temperature)
	require.Len(t, sent.Tools, 1)
	assert.Equal(t, "function", sent.Tools[0].Type)
	assert.Equal(t, "flavordb_get_entity_by_name", sent.Tools[0].Function.Name)
	assert.Equal(t, []any{"name"}, sent.Tools[0].Function.Parameters["required"])
}

func TestBuildMessages(t *testing.T) {
	prompt := agent.Prompt{
		System: "You are a food-substitution agent.",
		Messages: []agent.Message{
			{Role: "user", Content: agent.MessageParts{{Type: "text", Text: "Analyze butter cookies"}}},
			{Role: "assistant", Content: agent.MessageParts{
				{Type: "text", Text: "Checking butter."},
				{Type: "tool_use", ToolUseID: "call_1_0", ToolName: "flavordb_get_entity_by_name", Data: map[string]any{"name": "butter"}},
			}},
			agent.NewToolResultMessage([]agent.ToolResult{
				{ToolUseID: "call_1_0", ToolName: "flavordb_get_entity_by_name", Data: map[string]any{"molecules": []any{"diacetyl"}}},
				{ToolUseID: "call_1_1", Data: map[string]any{"dropped": true}},
			}),
			{Role: "critic", Content: agent.MessageParts{{Type: "text", Text: "treated as user"}}},
		},
	}

	got := buildMessages(prompt)
	require.Len(t, got, 5)

	assert.Equal(t, wireMessage{Role: "system", Content: "You are a food-substitution agent."}, got[0])
	assert.Equal(t, wireMessage{Role: "user", Content: "Analyze butter cookies"}, got[1])

	assert.Equal(t, "assistant", got[2].Role)
	assert.Equal(t, "Checking butter.", got[2].Content)
	require.Len(t, got[2].ToolCalls, 1)
	assert.Equal(t, "flavordb_get_entity_by_name", got[2].ToolCalls[0].Function.Name)

	assert.Equal(t, "tool", got[3].Role)
	assert.Equal(t, "flavordb_get_entity_by_name", got[3].ToolName)
	assert.JSONEq(t, `{"molecules": ["diacetyl"]}`, got[3].Content)

	assert.Equal(t, wireMessage{Role: "user", Content: "treated as user"}, got[4])
}
