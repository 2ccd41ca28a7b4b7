// Package gemini is the agent.LLM backend for Gemini function calling.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"google.golang.org/api/option"

	"swapagent/agent"
	"swapagent/tools"
)

const defaultModelID = "gemini-1.5-flash"

// request is one model turn: the conversation so far plus the parts of the
// newest user message.
type request struct {
	System      *genai.Content
	Tools       []*genai.Tool
	Temperature float32
	History     []*genai.Content
	Parts       []genai.Part
}

type generator interface {
	Generate(ctx context.Context, req request) (*genai.GenerateContentResponse, error)
}

// chatGenerator builds a fresh GenerativeModel per call so concurrent runs
// never share tool or history state.
type chatGenerator struct {
	client *genai.Client
	model  string
}

func (g *chatGenerator) Generate(ctx context.Context, req request) (*genai.GenerateContentResponse, error) {
	m := g.client.GenerativeModel(g.model)
	m.SystemInstruction = req.System
	m.Tools = req.Tools
	m.SetTemperature(req.Temperature)

	cs := m.StartChat()
	cs.History = req.History
	return cs.SendMessage(ctx, req.Parts...)
}

type Client struct {
	client *genai.Client
	gen    generator
	model  string
}

var _ agent.LLM = (*Client)(nil)

func NewClient(ctx context.Context, apiKey, modelID string) (*Client, error) {
	if modelID == "" {
		modelID = defaultModelID
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{
		client: client,
		gen:    &chatGenerator{client: client, model: modelID},
		model:  modelID,
	}, nil
}

// Close closes the underlying Gemini client.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) Invoke(ctx context.Context, prompt agent.Prompt) (agent.Response, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(prompt.Messages), "model", c.model)

	contents := buildContents(prompt.Messages)
	if len(contents) == 0 {
		return agent.Response{}, fmt.Errorf("gemini: prompt has no messages")
	}
	last := contents[len(contents)-1]

	req := request{
		Tools:       buildTools(prompt.Tools),
		Temperature: prompt.Temperature,
		History:     contents[:len(contents)-1],
		Parts:       last.Parts,
	}
	if prompt.System != "" {
		req.System = &genai.Content{Parts: []genai.Part{genai.Text(prompt.System)}}
	}

	resp, err := c.gen.Generate(ctx, req)
	if err != nil {
		slog.Error("LLM_CLIENT: Gemini invoke failed", "error", err)
		return agent.Response{}, fmt.Errorf("failed to generate content: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		slog.Warn("LLM_CLIENT: Gemini returned no candidates")
		return agent.Response{}, nil
	}

	cand := resp.Candidates[0]
	var out agent.Response
	var texts []string
	for _, p := range cand.Content.Parts {
		if t, ok := p.(genai.Text); ok && strings.TrimSpace(string(t)) != "" {
			texts = append(texts, string(t))
		}
	}
	out.Content = strings.Join(texts, "\n")

	for _, fc := range cand.FunctionCalls() {
		args := fc.Args
		if args == nil {
			args = map[string]any{}
		}
		out.ToolCalls = append(out.ToolCalls, tools.Call{Name: fc.Name, Input: args})
	}

	slog.Info("LLM_CLIENT: Gemini response",
		"finish_reason", cand.FinishReason.String(),
		"content_len", len(out.Content),
		"tool_calls", len(out.ToolCalls),
	)
	return out, nil
}

// buildContents maps the conversation onto Gemini's user/model roles. Tool
// results travel as FunctionResponse parts in a user turn.
func buildContents(messages []agent.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}

		var parts []genai.Part
		for _, part := range m.Content {
			switch part.Type {
			case "text":
				if part.Text != "" {
					parts = append(parts, genai.Text(part.Text))
				}
			case "tool_use":
				parts = append(parts, genai.FunctionCall{Name: part.ToolName, Args: part.Data})
			case "tool_result":
				data := part.Data
				if data == nil {
					data = map[string]any{}
				}
				parts = append(parts, genai.FunctionResponse{Name: part.ToolName, Response: data})
			}
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}
	return out
}

func buildTools(specs []agent.ToolSpec) []*genai.Tool {
	if len(specs) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, t := range specs {
		decl := &genai.FunctionDeclaration{Name: t.Name, Description: t.Description}
		if t.InputSchema != nil && len(t.InputSchema.Properties) > 0 {
			decl.Parameters = toSchema(t.InputSchema)
		}
		decls = append(decls, decl)
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// toSchema converts the subset of JSON Schema the tools use.
func toSchema(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        schemaType(s),
		Description: s.Description,
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toSchema(prop)
		}
	}
	if s.Items != nil {
		out.Items = toSchema(s.Items)
	}
	return out
}

func schemaType(s *jsonschema.Schema) genai.Type {
	switch s.Type {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	}
	if len(s.Properties) > 0 {
		return genai.TypeObject
	}
	return genai.TypeString
}
