package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"swapagent/tools"
)

// LLM is a language model backend that can request tool calls.
type LLM interface {
	Invoke(ctx context.Context, prompt Prompt) (Response, error)
}

type MessagePart struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	ToolName  string         `json:"tool_name,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

type MessageParts []MessagePart

// Join concatenates the text parts.
func (mp MessageParts) Join() string {
	var b strings.Builder
	for _, part := range mp {
		if part.Type == "text" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

type Message struct {
	Role    string       `json:"role"`
	Content MessageParts `json:"content"`
}

type ToolResult struct {
	ToolUseID string
	ToolName  string
	Data      map[string]any
}

// NewToolResultMessage batches every result of a turn into one user message.
func NewToolResultMessage(results []ToolResult) Message {
	var parts MessageParts
	for _, result := range results {
		parts = append(parts, MessagePart{
			Type:      "tool_result",
			ToolUseID: result.ToolUseID,
			ToolName:  result.ToolName,
			Data:      result.Data,
		})
	}
	return Message{
		Role:    "user",
		Content: parts,
	}
}

// ToolSpec is the backend-neutral description of a tool offered to the model.
type ToolSpec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

// Prompt is the full conversation sent on every turn. System is kept apart
// from Messages because every backend places it differently.
type Prompt struct {
	System      string     `json:"system"`
	Messages    []Message  `json:"messages"`
	Tools       []ToolSpec `json:"tools,omitempty"`
	Temperature float32    `json:"temperature"`
}

// HasToolResult reports whether any tool_result part for tool is in the conversation.
func (p *Prompt) HasToolResult(tool string) bool {
	for _, msg := range p.Messages {
		for _, part := range msg.Content {
			if part.Type == "tool_result" && part.ToolName == tool {
				return true
			}
		}
	}
	return false
}

// Response represents the model's response structure.
type Response struct {
	Content   string       `json:"content,omitempty"`
	ToolCalls []tools.Call `json:"tool_calls,omitempty"`
}

// ParseModelOutput moves {"tool_calls": [...]} objects embedded in Content
// into ToolCalls. It is for backends without native tool calling; any text
// outside the tool call objects stays in Content.
func (r *Response) ParseModelOutput() {
	s := strings.TrimSpace(r.Content)
	if s == "" {
		r.Content = ""
		return
	}

	var content strings.Builder
	var calls []tools.Call

	i := 0
	for i < len(s) {
		start := strings.IndexByte(s[i:], '{')
		if start == -1 {
			content.WriteString(s[i:])
			break
		}
		start += i
		content.WriteString(s[i:start])

		end, ok := matchBrace(s, start)
		if !ok {
			content.WriteString(s[start:])
			break
		}

		obj := s[start : end+1]
		var probe struct {
			ToolCalls []tools.Call `json:"tool_calls"`
		}
		if err := json.Unmarshal([]byte(obj), &probe); err == nil && len(probe.ToolCalls) > 0 {
			for _, tc := range probe.ToolCalls {
				calls = append(calls, tools.Call{Name: tc.Name, Input: tc.Input, ToolUseID: tc.ToolUseID})
			}
		} else {
			content.WriteString(obj)
		}
		i = end + 1
	}

	r.Content = strings.TrimSpace(content.String())
	r.ToolCalls = append(r.ToolCalls, calls...)
}

// matchBrace returns the index of the brace closing the object opened at
// start, skipping braces inside JSON strings.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
