// Package ollama is the agent.LLM backend for a local Ollama server's
// /api/chat endpoint with native tool calling.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"swapagent"
	"swapagent/agent"
	"swapagent/tools"
)

var ErrStatus = errors.New("unexpected ollama status")

type options struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	NumCtx        int     `json:"num_ctx,omitempty"`
}

type Client struct {
	endpoint   string
	model      string
	httpClient swapagent.HTTPClient
	options    options
}

var _ agent.LLM = (*Client)(nil)

type ClientOpts struct {
	BaseEndpoint string
	ModelID      string
	HTTPClient   swapagent.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if strings.TrimSpace(opts.ModelID) == "" {
		return nil, fmt.Errorf("ollama: model id is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Client{
		model:      opts.ModelID,
		httpClient: opts.HTTPClient,
		endpoint:   strings.TrimRight(opts.BaseEndpoint, "/") + "/api/chat",
		options: options{
			Temperature:   agent.DefaultTemperature,
			TopP:          0.9,
			RepeatPenalty: 1.05,
			// The system prompt plus sixteen tool schemas is large; 16k leaves
			// room for several turns of tool results.
			NumCtx: 16384,
		},
	}, nil
}

type wireToolCall struct {
	Function wireFunctionCall `json:"function"`
}

type wireFunctionCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type wireMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolName  string         `json:"tool_name,omitempty"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type wireResponse struct {
	Message wireMessage `json:"message"`
	// other metadata omitted but available
}

type wireRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Tools    []wireTool    `json:"tools,omitempty"`
	Stream   bool          `json:"stream"`
	Options  options       `json:"options,omitempty"`
}

// Invoke sends the prompt to /api/chat. Models that answer with a
// {"tool_calls": [...]} object in text instead of native tool calls are
// handled too.
func (c *Client) Invoke(ctx context.Context, prompt agent.Prompt) (agent.Response, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(prompt.Messages), "model", c.model)

	opts := c.options
	if prompt.Temperature > 0 {
		opts.Temperature = float64(prompt.Temperature)
	}

	reqBody := wireRequest{
		Model:    c.model,
		Messages: buildMessages(prompt),
		Tools:    buildTools(prompt.Tools),
		Stream:   false,
		Options:  opts,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return agent.Response{}, fmt.Errorf("ollama: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBytes))
	if err != nil {
		return agent.Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return agent.Response{}, fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return agent.Response{}, fmt.Errorf("ollama: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return agent.Response{}, fmt.Errorf("%w: %s: %s", ErrStatus, resp.Status, string(body))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		slog.Warn("LLM_CLIENT: decode failed, returning raw", "err", err, "body_len", len(body))
		return agent.Response{Content: string(body)}, nil
	}

	out := agent.Response{Content: wr.Message.Content}
	for _, call := range wr.Message.ToolCalls {
		args := call.Function.Arguments
		if args == nil {
			args = map[string]any{}
		}
		out.ToolCalls = append(out.ToolCalls, tools.Call{Name: call.Function.Name, Input: args})
	}
	if len(out.ToolCalls) == 0 {
		out.ParseModelOutput()
	}

	slog.Info("LLM_CLIENT: Ollama response", "content_len", len(out.Content), "tool_calls", len(out.ToolCalls))
	return out, nil
}

// buildMessages converts the conversation to Ollama chat messages. Tool
// results become one role=tool message each.
func buildMessages(prompt agent.Prompt) []wireMessage {
	messages := make([]wireMessage, 0, len(prompt.Messages)+1)

	if sp := strings.TrimSpace(prompt.System); sp != "" {
		messages = append(messages, wireMessage{Role: "system", Content: sp})
	}

	for _, m := range prompt.Messages {
		switch m.Role {
		case "system":
			messages = append(messages, wireMessage{Role: "system", Content: m.Content.Join()})

		case "assistant":
			msg := wireMessage{Role: "assistant", Content: m.Content.Join()}
			for _, part := range m.Content {
				if part.Type == "tool_use" {
					msg.ToolCalls = append(msg.ToolCalls, wireToolCall{
						Function: wireFunctionCall{Name: part.ToolName, Arguments: part.Data},
					})
				}
			}
			messages = append(messages, msg)

		case "user":
			if text := m.Content.Join(); text != "" {
				messages = append(messages, wireMessage{Role: "user", Content: text})
			}
			for _, part := range m.Content {
				if part.Type != "tool_result" {
					continue
				}
				if strings.TrimSpace(part.ToolName) == "" {
					slog.Warn("LLM_CLIENT: dropping tool result without name")
					continue
				}
				data, err := json.Marshal(part.Data)
				if err != nil {
					data = []byte(fmt.Sprintf(`{"error": %q}`, err.Error()))
				}
				messages = append(messages, wireMessage{
					Role:     "tool",
					ToolName: part.ToolName,
					Content:  string(data),
				})
			}

		default:
			slog.Warn("LLM_CLIENT: unknown role, coercing to user", "role", m.Role)
			messages = append(messages, wireMessage{Role: "user", Content: m.Content.Join()})
		}
	}

	return messages
}

func buildTools(specs []agent.ToolSpec) []wireTool {
	out := make([]wireTool, 0, len(specs))
	for _, t := range specs {
		params := map[string]any{"type": "object"}
		if t.InputSchema != nil {
			b, err := json.Marshal(t.InputSchema)
			if err == nil {
				var m map[string]any
				if json.Unmarshal(b, &m) == nil && m != nil {
					params = m
				}
			}
		}
		out = append(out, wireTool{
			Type: "function",
			Function: wireFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out
}
