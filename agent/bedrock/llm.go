// Package bedrock is the agent.LLM backend for the Amazon Bedrock Converse API.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"swapagent/agent"
	"swapagent/tools"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	// The final answer carries reasoning for every substitution, so it needs
	// more room than a single tool call.
	defaultMaxTokens = 4096

	defaultTemperature = 0.3

	defaultTopP = 0.9
)

var (
	ErrMaxTokens = errors.New("model hit MaxTokens limit; consider increasing MaxTokens")
	ErrFiltered  = errors.New("model response blocked by Bedrock safety filters")
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type LLMOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type LLMClient struct {
	brc  bedrockRuntimeClient
	opts LLMOptions
}

var _ agent.LLM = (*LLMClient)(nil)

func NewLLMClient(brc bedrockRuntimeClient, opts LLMOptions) *LLMClient {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &LLMClient{
		brc:  brc,
		opts: opts,
	}
}

// Invoke sends the whole conversation to Converse. A temperature set on the
// prompt overrides the client option.
func (c *LLMClient) Invoke(ctx context.Context, prompt agent.Prompt) (agent.Response, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(prompt.Messages), "tools_len", len(prompt.Tools))

	var sys []types.SystemContentBlock
	if prompt.System != "" {
		sys = append(sys, &types.SystemContentBlockMemberText{Value: prompt.System})
	}

	msgs := make([]types.Message, 0, len(prompt.Messages))
	for _, m := range prompt.Messages {
		if m.Role == "system" {
			sys = append(sys, &types.SystemContentBlockMemberText{Value: m.Content.Join()})
			continue
		}
		msgs = append(msgs, buildMessage(m))
	}

	var toolList []types.Tool
	for _, t := range prompt.Tools {
		spec, err := buildToolSpec(t)
		if err != nil {
			slog.Error("LLM_CLIENT: Failed to build tool spec", "error", err)
			continue
		}
		toolList = append(toolList, &types.ToolMemberToolSpec{Value: spec})
	}

	temperature := c.opts.Temperature
	if prompt.Temperature > 0 {
		temperature = prompt.Temperature
	}

	in := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(c.opts.ModelID),
		System:   sys,
		Messages: msgs,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(c.opts.MaxTokens),
			Temperature: aws.Float32(temperature),
			TopP:        aws.Float32(c.opts.TopP),
		},
	}
	if len(toolList) > 0 {
		in.ToolConfig = &types.ToolConfiguration{Tools: toolList, ToolChoice: &types.ToolChoiceMemberAuto{}}
	}

	out, err := c.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("LLM_CLIENT: Bedrock invoke failed", "error", err, "model", c.opts.ModelID)
		return agent.Response{}, fmt.Errorf("bedrock converse: %w", err)
	}

	attrs := []any{"stop_reason", out.StopReason}
	if out.Metrics != nil {
		attrs = append(attrs, "latency_ms", aws.ToInt64(out.Metrics.LatencyMs))
	}
	if out.Usage != nil {
		attrs = append(attrs,
			"input_tokens", aws.ToInt32(out.Usage.InputTokens),
			"output_tokens", aws.ToInt32(out.Usage.OutputTokens),
		)
	}
	slog.Info("LLM_CLIENT: Bedrock invoke succeeded", attrs...)

	switch out.StopReason {
	case types.StopReasonToolUse:
		text, _ := textFromOutput(out)
		calls, err := toolCallsFromOutput(out)
		if err != nil {
			return agent.Response{}, fmt.Errorf("failed to parse tool calls: %w", err)
		}
		slog.Info("LLM_CLIENT: Extracted tool calls", "calls_len", len(calls))
		return agent.Response{Content: text, ToolCalls: calls}, nil

	case types.StopReasonEndTurn, types.StopReasonStopSequence:
		text, err := textFromOutput(out)
		if err != nil {
			return agent.Response{}, fmt.Errorf("failed to extract final text: %w", err)
		}
		slog.Info("LLM_CLIENT: Extracted final text", "text_len", len(text))
		return agent.Response{Content: text}, nil

	case types.StopReasonMaxTokens:
		slog.Warn("LLM_CLIENT: Model hit MaxTokens limit", "max_tokens", c.opts.MaxTokens)
		return agent.Response{}, ErrMaxTokens

	case types.StopReasonGuardrailIntervened, types.StopReasonContentFiltered:
		slog.Warn("LLM_CLIENT: Model response blocked by Bedrock safety filters")
		return agent.Response{}, ErrFiltered

	default:
		text, err := textFromOutput(out)
		if err != nil {
			return agent.Response{}, fmt.Errorf("failed to extract text: %w", err)
		}
		calls, err := toolCallsFromOutput(out)
		if err != nil {
			return agent.Response{}, fmt.Errorf("failed to parse tool calls: %w", err)
		}
		return agent.Response{Content: text, ToolCalls: calls}, nil
	}
}

func buildMessage(m agent.Message) types.Message {
	msg := types.Message{Role: types.ConversationRole(m.Role)}

	for _, part := range m.Content {
		switch part.Type {
		case "text":
			if part.Text == "" {
				continue
			}
			msg.Content = append(msg.Content, &types.ContentBlockMemberText{Value: part.Text})

		case "tool_use":
			msg.Content = append(msg.Content, &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
				ToolUseId: aws.String(part.ToolUseID),
				Name:      aws.String(part.ToolName),
				Input:     document.NewLazyDocument(plain(part.Data)),
			}})

		case "tool_result":
			status := types.ToolResultStatusSuccess
			if _, failed := part.Data["error"]; failed {
				status = types.ToolResultStatusError
			}
			msg.Content = append(msg.Content, &types.ContentBlockMemberToolResult{Value: types.ToolResultBlock{
				ToolUseId: aws.String(part.ToolUseID),
				Status:    status,
				Content: []types.ToolResultContentBlock{
					&types.ToolResultContentBlockMemberJson{Value: document.NewLazyDocument(plain(part.Data))},
				},
			}})
		}
	}
	return msg
}

// plain round-trips data through JSON so the document encoder only sees
// maps, slices and scalars. Tool outputs may hold typed structs.
func plain(data map[string]any) map[string]any {
	out := map[string]any{}
	if data == nil {
		return out
	}
	b, err := json.Marshal(data)
	if err != nil {
		slog.Error("LLM_CLIENT: Failed to encode message data", "error", err)
		return out
	}
	if err := json.Unmarshal(b, &out); err != nil {
		slog.Error("LLM_CLIENT: Failed to decode message data", "error", err)
	}
	return out
}

// buildToolSpec constructs a ToolSpecification for a tool. The schema goes
// through JSON so the document encoder sees the schema's own field names.
func buildToolSpec(t agent.ToolSpec) (types.ToolSpecification, error) {
	schemaJSON, err := json.Marshal(t.InputSchema)
	if err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to marshal tool schema for %s: %w", t.Name, err)
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to unmarshal tool schema for %s: %w", t.Name, err)
	}
	if schemaMap == nil {
		schemaMap = map[string]any{"type": "object"}
	}

	return types.ToolSpecification{
		Name:        aws.String(t.Name),
		Description: aws.String(t.Description),
		InputSchema: &types.ToolInputSchemaMemberJson{
			Value: document.NewLazyDocument(schemaMap),
		},
	}, nil
}

// textFromOutput returns assistant text optimized for agent use:
// 1) If any text block looks like a single JSON object, return the last such block.
// 2) Else, if there's only one text block, return it.
// 3) Else, join all text blocks with '\n'.
func textFromOutput(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil || out.Output == nil {
		return "", nil
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil || len(msg.Value.Content) == 0 {
		return "", nil
	}

	texts := make([]string, 0, len(msg.Value.Content))
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}
	if len(texts) == 0 {
		return "", nil
	}

	for i := len(texts) - 1; i >= 0; i-- {
		s := strings.TrimSpace(texts[i])
		if len(s) > 1 && s[0] == '{' && s[len(s)-1] == '}' {
			return s, nil
		}
	}

	return strings.Join(texts, "\n"), nil
}

// toolCallsFromOutput extracts tool uses emitted by the assistant.
func toolCallsFromOutput(out *bedrockruntime.ConverseOutput) ([]tools.Call, error) {
	var calls []tools.Call

	if out == nil {
		return calls, nil
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil || msg.Value.Content == nil {
		return calls, nil
	}

	for _, cb := range msg.Value.Content {
		tu, ok := cb.(*types.ContentBlockMemberToolUse)
		if !ok || tu == nil {
			continue
		}

		var input map[string]any
		if tu.Value.Input == nil || tu.Value.Input.UnmarshalSmithyDocument(&input) != nil || input == nil {
			input = map[string]any{}
		}

		calls = append(calls, tools.Call{
			Name:      aws.ToString(tu.Value.Name),
			Input:     normalizeInput(input).(map[string]any),
			ToolUseID: aws.ToString(tu.Value.ToolUseId),
		})
	}

	return calls, nil
}

type floater interface {
	Float64() (float64, error)
}

// normalizeInput recursively coerces decoded document values: whole numbers
// become ints and stringified arrays or objects are decoded.
func normalizeInput(val any) any {
	switch v := val.(type) {
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
		return v

	case floater:
		f, err := v.Float64()
		if err != nil {
			return v
		}
		return normalizeInput(f)

	case string:
		s := strings.TrimSpace(v)
		if s == "" || (s[0] != '[' && s[0] != '{') {
			return v
		}
		var decoded any
		if json.Unmarshal([]byte(s), &decoded) == nil {
			return normalizeInput(decoded)
		}
		return v

	case []any:
		for i := range v {
			v[i] = normalizeInput(v[i])
		}
		return v

	case map[string]any:
		for key, val := range v {
			v[key] = normalizeInput(val)
		}
		return v

	default:
		return v
	}
}
