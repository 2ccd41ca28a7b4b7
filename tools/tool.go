// Package tools exposes the flavor and recipe data providers to the agent as
// callable tools with JSON schemas.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

type Tool interface {
	Name() string
	Title() string
	Description() string
	InputSchema() *jsonschema.Schema
	OutputSchema() *jsonschema.Schema
	Run(ctx context.Context, input map[string]any) (output map[string]any, err error)
}

type Call struct {
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
}

var (
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidArgument = errors.New("invalid argument")
)

// stringArg reads a required string. LLM backends may hand back numbers for
// IDs, so those are formatted rather than rejected.
func stringArg(input map[string]any, key string) (string, error) {
	v, ok := input[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case json.Number:
		s = t.String()
	default:
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArgument, key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}
	return s, nil
}

func numberArg(input map[string]any, key string) (float64, error) {
	v, ok := input[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidArgument, key)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidArgument, key)
}

func intArg(input map[string]any, key string) (int, error) {
	f, err := numberArg(input, key)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// toMap converts a typed result into the generic shape tool results travel in.
func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return out, nil
}

// wrap places a list result under key, keeping nil slices as empty arrays.
func wrap[T any](key string, items []T) (map[string]any, error) {
	if items == nil {
		items = []T{}
	}
	return toMap(map[string]any{key: items})
}

func stringProp(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func objectSchema(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

func listSchema(key string) *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{
		key: {
			Type:  "array",
			Items: &jsonschema.Schema{Type: "object"},
		},
	}, key)
}
