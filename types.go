package swapagent

import (
	"context"
	"net/http"

	"swapagent/food"
	"swapagent/tools"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type SlackClient interface {
	PostMessage(ctx context.Context, message string) error
}

type ToolProvider interface {
	GetTools() []tools.Tool
	GetTool(name string) (tools.Tool, error)
}

// SubstitutionSource produces substitutions for a recipe. The rule-based
// ranker and the tool-calling agent are interchangeable behind it.
type SubstitutionSource interface {
	Name() string
	Suggest(ctx context.Context, req food.SubstitutionRequest) (food.SubstitutionOutcome, error)
}
