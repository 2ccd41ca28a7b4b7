package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"swapagent"
	"swapagent/tools"
)

const (
	// DefaultMaxIterations matches the MAX_ITERATIONS default in AgentConfig.
	DefaultMaxIterations = 25

	maxIterationsReasoning = "Agent reached maximum iteration limit"
	emptyResponseReasoning = "Model returned an empty response; no final answer was produced"
	toolFailureNote        = "API call failed. Proceed with available data and lower confidence."
)

// observer receives timing for each model turn and tool dispatch. The plain
// orchestrator uses a no-op; the instrumented one records metrics.
type observer interface {
	invoked(ctx context.Context, elapsed time.Duration, err error)
	dispatched(ctx context.Context, tool string, elapsed time.Duration, failed bool)
}

type nopObserver struct{}

func (nopObserver) invoked(context.Context, time.Duration, error) {}
func (nopObserver) dispatched(context.Context, string, time.Duration, bool) {}

// Orchestrator drives the model through tool calls until it produces a final
// substitution answer or a terminal condition is hit.
type Orchestrator struct {
	llm           LLM
	toolProvider  swapagent.ToolProvider
	maxIterations int
	logger        swapagent.CoordinationLogger
	tracer        trace.Tracer
	observer      observer
}

// NewOrchestrator initializes a new orchestrator. A non-positive
// maxIterations falls back to DefaultMaxIterations.
func NewOrchestrator(llm LLM, toolRegistry swapagent.ToolProvider, maxIterations int, logger swapagent.CoordinationLogger) *Orchestrator {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if logger == nil {
		logger = swapagent.NewNoOpCoordinationLogger()
	}
	return &Orchestrator{
		llm:           llm,
		toolProvider:  toolRegistry,
		maxIterations: maxIterations,
		logger:        logger,
		tracer:        otel.Tracer(swapagent.TracerNameAgent),
		observer:      nopObserver{},
	}
}

// Run executes one agent run for req. It always returns a result; failures
// are reported through DataCompleteness and Termination.
func (o *Orchestrator) Run(ctx context.Context, req Request) *Result {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.Run", trace.WithAttributes(
		attribute.String("recipe.name", req.RecipeName),
		attribute.Int("recipe.ingredients", len(req.Ingredients)),
	))
	defer span.End()

	slog.Info("COORDINATOR: Starting run", "recipe", req.RecipeName, "ingredients", len(req.Ingredients), "max_iterations", o.maxIterations)

	prompt := NewPrompt(req, o.toolProvider)
	m := newMachine(o.maxIterations)
	apis := []string{}

	var result *Result
	for result == nil && m.next() {
		result = o.turn(ctx, m, &prompt, &apis)
	}

	if result == nil {
		slog.Warn("COORDINATOR: Maximum iterations reached", "iterations", m.iteration)
		result = newResult(CompletenessPartial, maxIterationsReasoning, apis, m.iteration, m.termination)
	}

	span.SetAttributes(
		attribute.String("agent.termination", result.Termination.String()),
		attribute.String("agent.data_completeness", string(result.DataCompleteness)),
		attribute.Int("agent.iterations", result.Iterations),
		attribute.Int("agent.substitutions", len(result.Substitutions)),
	)
	if result.DataCompleteness == CompletenessParseError {
		span.SetStatus(codes.Error, result.Termination.String())
	}

	slog.Info("COORDINATOR: Run finished",
		"termination", result.Termination.String(),
		"completeness", result.DataCompleteness,
		"substitutions", len(result.Substitutions),
		"apis_called", len(result.APIsCalled),
		"iterations", result.Iterations,
	)
	return result
}

// turn runs one model invocation. It returns a non-nil result when the run
// has reached a terminal state.
func (o *Orchestrator) turn(ctx context.Context, m *machine, prompt *Prompt, apis *[]string) *Result {
	ctx, span := o.tracer.Start(ctx, fmt.Sprintf("Orchestrator.Iteration.%d", m.iteration))
	defer span.End()

	iterLog := swapagent.IterationLog{Iteration: m.iteration, Timestamp: time.Now(), State: m.state.String()}

	if b, err := json.Marshal(prompt); err == nil {
		iterLog.LLMInput = string(b)
		slog.Info("COORDINATOR: Sending prompt to LLM",
			"iteration", m.iteration,
			"messages_count", len(prompt.Messages),
			"tools_count", len(prompt.Tools),
			"prompt_size_bytes", len(b),
		)
	}

	start := time.Now()
	res, err := o.llm.Invoke(ctx, *prompt)
	o.observer.invoked(ctx, time.Since(start), err)
	if err != nil {
		slog.Error("COORDINATOR: LLM invocation failed", "iteration", m.iteration, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invoke failed")
		m.finish(TerminationProviderError)
		iterLog.Error = err.Error()
		o.logIteration(iterLog, m)
		return newResult(CompletenessParseError, "LLM API error: "+err.Error(), *apis, m.iteration, m.termination)
	}
	iterLog.LLMOutput = res

	slog.Info("COORDINATOR: LLM response received",
		"iteration", m.iteration,
		"content_length", len(res.Content),
		"tool_calls", len(res.ToolCalls),
	)

	if len(res.ToolCalls) == 0 {
		if strings.TrimSpace(res.Content) == "" {
			slog.Warn("COORDINATOR: Empty response from model", "iteration", m.iteration)
			m.finish(TerminationEmptyResponse)
			o.logIteration(iterLog, m)
			return newResult(CompletenessPartial, emptyResponseReasoning, *apis, m.iteration, m.termination)
		}

		m.finalize()
		slog.Info("COORDINATOR: No tool calls; parsing final answer", "iteration", m.iteration, "content_length", len(res.Content))
		result := parseResult(res.Content, *apis, m.iteration)
		m.finish(result.Termination)
		o.logIteration(iterLog, m)
		return result
	}

	m.toolCalls()
	span.SetAttributes(attribute.Int("agent.tool_calls", len(res.ToolCalls)))

	assistantMsg := Message{Role: "assistant", Content: MessageParts{}}
	if res.Content != "" {
		assistantMsg.Content = append(assistantMsg.Content, MessagePart{Type: "text", Text: res.Content})
	}

	calls := make([]tools.Call, len(res.ToolCalls))
	for i, call := range res.ToolCalls {
		if call.ToolUseID == "" {
			call.ToolUseID = fmt.Sprintf("call_%d_%d", m.iteration, i)
		}
		if call.Input == nil {
			call.Input = map[string]any{}
		}
		calls[i] = call
		assistantMsg.Content = append(assistantMsg.Content, MessagePart{
			Type:      "tool_use",
			ToolUseID: call.ToolUseID,
			ToolName:  call.Name,
			Data:      call.Input,
		})
	}
	prompt.Messages = append(prompt.Messages, assistantMsg)

	var toolCallLogs []swapagent.ToolCallLog
	var toolResults []ToolResult
	for _, call := range calls {
		slog.Info("COORDINATOR: Handling tool call", "name", call.Name, "iteration", m.iteration)
		*apis = append(*apis, call.Name)

		out, err := o.dispatch(ctx, call)
		tlog := swapagent.ToolCallLog{Name: call.Name, Input: call.Input, Output: out}
		if err != nil {
			tlog.Error = err.Error()
		}
		toolCallLogs = append(toolCallLogs, tlog)
		toolResults = append(toolResults, ToolResult{
			ToolUseID: call.ToolUseID,
			ToolName:  call.Name,
			Data:      out,
		})
	}
	prompt.Messages = append(prompt.Messages, NewToolResultMessage(toolResults))

	iterLog.ToolCalls = toolCallLogs
	o.logIteration(iterLog, m)
	return nil
}

// dispatch runs a single tool call. Failures never abort the run: they are
// turned into an error payload the model can read and work around.
func (o *Orchestrator) dispatch(ctx context.Context, call tools.Call) (map[string]any, error) {
	tool, err := o.toolProvider.GetTool(call.Name)
	if err != nil {
		slog.Warn("COORDINATOR: Unknown tool requested", "name", call.Name)
		o.observer.dispatched(ctx, call.Name, 0, true)
		return map[string]any{"error": "Unknown tool: " + call.Name}, err
	}

	start := time.Now()
	out, err := tool.Run(ctx, call.Input)
	o.observer.dispatched(ctx, call.Name, time.Since(start), err != nil)
	if err != nil {
		slog.Warn("COORDINATOR: Tool call failed", "name", call.Name, "error", err)
		return map[string]any{"error": err.Error(), "note": toolFailureNote}, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func (o *Orchestrator) logIteration(iterLog swapagent.IterationLog, m *machine) {
	iterLog.State = m.state.String()
	if m.done() {
		iterLog.Termination = m.termination.String()
	}
	if err := o.logger.LogIteration(iterLog); err != nil {
		slog.Warn("COORDINATOR: Failed to log iteration", "iteration", iterLog.Iteration, "error", err)
	}
}
