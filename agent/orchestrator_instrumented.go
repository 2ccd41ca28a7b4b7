package agent

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"swapagent"
)

// InstrumentedOrchestrator is an Orchestrator that records run, model and
// tool metrics on meter.
type InstrumentedOrchestrator struct {
	*Orchestrator
	metrics *agentMetrics
}

type agentMetrics struct {
	runs            metric.Int64Counter
	terminations    metric.Int64Counter
	iterations      metric.Int64Counter
	toolCalls       metric.Int64Counter
	toolCallsFailed metric.Int64Counter
	llmErrors       metric.Int64Counter

	runDuration  metric.Float64Histogram
	llmLatency   metric.Float64Histogram
	toolDuration metric.Float64Histogram

	toolsAvailable metric.Int64Gauge
	substitutions  metric.Int64Gauge
	confidence     metric.Float64Gauge
}

// NewInstrumentedOrchestrator initializes a new instrumented orchestrator.
func NewInstrumentedOrchestrator(llm LLM, toolRegistry swapagent.ToolProvider, maxIterations int, logger swapagent.CoordinationLogger, tracer trace.Tracer, meter metric.Meter) *InstrumentedOrchestrator {
	o := NewOrchestrator(llm, toolRegistry, maxIterations, logger)
	if tracer != nil {
		o.tracer = tracer
	}

	m := &agentMetrics{}
	m.runs, _ = meter.Int64Counter("agent_runs_total",
		metric.WithDescription("Total number of agent runs started"))
	m.terminations, _ = meter.Int64Counter("agent_terminations_total",
		metric.WithDescription("Agent runs by termination reason"))
	m.iterations, _ = meter.Int64Counter("agent_iterations_total",
		metric.WithDescription("Total number of model turns"))
	m.toolCalls, _ = meter.Int64Counter("tool_calls_total",
		metric.WithDescription("Total number of tool calls executed"))
	m.toolCallsFailed, _ = meter.Int64Counter("tool_calls_failed_total",
		metric.WithDescription("Total number of tool calls that failed"))
	m.llmErrors, _ = meter.Int64Counter("llm_errors_total",
		metric.WithDescription("Total number of failed model invocations"))

	m.runDuration, _ = meter.Float64Histogram("agent_run_duration_seconds",
		metric.WithDescription("Total duration of an agent run in seconds"))
	m.llmLatency, _ = meter.Float64Histogram("llm_response_time_seconds",
		metric.WithDescription("Time taken to receive response from LLM in seconds"))
	m.toolDuration, _ = meter.Float64Histogram("tool_execution_time_seconds",
		metric.WithDescription("Time taken to execute individual tools in seconds"))

	m.toolsAvailable, _ = meter.Int64Gauge("tools_available_count",
		metric.WithDescription("Number of tools available to the agent"))
	m.substitutions, _ = meter.Int64Gauge("agent_substitutions_count",
		metric.WithDescription("Number of substitutions in the latest result"))
	m.confidence, _ = meter.Float64Gauge("agent_overall_confidence",
		metric.WithDescription("Overall confidence of the latest result"))

	o.observer = m
	return &InstrumentedOrchestrator{Orchestrator: o, metrics: m}
}

// Run executes the agent with full instrumentation.
func (c *InstrumentedOrchestrator) Run(ctx context.Context, req Request) *Result {
	slog.Info("COORDINATOR: Starting instrumented run", "recipe", req.RecipeName)

	c.metrics.runs.Add(ctx, 1)
	c.metrics.toolsAvailable.Record(ctx, int64(len(c.toolProvider.GetTools())))

	start := time.Now()
	result := c.Orchestrator.Run(ctx, req)

	termination := metric.WithAttributes(attribute.String("termination", result.Termination.String()))
	c.metrics.runDuration.Record(ctx, time.Since(start).Seconds(), termination)
	c.metrics.terminations.Add(ctx, 1, termination)
	c.metrics.iterations.Add(ctx, int64(result.Iterations))
	c.metrics.substitutions.Record(ctx, int64(len(result.Substitutions)))
	c.metrics.confidence.Record(ctx, result.OverallConfidence)

	return result
}

func (m *agentMetrics) invoked(ctx context.Context, elapsed time.Duration, err error) {
	m.llmLatency.Record(ctx, elapsed.Seconds())
	if err != nil {
		m.llmErrors.Add(ctx, 1)
	}
}

func (m *agentMetrics) dispatched(ctx context.Context, tool string, elapsed time.Duration, failed bool) {
	name := metric.WithAttributes(attribute.String("tool_name", tool))
	m.toolCalls.Add(ctx, 1, name)
	m.toolDuration.Record(ctx, elapsed.Seconds(), name)
	if failed {
		m.toolCallsFailed.Add(ctx, 1, name)
	}
}
