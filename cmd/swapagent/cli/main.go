package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"swapagent"
	"swapagent/bootstrap"
	"swapagent/pipeline"
	"swapagent/slack"
)

func main() {
	var (
		ingredients = flag.String("ingredients", "", "comma-separated ingredients; analyzes the recipe as given")
		allergens   = flag.String("allergens", "", "comma-separated allergens to avoid")
		avoid       = flag.String("avoid", "", "comma-separated ingredients to replace")
		dump        = flag.Bool("dump", false, "dump the full report instead of JSON")
		noOtel      = flag.Bool("no-otel", false, "skip OpenTelemetry exporters")
	)
	flag.Parse()

	ctx := context.Background()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	req := pipeline.Request{
		RecipeName:       argOr(0, "Shortbread"),
		Ingredients:      splitList(*ingredients),
		Allergens:        splitList(*allergens),
		AvoidIngredients: splitList(*avoid),
	}

	logger, cleanup, err := newCoordinationLogger(modelName(cfg), req.RecipeName)
	if err != nil {
		slog.Error("SETUP: Failed to create coordination logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("SETUP: Failed to flush coordination log", "error", err)
		}
	}()

	var tel bootstrap.Telemetry
	if !*noOtel {
		tracerProvider, meterProvider, otelShutdown, err := swapagent.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()
		tel = bootstrap.Telemetry{
			Tracer: tracerProvider.Tracer(swapagent.TracerNameAgent),
			Meter:  meterProvider.Meter(swapagent.TracerNameAgent),
		}

		var span trace.Span
		ctx, span = tracerProvider.Tracer(swapagent.TracerNamePipeline).Start(ctx, "swapagent.cli", trace.WithAttributes(
			attribute.String("recipe.name", req.RecipeName),
			attribute.Bool("agent.enabled", cfg.Agent.UseLLMAgent),
			attribute.String("agent.provider", cfg.Agent.LLMProvider),
		))
		defer span.End()
	}

	app, err := bootstrap.Build(ctx, cfg, logger, tel)
	if err != nil {
		slog.Error("SETUP: Failed to build pipeline", "error", err)
		return
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("SETUP: Failed to close resources", "error", err)
		}
	}()

	report, err := app.Coordinator.Analyze(ctx, req)
	if err != nil {
		slog.Error("FAILURE: Error analyzing recipe", "recipe", req.RecipeName, "error", err)
		return
	}

	slog.Info("RESULT: Analysis complete",
		"recipe", report.RecipeName,
		"source", report.SwapSource,
		"swaps", len(report.Swaps),
		"original_score", report.OriginalScore.Score,
		"improved_score", report.ImprovedScore.Score,
	)

	if *dump {
		swapagent.Dump(report)
	} else {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			slog.Error("RESULT: Failed to encode report", "error", err)
		}
	}

	if cfg.Slack.WebhookURL != "" {
		slackClient := slack.NewClient(cfg.Slack.WebhookURL, cfg.Slack.Channel, http.DefaultClient)
		if err := slackClient.PostReport(ctx, report); err != nil {
			slog.Error("RESULT: Failed to post report to Slack", "error", err)
		}
	}
}

func argOr(i int, def string) string {
	if flag.NArg() > i {
		return flag.Arg(i)
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func modelName(cfg bootstrap.Config) string {
	switch {
	case !cfg.Agent.UseLLMAgent:
		return "ranker"
	case cfg.Model.ModelID != "":
		return cfg.Model.ModelID
	}
	return cfg.Agent.LLMProvider
}

func newCoordinationLogger(model, recipe string) (swapagent.CoordinationLogger, func() error, error) {
	logFilePath := swapagent.NewCoordinationLogFilePath(model, recipe)
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := swapagent.NewFileCoordinationLogger(logFile, recipe)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
