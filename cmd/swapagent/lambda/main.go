package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"

	"swapagent"
	"swapagent/bootstrap"
	"swapagent/pipeline"
	"swapagent/slack"
)

type Results struct {
	Report *pipeline.Report `json:"report"`
}

func main() {
	fn := func(ctx context.Context, params pipeline.Request) (Results, error) {
		if params.RecipeName == "" {
			return Results{}, fmt.Errorf("recipe_name is required")
		}

		cfg, err := bootstrap.LoadConfig()
		if err != nil {
			slog.Error("SETUP: Failed to decode config", "error", err)
			return Results{}, err
		}

		tracerProvider, meterProvider, otelShutdown, err := swapagent.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return Results{}, err
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		app, err := bootstrap.Build(ctx, cfg, swapagent.NewStdoutCoordinationLogger(), bootstrap.Telemetry{
			Tracer: tracerProvider.Tracer(swapagent.TracerNameAgent),
			Meter:  meterProvider.Meter(swapagent.TracerNameAgent),
		})
		if err != nil {
			slog.Error("SETUP: Failed to build pipeline", "error", err)
			return Results{}, err
		}
		defer func() {
			if err := app.Close(); err != nil {
				slog.Error("SETUP: Failed to close resources", "error", err)
			}
		}()

		report, err := app.Coordinator.Analyze(ctx, params)
		if err != nil {
			slog.Error("FAILURE: Error analyzing recipe", "recipe", params.RecipeName, "error", err)
			return Results{}, err
		}
		slog.Info("RESULT: Analysis complete", "recipe", report.RecipeName, "source", report.SwapSource, "swaps", len(report.Swaps))

		if cfg.Slack.WebhookURL != "" {
			if err := slack.NewClient(cfg.Slack.WebhookURL, cfg.Slack.Channel, http.DefaultClient).PostReport(ctx, report); err != nil {
				slog.Error("RESULT: Failed to post report to Slack", "error", err)
			}
		}

		return Results{Report: report}, nil
	}

	lambda.Start(fn)
}
