// Package bootstrap builds a pipeline.Coordinator from environment config.
// The CLI and the Lambda handler share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"swapagent"
	"swapagent/agent"
	"swapagent/agent/bedrock"
	"swapagent/agent/gemini"
	"swapagent/agent/mock"
	"swapagent/agent/ollama"
	"swapagent/embedding"
	"swapagent/health"
	"swapagent/pipeline"
	"swapagent/provider"
	"swapagent/provider/cache"
	"swapagent/provider/cosylab"
	"swapagent/provider/flavordb"
	"swapagent/provider/local"
	"swapagent/provider/recipedb"
	"swapagent/provider/storage"
	"swapagent/swap"
	"swapagent/tools"
)

// Config is every env-decoded section the service reads. Model is only
// decoded when the agent is on and needs a model id.
type Config struct {
	Model    swapagent.ModelConfig
	Agent    swapagent.AgentConfig
	Ranker   swapagent.RankerConfig
	Provider swapagent.ProviderConfig
	Dataset  swapagent.DatasetConfig
	Slack    swapagent.SlackConfig
}

func LoadConfig() (Config, error) {
	var cfg Config
	for _, target := range []any{&cfg.Agent, &cfg.Ranker, &cfg.Provider, &cfg.Dataset, &cfg.Slack} {
		if err := envdecode.Decode(target); err != nil {
			return Config{}, fmt.Errorf("failed to decode %T: %w", target, err)
		}
	}
	if cfg.Agent.UseLLMAgent && cfg.Agent.LLMProvider != "mock" {
		if err := envdecode.Decode(&cfg.Model); err != nil {
			return Config{}, fmt.Errorf("failed to decode %T: %w", &cfg.Model, err)
		}
	}
	return cfg, nil
}

// Telemetry is optional. Without a meter the plain orchestrator is used.
type Telemetry struct {
	Tracer trace.Tracer
	Meter  metric.Meter
}

// App owns the coordinator and everything that must be closed with it.
type App struct {
	Coordinator *pipeline.Coordinator
	closers     []func() error
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

type dataSources struct {
	flavor  provider.FlavorLookup
	recipes provider.Recipes
}

// Build wires providers, caches, the ranker and, when enabled, the agent.
func Build(ctx context.Context, cfg Config, logger swapagent.CoordinationLogger, tel Telemetry) (*App, error) {
	app := &App{}

	c := newCache(cfg.Provider)
	src, err := app.newSources(ctx, cfg, c)
	if err != nil {
		return nil, errors.Join(err, app.Close())
	}

	var embedder embedding.Embedder
	if cfg.Ranker.UseSemanticRerank && cfg.Agent.GeminiAPIKey != "" {
		ge, err := embedding.NewGeminiEmbedder(ctx, cfg.Agent.GeminiAPIKey, cfg.Ranker.EmbeddingModel)
		if err != nil {
			slog.Warn("SETUP: Semantic re-ranking disabled", "error", err)
		} else {
			app.closers = append(app.closers, ge.Close)
			embedder = embedding.NewCachedEmbedder(ge, c)
		}
	}

	ranker := swap.NewRanker(src.flavor, embedder, swap.NewWeights(cfg.Ranker.SemanticWeight, cfg.Ranker.UseSemanticRerank))
	slog.Info("SETUP: Ranker ready", "weights", ranker.Weights(), "semantic", embedder != nil)

	var agentSource swapagent.SubstitutionSource
	if cfg.Agent.UseLLMAgent {
		llm, err := app.newLLM(ctx, cfg)
		if err != nil {
			return nil, errors.Join(err, app.Close())
		}
		registry := tools.NewRegistry(src.flavor, src.recipes)

		var runner agent.Runner
		if tel.Meter != nil {
			runner = agent.NewInstrumentedOrchestrator(llm, registry, cfg.Agent.MaxIterations, logger, tel.Tracer, tel.Meter)
		} else {
			runner = agent.NewOrchestrator(llm, registry, cfg.Agent.MaxIterations, logger)
		}
		agentSource = agent.NewSource(runner)
		slog.Info("SETUP: Agent enabled", "provider", cfg.Agent.LLMProvider, "tools", len(registry.GetTools()))
	}

	app.Coordinator = pipeline.NewCoordinator(src.recipes, health.NewScorer(), swap.NewSource(ranker), agentSource)
	return app, nil
}

func newCache(cfg swapagent.ProviderConfig) cache.Cache {
	if cfg.RedisAddr != "" {
		slog.Info("SETUP: Using Redis cache", "addr", cfg.RedisAddr, "prefix", cfg.RedisPrefix)
		return cache.NewRedisFromAddr(cfg.RedisAddr, cfg.RedisPrefix, cfg.CacheTTL)
	}
	slog.Info("SETUP: Using in-process cache", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
	return cache.NewLRU(cfg.CacheSize, cfg.CacheTTL)
}

// newSources talks to the CosyLab APIs when an API key is configured and
// serves the offline dataset otherwise.
func (a *App) newSources(ctx context.Context, cfg Config, c cache.Cache) (dataSources, error) {
	if cfg.Provider.APIKey != "" {
		opts := cosylab.Options{
			APIKey:            cfg.Provider.APIKey,
			Timeout:           cfg.Provider.Timeout,
			MaxRetries:        cfg.Provider.MaxRetries,
			RetryDelay:        cfg.Provider.RetryDelay,
			RequestsPerSecond: cfg.Provider.RequestsPerSecond,
		}
		fc := cosylab.NewClient("flavordb", cfg.Provider.FlavorDBBaseURL, http.DefaultClient, opts)
		rc := cosylab.NewClient("recipedb", cfg.Provider.RecipeDBBaseURL, http.DefaultClient, opts)
		slog.Info("SETUP: Using CosyLab APIs", "flavordb", cfg.Provider.FlavorDBBaseURL, "recipedb", cfg.Provider.RecipeDBBaseURL)
		return dataSources{flavor: flavordb.NewClient(fc, c), recipes: recipedb.NewClient(rc, c)}, nil
	}

	var ds storage.Dataset
	if cfg.Dataset.UseS3() {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return dataSources{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		ds = storage.NewS3Dataset(s3.NewFromConfig(awsCfg), cfg.Dataset.S3Bucket, cfg.Dataset.S3Key)
		slog.Info("SETUP: Loading dataset from S3", "bucket", cfg.Dataset.S3Bucket, "key", cfg.Dataset.S3Key)
	} else {
		ds = storage.NewFileDataset(cfg.Dataset.Path)
		slog.Info("SETUP: Loading dataset from file", "path", cfg.Dataset.Path)
	}

	store, err := local.NewFromDataset(ctx, cfg.Dataset.SQLiteDSN, ds)
	if err != nil {
		return dataSources{}, fmt.Errorf("failed to open local store: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	return dataSources{flavor: store, recipes: store}, nil
}

func (a *App) newLLM(ctx context.Context, cfg Config) (agent.LLM, error) {
	switch cfg.Agent.LLMProvider {
	case "bedrock":
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return bedrock.NewLLMClient(bedrockruntime.NewFromConfig(awsCfg), bedrock.LLMOptions{
			ModelID:     cfg.Model.ModelID,
			MaxTokens:   cfg.Model.MaxTokens,
			Temperature: cfg.Model.Temperature,
			TopP:        cfg.Model.TopP,
		}), nil

	case "ollama":
		return ollama.NewClient(ollama.ClientOpts{
			BaseEndpoint: cfg.Agent.BaseOllamaEndpoint,
			ModelID:      cfg.Model.ModelID,
			HTTPClient:   http.DefaultClient,
		})

	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.Agent.GeminiAPIKey, cfg.Model.ModelID)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return client, nil

	case "mock":
		return mock.NewLLMClient(), nil
	}
	return nil, fmt.Errorf("unknown LLM provider %q", cfg.Agent.LLMProvider)
}
