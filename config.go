package swapagent

import "time"

type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID,required"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=4096"`
	Temperature float32 `env:"TEMPERATURE,default=0.3"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type AgentConfig struct {
	MaxIterations      int    `env:"MAX_ITERATIONS,default=25"`
	LLMProvider        string `env:"LLM_PROVIDER,default=bedrock"`
	UseLLMAgent        bool   `env:"USE_LLM_AGENT,default=false"`
	BaseOllamaEndpoint string `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
	GeminiAPIKey       string `env:"GEMINI_API_KEY"`
}

type RankerConfig struct {
	UseSemanticRerank bool    `env:"USE_SEMANTIC_RERANK,default=true"`
	SemanticWeight    float64 `env:"SEMANTIC_WEIGHT,default=0.1"`
	EmbeddingModel    string  `env:"EMBEDDING_MODEL,default=text-embedding-004"`
}

type ProviderConfig struct {
	FlavorDBBaseURL   string        `env:"FLAVORDB_BASE_URL,default=https://cosylab.iiitd.edu.in/flavordb"`
	RecipeDBBaseURL   string        `env:"RECIPEDB_BASE_URL,default=https://cosylab.iiitd.edu.in/recipedb/search_recipedb"`
	APIKey            string        `env:"COSYLAB_API_KEY"`
	Timeout           time.Duration `env:"API_TIMEOUT,default=10s"`
	MaxRetries        int           `env:"MAX_RETRIES,default=3"`
	RetryDelay        time.Duration `env:"RETRY_DELAY,default=1s"`
	RequestsPerSecond float64       `env:"REQUESTS_PER_SECOND,default=5"`
	CacheSize         int           `env:"CACHE_SIZE,default=500"`
	CacheTTL          time.Duration `env:"CACHE_TTL,default=1h"`
	RedisAddr         string        `env:"REDIS_ADDR"`
	RedisPrefix       string        `env:"REDIS_PREFIX,default=swapagent:"`
}

// DatasetConfig locates the offline snapshot used by the local provider.
// The S3 location wins when both bucket and key are set.
type DatasetConfig struct {
	Path      string `env:"DATASET_PATH,default=artifacts/cosylab.json"`
	S3Bucket  string `env:"DATASET_S3_BUCKET"`
	S3Key     string `env:"DATASET_S3_KEY"`
	SQLiteDSN string `env:"SQLITE_DSN,default=file::memory:?cache=shared"`
}

// UseS3 reports whether the dataset should be read from S3.
func (c DatasetConfig) UseS3() bool {
	return c.S3Bucket != "" && c.S3Key != ""
}

// SlackConfig is optional; reports are only posted when a webhook is set.
type SlackConfig struct {
	WebhookURL string `env:"SLACK_WEBHOOK_URL"`
	Channel    string `env:"SLACK_CHANNEL,default=#recipes"`
}
