package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DefaultLLMBaseURL is the Zhipu GLM chat-completions endpoint.
const DefaultLLMBaseURL = "https://open.bigmodel.cn/api/paas/v4/chat/completions"

// Config holds application configuration.
type Config struct {
	Env             string        `env:"ENV" envDefault:"dev"`
	Port            string        `env:"PORT" envDefault:"8080"`
	CORSAllowOrigin []string      `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	DBConnectMax    time.Duration `env:"DB_CONNECT_MAX_ELAPSED" envDefault:"30s"`
	ObjectStoreType string        `env:"OBJECT_STORE" envDefault:"local"`
	LocalStoreDir   string        `env:"LOCAL_STORE_DIR" envDefault:"./data/uploads"`
	AWSRegion       string        `env:"AWS_REGION"`
	S3Bucket        string        `env:"S3_BUCKET"`
	S3Prefix        string        `env:"S3_PREFIX" envDefault:"resumes/"`
	SSEKMSKeyID     string        `env:"SSE_KMS_KEY_ID"`

	UseMockAI    bool          `env:"USE_MOCK_AI" envDefault:"true"`
	LLMAPIKey    string        `env:"ZHIPU_API_KEY"`
	LLMBaseURL   string        `env:"LLM_BASE_URL" envDefault:"https://open.bigmodel.cn/api/paas/v4/chat/completions"`
	LLMModel     string        `env:"LLM_MODEL" envDefault:"glm-4.5"`
	LLMMaxTokens int           `env:"LLM_MAX_TOKENS" envDefault:"4000"`
	LLMTimeout   time.Duration `env:"LLM_TIMEOUT" envDefault:"120s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	MaxUploadBytes         int64 `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	RateLimitProcessPerMin int   `env:"RATE_LIMIT_PROCESS_PER_MIN" envDefault:"20"`

	PipelineWorkers int           `env:"PIPELINE_WORKERS" envDefault:"2"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ObjectStoreType = normalizeStoreType(cfg.ObjectStoreType)
	cfg.CORSAllowOrigin = splitAndTrim(cfg.CORSAllowOrigin)
	if strings.TrimSpace(cfg.LLMBaseURL) == "" {
		cfg.LLMBaseURL = DefaultLLMBaseURL
	}

	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required in production")
	}
	if !cfg.UseMockAI && strings.TrimSpace(cfg.LLMAPIKey) == "" {
		return Config{}, fmt.Errorf("ZHIPU_API_KEY is required when USE_MOCK_AI=false")
	}
	return cfg, nil
}

// IsDevLike reports whether in-memory fallbacks are acceptable.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

// loadEnvFiles loads KEY=VALUE pairs from the given files if they exist.
// Variables already present in the environment win.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		_ = godotenv.Load(path)
	}
}

func splitAndTrim(raw []string) []string {
	var out []string
	for _, p := range raw {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
