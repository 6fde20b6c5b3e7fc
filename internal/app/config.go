package app

import (
	"strings"
	"time"

	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
	"github.com/yungbote/examiner-backend/internal/utils"
)

type ReasoningConfig struct {
	Provider              string
	APIKey                string
	BaseURL               string
	Model                 string
	Timeout               time.Duration
	MaxAttempts           int
	RetryBase             time.Duration
	RetryMax              time.Duration
	MaxConcurrency        int
	RatePerSecond         float64
	ExtractionTemperature float64
	GradingTemperature    float64
	MaxTokens             int
}

type Config struct {
	Port            string
	Environment     string
	ServiceName     string
	AllowedOrigins  []string
	RequestTimeout  time.Duration
	Reasoning       ReasoningConfig
	DefaultStrategy types.Strategy
	BatchParallel   int
	FlightTimeout   time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	InflightTTL     time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	provider := strings.ToLower(utils.GetEnv("REASONING_PROVIDER", "openai", log))
	keyVar := "OPENAI_API_KEY"
	if provider == "github" {
		keyVar = "GITHUB_TOKEN"
	}

	strategy, ok := types.ParseStrategy(utils.GetEnv("GRADING_DEFAULT_STRATEGY", string(types.StrategyChainOfThought), log))
	if !ok {
		log.Warn("Unknown GRADING_DEFAULT_STRATEGY, using chain_of_thought")
		strategy = types.StrategyChainOfThought
	}

	return Config{
		Port:           utils.GetEnv("PORT", "8080", log),
		Environment:    utils.GetEnv("ENVIRONMENT", "development", log),
		ServiceName:    utils.GetEnv("OTEL_SERVICE_NAME", "examiner-backend", log),
		AllowedOrigins: splitList(utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log)),
		RequestTimeout: utils.GetEnvAsSeconds("HTTP_REQUEST_TIMEOUT_SECONDS", 5*time.Minute, log),
		Reasoning: ReasoningConfig{
			Provider:              provider,
			APIKey:                utils.GetEnv(keyVar, "", nil),
			BaseURL:               utils.GetEnv("REASONING_BASE_URL", "", log),
			Model:                 utils.GetEnv("REASONING_MODEL", "gpt-4o-mini", log),
			Timeout:               utils.GetEnvAsSeconds("REASONING_TIMEOUT_SECONDS", 60*time.Second, log),
			MaxAttempts:           atLeastOne("REASONING_MAX_ATTEMPTS", utils.GetEnvAsInt("REASONING_MAX_ATTEMPTS", 3, log), log),
			RetryBase:             utils.GetEnvAsSeconds("REASONING_RETRY_BASE_SECONDS", 4*time.Second, log),
			RetryMax:              utils.GetEnvAsSeconds("REASONING_RETRY_MAX_SECONDS", 10*time.Second, log),
			MaxConcurrency:        utils.GetEnvAsInt("REASONING_MAX_CONCURRENCY", 8, log),
			RatePerSecond:         utils.GetEnvAsFloat("REASONING_RATE_PER_SECOND", 0, log),
			ExtractionTemperature: utils.GetEnvAsFloat("CONCEPT_EXTRACTION_TEMPERATURE", 0.1, log),
			GradingTemperature:    utils.GetEnvAsFloat("GRADING_TEMPERATURE", 0.2, log),
			MaxTokens:             utils.GetEnvAsInt("REASONING_MAX_TOKENS", 0, log),
		},
		DefaultStrategy: strategy,
		BatchParallel:   utils.GetEnvAsInt("BATCH_MAX_PARALLEL", 4, log),
		FlightTimeout:   utils.GetEnvAsSeconds("GRADING_FLIGHT_TIMEOUT_SECONDS", 5*time.Minute, log),
		RedisAddr:       utils.GetEnv("REDIS_ADDR", "", log),
		RedisPassword:   utils.GetEnv("REDIS_PASSWORD", "", nil),
		RedisDB:         utils.GetEnvAsInt("REDIS_DB", 0, log),
		InflightTTL:     utils.GetEnvAsSeconds("INFLIGHT_TTL_SECONDS", 2*time.Minute, log),
	}
}

// atLeastOne clamps an attempt count; 1 means a single try with no retries.
func atLeastOne(key string, n int, log *logger.Logger) int {
	if n < 1 {
		log.Warn("Attempt count below 1, making a single attempt", "key", key, "value", n)
		return 1
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
