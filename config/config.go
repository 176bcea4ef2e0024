package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Extraction providers
const (
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
	ProviderNone    = "none"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`

	// Text extraction configuration
	Extraction ExtractionConfig `yaml:"extraction"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Bedrock    BedrockConfig    `yaml:"bedrock"`

	// HTTP configuration
	HTTP HTTPConfig `yaml:"http"`

	Tracing TracingConfig `yaml:"tracing"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                   string `yaml:"port" validate:"required,numeric"`
	ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds" validate:"gt=0"`
	WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds" validate:"gt=0"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds" validate:"gt=0"`
	ConcurrencyLimit       int    `yaml:"concurrency_limit" validate:"gt=0"` // max in-flight scoring requests
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	Production bool   `yaml:"production"`
}

// ExtractionConfig holds configuration for the text extraction service call
type ExtractionConfig struct {
	Provider          string  `yaml:"provider" validate:"oneof=openai bedrock none"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" validate:"gt=0"`
	RequestsPerMinute int     `yaml:"requests_per_minute" validate:"gte=0"` // 0 = unlimited
	Temperature       float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxInputChars     int     `yaml:"max_input_chars" validate:"gte=0"` // 0 = no truncation
	SystemPrompt      string  `yaml:"system_prompt"`                    // empty = built-in prompt

	// Provider circuit breaker
	BreakerMinRequests      int     `yaml:"breaker_min_requests" validate:"gt=0"`
	BreakerFailureRatio     float64 `yaml:"breaker_failure_ratio" validate:"gt=0,lte=1"`
	BreakerWindowSeconds    int     `yaml:"breaker_window_seconds" validate:"gt=0"`
	BreakerOpenSeconds      int     `yaml:"breaker_open_seconds" validate:"gt=0"`
	BreakerHalfOpenRequests int     `yaml:"breaker_half_open_requests" validate:"gt=0"`
}

// OpenAIConfig holds configuration for an OpenAI-compatible chat completions API
type OpenAIConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url" validate:"omitempty,url"`
	Model     string `yaml:"model" validate:"required"`
	MaxTokens int    `yaml:"max_tokens" validate:"gt=0"`
}

// BedrockConfig holds AWS Bedrock configuration
type BedrockConfig struct {
	Region           string `yaml:"region"`
	ModelID          string `yaml:"model_id"`
	MaxTokens        int    `yaml:"max_tokens" validate:"gt=0"`
	AnthropicVersion string `yaml:"anthropic_version"`
}

// HTTPConfig holds HTTP handling configuration
type HTTPConfig struct {
	CORSAllowedOrigins    string `yaml:"cors_allowed_origins"`
	MaxBodyBytes          int64  `yaml:"max_body_bytes" validate:"gt=0"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds" validate:"gt=0"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in that order of precedence.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                   "8080",
			ReadTimeoutSeconds:     15,
			WriteTimeoutSeconds:    60,
			ShutdownTimeoutSeconds: 10,
			ConcurrencyLimit:       16,
		},
		Log: LogConfig{
			Level: "info",
		},
		Extraction: ExtractionConfig{
			Provider:          ProviderOpenAI,
			TimeoutSeconds:    20,
			RequestsPerMinute: 0,
			Temperature:       0.1,
			MaxInputChars:     100_000,

			BreakerMinRequests:      5,
			BreakerFailureRatio:     0.5,
			BreakerWindowSeconds:    60,
			BreakerOpenSeconds:      30,
			BreakerHalfOpenRequests: 1,
		},
		OpenAI: OpenAIConfig{
			Model:     "gpt-4o-mini",
			MaxTokens: 4096,
		},
		Bedrock: BedrockConfig{
			Region:           "us-east-1",
			ModelID:          "anthropic.claude-3-haiku-20240307-v1:0",
			MaxTokens:        4096,
			AnthropicVersion: "bedrock-2023-05-31",
		},
		HTTP: HTTPConfig{
			CORSAllowedOrigins:    "*",
			MaxBodyBytes:          10 << 20,
			RequestTimeoutSeconds: 60,
		},
		Tracing: TracingConfig{
			ServiceName: "scholar-score",
		},
	}
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvString("PORT", c.Server.Port)
	c.Server.ReadTimeoutSeconds = getEnvInt("SERVER_READ_TIMEOUT_SECONDS", c.Server.ReadTimeoutSeconds)
	c.Server.WriteTimeoutSeconds = getEnvInt("SERVER_WRITE_TIMEOUT_SECONDS", c.Server.WriteTimeoutSeconds)
	c.Server.ShutdownTimeoutSeconds = getEnvInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS", c.Server.ShutdownTimeoutSeconds)
	c.Server.ConcurrencyLimit = getEnvInt("SCORING_CONCURRENCY_LIMIT", c.Server.ConcurrencyLimit)

	c.Log.Level = getEnvString("LOG_LEVEL", c.Log.Level)
	c.Log.Production = getEnvBool("LOG_PRODUCTION", c.Log.Production)

	c.Extraction.Provider = getEnvString("EXTRACTION_PROVIDER", c.Extraction.Provider)
	c.Extraction.TimeoutSeconds = getEnvInt("EXTRACTION_TIMEOUT_SECONDS", c.Extraction.TimeoutSeconds)
	c.Extraction.RequestsPerMinute = getEnvIntMin("EXTRACTION_REQUESTS_PER_MINUTE", c.Extraction.RequestsPerMinute, 0)
	c.Extraction.Temperature = getEnvFloatRange("EXTRACTION_TEMPERATURE", c.Extraction.Temperature, 0, 2)
	c.Extraction.MaxInputChars = getEnvIntMin("EXTRACTION_MAX_INPUT_CHARS", c.Extraction.MaxInputChars, 0)
	c.Extraction.SystemPrompt = getEnvString("EXTRACTION_SYSTEM_PROMPT", c.Extraction.SystemPrompt)
	c.Extraction.BreakerMinRequests = getEnvInt("EXTRACTION_BREAKER_MIN_REQUESTS", c.Extraction.BreakerMinRequests)
	c.Extraction.BreakerFailureRatio = getEnvFloatRange("EXTRACTION_BREAKER_FAILURE_RATIO", c.Extraction.BreakerFailureRatio, 0.01, 1)
	c.Extraction.BreakerWindowSeconds = getEnvInt("EXTRACTION_BREAKER_WINDOW_SECONDS", c.Extraction.BreakerWindowSeconds)
	c.Extraction.BreakerOpenSeconds = getEnvInt("EXTRACTION_BREAKER_OPEN_SECONDS", c.Extraction.BreakerOpenSeconds)
	c.Extraction.BreakerHalfOpenRequests = getEnvInt("EXTRACTION_BREAKER_HALF_OPEN_REQUESTS", c.Extraction.BreakerHalfOpenRequests)

	c.OpenAI.APIKey = getEnvString("OPENAI_API_KEY", c.OpenAI.APIKey)
	c.OpenAI.BaseURL = getEnvString("OPENAI_BASE_URL", c.OpenAI.BaseURL)
	c.OpenAI.Model = getEnvString("OPENAI_MODEL", c.OpenAI.Model)
	c.OpenAI.MaxTokens = getEnvInt("OPENAI_MAX_TOKENS", c.OpenAI.MaxTokens)

	c.Bedrock.Region = getEnvString("AWS_REGION", c.Bedrock.Region)
	c.Bedrock.ModelID = getEnvString("BEDROCK_MODEL_ID", c.Bedrock.ModelID)
	c.Bedrock.MaxTokens = getEnvInt("BEDROCK_MAX_TOKENS", c.Bedrock.MaxTokens)
	c.Bedrock.AnthropicVersion = getEnvString("BEDROCK_ANTHROPIC_VERSION", c.Bedrock.AnthropicVersion)

	c.HTTP.CORSAllowedOrigins = getEnvString("CORS_ALLOWED_ORIGINS", c.HTTP.CORSAllowedOrigins)
	c.HTTP.MaxBodyBytes = int64(getEnvInt("HTTP_MAX_BODY_BYTES", int(c.HTTP.MaxBodyBytes)))
	c.HTTP.RequestTimeoutSeconds = getEnvInt("HTTP_REQUEST_TIMEOUT_SECONDS", c.HTTP.RequestTimeoutSeconds)

	c.Tracing.Enabled = getEnvBool("TRACING_ENABLED", c.Tracing.Enabled)
	c.Tracing.ServiceName = getEnvString("TRACING_SERVICE_NAME", c.Tracing.ServiceName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Extraction.Provider == ProviderBedrock {
		if c.Bedrock.Region == "" {
			return fmt.Errorf("AWS_REGION is required for the bedrock extraction provider")
		}
		if c.Bedrock.ModelID == "" {
			return fmt.Errorf("BEDROCK_MODEL_ID is required for the bedrock extraction provider")
		}
	}

	return nil
}

// HasOpenAI returns true if OpenAI configuration is available
func (c *Config) HasOpenAI() bool {
	return c.OpenAI.APIKey != ""
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

// getEnvIntMin is getEnvInt for settings where zero is meaningful
func getEnvIntMin(key string, defaultValue, minVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed >= minVal {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatRange(key string, defaultValue, minVal, maxVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil && parsed >= minVal && parsed <= maxVal {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	cfg := defaults()
	cfg.Extraction.Provider = ProviderNone
	return cfg
}
