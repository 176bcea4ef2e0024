package app

import (
	"context"
	"time"

	"scholar-score/config"
	"scholar-score/extraction"
	"scholar-score/observability"
	"scholar-score/services"
)

// NewCompletionService returns the configured completion provider, or nil when text
// extraction should go straight to pattern matching. A provider that cannot be
// initialized is logged and treated as absent. Provider breakers are reset to the
// configured thresholds.
func NewCompletionService(ctx context.Context, cfg *config.Config) services.CompletionService {
	breakers := services.NewCircuitBreakerRegistry(services.BreakerConfigFrom(cfg.Extraction))
	services.SetGlobalRegistry(breakers)
	observability.Debug("Completion provider breakers configured",
		"min_requests", breakers.Config().MinRequests,
		"failure_ratio", breakers.Config().FailureRatio,
		"open_for", breakers.Config().OpenFor.String())

	switch cfg.Extraction.Provider {
	case config.ProviderOpenAI:
		if !cfg.HasOpenAI() {
			observability.Warn("OPENAI_API_KEY not set, AI extraction disabled")
			return nil
		}
		svc, err := services.NewOpenAIService(cfg)
		if err != nil {
			observability.WithError(err).Warn("Failed to initialize OpenAI service")
			return nil
		}
		return svc

	case config.ProviderBedrock:
		svc, err := services.NewBedrockService(ctx, cfg)
		if err != nil {
			observability.WithError(err).Warn("Failed to initialize Bedrock service")
			return nil
		}
		return svc

	default:
		observability.Info("AI extraction disabled, text reports use pattern matching only")
		return nil
	}
}

// NewTextChain builds the AI-then-regex extraction chain from configuration
func NewTextChain(ctx context.Context, cfg *config.Config) *extraction.Chain {
	return extraction.NewTextChain(NewCompletionService(ctx, cfg), extraction.AIConfig{
		Timeout:           time.Duration(cfg.Extraction.TimeoutSeconds) * time.Second,
		RequestsPerMinute: cfg.Extraction.RequestsPerMinute,
		MaxInputChars:     cfg.Extraction.MaxInputChars,
		SystemPrompt:      cfg.Extraction.SystemPrompt,
	})
}
