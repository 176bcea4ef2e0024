package extraction

import (
	"context"
	"errors"
	"fmt"

	"scholar-score/models"
	"scholar-score/observability"
	"scholar-score/services"
)

// TextExtractor is one strategy for turning report text into metrics.
type TextExtractor interface {
	Name() models.ExtractionSource
	Extract(ctx context.Context, text string) (*models.ExtractedMetrics, error)
}

// Chain tries text strategies in order and returns the first success.
type Chain struct {
	strategies []TextExtractor
}

// NewChain creates a Chain over the given strategies, tried in argument order.
func NewChain(strategies ...TextExtractor) *Chain {
	return &Chain{strategies: strategies}
}

// NewTextChain builds the standard AI-then-regex chain. Without a client the chain is
// regex only.
func NewTextChain(client services.CompletionService, cfg AIConfig) *Chain {
	if client == nil {
		return NewChain(NewRegexExtractor())
	}
	return NewChain(NewAIExtractor(client, cfg), NewRegexExtractor())
}

// Extract runs the strategies in order. A failed strategy is logged and the next one is
// tried; the error is returned only when every strategy failed. The winning result has
// derived fields filled.
func (c *Chain) Extract(ctx context.Context, text string) (*models.ExtractedMetrics, models.ExtractionSource, error) {
	if len(c.strategies) == 0 {
		return nil, "", fmt.Errorf("%w: no extraction strategies configured", ErrExtractionService)
	}

	metrics := observability.GetMetrics()
	logger := observability.FromContext(ctx)

	var errs []error
	for _, strategy := range c.strategies {
		name := string(strategy.Name())
		metrics.RecordExtractionAttempt(name)

		m, err := strategy.Extract(ctx, text)
		if err == nil && m == nil {
			err = fmt.Errorf("%w: %s returned no metrics", ErrExtractionService, name)
		}
		if err != nil {
			metrics.RecordExtractionFailure(name)
			logger.Warn("Extraction strategy failed, falling back", "strategy", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		Derive(m)
		logger.Debug("Extraction succeeded", "strategy", name, "populated", m.PopulatedCount())
		return m, strategy.Name(), nil
	}

	return nil, "", errors.Join(errs...)
}
