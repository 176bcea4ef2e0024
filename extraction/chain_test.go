package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholar-score/models"
)

type stubStrategy struct {
	name   models.ExtractionSource
	result *models.ExtractedMetrics
	err    error
	calls  int
}

func (s *stubStrategy) Name() models.ExtractionSource { return s.name }

func (s *stubStrategy) Extract(_ context.Context, _ string) (*models.ExtractedMetrics, error) {
	s.calls++
	return s.result, s.err
}

func TestChain_FirstSuccessWins(t *testing.T) {
	first := &stubStrategy{name: models.SourceAI, result: &models.ExtractedMetrics{}}
	second := &stubStrategy{name: models.SourceRegex, result: &models.ExtractedMetrics{}}

	_, source, err := NewChain(first, second).Extract(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, models.SourceAI, source)
	assert.Equal(t, 0, second.calls)
}

func TestChain_FallsBackOnFailure(t *testing.T) {
	regexResult := &models.ExtractedMetrics{}
	regexResult.LongShort.LongTrades = models.Float(6)
	regexResult.LongShort.ShortTrades = models.Float(4)

	failing := &stubStrategy{name: models.SourceAI, err: ErrExtractionService}
	fallback := &stubStrategy{name: models.SourceRegex, result: regexResult}

	m, source, err := NewChain(failing, fallback).Extract(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, models.SourceRegex, source)
	require.NotNil(t, m.Summary.TotalTrades, "derived fields are filled on the winning result")
	assert.InDelta(t, 10, *m.Summary.TotalTrades, 1e-9)
}

func TestChain_AllFail(t *testing.T) {
	boom := errors.New("boom")
	chain := NewChain(
		&stubStrategy{name: models.SourceAI, err: ErrExtractionService},
		&stubStrategy{name: models.SourceRegex, err: boom},
	)

	_, _, err := chain.Extract(context.Background(), "text")
	assert.ErrorIs(t, err, ErrExtractionService)
	assert.ErrorIs(t, err, boom)
}

func TestChain_NilResultIsFailure(t *testing.T) {
	_, _, err := NewChain(&stubStrategy{name: models.SourceAI}).Extract(context.Background(), "text")
	assert.ErrorIs(t, err, ErrExtractionService)
}

func TestChain_Empty(t *testing.T) {
	_, _, err := NewChain().Extract(context.Background(), "text")
	assert.ErrorIs(t, err, ErrExtractionService)
}

func TestNewTextChain_UnconfiguredServiceFallsToRegex(t *testing.T) {
	m, source, err := NewTextChain(nil, AIConfig{}).Extract(context.Background(), reportText)
	require.NoError(t, err)
	assert.Equal(t, models.SourceRegex, source)
	assert.InDelta(t, 12.34, *m.Summary.MaxDrawdownPct, 1e-9)
	require.NotNil(t, m.LongShort.RiskRewardRatio)
	assert.InDelta(t, 69.23/38.18, *m.LongShort.RiskRewardRatio, 1e-9)
}

func TestNewTextChain_ServiceReplyWins(t *testing.T) {
	client := &mockCompletion{reply: `{"summary": {"maxDrawdownPct": 7.5, "profitFactor": 1.9}}`}

	m, source, err := NewTextChain(client, AIConfig{}).Extract(context.Background(), reportText)
	require.NoError(t, err)
	assert.Equal(t, models.SourceAI, source)
	assert.Equal(t, 1, client.calls)
	assert.InDelta(t, 7.5, *m.Summary.MaxDrawdownPct, 1e-9)
	assert.Nil(t, m.Summary.RecoveryFactor, "AI result is not merged with regex values")
}

func TestNewTextChain_ServiceErrorFallsToRegex(t *testing.T) {
	client := &mockCompletion{err: errors.New("503 service unavailable")}

	m, source, err := NewTextChain(client, AIConfig{}).Extract(context.Background(), reportText)
	require.NoError(t, err)
	assert.Equal(t, models.SourceRegex, source)
	assert.InDelta(t, 2.14, *m.Summary.ProfitFactor, 1e-9)
}
