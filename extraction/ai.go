package extraction

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"scholar-score/models"
	"scholar-score/observability"
	"scholar-score/services"
)

// DefaultSystemPrompt instructs the model to copy stated values only.
const DefaultSystemPrompt = `You are a precise data extraction engine for MetaTrader 5 trading reports.
Extract ONLY metrics that are EXPLICITLY visible in the text.
Do NOT estimate, infer, or calculate missing values. If a value is not found, return null.
Losses are negative numbers. Percentages are plain numbers without the percent sign.
Return valid JSON only.`

const userPromptTemplate = `Extract all trading metrics from this MT5 report text:

%s

Return JSON in this exact format:
{
  "summary": {
    "maxDrawdownPct": <number or null>,
    "recoveryFactor": <number or null>,
    "profitFactor": <number or null>,
    "tradesPerWeek": <number or null>,
    "avgHoldTimeMinutes": <number or null>,
    "winRate": <number or null>,
    "expectancy": <number or null>,
    "sharpeRatio": <number or null>,
    "netProfit": <number or null>,
    "totalTrades": <number or null>
  },
  "profitLoss": {
    "grossProfit": <number or null>,
    "grossLoss": <number or null>,
    "dailyPnL": <array of numbers or null>,
    "profitableDaysPercent": <number or null>,
    "largestWin": <number or null>,
    "largestLoss": <number or null>
  },
  "longShort": {
    "avgWin": <number or null>,
    "avgLoss": <number or null>,
    "longTrades": <number or null>,
    "shortTrades": <number or null>,
    "riskRewardRatio": <number or null>
  },
  "symbols": {
    "concentration": [{"symbol": "...", "percent": <number>}] or null
  },
  "risk": {
    "maxConsecutiveWins": <number or null>,
    "maxConsecutiveLosses": <number or null>,
    "mfe": <number or null>,
    "mae": <number or null>,
    "maeRatio": <number or null>
  }
}`

var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// AIConfig bounds calls to the text-understanding service.
type AIConfig struct {
	Timeout           time.Duration
	RequestsPerMinute int // 0 disables rate limiting
	MaxInputChars     int // 0 sends the full text
	SystemPrompt      string
}

// AIExtractor delegates text extraction to a CompletionService.
type AIExtractor struct {
	client        services.CompletionService
	limiter       *rate.Limiter
	timeout       time.Duration
	maxInputChars int
	systemPrompt  string
}

// NewAIExtractor creates an AIExtractor. A nil client is allowed; every call then fails
// with ErrExtractionService so the chain falls through to the next strategy.
func NewAIExtractor(client services.CompletionService, cfg AIConfig) *AIExtractor {
	e := &AIExtractor{
		client:        client,
		timeout:       cfg.Timeout,
		maxInputChars: cfg.MaxInputChars,
		systemPrompt:  cfg.SystemPrompt,
	}
	if e.systemPrompt == "" {
		e.systemPrompt = DefaultSystemPrompt
	}
	if cfg.RequestsPerMinute > 0 {
		e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute)
	}
	return e
}

// Name returns the extraction source label
func (e *AIExtractor) Name() models.ExtractionSource {
	return models.SourceAI
}

// Extract sends the report text to the service and parses its JSON reply.
func (e *AIExtractor) Extract(ctx context.Context, text string) (*models.ExtractedMetrics, error) {
	if e.client == nil {
		return nil, fmt.Errorf("%w: not configured", ErrExtractionService)
	}
	if e.limiter != nil && !e.limiter.Allow() {
		return nil, fmt.Errorf("%w: rate limit exceeded", ErrExtractionService)
	}

	ctx, span := observability.StartSpan(ctx, "extraction.ai")
	defer span.End()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	text = truncateRunes(text, e.maxInputChars)
	span.SetAttributes(attribute.Int("input.chars", len(text)))

	reply, err := e.client.InvokeWithPrompt(ctx, e.systemPrompt, fmt.Sprintf(userPromptTemplate, text))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return nil, fmt.Errorf("%w: %w", ErrExtractionService, err)
	}

	m, err := ParseReply(reply)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unparseable reply")
		return nil, err
	}
	return m, nil
}

// ParseReply reads the canonical metrics document from a model reply, tolerating a
// wrapping markdown code fence.
func ParseReply(reply string) (*models.ExtractedMetrics, error) {
	body := reply
	if match := codeFence.FindStringSubmatch(reply); match != nil {
		body = match[1]
	}
	body = strings.TrimSpace(body)

	if body == "" || !gjson.Valid(body) {
		return nil, fmt.Errorf("%w: reply is not valid JSON", ErrExtractionService)
	}
	root := gjson.Parse(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: reply is not a JSON object", ErrExtractionService)
	}
	return FromCanonical(root), nil
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
