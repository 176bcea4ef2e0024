package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"scholar-score/config"
	"scholar-score/extraction"
	"scholar-score/models"
	"scholar-score/observability"
	"scholar-score/scoring"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	// ErrInvalidInput is returned when a request carries no usable report or the
	// report cannot be parsed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBusy is returned when the scoring concurrency limit is reached
	ErrBusy = errors.New("scoring queue full, too many concurrent requests - try again later")
)

// Input kinds used for metrics labels
const (
	inputJSON = "json"
	inputText = "text"
	inputPDF  = "pdf"
)

var pdfMagic = []byte("%PDF-")

// TextExtractor defines the free-text extraction operation needed by App
type TextExtractor interface {
	Extract(ctx context.Context, text string) (*models.ExtractedMetrics, models.ExtractionSource, error)
}

// ScoreRequest is one report submitted for scoring. The first non-empty input wins in
// the order JSONData, PDFText, PDFBase64.
type ScoreRequest struct {
	JSONData  json.RawMessage `json:"jsonData,omitempty"`
	PDFText   string          `json:"pdfText,omitempty"`
	PDFBase64 string          `json:"pdfBase64,omitempty"`
	Repair    bool            `json:"repair,omitempty"`
}

// App struct holds application dependencies using interfaces for testability
type App struct {
	cfg       *config.Config
	extractor TextExtractor
	scoreSem  chan struct{}
}

// New creates a new App. extractor handles free-text reports; JSON reports never reach it.
func New(cfg *config.Config, extractor TextExtractor) *App {
	return &App{
		cfg:       cfg,
		extractor: extractor,
		scoreSem:  make(chan struct{}, cfg.Server.ConcurrencyLimit),
	}
}

// Provider returns the configured text extraction provider
func (a *App) Provider() string {
	return a.cfg.Extraction.Provider
}

// ScoreSemCapacity returns the concurrency limit for scoring requests
func (a *App) ScoreSemCapacity() int {
	return cap(a.scoreSem)
}

// Score extracts metrics from the report in req and scores them
func (a *App) Score(ctx context.Context, req ScoreRequest) (*models.ScoringResult, error) {
	select {
	case a.scoreSem <- struct{}{}:
		defer func() { <-a.scoreSem }()
	default:
		return nil, ErrBusy
	}

	ctx, span := observability.StartSpan(ctx, "scoring.score")
	defer span.End()

	input := inputKind(req)
	span.SetAttributes(attribute.String("input", input))

	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()

	result, err := a.score(ctx, input, req)
	if err != nil {
		timer.ObserveScoring(input, "error")
		metrics.RecordScoringError(input, errorType(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring failed")
		return nil, err
	}

	timer.ObserveScoring(input, "success")
	metrics.RecordScoreRequest(string(result.Source))
	metrics.RecordResult(string(result.Source), string(result.Grade), float64(result.FinalScholarScore), map[string]float64{
		"capitalProtection": result.PillarScores.CapitalProtection,
		"tradeManagement":   result.PillarScores.TradeManagement,
		"profitability":     result.PillarScores.Profitability,
		"consistency":       result.PillarScores.Consistency,
	})
	span.SetAttributes(
		attribute.String("source", string(result.Source)),
		attribute.Int("score", result.FinalScholarScore),
		attribute.String("grade", string(result.Grade)),
	)

	logger := observability.FromContext(ctx)
	if traceID, ok := observability.TraceID(ctx); ok {
		logger = logger.With("trace_id", traceID)
	}
	logger.Info("Report scored",
		"report_id", result.ReportID.String(),
		"source", result.Source,
		"score", result.FinalScholarScore,
		"grade", result.Grade,
		"populated", result.ExtractedData.PopulatedCount())
	if result.ExtractedData.IsEmpty() {
		logger.Warn("No metrics found in report, every pillar scores zero", "source", result.Source)
	}

	return result, nil
}

func (a *App) score(ctx context.Context, input string, req ScoreRequest) (*models.ScoringResult, error) {
	m, source, err := a.extract(ctx, input, req)
	if err != nil {
		return nil, err
	}

	pillars, finalScore, grade := scoring.Score(m)
	result := models.NewScoringResult(source, *m, pillars, finalScore, grade)
	velocity := scoring.DrawdownVelocity(m.Summary.MaxDrawdownPct, m.Summary.RecoveryFactor)
	result.DrawdownVelocity = &velocity
	result.Breakdown = scoring.Breakdown(m)
	return result, nil
}

func (a *App) extract(ctx context.Context, input string, req ScoreRequest) (*models.ExtractedMetrics, models.ExtractionSource, error) {
	switch input {
	case inputJSON:
		data, err := reportJSON(req.JSONData, req.Repair)
		if err != nil {
			return nil, "", err
		}
		m, err := extraction.FromJSON(data)
		if err != nil {
			if errors.Is(err, extraction.ErrMalformedJSON) {
				return nil, "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
			return nil, "", err
		}
		return m, models.SourceJSON, nil

	case inputText:
		return a.extractText(ctx, req.PDFText)

	case inputPDF:
		text, err := decodeBase64Text(req.PDFBase64)
		if err != nil {
			return nil, "", err
		}
		return a.extractText(ctx, text)

	default:
		return nil, "", fmt.Errorf("%w: one of jsonData, pdfText or pdfBase64 is required", ErrInvalidInput)
	}
}

func (a *App) extractText(ctx context.Context, text string) (*models.ExtractedMetrics, models.ExtractionSource, error) {
	if a.extractor == nil {
		return nil, "", fmt.Errorf("text extraction not initialized")
	}
	return a.extractor.Extract(ctx, text)
}

func inputKind(req ScoreRequest) string {
	switch {
	case hasJSON(req.JSONData):
		return inputJSON
	case strings.TrimSpace(req.PDFText) != "":
		return inputText
	case strings.TrimSpace(req.PDFBase64) != "":
		return inputPDF
	default:
		return "none"
	}
}

// hasJSON reports whether jsonData was supplied. null and "" count as absent.
func hasJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) && !bytes.Equal(trimmed, []byte(`""`))
}

// reportJSON returns the report document from a jsonData value, which is either the
// document itself or a string holding it.
func reportJSON(raw json.RawMessage, repair bool) ([]byte, error) {
	data := bytes.TrimSpace(raw)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("%w: jsonData string: %w", ErrInvalidInput, err)
		}
		data = []byte(strings.TrimSpace(s))
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: jsonData is empty", ErrInvalidInput)
		}
	}

	if !repair {
		return data, nil
	}
	fixed, err := extraction.RepairJSON(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return []byte(fixed), nil
}

// decodeBase64Text decodes a base64 report body holding already-extracted text.
// Binary PDF documents are rejected; text extraction from PDF happens upstream.
func decodeBase64Text(encoded string) (string, error) {
	encoded = strings.TrimSpace(encoded)
	if i := strings.Index(encoded, ";base64,"); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+len(";base64,"):]
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		var urlErr error
		decoded, urlErr = base64.URLEncoding.DecodeString(encoded)
		if urlErr != nil {
			return "", fmt.Errorf("%w: pdfBase64 is not valid base64: %w", ErrInvalidInput, err)
		}
	}

	if bytes.HasPrefix(decoded, pdfMagic) {
		return "", fmt.Errorf("%w: pdfBase64 holds a binary PDF; submit its extracted text", ErrInvalidInput)
	}
	text := strings.TrimSpace(string(decoded))
	if text == "" {
		return "", fmt.Errorf("%w: pdfBase64 decodes to empty text", ErrInvalidInput)
	}
	return text, nil
}

// errorType categorizes a scoring error for metrics purposes
func errorType(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, extraction.ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, extraction.ErrExtractionService):
		return "extraction"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}
