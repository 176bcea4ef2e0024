package models

import (
	"time"

	"github.com/google/uuid"
)

// Pillar maxima. The four sum to 100.
const (
	CapitalProtectionMax = 30.0
	TradeManagementMax   = 25.0
	ProfitabilityMax     = 25.0
	ConsistencyMax       = 20.0
)

type PillarScores struct {
	CapitalProtection float64 `json:"capitalProtection"`
	TradeManagement   float64 `json:"tradeManagement"`
	Profitability     float64 `json:"profitability"`
	Consistency       float64 `json:"consistency"`
}

// Total sums the four pillars.
func (p PillarScores) Total() float64 {
	return p.CapitalProtection + p.TradeManagement + p.Profitability + p.Consistency
}

type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// ExtractionSource names the path that produced the extracted metrics.
type ExtractionSource string

const (
	SourceJSON  ExtractionSource = "json"
	SourceAI    ExtractionSource = "ai"
	SourceRegex ExtractionSource = "regex"
)

type VelocityRating string

const (
	VelocityControlled VelocityRating = "controlled"
	VelocityModerate   VelocityRating = "moderate"
	VelocityFast       VelocityRating = "fast"
	VelocityCrash      VelocityRating = "crash"
)

// DrawdownVelocity rates how violently the account fell relative to its ability to recover.
type DrawdownVelocity struct {
	Rating VelocityRating `json:"rating"`
	Value  float64        `json:"value"`
}

// ComponentScore is one formula component that had usable input and the points it earned
type ComponentScore struct {
	Pillar    string  `json:"pillar"`
	Component string  `json:"component"`
	Points    float64 `json:"points"`
	Max       float64 `json:"max"`
}

type ScoringResult struct {
	ReportID          uuid.UUID         `json:"reportId"`
	Source            ExtractionSource  `json:"source"`
	ExtractedData     ExtractedMetrics  `json:"extractedData"`
	PillarScores      PillarScores      `json:"pillarScores"`
	FinalScholarScore int               `json:"finalScholarScore"`
	Grade             Grade             `json:"grade"`
	DrawdownVelocity  *DrawdownVelocity `json:"drawdownVelocity,omitempty"`
	Breakdown         []ComponentScore  `json:"breakdown,omitempty"`
	ScoredAt          time.Time         `json:"scoredAt"`
}

func NewScoringResult(source ExtractionSource, metrics ExtractedMetrics, pillars PillarScores, score int, grade Grade) *ScoringResult {
	return &ScoringResult{
		ReportID:          uuid.New(),
		Source:            source,
		ExtractedData:     metrics,
		PillarScores:      pillars,
		FinalScholarScore: score,
		Grade:             grade,
		ScoredAt:          time.Now(),
	}
}
