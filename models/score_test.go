package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestPillarMaximaSumTo100(t *testing.T) {
	total := CapitalProtectionMax + TradeManagementMax + ProfitabilityMax + ConsistencyMax
	if total != 100 {
		t.Errorf("pillar maxima sum to %v, want 100", total)
	}
}

func TestPillarScores_Total(t *testing.T) {
	p := PillarScores{CapitalProtection: 20.5, TradeManagement: 10, Profitability: 12.25, Consistency: 5}
	if got := p.Total(); got != 47.75 {
		t.Errorf("Total() = %v, want 47.75", got)
	}
}

func TestNewScoringResult(t *testing.T) {
	metrics := ExtractedMetrics{}
	metrics.Summary.ProfitFactor = Float(2)
	pillars := PillarScores{CapitalProtection: 30, TradeManagement: 25, Profitability: 25, Consistency: 20}

	r := NewScoringResult(SourceAI, metrics, pillars, 100, GradeA)

	if r.ReportID == uuid.Nil {
		t.Error("expected a report id")
	}
	if r.Source != SourceAI {
		t.Errorf("Source = %s, want ai", r.Source)
	}
	if r.FinalScholarScore != 100 || r.Grade != GradeA {
		t.Errorf("unexpected score %d / %s", r.FinalScholarScore, r.Grade)
	}
	if r.ScoredAt.IsZero() {
		t.Error("expected ScoredAt to be set")
	}
	if r.DrawdownVelocity != nil {
		t.Error("drawdown velocity is attached by the caller")
	}

	other := NewScoringResult(SourceAI, metrics, pillars, 100, GradeA)
	if other.ReportID == r.ReportID {
		t.Error("report ids should be unique")
	}
}
