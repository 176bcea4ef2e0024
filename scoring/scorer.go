// Package scoring turns extracted report metrics into the four pillar scores,
// the 0-100 Scholar Score and its letter grade.
//
// Every pillar is reweighted by the components whose inputs were present, so a report
// missing half its metrics is judged on the half it has rather than penalized to zero.
package scoring

import (
	"math"

	"scholar-score/formulas"
	"scholar-score/models"
)

// Grade thresholds on the final integer score.
const (
	GradeAThreshold = 85
	GradeBThreshold = 70
	GradeCThreshold = 55
)

var pillars = []pillar{capitalProtection, tradeManagement, profitability, consistency}

// CalculatePillarScores computes unrounded pillar scores. Nil metrics yield zero scores.
func CalculatePillarScores(m *models.ExtractedMetrics) models.PillarScores {
	if m == nil {
		return models.PillarScores{}
	}
	return models.PillarScores{
		CapitalProtection: capitalProtection.score(m),
		TradeManagement:   tradeManagement.score(m),
		Profitability:     profitability.score(m),
		Consistency:       consistency.score(m),
	}
}

// FinalScore sums the pillars, rounds to the nearest integer and clamps to [0, 100].
func FinalScore(p models.PillarScores) (int, models.Grade) {
	score := int(math.Round(formulas.Clamp(p.Total(), 0, 100)))
	return score, GradeFor(score)
}

// GradeFor maps a final score to its letter grade.
func GradeFor(score int) models.Grade {
	switch {
	case score >= GradeAThreshold:
		return models.GradeA
	case score >= GradeBThreshold:
		return models.GradeB
	case score >= GradeCThreshold:
		return models.GradeC
	default:
		return models.GradeD
	}
}

// RoundPillars rounds each pillar to 2 decimal places for presentation.
func RoundPillars(p models.PillarScores) models.PillarScores {
	return models.PillarScores{
		CapitalProtection: formulas.Round2(p.CapitalProtection),
		TradeManagement:   formulas.Round2(p.TradeManagement),
		Profitability:     formulas.Round2(p.Profitability),
		Consistency:       formulas.Round2(p.Consistency),
	}
}

// Score runs the full scorer. The final score is computed from unrounded pillars;
// the returned pillars are rounded.
func Score(m *models.ExtractedMetrics) (models.PillarScores, int, models.Grade) {
	raw := CalculatePillarScores(m)
	score, grade := FinalScore(raw)
	return RoundPillars(raw), score, grade
}

// Breakdown lists the components that had usable input and the points each earned.
func Breakdown(m *models.ExtractedMetrics) []models.ComponentScore {
	if m == nil {
		return nil
	}

	var out []models.ComponentScore
	for _, p := range pillars {
		for _, c := range p.components {
			points, ok := c.eval(m)
			if !ok || !formulas.Finite(points) {
				continue
			}
			out = append(out, models.ComponentScore{
				Pillar:    p.name,
				Component: c.name,
				Points:    formulas.Round2(formulas.Clamp(points, 0, c.max)),
				Max:       c.max,
			})
		}
	}
	return out
}
