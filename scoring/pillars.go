package scoring

import (
	"math"

	"scholar-score/formulas"
	"scholar-score/models"
)

// component maps metrics to sub-score points. ok is false when its inputs are absent,
// in which case the component's max is excluded from the pillar's achievable maximum.
type component struct {
	name string
	max  float64
	eval func(m *models.ExtractedMetrics) (points float64, ok bool)
}

type pillar struct {
	name       string
	max        float64
	components []component
}

// score folds the present components and rescales to the pillar maximum.
func (p pillar) score(m *models.ExtractedMetrics) float64 {
	var sum, achievable float64
	for _, c := range p.components {
		points, ok := c.eval(m)
		if !ok || !formulas.Finite(points) {
			continue
		}
		sum += formulas.Clamp(points, 0, c.max)
		achievable += c.max
	}

	if achievable == 0 {
		return 0
	}
	return sum / achievable * p.max
}

// single builds a component over one optional metric.
func single(name string, maxPoints float64, field func(m *models.ExtractedMetrics) *float64, formula func(v float64) float64) component {
	return component{
		name: name,
		max:  maxPoints,
		eval: func(m *models.ExtractedMetrics) (float64, bool) {
			v, ok := formulas.Value(field(m))
			if !ok {
				return 0, false
			}
			return formula(v), true
		},
	}
}

var capitalProtection = pillar{
	name: "capital_protection",
	max:  models.CapitalProtectionMax,
	components: []component{
		// 0% drawdown = 15, 10% ≈ 5.5, 30% ≈ 0.75
		single("drawdown", 15,
			func(m *models.ExtractedMetrics) *float64 { return m.Summary.MaxDrawdownPct },
			func(dd float64) float64 { return formulas.Clamp(15*math.Exp(-0.1*dd), 0, 15) }),
		// saturates at RF ≈ 3
		single("recovery_factor", 10,
			func(m *models.ExtractedMetrics) *float64 { return m.Summary.RecoveryFactor },
			func(rf float64) float64 { return math.Max(0, math.Min(rf*3.33, 10)) }),
		single("mae_control", 5,
			func(m *models.ExtractedMetrics) *float64 { return m.Risk.MAERatio },
			func(ratio float64) float64 { return math.Max(0, 5*(1-math.Min(ratio, 1))) }),
	},
}

var tradeManagement = pillar{
	name: "trade_management",
	max:  models.TradeManagementMax,
	components: []component{
		single("win_rate", 10,
			func(m *models.ExtractedMetrics) *float64 { return m.Summary.WinRate },
			func(wr float64) float64 { return formulas.Clamp(wr*0.1, 0, 10) }),
		// up to two losses in a row cost nothing
		single("consecutive_losses", 8,
			func(m *models.ExtractedMetrics) *float64 { return m.Risk.MaxConsecutiveLosses },
			func(mcl float64) float64 { return formulas.Clamp(8*math.Exp(-0.3*math.Max(0, mcl-2)), 0, 8) }),
		// bell curve centred on 10 trades per week
		single("trade_frequency", 7,
			func(m *models.ExtractedMetrics) *float64 { return m.Summary.TradesPerWeek },
			func(tpw float64) float64 { return formulas.Clamp(7*math.Exp(-0.02*(tpw-10)*(tpw-10)), 0, 7) }),
	},
}

var profitability = pillar{
	name: "profitability",
	max:  models.ProfitabilityMax,
	components: []component{
		// PF 1 = 0, PF 3+ = 10
		single("profit_factor", 10,
			func(m *models.ExtractedMetrics) *float64 { return m.Summary.ProfitFactor },
			func(pf float64) float64 { return math.Max(0, math.Min((pf-1)*5, 10)) }),
		single("expectancy", 8,
			func(m *models.ExtractedMetrics) *float64 { return m.Summary.Expectancy },
			func(exp float64) float64 { return math.Min(math.Max(exp/10, 0), 8) }),
		single("risk_reward", 7,
			func(m *models.ExtractedMetrics) *float64 { return m.LongShort.RiskRewardRatio },
			func(rr float64) float64 { return math.Max(0, math.Min(rr*3.5, 7)) }),
	},
}

var consistency = pillar{
	name: "consistency",
	max:  models.ConsistencyMax,
	components: []component{
		single("sharpe", 8,
			func(m *models.ExtractedMetrics) *float64 { return m.Summary.SharpeRatio },
			func(s float64) float64 { return math.Min(math.Max(s*2, 0), 8) }),
		single("profitable_days", 7,
			func(m *models.ExtractedMetrics) *float64 { return m.ProfitLoss.ProfitableDaysPercent },
			func(pd float64) float64 { return formulas.Clamp(pd, 0, 100) / 100 * 7 }),
		{
			name: "directional_balance",
			max:  5,
			eval: directionalBalance,
		},
	},
}

// directionalBalance scores 5 for a 50/50 long/short split, 0 for a one-sided book.
func directionalBalance(m *models.ExtractedMetrics) (float64, bool) {
	long, okLong := formulas.Value(m.LongShort.LongTrades)
	short, okShort := formulas.Value(m.LongShort.ShortTrades)
	if !okLong || !okShort {
		return 0, false
	}

	total := long + short
	if total <= 0 {
		return 0, false
	}

	longPct := long / total * 100
	return math.Max(0, 5*(1-math.Abs(longPct-50)/50)), true
}
