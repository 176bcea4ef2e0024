package extraction

import (
	"github.com/tidwall/gjson"

	"scholar-score/models"
)

// canonicalField binds a path in the canonical metrics document to its struct field.
type canonicalField struct {
	path string
	dst  func(m *models.ExtractedMetrics) **float64
}

var canonicalFields = []canonicalField{
	{"summary.maxDrawdownPct", func(m *models.ExtractedMetrics) **float64 { return &m.Summary.MaxDrawdownPct }},
	{"summary.recoveryFactor", func(m *models.ExtractedMetrics) **float64 { return &m.Summary.RecoveryFactor }},
	{"summary.profitFactor", func(m *models.ExtractedMetrics) **float64 { return &m.Summary.ProfitFactor }},
	{"summary.tradesPerWeek", func(m *models.ExtractedMetrics) **float64 { return &m.Summary.TradesPerWeek }},
	{"summary.avgHoldTimeMinutes", func(m *models.ExtractedMetrics) **float64 { return &m.Summary.AvgHoldTimeMinutes }},
	{"summary.winRate", func(m *models.ExtractedMetrics) **float64 { return &m.Summary.WinRate }},
	{"summary.expectancy", func(m *models.ExtractedMetrics) **float64 { return &m.Summary.Expectancy }},
	{"summary.sharpeRatio", func(m *models.ExtractedMetrics) **float64 { return &m.Summary.SharpeRatio }},
	{"summary.netProfit", func(m *models.ExtractedMetrics) **float64 { return &m.Summary.NetProfit }},
	{"summary.totalTrades", func(m *models.ExtractedMetrics) **float64 { return &m.Summary.TotalTrades }},
	{"profitLoss.grossProfit", func(m *models.ExtractedMetrics) **float64 { return &m.ProfitLoss.GrossProfit }},
	{"profitLoss.grossLoss", func(m *models.ExtractedMetrics) **float64 { return &m.ProfitLoss.GrossLoss }},
	{"profitLoss.profitableDaysPercent", func(m *models.ExtractedMetrics) **float64 { return &m.ProfitLoss.ProfitableDaysPercent }},
	{"profitLoss.largestWin", func(m *models.ExtractedMetrics) **float64 { return &m.ProfitLoss.LargestWin }},
	{"profitLoss.largestLoss", func(m *models.ExtractedMetrics) **float64 { return &m.ProfitLoss.LargestLoss }},
	{"longShort.avgWin", func(m *models.ExtractedMetrics) **float64 { return &m.LongShort.AvgWin }},
	{"longShort.avgLoss", func(m *models.ExtractedMetrics) **float64 { return &m.LongShort.AvgLoss }},
	{"longShort.longTrades", func(m *models.ExtractedMetrics) **float64 { return &m.LongShort.LongTrades }},
	{"longShort.shortTrades", func(m *models.ExtractedMetrics) **float64 { return &m.LongShort.ShortTrades }},
	{"longShort.riskRewardRatio", func(m *models.ExtractedMetrics) **float64 { return &m.LongShort.RiskRewardRatio }},
	{"risk.maxConsecutiveWins", func(m *models.ExtractedMetrics) **float64 { return &m.Risk.MaxConsecutiveWins }},
	{"risk.maxConsecutiveLosses", func(m *models.ExtractedMetrics) **float64 { return &m.Risk.MaxConsecutiveLosses }},
	{"risk.mfe", func(m *models.ExtractedMetrics) **float64 { return &m.Risk.MFE }},
	{"risk.mae", func(m *models.ExtractedMetrics) **float64 { return &m.Risk.MAE }},
	{"risk.maeRatio", func(m *models.ExtractedMetrics) **float64 { return &m.Risk.MAERatio }},
}

// brokerRootKeys are the top-level sections of an MT5 broker export.
var brokerRootKeys = []string{
	"growth", "balance", "profitTotal", "profitMoney", "symbolIndicators", "symbolsTotal",
	"longShortTotal", "longShortIndicators", "risksIndicators", "risksMfeMaeMoney", "evaluation",
}

// isCanonical reports whether root is already shaped like ExtractedMetrics: it carries at
// least one canonical metric path and none of the broker export sections.
func isCanonical(root gjson.Result) bool {
	for _, key := range brokerRootKeys {
		if root.Get(key).Exists() {
			return false
		}
	}
	for _, f := range canonicalFields {
		if root.Get(f.path).Exists() {
			return true
		}
	}
	return root.Get("profitLoss.dailyPnL").Exists() || root.Get("symbols.concentration").Exists()
}

// FromCanonical reads a document in the ExtractedMetrics shape. Values may be numbers
// or numeric strings; anything else is treated as absent. Stated losses are signed negative.
func FromCanonical(root gjson.Result) *models.ExtractedMetrics {
	m := &models.ExtractedMetrics{}
	for _, f := range canonicalFields {
		*f.dst(m) = number(root.Get(f.path))
	}

	m.ProfitLoss.GrossLoss = negative(m.ProfitLoss.GrossLoss)
	m.ProfitLoss.LargestLoss = negative(m.ProfitLoss.LargestLoss)
	m.LongShort.AvgLoss = negative(m.LongShort.AvgLoss)

	for _, item := range root.Get("profitLoss.dailyPnL").Array() {
		if v := number(item); v != nil {
			m.ProfitLoss.DailyPnL = append(m.ProfitLoss.DailyPnL, *v)
		}
	}

	for _, item := range root.Get("symbols.concentration").Array() {
		symbol := item.Get("symbol").String()
		pct := number(item.Get("percent"))
		if symbol == "" || pct == nil {
			continue
		}
		m.Symbols.Concentration = append(m.Symbols.Concentration, models.SymbolShare{
			Symbol:  symbol,
			Percent: *pct,
		})
	}

	return m
}
