package models

// ExtractedMetrics is the canonical metric record produced by every extraction path.
// A nil field means the value was not present in the source report.
// Counts are carried as float64 because neither broker exports nor extraction replies
// type them reliably.
type ExtractedMetrics struct {
	Summary    SummaryMetrics    `json:"summary"`
	ProfitLoss ProfitLossMetrics `json:"profitLoss"`
	LongShort  LongShortMetrics  `json:"longShort"`
	Symbols    SymbolMetrics     `json:"symbols"`
	Risk       RiskMetrics       `json:"risk"`
}

type SummaryMetrics struct {
	MaxDrawdownPct     *float64 `json:"maxDrawdownPct"`
	RecoveryFactor     *float64 `json:"recoveryFactor"`
	ProfitFactor       *float64 `json:"profitFactor"`
	TradesPerWeek      *float64 `json:"tradesPerWeek"`
	AvgHoldTimeMinutes *float64 `json:"avgHoldTimeMinutes"`
	WinRate            *float64 `json:"winRate"`
	Expectancy         *float64 `json:"expectancy"`
	SharpeRatio        *float64 `json:"sharpeRatio"`
	NetProfit          *float64 `json:"netProfit"`
	TotalTrades        *float64 `json:"totalTrades"`
}

type ProfitLossMetrics struct {
	GrossProfit           *float64  `json:"grossProfit"`
	GrossLoss             *float64  `json:"grossLoss"` // signed, negative for a loss
	DailyPnL              []float64 `json:"dailyPnL"`
	ProfitableDaysPercent *float64  `json:"profitableDaysPercent"`
	LargestWin            *float64  `json:"largestWin"`
	LargestLoss           *float64  `json:"largestLoss"`
}

type LongShortMetrics struct {
	AvgWin          *float64 `json:"avgWin"`
	AvgLoss         *float64 `json:"avgLoss"`
	LongTrades      *float64 `json:"longTrades"`
	ShortTrades     *float64 `json:"shortTrades"`
	RiskRewardRatio *float64 `json:"riskRewardRatio"`
}

type SymbolMetrics struct {
	Concentration []SymbolShare `json:"concentration"`
}

// SymbolShare is the percentage of all trades placed on one symbol.
type SymbolShare struct {
	Symbol  string  `json:"symbol"`
	Percent float64 `json:"percent"`
}

type RiskMetrics struct {
	MaxConsecutiveWins   *float64 `json:"maxConsecutiveWins"`
	MaxConsecutiveLosses *float64 `json:"maxConsecutiveLosses"`
	MFE                  *float64 `json:"mfe"`
	MAE                  *float64 `json:"mae"`
	MAERatio             *float64 `json:"maeRatio"`
}

// Float returns a pointer to v, for populating optional metric fields.
func Float(v float64) *float64 {
	return &v
}

// IsEmpty reports whether no metric at all was populated.
func (m *ExtractedMetrics) IsEmpty() bool {
	return m.PopulatedCount() == 0
}

// PopulatedCount returns how many metric fields carry a value.
func (m *ExtractedMetrics) PopulatedCount() int {
	count := 0
	for _, v := range m.scalars() {
		if v != nil {
			count++
		}
	}
	if len(m.ProfitLoss.DailyPnL) > 0 {
		count++
	}
	if len(m.Symbols.Concentration) > 0 {
		count++
	}
	return count
}

func (m *ExtractedMetrics) scalars() []*float64 {
	return []*float64{
		m.Summary.MaxDrawdownPct, m.Summary.RecoveryFactor, m.Summary.ProfitFactor,
		m.Summary.TradesPerWeek, m.Summary.AvgHoldTimeMinutes, m.Summary.WinRate,
		m.Summary.Expectancy, m.Summary.SharpeRatio, m.Summary.NetProfit, m.Summary.TotalTrades,
		m.ProfitLoss.GrossProfit, m.ProfitLoss.GrossLoss, m.ProfitLoss.ProfitableDaysPercent,
		m.ProfitLoss.LargestWin, m.ProfitLoss.LargestLoss,
		m.LongShort.AvgWin, m.LongShort.AvgLoss, m.LongShort.LongTrades, m.LongShort.ShortTrades,
		m.LongShort.RiskRewardRatio,
		m.Risk.MaxConsecutiveWins, m.Risk.MaxConsecutiveLosses, m.Risk.MFE, m.Risk.MAE, m.Risk.MAERatio,
	}
}
