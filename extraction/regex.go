package extraction

import (
	"context"
	"regexp"
	"strings"

	"scholar-score/models"
)

const (
	numberSign     = `[-+\x{2212}]?`
	currencySymbol = `[$\x{20ac}\x{a3}]?`
	numberDigits   = `\d+(?:[,\x{a0} ]\d{3})*(?:\.\d+)?`

	// numberPattern matches a signed report number with optional thousands groups and
	// currency symbol, or an accounting negative such as "($2,100.00)".
	numberPattern = `(\(\s*` + numberSign + currencySymbol + ` ?` + numberDigits + `\s*\)|` +
		numberSign + currencySymbol + ` ?` + numberSign + numberDigits + `)`

	// labelTail skips an optional parenthetical unit such as "($)" or "(% of total)" and the separator.
	labelTail = `(?:\s*\([^)\n]*\))?\s*[:=]?\s*`
)

// labelRule reads one metric from text. The last capture group of the first matching
// pattern holds the value.
type labelRule struct {
	patterns []*regexp.Regexp
	set      func(m *models.ExtractedMetrics, v *float64)
}

// labeled compiles a case-insensitive "label: number" pattern with an optional suffix.
func labeled(label, suffix string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + label + labelTail + numberPattern + suffix)
}

const drawdownLabel = `max(?:imal|imum|\.)?\s*drawdown`

var labelRules = []labelRule{
	{
		patterns: []*regexp.Regexp{
			labeled(drawdownLabel, `\s*%`),
			labeled(drawdownLabel, `[^\n(]*\(\s*`+numberPattern+`\s*%\s*\)`),
		},
		set: func(m *models.ExtractedMetrics, v *float64) { m.Summary.MaxDrawdownPct = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`recovery\s*factor`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.Summary.RecoveryFactor = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`profit\s*factor`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.Summary.ProfitFactor = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`trades\s*(?:per|/)\s*week`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.Summary.TradesPerWeek = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`av(?:erage|g)\.?\s*hold(?:ing)?\s*time`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.Summary.AvgHoldTimeMinutes = v },
	},
	{
		patterns: []*regexp.Regexp{
			labeled(`win\s*rate`, ""),
			labeled(`profit\s*trades`, `\s*\(\s*`+numberPattern+`\s*%\s*\)`),
		},
		set: func(m *models.ExtractedMetrics, v *float64) { m.Summary.WinRate = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`(?:expectancy|expected\s*payoff)`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.Summary.Expectancy = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`sharpe\s*ratio`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.Summary.SharpeRatio = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`net\s*profit`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.Summary.NetProfit = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`total\s*trades`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.Summary.TotalTrades = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`gross\s*profit`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.ProfitLoss.GrossProfit = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`gross\s*loss`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.ProfitLoss.GrossLoss = negative(v) },
	},
	{
		patterns: []*regexp.Regexp{labeled(`profitable\s*days`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.ProfitLoss.ProfitableDaysPercent = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`largest\s*profit(?:\s*trade)?`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.ProfitLoss.LargestWin = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`largest\s*loss(?:\s*trade)?`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.ProfitLoss.LargestLoss = negative(v) },
	},
	{
		patterns: []*regexp.Regexp{labeled(`average\s*profit(?:\s*trade)?`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.LongShort.AvgWin = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`average\s*loss(?:\s*trade)?`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.LongShort.AvgLoss = negative(v) },
	},
	{
		patterns: []*regexp.Regexp{labeled(`long(?:\s*(?:trades|positions))?`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.LongShort.LongTrades = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`short(?:\s*(?:trades|positions))?`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.LongShort.ShortTrades = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`max(?:imum|\.)?\s*consecutive\s*wins`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.Risk.MaxConsecutiveWins = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`max(?:imum|\.)?\s*consecutive\s*losses`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.Risk.MaxConsecutiveLosses = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`mae\s*ratio`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.Risk.MAERatio = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`mfe`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.Risk.MFE = v },
	},
	{
		patterns: []*regexp.Regexp{labeled(`mae`, "")},
		set:      func(m *models.ExtractedMetrics, v *float64) { m.Risk.MAE = v },
	},
}

// symbolPattern matches an upper-case ticker followed by its share of trades, e.g. "EURUSD (42.5%)".
var symbolPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9._]{2,})\s*\(\s*(\d+(?:\.\d+)?)\s*%\s*\)`)

// symbolStopWords are upper-case report words that look like tickers.
var symbolStopWords = map[string]bool{
	"LONG":  true,
	"SHORT": true,
	"TOTAL": true,
	"WON":   true,
	"MFE":   true,
	"MAE":   true,
}

// RegexExtractor reads labeled values directly from report text. It never fails;
// labels it cannot find stay nil.
type RegexExtractor struct{}

// NewRegexExtractor creates a RegexExtractor
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

// Name returns the extraction source label
func (e *RegexExtractor) Name() models.ExtractionSource {
	return models.SourceRegex
}

// Extract scans text for every known label
func (e *RegexExtractor) Extract(_ context.Context, text string) (*models.ExtractedMetrics, error) {
	m := &models.ExtractedMetrics{}

	for _, rule := range labelRules {
		for _, re := range rule.patterns {
			match := re.FindStringSubmatch(text)
			if match == nil {
				continue
			}
			if v := ParseNumber(match[len(match)-1]); v != nil {
				rule.set(m, v)
				break
			}
		}
	}

	m.Symbols.Concentration = symbolShares(text)
	return m, nil
}

func symbolShares(text string) []models.SymbolShare {
	var shares []models.SymbolShare
	seen := make(map[string]bool)

	for _, match := range symbolPattern.FindAllStringSubmatch(text, -1) {
		symbol := match[1]
		if symbolStopWords[strings.ToUpper(symbol)] || seen[symbol] {
			continue
		}
		pct := ParseNumber(match[2])
		if pct == nil || *pct <= 0 || *pct > 100 {
			continue
		}
		seen[symbol] = true
		shares = append(shares, models.SymbolShare{Symbol: symbol, Percent: *pct})
	}
	return shares
}
