package extraction

import (
	"fmt"

	"github.com/tidwall/gjson"

	"scholar-score/formulas"
	"scholar-score/models"
)

const (
	secondsPerWeek = 7 * 24 * 60 * 60

	// Balance chart timestamps above this are milliseconds since the epoch.
	millisecondThreshold = 1e12
)

// FromJSON extracts metrics from an MT5 broker JSON export.
//
// The root may be an object or an array whose first element is the report object.
// Documents already in the canonical metrics shape (for example a previously returned
// extractedData block) are read field by field instead of through the broker paths.
func FromJSON(data []byte) (*models.ExtractedMetrics, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrMalformedJSON
	}

	root := gjson.ParseBytes(data)
	if root.IsArray() {
		items := root.Array()
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: empty array", ErrEmptyInput)
		}
		root = items[0]
	}
	if !root.IsObject() {
		return nil, ErrEmptyInput
	}

	if isCanonical(root) {
		m := FromCanonical(root)
		Derive(m)
		return m, nil
	}

	m := fromBrokerReport(root)
	Derive(m)
	return m, nil
}

func fromBrokerReport(root gjson.Result) *models.ExtractedMetrics {
	m := &models.ExtractedMetrics{}

	if dd := number(root.Get("growth.drawdown")); dd != nil {
		m.Summary.MaxDrawdownPct = models.Float(*dd * 100)
	}
	m.Summary.ProfitFactor = number(root.Get("symbolIndicators.profit_factor.0.1"))

	m.LongShort.LongTrades = number(root.Get("longShortTotal.long"))
	m.LongShort.ShortTrades = number(root.Get("longShortTotal.short"))
	if long, short, ok := both(m.LongShort.LongTrades, m.LongShort.ShortTrades); ok {
		m.Summary.TotalTrades = models.Float(long + short)
		if weeks, ok := balanceSpanWeeks(root.Get("balance.chart")); ok {
			m.Summary.TradesPerWeek = models.Float((long + short) / weeks)
		}
	}

	m.ProfitLoss.GrossProfit = firstNumber(root, "profitTotal.profit", "profitTotal.profit_gross")
	m.ProfitLoss.GrossLoss = negative(firstNumber(root, "profitTotal.loss", "profitTotal.loss_gross"))
	if gp, gl, ok := both(m.ProfitLoss.GrossProfit, m.ProfitLoss.GrossLoss); ok {
		m.Summary.NetProfit = models.Float(gp + gl)
	}

	m.Summary.RecoveryFactor = recoveryFactor(root, m)
	m.ProfitLoss.DailyPnL = dailyPnL(root.Get("profitMoney.profit"), root.Get("profitMoney.loss"))

	ind := root.Get("longShortIndicators")
	m.LongShort.AvgWin = firstMatching(ind.Get("average_profit"), func(v float64) bool { return v > 0 })
	isLoss := func(v float64) bool { return v < 0 }
	if m.LongShort.AvgLoss = firstMatching(ind.Get("average_loss"), isLoss); m.LongShort.AvgLoss == nil {
		m.LongShort.AvgLoss = firstMatching(ind.Get("average_pl"), isLoss)
	}
	m.Summary.WinRate = winRate(ind.Get("win_trades"))
	m.ProfitLoss.LargestWin = extreme(ind.Get("best_trade"), func(a, b float64) bool { return a > b })
	m.ProfitLoss.LargestLoss = extreme(ind.Get("worst_trade"), func(a, b float64) bool { return a < b })

	risks := root.Get("risksIndicators")
	m.Risk.MaxConsecutiveWins = number(risks.Get("max_consecutive_trades.0"))
	m.Risk.MaxConsecutiveLosses = number(risks.Get("max_consecutive_trades.1"))
	if hold := firstNumber(risks, "average_holding_time", "average_holding_time.0"); hold != nil {
		m.Summary.AvgHoldTimeMinutes = models.Float(*hold / 60)
	}

	m.Risk.MFE, m.Risk.MAE = excursions(root.Get("risksMfeMaeMoney.chart"))
	m.Symbols.Concentration = concentration(root.Get("symbolsTotal.total"))

	return m
}

// number reads a numeric value, accepting JSON numbers and numeric strings.
func number(r gjson.Result) *float64 {
	switch r.Type {
	case gjson.Number:
		if !formulas.Finite(r.Num) {
			return nil
		}
		v := r.Num
		return &v
	case gjson.String:
		return ParseNumber(r.Str)
	default:
		return nil
	}
}

// firstNumber returns the first path under root that holds a number.
func firstNumber(root gjson.Result, paths ...string) *float64 {
	for _, path := range paths {
		if v := number(root.Get(path)); v != nil {
			return v
		}
	}
	return nil
}

func firstMatching(list gjson.Result, keep func(float64) bool) *float64 {
	for _, item := range list.Array() {
		if v := number(item); v != nil && keep(*v) {
			return v
		}
	}
	return nil
}

func extreme(list gjson.Result, better func(a, b float64) bool) *float64 {
	var best *float64
	for _, item := range list.Array() {
		if v := number(item); v != nil && (best == nil || better(*v, *best)) {
			best = v
		}
	}
	return best
}

func both(a, b *float64) (float64, float64, bool) {
	av, aok := formulas.Value(a)
	bv, bok := formulas.Value(b)
	return av, bv, aok && bok
}

func balanceSpanWeeks(chart gjson.Result) (float64, bool) {
	points := chart.Array()
	if len(points) < 2 {
		return 0, false
	}
	first := number(points[0].Get("x"))
	last := number(points[len(points)-1].Get("x"))
	if first == nil || last == nil {
		return 0, false
	}

	weeks := (epochSeconds(*last) - epochSeconds(*first)) / secondsPerWeek
	return weeks, weeks > 0
}

func epochSeconds(ts float64) float64 {
	if ts > millisecondThreshold {
		return ts / 1000
	}
	return ts
}

// recoveryFactor is |net profit| over the drawdown amount in account currency.
// It needs an initial balance; there is no assumed default.
func recoveryFactor(root gjson.Result, m *models.ExtractedMetrics) *float64 {
	net, ok := formulas.Value(m.Summary.NetProfit)
	if !ok {
		return nil
	}
	dd, ok := formulas.Value(m.Summary.MaxDrawdownPct)
	if !ok || dd <= 0 {
		return nil
	}

	var balance float64
	for _, path := range []string{"evaluation.metrics.initial_balance", "balance.balance"} {
		if v := number(root.Get(path)); v != nil && *v > 0 {
			balance = *v
			break
		}
	}

	amount := dd / 100 * balance
	if amount <= 0 {
		return nil
	}
	return models.Float(abs(net) / amount)
}

// dailyPnL pairs the profit and loss series index by index and keeps non-zero days.
func dailyPnL(profits, losses gjson.Result) []float64 {
	if !profits.IsArray() || !losses.IsArray() {
		return nil
	}
	p, l := profits.Array(), losses.Array()
	n := min(len(p), len(l))

	var days []float64
	for i := 0; i < n; i++ {
		var day float64
		if v := number(p[i].Get("y.0")); v != nil {
			day += *v
		}
		if v := number(l[i].Get("y.0")); v != nil {
			day += *v
		}
		if day != 0 {
			days = append(days, day)
		}
	}
	return days
}

// winRate averages the per-direction win fractions, as a percentage.
func winRate(shares gjson.Result) *float64 {
	var sum float64
	var count int
	for _, item := range shares.Array() {
		v := number(item)
		if v == nil || *v < 0 || *v > 1 {
			continue
		}
		sum += *v
		count++
	}
	if count == 0 {
		return nil
	}
	return models.Float(sum / float64(count) * 100)
}

// excursions sums MFE and MAE magnitudes over every point in the nested chart series.
// Each point carries y = [profit, mfe, loss, mae].
func excursions(chart gjson.Result) (mfe, mae *float64) {
	var totalMFE, totalMAE float64
	var count int
	for _, series := range chart.Array() {
		for _, point := range series.Array() {
			y := point.Get("y").Array()
			if len(y) < 4 {
				continue
			}
			var fav, adv float64
			if v := number(y[1]); v != nil {
				fav = abs(*v)
			}
			if v := number(y[3]); v != nil {
				adv = abs(*v)
			}
			if fav == 0 && adv == 0 {
				continue
			}
			totalMFE += fav
			totalMAE += adv
			count++
		}
	}
	if count == 0 {
		return nil, nil
	}
	return models.Float(totalMFE), models.Float(totalMAE)
}

// concentration converts [symbol, _, trades] rows into percentages of all trades.
func concentration(rows gjson.Result) []models.SymbolShare {
	type row struct {
		symbol string
		trades float64
	}

	var parsed []row
	var total float64
	for _, r := range rows.Array() {
		cols := r.Array()
		if len(cols) < 3 || cols[0].String() == "" {
			continue
		}
		var trades float64
		if v := number(cols[2]); v != nil && *v > 0 {
			trades = *v
		}
		parsed = append(parsed, row{symbol: cols[0].String(), trades: trades})
		total += trades
	}
	if total <= 0 {
		return nil
	}

	shares := make([]models.SymbolShare, 0, len(parsed))
	for _, r := range parsed {
		shares = append(shares, models.SymbolShare{
			Symbol:  r.symbol,
			Percent: r.trades / total * 100,
		})
	}
	return shares
}
