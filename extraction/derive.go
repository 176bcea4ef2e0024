package extraction

import (
	"scholar-score/formulas"
	"scholar-score/models"
)

// Derive fills metrics that were not stated but can be computed from ones that were.
// A field is only filled when it is nil and every input it needs is present, so
// stated values always win. Derive is idempotent.
func Derive(m *models.ExtractedMetrics) {
	if m == nil {
		return
	}
	s, pl, ls, r := &m.Summary, &m.ProfitLoss, &m.LongShort, &m.Risk

	if s.NetProfit == nil {
		if gp, gl, ok := both(pl.GrossProfit, pl.GrossLoss); ok {
			s.NetProfit = models.Float(gp - abs(gl))
		}
	}

	if s.TotalTrades == nil {
		if long, short, ok := both(ls.LongTrades, ls.ShortTrades); ok {
			s.TotalTrades = models.Float(long + short)
		}
	}

	if ls.RiskRewardRatio == nil {
		if win, loss, ok := both(ls.AvgWin, ls.AvgLoss); ok && loss != 0 {
			ls.RiskRewardRatio = models.Float(win / abs(loss))
		}
	}

	if s.Expectancy == nil {
		if win, loss, ok := both(ls.AvgWin, ls.AvgLoss); ok {
			if wr, ok := formulas.Value(s.WinRate); ok {
				frac := formulas.Clamp(wr/100, 0, 1)
				s.Expectancy = models.Float(frac*win + (1-frac)*-abs(loss))
			}
		}
	}

	if r.MAERatio == nil {
		if mfe, mae, ok := both(r.MFE, r.MAE); ok && mfe != 0 {
			r.MAERatio = models.Float(abs(mae) / abs(mfe))
		}
	}

	if s.SharpeRatio == nil {
		s.SharpeRatio = formulas.AnnualizedSharpe(pl.DailyPnL)
	}

	if pl.ProfitableDaysPercent == nil {
		pl.ProfitableDaysPercent = profitableDays(pl.DailyPnL)
	}
}

func profitableDays(days []float64) *float64 {
	var kept, positive int
	for _, d := range days {
		if d == 0 || !formulas.Finite(d) {
			continue
		}
		kept++
		if d > 0 {
			positive++
		}
	}
	if kept == 0 {
		return nil
	}
	return models.Float(float64(positive) / float64(kept) * 100)
}
