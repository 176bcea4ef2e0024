package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily ratios.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// AnnualizedSharpe returns (mean/stddev) × sqrt(252) for a daily series.
// Returns nil with fewer than two points or a zero standard deviation.
func AnnualizedSharpe(daily []float64) *float64 {
	if len(daily) < 2 {
		return nil
	}

	sd := StdDev(daily)
	if sd == 0 || math.IsNaN(sd) {
		return nil
	}

	sharpe := Mean(daily) / sd * math.Sqrt(TradingDaysPerYear)
	return &sharpe
}
