package calculator

import (
	"math"
	"time"
)

// DailyReturns returns percent changes between consecutive values. The first entry is NaN.
func DailyReturns(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 || values[i-1] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (values[i]/values[i-1] - 1) * 100
	}
	return out
}

// CumulativeReturn returns the percent change from the first to the last value.
func CumulativeReturn(values []float64) (float64, error) {
	if len(values) < 2 || values[0] == 0 {
		return 0, ErrInsufficientData
	}
	return (values[len(values)-1]/values[0] - 1) * 100, nil
}

// LargeDrops returns the dates whose daily return is at or below -thresholdPct.
func LargeDrops(dates []time.Time, returns []float64, thresholdPct float64) []time.Time {
	var out []time.Time
	for i := range dates {
		if i >= len(returns) || math.IsNaN(returns[i]) {
			continue
		}
		if returns[i] <= -thresholdPct {
			out = append(out, dates[i])
		}
	}
	return out
}
