package calculator

import (
	"errors"
	"time"

	"LeverageLens/internal/model"
)

// MaxDrawdown scans values for the largest decline from a running high.
func MaxDrawdown(dates []time.Time, values []float64) (model.Drawdown, error) {
	if len(values) == 0 || len(dates) != len(values) {
		return model.Drawdown{}, errors.New("no values provided")
	}
	var dd model.Drawdown
	peakIdx := 0
	dd.Peak, dd.Trough = dates[0], dates[0]
	for i := 1; i < len(values); i++ {
		if values[i] > values[peakIdx] {
			peakIdx = i
			continue
		}
		if values[peakIdx] == 0 {
			continue
		}
		pct := (values[i]/values[peakIdx] - 1) * 100
		if pct < dd.Pct {
			dd.Pct = pct
			dd.Peak = dates[peakIdx]
			dd.Trough = dates[i]
		}
	}
	return dd, nil
}
