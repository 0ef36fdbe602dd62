package calculator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"LeverageLens/internal/model"
)

// ErrInsufficientData is returned when a statistic has too few usable observations.
var ErrInsufficientData = errors.New("insufficient data")

// RollingSMA computes the simple moving average series of values over window.
// The result has the same length as values; the first window-1 entries are NaN.
func RollingSMA(values []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	series := techan.NewTimeSeries()
	epoch := time.Unix(0, 0).UTC()
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("value at index %d is not finite", i)
		}
		candle := techan.NewCandle(techan.NewTimePeriod(epoch.AddDate(0, 0, i), 24*time.Hour))
		candle.ClosePrice = big.NewDecimal(v)
		series.AddCandle(candle)
	}

	sma := techan.NewSimpleMovingAverage(techan.NewClosePriceIndicator(series), window)
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sma.Calculate(i).Float()
	}
	return out, nil
}

// AboveFlags marks the dates where values exceed their average.
// Dates with an undefined average are left out.
func AboveFlags(dates []time.Time, values, avg []float64) model.FlagSeries {
	var fs model.FlagSeries
	for i := range dates {
		if i >= len(values) || i >= len(avg) || math.IsNaN(avg[i]) {
			continue
		}
		fs.Dates = append(fs.Dates, dates[i])
		fs.Above = append(fs.Above, values[i] > avg[i])
	}
	return fs
}

// Quadrants counts days in each above/below combination of A and B.
// Only days where both averages are defined count. A price equal to its
// average is neither above nor below: the day counts toward Days but no quadrant.
func Quadrants(a, avgA, b, avgB []float64) (model.QuadrantStats, error) {
	var q model.QuadrantStats
	n := min(len(a), len(avgA), len(b), len(avgB))
	for i := 0; i < n; i++ {
		if math.IsNaN(avgA[i]) || math.IsNaN(avgB[i]) {
			continue
		}
		q.Days++
		aAbove, aBelow := a[i] > avgA[i], a[i] < avgA[i]
		bAbove, bBelow := b[i] > avgB[i], b[i] < avgB[i]
		switch {
		case bBelow && aBelow:
			q.BothBelow++
		case bBelow && aAbove:
			q.BBelowAAbove++
		case bAbove && aBelow:
			q.BAboveABelow++
		case bAbove && aAbove:
			q.BothAbove++
		}
	}
	if q.Days == 0 {
		return q, ErrInsufficientData
	}
	total := float64(q.Days)
	q.BothBelowPct = float64(q.BothBelow) / total * 100
	q.BBelowAPct = float64(q.BBelowAAbove) / total * 100
	q.BAboveAPct = float64(q.BAboveABelow) / total * 100
	q.BothAbovePct = float64(q.BothAbove) / total * 100
	return q, nil
}
