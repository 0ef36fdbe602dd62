package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dates(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
	}
	return out
}

func TestRollingSMA(t *testing.T) {
	sma, err := RollingSMA([]float64{1, 2, 3, 4, 5, 6}, 3)
	require.NoError(t, err)
	require.Len(t, sma, 6)
	assert.True(t, math.IsNaN(sma[0]))
	assert.True(t, math.IsNaN(sma[1]))
	assert.InDelta(t, 2.0, sma[2], 1e-9)
	assert.InDelta(t, 3.0, sma[3], 1e-9)
	assert.InDelta(t, 5.0, sma[5], 1e-9)
}

func TestRollingSMA_LengthAndWarmup(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = 100 + float64(i%7)
	}
	for _, window := range []int{1, 5, 20, 40, 60} {
		sma, err := RollingSMA(values, window)
		require.NoError(t, err)
		assert.Len(t, sma, len(values))
		undefined := 0
		for _, v := range sma {
			if math.IsNaN(v) {
				undefined++
			}
		}
		assert.Equal(t, min(window-1, len(values)), undefined, "window %d", window)
	}
}

func TestRollingSMA_Invalid(t *testing.T) {
	_, err := RollingSMA([]float64{1, 2}, 0)
	assert.Error(t, err)
	_, err = RollingSMA([]float64{1, math.NaN()}, 1)
	assert.Error(t, err)
}

func TestAboveFlags_SkipsWarmup(t *testing.T) {
	d := dates(4)
	fs := AboveFlags(d, []float64{5, 5, 7, 3}, []float64{math.NaN(), 5, 6, 4})
	assert.Equal(t, d[1:], fs.Dates)
	assert.Equal(t, []bool{false, true, false}, fs.Above)
}

func TestQuadrants(t *testing.T) {
	nan := math.NaN()
	a := []float64{10, 10, 12, 12, 9}
	avgA := []float64{nan, 11, 11, 11, 10}
	b := []float64{20, 18, 18, 25, 26}
	avgB := []float64{nan, 19, 20, 20, 25}
	q, err := Quadrants(a, avgA, b, avgB)
	require.NoError(t, err)
	assert.Equal(t, 4, q.Days)
	assert.Equal(t, 1, q.BothBelow)
	assert.Equal(t, 1, q.BBelowAAbove)
	assert.Equal(t, 1, q.BAboveABelow)
	assert.Equal(t, 1, q.BothAbove)
	assert.InDelta(t, 100.0, q.BothBelowPct+q.BBelowAPct+q.BAboveAPct+q.BothAbovePct, 1e-9)
}

func TestQuadrants_NoDefinedDays(t *testing.T) {
	nan := math.NaN()
	_, err := Quadrants([]float64{1}, []float64{nan}, []float64{1}, []float64{nan})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestDailyReturns(t *testing.T) {
	r := DailyReturns([]float64{100, 110, 99})
	assert.True(t, math.IsNaN(r[0]))
	assert.InDelta(t, 10.0, r[1], 1e-9)
	assert.InDelta(t, -10.0, r[2], 1e-9)
}

func TestCumulativeReturn(t *testing.T) {
	c, err := CumulativeReturn([]float64{50, 60, 75})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, c, 1e-9)

	_, err = CumulativeReturn([]float64{50})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestLargeDrops(t *testing.T) {
	d := dates(5)
	got := LargeDrops(d, []float64{math.NaN(), -3, -2.9, 1, -7}, 3)
	assert.Equal(t, []time.Time{d[1], d[4]}, got)
}

func TestPearsonAndBeta(t *testing.T) {
	a := []float64{math.NaN(), 1, -1, 2, -2, 0.5}
	b := []float64{math.NaN(), 2, -2, 4, -4, 1}
	c, err := Pearson(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c, 1e-9)

	beta, err := Beta(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, beta, 1e-9)
}

func TestPearson_ZeroVariance(t *testing.T) {
	_, err := Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = Beta([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCrossCorrelation_FindsShift(t *testing.T) {
	a := []float64{1, -2, 3, 0.5, -1, 2, -3, 1.5, 0, -0.5, 2.5, -1.5}
	// b repeats a two steps later
	b := make([]float64, len(a))
	for i := range b {
		if i < 2 {
			b[i] = 0.1 * float64(i)
			continue
		}
		b[i] = a[i-2]
	}
	lags, err := CrossCorrelation(a, b, -3, 3)
	require.NoError(t, err)
	require.Len(t, lags, 7)
	assert.Equal(t, -3, lags[0].Lag)

	best, ok := BestLag(lags)
	require.True(t, ok)
	assert.Equal(t, 2, best.Lag)
	assert.InDelta(t, 1.0, *best.Correlation, 1e-9)
}

func TestCrossCorrelation_BadBounds(t *testing.T) {
	_, err := CrossCorrelation([]float64{1}, []float64{1}, 2, 1)
	assert.Error(t, err)
}

func TestBestLag_NoneDefined(t *testing.T) {
	lags, err := CrossCorrelation([]float64{1}, []float64{1}, -1, 1)
	require.NoError(t, err)
	_, ok := BestLag(lags)
	assert.False(t, ok)
}

func TestMaxDrawdown(t *testing.T) {
	d := dates(6)
	dd, err := MaxDrawdown(d, []float64{100, 120, 90, 110, 60, 130})
	require.NoError(t, err)
	assert.InDelta(t, -50.0, dd.Pct, 1e-9)
	assert.Equal(t, d[1], dd.Peak)
	assert.Equal(t, d[4], dd.Trough)

	dd, err = MaxDrawdown(d[:3], []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Zero(t, dd.Pct)

	_, err = MaxDrawdown(nil, nil)
	assert.Error(t, err)
}
