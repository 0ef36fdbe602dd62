package calculator

import (
	"errors"
	"math"

	"LeverageLens/internal/model"
)

// Pearson returns the correlation of x and y over the indices where both are defined.
func Pearson(x, y []float64) (float64, error) {
	mx, my, n := pairedMeans(x, y)
	if n < 2 {
		return 0, ErrInsufficientData
	}
	var sxy, sxx, syy float64
	for i := 0; i < min(len(x), len(y)); i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, ErrInsufficientData
	}
	return sxy / math.Sqrt(sxx*syy), nil
}

// Beta returns cov(a, b) / var(a), the realized multiple of b against a.
func Beta(a, b []float64) (float64, error) {
	ma, mb, n := pairedMeans(a, b)
	if n < 2 {
		return 0, ErrInsufficientData
	}
	var cov, va float64
	for i := 0; i < min(len(a), len(b)); i++ {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		cov += (a[i] - ma) * (b[i] - mb)
		va += (a[i] - ma) * (a[i] - ma)
	}
	if va == 0 {
		return 0, ErrInsufficientData
	}
	return cov / va, nil
}

// CrossCorrelation correlates a[t] with b[t+lag] for every lag in [minLag, maxLag].
// Lags with too little overlap carry a nil correlation.
func CrossCorrelation(a, b []float64, minLag, maxLag int) ([]model.LagCorrelation, error) {
	if minLag > maxLag {
		return nil, errors.New("min lag greater than max lag")
	}
	out := make([]model.LagCorrelation, 0, maxLag-minLag+1)
	for lag := minLag; lag <= maxLag; lag++ {
		xs, ys := shifted(a, b, lag)
		lc := model.LagCorrelation{Lag: lag, Samples: definedPairs(xs, ys)}
		if c, err := Pearson(xs, ys); err == nil {
			lc.Correlation = &c
		}
		out = append(out, lc)
	}
	return out, nil
}

// BestLag picks the lag with the highest correlation; ties go to the smaller |lag|.
func BestLag(lags []model.LagCorrelation) (model.LagCorrelation, bool) {
	var best model.LagCorrelation
	found := false
	for _, lc := range lags {
		if lc.Correlation == nil {
			continue
		}
		if !found || *lc.Correlation > *best.Correlation ||
			(*lc.Correlation == *best.Correlation && abs(lc.Lag) < abs(best.Lag)) {
			best = lc
			found = true
		}
	}
	return best, found
}

func shifted(a, b []float64, lag int) ([]float64, []float64) {
	var xs, ys []float64
	for t := range a {
		j := t + lag
		if j < 0 || j >= len(b) {
			continue
		}
		xs = append(xs, a[t])
		ys = append(ys, b[j])
	}
	return xs, ys
}

func pairedMeans(x, y []float64) (mx, my float64, n int) {
	for i := 0; i < min(len(x), len(y)); i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		mx += x[i]
		my += y[i]
		n++
	}
	if n > 0 {
		mx /= float64(n)
		my /= float64(n)
	}
	return mx, my, n
}

func definedPairs(x, y []float64) int {
	_, _, n := pairedMeans(x, y)
	return n
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
