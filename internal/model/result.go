package model

import (
	"fmt"
	"time"
)

// Result is everything one analysis run derives from a PairTable.
// Sections not enabled by the request's variant are nil.
type Result struct {
	Request     Request
	SymbolA     string
	SymbolB     string
	From        time.Time
	To          time.Time
	TradingDays int

	Dates []time.Time
	A     []float64
	B     []float64

	// SMA series keep the input length; warm-up entries are NaN.
	SMAA []float64
	SMAB []float64

	Quadrants *QuadrantStats
	Crossing  *CrossingReport
	Returns   *ReturnsReport
	Drawdown  *DrawdownReport

	// Notices explain sections that had too little data to say anything.
	Notices []string
}

// CrossingReport holds SMA crossing events and their lead/lag statistics.
type CrossingReport struct {
	A         Crossings
	B         Crossings
	UpPairs   []MatchedPair
	DownPairs []MatchedPair
	Up        LeadLag
	Down      LeadLag
}

// ReturnsReport summarises daily returns of both assets.
type ReturnsReport struct {
	RetA        []float64 // percent, first entry NaN
	RetB        []float64
	CumulativeA *float64
	CumulativeB *float64
	Correlation *float64
	Beta        *float64 // realized leverage of B against A
	Lags        []LagCorrelation
	BestLag     *LagCorrelation
}

// DrawdownReport aligns large single-day drops of both assets.
type DrawdownReport struct {
	ThresholdPct float64
	MaxA         *Drawdown
	MaxB         *Drawdown
	DropsA       []time.Time
	DropsB       []time.Time
	Pairs        []MatchedPair
	LeadLag      LeadLag
}

// Drawdown describes the deepest peak-to-trough decline of a series.
type Drawdown struct {
	Pct    float64   `json:"pct"` // negative percent, 0 when the series never declines
	Peak   time.Time `json:"peak"`
	Trough time.Time `json:"trough"`
}

// Notice appends an insufficient-data message.
func (r *Result) Notice(format string, args ...interface{}) {
	r.Notices = append(r.Notices, fmt.Sprintf(format, args...))
}
