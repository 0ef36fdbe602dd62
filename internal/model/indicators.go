package model

import (
	"math"
	"time"
)

// Direction tags a crossing event.
type Direction string

const (
	Upward   Direction = "up"
	Downward Direction = "down"
	Drop     Direction = "drop" // large single-day decline
)

// FlagSeries is a date-ordered boolean series, true when price is above its average.
type FlagSeries struct {
	Dates []time.Time
	Above []bool
}

// Crossings holds the transition dates of one flag series.
type Crossings struct {
	Up   []time.Time
	Down []time.Time
}

// Events returns the crossing dates for the given direction.
func (c Crossings) Events(dir Direction) []time.Time {
	if dir == Downward {
		return c.Down
	}
	return c.Up
}

// MatchedPair links an A event to its nearest B event.
type MatchedPair struct {
	A          time.Time `json:"a"`
	B          time.Time `json:"b"`
	OffsetDays int       `json:"offset_days"` // B minus A
}

// LeadLag is the bucketed view of matched offsets for one direction.
// Percentages are nil when Matched is zero.
type LeadLag struct {
	Direction       Direction `json:"direction"`
	Matched         int       `json:"matched"`
	ALeads          int       `json:"a_leads"`
	BLeads          int       `json:"b_leads"`
	Simultaneous    int       `json:"simultaneous"`
	ALeadsPct       *float64  `json:"a_leads_pct"`
	BLeadsPct       *float64  `json:"b_leads_pct"`
	SimultaneousPct *float64  `json:"simultaneous_pct"`
}

// LagCorrelation is the return correlation of A at t against B at t+Lag.
type LagCorrelation struct {
	Lag         int      `json:"lag"`
	Samples     int      `json:"samples"`
	Correlation *float64 `json:"correlation"`
}

// QuadrantStats counts days in each combination of A/B above or below their averages.
type QuadrantStats struct {
	Days         int     `json:"days"`
	BothBelow    int     `json:"both_below"`
	BBelowAAbove int     `json:"b_below_a_above"`
	BAboveABelow int     `json:"b_above_a_below"`
	BothAbove    int     `json:"both_above"`
	BothBelowPct float64 `json:"both_below_pct"`
	BBelowAPct   float64 `json:"b_below_a_above_pct"`
	BAboveAPct   float64 `json:"b_above_a_below_pct"`
	BothAbovePct float64 `json:"both_above_pct"`
}

// Nullable converts NaN entries to nil for JSON and optional columns.
func Nullable(vals []float64) []*float64 {
	out := make([]*float64, len(vals))
	for i, v := range vals {
		out[i] = Ptr(v)
	}
	return out
}

// Ptr returns nil for NaN and a pointer to v otherwise.
func Ptr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
