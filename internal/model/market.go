package model

import (
	"fmt"
	"math"
	"time"
)

// Price frame field names, as reported by the upstream data source.
const (
	FieldAdjClose = "adjclose"
	FieldClose    = "close"
)

// PriceFrame is the raw daily table returned by a fetcher for one ticker.
// Missing observations are NaN.
type PriceFrame struct {
	Symbol string
	Dates  []time.Time
	Fields map[string][]float64
}

// Has reports whether the frame carries the field with at least one value.
func (f *PriceFrame) Has(field string) bool {
	vals, ok := f.Fields[field]
	if !ok || len(vals) != len(f.Dates) {
		return false
	}
	for _, v := range vals {
		if !math.IsNaN(v) {
			return true
		}
	}
	return false
}

// PairTable is the aligned two-column close table for asset A and asset B.
// Dates are strictly increasing and every value is positive.
type PairTable struct {
	SymbolA string
	SymbolB string
	Dates   []time.Time
	A       []float64
	B       []float64
	Field   string // field the closes were taken from
}

// Len returns the number of rows.
func (t *PairTable) Len() int { return len(t.Dates) }

// Check verifies the table invariants.
func (t *PairTable) Check() error {
	if len(t.A) != len(t.Dates) || len(t.B) != len(t.Dates) {
		return fmt.Errorf("pair table: column length mismatch (%d dates, %d/%d values)", len(t.Dates), len(t.A), len(t.B))
	}
	for i := range t.Dates {
		if i > 0 && !t.Dates[i].After(t.Dates[i-1]) {
			return fmt.Errorf("pair table: dates not strictly increasing at %s", t.Dates[i].Format(DateLayout))
		}
		if !(t.A[i] > 0) || !(t.B[i] > 0) {
			return fmt.Errorf("pair table: non-positive value at %s", t.Dates[i].Format(DateLayout))
		}
	}
	return nil
}

// DateLayout is the calendar date format used across the module.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar date in its own location and returns it as UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(Day(b).Sub(Day(a)).Hours() / 24))
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
