package collector

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"LeverageLens/internal/model"
)

// PairSource loads the aligned close table of two symbols. It is the only
// place that knows about upstream field names: adjusted closes are preferred,
// plain closes are the fallback, anything else is ErrDataUnavailable.
//
// Results are cached per requested date range for the life of the process.
type PairSource struct {
	Fetcher Fetcher
	SymbolA string
	SymbolB string

	mu    sync.Mutex
	cache map[string]*model.PairTable
}

// NewPairSource creates a new PairSource.
func NewPairSource(fetcher Fetcher, symbolA, symbolB string) *PairSource {
	return &PairSource{
		Fetcher: fetcher,
		SymbolA: symbolA,
		SymbolB: symbolB,
		cache:   map[string]*model.PairTable{},
	}
}

// Load returns the table for [start, end]. The returned table is shared and must not be modified.
func (s *PairSource) Load(ctx context.Context, start, end time.Time) (*model.PairTable, error) {
	key := start.Format(model.DateLayout) + "|" + end.Format(model.DateLayout)

	s.mu.Lock()
	if t, ok := s.cache[key]; ok {
		s.mu.Unlock()
		log.Debugf("pair table cache hit %s", key)
		return t, nil
	}
	s.mu.Unlock()

	frameA, err := s.Fetcher.FetchDaily(ctx, s.SymbolA, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.SymbolA, err)
	}
	frameB, err := s.Fetcher.FetchDaily(ctx, s.SymbolB, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.SymbolB, err)
	}

	table, err := Align(frameA, frameB)
	if err != nil {
		return nil, err
	}
	log.Infof("loaded %d rows for %s/%s from %s (%s)", table.Len(), s.SymbolA, s.SymbolB, s.Fetcher.Name(), table.Field)

	s.mu.Lock()
	s.cache[key] = table
	s.mu.Unlock()
	return table, nil
}

// PickCloses returns the adjusted closes of frame, or its closes when no adjusted column exists.
func PickCloses(frame *model.PriceFrame) (string, []float64, error) {
	for _, field := range []string{model.FieldAdjClose, model.FieldClose} {
		if frame.Has(field) {
			return field, frame.Fields[field], nil
		}
	}
	return "", nil, fmt.Errorf("%w: %s has neither %s nor %s", ErrDataUnavailable, frame.Symbol, model.FieldAdjClose, model.FieldClose)
}

// Align joins two frames on date, dropping rows where either close is missing or non-positive.
func Align(frameA, frameB *model.PriceFrame) (*model.PairTable, error) {
	fieldA, closesA, err := PickCloses(frameA)
	if err != nil {
		return nil, err
	}
	fieldB, closesB, err := PickCloses(frameB)
	if err != nil {
		return nil, err
	}

	byDate := make(map[time.Time]float64, len(frameB.Dates))
	for i, d := range frameB.Dates {
		if usable(closesB[i]) {
			byDate[model.Day(d)] = closesB[i]
		}
	}

	table := &model.PairTable{SymbolA: frameA.Symbol, SymbolB: frameB.Symbol, Field: fieldA}
	if fieldA != fieldB {
		table.Field = fieldA + "/" + fieldB
	}
	for i, d := range frameA.Dates {
		day := model.Day(d)
		b, ok := byDate[day]
		if !ok || !usable(closesA[i]) {
			continue
		}
		if n := len(table.Dates); n > 0 && !day.After(table.Dates[n-1]) {
			// duplicate session, keep the later row
			if day.Equal(table.Dates[n-1]) {
				table.A[n-1], table.B[n-1] = closesA[i], b
			}
			continue
		}
		table.Dates = append(table.Dates, day)
		table.A = append(table.A, closesA[i])
		table.B = append(table.B, b)
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("%w: no overlapping dates for %s and %s", ErrDataUnavailable, frameA.Symbol, frameB.Symbol)
	}
	return table, nil
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
