package collector

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"LeverageLens/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols without a fixed frame get a deterministic synthetic walk whose
// daily moves are scaled by Multiples[symbol] (default 1).
type MockFetcher struct {
	Frames    map[string]*model.PriceFrame
	Multiples map[string]float64
	BasePrice float64
	Calls     int

	mu sync.Mutex
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDaily(_ context.Context, symbol string, start, end time.Time) (*model.PriceFrame, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if f, ok := m.Frames[symbol]; ok {
		return clip(f, start, end), nil
	}
	if m.Frames != nil {
		return nil, fmt.Errorf("%w: unknown symbol %s", ErrDataUnavailable, symbol)
	}
	multiple := 1.0
	if v, ok := m.Multiples[symbol]; ok {
		multiple = v
	}
	base := m.BasePrice
	if base <= 0 {
		base = 100
	}
	return generateMockFrame(symbol, start, end, base, multiple), nil
}

func clip(f *model.PriceFrame, start, end time.Time) *model.PriceFrame {
	out := &model.PriceFrame{Symbol: f.Symbol, Fields: map[string][]float64{}}
	for i, d := range f.Dates {
		if d.Before(model.Day(start)) || d.After(model.Day(end)) {
			continue
		}
		out.Dates = append(out.Dates, d)
		for name, vals := range f.Fields {
			out.Fields[name] = append(out.Fields[name], vals[i])
		}
	}
	return out
}

// generateMockFrame walks weekdays from start to end. Moves come from two
// slow sine waves so the series crosses its averages regularly.
func generateMockFrame(symbol string, start, end time.Time, basePrice, multiple float64) *model.PriceFrame {
	frame := &model.PriceFrame{Symbol: symbol, Fields: map[string][]float64{}}
	price := basePrice
	step := 0
	for d := model.Day(start); !d.After(model.Day(end)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		move := 0.012*math.Sin(float64(step)/9) + 0.007*math.Sin(float64(step)/23+1) + 0.0004
		price *= 1 + move*multiple
		frame.Dates = append(frame.Dates, d)
		frame.Fields[model.FieldAdjClose] = append(frame.Fields[model.FieldAdjClose], price)
		frame.Fields[model.FieldClose] = append(frame.Fields[model.FieldClose], price)
		step++
	}
	return frame
}
