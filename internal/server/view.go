package server

import (
	"time"

	"LeverageLens/internal/model"
)

// resultView is the JSON shape of /api/analyze. Undefined numbers are null.
type resultView struct {
	Success     bool          `json:"success"`
	Request     model.Request `json:"request"`
	SymbolA     string        `json:"symbol_a"`
	SymbolB     string        `json:"symbol_b"`
	From        string        `json:"from"`
	To          string        `json:"to"`
	TradingDays int           `json:"trading_days"`

	Series    seriesView           `json:"series"`
	Quadrants *model.QuadrantStats `json:"quadrants,omitempty"`
	Crossing  *crossingView        `json:"crossing,omitempty"`
	Returns   *returnsView         `json:"returns,omitempty"`
	Drawdown  *drawdownView        `json:"drawdown,omitempty"`
	Notices   []string             `json:"notices"`
}

type seriesView struct {
	Dates []string   `json:"dates"`
	A     []float64  `json:"a"`
	B     []float64  `json:"b"`
	SMAA  []*float64 `json:"sma_a,omitempty"`
	SMAB  []*float64 `json:"sma_b,omitempty"`
	RetA  []*float64 `json:"ret_a,omitempty"`
	RetB  []*float64 `json:"ret_b,omitempty"`
}

type eventsView struct {
	Up   []string `json:"up"`
	Down []string `json:"down"`
}

type pairView struct {
	A          string `json:"a"`
	B          string `json:"b"`
	OffsetDays int    `json:"offset_days"`
}

type crossingView struct {
	A         eventsView    `json:"a"`
	B         eventsView    `json:"b"`
	UpPairs   []pairView    `json:"up_pairs"`
	DownPairs []pairView    `json:"down_pairs"`
	Up        model.LeadLag `json:"up"`
	Down      model.LeadLag `json:"down"`
}

type returnsView struct {
	CumulativeA *float64               `json:"cumulative_a"`
	CumulativeB *float64               `json:"cumulative_b"`
	Correlation *float64               `json:"correlation"`
	Beta        *float64               `json:"beta"`
	Lags        []model.LagCorrelation `json:"lags"`
	BestLag     *model.LagCorrelation  `json:"best_lag"`
}

type drawdownView struct {
	ThresholdPct float64        `json:"threshold_pct"`
	MaxA         *drawdownPoint `json:"max_a"`
	MaxB         *drawdownPoint `json:"max_b"`
	DropsA       []string       `json:"drops_a"`
	DropsB       []string       `json:"drops_b"`
	Pairs        []pairView     `json:"pairs"`
	LeadLag      model.LeadLag  `json:"lead_lag"`
}

type drawdownPoint struct {
	Pct    float64 `json:"pct"`
	Peak   string  `json:"peak"`
	Trough string  `json:"trough"`
}

func newResultView(res *model.Result) resultView {
	v := resultView{
		Success:     true,
		Request:     res.Request,
		SymbolA:     res.SymbolA,
		SymbolB:     res.SymbolB,
		From:        res.From.Format(model.DateLayout),
		To:          res.To.Format(model.DateLayout),
		TradingDays: res.TradingDays,
		Series: seriesView{
			Dates: dates(res.Dates),
			A:     res.A,
			B:     res.B,
		},
		Quadrants: res.Quadrants,
		Notices:   res.Notices,
	}
	if v.Notices == nil {
		v.Notices = []string{}
	}
	if res.SMAA != nil {
		v.Series.SMAA = model.Nullable(res.SMAA)
		v.Series.SMAB = model.Nullable(res.SMAB)
	}
	if c := res.Crossing; c != nil {
		v.Crossing = &crossingView{
			A:         eventsView{Up: dates(c.A.Up), Down: dates(c.A.Down)},
			B:         eventsView{Up: dates(c.B.Up), Down: dates(c.B.Down)},
			UpPairs:   pairs(c.UpPairs),
			DownPairs: pairs(c.DownPairs),
			Up:        c.Up,
			Down:      c.Down,
		}
	}
	if r := res.Returns; r != nil {
		v.Series.RetA = model.Nullable(r.RetA)
		v.Series.RetB = model.Nullable(r.RetB)
		v.Returns = &returnsView{
			CumulativeA: r.CumulativeA,
			CumulativeB: r.CumulativeB,
			Correlation: r.Correlation,
			Beta:        r.Beta,
			Lags:        r.Lags,
			BestLag:     r.BestLag,
		}
	}
	if d := res.Drawdown; d != nil {
		v.Drawdown = &drawdownView{
			ThresholdPct: d.ThresholdPct,
			MaxA:         point(d.MaxA),
			MaxB:         point(d.MaxB),
			DropsA:       dates(d.DropsA),
			DropsB:       dates(d.DropsB),
			Pairs:        pairs(d.Pairs),
			LeadLag:      d.LeadLag,
		}
	}
	return v
}

func dates(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Format(model.DateLayout)
	}
	return out
}

func pairs(ps []model.MatchedPair) []pairView {
	out := make([]pairView, len(ps))
	for i, p := range ps {
		out[i] = pairView{A: p.A.Format(model.DateLayout), B: p.B.Format(model.DateLayout), OffsetDays: p.OffsetDays}
	}
	return out
}

func point(d *model.Drawdown) *drawdownPoint {
	if d == nil {
		return nil
	}
	return &drawdownPoint{Pct: d.Pct, Peak: d.Peak.Format(model.DateLayout), Trough: d.Trough.Format(model.DateLayout)}
}
