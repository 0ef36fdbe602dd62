// Package analysis turns an aligned price table into every statistic a report shows.
package analysis

import (
	"errors"
	"fmt"

	"LeverageLens/internal/calculator"
	"LeverageLens/internal/crossing"
	"LeverageLens/internal/model"
)

// Compute runs req against table. It never mutates table and keeps no state
// between calls; sections with too little data are reported through
// Result.Notices instead of an error.
func Compute(req model.Request, table *model.PairTable) (*model.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if table == nil || table.Len() == 0 {
		return nil, errors.New("empty price table")
	}
	if err := table.Check(); err != nil {
		return nil, err
	}

	sections := req.Variant.Sections()
	n := table.Len()
	res := &model.Result{
		Request:     req,
		SymbolA:     table.SymbolA,
		SymbolB:     table.SymbolB,
		From:        table.Dates[0],
		To:          table.Dates[n-1],
		TradingDays: n,
		Dates:       table.Dates,
		A:           table.A,
		B:           table.B,
	}

	if sections.Has(model.SectionSMA | model.SectionQuadrant | model.SectionCrossing) {
		if err := computeSMA(res, req.SMAWindow); err != nil {
			return nil, err
		}
	}
	if sections.Has(model.SectionQuadrant) {
		q, err := calculator.Quadrants(res.A, res.SMAA, res.B, res.SMAB)
		if err != nil {
			res.Notice("quadrant statistics: insufficient data for a %d-day average", req.SMAWindow)
		} else {
			res.Quadrants = &q
		}
	}
	if sections.Has(model.SectionCrossing) {
		cr, err := crossingReport(res, req)
		if err != nil {
			return nil, err
		}
		res.Crossing = cr
	}
	if sections.Has(model.SectionCorrelation | model.SectionDrawdown) {
		rr, err := returnsReport(res, req)
		if err != nil {
			return nil, err
		}
		res.Returns = rr
	}
	if sections.Has(model.SectionDrawdown) {
		res.Drawdown = drawdownReport(res, req)
	}
	return res, nil
}

func computeSMA(res *model.Result, window int) error {
	var err error
	if res.SMAA, err = calculator.RollingSMA(res.A, window); err != nil {
		return fmt.Errorf("sma %s: %w", res.SymbolA, err)
	}
	if res.SMAB, err = calculator.RollingSMA(res.B, window); err != nil {
		return fmt.Errorf("sma %s: %w", res.SymbolB, err)
	}
	if res.TradingDays < window {
		res.Notice("only %d trading days, fewer than the %d-day average window", res.TradingDays, window)
	}
	return nil
}

func crossingReport(res *model.Result, req model.Request) (*model.CrossingReport, error) {
	ca, err := crossing.Detect(calculator.AboveFlags(res.Dates, res.A, res.SMAA))
	if err != nil {
		return nil, err
	}
	cb, err := crossing.Detect(calculator.AboveFlags(res.Dates, res.B, res.SMAB))
	if err != nil {
		return nil, err
	}
	cr := &model.CrossingReport{A: ca, B: cb}
	cr.UpPairs = crossing.Match(ca.Up, cb.Up, req.AlignmentDays)
	cr.DownPairs = crossing.Match(ca.Down, cb.Down, req.AlignmentDays)
	cr.Up = crossing.Classify(crossing.Offsets(cr.UpPairs), model.Upward, req.Convention)
	cr.Down = crossing.Classify(crossing.Offsets(cr.DownPairs), model.Downward, req.Convention)

	if len(ca.Up)+len(ca.Down)+len(cb.Up)+len(cb.Down) == 0 {
		res.Notice("no average crossings in the selected range")
	}
	for _, ll := range []model.LeadLag{cr.Up, cr.Down} {
		if ll.Matched == 0 {
			res.Notice("no %s crossings matched within %d days", ll.Direction, req.AlignmentDays)
		}
	}
	return cr, nil
}

func returnsReport(res *model.Result, req model.Request) (*model.ReturnsReport, error) {
	rr := &model.ReturnsReport{
		RetA: calculator.DailyReturns(res.A),
		RetB: calculator.DailyReturns(res.B),
	}
	if v, err := calculator.CumulativeReturn(res.A); err == nil {
		rr.CumulativeA = &v
	}
	if v, err := calculator.CumulativeReturn(res.B); err == nil {
		rr.CumulativeB = &v
	}
	if !res.Request.Variant.Sections().Has(model.SectionCorrelation) {
		return rr, nil
	}

	if v, err := calculator.Pearson(rr.RetA, rr.RetB); err == nil {
		rr.Correlation = &v
	} else {
		res.Notice("return correlation: insufficient data")
	}
	if v, err := calculator.Beta(rr.RetA, rr.RetB); err == nil {
		rr.Beta = &v
	} else {
		res.Notice("realized leverage: insufficient data")
	}
	lags, err := calculator.CrossCorrelation(rr.RetA, rr.RetB, req.MinLag, req.MaxLag)
	if err != nil {
		return nil, err
	}
	rr.Lags = lags
	if best, ok := calculator.BestLag(lags); ok {
		rr.BestLag = &best
	} else {
		res.Notice("lagged correlation: insufficient data for lags %d..%d", req.MinLag, req.MaxLag)
	}
	return rr, nil
}

func drawdownReport(res *model.Result, req model.Request) *model.DrawdownReport {
	dr := &model.DrawdownReport{ThresholdPct: req.DropThresholdPct}
	if dd, err := calculator.MaxDrawdown(res.Dates, res.A); err == nil {
		dr.MaxA = &dd
	}
	if dd, err := calculator.MaxDrawdown(res.Dates, res.B); err == nil {
		dr.MaxB = &dd
	}
	dr.DropsA = calculator.LargeDrops(res.Dates, res.Returns.RetA, req.DropThresholdPct)
	dr.DropsB = calculator.LargeDrops(res.Dates, res.Returns.RetB, req.DropThresholdPct)
	dr.Pairs = crossing.Match(dr.DropsA, dr.DropsB, req.AlignmentDays)
	dr.LeadLag = crossing.Classify(crossing.Offsets(dr.Pairs), model.Drop, model.ConventionConsistent)
	if len(dr.DropsA) == 0 {
		res.Notice("%s never fell %.1f%% or more in a day", res.SymbolA, req.DropThresholdPct)
	} else if dr.LeadLag.Matched == 0 {
		res.Notice("no large drops matched within %d days", req.AlignmentDays)
	}
	return dr
}
