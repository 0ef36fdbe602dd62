package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRequest is returned when analysis parameters are out of range.
var ErrInvalidRequest = errors.New("invalid request")

// SignConvention decides how a matched offset maps to a leader.
type SignConvention string

const (
	// ConventionConsistent: positive offset means A moved first, for every direction.
	ConventionConsistent SignConvention = "consistent"
	// ConventionFlipDownward: as consistent for upward crossings, inverted for downward ones.
	ConventionFlipDownward SignConvention = "flip-downward"
)

// ParseConvention parses a sign convention name; empty means consistent.
func ParseConvention(s string) (SignConvention, error) {
	switch SignConvention(strings.ToLower(strings.TrimSpace(s))) {
	case "", ConventionConsistent:
		return ConventionConsistent, nil
	case ConventionFlipDownward:
		return ConventionFlipDownward, nil
	default:
		return "", fmt.Errorf("%w: unknown sign convention %q", ErrInvalidRequest, s)
	}
}

// Section is a bit set of report sections.
type Section uint

const (
	SectionPrices Section = 1 << iota
	SectionSMA
	SectionQuadrant
	SectionCrossing
	SectionCorrelation
	SectionDrawdown
)

// Has reports whether s includes other.
func (s Section) Has(other Section) bool { return s&other != 0 }

// Variant is a named dashboard preset.
type Variant string

const (
	VariantPrices      Variant = "prices"
	VariantQuadrant    Variant = "quadrant"
	VariantCrossing    Variant = "crossing"
	VariantCorrelation Variant = "correlation"
	VariantDrawdown    Variant = "drawdown"
	VariantFull        Variant = "full"
)

// Variants lists all presets in display order.
var Variants = []Variant{VariantPrices, VariantQuadrant, VariantCrossing, VariantCorrelation, VariantDrawdown, VariantFull}

// ParseVariant parses a variant name; empty means full.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return VariantFull, nil
	}
	for _, known := range Variants {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: unknown variant %q", ErrInvalidRequest, s)
}

// Sections returns the report sections the variant renders.
func (v Variant) Sections() Section {
	switch v {
	case VariantPrices:
		return SectionPrices
	case VariantQuadrant:
		return SectionPrices | SectionSMA | SectionQuadrant
	case VariantCrossing:
		return SectionPrices | SectionSMA | SectionCrossing
	case VariantCorrelation:
		return SectionPrices | SectionCorrelation
	case VariantDrawdown:
		return SectionPrices | SectionCorrelation | SectionDrawdown
	default:
		return SectionPrices | SectionSMA | SectionQuadrant | SectionCrossing | SectionCorrelation | SectionDrawdown
	}
}

// DefaultStart is the first date requested when none is given.
var DefaultStart = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

// Request is the immutable parameter set of one analysis run.
type Request struct {
	Start            time.Time      `json:"start"`
	End              time.Time      `json:"end"`
	SMAWindow        int            `json:"sma_window"`
	MinLag           int            `json:"min_lag"`
	MaxLag           int            `json:"max_lag"`
	DropThresholdPct float64        `json:"drop_threshold_pct"`
	AlignmentDays    int            `json:"alignment_days"`
	Convention       SignConvention `json:"convention"`
	Variant          Variant        `json:"variant"`
}

// DefaultRequest returns the variant's default parameters ending at today.
func DefaultRequest(v Variant, today time.Time) Request {
	req := Request{
		Start:            DefaultStart,
		End:              Day(today),
		SMAWindow:        200,
		MinLag:           -10,
		MaxLag:           10,
		DropThresholdPct: 3,
		AlignmentDays:    5,
		Convention:       ConventionConsistent,
		Variant:          v,
	}
	switch v {
	case VariantCrossing:
		req.SMAWindow = 60
	case VariantDrawdown:
		req.DropThresholdPct = 4
		req.AlignmentDays = 3
	}
	return req
}

// Limits on request parameters.
const (
	MinSMAWindow = 2
	MaxSMAWindow = 1000
	MaxLagBound  = 120
)

// Validate checks the request parameters.
func (r Request) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidRequest)
	}
	if !r.Start.Before(r.End) {
		return fmt.Errorf("%w: start %s must be before end %s", ErrInvalidRequest, r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	if r.SMAWindow < MinSMAWindow || r.SMAWindow > MaxSMAWindow {
		return fmt.Errorf("%w: sma window %d outside [%d, %d]", ErrInvalidRequest, r.SMAWindow, MinSMAWindow, MaxSMAWindow)
	}
	if r.MinLag > r.MaxLag {
		return fmt.Errorf("%w: min lag %d greater than max lag %d", ErrInvalidRequest, r.MinLag, r.MaxLag)
	}
	if r.MinLag < -MaxLagBound || r.MaxLag > MaxLagBound {
		return fmt.Errorf("%w: lag bounds must stay within ±%d", ErrInvalidRequest, MaxLagBound)
	}
	if !(r.DropThresholdPct > 0) || r.DropThresholdPct >= 100 {
		return fmt.Errorf("%w: drop threshold %.2f%% outside (0, 100)", ErrInvalidRequest, r.DropThresholdPct)
	}
	if r.AlignmentDays < 0 {
		return fmt.Errorf("%w: alignment window must not be negative", ErrInvalidRequest)
	}
	if _, err := ParseConvention(string(r.Convention)); err != nil {
		return err
	}
	if _, err := ParseVariant(string(r.Variant)); err != nil {
		return err
	}
	return nil
}
