package analysis

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeverageLens/internal/collector"
	"LeverageLens/internal/model"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func table(a, b []float64) *model.PairTable {
	t := &model.PairTable{SymbolA: "0050.TW", SymbolB: "00631L.TW", A: a, B: b}
	for i := range a {
		t.Dates = append(t.Dates, day0.AddDate(0, 0, i))
	}
	return t
}

func request(v model.Variant, window int) model.Request {
	req := model.DefaultRequest(v, day0.AddDate(1, 0, 0))
	req.Start = day0
	req.SMAWindow = window
	return req
}

func mockTable(t *testing.T, start, end time.Time) *model.PairTable {
	m := &collector.MockFetcher{Multiples: map[string]float64{"00631L.TW": 2}}
	tbl, err := collector.NewPairSource(m, "0050.TW", "00631L.TW").Load(context.Background(), start, end)
	require.NoError(t, err)
	return tbl
}

func TestCompute_HandBuiltCrossings(t *testing.T) {
	tbl := table(
		[]float64{10, 10, 13, 9, 9, 13},
		[]float64{20, 20, 20, 26, 18, 18},
	)
	res, err := Compute(request(model.VariantCrossing, 2), tbl)
	require.NoError(t, err)
	require.NotNil(t, res.Crossing)

	cr := res.Crossing
	assert.Equal(t, []time.Time{tbl.Dates[2], tbl.Dates[5]}, cr.A.Up)
	assert.Equal(t, []time.Time{tbl.Dates[3]}, cr.A.Down)
	assert.Equal(t, []time.Time{tbl.Dates[3]}, cr.B.Up)
	assert.Equal(t, []time.Time{tbl.Dates[4]}, cr.B.Down)

	require.Len(t, cr.UpPairs, 2)
	assert.Equal(t, 1, cr.UpPairs[0].OffsetDays)
	assert.Equal(t, -2, cr.UpPairs[1].OffsetDays)
	assert.Equal(t, 1, cr.Up.ALeads)
	assert.Equal(t, 1, cr.Up.BLeads)

	require.Len(t, cr.DownPairs, 1)
	assert.Equal(t, 1, cr.Down.ALeads)
	assert.InDelta(t, 100.0, *cr.Down.ALeadsPct, 1e-9)

	assert.Nil(t, res.Quadrants)
	assert.Nil(t, res.Returns)
	assert.Nil(t, res.Drawdown)
}

func TestCompute_FullOnSyntheticPair(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	tbl := mockTable(t, start, end)

	req := request(model.VariantFull, 20)
	req.Start, req.End = start, end
	res, err := Compute(req, tbl)
	require.NoError(t, err)

	assert.Equal(t, tbl.Len(), res.TradingDays)
	require.Len(t, res.SMAA, tbl.Len())
	require.Len(t, res.SMAB, tbl.Len())
	for i := 0; i < 19; i++ {
		assert.True(t, math.IsNaN(res.SMAA[i]))
	}
	assert.False(t, math.IsNaN(res.SMAA[19]))

	require.NotNil(t, res.Quadrants)
	assert.Equal(t, tbl.Len()-19, res.Quadrants.Days)

	require.NotNil(t, res.Crossing)
	assert.NotEmpty(t, res.Crossing.A.Up)
	for _, ll := range []model.LeadLag{res.Crossing.Up, res.Crossing.Down} {
		assert.LessOrEqual(t, ll.Matched, len(res.Crossing.A.Up)+len(res.Crossing.A.Down))
		if ll.Matched > 0 {
			assert.InDelta(t, 100.0, *ll.ALeadsPct+*ll.BLeadsPct+*ll.SimultaneousPct, 1e-9)
		}
	}

	require.NotNil(t, res.Returns)
	require.NotNil(t, res.Returns.Beta)
	assert.InDelta(t, 2.0, *res.Returns.Beta, 1e-6)
	require.NotNil(t, res.Returns.BestLag)
	assert.Equal(t, 0, res.Returns.BestLag.Lag)
	assert.Len(t, res.Returns.Lags, req.MaxLag-req.MinLag+1)

	require.NotNil(t, res.Drawdown)
	require.NotNil(t, res.Drawdown.MaxA)
	require.NotNil(t, res.Drawdown.MaxB)
	assert.Less(t, res.Drawdown.MaxB.Pct, res.Drawdown.MaxA.Pct)
	for _, p := range res.Drawdown.Pairs {
		assert.LessOrEqual(t, abs(p.OffsetDays), req.AlignmentDays)
	}
}

func TestCompute_VariantSections(t *testing.T) {
	tbl := table([]float64{1, 2, 3, 4, 5}, []float64{1, 3, 5, 7, 9})
	res, err := Compute(request(model.VariantPrices, 2), tbl)
	require.NoError(t, err)
	assert.Nil(t, res.SMAA)
	assert.Nil(t, res.Crossing)
	assert.Nil(t, res.Returns)

	res, err = Compute(request(model.VariantCorrelation, 2), tbl)
	require.NoError(t, err)
	assert.Nil(t, res.SMAA)
	require.NotNil(t, res.Returns)
	assert.NotNil(t, res.Returns.Correlation)
	assert.Nil(t, res.Drawdown)

	res, err = Compute(request(model.VariantDrawdown, 2), tbl)
	require.NoError(t, err)
	require.NotNil(t, res.Drawdown)
	assert.Empty(t, res.Drawdown.DropsA)
	assert.Nil(t, res.Drawdown.LeadLag.ALeadsPct)
	assert.NotEmpty(t, res.Notices)
}

func TestCompute_InsufficientData(t *testing.T) {
	tbl := table([]float64{10, 11, 12}, []float64{20, 22, 24})
	res, err := Compute(request(model.VariantFull, 200), tbl)
	require.NoError(t, err)
	assert.Nil(t, res.Quadrants)
	require.NotNil(t, res.Crossing)
	assert.Zero(t, res.Crossing.Up.Matched)
	assert.Nil(t, res.Crossing.Up.ALeadsPct)
	assert.Nil(t, res.Crossing.Down.ALeadsPct)
	assert.NotEmpty(t, res.Notices)
}

func TestCompute_InvalidInput(t *testing.T) {
	tbl := table([]float64{1, 2}, []float64{1, 2})

	req := request(model.VariantFull, 1)
	_, err := Compute(req, tbl)
	assert.ErrorIs(t, err, model.ErrInvalidRequest)

	req = request(model.VariantFull, 2)
	req.MinLag, req.MaxLag = 3, 1
	_, err = Compute(req, tbl)
	assert.ErrorIs(t, err, model.ErrInvalidRequest)

	_, err = Compute(request(model.VariantFull, 2), &model.PairTable{})
	assert.Error(t, err)

	bad := table([]float64{1, -2}, []float64{1, 2})
	_, err = Compute(request(model.VariantFull, 2), bad)
	assert.Error(t, err)
}

func TestCompute_DoesNotMutateTable(t *testing.T) {
	tbl := table([]float64{10, 10, 13, 9, 9, 13}, []float64{20, 20, 20, 26, 18, 18})
	before := append([]float64(nil), tbl.A...)
	_, err := Compute(request(model.VariantFull, 2), tbl)
	require.NoError(t, err)
	assert.Equal(t, before, tbl.A)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
