package export

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeverageLens/internal/model"
)

func sampleResult() *model.Result {
	nan := math.NaN()
	d0 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	return &model.Result{
		Dates: []time.Time{d0, d0.AddDate(0, 0, 1), d0.AddDate(0, 0, 2)},
		A:     []float64{10, 11, 9},
		B:     []float64{20, 22, 18},
		SMAA:  []float64{nan, 10.5, 10},
		SMAB:  []float64{nan, 21, 20},
		Returns: &model.ReturnsReport{
			RetA: []float64{nan, 10, -18.18},
			RetB: []float64{nan, 10, -18.18},
		},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleResult())
	require.Len(t, rows, 3)
	assert.Equal(t, "2024-02-01", rows[0].Date)
	assert.Nil(t, rows[0].SMAA)
	assert.Nil(t, rows[0].AboveA)
	assert.Nil(t, rows[0].RetA)
	require.NotNil(t, rows[1].AboveA)
	assert.True(t, *rows[1].AboveA)
	assert.False(t, *rows[2].AboveB)
	assert.InDelta(t, 10.5, *rows[1].SMAA, 1e-9)
}

func TestRows_WithoutOptionalSections(t *testing.T) {
	res := sampleResult()
	res.SMAA, res.SMAB, res.Returns = nil, nil, nil
	rows := Rows(res)
	assert.Nil(t, rows[2].SMAA)
	assert.Nil(t, rows[2].RetB)
}

func TestNewSaver(t *testing.T) {
	assert.IsType(t, CSVSaver{}, NewSaver("CSV"))
	assert.IsType(t, JSONSaver{}, NewSaver(" json "))
	assert.IsType(t, ParquetSaver{}, NewSaver("parquet"))
	assert.Nil(t, NewSaver("xlsx"))
}

func TestCSVSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, CSVSaver{}.Save(Rows(sampleResult()), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "sma_a", records[0][3])
	assert.Equal(t, "", records[1][3])
	assert.Equal(t, "10.5", records[2][3])
	assert.Equal(t, "true", records[2][7])
}

func TestJSONSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, JSONSaver{}.Save(Rows(sampleResult()), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 3)
	assert.Nil(t, got[0]["sma_a"])
	assert.Equal(t, 10.5, got[1]["sma_a"])
}

func TestParquetSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	rows := Rows(sampleResult())
	require.NoError(t, ParquetSaver{}.Save(rows, path))

	got, err := parquet.ReadFile[Row](path)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-02-03", got[2].Date)
	assert.Nil(t, got[0].SMAA)
	require.NotNil(t, got[1].SMAB)
	assert.InDelta(t, 21.0, *got[1].SMAB, 1e-9)
}
