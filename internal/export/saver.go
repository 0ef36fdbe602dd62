// Package export writes the per-date view of an analysis result to disk.
package export

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"LeverageLens/internal/model"
)

// Row is one trading day of a result. Undefined statistics are nil.
type Row struct {
	Date   string   `json:"date" parquet:"date"`
	A      float64  `json:"a" parquet:"a"`
	B      float64  `json:"b" parquet:"b"`
	SMAA   *float64 `json:"sma_a" parquet:"sma_a,optional"`
	SMAB   *float64 `json:"sma_b" parquet:"sma_b,optional"`
	RetA   *float64 `json:"ret_a" parquet:"ret_a,optional"`
	RetB   *float64 `json:"ret_b" parquet:"ret_b,optional"`
	AboveA *bool    `json:"above_a" parquet:"above_a,optional"`
	AboveB *bool    `json:"above_b" parquet:"above_b,optional"`
}

// Rows flattens res into one Row per trading day.
func Rows(res *model.Result) []Row {
	rows := make([]Row, len(res.Dates))
	for i, d := range res.Dates {
		r := Row{Date: d.Format(model.DateLayout), A: res.A[i], B: res.B[i]}
		if res.SMAA != nil {
			r.SMAA = model.Ptr(res.SMAA[i])
			r.SMAB = model.Ptr(res.SMAB[i])
			r.AboveA = above(res.A[i], res.SMAA[i])
			r.AboveB = above(res.B[i], res.SMAB[i])
		}
		if res.Returns != nil {
			r.RetA = model.Ptr(res.Returns.RetA[i])
			r.RetB = model.Ptr(res.Returns.RetB[i])
		}
		rows[i] = r
	}
	return rows
}

func above(v, avg float64) *bool {
	if math.IsNaN(avg) {
		return nil
	}
	b := v > avg
	return &b
}

// Saver writes rows to path in one file format.
type Saver interface {
	Save(rows []Row, path string) error
	Extension() string
}

// NewSaver creates implementation by format (csv, parquet, json).
// Returns nil if format not supported.
func NewSaver(format string) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}

// CSVSaver writes a header row followed by one line per day; nil cells are empty.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(rows []Row, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)

	if err := w.Write([]string{"date", "a", "b", "sma_a", "sma_b", "ret_a", "ret_b", "above_a", "above_b"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			r.Date,
			floatStr(r.A),
			floatStr(r.B),
			optFloat(r.SMAA),
			optFloat(r.SMAB),
			optFloat(r.RetA),
			optFloat(r.RetB),
			optBool(r.AboveA),
			optBool(r.AboveB),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// JSONSaver writes the rows as one JSON array.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(rows []Row, path string) error {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ParquetSaver writes the rows as a Parquet file.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(rows []Row, path string) error {
	return parquet.WriteFile(path, rows)
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func optFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return floatStr(*f)
}

func optBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}
