package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"

	"LeverageLens/internal/model"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client  *http.Client
	BaseURL string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		Client:  newHTTPClient(proxyURL),
		BaseURL: yahooChartURL,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []interface{} `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// toFloat maps JSON numbers to float64 and nulls to NaN.
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return math.NaN()
	}
}

func column(vals []interface{}, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i < len(vals) {
			out[i] = toFloat(vals[i])
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func (f *YahooFetcher) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (*model.PriceFrame, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprint(model.Day(start).Unix()))
	q.Set("period2", fmt.Sprint(model.Day(end).AddDate(0, 0, 1).Unix()))
	q.Set("interval", "1d")
	q.Set("events", "div,splits")
	q.Set("includeAdjustedClose", "true")
	u := f.BaseURL + url.PathEscape(symbol) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: yahoo api error: %s", ErrDataUnavailable, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("%w: yahoo returned no rows for %s", ErrDataUnavailable, symbol)
	}

	result := chart.Chart.Result[0]
	n := len(result.Timestamp)
	loc := time.FixedZone(result.Meta.Symbol, result.Meta.GMTOffset)
	frame := &model.PriceFrame{
		Symbol: symbol,
		Dates:  make([]time.Time, n),
		Fields: map[string][]float64{},
	}
	for i, ts := range result.Timestamp {
		frame.Dates[i] = model.Day(time.Unix(ts, 0).In(loc))
	}
	if len(result.Indicators.Quote) > 0 {
		frame.Fields[model.FieldClose] = column(result.Indicators.Quote[0].Close, n)
	}
	if len(result.Indicators.AdjClose) > 0 {
		frame.Fields[model.FieldAdjClose] = column(result.Indicators.AdjClose[0].AdjClose, n)
	}
	sortFrame(frame)
	return frame, nil
}

// sortFrame orders the frame rows by date.
func sortFrame(frame *model.PriceFrame) {
	idx := make([]int, len(frame.Dates))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return frame.Dates[idx[i]].Before(frame.Dates[idx[j]]) })

	dates := make([]time.Time, len(idx))
	for i, k := range idx {
		dates[i] = frame.Dates[k]
	}
	frame.Dates = dates
	for name, vals := range frame.Fields {
		if len(vals) != len(idx) {
			continue
		}
		sorted := make([]float64, len(idx))
		for i, k := range idx {
			sorted[i] = vals[k]
		}
		frame.Fields[name] = sorted
	}
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
