package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"LeverageLens/internal/model"
)

// RESTFetcher implements Fetcher against a bars REST API:
// GET {base}/api/v1/bars/daily?symbol=..&from=YYYY-MM-DD&to=YYYY-MM-DD
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars API. Either close may be null.
type restBar struct {
	Timestamp int64    `json:"timestamp"`
	Close     *float64 `json:"close"`
	AdjClose  *float64 `json:"adj_close"`
}

func (f *RESTFetcher) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (*model.PriceFrame, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", start.Format(model.DateLayout))
	q.Set("to", end.Format(model.DateLayout))
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?%s", f.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var bars []restBar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s", ErrDataUnavailable, symbol)
	}

	frame := &model.PriceFrame{
		Symbol: symbol,
		Dates:  make([]time.Time, len(bars)),
		Fields: map[string][]float64{},
	}
	closes := make([]float64, len(bars))
	adj := make([]float64, len(bars))
	hasClose, hasAdj := false, false
	for i, b := range bars {
		frame.Dates[i] = model.Day(time.Unix(b.Timestamp, 0).UTC())
		closes[i], adj[i] = math.NaN(), math.NaN()
		if b.Close != nil {
			closes[i] = *b.Close
			hasClose = true
		}
		if b.AdjClose != nil {
			adj[i] = *b.AdjClose
			hasAdj = true
		}
	}
	if hasClose {
		frame.Fields[model.FieldClose] = closes
	}
	if hasAdj {
		frame.Fields[model.FieldAdjClose] = adj
	}
	// Ensure chronological order
	sortFrame(frame)
	return frame, nil
}
