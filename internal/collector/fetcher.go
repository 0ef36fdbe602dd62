package collector

import (
	"context"
	"errors"
	"time"

	"LeverageLens/internal/model"
)

// ErrDataUnavailable means the source returned nothing usable for the request.
var ErrDataUnavailable = errors.New("data unavailable")

// Fetcher defines the interface for fetching daily market data.
// start and end are inclusive calendar dates.
type Fetcher interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) (*model.PriceFrame, error)
	Name() string
}
