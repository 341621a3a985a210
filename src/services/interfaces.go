package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/username/perfolio/src/models"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNoHoldings     = errors.New("no holdings found for the given filters")
	ErrNoData         = errors.New("no data found")
	ErrParsingFailed  = errors.New("failed to parse import file")
	ErrImportFailed   = errors.New("failed to import file")
)

// HoldingsService answers the holdings-side queries: the grouped holdings
// graph and the lookups the client needs to build its filters.
type HoldingsService interface {
	GetHoldingsSankey(ctx context.Context, req models.SankeyRequest) (models.Graph, error)
	GetAvailableSankeyColumns(ctx context.Context) (models.AvailableSankeyColumns, error)
	GetAvailableDates(ctx context.Context, req models.AvailableDatesRequest) (models.AvailableDatesResponse, error)
	GetFxRates(ctx context.Context, req models.FxRateRequest) (models.FxRatesResponse, error)
}

// PerformanceService computes the attribution of a period's gain/loss.
type PerformanceService interface {
	GetAttribution(ctx context.Context, req models.PerformanceAttributionRequest) (models.PerformanceAttributionResponse, error)
	GetAvailableLevels() []string
}

// BenchmarkService compares the portfolio with benchmarks funded by the same cash flows.
type BenchmarkService interface {
	GetBenchmarkPerformance(ctx context.Context, req models.BenchmarkPerformanceRequest) (models.BenchmarkPerformanceResponse, error)
}

// PriceService fetches daily adjusted closes of a ticker.
type PriceService interface {
	GetDailyPrices(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error)
}

// ImportService loads a warehouse CSV file into the database.
type ImportService interface {
	Import(ctx context.Context, table string, file io.Reader) (models.ImportResponse, error)
}

// CacheInvalidator is implemented by services that cache computed results.
type CacheInvalidator interface {
	InvalidateCache()
}
