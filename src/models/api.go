package models

import "github.com/shopspring/decimal"

// BenchmarkSeries maps an ISO date to the replicated portfolio value on that day.
type BenchmarkSeries map[string]decimal.Decimal

// PriceSeries maps an ISO date to a closing price.
type PriceSeries map[string]decimal.Decimal

type SankeyRequest struct {
	AsOfDate     string   `json:"as_of_date"`
	AccountCodes []string `json:"account_codes"`
	SankeyLevels []string `json:"sankey_levels"`
}

type AvailableColumn struct {
	TableType    string `json:"table_type"`
	ColumnName   string `json:"column_name"`
	PrefixedName string `json:"prefixed_name"`
}

type AvailableSankeyColumns struct {
	AccountColumns  []AvailableColumn `json:"account_columns"`
	SecurityColumns []AvailableColumn `json:"security_columns"`
}

type AvailableDatesRequest struct {
	AccountCodes []string `json:"account_codes"`
}

type AvailableDatesResponse struct {
	AccountCodes   []string `json:"account_codes"`
	AvailableDates []string `json:"available_dates"`
	DateCount      int      `json:"date_count"`
	EarliestDate   *string  `json:"earliest_date"`
	LatestDate     *string  `json:"latest_date"`
}

type FxRateRequest struct {
	AsOfDate string `json:"as_of_date"`
}

type FxRatesResponse struct {
	AsOfDate     string        `json:"as_of_date"`
	BaseCurrency string        `json:"base_currency"`
	Rates        []FxRatePoint `json:"rates"`
}

type PerformanceAttributionRequest struct {
	StartDate         string   `json:"start_date"`
	EndDate           string   `json:"end_date"`
	AccountCodes      []string `json:"account_codes"`
	AttributionLevels []string `json:"attribution_levels"`
}

type BenchmarkPerformanceRequest struct {
	AccountCodes  []string `json:"account_codes"`
	BenchmarkList []string `json:"benchmark_list"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
}

type BenchmarkPerformanceResponse struct {
	PortfolioValues      map[string]decimal.Decimal `json:"portfolio_values"`
	BenchmarkPerformance map[string]BenchmarkSeries `json:"benchmark_performance"`
}

type ImportResponse struct {
	Table        string `json:"table"`
	RowsImported int    `json:"rows_imported"`
}
