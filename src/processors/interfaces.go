package processors

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/perfolio/src/models"
)

// TransactionClassifier assigns a transaction type code to one bucket.
type TransactionClassifier interface {
	Classify(typeCode string) models.TransactionClass
}

// AttributionInput is the materialized row set for one attribution request.
type AttributionInput struct {
	StartDate    time.Time
	EndDate      time.Time
	BaseCurrency string
	Holdings     []models.HoldingSnapshot
	Transactions []models.TransactionRecord
	FxRates      []models.FxRatePoint
	CashFlows    []models.DailyCashFlow
}

// AttributionCalculator decomposes the gain/loss of a period into components.
type AttributionCalculator interface {
	Calculate(in AttributionInput) models.AttributionResult
}

// SankeyAssembler renders an attribution result as a flow graph.
type SankeyAssembler interface {
	Assemble(result models.AttributionResult, levels []AttributionLevel) models.Graph
}

// BenchmarkReplicator values a shadow portfolio that buys the benchmark with
// the portfolio's own cash flows.
type BenchmarkReplicator interface {
	Replicate(cashFlows map[string]decimal.Decimal, prices models.PriceSeries, startDate, endDate time.Time) models.BenchmarkSeries
}

// CashFlowProcessor extracts signed external cash flows per day.
type CashFlowProcessor interface {
	BenchmarkCashFlows(transactions []models.TransactionRecord) map[string]decimal.Decimal
}
