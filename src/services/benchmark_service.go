package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/username/perfolio/src/logger"
	"github.com/username/perfolio/src/model"
	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/processors"
	"github.com/username/perfolio/src/security/validation"
)

type benchmarkServiceImpl struct {
	db                *sql.DB
	baseCurrency      string
	priceService      PriceService
	cashFlowProcessor processors.CashFlowProcessor
	replicator        processors.BenchmarkReplicator
}

func NewBenchmarkService(
	db *sql.DB,
	baseCurrency string,
	priceService PriceService,
	cashFlowProcessor processors.CashFlowProcessor,
	replicator processors.BenchmarkReplicator,
) BenchmarkService {
	return &benchmarkServiceImpl{
		db:                db,
		baseCurrency:      baseCurrency,
		priceService:      priceService,
		cashFlowProcessor: cashFlowProcessor,
		replicator:        replicator,
	}
}

func (s *benchmarkServiceImpl) GetBenchmarkPerformance(ctx context.Context, req models.BenchmarkPerformanceRequest) (models.BenchmarkPerformanceResponse, error) {
	log := logger.FromContext(ctx)

	start, end, err := validation.ValidateDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return models.BenchmarkPerformanceResponse{}, invalidRequest(err)
	}
	accounts, err := validation.ValidateAccountCodes(req.AccountCodes)
	if err != nil {
		return models.BenchmarkPerformanceResponse{}, invalidRequest(err)
	}
	symbols, err := validation.ValidateBenchmarkSymbols(req.BenchmarkList)
	if err != nil {
		return models.BenchmarkPerformanceResponse{}, invalidRequest(err)
	}

	portfolioValues, err := model.GetPortfolioDailyValues(ctx, s.db, accounts, start, end, s.baseCurrency)
	if err != nil {
		return models.BenchmarkPerformanceResponse{}, fmt.Errorf("error loading portfolio values: %w", err)
	}

	txs, err := model.GetTransactions(ctx, s.db, accounts, start, end, processors.CashFlowCodes()...)
	if err != nil {
		return models.BenchmarkPerformanceResponse{}, fmt.Errorf("error loading cash flow transactions: %w", err)
	}
	flows := s.cashFlowProcessor.BenchmarkCashFlows(txs)

	resp := models.BenchmarkPerformanceResponse{
		PortfolioValues:      portfolioValues,
		BenchmarkPerformance: make(map[string]models.BenchmarkSeries, len(symbols)),
	}
	if resp.PortfolioValues == nil {
		resp.PortfolioValues = map[string]decimal.Decimal{}
	}

	for _, symbol := range symbols {
		if _, done := resp.BenchmarkPerformance[symbol]; done {
			continue
		}
		prices, err := s.priceService.GetDailyPrices(ctx, symbol, start, end)
		if err != nil {
			return models.BenchmarkPerformanceResponse{}, fmt.Errorf("error fetching prices for %s: %w", symbol, err)
		}
		if len(prices) == 0 {
			log.Warn("No prices for benchmark, omitting it", "symbol", symbol)
			continue
		}
		resp.BenchmarkPerformance[symbol] = s.replicator.Replicate(flows, prices, start, end)
	}

	log.Info("Benchmark performance computed",
		"accounts", len(accounts),
		"cashFlowDays", len(flows),
		"portfolioDays", len(portfolioValues),
		"benchmarks", len(resp.BenchmarkPerformance))
	return resp, nil
}
