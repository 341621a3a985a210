package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/perfolio/src/logger"
	"github.com/username/perfolio/src/model"
	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/processors"
	"github.com/username/perfolio/src/security/validation"
	"github.com/username/perfolio/src/utils"
)

const (
	ckAttribution = "res_attribution_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type performanceServiceImpl struct {
	db           *sql.DB
	baseCurrency string
	calculator   processors.AttributionCalculator
	assembler    processors.SankeyAssembler
	reportCache  *cache.Cache
}

func NewPerformanceService(
	db *sql.DB,
	baseCurrency string,
	calculator processors.AttributionCalculator,
	assembler processors.SankeyAssembler,
	reportCache *cache.Cache,
) PerformanceService {
	return &performanceServiceImpl{
		db:           db,
		baseCurrency: baseCurrency,
		calculator:   calculator,
		assembler:    assembler,
		reportCache:  reportCache,
	}
}

func (s *performanceServiceImpl) GetAvailableLevels() []string {
	return processors.AvailablePerformanceLevels()
}

func (s *performanceServiceImpl) GetAttribution(ctx context.Context, req models.PerformanceAttributionRequest) (models.PerformanceAttributionResponse, error) {
	log := logger.FromContext(ctx)

	start, end, err := validation.ValidateDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return models.PerformanceAttributionResponse{}, invalidRequest(err)
	}
	accounts, err := validation.ValidateAccountCodes(req.AccountCodes)
	if err != nil {
		return models.PerformanceAttributionResponse{}, invalidRequest(err)
	}
	levels, err := processors.ParseAttributionLevels(req.AttributionLevels)
	if err != nil {
		return models.PerformanceAttributionResponse{}, invalidRequest(err)
	}

	cacheKey := fmt.Sprintf(ckAttribution, attributionKey(start, end, accounts, levels))
	if cached, found := s.reportCache.Get(cacheKey); found {
		if resp, ok := cached.(models.PerformanceAttributionResponse); ok {
			log.Debug("Attribution served from cache", "key", cacheKey)
			return resp, nil
		}
	}

	in, err := s.loadInput(ctx, accounts, start, end)
	if err != nil {
		return models.PerformanceAttributionResponse{}, err
	}

	calcStart := time.Now()
	result := s.calculator.Calculate(in)
	resp := models.PerformanceAttributionResponse{
		Summary:        summarize(result, accounts),
		Sankey:         s.assembler.Assemble(result, levels),
		PerAccount:     result.PerAccount,
		UnclassifiedTx: []models.ClassificationDecision{},
	}
	for _, d := range result.ClassificationAudit {
		if d.Class == models.ClassUnclassified {
			resp.UnclassifiedTx = append(resp.UnclassifiedTx, d)
		}
	}

	log.Info("Attribution computed",
		"startDate", req.StartDate,
		"endDate", req.EndDate,
		"accounts", len(accounts),
		"holdings", len(in.Holdings),
		"transactions", len(in.Transactions),
		"unclassified", len(resp.UnclassifiedTx),
		"duration", time.Since(calcStart))

	s.reportCache.Set(cacheKey, resp, cache.DefaultExpiration)
	return resp, nil
}

// loadInput materializes the rows one attribution needs: holdings at both
// anchors plus transactions, rates and cash flows over the period.
func (s *performanceServiceImpl) loadInput(ctx context.Context, accounts []string, start, end time.Time) (processors.AttributionInput, error) {
	in := processors.AttributionInput{
		StartDate:    start,
		EndDate:      end,
		BaseCurrency: s.baseCurrency,
	}
	var err error
	if in.Holdings, err = model.GetHoldingSnapshots(ctx, s.db, accounts, s.baseCurrency, start, end); err != nil {
		return in, fmt.Errorf("error loading holdings: %w", err)
	}
	if in.Transactions, err = model.GetTransactions(ctx, s.db, accounts, start, end); err != nil {
		return in, fmt.Errorf("error loading transactions: %w", err)
	}
	if in.FxRates, err = model.GetFxRates(ctx, s.db, start, end); err != nil {
		return in, fmt.Errorf("error loading fx rates: %w", err)
	}
	if in.CashFlows, err = model.GetDailyCashFlows(ctx, s.db, accounts, start, end); err != nil {
		return in, fmt.Errorf("error loading cash flows: %w", err)
	}
	return in, nil
}

// InvalidateCache drops every cached attribution. It runs after an import
// changes the warehouse.
func (s *performanceServiceImpl) InvalidateCache() {
	for key := range s.reportCache.Items() {
		if strings.HasPrefix(key, "res_attribution_") {
			s.reportCache.Delete(key)
		}
	}
	logger.L.Info("Invalidated attribution cache")
}

func summarize(result models.AttributionResult, accounts []string) models.PerformanceSummary {
	return models.PerformanceSummary{
		StartMVA:          result.StartMVA,
		EndMVA:            result.EndMVA,
		NetContribution:   result.NetContribution,
		TotalGainLoss:     result.TotalGainLoss,
		TotalGains:        result.TotalGains,
		TotalLosses:       result.TotalLosses,
		IncomeTotal:       result.IncomeTotal,
		FeesTotal:         result.FeesTotal,
		FxTotal:           result.FxTotal,
		AppreciationTotal: result.AppreciationTotal,
		OtherTotal:        result.OtherTotal,
		StartDate:         utils.FormatDate(result.StartDate),
		EndDate:           utils.FormatDate(result.EndDate),
		AccountCodes:      accounts,
	}
}

func attributionKey(start, end time.Time, accounts []string, levels []processors.AttributionLevel) string {
	sortedAccounts := append([]string(nil), accounts...)
	sort.Strings(sortedAccounts)
	levelNames := make([]string, len(levels))
	for i, l := range levels {
		levelNames[i] = string(l)
	}
	sort.Strings(levelNames)
	return strings.Join([]string{
		utils.FormatDate(start),
		utils.FormatDate(end),
		strings.Join(sortedAccounts, ","),
		strings.Join(levelNames, ","),
	}, "|")
}
