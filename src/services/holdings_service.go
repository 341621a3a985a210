package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/username/perfolio/src/logger"
	"github.com/username/perfolio/src/model"
	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/processors"
	"github.com/username/perfolio/src/security/validation"
	"github.com/username/perfolio/src/utils"
)

type holdingsServiceImpl struct {
	db           *sql.DB
	baseCurrency string
}

func NewHoldingsService(db *sql.DB, baseCurrency string) HoldingsService {
	return &holdingsServiceImpl{db: db, baseCurrency: baseCurrency}
}

func invalidRequest(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
}

func (s *holdingsServiceImpl) GetHoldingsSankey(ctx context.Context, req models.SankeyRequest) (models.Graph, error) {
	asOf, err := validation.ValidateDate("as_of_date", req.AsOfDate)
	if err != nil {
		return models.Graph{}, invalidRequest(err)
	}
	accounts, err := validation.ValidateAccountCodes(req.AccountCodes)
	if err != nil {
		return models.Graph{}, invalidRequest(err)
	}
	levels, err := processors.ParseGroupingLevels(req.SankeyLevels)
	if err != nil {
		return models.Graph{}, invalidRequest(err)
	}

	rows, err := model.GetHoldingRows(ctx, s.db, accounts, asOf, s.baseCurrency)
	if err != nil {
		return models.Graph{}, fmt.Errorf("error loading holdings: %w", err)
	}

	graph := processors.BuildHoldingsGraph(rows, levels)
	if len(graph.Nodes) <= 1 {
		logger.FromContext(ctx).Info("No holdings matched sankey request", "asOfDate", req.AsOfDate, "accounts", accounts)
		return models.Graph{}, ErrNoHoldings
	}
	return graph, nil
}

func (s *holdingsServiceImpl) GetAvailableSankeyColumns(ctx context.Context) (models.AvailableSankeyColumns, error) {
	present := map[string]map[string]bool{}
	tables := map[string]string{
		processors.TableTypeAccount:  "dim_accounts",
		processors.TableTypeSecurity: "dim_security_master",
	}
	for tableType, table := range tables {
		cols, err := model.GetDimensionColumns(ctx, s.db, table)
		if err != nil {
			return models.AvailableSankeyColumns{}, err
		}
		present[tableType] = make(map[string]bool, len(cols))
		for _, c := range cols {
			present[tableType][c] = true
		}
	}

	result := models.AvailableSankeyColumns{
		AccountColumns:  []models.AvailableColumn{},
		SecurityColumns: []models.AvailableColumn{},
	}
	for _, level := range processors.AllGroupingLevels() {
		if !present[level.TableType()][level.Column()] {
			continue
		}
		col := models.AvailableColumn{
			TableType:    level.TableType(),
			ColumnName:   level.Column(),
			PrefixedName: level.String(),
		}
		if level.TableType() == processors.TableTypeAccount {
			result.AccountColumns = append(result.AccountColumns, col)
		} else {
			result.SecurityColumns = append(result.SecurityColumns, col)
		}
	}
	return result, nil
}

func (s *holdingsServiceImpl) GetAvailableDates(ctx context.Context, req models.AvailableDatesRequest) (models.AvailableDatesResponse, error) {
	accounts, err := validation.ValidateAccountCodes(req.AccountCodes)
	if err != nil {
		return models.AvailableDatesResponse{}, invalidRequest(err)
	}

	dates, err := model.GetAvailableDates(ctx, s.db, accounts)
	if err != nil {
		return models.AvailableDatesResponse{}, fmt.Errorf("error loading available dates: %w", err)
	}
	if len(dates) == 0 {
		return models.AvailableDatesResponse{}, fmt.Errorf("%w: no holding dates for accounts %v", ErrNoData, accounts)
	}

	resp := models.AvailableDatesResponse{
		AccountCodes:   accounts,
		AvailableDates: formatDates(dates),
		DateCount:      len(dates),
	}
	resp.EarliestDate = &resp.AvailableDates[0]
	resp.LatestDate = &resp.AvailableDates[len(resp.AvailableDates)-1]
	return resp, nil
}

func (s *holdingsServiceImpl) GetFxRates(ctx context.Context, req models.FxRateRequest) (models.FxRatesResponse, error) {
	asOf, err := validation.ValidateDate("as_of_date", req.AsOfDate)
	if err != nil {
		return models.FxRatesResponse{}, invalidRequest(err)
	}

	rates, err := model.GetFxRatesOn(ctx, s.db, asOf)
	if err != nil {
		return models.FxRatesResponse{}, fmt.Errorf("error loading fx rates: %w", err)
	}
	if len(rates) == 0 {
		return models.FxRatesResponse{}, fmt.Errorf("%w: no fx rates on %s", ErrNoData, req.AsOfDate)
	}
	return models.FxRatesResponse{
		AsOfDate:     utils.FormatDate(asOf),
		BaseCurrency: s.baseCurrency,
		Rates:        rates,
	}, nil
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = utils.FormatDate(d)
	}
	return out
}
