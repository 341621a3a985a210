package processors

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/perfolio/src/logger"
	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/utils"
)

type attributionCalculatorImpl struct {
	classifier TransactionClassifier
}

func NewAttributionCalculator(classifier TransactionClassifier) AttributionCalculator {
	return &attributionCalculatorImpl{classifier: classifier}
}

// accountFilter selects the rows of one scope; nil keeps every account.
type accountFilter func(accountID string) bool

func onlyAccount(id string) accountFilter {
	return func(accountID string) bool { return accountID == id }
}

func (f accountFilter) keep(accountID string) bool {
	return f == nil || f(accountID)
}

// fxPosition is one foreign-currency security valued at both anchor dates.
type fxPosition struct {
	currency  string
	startBase decimal.Decimal
	endBase   decimal.Decimal
}

func (c *attributionCalculatorImpl) Calculate(in AttributionInput) models.AttributionResult {
	in.StartDate = utils.TruncateToDay(in.StartDate)
	in.EndDate = utils.TruncateToDay(in.EndDate)
	rates := NewFxRateTable(in.BaseCurrency, in.FxRates)
	decisions := c.classifyTransactions(in, rates)

	result := models.AttributionResult{
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
		Components:          c.decompose(in, rates, decisions, nil),
		PerAccount:          make(map[string]models.AccountAttribution),
		ClassificationAudit: decisions,
	}

	accountIDs := accountsInScope(in)
	sumGainLoss := decimal.Zero
	for _, id := range accountIDs {
		comp := c.decompose(in, rates, decisions, onlyAccount(id))
		result.PerAccount[id] = models.AccountAttribution{AccountID: id, Components: comp}
		sumGainLoss = sumGainLoss.Add(comp.TotalGainLoss)
	}

	// An account's own residual would not add up to the global appreciation,
	// so appreciation is shared out by each account's slice of gain/loss.
	for _, id := range accountIDs {
		acct := result.PerAccount[id]
		if sumGainLoss.IsZero() {
			acct.AppreciationTotal = decimal.Zero
		} else {
			share := acct.TotalGainLoss.Div(sumGainLoss)
			acct.AppreciationTotal = result.AppreciationTotal.Mul(share)
		}
		result.PerAccount[id] = acct
	}

	result.TotalGains, result.TotalLosses = signedTotals(result.Components)

	logger.L.Debug("Attribution calculated",
		"startDate", utils.FormatDate(in.StartDate),
		"endDate", utils.FormatDate(in.EndDate),
		"accounts", len(accountIDs),
		"totalGainLoss", result.TotalGainLoss.String(),
		"appreciation", result.AppreciationTotal.String())
	return result
}

// decompose runs the waterfall for one scope. Order of the steps matters for
// reproducing the appreciation residual.
func (c *attributionCalculatorImpl) decompose(in AttributionInput, rates *FxRateTable, decisions []models.ClassificationDecision, scope accountFilter) models.Components {
	var comp models.Components

	for _, h := range in.Holdings {
		if !scope.keep(h.AccountID) {
			continue
		}
		if utils.SameDay(h.AsOfDate, in.StartDate) {
			comp.StartMVA = comp.StartMVA.Add(h.MarketValueBase)
		}
		if utils.SameDay(h.AsOfDate, in.EndDate) {
			comp.EndMVA = comp.EndMVA.Add(h.MarketValueBase)
		}
	}

	for _, cf := range in.CashFlows {
		if scope.keep(cf.AccountID) && utils.InWindow(cf.AsOfDate, in.StartDate, in.EndDate) {
			comp.NetContribution = comp.NetContribution.Add(cf.NetCashFlowBase)
		}
	}

	comp.TotalGainLoss = comp.EndMVA.Sub(comp.StartMVA).Sub(comp.NetContribution)

	for _, d := range decisions {
		if !scope.keep(d.AccountID) {
			continue
		}
		switch d.Class {
		case models.ClassIncome:
			comp.IncomeTotal = comp.IncomeTotal.Add(d.ConvertedAmount.Abs())
		case models.ClassFee:
			// Refunds of fees (non-negative amounts) are left out.
			if d.ConvertedAmount.IsNegative() {
				comp.FeesTotal = comp.FeesTotal.Add(d.ConvertedAmount.Abs())
			}
		}
	}

	comp.FxTotal = fxAttribution(in, rates, scope)
	comp.AppreciationTotal = comp.TotalGainLoss.Sub(comp.IncomeTotal).Sub(comp.FeesTotal).Sub(comp.FxTotal)
	comp.OtherTotal = decimal.Zero
	return comp
}

func (c *attributionCalculatorImpl) classifyTransactions(in AttributionInput, rates *FxRateTable) []models.ClassificationDecision {
	decisions := make([]models.ClassificationDecision, 0, len(in.Transactions))
	for _, tx := range in.Transactions {
		if !utils.InWindow(tx.TradeDate, in.StartDate, in.EndDate) {
			continue
		}
		class := c.classifier.Classify(tx.TypeCode)
		converted, found := rates.ToBase(tx.SettlementAmount, tx.SettlementCurrency, tx.TradeDate)
		d := models.ClassificationDecision{
			AccountID:        tx.AccountID,
			SecurityID:       tx.SecurityID,
			TypeCode:         tx.TypeCode,
			TradeDate:        utils.FormatDate(tx.TradeDate),
			Class:            class,
			SettlementAmount: tx.SettlementAmount,
			ConvertedAmount:  converted,
			RateFound:        found,
		}
		decisions = append(decisions, d)

		if class == models.ClassUnclassified {
			logger.L.Warn("Unclassified transaction code excluded from attribution",
				"typeCode", tx.TypeCode, "accountID", tx.AccountID, "securityID", tx.SecurityID, "tradeDate", d.TradeDate)
		} else if !found {
			logger.L.Debug("No FX rate on trade date, using unconverted amount",
				"currency", tx.SettlementCurrency, "tradeDate", d.TradeDate, "typeCode", tx.TypeCode)
		}
	}
	return decisions
}

// fxAttribution applies the average-position approximation per foreign
// security: ((start_local + end_local) / 2) * (end_rate - start_rate).
func fxAttribution(in AttributionInput, rates *FxRateTable, scope accountFilter) decimal.Decimal {
	positions := make(map[string]*fxPosition)
	for _, h := range in.Holdings {
		if !scope.keep(h.AccountID) || rates.IsBase(h.SecurityCurrencyCode) {
			continue
		}
		atStart := utils.SameDay(h.AsOfDate, in.StartDate)
		atEnd := utils.SameDay(h.AsOfDate, in.EndDate)
		if !atStart && !atEnd {
			continue
		}
		pos, ok := positions[h.SecurityID]
		if !ok {
			pos = &fxPosition{currency: h.SecurityCurrencyCode}
			positions[h.SecurityID] = pos
		}
		if atStart {
			pos.startBase = pos.startBase.Add(h.MarketValueBase)
		}
		if atEnd {
			pos.endBase = pos.endBase.Add(h.MarketValueBase)
		}
	}

	securityIDs := make([]string, 0, len(positions))
	for id := range positions {
		securityIDs = append(securityIDs, id)
	}
	sort.Strings(securityIDs)

	total := decimal.Zero
	for _, id := range securityIDs {
		pos := positions[id]
		startRate, okStart := rates.Rate(pos.currency, in.StartDate)
		endRate, okEnd := rates.Rate(pos.currency, in.EndDate)
		if !okStart || !okEnd {
			logger.L.Debug("Missing anchor FX rate, FX contribution set to zero",
				"securityID", id, "currency", pos.currency, "startRateFound", okStart, "endRateFound", okEnd)
			continue
		}
		startLocal := pos.startBase.Div(startRate)
		endLocal := pos.endBase.Div(endRate)
		total = total.Add(utils.Midpoint(startLocal, endLocal).Mul(endRate.Sub(startRate)))
	}
	return total
}

// accountsInScope collects every account that has an anchor snapshot, an
// in-window cash flow, or an in-window transaction.
func accountsInScope(in AttributionInput) []string {
	seen := make(map[string]bool)
	for _, h := range in.Holdings {
		if utils.SameDay(h.AsOfDate, in.StartDate) || utils.SameDay(h.AsOfDate, in.EndDate) {
			seen[h.AccountID] = true
		}
	}
	for _, cf := range in.CashFlows {
		if utils.InWindow(cf.AsOfDate, in.StartDate, in.EndDate) {
			seen[cf.AccountID] = true
		}
	}
	for _, tx := range in.Transactions {
		if utils.InWindow(tx.TradeDate, in.StartDate, in.EndDate) {
			seen[tx.AccountID] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// signedTotals sums the positive and the negative category totals.
func signedTotals(c models.Components) (gains, losses decimal.Decimal) {
	for _, v := range []decimal.Decimal{c.FxTotal, c.IncomeTotal, c.FeesTotal, c.AppreciationTotal, c.OtherTotal} {
		switch {
		case v.IsPositive():
			gains = gains.Add(v)
		case v.IsNegative():
			losses = losses.Add(v)
		}
	}
	return gains, losses
}
