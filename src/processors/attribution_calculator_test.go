package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/perfolio/src/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

var (
	periodStart = day("2024-01-01")
	periodEnd   = day("2024-12-31")
)

func holding(date time.Time, account, security, secCcy, value string) models.HoldingSnapshot {
	return models.HoldingSnapshot{
		AsOfDate:             date,
		AccountID:            account,
		SecurityID:           security,
		CurrencyCode:         "CAD",
		MarketValueBase:      dec(value),
		SecurityCurrencyCode: secCcy,
	}
}

func tx(account, code, date, amount, ccy string) models.TransactionRecord {
	return models.TransactionRecord{
		AccountID:          account,
		SecurityID:         "SEC",
		TypeCode:           code,
		TradeDate:          day(date),
		SettlementAmount:   dec(amount),
		SettlementCurrency: ccy,
	}
}

func flow(account, date, amount string) models.DailyCashFlow {
	return models.DailyCashFlow{AccountID: account, AsOfDate: day(date), NetCashFlowBase: dec(amount)}
}

func fx(date, ccy, rate string) models.FxRatePoint {
	return models.FxRatePoint{AsOfDate: day(date), CurrencyCode: ccy, RateToBase: dec(rate)}
}

func newCalculator() AttributionCalculator {
	return NewAttributionCalculator(NewTransactionClassifier())
}

func TestAttribution_WaterfallScenario(t *testing.T) {
	// USD security: start 20000 CAD at 1.25 (16000 USD), end 22000 CAD at 1.375 (16000 USD).
	// fx = ((16000 + 16000) / 2) * (1.375 - 1.25) = 2000; CAD securities carry the rest.
	in := AttributionInput{
		StartDate:    periodStart,
		EndDate:      periodEnd,
		BaseCurrency: "CAD",
		Holdings: []models.HoldingSnapshot{
			holding(periodStart, "A", "CADEQ", "CAD", "80000"),
			holding(periodStart, "A", "USEQ", "USD", "20000"),
			holding(periodEnd, "A", "CADEQ", "CAD", "90000"),
			holding(periodEnd, "A", "USEQ", "USD", "22000"),
		},
		Transactions: []models.TransactionRecord{
			tx("A", "DIV", "2024-03-15", "2000", "CAD"),
			tx("A", "FEE", "2024-06-30", "-500", "CAD"),
			tx("A", "BUY", "2024-02-01", "-10000", "CAD"),
		},
		FxRates: []models.FxRatePoint{
			fx("2024-01-01", "USD", "1.25"),
			fx("2024-12-31", "USD", "1.375"),
		},
		CashFlows: []models.DailyCashFlow{flow("A", "2024-05-01", "5000")},
	}

	res := newCalculator().Calculate(in)

	assertDecimal(t, "100000", res.StartMVA)
	assertDecimal(t, "112000", res.EndMVA)
	assertDecimal(t, "5000", res.NetContribution)
	assertDecimal(t, "7000", res.TotalGainLoss)
	assertDecimal(t, "2000", res.IncomeTotal)
	assertDecimal(t, "500", res.FeesTotal)
	assertDecimal(t, "2000", res.FxTotal)
	assertDecimal(t, "2500", res.AppreciationTotal)
	assertDecimal(t, "0", res.OtherTotal)
}

func TestAttribution_AppreciationResidualMatchesDocumentedExample(t *testing.T) {
	// income 2000, fees 500, fx 1000 on a 7000 gain leaves 3500 appreciation.
	in := AttributionInput{
		StartDate:    periodStart,
		EndDate:      periodEnd,
		BaseCurrency: "CAD",
		Holdings: []models.HoldingSnapshot{
			holding(periodStart, "A", "CADEQ", "CAD", "90000"),
			holding(periodStart, "A", "USEQ", "USD", "10000"),
			holding(periodEnd, "A", "CADEQ", "CAD", "101000"),
			holding(periodEnd, "A", "USEQ", "USD", "11000"),
		},
		Transactions: []models.TransactionRecord{
			tx("A", "INT", "2024-04-01", "2000", "CAD"),
			tx("A", "MGF", "2024-04-01", "-500", "CAD"),
		},
		// 10000/1.0 = 10000 USD, 11000/1.1 = 10000 USD, avg 10000 * 0.1 = 1000.
		FxRates: []models.FxRatePoint{
			fx("2024-01-01", "USD", "1.0"),
			fx("2024-12-31", "USD", "1.1"),
		},
		CashFlows: []models.DailyCashFlow{flow("A", "2024-07-01", "5000")},
	}

	res := newCalculator().Calculate(in)

	assertDecimal(t, "7000", res.TotalGainLoss)
	assertDecimal(t, "1000", res.FxTotal)
	assertDecimal(t, "3500", res.AppreciationTotal)
}

func TestAttribution_ConservationIdentities(t *testing.T) {
	in := AttributionInput{
		StartDate:    periodStart,
		EndDate:      periodEnd,
		BaseCurrency: "CAD",
		Holdings: []models.HoldingSnapshot{
			holding(periodStart, "A", "X", "USD", "12345.67"),
			holding(periodStart, "B", "Y", "EUR", "7654.32"),
			holding(periodEnd, "A", "X", "USD", "13001.01"),
			holding(periodEnd, "B", "Y", "EUR", "7000.99"),
			holding(periodEnd, "B", "Z", "CAD", "321.09"),
		},
		Transactions: []models.TransactionRecord{
			tx("A", "DIV", "2024-02-02", "101.10", "USD"),
			tx("B", "FEE", "2024-03-03", "-12.34", "EUR"),
			tx("B", "ZZZ", "2024-03-03", "99", "CAD"),
		},
		FxRates: []models.FxRatePoint{
			fx("2024-01-01", "USD", "1.3333"),
			fx("2024-12-31", "USD", "1.4011"),
			fx("2024-01-01", "EUR", "1.45"),
			fx("2024-12-31", "EUR", "1.51"),
			fx("2024-02-02", "USD", "1.35"),
		},
		CashFlows: []models.DailyCashFlow{
			flow("A", "2024-06-01", "250.50"),
			flow("B", "2024-06-01", "-100"),
		},
	}

	res := newCalculator().Calculate(in)

	assert.True(t, res.TotalGainLoss.Equal(res.EndMVA.Sub(res.StartMVA).Sub(res.NetContribution)))
	sum := res.FxTotal.Add(res.IncomeTotal).Add(res.FeesTotal).Add(res.AppreciationTotal).Add(res.OtherTotal)
	assert.True(t, res.TotalGainLoss.Equal(sum), "components %s != total %s", sum, res.TotalGainLoss)

	require.Len(t, res.PerAccount, 2)
	accountSum := decimal.Zero
	for _, a := range res.PerAccount {
		accountSum = accountSum.Add(a.TotalGainLoss)
	}
	assert.True(t, res.TotalGainLoss.Equal(accountSum))
}

func TestAttribution_PerAccountAppreciationIsProportional(t *testing.T) {
	// A gains 6000, B loses 1000. Global: tgl 5000, income 2500 from A -> appreciation 2500.
	in := AttributionInput{
		StartDate:    periodStart,
		EndDate:      periodEnd,
		BaseCurrency: "CAD",
		Holdings: []models.HoldingSnapshot{
			holding(periodStart, "A", "X", "CAD", "50000"),
			holding(periodStart, "B", "Y", "CAD", "20000"),
			holding(periodEnd, "A", "X", "CAD", "56000"),
			holding(periodEnd, "B", "Y", "CAD", "19000"),
		},
		Transactions: []models.TransactionRecord{tx("A", "DIV", "2024-05-05", "2500", "CAD")},
	}

	res := newCalculator().Calculate(in)

	assertDecimal(t, "5000", res.TotalGainLoss)
	assertDecimal(t, "2500", res.AppreciationTotal)
	assertDecimal(t, "6000", res.PerAccount["A"].TotalGainLoss)
	assertDecimal(t, "-1000", res.PerAccount["B"].TotalGainLoss)
	assertDecimal(t, "3000", res.PerAccount["A"].AppreciationTotal)
	assertDecimal(t, "-500", res.PerAccount["B"].AppreciationTotal)
	assertDecimal(t, "2500", res.PerAccount["A"].IncomeTotal)
	assertDecimal(t, "0", res.PerAccount["B"].IncomeTotal)
}

func TestAttribution_ZeroGainLossSumAllocatesNothing(t *testing.T) {
	in := AttributionInput{
		StartDate:    periodStart,
		EndDate:      periodEnd,
		BaseCurrency: "CAD",
		Holdings: []models.HoldingSnapshot{
			holding(periodStart, "A", "X", "CAD", "1000"),
			holding(periodStart, "B", "Y", "CAD", "1000"),
			holding(periodEnd, "A", "X", "CAD", "1500"),
			holding(periodEnd, "B", "Y", "CAD", "500"),
		},
		Transactions: []models.TransactionRecord{tx("A", "DIV", "2024-05-05", "100", "CAD")},
	}

	res := newCalculator().Calculate(in)

	assertDecimal(t, "0", res.TotalGainLoss)
	assertDecimal(t, "-100", res.AppreciationTotal)
	for id, a := range res.PerAccount {
		assert.True(t, a.AppreciationTotal.IsZero(), "account %s", id)
	}
}

func TestAttribution_FeeRefundsAreNotFees(t *testing.T) {
	in := AttributionInput{
		StartDate:    periodStart,
		EndDate:      periodEnd,
		BaseCurrency: "CAD",
		Transactions: []models.TransactionRecord{
			tx("A", "FEE", "2024-02-01", "-40", "CAD"),
			tx("A", "FEE", "2024-03-01", "15", "CAD"),
			tx("A", "CUS", "2024-03-01", "-10", "CAD"),
		},
	}

	res := newCalculator().Calculate(in)

	assertDecimal(t, "50", res.FeesTotal)
}

func TestAttribution_MissingTradeDateRateUsesRawAmount(t *testing.T) {
	in := AttributionInput{
		StartDate:    periodStart,
		EndDate:      periodEnd,
		BaseCurrency: "CAD",
		Transactions: []models.TransactionRecord{
			tx("A", "DIV", "2024-02-01", "100", "USD"),
			tx("A", "DIV", "2024-02-02", "-100", "USD"),
		},
		FxRates: []models.FxRatePoint{fx("2024-02-02", "USD", "1.5")},
	}

	res := newCalculator().Calculate(in)

	// 100 unconverted + |-150| converted.
	assertDecimal(t, "250", res.IncomeTotal)
	require.Len(t, res.ClassificationAudit, 2)
	assert.False(t, res.ClassificationAudit[0].RateFound)
	assert.True(t, res.ClassificationAudit[1].RateFound)
	assertDecimal(t, "-150", res.ClassificationAudit[1].ConvertedAmount)
}

func TestAttribution_MissingAnchorRateZeroesSecurityFx(t *testing.T) {
	in := AttributionInput{
		StartDate:    periodStart,
		EndDate:      periodEnd,
		BaseCurrency: "CAD",
		Holdings: []models.HoldingSnapshot{
			holding(periodStart, "A", "USEQ", "USD", "1000"),
			holding(periodEnd, "A", "USEQ", "USD", "1200"),
			holding(periodStart, "A", "EUEQ", "EUR", "1000"),
			holding(periodEnd, "A", "EUEQ", "EUR", "1000"),
		},
		FxRates: []models.FxRatePoint{
			fx("2024-01-01", "USD", "1.25"),
			fx("2024-01-01", "EUR", "1.0"),
			fx("2024-12-31", "EUR", "1.25"),
		},
	}

	res := newCalculator().Calculate(in)

	// Only EUR counts: (1000 + 800) / 2 * 0.25 = 225.
	assertDecimal(t, "225", res.FxTotal)
}

func TestAttribution_UnclassifiedAndOutOfWindowTransactions(t *testing.T) {
	in := AttributionInput{
		StartDate:    periodStart,
		EndDate:      periodEnd,
		BaseCurrency: "CAD",
		Transactions: []models.TransactionRecord{
			tx("A", "XYZ", "2024-05-01", "1000", "CAD"),
			tx("A", "DIV", "2024-01-01", "999", "CAD"), // start date is excluded
			tx("A", "DIV", "2024-12-31", "10", "CAD"),  // end date is included
			tx("A", "CRD", "2024-06-01", "5000", "CAD"),
		},
		CashFlows: []models.DailyCashFlow{
			flow("A", "2024-01-01", "777"),
			flow("A", "2024-12-31", "5"),
		},
	}

	res := newCalculator().Calculate(in)

	assertDecimal(t, "10", res.IncomeTotal)
	assertDecimal(t, "5", res.NetContribution)
	require.Len(t, res.ClassificationAudit, 3)
	classes := map[string]models.TransactionClass{}
	for _, d := range res.ClassificationAudit {
		classes[d.TypeCode] = d.Class
	}
	assert.Equal(t, models.ClassUnclassified, classes["XYZ"])
	assert.Equal(t, models.ClassCashIn, classes["CRD"])
}

func TestAttribution_EmptyInputIsAllZero(t *testing.T) {
	res := newCalculator().Calculate(AttributionInput{StartDate: periodStart, EndDate: periodEnd, BaseCurrency: "CAD"})

	assert.True(t, res.StartMVA.IsZero())
	assert.True(t, res.EndMVA.IsZero())
	assert.True(t, res.TotalGainLoss.IsZero())
	assert.True(t, res.AppreciationTotal.IsZero())
	assert.Empty(t, res.PerAccount)
	assert.True(t, res.TotalGains.IsZero())
	assert.True(t, res.TotalLosses.IsZero())
}

func TestAttribution_SignedTotals(t *testing.T) {
	in := AttributionInput{
		StartDate:    periodStart,
		EndDate:      periodEnd,
		BaseCurrency: "CAD",
		Holdings: []models.HoldingSnapshot{
			holding(periodStart, "A", "X", "CAD", "1000"),
			holding(periodEnd, "A", "X", "CAD", "900"),
		},
		Transactions: []models.TransactionRecord{tx("A", "DIV", "2024-05-05", "50", "CAD")},
	}

	res := newCalculator().Calculate(in)

	// tgl -100 = income 50 + appreciation -150.
	assertDecimal(t, "50", res.TotalGains)
	assertDecimal(t, "-150", res.TotalLosses)
}
