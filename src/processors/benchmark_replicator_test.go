package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/perfolio/src/models"
)

func TestReplicate_NoPricesYieldsEmptySeries(t *testing.T) {
	flows := map[string]decimal.Decimal{"2024-01-02": dec("1000")}

	series := NewBenchmarkReplicator().Replicate(flows, models.PriceSeries{}, day("2024-01-01"), day("2024-01-31"))

	assert.NotNil(t, series)
	assert.Empty(t, series)
}

func TestReplicate_BuysSharesAtDayPrice(t *testing.T) {
	flows := map[string]decimal.Decimal{"2024-01-02": dec("1000")}
	prices := models.PriceSeries{
		"2024-01-02": dec("100"),
		"2024-01-03": dec("110"),
	}

	series := NewBenchmarkReplicator().Replicate(flows, prices, day("2024-01-02"), day("2024-01-03"))

	require.Len(t, series, 2)
	assertDecimal(t, "1000", series["2024-01-02"])
	assertDecimal(t, "1100", series["2024-01-03"])
}

func TestReplicate_StartsAtFirstPricedDay(t *testing.T) {
	// A flow before the first priced day is never applied.
	flows := map[string]decimal.Decimal{
		"2024-01-01": dec("500"),
		"2024-01-03": dec("200"),
	}
	prices := models.PriceSeries{
		"2024-01-03": dec("20"),
		"2024-01-04": dec("25"),
	}

	series := NewBenchmarkReplicator().Replicate(flows, prices, day("2024-01-01"), day("2024-01-04"))

	assert.NotContains(t, series, "2024-01-01")
	assert.NotContains(t, series, "2024-01-02")
	assertDecimal(t, "200", series["2024-01-03"])
	assertDecimal(t, "250", series["2024-01-04"])
}

func TestReplicate_GapDaysFlatLineAndDropFlows(t *testing.T) {
	flows := map[string]decimal.Decimal{
		"2024-01-05": dec("1000"),
		"2024-01-06": dec("5000"), // Saturday, no price: dropped
		"2024-01-08": dec("-500"),
	}
	prices := models.PriceSeries{
		"2024-01-05": dec("100"),
		"2024-01-08": dec("125"),
	}

	series := NewBenchmarkReplicator().Replicate(flows, prices, day("2024-01-05"), day("2024-01-09"))

	require.Len(t, series, 5)
	assertDecimal(t, "1000", series["2024-01-05"])
	assertDecimal(t, "1000", series["2024-01-06"])
	assertDecimal(t, "1000", series["2024-01-07"])
	// 10 shares - 4 shares sold at 125 = 6 shares.
	assertDecimal(t, "750", series["2024-01-08"])
	assertDecimal(t, "750", series["2024-01-09"])
}

func TestReplicate_ZeroFlowStillRecordsValue(t *testing.T) {
	prices := models.PriceSeries{"2024-02-01": dec("10"), "2024-02-02": dec("11")}

	series := NewBenchmarkReplicator().Replicate(nil, prices, day("2024-02-01"), day("2024-02-02"))

	require.Len(t, series, 2)
	assert.True(t, series["2024-02-01"].IsZero())
	assert.True(t, series["2024-02-02"].IsZero())
}

func TestBenchmarkCashFlows_SignsWithdrawals(t *testing.T) {
	txs := []models.TransactionRecord{
		tx("A", "CRD", "2024-01-02", "1000", "CAD"),
		tx("B", "TCI", "2024-01-02", "250", "CAD"),
		tx("A", "CWD", "2024-01-03", "300", "CAD"),
		tx("A", "TCO", "2024-01-03", "200", "CAD"),
		tx("A", "DIV", "2024-01-03", "99", "CAD"),
	}

	flows := NewCashFlowProcessor(NewTransactionClassifier()).BenchmarkCashFlows(txs)

	require.Len(t, flows, 2)
	assertDecimal(t, "1250", flows["2024-01-02"])
	assertDecimal(t, "-500", flows["2024-01-03"])
}
