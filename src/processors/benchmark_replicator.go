package processors

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/utils"
)

type benchmarkReplicatorImpl struct{}

func NewBenchmarkReplicator() BenchmarkReplicator {
	return &benchmarkReplicatorImpl{}
}

// Replicate buys benchmark units with each day's net cash flow at that day's
// price. The series starts at the first priced day in [startDate, endDate].
// Days without a price repeat the previous value, and a cash flow landing on
// such a day is dropped. Non-positive prices count as missing.
func (r *benchmarkReplicatorImpl) Replicate(cashFlows map[string]decimal.Decimal, prices models.PriceSeries, startDate, endDate time.Time) models.BenchmarkSeries {
	series := models.BenchmarkSeries{}
	start := utils.TruncateToDay(startDate)
	end := utils.TruncateToDay(endDate)

	priceOn := func(day time.Time) (decimal.Decimal, bool) {
		p, ok := prices[utils.FormatDate(day)]
		return p, ok && p.IsPositive()
	}

	first := start
	for ; !first.After(end); first = first.AddDate(0, 0, 1) {
		if _, ok := priceOn(first); ok {
			break
		}
	}
	if first.After(end) {
		return series
	}

	shares := decimal.Zero
	value := decimal.Zero
	for day := first; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := utils.FormatDate(day)
		price, ok := priceOn(day)
		if !ok {
			series[key] = value
			continue
		}
		if cf, has := cashFlows[key]; has && !cf.IsZero() {
			shares = shares.Add(cf.Div(price))
		}
		value = shares.Mul(price)
		series[key] = value
	}
	return series
}
