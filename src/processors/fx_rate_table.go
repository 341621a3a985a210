package processors

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/utils"
)

type fxKey struct {
	date     string
	currency string
}

// FxRateTable is an exact-date lookup over a sparse rate series. It never
// interpolates: a (date, currency) pair is either present or missing.
type FxRateTable struct {
	baseCurrency string
	rates        map[fxKey]decimal.Decimal
}

// NewFxRateTable indexes points by date and currency. Non-positive rates are
// skipped and therefore read as missing. A later point for the same key wins.
func NewFxRateTable(baseCurrency string, points []models.FxRatePoint) *FxRateTable {
	t := &FxRateTable{
		baseCurrency: strings.ToUpper(baseCurrency),
		rates:        make(map[fxKey]decimal.Decimal, len(points)),
	}
	for _, p := range points {
		if !p.RateToBase.IsPositive() {
			continue
		}
		t.rates[fxKey{date: utils.FormatDate(p.AsOfDate), currency: strings.ToUpper(p.CurrencyCode)}] = p.RateToBase
	}
	return t
}

// IsBase reports whether currency is the base currency.
func (t *FxRateTable) IsBase(currency string) bool {
	return strings.EqualFold(currency, t.baseCurrency)
}

// Rate returns units of base currency per unit of currency on date. The base
// currency always converts at 1.
func (t *FxRateTable) Rate(currency string, date time.Time) (decimal.Decimal, bool) {
	if t.IsBase(currency) {
		return decimal.NewFromInt(1), true
	}
	r, ok := t.rates[fxKey{date: utils.FormatDate(date), currency: strings.ToUpper(currency)}]
	return r, ok
}

// ToBase converts amount on date. Without a rate the raw amount is returned
// unconverted and found is false.
func (t *FxRateTable) ToBase(amount decimal.Decimal, currency string, date time.Time) (converted decimal.Decimal, found bool) {
	rate, ok := t.Rate(currency, date)
	if !ok {
		return amount, false
	}
	return amount.Mul(rate), true
}
