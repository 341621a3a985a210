package utils

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places monetary graph values are rounded to.
const MoneyPlaces = 2

var two = decimal.NewFromInt(2)

// RoundMoney rounds a monetary amount to MoneyPlaces, half away from zero.
func RoundMoney(val decimal.Decimal) decimal.Decimal {
	return val.Round(MoneyPlaces)
}

// Midpoint returns (a + b) / 2.
func Midpoint(a, b decimal.Decimal) decimal.Decimal {
	return a.Add(b).Div(two)
}

