package parsers

import (
	"fmt"
)

const (
	TableAccounts     = "accounts"
	TableSecurities   = "securities"
	TableHoldings     = "holdings"
	TableTransactions = "transactions"
	TableFxRates      = "fx_rates"
	TableCashFlows    = "cash_flows"
)

// SupportedTables lists the importable tables in dependency order.
func SupportedTables() []string {
	return []string{TableAccounts, TableSecurities, TableHoldings, TableTransactions, TableFxRates, TableCashFlows}
}

func GetParser(table string) (Parser, error) {
	switch table {
	case TableAccounts:
		return &AccountParser{}, nil
	case TableSecurities:
		return &SecurityParser{}, nil
	case TableHoldings:
		return &HoldingParser{}, nil
	case TableTransactions:
		return &TransactionParser{}, nil
	case TableFxRates:
		return &FxRateParser{}, nil
	case TableCashFlows:
		return &CashFlowParser{}, nil
	default:
		return nil, fmt.Errorf("no parser available for table: %s", table)
	}
}
