package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HoldingSnapshot is one account/security position valued at a single anchor date.
type HoldingSnapshot struct {
	AsOfDate             time.Time       `json:"as_of_date"`
	AccountID            string          `json:"account_id"`
	SecurityID           string          `json:"security_id"`
	CurrencyCode         string          `json:"currency_code"`
	MarketValueBase      decimal.Decimal `json:"market_value_in_base_currency"`
	Quantity             decimal.Decimal `json:"quantity"`
	SecurityCurrencyCode string          `json:"security_currency_code"`
}

// TransactionRecord is one executed event read from fact_transactions.
type TransactionRecord struct {
	AccountID          string          `json:"account_id"`
	SecurityID         string          `json:"security_id"`
	TypeCode           string          `json:"type_code"`
	TradeDate          time.Time       `json:"trade_date"`
	SettlementAmount   decimal.Decimal `json:"settlement_amount"`
	SettlementCurrency string          `json:"settlement_currency"`
}

// FxRatePoint converts one unit of CurrencyCode into the base currency on AsOfDate.
type FxRatePoint struct {
	AsOfDate     time.Time       `json:"as_of_date"`
	CurrencyCode string          `json:"currency_code"`
	RateToBase   decimal.Decimal `json:"rate_to_base"`
}

// DailyCashFlow is the net external flow of one account on one day, in base currency.
type DailyCashFlow struct {
	AccountID       string          `json:"account_id"`
	AsOfDate        time.Time       `json:"as_of_date"`
	NetCashFlowBase decimal.Decimal `json:"net_cashflow_in_base_currency"`
}

// Account mirrors a dim_accounts row. Nullable text columns are pointers.
type Account struct {
	AccountCode         string     `json:"account_code"`
	AccountType         *string    `json:"account_type"`
	AccountName         *string    `json:"account_name"`
	CustodianName       *string    `json:"custodian_name"`
	Country             *string    `json:"country"`
	AccountCurrencyCode *string    `json:"account_currency_code"`
	Status              *string    `json:"status"`
	IsRegisteredAccount *string    `json:"is_registered_account"`
	OpenDate            *time.Time `json:"open_date"`
}

// Security mirrors a dim_security_master row.
type Security struct {
	SecID                   string  `json:"secid"`
	SecurityName            *string `json:"security_name"`
	SecuritySymbol          *string `json:"security_symbol"`
	SecurityTypeCode        *string `json:"security_type_code"`
	SecurityTypeDescription *string `json:"security_type_description"`
	SecurityCountry         *string `json:"security_country"`
	SecurityCurrencyCode    *string `json:"security_currency_code"`
	AssetClass              *string `json:"asset_class"`
	IndustryGroup           *string `json:"industry_group"`
	Issuer                  *string `json:"issuer"`
	AssetClassLevel1Name    *string `json:"asset_class_level_1_name"`
	AssetClassLevel2Name    *string `json:"asset_class_level_2_name"`
	AssetClassLevel3Name    *string `json:"asset_class_level_3_name"`
}

// HoldingRow is a holding joined with its account and security dimensions.
// It is the record type grouped by the holdings flow graph.
type HoldingRow struct {
	AsOfDate        time.Time
	Account         Account
	Security        Security
	MarketValueBase decimal.Decimal
}

// ImportBatch holds the typed rows read from one warehouse CSV file. Only the
// slice matching the imported table is populated.
type ImportBatch struct {
	Table        string
	Accounts     []Account
	Securities   []Security
	Holdings     []HoldingSnapshot
	Transactions []TransactionRecord
	FxRates      []FxRatePoint
	CashFlows    []DailyCashFlow
}

// Len returns the number of rows in the batch.
func (b ImportBatch) Len() int {
	return len(b.Accounts) + len(b.Securities) + len(b.Holdings) +
		len(b.Transactions) + len(b.FxRates) + len(b.CashFlows)
}
