package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionClass is the bucket a transaction type code is assigned to.
type TransactionClass string

const (
	ClassIncome       TransactionClass = "income"
	ClassFee          TransactionClass = "fee"
	ClassCashIn       TransactionClass = "cash_in"
	ClassCashOut      TransactionClass = "cash_out"
	ClassTrading      TransactionClass = "trading"
	ClassUnclassified TransactionClass = "unclassified"
)

// ClassificationDecision records how one transaction was bucketed and converted.
type ClassificationDecision struct {
	AccountID        string           `json:"account_id"`
	SecurityID       string           `json:"security_id"`
	TypeCode         string           `json:"type_code"`
	TradeDate        string           `json:"trade_date"`
	Class            TransactionClass `json:"class"`
	SettlementAmount decimal.Decimal  `json:"settlement_amount"`
	ConvertedAmount  decimal.Decimal  `json:"converted_amount"`
	RateFound        bool             `json:"rate_found"`
}

// Components holds the fields shared by the global result and each account.
type Components struct {
	StartMVA          decimal.Decimal `json:"start_mva"`
	EndMVA            decimal.Decimal `json:"end_mva"`
	NetContribution   decimal.Decimal `json:"net_contribution"`
	TotalGainLoss     decimal.Decimal `json:"total_gain_loss"`
	IncomeTotal       decimal.Decimal `json:"income_total"`
	FeesTotal         decimal.Decimal `json:"fees_total"`
	FxTotal           decimal.Decimal `json:"fx_total"`
	AppreciationTotal decimal.Decimal `json:"appreciation_total"`
	OtherTotal        decimal.Decimal `json:"other_total"`
}

// AccountAttribution is the decomposition scoped to one account. Its
// AppreciationTotal is a proportional share of the global appreciation.
type AccountAttribution struct {
	AccountID string `json:"account_id"`
	Components
}

type AttributionResult struct {
	StartDate time.Time `json:"-"`
	EndDate   time.Time `json:"-"`
	Components
	TotalGains          decimal.Decimal               `json:"total_gains"`
	TotalLosses         decimal.Decimal               `json:"total_losses"`
	PerAccount          map[string]AccountAttribution `json:"per_account"`
	ClassificationAudit []ClassificationDecision      `json:"classification_audit,omitempty"`
}

// PerformanceSummary is the flat summary returned next to the attribution graph.
type PerformanceSummary struct {
	StartMVA          decimal.Decimal `json:"start_mva"`
	EndMVA            decimal.Decimal `json:"end_mva"`
	NetContribution   decimal.Decimal `json:"net_contribution"`
	TotalGainLoss     decimal.Decimal `json:"total_gain_loss"`
	TotalGains        decimal.Decimal `json:"total_gains"`
	TotalLosses       decimal.Decimal `json:"total_losses"`
	IncomeTotal       decimal.Decimal `json:"income_total"`
	FeesTotal         decimal.Decimal `json:"fees_total"`
	FxTotal           decimal.Decimal `json:"fx_total"`
	AppreciationTotal decimal.Decimal `json:"appreciation_total"`
	OtherTotal        decimal.Decimal `json:"other_total"`
	StartDate         string          `json:"start_date"`
	EndDate           string          `json:"end_date"`
	AccountCodes      []string        `json:"account_codes"`
}

type PerformanceAttributionResponse struct {
	Summary        PerformanceSummary            `json:"perf_summary"`
	Sankey         Graph                         `json:"perf_sankey"`
	PerAccount     map[string]AccountAttribution `json:"per_account"`
	UnclassifiedTx []ClassificationDecision      `json:"unclassified_transactions"`
}
