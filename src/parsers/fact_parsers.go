package parsers

import (
	"io"
	"strings"

	"github.com/username/perfolio/src/models"
)

type HoldingParser struct{}

func (p *HoldingParser) Parse(file io.Reader) (models.ImportBatch, error) {
	batch := models.ImportBatch{Table: TableHoldings, Holdings: []models.HoldingSnapshot{}}
	required := []string{"as_of_date", "account_code", "secid", "currency_code", "market_value_accrued"}
	err := readTable(file, required, func(r csvRow) error {
		var h models.HoldingSnapshot
		var err error
		if h.AsOfDate, err = r.date("as_of_date"); err != nil {
			return err
		}
		if h.AccountID, err = r.required("account_code"); err != nil {
			return err
		}
		if h.SecurityID, err = r.required("secid"); err != nil {
			return err
		}
		if h.CurrencyCode, err = r.code("currency_code"); err != nil {
			return err
		}
		if h.MarketValueBase, err = r.decimal("market_value_accrued"); err != nil {
			return err
		}
		if h.Quantity, err = r.optionalDecimal("quantity"); err != nil {
			return err
		}
		batch.Holdings = append(batch.Holdings, h)
		return nil
	})
	return batch, err
}

type TransactionParser struct{}

func (p *TransactionParser) Parse(file io.Reader) (models.ImportBatch, error) {
	batch := models.ImportBatch{Table: TableTransactions, Transactions: []models.TransactionRecord{}}
	required := []string{"account_code", "transaction_type_code", "trade_date", "settlement_amount"}
	err := readTable(file, required, func(r csvRow) error {
		var t models.TransactionRecord
		var err error
		if t.AccountID, err = r.required("account_code"); err != nil {
			return err
		}
		if t.TypeCode, err = r.code("transaction_type_code"); err != nil {
			return err
		}
		if t.TradeDate, err = r.date("trade_date"); err != nil {
			return err
		}
		if t.SettlementAmount, err = r.decimal("settlement_amount"); err != nil {
			return err
		}
		t.SecurityID = r.get("secid")
		t.SettlementCurrency = strings.ToUpper(r.get("settlement_currency"))
		batch.Transactions = append(batch.Transactions, t)
		return nil
	})
	return batch, err
}

// FxRateParser rejects non-positive rates; a zero rate would divide by zero
// during conversion.
type FxRateParser struct{}

func (p *FxRateParser) Parse(file io.Reader) (models.ImportBatch, error) {
	batch := models.ImportBatch{Table: TableFxRates, FxRates: []models.FxRatePoint{}}
	err := readTable(file, []string{"as_of_date", "currency_code", "rate_to_base"}, func(r csvRow) error {
		var f models.FxRatePoint
		var err error
		if f.AsOfDate, err = r.date("as_of_date"); err != nil {
			return err
		}
		if f.CurrencyCode, err = r.code("currency_code"); err != nil {
			return err
		}
		if f.RateToBase, err = r.decimal("rate_to_base"); err != nil {
			return err
		}
		if !f.RateToBase.IsPositive() {
			return r.fail("rate_to_base", "rate must be positive, got %s", f.RateToBase)
		}
		batch.FxRates = append(batch.FxRates, f)
		return nil
	})
	return batch, err
}

type CashFlowParser struct{}

func (p *CashFlowParser) Parse(file io.Reader) (models.ImportBatch, error) {
	batch := models.ImportBatch{Table: TableCashFlows, CashFlows: []models.DailyCashFlow{}}
	err := readTable(file, []string{"account_code", "as_of_date", "net_cashflow_converted"}, func(r csvRow) error {
		var c models.DailyCashFlow
		var err error
		if c.AccountID, err = r.required("account_code"); err != nil {
			return err
		}
		if c.AsOfDate, err = r.date("as_of_date"); err != nil {
			return err
		}
		if c.NetCashFlowBase, err = r.decimal("net_cashflow_converted"); err != nil {
			return err
		}
		batch.CashFlows = append(batch.CashFlows, c)
		return nil
	})
	return batch, err
}
