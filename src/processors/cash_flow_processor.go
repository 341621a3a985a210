package processors

import (
	"github.com/shopspring/decimal"
	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/utils"
)

type cashFlowProcessorImpl struct {
	classifier TransactionClassifier
}

func NewCashFlowProcessor(classifier TransactionClassifier) CashFlowProcessor {
	return &cashFlowProcessorImpl{classifier: classifier}
}

// BenchmarkCashFlows sums deposits and withdrawals per trade date. Deposits keep
// the stored settlement amount and withdrawals have it negated. Amounts are
// not converted to the base currency.
func (p *cashFlowProcessorImpl) BenchmarkCashFlows(transactions []models.TransactionRecord) map[string]decimal.Decimal {
	flows := make(map[string]decimal.Decimal)
	for _, tx := range transactions {
		var amount decimal.Decimal
		switch p.classifier.Classify(tx.TypeCode) {
		case models.ClassCashIn:
			amount = tx.SettlementAmount
		case models.ClassCashOut:
			amount = tx.SettlementAmount.Neg()
		default:
			continue
		}
		key := utils.FormatDate(tx.TradeDate)
		flows[key] = flows[key].Add(amount)
	}
	return flows
}
