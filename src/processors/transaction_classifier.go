package processors

import (
	"strings"

	"github.com/username/perfolio/src/models"
)

// Transaction type codes per bucket. A code belongs to at most one list.
var (
	IncomeCodes  = []string{"DIV", "INT", "DIS", "RIC"}
	FeeCodes     = []string{"FEE", "MGF", "CUS", "ADM"}
	CashInCodes  = []string{"CRD", "TCI"}
	CashOutCodes = []string{"CWD", "TCO"}
	TradingCodes = []string{"BUY", "SEL", "FXB", "FXS", "TFI", "TFO"}
)

type transactionClassifierImpl struct {
	table map[string]models.TransactionClass
}

// NewTransactionClassifier builds the classifier over the static code tables.
func NewTransactionClassifier() TransactionClassifier {
	table := make(map[string]models.TransactionClass)
	register := func(codes []string, class models.TransactionClass) {
		for _, c := range codes {
			table[c] = class
		}
	}
	register(IncomeCodes, models.ClassIncome)
	register(FeeCodes, models.ClassFee)
	register(CashInCodes, models.ClassCashIn)
	register(CashOutCodes, models.ClassCashOut)
	register(TradingCodes, models.ClassTrading)
	return &transactionClassifierImpl{table: table}
}

func (c *transactionClassifierImpl) Classify(typeCode string) models.TransactionClass {
	if class, ok := c.table[strings.ToUpper(strings.TrimSpace(typeCode))]; ok {
		return class
	}
	return models.ClassUnclassified
}

// CashFlowCodes lists the deposit and withdrawal codes together.
func CashFlowCodes() []string {
	codes := make([]string, 0, len(CashInCodes)+len(CashOutCodes))
	codes = append(codes, CashInCodes...)
	return append(codes, CashOutCodes...)
}
