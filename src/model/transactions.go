package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/utils"
)

// GetTransactions returns the transactions of accounts traded within
// [from, to], both inclusive. When codes is non-empty only those type codes
// are returned.
func GetTransactions(ctx context.Context, db *sql.DB, accounts []string, from, to time.Time, codes ...string) ([]models.TransactionRecord, error) {
	txs := []models.TransactionRecord{}
	if len(accounts) == 0 {
		return txs, nil
	}

	query := `
		SELECT account_code, COALESCE(secid, ''), transaction_type_code, trade_date, settlement_amount,
			COALESCE(settlement_currency, '')
		FROM fact_transactions
		WHERE trade_date >= ? AND trade_date <= ?
		AND account_code IN ` + inPlaceholders(len(accounts))
	args := []interface{}{utils.FormatDate(from), utils.FormatDate(to)}
	args = appendStrings(args, accounts)
	if len(codes) > 0 {
		query += ` AND transaction_type_code IN ` + inPlaceholders(len(codes))
		args = appendStrings(args, codes)
	}
	query += ` ORDER BY trade_date, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.TransactionRecord
		var dateStr string
		var amount sql.NullString
		if err := rows.Scan(&t.AccountID, &t.SecurityID, &t.TypeCode, &dateStr, &amount, &t.SettlementCurrency); err != nil {
			return nil, fmt.Errorf("error scanning transaction: %w", err)
		}
		if t.TradeDate, err = utils.ParseDate(dateStr); err != nil {
			return nil, err
		}
		if t.SettlementAmount, err = parseStoredDecimal(amount); err != nil {
			return nil, fmt.Errorf("invalid settlement amount for %s on %s: %w", t.AccountID, dateStr, err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// InsertTransactions appends transactions. Transactions carry no natural key,
// so re-importing a file duplicates its rows.
func InsertTransactions(ctx context.Context, tx *sql.Tx, txs []models.TransactionRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fact_transactions (account_code, secid, transaction_type_code, trade_date, settlement_amount, settlement_currency)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing transaction insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		if _, err := stmt.ExecContext(ctx, t.AccountID, t.SecurityID, t.TypeCode, utils.FormatDate(t.TradeDate), t.SettlementAmount.String(), t.SettlementCurrency); err != nil {
			return fmt.Errorf("error inserting transaction for %s: %w", t.AccountID, err)
		}
	}
	return nil
}
