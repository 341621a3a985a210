package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/utils"
)

// GetDailyCashFlows returns the precomputed daily net flows of accounts within
// [from, to].
func GetDailyCashFlows(ctx context.Context, db *sql.DB, accounts []string, from, to time.Time) ([]models.DailyCashFlow, error) {
	flows := []models.DailyCashFlow{}
	if len(accounts) == 0 {
		return flows, nil
	}

	query := `
		SELECT account_code, as_of_date, net_cashflow_converted
		FROM fact_daily_cash_flows
		WHERE as_of_date >= ? AND as_of_date <= ?
		AND account_code IN ` + inPlaceholders(len(accounts)) + `
		ORDER BY as_of_date, account_code`
	args := []interface{}{utils.FormatDate(from), utils.FormatDate(to)}
	args = appendStrings(args, accounts)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying daily cash flows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f models.DailyCashFlow
		var dateStr string
		var amount sql.NullString
		if err := rows.Scan(&f.AccountID, &dateStr, &amount); err != nil {
			return nil, fmt.Errorf("error scanning daily cash flow: %w", err)
		}
		if f.AsOfDate, err = utils.ParseDate(dateStr); err != nil {
			return nil, err
		}
		if f.NetCashFlowBase, err = parseStoredDecimal(amount); err != nil {
			return nil, fmt.Errorf("invalid cash flow for %s on %s: %w", f.AccountID, dateStr, err)
		}
		flows = append(flows, f)
	}
	return flows, rows.Err()
}

// InsertDailyCashFlows writes flows, replacing the flow of an account/day
// already present.
func InsertDailyCashFlows(ctx context.Context, tx *sql.Tx, flows []models.DailyCashFlow) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO fact_daily_cash_flows (account_code, as_of_date, net_cashflow_converted)
		VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing cash flow insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range flows {
		if _, err := stmt.ExecContext(ctx, f.AccountID, utils.FormatDate(f.AsOfDate), f.NetCashFlowBase.String()); err != nil {
			return fmt.Errorf("error inserting cash flow for %s: %w", f.AccountID, err)
		}
	}
	return nil
}
