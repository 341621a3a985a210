package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/utils"
)

// GetHoldingSnapshots returns the reporting-currency holding rows of accounts
// on the given dates. A security without a master row is treated as held in
// the reporting currency.
func GetHoldingSnapshots(ctx context.Context, db *sql.DB, accounts []string, reportingCurrency string, dates ...time.Time) ([]models.HoldingSnapshot, error) {
	snapshots := []models.HoldingSnapshot{}
	if len(accounts) == 0 || len(dates) == 0 {
		return snapshots, nil
	}
	dateArgs := make([]string, len(dates))
	for i, d := range dates {
		dateArgs[i] = utils.FormatDate(d)
	}

	query := `
		SELECT h.as_of_date, h.account_code, h.secid, h.currency_code, h.market_value_accrued, h.quantity,
			COALESCE(s.security_currency_code, h.currency_code)
		FROM fact_holdings h
		LEFT JOIN dim_security_master s ON h.secid = s.secid
		WHERE h.currency_code = ?
		AND h.account_code IN ` + inPlaceholders(len(accounts)) + `
		AND h.as_of_date IN ` + inPlaceholders(len(dateArgs)) + `
		ORDER BY h.as_of_date, h.account_code, h.secid`

	args := []interface{}{reportingCurrency}
	args = appendStrings(args, accounts)
	args = appendStrings(args, dateArgs)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying holding snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dateStr string
		var mva, qty sql.NullString
		var h models.HoldingSnapshot
		if err := rows.Scan(&dateStr, &h.AccountID, &h.SecurityID, &h.CurrencyCode, &mva, &qty, &h.SecurityCurrencyCode); err != nil {
			return nil, fmt.Errorf("error scanning holding snapshot: %w", err)
		}
		if h.AsOfDate, err = utils.ParseDate(dateStr); err != nil {
			return nil, err
		}
		if h.MarketValueBase, err = parseStoredDecimal(mva); err != nil {
			return nil, fmt.Errorf("invalid market value for %s/%s on %s: %w", h.AccountID, h.SecurityID, dateStr, err)
		}
		if h.Quantity, err = parseStoredDecimal(qty); err != nil {
			return nil, fmt.Errorf("invalid quantity for %s/%s on %s: %w", h.AccountID, h.SecurityID, dateStr, err)
		}
		snapshots = append(snapshots, h)
	}
	return snapshots, rows.Err()
}

// GetHoldingRows returns holdings on asOfDate joined with their account and
// security dimensions. Holdings missing either dimension are left out.
func GetHoldingRows(ctx context.Context, db *sql.DB, accounts []string, asOfDate time.Time, reportingCurrency string) ([]models.HoldingRow, error) {
	result := []models.HoldingRow{}
	if len(accounts) == 0 {
		return result, nil
	}

	query := `
		SELECT h.as_of_date, h.market_value_accrued,
			a.account_code, a.account_type, a.account_name, a.custodian_name, a.country,
			a.account_currency_code, a.status, a.is_registered_account,
			s.secid, s.security_name, s.security_symbol, s.security_type_code, s.security_type_description,
			s.security_country, s.security_currency_code, s.asset_class, s.industry_group, s.issuer,
			s.asset_class_level_1_name, s.asset_class_level_2_name, s.asset_class_level_3_name
		FROM fact_holdings h
		JOIN dim_accounts a ON h.account_code = a.account_code
		JOIN dim_security_master s ON h.secid = s.secid
		WHERE h.currency_code = ?
		AND h.as_of_date = ?
		AND h.account_code IN ` + inPlaceholders(len(accounts)) + `
		ORDER BY h.account_code, h.secid`

	args := []interface{}{reportingCurrency, utils.FormatDate(asOfDate)}
	args = appendStrings(args, accounts)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying holdings for graph: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dateStr string
		var mva sql.NullString
		var acct accountColumns
		var sec securityColumns
		var secID string
		dest := []interface{}{&dateStr, &mva}
		dest = append(dest, acct.scanTargets()...)
		dest = append(dest, &secID)
		dest = append(dest, sec.scanTargets()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error scanning holding row: %w", err)
		}

		row := models.HoldingRow{Account: acct.toModel(), Security: sec.toModel(secID)}
		if row.AsOfDate, err = utils.ParseDate(dateStr); err != nil {
			return nil, err
		}
		if row.MarketValueBase, err = parseStoredDecimal(mva); err != nil {
			return nil, fmt.Errorf("invalid market value for account %s security %s: %w", row.Account.AccountCode, secID, err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// GetPortfolioDailyValues sums reporting-currency market value per day.
func GetPortfolioDailyValues(ctx context.Context, db *sql.DB, accounts []string, from, to time.Time, reportingCurrency string) (map[string]decimal.Decimal, error) {
	values := make(map[string]decimal.Decimal)
	if len(accounts) == 0 {
		return values, nil
	}

	query := `
		SELECT as_of_date, market_value_accrued
		FROM fact_holdings
		WHERE currency_code = ?
		AND as_of_date >= ? AND as_of_date <= ?
		AND account_code IN ` + inPlaceholders(len(accounts))

	args := []interface{}{reportingCurrency, utils.FormatDate(from), utils.FormatDate(to)}
	args = appendStrings(args, accounts)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying portfolio daily values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dateStr string
		var mva sql.NullString
		if err := rows.Scan(&dateStr, &mva); err != nil {
			return nil, fmt.Errorf("error scanning portfolio daily value: %w", err)
		}
		v, err := parseStoredDecimal(mva)
		if err != nil {
			return nil, fmt.Errorf("invalid market value on %s: %w", dateStr, err)
		}
		values[dateStr] = values[dateStr].Add(v)
	}
	return values, rows.Err()
}

// GetAvailableDates lists the distinct holding dates of accounts, ascending.
func GetAvailableDates(ctx context.Context, db *sql.DB, accounts []string) ([]time.Time, error) {
	dates := []time.Time{}
	if len(accounts) == 0 {
		return dates, nil
	}

	query := `SELECT DISTINCT as_of_date FROM fact_holdings WHERE account_code IN ` + inPlaceholders(len(accounts)) + ` ORDER BY as_of_date`
	rows, err := db.QueryContext(ctx, query, appendStrings(nil, accounts)...)
	if err != nil {
		return nil, fmt.Errorf("error querying available dates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dateStr string
		if err := rows.Scan(&dateStr); err != nil {
			return nil, fmt.Errorf("error scanning available date: %w", err)
		}
		d, err := utils.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// InsertHoldings writes snapshots, replacing rows with the same key.
func InsertHoldings(ctx context.Context, tx *sql.Tx, holdings []models.HoldingSnapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO fact_holdings (as_of_date, account_code, secid, currency_code, market_value_accrued, quantity)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing holdings insert: %w", err)
	}
	defer stmt.Close()

	for _, h := range holdings {
		if _, err := stmt.ExecContext(ctx, utils.FormatDate(h.AsOfDate), h.AccountID, h.SecurityID, h.CurrencyCode, h.MarketValueBase.String(), h.Quantity.String()); err != nil {
			return fmt.Errorf("error inserting holding %s/%s: %w", h.AccountID, h.SecurityID, err)
		}
	}
	return nil
}
