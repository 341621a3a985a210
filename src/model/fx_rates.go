package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/utils"
)

// GetFxRatesOn returns the rates recorded for a single date.
func GetFxRatesOn(ctx context.Context, db *sql.DB, date time.Time) ([]models.FxRatePoint, error) {
	return queryFxRates(ctx, db, `
		SELECT as_of_date, currency_code, rate_to_base FROM fx_rates
		WHERE as_of_date = ? ORDER BY currency_code`, utils.FormatDate(date))
}

// GetFxRates returns every rate within [from, to].
func GetFxRates(ctx context.Context, db *sql.DB, from, to time.Time) ([]models.FxRatePoint, error) {
	return queryFxRates(ctx, db, `
		SELECT as_of_date, currency_code, rate_to_base FROM fx_rates
		WHERE as_of_date >= ? AND as_of_date <= ? ORDER BY as_of_date, currency_code`,
		utils.FormatDate(from), utils.FormatDate(to))
}

func queryFxRates(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]models.FxRatePoint, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying fx rates: %w", err)
	}
	defer rows.Close()

	points := []models.FxRatePoint{}
	for rows.Next() {
		var p models.FxRatePoint
		var dateStr string
		var rate sql.NullString
		if err := rows.Scan(&dateStr, &p.CurrencyCode, &rate); err != nil {
			return nil, fmt.Errorf("error scanning fx rate: %w", err)
		}
		if p.AsOfDate, err = utils.ParseDate(dateStr); err != nil {
			return nil, err
		}
		if p.RateToBase, err = parseStoredDecimal(rate); err != nil {
			return nil, fmt.Errorf("invalid rate for %s on %s: %w", p.CurrencyCode, dateStr, err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// InsertFxRates writes rates, replacing any rate already recorded for the
// same date and currency.
func InsertFxRates(ctx context.Context, tx *sql.Tx, points []models.FxRatePoint) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO fx_rates (as_of_date, currency_code, rate_to_base) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing fx rate insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, utils.FormatDate(p.AsOfDate), p.CurrencyCode, p.RateToBase.String()); err != nil {
			return fmt.Errorf("error inserting fx rate %s: %w", p.CurrencyCode, err)
		}
	}
	return nil
}
