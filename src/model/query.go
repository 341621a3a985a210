package model

import (
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"
)

// inPlaceholders returns "(?,?,...)" for n arguments.
func inPlaceholders(n int) string {
	if n <= 0 {
		return "(NULL)"
	}
	return "(?" + strings.Repeat(",?", n-1) + ")"
}

func appendStrings(args []interface{}, vals []string) []interface{} {
	for _, v := range vals {
		args = append(args, v)
	}
	return args
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// parseStoredDecimal reads a TEXT money column. Empty values read as zero.
func parseStoredDecimal(ns sql.NullString) (decimal.Decimal, error) {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.TrimSpace(ns.String))
}
