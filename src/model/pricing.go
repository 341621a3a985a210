package model

import (
	"context"
	"database/sql"
	"time"
)

// BenchmarkProxy represents a row in the benchmark_proxies table.
// It maps a benchmark symbol that the price source cannot serve to one it can.
type BenchmarkProxy struct {
	Symbol      string
	ProxySymbol string
	CreatedAt   time.Time
}

// GetProxiesBySymbols retrieves the proxies of several benchmark symbols in a single query.
// It returns a map keyed by the original symbol.
func GetProxiesBySymbols(ctx context.Context, db *sql.DB, symbols []string) (map[string]BenchmarkProxy, error) {
	proxies := make(map[string]BenchmarkProxy)
	if len(symbols) == 0 {
		return proxies, nil
	}

	query := `SELECT symbol, proxy_symbol, created_at FROM benchmark_proxies WHERE symbol IN ` + inPlaceholders(len(symbols))

	rows, err := db.QueryContext(ctx, query, appendStrings(nil, symbols)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p BenchmarkProxy
		if err := rows.Scan(&p.Symbol, &p.ProxySymbol, &p.CreatedAt); err != nil {
			return nil, err
		}
		proxies[p.Symbol] = p
	}

	return proxies, rows.Err()
}

// UpsertProxy stores or replaces the proxy of a benchmark symbol.
func UpsertProxy(ctx context.Context, db *sql.DB, symbol, proxySymbol string) error {
	query := `
		INSERT INTO benchmark_proxies (symbol, proxy_symbol, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET proxy_symbol = excluded.proxy_symbol`

	_, err := db.ExecContext(ctx, query, symbol, proxySymbol, time.Now().UTC())
	return err
}
