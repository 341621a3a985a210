package database

import (
	"database/sql"
	"fmt"
	stdlog "log"
	"strings"

	"github.com/username/perfolio/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// Monetary columns are TEXT so decimal strings round-trip exactly.
const schema = `
CREATE TABLE IF NOT EXISTS dim_accounts (
	account_code TEXT PRIMARY KEY,
	account_type TEXT,
	account_name TEXT,
	custodian_name TEXT,
	country TEXT,
	account_currency_code TEXT,
	status TEXT,
	is_registered_account TEXT,
	open_date TEXT
);

CREATE TABLE IF NOT EXISTS dim_security_master (
	secid TEXT PRIMARY KEY,
	security_name TEXT,
	security_symbol TEXT,
	security_type_code TEXT,
	security_type_description TEXT,
	security_country TEXT,
	security_currency_code TEXT,
	asset_class TEXT,
	industry_group TEXT,
	issuer TEXT,
	asset_class_level_1_name TEXT,
	asset_class_level_2_name TEXT,
	asset_class_level_3_name TEXT
);

CREATE TABLE IF NOT EXISTS fact_holdings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	as_of_date TEXT NOT NULL,
	account_code TEXT NOT NULL,
	secid TEXT NOT NULL,
	currency_code TEXT NOT NULL,
	market_value_accrued TEXT NOT NULL,
	quantity TEXT,
	UNIQUE(as_of_date, account_code, secid, currency_code)
);
CREATE INDEX IF NOT EXISTS idx_fact_holdings_account_date ON fact_holdings(account_code, as_of_date);

CREATE TABLE IF NOT EXISTS fact_transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account_code TEXT NOT NULL,
	secid TEXT,
	transaction_type_code TEXT NOT NULL,
	trade_date TEXT NOT NULL,
	settlement_amount TEXT NOT NULL,
	settlement_currency TEXT
);
CREATE INDEX IF NOT EXISTS idx_fact_transactions_account_date ON fact_transactions(account_code, trade_date);

CREATE TABLE IF NOT EXISTS fx_rates (
	as_of_date TEXT NOT NULL,
	currency_code TEXT NOT NULL,
	rate_to_base TEXT NOT NULL,
	PRIMARY KEY (as_of_date, currency_code)
);

CREATE TABLE IF NOT EXISTS fact_daily_cash_flows (
	account_code TEXT NOT NULL,
	as_of_date TEXT NOT NULL,
	net_cashflow_converted TEXT NOT NULL,
	PRIMARY KEY (account_code, as_of_date)
);

CREATE TABLE IF NOT EXISTS benchmark_proxies (
	symbol TEXT PRIMARY KEY,
	proxy_symbol TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// columnMigration adds a column that older database files may lack.
type columnMigration struct {
	table      string
	column     string
	definition string
}

var columnMigrations = []columnMigration{
	{"dim_accounts", "is_registered_account", "TEXT"},
	{"dim_accounts", "open_date", "TEXT"},
	{"dim_security_master", "security_type_description", "TEXT"},
	{"dim_security_master", "asset_class_level_3_name", "TEXT"},
	{"fact_transactions", "settlement_currency", "TEXT"},
}

// InitDB opens the warehouse at databasePath and ensures its schema. It exits
// the process on failure, as the service cannot run without it.
func InitDB(databasePath string) {
	db, err := Open(databasePath)
	if err != nil {
		logger.L.Error("failed to initialize database", "path", databasePath, "error", err)
		stdlog.Fatalf("failed to initialize database at %s: %v", databasePath, err)
	}
	DB = db
}

// Open opens a SQLite database and applies the schema and column migrations.
func Open(databasePath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", databasePath, err)
	}
	if strings.Contains(databasePath, ":memory:") {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	logger.L.Info("Checking database migrations", "databasePath", databasePath)
	if err := migrateColumns(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	logger.L.Info("Database tables ensured/created.")
	return db, nil
}

func migrateColumns(db *sql.DB) error {
	for _, m := range columnMigrations {
		exists, err := tableExists(db, m.table)
		if err != nil {
			return err
		}
		if !exists {
			// CREATE TABLE will add the column.
			continue
		}
		columns, err := TableColumns(db, m.table)
		if err != nil {
			return err
		}
		if columns[m.column] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.table, m.column, m.definition)
		if _, err := db.Exec(stmt); err != nil {
			logger.L.Error("Error adding column", "table", m.table, "column", m.column, "error", err)
			return fmt.Errorf("error adding column %s.%s: %w", m.table, m.column, err)
		}
		logger.L.Info("Added column", "table", m.table, "column", m.column)
	}
	return nil
}

func tableExists(db *sql.DB, table string) (bool, error) {
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking for table %s: %w", table, err)
	}
	return true, nil
}

// TableColumns returns the column names of table from PRAGMA table_info.
func TableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("error querying table schema for %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var cid, notnull, pk int
		var name, dataType string
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("error scanning column info for %s: %w", table, err)
		}
		columns[name] = true
	}
	return columns, rows.Err()
}
