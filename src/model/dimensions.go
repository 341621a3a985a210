package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/utils"
)

type accountColumns struct {
	code                sql.NullString
	accountType         sql.NullString
	name                sql.NullString
	custodian           sql.NullString
	country             sql.NullString
	currency            sql.NullString
	status              sql.NullString
	isRegisteredAccount sql.NullString
}

func (c *accountColumns) scanTargets() []interface{} {
	return []interface{}{&c.code, &c.accountType, &c.name, &c.custodian, &c.country, &c.currency, &c.status, &c.isRegisteredAccount}
}

func (c *accountColumns) toModel() models.Account {
	return models.Account{
		AccountCode:         c.code.String,
		AccountType:         nullableString(c.accountType),
		AccountName:         nullableString(c.name),
		CustodianName:       nullableString(c.custodian),
		Country:             nullableString(c.country),
		AccountCurrencyCode: nullableString(c.currency),
		Status:              nullableString(c.status),
		IsRegisteredAccount: nullableString(c.isRegisteredAccount),
	}
}

type securityColumns struct {
	name            sql.NullString
	symbol          sql.NullString
	typeCode        sql.NullString
	typeDescription sql.NullString
	country         sql.NullString
	currency        sql.NullString
	assetClass      sql.NullString
	industryGroup   sql.NullString
	issuer          sql.NullString
	level1          sql.NullString
	level2          sql.NullString
	level3          sql.NullString
}

func (c *securityColumns) scanTargets() []interface{} {
	return []interface{}{
		&c.name, &c.symbol, &c.typeCode, &c.typeDescription, &c.country, &c.currency,
		&c.assetClass, &c.industryGroup, &c.issuer, &c.level1, &c.level2, &c.level3,
	}
}

func (c *securityColumns) toModel(secID string) models.Security {
	return models.Security{
		SecID:                   secID,
		SecurityName:            nullableString(c.name),
		SecuritySymbol:          nullableString(c.symbol),
		SecurityTypeCode:        nullableString(c.typeCode),
		SecurityTypeDescription: nullableString(c.typeDescription),
		SecurityCountry:         nullableString(c.country),
		SecurityCurrencyCode:    nullableString(c.currency),
		AssetClass:              nullableString(c.assetClass),
		IndustryGroup:           nullableString(c.industryGroup),
		Issuer:                  nullableString(c.issuer),
		AssetClassLevel1Name:    nullableString(c.level1),
		AssetClassLevel2Name:    nullableString(c.level2),
		AssetClassLevel3Name:    nullableString(c.level3),
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// UpsertAccounts inserts or replaces dim_accounts rows.
func UpsertAccounts(ctx context.Context, tx *sql.Tx, accounts []models.Account) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO dim_accounts (account_code, account_type, account_name, custodian_name, country,
			account_currency_code, status, is_registered_account, open_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing account upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range accounts {
		var openDate sql.NullString
		if a.OpenDate != nil {
			openDate = sql.NullString{String: utils.FormatDate(*a.OpenDate), Valid: true}
		}
		_, err := stmt.ExecContext(ctx, a.AccountCode, nullString(a.AccountType), nullString(a.AccountName),
			nullString(a.CustodianName), nullString(a.Country), nullString(a.AccountCurrencyCode),
			nullString(a.Status), nullString(a.IsRegisteredAccount), openDate)
		if err != nil {
			return fmt.Errorf("error upserting account %s: %w", a.AccountCode, err)
		}
	}
	return nil
}

// UpsertSecurities inserts or replaces dim_security_master rows.
func UpsertSecurities(ctx context.Context, tx *sql.Tx, securities []models.Security) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO dim_security_master (secid, security_name, security_symbol, security_type_code,
			security_type_description, security_country, security_currency_code, asset_class, industry_group, issuer,
			asset_class_level_1_name, asset_class_level_2_name, asset_class_level_3_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing security upsert: %w", err)
	}
	defer stmt.Close()

	for _, s := range securities {
		_, err := stmt.ExecContext(ctx, s.SecID, nullString(s.SecurityName), nullString(s.SecuritySymbol),
			nullString(s.SecurityTypeCode), nullString(s.SecurityTypeDescription), nullString(s.SecurityCountry),
			nullString(s.SecurityCurrencyCode), nullString(s.AssetClass), nullString(s.IndustryGroup),
			nullString(s.Issuer), nullString(s.AssetClassLevel1Name), nullString(s.AssetClassLevel2Name),
			nullString(s.AssetClassLevel3Name))
		if err != nil {
			return fmt.Errorf("error upserting security %s: %w", s.SecID, err)
		}
	}
	return nil
}

var dimensionTables = map[string]bool{"dim_accounts": true, "dim_security_master": true}

// GetDimensionColumns returns the column names of a dimension table in
// declaration order.
func GetDimensionColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	if !dimensionTables[table] {
		return nil, fmt.Errorf("unknown dimension table %q", table)
	}
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("error querying columns of %s: %w", table, err)
	}
	defer rows.Close()

	columns := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("error scanning column of %s: %w", table, err)
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}
