package parsers

import (
	"io"

	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/security/validation"
)

// AccountParser reads dim_accounts rows. Only account_code is required;
// dimension values are sanitized because they end up as graph labels.
type AccountParser struct{}

func (p *AccountParser) Parse(file io.Reader) (models.ImportBatch, error) {
	batch := models.ImportBatch{Table: TableAccounts, Accounts: []models.Account{}}
	err := readTable(file, []string{"account_code"}, func(r csvRow) error {
		code, err := r.required("account_code")
		if err != nil {
			return err
		}
		if _, err := validation.ValidateAccountCodes([]string{code}); err != nil {
			return r.fail("account_code", "%q is not a valid account code", code)
		}
		openDate, err := r.optionalDate("open_date")
		if err != nil {
			return err
		}
		batch.Accounts = append(batch.Accounts, models.Account{
			AccountCode:         code,
			AccountType:         r.label("account_type"),
			AccountName:         r.label("account_name"),
			CustodianName:       r.label("custodian_name"),
			Country:             r.label("country"),
			AccountCurrencyCode: r.label("account_currency_code"),
			Status:              r.label("status"),
			IsRegisteredAccount: r.label("is_registered_account"),
			OpenDate:            openDate,
		})
		return nil
	})
	return batch, err
}

// SecurityParser reads dim_security_master rows.
type SecurityParser struct{}

func (p *SecurityParser) Parse(file io.Reader) (models.ImportBatch, error) {
	batch := models.ImportBatch{Table: TableSecurities, Securities: []models.Security{}}
	err := readTable(file, []string{"secid"}, func(r csvRow) error {
		secID, err := r.required("secid")
		if err != nil {
			return err
		}
		batch.Securities = append(batch.Securities, models.Security{
			SecID:                   secID,
			SecurityName:            r.label("security_name"),
			SecuritySymbol:          r.label("security_symbol"),
			SecurityTypeCode:        r.label("security_type_code"),
			SecurityTypeDescription: r.label("security_type_description"),
			SecurityCountry:         r.label("security_country"),
			SecurityCurrencyCode:    r.label("security_currency_code"),
			AssetClass:              r.label("asset_class"),
			IndustryGroup:           r.label("industry_group"),
			Issuer:                  r.label("issuer"),
			AssetClassLevel1Name:    r.label("asset_class_level_1_name"),
			AssetClassLevel2Name:    r.label("asset_class_level_2_name"),
			AssetClassLevel3Name:    r.label("asset_class_level_3_name"),
		})
		return nil
	})
	return batch, err
}
