package processors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/username/perfolio/src/models"
)

var ErrUnknownGroupingLevel = errors.New("unknown grouping level")

// GroupValueKind tags the variant held by a GroupValue.
type GroupValueKind int

const (
	GroupValueNull GroupValueKind = iota
	GroupValueText
)

// GroupValue is the value a record resolves to at one grouping level.
type GroupValue struct {
	Kind GroupValueKind
	Text string
}

func TextValue(s string) GroupValue { return GroupValue{Kind: GroupValueText, Text: s} }

func NullValue() GroupValue { return GroupValue{Kind: GroupValueNull} }

// String is the node label of the value. Nulls render as "None" so rows with a
// missing attribute still group together.
func (v GroupValue) String() string {
	if v.Kind == GroupValueNull {
		return "None"
	}
	return v.Text
}

func optionalText(s *string) GroupValue {
	if s == nil {
		return NullValue()
	}
	return TextValue(*s)
}

// Level is one grouping step of a flow graph over records of type R.
type Level[R any] struct {
	Name  string
	Value func(R) GroupValue
}

// GroupingLevel enumerates the dimension columns a holdings graph can group by.
type GroupingLevel int

const (
	LevelAccountType GroupingLevel = iota
	LevelAccountName
	LevelCustodianName
	LevelAccountCountry
	LevelAccountCurrencyCode
	LevelAccountStatus
	LevelIsRegisteredAccount
	LevelSecurityName
	LevelSecurityTypeCode
	LevelSecurityTypeDescription
	LevelSecurityCurrencyCode
	LevelSecurityCountry
	LevelAssetClass
	LevelIndustryGroup
	LevelIssuer
	LevelAssetClassLevel1Name
	LevelAssetClassLevel2Name
	LevelAssetClassLevel3Name
	numGroupingLevels
)

const (
	TableTypeAccount  = "account"
	TableTypeSecurity = "security"
)

type groupingLevelDef struct {
	tableType string
	column    string
	value     func(models.HoldingRow) GroupValue
}

var groupingLevelDefs = [numGroupingLevels]groupingLevelDef{
	LevelAccountType:             {TableTypeAccount, "account_type", func(r models.HoldingRow) GroupValue { return optionalText(r.Account.AccountType) }},
	LevelAccountName:             {TableTypeAccount, "account_name", func(r models.HoldingRow) GroupValue { return optionalText(r.Account.AccountName) }},
	LevelCustodianName:           {TableTypeAccount, "custodian_name", func(r models.HoldingRow) GroupValue { return optionalText(r.Account.CustodianName) }},
	LevelAccountCountry:          {TableTypeAccount, "country", func(r models.HoldingRow) GroupValue { return optionalText(r.Account.Country) }},
	LevelAccountCurrencyCode:     {TableTypeAccount, "account_currency_code", func(r models.HoldingRow) GroupValue { return optionalText(r.Account.AccountCurrencyCode) }},
	LevelAccountStatus:           {TableTypeAccount, "status", func(r models.HoldingRow) GroupValue { return optionalText(r.Account.Status) }},
	LevelIsRegisteredAccount:     {TableTypeAccount, "is_registered_account", func(r models.HoldingRow) GroupValue { return optionalText(r.Account.IsRegisteredAccount) }},
	LevelSecurityName:            {TableTypeSecurity, "security_name", func(r models.HoldingRow) GroupValue { return optionalText(r.Security.SecurityName) }},
	LevelSecurityTypeCode:        {TableTypeSecurity, "security_type_code", func(r models.HoldingRow) GroupValue { return optionalText(r.Security.SecurityTypeCode) }},
	LevelSecurityTypeDescription: {TableTypeSecurity, "security_type_description", func(r models.HoldingRow) GroupValue { return optionalText(r.Security.SecurityTypeDescription) }},
	LevelSecurityCurrencyCode:    {TableTypeSecurity, "security_currency_code", func(r models.HoldingRow) GroupValue { return optionalText(r.Security.SecurityCurrencyCode) }},
	LevelSecurityCountry:         {TableTypeSecurity, "security_country", func(r models.HoldingRow) GroupValue { return optionalText(r.Security.SecurityCountry) }},
	LevelAssetClass:              {TableTypeSecurity, "asset_class", func(r models.HoldingRow) GroupValue { return optionalText(r.Security.AssetClass) }},
	LevelIndustryGroup:           {TableTypeSecurity, "industry_group", func(r models.HoldingRow) GroupValue { return optionalText(r.Security.IndustryGroup) }},
	LevelIssuer:                  {TableTypeSecurity, "issuer", func(r models.HoldingRow) GroupValue { return optionalText(r.Security.Issuer) }},
	LevelAssetClassLevel1Name:    {TableTypeSecurity, "asset_class_level_1_name", func(r models.HoldingRow) GroupValue { return optionalText(r.Security.AssetClassLevel1Name) }},
	LevelAssetClassLevel2Name:    {TableTypeSecurity, "asset_class_level_2_name", func(r models.HoldingRow) GroupValue { return optionalText(r.Security.AssetClassLevel2Name) }},
	LevelAssetClassLevel3Name:    {TableTypeSecurity, "asset_class_level_3_name", func(r models.HoldingRow) GroupValue { return optionalText(r.Security.AssetClassLevel3Name) }},
}

// DefaultHoldingsLevels is used when a holdings graph request names no levels.
var DefaultHoldingsLevels = []GroupingLevel{LevelAccountType, LevelSecurityCurrencyCode, LevelAssetClassLevel1Name}

// TableType is "account" or "security".
func (l GroupingLevel) TableType() string { return groupingLevelDefs[l].tableType }

// Column is the snake_case dimension column the level reads.
func (l GroupingLevel) Column() string { return groupingLevelDefs[l].column }

// String returns the prefixed name, e.g. "account.account_type".
func (l GroupingLevel) String() string {
	if l < 0 || l >= numGroupingLevels {
		return fmt.Sprintf("GroupingLevel(%d)", int(l))
	}
	return l.TableType() + "." + l.Column()
}

func (l GroupingLevel) Value(row models.HoldingRow) GroupValue {
	return groupingLevelDefs[l].value(row)
}

// Level adapts l for BuildFlowGraph. The node category is the bare column name.
func (l GroupingLevel) Level() Level[models.HoldingRow] {
	return Level[models.HoldingRow]{Name: l.Column(), Value: l.Value}
}

// AllGroupingLevels lists every level in declaration order.
func AllGroupingLevels() []GroupingLevel {
	levels := make([]GroupingLevel, 0, numGroupingLevels)
	for l := GroupingLevel(0); l < numGroupingLevels; l++ {
		levels = append(levels, l)
	}
	return levels
}

// looseColumnKey folds "AssetClassLevel1Name" and "asset_class_level_1_name"
// to the same key.
func looseColumnKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}

// ParseGroupingLevel resolves "account.<column>" or "security.<column>". A name
// without a prefix is read as a security column and may be CamelCase.
func ParseGroupingLevel(name string) (GroupingLevel, error) {
	trimmed := strings.TrimSpace(name)
	for l := GroupingLevel(0); l < numGroupingLevels; l++ {
		if l.String() == trimmed {
			return l, nil
		}
	}
	if !strings.Contains(trimmed, ".") {
		key := looseColumnKey(trimmed)
		for l := GroupingLevel(0); l < numGroupingLevels; l++ {
			if l.TableType() == TableTypeSecurity && looseColumnKey(l.Column()) == key {
				return l, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGroupingLevel, name)
}

// ParseGroupingLevels resolves names in order; an empty list yields the defaults.
func ParseGroupingLevels(names []string) ([]GroupingLevel, error) {
	if len(names) == 0 {
		return append([]GroupingLevel(nil), DefaultHoldingsLevels...), nil
	}
	levels := make([]GroupingLevel, 0, len(names))
	for _, n := range names {
		l, err := ParseGroupingLevel(n)
		if err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, nil
}
