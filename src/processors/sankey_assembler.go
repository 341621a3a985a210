package processors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/perfolio/src/models"
)

var ErrUnknownAttributionLevel = errors.New("unknown attribution level")

// AttributionLevel selects which parts of the attribution graph are rendered.
type AttributionLevel string

const (
	AttributionFx           AttributionLevel = "fx"
	AttributionIncome       AttributionLevel = "income"
	AttributionFees         AttributionLevel = "fees"
	AttributionAppreciation AttributionLevel = "appreciation"
	AttributionOther        AttributionLevel = "other"
	AttributionAccounts     AttributionLevel = "accounts"
)

const (
	GainsLabel  = "Gains"
	LossesLabel = "Losses"
)

type attributionCategory struct {
	level    AttributionLevel
	label    string
	linkType string
	total    func(models.Components) decimal.Decimal
}

var attributionCategories = []attributionCategory{
	{AttributionFx, "FX", "fx_gain", func(c models.Components) decimal.Decimal { return c.FxTotal }},
	{AttributionIncome, "Income", "income", func(c models.Components) decimal.Decimal { return c.IncomeTotal }},
	{AttributionFees, "Fees", "fee", func(c models.Components) decimal.Decimal { return c.FeesTotal }},
	{AttributionAppreciation, "Appreciation", "appreciation", func(c models.Components) decimal.Decimal { return c.AppreciationTotal }},
	{AttributionOther, "Other", "other", func(c models.Components) decimal.Decimal { return c.OtherTotal }},
}

// AvailablePerformanceLevels lists the accepted attribution level names.
func AvailablePerformanceLevels() []string {
	levels := make([]string, 0, len(attributionCategories)+1)
	for _, c := range attributionCategories {
		levels = append(levels, string(c.level))
	}
	return append(levels, string(AttributionAccounts))
}

// ParseAttributionLevels validates names. An empty list selects every level.
func ParseAttributionLevels(names []string) ([]AttributionLevel, error) {
	valid := make(map[string]bool)
	for _, l := range AvailablePerformanceLevels() {
		valid[l] = true
	}
	levels := make([]AttributionLevel, 0, len(names))
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if !valid[key] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAttributionLevel, n)
		}
		levels = append(levels, AttributionLevel(key))
	}
	return levels, nil
}

type sankeyAssemblerImpl struct{}

func NewSankeyAssembler() SankeyAssembler {
	return &sankeyAssemblerImpl{}
}

// Assemble wires root -> Gains/Losses -> categories -> accounts. Link values are
// the magnitudes of already-computed totals; the Gains or Losses parent
// carries the sign.
func (a *sankeyAssemblerImpl) Assemble(result models.AttributionResult, levels []AttributionLevel) models.Graph {
	include := make(map[AttributionLevel]bool)
	if len(levels) == 0 {
		for _, l := range AvailablePerformanceLevels() {
			include[AttributionLevel(l)] = true
		}
	}
	for _, l := range levels {
		include[l] = true
	}

	b := newGraphBuilder()
	gainsIdx, lossesIdx := -1, -1
	if result.TotalGains.IsPositive() {
		gainsIdx = b.node(GainsLabel, models.CategoryGains)
		b.link(0, gainsIdx, result.TotalGains, "gains")
	}
	if result.TotalLosses.IsNegative() {
		lossesIdx = b.node(LossesLabel, models.CategoryLosses)
		b.link(0, lossesIdx, result.TotalLosses.Abs(), "losses")
	}

	accountIDs := make([]string, 0, len(result.PerAccount))
	for id := range result.PerAccount {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)

	// Account codes are indexed apart from the fixed labels so that an account
	// named like a category still gets its own leaf.
	accountNodes := make(map[string]int, len(accountIDs))
	accountNode := func(id string) int {
		if i, ok := accountNodes[id]; ok {
			return i
		}
		accountNodes[id] = b.appendNode(id, models.CategoryAccount)
		return accountNodes[id]
	}

	for _, cat := range attributionCategories {
		total := cat.total(result.Components)
		if !include[cat.level] || total.IsZero() {
			continue
		}
		parent, category := gainsIdx, models.CategoryAttributionGain
		if total.IsNegative() {
			parent, category = lossesIdx, models.CategoryAttributionLoss
		}
		if parent < 0 {
			continue
		}
		catIdx := b.node(cat.label, category)
		b.link(parent, catIdx, total.Abs(), cat.linkType)

		if !include[AttributionAccounts] {
			continue
		}
		for _, id := range accountIDs {
			v := cat.total(result.PerAccount[id].Components)
			if v.IsZero() || v.Sign() != total.Sign() {
				continue
			}
			b.link(catIdx, accountNode(id), v.Abs(), cat.linkType)
		}
	}
	return b.graph()
}
