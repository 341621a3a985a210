package processors

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/utils"
)

type levelPair struct {
	prev string
	curr string
}

// BuildFlowGraph groups weighted records level by level under a single
// "Grand Total" root.
//
// Node labels are identities: a value that shows up at two levels, or a value
// equal to the root label, maps to one node. Non-root nodes are ordered by
// label and links follow the first-seen order of their grouping key, so the
// same input always produces the same graph. Each record weight is rounded to
// cents before summing and every link sum is rounded again.
func BuildFlowGraph[R any](records []R, levels []Level[R], weightOf func(R) decimal.Decimal) models.Graph {
	b := newGraphBuilder()
	if len(records) == 0 || len(levels) == 0 {
		return b.graph()
	}

	keys := make([][]string, len(records))
	weights := make([]decimal.Decimal, len(records))
	categories := make(map[string]models.NodeCategory)
	for i, rec := range records {
		keys[i] = make([]string, len(levels))
		for j, lvl := range levels {
			label := lvl.Value(rec).String()
			keys[i][j] = label
			if _, seen := categories[label]; !seen {
				categories[label] = models.NodeCategory(lvl.Name)
			}
		}
		weights[i] = utils.RoundMoney(weightOf(rec))
	}

	labels := make([]string, 0, len(categories))
	for label := range categories {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		b.node(label, categories[label])
	}

	top := newOrderedSums[string]()
	for i := range records {
		top.add(keys[i][0], weights[i])
	}
	top.each(func(label string, sum decimal.Decimal) {
		if target, ok := b.lookup(label); ok {
			b.link(0, target, utils.RoundMoney(sum), "")
		}
	})

	for lvl := 1; lvl < len(levels); lvl++ {
		pairs := newOrderedSums[levelPair]()
		for i := range records {
			pairs.add(levelPair{prev: keys[i][lvl-1], curr: keys[i][lvl]}, weights[i])
		}
		pairs.each(func(p levelPair, sum decimal.Decimal) {
			source, okSource := b.lookup(p.prev)
			target, okTarget := b.lookup(p.curr)
			if okSource && okTarget {
				b.link(source, target, utils.RoundMoney(sum), "")
			}
		})
	}

	return b.graph()
}

// BuildHoldingsGraph is BuildFlowGraph over warehouse holding rows.
func BuildHoldingsGraph(rows []models.HoldingRow, levels []GroupingLevel) models.Graph {
	graphLevels := make([]Level[models.HoldingRow], len(levels))
	for i, l := range levels {
		graphLevels[i] = l.Level()
	}
	return BuildFlowGraph(rows, graphLevels, func(r models.HoldingRow) decimal.Decimal {
		return r.MarketValueBase
	})
}
