package processors

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/perfolio/src/models"
)

type weightedRow struct {
	region string
	class  string
	weight string
}

var (
	regionLevel = Level[weightedRow]{Name: "region", Value: func(r weightedRow) GroupValue { return TextValue(r.region) }}
	classLevel  = Level[weightedRow]{Name: "class", Value: func(r weightedRow) GroupValue { return TextValue(r.class) }}
)

func rowWeight(r weightedRow) decimal.Decimal { return dec(r.weight) }

func strp(s string) *string { return &s }

func TestBuildFlowGraph_EmptyRecordsYieldsRootOnly(t *testing.T) {
	g := BuildFlowGraph(nil, []Level[weightedRow]{regionLevel}, rowWeight)

	require.Len(t, g.Nodes, 1)
	assert.Equal(t, models.RootLabel, g.Nodes[0].Label)
	assert.Equal(t, models.CategoryRoot, g.Nodes[0].Category)
	assert.NotNil(t, g.Links)
	assert.Empty(t, g.Links)
}

func TestBuildFlowGraph_TwoLevels(t *testing.T) {
	rows := []weightedRow{
		{"US", "Equity", "100.004"},
		{"CA", "Equity", "50"},
		{"US", "Bond", "25.5"},
		{"US", "Equity", "10"},
	}

	g := BuildFlowGraph(rows, []Level[weightedRow]{regionLevel, classLevel}, rowWeight)

	labels := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		labels[i] = n.Label
	}
	assert.Equal(t, []string{"Grand Total", "Bond", "CA", "Equity", "US"}, labels)
	assert.Equal(t, models.NodeCategory("class"), g.Nodes[1].Category)
	assert.Equal(t, models.NodeCategory("region"), g.Nodes[2].Category)

	type link struct {
		Source, Target int
		Value          string
	}
	got := make([]link, len(g.Links))
	for i, l := range g.Links {
		got[i] = link{l.Source, l.Target, l.Value.StringFixed(2)}
	}
	want := []link{
		{0, 4, "135.50"}, // US: 100.00 + 25.50 + 10.00
		{0, 2, "50.00"},  // CA
		{4, 3, "110.00"}, // US -> Equity
		{2, 3, "50.00"},  // CA -> Equity
		{4, 1, "25.50"},  // US -> Bond
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildFlowGraph_TopLevelSumMatchesWeights(t *testing.T) {
	rows := []weightedRow{
		{"A", "x", "0.125"},
		{"B", "y", "1000.10"},
		{"A", "z", "33.333"},
		{"C", "x", "7"},
	}

	g := BuildFlowGraph(rows, []Level[weightedRow]{regionLevel, classLevel}, rowWeight)

	total := decimal.Zero
	for _, l := range g.Links {
		if l.Source == 0 {
			total = total.Add(l.Value)
		}
		assert.Less(t, l.Source, len(g.Nodes))
		assert.Less(t, l.Target, len(g.Nodes))
	}
	// Weights are rounded per record: 0.13 + 1000.10 + 33.33 + 7.00.
	assert.True(t, dec("1040.56").Equal(total), "got %s", total)
}

func TestBuildFlowGraph_SharedLabelAcrossLevelsIsOneNode(t *testing.T) {
	rows := []weightedRow{{"Cash", "Cash", "10"}}

	g := BuildFlowGraph(rows, []Level[weightedRow]{regionLevel, classLevel}, rowWeight)

	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Links, 2)
	assert.Equal(t, 1, g.Links[1].Source)
	assert.Equal(t, 1, g.Links[1].Target)
}

func TestBuildFlowGraph_IsDeterministic(t *testing.T) {
	rows := []weightedRow{
		{"Z", "q", "1"}, {"Y", "r", "2"}, {"X", "s", "3"}, {"Z", "r", "4"}, {"W", "q", "5"},
	}
	levels := []Level[weightedRow]{regionLevel, classLevel}

	decimalEqual := cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	first := BuildFlowGraph(rows, levels, rowWeight)
	for i := 0; i < 20; i++ {
		again := BuildFlowGraph(rows, levels, rowWeight)
		if diff := cmp.Diff(first, again, decimalEqual); diff != "" {
			t.Fatalf("graph changed between runs (-first +again):\n%s", diff)
		}
	}
}

func TestBuildHoldingsGraph_NullAttributesGroupAsNone(t *testing.T) {
	rows := []models.HoldingRow{
		{Account: models.Account{AccountType: strp("RRSP")}, Security: models.Security{SecurityCurrencyCode: strp("USD")}, MarketValueBase: dec("100")},
		{Account: models.Account{AccountType: strp("RRSP")}, MarketValueBase: dec("50")},
	}

	g := BuildHoldingsGraph(rows, []GroupingLevel{LevelAccountType, LevelSecurityCurrencyCode})

	labels := map[string]int{}
	for i, n := range g.Nodes {
		labels[n.Label] = i
	}
	require.Contains(t, labels, "None")
	require.Contains(t, labels, "RRSP")
	assert.Equal(t, models.NodeCategory("account_type"), g.Nodes[labels["RRSP"]].Category)
	require.Len(t, g.Links, 3)
	assert.True(t, dec("150").Equal(g.Links[0].Value))
}
