package processors

import (
	"github.com/shopspring/decimal"
	"github.com/username/perfolio/src/models"
)

// graphBuilder appends nodes and links. A label is the node identity: asking
// for an existing label returns the node created first, whatever its category.
type graphBuilder struct {
	nodes []models.GraphNode
	links []models.GraphLink
	index map[string]int
}

func newGraphBuilder() *graphBuilder {
	b := &graphBuilder{
		nodes: []models.GraphNode{{Label: models.RootLabel, Category: models.CategoryRoot}},
		links: []models.GraphLink{},
		index: map[string]int{models.RootLabel: 0},
	}
	return b
}

func (b *graphBuilder) node(label string, category models.NodeCategory) int {
	if i, ok := b.index[label]; ok {
		return i
	}
	b.nodes = append(b.nodes, models.GraphNode{Label: label, Category: category})
	b.index[label] = len(b.nodes) - 1
	return len(b.nodes) - 1
}

// appendNode adds a node that label lookups never return.
func (b *graphBuilder) appendNode(label string, category models.NodeCategory) int {
	b.nodes = append(b.nodes, models.GraphNode{Label: label, Category: category})
	return len(b.nodes) - 1
}

func (b *graphBuilder) lookup(label string) (int, bool) {
	i, ok := b.index[label]
	return i, ok
}

func (b *graphBuilder) link(source, target int, value decimal.Decimal, linkType string) {
	b.links = append(b.links, models.GraphLink{Source: source, Target: target, Value: value, Type: linkType})
}

func (b *graphBuilder) graph() models.Graph {
	return models.Graph{Nodes: b.nodes, Links: b.links}
}

// orderedSums accumulates amounts per key and remembers first-seen key order.
type orderedSums[K comparable] struct {
	keys []K
	sums map[K]decimal.Decimal
}

func newOrderedSums[K comparable]() *orderedSums[K] {
	return &orderedSums[K]{sums: make(map[K]decimal.Decimal)}
}

func (s *orderedSums[K]) add(key K, amount decimal.Decimal) {
	cur, ok := s.sums[key]
	if !ok {
		s.keys = append(s.keys, key)
	}
	s.sums[key] = cur.Add(amount)
}

func (s *orderedSums[K]) each(fn func(key K, sum decimal.Decimal)) {
	for _, k := range s.keys {
		fn(k, s.sums[k])
	}
}
