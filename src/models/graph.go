package models

import "github.com/shopspring/decimal"

// NodeCategory tags a graph node with its role. Holdings graphs use the
// grouping level name as the category of the nodes they create.
type NodeCategory string

const (
	CategoryRoot            NodeCategory = "root"
	CategoryGains           NodeCategory = "gains"
	CategoryLosses          NodeCategory = "losses"
	CategoryAttributionGain NodeCategory = "attribution-gain"
	CategoryAttributionLoss NodeCategory = "attribution-loss"
	CategoryAccount         NodeCategory = "account"
)

// RootLabel is the label of node 0 in every graph.
const RootLabel = "Grand Total"

type GraphNode struct {
	Label    string       `json:"label"`
	Category NodeCategory `json:"category"`
}

type GraphLink struct {
	Source int             `json:"source"`
	Target int             `json:"target"`
	Value  decimal.Decimal `json:"value"`
	Type   string          `json:"attribution_type,omitempty"`
}

// Graph is a single-root flow graph. Links address nodes by index.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}
