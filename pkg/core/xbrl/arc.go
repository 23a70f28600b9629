// Package xbrl defines the parsed calculation-linkbase input the engine works
// on: weighted arc trees with per-period leaf values.
package xbrl

// Balance is the debit/credit classification of a concept.
type Balance string

const (
	BalanceNone   Balance = ""
	BalanceDebit  Balance = "debit"
	BalanceCredit Balance = "credit"
)

// ArcNode is one concept in a calculation tree. Children are summed into the
// parent using their Weight (+1 adds, -1 subtracts).
type ArcNode struct {
	ID       string             `json:"id"`    // e.g. "us-gaap_NetIncomeLoss_1"
	Label    string             `json:"label"` // e.g. "Net income"
	Weight   float64            `json:"weight,omitempty"`
	Balance  Balance            `json:"balance,omitempty"`
	Children []*ArcNode         `json:"children,omitempty"`
	Values   map[string]float64 `json:"values,omitempty"` // period ID -> value
}

// SignedWeight returns the arc weight, treating a missing weight as +1.
func (n *ArcNode) SignedWeight() float64 {
	if n.Weight == 0 {
		return 1
	}
	return n.Weight
}

// IsLeaf reports whether the node has no children.
func (n *ArcNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// Value returns the node's value for a period ID.
func (n *ArcNode) Value(periodID string) (float64, bool) {
	v, ok := n.Values[periodID]
	return v, ok
}

// Walk visits n and its descendants depth-first in child order. Returning
// false from fn skips the node's children.
func (n *ArcNode) Walk(fn func(node *ArcNode, depth int) bool) {
	n.walk(fn, 0)
}

func (n *ArcNode) walk(fn func(*ArcNode, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Descendants counts every node below n.
func (n *ArcNode) Descendants() int {
	count := -1
	n.Walk(func(*ArcNode, int) bool {
		count++
		return true
	})
	return count
}

// Leaves returns the leaf nodes under n in traversal order. A leaf root
// returns itself.
func (n *ArcNode) Leaves() []*ArcNode {
	var out []*ArcNode
	n.Walk(func(node *ArcNode, _ int) bool {
		if node.IsLeaf() {
			out = append(out, node)
		}
		return true
	})
	return out
}
