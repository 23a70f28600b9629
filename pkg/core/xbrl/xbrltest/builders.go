// Package xbrltest builds calculation trees for tests.
package xbrltest

import "finmodeling/pkg/core/xbrl"

// V is a period ID -> value map.
type V map[string]float64

// Node builds an interior node summing its children.
func Node(id, label string, children ...*xbrl.ArcNode) *xbrl.ArcNode {
	return &xbrl.ArcNode{ID: id, Label: label, Weight: 1, Children: children}
}

// Leaf builds a leaf with per-period values.
func Leaf(id, label string, values V) *xbrl.ArcNode {
	return &xbrl.ArcNode{ID: id, Label: label, Weight: 1, Values: values}
}

// Neg marks n as subtracted from its parent.
func Neg(n *xbrl.ArcNode) *xbrl.ArcNode {
	n.Weight = -1
	return n
}

// Debit marks n as a debit-balance concept.
func Debit(n *xbrl.ArcNode) *xbrl.ArcNode {
	n.Balance = xbrl.BalanceDebit
	return n
}

// Credit marks n as a credit-balance concept.
func Credit(n *xbrl.ArcNode) *xbrl.ArcNode {
	n.Balance = xbrl.BalanceCredit
	return n
}

// Row is a label/value pair used by the flat statement builders.
type Row struct {
	Label string
	Value float64
}

// Flat builds a root whose direct children are leaves, one per row, all
// valued in periodID.
func Flat(rootID, rootLabel, periodID string, rows ...Row) *xbrl.ArcNode {
	root := Node(rootID, rootLabel)
	for i, r := range rows {
		root.Children = append(root.Children, Leaf(leafID(rootID, i), r.Label, V{periodID: r.Value}))
	}
	return root
}

// FlatMulti is Flat with one value map per row.
func FlatMulti(rootID, rootLabel string, labels []string, values []V) *xbrl.ArcNode {
	root := Node(rootID, rootLabel)
	for i, l := range labels {
		root.Children = append(root.Children, Leaf(leafID(rootID, i), l, values[i]))
	}
	return root
}

func leafID(rootID string, i int) string {
	return rootID + "_item_" + string(rune('a'+i%26)) + string(rune('0'+i/26))
}
