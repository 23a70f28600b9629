package calc

import (
	"strings"

	"finmodeling/pkg/core/period"
	"finmodeling/pkg/core/xbrl"
)

// Calculation is the subtree resolved for a target concept plus the periods
// its leaves carry values for. It is not modified after resolution.
type Calculation struct {
	Goal    string
	Root    *xbrl.ArcNode
	Periods period.Periods
}

// NewCalculation binds root to the subset of periods its leaves report.
func NewCalculation(goal string, root *xbrl.ArcNode, periods period.Periods) *Calculation {
	c := &Calculation{Goal: goal, Root: root}
	leaves := root.Leaves()
	for _, p := range periods {
		for _, l := range leaves {
			if _, ok := l.Value(p.ID); ok {
				c.Periods = append(c.Periods, p)
				break
			}
		}
	}
	return c
}

// LeafItems returns the calculation's leaves in traversal order.
func (c *Calculation) LeafItems() []*xbrl.ArcNode {
	return c.Root.Leaves()
}

// HasLeafMatching reports whether any leaf's lower-cased label or its ID
// matches one of the patterns.
func (c *Calculation) HasLeafMatching(labels, ids PatternSet) bool {
	for _, l := range c.LeafItems() {
		if labels.Matches(strings.ToLower(l.Label)) || ids.Matches(l.ID) {
			return true
		}
	}
	return false
}

// Summary flattens the calculation for the given periods.
func (c *Calculation) Summary(mapping ValueMapping, periods ...period.Period) *Summary {
	return Build(c, mapping, periods...)
}
