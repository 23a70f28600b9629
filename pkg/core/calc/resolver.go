package calc

import (
	"fmt"
	"strings"

	"finmodeling/pkg/core/applog"
	"finmodeling/pkg/core/period"
	"finmodeling/pkg/core/xbrl"
)

// Concept describes the node to resolve: a goal name for diagnostics and the
// label / identifier patterns, most specific first.
type Concept struct {
	Goal   string
	Labels PatternSet
	IDs    PatternSet
}

// ConceptNotFoundError means no node matched the concept. A filing missing its
// top-level concept cannot be analyzed, so callers should not retry.
type ConceptNotFoundError struct {
	Goal      string
	NodesSeen int
	Statement string
}

func (e *ConceptNotFoundError) Error() string {
	if e.Statement != "" {
		return fmt.Sprintf("couldn't find %s calculation in %s (%d nodes searched)", e.Goal, e.Statement, e.NodesSeen)
	}
	return fmt.Sprintf("couldn't find %s calculation (%d nodes searched)", e.Goal, e.NodesSeen)
}

type candidate struct {
	node        *xbrl.ArcNode
	descendants int
	rank        int
	order       int
}

// FindCalculation searches every node of the forest for the concept. A node
// matches when its lower-cased label matches a label pattern or its ID
// matches an ID pattern. Among matches the node with the most descendants
// wins, since near-duplicate tags are common and only one carries the full
// breakdown; remaining ties go to the more specific pattern, then to
// traversal order.
func FindCalculation(roots []*xbrl.ArcNode, periods period.Periods, c Concept) (*Calculation, error) {
	var best *candidate
	seen := 0

	for _, root := range roots {
		if root == nil {
			continue
		}
		root.Walk(func(n *xbrl.ArcNode, _ int) bool {
			seen++
			rank, ok := matchRank(n, c)
			if !ok {
				return true
			}
			cand := &candidate{node: n, descendants: n.Descendants(), rank: rank, order: seen}
			if best == nil || better(cand, best) {
				best = cand
			}
			return true
		})
	}

	if best == nil {
		return nil, &ConceptNotFoundError{Goal: c.Goal, NodesSeen: seen}
	}

	applog.L().Debug().
		Str("goal", c.Goal).
		Str("id", best.node.ID).
		Str("label", best.node.Label).
		Int("descendants", best.descendants).
		Msg("[calc] resolved calculation")

	return NewCalculation(c.Goal, best.node, periods), nil
}

func matchRank(n *xbrl.ArcNode, c Concept) (int, bool) {
	rank := -1
	if i, ok := c.Labels.Match(strings.ToLower(strings.TrimSpace(n.Label))); ok {
		rank = i
	}
	if i, ok := c.IDs.Match(n.ID); ok && (rank < 0 || i < rank) {
		rank = i
	}
	return rank, rank >= 0
}

func better(a, b *candidate) bool {
	if a.descendants != b.descendants {
		return a.descendants > b.descendants
	}
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	return a.order < b.order
}
