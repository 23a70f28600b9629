package calc

import (
	"errors"
	"testing"

	"finmodeling/pkg/core/applog"
	"finmodeling/pkg/core/period"
	"finmodeling/pkg/core/xbrl"
	xt "finmodeling/pkg/core/xbrl/xbrltest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var netIncome = Concept{
	Goal: "net income",
	Labels: MustPatternSet(
		`^net (income|loss|loss income)`,
		`^profit loss$`,
	),
	IDs: MustPatternSet(
		`^(|Locator_|loc_)(|us-gaap_)NetIncomeLoss[_0-9a-z]+`,
		`^(|Locator_|loc_)(|us-gaap_)ProfitLoss[_0-9a-z]+`,
	),
}

var fy2011 = period.MustParseDuration("FY2011", "2011-01-01", "2011-12-31")

func init() {
	applog.Discard()
}

// subtree builds a node with exactly n descendants, all leaves.
func subtree(id, label string, n int) *xbrl.ArcNode {
	root := xt.Node(id, label)
	for i := 0; i < n; i++ {
		root.Children = append(root.Children, xt.Leaf(id+"_leaf", "item", xt.V{"FY2011": float64(i)}))
	}
	return root
}

func TestPatternSet(t *testing.T) {
	ps := MustPatternSet(`^net income$`, `income`)

	i, ok := ps.Match("net income")
	require.True(t, ok)
	assert.Equal(t, 0, i)

	i, ok = ps.Match("other income")
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = ps.Match("revenue")
	assert.False(t, ok)
	assert.Equal(t, 2, ps.Len())
	assert.Equal(t, []string{`^net income$`, `income`}, ps.Strings())

	_, err := NewPatternSet(`([`)
	assert.Error(t, err)
}

func TestFindCalculation_PrefersLargestSubtree(t *testing.T) {
	small := subtree("us-gaap_NetIncomeLoss_1", "Net income", 3)
	large := subtree("us-gaap_NetIncomeLoss_2", "Net Income (Loss)", 7)
	noise := subtree("us-gaap_Revenues", "Revenues", 12)

	calc, err := FindCalculation([]*xbrl.ArcNode{small, noise, large}, period.Periods{fy2011}, netIncome)
	require.NoError(t, err)
	assert.Same(t, large, calc.Root)
	assert.Equal(t, 7, calc.Root.Descendants())
	assert.Equal(t, "net income", calc.Goal)
	require.Len(t, calc.Periods, 1)
	assert.Equal(t, "FY2011", calc.Periods[0].ID)
}

func TestFindCalculation_MatchesNestedNodesByID(t *testing.T) {
	ni := subtree("loc_us-gaap_ProfitLoss_x", "Consolidated result", 4)
	root := xt.Node("us-gaap_ComprehensiveIncome", "Comprehensive income", ni, xt.Leaf("oci", "OCI", xt.V{}))

	calc, err := FindCalculation([]*xbrl.ArcNode{root}, nil, netIncome)
	require.NoError(t, err)
	assert.Same(t, ni, calc.Root)
	assert.Empty(t, calc.Periods)
}

func TestFindCalculation_TieGoesToMoreSpecificPattern(t *testing.T) {
	profit := subtree("x1", "Profit loss", 2)
	net := subtree("x2", "Net income", 2)

	calc, err := FindCalculation([]*xbrl.ArcNode{profit, net}, nil, netIncome)
	require.NoError(t, err)
	assert.Same(t, net, calc.Root)
}

func TestFindCalculation_NotFound(t *testing.T) {
	_, err := FindCalculation([]*xbrl.ArcNode{subtree("us-gaap_Revenues", "Revenues", 2)}, nil, netIncome)
	require.Error(t, err)

	var notFound *ConceptNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "net income", notFound.Goal)
	assert.Equal(t, 3, notFound.NodesSeen)
	assert.Contains(t, err.Error(), "net income")
}

func TestCalculation_HasLeafMatching(t *testing.T) {
	root := xt.Node("ni", "Net income",
		xt.Leaf("us-gaap_Revenues", "Total net sales", xt.V{}),
		xt.Leaf("us-gaap_IncomeTaxExpenseBenefit", "Provision for taxes", xt.V{}),
	)
	c := NewCalculation("net income", root, nil)

	assert.True(t, c.HasLeafMatching(MustPatternSet(`sales`), MustPatternSet()))
	assert.True(t, c.HasLeafMatching(MustPatternSet(), MustPatternSet(`IncomeTax`)))
	assert.False(t, c.HasLeafMatching(MustPatternSet(`dividend`), MustPatternSet(`Dividend`)))
}
