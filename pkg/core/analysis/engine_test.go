package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"finmodeling/pkg/core/applog"
	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/period"
	"finmodeling/pkg/core/statement"
	"finmodeling/pkg/core/xbrl"
	xt "finmodeling/pkg/core/xbrl/xbrltest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fy2011  = period.MustParseDuration("FY2011", "2011-01-01", "2011-12-31")
	nm2011  = period.MustParseDuration("9M2011", "2011-01-01", "2011-09-30")
	q32011  = period.MustParseDuration("Q32011", "2011-07-01", "2011-09-30")
	sep2011 = period.MustParseInstant("I2011Q3", "2011-09-30")
	dec2011 = period.MustParseInstant("I2011", "2011-12-31")
)

func init() {
	applog.Discard()
}

func income(vals map[string][3]float64) []*xbrl.ArcNode {
	rev, cogs, tax := xt.V{}, xt.V{}, xt.V{}
	for pid, v := range vals {
		rev[pid], cogs[pid], tax[pid] = v[0], v[1], v[2]
	}
	return []*xbrl.ArcNode{
		xt.Node("us-gaap_NetIncomeLoss_1", "Net income",
			xt.Leaf("us-gaap_Revenues_1", "Revenues", rev),
			xt.Neg(xt.Leaf("us-gaap_CostOfRevenue_1", "Cost of revenue", cogs)),
			xt.Neg(xt.Leaf("us-gaap_IncomeTaxExpenseBenefit_1", "Income taxes", tax)),
		),
	}
}

func cash(pid string, scale float64) []*xbrl.ArcNode {
	return []*xbrl.ArcNode{
		xt.Node("us-gaap_CashAndCashEquivalentsPeriodIncreaseDecrease_1", "Net increase in cash",
			xt.Leaf("a", "Net income", xt.V{pid: 400 * scale}),
			xt.Neg(xt.Leaf("c", "Purchases of property and equipment", xt.V{pid: 200 * scale})),
			xt.Neg(xt.Leaf("e", "Cash dividends paid", xt.V{pid: 120 * scale})),
		),
	}
}

func balance(pid string, scale float64) []*xbrl.ArcNode {
	return []*xbrl.ArcNode{
		xt.Node("us-gaap_Assets_1", "Total assets",
			xt.Leaf("cash", "Cash and cash equivalents", xt.V{pid: 300 * scale}),
			xt.Leaf("ppe", "Property and equipment", xt.V{pid: 900 * scale}),
		),
		xt.Node("us-gaap_LiabilitiesAndStockholdersEquity_1", "Total liabilities and stockholders' equity",
			xt.Credit(xt.Leaf("ap", "Accounts payable", xt.V{pid: 150 * scale})),
			xt.Credit(xt.Leaf("np", "Notes payable", xt.V{pid: 250 * scale})),
			xt.Credit(xt.Leaf("cs", "Common stock", xt.V{pid: 300 * scale})),
			xt.Credit(xt.Leaf("re", "Retained earnings", xt.V{pid: 500 * scale})),
		),
	}
}

func tenQ() *xbrl.Filing {
	return &xbrl.Filing{
		Name:    "acme-10q-2011q3",
		Form:    "10-Q",
		Periods: period.Periods{nm2011, q32011, sep2011},
		Statements: map[xbrl.StatementType][]*xbrl.ArcNode{
			xbrl.IncomeStatement: income(map[string][3]float64{
				"9M2011": {2900, 1750, 220},
				"Q32011": {1000, 600, 75},
			}),
			xbrl.CashFlowStatement: cash("9M2011", 3),
			xbrl.BalanceSheet:      balance("I2011Q3", 1),
		},
		Disclosures: xbrl.Disclosures{
			"Disclosure Components Of Total Comprehensive Income": {
				xt.Node("ci", "Total comprehensive income",
					xt.Leaf("ni", "Net income", xt.V{"9M2011": 930, "Q32011": 325}),
					xt.Leaf("fx", "Foreign currency translation", xt.V{"Q32011": -5}),
				),
			},
		},
	}
}

func tenK() *xbrl.Filing {
	return &xbrl.Filing{
		Name:    "acme-10k-2011",
		Form:    "10-K",
		Periods: period.Periods{fy2011, dec2011},
		Statements: map[xbrl.StatementType][]*xbrl.ArcNode{
			xbrl.IncomeStatement:   income(map[string][3]float64{"FY2011": {4000, 2400, 300}}),
			xbrl.CashFlowStatement: cash("FY2011", 4),
			xbrl.BalanceSheet:      balance("I2011", 1.1),
		},
		Disclosures: xbrl.Disclosures{
			"Disclosure Provision For Income Taxes": {
				xt.Node("tax", "Provision for income taxes",
					xt.Leaf("fed", "Federal", xt.V{"FY2011": 250}),
					xt.Leaf("st", "State", xt.V{"FY2011": 30}),
					xt.Leaf("o1", "Other", xt.V{"FY2011": 12}),
					xt.Leaf("o2", "Other", xt.V{"FY2011": 8}),
				),
			},
			"Disclosure Components Of Total Comprehensive Income": {
				xt.Node("ci", "Total comprehensive income",
					xt.Leaf("ni", "Net income", xt.V{"FY2011": 1300}),
					xt.Leaf("ug", "Unrealized gains", xt.V{"FY2011": 20}),
				),
			},
			"Disclosure Components Of Gross And Net Intangible Asset Balances": {
				xt.Node("int", "Intangible assets, net",
					xt.Leaf("g", "Gross carrying amount", xt.V{"I2011": 500}),
					xt.Neg(xt.Leaf("a", "Accumulated amortization", xt.V{"I2011": 120})),
				),
			},
		},
	}
}

func company() *CompanyFilings {
	return FromParsed("ACME", []*xbrl.Filing{tenQ(), tenK()}, statement.Options{})
}

func TestNew_AssignsRunID(t *testing.T) {
	c := company()
	_, err := uuid.Parse(c.RunID)
	assert.NoError(t, err)
	assert.NotEqual(t, c.RunID, company().RunID)
	assert.Equal(t, 2, c.Len())
}

func TestIncomeStatementAnalyses_OneColumnPerFiling(t *testing.T) {
	isa, err := company().IncomeStatementAnalyses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, isa.NumValueColumns())

	rev, ok := isa.Row("Revenue ($MM)")
	require.True(t, ok)
	assert.InDelta(t, 1000/1e6, rev.Vals[0], 1e-12)
	assert.InDelta(t, 1100/1e6, rev.Vals[1], 1e-12, "10-K quarter is derived from annual minus nine months")

	growth, ok := isa.Row("Revenue Growth")
	require.True(t, ok)
	assert.True(t, math.IsNaN(growth.Vals[0]))
	assert.Greater(t, growth.Vals[1], 0.1)

	assert.True(t, isa.Periods[1].IsQuarterly())
}

func TestBalanceSheetAnalyses(t *testing.T) {
	bsa, err := company().BalanceSheetAnalyses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, bsa.NumValueColumns())

	noa, ok := bsa.Row("NOA ($MM)")
	require.True(t, ok)
	assert.InDelta(t, 750/1e6, noa.Vals[0], 1e-12)

	g, _ := bsa.Row("NOA Growth")
	assert.InDelta(t, 0.1, g.Vals[1], 1e-9)
}

func TestCashFlowStatementAnalyses_MissingQuarterReadsNaN(t *testing.T) {
	cfa, err := company().CashFlowStatementAnalyses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cfa.NumValueColumns())

	c, ok := cfa.Row("C   ($MM)")
	require.True(t, ok)
	assert.True(t, math.IsNaN(c.Vals[0]), "first filing has no quarter and no predecessor")
	assert.InDelta(t, 400/1e6, c.Vals[1], 1e-12)
}

func TestAnalyze_TableIsJSONSafe(t *testing.T) {
	res, err := company().Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"acme-10q-2011q3", "acme-10k-2011"}, res.Filings)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var back CompanyAnalysis
	require.NoError(t, json.Unmarshal(data, &back))
	require.NotEmpty(t, back.CashFlow.Rows)
	assert.Nil(t, back.CashFlow.Rows[0].Vals[0])
	require.NotNil(t, back.CashFlow.Rows[0].Vals[1])
	assert.InDelta(t, 400/1e6, *back.CashFlow.Rows[0].Vals[1], 1e-12)
}

func TestLatest(t *testing.T) {
	is, bs, err := company().Latest(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1100, is.OperatingRevenues().Total(), 0.01)
	assert.Equal(t, "I2011", bs.Period.ID)
}

func TestLoadFiles_Chronological(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, f *xbrl.Filing) string {
		data, err := json.Marshal(f)
		require.NoError(t, err)
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, data, 0644))
		return p
	}
	paths := []string{write("a.json", tenK()), write("b.json", tenQ())}

	filings, err := LoadFiles(context.Background(), paths, 2)
	require.NoError(t, err)
	require.Len(t, filings, 2)
	assert.Equal(t, "acme-10q-2011q3", filings[0].Name)
	assert.Equal(t, "acme-10k-2011", filings[1].Name)

	_, err = LoadFiles(context.Background(), append(paths, filepath.Join(dir, "missing.json")), 2)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	filings, err = LoadFiles(ctx, paths, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, filings)
}

func TestDisclosures(t *testing.T) {
	c := company()

	t.Run("Annual", func(t *testing.T) {
		s, err := c.Disclosures(calc.MustPatternSet(`Provision For Income Taxes`), period.KindAnnual)
		require.NoError(t, err)
		assert.Equal(t, 1, s.NumValueColumns(), "only annual reports contribute")
		assert.Equal(t, "FY2011", s.Periods[0].ID)
		assert.Equal(t, []string{"Federal", "State", "Other", "Other"}, s.Labels())
		assert.Equal(t, 12.0, s.Rows[2].Vals[0])
		assert.Equal(t, 8.0, s.Rows[3].Vals[0])
		assert.Equal(t, 300.0, s.Total())
	})

	t.Run("Annual balances read the latest instant", func(t *testing.T) {
		s, err := c.Disclosures(calc.MustPatternSet(`Intangible Asset Balances`), period.KindAnnual)
		require.NoError(t, err)
		require.Equal(t, 1, s.NumValueColumns())
		assert.Equal(t, "I2011", s.Periods[0].ID)
		assert.Equal(t, 380.0, s.Total())
	})

	t.Run("Quarterly", func(t *testing.T) {
		s, err := c.Disclosures(calc.MustPatternSet(`Components Of Total Comprehensive I`), period.KindQuarterly)
		require.NoError(t, err)
		assert.Equal(t, 2, s.NumValueColumns())
		assert.Equal(t, "Q32011", s.Periods[0].ID)
		assert.True(t, s.Periods[1].IsZero(), "annual report has no quarter")

		ni, ok := s.Row("Net income")
		require.True(t, ok)
		assert.Equal(t, 325.0, ni.Vals[0])
		assert.True(t, math.IsNaN(ni.Vals[1]))
		assert.Equal(t, []string{"Net income", "Foreign currency translation"}, s.Labels())
	})

	t.Run("No match", func(t *testing.T) {
		_, err := c.Disclosures(calc.MustPatternSet(`Segment Information`), period.KindQuarterly)
		var notFound *calc.ConceptNotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, "disclosures", notFound.Statement)
	})

	t.Run("Unsupported kind", func(t *testing.T) {
		_, err := c.Disclosures(calc.MustPatternSet(`Income Taxes`), period.KindInstant)
		assert.Error(t, err)
	})
}
