package statement

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"finmodeling/pkg/core/applog"
	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/classify"
	"finmodeling/pkg/core/period"
	"finmodeling/pkg/core/store"
	"finmodeling/pkg/core/xbrl"
	. "finmodeling/pkg/core/xbrl/xbrltest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fy2011 = period.MustParseDuration("FY2011", "2011-01-01", "2011-12-31")
	q42011 = period.MustParseDuration("Q42011", "2011-10-01", "2011-12-31")
	nm2011 = period.MustParseDuration("9M2011", "2011-01-01", "2011-09-30")
	q32011 = period.MustParseDuration("Q32011", "2011-07-01", "2011-09-30")
	dec11  = period.MustParseInstant("I2011", "2011-12-31")
)

func init() {
	applog.Discard()
}

func annualIncome() []*xbrl.ArcNode {
	return []*xbrl.ArcNode{
		Node("us-gaap_NetIncomeLoss_1", "Net income",
			Leaf("us-gaap_Revenues_1", "Revenues", V{"FY2011": 4000, "Q42011": 1100}),
			Neg(Leaf("us-gaap_CostOfRevenue_1", "Cost of revenue", V{"FY2011": 2400})),
			Neg(Leaf("us-gaap_IncomeTaxExpenseBenefit_1", "Income taxes", V{"FY2011": 300, "Q42011": 80})),
		),
	}
}

func nineMonthIncome() []*xbrl.ArcNode {
	return []*xbrl.ArcNode{
		Node("us-gaap_NetIncomeLoss_1", "Net income",
			Leaf("us-gaap_Revenues_1", "Revenues", V{"9M2011": 2900, "Q32011": 1000}),
			Neg(Leaf("us-gaap_CostOfRevenue_1", "Cost of revenue", V{"9M2011": 1750, "Q32011": 600})),
			Neg(Leaf("us-gaap_IncomeTaxExpenseBenefit_1", "Income taxes", V{"9M2011": 220, "Q32011": 75})),
		),
	}
}

func TestIncome_SummaryIsClassified(t *testing.T) {
	is := NewIncomeStatementCalculation(annualIncome(), period.Periods{fy2011, q42011}, Options{})

	s, err := is.Summary(context.Background(), fy2011)
	require.NoError(t, err)
	assert.Equal(t, []calc.RowType{classify.OperatingRevenue, classify.CostOfRevenue, classify.IncomeTax}, s.Types())
	assert.InDelta(t, 1300, s.Total(), 1e-9)

	again, err := is.Summary(context.Background(), fy2011)
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.True(t, is.IsValid())
}

func TestIncome_MissingTaxIsInvalid(t *testing.T) {
	var buf bytes.Buffer
	applog.SetOutput(&buf, "info")
	defer applog.Discard()

	roots := []*xbrl.ArcNode{
		Node("us-gaap_NetIncomeLoss_1", "Net income",
			Leaf("us-gaap_Revenues_1", "Revenues", V{"FY2011": 4000}),
			Neg(Leaf("us-gaap_CostOfRevenue_1", "Cost of revenue", V{"FY2011": 2400})),
		),
	}
	is := NewIncomeStatementCalculation(roots, period.Periods{fy2011}, Options{})

	assert.True(t, is.HasRevenueItem())
	assert.False(t, is.HasTaxItem())
	assert.False(t, is.IsValid())
	assert.Equal(t, []string{reasonMissingTax}, is.Validate())
	assert.Contains(t, logMessages(t, &buf), "income statement's net income calculation lacks tax item")
}

// logMessages decodes the JSON log lines in buf and returns their messages.
func logMessages(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	var msgs []string
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var line struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line), sc.Text())
		msgs = append(msgs, line.Message)
	}
	require.NoError(t, sc.Err())
	return msgs
}

func TestIncome_MissingNetIncome(t *testing.T) {
	roots := []*xbrl.ArcNode{Node("us-gaap_Revenues", "Revenues", Leaf("x", "Product", V{}))}
	is := NewIncomeStatementCalculation(roots, nil, Options{})

	_, err := is.NetIncomeCalculation()
	var notFound *calc.ConceptNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "income statement", notFound.Statement)
	assert.Contains(t, err.Error(), "in income statement")
	assert.False(t, is.IsValid())
	assert.Nil(t, is.Periods())

	_, err = is.Reformulated(context.Background(), fy2011)
	assert.Error(t, err)
}

func TestIncome_PlausibleQuarterIsKept(t *testing.T) {
	tenQ := NewIncomeStatementCalculation(nineMonthIncome(), period.Periods{nm2011, q32011}, Options{})

	lqr, err := tenQ.LatestQuarterlyReformulated(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, lqr)
	assert.Equal(t, "Q32011", lqr.Period.ID)
	assert.InDelta(t, 1000, lqr.OperatingRevenues().Total(), 1e-9)
}

func TestIncome_ZeroThresholdIsKept(t *testing.T) {
	roots := []*xbrl.ArcNode{
		Node("us-gaap_NetIncomeLoss_1", "Net income",
			Leaf("us-gaap_Revenues_1", "Revenues", V{"Q32011": 0.5}),
			Neg(Leaf("us-gaap_CostOfRevenue_1", "Cost of revenue", V{"Q32011": 0.3})),
			Neg(Leaf("us-gaap_IncomeTaxExpenseBenefit_1", "Income taxes", V{"Q32011": 0.1})),
		),
	}

	lqr, err := NewIncomeStatementCalculation(roots, period.Periods{q32011}, Options{}).
		LatestQuarterlyReformulated(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, lqr, "default threshold rejects sub-unit quarters")

	zero := 0.0
	lqr, err = NewIncomeStatementCalculation(roots, period.Periods{q32011}, Options{PlausibilityThreshold: &zero}).
		LatestQuarterlyReformulated(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, lqr)
	assert.InDelta(t, 0.5, lqr.OperatingRevenues().Total(), 1e-9)
}

func TestIncome_ZeroCostOfRevenueQuarterIsDerived(t *testing.T) {
	prev := NewIncomeStatementCalculation(nineMonthIncome(), period.Periods{nm2011, q32011}, Options{})
	cur := NewIncomeStatementCalculation(annualIncome(), period.Periods{fy2011, q42011}, Options{})

	reported, err := cur.Reformulated(context.Background(), q42011)
	require.NoError(t, err)
	assert.Zero(t, reported.CostOfRevenues().Total())

	lqr, err := cur.LatestQuarterlyReformulated(context.Background(), prev)
	require.NoError(t, err)
	require.NotNil(t, lqr)
	assert.InDelta(t, 1100, lqr.OperatingRevenues().Total(), 0.01)
	assert.InDelta(t, -650, lqr.CostOfRevenues().Total(), 0.01)
	assert.InDelta(t, -80, lqr.IncomeTaxes().Total(), 0.01)
	assert.True(t, lqr.Period.IsQuarterly())
	require.NotNil(t, lqr.Period.Derivation)
	assert.Equal(t, "FY2011", lqr.Period.Derivation.Left.ID)
	assert.Equal(t, "9M2011", lqr.Period.Derivation.Right.ID)
}

func TestIncome_NoDerivableQuarter(t *testing.T) {
	threshold := 5000.0
	cur := NewIncomeStatementCalculation(annualIncome(), period.Periods{fy2011, q42011}, Options{PlausibilityThreshold: &threshold})

	lqr, err := cur.LatestQuarterlyReformulated(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, lqr)

	other := NewIncomeStatementCalculation(annualIncome(), period.Periods{fy2011, q42011}, Options{})
	lqr, err = cur.LatestQuarterlyReformulated(context.Background(), other)
	require.NoError(t, err)
	assert.Nil(t, lqr)
}

func cashRoots(pid string, scale float64) []*xbrl.ArcNode {
	return []*xbrl.ArcNode{
		Node("us-gaap_CashAndCashEquivalentsPeriodIncreaseDecrease_1", "Net increase in cash and cash equivalents",
			Leaf("a", "Net income", V{pid: 400 * scale}),
			Leaf("b", "Depreciation and amortization", V{pid: 100 * scale}),
			Neg(Leaf("c", "Purchases of property and equipment", V{pid: 200 * scale})),
			Leaf("d", "Proceeds from issuance of long-term debt", V{pid: 50 * scale}),
			Neg(Leaf("e", "Cash dividends paid", V{pid: 120 * scale})),
		),
	}
}

func TestCashFlow_DerivedQuarter(t *testing.T) {
	prev := NewCashFlowStatementCalculation(cashRoots("9M2011", 3), period.Periods{nm2011}, Options{})
	cur := NewCashFlowStatementCalculation(cashRoots("FY2011", 4), period.Periods{fy2011}, Options{})

	s, err := cur.Summary(context.Background(), fy2011)
	require.NoError(t, err)
	assert.Equal(t, []calc.RowType{
		classify.CashFromOperations, classify.CashFromOperations, classify.CashInvestments,
		classify.DebtholderFlows, classify.StockholderFlows,
	}, s.Types())

	lqr, err := cur.LatestQuarterlyReformulated(context.Background(), prev)
	require.NoError(t, err)
	require.NotNil(t, lqr)
	assert.InDelta(t, 500, lqr.CashFromOperations().Total(), 0.01)
	assert.InDelta(t, 300, lqr.FreeCashFlow().Total(), 0.01)
	assert.True(t, lqr.FlowsAreBalanced(0.01))

	none, err := cur.LatestQuarterlyReformulated(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func balanceRoots() []*xbrl.ArcNode {
	return []*xbrl.ArcNode{
		Node("us-gaap_Assets_1", "Total assets",
			Debit(Leaf("cash", "Cash and cash equivalents", V{"I2011": 300})),
			Debit(Leaf("ar", "Accounts receivable", V{"I2011": 200})),
			Debit(Leaf("ppe", "Property and equipment, net", V{"I2011": 700})),
		),
		Node("us-gaap_LiabilitiesAndStockholdersEquity_1", "Total liabilities and stockholders' equity",
			Credit(Leaf("ap", "Accounts payable", V{"I2011": 150})),
			Credit(Leaf("np", "Notes payable", V{"I2011": 250})),
			Credit(Leaf("cs", "Common stock", V{"I2011": 400})),
			Credit(Leaf("re", "Retained earnings", V{"I2011": 450})),
			Neg(Debit(Leaf("ts", "Treasury stock", V{"I2011": 100}))),
			Credit(Leaf("nci", "Noncontrolling interest", V{"I2011": 50})),
		),
	}
}

func TestBalanceSheet(t *testing.T) {
	cache := store.NewMemoryCache()
	bs := NewBalanceSheetCalculation(balanceRoots(), period.Periods{fy2011, dec11}, Options{Cache: cache})

	assert.Equal(t, period.Periods{dec11}, bs.Periods())
	assert.True(t, bs.HasEquityItem())
	assert.True(t, bs.IsValid())

	le, err := bs.LiabsAndEquitySummary(context.Background(), dec11)
	require.NoError(t, err)
	assert.Equal(t, -100.0, le.Rows[4].Val(), "debits flip negative")
	assert.Equal(t, []calc.RowType{
		classify.OperatingLiability, classify.FinancialLiability, classify.CommonEquity,
		classify.CommonEquity, classify.CommonEquity, classify.MinorityInterest,
	}, le.Types())

	rbs, err := bs.Reformulated(context.Background(), dec11)
	require.NoError(t, err)
	assert.InDelta(t, 750, rbs.NetOperatingAssets().Total(), 1e-9)
	assert.InDelta(t, 50, rbs.NetFinancialAssets().Total(), 1e-9)
	assert.True(t, rbs.IsBalanced(0.01))
	assert.Equal(t, 2, cache.Len())
}

func TestConceptOverride(t *testing.T) {
	roots := []*xbrl.ArcNode{
		Node("custom_Earnings", "Earnings for the period",
			Leaf("r", "Revenues", V{"FY2011": 10}),
			Neg(Leaf("t", "Income taxes", V{"FY2011": 2})),
		),
	}
	opts := Options{Concepts: map[string]calc.Concept{
		ConceptNetIncome: {Goal: "earnings", Labels: calc.MustPatternSet(`^earnings`), IDs: calc.MustPatternSet()},
	}}

	is := NewIncomeStatementCalculation(roots, period.Periods{fy2011}, opts)
	nic, err := is.NetIncomeCalculation()
	require.NoError(t, err)
	assert.Equal(t, "earnings", nic.Goal)
}

func TestFromFiling(t *testing.T) {
	f := &xbrl.Filing{
		Name:    "acme-10k-2011",
		Form:    "10-K",
		Periods: period.Periods{fy2011, dec11},
		Statements: map[xbrl.StatementType][]*xbrl.ArcNode{
			xbrl.IncomeStatement: annualIncome(),
			xbrl.BalanceSheet:    balanceRoots(),
		},
	}

	sf := FromFiling(f, Options{})
	assert.True(t, sf.Annual)
	assert.Equal(t, period.Periods{fy2011}, sf.Income.Periods())
	assert.Equal(t, period.Periods{dec11}, sf.BalanceSheet.Periods())

	_, err := sf.CashFlow.CashChangeCalculation()
	assert.Error(t, err)
}
