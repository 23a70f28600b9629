package statement

import (
	"context"
	"math"

	"finmodeling/pkg/core/applog"
	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/classify"
	"finmodeling/pkg/core/period"
	"finmodeling/pkg/core/reformulate"
	"finmodeling/pkg/core/xbrl"
)

const (
	reasonMissingTax     = "income statement's net income calculation lacks tax item"
	reasonMissingRevenue = "income statement's net income calculation lacks sales/revenue item"
)

// IncomeStatementCalculation is a filing's income statement, resolved on
// its net income calculation.
type IncomeStatementCalculation struct {
	opts Options
	ni   *resolved
}

func NewIncomeStatementCalculation(roots []*xbrl.ArcNode, periods period.Periods, opts Options) *IncomeStatementCalculation {
	cl := classify.NewIncome(opts.classifierOptions()...)
	return &IncomeStatementCalculation{
		opts: opts,
		ni:   newResolved("income statement", roots, periods, opts.concept(ConceptNetIncome), calc.ValueMapping{}, cl),
	}
}

// NetIncomeCalculation resolves the net income subtree.
func (c *IncomeStatementCalculation) NetIncomeCalculation() (*calc.Calculation, error) {
	return c.ni.calculation()
}

// Periods lists the periods the net income calculation reports.
func (c *IncomeStatementCalculation) Periods() period.Periods {
	nic, err := c.ni.calculation()
	if err != nil {
		return nil
	}
	return nic.Periods
}

// Summary returns the classified net income summary for p.
func (c *IncomeStatementCalculation) Summary(ctx context.Context, p period.Period) (*calc.Summary, error) {
	return c.ni.summary(ctx, p)
}

func (c *IncomeStatementCalculation) HasTaxItem() bool {
	return c.ni.hasLeafMatching(taxLabels, taxIDs)
}

func (c *IncomeStatementCalculation) HasRevenueItem() bool {
	return c.ni.hasLeafMatching(revenueLabels, revenueIDs)
}

// Validate returns the reasons the statement cannot be reformulated.
func (c *IncomeStatementCalculation) Validate() []string {
	if _, err := c.ni.calculation(); err != nil {
		return []string{err.Error()}
	}
	var reasons []string
	if !c.HasTaxItem() {
		reasons = append(reasons, reasonMissingTax)
	}
	if !c.HasRevenueItem() {
		reasons = append(reasons, reasonMissingRevenue)
	}
	return reasons
}

// IsValid logs every validation failure and reports whether there were none.
func (c *IncomeStatementCalculation) IsValid() bool {
	reasons := c.Validate()
	for _, r := range reasons {
		applog.L().Warn().Msg(r)
	}
	return len(reasons) == 0
}

// Reformulated returns the reformulated income statement for p.
func (c *IncomeStatementCalculation) Reformulated(ctx context.Context, p period.Period) (*reformulate.IncomeStatement, error) {
	s, err := c.Summary(ctx, p)
	if err != nil {
		return nil, err
	}
	return reformulate.ReformulateIncome(p, s, c.opts.incomeOptions()), nil
}

// LatestQuarterlyReformulated returns the most recent quarter. A reported
// quarter is used when both its revenue and cost of revenue are plausible;
// otherwise the quarter is derived by subtracting prev's cumulative period
// from this filing's. It returns nil, nil when neither works.
func (c *IncomeStatementCalculation) LatestQuarterlyReformulated(ctx context.Context, prev *IncomeStatementCalculation) (*reformulate.IncomeStatement, error) {
	if q, ok := c.Periods().Quarterly().Last(); ok {
		lqr, err := c.Reformulated(ctx, q)
		if err != nil {
			return nil, err
		}
		t := c.opts.threshold()
		if math.Abs(lqr.OperatingRevenues().Total()) > t && math.Abs(lqr.CostOfRevenues().Total()) > t {
			return lqr, nil
		}
		applog.L().Debug().Str("period", q.String()).Msg("[statement] implausible quarterly income, deriving instead")
	}

	if prev == nil {
		return nil, nil
	}

	cur, before, ok := period.ChooseDerivablePeriods(c.Periods(), prev.Periods())
	if !ok {
		return nil, nil
	}
	a, err := c.Reformulated(ctx, cur)
	if err != nil {
		return nil, err
	}
	b, err := prev.Reformulated(ctx, before)
	if err != nil {
		return nil, err
	}
	return a.Sub(b)
}
