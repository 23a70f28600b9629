package statement

import (
	"context"

	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/classify"
	"finmodeling/pkg/core/period"
	"finmodeling/pkg/core/reformulate"
	"finmodeling/pkg/core/xbrl"
)

// CashFlowStatementCalculation is a filing's cash flow statement, resolved
// on its net change in cash.
type CashFlowStatementCalculation struct {
	cash *resolved
}

func NewCashFlowStatementCalculation(roots []*xbrl.ArcNode, periods period.Periods, opts Options) *CashFlowStatementCalculation {
	cl := classify.NewCashFlow(opts.classifierOptions()...)
	return &CashFlowStatementCalculation{
		cash: newResolved("cash flow statement", roots, periods, opts.concept(ConceptCashChange), calc.ValueMapping{}, cl),
	}
}

func (c *CashFlowStatementCalculation) CashChangeCalculation() (*calc.Calculation, error) {
	return c.cash.calculation()
}

func (c *CashFlowStatementCalculation) Periods() period.Periods {
	cc, err := c.cash.calculation()
	if err != nil {
		return nil
	}
	return cc.Periods
}

// Summary returns the classified cash change summary for p.
func (c *CashFlowStatementCalculation) Summary(ctx context.Context, p period.Period) (*calc.Summary, error) {
	return c.cash.summary(ctx, p)
}

func (c *CashFlowStatementCalculation) Reformulated(ctx context.Context, p period.Period) (*reformulate.CashFlowStatement, error) {
	s, err := c.Summary(ctx, p)
	if err != nil {
		return nil, err
	}
	return reformulate.ReformulateCashFlow(p, s), nil
}

// LatestQuarterlyReformulated returns the reported quarter when there is
// one, else the quarter derived against prev. nil, nil when neither exists.
func (c *CashFlowStatementCalculation) LatestQuarterlyReformulated(ctx context.Context, prev *CashFlowStatementCalculation) (*reformulate.CashFlowStatement, error) {
	if q, ok := c.Periods().Quarterly().Last(); ok {
		return c.Reformulated(ctx, q)
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
