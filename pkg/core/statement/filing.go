package statement

import (
	"finmodeling/pkg/core/period"
	"finmodeling/pkg/core/xbrl"
)

// Filing bundles the three statement calculations of one parsed filing
// along with its disclosure forests.
type Filing struct {
	Name         string
	Annual       bool
	Periods      period.Periods
	Income       *IncomeStatementCalculation
	CashFlow     *CashFlowStatementCalculation
	BalanceSheet *BalanceSheetCalculation
	Disclosures  xbrl.Disclosures
}

// FromFiling wires a parsed filing's statements.
func FromFiling(f *xbrl.Filing, opts Options) *Filing {
	return &Filing{
		Name:         f.Name,
		Annual:       f.IsAnnual(),
		Periods:      f.Periods,
		Income:       NewIncomeStatementCalculation(f.Statement(xbrl.IncomeStatement), f.Periods, opts),
		CashFlow:     NewCashFlowStatementCalculation(f.Statement(xbrl.CashFlowStatement), f.Periods, opts),
		BalanceSheet: NewBalanceSheetCalculation(f.Statement(xbrl.BalanceSheet), f.Periods, opts),
		Disclosures:  f.Disclosures,
	}
}

