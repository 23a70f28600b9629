package reformulate

import (
	"math"

	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/classify"
	"finmodeling/pkg/core/period"
)

// Cash flow field names.
const (
	CashFromOperations          = "cash_from_operations"
	CashInvestmentsInOperations = "cash_investments_in_operations"
	PaymentsToDebtholders       = "payments_to_debtholders"
	PaymentsToStockholders      = "payments_to_stockholders"
	FreeCashFlow                = "free_cash_flow"
	FinancingFlows              = "financing_flows"
)

const cashChangeRow = "Net change in cash"

// CashFlowStatement is the reformulated cash flow view.
type CashFlowStatement struct {
	*Statement
}

// ReformulateCashFlow splits a classified cash-change summary into
// operating, investing, debtholder and stockholder flows. Debtholder flows
// carry the period's cash change as a negative row, since cash held is a
// financial asset.
func ReformulateCashFlow(p period.Period, s *calc.Summary) *CashFlowStatement {
	st := newStatement(KindCashFlow, p)

	c := s.Filter("", classify.CashFromOperations)
	i := s.Filter("", classify.CashInvestments)
	d := s.Filter("", classify.DebtholderFlows)
	d.AppendRow(cashChangeRow, classify.DebtholderFlows, scale(columnTotals(s), -1)...)
	f := s.Filter("", classify.StockholderFlows)

	st.set(CashFromOperations, c)
	st.set(CashInvestmentsInOperations, i)
	st.set(PaymentsToDebtholders, d)
	st.set(PaymentsToStockholders, f)
	st.set(FreeCashFlow, concat(s.Periods, c, i))
	st.set(FinancingFlows, concat(s.Periods, d, f))

	return &CashFlowStatement{st}
}

func (s *CashFlowStatement) CashFromOperations() *calc.Summary {
	return s.Field(CashFromOperations)
}

func (s *CashFlowStatement) CashInvestmentsInOperations() *calc.Summary {
	return s.Field(CashInvestmentsInOperations)
}

func (s *CashFlowStatement) PaymentsToDebtholders() *calc.Summary {
	return s.Field(PaymentsToDebtholders)
}

func (s *CashFlowStatement) PaymentsToStockholders() *calc.Summary {
	return s.Field(PaymentsToStockholders)
}

func (s *CashFlowStatement) FreeCashFlow() *calc.Summary {
	return s.Field(FreeCashFlow)
}

func (s *CashFlowStatement) FinancingFlows() *calc.Summary {
	return s.Field(FinancingFlows)
}

// Sub returns s - o.
func (s *CashFlowStatement) Sub(o *CashFlowStatement) (*CashFlowStatement, error) {
	st, err := Subtract(s.Statement, o.Statement)
	if err != nil {
		return nil, err
	}
	return &CashFlowStatement{st}, nil
}

// NIOverC is comprehensive income over cash from operations, NaN when there
// is no operating cash flow.
func (s *CashFlowStatement) NIOverC(is *IncomeStatement) float64 {
	return ratio(is.ComprehensiveIncome().Total(), s.CashFromOperations().Total())
}

// FlowsAreBalanced reports whether free cash flow is fully disbursed to
// debtholders and stockholders: FCF + financing flows ≈ 0 in every column.
func (s *CashFlowStatement) FlowsAreBalanced(tolerance float64) bool {
	fcf, fin := s.FreeCashFlow(), s.FinancingFlows()
	for col := 0; col < fcf.NumValueColumns(); col++ {
		if math.Abs(fcf.TotalAt(col)+fin.TotalAt(col)) > tolerance {
			return false
		}
	}
	return true
}

// FlowsArePlausible reports whether operations generated a non-trivial
// cash flow and the financing side moved at all. Derived quarters that fail
// this usually come from mismatched cumulative periods.
func (s *CashFlowStatement) FlowsArePlausible(threshold float64) bool {
	return math.Abs(s.CashFromOperations().Total()) > threshold &&
		math.Abs(s.FinancingFlows().Total()) > threshold
}

// Rows returns the cash flow analysis table for the statement's period. is
// may be nil, leaving NI / C undefined.
func (s *CashFlowStatement) Rows(is *IncomeStatement) *calc.Summary {
	niOverC := nan
	if is != nil {
		niOverC = s.NIOverC(is)
	}
	return analysisTable("cash flow analysis", s.Period,
		row("C   ($MM)", millions(s.CashFromOperations().Total())),
		row("I   ($MM)", millions(s.CashInvestmentsInOperations().Total())),
		row("d   ($MM)", millions(s.PaymentsToDebtholders().Total())),
		row("F   ($MM)", millions(s.PaymentsToStockholders().Total())),
		row("FCF ($MM)", millions(s.FreeCashFlow().Total())),
		row("NI / C", niOverC),
	)
}
