// Package classify assigns an analyst category to every row of a statement
// summary with a constrained state machine and lookahead scoring.
package classify

import "finmodeling/pkg/core/calc"

// Kind names a statement machine. It prefixes cache keys, so two statement
// types with identical labels never share classifications.
type Kind string

const (
	KindLiabsAndEquity Kind = "liabs_and_equity"
	KindAssets         Kind = "assets"
	KindCashFlow       Kind = "cash_flow"
	KindIncome         Kind = "income"
)

// Liabilities and equity categories.
const (
	OperatingLiability calc.RowType = "ol"
	FinancialLiability calc.RowType = "fl"
	CommonEquity       calc.RowType = "cse"
	MinorityInterest   calc.RowType = "mi"
)

// Asset categories.
const (
	OperatingAsset calc.RowType = "oa"
	FinancialAsset calc.RowType = "fa"
)

// Cash flow categories.
const (
	CashFromOperations calc.RowType = "c"
	CashInvestments    calc.RowType = "i"
	DebtholderFlows    calc.RowType = "d"
	StockholderFlows   calc.RowType = "f"
)

// Income statement categories.
const (
	OperatingRevenue        calc.RowType = "or"
	CostOfRevenue           calc.RowType = "cogs"
	OperatingExpense        calc.RowType = "oe"
	OtherOperatingIncome    calc.RowType = "oibt"
	FinancingIncome         calc.RowType = "fibt"
	IncomeTax               calc.RowType = "tax"
	OtherOperatingAfterTax  calc.RowType = "ooiat"
	FinancingIncomeAfterTax calc.RowType = "fiat"
)

// start is the pseudo-state before the first row.
const start calc.RowType = ""

// Machine is a statement's category set and its allowed transitions.
// Next[start] lists the categories the first row may take. Closes lists,
// per state, the categories that stay unavailable for every later row of
// the summary once that state has been entered.
type Machine struct {
	Kind   Kind
	States []calc.RowType
	Next   map[calc.RowType][]calc.RowType
	Closes map[calc.RowType][]calc.RowType
}

// Allowed returns the categories reachable from state.
func (m Machine) Allowed(state calc.RowType) []calc.RowType {
	return m.Next[state]
}

// AllowedAfter is Allowed without the categories in closed.
func (m Machine) AllowedAfter(state calc.RowType, closed map[calc.RowType]bool) []calc.RowType {
	next := m.Next[state]
	if len(closed) == 0 {
		return next
	}
	out := make([]calc.RowType, 0, len(next))
	for _, s := range next {
		if !closed[s] {
			out = append(out, s)
		}
	}
	return out
}

// CanFollow reports whether to may directly follow from.
func (m Machine) CanFollow(from, to calc.RowType) bool {
	for _, s := range m.Next[from] {
		if s == to {
			return true
		}
	}
	return false
}

// fullyConnected builds transitions where every state reaches every state.
func fullyConnected(states ...calc.RowType) map[calc.RowType][]calc.RowType {
	next := map[calc.RowType][]calc.RowType{start: states}
	for _, s := range states {
		next[s] = states
	}
	return next
}

// LiabsAndEquityMachine: once minority interest begins, operating
// liabilities may not reappear anywhere later in the summary.
func LiabsAndEquityMachine() Machine {
	states := []calc.RowType{OperatingLiability, FinancialLiability, CommonEquity, MinorityInterest}
	next := fullyConnected(states...)
	next[MinorityInterest] = []calc.RowType{FinancialLiability, CommonEquity, MinorityInterest}
	return Machine{
		Kind:   KindLiabsAndEquity,
		States: states,
		Next:   next,
		Closes: map[calc.RowType][]calc.RowType{MinorityInterest: {OperatingLiability}},
	}
}

func AssetsMachine() Machine {
	states := []calc.RowType{OperatingAsset, FinancialAsset}
	return Machine{Kind: KindAssets, States: states, Next: fullyConnected(states...)}
}

func CashFlowMachine() Machine {
	states := []calc.RowType{CashFromOperations, CashInvestments, DebtholderFlows, StockholderFlows}
	return Machine{Kind: KindCashFlow, States: states, Next: fullyConnected(states...)}
}

// IncomeMachine: after the tax line only after-tax items may follow, for
// the rest of the summary.
func IncomeMachine() Machine {
	states := []calc.RowType{
		OperatingRevenue, CostOfRevenue, OperatingExpense, OtherOperatingIncome,
		FinancingIncome, IncomeTax, OtherOperatingAfterTax, FinancingIncomeAfterTax,
	}
	next := fullyConnected(states...)
	next[IncomeTax] = []calc.RowType{IncomeTax, OtherOperatingAfterTax, FinancingIncomeAfterTax}
	preTax := []calc.RowType{
		OperatingRevenue, CostOfRevenue, OperatingExpense, OtherOperatingIncome, FinancingIncome,
	}
	return Machine{
		Kind:   KindIncome,
		States: states,
		Next:   next,
		Closes: map[calc.RowType][]calc.RowType{IncomeTax: preTax},
	}
}

// NewLiabsAndEquity returns a classifier for liabilities-and-equity rows.
func NewLiabsAndEquity(opts ...Option) *Classifier {
	return New(LiabsAndEquityMachine(), LiabsAndEquityLexicon(), opts...)
}

// NewAssets returns a classifier for asset rows.
func NewAssets(opts ...Option) *Classifier {
	return New(AssetsMachine(), AssetsLexicon(), opts...)
}

// NewCashFlow returns a classifier for cash flow rows.
func NewCashFlow(opts ...Option) *Classifier {
	return New(CashFlowMachine(), CashFlowLexicon(), opts...)
}

// NewIncome returns a classifier for income statement rows.
func NewIncome(opts ...Option) *Classifier {
	return New(IncomeMachine(), IncomeLexicon(), opts...)
}
