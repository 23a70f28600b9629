// Package reformulate turns classified statement summaries into analyst
// views: operating versus financing activities, free cash flow and the
// ratios built on them.
package reformulate

import (
	"fmt"

	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/period"
)

// Kind tags a reformulated statement. Algebra only combines equal kinds.
type Kind int

const (
	KindIncome Kind = iota + 1
	KindCashFlow
	KindBalanceSheet
)

func (k Kind) String() string {
	switch k {
	case KindIncome:
		return "income statement"
	case KindCashFlow:
		return "cash flow statement"
	case KindBalanceSheet:
		return "balance sheet"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Statement is a fixed, ordered set of named sub-summaries for one period.
type Statement struct {
	Kind   Kind
	Period period.Period

	names  []string
	fields map[string]*calc.Summary
}

func newStatement(kind Kind, p period.Period) *Statement {
	return &Statement{Kind: kind, Period: p, fields: make(map[string]*calc.Summary)}
}

func (s *Statement) set(name string, sum *calc.Summary) {
	if _, ok := s.fields[name]; !ok {
		s.names = append(s.names, name)
	}
	sum.Title = name
	s.fields[name] = sum
}

// Field returns the named sub-summary, nil if the statement has none.
func (s *Statement) Field(name string) *calc.Summary {
	return s.fields[name]
}

// Names lists the sub-summaries in their fixed order.
func (s *Statement) Names() []string {
	return append([]string(nil), s.names...)
}

// Total is the first-column total of the named sub-summary.
func (s *Statement) Total(name string) float64 {
	return s.fields[name].Total()
}

// Subtract returns a - b field by field.
func Subtract(a, b *Statement) (*Statement, error) {
	return combine("-", a, b)
}

// Add returns a + b field by field.
func Add(a, b *Statement) (*Statement, error) {
	return combine("+", a, b)
}

func combine(op string, a, b *Statement) (*Statement, error) {
	if a == nil || b == nil {
		return nil, &calc.IncompatibleStructureError{Op: op, Reason: "nil statement"}
	}
	if a.Kind != b.Kind {
		return nil, &calc.IncompatibleStructureError{
			Op:     op,
			Reason: fmt.Sprintf("cannot combine %s with %s", a.Kind, b.Kind),
		}
	}

	out := newStatement(a.Kind, period.Combine(op, a.Period, b.Period))
	for _, name := range a.names {
		other, ok := b.fields[name]
		if !ok {
			return nil, &calc.IncompatibleStructureError{Op: op, Reason: "missing field " + name}
		}
		var (
			sum *calc.Summary
			err error
		)
		if op == "-" {
			sum, err = a.fields[name].Sub(other)
		} else {
			sum, err = a.fields[name].Add(other)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out.set(name, sum)
	}
	return out, nil
}

// concat joins the rows of several summaries under one title.
func concat(periods period.Periods, parts ...*calc.Summary) *calc.Summary {
	out := calc.NewSummary("", periods)
	for _, p := range parts {
		out.Rows = append(out.Rows, p.Clone().Rows...)
	}
	return out
}

// negate flips the sign of every value.
func negate(s *calc.Summary) *calc.Summary {
	out := s.Clone()
	for i := range out.Rows {
		for j := range out.Rows[i].Vals {
			out.Rows[i].Vals[j] = -out.Rows[i].Vals[j]
		}
	}
	return out
}

// columnTotals returns the per-column totals of s.
func columnTotals(s *calc.Summary) []float64 {
	out := make([]float64, s.NumValueColumns())
	for i := range out {
		out[i] = s.TotalAt(i)
	}
	return out
}

func scale(vals []float64, k float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v * k
	}
	return out
}

func sumVals(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i]
		if i < len(b) {
			out[i] += b[i]
		}
	}
	return out
}

// ratio returns num/den, NaN when den is zero.
func ratio(num, den float64) float64 {
	if den == 0 {
		return nan
	}
	return num / den
}

// millions scales a currency amount to $MM.
func millions(v float64) float64 {
	return v / 1e6
}

// analysisTable builds a one-column summary of labeled values.
func analysisTable(title string, p period.Period, rows ...calc.Row) *calc.Summary {
	return calc.NewSummary(title, period.Periods{p}, rows...)
}

func row(key string, v float64) calc.Row {
	return calc.Row{Key: key, Vals: []float64{v}}
}
