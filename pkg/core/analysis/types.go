package analysis

import (
	"math"
	"time"

	"finmodeling/pkg/core/calc"
)

// CompanyAnalysis is the persisted result of one analysis run.
type CompanyAnalysis struct {
	RunID        string    `json:"run_id"`
	Company      string    `json:"company"`
	Filings      []string  `json:"filings"`
	LastAnalyzed time.Time `json:"last_analyzed"`

	IncomeStatement *Table `json:"income_statement"`
	BalanceSheet    *Table `json:"balance_sheet"`
	CashFlow        *Table `json:"cash_flow"`
}

// Table is a JSON-safe copy of an analysis summary. Undefined values
// (NaN, ±Inf) are stored as null.
type Table struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    []TableRow `json:"rows"`
}

type TableRow struct {
	Key  string     `json:"key"`
	Vals []*float64 `json:"vals"`
}

// NewTable converts s.
func NewTable(s *calc.Summary) *Table {
	if s == nil {
		return nil
	}
	t := &Table{Title: s.Title}
	for _, p := range s.Periods {
		col := ""
		if !p.IsZero() {
			col = p.String()
		}
		t.Columns = append(t.Columns, col)
	}
	for _, r := range s.Rows {
		tr := TableRow{Key: r.Key, Vals: make([]*float64, len(r.Vals))}
		for i, v := range r.Vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			tr.Vals[i] = &v
		}
		t.Rows = append(t.Rows, tr)
	}
	return t
}
