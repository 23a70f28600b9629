package calc

import (
	"strings"

	"finmodeling/pkg/core/period"
	"finmodeling/pkg/core/xbrl"
)

// RowType is a row's classification. Empty until classified.
type RowType string

// Row is one line item of a summary with one value per period column.
type Row struct {
	Key  string    `json:"key"`
	ID   string    `json:"id,omitempty"`
	Type RowType   `json:"type,omitempty"`
	Vals []float64 `json:"vals"`
}

// Val returns the first column's value.
func (r Row) Val() float64 {
	if len(r.Vals) == 0 {
		return 0
	}
	return r.Vals[0]
}

// Summary is a flattened, period-indexed table of rows. Row order follows the
// depth-first traversal of the calculation it was built from.
type Summary struct {
	Title   string         `json:"title"`
	Periods period.Periods `json:"periods"`
	Rows    []Row          `json:"rows"`
}

// NewSummary builds a summary from explicit rows.
func NewSummary(title string, periods period.Periods, rows ...Row) *Summary {
	return &Summary{Title: title, Periods: periods, Rows: rows}
}

// Build flattens calc into one row per leaf, with one column per requested
// period. A leaf without a value for a period reads 0 in that column.
func Build(c *Calculation, mapping ValueMapping, periods ...period.Period) *Summary {
	s := &Summary{Title: c.Goal, Periods: periods}

	var visit func(n *xbrl.ArcNode, sign float64)
	visit = func(n *xbrl.ArcNode, sign float64) {
		if n.IsLeaf() {
			row := Row{Key: rowKey(n), ID: n.ID, Vals: make([]float64, len(periods))}
			for i, p := range periods {
				if raw, ok := n.Value(p.ID); ok {
					row.Vals[i] = mapping.Map(n.Balance, sign, raw)
				}
			}
			s.Rows = append(s.Rows, row)
			return
		}
		for _, child := range n.Children {
			visit(child, sign*child.SignedWeight())
		}
	}
	visit(c.Root, 1)

	return s
}

func rowKey(n *xbrl.ArcNode) string {
	if k := strings.TrimSpace(n.Label); k != "" {
		return k
	}
	return n.ID
}

// NumValueColumns returns the number of period columns.
func (s *Summary) NumValueColumns() int {
	if len(s.Periods) > 0 {
		return len(s.Periods)
	}
	n := 0
	for _, r := range s.Rows {
		if len(r.Vals) > n {
			n = len(r.Vals)
		}
	}
	return n
}

// Total is the signed sum of the first column.
func (s *Summary) Total() float64 {
	return s.TotalAt(0)
}

// TotalAt is the signed sum of column col.
func (s *Summary) TotalAt(col int) float64 {
	if s == nil {
		return 0
	}
	total := 0.0
	for _, r := range s.Rows {
		if col < len(r.Vals) {
			total += r.Vals[col]
		}
	}
	return total
}

// Labels returns the row keys in order.
func (s *Summary) Labels() []string {
	out := make([]string, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Key
	}
	return out
}

// Types returns the row classifications in order.
func (s *Summary) Types() []RowType {
	out := make([]RowType, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Type
	}
	return out
}

// Row looks up the first row with the given key.
func (s *Summary) Row(key string) (Row, bool) {
	for _, r := range s.Rows {
		if r.Key == key {
			return r, true
		}
	}
	return Row{}, false
}

// Filter returns a new summary holding only the rows of the given types.
func (s *Summary) Filter(title string, types ...RowType) *Summary {
	keep := make(map[RowType]bool, len(types))
	for _, t := range types {
		keep[t] = true
	}
	out := &Summary{Title: title, Periods: s.Periods}
	for _, r := range s.Rows {
		if keep[r.Type] {
			out.Rows = append(out.Rows, r.clone())
		}
	}
	return out
}

// Clone deep-copies the summary.
func (s *Summary) Clone() *Summary {
	out := &Summary{Title: s.Title, Periods: append(period.Periods(nil), s.Periods...)}
	out.Rows = make([]Row, len(s.Rows))
	for i, r := range s.Rows {
		out.Rows[i] = r.clone()
	}
	return out
}

// AppendRow adds a row, padding or truncating vals to the column count.
func (s *Summary) AppendRow(key string, t RowType, vals ...float64) {
	n := s.NumValueColumns()
	if n == 0 {
		n = len(vals)
	}
	row := Row{Key: key, Type: t, Vals: make([]float64, n)}
	copy(row.Vals, vals)
	s.Rows = append(s.Rows, row)
}

func (r Row) clone() Row {
	r.Vals = append([]float64(nil), r.Vals...)
	return r
}
