package calc

import (
	"fmt"

	"finmodeling/pkg/core/period"
)

// IncompatibleStructureError is returned when summary algebra is applied to
// operands whose columns or row categories disagree.
type IncompatibleStructureError struct {
	Op     string
	Reason string
}

func (e *IncompatibleStructureError) Error() string {
	return fmt.Sprintf("incompatible structure for %q: %s", e.Op, e.Reason)
}

// Sub returns s - o.
func (s *Summary) Sub(o *Summary) (*Summary, error) {
	return combine("-", s, o)
}

// Add returns s + o.
func (s *Summary) Add(o *Summary) (*Summary, error) {
	return combine("+", s, o)
}

type rowRef struct {
	key string
	nth int // occurrence of key, so repeated labels stay distinct
}

func indexRows(s *Summary) (map[rowRef]int, []rowRef) {
	idx := make(map[rowRef]int, len(s.Rows))
	order := make([]rowRef, 0, len(s.Rows))
	seen := make(map[string]int)
	for i, r := range s.Rows {
		ref := rowRef{key: r.Key, nth: seen[r.Key]}
		seen[r.Key]++
		idx[ref] = i
		order = append(order, ref)
	}
	return idx, order
}

// combine aligns rows by key. A key present in both operands must carry the
// same classification; a key present in one operand only is combined with 0.
// Result columns are marked as derived from both input periods.
func combine(op string, a, b *Summary) (*Summary, error) {
	if a == nil || b == nil {
		return nil, &IncompatibleStructureError{Op: op, Reason: "nil operand"}
	}
	cols := a.NumValueColumns()
	if cols != b.NumValueColumns() {
		return nil, &IncompatibleStructureError{
			Op:     op,
			Reason: fmt.Sprintf("column count %d vs %d", cols, b.NumValueColumns()),
		}
	}

	sign := 1.0
	if op == "-" {
		sign = -1
	}

	aIdx, aOrder := indexRows(a)
	bIdx, bOrder := indexRows(b)

	out := &Summary{Title: a.Title, Periods: combinePeriods(op, a.Periods, b.Periods)}

	for _, ref := range aOrder {
		ra := a.Rows[aIdx[ref]]
		row := Row{Key: ra.Key, ID: ra.ID, Type: ra.Type, Vals: make([]float64, cols)}
		copy(row.Vals, ra.Vals)
		if j, ok := bIdx[ref]; ok {
			rb := b.Rows[j]
			if ra.Type != "" && rb.Type != "" && ra.Type != rb.Type {
				return nil, &IncompatibleStructureError{
					Op:     op,
					Reason: fmt.Sprintf("row %q classified %q vs %q", ra.Key, ra.Type, rb.Type),
				}
			}
			if row.Type == "" {
				row.Type = rb.Type
			}
			for c := 0; c < cols && c < len(rb.Vals); c++ {
				row.Vals[c] += sign * rb.Vals[c]
			}
		}
		out.Rows = append(out.Rows, row)
	}

	for _, ref := range bOrder {
		if _, ok := aIdx[ref]; ok {
			continue
		}
		rb := b.Rows[bIdx[ref]]
		row := Row{Key: rb.Key, ID: rb.ID, Type: rb.Type, Vals: make([]float64, cols)}
		for c := 0; c < cols && c < len(rb.Vals); c++ {
			row.Vals[c] = sign * rb.Vals[c]
		}
		out.Rows = append(out.Rows, row)
	}

	return out, nil
}

func combinePeriods(op string, a, b period.Periods) period.Periods {
	if len(a) == 0 || len(a) != len(b) {
		return a
	}
	out := make(period.Periods, len(a))
	for i := range a {
		out[i] = period.Combine(op, a[i], b[i])
	}
	return out
}
