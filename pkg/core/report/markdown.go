// Package report renders summaries and analysis tables as markdown or HTML.
package report

import (
	"fmt"
	"math"
	"strings"

	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/period"
)

// Missing is printed for undefined values.
const Missing = "-"

// Markdown renders s as a titled GitHub-flavoured table: one row per summary
// row, one column per period.
func Markdown(s *calc.Summary) string {
	if s == nil {
		return ""
	}
	var sb strings.Builder
	if s.Title != "" {
		sb.WriteString("### " + cleanCell(s.Title) + "\n\n")
	}

	cols := s.NumValueColumns()
	sb.WriteString("| Item |")
	for i := 0; i < cols; i++ {
		var p period.Period
		if i < len(s.Periods) {
			p = s.Periods[i]
		}
		sb.WriteString(" " + columnHeader(p) + " |")
	}
	sb.WriteString("\n| --- |")
	for i := 0; i < cols; i++ {
		sb.WriteString(" ---: |")
	}
	sb.WriteString("\n")

	for _, r := range s.Rows {
		sb.WriteString("| " + cleanCell(r.Key) + " |")
		for i := 0; i < cols; i++ {
			v := math.NaN()
			if i < len(r.Vals) {
				v = r.Vals[i]
			}
			sb.WriteString(" " + FormatValue(v) + " |")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatValue prints v with two decimals, or four below one in magnitude.
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return Missing
	case v != 0 && math.Abs(v) < 1:
		return fmt.Sprintf("%.4f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func columnHeader(p period.Period) string {
	if p.IsZero() {
		return Missing
	}
	if p.ID != "" && p.Derivation == nil {
		return p.ID
	}
	return cleanCell(p.String())
}

func cleanCell(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.ReplaceAll(text, "|", "&#124;")
}
