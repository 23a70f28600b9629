package xbrl

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"finmodeling/pkg/core/period"
	"finmodeling/pkg/core/utils"

	"github.com/rotisserie/eris"
)

// StatementType names a statement's calculation linkbase role.
type StatementType string

const (
	IncomeStatement   StatementType = "income_statement"
	CashFlowStatement StatementType = "cash_flow_statement"
	BalanceSheet      StatementType = "balance_sheet"
)

// Filing is one parsed 10-K or 10-Q: its contexts' periods, the calculation
// forests of each statement and of each disclosure, keyed by the
// disclosure's title (e.g. "Disclosure Provision For Income Taxes").
type Filing struct {
	Name        string                       `json:"name"`
	Form        string                       `json:"form"` // "10-K", "10-Q"
	Periods     period.Periods               `json:"periods"`
	Statements  map[StatementType][]*ArcNode `json:"statements"`
	Disclosures Disclosures                  `json:"disclosures,omitempty"`
}

// Statement returns the calculation forest for a statement type.
func (f *Filing) Statement(t StatementType) []*ArcNode {
	if f == nil {
		return nil
	}
	return f.Statements[t]
}

// Disclosures maps a disclosure title to its calculation forest.
type Disclosures map[string][]*ArcNode

// Titles returns the titles for which match reports true, sorted.
func (d Disclosures) Titles(match func(title string) bool) []string {
	var titles []string
	for t := range d {
		if match(t) {
			titles = append(titles, t)
		}
	}
	sort.Strings(titles)
	return titles
}

// Roots returns the forests of every matching disclosure in title order.
func (d Disclosures) Roots(match func(title string) bool) []*ArcNode {
	var roots []*ArcNode
	for _, t := range d.Titles(match) {
		roots = append(roots, d[t]...)
	}
	return roots
}

// IsAnnual reports whether the filing is an annual report.
func (f *Filing) IsAnnual() bool {
	return strings.HasPrefix(strings.ToUpper(f.Form), "10-K")
}

// Parse decodes a filing document. Strict JSON is tried first, then HJSON,
// then repaired JSON, so hand-written fixtures with comments load as-is.
func Parse(data []byte) (*Filing, error) {
	var f Filing
	if err := utils.SmartDecode(data, &f); err != nil {
		return nil, eris.Wrap(err, "xbrl: parse filing")
	}
	if len(f.Statements) == 0 {
		return nil, eris.Errorf("xbrl: filing %q has no statements", f.Name)
	}
	return &f, nil
}

// Load reads and parses a filing file.
func Load(path string) (*Filing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xbrl: read %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "xbrl: load %s", path)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}

// FilingPaths lists the .json / .hjson files in dir in name order.
func FilingPaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "xbrl: read dir %s", dir)
	}

	var paths []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".json" && ext != ".hjson") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}

// LoadDir loads every filing in dir, ordered chronologically by the latest
// period each filing reports.
func LoadDir(dir string) ([]*Filing, error) {
	paths, err := FilingPaths(dir)
	if err != nil {
		return nil, err
	}

	filings := make([]*Filing, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		filings = append(filings, f)
	}
	SortByPeriodEnd(filings)
	return filings, nil
}

// SortByPeriodEnd orders filings by the end of their latest period.
func SortByPeriodEnd(filings []*Filing) {
	sort.SliceStable(filings, func(i, j int) bool {
		li, _ := filings[i].Periods.Last()
		lj, _ := filings[j].Periods.Last()
		return li.End.Before(lj.End)
	})
}
