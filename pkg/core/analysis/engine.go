// Package analysis runs the reformulation pipeline over a company's
// filings and lays the results out one column per filing.
package analysis

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"finmodeling/pkg/core/applog"
	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/period"
	"finmodeling/pkg/core/reformulate"
	"finmodeling/pkg/core/statement"
	"finmodeling/pkg/core/xbrl"

	"github.com/google/uuid"
)

// DefaultWorkers bounds concurrent filing loads.
const DefaultWorkers = 4

// CompanyFilings holds a company's filings in chronological order.
type CompanyFilings struct {
	RunID   string
	Company string
	Filings []*statement.Filing
}

// New wraps already-opened filings.
func New(company string, filings []*statement.Filing) *CompanyFilings {
	return &CompanyFilings{
		RunID:   uuid.New().String(),
		Company: company,
		Filings: filings,
	}
}

// FromParsed opens every parsed filing with opts.
func FromParsed(company string, parsed []*xbrl.Filing, opts statement.Options) *CompanyFilings {
	filings := make([]*statement.Filing, len(parsed))
	for i, f := range parsed {
		filings[i] = statement.FromFiling(f, opts)
	}
	return New(company, filings)
}

// LoadFiles parses the given filing files concurrently, at most workers at a
// time, and returns them in chronological order. On cancellation it waits for
// loads already started and returns the context's error.
func LoadFiles(ctx context.Context, paths []string, workers int) ([]*xbrl.Filing, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
		sem  = make(chan struct{}, workers)
		out  = make([]*xbrl.Filing, len(paths))
	)

loop:
	for i, p := range paths {
		select {
		case <-ctx.Done():
			break loop
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			defer func() { <-sem }()

			f, err := xbrl.Load(p)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			out[i] = f
		}(i, p)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("loading %d filings: %d failed, first: %w", len(paths), len(errs), errs[0])
	}
	xbrl.SortByPeriodEnd(out)
	return out, nil
}

func (c *CompanyFilings) Len() int { return len(c.Filings) }

// latestInstant is the filing's most recent balance sheet date.
func latestInstant(f *statement.Filing) (period.Period, bool) {
	return f.BalanceSheet.Periods().Instants().Last()
}

// reformulatedBalanceSheets returns each filing's latest balance sheet, nil
// where the filing has none.
func (c *CompanyFilings) reformulatedBalanceSheets(ctx context.Context) ([]*reformulate.BalanceSheet, error) {
	out := make([]*reformulate.BalanceSheet, len(c.Filings))
	for i, f := range c.Filings {
		if !f.BalanceSheet.IsValid() {
			applog.L().Warn().Str("filing", f.Name).Msg("[analysis] skipping invalid balance sheet")
			continue
		}
		p, ok := latestInstant(f)
		if !ok {
			continue
		}
		bs, err := f.BalanceSheet.Reformulated(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		out[i] = bs
	}
	return out, nil
}

// reformulatedIncomeStatements returns each filing's latest quarter, derived
// against the previous filing where needed.
func (c *CompanyFilings) reformulatedIncomeStatements(ctx context.Context) ([]*reformulate.IncomeStatement, error) {
	out := make([]*reformulate.IncomeStatement, len(c.Filings))
	for i, f := range c.Filings {
		if !f.Income.IsValid() {
			continue
		}
		var prev *statement.IncomeStatementCalculation
		if i > 0 {
			prev = c.Filings[i-1].Income
		}
		is, err := f.Income.LatestQuarterlyReformulated(ctx, prev)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		out[i] = is
	}
	return out, nil
}

func (c *CompanyFilings) reformulatedCashFlows(ctx context.Context) ([]*reformulate.CashFlowStatement, error) {
	out := make([]*reformulate.CashFlowStatement, len(c.Filings))
	for i, f := range c.Filings {
		if _, err := f.CashFlow.CashChangeCalculation(); err != nil {
			applog.L().Warn().Err(err).Str("filing", f.Name).Msg("[analysis] skipping cash flow statement")
			continue
		}
		var prev *statement.CashFlowStatementCalculation
		if i > 0 {
			prev = c.Filings[i-1].CashFlow
		}
		cfs, err := f.CashFlow.LatestQuarterlyReformulated(ctx, prev)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		out[i] = cfs
	}
	return out, nil
}

// BalanceSheetAnalyses has one column per filing.
func (c *CompanyFilings) BalanceSheetAnalyses(ctx context.Context) (*calc.Summary, error) {
	sheets, err := c.reformulatedBalanceSheets(ctx)
	if err != nil {
		return nil, err
	}
	t := newColumns("balance sheet analyses")
	for i, bs := range sheets {
		if bs == nil {
			t.addMissing()
			continue
		}
		var prev *reformulate.BalanceSheet
		if i > 0 {
			prev = sheets[i-1]
		}
		t.add(bs.Rows(prev))
	}
	return t.summary(), nil
}

// IncomeStatementAnalyses has one column per filing. Ratios against net
// operating and financial assets use the previous filing's balance sheet.
func (c *CompanyFilings) IncomeStatementAnalyses(ctx context.Context) (*calc.Summary, error) {
	incomes, err := c.reformulatedIncomeStatements(ctx)
	if err != nil {
		return nil, err
	}
	sheets, err := c.reformulatedBalanceSheets(ctx)
	if err != nil {
		return nil, err
	}

	t := newColumns("income statement analyses")
	for i, is := range incomes {
		if is == nil {
			t.addMissing()
			continue
		}
		var (
			prevBS *reformulate.BalanceSheet
			prevIS *reformulate.IncomeStatement
		)
		if i > 0 {
			prevBS, prevIS = sheets[i-1], incomes[i-1]
		}
		t.add(is.Rows(prevBS, prevIS))
	}
	return t.summary(), nil
}

// CashFlowStatementAnalyses has one column per filing.
func (c *CompanyFilings) CashFlowStatementAnalyses(ctx context.Context) (*calc.Summary, error) {
	flows, err := c.reformulatedCashFlows(ctx)
	if err != nil {
		return nil, err
	}
	incomes, err := c.reformulatedIncomeStatements(ctx)
	if err != nil {
		return nil, err
	}

	t := newColumns("cash flow statement analyses")
	for i, cfs := range flows {
		if cfs == nil {
			t.addMissing()
			continue
		}
		t.add(cfs.Rows(incomes[i]))
	}
	return t.summary(), nil
}

// Latest returns the most recent reformulated income statement and balance
// sheet, the starting point for forecasts.
func (c *CompanyFilings) Latest(ctx context.Context) (*reformulate.IncomeStatement, *reformulate.BalanceSheet, error) {
	incomes, err := c.reformulatedIncomeStatements(ctx)
	if err != nil {
		return nil, nil, err
	}
	sheets, err := c.reformulatedBalanceSheets(ctx)
	if err != nil {
		return nil, nil, err
	}
	var (
		is *reformulate.IncomeStatement
		bs *reformulate.BalanceSheet
	)
	for i := range c.Filings {
		if incomes[i] != nil {
			is = incomes[i]
		}
		if sheets[i] != nil {
			bs = sheets[i]
		}
	}
	if is == nil || bs == nil {
		return nil, nil, fmt.Errorf("%s: no reformulated income statement and balance sheet", c.Company)
	}
	return is, bs, nil
}

// Analyze runs all three analyses.
func (c *CompanyFilings) Analyze(ctx context.Context) (*CompanyAnalysis, error) {
	isa, err := c.IncomeStatementAnalyses(ctx)
	if err != nil {
		return nil, err
	}
	bsa, err := c.BalanceSheetAnalyses(ctx)
	if err != nil {
		return nil, err
	}
	cfa, err := c.CashFlowStatementAnalyses(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(c.Filings))
	for i, f := range c.Filings {
		names[i] = f.Name
	}

	applog.L().Info().Str("run_id", c.RunID).Str("company", c.Company).Int("filings", len(c.Filings)).
		Msg("[analysis] analysis complete")

	return &CompanyAnalysis{
		RunID:           c.RunID,
		Company:         c.Company,
		Filings:         names,
		LastAnalyzed:    time.Now().UTC(),
		IncomeStatement: NewTable(isa),
		BalanceSheet:    NewTable(bsa),
		CashFlow:        NewTable(cfa),
	}, nil
}

// columns accumulates one-column tables side by side. Rows are matched by
// key and occurrence, in order of first appearance; a column without a row
// reads NaN there, as do missing columns.
type columns struct {
	title   string
	periods period.Periods
	keys    []rowKey
	index   map[rowKey]bool
	vals    []map[rowKey]float64 // per column, nil when missing
}

type rowKey struct {
	key string
	occ int
}

func newColumns(title string) *columns {
	return &columns{title: title, index: make(map[rowKey]bool)}
}

func (c *columns) add(col *calc.Summary) {
	p := period.Period{}
	if len(col.Periods) > 0 {
		p = col.Periods[0]
	}
	seen := make(map[string]int)
	vals := make(map[rowKey]float64, len(col.Rows))
	for _, r := range col.Rows {
		k := rowKey{key: r.Key, occ: seen[r.Key]}
		seen[r.Key]++
		if !c.index[k] {
			c.index[k] = true
			c.keys = append(c.keys, k)
		}
		vals[k] = r.Val()
	}
	c.periods = append(c.periods, p)
	c.vals = append(c.vals, vals)
}

func (c *columns) addMissing() {
	c.periods = append(c.periods, period.Period{})
	c.vals = append(c.vals, nil)
}

func (c *columns) summary() *calc.Summary {
	s := calc.NewSummary(c.title, c.periods)
	for _, k := range c.keys {
		row := calc.Row{Key: k.key, Vals: make([]float64, len(c.vals))}
		for j, col := range c.vals {
			v, ok := col[k]
			if !ok {
				v = math.NaN()
			}
			row.Vals[j] = v
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}
