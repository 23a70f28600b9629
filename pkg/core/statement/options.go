package statement

import (
	"context"
	"errors"
	"sync"

	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/classify"
	"finmodeling/pkg/core/period"
	"finmodeling/pkg/core/reformulate"
	"finmodeling/pkg/core/xbrl"
)

// DefaultPlausibilityThreshold is the smallest revenue and cost-of-revenue
// magnitude a reported quarter must show to be used as-is.
const DefaultPlausibilityThreshold = 1.0

// Options configures statement calculations. A zero Lookahead and nil
// pointers take defaults; a pointer to zero is used as zero.
type Options struct {
	Lookahead             int
	PlausibilityThreshold *float64
	MarginalTaxRate       *float64
	Cache                 classify.Cache
	// Concepts overrides entries of DefaultConcepts by name.
	Concepts map[string]calc.Concept
}

func (o Options) threshold() float64 {
	if o.PlausibilityThreshold == nil {
		return DefaultPlausibilityThreshold
	}
	return *o.PlausibilityThreshold
}

func (o Options) concept(name string) calc.Concept {
	if c, ok := o.Concepts[name]; ok {
		return c
	}
	return DefaultConcepts()[name]
}

func (o Options) classifierOptions() []classify.Option {
	opts := []classify.Option{}
	if o.Lookahead > 0 {
		opts = append(opts, classify.WithLookahead(o.Lookahead))
	}
	if o.Cache != nil {
		opts = append(opts, classify.WithCache(o.Cache))
	}
	return opts
}

func (o Options) incomeOptions() reformulate.IncomeOptions {
	return reformulate.IncomeOptions{MarginalTaxRate: o.MarginalTaxRate}
}

// resolved is a lazily resolved calculation with classified, per-period
// summaries memoized by period ID.
type resolved struct {
	statement  string
	roots      []*xbrl.ArcNode
	periods    period.Periods
	concept    calc.Concept
	mapping    calc.ValueMapping
	classifier *classify.Classifier

	once sync.Once
	calc *calc.Calculation
	err  error

	mu        sync.Mutex
	summaries map[string]*calc.Summary
}

func newResolved(stmt string, roots []*xbrl.ArcNode, periods period.Periods, c calc.Concept, m calc.ValueMapping, cl *classify.Classifier) *resolved {
	return &resolved{
		statement:  stmt,
		roots:      roots,
		periods:    periods,
		concept:    c,
		mapping:    m,
		classifier: cl,
		summaries:  make(map[string]*calc.Summary),
	}
}

func (r *resolved) calculation() (*calc.Calculation, error) {
	r.once.Do(func() {
		r.calc, r.err = calc.FindCalculation(r.roots, r.periods, r.concept)
		var notFound *calc.ConceptNotFoundError
		if errors.As(r.err, &notFound) {
			notFound.Statement = r.statement
		}
	})
	return r.calc, r.err
}

func (r *resolved) summary(ctx context.Context, p period.Period) (*calc.Summary, error) {
	c, err := r.calculation()
	if err != nil {
		return nil, err
	}

	key := p.String() + "|" + p.ID
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.summaries[key]; ok {
		return s, nil
	}

	s := c.Summary(r.mapping, p)
	r.classifier.Classify(ctx, s)
	r.summaries[key] = s
	return s, nil
}

func (r *resolved) hasLeafMatching(labels, ids calc.PatternSet) bool {
	c, err := r.calculation()
	if err != nil {
		return false
	}
	return c.HasLeafMatching(labels, ids)
}
