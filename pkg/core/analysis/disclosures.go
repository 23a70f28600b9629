package analysis

import (
	"fmt"
	"strings"

	"finmodeling/pkg/core/applog"
	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/period"
	"finmodeling/pkg/core/statement"
)

// anyNode matches every node; the disclosure root is then the node with
// the most descendants.
var anyNode = calc.MustPatternSet(`^`)

// Disclosures lays out the disclosure calculations whose titles match
// titles, one column per contributing filing. Annual disclosures come from
// annual reports only, read at their latest fiscal year; quarterly ones come
// from every filing at its latest quarter. Disclosures reporting balances
// fall back to their latest instant. Filings without a match read NaN.
func (c *CompanyFilings) Disclosures(titles calc.PatternSet, kind period.Kind) (*calc.Summary, error) {
	var pick func(period.Periods) period.Periods
	switch kind {
	case period.KindAnnual:
		pick = period.Periods.Yearly
	case period.KindQuarterly:
		pick = period.Periods.Quarterly
	default:
		return nil, fmt.Errorf("disclosures: unsupported period kind %q", kind)
	}

	goal := "disclosure " + strings.Join(titles.Strings(), "|")
	t := newColumns(goal)
	found := false
	for _, f := range c.Filings {
		if kind == period.KindAnnual && !f.Annual {
			continue
		}
		dc, err := disclosureCalculation(f, titles, goal)
		if err != nil {
			applog.L().Debug().Err(err).Str("filing", f.Name).Msg("[analysis] no matching disclosure")
			t.addMissing()
			continue
		}
		p, ok := pick(dc.Periods).Last()
		if !ok {
			p, ok = dc.Periods.Instants().Last()
		}
		if !ok {
			applog.L().Warn().Str("filing", f.Name).Str("kind", string(kind)).
				Msg("[analysis] disclosure has no values for the requested period kind")
			t.addMissing()
			continue
		}
		found = true
		t.add(calc.Build(dc, calc.ValueMapping{}, p))
	}

	if !found {
		return nil, &calc.ConceptNotFoundError{Goal: goal, Statement: "disclosures"}
	}
	return t.summary(), nil
}

func disclosureCalculation(f *statement.Filing, titles calc.PatternSet, goal string) (*calc.Calculation, error) {
	roots := f.Disclosures.Roots(titles.Matches)
	return calc.FindCalculation(roots, f.Periods, calc.Concept{Goal: goal, Labels: anyNode, IDs: anyNode})
}
