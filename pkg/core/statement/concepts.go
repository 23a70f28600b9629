// Package statement resolves a filing's statements, classifies their rows
// and produces reformulated statements per period.
package statement

import "finmodeling/pkg/core/calc"

// Concept names accepted in Options.Concepts.
const (
	ConceptNetIncome      = "net_income"
	ConceptCashChange     = "cash_change"
	ConceptAssets         = "assets"
	ConceptLiabsAndEquity = "liabs_and_equity"
)

func idPattern(name string) string {
	return `^(|Locator_|loc_)(|us-gaap_)` + name + `[_0-9a-z]+`
}

// DefaultConcepts returns the built-in concept table.
func DefaultConcepts() map[string]calc.Concept {
	return map[string]calc.Concept{
		ConceptNetIncome: {
			Goal: "net income",
			Labels: calc.MustPatternSet(
				`^net (income|loss|loss income)`,
				`^profit loss$`,
				`^allocation.*of.*undistributed.*earnings`,
			),
			IDs: calc.MustPatternSet(
				idPattern("NetIncomeLoss"),
				idPattern("NetIncomeLossAvailableToCommonStockholdersBasic"),
				idPattern("ProfitLoss"),
			),
		},
		ConceptCashChange: {
			Goal: "cash change",
			Labels: calc.MustPatternSet(
				`^cash and cash equivalents period increase decrease`,
				`^(net )?(increase|decrease|change).*cash`,
			),
			IDs: calc.MustPatternSet(
				idPattern("CashAndCashEquivalentsPeriodIncreaseDecrease"),
				idPattern("CashPeriodIncreaseDecrease"),
			),
		},
		ConceptAssets: {
			Goal:   "assets",
			Labels: calc.MustPatternSet(`^total assets$`, `^assets$`),
			IDs:    calc.MustPatternSet(idPattern("Assets")),
		},
		ConceptLiabsAndEquity: {
			Goal: "liabilities and equity",
			Labels: calc.MustPatternSet(
				`^total liabilities and .*equity`,
				`^liabilities and .*equity`,
			),
			IDs: calc.MustPatternSet(idPattern("LiabilitiesAndStockholdersEquity")),
		},
	}
}

var (
	taxLabels     = calc.MustPatternSet(`tax`)
	taxIDs        = calc.MustPatternSet(`IncomeTax`)
	revenueLabels = calc.MustPatternSet(`revenue`, `sales`)
	revenueIDs    = calc.MustPatternSet(`Revenue`, `SalesRevenue`)
	equityLabels  = calc.MustPatternSet(`equity`, `stock`)
	noIDs         = calc.MustPatternSet()
)
