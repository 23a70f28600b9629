package classify

import "finmodeling/pkg/core/calc"

const (
	strongScore = 1.0
	weakScore   = 0.5
)

// Keywords are the label patterns that point at one category. Strong
// patterns identify the category on their own; weak ones only hint at it.
type Keywords struct {
	Strong calc.PatternSet
	Weak   calc.PatternSet
}

// Lexicon maps each category to its keywords. Labels are matched after
// normalization (lower case, single spaces).
type Lexicon map[calc.RowType]Keywords

// Score rates how well label fits category: 1 for a strong match, 0.5 for a
// weak one, 0 otherwise.
func (l Lexicon) Score(category calc.RowType, label string) float64 {
	kw, ok := l[category]
	if !ok {
		return 0
	}
	if kw.Strong.Matches(label) {
		return strongScore
	}
	if kw.Weak.Matches(label) {
		return weakScore
	}
	return 0
}

func kw(strong, weak []string) Keywords {
	return Keywords{Strong: calc.MustPatternSet(strong...), Weak: calc.MustPatternSet(weak...)}
}

func LiabsAndEquityLexicon() Lexicon {
	return Lexicon{
		OperatingLiability: kw(
			[]string{`accounts payable`, `accrued`, `deferred revenue`, `income taxes payable`, `compensation`, `unearned`},
			[]string{`payable`, `liabilit`, `deferred`},
		),
		FinancialLiability: kw(
			[]string{`notes payable`, `debt`, `borrowing`, `commercial paper`, `loan`, `bond`, `capital lease`, `finance lease`},
			[]string{`notes`, `credit facilit`, `obligation`},
		),
		CommonEquity: kw(
			[]string{`stockholders`, `shareholders`, `common stock`, `retained earnings`, `paid-in capital`, `paid in capital`, `treasury`, `accumulated other comprehensive`, `accumulated deficit`},
			[]string{`equity`, `stock`, `capital`},
		),
		MinorityInterest: kw(
			[]string{`noncontrolling`, `non-controlling`, `minority interest`},
			[]string{`minority`},
		),
	}
}

func AssetsLexicon() Lexicon {
	return Lexicon{
		OperatingAsset: kw(
			[]string{`receivable`, `inventor`, `property`, `plant`, `equipment`, `goodwill`, `intangible`, `prepaid`, `deferred tax`},
			[]string{`asset`, `other`, `deferred`},
		),
		FinancialAsset: kw(
			[]string{`^cash`, `marketable securities`, `short-term investments`, `long-term investments`, `available-for-sale`, `held-to-maturity`},
			[]string{`securities`, `investment`, `cash`},
		),
	}
}

func CashFlowLexicon() Lexicon {
	return Lexicon{
		CashFromOperations: kw(
			[]string{`^net (income|loss)`, `depreciation`, `amortization`, `stock-based compensation`, `share-based compensation`, `deferred income tax`, `accounts receivable`, `inventor`, `accounts payable`, `accrued`},
			[]string{`changes in`, `operating`, `receivable`, `payable`, `deferred`},
		),
		CashInvestments: kw(
			[]string{`purchases? of property`, `capital expenditure`, `acquisition`, `purchases? of (marketable|investments|securities)`, `proceeds from (the )?(sale|maturit).*(marketable|investments|securities)`, `proceeds from (the )?sale of property`},
			[]string{`purchase`, `investing`, `proceeds from (the )?sale`},
		),
		DebtholderFlows: kw(
			[]string{`debt`, `borrowing`, `commercial paper`, `interest paid`, `notes payable`},
			[]string{`repayment`, `loan`, `exchange rate`},
		),
		StockholderFlows: kw(
			[]string{`dividend`, `repurchase`, `common stock`, `treasury stock`, `exercise of stock options`},
			[]string{`stock`, `share`},
		),
	}
}

func IncomeLexicon() Lexicon {
	return Lexicon{
		OperatingRevenue: kw(
			[]string{`^(total )?(net )?(operating )?revenues?`, `^(total )?net sales`, `^sales`},
			[]string{`revenue`, `sales`},
		),
		CostOfRevenue: kw(
			[]string{`cost of (revenue|sales|goods|products|services)`},
			[]string{`^cost`},
		),
		OperatingExpense: kw(
			[]string{`selling`, `general and administrative`, `research and development`, `marketing`, `depreciation`, `restructuring`},
			[]string{`expense`},
		),
		OtherOperatingIncome: kw(
			[]string{`other operating income`, `gain on sale`, `impairment`},
			[]string{`gain`, `other income`},
		),
		FinancingIncome: kw(
			[]string{`interest expense`, `interest income`, `investment income`},
			[]string{`interest`},
		),
		IncomeTax: kw(
			[]string{`income tax`, `provision for taxes`, `tax provision`},
			[]string{`tax`},
		),
		OtherOperatingAfterTax: kw(
			[]string{`discontinued operations`, `equity in (net )?(earnings|income) of`},
			[]string{`after tax`, `net of tax`},
		),
		FinancingIncomeAfterTax: kw(
			[]string{`preferred (stock )?dividend`, `attributable to noncontrolling`},
			[]string{`preferred`},
		),
	}
}
