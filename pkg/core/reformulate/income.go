package reformulate

import (
	"math"

	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/classify"
	"finmodeling/pkg/core/period"
)

var nan = math.NaN()

// DefaultMarginalTaxRate is applied to financing and other operating items
// when allocating the reported tax expense.
const DefaultMarginalTaxRate = 0.35

// Income statement field names.
const (
	OperatingRevenues             = "operating_revenues"
	CostOfRevenues                = "cost_of_revenues"
	GrossRevenue                  = "gross_revenue"
	OperatingExpenses             = "operating_expenses"
	IncomeFromSalesBeforeTax      = "income_from_sales_before_tax"
	IncomeFromSalesAfterTax       = "income_from_sales_after_tax"
	OtherOperatingIncomeBeforeTax = "other_operating_income_before_tax"
	OperatingIncomeBeforeTax      = "operating_income_before_tax"
	NetFinancingIncomeBeforeTax   = "net_financing_income_before_tax"
	IncomeTaxes                   = "income_taxes"
	OperatingIncomeAfterTax       = "operating_income_after_tax"
	NetFinancingIncome            = "net_financing_income"
	ComprehensiveIncome           = "comprehensive_income"
)

const (
	financingTaxShieldRow = "Tax shield on net financing income"
	operatingTaxRow       = "Tax on operating income"
	salesTaxRow           = "Tax on income from sales"
)

// IncomeOptions tunes the income reformulation.
// A nil MarginalTaxRate takes DefaultMarginalTaxRate; zero disables the
// financing tax shield.
type IncomeOptions struct {
	MarginalTaxRate *float64
}

func (o IncomeOptions) rate() float64 {
	if o.MarginalTaxRate == nil {
		return DefaultMarginalTaxRate
	}
	return *o.MarginalTaxRate
}

// IncomeStatement is the reformulated income view.
type IncomeStatement struct {
	*Statement
}

// ReformulateIncome separates operating from financing income in a
// classified net-income summary. Reported taxes are allocated: financing
// income is taxed at the marginal rate and the remainder lands on operating
// income, so operating plus financing income after tax equals net income.
func ReformulateIncome(p period.Period, s *calc.Summary, opts IncomeOptions) *IncomeStatement {
	t := opts.rate()
	st := newStatement(KindIncome, p)

	or := s.Filter("", classify.OperatingRevenue)
	cogs := s.Filter("", classify.CostOfRevenue)
	oe := s.Filter("", classify.OperatingExpense)
	oibt := s.Filter("", classify.OtherOperatingIncome)
	fibt := s.Filter("", classify.FinancingIncome)
	tax := s.Filter("", classify.IncomeTax)
	ooiat := s.Filter("", classify.OtherOperatingAfterTax)
	fiat := s.Filter("", classify.FinancingIncomeAfterTax)

	// Tax allocated to operations: reported tax plus the shield that net
	// financing expense provided.
	operatingTax := sumVals(columnTotals(tax), scale(columnTotals(fibt), t))
	salesTax := sumVals(operatingTax, scale(columnTotals(oibt), t))

	gross := concat(s.Periods, or, cogs)
	ifsbt := concat(s.Periods, gross, oe)
	ifsat := ifsbt.Clone()
	ifsat.AppendRow(salesTaxRow, classify.IncomeTax, salesTax...)
	oibtTotal := concat(s.Periods, ifsbt, oibt)

	oiat := oibtTotal.Clone()
	oiat.AppendRow(operatingTaxRow, classify.IncomeTax, operatingTax...)
	oiat.Rows = append(oiat.Rows, ooiat.Clone().Rows...)

	nfi := fibt.Clone()
	nfi.AppendRow(financingTaxShieldRow, classify.FinancingIncome, scale(columnTotals(fibt), -t)...)
	nfi.Rows = append(nfi.Rows, fiat.Clone().Rows...)

	st.set(OperatingRevenues, or)
	st.set(CostOfRevenues, cogs)
	st.set(GrossRevenue, gross)
	st.set(OperatingExpenses, oe)
	st.set(IncomeFromSalesBeforeTax, ifsbt)
	st.set(IncomeFromSalesAfterTax, ifsat)
	st.set(OtherOperatingIncomeBeforeTax, oibt)
	st.set(OperatingIncomeBeforeTax, oibtTotal)
	st.set(NetFinancingIncomeBeforeTax, fibt)
	st.set(IncomeTaxes, tax)
	st.set(OperatingIncomeAfterTax, oiat)
	st.set(NetFinancingIncome, nfi)
	st.set(ComprehensiveIncome, s.Clone())

	return &IncomeStatement{st}
}

func (s *IncomeStatement) OperatingRevenues() *calc.Summary { return s.Field(OperatingRevenues) }
func (s *IncomeStatement) CostOfRevenues() *calc.Summary    { return s.Field(CostOfRevenues) }
func (s *IncomeStatement) GrossRevenue() *calc.Summary      { return s.Field(GrossRevenue) }
func (s *IncomeStatement) OperatingExpenses() *calc.Summary { return s.Field(OperatingExpenses) }

func (s *IncomeStatement) IncomeFromSalesBeforeTax() *calc.Summary {
	return s.Field(IncomeFromSalesBeforeTax)
}

func (s *IncomeStatement) IncomeFromSalesAfterTax() *calc.Summary {
	return s.Field(IncomeFromSalesAfterTax)
}

func (s *IncomeStatement) OtherOperatingIncomeBeforeTax() *calc.Summary {
	return s.Field(OtherOperatingIncomeBeforeTax)
}

func (s *IncomeStatement) OperatingIncomeBeforeTax() *calc.Summary {
	return s.Field(OperatingIncomeBeforeTax)
}

func (s *IncomeStatement) NetFinancingIncomeBeforeTax() *calc.Summary {
	return s.Field(NetFinancingIncomeBeforeTax)
}

func (s *IncomeStatement) IncomeTaxes() *calc.Summary { return s.Field(IncomeTaxes) }

func (s *IncomeStatement) OperatingIncomeAfterTax() *calc.Summary {
	return s.Field(OperatingIncomeAfterTax)
}

func (s *IncomeStatement) NetFinancingIncome() *calc.Summary  { return s.Field(NetFinancingIncome) }
func (s *IncomeStatement) ComprehensiveIncome() *calc.Summary { return s.Field(ComprehensiveIncome) }

// Sub returns s - o.
func (s *IncomeStatement) Sub(o *IncomeStatement) (*IncomeStatement, error) {
	st, err := Subtract(s.Statement, o.Statement)
	if err != nil {
		return nil, err
	}
	return &IncomeStatement{st}, nil
}

// GrossMargin is gross revenue over operating revenue.
func (s *IncomeStatement) GrossMargin() float64 {
	return ratio(s.GrossRevenue().Total(), s.OperatingRevenues().Total())
}

// SalesPM is the after-tax sales profit margin.
func (s *IncomeStatement) SalesPM() float64 {
	return ratio(s.IncomeFromSalesAfterTax().Total(), s.OperatingRevenues().Total())
}

// OperatingPM is operating income after tax over revenue.
func (s *IncomeStatement) OperatingPM() float64 {
	return ratio(s.OperatingIncomeAfterTax().Total(), s.OperatingRevenues().Total())
}

func (s *IncomeStatement) FIOverSales() float64 {
	return ratio(s.NetFinancingIncome().Total(), s.OperatingRevenues().Total())
}

func (s *IncomeStatement) NIOverSales() float64 {
	return ratio(s.ComprehensiveIncome().Total(), s.OperatingRevenues().Total())
}

// spanDays counts the statement period's days inclusively, 0 when the
// period has no dates.
func (s *IncomeStatement) spanDays() int {
	if s.Period.Instant || s.Period.Start.IsZero() || s.Period.End.IsZero() {
		return 0
	}
	return s.Period.Days() + 1
}

// annualize scales a flow over the statement period to one year.
func (s *IncomeStatement) annualize(v float64) float64 {
	days := s.spanDays()
	if days <= 0 {
		return v
	}
	return v * 365 / float64(days)
}

// SalesOverNOA is annualized revenue over the prior balance sheet's net
// operating assets.
func (s *IncomeStatement) SalesOverNOA(prev *BalanceSheet) float64 {
	if prev == nil {
		return nan
	}
	return ratio(s.annualize(s.OperatingRevenues().Total()), prev.NetOperatingAssets().Total())
}

// FIOverNFA is annualized net financing income over the prior balance
// sheet's net financial assets.
func (s *IncomeStatement) FIOverNFA(prev *BalanceSheet) float64 {
	if prev == nil {
		return nan
	}
	return ratio(s.annualize(s.NetFinancingIncome().Total()), prev.NetFinancialAssets().Total())
}

// RevenueGrowth is the annualized revenue growth rate from prev.
func (s *IncomeStatement) RevenueGrowth(prev *IncomeStatement) float64 {
	if prev == nil {
		return nan
	}
	return s.growth(s.OperatingRevenues().Total(), prev.OperatingRevenues().Total())
}

// OperatingIncomeGrowth is the annualized growth of operating income after
// tax from prev.
func (s *IncomeStatement) OperatingIncomeGrowth(prev *IncomeStatement) float64 {
	if prev == nil {
		return nan
	}
	return s.growth(s.OperatingIncomeAfterTax().Total(), prev.OperatingIncomeAfterTax().Total())
}

func (s *IncomeStatement) growth(cur, prev float64) float64 {
	g := ratio(cur, prev)
	if math.IsNaN(g) || g <= 0 {
		return nan
	}
	days := s.spanDays()
	if days <= 0 {
		return g - 1
	}
	return math.Pow(g, 365/float64(days)) - 1
}

// Rows returns the income analysis table. prevBS and prevIS may be nil.
func (s *IncomeStatement) Rows(prevBS *BalanceSheet, prevIS *IncomeStatement) *calc.Summary {
	return analysisTable("income statement analysis", s.Period,
		row("Revenue ($MM)", millions(s.OperatingRevenues().Total())),
		row("Core OI ($MM)", millions(s.IncomeFromSalesAfterTax().Total())),
		row("OI ($MM)", millions(s.OperatingIncomeAfterTax().Total())),
		row("FI ($MM)", millions(s.NetFinancingIncome().Total())),
		row("NI ($MM)", millions(s.ComprehensiveIncome().Total())),
		row("Gross Margin", s.GrossMargin()),
		row("Sales PM", s.SalesPM()),
		row("Operating PM", s.OperatingPM()),
		row("FI / Sales", s.FIOverSales()),
		row("NI / Sales", s.NIOverSales()),
		row("Sales / NOA", s.SalesOverNOA(prevBS)),
		row("FI / NFA", s.FIOverNFA(prevBS)),
		row("Revenue Growth", s.RevenueGrowth(prevIS)),
		row("OI Growth", s.OperatingIncomeGrowth(prevIS)),
	)
}
