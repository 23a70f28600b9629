package projection

import (
	"fmt"
	"math"

	"finmodeling/pkg/core/applog"
	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/period"
	"finmodeling/pkg/core/reformulate"
)

const quartersPerYear = 4

// Forecast line IDs passed between strategies.
const (
	lineRevenue = "revenue"
	linePrevNFA = "nfa_prev"
)

// Quarter is one forecast quarter of the reformulated statements.
type Quarter struct {
	Period              period.Period `json:"period"`
	Revenue             float64       `json:"revenue"`
	OperatingIncome     float64       `json:"operating_income"`
	NetFinancingIncome  float64       `json:"net_financing_income"`
	ComprehensiveIncome float64       `json:"comprehensive_income"`
	NetOperatingAssets  float64       `json:"net_operating_assets"`
	NetFinancialAssets  float64       `json:"net_financial_assets"`
	CommonEquity        float64       `json:"common_equity"`
}

// Forecasts is the output of Forecast.
type Forecasts struct {
	Policy   string    `json:"policy"`
	Quarters []Quarter `json:"quarters"`
}

// Forecast extrapolates n quarters from the latest reformulated income
// statement and balance sheet. Annual policy drivers are converted to
// quarterly rates. Equity grows by comprehensive income (no payout), and net
// financial assets absorb the difference between equity and net operating
// assets.
func Forecast(p Policy, lastIS *reformulate.IncomeStatement, lastBS *reformulate.BalanceSheet, n int) (*Forecasts, error) {
	if p == nil || lastIS == nil || lastBS == nil {
		return nil, fmt.Errorf("forecast needs a policy, an income statement and a balance sheet")
	}
	if n < 0 {
		return nil, fmt.Errorf("forecast length must not be negative: %d", n)
	}
	if ato := p.SalesOverNOA(); !finite(ato) || ato <= 0 {
		return nil, fmt.Errorf("%s policy: sales / NOA must be positive, got %v", p.Name(), ato)
	}

	revenue := &GrowthStrategy{GrowthRate: math.Pow(1+p.RevenueGrowth(), 1.0/quartersPerYear) - 1}
	oi := &MarginStrategy{Margin: p.SalesPM(), BaseID: lineRevenue}
	noa := &MarginStrategy{Margin: quartersPerYear / p.SalesOverNOA(), BaseID: lineRevenue}
	nfi := &MarginStrategy{Margin: p.FIOverNFA() / quartersPerYear, BaseID: linePrevNFA}

	out := &Forecasts{Policy: p.Name(), Quarters: make([]Quarter, 0, n)}
	prev := Quarter{
		Period:             lastIS.Period,
		Revenue:            lastIS.OperatingRevenues().Total(),
		NetOperatingAssets: lastBS.NetOperatingAssets().Total(),
		NetFinancialAssets: lastBS.NetFinancialAssets().Total(),
		CommonEquity:       lastBS.CommonShareholdersEquity().Total(),
	}

	for step := 1; step <= n; step++ {
		q := Quarter{Period: nextQuarter(prev.Period, step)}
		var err error

		if q.Revenue, err = revenue.Calculate(Context{Step: step, LastValue: prev.Revenue}); err != nil {
			return nil, fmt.Errorf("step %d revenue: %w", step, err)
		}
		drivers := map[string]float64{lineRevenue: q.Revenue, linePrevNFA: prev.NetFinancialAssets}
		ctx := Context{Step: step, Drivers: drivers}

		if q.OperatingIncome, err = oi.Calculate(ctx); err != nil {
			return nil, fmt.Errorf("step %d operating income: %w", step, err)
		}
		if q.NetOperatingAssets, err = noa.Calculate(ctx); err != nil {
			return nil, fmt.Errorf("step %d net operating assets: %w", step, err)
		}
		if q.NetFinancingIncome, err = nfi.Calculate(ctx); err != nil {
			return nil, fmt.Errorf("step %d net financing income: %w", step, err)
		}
		q.ComprehensiveIncome = q.OperatingIncome + q.NetFinancingIncome
		q.CommonEquity = prev.CommonEquity + q.ComprehensiveIncome
		q.NetFinancialAssets = q.CommonEquity - q.NetOperatingAssets

		out.Quarters = append(out.Quarters, q)
		prev = q
	}

	applog.L().Debug().Str("policy", p.Name()).Int("quarters", n).Msg("[projection] forecast complete")
	return out, nil
}

// nextQuarter is the three months following p.
func nextQuarter(p period.Period, step int) period.Period {
	start := p.End.AddDate(0, 0, 1)
	end := start.AddDate(0, 3, -1)
	return period.NewDuration(fmt.Sprintf("F%d_%s", step, end.Format("20060102")), start, end)
}

// Summary lays the forecasts out one column per quarter, in millions.
func (f *Forecasts) Summary() *calc.Summary {
	periods := make(period.Periods, len(f.Quarters))
	for i, q := range f.Quarters {
		periods[i] = q.Period
	}
	line := func(key string, v func(Quarter) float64) calc.Row {
		r := calc.Row{Key: key, Vals: make([]float64, len(f.Quarters))}
		for i, q := range f.Quarters {
			r.Vals[i] = v(q) / 1e6
		}
		return r
	}
	return calc.NewSummary(f.Policy+" forecast", periods,
		line("Revenue ($MM)", func(q Quarter) float64 { return q.Revenue }),
		line("OI ($MM)", func(q Quarter) float64 { return q.OperatingIncome }),
		line("FI ($MM)", func(q Quarter) float64 { return q.NetFinancingIncome }),
		line("NI ($MM)", func(q Quarter) float64 { return q.ComprehensiveIncome }),
		line("NOA ($MM)", func(q Quarter) float64 { return q.NetOperatingAssets }),
		line("NFA ($MM)", func(q Quarter) float64 { return q.NetFinancialAssets }),
		line("CSE ($MM)", func(q Quarter) float64 { return q.CommonEquity }),
	)
}
