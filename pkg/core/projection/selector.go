package projection

import (
	"math"

	"finmodeling/pkg/core/applog"
	"finmodeling/pkg/core/calc"
)

// MinConstantPolicyFilings is the number of analysed filings needed before
// historical ratios are trusted over generic assumptions.
const MinConstantPolicyFilings = 3

// Income statement analysis rows the constant policy averages.
const (
	RowRevenueGrowth = "Revenue Growth"
	RowOperatingPM   = "Operating PM"
	RowSalesOverNOA  = "Sales / NOA"
	RowFIOverNFA     = "FI / NFA"
)

// Policy supplies the annual drivers of a forecast.
type Policy interface {
	Name() string
	RevenueGrowth() float64
	SalesPM() float64
	SalesOverNOA() float64
	FIOverNFA() float64
}

// GenericPolicy is used when there is too little history.
type GenericPolicy struct{}

func (GenericPolicy) Name() string           { return "generic" }
func (GenericPolicy) RevenueGrowth() float64 { return 0.04 }
func (GenericPolicy) SalesPM() float64       { return 0.20 }
func (GenericPolicy) SalesOverNOA() float64  { return 2.00 }
func (GenericPolicy) FIOverNFA() float64     { return 0.01 }

// ConstantPolicy holds historical means.
type ConstantPolicy struct {
	Growth   float64 `json:"revenue_growth"`
	PM       float64 `json:"sales_pm"`
	ATO      float64 `json:"sales_over_noa"`
	FIReturn float64 `json:"fi_over_nfa"`
}

func (p ConstantPolicy) Name() string           { return "constant" }
func (p ConstantPolicy) RevenueGrowth() float64 { return p.Growth }
func (p ConstantPolicy) SalesPM() float64       { return p.PM }
func (p ConstantPolicy) SalesOverNOA() float64  { return p.ATO }
func (p ConstantPolicy) FIOverNFA() float64     { return p.FIReturn }

// ChoosePolicy returns GenericPolicy for fewer than
// MinConstantPolicyFilings analysis columns, else a ConstantPolicy of the
// mean finite value of each driver row. The sales margin is averaged from
// the operating profit margin row. A row with no finite values falls back
// to the generic value.
func ChoosePolicy(isa *calc.Summary) Policy {
	if isa == nil || isa.NumValueColumns() < MinConstantPolicyFilings {
		return GenericPolicy{}
	}

	var generic GenericPolicy
	mean := func(key string, fallback float64) float64 {
		r, ok := isa.Row(key)
		if !ok {
			applog.L().Warn().Str("row", key).Msg("[projection] analysis row missing, using generic value")
			return fallback
		}
		m, ok := validMean(r.Vals)
		if !ok {
			applog.L().Warn().Str("row", key).Msg("[projection] no valid values, using generic value")
			return fallback
		}
		return m
	}

	return ConstantPolicy{
		Growth:   mean(RowRevenueGrowth, generic.RevenueGrowth()),
		PM:       mean(RowOperatingPM, generic.SalesPM()),
		ATO:      mean(RowSalesOverNOA, generic.SalesOverNOA()),
		FIReturn: mean(RowFIOverNFA, generic.FIOverNFA()),
	}
}

func validMean(vals []float64) (float64, bool) {
	var sum float64
	n := 0
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
