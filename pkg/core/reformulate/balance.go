package reformulate

import (
	"math"

	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/classify"
	"finmodeling/pkg/core/period"
)

// Balance sheet field names.
const (
	OperatingAssets           = "operating_assets"
	FinancialAssets           = "financial_assets"
	OperatingLiabilities      = "operating_liabilities"
	FinancialLiabilities      = "financial_liabilities"
	NetOperatingAssets        = "net_operating_assets"
	NetFinancialAssets        = "net_financial_assets"
	CommonShareholdersEquity  = "common_shareholders_equity"
	MinorityInterest          = "minority_interest"
	TotalAssets               = "total_assets"
	TotalLiabilitiesAndEquity = "total_liabilities_and_equity"
)

// BalanceSheet is the reformulated balance sheet view.
type BalanceSheet struct {
	*Statement
}

// ReformulateBalanceSheet nets operating and financial liabilities against
// the matching assets. assets is classified oa/fa; liabsEq is classified
// ol/fl/cse/mi and built with debits flipped.
func ReformulateBalanceSheet(p period.Period, assets, liabsEq *calc.Summary) *BalanceSheet {
	st := newStatement(KindBalanceSheet, p)

	oa := assets.Filter("", classify.OperatingAsset)
	fa := assets.Filter("", classify.FinancialAsset)
	ol := liabsEq.Filter("", classify.OperatingLiability)
	fl := liabsEq.Filter("", classify.FinancialLiability)

	st.set(OperatingAssets, oa)
	st.set(FinancialAssets, fa)
	st.set(OperatingLiabilities, ol)
	st.set(FinancialLiabilities, fl)
	st.set(NetOperatingAssets, concat(assets.Periods, oa, negate(ol)))
	st.set(NetFinancialAssets, concat(assets.Periods, fa, negate(fl)))
	st.set(CommonShareholdersEquity, liabsEq.Filter("", classify.CommonEquity))
	st.set(MinorityInterest, liabsEq.Filter("", classify.MinorityInterest))
	st.set(TotalAssets, assets.Clone())
	st.set(TotalLiabilitiesAndEquity, liabsEq.Clone())

	return &BalanceSheet{st}
}

func (s *BalanceSheet) OperatingAssets() *calc.Summary      { return s.Field(OperatingAssets) }
func (s *BalanceSheet) FinancialAssets() *calc.Summary      { return s.Field(FinancialAssets) }
func (s *BalanceSheet) OperatingLiabilities() *calc.Summary { return s.Field(OperatingLiabilities) }
func (s *BalanceSheet) FinancialLiabilities() *calc.Summary { return s.Field(FinancialLiabilities) }
func (s *BalanceSheet) NetOperatingAssets() *calc.Summary   { return s.Field(NetOperatingAssets) }
func (s *BalanceSheet) NetFinancialAssets() *calc.Summary   { return s.Field(NetFinancialAssets) }

func (s *BalanceSheet) CommonShareholdersEquity() *calc.Summary {
	return s.Field(CommonShareholdersEquity)
}

func (s *BalanceSheet) MinorityInterest() *calc.Summary { return s.Field(MinorityInterest) }
func (s *BalanceSheet) TotalAssets() *calc.Summary      { return s.Field(TotalAssets) }

func (s *BalanceSheet) TotalLiabilitiesAndEquity() *calc.Summary {
	return s.Field(TotalLiabilitiesAndEquity)
}

// IsBalanced checks NOA + NFA ≈ CSE + MI within tolerance.
func (s *BalanceSheet) IsBalanced(tolerance float64) bool {
	lhs := s.NetOperatingAssets().Total() + s.NetFinancialAssets().Total()
	rhs := s.CommonShareholdersEquity().Total() + s.MinorityInterest().Total()
	return math.Abs(lhs-rhs) <= tolerance
}

// CompositionRatio is NOA over CSE.
func (s *BalanceSheet) CompositionRatio() float64 {
	return ratio(s.NetOperatingAssets().Total(), s.CommonShareholdersEquity().Total())
}

// Rows returns the balance sheet analysis table. prev may be nil.
func (s *BalanceSheet) Rows(prev *BalanceSheet) *calc.Summary {
	noaGrowth, cseGrowth := nan, nan
	if prev != nil {
		noaGrowth = ratio(s.NetOperatingAssets().Total(), prev.NetOperatingAssets().Total()) - 1
		cseGrowth = ratio(s.CommonShareholdersEquity().Total(), prev.CommonShareholdersEquity().Total()) - 1
	}
	return analysisTable("balance sheet analysis", s.Period,
		row("NOA ($MM)", millions(s.NetOperatingAssets().Total())),
		row("NFA ($MM)", millions(s.NetFinancialAssets().Total())),
		row("CSE ($MM)", millions(s.CommonShareholdersEquity().Total())),
		row("Composition Ratio", s.CompositionRatio()),
		row("NOA Growth", noaGrowth),
		row("CSE Growth", cseGrowth),
	)
}
