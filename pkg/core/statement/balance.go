package statement

import (
	"context"
	"fmt"

	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/classify"
	"finmodeling/pkg/core/period"
	"finmodeling/pkg/core/reformulate"
	"finmodeling/pkg/core/xbrl"
)

// BalanceSheetCalculation is a filing's balance sheet, resolved on total
// assets and total liabilities and equity.
type BalanceSheetCalculation struct {
	assets  *resolved
	liabsEq *resolved
}

func NewBalanceSheetCalculation(roots []*xbrl.ArcNode, periods period.Periods, opts Options) *BalanceSheetCalculation {
	return &BalanceSheetCalculation{
		assets: newResolved("balance sheet", roots, periods, opts.concept(ConceptAssets), calc.ValueMapping{},
			classify.NewAssets(opts.classifierOptions()...)),
		liabsEq: newResolved("balance sheet", roots, periods, opts.concept(ConceptLiabsAndEquity), calc.FlipDebits,
			classify.NewLiabsAndEquity(opts.classifierOptions()...)),
	}
}

func (c *BalanceSheetCalculation) AssetsCalculation() (*calc.Calculation, error) {
	return c.assets.calculation()
}

func (c *BalanceSheetCalculation) LiabsAndEquityCalculation() (*calc.Calculation, error) {
	return c.liabsEq.calculation()
}

// Periods lists the instants the assets calculation reports.
func (c *BalanceSheetCalculation) Periods() period.Periods {
	ac, err := c.assets.calculation()
	if err != nil {
		return nil
	}
	return ac.Periods
}

// HasEquityItem reports whether liabilities and equity carry an equity line.
func (c *BalanceSheetCalculation) HasEquityItem() bool {
	return c.liabsEq.hasLeafMatching(equityLabels, noIDs)
}

// IsValid requires both sides of the balance sheet and an equity line.
func (c *BalanceSheetCalculation) IsValid() bool {
	if _, err := c.assets.calculation(); err != nil {
		return false
	}
	if _, err := c.liabsEq.calculation(); err != nil {
		return false
	}
	return c.HasEquityItem()
}

func (c *BalanceSheetCalculation) AssetsSummary(ctx context.Context, p period.Period) (*calc.Summary, error) {
	return c.assets.summary(ctx, p)
}

func (c *BalanceSheetCalculation) LiabsAndEquitySummary(ctx context.Context, p period.Period) (*calc.Summary, error) {
	return c.liabsEq.summary(ctx, p)
}

func (c *BalanceSheetCalculation) Reformulated(ctx context.Context, p period.Period) (*reformulate.BalanceSheet, error) {
	a, err := c.AssetsSummary(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}
	le, err := c.LiabsAndEquitySummary(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("liabilities and equity: %w", err)
	}
	return reformulate.ReformulateBalanceSheet(p, a, le), nil
}
