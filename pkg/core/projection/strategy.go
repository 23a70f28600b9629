// Package projection picks a forecasting policy from a company's income
// statement analyses and extrapolates reformulated statements forward.
package projection

import (
	"fmt"
	"math"
)

// Context carries the inputs a strategy needs for one forecast step.
type Context struct {
	Step      int                // 1-based forecast step
	LastValue float64            // previous step's value for this line
	Drivers   map[string]float64 // current-step values of other lines
}

// Strategy computes one forecast line.
type Strategy interface {
	Name() string

	// Calculate computes the value for ctx.Step.
	Calculate(ctx Context) (float64, error)

	// Validate checks that the inputs are present and finite.
	Validate(ctx Context) error
}

// GrowthStrategy compounds the previous value.
// Formula: Value(t) = Value(t-1) * (1 + GrowthRate)
type GrowthStrategy struct {
	GrowthRate float64 `json:"growth_rate"` // per step, e.g. 0.01 for 1%
}

func (s *GrowthStrategy) Name() string { return "Growth" }

func (s *GrowthStrategy) Validate(ctx Context) error {
	if ctx.LastValue == 0 {
		return fmt.Errorf("GrowthStrategy requires a non-zero LastValue")
	}
	if !finite(s.GrowthRate) {
		return fmt.Errorf("GrowthStrategy rate is not finite: %v", s.GrowthRate)
	}
	return nil
}

func (s *GrowthStrategy) Calculate(ctx Context) (float64, error) {
	if err := s.Validate(ctx); err != nil {
		return 0, err
	}
	return ctx.LastValue * (1 + s.GrowthRate), nil
}

// MarginStrategy scales another line of the same step.
// Formula: Value = Drivers[BaseID] * Margin
type MarginStrategy struct {
	Margin float64 `json:"margin"`
	BaseID string  `json:"base_id"` // e.g. "revenue"
}

func (s *MarginStrategy) Name() string { return "Margin" }

func (s *MarginStrategy) Validate(ctx Context) error {
	if _, ok := ctx.Drivers[s.BaseID]; !ok {
		return fmt.Errorf("MarginStrategy requires '%s' base value", s.BaseID)
	}
	if !finite(s.Margin) {
		return fmt.Errorf("MarginStrategy margin on '%s' is not finite: %v", s.BaseID, s.Margin)
	}
	return nil
}

func (s *MarginStrategy) Calculate(ctx Context) (float64, error) {
	if err := s.Validate(ctx); err != nil {
		return 0, err
	}
	return ctx.Drivers[s.BaseID] * s.Margin, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
