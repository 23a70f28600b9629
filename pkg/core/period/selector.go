package period

import "math"

// complementary lists, for each cumulative sub-kind of the minuend, the
// predicate its subtrahend must satisfy to leave exactly one quarter.
var complementary = []struct {
	minuend    func(Period) bool
	subtrahend func(Period) bool
}{
	{Period.IsAnnual, Period.IsThreeQuarterly},
	{Period.IsThreeQuarterly, Period.IsHalfYearly},
	{Period.IsHalfYearly, Period.IsQuarterly},
}

func sameStart(a, b Period) bool {
	return math.Abs(a.Start.Sub(b.Start).Hours()/24) <= sameStartToleranceDays
}

// derivable reports whether a - b leaves exactly one reporting quarter.
func derivable(a, b Period) bool {
	if a.Instant || b.Instant || a.Derivation != nil || b.Derivation != nil {
		return false
	}
	if !sameStart(a, b) || !a.End.After(b.End) {
		return false
	}
	gap := int(a.End.Sub(b.End).Hours() / 24)
	if gap < quarterMinDays || gap > quarterMaxDays {
		return false
	}
	for _, c := range complementary {
		if c.minuend(a) && c.subtrahend(b) {
			return true
		}
	}
	return false
}

// ChooseSuccessivePeriods picks the pair of periods from two statements that
// are structurally comparable.
//
// The most recent quarterly period reported by both wins. Otherwise the latest
// pair whose difference isolates one quarter is returned (annual minus
// three-quarters, three-quarters minus half-year, half-year minus quarter).
// ok is false when no pair exists; callers treat that as "no derivable
// quarter", not as an error.
func ChooseSuccessivePeriods(a, b Periods) (Period, Period, bool) {
	qa := a.Quarterly()
	qb := b.Quarterly()
	for i := len(qa) - 1; i >= 0; i-- {
		if match, ok := qb.Contains(qa[i]); ok {
			return qa[i], match, true
		}
	}
	return ChooseDerivablePeriods(a, b)
}

// ChooseDerivablePeriods returns the latest (a, b) pair with a - b equal to
// one reporting quarter.
func ChooseDerivablePeriods(a, b Periods) (Period, Period, bool) {
	sa := a.Sorted()
	sb := b.Sorted()
	for i := len(sa) - 1; i >= 0; i-- {
		for j := len(sb) - 1; j >= 0; j-- {
			if derivable(sa[i], sb[j]) {
				return sa[i], sb[j], true
			}
		}
	}
	return Period{}, Period{}, false
}
