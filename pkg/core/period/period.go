// Package period models XBRL reporting periods and chooses comparable periods
// across filings.
package period

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Kind is the coarse classification of a reporting interval.
type Kind string

const (
	KindInstant   Kind = "instant"
	KindQuarterly Kind = "quarterly"
	KindPartial   Kind = "partial" // half-year or three-quarters
	KindAnnual    Kind = "annual"
	KindUnknown   Kind = "unknown"
)

// SubKind refines KindPartial.
type SubKind string

const (
	SubKindNone          SubKind = ""
	SubKindHalfYear      SubKind = "half-year"
	SubKindThreeQuarters SubKind = "three-quarters"
)

// Day-count windows for duration periods (end - start). Filers shift fiscal
// calendars by a week or two, so the windows are generous.
const (
	quarterMinDays      = 80
	quarterMaxDays      = 100
	halfYearMinDays     = 170
	halfYearMaxDays     = 195
	threeQuarterMinDays = 260
	threeQuarterMaxDays = 285
	annualMinDays       = 350
	annualMaxDays       = 380
)

// Cumulative periods of one fiscal year may disagree on the start date by a few days.
const sameStartToleranceDays = 3

const dateLayout = "2006-01-02"

// Derivation marks a period produced by combining two others, e.g. an annual
// period minus a three-quarter period.
type Derivation struct {
	Op    string // "-" or "+"
	Left  Period
	Right Period
}

// Period identifies a reporting interval. For instants Start is zero and End
// holds the instant date.
type Period struct {
	ID         string
	Start      time.Time
	End        time.Time
	Instant    bool
	Derivation *Derivation
}

// NewDuration builds a duration period.
func NewDuration(id string, start, end time.Time) Period {
	return Period{ID: id, Start: start, End: end}
}

// NewInstant builds an instant period.
func NewInstant(id string, at time.Time) Period {
	return Period{ID: id, End: at, Instant: true}
}

// MustParseDuration builds a duration period from YYYY-MM-DD strings and
// panics on malformed input. Intended for fixtures and tests.
func MustParseDuration(id, start, end string) Period {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		panic(err)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		panic(err)
	}
	return NewDuration(id, s, e)
}

// MustParseInstant builds an instant period from a YYYY-MM-DD string.
func MustParseInstant(id, at string) Period {
	t, err := time.Parse(dateLayout, at)
	if err != nil {
		panic(err)
	}
	return NewInstant(id, t)
}

// IsZero reports whether p is the absent-period sentinel.
func (p Period) IsZero() bool {
	return p.ID == "" && p.End.IsZero() && p.Derivation == nil
}

// Days returns end - start in whole days. Zero for instants.
func (p Period) Days() int {
	if p.Instant {
		return 0
	}
	return int(p.End.Sub(p.Start).Hours() / 24)
}

// Kind classifies the period by its length.
func (p Period) Kind() Kind {
	if p.Instant {
		return KindInstant
	}
	d := p.Days()
	switch {
	case d >= quarterMinDays && d <= quarterMaxDays:
		return KindQuarterly
	case d >= halfYearMinDays && d <= halfYearMaxDays,
		d >= threeQuarterMinDays && d <= threeQuarterMaxDays:
		return KindPartial
	case d >= annualMinDays && d <= annualMaxDays:
		return KindAnnual
	}
	return KindUnknown
}

// SubKind refines partial periods.
func (p Period) SubKind() SubKind {
	if p.Kind() != KindPartial {
		return SubKindNone
	}
	if p.Days() <= halfYearMaxDays {
		return SubKindHalfYear
	}
	return SubKindThreeQuarters
}

func (p Period) IsQuarterly() bool      { return p.Kind() == KindQuarterly }
func (p Period) IsHalfYearly() bool     { return p.SubKind() == SubKindHalfYear }
func (p Period) IsThreeQuarterly() bool { return p.SubKind() == SubKindThreeQuarters }
func (p Period) IsAnnual() bool         { return p.Kind() == KindAnnual }

// Equal compares dates and instant-ness, ignoring IDs.
func (p Period) Equal(o Period) bool {
	return p.Instant == o.Instant && p.Start.Equal(o.Start) && p.End.Equal(o.End)
}

func (p Period) String() string {
	if p.Derivation != nil && p.Start.IsZero() && p.End.IsZero() {
		return fmt.Sprintf("(%s %s %s)", p.Derivation.Left, p.Derivation.Op, p.Derivation.Right)
	}
	if p.Instant {
		return p.End.Format(dateLayout)
	}
	return p.Start.Format(dateLayout) + " to " + p.End.Format(dateLayout)
}

type periodJSON struct {
	ID      string `json:"id"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
	Instant string `json:"instant,omitempty"`
}

// UnmarshalJSON accepts {id, start, end} or {id, instant}.
func (p *Period) UnmarshalJSON(data []byte) error {
	var raw periodJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Instant != "" {
		t, err := time.Parse(dateLayout, raw.Instant)
		if err != nil {
			return fmt.Errorf("period %s: bad instant: %w", raw.ID, err)
		}
		*p = NewInstant(raw.ID, t)
		return nil
	}
	start, err := time.Parse(dateLayout, raw.Start)
	if err != nil {
		return fmt.Errorf("period %s: bad start: %w", raw.ID, err)
	}
	end, err := time.Parse(dateLayout, raw.End)
	if err != nil {
		return fmt.Errorf("period %s: bad end: %w", raw.ID, err)
	}
	*p = NewDuration(raw.ID, start, end)
	return nil
}

// MarshalJSON mirrors UnmarshalJSON. Derivations are not serialized.
func (p Period) MarshalJSON() ([]byte, error) {
	raw := periodJSON{ID: p.ID}
	if p.Instant {
		raw.Instant = p.End.Format(dateLayout)
	} else {
		raw.Start = p.Start.Format(dateLayout)
		raw.End = p.End.Format(dateLayout)
	}
	return json.Marshal(raw)
}

// Combine marks the structural combination of two periods. When the pair is
// derivable (cumulative minus cumulative leaving one quarter) the result also
// carries the derived calendar dates.
func Combine(op string, a, b Period) Period {
	out := Period{
		ID:         a.ID + op + b.ID,
		Derivation: &Derivation{Op: op, Left: a, Right: b},
	}
	if op == "-" && derivable(a, b) {
		out.Start = b.End.AddDate(0, 0, 1)
		out.End = a.End
	}
	if a.Instant && b.Instant && a.End.Equal(b.End) {
		out.End = a.End
		out.Instant = true
	}
	return out
}

// Subtract returns a - b, the quarter isolated by differencing two
// cumulative periods. ok is false when the pair is not derivable.
func Subtract(a, b Period) (Period, bool) {
	if !derivable(a, b) {
		return Period{}, false
	}
	return Combine("-", a, b), true
}

// Periods is an ordered set of periods.
type Periods []Period

// Sorted returns a copy ordered by end date, then start date.
func (ps Periods) Sorted() Periods {
	out := make(Periods, len(ps))
	copy(out, ps)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].End.Equal(out[j].End) {
			return out[i].End.Before(out[j].End)
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

func (ps Periods) filter(keep func(Period) bool) Periods {
	var out Periods
	for _, p := range ps.Sorted() {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (ps Periods) Quarterly() Periods      { return ps.filter(Period.IsQuarterly) }
func (ps Periods) HalfYearly() Periods     { return ps.filter(Period.IsHalfYearly) }
func (ps Periods) ThreeQuarterly() Periods { return ps.filter(Period.IsThreeQuarterly) }
func (ps Periods) Yearly() Periods         { return ps.filter(Period.IsAnnual) }
func (ps Periods) Instants() Periods {
	return ps.filter(func(p Period) bool { return p.Instant })
}

// Last returns the latest period.
func (ps Periods) Last() (Period, bool) {
	if len(ps) == 0 {
		return Period{}, false
	}
	s := ps.Sorted()
	return s[len(s)-1], true
}

// Find looks up a period by ID.
func (ps Periods) Find(id string) (Period, bool) {
	for _, p := range ps {
		if p.ID == id {
			return p, true
		}
	}
	return Period{}, false
}

// Contains reports whether an equal period (same dates) is in ps.
func (ps Periods) Contains(p Period) (Period, bool) {
	for _, q := range ps {
		if q.Equal(p) {
			return q, true
		}
	}
	return Period{}, false
}
