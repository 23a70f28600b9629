package period

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name    string
		p       Period
		kind    Kind
		subKind SubKind
	}{
		{"Quarter", MustParseDuration("q", "2011-07-01", "2011-09-30"), KindQuarterly, SubKindNone},
		{"Half year", MustParseDuration("h", "2011-01-01", "2011-06-30"), KindPartial, SubKindHalfYear},
		{"Three quarters", MustParseDuration("tq", "2011-01-01", "2011-09-30"), KindPartial, SubKindThreeQuarters},
		{"Annual", MustParseDuration("y", "2011-01-01", "2011-12-31"), KindAnnual, SubKindNone},
		{"52-53 week year", MustParseDuration("y", "2010-09-26", "2011-09-24"), KindAnnual, SubKindNone},
		{"Instant", MustParseInstant("i", "2011-12-31"), KindInstant, SubKindNone},
		{"Month", MustParseDuration("m", "2011-01-01", "2011-01-31"), KindUnknown, SubKindNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.p.Kind())
			assert.Equal(t, tt.subKind, tt.p.SubKind())
		})
	}
}

func TestPeriodsFilters(t *testing.T) {
	ps := Periods{
		MustParseDuration("y", "2011-01-01", "2011-12-31"),
		MustParseDuration("q4", "2011-10-01", "2011-12-31"),
		MustParseDuration("q3", "2011-07-01", "2011-09-30"),
		MustParseInstant("i", "2011-12-31"),
	}

	q := ps.Quarterly()
	require.Len(t, q, 2)
	assert.Equal(t, "q3", q[0].ID)
	assert.Equal(t, "q4", q[1].ID)
	assert.Len(t, ps.Yearly(), 1)
	assert.Len(t, ps.Instants(), 1)

	last, ok := ps.Quarterly().Last()
	require.True(t, ok)
	assert.Equal(t, "q4", last.ID)

	_, ok = Periods{}.Last()
	assert.False(t, ok)
}

func TestPeriodJSON(t *testing.T) {
	var ps []Period
	err := json.Unmarshal([]byte(`[
		{"id": "D2011", "start": "2011-01-01", "end": "2011-12-31"},
		{"id": "I2011", "instant": "2011-12-31"}
	]`), &ps)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.True(t, ps[0].IsAnnual())
	assert.True(t, ps[1].Instant)

	out, err := json.Marshal(ps[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"D2011","start":"2011-01-01","end":"2011-12-31"}`, string(out))

	var bad Period
	assert.Error(t, json.Unmarshal([]byte(`{"id":"x","start":"2011-13-01","end":"2011-12-31"}`), &bad))
}

func TestChooseSuccessivePeriods_AnnualMinusThreeQuarters(t *testing.T) {
	annual := Periods{MustParseDuration("FY2011", "2011-01-01", "2011-12-31")}
	nineMonths := Periods{MustParseDuration("9M2011", "2011-01-01", "2011-09-30")}

	a, b, ok := ChooseSuccessivePeriods(annual, nineMonths)
	require.True(t, ok)
	assert.Equal(t, "FY2011", a.ID)
	assert.Equal(t, "9M2011", b.ID)

	q4, ok := Subtract(a, b)
	require.True(t, ok)
	assert.True(t, q4.IsQuarterly())
	assert.Equal(t, "2011-10-01", q4.Start.Format(dateLayout))
	assert.Equal(t, "2011-12-31", q4.End.Format(dateLayout))
	require.NotNil(t, q4.Derivation)
	assert.Equal(t, "-", q4.Derivation.Op)
}

func TestChooseSuccessivePeriods_Cumulative(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Periods
		wantA string
		wantB string
	}{
		{
			"Three quarters minus half year",
			Periods{MustParseDuration("9M", "2011-01-01", "2011-09-30")},
			Periods{MustParseDuration("6M", "2011-01-01", "2011-06-30")},
			"9M", "6M",
		},
		{
			"Half year minus quarter",
			Periods{MustParseDuration("6M", "2011-01-01", "2011-06-30")},
			Periods{MustParseDuration("3M", "2011-01-01", "2011-03-31")},
			"6M", "3M",
		},
		{
			"Latest pair wins",
			Periods{
				MustParseDuration("FY2010", "2010-01-01", "2010-12-31"),
				MustParseDuration("FY2011", "2011-01-01", "2011-12-31"),
			},
			Periods{
				MustParseDuration("9M2010", "2010-01-01", "2010-09-30"),
				MustParseDuration("9M2011", "2011-01-01", "2011-09-30"),
			},
			"FY2011", "9M2011",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b, ok := ChooseSuccessivePeriods(tt.a, tt.b)
			require.True(t, ok)
			assert.Equal(t, tt.wantA, a.ID)
			assert.Equal(t, tt.wantB, b.ID)
		})
	}
}

func TestChooseSuccessivePeriods_SharedQuarter(t *testing.T) {
	q := MustParseDuration("Q3", "2011-07-01", "2011-09-30")
	a := Periods{MustParseDuration("9M", "2011-01-01", "2011-09-30"), q}
	b := Periods{MustParseDuration("Q3-prev-filing", "2011-07-01", "2011-09-30")}

	pa, pb, ok := ChooseSuccessivePeriods(a, b)
	require.True(t, ok)
	assert.Equal(t, "Q3", pa.ID)
	assert.Equal(t, "Q3-prev-filing", pb.ID)

	_, _, ok = ChooseDerivablePeriods(a, b)
	assert.False(t, ok)
}

func TestChooseSuccessivePeriods_None(t *testing.T) {
	tests := []struct {
		name string
		a, b Periods
	}{
		{"Empty", Periods{}, Periods{}},
		{
			"Different fiscal years",
			Periods{MustParseDuration("FY2011", "2011-01-01", "2011-12-31")},
			Periods{MustParseDuration("9M2010", "2010-01-01", "2010-09-30")},
		},
		{
			"Annual minus half year",
			Periods{MustParseDuration("FY2011", "2011-01-01", "2011-12-31")},
			Periods{MustParseDuration("6M2011", "2011-01-01", "2011-06-30")},
		},
		{
			"Instants",
			Periods{MustParseInstant("a", "2011-12-31")},
			Periods{MustParseInstant("b", "2011-09-30")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b, ok := ChooseSuccessivePeriods(tt.a, tt.b)
			assert.False(t, ok)
			assert.True(t, a.IsZero())
			assert.True(t, b.IsZero())
		})
	}
}

func TestCombine_NotDerivable(t *testing.T) {
	a := MustParseDuration("Q4", "2011-10-01", "2011-12-31")
	b := MustParseDuration("Q3", "2011-07-01", "2011-09-30")

	c := Combine("-", a, b)
	require.NotNil(t, c.Derivation)
	assert.True(t, c.Start.IsZero())
	assert.Equal(t, "(2011-10-01 to 2011-12-31 - 2011-07-01 to 2011-09-30)", c.String())
	_, ok := Subtract(a, b)
	assert.False(t, ok)
}
