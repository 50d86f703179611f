package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) Time {
	t, err := time.ParseInLocation("2006-01-02T15:04:05.000", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return NewTime(t)
}

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func sample() []Candidate {
	return []Candidate{
		{Name: "Asha Rao", Email: "asha@example.com", WhatsappNumber: "9000000001", College: "GITAM", PaymentStatus: "Paid"},
		{Name: "Ravi Kumar", Phone: "9000000002", College: "AU", Course: "ECE", PaymentStatus: "Pending"},
		{Name: "Meena", College: "GITAM", Branch: "-", PaymentStatus: "Paid"},
		{},
	}
}

func TestApplyEmptyFilterIsIdentity(t *testing.T) {
	records := sample()
	got := Apply(records, FilterState{})
	assert.Equal(t, records, got)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	records := sample()
	before := append([]Candidate(nil), records...)
	_ = Apply(records, FilterState{Text: "gitam", College: "GITAM"})
	assert.Equal(t, before, records)
}

func TestApplyIsIdempotent(t *testing.T) {
	records := sample()
	f := FilterState{Text: "ra", PaymentStatus: "Paid"}
	assert.Equal(t, Apply(records, f), Apply(records, f))
}

func TestTextSearch(t *testing.T) {
	records := sample()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "single char is no-op", query: "a", want: []string{"Asha Rao", "Ravi Kumar", "Meena", ""}},
		{name: "empty is no-op", query: "", want: []string{"Asha Rao", "Ravi Kumar", "Meena", ""}},
		{name: "case insensitive name", query: "RAVI", want: []string{"Ravi Kumar"}},
		{name: "phone alias", query: "0002", want: []string{"Ravi Kumar"}},
		{name: "course alias for branch", query: "ece", want: []string{"Ravi Kumar"}},
		{name: "college", query: "gitam", want: []string{"Asha Rao", "Meena"}},
		{name: "dash placeholder ignored", query: "-", want: []string{"Asha Rao", "Ravi Kumar", "Meena", ""}},
		{name: "no match", query: "zzz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(records, FilterState{Text: tt.query})
			names := []string{}
			for _, c := range got {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestTextSearchExcludesRecordsMissingFields(t *testing.T) {
	records := []Candidate{{}, {Gender: "F"}}
	assert.NotPanics(t, func() {
		got := Apply(records, FilterState{Text: "ab"})
		assert.Empty(t, got)
	})
}

func TestTextSearchCompanyOnlyWhenEnabled(t *testing.T) {
	records := []Candidate{{Name: "X", CompanyName: "Acme"}}
	assert.Empty(t, Apply(records, FilterState{Text: "acme"}))
	assert.Len(t, Apply(records, FilterState{Text: "acme", SearchCompany: true}), 1)
}

func TestCategoricalFilters(t *testing.T) {
	records := sample()
	got := Apply(records, FilterState{College: "GITAM", PaymentStatus: "Paid"})
	require.Len(t, got, 2)
	assert.Equal(t, "Asha Rao", got[0].Name)
	assert.Equal(t, "Meena", got[1].Name)

	assert.Empty(t, Apply(records, FilterState{College: "gitam"}), "equality is exact")
}

func TestDateRangeBoundaries(t *testing.T) {
	inside := Candidate{Name: "inside", AdminAttendanceDate: at("2025-01-01T23:59:59.000")}
	after := Candidate{Name: "after", AdminAttendanceDate: at("2025-01-02T00:00:00.001")}
	before := Candidate{Name: "before", AdminAttendanceDate: at("2024-12-31T23:59:59.999")}
	start := Candidate{Name: "start", AdminAttendanceDate: at("2025-01-01T00:00:00.000")}
	missing := Candidate{Name: "missing"}

	f := FilterState{
		From:      day("2025-01-01"),
		To:        day("2025-01-01"),
		DateField: DateAdminAttendance,
		Location:  time.UTC,
	}
	got := Apply([]Candidate{inside, after, before, start, missing}, f)
	require.Len(t, got, 2)
	assert.Equal(t, "inside", got[0].Name)
	assert.Equal(t, "start", got[1].Name)
}

func TestDateRangeSingleBound(t *testing.T) {
	early := Candidate{Name: "early", RegistrationDate: at("2025-01-01T10:00:00.000")}
	late := Candidate{Name: "late", RegistrationDate: at("2025-03-01T10:00:00.000")}
	missing := Candidate{Name: "missing"}
	records := []Candidate{early, late, missing}

	onlyFrom := Apply(records, FilterState{From: day("2025-02-01"), DateField: DateRegistration, Location: time.UTC})
	require.Len(t, onlyFrom, 1)
	assert.Equal(t, "late", onlyFrom[0].Name)

	onlyTo := Apply(records, FilterState{To: day("2025-02-01"), DateField: DateRegistration, Location: time.UTC})
	require.Len(t, onlyTo, 1)
	assert.Equal(t, "early", onlyTo[0].Name)

	noBounds := Apply(records, FilterState{DateField: DateRegistration, Location: time.UTC})
	assert.Len(t, noBounds, 3, "missing dates pass when no bound is set")
}

func TestDateFieldFallsBackToRegistration(t *testing.T) {
	reg := Candidate{Name: "reg", RegistrationDate: at("2025-01-05T10:00:00.000")}
	att := Candidate{Name: "att", AttendanceDate: at("2025-01-05T10:00:00.000"), RegistrationDate: at("2024-12-01T10:00:00.000")}
	got := Apply([]Candidate{reg, att}, FilterState{From: day("2025-01-05"), To: day("2025-01-05"), Location: time.UTC})
	assert.Len(t, got, 2)
}

func TestMorningBucketOnlyConstrainsSelectedDay(t *testing.T) {
	sameDayMorning := Candidate{Name: "same-9", AdminAttendanceDate: at("2025-01-10T09:00:00.000")}
	otherDayMorning := Candidate{Name: "other-9", AdminAttendanceDate: at("2025-01-11T09:00:00.000")}
	sameDayEvening := Candidate{Name: "same-17", AdminAttendanceDate: at("2025-01-10T17:00:00.000")}
	unscanned := Candidate{Name: "unscanned"}

	pred := BucketPredicate(BucketMorning, day("2025-01-10"), time.UTC)
	require.NotNil(t, pred)
	assert.True(t, pred(sameDayMorning))
	assert.True(t, pred(otherDayMorning), "other days pass vacuously")
	assert.False(t, pred(sameDayEvening))
	assert.True(t, pred(unscanned))
}

func TestEveningBucketWithoutDayConstrainsAll(t *testing.T) {
	pred := BucketPredicate(BucketEvening, time.Time{}, time.UTC)
	require.NotNil(t, pred)
	assert.True(t, pred(Candidate{AdminAttendanceDate: at("2025-01-10T16:00:00.000")}))
	assert.False(t, pred(Candidate{AdminAttendanceDate: at("2025-01-10T15:59:59.000")}))
	assert.False(t, pred(Candidate{AdminAttendanceDate: at("2025-01-10T07:00:00.000")}))
}

func TestBucketUnsetCompilesToNothing(t *testing.T) {
	assert.Nil(t, BucketPredicate(BucketNone, day("2025-01-10"), time.UTC))
	assert.Nil(t, BucketPredicate(Bucket("noon"), day("2025-01-10"), time.UTC))
	assert.Empty(t, Compile(FilterState{Text: "a"}))
}

func TestZonelessTimestampsReadInViewLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	page, err := NormalizeList([]byte(`[
		{"name":"late","adminAttendanceDate":"2025-01-01T23:59:59.000"},
		{"name":"early","adminAttendanceDate":"2025-01-01T09:00:00.000"},
		{"name":"zoned","adminAttendanceDate":"2025-01-01T20:00:00.000Z"}
	]`))
	require.NoError(t, err)
	jan1 := time.Date(2025, 1, 1, 0, 0, 0, 0, ist)

	got := Apply(page.List, FilterState{From: jan1, To: jan1, DateField: DateAdminAttendance, Location: ist})
	assert.Equal(t, []string{"late", "early"}, candidateNames(got), "20:00Z is 01:30 on Jan 2 in IST")

	morning := Apply(page.List, FilterState{From: jan1, Bucket: BucketMorning, DateField: DateAdminAttendance, Location: ist})
	assert.Equal(t, []string{"early", "zoned"}, candidateNames(morning))

	evening := Apply(page.List, FilterState{From: jan1, To: jan1, Bucket: BucketEvening, DateField: DateAdminAttendance, Location: ist})
	assert.Equal(t, []string{"late"}, candidateNames(evening))
}

func TestWallTimeAt(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	w := WallTime(time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, 23, w.At(ist).Hour())
	assert.Equal(t, 17, w.At(ist).UTC().Hour())
	assert.Equal(t, 30, w.At(ist).UTC().Minute())

	zoned := NewTime(time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, 4, zoned.At(ist).In(ist).Hour())
}

func candidateNames(records []Candidate) []string {
	out := []string{}
	for _, c := range records {
		out = append(out, c.Name)
	}
	return out
}
