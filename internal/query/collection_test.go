package query

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistinctValues(t *testing.T) {
	records := []Candidate{{College: "A"}, {College: "B"}, {College: "A"}, {}}
	assert.Equal(t, []string{"A", "B"}, DistinctValues(records, FieldCollege))
	assert.Equal(t, []string{}, DistinctValues(nil, FieldCollege))
}

func TestDistinctValuesFromNullJSON(t *testing.T) {
	var records []Candidate
	require.NoError(t, json.Unmarshal([]byte(`[{"college":"A"},{"college":"B"},{"college":"A"},{"college":null}]`), &records))
	assert.Equal(t, []string{"A", "B"}, DistinctValues(records, FieldCollege))
}

func TestSortByPhoneThenName(t *testing.T) {
	records := []Candidate{
		{Name: "zara", WhatsappNumber: "900"},
		{Name: "Anil", WhatsappNumber: "800"},
		{Name: "arun", WhatsappNumber: "900"},
		{Name: "Bala", Phone: "900"},
	}
	got := SortByPhoneThenName(records)

	names := []string{}
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Anil", "arun", "Bala", "zara"}, names)
	assert.Equal(t, "zara", records[0].Name, "input untouched")
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name       string
		page, size int
		want       []int
	}{
		{name: "first page", page: 1, size: 2, want: []int{1, 2}},
		{name: "last partial page", page: 3, size: 2, want: []int{5}},
		{name: "past the end", page: 4, size: 2, want: []int{}},
		{name: "page clamped", page: 0, size: 2, want: []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total := Paginate(items, tt.page, tt.size)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 5, total)
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Candidate{{Attendance: true}, {AdminAttendance: true}, {}})
	assert.Equal(t, Summary{Total: 3, Attended: 2, NotAttended: 1}, s)
}

func TestNormalizeList(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantNames []string
		wantTotal int
	}{
		{name: "docs with totalDocs", body: `{"docs":[{"name":"a"},{"name":"b"}],"totalDocs":37}`, wantNames: []string{"a", "b"}, wantTotal: 37},
		{name: "bare array", body: `[{"name":"a"},{"name":"b"},{"name":"c"}]`, wantNames: []string{"a", "b", "c"}, wantTotal: 3},
		{name: "candidates", body: `{"candidates":[{"name":"a"}],"total":9}`, wantNames: []string{"a"}, wantTotal: 9},
		{name: "records", body: `{"records":[{"name":"a"}]}`, wantNames: []string{"a"}, wantTotal: 1},
		{name: "scanned list", body: `{"scannedList":[{"name":"a"}],"totalCount":4}`, wantNames: []string{"a"}, wantTotal: 4},
		{name: "nested candidates docs", body: `{"candidates":{"docs":[{"name":"a"}],"totalDocs":2},"totalDocs":12}`, wantNames: []string{"a"}, wantTotal: 12},
		{name: "null total ignored", body: `{"docs":[{"name":"a"}],"total":null}`, wantNames: []string{"a"}, wantTotal: 1},
		{name: "unknown object", body: `{"message":"ok"}`, wantNames: []string{}, wantTotal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := NormalizeList([]byte(tt.body))
			require.NoError(t, err)
			names := []string{}
			for _, c := range page.List {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantTotal, page.Total)
		})
	}
}

func TestNormalizeListMalformed(t *testing.T) {
	for _, body := range []string{``, `not json`, `"text"`, `{"docs":[`, `[1,2]`} {
		_, err := NormalizeList([]byte(body))
		assert.ErrorIs(t, err, ErrMalformed, body)
	}
}

func TestNormalizeListMixedFieldTypes(t *testing.T) {
	page, err := NormalizeList([]byte(`[
		{"name":"A","whatsappNumber":9000000001,"transportRequired":"Yes","attendance":1},
		{"name":"B","phone":9000000002,"transportRequired":"","adminAttendance":0,"college":null},
		{"name":"C","transportRequired":true,"branch":{"code":"x"},"paymentStatus":["Paid"]},
		{"name":"D"}
	]`))
	require.NoError(t, err)
	require.Len(t, page.List, 4)

	a, b, c, d := page.List[0], page.List[1], page.List[2], page.List[3]
	assert.Equal(t, "9000000001", a.PhoneNumber())
	assert.True(t, a.TransportRequired)
	assert.True(t, a.Attended())
	assert.Equal(t, "9000000002", b.PhoneNumber())
	assert.False(t, b.TransportRequired)
	assert.False(t, b.Attended())
	assert.Empty(t, b.College)
	assert.True(t, c.TransportRequired)
	assert.Empty(t, c.Branch)
	assert.Empty(t, c.PaymentStatus)
	assert.Equal(t, Candidate{Name: "D"}, d)

	got := Apply(page.List, FilterState{Text: "9000000001"})
	assert.Len(t, got, 1)
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`true`, true}, {`false`, false}, {`null`, false}, {`1`, true}, {`0`, false},
		{`"Yes"`, true}, {`""`, false}, {`"false"`, true}, {`{}`, true}, {`[]`, true},
	}
	for _, tt := range tests {
		var v Truthy
		require.NoError(t, json.Unmarshal([]byte(tt.in), &v), tt.in)
		assert.Equal(t, tt.want, bool(v), tt.in)
	}
}

func TestLenientTime(t *testing.T) {
	var c Candidate
	require.NoError(t, json.Unmarshal([]byte(`{"adminAttendanceDate":"2025-01-01T09:30:00.000Z","registrationDate":"garbage","attendanceDate":null}`), &c))
	assert.Equal(t, 9, c.AdminAttendanceDate.UTC().Hour())
	assert.True(t, c.RegistrationDate.IsZero())
	assert.True(t, c.AttendanceDate.IsZero())
}

func TestPageRequestValues(t *testing.T) {
	v := PageRequest{Location: "NAD", Query: "ravi"}.Values()
	assert.Equal(t, "NAD", v.Get("pickupDropLocation"))
	assert.Equal(t, "both", v.Get("mode"))
	assert.Equal(t, "1", v.Get("page"))
	assert.Equal(t, "50", v.Get("limit"))
	assert.Equal(t, "ravi", v.Get("q"))
}

func TestPagedViewKeepsPreviousPageOnFailure(t *testing.T) {
	fail := false
	view := NewPagedView(func(ctx context.Context, req PageRequest) (ListPage, error) {
		if fail {
			return ListPage{}, errors.New("boom")
		}
		return ListPage{List: []Candidate{{Name: "p" + req.Location}}, Total: 1}, nil
	})

	_, err := view.Load(context.Background(), PageRequest{Location: "1"})
	require.NoError(t, err)

	fail = true
	page, err := view.Load(context.Background(), PageRequest{Location: "2"})
	require.Error(t, err)
	assert.Equal(t, "p1", page.List[0].Name)
	assert.Equal(t, "p1", view.Current().List[0].Name)
	req, loaded := view.Request()
	assert.True(t, loaded)
	assert.Equal(t, "1", req.Location)
}

func TestHasNext(t *testing.T) {
	assert.True(t, HasNext(1, 50, 51))
	assert.False(t, HasNext(2, 50, 100))
}
