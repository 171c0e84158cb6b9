package services

import (
	"testing"

	"github.com/vsinha/repairkpi/pkg/domain/entities"
	testhelpers "github.com/vsinha/repairkpi/pkg/infrastructure/testing"
)

func TestPeriodLabel(t *testing.T) {
	testCases := []struct {
		month    int
		g        Granularity
		expected string
	}{
		{1, Monthly, "2024-01"},
		{12, Monthly, "2024-12"},
		{3, Quarterly, "2024-Q1"},
		{4, Quarterly, "2024-Q2"},
		{12, Quarterly, "2024-Q4"},
		{7, Yearly, "2024年"},
	}

	for _, tc := range testCases {
		d := testhelpers.Date(2024, 1, 15).AddDate(0, tc.month-1, 0)
		if got := PeriodLabel(d, tc.g); got != tc.expected {
			t.Errorf("PeriodLabel(%s, %v) = %q, want %q", d.Format("2006-01-02"), tc.g, got, tc.expected)
		}
	}
}

func TestParseGranularity(t *testing.T) {
	testCases := []struct {
		input    string
		expected Granularity
		wantErr  bool
	}{
		{"", Monthly, false},
		{"Quarter", Quarterly, false},
		{" yearly ", Yearly, false},
		{"week", Monthly, true},
	}

	for _, tc := range testCases {
		got, err := ParseGranularity(tc.input)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseGranularity(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
		}
		if got != tc.expected {
			t.Errorf("ParseGranularity(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func TestFilterAndDrillDown(t *testing.T) {
	d := testhelpers.Date
	cases := []*entities.Case{
		testhelpers.NewCase("A").Completed(d(2024, 1, 31)).Build(),
		testhelpers.NewCase("B").Completed(d(2024, 2, 1)).Build(),
		testhelpers.NewCase("C").Completed(d(2024, 4, 2)).Build(),
		testhelpers.NewCase("U").Build(),
	}

	inRange := FilterByRange(cases, testhelpers.Range(d(2024, 1, 31), d(2024, 2, 1)))
	if len(inRange) != 2 || inRange[0].ID != "A" || inRange[1].ID != "B" {
		t.Errorf("Expected A and B inside the inclusive range, got %v", inRange)
	}

	if got := DrillDown(cases, Quarterly, "2024-Q1"); len(got) != 2 {
		t.Errorf("Expected 2 cases in 2024-Q1, got %d", len(got))
	}
	if got := DrillDown(cases, Monthly, "2024-04"); len(got) != 1 || got[0].ID != "C" {
		t.Errorf("Expected only C in 2024-04, got %v", got)
	}
	if got := DrillDown(cases, Yearly, "2023年"); len(got) != 0 {
		t.Errorf("Expected no cases in 2023, got %d", len(got))
	}
}

func TestDefaultRange(t *testing.T) {
	d := testhelpers.Date
	cases := []*entities.Case{
		testhelpers.NewCase("A").Completed(d(2024, 3, 20)).Build(),
		testhelpers.NewCase("B").Completed(d(2024, 2, 10)).Build(),
		testhelpers.NewCase("U").Build(),
	}

	r, ok := DefaultRange(cases)
	if !ok {
		t.Fatal("Expected a default range")
	}
	if !r.Start.Equal(d(2024, 3, 1)) || !r.End.Equal(d(2024, 3, 20)) {
		t.Errorf("Expected 2024-03-01..2024-03-20, got %s", r)
	}

	if _, ok := DefaultRange([]*entities.Case{testhelpers.NewCase("U").Build()}); ok {
		t.Error("Expected no default range without dated cases")
	}
}
