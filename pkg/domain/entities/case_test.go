package entities

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewCase_Validation(t *testing.T) {
	c, err := NewCase("W1", "Alice")
	if err != nil {
		t.Fatalf("Expected valid case creation to succeed: %v", err)
	}
	if c.TAT != 1 {
		t.Errorf("Expected new case TAT floor of 1, got %d", c.TAT)
	}
	if !c.Revenue.Equal(decimal.Zero) {
		t.Errorf("Expected zero revenue, got %s", c.Revenue)
	}

	testCases := []struct {
		name        string
		id          string
		engineer    string
		expectError string
	}{
		{"empty id", "", "Alice", "case id cannot be empty"},
		{"blank id", "   ", "Alice", "case id cannot be empty"},
		{"empty engineer", "W1", "", "engineer cannot be empty"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCase(tc.id, tc.engineer)
			if err == nil {
				t.Fatalf("Expected error %q, got nil", tc.expectError)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error %q, got %q", tc.expectError, err.Error())
			}
		})
	}
}

func TestCase_AddPartDeduplicates(t *testing.T) {
	c := &Case{ID: "W1"}

	if !c.AddPart(Part{PartNumber: "P100", Name: "Filter"}) {
		t.Fatal("Expected first part to be added")
	}
	if c.AddPart(Part{PartNumber: "P100", Name: "Filter"}) {
		t.Error("Expected duplicate (name, number) pair to be rejected")
	}
	if !c.AddPart(Part{PartNumber: "P101", Name: "Filter"}) {
		t.Error("Expected same name with a different number to be added")
	}
	if !c.AddPart(Part{PartNumber: "P100", Name: "Filter Kit"}) {
		t.Error("Expected same number with a different name to be added")
	}

	if len(c.Parts) != 3 {
		t.Fatalf("Expected 3 parts, got %d", len(c.Parts))
	}
}

func TestCase_CountablePartsDropsSentinels(t *testing.T) {
	c := &Case{Parts: []Part{
		{PartNumber: "P1", Name: "Motor"},
		{Name: "TRUE"},
		{Name: "false"},
		{PartNumber: "P2", Name: "Tube"},
	}}

	got := c.CountableParts()
	if len(got) != 2 {
		t.Fatalf("Expected 2 countable parts, got %d", len(got))
	}
	if got[0].Name != "Motor" || got[1].Name != "Tube" {
		t.Errorf("Unexpected countable parts order: %v", got)
	}
}

func TestCase_CloneIsIndependent(t *testing.T) {
	original := &Case{
		ID:             "W1",
		CompletionDate: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Parts:          []Part{{PartNumber: "P1", Name: "Motor"}},
	}

	clone := original.Clone()
	clone.Parts[0].Name = "Changed"
	clone.IsRecall = true

	if original.Parts[0].Name != "Motor" {
		t.Error("Expected clone parts to be independent of the original")
	}
	if original.IsRecall {
		t.Error("Expected clone flag changes to leave the original untouched")
	}
	if !clone.IsDated() {
		t.Error("Expected clone to keep the completion date")
	}
}

func TestPartNumber_Normalized(t *testing.T) {
	if got := PartNumber("  ab-12 ").Normalized(); got != "AB-12" {
		t.Errorf("Expected AB-12, got %q", got)
	}
}
