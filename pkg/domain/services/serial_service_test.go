package services

import "testing"

func TestIsTrackableSerial(t *testing.T) {
	tests := []struct {
		name     string
		serial   string
		expected bool
	}{
		{"regular_serial", "SN001", true},
		{"three_chars", "A12", true},
		{"too_short", "AB", false},
		{"empty", "", false},
		{"none_marker", "無", false},
		{"not_applicable", "N/A", false},
		{"na", "NA", false},
		{"sheet_error", "XX#N/A", false},
		{"sheet_error_exact", "#N/A", false},
		{"cjk_three_runes", "無序號", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTrackableSerial(NormalizeSerial(tt.serial)); got != tt.expected {
				t.Errorf("IsTrackableSerial(%q) = %v, want %v", tt.serial, got, tt.expected)
			}
		})
	}
}

func TestNormalizeSerial(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{" sn001 ", "SN001"},
		{"n/a", "N/A"},
		{"Ab-12c", "AB-12C"},
	}

	for _, tt := range tests {
		if got := NormalizeSerial(tt.input); got != tt.expected {
			t.Errorf("NormalizeSerial(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
