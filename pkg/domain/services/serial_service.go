package services

import "strings"

// untrackedSerials are placeholder values technicians enter when a device has no serial
var untrackedSerials = map[string]bool{
	"無":   true,
	"N/A": true,
	"NA":  true,
}

// NormalizeSerial trims and upper-cases a serial number for device matching
func NormalizeSerial(serial string) string {
	return strings.ToUpper(strings.TrimSpace(serial))
}

// IsTrackableSerial reports whether a normalized serial identifies a real
// device: at least 3 characters and not a placeholder or spreadsheet error.
func IsTrackableSerial(serial string) bool {
	if len([]rune(serial)) < 3 {
		return false
	}
	if untrackedSerials[serial] {
		return false
	}
	return !strings.Contains(serial, "#N/A")
}
