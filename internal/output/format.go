// Package output renders assembled report rows in the supported
// output formats.
package output

import (
	"fmt"
	"strings"
)

// Format represents the output format type.
type Format string

const (
	// FormatTable is the default human-readable table output.
	FormatTable Format = "table"

	// FormatCSV is comma-separated output with a header row.
	FormatCSV Format = "csv"

	// FormatJSON is the JSON output format.
	FormatJSON Format = "json"

	// FormatYAML is the YAML output format.
	FormatYAML Format = "yaml"
)

// DefaultFormat is the output format when none is specified.
const DefaultFormat = FormatTable

// ParseFormat parses a format string into a Format value.
// Accepts: "table", "csv", "json", "yaml" (case-insensitive)
// Returns an error for invalid format values.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid format: %q (expected table, csv, json, or yaml)", s)
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// ValidateFormat checks if a format value is valid.
func ValidateFormat(f Format) bool {
	switch f {
	case FormatTable, FormatCSV, FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}
