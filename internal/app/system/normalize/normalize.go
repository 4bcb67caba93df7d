// Package normalize provides helper functions for consistent string normalization
// across the application. Use these helpers instead of scattered strings.ToLower
// and strings.TrimSpace calls to ensure consistent behavior.
package normalize

import "strings"

// StudentID normalizes a grade-source student identifier. IDs are opaque and
// case sensitive, so only surrounding whitespace is removed.
func StudentID(s string) string {
	return strings.TrimSpace(s)
}

// Name normalizes a display name by trimming whitespace.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Status normalizes a status value by trimming whitespace and converting to lowercase.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam normalizes a query parameter by trimming whitespace.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
