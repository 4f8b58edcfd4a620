package event

import "strings"

// Event is one FRC competition instance, identified by year + code.
// FirstCode is the join key used by the FIRST Events API; TBA and FIRST
// sometimes disagree on the short code, so both are stored.
type Event struct {
	ID         int64
	Year       int
	Code       string
	Name       string
	WeekNumber int
	FirstCode  string
}

// NormalizeCode returns the canonical stored form of an event code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
