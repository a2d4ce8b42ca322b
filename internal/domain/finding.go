package domain

import (
	"fmt"
	"time"
)

// Severity is the alert level reported by the scanner. It is an open key:
// policy documents may define levels beyond the constants below.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RawFinding is an alert as received from the findings source
type RawFinding struct {
	ID          string
	Severity    string
	CreatedAt   string
	SecretLabel string
}

// Finding represents one open secret-scanning alert
type Finding struct {
	ID           string
	Severity     Severity
	CreatedAt    time.Time
	CreatedAtRaw string // Rendered verbatim in reports
	SecretLabel  string
}

// TimestampError reports a creation timestamp that could not be parsed
type TimestampError struct {
	FindingID string
	Value     string
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("finding %s: unparseable created_at %q", e.FindingID, e.Value)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05", // no offset, read as UTC
}

// ParseFinding converts a raw alert into a Finding
func ParseFinding(raw RawFinding) (Finding, error) {
	createdAt, ok := parseTimestamp(raw.CreatedAt)
	if !ok {
		return Finding{}, &TimestampError{FindingID: raw.ID, Value: raw.CreatedAt}
	}

	return Finding{
		ID:           raw.ID,
		Severity:     Severity(raw.Severity),
		CreatedAt:    createdAt,
		CreatedAtRaw: raw.CreatedAt,
		SecretLabel:  raw.SecretLabel,
	}, nil
}

// ParseFindings converts every raw alert, failing on the first bad one
func ParseFindings(raws []RawFinding) ([]Finding, error) {
	findings := make([]Finding, 0, len(raws))
	for _, raw := range raws {
		f, err := ParseFinding(raw)
		if err != nil {
			return nil, err
		}
		findings = append(findings, f)
	}
	return findings, nil
}

// AgeDays returns the number of whole days elapsed between CreatedAt and now.
// Partial days are floored, so a finding created 23 hours ago is 0 days old.
func (f *Finding) AgeDays(now time.Time) int {
	const day = 24 * time.Hour
	elapsed := now.Sub(f.CreatedAt)
	days := int(elapsed / day)
	if elapsed < 0 && elapsed%day != 0 {
		days--
	}
	return days
}

func parseTimestamp(value string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
