package model

import "strings"

// Severity is the canonical ranked bucket derived from a free-text severity
// label. Lower values sort first.
type Severity int

const (
	SeverityCritical Severity = iota
	SeverityHigh
	SeverityMedium
	SeverityLow
	SeverityUnknown
)

// ClassifySeverity maps a raw severity label to its rank. Matching is
// case-insensitive and total: unrecognized input is data, not an error, and
// lands in SeverityUnknown so it sorts last.
func ClassifySeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium":
		return SeverityMedium
	case "low":
		return SeverityLow
	default:
		return SeverityUnknown
	}
}

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	case SeverityLow:
		return "low"
	default:
		return "unknown"
	}
}

// MarshalText renders the bucket name, so JSON maps keyed by Severity carry
// "critical".."unknown" instead of rank numbers.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	*s = ClassifySeverity(string(text))
	return nil
}
