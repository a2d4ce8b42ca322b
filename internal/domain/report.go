package domain

// Verdict is the outcome of evaluating findings against a policy
type Verdict struct {
	Blocked           bool
	Offending         []Finding  // Input order preserved
	UnknownSeverities []Severity // Distinct, first-seen order
	Evaluated         int
}

// CountBySeverity returns the number of offending findings with the given severity
func (v *Verdict) CountBySeverity(s Severity) int {
	count := 0
	for _, f := range v.Offending {
		if f.Severity == s {
			count++
		}
	}
	return count
}

// OffendingCount returns the total number of offending findings
func (v *Verdict) OffendingCount() int {
	return len(v.Offending)
}

// HasUnknownSeverities returns true if any finding had no policy entry
func (v *Verdict) HasUnknownSeverities() bool {
	return len(v.UnknownSeverities) > 0
}
