package violation

// DefaultMaxPerSeverity caps how many violations of each severity survive
// filtering. Chosen so a full enforce response stays a few kilobytes at most.
const DefaultMaxPerSeverity = 10

// SeverityCounts reconciles kept and dropped violations for one severity.
type SeverityCounts struct {
	Total     int `json:"total"`
	Returned  int `json:"returned"`
	Truncated int `json:"truncated"`
}

// FilterMetadata reconciles the filtered set against its input.
// Invariants, per severity: Total == Returned + Truncated. Globally:
// Total == sum of severity totals, Truncated == sum of severity truncated.
type FilterMetadata struct {
	Total      int                         `json:"total"`
	Truncated  int                         `json:"truncated"`
	BySeverity map[Severity]SeverityCounts `json:"by_severity"`
}

// FilteredResult is the capped, ordered view of a violation set.
type FilteredResult struct {
	Violations []Violation    `json:"violations"`
	Metadata   FilterMetadata `json:"metadata"`
}

// Filter groups violations by severity, orders each group by ascending line,
// keeps at most maxPerSeverity per group, and emits the kept set in
// errors-warnings-info order together with reconciliation metadata.
// A maxPerSeverity <= 0 falls back to DefaultMaxPerSeverity.
// The input slice is not modified.
func Filter(violations []Violation, maxPerSeverity int) FilteredResult {
	if maxPerSeverity <= 0 {
		maxPerSeverity = DefaultMaxPerSeverity
	}

	// Out-of-enum severities are bucketed under info so every input
	// violation is accounted for and Metadata.Total matches the input size.
	groups := make(map[Severity][]Violation, len(severityRank))
	for _, v := range violations {
		sev := v.Severity
		if !sev.Valid() {
			sev = SeverityInfo
		}
		groups[sev] = append(groups[sev], v)
	}

	result := FilteredResult{
		Violations: make([]Violation, 0, len(violations)),
		Metadata: FilterMetadata{
			BySeverity: make(map[Severity]SeverityCounts, len(severityRank)),
		},
	}

	for _, sev := range Severities() {
		group := append([]Violation(nil), groups[sev]...)
		Sort(group)

		kept := group
		if len(kept) > maxPerSeverity {
			kept = kept[:maxPerSeverity]
		}

		counts := SeverityCounts{
			Total:     len(group),
			Returned:  len(kept),
			Truncated: len(group) - len(kept),
		}
		result.Metadata.BySeverity[sev] = counts
		result.Metadata.Total += counts.Total
		result.Metadata.Truncated += counts.Truncated
		result.Violations = append(result.Violations, kept...)
	}

	return result
}
