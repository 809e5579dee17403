// Package aggregate turns a flat issue collection into display order and
// summary statistics. Everything here is pure: recomputed, never mutated in
// place, whenever the upstream collection changes.
package aggregate

import (
	"sort"

	"github.com/dubey22rohit/UX-Evaluator/internal/model"
)

// UncategorizedKey is the ByCategory bucket for issues with an empty or
// missing heuristic identifier. They are tallied, never silently dropped.
const UncategorizedKey = "uncategorized"

// SummaryStats are the aggregate counts for one issue collection.
// Invariant: the BySeverity values, the ByCategory values and TotalIssues all
// sum to the length of the input collection.
type SummaryStats struct {
	TotalIssues int                    `json:"total_issues"`
	BySeverity  map[model.Severity]int `json:"by_severity"`
	ByCategory  map[string]int         `json:"by_category"`
}

// CriticalHigh merges the critical and high buckets for presentation.
// The underlying keys stay distinct so aggregation is never lossy.
func (s SummaryStats) CriticalHigh() int {
	return s.BySeverity[model.SeverityCritical] + s.BySeverity[model.SeverityHigh]
}

// Result is the aggregator output: issues in display order plus stats.
type Result struct {
	Sorted []model.Issue
	Stats  SummaryStats
}

// Aggregate sorts issues by classified severity (stable: ties keep their
// original relative order) and computes summary statistics. Severity counts
// group by the canonical bucket so "HIGH" and "high" merge; category counts
// group by the verbatim heuristic string, case-sensitive.
func Aggregate(issues []model.Issue) Result {
	sorted := make([]model.Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return model.ClassifySeverity(sorted[i].Severity) < model.ClassifySeverity(sorted[j].Severity)
	})

	stats := SummaryStats{
		TotalIssues: len(issues),
		BySeverity:  make(map[model.Severity]int),
		ByCategory:  make(map[string]int),
	}
	for _, is := range issues {
		stats.BySeverity[model.ClassifySeverity(is.Severity)]++
		cat := is.Heuristic
		if cat == "" {
			cat = UncategorizedKey
		}
		stats.ByCategory[cat]++
	}

	return Result{Sorted: sorted, Stats: stats}
}

// Percentage derives count/total*100 for display. A zero total yields 0
// rather than a division error; percentages are derived, never stored.
func Percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}
