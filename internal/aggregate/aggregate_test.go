package aggregate

import (
	"testing"

	"github.com/dubey22rohit/UX-Evaluator/internal/model"
)

func issue(severity, heuristic, desc string) model.Issue {
	return model.Issue{Severity: severity, Heuristic: heuristic, Description: desc}
}

func TestAggregateSortsBySeverity(t *testing.T) {
	in := []model.Issue{
		issue("Low", "A", "first"),
		issue("Critical", "B", "second"),
		issue("high", "C", "third"),
		issue("medium", "D", "fourth"),
	}

	res := Aggregate(in)

	wantOrder := []string{"second", "third", "fourth", "first"}
	if len(res.Sorted) != len(wantOrder) {
		t.Fatalf("got %d sorted issues, want %d", len(res.Sorted), len(wantOrder))
	}
	for i, want := range wantOrder {
		if res.Sorted[i].Description != want {
			t.Errorf("sorted[%d] = %q, want %q", i, res.Sorted[i].Description, want)
		}
	}

	// Input must not be mutated.
	if in[0].Description != "first" || in[0].Severity != "Low" {
		t.Errorf("Aggregate mutated its input: %+v", in[0])
	}
}

func TestAggregateStableWithinSeverity(t *testing.T) {
	in := []model.Issue{
		issue("high", "A", "h1"),
		issue("low", "B", "l1"),
		issue("HIGH", "C", "h2"),
		issue("high", "D", "h3"),
	}

	res := Aggregate(in)

	// Ties keep insertion order regardless of label casing.
	wantOrder := []string{"h1", "h2", "h3", "l1"}
	for i, want := range wantOrder {
		if res.Sorted[i].Description != want {
			t.Errorf("sorted[%d] = %q, want %q", i, res.Sorted[i].Description, want)
		}
	}
}

func TestAggregateStats(t *testing.T) {
	in := []model.Issue{
		issue("critical", "Error Prevention", "a"),
		issue("CRITICAL", "Error Prevention", "b"),
		issue("high", "Consistency and Standards", "c"),
		issue("mystery", "", "d"),
	}

	res := Aggregate(in)
	stats := res.Stats

	if stats.TotalIssues != 4 {
		t.Errorf("TotalIssues = %d, want 4", stats.TotalIssues)
	}
	if got := stats.BySeverity[model.SeverityCritical]; got != 2 {
		t.Errorf("BySeverity[critical] = %d, want 2 (labels must merge case-insensitively)", got)
	}
	if got := stats.BySeverity[model.SeverityHigh]; got != 1 {
		t.Errorf("BySeverity[high] = %d, want 1", got)
	}
	if got := stats.BySeverity[model.SeverityUnknown]; got != 1 {
		t.Errorf("BySeverity[unknown] = %d, want 1", got)
	}
	if got := stats.ByCategory["Error Prevention"]; got != 2 {
		t.Errorf("ByCategory[Error Prevention] = %d, want 2", got)
	}
	if got := stats.ByCategory[UncategorizedKey]; got != 1 {
		t.Errorf("ByCategory[%s] = %d, want 1", UncategorizedKey, got)
	}

	// Both groupings must account for every issue.
	sevSum, catSum := 0, 0
	for _, n := range stats.BySeverity {
		sevSum += n
	}
	for _, n := range stats.ByCategory {
		catSum += n
	}
	if sevSum != stats.TotalIssues || catSum != stats.TotalIssues {
		t.Errorf("count sums diverge: severity=%d category=%d total=%d", sevSum, catSum, stats.TotalIssues)
	}
}

func TestAggregateEmpty(t *testing.T) {
	res := Aggregate(nil)
	if len(res.Sorted) != 0 {
		t.Errorf("Sorted = %v, want empty", res.Sorted)
	}
	if res.Stats.TotalIssues != 0 {
		t.Errorf("TotalIssues = %d, want 0", res.Stats.TotalIssues)
	}
}

func TestCriticalHighMergesOnlyForPresentation(t *testing.T) {
	res := Aggregate([]model.Issue{
		issue("critical", "A", "a"),
		issue("high", "B", "b"),
		issue("high", "C", "c"),
	})

	if got := res.Stats.CriticalHigh(); got != 3 {
		t.Errorf("CriticalHigh() = %d, want 3", got)
	}
	// The underlying buckets stay distinct.
	if res.Stats.BySeverity[model.SeverityCritical] != 1 || res.Stats.BySeverity[model.SeverityHigh] != 2 {
		t.Errorf("buckets merged in storage: %v", res.Stats.BySeverity)
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		count, total int
		want         float64
	}{
		{0, 0, 0},
		{5, 0, 0}, // zero total yields 0, never NaN or panic
		{1, 4, 25},
		{3, 4, 75},
		{4, 4, 100},
	}
	for _, tt := range tests {
		if got := Percentage(tt.count, tt.total); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %v, want %v", tt.count, tt.total, got, tt.want)
		}
	}
}
