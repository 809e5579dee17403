package report

import (
	"testing"

	"github.com/dubey22rohit/UX-Evaluator/internal/model"
	"github.com/dubey22rohit/UX-Evaluator/internal/store"
)

func evaluation(id string, pages int) *store.Evaluation {
	return &store.Evaluation{ID: id, URL: "https://example.com", Status: store.StatusCompleted, PagesAnalyzed: pages}
}

func issue(severity, heuristic, desc, rec string) model.Issue {
	return model.Issue{Severity: severity, Heuristic: heuristic, Description: desc, Recommendation: rec}
}

func TestGenerateSummary(t *testing.T) {
	issues := []model.Issue{
		issue("high", "Error Prevention", "No confirmation on delete", "Add a confirmation step"),
		issue("high", "Error Prevention", "Form clears on error", "Preserve form state"),
		issue("low", "Consistency and Standards", "Mixed button styles", "Adopt one button style"),
		issue("weird", "", "Uncategorized oddity", ""),
	}

	rep := Generate(evaluation("eval-1", 3), issues, nil, nil)

	if rep.ReportID == "" {
		t.Error("empty ReportID")
	}
	if rep.EvaluationID != "eval-1" || rep.URL != "https://example.com" {
		t.Errorf("header: %+v", rep)
	}
	if rep.Summary.TotalPages != 3 || rep.Summary.TotalIssues != 4 {
		t.Errorf("summary counts: %+v", rep.Summary)
	}
	if rep.Summary.SeverityCounts["high"] != 2 {
		t.Errorf("SeverityCounts = %v", rep.Summary.SeverityCounts)
	}
	if rep.Summary.SeverityPercentages["high"] != 50 {
		t.Errorf("SeverityPercentages = %v", rep.Summary.SeverityPercentages)
	}
	if rep.Summary.SeverityCounts["unknown"] != 1 {
		t.Errorf("unrecognized severity not tallied: %v", rep.Summary.SeverityCounts)
	}

	if got := len(rep.IssuesByHeuristic["Error Prevention"]); got != 2 {
		t.Errorf("IssuesByHeuristic[Error Prevention] has %d, want 2", got)
	}
	if got := len(rep.IssuesByHeuristic["uncategorized"]); got != 1 {
		t.Errorf("uncategorized bucket has %d, want 1", got)
	}

	// Recommendations deduplicate; the empty one is skipped.
	if len(rep.Recommendations) != 3 {
		t.Errorf("Recommendations = %v", rep.Recommendations)
	}

	if rep.ChangeSummary != nil {
		t.Error("ChangeSummary set without a previous evaluation")
	}
}

func TestGenerateEmptyEvaluation(t *testing.T) {
	rep := Generate(evaluation("eval-1", 1), nil, nil, nil)
	if rep.Summary.TotalIssues != 0 {
		t.Errorf("TotalIssues = %d", rep.Summary.TotalIssues)
	}
	for sev, pct := range rep.Summary.SeverityPercentages {
		if pct != 0 {
			t.Errorf("percentage for %s = %v on an issue-free evaluation", sev, pct)
		}
	}
}

func TestGenerateChangeSummary(t *testing.T) {
	prevIssues := []model.Issue{
		issue("high", "Error Prevention", "No confirmation on delete", ""),
		issue("low", "Consistency and Standards", "Mixed button styles", ""),
	}
	issues := []model.Issue{
		issue("high", "Error Prevention", "No confirmation on delete", ""),
		issue("medium", "Help and Documentation", "No help link in footer", ""),
	}

	rep := Generate(evaluation("eval-2", 2), issues, evaluation("eval-1", 2), prevIssues)

	cs := rep.ChangeSummary
	if cs == nil {
		t.Fatal("no ChangeSummary despite previous evaluation")
	}
	if cs.PreviousEvaluationID != "eval-1" {
		t.Errorf("PreviousEvaluationID = %q", cs.PreviousEvaluationID)
	}
	if cs.Added != 1 || cs.Removed != 1 {
		t.Errorf("Added = %d, Removed = %d, want 1 and 1: %+v", cs.Added, cs.Removed, cs.Changes)
	}

	var sawAdded, sawRemoved bool
	for _, c := range cs.Changes {
		switch c.Kind {
		case "added":
			sawAdded = sawAdded || c.Text == "Help and Documentation: No help link in footer"
		case "removed":
			sawRemoved = sawRemoved || c.Text == "Consistency and Standards: Mixed button styles"
		}
	}
	if !sawAdded || !sawRemoved {
		t.Errorf("change texts wrong: %+v", cs.Changes)
	}
}

func TestGenerateChangeSummaryNoChanges(t *testing.T) {
	issues := []model.Issue{
		issue("high", "Error Prevention", "No confirmation on delete", ""),
	}

	rep := Generate(evaluation("eval-2", 1), issues, evaluation("eval-1", 1), issues)
	cs := rep.ChangeSummary
	if cs == nil {
		t.Fatal("no ChangeSummary")
	}
	if cs.Added != 0 || cs.Removed != 0 || len(cs.Changes) != 0 {
		t.Errorf("unchanged evaluations produced changes: %+v", cs)
	}
}
