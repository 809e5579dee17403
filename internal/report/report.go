// Package report builds the evaluation report: summary statistics,
// issues grouped by heuristic, and the change set against the previous
// completed evaluation of the same URL.
package report

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dubey22rohit/UX-Evaluator/internal/aggregate"
	"github.com/dubey22rohit/UX-Evaluator/internal/model"
	"github.com/dubey22rohit/UX-Evaluator/internal/store"
)

// Summary is the report's aggregate section. Percentages are derived from
// the severity counts and are 0 (not NaN) for an issue-free evaluation.
type Summary struct {
	TotalPages          int                `json:"total_pages"`
	TotalIssues         int                `json:"total_issues"`
	SeverityCounts      map[string]int     `json:"severity_counts"`
	SeverityPercentages map[string]float64 `json:"severity_percentages"`
	CategoryCounts      map[string]int     `json:"category_counts"`
}

// Change is one difference against the previous evaluation's issue list.
type Change struct {
	Kind string `json:"kind"` // "added" | "removed"
	Text string `json:"text"`
}

// ChangeSummary compares this evaluation with the previous completed one.
type ChangeSummary struct {
	PreviousEvaluationID string   `json:"previous_evaluation_id"`
	Added                int      `json:"added"`
	Removed              int      `json:"removed"`
	Changes              []Change `json:"changes,omitempty"`
}

// Report is the complete generated report.
type Report struct {
	ReportID          string                   `json:"report_id"`
	EvaluationID      string                   `json:"evaluation_id"`
	URL               string                   `json:"url"`
	GeneratedAt       time.Time                `json:"timestamp"`
	Summary           Summary                  `json:"summary"`
	IssuesByHeuristic map[string][]model.Issue `json:"issues"`
	Recommendations   []string                 `json:"recommendations"`
	ChangeSummary     *ChangeSummary           `json:"changes,omitempty"`
}

// Generate builds a report from a completed evaluation. prev and prevIssues
// may be nil when no earlier completed evaluation of the URL exists.
func Generate(ev *store.Evaluation, issues []model.Issue, prev *store.Evaluation, prevIssues []model.Issue) *Report {
	res := aggregate.Aggregate(issues)

	sevCounts := make(map[string]int, len(res.Stats.BySeverity))
	sevPct := make(map[string]float64, len(res.Stats.BySeverity))
	for sev, n := range res.Stats.BySeverity {
		sevCounts[sev.String()] = n
		sevPct[sev.String()] = aggregate.Percentage(n, res.Stats.TotalIssues)
	}

	byHeuristic := make(map[string][]model.Issue)
	var recs []string
	seenRec := map[string]bool{}
	for _, is := range res.Sorted {
		key := is.Heuristic
		if key == "" {
			key = aggregate.UncategorizedKey
		}
		byHeuristic[key] = append(byHeuristic[key], is)
		if is.Recommendation != "" && !seenRec[is.Recommendation] {
			seenRec[is.Recommendation] = true
			recs = append(recs, is.Recommendation)
		}
	}

	rep := &Report{
		ReportID:     uuid.New().String(),
		EvaluationID: ev.ID,
		URL:          ev.URL,
		GeneratedAt:  time.Now().UTC(),
		Summary: Summary{
			TotalPages:          ev.PagesAnalyzed,
			TotalIssues:         res.Stats.TotalIssues,
			SeverityCounts:      sevCounts,
			SeverityPercentages: sevPct,
			CategoryCounts:      res.Stats.ByCategory,
		},
		IssuesByHeuristic: byHeuristic,
		Recommendations:   recs,
	}

	if prev != nil {
		rep.ChangeSummary = compareIssues(prev.ID, prevIssues, issues)
	}
	return rep
}

// compareIssues diffs the line-joined issue descriptions of two evaluations.
// Line-level granularity keeps one change per issue instead of character
// noise inside descriptions.
func compareIssues(prevID string, prevIssues, issues []model.Issue) *ChangeSummary {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(issueLines(prevIssues), issueLines(issues), true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	cs := &ChangeSummary{PreviousEvaluationID: prevID}
	for _, d := range diffs {
		var kind string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			kind = "added"
		case diffmatchpatch.DiffDelete:
			kind = "removed"
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimSpace(d.Text), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			cs.Changes = append(cs.Changes, Change{Kind: kind, Text: line})
			if kind == "added" {
				cs.Added++
			} else {
				cs.Removed++
			}
		}
	}
	return cs
}

func issueLines(issues []model.Issue) string {
	var b strings.Builder
	for _, is := range issues {
		b.WriteString(is.Heuristic)
		b.WriteString(": ")
		b.WriteString(is.Description)
		b.WriteString("\n")
	}
	return b.String()
}
