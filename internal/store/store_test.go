package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/dubey22rohit/UX-Evaluator/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s, err := New(db, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestEvaluationLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateEvaluation(ctx, "eval-1", "https://example.com"); err != nil {
		t.Fatalf("CreateEvaluation: %v", err)
	}

	ev, err := s.GetEvaluation(ctx, "eval-1")
	if err != nil {
		t.Fatalf("GetEvaluation: %v", err)
	}
	if ev.Status != StatusInProgress || ev.URL != "https://example.com" {
		t.Errorf("fresh evaluation: %+v", ev)
	}

	if err := s.FinishEvaluation(ctx, "eval-1", StatusCompleted, 5); err != nil {
		t.Fatalf("FinishEvaluation: %v", err)
	}
	ev, err = s.GetEvaluation(ctx, "eval-1")
	if err != nil {
		t.Fatalf("GetEvaluation after finish: %v", err)
	}
	if ev.Status != StatusCompleted || ev.PagesAnalyzed != 5 {
		t.Errorf("finished evaluation: %+v", ev)
	}

	if _, err := s.GetEvaluation(ctx, "missing"); !errors.Is(err, ErrEvaluationNotFound) {
		t.Errorf("GetEvaluation(missing) = %v, want ErrEvaluationNotFound", err)
	}
	if err := s.FinishEvaluation(ctx, "missing", StatusFailed, 0); !errors.Is(err, ErrEvaluationNotFound) {
		t.Errorf("FinishEvaluation(missing) = %v, want ErrEvaluationNotFound", err)
	}
}

func TestIssuesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateEvaluation(ctx, "eval-1", "https://example.com"); err != nil {
		t.Fatalf("CreateEvaluation: %v", err)
	}

	in := []model.Issue{
		{
			Heuristic:      "Error Prevention",
			Description:    "No confirmation dialog",
			Severity:       "high",
			Recommendation: "Add a confirmation step",
			PageURL:        "https://example.com/",
			Quad: model.Quadrilateral{
				TopLeft:     model.Point{X: 10.5, Y: 20.25},
				TopRight:    model.Point{X: 110.5, Y: 20.25},
				BottomRight: model.Point{X: 110.5, Y: 60},
				BottomLeft:  model.Point{X: 10.5, Y: 60},
			},
		},
		{Heuristic: "Consistency and Standards", Description: "Mixed button styles", Severity: "low"},
	}

	if err := s.AddIssues(ctx, "eval-1", in); err != nil {
		t.Fatalf("AddIssues: %v", err)
	}
	// Second batch continues positions instead of colliding.
	if err := s.AddIssues(ctx, "eval-1", []model.Issue{
		{Heuristic: "Help and Documentation", Description: "No help link", Severity: "medium"},
	}); err != nil {
		t.Fatalf("AddIssues second batch: %v", err)
	}

	out, err := s.ListIssues(ctx, "eval-1")
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d issues, want 3", len(out))
	}
	if out[0] != in[0] {
		t.Errorf("first issue round-trip:\n got %+v\nwant %+v", out[0], in[0])
	}
	if out[2].Description != "No help link" {
		t.Errorf("batch order lost: %+v", out[2])
	}
}

func TestScreenshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateEvaluation(ctx, "eval-1", "https://example.com"); err != nil {
		t.Fatalf("CreateEvaluation: %v", err)
	}

	first := []byte("first page screenshot bytes")
	second := []byte("second page screenshot bytes")
	if err := s.PutScreenshot(ctx, "eval-1", "https://example.com/sub", 1, second, "image/jpeg"); err != nil {
		t.Fatalf("PutScreenshot: %v", err)
	}
	if err := s.PutScreenshot(ctx, "eval-1", "https://example.com/", 0, first, "image/jpeg"); err != nil {
		t.Fatalf("PutScreenshot: %v", err)
	}

	data, ct, err := s.GetPrimaryScreenshot(ctx, "eval-1")
	if err != nil {
		t.Fatalf("GetPrimaryScreenshot: %v", err)
	}
	if ct != "image/jpeg" {
		t.Errorf("content type = %q", ct)
	}
	// Position 0 is the primary screenshot regardless of insertion order.
	if !bytes.Equal(data, first) {
		t.Error("primary screenshot is not the position-0 page")
	}

	if _, _, err := s.GetPrimaryScreenshot(ctx, "no-shots"); !errors.Is(err, ErrScreenshotNotFound) {
		t.Errorf("err = %v, want ErrScreenshotNotFound", err)
	}
}

func TestReportUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetReport(ctx, "eval-1"); !errors.Is(err, ErrReportNotFound) {
		t.Errorf("err = %v, want ErrReportNotFound", err)
	}

	if err := s.SaveReport(ctx, "eval-1", "rep-1", `{"v":1}`); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if err := s.SaveReport(ctx, "eval-1", "rep-2", `{"v":2}`); err != nil {
		t.Fatalf("SaveReport upsert: %v", err)
	}

	body, err := s.GetReport(ctx, "eval-1")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if body != `{"v":2}` {
		t.Errorf("body = %s, want the regenerated report", body)
	}
}

func TestHeuristicsSeeded(t *testing.T) {
	s := newTestStore(t)

	hs, err := s.ListHeuristics(context.Background())
	if err != nil {
		t.Fatalf("ListHeuristics: %v", err)
	}
	if len(hs) != 10 {
		t.Fatalf("got %d heuristics, want Nielsen's 10", len(hs))
	}
	names := make(map[string]bool, len(hs))
	for _, h := range hs {
		if h.ID == "" || h.Description == "" {
			t.Errorf("incomplete heuristic: %+v", h)
		}
		names[h.Name] = true
	}
	if !names["Error Prevention"] || !names["Visibility of System Status"] {
		t.Errorf("catalog missing expected entries: %v", names)
	}
}

func TestPreviousCompletedEvaluation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreate := func(id, url, status string) {
		t.Helper()
		if err := s.CreateEvaluation(ctx, id, url); err != nil {
			t.Fatalf("CreateEvaluation(%s): %v", id, err)
		}
		if status != StatusInProgress {
			if err := s.FinishEvaluation(ctx, id, status, 1); err != nil {
				t.Fatalf("FinishEvaluation(%s): %v", id, err)
			}
		}
	}

	mustCreate("old-completed", "https://example.com", StatusCompleted)
	mustCreate("old-failed", "https://example.com", StatusFailed)
	mustCreate("other-url", "https://other.example", StatusCompleted)
	mustCreate("current", "https://example.com", StatusCompleted)

	// Pin distinct creation times; all four inserts land in the same second.
	for i, id := range []string{"old-completed", "old-failed", "other-url", "current"} {
		if _, err := s.DB().ExecContext(ctx, `UPDATE evaluations SET created_at = ? WHERE id = ?`, 1000+i, id); err != nil {
			t.Fatalf("pin created_at(%s): %v", id, err)
		}
	}

	cur, err := s.GetEvaluation(ctx, "current")
	if err != nil {
		t.Fatalf("GetEvaluation: %v", err)
	}

	prev, err := s.PreviousCompletedEvaluation(ctx, cur)
	if err != nil {
		t.Fatalf("PreviousCompletedEvaluation: %v", err)
	}
	if prev == nil || prev.ID != "old-completed" {
		t.Errorf("prev = %+v, want old-completed", prev)
	}

	// No earlier completed run of this URL: nil, nil.
	first, err := s.GetEvaluation(ctx, "old-completed")
	if err != nil {
		t.Fatalf("GetEvaluation: %v", err)
	}
	prev, err = s.PreviousCompletedEvaluation(ctx, first)
	if err != nil {
		t.Fatalf("PreviousCompletedEvaluation: %v", err)
	}
	if prev != nil {
		t.Errorf("prev = %+v, want nil", prev)
	}
}
