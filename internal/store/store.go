// Package store persists evaluations, their issues, screenshots and reports
// in SQLite, with screenshot bytes in a content-addressed blob store.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dubey22rohit/UX-Evaluator/internal/logging"
	"github.com/dubey22rohit/UX-Evaluator/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

var (
	ErrEvaluationNotFound = errors.New("evaluation not found")
	ErrScreenshotNotFound = errors.New("screenshot not found")
	ErrReportNotFound     = errors.New("report not found")
)

// Evaluation status values.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Evaluation is one persisted evaluation run.
type Evaluation struct {
	ID            string    `json:"evaluation_id"`
	URL           string    `json:"url"`
	Status        string    `json:"status"`
	PagesAnalyzed int       `json:"pages_analyzed"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store wraps the SQLite DB and the blob store.
type Store struct {
	db     *sql.DB
	blobs  *BlobStore
	logger logging.Logger
}

// New runs the embedded schema, seeds the heuristics catalog on first run and
// returns a ready Store. db should be the SQLite DB under the storage root.
func New(db *sql.DB, blobsDir string, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("execute schema: %w", err)
	}

	blobs, err := NewBlobStore(blobsDir)
	if err != nil {
		return nil, fmt.Errorf("create blob store: %w", err)
	}

	s := &Store{db: db, blobs: blobs, logger: logger}
	if err := s.seedHeuristics(context.Background()); err != nil {
		return nil, fmt.Errorf("seed heuristics: %w", err)
	}
	return s, nil
}

// DB exposes the underlying handle for callers that share the connection.
func (s *Store) DB() *sql.DB { return s.db }

// CreateEvaluation inserts a new in-progress evaluation.
func (s *Store) CreateEvaluation(ctx context.Context, id, url string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO evaluations (id, url, status, pages_analyzed, created_at) VALUES (?, ?, ?, 0, ?)`,
		id, url, StatusInProgress, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// FinishEvaluation records the terminal status and page count.
func (s *Store) FinishEvaluation(ctx context.Context, id, status string, pagesAnalyzed int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE evaluations SET status = ?, pages_analyzed = ? WHERE id = ?`,
		status, pagesAnalyzed, id)
	if err != nil {
		return fmt.Errorf("update evaluation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEvaluationNotFound
	}
	return nil
}

// GetEvaluation loads one evaluation.
func (s *Store) GetEvaluation(ctx context.Context, id string) (*Evaluation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, status, pages_analyzed, created_at FROM evaluations WHERE id = ?`, id)
	var ev Evaluation
	var createdAt int64
	if err := row.Scan(&ev.ID, &ev.URL, &ev.Status, &ev.PagesAnalyzed, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEvaluationNotFound
		}
		return nil, fmt.Errorf("scan evaluation: %w", err)
	}
	ev.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &ev, nil
}

// PreviousCompletedEvaluation finds the most recent completed evaluation of
// the same URL created before the given one. Returns nil when there is none.
func (s *Store) PreviousCompletedEvaluation(ctx context.Context, current *Evaluation) (*Evaluation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, status, pages_analyzed, created_at FROM evaluations
		 WHERE url = ? AND status = ? AND id != ? AND created_at <= ?
		 ORDER BY created_at DESC LIMIT 1`,
		current.URL, StatusCompleted, current.ID, current.CreatedAt.Unix())
	var ev Evaluation
	var createdAt int64
	if err := row.Scan(&ev.ID, &ev.URL, &ev.Status, &ev.PagesAnalyzed, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan evaluation: %w", err)
	}
	ev.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &ev, nil
}

// AddIssues appends issues for an evaluation, preserving their order.
func (s *Store) AddIssues(ctx context.Context, evaluationID string, issues []model.Issue) error {
	if len(issues) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position)+1, 0) FROM issues WHERE evaluation_id = ?`, evaluationID).Scan(&next); err != nil {
		return fmt.Errorf("next issue position: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO issues (id, evaluation_id, position, page_url, heuristic, severity, description, recommendation,
		   tl_x, tl_y, tr_x, tr_y, br_x, br_y, bl_x, bl_y)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, is := range issues {
		q := is.Quad
		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), evaluationID, next+i, is.PageURL, is.Heuristic, is.Severity,
			is.Description, is.Recommendation,
			q.TopLeft.X, q.TopLeft.Y, q.TopRight.X, q.TopRight.Y,
			q.BottomRight.X, q.BottomRight.Y, q.BottomLeft.X, q.BottomLeft.Y,
		); err != nil {
			return fmt.Errorf("insert issue: %w", err)
		}
	}
	return tx.Commit()
}

// ListIssues returns an evaluation's issues in insertion order.
func (s *Store) ListIssues(ctx context.Context, evaluationID string) ([]model.Issue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT page_url, heuristic, severity, description, recommendation,
		   tl_x, tl_y, tr_x, tr_y, br_x, br_y, bl_x, bl_y
		 FROM issues WHERE evaluation_id = ? ORDER BY position`, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("query issues: %w", err)
	}
	defer rows.Close()

	var out []model.Issue
	for rows.Next() {
		var is model.Issue
		q := &is.Quad
		if err := rows.Scan(&is.PageURL, &is.Heuristic, &is.Severity, &is.Description, &is.Recommendation,
			&q.TopLeft.X, &q.TopLeft.Y, &q.TopRight.X, &q.TopRight.Y,
			&q.BottomRight.X, &q.BottomRight.Y, &q.BottomLeft.X, &q.BottomLeft.Y,
		); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		out = append(out, is)
	}
	return out, rows.Err()
}

// PutScreenshot stores screenshot bytes in the blob store and records the
// reference. position orders pages within the evaluation; position 0 is the
// start page and serves as the evaluation's primary screenshot.
func (s *Store) PutScreenshot(ctx context.Context, evaluationID, pageURL string, position int, data []byte, contentType string) error {
	blobID, err := s.blobs.Put(data)
	if err != nil {
		return fmt.Errorf("store screenshot blob: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO screenshots (id, evaluation_id, page_url, position, blob_id, content_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), evaluationID, pageURL, position, blobID, contentType, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert screenshot row: %w", err)
	}
	return nil
}

// GetPrimaryScreenshot returns the bytes and content type of the
// evaluation's first-page screenshot.
func (s *Store) GetPrimaryScreenshot(ctx context.Context, evaluationID string) ([]byte, string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT blob_id, content_type FROM screenshots WHERE evaluation_id = ? ORDER BY position LIMIT 1`,
		evaluationID)
	var blobID, contentType string
	if err := row.Scan(&blobID, &contentType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrScreenshotNotFound
		}
		return nil, "", fmt.Errorf("scan screenshot row: %w", err)
	}
	data, err := s.blobs.Get(blobID)
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}

// SaveReport upserts the generated report JSON for an evaluation.
func (s *Store) SaveReport(ctx context.Context, evaluationID, reportID, body string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (evaluation_id, report_id, created_at, body) VALUES (?, ?, ?, ?)
		 ON CONFLICT(evaluation_id) DO UPDATE SET report_id = excluded.report_id,
		   created_at = excluded.created_at, body = excluded.body`,
		evaluationID, reportID, time.Now().Unix(), body)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// GetReport returns the stored report JSON.
func (s *Store) GetReport(ctx context.Context, evaluationID string) (string, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM reports WHERE evaluation_id = ?`, evaluationID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrReportNotFound
	}
	if err != nil {
		return "", fmt.Errorf("scan report: %w", err)
	}
	return body, nil
}

// ListHeuristics returns the heuristics catalog.
func (s *Store) ListHeuristics(ctx context.Context) ([]model.Heuristic, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description FROM heuristics ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query heuristics: %w", err)
	}
	defer rows.Close()

	var out []model.Heuristic
	for rows.Next() {
		var h model.Heuristic
		if err := rows.Scan(&h.ID, &h.Name, &h.Description); err != nil {
			return nil, fmt.Errorf("scan heuristic: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

type seedHeuristic struct {
	name, description, category string
}

// Nielsen's ten usability heuristics, seeded once on an empty catalog.
var defaultHeuristics = []seedHeuristic{
	{"Visibility of System Status", "The system should always keep users informed about what is going on, through appropriate feedback within reasonable time.", "feedback"},
	{"Match Between System and Real World", "The system should speak the users' language, with words, phrases and concepts familiar to the user, rather than system-oriented terms.", "language"},
	{"User Control and Freedom", "Users often choose system functions by mistake and will need a clearly marked 'emergency exit' to leave the unwanted state.", "navigation"},
	{"Consistency and Standards", "Users should not have to wonder whether different words, situations, or actions mean the same thing. Follow platform conventions.", "design"},
	{"Error Prevention", "Even better than good error messages is a careful design which prevents a problem from occurring in the first place.", "errors"},
	{"Recognition Rather Than Recall", "Minimize the user's memory load by making objects, actions, and options visible. Instructions should be visible or easily retrievable.", "memory"},
	{"Flexibility and Efficiency of Use", "Accelerators -- unseen by the novice user -- may often speed up the interaction for the expert user.", "efficiency"},
	{"Aesthetic and Minimalist Design", "Dialogues should not contain information which is irrelevant or rarely needed.", "design"},
	{"Help Users Recognize, Diagnose, and Recover from Errors", "Error messages should be expressed in plain language (no codes), precisely indicate the problem, and constructively suggest a solution.", "errors"},
	{"Help and Documentation", "Even though it is better if the system can be used without documentation, it may be necessary to provide help and documentation.", "help"},
}

func (s *Store) seedHeuristics(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM heuristics`).Scan(&count); err != nil {
		return fmt.Errorf("count heuristics: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, h := range defaultHeuristics {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO heuristics (id, name, description, category) VALUES (?, ?, ?, ?)`,
			uuid.New().String(), h.name, h.description, h.category); err != nil {
			return fmt.Errorf("insert heuristic: %w", err)
		}
	}
	s.logger.Info("seeded heuristics catalog", logging.Field{Key: "count", Value: len(defaultHeuristics)})
	return nil
}
