package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dubey22rohit/UX-Evaluator/internal/analyzer"
	"github.com/dubey22rohit/UX-Evaluator/internal/apiclient"
	"github.com/dubey22rohit/UX-Evaluator/internal/crawler"
	"github.com/dubey22rohit/UX-Evaluator/internal/logging"
	"github.com/dubey22rohit/UX-Evaluator/internal/model"
	"github.com/dubey22rohit/UX-Evaluator/internal/report"
	"github.com/dubey22rohit/UX-Evaluator/internal/screenshot"
	"github.com/dubey22rohit/UX-Evaluator/internal/store"
	"github.com/dubey22rohit/UX-Evaluator/internal/view"
)

// ErrReportInProgress is returned when a report for the evaluation is
// already being generated. The second trigger is refused, not queued.
var ErrReportInProgress = errors.New("report generation already in progress")

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// For progress
	PagesAnalyzed int    `json:"pages_analyzed,omitempty"`
	PageURL       string `json:"page_url,omitempty"`
	IssuesFound   int    `json:"issues_found,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

// Job is one asynchronous evaluation run.
type Job struct {
	ID           string        `json:"id"`
	EvaluationID string        `json:"evaluation_id"`
	URL          string        `json:"url"`
	Status       JobStatus     `json:"status"`
	Error        string        `json:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      time.Time     `json:"ended_at"`
	Events       chan JobEvent `json:"-"`

	PagesAnalyzed int `json:"pages_analyzed,omitempty"`
	IssuesFound   int `json:"issues_found,omitempty"`
}

// Orchestrator ties the crawler, analyzer, store and view models together.
type Orchestrator struct {
	cfg      *Config
	store    *store.Store
	crawler  *crawler.Crawler
	analyzer *analyzer.Analyzer
	library  *screenshot.Library
	logger   logging.Logger

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc

	viewsMu sync.Mutex
	views   map[string]*view.ViewModel

	reportsMu       sync.Mutex
	reportsInFlight map[string]bool
}

// NewOrchestrator wires the components around a ready Store.
func NewOrchestrator(cfg *Config, st *store.Store, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Orchestrator{
		cfg:             cfg,
		store:           st,
		crawler:         crawler.New(cfg.CrawlerCfg, logger),
		analyzer:        analyzer.New(logger),
		library:         screenshot.NewLibrary(logger),
		logger:          logger,
		jobs:            make(map[string]*Job),
		jobCancels:      make(map[string]context.CancelFunc),
		views:           make(map[string]*view.ViewModel),
		reportsInFlight: make(map[string]bool),
	}
}

// Library exposes the live screenshot handles for URL serving.
func (o *Orchestrator) Library() *screenshot.Library { return o.library }

// Store exposes the persistence layer.
func (o *Orchestrator) Store() *store.Store { return o.store }

// DarkMode reports the injected theme preference.
func (o *Orchestrator) DarkMode() bool { return o.cfg.DarkMode }

func (o *Orchestrator) emitJobEvent(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) setJobStatus(jobID string, status JobStatus, errMsg string) {
	o.jobsMu.Lock()
	if j, ok := o.jobs[jobID]; ok {
		j.Status = status
		j.Error = errMsg
	}
	o.jobsMu.Unlock()
	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: status, Error: errMsg})
}

// EvaluateOptions override crawl bounds for one job. Zero values keep the
// configured defaults.
type EvaluateOptions struct {
	MaxPages int
	MaxDepth int
}

// StartEvaluateJob creates a new evaluation and runs crawl + analysis in the
// background. The returned Job carries the evaluation id and an event stream.
func (o *Orchestrator) StartEvaluateJob(ctx context.Context, url string, opts EvaluateOptions) (*Job, error) {
	evaluationID := uuid.New().String()
	if err := o.store.CreateEvaluation(ctx, evaluationID, url); err != nil {
		return nil, fmt.Errorf("create evaluation: %w", err)
	}

	jobID := uuid.New().String()
	job := &Job{
		ID:           jobID,
		EvaluationID: evaluationID,
		URL:          url,
		Status:       JobPending,
		StartedAt:    time.Now().UTC(),
		Events:       make(chan JobEvent, 16),
	}

	o.jobsMu.Lock()
	o.jobs[jobID] = job
	o.jobsMu.Unlock()

	jobCtx, cancel := context.WithCancel(ctx)
	o.jobsMu.Lock()
	o.jobCancels[jobID] = cancel
	o.jobsMu.Unlock()

	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobPending})

	go func() {
		defer func() {
			o.jobsMu.Lock()
			if j, ok := o.jobs[jobID]; ok {
				j.EndedAt = time.Now().UTC()
			}
			delete(o.jobCancels, jobID)
			j := o.jobs[jobID]
			o.jobsMu.Unlock()
			if j != nil && j.Events != nil {
				close(j.Events)
			}
		}()

		o.setJobStatus(jobID, JobRunning, "")

		pages, issues, err := o.runEvaluation(jobCtx, jobID, evaluationID, url, opts)

		o.jobsMu.Lock()
		if j, ok := o.jobs[jobID]; ok {
			j.PagesAnalyzed = pages
			j.IssuesFound = issues
		}
		o.jobsMu.Unlock()

		switch {
		case jobCtx.Err() != nil:
			_ = o.store.FinishEvaluation(context.Background(), evaluationID, store.StatusFailed, pages)
			o.setJobStatus(jobID, JobCanceled, jobCtx.Err().Error())
		case err != nil:
			_ = o.store.FinishEvaluation(context.Background(), evaluationID, store.StatusFailed, pages)
			o.setJobStatus(jobID, JobFailed, err.Error())
		default:
			if ferr := o.store.FinishEvaluation(context.Background(), evaluationID, store.StatusCompleted, pages); ferr != nil {
				o.setJobStatus(jobID, JobFailed, ferr.Error())
				return
			}
			o.emitJobEvent(jobID, JobEvent{
				JobID:         jobID,
				Type:          JobEventResult,
				Status:        JobDone,
				PagesAnalyzed: pages,
				IssuesFound:   issues,
			})
			o.jobsMu.Lock()
			if j, ok := o.jobs[jobID]; ok {
				j.Status = JobDone
			}
			o.jobsMu.Unlock()
		}
	}()

	return job, nil
}

// runEvaluation crawls the site and persists per-page screenshots and
// analyzed issues. Returns pages visited and issues stored.
func (o *Orchestrator) runEvaluation(ctx context.Context, jobID, evaluationID, url string, opts EvaluateOptions) (int, int, error) {
	cr := o.crawler
	if opts.MaxPages > 0 || opts.MaxDepth > 0 {
		cfg := o.cfg.CrawlerCfg
		if opts.MaxPages > 0 {
			cfg.MaxPages = opts.MaxPages
		}
		if opts.MaxDepth > 0 {
			cfg.MaxDepth = opts.MaxDepth
		}
		cr = crawler.New(cfg, o.logger)
	}

	position := 0
	totalIssues := 0

	visit := func(ctx context.Context, page *crawler.Page, loc crawler.Locator) error {
		issues := o.resolveIssues(ctx, page, loc)
		if err := o.store.AddIssues(ctx, evaluationID, issues); err != nil {
			return err
		}
		if err := o.store.PutScreenshot(ctx, evaluationID, page.URL, position, page.Screenshot, "image/jpeg"); err != nil {
			return err
		}
		position++
		totalIssues += len(issues)

		o.emitJobEvent(jobID, JobEvent{
			JobID:         jobID,
			Type:          JobEventProgress,
			PagesAnalyzed: position,
			PageURL:       page.URL,
			IssuesFound:   totalIssues,
		})
		return nil
	}

	pages, err := cr.Crawl(ctx, url, visit)
	return pages, totalIssues, err
}

// resolveIssues turns analyzer findings into validated issues with
// screenshot-space quadrilaterals. Element findings expand to one issue per
// matched element; page-level findings keep a zero quad.
func (o *Orchestrator) resolveIssues(ctx context.Context, page *crawler.Page, loc crawler.Locator) []model.Issue {
	findings, err := o.analyzer.Analyze(page.HTML)
	if err != nil {
		o.logger.Warn("analysis failed",
			logging.Field{Key: "url", Value: page.URL},
			logging.Field{Key: "error", Value: err.Error()})
		return nil
	}

	var issues []model.Issue
	for _, f := range findings {
		base := model.Issue{
			Heuristic:      f.Heuristic,
			Description:    f.Description,
			Severity:       f.Severity,
			Recommendation: f.Recommendation,
			PageURL:        page.URL,
		}
		if f.Selector == "" {
			issues = append(issues, base)
			continue
		}
		quads, err := loc.Locate(ctx, f.Selector)
		if err != nil {
			o.logger.Warn("selector location failed",
				logging.Field{Key: "selector", Value: f.Selector},
				logging.Field{Key: "error", Value: err.Error()})
			issues = append(issues, base)
			continue
		}
		if len(quads) == 0 {
			issues = append(issues, base)
			continue
		}
		for _, q := range quads {
			is := base
			is.Quad = q
			issues = append(issues, is)
		}
	}
	return model.ValidIssues(issues)
}

// CancelJob cancels a running job's context, if any.
func (o *Orchestrator) CancelJob(jobID string) {
	o.jobsMu.Lock()
	cancel := o.jobCancels[jobID]
	o.jobsMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// GetJob returns a job by id, or nil.
func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	return o.jobs[jobID]
}

// ListJobs returns all known jobs.
func (o *Orchestrator) ListJobs() []*Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, j)
	}
	return out
}

// GetEvaluationResult loads the persisted issue collection for an evaluation.
func (o *Orchestrator) GetEvaluationResult(ctx context.Context, evaluationID string) (*apiclient.IssuesResult, error) {
	ev, err := o.store.GetEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	issues, err := o.store.ListIssues(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	return &apiclient.IssuesResult{
		EvaluationID:  ev.ID,
		URL:           ev.URL,
		PagesAnalyzed: ev.PagesAnalyzed,
		Issues:        issues,
	}, nil
}

// GenerateReport builds and stores the report for a completed evaluation.
// A second call while one is running is refused with ErrReportInProgress.
func (o *Orchestrator) GenerateReport(ctx context.Context, evaluationID string) (*apiclient.ReportTrigger, error) {
	o.reportsMu.Lock()
	if o.reportsInFlight[evaluationID] {
		o.reportsMu.Unlock()
		return nil, ErrReportInProgress
	}
	o.reportsInFlight[evaluationID] = true
	o.reportsMu.Unlock()
	defer func() {
		o.reportsMu.Lock()
		delete(o.reportsInFlight, evaluationID)
		o.reportsMu.Unlock()
	}()

	ev, err := o.store.GetEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	if ev.Status != store.StatusCompleted {
		return nil, fmt.Errorf("evaluation %s not yet completed", evaluationID)
	}
	issues, err := o.store.ListIssues(ctx, evaluationID)
	if err != nil {
		return nil, err
	}

	prev, err := o.store.PreviousCompletedEvaluation(ctx, ev)
	if err != nil {
		o.logger.Warn("looking up previous evaluation, skipping change summary",
			logging.Field{Key: "evaluation_id", Value: evaluationID},
			logging.Field{Key: "error", Value: err.Error()})
		prev = nil
	}
	var prevIssues []model.Issue
	if prev != nil {
		if prevIssues, err = o.store.ListIssues(ctx, prev.ID); err != nil {
			o.logger.Warn("loading previous issues, skipping change summary",
				logging.Field{Key: "evaluation_id", Value: prev.ID},
				logging.Field{Key: "error", Value: err.Error()})
			prev = nil
		}
	}

	rep := report.Generate(ev, issues, prev, prevIssues)
	body, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	if err := o.store.SaveReport(ctx, evaluationID, rep.ReportID, string(body)); err != nil {
		return nil, err
	}

	o.logger.Info("generated report",
		logging.Field{Key: "evaluation_id", Value: evaluationID},
		logging.Field{Key: "report_id", Value: rep.ReportID})
	return &apiclient.ReportTrigger{ReportID: rep.ReportID, Message: "Report generated successfully"}, nil
}

// ViewModelFor returns the cached view model for an evaluation, creating it
// on first use. View models retrieve through the store directly.
func (o *Orchestrator) ViewModelFor(evaluationID string) *view.ViewModel {
	o.viewsMu.Lock()
	defer o.viewsMu.Unlock()
	if vm, ok := o.views[evaluationID]; ok {
		return vm
	}
	vm := view.New(&storeRetriever{o: o}, o.library, o.logger)
	o.views[evaluationID] = vm
	return vm
}

// Close cancels running jobs and tears down cached view models, releasing
// every screenshot handle they hold.
func (o *Orchestrator) Close() {
	o.jobsMu.Lock()
	cancels := make([]context.CancelFunc, 0, len(o.jobCancels))
	for _, c := range o.jobCancels {
		cancels = append(cancels, c)
	}
	o.jobsMu.Unlock()
	for _, c := range cancels {
		c()
	}

	o.viewsMu.Lock()
	for _, vm := range o.views {
		vm.Close()
	}
	o.views = make(map[string]*view.ViewModel)
	o.viewsMu.Unlock()
}

// storeRetriever adapts the store to the view.Retriever contract for
// in-process view models.
type storeRetriever struct {
	o *Orchestrator
}

func (r *storeRetriever) GetIssues(ctx context.Context, evaluationID string) (*apiclient.IssuesResult, error) {
	return r.o.GetEvaluationResult(ctx, evaluationID)
}

func (r *storeRetriever) GetScreenshot(ctx context.Context, evaluationID string) ([]byte, string, error) {
	return r.o.store.GetPrimaryScreenshot(ctx, evaluationID)
}
