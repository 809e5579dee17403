// Package view composes the classifier, aggregator and annotation mapper
// into the display-ready read model for one evaluation.
package view

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dubey22rohit/UX-Evaluator/internal/aggregate"
	"github.com/dubey22rohit/UX-Evaluator/internal/annotate"
	"github.com/dubey22rohit/UX-Evaluator/internal/apiclient"
	"github.com/dubey22rohit/UX-Evaluator/internal/logging"
	"github.com/dubey22rohit/UX-Evaluator/internal/model"
	"github.com/dubey22rohit/UX-Evaluator/internal/screenshot"
)

// Status is the load state machine: Idle → Loading → {Ready | Failed}.
// Terminal states go back to Loading only through an explicit new Load.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Retriever is the collaborator contract the view model consumes.
// *apiclient.Client satisfies it.
type Retriever interface {
	GetIssues(ctx context.Context, evaluationID string) (*apiclient.IssuesResult, error)
	GetScreenshot(ctx context.Context, evaluationID string) ([]byte, string, error)
}

// View is the read model exposed to the presentation layer.
type View struct {
	Status        Status                 `json:"status"`
	EvaluationID  string                 `json:"evaluation_id"`
	PagesAnalyzed int                    `json:"pages_analyzed"`
	SortedIssues  []model.Issue          `json:"sorted_issues"`
	Stats         aggregate.SummaryStats `json:"stats"`
	ScreenshotURL string                 `json:"screenshot_url,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Selected      int                    `json:"selected"`
}

// ViewModel owns the screenshot handle for the evaluation it currently
// displays: exactly one live handle per completed load, released before
// reassignment and on teardown. The annotation layer only borrows the
// display URL.
type ViewModel struct {
	retriever Retriever
	library   *screenshot.Library
	logger    logging.Logger

	mu            sync.Mutex
	generation    uint64
	status        Status
	evaluationID  string
	pagesAnalyzed int
	sorted        []model.Issue
	stats         aggregate.SummaryStats
	errMsg        string
	handle        *screenshot.Handle
	mapper        *annotate.Mapper
	selected      int
	closed        bool
}

// New creates an idle ViewModel.
func New(retriever Retriever, library *screenshot.Library, logger logging.Logger) *ViewModel {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &ViewModel{
		retriever: retriever,
		library:   library,
		logger:    logger.With(logging.Field{Key: "component", Value: "view"}),
		status:    StatusIdle,
		mapper:    annotate.NewMapper(),
		selected:  -1,
	}
}

// Load retrieves the issue collection and the screenshot for evaluationID.
// The two requests are issued concurrently so latency is bounded by the
// slower of the two. A Load superseded by a newer Load discards its result
// instead of overwriting state; its handle, if acquired, is released.
// There is no automatic retry: a failed load stays Failed until the caller
// loads again.
func (vm *ViewModel) Load(ctx context.Context, evaluationID string) error {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return context.Canceled
	}
	vm.generation++
	gen := vm.generation

	// Entering Loading releases whatever the previous terminal state held.
	if vm.handle != nil {
		vm.handle.Release()
		vm.handle = nil
	}
	vm.status = StatusLoading
	vm.evaluationID = evaluationID
	vm.sorted = nil
	vm.stats = aggregate.SummaryStats{}
	vm.errMsg = ""
	vm.selected = -1
	vm.mapper = annotate.NewMapper()
	mapper := vm.mapper
	vm.mu.Unlock()

	var (
		issuesRes   *apiclient.IssuesResult
		shotBytes   []byte
		contentType string
	)

	// Both retrievals start before either is awaited; the first failure
	// cancels the group context and wins the reported error.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := vm.retriever.GetIssues(gctx, evaluationID)
		if err != nil {
			return err
		}
		issuesRes = res
		return nil
	})
	g.Go(func() error {
		data, ct, err := vm.retriever.GetScreenshot(gctx, evaluationID)
		if err != nil {
			return err
		}
		shotBytes = data
		contentType = ct
		return nil
	})

	err := g.Wait()

	var handle *screenshot.Handle
	if err == nil {
		// Unusable bytes count as a screenshot failure.
		handle, err = vm.library.Acquire(shotBytes, contentType)
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()

	if gen != vm.generation || vm.closed {
		// A newer Load took over (or the view was torn down) while this one
		// was in flight. Discard the result; never leak the handle.
		if handle != nil {
			handle.Release()
		}
		vm.logger.Debug("discarded stale load result",
			logging.Field{Key: "evaluation_id", Value: evaluationID})
		return nil
	}

	if err != nil {
		vm.status = StatusFailed
		vm.errMsg = err.Error()
		vm.logger.Warn("evaluation load failed",
			logging.Field{Key: "evaluation_id", Value: evaluationID},
			logging.Field{Key: "error", Value: err.Error()})
		return err
	}

	res := aggregate.Aggregate(issuesRes.Issues)
	w, h := handle.NaturalSize()
	mapper.SetNaturalSize(w, h)

	vm.handle = handle
	vm.pagesAnalyzed = issuesRes.PagesAnalyzed
	vm.sorted = res.Sorted
	vm.stats = res.Stats
	vm.status = StatusReady

	vm.logger.Info("evaluation loaded",
		logging.Field{Key: "evaluation_id", Value: evaluationID},
		logging.Field{Key: "total_issues", Value: res.Stats.TotalIssues})
	return nil
}

// SetRenderedWidth is the surface-resize notification; it recomputes the
// shared annotation scale.
func (vm *ViewModel) SetRenderedWidth(width float64) {
	vm.mu.Lock()
	mapper := vm.mapper
	vm.mu.Unlock()
	mapper.SetRenderedWidth(width)
}

// RectFor projects the bounding quadrilateral of the issue at index into
// rendered-pixel space. The zero Rect (not Valid) means out of range or the
// mapper is not ready yet; that is a transient state, not an error.
func (vm *ViewModel) RectFor(index int) annotate.Rect {
	vm.mu.Lock()
	if vm.status != StatusReady || index < 0 || index >= len(vm.sorted) {
		vm.mu.Unlock()
		return annotate.Rect{}
	}
	quad := vm.sorted[index].Quad
	mapper := vm.mapper
	vm.mu.Unlock()
	return annotate.Project(quad, mapper.Scale())
}

// SetSelected toggles which annotation overlay is drawn. It never affects
// aggregation. Selecting the current index clears the selection.
func (vm *ViewModel) SetSelected(index int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if index < 0 || index >= len(vm.sorted) || index == vm.selected {
		vm.selected = -1
		return
	}
	vm.selected = index
}

// Snapshot returns the current read model.
func (vm *ViewModel) Snapshot() View {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	v := View{
		Status:        vm.status,
		EvaluationID:  vm.evaluationID,
		PagesAnalyzed: vm.pagesAnalyzed,
		SortedIssues:  vm.sorted,
		Stats:         vm.stats,
		Error:         vm.errMsg,
		Selected:      vm.selected,
	}
	if vm.handle != nil {
		v.ScreenshotURL = vm.handle.URL()
	}
	return v
}

// Close tears the view down and releases held resources unconditionally,
// including after a partial failure. Safe to call more than once.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.closed = true
	vm.generation++
	if vm.handle != nil {
		vm.handle.Release()
		vm.handle = nil
	}
	vm.status = StatusIdle
}
