package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/dubey22rohit/UX-Evaluator/internal/app"
	"github.com/dubey22rohit/UX-Evaluator/internal/logging"
	"github.com/dubey22rohit/UX-Evaluator/internal/store"
	"github.com/dubey22rohit/UX-Evaluator/internal/view"

	_ "modernc.org/sqlite" // SQLite driver
)

// Config for the API server.
type Config struct {
	ListenAddr string
	AppConfig  *app.Config
	Logger     logging.Logger
}

// Server is the HTTP + WebSocket API surface for the evaluator.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
	db           *sql.DB
}

// NewServer creates a Server with its own Orchestrator and storage.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	storageRoot, err := expandPath(cfg.AppConfig.StorageRoot)
	if err != nil {
		return nil, fmt.Errorf("expanding storage root path: %w", err)
	}
	cfg.AppConfig.StorageRoot = storageRoot
	if err := os.MkdirAll(storageRoot, 0755); err != nil {
		return nil, fmt.Errorf("creating storage root directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(storageRoot, "evaluator.db"))
	if err != nil {
		return nil, fmt.Errorf("opening evaluator database: %w", err)
	}

	st, err := store.New(db, filepath.Join(storageRoot, "blobs"), logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating store: %w", err)
	}

	orch := app.NewOrchestrator(cfg.AppConfig, st, logger)

	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		router:       chi.NewRouter(),
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
		db: db,
	}

	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	r.Options("/evaluate", s.optionsHandler("POST"))
	r.Options("/evaluations/{evaluationID}", s.optionsHandler("GET"))
	r.Options("/generate-report/{evaluationID}", s.optionsHandler("POST"))
	r.Options("/reports/{evaluationID}", s.optionsHandler("GET"))
	r.Options("/heuristics", s.optionsHandler("GET"))
	r.Options("/jobs", s.optionsHandler("GET"))
	r.Options("/jobs/{jobID}", s.optionsHandler("GET, DELETE"))

	r.Post("/evaluate", s.handleEvaluate)
	r.Get("/evaluations/{evaluationID}", s.handleGetEvaluation)
	r.Get("/evaluations/{evaluationID}/screenshot", s.handleGetScreenshot)
	r.Get("/evaluations/{evaluationID}/view", s.handleGetEvaluationView)

	r.Post("/generate-report/{evaluationID}", s.handleGenerateReport)
	r.Get("/reports/{evaluationID}", s.handleGetReport)
	r.Get("/heuristics", s.handleListHeuristics)

	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)

	r.Get("/ws/evaluate", s.handleEvaluateWS)
	r.Get("/ws/jobs/{jobID}", s.handleJobWS)

	r.Get("/screenshots/blob/{token}", s.handleScreenshotBlob)

	s.mountSwagger(r)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the orchestrator and underlying resources.
func (s *Server) Close() {
	if s.orchestrator != nil {
		s.orchestrator.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- HTTP handlers ---

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL      string `json:"url"`
		MaxPages int    `json:"max_pages"`
		Depth    int    `json:"depth"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.URL == "" {
		writeError(w, http.StatusBadRequest, "missing url")
		return
	}

	// The job outlives this request; r.Context() dies with the 202.
	job, err := s.orchestrator.StartEvaluateJob(context.Background(), body.URL, app.EvaluateOptions{
		MaxPages: body.MaxPages,
		MaxDepth: body.Depth,
	})
	if err != nil {
		s.logger.Warn("starting evaluate job", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("started evaluate job",
		logging.Field{Key: "job_id", Value: job.ID},
		logging.Field{Key: "evaluation_id", Value: job.EvaluationID},
		logging.Field{Key: "url", Value: body.URL})
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	evaluationID := chi.URLParam(r, "evaluationID")

	res, err := s.orchestrator.GetEvaluationResult(r.Context(), evaluationID)
	if err != nil {
		if errors.Is(err, store.ErrEvaluationNotFound) {
			writeError(w, http.StatusNotFound, "evaluation not found")
			return
		}
		s.logger.Warn("getting evaluation", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetScreenshot(w http.ResponseWriter, r *http.Request) {
	evaluationID := chi.URLParam(r, "evaluationID")

	data, contentType, err := s.orchestrator.Store().GetPrimaryScreenshot(r.Context(), evaluationID)
	if err != nil {
		if errors.Is(err, store.ErrScreenshotNotFound) {
			writeError(w, http.StatusNotFound, "screenshot not found")
			return
		}
		s.logger.Warn("getting screenshot", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleGetEvaluationView returns the display-ready read model. An optional
// width query parameter sets the rendered surface width so annotation rects
// come back projected; without it (or before layout) rects are omitted.
func (s *Server) handleGetEvaluationView(w http.ResponseWriter, r *http.Request) {
	evaluationID := chi.URLParam(r, "evaluationID")

	vm := s.orchestrator.ViewModelFor(evaluationID)
	snap := vm.Snapshot()
	if snap.Status != view.StatusReady || snap.EvaluationID != evaluationID {
		if err := vm.Load(r.Context(), evaluationID); err != nil {
			if errors.Is(err, store.ErrEvaluationNotFound) {
				writeError(w, http.StatusNotFound, "evaluation not found")
				return
			}
			// The Failed snapshot below carries the error message.
			s.logger.Warn("loading evaluation view", logging.Field{Key: "error", Value: err.Error()})
		}
	}

	if ws := r.URL.Query().Get("width"); ws != "" {
		if width, err := strconv.ParseFloat(ws, 64); err == nil && width > 0 {
			vm.SetRenderedWidth(width)
		}
	}

	snap = vm.Snapshot()
	type viewResponse struct {
		view.View
		Rects    []annotRect `json:"rects,omitempty"`
		DarkMode bool        `json:"dark_mode"`
	}
	resp := viewResponse{View: snap, DarkMode: s.orchestrator.DarkMode()}
	for i := range snap.SortedIssues {
		rect := vm.RectFor(i)
		if !rect.Valid() {
			resp.Rects = nil
			break
		}
		resp.Rects = append(resp.Rects, annotRect{Index: i, Left: rect.Left, Top: rect.Top, Width: rect.Width, Height: rect.Height})
	}
	writeJSON(w, http.StatusOK, resp)
}

type annotRect struct {
	Index  int     `json:"index"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	evaluationID := chi.URLParam(r, "evaluationID")

	trigger, err := s.orchestrator.GenerateReport(r.Context(), evaluationID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEvaluationNotFound):
			writeError(w, http.StatusNotFound, "evaluation not found")
		case errors.Is(err, app.ErrReportInProgress):
			writeError(w, http.StatusConflict, err.Error())
		default:
			s.logger.Warn("generating report", logging.Field{Key: "error", Value: err.Error()})
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, trigger)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	evaluationID := chi.URLParam(r, "evaluationID")

	body, err := s.orchestrator.Store().GetReport(r.Context(), evaluationID)
	if err != nil {
		if errors.Is(err, store.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		s.logger.Warn("getting report", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

func (s *Server) handleListHeuristics(w http.ResponseWriter, r *http.Request) {
	hs, err := s.orchestrator.Store().ListHeuristics(r.Context())
	if err != nil {
		s.logger.Warn("listing heuristics", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, hs)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	s.orchestrator.CancelJob(jobID)
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID})
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleScreenshotBlob(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	data, contentType, ok := s.orchestrator.Library().Lookup(token)
	if !ok {
		writeError(w, http.StatusNotFound, "screenshot handle not found")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// WebSocket: start an evaluate job and stream its events.

func (s *Server) handleEvaluateWS(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, "missing url query parameter")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	job, err := s.orchestrator.StartEvaluateJob(r.Context(), url, app.EvaluateOptions{})
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"error": err.Error()})
		return
	}

	s.logger.Info("started evaluate job over websocket", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(job)
	s.streamJobEvents(conn, job)
}

// handleJobWS attaches to an already-started job's event stream.
func (s *Server) handleJobWS(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	_ = conn.WriteJSON(job)
	s.streamJobEvents(conn, job)
}

func (s *Server) streamJobEvents(conn *websocket.Conn, job *app.Job) {
	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel job
			s.orchestrator.CancelJob(job.ID)
			return
		}
	}
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
