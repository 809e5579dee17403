// Package apiclient is the typed client for the evaluation API. It only
// carries data contracts: request issuing, status mapping and decoding.
// Retry policy belongs to callers.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dubey22rohit/UX-Evaluator/internal/logging"
	"github.com/dubey22rohit/UX-Evaluator/internal/model"
)

// ErrNotFound marks a 404 for an unknown evaluation or report.
var ErrNotFound = errors.New("not found")

// ServerError is a non-success response carrying the server's message.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
}

// IssuesResult is the GetIssues payload.
type IssuesResult struct {
	EvaluationID  string        `json:"evaluation_id"`
	URL           string        `json:"url"`
	PagesAnalyzed int           `json:"pages_analyzed"`
	Issues        []model.Issue `json:"analysis_results"`
}

// ReportTrigger is the GenerateReport acknowledgment.
type ReportTrigger struct {
	ReportID string `json:"report_id"`
	Message  string `json:"message"`
}

// Client talks to one evaluation API base URL over net/http.
type Client struct {
	baseURL string
	hc      *http.Client
	logger  logging.Logger
}

// New creates a Client. A nil httpClient gets a 30s-timeout default.
func New(baseURL string, httpClient *http.Client, logger logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Client{
		baseURL: baseURL,
		hc:      httpClient,
		logger:  logger.With(logging.Field{Key: "component", Value: "apiclient"}),
	}
}

// GetIssues fetches the issue collection for an evaluation. Malformed issue
// records are dropped at this boundary so consumers only ever see validated
// data.
func (c *Client) GetIssues(ctx context.Context, evaluationID string) (*IssuesResult, error) {
	body, _, err := c.get(ctx, "/evaluations/"+evaluationID)
	if err != nil {
		return nil, err
	}

	var out IssuesResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode issues response: %w", err)
	}
	dropped := len(out.Issues)
	out.Issues = model.ValidIssues(out.Issues)
	dropped -= len(out.Issues)
	if dropped > 0 {
		c.logger.Warn("dropped malformed issue records",
			logging.Field{Key: "evaluation_id", Value: evaluationID},
			logging.Field{Key: "dropped", Value: dropped})
	}
	return &out, nil
}

// GetScreenshot fetches the full-page screenshot bytes for an evaluation.
func (c *Client) GetScreenshot(ctx context.Context, evaluationID string) ([]byte, string, error) {
	body, contentType, err := c.get(ctx, "/evaluations/"+evaluationID+"/screenshot")
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

// GenerateReport triggers report generation. Fire-and-forget from the
// caller's perspective; the server refuses overlapping triggers itself.
func (c *Client) GenerateReport(ctx context.Context, evaluationID string) (*ReportTrigger, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-report/"+evaluationID, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if err := statusToError(resp.StatusCode, body); err != nil {
		return nil, err
	}

	var out ReportTrigger
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode report trigger: %w", err)
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, string, error) {
	c.logger.Debug("sending http request",
		logging.Field{Key: "method", Value: http.MethodGet},
		logging.Field{Key: "path", Value: path})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		c.logger.Warn("http request failed",
			logging.Field{Key: "path", Value: path},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, "", fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if err := statusToError(resp.StatusCode, body); err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// statusToError maps a non-2xx response to the client error taxonomy,
// preferring the server's own message when the body carries one.
func statusToError(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	if status == http.StatusNotFound {
		return ErrNotFound
	}
	msg := http.StatusText(status)
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	return &ServerError{Status: status, Message: msg}
}
