// Package screenshot manages owned references to decoded screenshot bytes.
// A Handle is acquired once, borrowed by the annotation layer through its
// display URL, and released exactly once by its owner.
package screenshot

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sync"

	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"

	"github.com/dubey22rohit/UX-Evaluator/internal/logging"
)

// ErrDecode wraps unusable screenshot bytes. Callers treat it like a server
// error on the screenshot retrieval.
var ErrDecode = errors.New("screenshot bytes could not be decoded")

// Handle is an owned reference to screenshot binary data. The owner must call
// Release when the handle is superseded or the consuming view is torn down.
// Release is exactly-once: further calls are no-ops, never a crash.
type Handle struct {
	token         string
	data          []byte
	contentType   string
	naturalWidth  int
	naturalHeight int

	releaseOnce sync.Once
	lib         *Library
}

// Token identifies the handle inside its Library.
func (h *Handle) Token() string { return h.token }

// URL is the display URL borrowers use to render the screenshot. Borrowers
// never take ownership and must not use the URL after Release.
func (h *Handle) URL() string { return "/screenshots/blob/" + h.token }

// NaturalSize returns the decoded pixel dimensions.
func (h *Handle) NaturalSize() (width, height int) {
	return h.naturalWidth, h.naturalHeight
}

// ContentType returns the sniffed image content type.
func (h *Handle) ContentType() string { return h.contentType }

// Release drops the handle from its library. Best-effort and idempotent.
func (h *Handle) Release() {
	h.releaseOnce.Do(func() {
		h.lib.drop(h.token)
	})
}

// Library tracks live handles so the HTTP layer can serve their bytes at the
// display URL. Dropping a handle invalidates its URL immediately.
type Library struct {
	mu      sync.Mutex
	handles map[string]*Handle
	logger  logging.Logger
}

// NewLibrary creates an empty handle library.
func NewLibrary(logger logging.Logger) *Library {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Library{
		handles: make(map[string]*Handle),
		logger:  logger,
	}
}

// Acquire decodes the image metadata and registers a new live handle.
// The caller owns the returned handle and must Release it exactly once.
func (l *Library) Acquire(data []byte, contentType string) (*Handle, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if contentType == "" {
		contentType = "image/" + format
	}

	h := &Handle{
		token:         uuid.New().String(),
		data:          data,
		contentType:   contentType,
		naturalWidth:  cfg.Width,
		naturalHeight: cfg.Height,
		lib:           l,
	}

	l.mu.Lock()
	l.handles[h.token] = h
	l.mu.Unlock()

	l.logger.Debug("acquired screenshot handle",
		logging.Field{Key: "token", Value: h.token},
		logging.Field{Key: "width", Value: cfg.Width},
		logging.Field{Key: "height", Value: cfg.Height})
	return h, nil
}

// Lookup returns the bytes and content type for a live handle token.
func (l *Library) Lookup(token string) ([]byte, string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.handles[token]
	if !ok {
		return nil, "", false
	}
	return h.data, h.contentType, true
}

// Live returns the number of currently live handles.
func (l *Library) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.handles)
}

func (l *Library) drop(token string) {
	l.mu.Lock()
	delete(l.handles, token)
	l.mu.Unlock()
	l.logger.Debug("released screenshot handle", logging.Field{Key: "token", Value: token})
}
