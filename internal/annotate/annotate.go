// Package annotate projects stored issue quadrilaterals from source-image
// pixel space into rendered-pixel rectangles for overlay drawing.
package annotate

import (
	"sync"

	"github.com/dubey22rohit/UX-Evaluator/internal/model"
)

// Rect is an axis-aligned rectangle in rendered-pixel space.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether the rect came from a ready (scale > 0) projection.
// Callers skip drawing invalid rects instead of treating them as errors.
func (r Rect) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// ImageMetrics pairs the screenshot's natural pixel size with the current
// rendered width of the display surface. RenderedWidth is 0 before layout.
type ImageMetrics struct {
	NaturalWidth  int
	NaturalHeight int
	RenderedWidth float64
}

// ComputeScale returns renderedWidth/naturalWidth, or 0 while either side is
// unknown. A zero scale means "not ready": callers must not draw degenerate
// rectangles from it.
func ComputeScale(naturalWidth int, renderedWidth float64) float64 {
	if naturalWidth <= 0 || renderedWidth <= 0 {
		return 0
	}
	return renderedWidth / float64(naturalWidth)
}

// Project applies the scale uniformly to a quadrilateral. Width and height
// come from corner deltas, not independently scaled absolute positions, so
// rounding never drifts between the four corners. Pure and deterministic:
// identical inputs produce bit-identical output.
func Project(quad model.Quadrilateral, scale float64) Rect {
	return Rect{
		Left:   quad.TopLeft.X * scale,
		Top:    quad.TopLeft.Y * scale,
		Width:  (quad.TopRight.X - quad.TopLeft.X) * scale,
		Height: (quad.BottomLeft.Y - quad.TopLeft.Y) * scale,
	}
}

// Mapper owns one scale value shared by every annotation over the same
// screenshot. The scale is recomputed on exactly two push triggers: the
// image's natural size becoming known and the rendering surface resizing.
// It never holds a stale (old natural, new rendered) pairing because both
// setters recompute from the full current metrics under one lock.
type Mapper struct {
	mu      sync.Mutex
	metrics ImageMetrics
	scale   float64
}

// NewMapper returns a Mapper with no metrics yet; Scale is 0 until both the
// natural size and a rendered width arrive.
func NewMapper() *Mapper {
	return &Mapper{}
}

// SetNaturalSize records the decoded image dimensions and recomputes scale.
func (m *Mapper) SetNaturalSize(width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics.NaturalWidth = width
	m.metrics.NaturalHeight = height
	m.scale = ComputeScale(m.metrics.NaturalWidth, m.metrics.RenderedWidth)
}

// SetRenderedWidth records the display surface width and recomputes scale.
func (m *Mapper) SetRenderedWidth(width float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics.RenderedWidth = width
	m.scale = ComputeScale(m.metrics.NaturalWidth, m.metrics.RenderedWidth)
}

// Scale returns the current shared scale; 0 while not ready.
func (m *Mapper) Scale() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scale
}

// Metrics returns a copy of the current metrics pairing.
func (m *Mapper) Metrics() ImageMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metrics
}

// ProjectAll projects every quadrilateral with the scale read once, so an
// n-annotation recomputation cycle costs one scale read and n projections.
// Returns nil while the mapper is not ready.
func (m *Mapper) ProjectAll(quads []model.Quadrilateral) []Rect {
	scale := m.Scale()
	if scale == 0 {
		return nil
	}
	rects := make([]Rect, len(quads))
	for i, q := range quads {
		rects[i] = Project(q, scale)
	}
	return rects
}
