package model

import (
	"fmt"
	"strings"
)

// Point is a coordinate in source-image pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quadrilateral bounds a detected issue on the full-page screenshot.
// Corners are stored in source-image pixels, never in display pixels.
type Quadrilateral struct {
	TopLeft     Point `json:"top_left_coordinates"`
	TopRight    Point `json:"top_right_coordinates"`
	BottomRight Point `json:"bottom_right_coordinates"`
	BottomLeft  Point `json:"bottom_left_coordinates"`
}

// Issue is one detected UX problem. Immutable once ingested.
type Issue struct {
	Heuristic      string        `json:"heuristic"`
	Description    string        `json:"description"`
	Severity       string        `json:"severity"`
	Recommendation string        `json:"recommendation"`
	Quad           Quadrilateral `json:"coordinates"`
	PageURL        string        `json:"page_url,omitempty"`
}

// Validate rejects malformed records at the ingestion boundary so downstream
// consumers never see half-populated issues. An empty heuristic is allowed
// (the aggregator tallies it as uncategorized); a missing description is not.
func (i *Issue) Validate() error {
	if strings.TrimSpace(i.Description) == "" {
		return fmt.Errorf("issue has no description")
	}
	if i.Quad.TopRight.X < i.Quad.TopLeft.X {
		return fmt.Errorf("issue quad is inverted horizontally: top_right.x=%v < top_left.x=%v",
			i.Quad.TopRight.X, i.Quad.TopLeft.X)
	}
	if i.Quad.BottomLeft.Y < i.Quad.TopLeft.Y {
		return fmt.Errorf("issue quad is inverted vertically: bottom_left.y=%v < top_left.y=%v",
			i.Quad.BottomLeft.Y, i.Quad.TopLeft.Y)
	}
	return nil
}

// ValidIssues filters a raw collection down to the records that pass
// Validate. Invalid records are dropped, not propagated.
func ValidIssues(in []Issue) []Issue {
	out := make([]Issue, 0, len(in))
	for _, is := range in {
		if err := is.Validate(); err != nil {
			continue
		}
		out = append(out, is)
	}
	return out
}

// Heuristic is one entry of the evaluation criteria catalog.
type Heuristic struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
