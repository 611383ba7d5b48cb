package region

import (
	"encoding/json"
	"math"
)

// Method identifies which detection strategy produced a candidate region.
type Method string

// Detection strategies. Each corresponds to one independent detector in the
// detect package.
const (
	MethodColor      Method = "color"
	MethodEdge       Method = "edge"
	MethodContour    Method = "contour"
	MethodTexture    Method = "texture"
	MethodPosition   Method = "position"
	MethodBrightness Method = "brightness"
)

// Methods lists all detection methods in their canonical order. The order is
// fixed so that concatenated detector output is reproducible regardless of
// which detector finishes first.
var Methods = []Method{
	MethodColor,
	MethodEdge,
	MethodContour,
	MethodTexture,
	MethodPosition,
	MethodBrightness,
}

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// The coordinate convention follows standard image bounds:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive for iteration)
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Width returns the horizontal extent in pixels (X2 - X1).
func (b Bounds) Width() int { return b.X2 - b.X1 }

// Height returns the vertical extent in pixels (Y2 - Y1).
func (b Bounds) Height() int { return b.Y2 - b.Y1 }

// Area returns the bounding box area in square pixels (Width × Height).
func (b Bounds) Area() int { return b.Width() * b.Height() }

// AspectRatio returns Width / Height, or 0 for a degenerate box of zero
// height.
func (b Bounds) AspectRatio() float64 {
	h := b.Height()
	if h <= 0 {
		return 0
	}
	return float64(b.Width()) / float64(h)
}

// Center returns the midpoint of the bounding box.
func (b Bounds) Center() Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// Union returns the coordinate-wise union of two bounding boxes: the smallest
// box containing both.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		X1: minInt(b.X1, o.X1),
		Y1: minInt(b.Y1, o.Y1),
		X2: maxInt(b.X2, o.X2),
		Y2: maxInt(b.Y2, o.Y2),
	}
}

// Overlaps reports whether two bounding boxes intersect.
func (b Bounds) Overlaps(o Bounds) bool {
	return b.X1 < o.X2 && b.X2 > o.X1 && b.Y1 < o.Y2 && b.Y2 > o.Y1
}

// Metadata carries detector-specific extra fields (dominant color name, edge
// density, texture variance, ...). It is opaque to downstream stages except
// the scorer, which reads known keys through the typed accessors below.
type Metadata map[string]any

// Str returns the string stored under key, or "" when the key is absent or
// holds a non-string value. A missing key is never an error.
func (m Metadata) Str(key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// Float returns the float64 stored under key, tolerating int values, or 0
// when the key is absent or holds a non-numeric value.
func (m Metadata) Float(key string) float64 {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Region is a candidate visual element on one page.
//
// A Region is created by a detector with Confidence 0, may have its Bounds
// widened to a union and its Confidence raised to a member maximum when it
// becomes a cluster representative, and is finally scored by the scorer.
// Support counts how many detections were merged into this region; a region
// straight out of a detector has Support 1.
type Region struct {
	PageIndex  int      `json:"page_index"`
	Bounds     Bounds   `json:"bbox"`
	Method     Method   `json:"detection_method"`
	Metadata   Metadata `json:"method_metadata,omitempty"`
	Confidence float64  `json:"confidence"`
	Support    int      `json:"support"`
}

// New creates a candidate region with zero confidence and single support.
func New(pageIndex int, b Bounds, method Method, meta Metadata) Region {
	return Region{
		PageIndex: pageIndex,
		Bounds:    b,
		Method:    method,
		Metadata:  meta,
		Support:   1,
	}
}

// MarshalJSON emits the region with its derived geometry (width, height,
// area, aspect ratio, center) included, so consumers never recompute them
// inconsistently.
func (r Region) MarshalJSON() ([]byte, error) {
	type alias Region
	return json.Marshal(struct {
		alias
		Width       int     `json:"width"`
		Height      int     `json:"height"`
		Area        int     `json:"area"`
		AspectRatio float64 `json:"aspect_ratio"`
		Center      Point   `json:"center"`
	}{
		alias:       alias(r),
		Width:       r.Bounds.Width(),
		Height:      r.Bounds.Height(),
		Area:        r.Bounds.Area(),
		AspectRatio: roundRatio(r.Bounds.AspectRatio()),
		Center:      r.Bounds.Center(),
	})
}

// Cluster is an equivalence set of regions believed to refer to the same
// visual element. Members keep their discovery order; the representative is
// chosen by the clusterer and is not necessarily the first member.
type Cluster struct {
	Members        []Region `json:"members"`
	Representative Region   `json:"representative"`
}

func roundRatio(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
