// Package crop renders tight raster crops for top-ranked regions from the
// already-rendered page image; the document is never re-rendered.
package crop

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/ironsheep/graphic-scout/internal/raster"
	"github.com/ironsheep/graphic-scout/internal/region"
)

// Ref describes one extracted crop. The PNG payload is carried as base64 so
// the reference can travel in JSON results, and the quantized dominant
// palette is attached to enrich classification prompts.
type Ref struct {
	ID             string                  `json:"id"`
	PageIndex      int                     `json:"page_index"`
	Bounds         region.Bounds           `json:"bbox"`
	Width          int                     `json:"width"`
	Height         int                     `json:"height"`
	PNGBase64      string                  `json:"image_base64"`
	MimeType       string                  `json:"mime_type"`
	DominantColors []raster.ColorFrequency `json:"dominant_colors,omitempty"`
}

// Extractor crops page rasters. Zoom scales crops up before encoding so an
// external vision service receives enough pixels to judge small marks; 1.0
// disables scaling.
type Extractor struct {
	Zoom          float64
	PaletteColors int
}

// NewExtractor creates an extractor with the given crop zoom. A non-positive
// zoom is treated as 1.0.
func NewExtractor(zoom float64) *Extractor {
	if zoom <= 0 {
		zoom = 1.0
	}
	return &Extractor{Zoom: zoom, PaletteColors: 5}
}

// Extract crops the page raster to the region's bounding box.
//
// The box is clamped to the image bounds, and a degenerate box (empty after
// clamping, or entirely outside the image) yields the smallest valid 1×1
// crop instead of an error; candidates are never lost at this stage. The
// returned raw bytes are the PNG payload also carried in the Ref.
func (e *Extractor) Extract(img image.Image, r region.Region) (*Ref, []byte, error) {
	rect := clampRect(img.Bounds(), r.Bounds)

	cropped := imaging.Crop(img, rect)
	if e.Zoom != 1.0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * e.Zoom)
		newHeight := int(float64(cropped.Bounds().Dy()) * e.Zoom)
		if newWidth > 0 && newHeight > 0 {
			cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
		}
	}

	raw, err := raster.EncodePNG(cropped)
	if err != nil {
		return nil, nil, err
	}
	encoded, err := raster.EncodePNGBase64(cropped)
	if err != nil {
		return nil, nil, err
	}

	return &Ref{
		ID:             uuid.NewString(),
		PageIndex:      r.PageIndex,
		Bounds:         region.Bounds{X1: rect.Min.X, Y1: rect.Min.Y, X2: rect.Max.X, Y2: rect.Max.Y},
		Width:          cropped.Bounds().Dx(),
		Height:         cropped.Bounds().Dy(),
		PNGBase64:      encoded,
		MimeType:       "image/png",
		DominantColors: raster.DominantColors(cropped, e.PaletteColors),
	}, raw, nil
}

// clampRect constrains a bounding box to the image bounds and guarantees at
// least a 1×1 rectangle.
func clampRect(bounds image.Rectangle, b region.Bounds) image.Rectangle {
	x1 := clampInt(b.X1, bounds.Min.X, bounds.Max.X-1)
	y1 := clampInt(b.Y1, bounds.Min.Y, bounds.Max.Y-1)
	x2 := clampInt(b.X2, bounds.Min.X+1, bounds.Max.X)
	y2 := clampInt(b.Y2, bounds.Min.Y+1, bounds.Max.Y)

	if x2 <= x1 {
		x2 = x1 + 1
	}
	if y2 <= y1 {
		y2 = y1 + 1
	}
	return image.Rect(x1, y1, x2, y2)
}

func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
