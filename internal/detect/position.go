package detect

import (
	"image"

	"github.com/ironsheep/graphic-scout/internal/region"
)

// Slot names emitted by the position prior, also read by the scorer.
const (
	SlotTopLeft   = "top_left"
	SlotTopRight  = "top_right"
	SlotTopCenter = "top_center"
	SlotCenter    = "center"
	SlotBottom    = "bottom"
)

// slotSpec describes one canonical layout zone as fractions of the page.
type slotSpec struct {
	name           string
	x1, y1, x2, y2 float64
}

// Five canonical zones where brand graphics conventionally sit on a page:
// corners and center of the header band, page center, and the footer band.
var slotSpecs = []slotSpec{
	{SlotTopLeft, 0.00, 0.00, 0.25, 0.20},
	{SlotTopRight, 0.75, 0.00, 1.00, 0.20},
	{SlotTopCenter, 0.30, 0.00, 0.70, 0.15},
	{SlotCenter, 0.35, 0.35, 0.65, 0.65},
	{SlotBottom, 0.25, 0.85, 0.75, 1.00},
}

// PositionDetector emits a fixed set of layout-slot regions sized as
// fractions of the page. These are priors, not measured detections: they
// always carry confidence 0 until the scorer weighs the slot, and they fire
// on every page large enough to have a meaningful layout.
type PositionDetector struct {
	cfg Config
}

// Method returns region.MethodPosition.
func (d *PositionDetector) Method() region.Method { return region.MethodPosition }

// Detect emits the canonical slots. Pages smaller than MinSlotPageDim in
// either dimension emit nothing; fractional slots on a thumbnail-sized
// raster would be noise. method_metadata.position carries the slot name.
func (d *PositionDetector) Detect(img image.Image, pageIndex int) ([]region.Region, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width < d.cfg.MinSlotPageDim || height < d.cfg.MinSlotPageDim {
		return nil, nil
	}

	candidates := make([]region.Region, 0, len(slotSpecs))
	for _, s := range slotSpecs {
		b := region.Bounds{
			X1: int(s.x1 * float64(width)),
			Y1: int(s.y1 * float64(height)),
			X2: int(s.x2 * float64(width)),
			Y2: int(s.y2 * float64(height)),
		}
		candidates = append(candidates, region.New(pageIndex, b, region.MethodPosition, region.Metadata{
			"position": s.name,
		}))
	}
	return candidates, nil
}
