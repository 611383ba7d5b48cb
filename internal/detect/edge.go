package detect

import (
	"image"
	"math"

	"github.com/ironsheep/graphic-scout/internal/raster"
	"github.com/ironsheep/graphic-scout/internal/region"
)

// EdgeDetector extracts connected edge contours from the union of two
// gradient edge maps computed at different sensitivities. The low threshold
// picks up faint boundaries, the high threshold anchors strong ones; taking
// the union keeps the strategy usable on both crisp vector art and soft
// raster illustrations.
type EdgeDetector struct {
	cfg Config
}

// Method returns region.MethodEdge.
func (d *EdgeDetector) Method() region.Method { return region.MethodEdge }

// Detect keeps contours whose bounding-box area is within the configured
// band and whose local edge-pixel density (edge pixels / bounding-box area)
// exceeds EdgeMinDensity. method_metadata.edge_density carries the density.
func (d *EdgeDetector) Detect(img image.Image, pageIndex int) ([]region.Region, error) {
	gray := raster.Luminance(img)
	if len(gray) == 0 {
		return nil, nil
	}

	low := gradientEdges(gray, d.cfg.EdgeThresholdLow)
	high := gradientEdges(gray, d.cfg.EdgeThresholdHigh)
	edges := unionMasks(low, high)

	candidates := make([]region.Region, 0)
	for _, b := range findBlobs(edges, 10) {
		area := b.bounds.Area()
		if area < d.cfg.EdgeMinArea || area > d.cfg.EdgeMaxArea {
			continue
		}
		density := float64(b.pixels) / float64(area)
		if density <= d.cfg.EdgeMinDensity {
			continue
		}
		candidates = append(candidates, region.New(pageIndex, b.bounds, region.MethodEdge, region.Metadata{
			"edge_density": math.Round(density*1000) / 1000,
		}))
	}
	return candidates, nil
}
