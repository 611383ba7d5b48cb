package detect

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"

	"github.com/ironsheep/graphic-scout/internal/region"
)

// ContourDetector binarizes the page at several threshold levels and
// extracts connected dark components. Running the same extraction at three
// levels makes the strategy robust to varying contrast: a pale watermark and
// a solid black logo each separate cleanly at one of the levels.
type ContourDetector struct {
	cfg Config
}

// Method returns region.MethodContour.
func (d *ContourDetector) Method() region.Method { return region.MethodContour }

// Detect keeps components whose bounding-box area and aspect ratio fall in
// the configured bands. method_metadata.threshold_used records which
// binarization level produced the candidate.
func (d *ContourDetector) Detect(img image.Image, pageIndex int) ([]region.Region, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, nil
	}

	gray := effect.Grayscale(img)

	candidates := make([]region.Region, 0)
	for _, level := range d.cfg.ContourThresholds {
		bin := segment.Threshold(gray, level)

		// Foreground is ink: pixels darker than the threshold level.
		mask := make([][]bool, height)
		binBounds := bin.Bounds()
		for y := 0; y < height; y++ {
			mask[y] = make([]bool, width)
			for x := 0; x < width; x++ {
				mask[y][x] = bin.GrayAt(x+binBounds.Min.X, y+binBounds.Min.Y).Y == 0
			}
		}

		for _, b := range findBlobs(mask, 10) {
			area := b.bounds.Area()
			if area < d.cfg.ContourMinArea || area > d.cfg.ContourMaxArea {
				continue
			}
			aspect := b.bounds.AspectRatio()
			if aspect < d.cfg.ContourMinAspect || aspect > d.cfg.ContourMaxAspect {
				continue
			}
			candidates = append(candidates, region.New(pageIndex, b.bounds, region.MethodContour, region.Metadata{
				"threshold_used": int(level),
			}))
		}
	}
	return candidates, nil
}
