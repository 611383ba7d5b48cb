package detect

import (
	"image"
	"math"

	"github.com/ironsheep/graphic-scout/internal/raster"
	"github.com/ironsheep/graphic-scout/internal/region"
)

// BrightnessDetector finds regions of high local contrast, measured as the
// standard deviation of brightness inside a sliding window. It overlaps the
// texture strategy on busy artwork but additionally catches high-contrast
// flat graphics (dark logo on light ground) whose variance profile is
// bimodal rather than noisy.
type BrightnessDetector struct {
	cfg Config
}

// Method returns region.MethodBrightness.
func (d *BrightnessDetector) Method() region.Method { return region.MethodBrightness }

// Detect keeps merged top-contrast windows (top 15% by default) whose area
// falls within the configured band. method_metadata.contrast_level carries
// the peak standard deviation of the merged region.
func (d *BrightnessDetector) Detect(img image.Image, pageIndex int) ([]region.Region, error) {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, nil
	}

	gray := raster.Luminance(img)
	windows := slidingVariance(gray, d.cfg.BrightnessWindow, d.cfg.BrightnessStep)
	if len(windows) == 0 {
		return nil, nil
	}

	// Contrast is the standard deviation, not the raw variance.
	for i := range windows {
		windows[i].stat = math.Sqrt(windows[i].stat)
	}

	stats := make([]float64, len(windows))
	for i, w := range windows {
		stats[i] = w.stat
	}
	cutoff := percentileCutoff(stats, d.cfg.BrightnessPercentile)
	if cutoff <= 0 {
		return nil, nil
	}

	keep := make([]window, 0)
	for _, w := range windows {
		if w.stat >= cutoff {
			keep = append(keep, w)
		}
	}

	candidates := make([]region.Region, 0)
	for _, w := range mergeWindows(keep) {
		area := w.bounds.Area()
		if area < d.cfg.BrightnessMinArea || area > d.cfg.BrightnessMaxArea {
			continue
		}
		candidates = append(candidates, region.New(pageIndex, w.bounds, region.MethodBrightness, region.Metadata{
			"contrast_level": math.Round(w.stat*1000) / 1000,
		}))
	}
	return candidates, nil
}
