package detect

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"

	"github.com/ironsheep/graphic-scout/internal/raster"
	"github.com/ironsheep/graphic-scout/internal/region"
)

// TextureDetector finds regions of high local variance. Illustrations and
// photographic insets have busy pixel neighborhoods; flat page background
// and large type mostly do not. A light Gaussian blur runs first so that
// sensor noise and anti-aliasing fringes do not dominate the variance map.
type TextureDetector struct {
	cfg Config
}

// Method returns region.MethodTexture.
func (d *TextureDetector) Method() region.Method { return region.MethodTexture }

// Detect keeps merged high-variance windows (top decile by default) whose
// area falls within the configured band. method_metadata.texture_variance
// carries the peak variance of the merged region.
func (d *TextureDetector) Detect(img image.Image, pageIndex int) ([]region.Region, error) {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, nil
	}

	gray := raster.Luminance(blur.Gaussian(img, 1.0))
	windows := slidingVariance(gray, d.cfg.TextureWindow, d.cfg.TextureStep)
	if len(windows) == 0 {
		return nil, nil
	}

	stats := make([]float64, len(windows))
	for i, w := range windows {
		stats[i] = w.stat
	}
	cutoff := percentileCutoff(stats, d.cfg.TexturePercentile)
	if cutoff <= 0 {
		// Uniform page: every window has zero variance, nothing to report.
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
		if area < d.cfg.TextureMinArea || area > d.cfg.TextureMaxArea {
			continue
		}
		candidates = append(candidates, region.New(pageIndex, w.bounds, region.MethodTexture, region.Metadata{
			"texture_variance": math.Round(w.stat*1e6) / 1e6,
		}))
	}
	return candidates, nil
}
