package detect

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/graphic-scout/internal/region"
)

// Detector is one independent candidate-generation strategy.
//
// Detect must be a pure function of the image: no shared mutable state, safe
// to call concurrently with other detectors on the same raster.
type Detector interface {
	// Method identifies the strategy for provenance tracking.
	Method() region.Method

	// Detect scans the raster and returns candidate regions with zero
	// confidence. An empty page yields an empty slice, not an error.
	Detect(img image.Image, pageIndex int) ([]region.Region, error)
}

// Config holds the tuning thresholds for all detection strategies.
//
// The defaults are manually tuned starting points, not a contract; they are
// carried as explicit configuration (never package globals) so one process
// can run multiple configurations concurrently.
type Config struct {
	// Color strategy: connected blobs per color band are kept when their
	// pixel count falls within [ColorMinArea, ColorMaxArea].
	ColorMinArea int
	ColorMaxArea int

	// Edge strategy: gradient magnitudes (0-255 scale) above either
	// threshold mark edge pixels; the two maps are unioned. Contours are
	// kept when their bounding-box area is within [EdgeMinArea,
	// EdgeMaxArea] and their edge-pixel density exceeds EdgeMinDensity.
	EdgeThresholdLow  float64
	EdgeThresholdHigh float64
	EdgeMinArea       int
	EdgeMaxArea       int
	EdgeMinDensity    float64

	// Contour strategy: the image is binarized at each threshold level
	// (0-255) to be robust to varying contrast. Dark components are kept
	// within the area band and aspect-ratio band.
	ContourThresholds []uint8
	ContourMinArea    int
	ContourMaxArea    int
	ContourMinAspect  float64
	ContourMaxAspect  float64

	// Texture strategy: local variance over a sliding window; windows in
	// the top (1 - TexturePercentile) fraction are kept and merged.
	TextureWindow     int
	TextureStep       int
	TexturePercentile float64
	TextureMinArea    int
	TextureMaxArea    int

	// Brightness strategy: local contrast (standard deviation of
	// brightness) over a sliding window; top (1 - BrightnessPercentile)
	// fraction kept.
	BrightnessWindow     int
	BrightnessStep       int
	BrightnessPercentile float64
	BrightnessMinArea    int
	BrightnessMaxArea    int

	// Position strategy: when enabled, emits the five canonical layout
	// slots as priors. Pages smaller than MinSlotPageDim in either
	// dimension emit no slots.
	EnablePositionPrior bool
	MinSlotPageDim      int
}

// DefaultConfig returns the standard detection thresholds.
func DefaultConfig() Config {
	return Config{
		ColorMinArea: 50,
		ColorMaxArea: 50000,

		EdgeThresholdLow:  25,
		EdgeThresholdHigh: 60,
		EdgeMinArea:       100,
		EdgeMaxArea:       30000,
		EdgeMinDensity:    0.02,

		ContourThresholds: []uint8{85, 128, 170},
		ContourMinArea:    200,
		ContourMaxArea:    40000,
		ContourMinAspect:  0.1,
		ContourMaxAspect:  10.0,

		TextureWindow:     16,
		TextureStep:       8,
		TexturePercentile: 0.90,
		TextureMinArea:    300,
		TextureMaxArea:    20000,

		BrightnessWindow:     24,
		BrightnessStep:       12,
		BrightnessPercentile: 0.85,
		BrightnessMinArea:    200,
		BrightnessMaxArea:    15000,

		EnablePositionPrior: true,
		MinSlotPageDim:      80,
	}
}

// Registry returns all configured detectors in canonical method order.
func Registry(cfg Config) []Detector {
	detectors := []Detector{
		&ColorDetector{cfg: cfg},
		&EdgeDetector{cfg: cfg},
		&ContourDetector{cfg: cfg},
		&TextureDetector{cfg: cfg},
	}
	if cfg.EnablePositionPrior {
		detectors = append(detectors, &PositionDetector{cfg: cfg})
	}
	detectors = append(detectors, &BrightnessDetector{cfg: cfg})
	return detectors
}

// RunAll executes every detector against the same immutable raster,
// concurrently, and concatenates their candidates in registry order.
//
// A detector that returns an error or panics contributes zero candidates;
// the failure is logged and the remaining detectors proceed. RunAll itself
// never fails: the degenerate outcome is an empty candidate list.
func RunAll(ctx context.Context, logger *slog.Logger, detectors []Detector, img image.Image, pageIndex int) []region.Region {
	results := make([][]region.Region, len(detectors))

	g, ctx := errgroup.WithContext(ctx)
	for i, d := range detectors {
		i, d := i, d
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "detector panicked",
						"method", d.Method(),
						"page", pageIndex,
						"panic", fmt.Sprint(r),
					)
				}
			}()

			candidates, err := d.Detect(img, pageIndex)
			if err != nil {
				logger.WarnContext(ctx, "detector failed",
					"method", d.Method(),
					"page", pageIndex,
					"error", err,
				)
				return nil
			}
			results[i] = candidates
			return nil
		})
	}
	// Detector errors are contained above; Wait only reflects ctx errors
	// from sibling goroutines, which also must not abort the page.
	_ = g.Wait()

	combined := make([]region.Region, 0)
	for _, candidates := range results {
		combined = append(combined, candidates...)
	}
	return combined
}
