package detect

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/graphic-scout/internal/region"
)

// colorBand is one broad color band in HSV space. A pixel belongs to a
// chromatic band when its hue falls in any of the band's hue ranges and its
// saturation and value clear the chromatic floor. Achromatic bands (black,
// white, gray) are matched on saturation and value alone.
type colorBand struct {
	name      string
	hueRanges [][2]float64 // [min, max) in degrees
	matchGray func(s, v float64) bool
}

// Saturation and value floors below which a pixel is considered achromatic.
const (
	chromaticMinSat = 0.25
	chromaticMinVal = 0.20
	achromaticSat   = 0.15
)

// colorBands is the fixed detection palette. Red wraps the hue axis and
// therefore uses two disjoint ranges that are unioned before blob
// extraction.
var colorBands = []colorBand{
	{name: "red", hueRanges: [][2]float64{{0, 10}, {340, 360}}},
	{name: "orange", hueRanges: [][2]float64{{10, 45}}},
	{name: "yellow", hueRanges: [][2]float64{{45, 70}}},
	{name: "green", hueRanges: [][2]float64{{70, 170}}},
	{name: "blue", hueRanges: [][2]float64{{170, 260}}},
	{name: "purple", hueRanges: [][2]float64{{260, 340}}},
	{name: "black", matchGray: func(s, v float64) bool { return v < 0.20 }},
	{name: "white", matchGray: func(s, v float64) bool { return s < achromaticSat && v > 0.85 }},
	{name: "gray", matchGray: func(s, v float64) bool { return s < achromaticSat && v >= 0.20 && v <= 0.85 }},
}

// ColorDetector finds connected blobs of saturated or strongly achromatic
// color, one pass per band in the fixed palette. Brand graphics tend to be
// blocks of a few flat colors, which this strategy isolates well; the huge
// white page background exceeds the blob area cap and is filtered out.
type ColorDetector struct {
	cfg Config
}

// Method returns region.MethodColor.
func (d *ColorDetector) Method() region.Method { return region.MethodColor }

// Detect emits one candidate per color blob whose pixel count is within the
// configured area band. method_metadata.color carries the band name.
func (d *ColorDetector) Detect(img image.Image, pageIndex int) ([]region.Region, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, nil
	}

	// Classify every pixel once; band masks are then cheap bit tests.
	hues := make([][]float64, height)
	sats := make([][]float64, height)
	vals := make([][]float64, height)
	for y := 0; y < height; y++ {
		hues[y] = make([]float64, width)
		sats[y] = make([]float64, width)
		vals[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			c := colorful.Color{
				R: float64(r>>8) / 255.0,
				G: float64(g>>8) / 255.0,
				B: float64(b>>8) / 255.0,
			}
			hues[y][x], sats[y][x], vals[y][x] = c.Hsv()
		}
	}

	candidates := make([]region.Region, 0)
	mask := make([][]bool, height)
	for y := range mask {
		mask[y] = make([]bool, width)
	}

	for _, band := range colorBands {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				mask[y][x] = band.matches(hues[y][x], sats[y][x], vals[y][x])
			}
		}

		for _, b := range findBlobs(mask, d.cfg.ColorMinArea) {
			if b.pixels > d.cfg.ColorMaxArea {
				continue
			}
			candidates = append(candidates, region.New(pageIndex, b.bounds, region.MethodColor, region.Metadata{
				"color":       band.name,
				"pixel_count": b.pixels,
			}))
		}
	}

	return candidates, nil
}

func (b colorBand) matches(h, s, v float64) bool {
	if b.matchGray != nil {
		return b.matchGray(s, v)
	}
	if s < chromaticMinSat || v < chromaticMinVal {
		return false
	}
	for _, hr := range b.hueRanges {
		if h >= hr[0] && h < hr[1] {
			return true
		}
	}
	return false
}
