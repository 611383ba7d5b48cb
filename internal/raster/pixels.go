package raster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"sort"
)

// Luminance converts an image to a grayscale matrix using ITU-R BT.601
// luminance weights (0.299*R + 0.587*G + 0.114*B), normalized to [0,1].
//
// The matrix is indexed [y][x] relative to the image origin, so callers can
// iterate without carrying bounds offsets. Several detectors share one
// luminance matrix per page instead of re-reading pixels.
func Luminance(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := make([][]float64, height)
	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			rf := float64(r>>8) / 255.0
			gf := float64(g>>8) / 255.0
			bf := float64(b>>8) / 255.0
			gray[y][x] = 0.299*rf + 0.587*gf + 0.114*bf
		}
	}
	return gray
}

// EncodePNG encodes an image to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNGBase64 encodes an image to a base64 PNG string.
func EncodePNGBase64(img image.Image) (string, error) {
	raw, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// ColorFrequency represents a quantized color and its occurrence frequency.
type ColorFrequency struct {
	Hex        string  `json:"hex"`        // Hex color "#RRGGBB" (quantized)
	Percentage float64 `json:"percentage"` // Percentage of pixels with this color (0-100)
}

// DominantColors extracts the count most common colors from an image.
//
// To group similar colors, RGB components are quantized to multiples of 16
// (colors within 16 units per component fall into the same bucket). Results
// are sorted by frequency descending, with the hex string as a deterministic
// tie-break. The returned palette is attached to crops to enrich
// classification prompts.
func DominantColors(img image.Image, count int) []ColorFrequency {
	bounds := img.Bounds()

	colorCounts := make(map[string]int)
	totalPixels := 0

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			r8 := uint8((r >> 8) / 16 * 16)
			g8 := uint8((g >> 8) / 16 * 16)
			b8 := uint8((b >> 8) / 16 * 16)
			key := fmt.Sprintf("#%02X%02X%02X", r8, g8, b8)
			colorCounts[key]++
			totalPixels++
		}
	}

	if totalPixels == 0 {
		return nil
	}

	colors := make([]ColorFrequency, 0, len(colorCounts))
	for hex, cnt := range colorCounts {
		colors = append(colors, ColorFrequency{
			Hex:        hex,
			Percentage: float64(cnt) / float64(totalPixels) * 100,
		})
	}

	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})

	if len(colors) > count {
		colors = colors[:count]
	}
	return colors
}
