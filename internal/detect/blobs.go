package detect

import (
	"math"

	"github.com/ironsheep/graphic-scout/internal/region"
)

// blob is a connected component of foreground pixels in a binary mask.
type blob struct {
	bounds region.Bounds
	pixels int
}

// gradientEdges marks pixels whose horizontal or vertical luminance gradient
// exceeds threshold (0-255 scale). Border pixels are never edges.
//
// gray is a [y][x] luminance matrix normalized to [0,1].
func gradientEdges(gray [][]float64, threshold float64) [][]bool {
	height := len(gray)
	if height == 0 {
		return nil
	}
	width := len(gray[0])
	thresh := threshold / 255.0

	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		if y == 0 || y == height-1 {
			continue
		}
		for x := 1; x < width-1; x++ {
			dx := math.Abs(gray[y][x] - gray[y][x+1])
			dy := math.Abs(gray[y][x] - gray[y+1][x])
			if dx > thresh || dy > thresh {
				edges[y][x] = true
			}
		}
	}
	return edges
}

// unionMasks returns the pixel-wise union of two equally sized binary masks.
func unionMasks(a, b [][]bool) [][]bool {
	out := make([][]bool, len(a))
	for y := range a {
		out[y] = make([]bool, len(a[y]))
		for x := range a[y] {
			out[y][x] = a[y][x] || b[y][x]
		}
	}
	return out
}

// findBlobs groups connected foreground pixels into blobs using iterative
// flood-fill with 8-connectivity. Blobs smaller than minPixels are discarded
// as noise. Scan order is row-major, so blob order is deterministic.
func findBlobs(mask [][]bool, minPixels int) []blob {
	height := len(mask)
	if height == 0 {
		return nil
	}
	width := len(mask[0])

	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		visited[y] = make([]bool, width)
	}

	blobs := make([]blob, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !mask[y][x] || visited[y][x] {
				continue
			}
			b := floodFill(mask, visited, x, y, width, height)
			if b.pixels >= minPixels {
				blobs = append(blobs, b)
			}
		}
	}
	return blobs
}

// floodFill collects one connected component starting at (startX, startY).
// Uses a stack-based approach (not recursive) to avoid stack overflow on
// large components.
func floodFill(mask, visited [][]bool, startX, startY, width, height int) blob {
	type point struct{ x, y int }
	stack := []point{{startX, startY}}

	minX, minY := startX, startY
	maxX, maxY := startX, startY
	pixels := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.x < 0 || p.x >= width || p.y < 0 || p.y >= height {
			continue
		}
		if visited[p.y][p.x] || !mask[p.y][p.x] {
			continue
		}

		visited[p.y][p.x] = true
		pixels++

		if p.x < minX {
			minX = p.x
		}
		if p.x > maxX {
			maxX = p.x
		}
		if p.y < minY {
			minY = p.y
		}
		if p.y > maxY {
			maxY = p.y
		}

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, point{p.x + dx, p.y + dy})
			}
		}
	}

	return blob{
		bounds: region.Bounds{X1: minX, Y1: minY, X2: maxX + 1, Y2: maxY + 1},
		pixels: pixels,
	}
}
