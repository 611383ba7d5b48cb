package detect

import (
	"math"
	"sort"

	"github.com/ironsheep/graphic-scout/internal/region"
)

// window is one sliding-window sample with its statistic (variance or
// standard deviation, depending on the strategy).
type window struct {
	bounds region.Bounds
	stat   float64
}

// slidingVariance computes the local luminance variance for every window of
// size win stepped by step across the matrix. Windows that do not fit
// entirely inside the image are skipped.
func slidingVariance(gray [][]float64, win, step int) []window {
	height := len(gray)
	if height == 0 || win <= 0 || step <= 0 {
		return nil
	}
	width := len(gray[0])

	windows := make([]window, 0)
	for y := 0; y+win <= height; y += step {
		for x := 0; x+win <= width; x += step {
			var sum, sumSq float64
			for wy := 0; wy < win; wy++ {
				for wx := 0; wx < win; wx++ {
					v := gray[y+wy][x+wx]
					sum += v
					sumSq += v * v
				}
			}
			n := float64(win * win)
			mean := sum / n
			variance := sumSq/n - mean*mean
			if variance < 0 {
				variance = 0 // float round-off
			}
			windows = append(windows, window{
				bounds: region.Bounds{X1: x, Y1: y, X2: x + win, Y2: y + win},
				stat:   variance,
			})
		}
	}
	return windows
}

// percentileCutoff returns the value at the given percentile (0-1) of vals.
// The input slice is not modified. An empty input yields +Inf so that no
// window passes the cutoff.
func percentileCutoff(vals []float64, percentile float64) float64 {
	if len(vals) == 0 {
		return math.Inf(1)
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	idx := int(percentile * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

// mergeWindows combines overlapping windows into union bounds, keeping the
// maximum statistic of the merged members. Insertion order is preserved for
// determinism.
func mergeWindows(windows []window) []window {
	merged := make([]window, 0, len(windows))
	for _, w := range windows {
		absorbed := false
		for i := range merged {
			if w.bounds.Overlaps(merged[i].bounds) {
				merged[i].bounds = merged[i].bounds.Union(w.bounds)
				merged[i].stat = math.Max(merged[i].stat, w.stat)
				absorbed = true
				break
			}
		}
		if !absorbed {
			merged = append(merged, w)
		}
	}
	return merged
}
