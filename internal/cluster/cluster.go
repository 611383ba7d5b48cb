// Package cluster deduplicates candidate regions across detectors.
//
// The same visual element is typically found by several detectors at once,
// each with a slightly different bounding box. Candidates are embedded into
// a normalized geometric feature space and grouped by density-based spatial
// clustering (DBSCAN); each resulting cluster is collapsed to a single
// representative region whose bounding box is the union of its members.
package cluster

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/graphic-scout/internal/region"
	"github.com/ironsheep/graphic-scout/internal/score"
)

// Config holds the clustering parameters.
//
// Features are normalized against fixed reference constants rather than the
// actual page size, so the neighborhood radius means the same thing across
// documents of varying resolution.
type Config struct {
	// NeighborhoodRadius is the DBSCAN eps in standardized feature space.
	NeighborhoodRadius float64

	// MinSamples is the DBSCAN core-point threshold. With the default of 1,
	// an isolated, unrepeated detection still forms its own singleton
	// cluster rather than being discarded as noise.
	MinSamples int

	// Reference constants for feature normalization.
	ReferenceWidth  float64
	ReferenceHeight float64
	ReferenceArea   float64
}

// DefaultConfig returns the standard clustering parameters.
func DefaultConfig() Config {
	return Config{
		NeighborhoodRadius: 0.5,
		MinSamples:         1,
		ReferenceWidth:     1000,
		ReferenceHeight:    1000,
		ReferenceArea:      50000,
	}
}

// Clusterer groups candidate regions referring to the same visual element.
type Clusterer struct {
	cfg    Config
	scorer *score.Scorer
}

// New creates a clusterer. The scorer is used only for the lightweight
// pre-score that selects cluster representatives.
func New(cfg Config, scorer *score.Scorer) *Clusterer {
	return &Clusterer{cfg: cfg, scorer: scorer}
}

// Cluster groups the concatenated candidate list for one page.
//
// Clusters are connected components of the eps-neighbor graph, not
// necessarily globally compact: every member is within eps of at least one
// other member, transitively. Zero candidates yield zero clusters, no error.
// Cluster order follows the first member's position in the input, and member
// order within a cluster is discovery order, so output is deterministic for
// a fixed input order.
func (c *Clusterer) Cluster(candidates []region.Region) []region.Cluster {
	if len(candidates) == 0 {
		return nil
	}

	features := c.standardizedFeatures(candidates)
	labels := c.dbscan(features)

	// Group members by label, preserving input order.
	order := make([]int, 0)
	groups := make(map[int][]region.Region)
	for i, lbl := range labels {
		if _, seen := groups[lbl]; !seen {
			order = append(order, lbl)
		}
		groups[lbl] = append(groups[lbl], candidates[i])
	}

	clusters := make([]region.Cluster, 0, len(order))
	for _, lbl := range order {
		members := groups[lbl]
		clusters = append(clusters, region.Cluster{
			Members:        members,
			Representative: c.representative(members),
		})
	}
	return clusters
}

// Representatives returns only the representative region of each cluster,
// in cluster order.
func (c *Clusterer) Representatives(candidates []region.Region) []region.Region {
	clusters := c.Cluster(candidates)
	reps := make([]region.Region, 0, len(clusters))
	for _, cl := range clusters {
		reps = append(reps, cl.Representative)
	}
	return reps
}

// representative selects one member to stand for the cluster.
//
// Singleton clusters pass their member through unchanged. For larger
// clusters the member with the best lightweight pre-score wins, its bounding
// box is widened to the union of all members, its confidence becomes the
// member maximum (never exceeding 1), and its support records the member
// count.
func (c *Clusterer) representative(members []region.Region) region.Region {
	if len(members) == 1 {
		return members[0]
	}

	best := 0
	bestScored := members[0]
	bestScored.Confidence = c.scorer.Score(members[0])
	for i := 1; i < len(members); i++ {
		scored := members[i]
		scored.Confidence = c.scorer.Score(members[i])
		if score.Less(scored, bestScored) {
			best = i
			bestScored = scored
		}
	}

	rep := members[best]
	union := members[0].Bounds
	maxConf := 0.0
	support := 0
	for _, m := range members {
		union = union.Union(m.Bounds)
		if m.Confidence > maxConf {
			maxConf = m.Confidence
		}
		support += m.Support
	}
	rep.Bounds = union
	rep.Confidence = math.Min(maxConf, 1)
	rep.Support = support
	return rep
}

// standardizedFeatures embeds every candidate as (cx/refW, cy/refH,
// area/refArea), then standardizes each dimension to zero mean and unit
// variance across the candidate set. A dimension with zero spread stays
// centered at zero instead of dividing by zero.
func (c *Clusterer) standardizedFeatures(candidates []region.Region) [][3]float64 {
	n := len(candidates)
	features := make([][3]float64, n)
	dims := make([][]float64, 3)
	for d := range dims {
		dims[d] = make([]float64, n)
	}

	for i, cand := range candidates {
		center := cand.Bounds.Center()
		dims[0][i] = float64(center.X) / c.cfg.ReferenceWidth
		dims[1][i] = float64(center.Y) / c.cfg.ReferenceHeight
		dims[2][i] = float64(cand.Bounds.Area()) / c.cfg.ReferenceArea
	}

	for d := 0; d < 3; d++ {
		mean := stat.Mean(dims[d], nil)
		std := stat.StdDev(dims[d], nil)
		for i := 0; i < n; i++ {
			if std > 0 {
				features[i][d] = (dims[d][i] - mean) / std
			} else {
				features[i][d] = 0
			}
		}
	}
	return features
}

// dbscan labels each point with a cluster ID. With MinSamples <= 1 every
// point is a core point and the algorithm reduces to connected components of
// the eps-neighbor graph, which matches the intent: repeated detections
// chain together, lone detections survive as singletons.
func (c *Clusterer) dbscan(features [][3]float64) []int {
	n := len(features)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	eps := c.cfg.NeighborhoodRadius
	next := 0
	for i := 0; i < n; i++ {
		if labels[i] != -1 {
			continue
		}

		neighbors := c.neighborsOf(features, i, eps)
		if len(neighbors) < c.cfg.MinSamples {
			// Below the core threshold the point still gets its own
			// singleton cluster: candidates are never discarded here.
			labels[i] = next
			next++
			continue
		}

		labels[i] = next
		queue := neighbors
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			if labels[j] != -1 {
				continue
			}
			labels[j] = next
			expansion := c.neighborsOf(features, j, eps)
			if len(expansion) >= c.cfg.MinSamples {
				queue = append(queue, expansion...)
			}
		}
		next++
	}
	return labels
}

func (c *Clusterer) neighborsOf(features [][3]float64, i int, eps float64) []int {
	neighbors := make([]int, 0)
	for j := range features {
		if j == i {
			continue
		}
		if euclidean(features[i], features[j]) <= eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

func euclidean(a, b [3]float64) float64 {
	var sum float64
	for d := 0; d < 3; d++ {
		diff := a[d] - b[d]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
