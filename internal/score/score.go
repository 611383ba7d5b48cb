// Package score computes composite confidence for candidate regions from
// geometric, positional, and method-provenance signals, and defines the
// deterministic ordering used everywhere ranked regions are surfaced.
package score

import (
	"sort"

	"github.com/ironsheep/graphic-scout/internal/detect"
	"github.com/ironsheep/graphic-scout/internal/region"
)

// Config holds the bonus table for the composite score. Bonuses are added
// independently and the sum is capped to [0,1]; no signal can veto another.
type Config struct {
	// Size bonuses. Areas in [SizePeakMin, SizePeakMax] receive
	// SizePeakBonus; areas in (SizePeakMax, SizeOuterMax] receive
	// SizeOuterBonus; everything else receives none.
	SizePeakMin    int
	SizePeakMax    int
	SizeOuterMax   int
	SizePeakBonus  float64
	SizeOuterBonus float64

	// Position-slot bonuses, applied only to position-prior candidates.
	SlotPrimaryBonus   float64 // center, top_right
	SlotSecondaryBonus float64 // top_left

	// Per-method provenance bonuses. Edge and texture carry the most
	// specific signal; a position prior alone says almost nothing.
	MethodBonus map[region.Method]float64

	// Aspect-ratio bonus for ratios within [AspectMin, AspectMax];
	// logos and icons are rarely extreme slivers.
	AspectMin   float64
	AspectMax   float64
	AspectBonus float64
}

// DefaultConfig returns the standard bonus table.
func DefaultConfig() Config {
	return Config{
		SizePeakMin:    200,
		SizePeakMax:    5000,
		SizeOuterMax:   20000,
		SizePeakBonus:  0.30,
		SizeOuterBonus: 0.15,

		SlotPrimaryBonus:   0.25,
		SlotSecondaryBonus: 0.15,

		MethodBonus: map[region.Method]float64{
			region.MethodEdge:       0.25,
			region.MethodTexture:    0.25,
			region.MethodContour:    0.20,
			region.MethodColor:      0.15,
			region.MethodBrightness: 0.15,
			region.MethodPosition:   0.05,
		},

		AspectMin:   0.3,
		AspectMax:   5.0,
		AspectBonus: 0.15,
	}
}

// Scorer assigns composite confidence scores to regions.
type Scorer struct {
	cfg Config
}

// New creates a scorer with the given bonus table.
func New(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the composite confidence for one region. The result is
// always within [0,1]. Metadata keys are read defensively: a missing or
// malformed key contributes a neutral bonus, never an error.
func (s *Scorer) Score(r region.Region) float64 {
	total := s.sizeBonus(r.Bounds.Area()) +
		s.slotBonus(r) +
		s.cfg.MethodBonus[r.Method] +
		s.aspectBonus(r.Bounds.AspectRatio())

	if total > 1 {
		total = 1
	}
	if total < 0 {
		total = 0
	}
	return total
}

// Apply scores every region in place.
func (s *Scorer) Apply(regions []region.Region) {
	for i := range regions {
		regions[i].Confidence = s.Score(regions[i])
	}
}

func (s *Scorer) sizeBonus(area int) float64 {
	switch {
	case area >= s.cfg.SizePeakMin && area <= s.cfg.SizePeakMax:
		return s.cfg.SizePeakBonus
	case area > s.cfg.SizePeakMax && area <= s.cfg.SizeOuterMax:
		return s.cfg.SizeOuterBonus
	default:
		return 0
	}
}

func (s *Scorer) slotBonus(r region.Region) float64 {
	if r.Method != region.MethodPosition {
		return 0
	}
	switch r.Metadata.Str("position") {
	case detect.SlotCenter, detect.SlotTopRight:
		return s.cfg.SlotPrimaryBonus
	case detect.SlotTopLeft:
		return s.cfg.SlotSecondaryBonus
	default:
		return 0
	}
}

func (s *Scorer) aspectBonus(aspect float64) float64 {
	if aspect >= s.cfg.AspectMin && aspect <= s.cfg.AspectMax {
		return s.cfg.AspectBonus
	}
	return 0
}

// Less is the canonical strict ordering for ranked regions. Higher
// confidence first; ties are broken by cluster support (more distinct
// detections first), then smaller page index, then top-left-most center
// (smaller Y, then smaller X) for full determinism.
func Less(a, b region.Region) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Support != b.Support {
		return a.Support > b.Support
	}
	if a.PageIndex != b.PageIndex {
		return a.PageIndex < b.PageIndex
	}
	ca, cb := a.Bounds.Center(), b.Bounds.Center()
	if ca.Y != cb.Y {
		return ca.Y < cb.Y
	}
	return ca.X < cb.X
}

// Sort orders regions by Less.
func Sort(regions []region.Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		return Less(regions[i], regions[j])
	})
}
