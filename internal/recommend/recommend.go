// Package recommend combines heuristic region confidence with semantic
// classification confidence into one ranked, explainable recommendation
// list, plus an aggregate analysis summary.
package recommend

import (
	"fmt"
	"sort"

	"github.com/ironsheep/graphic-scout/internal/classify"
	"github.com/ironsheep/graphic-scout/internal/region"
	"github.com/ironsheep/graphic-scout/internal/score"
)

// Recommendation is the final ranked unit exposed to callers: one surfaced
// region, its classification, the blended overall score, and human-readable
// justification strings generated from a fixed rule table.
type Recommendation struct {
	Region         region.Region           `json:"region"`
	Classification classify.Classification `json:"classification"`
	OverallScore   float64                 `json:"overall_score"`
	Justification  []string                `json:"justification"`
}

// Threshold above which a heuristic confidence is called out as high in
// justifications and summary buckets.
const highConfidence = 0.6

// methodJustifications is part of the fixed justification rule table.
var methodJustifications = map[region.Method]string{
	region.MethodColor:      "Detected through color segmentation",
	region.MethodEdge:       "Detected through edge analysis",
	region.MethodContour:    "Detected through contour analysis",
	region.MethodTexture:    "Detected through texture analysis",
	region.MethodPosition:   "Located in a prominent page position",
	region.MethodBrightness: "Detected through brightness contrast",
}

// Build creates one Recommendation per surfaced region and returns the list
// sorted descending by overall score, with the canonical region tie-break
// for equal scores. regions and classifications must be parallel slices;
// every region yields a Recommendation, including those whose classification
// failed.
func Build(regions []region.Region, classifications []classify.Classification) []Recommendation {
	recs := make([]Recommendation, 0, len(regions))
	for i, r := range regions {
		var c classify.Classification
		if i < len(classifications) {
			c = classifications[i]
		} else {
			c = classify.Failed("no classification produced")
		}
		recs = append(recs, Recommendation{
			Region:         r,
			Classification: c,
			OverallScore:   overallScore(r, c),
			Justification:  justify(r, c),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].OverallScore != recs[j].OverallScore {
			return recs[i].OverallScore > recs[j].OverallScore
		}
		return score.Less(recs[i].Region, recs[j].Region)
	})
	return recs
}

// overallScore blends heuristic and semantic confidence. A failed
// classification demotes the candidate to half its heuristic confidence but
// never discards it.
func overallScore(r region.Region, c classify.Classification) float64 {
	if c.Success {
		return (r.Confidence + c.AIConfidence) / 2
	}
	return r.Confidence * 0.5
}

// justify applies the fixed rule table in order. The output is a stable,
// enumerable set of reasons, not free text.
func justify(r region.Region, c classify.Classification) []string {
	reasons := make([]string, 0, 4)

	if r.Confidence > highConfidence {
		reasons = append(reasons, "High detection confidence")
	}
	if msg, ok := methodJustifications[r.Method]; ok {
		reasons = append(reasons, msg)
	}
	if r.Support > 1 {
		reasons = append(reasons, fmt.Sprintf("Confirmed by %d independent detections", r.Support))
	}
	if c.Success && c.GraphicType != classify.TypeUnknown && c.GraphicType != classify.TypeError {
		reasons = append(reasons, fmt.Sprintf("AI identified as %s", c.GraphicType))
	}
	if c.BrandOrCompany != "" {
		reasons = append(reasons, fmt.Sprintf("Recognized brand: %s", c.BrandOrCompany))
	}
	if !c.Success {
		reasons = append(reasons, "Classification unavailable, heuristic signals only")
	}
	return reasons
}

// Summary aggregates counts over everything the pipeline surfaced.
type Summary struct {
	TotalRegions  int            `json:"total_regions"`
	HighCount     int            `json:"high_confidence_count"`   // confidence > 0.7
	MediumCount   int            `json:"medium_confidence_count"` // 0.4 < confidence <= 0.7
	LowCount      int            `json:"low_confidence_count"`    // confidence <= 0.4
	ByMethod      map[string]int `json:"by_detection_method"`
	ByGraphicType map[string]int `json:"by_graphic_type"`
	Brands        []string       `json:"brands_found"`
}

// Summarize builds the analysis summary over all deduplicated regions and
// the classifications of the surfaced subset.
func Summarize(regions []region.Region, classifications []classify.Classification) Summary {
	s := Summary{
		TotalRegions:  len(regions),
		ByMethod:      make(map[string]int),
		ByGraphicType: make(map[string]int),
	}

	for _, r := range regions {
		switch {
		case r.Confidence > 0.7:
			s.HighCount++
		case r.Confidence > 0.4:
			s.MediumCount++
		default:
			s.LowCount++
		}
		s.ByMethod[string(r.Method)]++
	}

	brandSet := make(map[string]struct{})
	for _, c := range classifications {
		s.ByGraphicType[c.GraphicType]++
		if c.BrandOrCompany != "" {
			brandSet[c.BrandOrCompany] = struct{}{}
		}
	}

	s.Brands = make([]string, 0, len(brandSet))
	for b := range brandSet {
		s.Brands = append(s.Brands, b)
	}
	sort.Strings(s.Brands)

	return s
}
