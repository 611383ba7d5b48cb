package classify

import (
	"fmt"
	"strings"

	"github.com/ironsheep/graphic-scout/internal/crop"
	"github.com/ironsheep/graphic-scout/internal/region"
)

// BuildPrompt composes the instruction sent alongside one crop. The prompt
// pins the response schema and feeds the service the cheap signals already
// known about the region (geometry, detection method, dominant palette) so
// the model judges content rather than re-deriving layout facts.
func BuildPrompt(r region.Region, ref *crop.Ref) string {
	var b strings.Builder

	b.WriteString("You are inspecting a cropped section of a rendered document page. ")
	b.WriteString("Identify any visual element of interest (logo, illustration, diagram, chart, icon).\n\n")

	fmt.Fprintf(&b, "Crop context: page %d, %dx%d px at (%d,%d), found via %s analysis.\n",
		r.PageIndex+1,
		r.Bounds.Width(), r.Bounds.Height(),
		r.Bounds.X1, r.Bounds.Y1,
		r.Method,
	)

	if ref != nil && len(ref.DominantColors) > 0 {
		hexes := make([]string, 0, len(ref.DominantColors))
		for _, c := range ref.DominantColors {
			hexes = append(hexes, c.Hex)
		}
		fmt.Fprintf(&b, "Dominant colors: %s.\n", strings.Join(hexes, ", "))
	}

	b.WriteString("\nRespond with ONLY a JSON object in this exact shape:\n")
	b.WriteString(`{
  "graphic_type": "logo|illustration|diagram|chart|icon|other|unknown",
  "content_description": "one or two sentences",
  "colors": ["color names"],
  "brand_or_company": "name if identifiable, else empty",
  "quality": "high|medium|low|unknown",
  "confidence": 0.0
}`)
	b.WriteString("\nSet confidence between 0 and 1 for how certain you are of graphic_type.")

	return b.String()
}
