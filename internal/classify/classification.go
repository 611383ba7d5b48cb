package classify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Graphic types the service may assign. Unknown marks a response that could
// not be parsed structurally; Error marks a failed call.
const (
	TypeLogo         = "logo"
	TypeIllustration = "illustration"
	TypeDiagram      = "diagram"
	TypeChart        = "chart"
	TypeIcon         = "icon"
	TypeOther        = "other"
	TypeUnknown      = "unknown"
	TypeError        = "error"
)

// Quality levels the service may assign.
const (
	QualityHigh    = "high"
	QualityMedium  = "medium"
	QualityLow     = "low"
	QualityUnknown = "unknown"
)

// Classification is the semantic judgment of one cropped region. It is
// immutable once created; failed calls still produce a Classification (with
// Success=false) so failures stay visible and countable.
type Classification struct {
	GraphicType        string   `json:"graphic_type"`
	ContentDescription string   `json:"content_description,omitempty"`
	Colors             []string `json:"colors,omitempty"`
	BrandOrCompany     string   `json:"brand_or_company,omitempty"`
	Quality            string   `json:"quality"`
	AIConfidence       float64  `json:"ai_confidence"`
	Success            bool     `json:"success"`
	ErrorReason        string   `json:"error_reason,omitempty"`
}

// Failed fabricates the Classification for a failed call.
func Failed(reason string) Classification {
	return Classification{
		GraphicType:  TypeError,
		Quality:      QualityUnknown,
		AIConfidence: 0,
		Success:      false,
		ErrorReason:  reason,
	}
}

// responsePayload is the documented response schema the service is prompted
// to produce.
type responsePayload struct {
	GraphicType        string   `json:"graphic_type"`
	ContentDescription string   `json:"content_description"`
	Colors             []string `json:"colors"`
	BrandOrCompany     string   `json:"brand_or_company"`
	Quality            string   `json:"quality"`
	Confidence         float64  `json:"confidence"`
}

// responseSchema constrains the shape of a structured response before it is
// accepted. Everything beyond graphic_type is optional so that a terse but
// honest model response still validates.
const responseSchema = `{
	"type": "object",
	"required": ["graphic_type"],
	"properties": {
		"graphic_type": {
			"type": "string",
			"enum": ["logo", "illustration", "diagram", "chart", "icon", "other", "unknown"]
		},
		"content_description": {"type": "string"},
		"colors": {"type": "array", "items": {"type": "string"}},
		"brand_or_company": {"type": "string"},
		"quality": {"type": "string", "enum": ["high", "medium", "low", "unknown"]},
		"confidence": {"type": "number"}
	}
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
)

func schema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("response.json", bytes.NewReader([]byte(responseSchema))); err != nil {
			panic(fmt.Sprintf("add classification schema: %v", err))
		}
		compiledSchema = compiler.MustCompile("response.json")
	})
	return compiledSchema
}

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// Parse normalizes a raw service response into a Classification.
//
// It tries, in order: the whole content as JSON, then the contents of the
// first fenced code block. A candidate payload must validate against the
// response schema to be accepted. When no structured payload survives, the
// call still counts as a success with GraphicType unknown and the raw text
// stored in ContentDescription.
func Parse(content string) Classification {
	content = strings.TrimSpace(content)

	if c, ok := parsePayload(content); ok {
		return c
	}
	if matches := jsonBlockRegex.FindStringSubmatch(content); len(matches) >= 2 {
		if c, ok := parsePayload(strings.TrimSpace(matches[1])); ok {
			return c
		}
	}

	return Classification{
		GraphicType:        TypeUnknown,
		ContentDescription: content,
		Quality:            QualityUnknown,
		AIConfidence:       0,
		Success:            true,
	}
}

func parsePayload(content string) (Classification, bool) {
	var generic any
	if err := json.Unmarshal([]byte(content), &generic); err != nil {
		return Classification{}, false
	}
	if err := schema().Validate(generic); err != nil {
		return Classification{}, false
	}

	var payload responsePayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return Classification{}, false
	}

	return Classification{
		GraphicType:        normalizeEnum(payload.GraphicType, TypeUnknown),
		ContentDescription: payload.ContentDescription,
		Colors:             payload.Colors,
		BrandOrCompany:     payload.BrandOrCompany,
		Quality:            normalizeEnum(payload.Quality, QualityUnknown),
		AIConfidence:       clamp01(payload.Confidence),
		Success:            true,
	}, true
}

func normalizeEnum(v, fallback string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return fallback
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
