package crop

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/ironsheep/graphic-scout/internal/region"
)

func testPage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func TestExtractBasicCrop(t *testing.T) {
	page := testPage(200, 200)
	draw.Draw(page, image.Rect(50, 50, 100, 100),
		image.NewUniform(color.RGBA{R: 220, A: 255}), image.Point{}, draw.Src)

	e := NewExtractor(1.0)
	r := region.New(2, region.Bounds{X1: 50, Y1: 50, X2: 100, Y2: 100}, region.MethodColor, nil)

	ref, raw, err := e.Extract(page, r)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if ref.ID == "" {
		t.Error("crop ID is empty")
	}
	if ref.PageIndex != 2 {
		t.Errorf("page index: got %d, want 2", ref.PageIndex)
	}
	if ref.Width != 50 || ref.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", ref.Width, ref.Height)
	}
	if ref.MimeType != "image/png" {
		t.Errorf("mime type: got %q", ref.MimeType)
	}

	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("raw payload is not valid PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 50 {
		t.Errorf("decoded width: got %d, want 50", decoded.Bounds().Dx())
	}

	fromB64, err := base64.StdEncoding.DecodeString(ref.PNGBase64)
	if err != nil {
		t.Fatalf("PNGBase64 is not valid base64: %v", err)
	}
	if !bytes.Equal(fromB64, raw) {
		t.Error("base64 payload differs from raw PNG bytes")
	}

	if len(ref.DominantColors) == 0 {
		t.Error("dominant palette is empty")
	}
	if ref.DominantColors[0].Hex != "#D00000" {
		t.Errorf("dominant color: got %s, want #D00000", ref.DominantColors[0].Hex)
	}
}

func TestExtractZoomScalesCrop(t *testing.T) {
	page := testPage(100, 100)
	e := NewExtractor(2.0)
	r := region.New(0, region.Bounds{X1: 10, Y1: 10, X2: 40, Y2: 50}, region.MethodEdge, nil)

	ref, _, err := e.Extract(page, r)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if ref.Width != 60 || ref.Height != 80 {
		t.Errorf("zoomed dimensions: got %dx%d, want 60x80", ref.Width, ref.Height)
	}
	// Bounds stay in page coordinates, not zoomed ones.
	want := region.Bounds{X1: 10, Y1: 10, X2: 40, Y2: 50}
	if ref.Bounds != want {
		t.Errorf("bounds: got %+v, want %+v", ref.Bounds, want)
	}
}

func TestExtractClampsToPage(t *testing.T) {
	page := testPage(100, 100)
	e := NewExtractor(1.0)
	r := region.New(0, region.Bounds{X1: -20, Y1: 60, X2: 50, Y2: 180}, region.MethodEdge, nil)

	ref, _, err := e.Extract(page, r)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	want := region.Bounds{X1: 0, Y1: 60, X2: 50, Y2: 100}
	if ref.Bounds != want {
		t.Errorf("clamped bounds: got %+v, want %+v", ref.Bounds, want)
	}
	if ref.Width != 50 || ref.Height != 40 {
		t.Errorf("dimensions: got %dx%d, want 50x40", ref.Width, ref.Height)
	}
}

func TestExtractDegenerateBoxes(t *testing.T) {
	page := testPage(100, 100)
	e := NewExtractor(1.0)

	tests := []struct {
		name string
		b    region.Bounds
	}{
		{"empty box", region.Bounds{X1: 30, Y1: 30, X2: 30, Y2: 30}},
		{"inverted box", region.Bounds{X1: 60, Y1: 60, X2: 40, Y2: 40}},
		{"fully outside", region.Bounds{X1: 500, Y1: 500, X2: 600, Y2: 600}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, raw, err := e.Extract(page, region.New(0, tt.b, region.MethodEdge, nil))
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if ref.Width < 1 || ref.Height < 1 {
				t.Errorf("degenerate crop: got %dx%d, want at least 1x1", ref.Width, ref.Height)
			}
			if len(raw) == 0 {
				t.Error("degenerate crop produced no PNG payload")
			}
		})
	}
}

func TestExtractUniqueIDs(t *testing.T) {
	page := testPage(50, 50)
	e := NewExtractor(1.0)
	r := region.New(0, region.Bounds{X1: 5, Y1: 5, X2: 25, Y2: 25}, region.MethodEdge, nil)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		ref, _, err := e.Extract(page, r)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if seen[ref.ID] {
			t.Fatalf("duplicate crop ID %s", ref.ID)
		}
		seen[ref.ID] = true
	}
}

func TestNewExtractorNormalizesZoom(t *testing.T) {
	if e := NewExtractor(0); e.Zoom != 1.0 {
		t.Errorf("zero zoom: got %f, want 1.0", e.Zoom)
	}
	if e := NewExtractor(-3); e.Zoom != 1.0 {
		t.Errorf("negative zoom: got %f, want 1.0", e.Zoom)
	}
	if e := NewExtractor(2.5); e.Zoom != 2.5 {
		t.Errorf("explicit zoom: got %f, want 2.5", e.Zoom)
	}
}
