package detect

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log/slog"
	"testing"

	"github.com/ironsheep/graphic-scout/internal/region"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// whitePage creates a uniform white test image.
func whitePage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

// fillRect paints a solid rectangle onto the image.
func fillRect(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	draw.Draw(img, image.Rect(x1, y1, x2, y2), image.NewUniform(c), image.Point{}, draw.Src)
}

// fillChecker paints an alternating dark/light block pattern, which gives
// both the variance and the contrast strategies something to find.
func fillChecker(img *image.RGBA, x1, y1, x2, y2, block int) {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			if ((x-x1)/block+(y-y1)/block)%2 == 0 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
}

func TestColorDetectorFindsRedBlob(t *testing.T) {
	// The page is large enough that the white background blob exceeds the
	// area cap and is filtered out.
	img := whitePage(300, 300)
	fillRect(img, 50, 50, 110, 110, color.RGBA{R: 230, G: 20, B: 20, A: 255})

	d := &ColorDetector{cfg: DefaultConfig()}
	got, err := d.Detect(img, 0)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(got), got)
	}

	r := got[0]
	if r.Method != region.MethodColor {
		t.Errorf("method: got %s, want color", r.Method)
	}
	if r.Metadata.Str("color") != "red" {
		t.Errorf("color band: got %q, want red", r.Metadata.Str("color"))
	}
	want := region.Bounds{X1: 50, Y1: 50, X2: 110, Y2: 110}
	if r.Bounds != want {
		t.Errorf("bounds: got %+v, want %+v", r.Bounds, want)
	}
	if r.Metadata.Float("pixel_count") != 3600 {
		t.Errorf("pixel_count: got %v, want 3600", r.Metadata["pixel_count"])
	}
	if r.Confidence != 0 {
		t.Errorf("detector output confidence: got %f, want 0", r.Confidence)
	}
}

func TestColorDetectorEmptyPage(t *testing.T) {
	d := &ColorDetector{cfg: DefaultConfig()}
	got, err := d.Detect(whitePage(300, 300), 0)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("blank page: got %d candidates, want 0: %+v", len(got), got)
	}
}

func TestEdgeDetectorFindsSquareOutline(t *testing.T) {
	img := whitePage(200, 200)
	fillRect(img, 40, 40, 140, 140, color.RGBA{R: 30, G: 30, B: 30, A: 255})

	d := &EdgeDetector{cfg: DefaultConfig()}
	got, err := d.Detect(img, 0)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(got), got)
	}

	r := got[0]
	if r.Method != region.MethodEdge {
		t.Errorf("method: got %s, want edge", r.Method)
	}
	// The contour hugs the square boundary, one pixel of slack either side.
	if r.Bounds.X1 > 40 || r.Bounds.Y1 > 40 || r.Bounds.X2 < 140 || r.Bounds.Y2 < 140 {
		t.Errorf("bounds %+v do not cover the square (40,40,140,140)", r.Bounds)
	}
	if r.Metadata.Float("edge_density") <= 0 {
		t.Errorf("edge_density missing or zero: %v", r.Metadata["edge_density"])
	}
}

func TestEdgeDetectorEmptyPage(t *testing.T) {
	d := &EdgeDetector{cfg: DefaultConfig()}
	got, err := d.Detect(whitePage(200, 200), 0)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("blank page: got %d candidates, want 0", len(got))
	}
}

func TestContourDetectorMultiLevel(t *testing.T) {
	img := whitePage(200, 200)
	fillRect(img, 30, 30, 70, 70, color.Black)

	cfg := DefaultConfig()
	d := &ContourDetector{cfg: cfg}
	got, err := d.Detect(img, 0)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	// Solid black separates at every binarization level.
	if len(got) != len(cfg.ContourThresholds) {
		t.Fatalf("got %d candidates, want %d (one per level): %+v",
			len(got), len(cfg.ContourThresholds), got)
	}

	want := region.Bounds{X1: 30, Y1: 30, X2: 70, Y2: 70}
	seen := make(map[int]bool)
	for _, r := range got {
		if r.Method != region.MethodContour {
			t.Errorf("method: got %s, want contour", r.Method)
		}
		if r.Bounds != want {
			t.Errorf("bounds: got %+v, want %+v", r.Bounds, want)
		}
		lvl, ok := r.Metadata["threshold_used"].(int)
		if !ok {
			t.Fatalf("threshold_used missing or wrong type: %v", r.Metadata["threshold_used"])
		}
		seen[lvl] = true
	}
	for _, lvl := range cfg.ContourThresholds {
		if !seen[int(lvl)] {
			t.Errorf("no candidate from threshold level %d", lvl)
		}
	}
}

func TestContourDetectorAspectFilter(t *testing.T) {
	img := whitePage(400, 200)
	// A 300x2 rule line: aspect 150 is far outside the band.
	fillRect(img, 50, 100, 350, 102, color.Black)

	d := &ContourDetector{cfg: DefaultConfig()}
	got, err := d.Detect(img, 0)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("rule line should be aspect-filtered, got %+v", got)
	}
}

func TestTextureDetectorFindsBusyRegion(t *testing.T) {
	img := whitePage(200, 200)
	fillChecker(img, 40, 40, 120, 120, 4)

	d := &TextureDetector{cfg: DefaultConfig()}
	got, err := d.Detect(img, 0)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected at least one texture candidate")
	}

	checker := region.Bounds{X1: 40, Y1: 40, X2: 120, Y2: 120}
	for _, r := range got {
		if r.Method != region.MethodTexture {
			t.Errorf("method: got %s, want texture", r.Method)
		}
		if !r.Bounds.Overlaps(checker) {
			t.Errorf("candidate %+v does not overlap the busy region", r.Bounds)
		}
		if r.Metadata.Float("texture_variance") <= 0 {
			t.Errorf("texture_variance missing or zero: %v", r.Metadata["texture_variance"])
		}
	}
}

func TestTextureDetectorUniformPage(t *testing.T) {
	d := &TextureDetector{cfg: DefaultConfig()}
	got, err := d.Detect(whitePage(200, 200), 0)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("uniform page: got %d candidates, want 0", len(got))
	}
}

func TestBrightnessDetectorFindsContrastRegion(t *testing.T) {
	img := whitePage(200, 200)
	fillChecker(img, 40, 40, 120, 120, 4)

	d := &BrightnessDetector{cfg: DefaultConfig()}
	got, err := d.Detect(img, 0)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected at least one brightness candidate")
	}

	checker := region.Bounds{X1: 40, Y1: 40, X2: 120, Y2: 120}
	for _, r := range got {
		if r.Method != region.MethodBrightness {
			t.Errorf("method: got %s, want brightness", r.Method)
		}
		if !r.Bounds.Overlaps(checker) {
			t.Errorf("candidate %+v does not overlap the contrast region", r.Bounds)
		}
		if r.Metadata.Float("contrast_level") <= 0 {
			t.Errorf("contrast_level missing or zero: %v", r.Metadata["contrast_level"])
		}
	}
}

func TestBrightnessDetectorUniformPage(t *testing.T) {
	d := &BrightnessDetector{cfg: DefaultConfig()}
	got, err := d.Detect(whitePage(200, 200), 0)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("uniform page: got %d candidates, want 0", len(got))
	}
}

func TestPositionDetectorSlots(t *testing.T) {
	d := &PositionDetector{cfg: DefaultConfig()}
	got, err := d.Detect(whitePage(500, 500), 3)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d slots, want 5", len(got))
	}

	wantBounds := map[string]region.Bounds{
		SlotTopLeft:   {X1: 0, Y1: 0, X2: 125, Y2: 100},
		SlotTopRight:  {X1: 375, Y1: 0, X2: 500, Y2: 100},
		SlotTopCenter: {X1: 150, Y1: 0, X2: 350, Y2: 75},
		SlotCenter:    {X1: 175, Y1: 175, X2: 325, Y2: 325},
		SlotBottom:    {X1: 125, Y1: 425, X2: 375, Y2: 500},
	}
	for _, r := range got {
		if r.Method != region.MethodPosition {
			t.Errorf("method: got %s, want position", r.Method)
		}
		if r.PageIndex != 3 {
			t.Errorf("page index: got %d, want 3", r.PageIndex)
		}
		slot := r.Metadata.Str("position")
		want, ok := wantBounds[slot]
		if !ok {
			t.Errorf("unexpected slot %q", slot)
			continue
		}
		if r.Bounds != want {
			t.Errorf("slot %s: got %+v, want %+v", slot, r.Bounds, want)
		}
		delete(wantBounds, slot)
	}
	if len(wantBounds) != 0 {
		t.Errorf("missing slots: %v", wantBounds)
	}
}

func TestPositionDetectorTinyPage(t *testing.T) {
	d := &PositionDetector{cfg: DefaultConfig()}
	got, err := d.Detect(whitePage(60, 60), 0)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("tiny page: got %d slots, want 0", len(got))
	}
}

func TestRegistryOrder(t *testing.T) {
	cfg := DefaultConfig()
	detectors := Registry(cfg)
	want := []region.Method{
		region.MethodColor,
		region.MethodEdge,
		region.MethodContour,
		region.MethodTexture,
		region.MethodPosition,
		region.MethodBrightness,
	}
	if len(detectors) != len(want) {
		t.Fatalf("got %d detectors, want %d", len(detectors), len(want))
	}
	for i, d := range detectors {
		if d.Method() != want[i] {
			t.Errorf("position %d: got %s, want %s", i, d.Method(), want[i])
		}
	}

	cfg.EnablePositionPrior = false
	for _, d := range Registry(cfg) {
		if d.Method() == region.MethodPosition {
			t.Error("position prior emitted while disabled")
		}
	}
}

// stubDetector returns canned candidates, an error, or a panic.
type stubDetector struct {
	method  region.Method
	regions []region.Region
	err     error
	panics  bool
}

func (s *stubDetector) Method() region.Method { return s.method }

func (s *stubDetector) Detect(_ image.Image, _ int) ([]region.Region, error) {
	if s.panics {
		panic("stub detector exploded")
	}
	return s.regions, s.err
}

func TestRunAllConcatenatesInRegistryOrder(t *testing.T) {
	a := region.New(0, region.Bounds{X1: 0, Y1: 0, X2: 10, Y2: 10}, region.MethodColor, nil)
	b := region.New(0, region.Bounds{X1: 20, Y1: 20, X2: 30, Y2: 30}, region.MethodEdge, nil)
	c := region.New(0, region.Bounds{X1: 40, Y1: 40, X2: 50, Y2: 50}, region.MethodTexture, nil)

	detectors := []Detector{
		&stubDetector{method: region.MethodColor, regions: []region.Region{a}},
		&stubDetector{method: region.MethodEdge, regions: []region.Region{b}},
		&stubDetector{method: region.MethodTexture, regions: []region.Region{c}},
	}

	for run := 0; run < 10; run++ {
		got := RunAll(context.Background(), testLogger(), detectors, whitePage(100, 100), 0)
		if len(got) != 3 {
			t.Fatalf("run %d: got %d candidates, want 3", run, len(got))
		}
		wantOrder := []region.Method{region.MethodColor, region.MethodEdge, region.MethodTexture}
		for i, r := range got {
			if r.Method != wantOrder[i] {
				t.Errorf("run %d position %d: got %s, want %s", run, i, r.Method, wantOrder[i])
			}
		}
	}
}

func TestRunAllContainsFailures(t *testing.T) {
	ok := region.New(0, region.Bounds{X1: 0, Y1: 0, X2: 10, Y2: 10}, region.MethodEdge, nil)
	detectors := []Detector{
		&stubDetector{method: region.MethodColor, err: errors.New("decode failure")},
		&stubDetector{method: region.MethodContour, panics: true},
		&stubDetector{method: region.MethodEdge, regions: []region.Region{ok}},
	}

	got := RunAll(context.Background(), testLogger(), detectors, whitePage(100, 100), 0)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1 from the surviving detector", len(got))
	}
	if got[0].Method != region.MethodEdge {
		t.Errorf("method: got %s, want edge", got[0].Method)
	}
}

func TestGradientEdges(t *testing.T) {
	// A vertical step from dark to light in the middle of a 6x6 field.
	gray := make([][]float64, 6)
	for y := range gray {
		gray[y] = make([]float64, 6)
		for x := 3; x < 6; x++ {
			gray[y][x] = 1.0
		}
	}

	edges := gradientEdges(gray, 60)
	for y := 1; y < 5; y++ {
		if !edges[y][2] {
			t.Errorf("expected edge at (2,%d)", y)
		}
		if edges[y][4] {
			t.Errorf("unexpected edge at (4,%d)", y)
		}
	}
	// Border rows are never edges.
	for x := 0; x < 6; x++ {
		if edges[0][x] || edges[5][x] {
			t.Errorf("border pixel marked as edge at x=%d", x)
		}
	}
}

func TestFindBlobsEightConnectivity(t *testing.T) {
	// Two diagonal pixels touch corner to corner: one blob under
	// 8-connectivity.
	mask := [][]bool{
		{true, false, false},
		{false, true, false},
		{false, false, false},
	}
	blobs := findBlobs(mask, 1)
	if len(blobs) != 1 {
		t.Fatalf("got %d blobs, want 1", len(blobs))
	}
	if blobs[0].pixels != 2 {
		t.Errorf("pixels: got %d, want 2", blobs[0].pixels)
	}
	want := region.Bounds{X1: 0, Y1: 0, X2: 2, Y2: 2}
	if blobs[0].bounds != want {
		t.Errorf("bounds: got %+v, want %+v", blobs[0].bounds, want)
	}
}

func TestFindBlobsMinPixels(t *testing.T) {
	mask := [][]bool{
		{true, false, false, false},
		{false, false, true, false},
		{false, false, true, false},
	}
	blobs := findBlobs(mask, 2)
	if len(blobs) != 1 {
		t.Fatalf("got %d blobs, want 1 (singleton filtered)", len(blobs))
	}
	if blobs[0].pixels != 2 {
		t.Errorf("pixels: got %d, want 2", blobs[0].pixels)
	}
}

func TestPercentileCutoff(t *testing.T) {
	vals := []float64{5, 1, 4, 2, 3}
	if got := percentileCutoff(vals, 0.8); got != 5 {
		t.Errorf("0.8 percentile: got %f, want 5", got)
	}
	if got := percentileCutoff(vals, 0); got != 1 {
		t.Errorf("0 percentile: got %f, want 1", got)
	}
	if got := percentileCutoff(nil, 0.9); got <= 1e18 {
		t.Errorf("empty input should yield +Inf, got %f", got)
	}
	// Input must stay unsorted.
	if vals[0] != 5 {
		t.Error("percentileCutoff mutated its input")
	}
}

func TestMergeWindows(t *testing.T) {
	in := []window{
		{bounds: region.Bounds{X1: 0, Y1: 0, X2: 16, Y2: 16}, stat: 0.2},
		{bounds: region.Bounds{X1: 8, Y1: 8, X2: 24, Y2: 24}, stat: 0.5},
		{bounds: region.Bounds{X1: 100, Y1: 100, X2: 116, Y2: 116}, stat: 0.1},
	}

	merged := mergeWindows(in)
	if len(merged) != 2 {
		t.Fatalf("got %d merged windows, want 2", len(merged))
	}
	want := region.Bounds{X1: 0, Y1: 0, X2: 24, Y2: 24}
	if merged[0].bounds != want {
		t.Errorf("merged bounds: got %+v, want %+v", merged[0].bounds, want)
	}
	if merged[0].stat != 0.5 {
		t.Errorf("merged stat: got %f, want max 0.5", merged[0].stat)
	}
	if merged[1].bounds != in[2].bounds {
		t.Errorf("disjoint window altered: %+v", merged[1].bounds)
	}
}

func TestSlidingVariance(t *testing.T) {
	// 4x4 field, half dark half light: the single 4x4 window has variance
	// 0.25, the maximum for a two-level image.
	gray := [][]float64{
		{0, 0, 1, 1},
		{0, 0, 1, 1},
		{0, 0, 1, 1},
		{0, 0, 1, 1},
	}
	windows := slidingVariance(gray, 4, 4)
	if len(windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(windows))
	}
	if diff := windows[0].stat - 0.25; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("variance: got %f, want 0.25", windows[0].stat)
	}

	if got := slidingVariance(nil, 4, 4); got != nil {
		t.Errorf("empty matrix: got %v, want nil", got)
	}
}
