// Package pipeline orchestrates the full region-candidate generation,
// deduplication, ranking, and classification flow for a document.
//
// Control and data flow for one page:
//
//	render -> {six detectors} -> clusterer -> scorer -> (top-N)
//	       -> crop extractor -> classification adapter
//
// Pages are independent and processed in parallel; recommendations and the
// analysis summary are assembled over all pages at the end so that output
// ordering is globally deterministic.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/graphic-scout/internal/classify"
	"github.com/ironsheep/graphic-scout/internal/cluster"
	"github.com/ironsheep/graphic-scout/internal/crop"
	"github.com/ironsheep/graphic-scout/internal/detect"
	"github.com/ironsheep/graphic-scout/internal/raster"
	"github.com/ironsheep/graphic-scout/internal/recommend"
	"github.com/ironsheep/graphic-scout/internal/region"
	"github.com/ironsheep/graphic-scout/internal/score"
)

// Config is the complete tuning surface for one pipeline run. It is passed
// through explicitly (never ambient state) so the same process can run
// multiple configurations concurrently.
type Config struct {
	// RenderZoom is the zoom factor used when rendering pages for
	// detection. Crops are taken from this raster, never re-rendered.
	RenderZoom float64

	// CropZoom scales extracted crops before classification.
	CropZoom float64

	// TopN caps how many scored regions per document are sent to the
	// classification service.
	TopN int

	// ClassifyTimeout bounds each classification call.
	ClassifyTimeout time.Duration

	// Retry is the per-crop retry policy for classification calls.
	Retry classify.RetryPolicy

	// MaxConcurrentClassifications bounds in-flight classification calls.
	MaxConcurrentClassifications int64

	// MaxConcurrentPages bounds pages processed in parallel.
	MaxConcurrentPages int

	Detect  detect.Config
	Cluster cluster.Config
	Score   score.Config
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		RenderZoom:                   2.0,
		CropZoom:                     2.0,
		TopN:                         10,
		ClassifyTimeout:              30 * time.Second,
		Retry:                        classify.SingleAttempt(),
		MaxConcurrentClassifications: 3,
		MaxConcurrentPages:           4,
		Detect:                       detect.DefaultConfig(),
		Cluster:                      cluster.DefaultConfig(),
		Score:                        score.DefaultConfig(),
	}
}

// PageError records a page that failed structurally (unreadable raster).
// Page failures never abort the document; the other pages continue.
type PageError struct {
	PageIndex int    `json:"page_index"`
	Error     string `json:"error"`
}

// Result is the full output of one document analysis.
type Result struct {
	// GraphicRegions is every deduplicated, scored region on the document,
	// in rank order.
	GraphicRegions []region.Region `json:"graphic_regions"`

	// Screenshots are the crops extracted for the top-N regions.
	Screenshots []crop.Ref `json:"screenshots"`

	// AIAnalysis holds one classification per screenshot, including
	// fabricated failure records; nothing is silently dropped.
	AIAnalysis []classify.Classification `json:"ai_analysis"`

	// RecommendedGraphics is the final ranked recommendation list over the
	// classified regions.
	RecommendedGraphics []recommend.Recommendation `json:"recommended_graphics"`

	// AnalysisSummary aggregates counts across the whole document.
	AnalysisSummary recommend.Summary `json:"analysis_summary"`

	// PageErrors lists pages that could not be analyzed.
	PageErrors []PageError `json:"page_errors,omitempty"`
}

// Pipeline runs the detection flow. It is stateless between documents and
// safe for concurrent Detect calls.
type Pipeline struct {
	cfg       Config
	detectors []detect.Detector
	clusterer *cluster.Clusterer
	scorer    *score.Scorer
	extractor *crop.Extractor
	adapter   *classify.Adapter
	logger    *slog.Logger
}

// New wires a pipeline from its configuration and the external
// classification service. A nil logger discards logs.
func New(cfg Config, svc classify.Service, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	scorer := score.New(cfg.Score)
	return &Pipeline{
		cfg:       cfg,
		detectors: detect.Registry(cfg.Detect),
		clusterer: cluster.New(cfg.Cluster, scorer),
		scorer:    scorer,
		extractor: crop.NewExtractor(cfg.CropZoom),
		adapter:   classify.NewAdapter(svc, cfg.ClassifyTimeout, cfg.Retry, cfg.MaxConcurrentClassifications, logger),
		logger:    logger,
	}
}

// pageOutput is the per-page intermediate before global assembly.
type pageOutput struct {
	regions []region.Region
	err     error
}

// Detect analyzes every page of the document and returns the assembled
// result. Only document-level structural failures (nil document, context
// cancelled before any work) return an error; per-page failures become
// PageError entries and per-candidate failures become demoted
// recommendations.
func (p *Pipeline) Detect(ctx context.Context, doc raster.Document) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pageCount := doc.PageCount()
	outputs := make([]pageOutput, pageCount)

	g, gctx := errgroup.WithContext(ctx)
	if p.cfg.MaxConcurrentPages > 0 {
		g.SetLimit(p.cfg.MaxConcurrentPages)
	}
	for i := 0; i < pageCount; i++ {
		i := i
		g.Go(func() error {
			outputs[i] = p.detectPage(gctx, doc, i)
			return nil
		})
	}
	_ = g.Wait() // page errors are carried in outputs, never propagated

	result := &Result{}

	// Merge in page order so downstream ranking is deterministic.
	allRegions := make([]region.Region, 0)
	for i, out := range outputs {
		if out.err != nil {
			p.logger.WarnContext(ctx, "page analysis failed", "page", i, "error", out.err)
			result.PageErrors = append(result.PageErrors, PageError{PageIndex: i, Error: out.err.Error()})
			continue
		}
		allRegions = append(allRegions, out.regions...)
	}

	score.Sort(allRegions)
	result.GraphicRegions = allRegions

	topN := p.cfg.TopN
	if topN <= 0 || topN > len(allRegions) {
		topN = len(allRegions)
	}
	surfaced := allRegions[:topN]

	surfacedRegions, refs, reqs := p.extractCrops(ctx, doc, surfaced)
	result.Screenshots = refs
	result.AIAnalysis = p.adapter.ClassifyAll(ctx, reqs)
	result.RecommendedGraphics = recommend.Build(surfacedRegions, result.AIAnalysis)
	result.AnalysisSummary = recommend.Summarize(allRegions, result.AIAnalysis)

	p.logger.InfoContext(ctx, "document analysis complete",
		"pages", pageCount,
		"page_errors", len(result.PageErrors),
		"regions", len(allRegions),
		"classified", len(result.AIAnalysis),
	)
	return result, nil
}

// detectPage runs detection, clustering, and scoring for one page.
func (p *Pipeline) detectPage(ctx context.Context, doc raster.Document, pageIndex int) pageOutput {
	img, err := doc.Render(ctx, pageIndex, p.cfg.RenderZoom)
	if err != nil {
		return pageOutput{err: fmt.Errorf("render page %d: %w", pageIndex, err)}
	}

	candidates := detect.RunAll(ctx, p.logger, p.detectors, img, pageIndex)
	representatives := p.clusterer.Representatives(candidates)
	p.scorer.Apply(representatives)

	p.logger.DebugContext(ctx, "page analyzed",
		"page", pageIndex,
		"candidates", len(candidates),
		"regions", len(representatives),
	)
	return pageOutput{regions: representatives}
}

// extractCrops renders a crop for each surfaced region, re-using the page
// rasters already rendered at detection zoom. A region whose page raster
// cannot be re-obtained is skipped from classification but remains in the
// ranked region list.
func (p *Pipeline) extractCrops(ctx context.Context, doc raster.Document, surfaced []region.Region) ([]region.Region, []crop.Ref, []classify.Request) {
	kept := make([]region.Region, 0, len(surfaced))
	refs := make([]crop.Ref, 0, len(surfaced))
	reqs := make([]classify.Request, 0, len(surfaced))

	for _, r := range surfaced {
		img, err := doc.Render(ctx, r.PageIndex, p.cfg.RenderZoom)
		if err != nil {
			p.logger.WarnContext(ctx, "crop render failed", "page", r.PageIndex, "error", err)
			continue
		}
		ref, raw, err := p.extractor.Extract(img, r)
		if err != nil {
			p.logger.WarnContext(ctx, "crop extraction failed", "page", r.PageIndex, "error", err)
			continue
		}
		kept = append(kept, r)
		refs = append(refs, *ref)
		reqs = append(reqs, classify.Request{
			ImageBytes: raw,
			Prompt:     classify.BuildPrompt(r, ref),
		})
	}
	return kept, refs, reqs
}
