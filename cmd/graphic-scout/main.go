package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ironsheep/graphic-scout/internal/classify"
	"github.com/ironsheep/graphic-scout/internal/pipeline"
	"github.com/ironsheep/graphic-scout/internal/raster"
	"github.com/ironsheep/graphic-scout/internal/region"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("graphic-scout %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		}
	}

	var (
		pagesGlob = flag.String("pages", "", "glob of pre-rendered page images in page order (required)")
		topN      = flag.Int("top", 10, "number of top-ranked regions sent to classification")
		endpoint  = flag.String("endpoint", "", "vision classification endpoint (empty = skip classification)")
		model     = flag.String("model", "gpt-4o-mini", "vision model name")
		timeout   = flag.Duration("timeout", 30*time.Second, "per-call classification timeout")
		annotate  = flag.String("annotate", "", "write an annotated overlay PNG of the top regions to this path")
		out       = flag.String("out", "", "write the result JSON to this path instead of stdout")
	)
	flag.Parse()

	logger := newLogger()

	if *pagesGlob == "" {
		fmt.Fprintln(os.Stderr, "usage: graphic-scout -pages 'render/page-*.png' [options]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	paths, err := filepath.Glob(*pagesGlob)
	if err != nil || len(paths) == 0 {
		logger.Error("no page images matched", "glob", *pagesGlob, "error", err)
		os.Exit(1)
	}
	sort.Strings(paths)

	cfg := pipeline.DefaultConfig()
	cfg.TopN = *topN
	cfg.ClassifyTimeout = *timeout

	var svc classify.Service
	if *endpoint != "" {
		svc = classify.NewHTTPService(*endpoint, os.Getenv("GRAPHIC_SCOUT_API_KEY"), *model)
	} else {
		logger.Info("no classification endpoint configured, candidates will carry heuristic scores only")
		svc = unavailableService{}
	}

	doc := raster.NewFileDocument(paths)
	p := pipeline.New(cfg, svc, logger)

	result, err := p.Detect(context.Background(), doc)
	if err != nil {
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	if *annotate != "" {
		if err := writeOverlay(doc, result.GraphicRegions, cfg.TopN, *annotate); err != nil {
			logger.Warn("overlay write failed", "error", err)
		}
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
	if *out != "" {
		if err := os.WriteFile(*out, encoded, 0o644); err != nil {
			logger.Error("write result", "error", err)
			os.Exit(1)
		}
		return
	}
	fmt.Println(string(encoded))
}

// newLogger configures structured logging to stderr; stdout carries only the
// result JSON.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("GRAPHIC_SCOUT_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// writeOverlay draws the top-ranked regions of the first page onto its
// raster for quick visual inspection.
func writeOverlay(doc raster.Document, regions []region.Region, topN int, path string) error {
	if len(regions) == 0 {
		return fmt.Errorf("no regions to annotate")
	}

	page := regions[0].PageIndex
	boxes := make([]region.Bounds, 0, topN)
	for _, r := range regions {
		if r.PageIndex != page {
			continue
		}
		boxes = append(boxes, r.Bounds)
		if len(boxes) >= topN {
			break
		}
	}

	img, err := doc.Render(context.Background(), page, 2.0)
	if err != nil {
		return fmt.Errorf("render page %d: %w", page, err)
	}

	annotated := raster.AnnotateRegions(img, boxes, "#FF0000C8")
	raw, err := raster.EncodePNG(annotated)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// unavailableService is the offline stand-in: every call fails, so the
// pipeline emits fabricated failure classifications and demoted scores
// instead of aborting.
type unavailableService struct{}

func (unavailableService) Classify(context.Context, []byte, string) (string, error) {
	return "", fmt.Errorf("classification service not configured")
}
