// Package detect implements the candidate detectors that scan a page raster
// for visual elements of interest (logos, illustrations, icons, diagrams)
// without any ground-truth model of the target graphic.
//
// # Detection Strategies
//
// Six independent, stateless strategies each scan one signal type:
//
//   - Color: HSV color-band segmentation into connected blobs
//   - Edge: gradient edge maps at two sensitivities, contour extraction
//   - Contour: binarization at three thresholds, connected dark components
//   - Texture: sliding-window local variance, top-decile regions
//   - Position: fixed layout-slot priors (not measured detections)
//   - Brightness: sliding-window local contrast, top 15% regions
//
// No single cheap signal reliably isolates graphics from text or
// white-space; the strategies deliberately trade per-detector precision for
// recall, and precision is recovered downstream by clustering and scoring.
//
// # Candidate Contract
//
// Every strategy is a pure function over an immutable raster: same image in,
// same candidates out, no shared state between calls. Strategies may
// therefore run concurrently; RunAll fans them out and concatenates results
// in the canonical method order so the combined candidate list is
// reproducible regardless of scheduling.
//
// A failing strategy (error or panic on malformed raster data) contributes
// zero candidates for that page; the other strategies proceed.
//
// # Confidence
//
// Detectors never assign confidence. All candidates leave this package with
// confidence 0 and are scored later from geometric, positional, and
// provenance signals.
package detect
