// Package raster provides page raster access and pixel-level utilities shared
// by the detection pipeline.
//
// The pipeline never re-renders a document page: a page is rendered once at a
// fixed zoom through the Document interface and the resulting image.Image is
// treated as immutable, shared read-only by every detector and by the crop
// extractor. The concrete renderer (PDF rasterizer, screenshot service, ...)
// lives outside this module; this package only defines the contract and a
// disk-backed implementation used by the CLI and tests.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner:
// X increases rightward, Y increases downward. Bounding boxes use inclusive
// top-left and exclusive bottom-right corners.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The remaining functions are
// stateless and may be called concurrently on the same (immutable) image.
package raster
