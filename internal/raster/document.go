package raster

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
)

// Document produces raster images for the pages of one document.
//
// Render must return a deterministic raster for identical (document,
// pageIndex, zoom) inputs; the pipeline relies on this for reproducible
// output. Implementations must be safe for concurrent Render calls on
// different pages.
type Document interface {
	// PageCount returns the number of pages in the document.
	PageCount() int

	// Render returns the raster image for one page at the given zoom factor.
	// The returned image is treated as immutable by all callers.
	Render(ctx context.Context, pageIndex int, zoom float64) (image.Image, error)
}

// ImageCache provides thread-safe caching of decoded images to avoid
// redundant disk reads.
//
// Cached images remain in memory until explicitly removed via Evict() or
// Clear(). For long-running processes handling many documents, consider
// periodic cleanup to prevent unbounded memory growth.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk if not
// cached. Supported formats are PNG, JPEG, and GIF. The image is cached
// using the exact path string provided.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache, freeing the associated memory.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path. If the path is
// not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// FileDocument is a Document backed by pre-rendered page images on disk, one
// file per page in page order. It is the renderer stand-in used by the CLI:
// the actual document-to-raster rendering happens outside this module.
//
// The zoom argument to Render is ignored because the files are already
// rendered at a fixed zoom; FileDocument still satisfies the Document
// determinism contract since the same path always decodes to the same image.
type FileDocument struct {
	paths []string
	cache *ImageCache
}

// NewFileDocument creates a document over the given page image paths.
func NewFileDocument(paths []string) *FileDocument {
	return &FileDocument{
		paths: paths,
		cache: NewImageCache(),
	}
}

// PageCount returns the number of page files.
func (d *FileDocument) PageCount() int { return len(d.paths) }

// Render loads and returns the raster for the requested page.
func (d *FileDocument) Render(ctx context.Context, pageIndex int, zoom float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pageIndex < 0 || pageIndex >= len(d.paths) {
		return nil, fmt.Errorf("page index %d out of range [0,%d)", pageIndex, len(d.paths))
	}
	return d.cache.Load(d.paths[pageIndex])
}
