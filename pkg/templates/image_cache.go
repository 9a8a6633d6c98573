package templates

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"jordanella.com/royale-coach/internal/cv"
)

// CachedImage is a card image file with lazily loaded pixels
type CachedImage struct {
	ID   string
	Path string

	image    *image.RGBA  // Cached image data
	mu       sync.RWMutex // Protects image field
	preload  bool         // Whether to preload image at startup
	useCount int          // Number of times loaded (for stats)
}

// ImageCache manages card image loading and caching
type ImageCache struct {
	images map[string]*CachedImage
	mu     sync.RWMutex
	stats  CacheStats
}

// CacheStats tracks cache performance
type CacheStats struct {
	Hits        int64 // Cache hits
	Misses      int64 // Cache misses (had to load)
	Loads       int64 // Total load operations
	Unloads     int64 // Total unload operations
	PreloadFail int64 // Failed preloads
}

// NewImageCache creates a new image cache
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*CachedImage),
	}
}

// Register adds an image to the cache, replacing any image with the same id
func (ic *ImageCache) Register(id, path string, preload bool) error {
	cached := &CachedImage{ID: id, Path: path, preload: preload}

	if preload {
		if err := cached.load(); err != nil {
			ic.mu.Lock()
			ic.stats.PreloadFail++
			ic.mu.Unlock()
			return fmt.Errorf("failed to preload card image %s: %w", id, err)
		}
	}

	ic.mu.Lock()
	defer ic.mu.Unlock()
	if preload {
		ic.stats.Loads++
	}
	ic.images[id] = cached
	return nil
}

// Get retrieves an image, loading it if necessary
func (ic *ImageCache) Get(id string) (*image.RGBA, error) {
	ic.mu.RLock()
	cached, ok := ic.images[id]
	ic.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("card image '%s' not found in cache", id)
	}

	img, loaded, err := cached.getOrLoad()
	if err != nil {
		return nil, err
	}

	ic.mu.Lock()
	if loaded {
		ic.stats.Misses++
		ic.stats.Loads++
	} else {
		ic.stats.Hits++
	}
	ic.mu.Unlock()

	return img, nil
}

// Release drops an image's pixels and forgets it
func (ic *ImageCache) Release(id string) {
	ic.mu.Lock()
	cached, ok := ic.images[id]
	delete(ic.images, id)
	ic.mu.Unlock()

	if ok && cached.unload() {
		ic.mu.Lock()
		ic.stats.Unloads++
		ic.mu.Unlock()
	}
}

// PreloadAll loads all images marked for preloading
func (ic *ImageCache) PreloadAll() error {
	ic.mu.RLock()
	images := make([]*CachedImage, 0, len(ic.images))
	for _, c := range ic.images {
		if c.preload {
			images = append(images, c)
		}
	}
	ic.mu.RUnlock()

	var errs []error
	for _, cached := range images {
		err := cached.load()

		ic.mu.Lock()
		if err != nil {
			ic.stats.PreloadFail++
		} else {
			ic.stats.Loads++
		}
		ic.mu.Unlock()

		if err != nil {
			errs = append(errs, fmt.Errorf("card image %s: %w", cached.ID, err))
		}
	}
	return errors.Join(errs...)
}

// UnloadAll drops the pixels of every cached image
func (ic *ImageCache) UnloadAll() {
	ic.mu.RLock()
	images := make([]*CachedImage, 0, len(ic.images))
	for _, c := range ic.images {
		images = append(images, c)
	}
	ic.mu.RUnlock()

	for _, cached := range images {
		if cached.unload() {
			ic.mu.Lock()
			ic.stats.Unloads++
			ic.mu.Unlock()
		}
	}
}

// Stats returns cache statistics
func (ic *ImageCache) Stats() CacheStats {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return ic.stats
}

// getOrLoad returns the cached image, reporting whether it had to be loaded
func (ci *CachedImage) getOrLoad() (*image.RGBA, bool, error) {
	// Fast path: image already loaded
	ci.mu.RLock()
	if ci.image != nil {
		defer ci.mu.RUnlock()
		return ci.image, false, nil
	}
	ci.mu.RUnlock()

	ci.mu.Lock()
	defer ci.mu.Unlock()

	// Double-check after acquiring write lock
	if ci.image != nil {
		return ci.image, false, nil
	}

	img, err := ci.loadUnsafe()
	return img, err == nil, err
}

// load loads the image (thread-safe)
func (ci *CachedImage) load() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if ci.image != nil {
		return nil
	}

	_, err := ci.loadUnsafe()
	return err
}

// loadUnsafe loads the image without locking (caller must hold lock)
func (ci *CachedImage) loadUnsafe() (*image.RGBA, error) {
	if _, err := os.Stat(ci.Path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("card image not found: %s", ci.Path)
	}

	img, err := cv.LoadImage(ci.Path)
	if err != nil {
		return nil, err
	}

	ci.image = img
	ci.useCount++
	return ci.image, nil
}

// unload releases the pixels, reporting whether any were held
func (ci *CachedImage) unload() bool {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if ci.image == nil {
		return false
	}
	ci.image = nil
	return true
}

// IsLoaded returns true if the image is currently in memory
func (ci *CachedImage) IsLoaded() bool {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	return ci.image != nil
}
