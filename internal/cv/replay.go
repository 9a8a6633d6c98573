package cv

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
)

var ErrReplayExhausted = errors.New("replay exhausted")

var replayExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
}

// ReplaySource plays saved frames from a directory in file name order
type ReplaySource struct {
	files []string
	loop  bool

	mu     sync.Mutex
	next   int
	width  int
	height int
}

// NewReplaySource lists the frames in dir
func NewReplaySource(dir string, loop bool) (*ReplaySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if replayExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no frames found in %s", dir)
	}
	sort.Strings(files)

	return &ReplaySource{files: files, loop: loop}, nil
}

// Len returns the number of frames
func (r *ReplaySource) Len() int {
	return len(r.files)
}

// CaptureFrame decodes the next frame
func (r *ReplaySource) CaptureFrame() (*image.RGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.next >= len(r.files) {
		if !r.loop {
			return nil, ErrReplayExhausted
		}
		r.next = 0
	}

	path := r.files[r.next]
	r.next++

	frame, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	r.width, r.height = frame.Bounds().Dx(), frame.Bounds().Dy()
	return frame, nil
}

// GetDimensions returns the size of the last decoded frame
func (r *ReplaySource) GetDimensions() (width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// LoadImage decodes a png, jpeg or bmp file into RGBA
func LoadImage(path string) (*image.RGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return EnsureRGBA(img), nil
}
