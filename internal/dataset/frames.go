package dataset

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"jordanella.com/royale-coach/internal/cv"
)

// FrameSaverSettings configures frame dumps next to the dataset
type FrameSaverSettings struct {
	FramesDir   string
	Format      string
	JpegQuality int
	MaxWidth    int
	Trim        cv.TrimSettings
}

// DefaultFrameSaverSettings returns png frames without resizing or trimming
func DefaultFrameSaverSettings() FrameSaverSettings {
	return FrameSaverSettings{
		FramesDir:   DefaultFramesDir,
		Format:      "png",
		JpegQuality: 90,
		MaxWidth:    0,
		Trim:        cv.DefaultTrimSettings(),
	}
}

// SavedFrames holds the frame paths relative to the match directory
type SavedFrames struct {
	PrevPath string
	CurrPath string
	Crop     cv.FrameCrop
}

// FrameSaver writes the frame pair around a recorded play
type FrameSaver struct {
	settings FrameSaverSettings
}

// NewFrameSaver creates a saver
func NewFrameSaver(settings FrameSaverSettings) *FrameSaver {
	if strings.TrimSpace(settings.FramesDir) == "" {
		settings.FramesDir = DefaultFramesDir
	}
	settings.Format = normalizeExtension(settings.Format)
	return &FrameSaver{settings: settings}
}

// FramesDir is the frames directory name inside a match directory
func (s *FrameSaver) FramesDir() string {
	return s.settings.FramesDir
}

// Save writes prev and curr under matchDir/<frames>/ and returns their relative paths.
// Black side bars detected on prev are cropped from both frames.
func (s *FrameSaver) Save(prev, curr *image.RGBA, matchDir string, elapsedMs, frameIndex int64) (SavedFrames, error) {
	if prev == nil || curr == nil {
		return SavedFrames{}, fmt.Errorf("failed to save frames: %w", cv.ErrNilFrame)
	}

	dir := filepath.Join(matchDir, s.settings.FramesDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return SavedFrames{}, fmt.Errorf("failed to create frames directory: %w", err)
	}

	crop, _ := cv.DetectLeftRightCrop(prev, s.settings.Trim)
	ext := s.settings.Format
	prefix := fmt.Sprintf("%08d_%05d", elapsedMs, frameIndex)
	prevName := prefix + "_prev." + ext
	currName := prefix + "_curr." + ext

	if err := s.write(filepath.Join(dir, prevName), s.prepare(prev, crop)); err != nil {
		return SavedFrames{}, err
	}
	if err := s.write(filepath.Join(dir, currName), s.prepare(curr, crop)); err != nil {
		return SavedFrames{}, err
	}

	return SavedFrames{
		PrevPath: path.Join(s.settings.FramesDir, prevName),
		CurrPath: path.Join(s.settings.FramesDir, currName),
		Crop:     crop,
	}, nil
}

func (s *FrameSaver) prepare(frame *image.RGBA, crop cv.FrameCrop) image.Image {
	if !crop.IsEmpty() {
		frame = cv.ApplyCrop(frame, crop)
	}
	return resizeToWidth(frame, s.settings.MaxWidth)
}

func (s *FrameSaver) write(filePath string, img image.Image) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create frame file: %w", err)
	}
	defer file.Close()

	switch s.settings.Format {
	case "jpeg":
		quality := min(100, max(1, s.settings.JpegQuality))
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: quality})
	default:
		err = png.Encode(file, img)
	}
	if err != nil {
		return fmt.Errorf("failed to encode frame %s: %w", filepath.Base(filePath), err)
	}
	return nil
}

// resizeToWidth scales down to maxWidth keeping the aspect ratio
func resizeToWidth(src *image.RGBA, maxWidth int) image.Image {
	b := src.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return src
	}

	scale := float64(maxWidth) / float64(b.Dx())
	height := max(1, int(float64(b.Dy())*scale+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func normalizeExtension(format string) string {
	value := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	switch value {
	case "":
		return "png"
	case "jpg":
		return "jpeg"
	default:
		return value
	}
}
