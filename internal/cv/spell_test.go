package cv

import (
	"image"
	"testing"
)

func testLogSettings() LogBlobSettings {
	return LogBlobSettings{
		Roi:           FullFrame(),
		DiffThreshold: 25,
		MinArea:       40,
		MaxArea:       3000,
		MinAspect:     4,
	}
}

func testFireballSettings() FireballBlobSettings {
	return FireballBlobSettings{
		Roi:            FullFrame(),
		WhiteThreshold: 220,
		MinArea:        60,
		MaxArea:        6000,
		MinAspect:      0.7,
		MaxAspect:      1.4,
	}
}

func TestAcceptLogBlob(t *testing.T) {
	s := testLogSettings()
	tests := []struct {
		w, h int
		want bool
	}{
		{8, 8, false},
		{16, 7, false},
		{48, 6, true},
		{6, 48, true},
		{600, 6, false},
	}

	for _, tt := range tests {
		if got := acceptLogBlob(tt.w, tt.h, tt.w*tt.h, s); got != tt.want {
			t.Errorf("acceptLogBlob(%dx%d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestAcceptFireballBlob(t *testing.T) {
	s := testFireballSettings()
	if !acceptFireballBlob(30, 28, 840, s) {
		t.Error("30x28 should be accepted")
	}
	if acceptFireballBlob(60, 8, 480, s) {
		t.Error("60x8 should be rejected")
	}
	if acceptFireballBlob(5, 5, 25, s) {
		t.Error("small patch should be rejected")
	}
}

func TestDetectLogBlob(t *testing.T) {
	prev := solidFrame(200, 200, black)
	curr := solidFrame(200, 200, black)
	fillRect(curr, image.Rect(50, 100, 98, 106), white)
	// noise that fails the thin-bar filter
	fillRect(curr, image.Rect(150, 20, 160, 30), white)

	got, ok := DetectLogBlob(prev, curr, testLogSettings())
	if !ok {
		t.Fatal("expected log footprint")
	}
	if !approxEqual(float64(got.X), 0.37, 1e-4) || !approxEqual(float64(got.Y), 0.515, 1e-4) {
		t.Fatalf("center = %+v, want (0.37, 0.515)", got)
	}
}

func TestDetectLogBlobMismatchedFrames(t *testing.T) {
	if _, ok := DetectLogBlob(solidFrame(10, 10, black), solidFrame(20, 10, white), testLogSettings()); ok {
		t.Fatal("mismatched frames must not resolve")
	}
}

func TestDetectFireballBlob(t *testing.T) {
	frame := solidFrame(200, 200, gray)
	fillRect(frame, image.Rect(100, 40, 130, 68), white)
	fillRect(frame, image.Rect(10, 150, 70, 158), white)

	got, ok := DetectFireballBlob(frame, testFireballSettings())
	if !ok {
		t.Fatal("expected fireball flash")
	}
	if !approxEqual(float64(got.X), 0.575, 1e-4) || !approxEqual(float64(got.Y), 0.27, 1e-4) {
		t.Fatalf("center = %+v, want (0.575, 0.27)", got)
	}

	if _, ok := DetectFireballBlob(solidFrame(200, 200, gray), testFireballSettings()); ok {
		t.Fatal("plain frame should not resolve")
	}
}

func TestBlobsAreFourConnected(t *testing.T) {
	mask := newPixelMask(image.Rect(0, 0, 4, 4))
	mask.set(0, 0)
	mask.set(1, 1)
	mask.set(2, 1)

	blobs := mask.blobs()
	if len(blobs) != 2 {
		t.Fatalf("diagonal neighbors must not join: got %d blobs", len(blobs))
	}
	if blobs[1].Area != 2 || blobs[1].Width() != 2 || blobs[1].Height() != 1 {
		t.Fatalf("second blob = %+v", blobs[1])
	}
}
