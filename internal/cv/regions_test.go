package cv

import (
	"image"
	"testing"
)

func TestRoiRect(t *testing.T) {
	tests := []struct {
		name string
		roi  Roi
		want image.Rectangle
	}{
		{"full", FullFrame(), image.Rect(0, 0, 100, 50)},
		{"inner", NewRoi(0.1, 0.2, 0.5, 0.5), image.Rect(10, 10, 60, 35)},
		{"overflow right", NewRoi(0.5, 0.5, 1, 1), image.Rect(50, 25, 100, 50)},
		{"origin past edge", NewRoi(1.2, 0, 0.5, 1), image.Rect(99, 0, 100, 50)},
		{"negative origin", NewRoi(-0.1, 0, 0.5, 1), image.Rect(0, 0, 50, 50)},
		{"zero width", NewRoi(0.2, 0.2, 0, 0.5), image.Rect(20, 10, 20, 35)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.roi.Rect(100, 50)
			if got != tt.want {
				t.Errorf("Rect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoiRectEmptyFrame(t *testing.T) {
	if r := FullFrame().Rect(0, 10); !r.Empty() {
		t.Fatalf("expected empty rect for zero-width frame, got %v", r)
	}
}

func TestPixelsOutOfRange(t *testing.T) {
	px := NewPixels(solidFrame(4, 4, white))
	if r, g, b := px.RGB(4, 0); r != 0 || g != 0 || b != 0 {
		t.Fatal("out of range read should be black")
	}
	if r, _, _ := px.RGB(3, 3); r != 255 {
		t.Fatal("in range read should return the pixel")
	}

	empty := NewPixels(nil)
	if empty.Width() != 0 || empty.Height() != 0 {
		t.Fatal("nil frame should give an empty view")
	}
}

func TestEnsureRGBAReanchors(t *testing.T) {
	src := solidFrame(20, 20, white)
	sub := src.SubImage(image.Rect(5, 5, 15, 15))

	out := EnsureRGBA(sub)
	if out.Bounds() != image.Rect(0, 0, 10, 10) {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	if r, _, _ := NewPixels(out).RGB(0, 0); r != 255 {
		t.Fatal("pixel data lost")
	}
}

func TestPixelRoundingHalfToEven(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0.5, 0},
		{1.5, 2},
		{2.5, 2},
		{3.5, 4},
		{2.4, 2},
		{2.6, 3},
	}
	for _, tt := range tests {
		if got := roundInt(tt.in); got != tt.want {
			t.Errorf("roundInt(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}

	// cell 0 of 1 over 5 px lands on 2.5
	if got := sampleIndex(0, 1, 5); got != 1 {
		t.Errorf("sampleIndex(0, 1, 5) = %d, want 1", got)
	}

	rec := NewCardRecognizer(CardSettings{SlotCount: 1, SlotPadding: 0.25, SampleSize: 4, MinScore: 1}, nil)
	if got := rec.SlotRects(image.Rect(0, 0, 10, 10)); got[0] != image.Rect(2, 2, 8, 8) {
		t.Errorf("padded slot = %v, want a 2 px pad", got[0])
	}
}
