package cv

import (
	"image"
	"testing"
)

// half black, half white
func splitCard(r image.Rectangle) *image.RGBA {
	img := solidFrame(r.Dx(), r.Dy(), white)
	fillRect(img, image.Rect(0, 0, r.Dx()/2, r.Dy()), black)
	return img
}

func paintSplit(frame *image.RGBA, r image.Rectangle) {
	fillRect(frame, r, white)
	fillRect(frame, image.Rect(r.Min.X, r.Min.Y, r.Min.X+r.Dx()/2, r.Max.Y), black)
}

func testCardSettings() CardSettings {
	s := DefaultCardSettings()
	s.HandRoi = FullFrame()
	return s
}

func TestCardRecognizerMatchesSlot(t *testing.T) {
	split, err := NewCardTemplate("hog", 4, splitCard(image.Rect(0, 0, 40, 40)), 24)
	if err != nil {
		t.Fatalf("NewCardTemplate failed: %v", err)
	}
	dark, err := NewCardTemplate("skeletons", 1, solidFrame(40, 40, black), 24)
	if err != nil {
		t.Fatalf("NewCardTemplate failed: %v", err)
	}

	rec := NewCardRecognizer(testCardSettings(), []CardTemplate{split, dark})

	frame := solidFrame(400, 100, gray)
	slots := rec.SlotRects(frame.Bounds())
	if len(slots) != 4 {
		t.Fatalf("got %d slots, want 4", len(slots))
	}
	if slots[1] != image.Rect(108, 8, 192, 92) {
		t.Fatalf("slot 1 = %v", slots[1])
	}
	paintSplit(frame, slots[1])
	fillRect(frame, slots[3], black)

	hand := rec.Recognize(frame)
	want := []string{"", "hog", "", "skeletons"}
	for i, id := range want {
		if hand.Slot(i) != id {
			t.Errorf("slot %d = %q, want %q", i, hand.Slot(i), id)
		}
	}
	if hand.Cost(1) != 4 || hand.Cost(3) != 1 || hand.Cost(0) != -1 {
		t.Errorf("costs = %v", hand.Costs)
	}
	if hand.Confidences[1] != 1 {
		t.Errorf("exact match confidence = %v, want 1", hand.Confidences[1])
	}
}

func TestCardRecognizerNeutralResults(t *testing.T) {
	frame := solidFrame(400, 100, gray)

	if hand := NewCardRecognizer(testCardSettings(), nil).Recognize(frame); !hand.IsEmpty() {
		t.Fatalf("no templates should give an empty hand, got %+v", hand)
	}

	tmpl, _ := NewCardTemplate("hog", 4, solidFrame(10, 10, gray), 24)
	s := testCardSettings()
	s.HandRoi = NewRoi(0, 0, 0, 1)
	if hand := NewCardRecognizer(s, []CardTemplate{tmpl}).Recognize(frame); !hand.IsEmpty() {
		t.Fatalf("empty region should give an empty hand, got %+v", hand)
	}
}

func TestBestMatchIgnoresOtherSizes(t *testing.T) {
	small, _ := NewCardTemplate("small", 1, solidFrame(10, 10, gray), 8)
	grid := make([]uint8, 24*24)
	for i := range grid {
		grid[i] = 128
	}

	if got := BestMatch(grid, 24, []CardTemplate{small}, 0.1); got.Found {
		t.Fatalf("template of another grid size must not match: %+v", got)
	}
}

func TestTemplateGridMinimumSize(t *testing.T) {
	tmpl, err := NewCardTemplate("x", 1, solidFrame(10, 10, gray), 2)
	if err != nil {
		t.Fatal(err)
	}
	if tmpl.Size != 4 || len(tmpl.Samples) != 16 {
		t.Fatalf("grid = %d (%d samples), want 4 (16)", tmpl.Size, len(tmpl.Samples))
	}
}
