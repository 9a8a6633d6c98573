package cv

import (
	"image"
	"testing"
)

func elixirFrame(filled int) *image.RGBA {
	frame := solidFrame(100, 10, black)
	fillRect(frame, image.Rect(0, 0, filled, 10), purple)
	return frame
}

func rawElixirSettings() ElixirSettings {
	s := DefaultElixirSettings()
	s.Roi = FullFrame()
	s.SampleStep = 1
	s.SmoothingWindow = 1
	s.EmptyBaseline = 0
	s.FullBaseline = 1
	return s
}

func TestElixirRawRatio(t *testing.T) {
	got := NewElixirEstimator(rawElixirSettings()).Estimate(elixirFrame(25))

	if got.Filled != 0.25 {
		t.Fatalf("Filled = %v, want 0.25", got.Filled)
	}
	// 2.5 rounds away from zero
	if got.Elixir != 3 {
		t.Fatalf("Elixir = %d, want 3", got.Elixir)
	}
}

func TestElixirBaselineRemap(t *testing.T) {
	s := rawElixirSettings()
	s.EmptyBaseline = 0.08
	s.FullBaseline = 0.79

	e := NewElixirEstimator(s)

	full := e.Estimate(elixirFrame(79))
	if !approxEqual(float64(full.Filled), 1.0, 1e-4) || full.Elixir != 10 {
		t.Fatalf("full bar = %+v, want ~1.0 / 10", full)
	}

	empty := e.Estimate(elixirFrame(5))
	if empty.Filled != 0 || empty.Elixir != 0 {
		t.Fatalf("below baseline = %+v, want 0 / 0", empty)
	}
}

func TestElixirSmoothingWindow(t *testing.T) {
	s := rawElixirSettings()
	s.SmoothingWindow = 2
	e := NewElixirEstimator(s)

	e.Estimate(elixirFrame(100))
	got := e.Estimate(elixirFrame(0))
	if got.Filled != 0.5 || got.Elixir != 5 {
		t.Fatalf("after two readings = %+v, want 0.5 / 5", got)
	}

	// oldest reading falls out of the window
	got = e.Estimate(elixirFrame(0))
	if got.Filled != 0 {
		t.Fatalf("after window rollover Filled = %v, want 0", got.Filled)
	}
}

func TestElixirEmptyRoi(t *testing.T) {
	s := rawElixirSettings()
	s.Roi = NewRoi(0, 0, 0, 1)
	s.SmoothingWindow = 3
	e := NewElixirEstimator(s)

	got := e.Estimate(elixirFrame(100))
	if got.Filled != 0 || got.Elixir != 0 {
		t.Fatalf("got %+v, want zero", got)
	}
	if e.count != 0 {
		t.Fatal("empty region must not feed the smoothing window")
	}
}
