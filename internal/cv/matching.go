package cv

import (
	"errors"
	"image"
)

var ErrTemplateSizeMismatch = errors.New("template grid size mismatch")

// MatchResult is the best template for one sampled grid
type MatchResult struct {
	Found bool
	ID    string
	Cost  int
	Score float64
}

// luma converts to gray with integer BT.601 weights
func luma(r, g, b uint8) uint8 {
	return uint8((int(r)*77 + int(g)*150 + int(b)*29) >> 8)
}

// sampleIndex maps grid cell i of n onto a pixel offset in [0, dim)
func sampleIndex(i, n, dim int) int {
	v := (float64(i) + 0.5) / float64(n)
	return clampInt(roundInt(v*float64(dim))-1, 0, dim-1)
}

// sampleGrid resamples rect to an n×n luma grid using nearest pixels
func sampleGrid(px Pixels, rect image.Rectangle, n int) []uint8 {
	w, h := rect.Dx(), rect.Dy()
	if n <= 0 || w <= 0 || h <= 0 {
		return nil
	}

	grid := make([]uint8, n*n)
	for gy := 0; gy < n; gy++ {
		py := rect.Min.Y + sampleIndex(gy, n, h)
		for gx := 0; gx < n; gx++ {
			px2 := rect.Min.X + sampleIndex(gx, n, w)
			r, g, b := px.RGB(px2, py)
			grid[gy*n+gx] = luma(r, g, b)
		}
	}
	return grid
}

// gridScore returns 1 - meanAbsDiff/255 for two grids of equal length
func gridScore(a, b []uint8) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, ErrTemplateSizeMismatch
	}

	total := 0
	for i := range a {
		total += absDiff(a[i], b[i])
	}
	mean := float64(total) / float64(len(a))
	return 1 - mean/255, nil
}

// BestMatch scores a sampled grid against every template of the same size
func BestMatch(grid []uint8, size int, templates []CardTemplate, minScore float64) MatchResult {
	best := MatchResult{Score: -1, Cost: -1}

	for _, tmpl := range templates {
		if tmpl.Size != size {
			continue
		}
		score, err := gridScore(grid, tmpl.Samples)
		if err != nil {
			continue
		}
		if score > best.Score {
			best = MatchResult{ID: tmpl.ID, Cost: tmpl.Cost, Score: score}
		}
	}

	if best.Score < 0 {
		return MatchResult{Cost: -1}
	}
	best.Found = best.Score >= minScore
	return best
}
