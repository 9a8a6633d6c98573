package cv

import (
	"image"

	"jordanella.com/royale-coach/internal/game"
)

// teamClassifier labels a sampled pixel with a team color, or TeamUnknown
type teamClassifier func(r, g, b uint8) game.Team

// bucketGrid accumulates classified samples into coarse cells per team
type bucketGrid struct {
	origin image.Point
	bucket int
	cols   int
	rows   int
	hits   map[game.Team][]int
}

// sizeFilter bounds the pixel extent of an accepted component
type sizeFilter struct {
	MinWidth, MaxWidth   int
	MinHeight, MaxHeight int
	MinAspect, MaxAspect float64
}

func (f sizeFilter) accept(w, h int) bool {
	if w < f.MinWidth || w > f.MaxWidth || h < f.MinHeight || h > f.MaxHeight || h <= 0 {
		return false
	}
	aspect := float64(w) / float64(h)
	return aspect >= f.MinAspect && aspect <= f.MaxAspect
}

// bucketComponent is a 4-connected group of filled buckets
type bucketComponent struct {
	Team           game.Team
	MinCol, MinRow int
	MaxCol, MaxRow int
	Buckets        int
	Hits           int
}

// PixelSize returns the component extent in pixels
func (c bucketComponent) PixelSize(bucket int) (w, h int) {
	return (c.MaxCol - c.MinCol + 1) * bucket, (c.MaxRow - c.MinRow + 1) * bucket
}

func buildBucketGrid(px Pixels, rect image.Rectangle, step, bucket int, classify teamClassifier) *bucketGrid {
	g := &bucketGrid{
		origin: rect.Min,
		bucket: bucket,
		cols:   (rect.Dx() + bucket - 1) / bucket,
		rows:   (rect.Dy() + bucket - 1) / bucket,
		hits:   make(map[game.Team][]int, 2),
	}

	for y := rect.Min.Y; y < rect.Max.Y; y += step {
		row := (y - rect.Min.Y) / bucket
		for x := rect.Min.X; x < rect.Max.X; x += step {
			r, gg, b := px.RGB(x, y)
			team := classify(r, gg, b)
			if team == game.TeamUnknown {
				continue
			}

			cells, ok := g.hits[team]
			if !ok {
				cells = make([]int, g.cols*g.rows)
				g.hits[team] = cells
			}
			col := (x - rect.Min.X) / bucket
			cells[row*g.cols+col]++
		}
	}

	return g
}

// components flood-fills buckets of one team holding at least minHits samples
func (g *bucketGrid) components(team game.Team, minHits int) []bucketComponent {
	cells, ok := g.hits[team]
	if !ok {
		return nil
	}

	visited := make([]bool, len(cells))
	stack := make([]int, 0, 64)
	var out []bucketComponent

	for start, count := range cells {
		if visited[start] || count < minHits {
			continue
		}

		comp := bucketComponent{
			Team:   team,
			MinCol: start % g.cols, MaxCol: start % g.cols,
			MinRow: start / g.cols, MaxRow: start / g.cols,
		}
		visited[start] = true
		stack = append(stack[:0], start)

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			col, row := idx%g.cols, idx/g.cols
			comp.Buckets++
			comp.Hits += cells[idx]
			comp.MinCol = min(comp.MinCol, col)
			comp.MaxCol = max(comp.MaxCol, col)
			comp.MinRow = min(comp.MinRow, row)
			comp.MaxRow = max(comp.MaxRow, row)

			for _, next := range g.neighbors(col, row) {
				if next < 0 || visited[next] || cells[next] < minHits {
					continue
				}
				visited[next] = true
				stack = append(stack, next)
			}
		}

		out = append(out, comp)
	}

	return out
}

func (g *bucketGrid) neighbors(col, row int) [4]int {
	n := [4]int{-1, -1, -1, -1}
	if col > 0 {
		n[0] = row*g.cols + col - 1
	}
	if col < g.cols-1 {
		n[1] = row*g.cols + col + 1
	}
	if row > 0 {
		n[2] = (row-1)*g.cols + col
	}
	if row < g.rows-1 {
		n[3] = (row+1)*g.cols + col
	}
	return n
}

// center returns the component bounding-box center normalized to the frame
func (g *bucketGrid) center(c bucketComponent, frameW, frameH int) (float32, float32) {
	cx := float64(g.origin.X) + float64(c.MinCol+c.MaxCol+1)*0.5*float64(g.bucket)
	cy := float64(g.origin.Y) + float64(c.MinRow+c.MaxRow+1)*0.5*float64(g.bucket)
	return float32(cx / float64(frameW)), float32(cy / float64(frameH))
}

// density returns hits relative to the samples the component could hold
func (g *bucketGrid) density(c bucketComponent, step int) float32 {
	perSide := max(1, g.bucket/step)
	capacity := c.Buckets * perSide * perSide
	if capacity <= 0 {
		return 0
	}
	return float32(clamp01(float64(c.Hits) / float64(capacity)))
}
