package cv

import "image"

// Blob is a 4-connected component of a pixel mask, in frame coordinates
type Blob struct {
	MinX, MinY int
	MaxX, MaxY int
	Area       int
}

// Width returns the bounding-box width
func (b Blob) Width() int {
	return b.MaxX - b.MinX + 1
}

// Height returns the bounding-box height
func (b Blob) Height() int {
	return b.MaxY - b.MinY + 1
}

// Center returns the bounding-box center normalized to the frame size
func (b Blob) Center(frameW, frameH int) Point01 {
	cx := float64(b.MinX+b.MaxX+1) * 0.5
	cy := float64(b.MinY+b.MaxY+1) * 0.5
	return Point01{X: float32(cx / float64(frameW)), Y: float32(cy / float64(frameH))}
}

// pixelMask is a flat boolean mask over a rectangle
type pixelMask struct {
	rect image.Rectangle
	bits []bool
}

func newPixelMask(rect image.Rectangle) *pixelMask {
	return &pixelMask{rect: rect, bits: make([]bool, rect.Dx()*rect.Dy())}
}

func (m *pixelMask) set(x, y int) {
	m.bits[(y-m.rect.Min.Y)*m.rect.Dx()+(x-m.rect.Min.X)] = true
}

// blobs extracts every 4-connected component with an explicit stack
func (m *pixelMask) blobs() []Blob {
	w, h := m.rect.Dx(), m.rect.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	visited := make([]bool, len(m.bits))
	stack := make([]int, 0, 256)
	var out []Blob

	for start, on := range m.bits {
		if !on || visited[start] {
			continue
		}

		sx, sy := start%w, start/w
		b := Blob{MinX: sx, MaxX: sx, MinY: sy, MaxY: sy}
		visited[start] = true
		stack = append(stack[:0], start)

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			x, y := idx%w, idx/w
			b.Area++
			b.MinX, b.MaxX = min(b.MinX, x), max(b.MaxX, x)
			b.MinY, b.MaxY = min(b.MinY, y), max(b.MaxY, y)

			push := func(n int) {
				if m.bits[n] && !visited[n] {
					visited[n] = true
					stack = append(stack, n)
				}
			}
			if x > 0 {
				push(idx - 1)
			}
			if x < w-1 {
				push(idx + 1)
			}
			if y > 0 {
				push(idx - w)
			}
			if y < h-1 {
				push(idx + w)
			}
		}

		b.MinX += m.rect.Min.X
		b.MaxX += m.rect.Min.X
		b.MinY += m.rect.Min.Y
		b.MaxY += m.rect.Min.Y
		out = append(out, b)
	}

	return out
}

// largestBlob returns the biggest component accepted by keep
func largestBlob(blobs []Blob, keep func(Blob) bool) (Blob, bool) {
	var best Blob
	found := false
	for _, b := range blobs {
		if !keep(b) {
			continue
		}
		if !found || b.Area > best.Area {
			best = b
			found = true
		}
	}
	return best, found
}
