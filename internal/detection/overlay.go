package detection

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
)

// RenderOverlay draws every surviving candidate's outline over a copy of
// the source image, each in a distinct hue, with the winning candidate
// highlighted in green. Intended for debugging detections that picked the
// wrong shape or none at all.
func RenderOverlay(img image.Image, cfg Config) *image.RGBA {
	candidates, best := findCandidates(img, cfg)

	bounds := img.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Src)

	for i, c := range candidates {
		if i == best {
			continue
		}
		hue := float64(i) * 360.0 / float64(len(candidates))
		cc := colorful.Hsv(hue, 0.85, 0.95)
		r, g, b := cc.RGB255()
		drawPolygon(canvas, c.Polygon, color.RGBA{r, g, b, 255}, 1)
	}
	if best >= 0 {
		drawPolygon(canvas, candidates[best].Polygon, color.RGBA{0, 255, 0, 255}, 2)
	}
	return canvas
}

// drawPolygon strokes the closed outline with the given thickness.
func drawPolygon(canvas *image.RGBA, poly Polygon, c color.RGBA, thickness int) {
	if len(poly) < 2 {
		return
	}
	for i := range poly {
		j := (i + 1) % len(poly)
		drawLine(canvas, poly[i], poly[j], c, thickness)
	}
}

// drawLine rasterizes a segment with Bresenham's algorithm, thickened by
// stamping a small square at every step.
func drawLine(canvas *image.RGBA, a, b image.Point, c color.RGBA, thickness int) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy

	x, y := a.X, a.Y
	for {
		stamp(canvas, x, y, c, thickness)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func stamp(canvas *image.RGBA, x, y int, c color.RGBA, thickness int) {
	for oy := -thickness + 1; oy < thickness; oy++ {
		for ox := -thickness + 1; ox < thickness; ox++ {
			p := image.Pt(x+ox, y+oy)
			if p.In(canvas.Bounds()) {
				canvas.SetRGBA(p.X, p.Y, c)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
