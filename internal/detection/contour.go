package detection

import (
	"image"
	"math"

	"cardcrop/internal/imaging"
)

// Polygon is an ordered sequence of 2D integer points approximating one
// contour. Not guaranteed convex or axis-aligned.
type Polygon []image.Point

// approxEpsilonFrac scales the polygon approximation tolerance with the
// contour perimeter, so approximation tightness follows contour size
// instead of a fixed pixel value.
const approxEpsilonFrac = 0.02

// minComponentPixels discards tiny connected components as noise before
// any boundary work happens.
const minComponentPixels = 10

// contour is one traced foreground region: its external boundary in order,
// plus the measurements the filter needs.
type contour struct {
	boundary  []image.Point
	approx    Polygon
	area      float64 // enclosed by the boundary, in square pixels
	perimeter float64
}

// extractContours finds the external closed boundary of every connected
// foreground region in the mask and reduces each to a polygon
// approximation.
//
// Components are visited in row-major scan order, which makes the output
// order deterministic; downstream tie-breaking relies on that stability
// and on nothing else about the order.
func extractContours(m *imaging.Mask) []contour {
	visited := make([][]bool, m.Height)
	for y := 0; y < m.Height; y++ {
		visited[y] = make([]bool, m.Width)
	}

	var contours []contour
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.At(x, y) || visited[y][x] {
				continue
			}

			size := floodComponent(m, visited, x, y)
			if size < minComponentPixels {
				continue
			}

			boundary := traceBoundary(m, image.Pt(x, y), 2*size+16)
			if len(boundary) < 4 {
				continue
			}

			peri := closedLength(boundary)
			approx := approxPolygon(boundary, approxEpsilonFrac*peri)
			if len(approx) < 3 {
				continue
			}

			contours = append(contours, contour{
				boundary:  boundary,
				approx:    approx,
				area:      polygonArea(boundary),
				perimeter: peri,
			})
		}
	}
	return contours
}

// floodComponent marks every pixel 8-connected to (startX, startY) as
// visited and returns the component size. Stack-based to avoid recursion
// depth limits on large regions.
func floodComponent(m *imaging.Mask, visited [][]bool, startX, startY int) int {
	stack := []image.Point{{X: startX, Y: startY}}
	size := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !m.At(p.X, p.Y) || visited[p.Y][p.X] {
			continue
		}
		visited[p.Y][p.X] = true
		size++

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.X+dx, p.Y+dy
				if m.At(nx, ny) && !visited[ny][nx] {
					stack = append(stack, image.Pt(nx, ny))
				}
			}
		}
	}
	return size
}

// mooreRing lists the 8 neighbors in clockwise order starting from west.
var mooreRing = [8]image.Point{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// traceBoundary walks the external boundary of the component containing
// start using Moore neighbor tracing.
//
// start must be the component's first pixel in row-major scan order, which
// guarantees its west neighbor is background and gives the walk a valid
// entry state. The walk terminates when it returns to the start pixel, or
// after limit steps as a hard bound against pathological masks.
func traceBoundary(m *imaging.Mask, start image.Point, limit int) []image.Point {
	boundary := []image.Point{start}
	prev := image.Pt(start.X-1, start.Y)
	cur := start

	for step := 0; step < limit; step++ {
		// Locate the backtrack cell in the ring around cur, then scan
		// clockwise from just past it for the next boundary pixel.
		idx := 0
		for i, off := range mooreRing {
			if cur.Add(off) == prev {
				idx = i
				break
			}
		}

		moved := false
		for k := 1; k <= 8; k++ {
			off := mooreRing[(idx+k)%8]
			n := cur.Add(off)
			if m.At(n.X, n.Y) {
				prev = cur.Add(mooreRing[(idx+k-1)%8])
				cur = n
				moved = true
				break
			}
		}
		if !moved {
			// Isolated pixel: its boundary is itself.
			break
		}
		if cur == start {
			break
		}
		boundary = append(boundary, cur)
	}
	return boundary
}

// approxPolygon reduces a closed boundary to a small vertex set using
// Douglas-Peucker simplification with tolerance eps.
//
// The closed curve is split at two far-apart anchor points so the
// simplification runs on open chains; the anchors are found with two
// farthest-point sweeps, which lands them near opposite extremes of the
// shape.
func approxPolygon(boundary []image.Point, eps float64) Polygon {
	n := len(boundary)
	if n <= 4 {
		return Polygon(append([]image.Point(nil), boundary...))
	}

	a := farthestFrom(boundary, 0)
	b := farthestFrom(boundary, a)
	if a == b {
		return Polygon{boundary[0]}
	}
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}

	first := douglasPeucker(boundary[lo:hi+1], eps)
	second := douglasPeucker(append(append([]image.Point(nil), boundary[hi:]...), boundary[:lo+1]...), eps)

	// Join the two chains, dropping the duplicated anchor endpoints.
	poly := make(Polygon, 0, len(first)+len(second)-2)
	poly = append(poly, first...)
	if len(second) > 2 {
		poly = append(poly, second[1:len(second)-1]...)
	}
	return poly
}

// farthestFrom returns the index of the boundary point farthest from
// boundary[i].
func farthestFrom(boundary []image.Point, i int) int {
	best := i
	bestDist := -1.0
	for j, p := range boundary {
		d := sqDist(boundary[i], p)
		if d > bestDist {
			bestDist = d
			best = j
		}
	}
	return best
}

// douglasPeucker simplifies an open polyline, keeping both endpoints.
func douglasPeucker(pts []image.Point, eps float64) []image.Point {
	if len(pts) < 3 {
		return append([]image.Point(nil), pts...)
	}

	last := len(pts) - 1
	maxDist := 0.0
	maxIdx := 0
	for i := 1; i < last; i++ {
		d := perpendicularDist(pts[i], pts[0], pts[last])
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= eps {
		return []image.Point{pts[0], pts[last]}
	}

	left := douglasPeucker(pts[:maxIdx+1], eps)
	right := douglasPeucker(pts[maxIdx:], eps)
	return append(left[:len(left)-1], right...)
}

// perpendicularDist is the distance from p to the line through a and b.
// Falls back to point distance when a == b.
func perpendicularDist(p, a, b image.Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return math.Sqrt(sqDist(p, a))
	}
	return math.Abs(dy*float64(p.X-a.X)-dx*float64(p.Y-a.Y)) / length
}

// polygonArea computes the enclosed area of a closed point sequence with
// the shoelace formula.
func polygonArea(pts []image.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// closedLength is the perimeter of a closed point sequence.
func closedLength(pts []image.Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	total := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		total += math.Hypot(float64(pts[j].X-pts[i].X), float64(pts[j].Y-pts[i].Y))
	}
	return total
}

func sqDist(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return dx*dx + dy*dy
}
