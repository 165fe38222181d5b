package imaging

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// ErrDegenerateCorners is returned by Rectify when the four corner points
// do not form a usable quadrilateral (collinear points, duplicates, or a
// near-zero enclosed area).
var ErrDegenerateCorners = errors.New("degenerate corner geometry")

// OrderCorners arranges four points into the canonical order
// top-left, top-right, bottom-right, bottom-left.
//
// Classification uses the sum and difference of the coordinates: the
// top-left corner has the minimal x+y, the bottom-right the maximal x+y,
// the top-right the minimal y-x, and the bottom-left the maximal y-x.
// This holds regardless of the order the corners arrive in and of how the
// card was rotated in the source photo.
func OrderCorners(pts [4]image.Point) [4]image.Point {
	var ordered [4]image.Point
	ordered[0] = pts[0]
	ordered[1] = pts[0]
	ordered[2] = pts[0]
	ordered[3] = pts[0]

	minSum, maxSum := pts[0].X+pts[0].Y, pts[0].X+pts[0].Y
	minDiff, maxDiff := pts[0].Y-pts[0].X, pts[0].Y-pts[0].X

	for _, p := range pts[1:] {
		sum := p.X + p.Y
		diff := p.Y - p.X
		if sum < minSum {
			minSum = sum
			ordered[0] = p
		}
		if sum > maxSum {
			maxSum = sum
			ordered[2] = p
		}
		if diff < minDiff {
			minDiff = diff
			ordered[1] = p
		}
		if diff > maxDiff {
			maxDiff = diff
			ordered[3] = p
		}
	}
	return ordered
}

// Rectify warps the quadrilateral region delimited by the four corners
// into a flat, upright rectangle.
//
// The destination width is the longer of the top and bottom edges and the
// destination height the longer of the left and right edges, so the output
// keeps the card's own measured aspect ratio rather than forcing a fixed
// one. Pixels are resampled through an inverse planar homography with
// bilinear interpolation. If the warped result is wider than tall it is
// rotated 90 degrees; card crops are always portrait-oriented.
func Rectify(src image.Image, corners [4]image.Point) (image.Image, error) {
	ordered := OrderCorners(corners)

	if quadArea(ordered) < 4.0 {
		return nil, ErrDegenerateCorners
	}

	topW := pointDist(ordered[0], ordered[1])
	bottomW := pointDist(ordered[3], ordered[2])
	leftH := pointDist(ordered[0], ordered[3])
	rightH := pointDist(ordered[1], ordered[2])

	dstW := int(math.Round(math.Max(topW, bottomW)))
	dstH := int(math.Round(math.Max(leftH, rightH)))
	if dstW < 2 || dstH < 2 {
		return nil, ErrDegenerateCorners
	}

	// Homography mapping destination rectangle corners onto the source quad,
	// so every output pixel pulls from one source location.
	dst := [4]pointF{
		{0, 0},
		{float64(dstW - 1), 0},
		{float64(dstW - 1), float64(dstH - 1)},
		{0, float64(dstH - 1)},
	}
	srcQuad := [4]pointF{
		{float64(ordered[0].X), float64(ordered[0].Y)},
		{float64(ordered[1].X), float64(ordered[1].Y)},
		{float64(ordered[2].X), float64(ordered[2].Y)},
		{float64(ordered[3].X), float64(ordered[3].Y)},
	}
	h, ok := homography(dst, srcQuad)
	if !ok {
		return nil, ErrDegenerateCorners
	}

	bounds := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			sx, sy := h.apply(float64(x), float64(y))
			out.Set(x, y, bilinearSample(src, sx+float64(bounds.Min.X), sy+float64(bounds.Min.Y)))
		}
	}

	if dstW > dstH {
		return imaging.Rotate90(out), nil
	}
	return out, nil
}

type pointF struct {
	X, Y float64
}

// homographyMatrix is a 3x3 projective transform stored row-major with
// the bottom-right element fixed at 1.
type homographyMatrix [9]float64

func (h homographyMatrix) apply(x, y float64) (float64, float64) {
	denom := h[6]*x + h[7]*y + h[8]
	if denom == 0 {
		return math.Inf(-1), math.Inf(-1)
	}
	return (h[0]*x + h[1]*y + h[2]) / denom, (h[3]*x + h[4]*y + h[5]) / denom
}

// homography computes the projective transform taking p[i] to q[i] for the
// four point pairs. The 8 unknowns are solved with Gaussian elimination
// and partial pivoting; a singular system (degenerate quads) reports !ok.
func homography(p, q [4]pointF) (homographyMatrix, bool) {
	var a [8][9]float64 // augmented 8x8 system

	for i := 0; i < 4; i++ {
		sx, sy := p[i].X, p[i].Y
		tx, ty := q[i].X, q[i].Y
		r := 2 * i
		a[r] = [9]float64{sx, sy, 1, 0, 0, 0, -sx * tx, -sy * tx, tx}
		a[r+1] = [9]float64{0, 0, 0, sx, sy, 1, -sx * ty, -sy * ty, ty}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return homographyMatrix{}, false
		}
		a[col], a[pivot] = a[pivot], a[col]

		div := a[col][col]
		for c := col; c < 9; c++ {
			a[col][c] /= div
		}
		for r := 0; r < 8; r++ {
			if r == col || a[r][col] == 0 {
				continue
			}
			factor := a[r][col]
			for c := col; c < 9; c++ {
				a[r][c] -= factor * a[col][c]
			}
		}
	}

	return homographyMatrix{
		a[0][8], a[1][8], a[2][8],
		a[3][8], a[4][8], a[5][8],
		a[6][8], a[7][8], 1,
	}, true
}

// bilinearSample reads a sub-pixel location from src. Samples outside the
// image resolve to opaque black.
func bilinearSample(src image.Image, x, y float64) color.Color {
	b := src.Bounds()
	if x < float64(b.Min.X) || y < float64(b.Min.Y) || x > float64(b.Max.X-1) || y > float64(b.Max.Y-1) {
		return color.NRGBA{0, 0, 0, 255}
	}

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 >= b.Max.X {
		x1 = b.Max.X - 1
	}
	if y1 >= b.Max.Y {
		y1 = b.Max.Y - 1
	}
	fx := x - float64(x0)
	fy := y - float64(y0)

	c00 := channelsOf(src.At(x0, y0))
	c10 := channelsOf(src.At(x1, y0))
	c01 := channelsOf(src.At(x0, y1))
	c11 := channelsOf(src.At(x1, y1))

	var mixed [4]float64
	for i := 0; i < 4; i++ {
		top := c00[i] + (c10[i]-c00[i])*fx
		bot := c01[i] + (c11[i]-c01[i])*fx
		mixed[i] = top + (bot-top)*fy
	}
	return color.NRGBA{
		R: uint8(mixed[0] + 0.5),
		G: uint8(mixed[1] + 0.5),
		B: uint8(mixed[2] + 0.5),
		A: uint8(mixed[3] + 0.5),
	}
}

func channelsOf(c color.Color) [4]float64 {
	r, g, b, a := c.RGBA()
	return [4]float64{float64(r >> 8), float64(g >> 8), float64(b >> 8), float64(a >> 8)}
}

// quadArea returns the area enclosed by the four ordered corners
// (shoelace formula).
func quadArea(pts [4]image.Point) float64 {
	sum := 0
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

func pointDist(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
