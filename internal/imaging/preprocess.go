package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
)

// MaskOptions controls the preprocessor. The zero value selects defaults
// tuned for photographs of trading cards.
type MaskOptions struct {
	// BlurRadius is the Gaussian smoothing radius applied before
	// thresholding and edge detection. Default 1.4.
	BlurRadius float64

	// ThresholdWindow is the side length of the square neighborhood used by
	// the adaptive threshold. Must be odd. Default 11.
	ThresholdWindow int

	// ThresholdC is subtracted from the neighborhood mean; pixels brighter
	// than mean-C become foreground. Default 2.
	ThresholdC float64

	// EdgeLow and EdgeHigh are the hysteresis thresholds (0-255) for the
	// gradient edge detector. Defaults 50 and 150.
	EdgeLow  float64
	EdgeHigh float64
}

func (o MaskOptions) withDefaults() MaskOptions {
	if o.BlurRadius <= 0 {
		o.BlurRadius = 1.4
	}
	if o.ThresholdWindow < 3 {
		o.ThresholdWindow = 11
	}
	if o.ThresholdWindow%2 == 0 {
		o.ThresholdWindow++
	}
	if o.ThresholdC == 0 {
		o.ThresholdC = 2
	}
	if o.EdgeLow <= 0 {
		o.EdgeLow = 50
	}
	if o.EdgeHigh <= 0 {
		o.EdgeHigh = 150
	}
	return o
}

// BuildMask converts a color image into a binary foreground mask suitable
// for contour search.
//
// The mask is the union of two detectors, which improves recall on cards
// that are low-contrast against their background:
//
//  1. Adaptive mean threshold: a pixel brighter than the mean of its local
//     window (minus a small constant) is foreground. Robust to uneven
//     lighting.
//  2. Gradient edge detection: Sobel gradients thinned by non-maximum
//     suppression and linked by hysteresis, marking region boundaries even
//     where absolute brightness gives no separation.
//
// The combined mask is dilated once to reconnect broken edges. BuildMask
// has no failure mode; a featureless input simply yields a degenerate mask
// that produces no candidates downstream.
func BuildMask(img image.Image, opts MaskOptions) *Mask {
	opts = opts.withDefaults()

	blurred := blur.Gaussian(img, opts.BlurRadius)
	gray := grayPlane(blurred)
	height := len(gray)
	if height == 0 {
		return NewMask(0, 0)
	}
	width := len(gray[0])

	mask := NewMask(width, height)
	adaptiveThreshold(gray, mask, opts.ThresholdWindow, opts.ThresholdC)
	markEdges(gray, mask, opts.EdgeLow, opts.EdgeHigh)
	return mask.dilate()
}

// grayPlane converts an image to a luminance plane (0-255) using the
// ITU-R BT.601 weights.
func grayPlane(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := make([][]float64, height)
	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			gray[y][x] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
		}
	}
	return gray
}

// adaptiveThreshold marks pixels brighter than their local window mean
// minus c. Uses a summed-area table so the cost is independent of the
// window size.
func adaptiveThreshold(gray [][]float64, mask *Mask, window int, c float64) {
	height := len(gray)
	width := len(gray[0])
	half := window / 2

	// integral[y][x] holds the sum of gray over [0,x) x [0,y).
	integral := make([][]float64, height+1)
	integral[0] = make([]float64, width+1)
	for y := 0; y < height; y++ {
		integral[y+1] = make([]float64, width+1)
		rowSum := 0.0
		for x := 0; x < width; x++ {
			rowSum += gray[y][x]
			integral[y+1][x+1] = integral[y][x+1] + rowSum
		}
	}

	for y := 0; y < height; y++ {
		y1 := clamp(y-half, 0, height-1)
		y2 := clamp(y+half, 0, height-1)
		for x := 0; x < width; x++ {
			x1 := clamp(x-half, 0, width-1)
			x2 := clamp(x+half, 0, width-1)
			area := float64((y2 - y1 + 1) * (x2 - x1 + 1))
			sum := integral[y2+1][x2+1] - integral[y1][x2+1] - integral[y2+1][x1] + integral[y1][x1]
			if gray[y][x] > sum/area-c {
				mask.Set(x, y)
			}
		}
	}
}

// markEdges runs gradient-based edge detection and ORs the result into the
// mask. Sobel gradients are thinned to one-pixel ridges by non-maximum
// suppression; weak edges survive only when touching a strong edge.
func markEdges(gray [][]float64, mask *Mask, low, high float64) {
	height := len(gray)
	width := len(gray[0])

	magnitude := make([][]float64, height)
	direction := make([][]float64, height)

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	for y := 0; y < height; y++ {
		magnitude[y] = make([]float64, width)
		direction[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					gx += gray[py][px] * sobelX[ky+1][kx+1]
					gy += gray[py][px] * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression: keep only local maxima along the gradient.
	suppressed := make([][]float64, height)
	for y := 0; y < height; y++ {
		suppressed[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			if y == 0 || y == height-1 || x == 0 || x == width-1 {
				continue
			}

			angle := direction[y][x]
			mag := magnitude[y][x]

			var n1, n2 float64
			if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
				n1 = magnitude[y][x-1]
				n2 = magnitude[y][x+1]
			} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
				n1 = magnitude[y-1][x+1]
				n2 = magnitude[y+1][x-1]
			} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
				n1 = magnitude[y-1][x]
				n2 = magnitude[y+1][x]
			} else {
				n1 = magnitude[y-1][x-1]
				n2 = magnitude[y+1][x+1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[y][x] = mag
			}
		}
	}

	// Hysteresis: strong edges always kept, weak edges only next to strong ones.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			val := suppressed[y][x]
			if val >= high {
				mask.Set(x, y)
				continue
			}
			if val < low {
				continue
			}
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					if suppressed[py][px] >= high {
						mask.Set(x, y)
					}
				}
			}
		}
	}
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
