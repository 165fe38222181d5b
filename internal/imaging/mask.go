package imaging

// Mask is a single-channel binary image produced by the preprocessor.
//
// A set bit marks a foreground pixel (edge or bright region). Masks have the
// same dimensions as the image they were derived from and are discarded once
// contour extraction has run.
type Mask struct {
	// Width is the mask width in pixels.
	Width int

	// Height is the mask height in pixels.
	Height int

	bits [][]bool
}

// NewMask creates an all-zero mask of the given dimensions.
func NewMask(width, height int) *Mask {
	bits := make([][]bool, height)
	for y := 0; y < height; y++ {
		bits[y] = make([]bool, width)
	}
	return &Mask{Width: width, Height: height, bits: bits}
}

// At reports whether the pixel at (x, y) is foreground.
// Coordinates outside the mask are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return false
	}
	return m.bits[y][x]
}

// Set marks the pixel at (x, y) as foreground. Out-of-range coordinates are ignored.
func (m *Mask) Set(x, y int) {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return
	}
	m.bits[y][x] = true
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.bits[y][x] {
				n++
			}
		}
	}
	return n
}

// dilate grows foreground regions by one pixel in every direction (3x3
// structuring element). Used to reconnect edges broken by noise.
func (m *Mask) dilate() *Mask {
	out := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.bits[y][x] {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					out.Set(x+dx, y+dy)
				}
			}
		}
	}
	return out
}
