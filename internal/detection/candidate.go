package detection

import "image"

// Candidate is a contour that survived filtering, annotated with the
// measurements the scorer works from. Candidates live only within one
// pipeline run.
type Candidate struct {
	// Polygon is the approximated outline.
	Polygon Polygon

	// AreaRatio is the contour area divided by the image area, in [0, 1].
	AreaRatio float64

	// Aspect is the bounding-box aspect ratio as min(w,h)/max(w,h).
	Aspect float64

	// VertexCount is the number of vertices in the approximated polygon.
	VertexCount int

	// Confidence is assigned by the scorer, 0 until scored.
	Confidence float64
}

// filterCandidates keeps the contours that could plausibly be a card.
// Each rule rejects independently: an area ratio outside
// [MinAreaRatio, MaxAreaRatio] (both boundaries inclusive), or a vertex
// count outside [MinVertices, MaxVertices]. Input order is preserved.
func filterCandidates(contours []contour, imgW, imgH int, cfg Config) []Candidate {
	imageArea := float64(imgW) * float64(imgH)
	if imageArea <= 0 {
		return nil
	}

	var candidates []Candidate
	for _, c := range contours {
		areaRatio := c.area / imageArea
		if areaRatio < cfg.MinAreaRatio || areaRatio > cfg.MaxAreaRatio {
			continue
		}

		vertices := len(c.approx)
		if vertices < cfg.MinVertices || vertices > cfg.MaxVertices {
			continue
		}

		candidates = append(candidates, Candidate{
			Polygon:     c.approx,
			AreaRatio:   areaRatio,
			Aspect:      boundingBoxAspect(c.boundary),
			VertexCount: vertices,
		})
	}
	return candidates
}

// boundingBoxAspect returns min(w,h)/max(w,h) for the axis-aligned
// bounding box of the points.
func boundingBoxAspect(pts []image.Point) float64 {
	if len(pts) == 0 {
		return 0
	}
	minX, maxX := pts[0].X, pts[0].X
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	w := maxX - minX
	h := maxY - minY
	if w <= 0 || h <= 0 {
		return 0
	}
	if w < h {
		return float64(w) / float64(h)
	}
	return float64(h) / float64(w)
}

// fourCorners reduces a polygon to the four card corners.
//
// A 4-vertex polygon is taken as-is. Polygons with extra vertices (corner
// rounding, perspective noise) fall back to the coordinate extremes: the
// minimal and maximal x+y pick the top-left and bottom-right corners, the
// minimal and maximal y-x the top-right and bottom-left.
func fourCorners(poly Polygon) [4]image.Point {
	if len(poly) == 4 {
		return [4]image.Point{poly[0], poly[1], poly[2], poly[3]}
	}

	tl, tr, br, bl := poly[0], poly[0], poly[0], poly[0]
	for _, p := range poly[1:] {
		if p.X+p.Y < tl.X+tl.Y {
			tl = p
		}
		if p.X+p.Y > br.X+br.Y {
			br = p
		}
		if p.Y-p.X < tr.Y-tr.X {
			tr = p
		}
		if p.Y-p.X > bl.Y-bl.X {
			bl = p
		}
	}
	return [4]image.Point{tl, tr, br, bl}
}
