package detection

import "math"

// scoreCandidate computes a confidence in [0, 1] from three independent
// checks, each normalized to [0, 1] before weighting.
//
// The weighting is a fixed heuristic (see ScoreWeights); it estimates how
// card-like a shape is, not a calibrated probability of anything.
func scoreCandidate(c Candidate, cfg Config) float64 {
	weights := cfg.Weights
	total := weights.total()
	if total <= 0 {
		return 0
	}

	score := weights.Aspect*aspectScore(c.Aspect, cfg.TargetAspect) +
		weights.Area*areaScore(c.AreaRatio, cfg) +
		weights.Vertex*vertexScore(c.VertexCount)

	return clamp01(score / total)
}

// aspectScore rewards bounding boxes whose aspect is close to the target
// card aspect: 1 at an exact match, decaying linearly with relative
// deviation and clamped at zero.
func aspectScore(aspect, target float64) float64 {
	return clamp01(1 - math.Abs(aspect-target)/target)
}

// areaScore is a plateau function over the area ratio: full score inside
// [AreaPlateauLow, AreaPlateauHigh], decaying linearly to zero at the
// filter boundaries. A candidate that barely passed the area filter
// scores lower than one comfortably inside the plausible range.
func areaScore(ratio float64, cfg Config) float64 {
	switch {
	case ratio >= cfg.AreaPlateauLow && ratio <= cfg.AreaPlateauHigh:
		return 1
	case ratio < cfg.AreaPlateauLow:
		span := cfg.AreaPlateauLow - cfg.MinAreaRatio
		if span <= 0 {
			return 1
		}
		return clamp01((ratio - cfg.MinAreaRatio) / span)
	default:
		span := cfg.MaxAreaRatio - cfg.AreaPlateauHigh
		if span <= 0 {
			return 1
		}
		return clamp01((cfg.MaxAreaRatio - ratio) / span)
	}
}

// vertexScore is highest for a clean 4-corner outline and decays as
// over-segmentation adds vertices.
func vertexScore(vertices int) float64 {
	switch vertices {
	case 4:
		return 1.0
	case 5:
		return 0.8
	default:
		return 0.6
	}
}

// bestCandidate picks the single winning index: highest confidence, ties
// broken by larger area ratio, then by input order. Returns -1 for an
// empty slice.
func bestCandidate(candidates []Candidate) int {
	best := -1
	for i, c := range candidates {
		if best < 0 {
			best = i
			continue
		}
		switch {
		case c.Confidence > candidates[best].Confidence:
			best = i
		case c.Confidence == candidates[best].Confidence && c.AreaRatio > candidates[best].AreaRatio:
			best = i
		}
	}
	return best
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
