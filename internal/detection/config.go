package detection

// Standard trading card dimensions are 2.5 x 3.5 inches.
const defaultTargetAspect = 2.5 / 3.5

// ScoreWeights sets the relative contribution of each sub-score to a
// candidate's confidence. The values are a tuning heuristic, not a
// calibrated probability; they are exposed here so they can be adjusted
// and tested independently of the scoring code.
type ScoreWeights struct {
	// Aspect weights how closely the bounding-box aspect ratio matches
	// the target card aspect.
	Aspect float64

	// Area weights how comfortably the candidate area sits inside the
	// plausible fraction of the frame.
	Area float64

	// Vertex weights how close the polygon is to a clean 4-corner
	// rectangle.
	Vertex float64
}

func (w ScoreWeights) total() float64 {
	return w.Aspect + w.Area + w.Vertex
}

// Config carries the parameters for one pipeline run. The zero value is
// usable: every field defaults as documented when left unset, so callers
// only override what they need.
type Config struct {
	// MinAreaRatio is the smallest fraction of the frame a candidate may
	// cover. Default 0.05. The boundary is inclusive.
	MinAreaRatio float64

	// MaxAreaRatio is the largest fraction of the frame a candidate may
	// cover; anything larger is likely the frame itself. Default 0.95.
	// The boundary is inclusive.
	MaxAreaRatio float64

	// MinVertices and MaxVertices bound the accepted polygon vertex count.
	// Cards are rectangular, but corner rounding and perspective noise can
	// over-segment the outline slightly. Defaults 4 and 6.
	MinVertices int
	MaxVertices int

	// TargetAspect is the card aspect ratio as shorter/longer side.
	// Default 2.5/3.5.
	TargetAspect float64

	// AreaPlateauLow and AreaPlateauHigh delimit the area ratios that get
	// a full area sub-score; outside the plateau the sub-score decays
	// linearly toward zero at the filter boundaries. Defaults 0.15, 0.6.
	AreaPlateauLow  float64
	AreaPlateauHigh float64

	// MinConfidence is the smallest confidence accepted as a successful
	// detection; the best candidate below it reports no card instead of a
	// low-quality crop. Default 0.35.
	MinConfidence float64

	// Weights combines the three sub-scores. Defaults 0.5/0.3/0.2.
	Weights ScoreWeights
}

// DefaultConfig returns the configuration used when callers do not
// override anything.
func DefaultConfig() Config {
	return Config{
		MinAreaRatio:    0.05,
		MaxAreaRatio:    0.95,
		MinVertices:     4,
		MaxVertices:     6,
		TargetAspect:    defaultTargetAspect,
		AreaPlateauLow:  0.15,
		AreaPlateauHigh: 0.6,
		MinConfidence:   0.35,
		Weights:         ScoreWeights{Aspect: 0.5, Area: 0.3, Vertex: 0.2},
	}
}

// withDefaults fills unset fields so a zero Config behaves like
// DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MinAreaRatio <= 0 {
		c.MinAreaRatio = def.MinAreaRatio
	}
	if c.MaxAreaRatio <= 0 {
		c.MaxAreaRatio = def.MaxAreaRatio
	}
	if c.MinVertices <= 0 {
		c.MinVertices = def.MinVertices
	}
	if c.MaxVertices <= 0 {
		c.MaxVertices = def.MaxVertices
	}
	if c.TargetAspect <= 0 {
		c.TargetAspect = def.TargetAspect
	}
	if c.AreaPlateauLow <= 0 {
		c.AreaPlateauLow = def.AreaPlateauLow
	}
	if c.AreaPlateauHigh <= 0 {
		c.AreaPlateauHigh = def.AreaPlateauHigh
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = def.MinConfidence
	}
	if c.Weights.total() <= 0 {
		c.Weights = def.Weights
	}
	return c
}
