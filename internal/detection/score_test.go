package detection

import (
	"math"
	"testing"
)

func TestAspectScoreMonotonicInDeviation(t *testing.T) {
	target := DefaultConfig().TargetAspect

	if got := aspectScore(target, target); got != 1 {
		t.Errorf("exact match scored %.4f, want 1", got)
	}

	// Increasing deviation must never raise the score.
	prev := 1.0
	for _, dev := range []float64{0.02, 0.05, 0.1, 0.2, 0.4, 0.8} {
		got := aspectScore(target+dev, target)
		if got > prev {
			t.Errorf("score rose from %.4f to %.4f at deviation %.2f", prev, got, dev)
		}
		prev = got
	}

	if got := aspectScore(target*3, target); got != 0 {
		t.Errorf("far-off aspect scored %.4f, want 0", got)
	}
}

func TestAreaScorePlateau(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		ratio float64
		want  float64
	}{
		{0.15, 1},    // plateau low edge
		{0.35, 1},    // inside plateau
		{0.60, 1},    // plateau high edge
		{0.05, 0},    // filter minimum
		{0.10, 0.5},  // halfway up the low ramp
		{0.95, 0},    // filter maximum
		{0.775, 0.5}, // halfway down the high ramp
	}
	for _, tc := range cases {
		got := areaScore(tc.ratio, cfg)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("areaScore(%.3f) = %.4f, want %.4f", tc.ratio, got, tc.want)
		}
	}
}

func TestVertexScore(t *testing.T) {
	if got := vertexScore(4); got != 1.0 {
		t.Errorf("4 vertices scored %.2f, want 1.0", got)
	}
	if got := vertexScore(5); got != 0.8 {
		t.Errorf("5 vertices scored %.2f, want 0.8", got)
	}
	if got := vertexScore(6); got != 0.6 {
		t.Errorf("6 vertices scored %.2f, want 0.6", got)
	}
}

func TestScoreCandidateMonotonicInAspect(t *testing.T) {
	cfg := DefaultConfig()

	// Same area and vertex count: confidence must track aspect closeness.
	base := Candidate{AreaRatio: 0.3, VertexCount: 4}

	prev := math.Inf(1)
	for _, dev := range []float64{0, 0.05, 0.15, 0.3} {
		c := base
		c.Aspect = cfg.TargetAspect + dev
		got := scoreCandidate(c, cfg)
		if got > prev {
			t.Errorf("confidence rose to %.4f at aspect deviation %.2f", got, dev)
		}
		prev = got
	}
}

func TestScoreCandidatePerfectCandidate(t *testing.T) {
	cfg := DefaultConfig()
	c := Candidate{AreaRatio: 0.3, Aspect: cfg.TargetAspect, VertexCount: 4}

	if got := scoreCandidate(c, cfg); math.Abs(got-1) > 1e-9 {
		t.Errorf("ideal candidate scored %.4f, want 1", got)
	}
}

func TestScoreCandidateZeroWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = ScoreWeights{}

	c := Candidate{AreaRatio: 0.3, Aspect: cfg.TargetAspect, VertexCount: 4}
	if got := scoreCandidate(c, cfg); got != 0 {
		t.Errorf("zero-weight score = %.4f, want 0", got)
	}
}

func TestBestCandidate(t *testing.T) {
	if got := bestCandidate(nil); got != -1 {
		t.Errorf("bestCandidate(nil) = %d, want -1", got)
	}

	cands := []Candidate{
		{Confidence: 0.6, AreaRatio: 0.2},
		{Confidence: 0.9, AreaRatio: 0.3},
		{Confidence: 0.7, AreaRatio: 0.5},
	}
	if got := bestCandidate(cands); got != 1 {
		t.Errorf("bestCandidate = %d, want 1", got)
	}
}

func TestBestCandidateTieBreaks(t *testing.T) {
	// Equal confidence: larger area wins.
	cands := []Candidate{
		{Confidence: 0.8, AreaRatio: 0.2},
		{Confidence: 0.8, AreaRatio: 0.4},
	}
	if got := bestCandidate(cands); got != 1 {
		t.Errorf("area tie-break picked %d, want 1", got)
	}

	// Full tie: first in input order wins.
	cands = []Candidate{
		{Confidence: 0.8, AreaRatio: 0.3},
		{Confidence: 0.8, AreaRatio: 0.3},
	}
	if got := bestCandidate(cands); got != 0 {
		t.Errorf("full tie picked %d, want 0", got)
	}
}
