package detection

import (
	"errors"
	"fmt"
	"image"

	"cardcrop/internal/imaging"
)

// Detect runs the full detection-and-rectification pipeline over one
// image: preprocess to a mask, extract contours, filter and score
// candidates, then rectify the single best candidate.
//
// Detect is a pure function of its inputs. Stages execute exactly once in
// sequence with no retries, no shared state survives between invocations,
// and repeated calls with the same inputs produce identical results, so
// callers may run any number of invocations concurrently. Wall-clock
// budgets are the caller's job; Detect performs no blocking I/O and all
// loops are bounded by the image dimensions.
//
// Failures are reported in the result, never panicked: an unexpected
// stage failure surfaces as FailureInternal rather than a best-effort
// crop.
func Detect(img image.Image, cfg Config) (result DetectionResult) {
	cfg = cfg.withDefaults()
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	defer func() {
		if r := recover(); r != nil {
			result = DetectionResult{
				Failure:        FailureInternal,
				Message:        fmt.Sprintf("%s: %v", FailureInternal.Message(), r),
				OriginalWidth:  width,
				OriginalHeight: height,
			}
		}
	}()

	candidates, best := findCandidates(img, cfg)
	if best < 0 {
		return DetectionResult{
			Failure:        FailureNoCard,
			Message:        FailureNoCard.Message(),
			OriginalWidth:  width,
			OriginalHeight: height,
		}
	}

	winner := candidates[best]
	if winner.Confidence < cfg.MinConfidence {
		// A candidate existed but not a convincing one; report its
		// confidence so the caller can see how close it came.
		return DetectionResult{
			Failure:        FailureNoCard,
			Message:        FailureNoCard.Message(),
			Confidence:     winner.Confidence,
			OriginalWidth:  width,
			OriginalHeight: height,
		}
	}

	corners := imaging.OrderCorners(fourCorners(winner.Polygon))
	rectified, err := imaging.Rectify(img, corners)
	if err != nil {
		kind := rectifyFailureKind(err)
		return DetectionResult{
			Failure:        kind,
			Message:        kind.Message(),
			Confidence:     winner.Confidence,
			OriginalWidth:  width,
			OriginalHeight: height,
		}
	}

	cropped := rectified.Bounds()
	return DetectionResult{
		Success:        true,
		Message:        FailureNone.Message(),
		Confidence:     winner.Confidence,
		Corners:        corners,
		OriginalWidth:  width,
		OriginalHeight: height,
		Image:          rectified,
		CroppedWidth:   cropped.Dx(),
		CroppedHeight:  cropped.Dy(),
	}
}

// rectifyFailureKind classifies a rectification error: degenerate
// corners are a geometry failure the client can act on, anything else
// is internal.
func rectifyFailureKind(err error) FailureKind {
	if errors.Is(err, imaging.ErrDegenerateCorners) {
		return FailureGeometry
	}
	return FailureInternal
}

// findCandidates runs the front half of the pipeline (preprocess,
// contour extraction, filtering, scoring) and returns every scored
// candidate plus the index of the winner, or -1 when none survived.
// Shared by Detect and the debug overlay renderer.
func findCandidates(img image.Image, cfg Config) ([]Candidate, int) {
	cfg = cfg.withDefaults()
	bounds := img.Bounds()

	mask := imaging.BuildMask(img, imaging.MaskOptions{})
	contours := extractContours(mask)
	candidates := filterCandidates(contours, bounds.Dx(), bounds.Dy(), cfg)
	for i := range candidates {
		candidates[i].Confidence = scoreCandidate(candidates[i], cfg)
	}
	return candidates, bestCandidate(candidates)
}
