package detection

import "image"

// FailureKind identifies why a pipeline run did not produce a crop.
// It is a closed set so callers can branch on the kind without matching
// message strings.
type FailureKind int

const (
	// FailureNone means the run succeeded.
	FailureNone FailureKind = iota

	// FailureNoCard means no candidate survived filtering, or the best
	// candidate's confidence fell below the acceptance threshold.
	FailureNoCard

	// FailureGeometry means a candidate won scoring but its corners were
	// degenerate and could not be rectified.
	FailureGeometry

	// FailureTimeout means the caller's wall-clock budget expired. The
	// pipeline itself never sets this; it has no timeout awareness.
	FailureTimeout

	// FailureInternal means a stage failed unexpectedly. The pipeline
	// reports this rather than guessing at a plausible-looking crop.
	FailureInternal
)

// String returns a stable identifier for the failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureNoCard:
		return "no_card_detected"
	case FailureGeometry:
		return "invalid_geometry"
	case FailureTimeout:
		return "processing_timeout"
	case FailureInternal:
		return "internal_error"
	}
	return "unknown"
}

// Message returns the human-readable reason reported to end users.
func (k FailureKind) Message() string {
	switch k {
	case FailureNone:
		return "Card successfully detected and cropped"
	case FailureNoCard:
		return "No card detected in image. Please ensure the card is clearly visible against a contrasting background."
	case FailureGeometry:
		return "Detected card outline was too distorted to straighten"
	case FailureTimeout:
		return "Image processing timed out"
	case FailureInternal:
		return "Unexpected error while processing image"
	}
	return "Unknown failure"
}

// DetectionResult is the sole output of a pipeline run.
//
// On success, Image holds the rectified portrait-oriented crop, Corners
// the detected card corners in top-left, top-right, bottom-right,
// bottom-left order, and Confidence the detection quality estimate. On
// failure, Failure and Message describe the reason; Confidence carries the
// best candidate's score when one existed but fell below the threshold,
// and 0 otherwise.
type DetectionResult struct {
	Success    bool
	Failure    FailureKind
	Message    string
	Confidence float64

	// Corners is only meaningful when Success is true.
	Corners [4]image.Point

	OriginalWidth  int
	OriginalHeight int

	// Image, CroppedWidth and CroppedHeight are only set when Success is true.
	Image         image.Image
	CroppedWidth  int
	CroppedHeight int
}
