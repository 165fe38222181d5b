// Package detection turns a photograph of a trading card into a
// rectified, portrait-oriented crop of just the card, with a confidence
// estimate of detection quality.
//
// # Pipeline
//
// Detect runs five stages in strict sequence, each a pure function of the
// previous stage's output:
//
//  1. Preprocess: build a binary foreground mask (imaging.BuildMask)
//  2. Extract: trace external contours and approximate them as polygons
//  3. Filter: discard shapes that cannot plausibly be a card (wrong
//     size relative to the frame, wrong vertex count)
//  4. Score: weigh aspect-ratio match, area plausibility and vertex
//     regularity into one confidence value, then select the single best
//     candidate
//  5. Rectify: warp the source image through the winner's corners into a
//     flat upright rectangle (imaging.Rectify)
//
// Exactly one candidate, if any, is promoted to the result; the pipeline
// never returns multiple crops and never retries with alternate
// parameters.
//
// # Confidence Scores
//
// Confidence is a heuristic in [0, 1] combining three normalized
// sub-scores under fixed weights (ScoreWeights). It estimates how
// card-like the winning shape is; it is not a calibrated probability.
// Results whose confidence falls below Config.MinConfidence are reported
// as FailureNoCard rather than returned as low-quality crops.
//
// # Failure Taxonomy
//
// Failures form the closed FailureKind set so callers branch on the kind,
// not on message text. Every failure carries a human-readable reason.
//
// # Concurrency
//
// The pipeline holds no state across invocations. Concurrent calls on
// different images are safe without locking; timeouts around a call are
// the caller's responsibility.
package detection
