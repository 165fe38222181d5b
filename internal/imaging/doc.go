// Package imaging provides the pixel-level primitives of the card
// detection pipeline: preprocessing a photograph into a binary foreground
// mask, perspective rectification of a detected quadrilateral, and the
// byte-level decode/encode helpers used at the API boundary.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left
// corner; X increases rightward and Y increases downward.
//
// # Thread Safety
//
// Every function in this package is a pure transform of its inputs.
// Nothing retains state between calls, so concurrent use on different
// images needs no synchronization.
//
// # Error Handling
//
// Preprocessing never fails: a featureless input produces a degenerate
// mask that simply yields no candidates downstream. Rectification fails
// only with ErrDegenerateCorners when the corner geometry cannot describe
// a quadrilateral. Codec functions fail on malformed or unsupported
// image bytes.
package imaging
