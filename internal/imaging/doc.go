// Package imaging provides the low-level image operations behind card
// detection: frame preprocessing, perspective correction, and image I/O.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Preprocessing
//
// Preprocess converts a color camera frame into the grayscale and binary
// images the detection pipeline consumes. Binarization uses an adaptive
// (locally varying) threshold rather than a single global cutoff, because
// ambient lighting over a card table is uncontrolled and a global cutoff
// fails across the frame.
//
// # Perspective Correction
//
// Flatten warps an arbitrary quadrilateral region of a frame to a fixed-size
// top-down view of a card. The corner ordering performed by OrderPoints is
// load-bearing: an unordered point set produces a mirrored or rotated
// homography and silently corrupts every downstream glyph.
//
// # Error Handling
//
// Preprocessing never fails; a black frame yields a blank binary image.
// Perspective correction returns an error for degenerate quadrilaterals
// (duplicate or collinear corners make the homography singular); callers are
// expected to drop the affected region and continue with the rest of the
// frame.
package imaging
