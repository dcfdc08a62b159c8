// Package detection implements the card detection pipeline: locating
// card-shaped regions in a frame, flattening each one to a canonical top-down
// view, isolating its corner rank and suit glyphs, and identifying them by
// template matching.
//
// # Pipeline
//
// Data flows strictly forward through the stages; every stage only narrows
// the information produced by the one before it:
//
//	frame -> binary image -> candidate regions -> flattened cards
//	      -> isolated glyphs -> matched identities
//
//  1. Preprocess: grayscale, smoothing, adaptive threshold (internal/imaging)
//  2. FindRegions: contour extraction, area/aspect/quad filtering
//  3. Flatten: perspective correction to a canonical card image
//  4. ExtractGlyphs: corner crop, per-card threshold, glyph isolation
//  5. MatchGlyph: pixel-difference scoring against stored templates
//
// # Failure Isolation
//
// Candidates are processed independently: a malformed contour (overlapping
// cards, occlusion) degrades to one skipped or Unknown detection, never a
// failed frame. No condition inside Detect is fatal; the worst outcome is an
// empty or low-confidence result list.
//
// # Unknown Over Guessing
//
// Whenever a glyph's best template difference exceeds the threshold for its
// kind, the pipeline reports Unknown with zero confidence instead of the
// nominal best match. The system narrates cards to players who cannot see
// them; a wrong answer is strictly worse than an honest Unknown.
//
// # Concurrency
//
// A Detector is stateless across calls and holds only the immutable template
// store, so concurrent Detect calls on different frames are safe without
// synchronization.
package detection
