package detection

import (
	"fmt"
	"image"
)

// Unknown is reported for a rank or suit whose best template match exceeded
// the rejection threshold, or when no templates of that kind are loaded.
const Unknown = "Unknown"

// Bounds is an axis-aligned bounding box in pixel coordinates.
// (X1, Y1) is the top-left corner (inclusive), (X2, Y2) the bottom-right
// (exclusive).
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Dx returns the width of the box.
func (b Bounds) Dx() int { return b.X2 - b.X1 }

// Dy returns the height of the box.
func (b Bounds) Dy() int { return b.Y2 - b.Y1 }

// Center returns the center point of the box.
func (b Bounds) Center() image.Point {
	return image.Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// CandidateRegion is a quadrilateral contour hypothesized to be a card.
// Regions are ephemeral: produced per frame by FindRegions and discarded once
// the frame's detections are emitted.
type CandidateRegion struct {
	// Contour is the traced boundary of the region, in discovery order.
	Contour []image.Point

	// Quad is the 4-vertex polygon approximation of the contour, in the
	// tracer's order (not yet canonically ordered; Flatten orders it).
	Quad [4]image.Point

	// Bounds is the axis-aligned bounding box of the contour.
	Bounds Bounds

	// Area is the shoelace area of the contour in square pixels.
	Area float64

	// AspectRatio is the orientation-normalized box ratio, shorter side
	// over longer side, always in (0, 1].
	AspectRatio float64
}

// DetectedCard is one identified (or honestly unidentified) card in a frame.
//
// A DetectedCard has no persistent identity; the same physical card produces
// a fresh record every frame. Frame-to-frame identity is a caller concern
// (see internal/tracking).
type DetectedCard struct {
	// Rank is "Ace".."King", or Unknown.
	Rank string `json:"rank"`

	// Suit is "Hearts", "Diamonds", "Clubs", "Spades", or Unknown.
	Suit string `json:"suit"`

	// RankConfidence is a monotonic match-quality proxy in [0, 1]:
	// 1 − diff/threshold, clipped. It is not a calibrated probability.
	RankConfidence float64 `json:"rank_confidence"`

	// SuitConfidence is the suit counterpart of RankConfidence.
	SuitConfidence float64 `json:"suit_confidence"`

	// Bounds is the card's axis-aligned bounding box in frame coordinates.
	Bounds Bounds `json:"bounds"`

	// Center is the center of Bounds.
	Center image.Point `json:"center"`
}

// String renders the card the way the game loop narrates it.
func (c DetectedCard) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

// Config holds the tunable detection parameters. Zero values are invalid;
// start from DefaultConfig. Validation happens once at Detector construction,
// never per frame.
type Config struct {
	// MinCardArea and MaxCardArea bound the contour area (px²) admitted as
	// a card. The window rejects sensor noise below and background objects
	// above. Defaults assume a 1280×720 frame with cards filling a
	// reasonable fraction of it.
	MinCardArea float64
	MaxCardArea float64

	// AspectRatioMin and AspectRatioMax bound the orientation-normalized
	// bounding-box ratio (shorter/longer side, in (0,1]). A standard
	// poker card is ≈0.71; the window must stay wide enough to admit
	// perspective distortion in either orientation.
	AspectRatioMin float64
	AspectRatioMax float64

	// CardWidth and CardHeight are the canonical flattened card size.
	CardWidth  int
	CardHeight int

	// CornerWidth and CornerHeight are the corner crop taken from the
	// flattened card, before the 4× upscale and rank/suit split. These are
	// calibration constants tuned against a physical deck, not a printed
	// standard; validate them against your own cards.
	CornerWidth  int
	CornerHeight int

	// CardThresh is subtracted from the sampled corner background level to
	// form the per-card glyph binarization threshold. Adapting to the
	// sampled stock color keeps darker or lighter decks separable where a
	// fixed global threshold fails.
	CardThresh int

	// RankDiffMax and SuitDiffMax are the per-kind match rejection
	// thresholds. A best difference above the threshold reports Unknown.
	// Rank glyphs are visually denser than suit glyphs, hence the
	// separate, larger threshold.
	RankDiffMax int
	SuitDiffMax int

	// ThresholdBlockSize and ThresholdBias parameterize the adaptive
	// binarization of the full frame (see imaging.PreprocessOptions).
	ThresholdBlockSize int
	ThresholdBias      int

	// BlurSigma is the preprocessing smoothing strength.
	BlurSigma float64
}

// DefaultConfig returns the detection parameters tuned against the reference
// deck on a 1280×720 camera.
func DefaultConfig() Config {
	return Config{
		MinCardArea:        25000,
		MaxCardArea:        120000,
		AspectRatioMin:     0.4,
		AspectRatioMax:     1.0,
		CardWidth:          200,
		CardHeight:         300,
		CornerWidth:        32,
		CornerHeight:       84,
		CardThresh:         30,
		RankDiffMax:        2000,
		SuitDiffMax:        700,
		ThresholdBlockSize: 11,
		ThresholdBias:      1,
		BlurSigma:          1.0,
	}
}

// Validate reports the first malformed parameter. Called at Detector
// construction so configuration mistakes surface before any frame is
// processed.
func (c Config) Validate() error {
	switch {
	case c.MinCardArea <= 0 || c.MaxCardArea <= c.MinCardArea:
		return fmt.Errorf("card area window [%v, %v] is empty or negative",
			c.MinCardArea, c.MaxCardArea)
	case c.AspectRatioMin <= 0 || c.AspectRatioMax > 1 || c.AspectRatioMax <= c.AspectRatioMin:
		return fmt.Errorf("aspect ratio window [%v, %v] must satisfy 0 < min < max <= 1",
			c.AspectRatioMin, c.AspectRatioMax)
	case c.CardWidth < 2 || c.CardHeight < 2:
		return fmt.Errorf("canonical card size %dx%d too small", c.CardWidth, c.CardHeight)
	case c.CornerWidth <= 0 || c.CornerHeight <= 0:
		return fmt.Errorf("corner size %dx%d must be positive", c.CornerWidth, c.CornerHeight)
	case c.CornerWidth > c.CardWidth || c.CornerHeight > c.CardHeight:
		return fmt.Errorf("corner size %dx%d exceeds card size %dx%d",
			c.CornerWidth, c.CornerHeight, c.CardWidth, c.CardHeight)
	case c.CardThresh <= 0:
		return fmt.Errorf("card threshold %d must be positive", c.CardThresh)
	case c.RankDiffMax <= 0 || c.SuitDiffMax <= 0:
		return fmt.Errorf("diff thresholds (%d, %d) must be positive",
			c.RankDiffMax, c.SuitDiffMax)
	case c.ThresholdBlockSize < 3:
		return fmt.Errorf("threshold block size %d must be at least 3", c.ThresholdBlockSize)
	}
	return nil
}
