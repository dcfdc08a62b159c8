package detection

import (
	"fmt"
	"image"

	img "github.com/tabletop-vision/cardvision/internal/imaging"
	"github.com/tabletop-vision/cardvision/internal/templates"
)

// Detector runs the full card detection pipeline over single frames.
//
// A Detector holds only its validated configuration and the immutable
// template store; Detect keeps no state between calls, so one Detector may
// serve concurrent callers on different frames. Callers that want throughput
// scheduling (every Nth frame, a background goroutine) implement it on their
// side; the pipeline neither assumes nor depends on any calling cadence.
type Detector struct {
	cfg   Config
	store *templates.Store
}

// New constructs a Detector over a loaded template store.
//
// The configuration is validated here, before any frame is processed; a
// malformed admission window is a programmer error and the only condition in
// this package that surfaces as an error to the caller.
func New(store *templates.Store, cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("invalid detection config: nil template store")
	}
	return &Detector{cfg: cfg, store: store}, nil
}

// Config returns the detector's configuration.
func (d *Detector) Config() Config { return d.cfg }

// Detect finds and identifies all cards in one color frame.
//
// Candidates are processed independently: a candidate whose quadrilateral is
// degenerate (overlapping cards often produce one) is skipped, and a corner
// that cannot be read matches as Unknown. One bad region never aborts the
// rest of the frame. An empty result is normal output, not an error.
func (d *Detector) Detect(frame image.Image) []DetectedCard {
	gray, binary := img.Preprocess(frame, img.PreprocessOptions{
		BlurSigma: d.cfg.BlurSigma,
		BlockSize: d.cfg.ThresholdBlockSize,
		Bias:      d.cfg.ThresholdBias,
	})

	regions := FindRegions(binary, d.cfg)

	cards := make([]DetectedCard, 0, len(regions))
	for _, region := range regions {
		card, ok := d.identify(gray, region)
		if !ok {
			continue
		}
		cards = append(cards, card)
	}
	return cards
}

// identify flattens one candidate region and matches its glyphs. ok is false
// when the region's geometry is degenerate and it should be treated as "no
// card found".
func (d *Detector) identify(gray *image.Gray, region CandidateRegion) (DetectedCard, bool) {
	flattened, err := img.Flatten(gray, region.Quad, d.cfg.CardWidth, d.cfg.CardHeight)
	if err != nil {
		return DetectedCard{}, false
	}

	rankGlyph, suitGlyph := ExtractGlyphs(flattened, d.cfg)

	rank, _, rankConf := MatchGlyph(rankGlyph, d.store.Ranks(), d.cfg.RankDiffMax)
	suit, _, suitConf := MatchGlyph(suitGlyph, d.store.Suits(), d.cfg.SuitDiffMax)

	return DetectedCard{
		Rank:           rank,
		Suit:           suit,
		RankConfidence: rankConf,
		SuitConfidence: suitConf,
		Bounds:         region.Bounds,
		Center:         region.Bounds.Center(),
	}, true
}

// DetectGlyphs exposes the isolate-and-match tail of the pipeline for a card
// image that is already flattened. The template collector uses it to preview
// what a capture will match as.
func (d *Detector) DetectGlyphs(flattened *image.Gray) (rank *image.Gray, suit *image.Gray) {
	return ExtractGlyphs(flattened, d.cfg)
}

// FlattenRegion warps one candidate region of a grayscale frame to the
// canonical card size. Exposed for the template collector, which needs the
// flattened card of a single known-good region.
func (d *Detector) FlattenRegion(gray *image.Gray, region CandidateRegion) (*image.Gray, error) {
	return img.Flatten(gray, region.Quad, d.cfg.CardWidth, d.cfg.CardHeight)
}
