// Package tracking assigns stable identities to detected cards across
// consecutive frames.
//
// The detection pipeline is deliberately stateless: the same physical card
// produces a fresh DetectedCard every frame. A game loop that wants to
// announce a card exactly once needs to know it is the same card it saw last
// frame, and that the detection has held still long enough to trust. Tracking
// layers that on top of the pipeline without touching it.
//
// A Tracker belongs to one caller's frame loop and is not safe for
// concurrent use.
package tracking

import (
	"math"

	"github.com/tabletop-vision/cardvision/internal/detection"
)

// TrackedCard is a detection plus frame-to-frame identity.
type TrackedCard struct {
	detection.DetectedCard

	// ID is stable for as long as the card stays within MaxMovement of its
	// previous position frame over frame.
	ID int

	// StableFrames counts consecutive frames this ID has been observed.
	StableFrames int
}

// Options configures a Tracker. Zero values select the defaults.
type Options struct {
	// MaxMovement is how far (px) a card's center may move between frames
	// and still be considered the same card. Generous by default: hands
	// holding cards wobble. Default 80.
	MaxMovement float64

	// StabilityFrames is how many consecutive frames a card must persist
	// before Stable reports it. Default 3.
	StabilityFrames int
}

// Tracker matches each frame's detections against the previous frame's by
// nearest center.
type Tracker struct {
	opts    Options
	nextID  int
	current []TrackedCard
}

// New creates a Tracker.
func New(opts Options) *Tracker {
	if opts.MaxMovement <= 0 {
		opts.MaxMovement = 80
	}
	if opts.StabilityFrames <= 0 {
		opts.StabilityFrames = 3
	}
	return &Tracker{opts: opts}
}

// Update ingests one frame's detections and returns them with identities
// attached.
//
// Each detection greedily claims the nearest unclaimed card from the previous
// frame within MaxMovement, keeping its ID and extending its stability count.
// Detections with no previous match get fresh IDs; previous cards that went
// unclaimed are dropped.
func (t *Tracker) Update(cards []detection.DetectedCard) []TrackedCard {
	maxDistSq := t.opts.MaxMovement * t.opts.MaxMovement

	previous := make(map[int]TrackedCard, len(t.current))
	for _, c := range t.current {
		previous[c.ID] = c
	}

	tracked := make([]TrackedCard, 0, len(cards))
	for _, card := range cards {
		bestID := -1
		bestDist := math.MaxFloat64
		for id, prev := range previous {
			dx := float64(card.Center.X - prev.Center.X)
			dy := float64(card.Center.Y - prev.Center.Y)
			distSq := dx*dx + dy*dy
			if distSq < bestDist && distSq < maxDistSq {
				bestDist = distSq
				bestID = id
			}
		}

		tc := TrackedCard{DetectedCard: card}
		if bestID >= 0 {
			prev := previous[bestID]
			delete(previous, bestID)
			tc.ID = prev.ID
			tc.StableFrames = prev.StableFrames + 1
		} else {
			t.nextID++
			tc.ID = t.nextID
			tc.StableFrames = 1
		}
		tracked = append(tracked, tc)
	}

	t.current = tracked
	return tracked
}

// Stable returns the cards from the most recent Update that have persisted
// for at least StabilityFrames consecutive frames.
func (t *Tracker) Stable() []TrackedCard {
	var stable []TrackedCard
	for _, c := range t.current {
		if c.StableFrames >= t.opts.StabilityFrames {
			stable = append(stable, c)
		}
	}
	return stable
}

// Reset forgets all tracked cards. Use when the camera view changes
// discontinuously (e.g. a new deal).
func (t *Tracker) Reset() {
	t.current = nil
}
