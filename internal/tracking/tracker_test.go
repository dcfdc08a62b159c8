package tracking

import (
	"image"
	"testing"

	"github.com/tabletop-vision/cardvision/internal/detection"
)

func cardAt(x, y int) detection.DetectedCard {
	return detection.DetectedCard{
		Rank: "Ace", Suit: "Spades",
		Bounds: detection.Bounds{X1: x - 50, Y1: y - 75, X2: x + 50, Y2: y + 75},
		Center: image.Point{X: x, Y: y},
	}
}

func TestTracker_KeepsIDThroughSmallMovement(t *testing.T) {
	tr := New(Options{MaxMovement: 80, StabilityFrames: 3})

	first := tr.Update([]detection.DetectedCard{cardAt(200, 200)})
	if len(first) != 1 || first[0].StableFrames != 1 {
		t.Fatalf("first frame: %+v", first)
	}
	id := first[0].ID

	// Wobbling well inside MaxMovement keeps the identity.
	second := tr.Update([]detection.DetectedCard{cardAt(210, 195)})
	if second[0].ID != id {
		t.Errorf("ID changed from %d to %d after a 11px move", id, second[0].ID)
	}
	if second[0].StableFrames != 2 {
		t.Errorf("StableFrames = %d, want 2", second[0].StableFrames)
	}
}

func TestTracker_NewIDAfterLargeJump(t *testing.T) {
	tr := New(Options{MaxMovement: 80})

	first := tr.Update([]detection.DetectedCard{cardAt(100, 100)})
	second := tr.Update([]detection.DetectedCard{cardAt(400, 400)})

	if second[0].ID == first[0].ID {
		t.Error("a 400px jump should produce a new identity")
	}
	if second[0].StableFrames != 1 {
		t.Errorf("StableFrames = %d, want 1 for a new identity", second[0].StableFrames)
	}
}

func TestTracker_StableRequiresConsecutiveFrames(t *testing.T) {
	tr := New(Options{MaxMovement: 80, StabilityFrames: 3})

	tr.Update([]detection.DetectedCard{cardAt(200, 200)})
	if got := tr.Stable(); len(got) != 0 {
		t.Errorf("stable after 1 frame: %d cards", len(got))
	}
	tr.Update([]detection.DetectedCard{cardAt(202, 201)})
	if got := tr.Stable(); len(got) != 0 {
		t.Errorf("stable after 2 frames: %d cards", len(got))
	}
	tr.Update([]detection.DetectedCard{cardAt(203, 199)})
	got := tr.Stable()
	if len(got) != 1 {
		t.Fatalf("stable after 3 frames: %d cards, want 1", len(got))
	}
	if got[0].StableFrames != 3 {
		t.Errorf("StableFrames = %d, want 3", got[0].StableFrames)
	}
}

func TestTracker_TwoCardsKeepSeparateIDs(t *testing.T) {
	tr := New(Options{MaxMovement: 80})

	first := tr.Update([]detection.DetectedCard{cardAt(100, 100), cardAt(400, 100)})
	if first[0].ID == first[1].ID {
		t.Fatal("two cards share an ID")
	}

	// Swap order in the next frame; identities must follow positions.
	second := tr.Update([]detection.DetectedCard{cardAt(405, 102), cardAt(98, 103)})
	if second[0].ID != first[1].ID {
		t.Errorf("right card ID = %d, want %d", second[0].ID, first[1].ID)
	}
	if second[1].ID != first[0].ID {
		t.Errorf("left card ID = %d, want %d", second[1].ID, first[0].ID)
	}
}

func TestTracker_DisappearedCardDropped(t *testing.T) {
	tr := New(Options{MaxMovement: 80})

	tr.Update([]detection.DetectedCard{cardAt(100, 100)})
	tr.Update(nil)
	third := tr.Update([]detection.DetectedCard{cardAt(100, 100)})

	if third[0].StableFrames != 1 {
		t.Errorf("StableFrames = %d after a gap, want 1", third[0].StableFrames)
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := New(Options{})
	tr.Update([]detection.DetectedCard{cardAt(100, 100)})
	tr.Reset()
	if got := tr.Stable(); len(got) != 0 {
		t.Errorf("stable after reset: %d cards", len(got))
	}
	next := tr.Update([]detection.DetectedCard{cardAt(100, 100)})
	if next[0].StableFrames != 1 {
		t.Errorf("StableFrames = %d after reset, want 1", next[0].StableFrames)
	}
}
