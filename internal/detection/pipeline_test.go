package detection

import (
	"image"
	"image/color"
	"testing"

	img "github.com/tabletop-vision/cardvision/internal/imaging"
	"github.com/tabletop-vision/cardvision/internal/templates"
)

// createCardFrame creates a synthetic camera frame: a white 200x300 card on
// a black table, with a rank stroke and a suit stroke inked into the card's
// top-left corner.
func createCardFrame() *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, 500, 550))
	for y := 0; y < 550; y++ {
		for x := 0; x < 500; x++ {
			frame.SetRGBA(x, y, color.RGBA{A: 255})
		}
	}
	// Card body.
	for y := 100; y < 400; y++ {
		for x := 150; x < 350; x++ {
			frame.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	// Rank stroke (upper corner band) and suit stroke (lower corner band),
	// in card-corner coordinates offset by the card position.
	ink := color.RGBA{R: 10, G: 10, B: 10, A: 255}
	for y := 112; y < 140; y++ {
		for x := 156; x < 176; x++ {
			frame.SetRGBA(x, y, ink)
		}
	}
	for y := 152; y < 176; y++ {
		for x := 156; x < 176; x++ {
			frame.SetRGBA(x, y, ink)
		}
	}
	return frame
}

// captureTemplates runs the capture path once over the frame and saves the
// extracted glyphs as the Ace and Spades templates, then reloads the store.
func captureTemplates(t *testing.T, dir string, frame image.Image, cfg Config) *templates.Store {
	t.Helper()

	empty, err := templates.Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	gray, binary := img.Preprocess(frame, img.PreprocessOptions{
		BlurSigma: cfg.BlurSigma,
		BlockSize: cfg.ThresholdBlockSize,
		Bias:      cfg.ThresholdBias,
	})
	regions := FindRegions(binary, cfg)
	if len(regions) != 1 {
		t.Fatalf("capture frame has %d regions, want 1", len(regions))
	}

	flattened, err := img.Flatten(gray, regions[0].Quad, cfg.CardWidth, cfg.CardHeight)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	rankGlyph, suitGlyph := ExtractGlyphs(flattened, cfg)

	if err := empty.Save(templates.KindRank, "Ace", rankGlyph); err != nil {
		t.Fatalf("Save rank template: %v", err)
	}
	if err := empty.Save(templates.KindSuit, "Spades", suitGlyph); err != nil {
		t.Fatalf("Save suit template: %v", err)
	}

	store, err := templates.Load(dir)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	return store
}

func TestDetect_AceOfSpadesScenario(t *testing.T) {
	frame := createCardFrame()
	cfg := DefaultConfig()
	store := captureTemplates(t, t.TempDir(), frame, cfg)

	detector, err := New(store, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	cards := detector.Detect(frame)
	if len(cards) != 1 {
		t.Fatalf("got %d cards, want 1", len(cards))
	}

	card := cards[0]
	if card.Rank != "Ace" {
		t.Errorf("rank = %q, want Ace", card.Rank)
	}
	if card.Suit != "Spades" {
		t.Errorf("suit = %q, want Spades", card.Suit)
	}
	if card.RankConfidence != 1.0 {
		t.Errorf("rank confidence = %v, want 1.0", card.RankConfidence)
	}
	if card.SuitConfidence != 1.0 {
		t.Errorf("suit confidence = %v, want 1.0", card.SuitConfidence)
	}
	if card.Center.X < 230 || card.Center.X > 270 || card.Center.Y < 230 || card.Center.Y > 270 {
		t.Errorf("center = %v, want ≈(250, 250)", card.Center)
	}
	if card.String() != "Ace of Spades" {
		t.Errorf("String() = %q, want %q", card.String(), "Ace of Spades")
	}
}

func TestDetect_NoTemplatesAllUnknown(t *testing.T) {
	frame := createCardFrame()

	store, err := templates.Load(t.TempDir() + "/missing")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	detector, err := New(store, DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	cards := detector.Detect(frame)
	if len(cards) != 1 {
		t.Fatalf("got %d cards, want 1 (regions are found even without templates)", len(cards))
	}
	if cards[0].Rank != Unknown || cards[0].Suit != Unknown {
		t.Errorf("got %s, want Unknown of Unknown", cards[0])
	}
	if cards[0].RankConfidence != 0 || cards[0].SuitConfidence != 0 {
		t.Errorf("confidences = (%v, %v), want (0, 0)",
			cards[0].RankConfidence, cards[0].SuitConfidence)
	}
}

func TestDetect_BlackFrame(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			frame.SetRGBA(x, y, color.RGBA{A: 255})
		}
	}

	store, err := templates.Load(t.TempDir() + "/missing")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	detector, err := New(store, DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if cards := detector.Detect(frame); len(cards) != 0 {
		t.Errorf("got %d cards on a black frame, want 0", len(cards))
	}
}

func TestDetect_DegenerateCandidateIsIsolated(t *testing.T) {
	frame := createCardFrame()
	cfg := DefaultConfig()
	store := captureTemplates(t, t.TempDir(), frame, cfg)

	detector, err := New(store, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// The degenerate candidate must be dropped without disturbing anything.
	gray, _ := img.Preprocess(frame, img.PreprocessOptions{
		BlurSigma: cfg.BlurSigma, BlockSize: cfg.ThresholdBlockSize, Bias: cfg.ThresholdBias,
	})
	degenerate := CandidateRegion{
		Quad: [4]image.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 20}, {X: 30, Y: 30}},
	}
	if _, ok := detector.identify(gray, degenerate); ok {
		t.Error("degenerate candidate produced a card; it should be skipped")
	}

	// And the frame's well-formed candidate still detects.
	cards := detector.Detect(frame)
	if len(cards) != 1 {
		t.Fatalf("got %d cards, want 1", len(cards))
	}
	if cards[0].Rank != "Ace" {
		t.Errorf("rank = %q, want Ace", cards[0].Rank)
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	store, err := templates.Load(t.TempDir() + "/missing")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty area window", func(c *Config) { c.MaxCardArea = c.MinCardArea }},
		{"negative min area", func(c *Config) { c.MinCardArea = -1 }},
		{"inverted aspect window", func(c *Config) { c.AspectRatioMin = 0.9; c.AspectRatioMax = 0.5 }},
		{"zero card size", func(c *Config) { c.CardWidth = 0 }},
		{"corner larger than card", func(c *Config) { c.CornerHeight = c.CardHeight + 1 }},
		{"zero rank threshold", func(c *Config) { c.RankDiffMax = 0 }},
		{"bad block size", func(c *Config) { c.ThresholdBlockSize = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := New(store, cfg); err == nil {
				t.Error("expected config validation error, got nil")
			}
		})
	}
}

func TestDetect_ConcurrentCalls(t *testing.T) {
	frame := createCardFrame()
	cfg := DefaultConfig()
	store := captureTemplates(t, t.TempDir(), frame, cfg)

	detector, err := New(store, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	done := make(chan []DetectedCard, 4)
	for i := 0; i < 4; i++ {
		go func() { done <- detector.Detect(frame) }()
	}
	for i := 0; i < 4; i++ {
		cards := <-done
		if len(cards) != 1 || cards[0].Rank != "Ace" {
			t.Errorf("concurrent detect returned %v", cards)
		}
	}
}
