package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tabletop-vision/cardvision/internal/detection"
	"github.com/tabletop-vision/cardvision/internal/imaging"
	"github.com/tabletop-vision/cardvision/internal/templates"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("cardvision - playing card detection from still frames")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  cardvision detect  [options] IMAGE    Detect and identify cards in IMAGE")
	fmt.Println("  cardvision collect [options] IMAGE    Capture a glyph template from a single-card IMAGE")
	fmt.Println("  cardvision version                    Print version information")
	fmt.Println()
	fmt.Println("Run 'cardvision detect -h' or 'cardvision collect -h' for options.")
}

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "--version", "-v", "version":
		fmt.Printf("cardvision %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
	case "--help", "-h", "help":
		usage()
	case "detect":
		if err := runDetect(os.Args[2:]); err != nil {
			log.Fatalf("detect: %v", err)
		}
	case "collect":
		if err := runCollect(os.Args[2:]); err != nil {
			log.Fatalf("collect: %v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

// runDetect runs the pipeline on one image and prints each card the way the
// game loop would hand it to a speech synthesizer.
func runDetect(args []string) error {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	templatesDir := fs.String("templates", "card_templates", "template directory (ranks/ and suits/ subdirectories)")
	annotateOut := fs.String("annotate", "", "write an annotated copy of the frame to this PNG path")
	asJSON := fs.Bool("json", false, "print detections as JSON instead of narration lines")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected exactly one IMAGE argument")
	}

	store, err := templates.Load(*templatesDir)
	if err != nil {
		return err
	}
	detector, err := detection.New(store, detection.DefaultConfig())
	if err != nil {
		return err
	}

	frame, err := imaging.LoadImage(fs.Arg(0))
	if err != nil {
		return err
	}

	cards := detector.Detect(frame)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cards); err != nil {
			return fmt.Errorf("failed to encode detections: %w", err)
		}
	} else {
		if len(cards) == 0 {
			fmt.Println("No cards detected.")
		}
		for i, card := range cards {
			fmt.Printf("Card %d: %s (rank %.0f%%, suit %.0f%%)\n",
				i+1, card, card.RankConfidence*100, card.SuitConfidence*100)
		}
	}

	if *annotateOut != "" {
		annotated := detection.Annotate(frame, cards)
		if err := imaging.SavePNG(*annotateOut, annotated); err != nil {
			return err
		}
		log.Printf("wrote annotated frame to %s", *annotateOut)
	}
	return nil
}

// runCollect captures one glyph template from an image containing a single
// clearly visible card and saves it into the template directory.
func runCollect(args []string) error {
	fs := flag.NewFlagSet("collect", flag.ExitOnError)
	templatesDir := fs.String("templates", "card_templates", "template directory to save into")
	kindName := fs.String("kind", "rank", "which glyph to capture: rank or suit")
	name := fs.String("name", "", "template name (e.g. Ace, Spades); required")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected exactly one IMAGE argument")
	}
	if *name == "" {
		return fmt.Errorf("-name is required")
	}
	var kind templates.Kind
	switch *kindName {
	case "rank":
		kind = templates.KindRank
	case "suit":
		kind = templates.KindSuit
	default:
		return fmt.Errorf("-kind must be rank or suit, got %q", *kindName)
	}

	store, err := templates.Load(*templatesDir)
	if err != nil {
		return err
	}
	detector, err := detection.New(store, detection.DefaultConfig())
	if err != nil {
		return err
	}
	cfg := detector.Config()

	frame, err := imaging.LoadImage(fs.Arg(0))
	if err != nil {
		return err
	}

	gray, binary := imaging.Preprocess(frame, imaging.PreprocessOptions{
		BlurSigma: cfg.BlurSigma,
		BlockSize: cfg.ThresholdBlockSize,
		Bias:      cfg.ThresholdBias,
	})
	regions := detection.FindRegions(binary, cfg)
	if len(regions) != 1 {
		return fmt.Errorf("need exactly one card in the frame, found %d candidate regions", len(regions))
	}

	flattened, err := detector.FlattenRegion(gray, regions[0])
	if err != nil {
		return fmt.Errorf("card region is degenerate: %w", err)
	}
	rankGlyph, suitGlyph := detector.DetectGlyphs(flattened)

	glyph := rankGlyph
	if kind == templates.KindSuit {
		glyph = suitGlyph
	}
	if err := store.Save(kind, *name, glyph); err != nil {
		return err
	}
	fmt.Printf("Saved %s template %q to %s\n", kind, *name, *templatesDir)
	return nil
}
