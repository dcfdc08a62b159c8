// Package templates loads and holds the reference glyph images that card
// identification matches against.
//
// Templates live on disk under a single directory:
//
//	card_templates/
//	  ranks/<RankName>.png   (Ace, Two, ..., King)
//	  suits/<SuitName>.png   (Hearts, Diamonds, Clubs, Spades)
//
// A missing directory is not an error: the store loads empty and every
// downstream match resolves to Unknown. All templates are normalized to the
// standard glyph sizes at load time so matching never needs to resize.
//
// A Store is immutable after Load and safe for concurrent readers.
package templates

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	img "github.com/tabletop-vision/cardvision/internal/imaging"
)

// Standard glyph dimensions. Every template and every isolated glyph is
// resized to these before matching, so difference scores are comparable
// across cards. Rank glyphs are taller than suit glyphs on a standard face.
const (
	RankWidth  = 70
	RankHeight = 125
	SuitWidth  = 70
	SuitHeight = 100
)

// Kind distinguishes rank templates from suit templates.
type Kind int

const (
	KindRank Kind = iota
	KindSuit
)

// String returns "rank" or "suit".
func (k Kind) String() string {
	if k == KindSuit {
		return "suit"
	}
	return "rank"
}

// RankNames lists the canonical rank template names in deck order.
var RankNames = []string{
	"Ace", "Two", "Three", "Four", "Five", "Six", "Seven",
	"Eight", "Nine", "Ten", "Jack", "Queen", "King",
}

// SuitNames lists the canonical suit template names.
var SuitNames = []string{"Hearts", "Diamonds", "Clubs", "Spades"}

// Template is one immutable reference glyph.
type Template struct {
	// Name is the rank symbol or suit name, taken from the file name
	// without extension (e.g. "Ace", "Spades").
	Name string

	// Kind tells whether this is a rank or suit template.
	Kind Kind

	// Image is the grayscale glyph, normalized to the standard size for
	// its kind.
	Image *image.Gray
}

// Store holds the loaded templates. It is created once at startup and never
// mutated afterwards, so any number of detection goroutines may read it
// concurrently without synchronization.
type Store struct {
	dir   string
	ranks []Template
	suits []Template
}

// Load reads all templates under dir.
//
// A missing directory or missing kind subdirectory yields an empty (or
// partial) store rather than an error; the condition is logged once here so
// detection does not log per frame. Files that fail to decode are skipped
// with a log line. Only genuine I/O problems (e.g. a present but unreadable
// directory) return an error.
func Load(dir string) (*Store, error) {
	s := &Store{dir: dir}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		log.Printf("templates: directory %s not found; all matches will be Unknown", dir)
		return s, nil
	}

	var err error
	s.ranks, err = loadKind(filepath.Join(dir, "ranks"), KindRank, RankWidth, RankHeight)
	if err != nil {
		return nil, err
	}
	s.suits, err = loadKind(filepath.Join(dir, "suits"), KindSuit, SuitWidth, SuitHeight)
	if err != nil {
		return nil, err
	}

	log.Printf("templates: loaded %d rank and %d suit templates from %s",
		len(s.ranks), len(s.suits), dir)
	return s, nil
}

func loadKind(dir string, kind Kind, width, height int) ([]Template, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s templates: %w", kind, err)
	}

	var out []Template
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		gray, err := img.LoadGray(path)
		if err != nil {
			log.Printf("templates: skipping %s: %v", path, err)
			continue
		}
		out = append(out, Template{
			Name:  strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Kind:  kind,
			Image: normalize(gray, width, height),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// normalize resizes a glyph to the standard size for its kind. Nearest
// neighbor keeps binarized templates binary.
func normalize(gray *image.Gray, width, height int) *image.Gray {
	b := gray.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return gray
	}
	return img.ToGray(imaging.Resize(gray, width, height, imaging.NearestNeighbor))
}

// Ranks returns the loaded rank templates, sorted by name.
func (s *Store) Ranks() []Template { return s.ranks }

// Suits returns the loaded suit templates, sorted by name.
func (s *Store) Suits() []Template { return s.suits }

// Counts returns the number of loaded rank and suit templates.
func (s *Store) Counts() (ranks, suits int) {
	return len(s.ranks), len(s.suits)
}

// Dir returns the directory the store was loaded from.
func (s *Store) Dir() string { return s.dir }

// Save writes a captured glyph to disk as a new template for later loads.
// The in-memory store is not modified; reload to pick the template up.
//
// Used by the template collector to build a deck's template set from
// single-card captures.
func (s *Store) Save(kind Kind, name string, glyph image.Image) error {
	sub := "ranks"
	width, height := RankWidth, RankHeight
	if kind == KindSuit {
		sub = "suits"
		width, height = SuitWidth, SuitHeight
	}
	normalized := normalize(img.ToGray(glyph), width, height)
	path := filepath.Join(s.dir, sub, name+".png")
	if err := img.SavePNG(path, normalized); err != nil {
		return fmt.Errorf("failed to save %s template %s: %w", kind, name, err)
	}
	return nil
}
