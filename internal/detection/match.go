package detection

import (
	"image"
	"math"

	"github.com/tabletop-vision/cardvision/internal/templates"
)

// MatchGlyph compares an isolated glyph against every template of its kind
// and returns the best match.
//
// The difference score is the sum of absolute pixel differences divided by
// 255, so for binary images it counts disagreeing pixels; lower is better.
// If the best difference still exceeds diffMax, or no templates are loaded,
// the match reports Unknown with zero confidence. A low-confidence match is
// never silently promoted to an answer: the consumer narrates these results
// to players who cannot verify them.
//
// Confidence is max(0, 1 − diff/diffMax), clipped to [0, 1]. It is a
// monotonic proxy for match quality, not a calibrated probability.
//
// Glyphs and templates are expected to share the standard size for their
// kind (the store normalizes templates at load, the isolator normalizes
// glyphs); a size mismatch scores the overlap and counts the excess area as
// disagreement.
func MatchGlyph(glyph *image.Gray, candidates []templates.Template, diffMax int) (name string, diff int, confidence float64) {
	if len(candidates) == 0 {
		return Unknown, math.MaxInt, 0
	}

	best := math.MaxInt
	bestName := Unknown
	for _, t := range candidates {
		d := pixelDiff(glyph, t.Image)
		if d < best {
			best = d
			bestName = t.Name
		}
	}

	if best >= diffMax {
		return Unknown, best, 0
	}
	confidence = 1 - float64(best)/float64(diffMax)
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return bestName, best, confidence
}

// pixelDiff returns the sum of absolute pixel differences between two
// grayscale images, divided by 255. Pixels outside the common overlap count
// as full disagreement.
func pixelDiff(a, b *image.Gray) int {
	aw, ah := a.Bounds().Dx(), a.Bounds().Dy()
	bw, bh := b.Bounds().Dx(), b.Bounds().Dy()
	w, h := aw, ah
	if bw < w {
		w = bw
	}
	if bh < h {
		h = bh
	}

	var sum int
	for y := 0; y < h; y++ {
		ra := a.Pix[y*a.Stride : y*a.Stride+w]
		rb := b.Pix[y*b.Stride : y*b.Stride+w]
		for x := 0; x < w; x++ {
			d := int(ra[x]) - int(rb[x])
			if d < 0 {
				d = -d
			}
			sum += d
		}
	}

	// Area covered by only one image cannot agree.
	excess := (aw*ah - w*h) + (bw*bh - w*h)
	return sum/255 + excess
}
