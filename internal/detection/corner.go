package detection

import (
	"image"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"

	img "github.com/tabletop-vision/cardvision/internal/imaging"
	"github.com/tabletop-vision/cardvision/internal/templates"
)

// cornerZoom is the upscale factor applied to the cropped corner. The corner
// crop has very few pixels; zooming before thresholding recovers glyph detail
// that would otherwise be lost.
const cornerZoom = 4

// Vertical split proportions of the zoomed corner. The rank glyph occupies
// the upper band, the suit glyph the lower. Calibrated against the reference
// deck (not derived from a printing standard); re-validate against your own
// cards if glyphs land on the split boundary.
const (
	rankBandTop    = 0.06
	rankBandBottom = 0.55
)

// whiteSampleRow is the row (in zoomed-corner coordinates) where the card
// background is sampled to adapt the glyph threshold to the card stock.
const whiteSampleRow = 15

// ExtractGlyphs isolates the rank and suit glyph images from a flattened
// card.
//
// The top-left corner of a properly flattened card carries its rank above its
// suit; isolating just that corner avoids ever matching against face artwork.
// The corner is cropped, zoomed 4×, smoothed, and binarized with a threshold
// derived from a background sample near the top of the corner, so the split
// between ink and stock follows the deck's actual stock color. Ink becomes
// foreground (255). Each band is then reduced to its largest
// connected component, cropped to that component's bounds, and resized to the
// standard template size.
//
// A band with no foreground component (blank or occluded corner) yields a
// blank glyph of standard size, which matching resolves to Unknown. There is
// no error path.
func ExtractGlyphs(card *image.Gray, cfg Config) (rank, suit *image.Gray) {
	corner := cropGray(card, image.Rect(0, 0, cfg.CornerWidth, cfg.CornerHeight))

	zw := cfg.CornerWidth * cornerZoom
	zh := cfg.CornerHeight * cornerZoom
	zoomed := img.ToGray(transform.Resize(corner, zw, zh, transform.Linear))

	// Sample the card stock before smoothing so the reading is not bled
	// into by nearby ink.
	white := sampleWhiteLevel(zoomed)
	threshold := white - cfg.CardThresh
	if threshold <= 0 {
		threshold = 1
	}

	smoothed := img.ToGray(imaging.Blur(zoomed, 1.0))
	binary := binarizeInverse(smoothed, uint8(threshold))

	rankTop := int(rankBandTop * float64(zh))
	rankBottom := int(rankBandBottom * float64(zh))
	rankBand := cropGray(binary, image.Rect(0, rankTop, zw, rankBottom))
	suitBand := cropGray(binary, image.Rect(0, rankBottom, zw, zh))

	rank = isolateGlyph(rankBand, templates.RankWidth, templates.RankHeight)
	suit = isolateGlyph(suitBand, templates.SuitWidth, templates.SuitHeight)
	return rank, suit
}

// sampleWhiteLevel reads the card background brightness near the top center
// of the zoomed corner, between the rank glyph and the card edge.
func sampleWhiteLevel(zoomed *image.Gray) int {
	b := zoomed.Bounds()
	y := whiteSampleRow
	if y >= b.Dy() {
		y = b.Dy() / 2
	}
	x := b.Dx() / 2
	return int(zoomed.Pix[y*zoomed.Stride+x])
}

// binarizeInverse maps pixels at or below the threshold (ink) to 255 and
// brighter pixels (stock) to 0.
func binarizeInverse(gray *image.Gray, threshold uint8) *image.Gray {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if gray.Pix[y*gray.Stride+x] <= threshold {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// isolateGlyph reduces a binarized band to its glyph: the largest connected
// foreground component, cropped to its bounding box and resized to the
// standard template size. An empty band produces a blank glyph so matching
// downstream always has a defined input.
func isolateGlyph(band *image.Gray, width, height int) *image.Gray {
	bounds, ok := largestComponent(band)
	if !ok {
		return image.NewGray(image.Rect(0, 0, width, height))
	}
	glyph := cropGray(band, image.Rect(bounds.X1, bounds.Y1, bounds.X2, bounds.Y2))
	return img.ToGray(transform.Resize(glyph, width, height, transform.NearestNeighbor))
}

// largestComponent finds the bounding box of the largest 8-connected
// foreground component in a binary image. ok is false when the image has no
// foreground at all.
func largestComponent(binary *image.Gray) (bounds Bounds, ok bool) {
	b := binary.Bounds()
	w, h := b.Dx(), b.Dy()
	visited := make([]bool, w*h)
	stack := make([]image.Point, 0, 256)

	var bestCount int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if binary.Pix[y*binary.Stride+x] == 0 || visited[y*w+x] {
				continue
			}

			count := 0
			minX, minY, maxX, maxY := x, y, x, y
			stack = append(stack[:0], image.Point{X: x, Y: y})
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if p.X < 0 || p.X >= w || p.Y < 0 || p.Y >= h {
					continue
				}
				if visited[p.Y*w+p.X] || binary.Pix[p.Y*binary.Stride+p.X] == 0 {
					continue
				}
				visited[p.Y*w+p.X] = true
				count++
				if p.X < minX {
					minX = p.X
				}
				if p.X > maxX {
					maxX = p.X
				}
				if p.Y < minY {
					minY = p.Y
				}
				if p.Y > maxY {
					maxY = p.Y
				}
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
					}
				}
			}

			if count > bestCount {
				bestCount = count
				bounds = Bounds{X1: minX, Y1: minY, X2: maxX + 1, Y2: maxY + 1}
				ok = true
			}
		}
	}
	return bounds, ok
}

// cropGray copies a rectangular region of a grayscale image into a fresh
// image anchored at the origin. The rectangle is clipped to the source.
func cropGray(gray *image.Gray, r image.Rectangle) *image.Gray {
	r = r.Intersect(gray.Bounds())
	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		srcOff := (r.Min.Y+y)*gray.Stride + r.Min.X
		copy(out.Pix[y*out.Stride:y*out.Stride+r.Dx()], gray.Pix[srcOff:srcOff+r.Dx()])
	}
	return out
}
