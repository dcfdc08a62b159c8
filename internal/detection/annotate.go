package detection

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Annotate draws detection results onto a copy of the input frame: each
// card's bounding box, center point, and a "Rank of Suit" label with both
// confidences.
//
// Box and label colors follow a red→green ramp over the lower of the two
// confidences, so an uncertain detection is visibly flagged. Annotation is
// presentation for demos and debugging, not part of the detection contract;
// library consumers are free to ignore it.
func Annotate(frame image.Image, cards []DetectedCard) *image.RGBA {
	bounds := frame.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), frame, bounds.Min, draw.Src)

	for _, card := range cards {
		conf := card.RankConfidence
		if card.SuitConfidence < conf {
			conf = card.SuitConfidence
		}
		col := confidenceColor(conf)

		drawRect(out, card.Bounds, col)
		drawDot(out, card.Center, 3, color.RGBA{R: 255, A: 255})

		label := card.String()
		detail := fmt.Sprintf("R:%.0f%% S:%.0f%%",
			card.RankConfidence*100, card.SuitConfidence*100)
		drawLabel(out, card.Bounds.X1, card.Bounds.Y1-6, label, col)
		drawLabel(out, card.Bounds.X1, card.Bounds.Y2+14, detail, col)
	}

	info := fmt.Sprintf("Cards detected: %d", len(cards))
	drawLabel(out, 10, 20, info, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	return out
}

// confidenceColor maps a confidence in [0,1] onto a red→green ramp. Blending
// happens in Luv space so the midpoint reads as a clean amber instead of the
// muddy brown an RGB lerp produces.
func confidenceColor(conf float64) color.RGBA {
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	low := colorful.Color{R: 0.85, G: 0.1, B: 0.1}
	high := colorful.Color{R: 0.1, G: 0.8, B: 0.2}
	r, g, b := low.BlendLuv(high, conf).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// drawRect draws a 2px axis-aligned rectangle outline, clipped to the image.
func drawRect(img *image.RGBA, b Bounds, col color.RGBA) {
	for t := 0; t < 2; t++ {
		for x := b.X1; x < b.X2; x++ {
			setClipped(img, x, b.Y1+t, col)
			setClipped(img, x, b.Y2-1-t, col)
		}
		for y := b.Y1; y < b.Y2; y++ {
			setClipped(img, b.X1+t, y, col)
			setClipped(img, b.X2-1-t, y, col)
		}
	}
}

// drawDot fills a small square dot centered on p.
func drawDot(img *image.RGBA, p image.Point, radius int, col color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			setClipped(img, p.X+dx, p.Y+dy, col)
		}
	}
}

func setClipped(img *image.RGBA, x, y int, col color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, col)
	}
}

// drawLabel renders text at (x, y) using the fixed 7x13 face. y is the text
// baseline; labels that would start above the frame are nudged inside.
func drawLabel(img *image.RGBA, x, y int, text string, col color.RGBA) {
	if y < basicfont.Face7x13.Ascent {
		y = basicfont.Face7x13.Ascent
	}
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
