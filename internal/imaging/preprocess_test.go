package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createSolidFrame creates a solid color test frame.
func createSolidFrame(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPreprocess_BlackFrame(t *testing.T) {
	frame := createSolidFrame(120, 90, color.Black)

	gray, binary := Preprocess(frame, DefaultPreprocessOptions())

	if gray.Bounds().Dx() != 120 || gray.Bounds().Dy() != 90 {
		t.Fatalf("gray size = %v, want 120x90", gray.Bounds())
	}
	for i, p := range binary.Pix {
		if p != 0 {
			t.Fatalf("binary pixel %d = %d on a black frame, want 0", i, p)
		}
	}
}

func TestPreprocess_BrightRegionOnDarkBackground(t *testing.T) {
	frame := createSolidFrame(200, 200, color.Black)
	for y := 60; y < 140; y++ {
		for x := 50; x < 150; x++ {
			frame.Set(x, y, color.White)
		}
	}

	_, binary := Preprocess(frame, DefaultPreprocessOptions())

	if binary.Pix[100*binary.Stride+100] != 255 {
		t.Error("center of bright region should be foreground")
	}
	if binary.Pix[20*binary.Stride+20] != 0 {
		t.Error("dark background should remain background")
	}
	if binary.Pix[180*binary.Stride+180] != 0 {
		t.Error("dark background should remain background")
	}
}

func TestPreprocess_AdaptsAcrossLightingGradient(t *testing.T) {
	// Two bright squares over very different background brightness. A global
	// cutoff between the two backgrounds would drop one square or flood one
	// side; the adaptive threshold must mark both squares as foreground.
	frame := image.NewRGBA(image.Rect(0, 0, 300, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 300; x++ {
			bg := uint8(0)
			if x >= 150 {
				bg = 90
			}
			frame.SetRGBA(x, y, color.RGBA{R: bg, G: bg, B: bg, A: 255})
		}
	}
	for y := 30; y < 70; y++ {
		for x := 40; x < 110; x++ {
			frame.SetRGBA(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
		for x := 190; x < 260; x++ {
			frame.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}

	_, binary := Preprocess(frame, DefaultPreprocessOptions())

	if binary.Pix[50*binary.Stride+75] != 255 {
		t.Error("square on the dark side should be foreground")
	}
	if binary.Pix[50*binary.Stride+225] != 255 {
		t.Error("square on the bright side should be foreground")
	}
	if binary.Pix[10*binary.Stride+20] != 0 {
		t.Error("dark background should be background")
	}
}

func TestToGray_Weights(t *testing.T) {
	frame := createSolidFrame(4, 4, color.RGBA{R: 255, A: 255})
	gray := ToGray(frame)
	// Pure red under BT.601: 0.299 * 255 ≈ 76.
	got := gray.Pix[0]
	if got < 74 || got > 78 {
		t.Errorf("pure red luma = %d, want ≈76", got)
	}
}

func TestToGray_PassthroughForGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 10, 10))
	if ToGray(src) != src {
		t.Error("ToGray should return *image.Gray inputs unchanged")
	}
}
