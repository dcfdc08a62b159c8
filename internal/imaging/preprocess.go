package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// PreprocessOptions controls frame preprocessing ahead of contour extraction.
//
// The zero value is not useful; start from DefaultPreprocessOptions and
// adjust. BlockSize must be odd and at least 3.
type PreprocessOptions struct {
	// BlurSigma is the Gaussian smoothing strength applied before
	// thresholding to suppress sensor noise. Typical: 0.8-1.5.
	BlurSigma float64

	// BlockSize is the side length in pixels of the square neighborhood
	// used to compute the local threshold. Larger blocks tolerate bigger
	// lighting gradients but blur fine structure. Typical: 11-31, odd.
	BlockSize int

	// Bias is subtracted from the local mean before comparison. A small
	// positive bias suppresses speckle in flat regions. Typical: 1-5.
	Bias int
}

// DefaultPreprocessOptions returns the preprocessing parameters tuned for
// card detection on a dark table under uncontrolled lighting.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		BlurSigma: 1.0,
		BlockSize: 11,
		Bias:      1,
	}
}

// Preprocess converts a color frame into the two images the detection
// pipeline consumes: a smoothed grayscale image (used later for perspective
// flattening) and a binary image (used for contour extraction).
//
// Binarization uses a mean-based adaptive threshold: each pixel is compared
// against the mean of its BlockSize×BlockSize neighborhood minus Bias. A
// locally varying threshold handles uneven ambient light where any single
// global cutoff fails on one side of the frame.
//
// Preprocess has no failure mode. An all-black frame produces an all-black
// binary image.
func Preprocess(frame image.Image, opts PreprocessOptions) (gray, binary *image.Gray) {
	if opts.BlockSize < 3 {
		opts.BlockSize = 3
	}
	if opts.BlockSize%2 == 0 {
		opts.BlockSize++
	}

	g := imaging.Grayscale(frame)
	if opts.BlurSigma > 0 {
		g = imaging.Blur(g, opts.BlurSigma)
	}
	gray = ToGray(g)
	binary = adaptiveThreshold(gray, opts.BlockSize, opts.Bias)
	return gray, binary
}

// ToGray converts any image to *image.Gray using ITU-R BT.601 luminance
// weights (0.299*R + 0.587*G + 0.114*B). Images that are already *image.Gray
// are returned unchanged.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			out.Pix[(y-bounds.Min.Y)*out.Stride+(x-bounds.Min.X)] = uint8(lum + 0.5)
		}
	}
	return out
}

// adaptiveThreshold binarizes gray by comparing each pixel against the mean
// of its blockSize×blockSize neighborhood minus bias. Foreground (brighter
// than the local threshold) becomes 255, background 0.
//
// Local means come from a summed-area table, so the cost is independent of
// block size. Neighborhoods are clipped at the image border.
func adaptiveThreshold(gray *image.Gray, blockSize, bias int) *image.Gray {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}

	// integral[y][x] = sum of all pixels above and left of (x,y)
	integral := make([]int64, (w+1)*(h+1))
	stride := w + 1
	for y := 0; y < h; y++ {
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(gray.Pix[y*gray.Stride+x])
			integral[(y+1)*stride+(x+1)] = integral[y*stride+(x+1)] + rowSum
		}
	}

	half := blockSize / 2
	for y := 0; y < h; y++ {
		y1 := y - half
		y2 := y + half + 1
		if y1 < 0 {
			y1 = 0
		}
		if y2 > h {
			y2 = h
		}
		for x := 0; x < w; x++ {
			x1 := x - half
			x2 := x + half + 1
			if x1 < 0 {
				x1 = 0
			}
			if x2 > w {
				x2 = w
			}
			count := int64((x2 - x1) * (y2 - y1))
			sum := integral[y2*stride+x2] - integral[y1*stride+x2] -
				integral[y2*stride+x1] + integral[y1*stride+x1]
			thresh := int(sum/count) - bias
			if thresh < 0 {
				thresh = 0
			}
			if int(gray.Pix[y*gray.Stride+x]) > thresh {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}
