package imaging

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrDegenerateQuad is returned when a quadrilateral's corners are duplicated
// or collinear, making the perspective transform singular.
var ErrDegenerateQuad = errors.New("degenerate quadrilateral")

// OrderPoints arranges four corner points into the canonical order
// (top-left, top-right, bottom-right, bottom-left):
//
//   - top-left: minimum x+y
//   - bottom-right: maximum x+y
//   - top-right: minimum x−y
//   - bottom-left: maximum x−y
//
// The same four physical corners always yield the same ordering regardless of
// the order the contour tracer discovered them in. Feeding an unordered quad
// to the perspective transform produces a mirrored or rotated card and
// corrupts every downstream glyph, so this runs before every warp.
func OrderPoints(pts [4]image.Point) [4]image.Point {
	var ordered [4]image.Point
	minSum, maxSum := math.MaxInt, math.MinInt
	minDiff, maxDiff := math.MaxInt, math.MinInt

	for _, p := range pts {
		sum := p.X + p.Y
		diff := p.X - p.Y
		if sum < minSum {
			minSum = sum
			ordered[0] = p // top-left
		}
		if sum > maxSum {
			maxSum = sum
			ordered[2] = p // bottom-right
		}
		if diff > maxDiff {
			maxDiff = diff
			ordered[1] = p // top-right
		}
		if diff < minDiff {
			minDiff = diff
			ordered[3] = p // bottom-left
		}
	}
	return ordered
}

// Homography is a 3×3 projective transform in row-major order with the
// bottom-right element fixed at 1.
type Homography struct {
	m [8]float64 // a b c d e f g h; maps (u,v) -> ((a*u+b*v+c)/(g*u+h*v+1), (d*u+e*v+f)/(g*u+h*v+1))
}

// Apply transforms the point (u, v) through the homography.
func (h *Homography) Apply(u, v float64) (x, y float64) {
	w := h.m[6]*u + h.m[7]*v + 1
	x = (h.m[0]*u + h.m[1]*v + h.m[2]) / w
	y = (h.m[3]*u + h.m[4]*v + h.m[5]) / w
	return x, y
}

// PerspectiveTransform computes the homography mapping each src[i] to dst[i].
//
// The four correspondences produce an 8×8 linear system solved by Gaussian
// elimination with partial pivoting. If the system is singular (duplicate or
// collinear corners), ErrDegenerateQuad is returned.
func PerspectiveTransform(src, dst [4][2]float64) (*Homography, error) {
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		u, v := src[i][0], src[i][1]
		x, y := dst[i][0], dst[i][1]
		a[2*i] = [9]float64{u, v, 1, 0, 0, 0, -u * x, -v * x, x}
		a[2*i+1] = [9]float64{0, 0, 0, u, v, 1, -u * y, -v * y, y}
	}

	// Forward elimination with partial pivoting.
	const eps = 1e-10
	for col := 0; col < 8; col++ {
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < eps {
			return nil, ErrDegenerateQuad
		}
		a[col], a[pivot] = a[pivot], a[col]
		for row := col + 1; row < 8; row++ {
			f := a[row][col] / a[col][col]
			for k := col; k < 9; k++ {
				a[row][k] -= f * a[col][k]
			}
		}
	}

	// Back substitution.
	var h Homography
	for col := 7; col >= 0; col-- {
		sum := a[col][8]
		for k := col + 1; k < 8; k++ {
			sum -= a[col][k] * h.m[k]
		}
		h.m[col] = sum / a[col][col]
	}
	return &h, nil
}

// Flatten warps the quadrilateral region of gray bounded by quad into a
// width×height top-down view. The corners are ordered canonically first, so
// callers may pass them in any order.
//
// The warp maps each destination pixel back through the inverse homography
// and samples the source bilinearly; destination pixels that land outside the
// source image are black.
//
// Returns ErrDegenerateQuad (wrapped) when the corners are duplicated or
// collinear; the caller should drop the region and keep processing others.
func Flatten(gray *image.Gray, quad [4]image.Point, width, height int) (*image.Gray, error) {
	ordered := OrderPoints(quad)

	// A near-zero quad area means collinear or coincident corners. Catch it
	// before the solver so the error is reported consistently.
	if quadArea(ordered) < 1.0 {
		return nil, fmt.Errorf("flatten: %w", ErrDegenerateQuad)
	}

	src := [4][2]float64{
		{0, 0},
		{float64(width - 1), 0},
		{float64(width - 1), float64(height - 1)},
		{0, float64(height - 1)},
	}
	var dst [4][2]float64
	for i, p := range ordered {
		dst[i] = [2]float64{float64(p.X), float64(p.Y)}
	}

	// Solve destination->source so warping needs no matrix inversion.
	h, err := PerspectiveTransform(src, dst)
	if err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}

	out := image.NewGray(image.Rect(0, 0, width, height))
	for v := 0; v < height; v++ {
		for u := 0; u < width; u++ {
			x, y := h.Apply(float64(u), float64(v))
			out.Pix[v*out.Stride+u] = sampleBilinear(gray, x, y)
		}
	}
	return out, nil
}

// quadArea returns the absolute shoelace area of an ordered quadrilateral.
func quadArea(q [4]image.Point) float64 {
	var sum int
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		sum += q[i].X*q[j].Y - q[j].X*q[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// sampleBilinear samples gray at a fractional coordinate using bilinear
// interpolation. Coordinates outside the image return 0.
func sampleBilinear(gray *image.Gray, x, y float64) uint8 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if x < 0 || y < 0 || x > float64(w-1) || y > float64(h-1) {
		return 0
	}

	x0 := int(x)
	y0 := int(y)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 > w-1 {
		x1 = w - 1
	}
	if y1 > h-1 {
		y1 = h - 1
	}
	fx := x - float64(x0)
	fy := y - float64(y0)

	p00 := float64(gray.Pix[y0*gray.Stride+x0])
	p10 := float64(gray.Pix[y0*gray.Stride+x1])
	p01 := float64(gray.Pix[y1*gray.Stride+x0])
	p11 := float64(gray.Pix[y1*gray.Stride+x1])

	top := p00 + fx*(p10-p00)
	bottom := p01 + fx*(p11-p01)
	return uint8(top + fy*(bottom-top) + 0.5)
}
