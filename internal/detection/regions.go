package detection

import (
	"image"
	"math"
	"sort"
)

// minComponentPixels discards tiny connected components before any geometry
// is computed. Purely a cheap prefilter; the real admission window is the
// configured card area range.
const minComponentPixels = 50

// FindRegions extracts candidate card regions from a binary image.
//
// Algorithm:
//
//  1. Label connected foreground components (8-connected flood fill).
//  2. Trace each component's outer boundary (Moore-neighbor tracing).
//  3. Reject contours whose shoelace area falls outside the configured
//     [MinCardArea, MaxCardArea] window.
//  4. Reject bounding boxes whose orientation-normalized aspect ratio
//     (shorter side / longer side) falls outside the configured window.
//     Normalizing admits cards in both portrait and landscape orientation.
//  5. Approximate the contour to a polygon (Douglas–Peucker, tolerance 1% of
//     the contour perimeter) and reject unless it has exactly 4 vertices.
//     Fewer or more vertices indicate occlusion, overlap, or a non-card
//     object.
//
// Survivors are sorted by area descending; largest-first is a proxy for most
// fully visible. The sort is stable, so equal areas keep discovery order.
// Zero candidates is a normal outcome, not an error.
func FindRegions(binary *image.Gray, cfg Config) []CandidateRegion {
	b := binary.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	labels, starts := labelComponents(binary)

	regions := make([]CandidateRegion, 0, len(starts))
	for id, start := range starts {
		contour := traceBoundary(labels, w, h, int32(id+1), start)
		if len(contour) < 4 {
			continue
		}

		area := polygonArea(contour)
		if area < cfg.MinCardArea || area > cfg.MaxCardArea {
			continue
		}

		bounds := contourBounds(contour)
		aspect := normalizedAspect(bounds)
		if aspect < cfg.AspectRatioMin || aspect > cfg.AspectRatioMax {
			continue
		}

		poly := approxPolygon(contour, 0.01*polygonPerimeter(contour))
		if len(poly) != 4 {
			continue
		}

		regions = append(regions, CandidateRegion{
			Contour:     contour,
			Quad:        [4]image.Point{poly[0], poly[1], poly[2], poly[3]},
			Bounds:      bounds,
			Area:        area,
			AspectRatio: aspect,
		})
	}

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Area > regions[j].Area
	})
	return regions
}

// labelComponents assigns a positive label to every 8-connected foreground
// component of the binary image and returns the label grid plus each
// component's topmost-leftmost pixel (the boundary-trace start point).
// Components smaller than minComponentPixels are labeled but not reported.
//
// The flood fill is iterative (explicit stack) so large components cannot
// overflow the goroutine stack.
func labelComponents(binary *image.Gray) (labels []int32, starts []image.Point) {
	b := binary.Bounds()
	w, h := b.Dx(), b.Dy()
	labels = make([]int32, w*h)

	var next int32
	stack := make([]image.Point, 0, 1024)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if binary.Pix[y*binary.Stride+x] == 0 || labels[y*w+x] != 0 {
				continue
			}
			next++
			count := 0
			stack = append(stack[:0], image.Point{X: x, Y: y})
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if p.X < 0 || p.X >= w || p.Y < 0 || p.Y >= h {
					continue
				}
				if labels[p.Y*w+p.X] != 0 || binary.Pix[p.Y*binary.Stride+p.X] == 0 {
					continue
				}
				labels[p.Y*w+p.X] = next
				count++
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
					}
				}
			}
			if count >= minComponentPixels {
				starts = append(starts, image.Point{X: x, Y: y})
			} else {
				// Too small to be a card: keep the grid entries (so the
				// scan skips them) but hand the label number to the next
				// kept component. Kept component i always has label i+1.
				// Components are disjoint, so sharing a label with a
				// discarded speck cannot affect a boundary trace.
				next--
			}
		}
	}
	return labels, starts
}

// traceBoundary walks the outer boundary of a labeled component clockwise
// using Moore-neighbor tracing, starting from its topmost-leftmost pixel.
//
// Neighbors are examined clockwise; after stepping in direction d the next
// search resumes from (d+6) mod 8, which is the neighbor just past the
// background pixel the step was entered from. The walk stops on the first
// return to the start pixel.
func traceBoundary(labels []int32, w, h int, id int32, start image.Point) []image.Point {
	// 8 neighbors in clockwise order starting from west.
	dirs := [8]image.Point{
		{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
		{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	}

	contour := []image.Point{start}
	cur := start
	// The raster scan that found start guarantees the pixel to its west is
	// background, so the search begins there.
	prev := 0

	for {
		found := false
		var nd int
		var next image.Point
		for i := 1; i <= 8; i++ {
			d := (prev + i) % 8
			n := image.Point{X: cur.X + dirs[d].X, Y: cur.Y + dirs[d].Y}
			if n.X < 0 || n.X >= w || n.Y < 0 || n.Y >= h {
				continue
			}
			if labels[n.Y*w+n.X] == id {
				nd, next, found = d, n, true
				break
			}
		}
		if !found {
			// Isolated pixel; the single-point contour is rejected upstream.
			break
		}
		if next == start {
			break
		}
		contour = append(contour, next)
		cur = next
		prev = (nd + 6) % 8
		if len(contour) > 4*w*h {
			// Cannot happen for a well-formed boundary; guards against a
			// pathological loop corrupting the frame.
			break
		}
	}
	return contour
}

// contourBounds returns the axis-aligned bounding box of a contour.
func contourBounds(contour []image.Point) Bounds {
	minX, minY := contour[0].X, contour[0].Y
	maxX, maxY := minX, minY
	for _, p := range contour[1:] {
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
	}
	return Bounds{X1: minX, Y1: minY, X2: maxX + 1, Y2: maxY + 1}
}

// normalizedAspect returns the box's shorter side divided by its longer side,
// so portrait and landscape cards score identically.
func normalizedAspect(b Bounds) float64 {
	w, h := float64(b.Dx()), float64(b.Dy())
	if w <= 0 || h <= 0 {
		return 0
	}
	if w < h {
		return w / h
	}
	return h / w
}

// polygonArea returns the absolute shoelace area of a closed contour.
func polygonArea(pts []image.Point) float64 {
	var sum int
	n := len(pts)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// polygonPerimeter returns the length of a closed contour.
func polygonPerimeter(pts []image.Point) float64 {
	var sum float64
	n := len(pts)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		dx := float64(pts[j].X - pts[i].X)
		dy := float64(pts[j].Y - pts[i].Y)
		sum += math.Hypot(dx, dy)
	}
	return sum
}

// approxPolygon reduces a closed contour to a polygon whose vertices deviate
// from the original curve by at most epsilon (Douglas–Peucker).
//
// A closed curve has no natural endpoints, so it is split at the two
// farthest-apart anchor points (the start pixel and the contour point
// farthest from it); each open chain is simplified independently and the
// halves are rejoined.
func approxPolygon(contour []image.Point, epsilon float64) []image.Point {
	if len(contour) < 3 {
		return contour
	}

	far := 0
	var maxD float64
	for i, p := range contour {
		d := distSq(p, contour[0])
		if d > maxD {
			maxD = d
			far = i
		}
	}
	if far == 0 {
		return contour[:1]
	}

	closing := append(append([]image.Point(nil), contour[far:]...), contour[0])
	first := douglasPeucker(contour[:far+1], epsilon)
	second := douglasPeucker(closing, epsilon)

	// Drop the duplicated anchors where the chains meet.
	poly := append(first, second[1:len(second)-1]...)
	return poly
}

// douglasPeucker simplifies an open polyline, always keeping its endpoints.
// The result is always freshly allocated; the input is never aliased or
// modified.
func douglasPeucker(pts []image.Point, epsilon float64) []image.Point {
	if len(pts) < 3 {
		return append([]image.Point(nil), pts...)
	}

	var maxDist float64
	index := 0
	for i := 1; i < len(pts)-1; i++ {
		d := perpendicularDistance(pts[i], pts[0], pts[len(pts)-1])
		if d > maxDist {
			maxDist = d
			index = i
		}
	}

	if maxDist <= epsilon {
		return []image.Point{pts[0], pts[len(pts)-1]}
	}

	left := douglasPeucker(pts[:index+1], epsilon)
	right := douglasPeucker(pts[index:], epsilon)
	return append(left[:len(left)-1], right...)
}

// perpendicularDistance returns the distance from p to the line through a
// and b. When a and b coincide it degrades to point distance.
func perpendicularDistance(p, a, b image.Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return math.Sqrt(distSq(p, a))
	}
	return math.Abs(dy*float64(p.X)-dx*float64(p.Y)+
		float64(b.X)*float64(a.Y)-float64(b.Y)*float64(a.X)) / length
}

func distSq(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return dx*dx + dy*dy
}
