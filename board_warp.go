package chessfen

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r2"
)

// CorrectPerspective straightens a (possibly skewed) chessboard crop into a
// 640x640 square. It returns the warped image and the transform mapping
// crop-local pixel coordinates into the normalized 640x640 board space.
//
// The board quadrilateral is recovered by thresholding the crop, taking the
// external contour with the largest enclosed area, and approximating it by a
// polygon. If that polygon does not have exactly 4 vertices the crop's own
// rectangular corners are used instead, so the function is total: it always
// produces a transform and an image, degrading to an identity-like mapping.
func CorrectPerspective(crop image.Image) (*image.RGBA, *Transform) {
	bounds := crop.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	quad := findBoardQuad(crop, w, h)
	src := orderQuad(quad)
	dst := boardDestQuad()

	forward := QuadToQuad(src, dst)
	inverse := QuadToQuad(dst, src)

	return warpBilinear(crop, inverse), forward
}

// findBoardQuad locates the 4 corners of the board inside the crop, falling
// back to the crop's own corners when no 4-vertex contour can be found.
func findBoardQuad(crop image.Image, w, h int) [4]r2.Point {
	if w >= 3 && h >= 3 {
		gray := makeGrayImage(crop)
		binary := adaptiveThresholdInv(gray, w, h)

		contour := largestExternalContour(binary, w, h)
		if len(contour) >= 4 {
			approx := approxPolygon(contour, 0.02*arcLength(contour))
			if len(approx) == 4 {
				return [4]r2.Point{approx[0], approx[1], approx[2], approx[3]}
			}
		}
	}

	fw, fh := float64(w), float64(h)
	return [4]r2.Point{
		{X: 0, Y: 0},
		{X: fw - 1, Y: 0},
		{X: fw - 1, Y: fh - 1},
		{X: 0, Y: fh - 1},
	}
}

func makeGrayImage(img image.Image) [][]int {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	gray := make([][]int, height)
	for y := range height {
		gray[y] = make([]int, width)
		for x := range width {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			r, g, b, _ := c.RGBA()
			gray[y][x] = (int(r>>8) + int(g>>8) + int(b>>8)) / 3
		}
	}
	return gray
}

// adaptiveThresholdInv binarizes with a locally-adaptive mean threshold over
// an 11x11 window with a bias constant of 2, inverted polarity: a pixel is
// foreground when it is darker than its neighborhood mean minus the bias.
func adaptiveThresholdInv(gray [][]int, w, h int) [][]bool {
	const (
		window = 11
		bias   = 2
	)
	radius := window / 2

	// summed-area table, one row/column of zero padding
	sums := make([][]int64, h+1)
	sums[0] = make([]int64, w+1)
	for y := 0; y < h; y++ {
		sums[y+1] = make([]int64, w+1)
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(gray[y][x])
			sums[y+1][x+1] = sums[y][x+1] + rowSum
		}
	}

	mask := make([][]bool, h)
	for y := range h {
		mask[y] = make([]bool, w)
		y0 := max(y-radius, 0)
		y1 := min(y+radius, h-1)
		for x := range w {
			x0 := max(x-radius, 0)
			x1 := min(x+radius, w-1)

			area := int64((y1 - y0 + 1) * (x1 - x0 + 1))
			total := sums[y1+1][x1+1] - sums[y0][x1+1] - sums[y1+1][x0] + sums[y0][x0]
			mean := float64(total) / float64(area)

			mask[y][x] = float64(gray[y][x]) < mean-bias
		}
	}
	return mask
}

// clockwise 8-neighborhood, starting east, with y growing downward
var mooreNeighbors = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// largestExternalContour labels the connected foreground regions, traces the
// outer boundary of each, and returns the boundary enclosing the largest
// area. Returns nil when there is no foreground at all.
func largestExternalContour(mask [][]bool, w, h int) []r2.Point {
	labels := make([][]int, h)
	for y := range h {
		labels[y] = make([]int, w)
	}

	var best []r2.Point
	bestArea := 0.0
	label := 0

	for y := range h {
		for x := range w {
			if !mask[y][x] || labels[y][x] != 0 {
				continue
			}
			label++
			floodFill8(mask, labels, x, y, w, h, label)

			// (x, y) is the topmost-leftmost pixel of this component,
			// which is a valid Moore tracing start
			contour := traceContour(mask, labels, image.Point{x, y}, label, w, h)
			if area := contourArea(contour); best == nil || area > bestArea {
				bestArea = area
				best = contour
			}
		}
	}
	return best
}

func floodFill8(mask [][]bool, labels [][]int, startX, startY, w, h, label int) {
	stack := []image.Point{{startX, startY}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= w || p.Y < 0 || p.Y >= h {
			continue
		}
		if !mask[p.Y][p.X] || labels[p.Y][p.X] != 0 {
			continue
		}
		labels[p.Y][p.X] = label

		for _, d := range mooreNeighbors {
			stack = append(stack, image.Point{p.X + d.X, p.Y + d.Y})
		}
	}
}

// traceContour walks the outer boundary of one labeled component using
// Moore neighbor tracing, clockwise from the given start pixel.
func traceContour(mask [][]bool, labels [][]int, start image.Point, label, w, h int) []r2.Point {
	inside := func(p image.Point) bool {
		return p.X >= 0 && p.X < w && p.Y >= 0 && p.Y < h &&
			mask[p.Y][p.X] && labels[p.Y][p.X] == label
	}

	contour := []r2.Point{{X: float64(start.X), Y: float64(start.Y)}}
	cur := start
	prev := 4 // pretend we arrived from the west; row-major scan makes NW..N background

	limit := 4 * w * h // generous bound on boundary length
	for step := 0; step < limit; step++ {
		found := -1
		for i := 1; i <= 8; i++ {
			d := (prev + i) % 8
			n := cur.Add(mooreNeighbors[d])
			if inside(n) {
				found = d
				cur = n
				break
			}
		}
		if found < 0 {
			break // isolated pixel
		}
		if cur == start {
			break
		}
		contour = append(contour, r2.Point{X: float64(cur.X), Y: float64(cur.Y)})
		prev = (found + 4) % 8
	}
	return contour
}

// contourArea is the shoelace area of a closed pixel boundary.
func contourArea(contour []r2.Point) float64 {
	if len(contour) < 3 {
		return 0
	}
	area := 0.0
	for i, p := range contour {
		q := contour[(i+1)%len(contour)]
		area += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(area) / 2
}

// arcLength is the perimeter of a closed contour.
func arcLength(contour []r2.Point) float64 {
	total := 0.0
	for i, p := range contour {
		q := contour[(i+1)%len(contour)]
		total += q.Sub(p).Norm()
	}
	return total
}

// approxPolygon reduces a closed contour to a polygon whose vertices all lie
// within epsilon of the original curve (Douglas-Peucker). The curve is split
// at its two mutually farthest anchor points so the closed shape simplifies
// cleanly.
func approxPolygon(contour []r2.Point, epsilon float64) []r2.Point {
	if len(contour) < 3 {
		return contour
	}

	far := 0
	maxDist := -1.0
	for i, p := range contour {
		if d := p.Sub(contour[0]).Norm(); d > maxDist {
			maxDist = d
			far = i
		}
	}
	if far == 0 {
		return contour[:1]
	}

	first := simplifySegment(contour[:far+1], epsilon)
	back := append(append([]r2.Point{}, contour[far:]...), contour[0])
	second := simplifySegment(back, epsilon)

	// drop the duplicated anchors where the halves join
	poly := append(first[:len(first)-1], second[:len(second)-1]...)
	return poly
}

func simplifySegment(pts []r2.Point, epsilon float64) []r2.Point {
	if len(pts) <= 2 {
		return pts
	}

	idx := 0
	maxDist := 0.0
	for i := 1; i < len(pts)-1; i++ {
		if d := perpendicularDistance(pts[i], pts[0], pts[len(pts)-1]); d > maxDist {
			maxDist = d
			idx = i
		}
	}

	if maxDist <= epsilon {
		return []r2.Point{pts[0], pts[len(pts)-1]}
	}

	left := simplifySegment(pts[:idx+1], epsilon)
	right := simplifySegment(pts[idx:], epsilon)
	return append(left[:len(left)-1], right...)
}

func perpendicularDistance(p, a, b r2.Point) float64 {
	ab := b.Sub(a)
	length := ab.Norm()
	if length == 0 {
		return p.Sub(a).Norm()
	}
	return math.Abs(ab.X*(a.Y-p.Y)-ab.Y*(a.X-p.X)) / length
}

// warpBilinear resamples src into a warpSize x warpSize image. inverse maps
// destination coordinates back into source coordinates; pixels that land
// outside the source are left black.
func warpBilinear(src image.Image, inverse *Transform) *image.RGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	dst := image.NewRGBA(image.Rect(0, 0, warpSize, warpSize))
	for y := 0; y < warpSize; y++ {
		for x := 0; x < warpSize; x++ {
			sp := inverse.Apply(r2.Point{X: float64(x), Y: float64(y)})
			if sp.X < -1 || sp.X > float64(w) || sp.Y < -1 || sp.Y > float64(h) {
				continue
			}

			x0 := int(math.Floor(sp.X))
			y0 := int(math.Floor(sp.Y))
			fx := sp.X - float64(x0)
			fy := sp.Y - float64(y0)

			c00 := sampleClamped(src, bounds, x0, y0, w, h)
			c10 := sampleClamped(src, bounds, x0+1, y0, w, h)
			c01 := sampleClamped(src, bounds, x0, y0+1, w, h)
			c11 := sampleClamped(src, bounds, x0+1, y0+1, w, h)

			var out [4]uint8
			for i := range out {
				top := float64(c00[i])*(1-fx) + float64(c10[i])*fx
				bot := float64(c01[i])*(1-fx) + float64(c11[i])*fx
				out[i] = uint8(math.Round(top*(1-fy) + bot*fy))
			}
			dst.SetRGBA(x, y, color.RGBA{out[0], out[1], out[2], out[3]})
		}
	}
	return dst
}

func sampleClamped(src image.Image, bounds image.Rectangle, x, y, w, h int) [4]uint8 {
	x = min(max(x, 0), w-1)
	y = min(max(y, 0), h-1)
	r, g, b, a := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
	return [4]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}
