package chessfen

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// OrderCorners takes the 4 corners of a board quadrilateral, in any order,
// and returns them as [top-left, top-right, bottom-right, bottom-left].
// It fails if anything other than 4 points is supplied.
func OrderCorners(corners []r2.Point) ([]r2.Point, error) {
	if len(corners) != 4 {
		return nil, fmt.Errorf("need exactly 4 corners, got %d", len(corners))
	}
	q := orderQuad([4]r2.Point{corners[0], corners[1], corners[2], corners[3]})
	return q[:], nil
}

// orderQuad implements the classic ordering rule: top-left has the smallest
// x+y, bottom-right the largest, and of the remaining two the one with the
// larger x-y is top-right. Ties resolve to the first point in input order.
func orderQuad(corners [4]r2.Point) [4]r2.Point {
	tl, br := 0, 0
	for i, c := range corners {
		s := c.X + c.Y
		if s < corners[tl].X+corners[tl].Y {
			tl = i
		}
		if s > corners[br].X+corners[br].Y {
			br = i
		}
	}
	if br == tl {
		// degenerate input, all sums equal
		for i := range corners {
			if i != tl {
				br = i
				break
			}
		}
	}

	var remaining []int
	for i := range corners {
		if i != tl && i != br {
			remaining = append(remaining, i)
		}
	}

	tr, bl := remaining[0], remaining[1]
	if corners[bl].X-corners[bl].Y > corners[tr].X-corners[tr].Y {
		tr, bl = bl, tr
	}

	return [4]r2.Point{corners[tl], corners[tr], corners[br], corners[bl]}
}
