package chessfen

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// cellSize is the side length of one board square in warped coordinates.
const cellSize = warpSize / 8

// Square names one of the 64 board cells, "a1" through "h8".
type Square string

// OccupancyMap associates occupied squares with piece labels.
type OccupancyMap map[Square]string

// squareForCentroid decides which square a detection lands on: the bounding
// box centroid is translated into board-crop coordinates, pushed through the
// crop-to-board transform, and bucketed into the 8x8 grid. Out-of-range
// coordinates clamp to the border cells, so every detection lands somewhere.
//
// This is the single square-assignment rule in the package; both the
// occupancy builder and the annotated piece list go through it.
func squareForCentroid(det PieceDetection, board BoundingBox, t *Transform) Square {
	cx := (det.Box.X1 + det.Box.X2) / 2
	cy := (det.Box.Y1 + det.Box.Y2) / 2

	warped := t.Apply(r2.Point{X: cx - board.X1, Y: cy - board.Y1})

	col := min(max(int(warped.X/cellSize), 0), 7)
	row := min(max(int(warped.Y/cellSize), 0), 7)

	// row 0 is the top of the warped board, which is rank 8
	return Square(fmt.Sprintf("%c%d", 'a'+col, 8-row))
}

// MapPiecesToSquares buckets every piece detection into the 8x8 grid and
// resolves square conflicts: the higher-confidence detection wins, and on
// equal confidence the earlier detection is kept.
func MapPiecesToSquares(dets []PieceDetection, board BoundingBox, t *Transform) OccupancyMap {
	occ := OccupancyMap{}
	conf := map[Square]float64{}

	for _, det := range dets {
		sq := squareForCentroid(det, board, t)
		if prev, seen := conf[sq]; !seen || det.Confidence > prev {
			occ[sq] = det.Label
			conf[sq] = det.Confidence
		}
	}
	return occ
}
