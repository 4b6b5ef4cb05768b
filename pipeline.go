package chessfen

import (
	"fmt"
	"image"
	"image/draw"
	"sort"
)

// BoundingBox is an axis-aligned box in original-image pixel space. x1<x2
// and y1<y2 is the expected layout but is not enforced here.
type BoundingBox struct {
	X1, Y1, X2, Y2 float64
}

// BoardDetection is the board-model output consumed at the pipeline
// boundary. When Detected is false the other fields are meaningless.
type BoardDetection struct {
	Detected   bool
	Box        BoundingBox
	Confidence float64
}

// PieceDetection is one piece-model detection: a class label like
// "white_king", its box in original-image coordinates, and a confidence
// in [0,1].
type PieceDetection struct {
	Label      string
	Box        BoundingBox
	Confidence float64
}

// MappedPiece is one occupied square in the pipeline result: the winning
// label, the square it landed on, and the best confidence seen there.
type MappedPiece struct {
	Piece      string
	Square     Square
	Confidence float64
}

// PipelineResult is the outcome of one frame.
type PipelineResult struct {
	FEN           string
	BoardDetected bool
	Pieces        []MappedPiece
	Errors        []string
}

// RunPipeline converts one frame's detection output into a FEN string:
// crop to the board box, recover the perspective transform, bucket the piece
// centroids into squares, serialize and validate.
//
// A missing board is a terminal outcome, reported in the result rather than
// as an error. Validator complaints likewise come back as data; the pipeline
// prefers a possibly-wrong FEN plus complaints over refusing to answer.
func RunPipeline(img image.Image, board BoardDetection, pieces []PieceDetection) (PipelineResult, error) {
	if img == nil {
		return PipelineResult{}, fmt.Errorf("nil source image")
	}

	if !board.Detected {
		return PipelineResult{
			BoardDetected: false,
			Pieces:        []MappedPiece{},
			Errors:        []string{"No board found"},
		}, nil
	}

	crop := cropToBoard(img, board.Box)
	_, transform := CorrectPerspective(crop)

	occ := MapPiecesToSquares(pieces, board.Box, transform)

	// best per-square confidence, re-derived through the same square rule
	squareConf := map[Square]float64{}
	for _, det := range pieces {
		sq := squareForCentroid(det, board.Box, transform)
		if prev, seen := squareConf[sq]; !seen || det.Confidence > prev {
			squareConf[sq] = det.Confidence
		}
	}

	mapped := make([]MappedPiece, 0, len(occ))
	for sq, label := range occ {
		mapped = append(mapped, MappedPiece{Piece: label, Square: sq, Confidence: squareConf[sq]})
	}
	sort.Slice(mapped, func(i, j int) bool { return mapped[i].Square < mapped[j].Square })

	fen := GenerateFEN(occ)
	validation := ValidateFEN(fen)

	return PipelineResult{
		FEN:           fen,
		BoardDetected: true,
		Pieces:        mapped,
		Errors:        append([]string{}, validation.Errors...),
	}, nil
}

// WarpBoard crops the board box out of the frame and returns the
// perspective-corrected top-down view along with the transform that
// produced it.
func WarpBoard(img image.Image, box BoundingBox) (*image.RGBA, *Transform) {
	return CorrectPerspective(cropToBoard(img, box))
}

// cropToBoard copies the board region out of the original image, clamped to
// the image bounds. The copy has its origin at (0,0) so downstream work is
// in crop-local coordinates.
func cropToBoard(img image.Image, box BoundingBox) *image.RGBA {
	bounds := img.Bounds()
	region := image.Rect(int(box.X1), int(box.Y1), int(box.X2), int(box.Y2)).
		Add(bounds.Min).
		Intersect(bounds)

	crop := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(crop, crop.Bounds(), img, region.Min, draw.Src)
	return crop
}
