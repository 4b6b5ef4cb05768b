package chessfen

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"go.viam.com/test"
)

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func TestRunPipelineNilImage(t *testing.T) {
	_, err := RunPipeline(nil, BoardDetection{Detected: true}, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRunPipelineNoBoard(t *testing.T) {
	result, err := RunPipeline(whiteImage(100, 100), BoardDetection{Detected: false}, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.BoardDetected, test.ShouldBeFalse)
	test.That(t, result.FEN, test.ShouldEqual, "")
	test.That(t, result.Pieces, test.ShouldBeEmpty)
	test.That(t, result.Errors, test.ShouldResemble, []string{"No board found"})
}

func TestRunPipelineKings(t *testing.T) {
	// uniform crop, so the board quad falls back to the crop corners and
	// the transform is a plain scale from 200x200 up to 640x640
	img := whiteImage(200, 200)
	board := BoardDetection{Detected: true, Box: BoundingBox{X1: 0, Y1: 0, X2: 200, Y2: 200}, Confidence: 0.9}

	// e1 center is warped (360, 600); e8 center is warped (360, 40)
	pieces := []PieceDetection{
		{Label: "white_king", Box: BoundingBox{X1: 110, Y1: 185, X2: 114, Y2: 189}, Confidence: 0.95},
		{Label: "black_king", Box: BoundingBox{X1: 110, Y1: 10, X2: 114, Y2: 15}, Confidence: 0.92},
	}

	result, err := RunPipeline(img, board, pieces)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.BoardDetected, test.ShouldBeTrue)
	test.That(t, result.FEN, test.ShouldEqual, "4k3/8/8/8/8/8/8/4K3 w KQkq - 0 1")
	test.That(t, result.Errors, test.ShouldBeEmpty)

	test.That(t, result.Pieces, test.ShouldResemble, []MappedPiece{
		{Piece: "white_king", Square: "e1", Confidence: 0.95},
		{Piece: "black_king", Square: "e8", Confidence: 0.92},
	})
}

func TestRunPipelineReportsValidation(t *testing.T) {
	img := whiteImage(200, 200)
	board := BoardDetection{Detected: true, Box: BoundingBox{X1: 0, Y1: 0, X2: 200, Y2: 200}, Confidence: 0.9}

	// two white kings, no black king
	pieces := []PieceDetection{
		{Label: "white_king", Box: BoundingBox{X1: 110, Y1: 185, X2: 114, Y2: 189}, Confidence: 0.95},
		{Label: "white_king", Box: BoundingBox{X1: 60, Y1: 185, X2: 64, Y2: 189}, Confidence: 0.90},
	}

	result, err := RunPipeline(img, board, pieces)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.BoardDetected, test.ShouldBeTrue)
	test.That(t, result.Errors, test.ShouldResemble, []string{
		"Expected exactly 1 white king ('K'), found 2.",
		"Expected exactly 1 black king ('k'), found 0.",
	})
}

func TestRunPipelineConflictConfidence(t *testing.T) {
	img := whiteImage(200, 200)
	board := BoardDetection{Detected: true, Box: BoundingBox{X1: 0, Y1: 0, X2: 200, Y2: 200}, Confidence: 0.9}

	// both land on e4; the queen wins and its confidence is reported
	pieces := []PieceDetection{
		{Label: "white_pawn", Box: BoundingBox{X1: 102, Y1: 102, X2: 106, Y2: 106}, Confidence: 0.5},
		{Label: "black_queen", Box: BoundingBox{X1: 108, Y1: 108, X2: 112, Y2: 112}, Confidence: 0.8},
	}

	result, err := RunPipeline(img, board, pieces)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(result.Pieces), test.ShouldEqual, 1)
	test.That(t, result.Pieces[0].Square, test.ShouldEqual, Square("e4"))
	test.That(t, result.Pieces[0].Piece, test.ShouldEqual, "black_queen")
	test.That(t, result.Pieces[0].Confidence, test.ShouldEqual, 0.8)
}

func TestWarpBoard(t *testing.T) {
	warped, tr := WarpBoard(whiteImage(300, 300), BoundingBox{X1: 50, Y1: 50, X2: 250, Y2: 250})
	test.That(t, tr, test.ShouldNotBeNil)
	test.That(t, warped.Bounds().Dx(), test.ShouldEqual, 640)
	test.That(t, warped.Bounds().Dy(), test.ShouldEqual, 640)
}

func TestCropToBoardClamps(t *testing.T) {
	crop := cropToBoard(whiteImage(100, 100), BoundingBox{X1: -20, Y1: 50, X2: 150, Y2: 200})
	test.That(t, crop.Bounds().Dx(), test.ShouldEqual, 100)
	test.That(t, crop.Bounds().Dy(), test.ShouldEqual, 50)
}
