package chessfen

import (
	"image"
	"testing"

	"go.viam.com/rdk/vision/objectdetection"
	"go.viam.com/test"
)

func TestFENServiceConfigValidate(t *testing.T) {
	cfg := FENServiceConfig{Camera: "cam", BoardDetector: "boards", PieceDetector: "pieces"}
	deps, _, err := cfg.Validate("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, deps, test.ShouldResemble, []string{"cam", "boards", "pieces"})

	_, _, err = (&FENServiceConfig{BoardDetector: "b", PieceDetector: "p"}).Validate("")
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = (&FENServiceConfig{Camera: "cam", PieceDetector: "p"}).Validate("")
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = (&FENServiceConfig{Camera: "cam", BoardDetector: "b"}).Validate("")
	test.That(t, err, test.ShouldNotBeNil)
}

func makeDetection(t *testing.T, label string, score float64, rect image.Rectangle) objectdetection.Detection {
	t.Helper()
	return objectdetection.NewDetection(image.Rect(0, 0, 1000, 1000), rect, score, label)
}

func TestBoardFromDetections(t *testing.T) {
	test.That(t, boardFromDetections(nil).Detected, test.ShouldBeFalse)

	best := boardFromDetections([]objectdetection.Detection{
		makeDetection(t, "board", 0.6, image.Rect(10, 10, 200, 200)),
		makeDetection(t, "board", 0.9, image.Rect(20, 20, 220, 220)),
		makeDetection(t, "board", 0.4, image.Rect(0, 0, 100, 100)),
	})
	test.That(t, best.Detected, test.ShouldBeTrue)
	test.That(t, best.Confidence, test.ShouldEqual, 0.9)
	test.That(t, best.Box, test.ShouldResemble, BoundingBox{X1: 20, Y1: 20, X2: 220, Y2: 220})
}

func TestPiecesFromDetections(t *testing.T) {
	pieces := piecesFromDetections([]objectdetection.Detection{
		makeDetection(t, "white_king", 0.95, image.Rect(100, 100, 140, 160)),
		makeDetection(t, "black_pawn", 0.70, image.Rect(300, 50, 330, 90)),
	})
	test.That(t, pieces, test.ShouldResemble, []PieceDetection{
		{Label: "white_king", Box: BoundingBox{X1: 100, Y1: 100, X2: 140, Y2: 160}, Confidence: 0.95},
		{Label: "black_pawn", Box: BoundingBox{X1: 300, Y1: 50, X2: 330, Y2: 90}, Confidence: 0.70},
	})
}

func TestRectToBox(t *testing.T) {
	r := image.Rect(5, 10, 15, 30)
	test.That(t, rectToBox(&r), test.ShouldResemble, BoundingBox{X1: 5, Y1: 10, X2: 15, Y2: 30})
	test.That(t, rectToBox(nil), test.ShouldResemble, BoundingBox{})
}

func TestPipelineResultToMap(t *testing.T) {
	out := pipelineResultToMap(PipelineResult{
		FEN:           "8/8/8/8/8/8/8/8 w KQkq - 0 1",
		BoardDetected: true,
		Pieces: []MappedPiece{
			{Piece: "white_king", Square: "e1", Confidence: 0.95},
		},
		Errors: []string{"Expected exactly 1 black king ('k'), found 0."},
	})

	test.That(t, out["fen"], test.ShouldEqual, "8/8/8/8/8/8/8/8 w KQkq - 0 1")
	test.That(t, out["board_detected"], test.ShouldEqual, true)
	test.That(t, out["pieces"], test.ShouldResemble, []interface{}{
		map[string]interface{}{"piece": "white_king", "square": "e1", "confidence": 0.95},
	})
	test.That(t, out["errors"], test.ShouldResemble,
		[]interface{}{"Expected exactly 1 black king ('k'), found 0."})
}
