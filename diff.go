package chessfen

import (
	"github.com/corentings/chess/v2"
)

// SquareMismatch reports one square where the detected occupancy disagrees
// with a reference position. Empty strings mean "no piece".
type SquareMismatch struct {
	Square   Square
	Detected string
	Expected string
}

var pieceKindNames = map[chess.PieceType]string{
	chess.King:   "king",
	chess.Queen:  "queen",
	chess.Rook:   "rook",
	chess.Bishop: "bishop",
	chess.Knight: "knight",
	chess.Pawn:   "pawn",
}

func pieceLabel(p chess.Piece) string {
	if p == chess.NoPiece {
		return ""
	}
	side := "black"
	if p.Color() == chess.White {
		side = "white"
	}
	return side + "_" + pieceKindNames[p.Type()]
}

// DiffOccupancy walks all 64 squares and lists every one where the detected
// occupancy differs from the reference board. Useful for a human reviewer
// checking a detection against a known position.
func DiffOccupancy(occ OccupancyMap, reference *chess.Board) []SquareMismatch {
	var mismatches []SquareMismatch

	for r := chess.Rank8; ; r-- {
		for f := chess.FileA; f <= chess.FileH; f++ {
			sq := chess.NewSquare(f, r)
			expected := pieceLabel(reference.Piece(sq))
			detected := occ[Square(sq.String())]

			if detected != expected {
				mismatches = append(mismatches, SquareMismatch{
					Square:   Square(sq.String()),
					Detected: detected,
					Expected: expected,
				})
			}
		}
		if r == chess.Rank1 {
			break
		}
	}
	return mismatches
}

// StartingBoard is the standard initial position.
func StartingBoard() *chess.Board {
	return chess.NewGame().Position().Board()
}

// BoardFromFEN parses a reference position out of a full FEN string.
func BoardFromFEN(fen string) (*chess.Board, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, err
	}
	return chess.NewGame(opt).Position().Board(), nil
}
