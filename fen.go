package chessfen

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// pieceToFEN maps detector class labels to FEN piece letters.
var pieceToFEN = map[string]byte{
	"white_king":   'K',
	"white_queen":  'Q',
	"white_rook":   'R',
	"white_bishop": 'B',
	"white_knight": 'N',
	"white_pawn":   'P',
	"black_king":   'k',
	"black_queen":  'q',
	"black_rook":   'r',
	"black_bishop": 'b',
	"black_knight": 'n',
	"black_pawn":   'p',
}

const validBoardChars = "rnbqkpRNBQKP12345678"

// GenerateFEN serializes an occupancy map into a full 6-field FEN string.
//
// The board field walks rank 8 down to rank 1, file a through h, collapsing
// runs of empty squares into digits. Labels outside the piece table render
// as '?' rather than failing. The tail fields are fixed defaults
// ("w KQkq - 0 1"); a downstream game-state owner overrides them, this
// package makes no claim about whose turn it is or what rights remain.
func GenerateFEN(occ OccupancyMap) string {
	ranks := make([]string, 0, 8)

	for rank := 8; rank >= 1; rank-- {
		var sb strings.Builder
		empty := 0

		for file := 0; file < 8; file++ {
			sq := Square(fmt.Sprintf("%c%d", 'a'+file, rank))
			label, occupied := occ[sq]
			if !occupied {
				empty++
				continue
			}
			if empty > 0 {
				fmt.Fprintf(&sb, "%d", empty)
				empty = 0
			}
			ch, known := pieceToFEN[label]
			if !known {
				ch = '?'
			}
			sb.WriteByte(ch)
		}
		if empty > 0 {
			fmt.Fprintf(&sb, "%d", empty)
		}
		ranks = append(ranks, sb.String())
	}

	return strings.Join(ranks, "/") + " w KQkq - 0 1"
}

// FENValidation is the outcome of a structural FEN check: a validity flag
// plus every violation found, not just the first.
type FENValidation struct {
	Valid  bool
	Errors []string
}

// Err folds the violation list into a single error, nil when valid.
func (v FENValidation) Err() error {
	var err error
	for _, msg := range v.Errors {
		err = multierr.Append(err, errors.New(msg))
	}
	return err
}

// ValidateFEN checks the structural well-formedness of a FEN-shaped string.
// All checks run independently and every violation is collected: rank count,
// character set, per-rank square sums, king counts and pawn counts. It is a
// sanity check on the board field only, not a chess legality checker.
func ValidateFEN(fen string) FENValidation {
	var violations []string

	boardPart := fen
	if idx := strings.IndexByte(fen, ' '); idx >= 0 {
		boardPart = fen[:idx]
	}

	ranks := strings.Split(boardPart, "/")
	if len(ranks) != 8 {
		violations = append(violations,
			fmt.Sprintf("Expected 8 ranks separated by '/', found %d.", len(ranks)))
	}

	for _, ch := range boardPart {
		if ch != '/' && !strings.ContainsRune(validBoardChars, ch) {
			violations = append(violations,
				fmt.Sprintf("Invalid character %q in board portion.", ch))
		}
	}

	for i, rank := range ranks {
		total := 0
		for _, ch := range rank {
			if ch >= '0' && ch <= '9' {
				total += int(ch - '0')
			} else {
				total++ // a piece occupies one square
			}
		}
		if total != 8 {
			violations = append(violations,
				fmt.Sprintf("Rank %d (%q) sums to %d squares; expected 8.", 8-i, rank, total))
		}
	}

	whiteKings := strings.Count(boardPart, "K")
	blackKings := strings.Count(boardPart, "k")
	if whiteKings != 1 {
		violations = append(violations,
			fmt.Sprintf("Expected exactly 1 white king ('K'), found %d.", whiteKings))
	}
	if blackKings != 1 {
		violations = append(violations,
			fmt.Sprintf("Expected exactly 1 black king ('k'), found %d.", blackKings))
	}

	if whitePawns := strings.Count(boardPart, "P"); whitePawns > 8 {
		violations = append(violations,
			fmt.Sprintf("White has %d pawns; maximum is 8.", whitePawns))
	}
	if blackPawns := strings.Count(boardPart, "p"); blackPawns > 8 {
		violations = append(violations,
			fmt.Sprintf("Black has %d pawns; maximum is 8.", blackPawns))
	}

	return FENValidation{Valid: len(violations) == 0, Errors: violations}
}
