package model

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the rules engine. Check them with errors.Is.
var (
	ErrNoKing                = errors.New("no king on the board")
	ErrNoPieceAt             = errors.New("no piece at square")
	ErrInvalidSquare         = errors.New("invalid square")
	ErrIllegalMove           = errors.New("illegal move")
	ErrNotYourTurn           = errors.New("not your turn")
	ErrGameNotActive         = errors.New("game is not active")
	ErrNothingSelected       = errors.New("no piece selected")
	ErrPromotionChoiceNeeded = errors.New("promotion choice needed")
	ErrPromotionPending      = errors.New("promotion choice pending")
	ErrNoPendingPromotion    = errors.New("no pending promotion")
	ErrInvalidPromotion      = errors.New("invalid promotion piece")
	ErrUnknownPieceLetter    = errors.New("no piece type mapped for letter")
	ErrNotAtLatestMove       = errors.New("history cursor is not at the latest move")
	ErrMoveIndex             = errors.New("move index out of range")
	ErrInvalidFEN            = errors.New("invalid FEN string")
	ErrNoLegalMoves          = errors.New("no legal moves available")
	ErrTimeExpired           = errors.New("time expired")
)

// ReplayError reports the ply at which replaying a PGN stopped.
type ReplayError struct {
	Ply  int    // 1-based ply that failed
	Move string // textual move, when known
	Err  error
}

func (e *ReplayError) Error() string {
	if e.Move != "" {
		return fmt.Sprintf("replay ply %d (%s): %v", e.Ply, e.Move, e.Err)
	}
	return fmt.Sprintf("replay ply %d: %v", e.Ply, e.Err)
}

func (e *ReplayError) Unwrap() error {
	return e.Err
}
