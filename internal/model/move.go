package model

// Outcome is the state of the game after a move.
type Outcome string

const (
	Ongoing   Outcome = "ongoing"
	Checkmate Outcome = "checkmate"
	Stalemate Outcome = "stalemate"
)

type CastleSide string

const (
	NoCastle  CastleSide = ""
	KingSide  CastleSide = "O-O"
	QueenSide CastleSide = "O-O-O"
)

// Move is a value describing one ply. Once the board has executed it and
// stored the snapshot it is never mutated again.
type Move struct {
	Piece     PieceID   `json:"piece"`
	Type      PieceType `json:"type"`
	Color     Color     `json:"color"`
	Captured  *Piece    `json:"captured,omitempty"`
	From      Position  `json:"from"`
	To        Position  `json:"to"`
	Promotion PieceType `json:"promotion,omitempty"`
	Snapshot  *Snapshot `json:"-"`
	PGN       string    `json:"pgn"`
	Check     bool      `json:"check"`
	Outcome   Outcome   `json:"outcome"`
}

// MoveResult is what Board.MovePiece reports back to its caller.
type MoveResult struct {
	Captured  *Piece
	Promoted  PieceID
	Castle    CastleSide
	EnPassant bool
	Check     bool
	Outcome   Outcome
}

// Candidate is a (piece, destination) pair.
type Candidate struct {
	Piece PieceID
	To    Position
}

// NewMove builds an unexecuted move of the piece on from.
func (b *Board) NewMove(from, to Position, promotion PieceType) (*Move, error) {
	p, ok := b.PieceAt(from)
	if !ok {
		return nil, ErrNoPieceAt
	}
	if !to.Valid() {
		return nil, ErrInvalidSquare
	}
	m := &Move{
		Piece:     p.ID,
		Type:      p.Type,
		Color:     p.Color,
		From:      from,
		To:        to,
		Promotion: promotion,
	}
	if captured, ok := b.PieceAt(to); ok {
		m.Captured = &captured
	}
	return m, nil
}

// RequiresPromotion reports whether moving the piece on from to to ends on
// the last rank with a pawn.
func (b *Board) RequiresPromotion(from, to Position) bool {
	p, ok := b.PieceAt(from)
	return ok && p.Type == Pawn && to.Y == p.Color.promotionRank()
}
