package model

// Snapshot is a deep copy of the board state taken after a move.
type Snapshot struct {
	Squares        [64]PieceID
	Pieces         []Piece
	White          []PieceID
	Black          []PieceID
	Turn           Color
	Flipped        bool
	WhiteEnPassant EnPassant
	BlackEnPassant EnPassant
	Halfmoves      int
	Fullmoves      int
}

// TakeSnapshot copies the current state.
func (b *Board) TakeSnapshot() *Snapshot {
	return &Snapshot{
		Squares:        b.squares,
		Pieces:         append([]Piece(nil), b.pieces...),
		White:          append([]PieceID(nil), b.white...),
		Black:          append([]PieceID(nil), b.black...),
		Turn:           b.turn,
		Flipped:        b.flipped,
		WhiteEnPassant: b.whiteEnPassant,
		BlackEnPassant: b.blackEnPassant,
		Halfmoves:      b.halfmoves,
		Fullmoves:      b.fullmoves,
	}
}

// GoToSnapshot restores the board from s. The snapshot itself stays
// untouched.
func (b *Board) GoToSnapshot(s *Snapshot) {
	b.squares = s.Squares
	b.pieces = append([]Piece(nil), s.Pieces...)
	b.white = append([]PieceID(nil), s.White...)
	b.black = append([]PieceID(nil), s.Black...)
	b.turn = s.Turn
	b.whiteEnPassant = s.WhiteEnPassant
	b.blackEnPassant = s.BlackEnPassant
	b.halfmoves = s.Halfmoves
	b.fullmoves = s.Fullmoves
	if b.flipped != s.Flipped {
		b.Flip()
	}
}

// Board builds a standalone board holding the snapshot's position.
func (s *Snapshot) Board() *Board {
	b := NewBoard()
	b.GoToSnapshot(s)
	return b
}
