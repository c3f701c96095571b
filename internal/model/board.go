package model

import "fmt"

// EnPassant tracks whether Color may currently capture Pawn en passant.
// Turns counts board moves since the right was granted; the right expires
// once the opponent's next move has passed.
type EnPassant struct {
	Color     Color   `json:"color"`
	Available bool    `json:"available"`
	Turns     int     `json:"turns"`
	Pawn      PieceID `json:"pawn"`
}

// Board owns the 64 squares and every piece record ever placed on them.
type Board struct {
	squares [64]PieceID
	pieces  []Piece
	white   []PieceID
	black   []PieceID

	turn    Color
	flipped bool
	ranks   [8][8]Position

	whiteEnPassant EnPassant
	blackEnPassant EnPassant

	// FEN counters.
	halfmoves int
	fullmoves int
}

// NewBoard returns an empty board with White to move.
func NewBoard() *Board {
	b := &Board{}
	b.clear()
	b.initRanks()
	return b
}

func (b *Board) clear() {
	for i := range b.squares {
		b.squares[i] = NoPiece
	}
	b.pieces = nil
	b.white = nil
	b.black = nil
	b.turn = White
	b.halfmoves = 0
	b.fullmoves = 1
	b.whiteEnPassant = EnPassant{Color: White, Pawn: NoPiece}
	b.blackEnPassant = EnPassant{Color: Black, Pawn: NoPiece}
}

var backRank = []PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// Setup resets the board to the standard starting position.
func (b *Board) Setup() {
	b.clear()
	for _, color := range []Color{White, Black} {
		pawnRank := color.backRank() + color.forward()
		for x := 1; x <= 8; x++ {
			b.AddPiece(backRank[x-1], color, Position{X: x, Y: color.backRank()})
		}
		for x := 1; x <= 8; x++ {
			b.AddPiece(Pawn, color, Position{X: x, Y: pawnRank})
		}
	}
	b.turn = White
}

// AddPiece creates a piece record, registers it in its color's list and
// places it on pos. An occupant of pos is flagged captured.
func (b *Board) AddPiece(t PieceType, color Color, pos Position) PieceID {
	id := PieceID(len(b.pieces))
	piece := Piece{ID: id, Type: t, Color: color, Position: pos}
	if t == Pawn {
		piece.FirstMoveTaken = pos.Y != color.backRank()+color.forward()
	}
	b.pieces = append(b.pieces, piece)
	if color == White {
		b.white = append(b.white, id)
	} else {
		b.black = append(b.black, id)
	}
	if occupant := b.squares[pos.index()]; occupant != NoPiece {
		b.pieces[occupant].Captured = true
	}
	b.place(id, pos)
	return id
}

// place puts the piece on pos; the piece's position follows the square.
func (b *Board) place(id PieceID, pos Position) {
	b.squares[pos.index()] = id
	b.pieces[id].Position = pos
}

// lift empties the square at pos.
func (b *Board) lift(pos Position) {
	b.squares[pos.index()] = NoPiece
}

// PieceAt returns the piece on pos. ok is false for empty or off-board
// squares, which ray walks treat as normal termination.
func (b *Board) PieceAt(pos Position) (Piece, bool) {
	id := b.idAt(pos)
	if id == NoPiece {
		return Piece{}, false
	}
	return b.pieces[id], true
}

func (b *Board) idAt(pos Position) PieceID {
	if !pos.Valid() {
		return NoPiece
	}
	return b.squares[pos.index()]
}

func (b *Board) occupied(pos Position) bool {
	return b.idAt(pos) != NoPiece
}

// Piece returns the record for id.
func (b *Board) Piece(id PieceID) (Piece, error) {
	if id < 0 || int(id) >= len(b.pieces) {
		return Piece{}, fmt.Errorf("piece %d: %w", id, ErrNoPieceAt)
	}
	return b.pieces[id], nil
}

// Pieces returns copies of every piece ever registered for color, captured
// ones included.
func (b *Board) Pieces(color Color) []Piece {
	ids := b.white
	if color == Black {
		ids = b.black
	}
	pieces := make([]Piece, 0, len(ids))
	for _, id := range ids {
		pieces = append(pieces, b.pieces[id])
	}
	return pieces
}

// ActivePieces returns the pieces of color still in play.
func (b *Board) ActivePieces(color Color) []Piece {
	var pieces []Piece
	for _, p := range b.Pieces(color) {
		if !p.Captured {
			pieces = append(pieces, p)
		}
	}
	return pieces
}

// King returns the king of color.
func (b *Board) King(color Color) (Piece, error) {
	for _, p := range b.Pieces(color) {
		if p.Type == King && !p.Captured {
			return p, nil
		}
	}
	return Piece{}, fmt.Errorf("%s: %w", color, ErrNoKing)
}

func (b *Board) Turn() Color {
	return b.turn
}

// SetTurn is used when loading positions.
func (b *Board) SetTurn(color Color) {
	b.turn = color
}

func (b *Board) switchTurn() {
	b.turn = b.turn.Opposite()
}

func (b *Board) enPassantFor(color Color) *EnPassant {
	if color == Black {
		return &b.blackEnPassant
	}
	return &b.whiteEnPassant
}

// EnPassantState returns the en passant eligibility of color.
func (b *Board) EnPassantState(color Color) EnPassant {
	return *b.enPassantFor(color)
}

// Clone returns a deep copy that shares nothing with b.
func (b *Board) Clone() *Board {
	c := *b
	c.pieces = append([]Piece(nil), b.pieces...)
	c.white = append([]PieceID(nil), b.white...)
	c.black = append([]PieceID(nil), b.black...)
	return &c
}

func (b *Board) initRanks() {
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			b.ranks[i][j] = Position{X: j + 1, Y: 8 - i}
		}
	}
	if b.flipped {
		b.reflectRanks()
	}
}

// Flip toggles the display orientation. Rules and notation keep using
// absolute coordinates.
func (b *Board) Flip() {
	b.flipped = !b.flipped
	b.reflectRanks()
}

// reflectRanks swaps the top and bottom halves and reverses every rank.
func (b *Board) reflectRanks() {
	for i := 0; i < 4; i++ {
		top := &b.ranks[i]
		bottom := &b.ranks[7-i]
		for j := 0; j < 8; j++ {
			top[j], bottom[7-j] = bottom[7-j], top[j]
		}
	}
}

func (b *Board) Flipped() bool {
	return b.flipped
}

// Ranks returns the squares in display order, top rank first.
func (b *Board) Ranks() [8][8]Position {
	return b.ranks
}
