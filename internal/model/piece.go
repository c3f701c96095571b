package model

import (
	"fmt"
	"strings"
)

type PieceType string

const (
	NoPieceType PieceType = ""
	King        PieceType = "king"
	Queen       PieceType = "queen"
	Rook        PieceType = "rook"
	Bishop      PieceType = "bishop"
	Knight      PieceType = "knight"
	Pawn        PieceType = "pawn"
)

// Letter returns the SAN letter of the piece type. Pawns have none.
func (t PieceType) Letter() string {
	switch t {
	case King:
		return "K"
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Knight:
		return "N"
	}
	return ""
}

// Promotable reports whether a pawn may promote to this type.
func (t PieceType) Promotable() bool {
	switch t {
	case Queen, Rook, Bishop, Knight:
		return true
	}
	return false
}

// PieceTypeFromLetter maps a SAN letter (either case) to its piece type.
func PieceTypeFromLetter(letter string) (PieceType, error) {
	switch strings.ToUpper(letter) {
	case "K":
		return King, nil
	case "Q":
		return Queen, nil
	case "R":
		return Rook, nil
	case "B":
		return Bishop, nil
	case "N":
		return Knight, nil
	case "", "P":
		return Pawn, nil
	}
	return NoPieceType, fmt.Errorf("%q: %w", letter, ErrUnknownPieceLetter)
}

// ParsePromotion accepts a promotion choice as sent by clients: a SAN letter
// ("q"), a type name ("queen") or a colored choice ("WHITE_QUEEN").
func ParsePromotion(choice string) (PieceType, error) {
	if choice == "" {
		return NoPieceType, nil
	}
	if i := strings.LastIndex(choice, "_"); i >= 0 {
		choice = choice[i+1:]
	}
	var t PieceType
	if len(choice) == 1 {
		var err error
		if t, err = PieceTypeFromLetter(choice); err != nil {
			return NoPieceType, err
		}
	} else {
		t = PieceType(strings.ToLower(choice))
	}
	if !t.Promotable() {
		return NoPieceType, fmt.Errorf("%q: %w", choice, ErrInvalidPromotion)
	}
	return t, nil
}

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

// forward is the rank step of a pawn of this color.
func (c Color) forward() int {
	if c == Black {
		return -1
	}
	return 1
}

func (c Color) backRank() int {
	if c == Black {
		return 8
	}
	return 1
}

func (c Color) promotionRank() int {
	if c == Black {
		return 1
	}
	return 8
}

// PieceID indexes a piece record in its board's arena.
type PieceID int

const NoPiece PieceID = -1

// Piece is a record in the board arena. Position always equals the square
// holding the piece; only the board writes it.
type Piece struct {
	ID       PieceID   `json:"id"`
	Type     PieceType `json:"type"`
	Color    Color     `json:"color"`
	Position Position  `json:"position"`
	Moves    int       `json:"moves"`
	Captured bool      `json:"captured"`

	// Pawn state.
	FirstMoveTaken   bool `json:"firstMoveTaken,omitempty"`
	EnPassantAllowed bool `json:"enPassantAllowed,omitempty"`
}

// Clone returns an exact copy of the piece.
func (p Piece) Clone() Piece {
	return p
}

func (p Piece) String() string {
	return fmt.Sprintf("%s %s on %s", p.Color, p.Type, p.Position)
}
