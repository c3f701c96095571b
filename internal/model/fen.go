package model

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// InitialFEN is the FEN string for the standard starting position.
const InitialFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// LoadFEN builds a board from a FEN string. Missing trailing fields take
// their starting-position defaults.
func LoadFEN(fen string) (*Board, error) {
	parts := strings.Fields(fen)
	if len(parts) < 1 {
		return nil, fmt.Errorf("empty FEN string: %w", ErrInvalidFEN)
	}

	b := NewBoard()
	if err := b.parsePlacement(parts[0]); err != nil {
		return nil, err
	}
	for _, color := range []Color{White, Black} {
		kings := 0
		for _, p := range b.Pieces(color) {
			if p.Type == King {
				kings++
			}
		}
		if kings != 1 {
			return nil, fmt.Errorf("%d %s kings: %w", kings, color, ErrInvalidFEN)
		}
	}

	if len(parts) > 1 {
		switch parts[1] {
		case "w":
			b.turn = White
		case "b":
			b.turn = Black
		default:
			return nil, fmt.Errorf("invalid side to move %q: %w", parts[1], ErrInvalidFEN)
		}
	}

	castling := "-"
	if len(parts) > 2 {
		castling = parts[2]
	}
	if err := b.parseCastling(castling); err != nil {
		return nil, err
	}

	if len(parts) > 3 && parts[3] != "-" {
		if err := b.parseEnPassant(parts[3]); err != nil {
			return nil, err
		}
	}

	if len(parts) > 4 {
		n, err := strconv.Atoi(parts[4])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid halfmove clock %q: %w", parts[4], ErrInvalidFEN)
		}
		b.halfmoves = n
	}
	if len(parts) > 5 {
		n, err := strconv.Atoi(parts[5])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid fullmove number %q: %w", parts[5], ErrInvalidFEN)
		}
		b.fullmoves = n
	}
	return b, nil
}

func (b *Board) parsePlacement(placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%d ranks: %w", len(ranks), ErrInvalidFEN)
	}
	for i, rank := range ranks {
		y := 8 - i
		x := 1
		for _, c := range rank {
			if c >= '1' && c <= '8' {
				x += int(c - '0')
				continue
			}
			t, err := PieceTypeFromLetter(string(c))
			if err != nil {
				return fmt.Errorf("invalid piece character %c: %w", c, ErrInvalidFEN)
			}
			if x > 8 {
				return fmt.Errorf("rank %d overflows: %w", y, ErrInvalidFEN)
			}
			color := White
			if unicode.IsLower(c) {
				color = Black
			}
			id := b.AddPiece(t, color, Position{X: x, Y: y})
			if t == King || t == Rook {
				// Castling rights are granted back by the castling field.
				b.pieces[id].Moves = 1
			}
			x++
		}
		if x != 9 {
			return fmt.Errorf("rank %d has %d files: %w", y, x-1, ErrInvalidFEN)
		}
	}
	return nil
}

func (b *Board) parseCastling(field string) error {
	if field == "-" {
		return nil
	}
	for _, c := range field {
		color, rookX := White, 8
		switch c {
		case 'K':
		case 'Q':
			rookX = 1
		case 'k':
			color = Black
		case 'q':
			color, rookX = Black, 1
		default:
			return fmt.Errorf("invalid castling flag %c: %w", c, ErrInvalidFEN)
		}
		rank := color.backRank()
		king := b.idAt(Position{X: 5, Y: rank})
		rook := b.idAt(Position{X: rookX, Y: rank})
		if king == NoPiece || b.pieces[king].Type != King || b.pieces[king].Color != color {
			return fmt.Errorf("castling flag %c without king on e%d: %w", c, rank, ErrInvalidFEN)
		}
		if rook == NoPiece || b.pieces[rook].Type != Rook || b.pieces[rook].Color != color {
			return fmt.Errorf("castling flag %c without rook: %w", c, ErrInvalidFEN)
		}
		b.pieces[king].Moves = 0
		b.pieces[rook].Moves = 0
	}
	return nil
}

// parseEnPassant grants the side to move the right to take the pawn that
// just passed over target.
func (b *Board) parseEnPassant(target string) error {
	pos, err := ParseSquare(target)
	if err != nil {
		return fmt.Errorf("en passant square: %w", ErrInvalidFEN)
	}
	mover := b.turn.Opposite()
	pawn := b.idAt(Position{X: pos.X, Y: pos.Y + mover.forward()})
	if pawn == NoPiece || b.pieces[pawn].Type != Pawn || b.pieces[pawn].Color != mover {
		return fmt.Errorf("no pawn passed over %s: %w", target, ErrInvalidFEN)
	}
	b.pieces[pawn].EnPassantAllowed = true
	*b.enPassantFor(b.turn) = EnPassant{Color: b.turn, Available: true, Pawn: pawn}
	return nil
}

// FEN exports the board. Castling availability is derived from unmoved
// kings and rooks on their home squares.
func (b *Board) FEN() string {
	var sb strings.Builder
	for y := 8; y >= 1; y-- {
		empty := 0
		for x := 1; x <= 8; x++ {
			p, ok := b.PieceAt(Position{X: x, Y: y})
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(fenLetter(p))
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if y > 1 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	sb.WriteString(string(b.turn)[:1])

	sb.WriteByte(' ')
	sb.WriteString(b.castlingField())

	sb.WriteByte(' ')
	ep := b.enPassantFor(b.turn)
	if ep.Available && ep.Pawn != NoPiece {
		pawn := b.pieces[ep.Pawn]
		sb.WriteString(Position{X: pawn.Position.X, Y: pawn.Position.Y - pawn.Color.forward()}.String())
	} else {
		sb.WriteByte('-')
	}

	fmt.Fprintf(&sb, " %d %d", b.halfmoves, b.fullmoves)
	return sb.String()
}

func (b *Board) castlingField() string {
	var field string
	for _, right := range []struct {
		color Color
		rookX int
		flag  string
	}{
		{White, 8, "K"}, {White, 1, "Q"}, {Black, 8, "k"}, {Black, 1, "q"},
	} {
		rank := right.color.backRank()
		king, ok := b.PieceAt(Position{X: 5, Y: rank})
		if !ok || king.Type != King || king.Color != right.color || king.Moves > 0 {
			continue
		}
		rook, ok := b.PieceAt(Position{X: right.rookX, Y: rank})
		if !ok || rook.Type != Rook || rook.Color != right.color || rook.Moves > 0 {
			continue
		}
		field += right.flag
	}
	if field == "" {
		return "-"
	}
	return field
}

func fenLetter(p Piece) string {
	letter := p.Type.Letter()
	if p.Type == Pawn {
		letter = "P"
	}
	if p.Color == Black {
		return strings.ToLower(letter)
	}
	return letter
}
