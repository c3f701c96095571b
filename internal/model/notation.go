package model

import (
	"fmt"
	"strings"
)

// EncodeSAN renders an executed move in Standard Algebraic Notation. before
// is the board as it was prior to the move; squares are always named in
// absolute coordinates regardless of the mover's color or board flip.
func EncodeSAN(before *Board, m *Move, res MoveResult) string {
	var sb strings.Builder
	if res.Castle != NoCastle {
		sb.WriteString(string(res.Castle))
	} else {
		capture := res.Captured != nil
		if m.Type == Pawn && capture {
			sb.WriteString(m.From.File())
		}
		sb.WriteString(m.Type.Letter())
		if m.Type != Pawn && m.Type != King {
			sb.WriteString(disambiguate(before, m))
		}
		if capture {
			sb.WriteString("x")
		}
		sb.WriteString(m.To.String())
		if res.Promoted != NoPiece {
			sb.WriteString("=" + m.Promotion.Letter())
		}
	}

	switch {
	case res.Outcome == Checkmate:
		sb.WriteString("#")
	case res.Check:
		sb.WriteString("+")
	}
	return sb.String()
}

// disambiguate returns the origin file, rank or square needed to tell the
// moving piece apart from others of its type that could reach the same
// destination.
func disambiguate(before *Board, m *Move) string {
	var others []Piece
	for _, p := range before.ActivePieces(m.Color) {
		if p.ID == m.Piece || p.Type != m.Type {
			continue
		}
		for _, to := range before.PieceMoves(p.ID, true) {
			if to == m.To {
				others = append(others, p)
				break
			}
		}
	}
	if len(others) == 0 {
		return ""
	}

	var sameFile, sameRank bool
	for _, p := range others {
		if p.Position.X == m.From.X {
			sameFile = true
		}
		if p.Position.Y == m.From.Y {
			sameRank = true
		}
	}
	switch {
	case !sameFile:
		return m.From.File()
	case !sameRank:
		return m.From.Rank()
	default:
		return m.From.String()
	}
}

// FormatMovetext joins the SAN of moves into numbered movetext, appending
// the result when the last move ended the game. Numbering starts at
// fullmove, or at 1 when fullmove is not positive.
func FormatMovetext(moves []*Move, fullmove int) string {
	if len(moves) == 0 {
		return ""
	}
	var parts []string
	number := max(fullmove, 1)
	for i, m := range moves {
		switch {
		case m.Color == White:
			parts = append(parts, fmt.Sprintf("%d.", number))
		case i == 0:
			parts = append(parts, fmt.Sprintf("%d...", number))
		}
		parts = append(parts, m.PGN)
		if m.Color == Black {
			number++
		}
	}
	if result := ResultToken(moves[len(moves)-1]); result != "" {
		parts = append(parts, result)
	}
	return strings.Join(parts, " ")
}

// ResultToken returns the PGN result for a game that ended with m.
func ResultToken(m *Move) string {
	switch m.Outcome {
	case Checkmate:
		if m.Color == White {
			return "1-0"
		}
		return "0-1"
	case Stalemate:
		return "1/2-1/2"
	}
	return ""
}
