package model

import "fmt"

// MovePiece executes m on the board. It does not re-check legality beyond
// refusing to land on a piece of the mover's own color; callers submit
// destinations taken from AvailableMoves.
func (b *Board) MovePiece(m *Move) (MoveResult, error) {
	res := MoveResult{Promoted: NoPiece, Outcome: Ongoing}

	p, err := b.Piece(m.Piece)
	if err != nil {
		return res, err
	}
	if p.Captured || p.Position != m.From {
		return res, fmt.Errorf("%s: %w", m.From, ErrNoPieceAt)
	}
	if !m.To.Valid() {
		return res, fmt.Errorf("%s: %w", m.To, ErrInvalidSquare)
	}
	occupant, occupied := b.PieceAt(m.To)
	if occupied && occupant.Color == p.Color {
		return res, fmt.Errorf("%s onto own %s: %w", p, occupant.Type, ErrIllegalMove)
	}
	promotes := p.Type == Pawn && m.To.Y == p.Color.promotionRank()
	if promotes && m.Promotion != NoPieceType && !m.Promotion.Promotable() {
		return res, fmt.Errorf("%q: %w", m.Promotion, ErrInvalidPromotion)
	}
	if occupied {
		res.Captured = &occupant
	}

	b.ageEnPassant()

	moving := p.ID
	if p.Type == Pawn {
		moving = b.handleIfPawn(p, m, &res)
	}
	if p.Type == King {
		res.Castle = b.handleCastle(p, m.To)
	}

	b.lift(m.From)
	if occupied {
		b.pieces[occupant.ID].Captured = true
	}
	b.place(moving, m.To)
	b.pieces[moving].Moves++

	b.halfmoves++
	if p.Type == Pawn || res.Captured != nil {
		b.halfmoves = 0
	}
	if p.Color == Black {
		b.fullmoves++
	}
	b.switchTurn()
	res.Outcome = b.evaluateMate()
	res.Check, _ = b.KingAttacked(b.turn)

	m.Type = p.Type
	m.Color = p.Color
	m.Captured = res.Captured
	m.Check = res.Check
	m.Outcome = res.Outcome
	m.Snapshot = b.TakeSnapshot()
	return res, nil
}

// handleIfPawn records the first move, grants en passant after a double
// step, removes a pawn taken en passant and promotes on the last rank. It
// returns the id of the piece that lands on the destination.
func (b *Board) handleIfPawn(p Piece, m *Move, res *MoveResult) PieceID {
	pawn := &b.pieces[p.ID]
	pawn.FirstMoveTaken = true

	if abs(m.To.Y-m.From.Y) == 2 {
		pawn.EnPassantAllowed = true
		*b.enPassantFor(p.Color.Opposite()) = EnPassant{
			Color:     p.Color.Opposite(),
			Available: true,
			Pawn:      p.ID,
		}
	}

	if victim := b.enPassantVictim(p, m.To); victim != NoPiece {
		captured := b.pieces[victim]
		b.lift(captured.Position)
		b.pieces[victim].Captured = true
		captured.Captured = true
		res.Captured = &captured
		res.EnPassant = true
	}

	if m.To.Y != p.Color.promotionRank() {
		return p.ID
	}
	if m.Promotion == NoPieceType {
		m.Promotion = Queen
	}
	pawn.Captured = true
	pawn.Moves++
	b.lift(m.From)
	promoted := b.AddPiece(m.Promotion, p.Color, m.To)
	res.Promoted = promoted
	return promoted
}

// handleCastle moves the rook next to the king when the king travels more
// than one file. The king itself moves through the generic path.
func (b *Board) handleCastle(king Piece, to Position) CastleSide {
	dx := to.X - king.Position.X
	if abs(dx) <= 1 {
		return NoCastle
	}
	rookX, side := 8, KingSide
	if dx < 0 {
		rookX, side = 1, QueenSide
	}
	rookPos := Position{X: rookX, Y: king.Position.Y}
	rook := b.idAt(rookPos)
	if rook == NoPiece {
		return NoCastle
	}
	b.lift(rookPos)
	b.place(rook, Position{X: to.X - sign(dx), Y: king.Position.Y})
	b.pieces[rook].Moves++
	return side
}

// ageEnPassant expires every right that has survived one full turn cycle.
func (b *Board) ageEnPassant() {
	for _, ep := range []*EnPassant{&b.whiteEnPassant, &b.blackEnPassant} {
		if !ep.Available {
			continue
		}
		if ep.Turns > 0 {
			if ep.Pawn != NoPiece {
				b.pieces[ep.Pawn].EnPassantAllowed = false
			}
			*ep = EnPassant{Color: ep.Color, Pawn: NoPiece}
			continue
		}
		ep.Turns++
	}
}

// evaluateMate decides the outcome for the side to move.
func (b *Board) evaluateMate() Outcome {
	if b.hasLegalMove(b.turn) {
		return Ongoing
	}
	if attacked, err := b.KingAttacked(b.turn); err == nil && attacked {
		return Checkmate
	}
	return Stalemate
}

// Outcome evaluates the current position for the side to move.
func (b *Board) Outcome() Outcome {
	return b.evaluateMate()
}

func (b *Board) hasLegalMove(color Color) bool {
	for _, p := range b.ActivePieces(color) {
		if len(b.PieceMoves(p.ID, true)) > 0 {
			return true
		}
	}
	return false
}

// LegalMoves lists every (piece, destination) pair available to color.
func (b *Board) LegalMoves(color Color) []Candidate {
	var candidates []Candidate
	for _, p := range b.ActivePieces(color) {
		for _, to := range b.PieceMoves(p.ID, true) {
			candidates = append(candidates, Candidate{Piece: p.ID, To: to})
		}
	}
	return candidates
}
