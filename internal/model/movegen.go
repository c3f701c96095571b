package model

type moveGenerator func(b *Board, p Piece) []Position

// rawMoveGenerators holds the geometry of every piece type. Results are
// pseudo-legal: own-king safety and same-color occupancy are filtered later.
var rawMoveGenerators = map[PieceType]moveGenerator{
	Pawn:   pawnMoves,
	Knight: knightMoves,
	Bishop: bishopMoves,
	Rook:   rookMoves,
	Queen:  queenMoves,
	King:   kingMoves,
}

// AvailableMoves returns the legal destinations of id, or none when it is
// not that piece's turn.
func (b *Board) AvailableMoves(id PieceID) []Position {
	p, err := b.Piece(id)
	if err != nil || p.Color != b.turn {
		return []Position{}
	}
	return b.PieceMoves(id, true)
}

// PieceMoves returns the destinations of id. With checkFilter false the
// moves that would leave the mover's king attacked are kept.
func (b *Board) PieceMoves(id PieceID, checkFilter bool) []Position {
	p, err := b.Piece(id)
	if err != nil || p.Captured {
		return []Position{}
	}
	moves := b.filterOccupiedBySameColor(p, b.RawMoves(id))
	if checkFilter {
		moves = b.filterMovesThatPutKingInCheck(p, moves)
	}
	return moves
}

// RawMoves returns the type-specific geometry of id.
func (b *Board) RawMoves(id PieceID) []Position {
	p, err := b.Piece(id)
	if err != nil {
		return nil
	}
	gen, ok := rawMoveGenerators[p.Type]
	if !ok {
		return nil
	}
	return gen(b, p)
}

func (b *Board) filterOccupiedBySameColor(p Piece, moves []Position) []Position {
	valid := make([]Position, 0, len(moves))
	for _, move := range moves {
		if other, ok := b.PieceAt(move); ok && other.Color == p.Color {
			continue
		}
		valid = append(valid, move)
	}
	return valid
}

func (b *Board) filterMovesThatPutKingInCheck(p Piece, moves []Position) []Position {
	legal := make([]Position, 0, len(moves))
	for _, move := range moves {
		sim := b.Clone()
		sim.relocate(p.ID, move)
		attacked, err := sim.KingAttacked(p.Color)
		if err != nil || attacked {
			continue
		}
		legal = append(legal, move)
	}
	return legal
}

// relocate moves a piece on a scratch board without any bookkeeping beyond
// captures, including the pawn taken en passant.
func (b *Board) relocate(id PieceID, to Position) {
	p := b.pieces[id]
	if victim := b.enPassantVictim(p, to); victim != NoPiece {
		b.lift(b.pieces[victim].Position)
		b.pieces[victim].Captured = true
	}
	if occupant := b.idAt(to); occupant != NoPiece {
		b.pieces[occupant].Captured = true
	}
	b.lift(p.Position)
	b.place(id, to)
}

// enPassantVictim returns the pawn captured when p moves to an empty square
// diagonally, or NoPiece.
func (b *Board) enPassantVictim(p Piece, to Position) PieceID {
	if p.Type != Pawn || b.occupied(to) {
		return NoPiece
	}
	if abs(to.X-p.Position.X) != 1 || to.Y-p.Position.Y != p.Color.forward() {
		return NoPiece
	}
	return b.idAt(Position{X: to.X, Y: p.Position.Y})
}

func pawnMoves(b *Board, p Piece) []Position {
	moves := []Position{}
	dir := p.Color.forward()
	if p.Position.Y == p.Color.promotionRank() {
		return moves
	}

	forward1 := Position{X: p.Position.X, Y: p.Position.Y + dir}
	if !b.occupied(forward1) {
		moves = append(moves, forward1)
		forward2 := Position{X: p.Position.X, Y: p.Position.Y + 2*dir}
		if !p.FirstMoveTaken && forward2.Valid() && !b.occupied(forward2) {
			moves = append(moves, forward2)
		}
	}

	for _, dx := range []int{-1, 1} {
		diag := Position{X: p.Position.X + dx, Y: p.Position.Y + dir}
		if !diag.Valid() {
			continue
		}
		if target, ok := b.PieceAt(diag); ok {
			if target.Color != p.Color {
				moves = append(moves, diag)
			}
			continue
		}
		if b.capturableEnPassant(p, Position{X: p.Position.X + dx, Y: p.Position.Y}) {
			moves = append(moves, diag)
		}
	}
	return moves
}

// capturableEnPassant reports whether the pawn on adjacent may be taken en
// passant by p right now.
func (b *Board) capturableEnPassant(p Piece, adjacent Position) bool {
	target, ok := b.PieceAt(adjacent)
	if !ok || target.Type != Pawn || target.Color == p.Color || !target.EnPassantAllowed {
		return false
	}
	ep := b.enPassantFor(p.Color)
	return ep.Available && ep.Pawn == target.ID
}

func knightMoves(b *Board, p Piece) []Position {
	moves := []Position{}
	for _, dir := range knightDirs {
		if target := p.Position.Add(dir); target.Valid() {
			moves = append(moves, target)
		}
	}
	return moves
}

// rayMoves walks each direction until the edge or the first occupied
// square, which is included.
func rayMoves(b *Board, p Piece, dirs []Direction) []Position {
	moves := []Position{}
	for _, dir := range dirs {
		for target := p.Position.Add(dir); target.Valid(); target = target.Add(dir) {
			moves = append(moves, target)
			if b.occupied(target) {
				break
			}
		}
	}
	return moves
}

func bishopMoves(b *Board, p Piece) []Position {
	return rayMoves(b, p, bishopDirs)
}

func rookMoves(b *Board, p Piece) []Position {
	return rayMoves(b, p, rookDirs)
}

func queenMoves(b *Board, p Piece) []Position {
	return append(rayMoves(b, p, bishopDirs), rayMoves(b, p, rookDirs)...)
}

func kingMoves(b *Board, p Piece) []Position {
	moves := []Position{}
	for _, dir := range kingDirs {
		if target := p.Position.Add(dir); target.Valid() {
			moves = append(moves, target)
		}
	}
	for _, rookX := range []int{1, 8} {
		if b.canCastle(p, rookX) {
			moves = append(moves, Position{X: p.Position.X + 2*sign(rookX-p.Position.X), Y: p.Position.Y})
		}
	}
	return b.filterEnemyKingProximity(p, moves)
}

// filterEnemyKingProximity drops squares inside the enemy king's step set.
func (b *Board) filterEnemyKingProximity(p Piece, moves []Position) []Position {
	enemy, err := b.King(p.Color.Opposite())
	if err != nil {
		return moves
	}
	kept := moves[:0]
	for _, move := range moves {
		if abs(move.X-enemy.Position.X) <= 1 && abs(move.Y-enemy.Position.Y) <= 1 {
			continue
		}
		kept = append(kept, move)
	}
	return kept
}

// canCastle checks the rook on file rookX of the king's back rank.
func (b *Board) canCastle(king Piece, rookX int) bool {
	if king.Moves > 0 || king.Position.Y != king.Color.backRank() {
		return false
	}
	rook, ok := b.PieceAt(Position{X: rookX, Y: king.Position.Y})
	if !ok || rook.Type != Rook || rook.Color != king.Color || rook.Moves > 0 {
		return false
	}

	step := sign(rookX - king.Position.X)
	if step == 0 || abs(rookX-king.Position.X) < 3 {
		return false
	}
	for x := king.Position.X + step; x != rookX; x += step {
		if b.occupied(Position{X: x, Y: king.Position.Y}) {
			return false
		}
	}

	// The king may not castle out of, through or into check.
	for i := 0; i <= 2; i++ {
		square := Position{X: king.Position.X + i*step, Y: king.Position.Y}
		if b.SquareAttacked(square, king.Color) {
			return false
		}
	}
	return true
}
