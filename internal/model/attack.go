package model

// KingAttacked reports whether the king of color is attacked.
func (b *Board) KingAttacked(color Color) (bool, error) {
	king, err := b.King(color)
	if err != nil {
		return false, err
	}
	return b.SquareAttacked(king.Position, color), nil
}

// SquareAttacked reports whether pos is attacked by the opponents of
// defender. Kings never count as attackers here; king proximity is handled
// by king move generation.
func (b *Board) SquareAttacked(pos Position, defender Color) bool {
	for _, dir := range kingDirs {
		if b.attackedFromDirection(pos, defender, dir) {
			return true
		}
	}
	return b.attackedByKnight(pos, defender)
}

// attackedFromDirection walks from pos along dir; the first occupied square
// decides.
func (b *Board) attackedFromDirection(pos Position, defender Color, dir Direction) bool {
	for square := pos.Add(dir); square.Valid(); square = square.Add(dir) {
		p, ok := b.PieceAt(square)
		if !ok {
			continue
		}
		if p.Color == defender {
			return false
		}
		switch p.Type {
		case Queen:
			return true
		case Bishop:
			return dir.Diagonal()
		case Rook:
			return !dir.Diagonal()
		case Pawn:
			return attackedByPawn(pos, p, dir)
		default:
			return false
		}
	}
	return false
}

// attackedByPawn looks from the pawn back towards pos: the pawn threatens
// only the squares diagonally in front of it.
func attackedByPawn(pos Position, pawn Piece, dir Direction) bool {
	inverted := dir.Invert()
	return dir.Diagonal() &&
		inverted.Y == pawn.Color.forward() &&
		pawn.Position.Add(inverted) == pos
}

func (b *Board) attackedByKnight(pos Position, defender Color) bool {
	for _, dir := range knightDirs {
		p, ok := b.PieceAt(pos.Add(dir))
		if ok && p.Color != defender && p.Type == Knight {
			return true
		}
	}
	return false
}
