package model

import "fmt"

// MakeComputerMove plays a uniformly random legal (piece, destination)
// pair for the side to move. Promotions always choose a queen.
func (g *Game) MakeComputerMove() (*Move, error) {
	if !g.started || g.outcome != Ongoing {
		return nil, ErrGameNotActive
	}
	if !g.atLatest() {
		return nil, ErrNotAtLatestMove
	}
	candidates := g.board.LegalMoves(g.board.Turn())
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%s: %w", g.board.Turn(), ErrNoLegalMoves)
	}

	pick := candidates[g.rng.Intn(len(candidates))]
	promotion := NoPieceType
	if p, err := g.board.Piece(pick.Piece); err == nil && g.board.RequiresPromotion(p.Position, pick.To) {
		promotion = Queen
	}
	m, err := g.execute(pick.Piece, pick.To, promotion, true)
	if err != nil {
		return nil, err
	}
	g.log.Info().Str("move", m.PGN).Int("candidates", len(candidates)).Msg("computer move")
	return m, nil
}
