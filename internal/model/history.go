package model

import (
	"errors"
	"fmt"

	"github.com/benbeisheim/chess-backend/internal/pgn"
)

// PastMoves returns the recorded moves, oldest first.
func (g *Game) PastMoves() []*Move {
	return append([]*Move(nil), g.pastMoves...)
}

// CurrentMove returns the move whose position is displayed, or nil at the
// start of the game.
func (g *Game) CurrentMove() *Move {
	if g.cursor < 0 || g.cursor >= len(g.pastMoves) {
		return nil
	}
	return g.pastMoves[g.cursor]
}

// LastMove returns the latest recorded move, or nil.
func (g *Game) LastMove() *Move {
	if len(g.pastMoves) == 0 {
		return nil
	}
	return g.pastMoves[len(g.pastMoves)-1]
}

// Cursor is the index of the displayed move, -1 for the initial position.
func (g *Game) Cursor() int {
	return g.cursor
}

func (g *Game) atLatest() bool {
	return g.cursor == len(g.pastMoves)-1
}

// GoToMove displays the position after move index; -1 shows the initial
// position. New moves are refused until the latest move is shown again.
func (g *Game) GoToMove(index int) error {
	if index < -1 || index >= len(g.pastMoves) {
		return fmt.Errorf("%d of %d: %w", index, len(g.pastMoves), ErrMoveIndex)
	}
	snapshot := g.initial
	if index >= 0 {
		snapshot = g.pastMoves[index].Snapshot
	}
	g.board.GoToSnapshot(snapshot)
	g.cursor = index
	g.clearSelection()
	g.pending = nil
	return nil
}

// SetPosition replaces the board with the position described by fen and
// clears the history. The display orientation is kept.
func (g *Game) SetPosition(fen string) error {
	b, err := LoadFEN(fen)
	if err != nil {
		return err
	}
	if b.Flipped() != g.board.Flipped() {
		b.Flip()
	}
	g.board = b
	g.resetHistory()
	g.started = true
	return nil
}

// SetBoard resets the game to the starting position and replays the PGN
// movetext in text, turning the computer off. With record the replayed moves
// form the history; otherwise the reached position becomes the new start.
// Replay stops at the first move that cannot be played, keeping every move
// before it, and the failure is reported as a *ReplayError.
func (g *Game) SetBoard(text string, record bool) error {
	g.computer = false
	g.board.Setup()
	g.resetHistory()
	g.started = true

	moves, parseErr := pgn.Parse(text)
	var replayErr error
	for i, pm := range moves {
		if err := g.replay(pm, record); err != nil {
			replayErr = &ReplayError{Ply: i + 1, Move: pm.SAN, Err: err}
			break
		}
	}
	if replayErr == nil && parseErr != nil {
		var pe *pgn.ParseError
		if errors.As(parseErr, &pe) {
			replayErr = &ReplayError{Ply: pe.Ply, Move: pe.Token, Err: parseErr}
		} else {
			replayErr = &ReplayError{Ply: 1, Err: parseErr}
		}
	}

	if !record {
		g.initial = g.board.TakeSnapshot()
	}
	if replayErr != nil {
		g.log.Warn().Err(replayErr).Int("replayed", len(g.pastMoves)).Msg("pgn replay stopped")
		return replayErr
	}
	g.log.Debug().Int("plies", len(moves)).Msg("pgn replayed")
	return nil
}

func (g *Game) replay(pm pgn.Move, record bool) error {
	from, err := ParseSquare(pm.From)
	if err != nil {
		return err
	}
	to, err := ParseSquare(pm.To)
	if err != nil {
		return err
	}
	promotion := NoPieceType
	if pm.Promotion != "" {
		if promotion, err = PieceTypeFromLetter(pm.Promotion); err != nil {
			return err
		}
	}
	p, ok := g.board.PieceAt(from)
	if !ok {
		return fmt.Errorf("%s: %w", from, ErrNoPieceAt)
	}
	if p.Color != g.board.Turn() {
		return ErrNotYourTurn
	}
	if !containsPosition(g.board.AvailableMoves(p.ID), to) {
		return fmt.Errorf("%s%s: %w", from, to, ErrIllegalMove)
	}
	_, err = g.execute(p.ID, to, promotion, record)
	return err
}
