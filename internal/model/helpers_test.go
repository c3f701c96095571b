package model

import (
	"math/rand"
	"testing"
)

// newTestGame starts a two-player game with a fixed random source.
func newTestGame(t *testing.T, opts ...Option) *Game {
	t.Helper()
	g := NewGame(append([]Option{WithRand(rand.New(rand.NewSource(1)))}, opts...)...)
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return g
}

// play applies moves in coordinate form ("e2e4", "e7e8q").
func play(t *testing.T, g *Game, moves ...string) []*Move {
	t.Helper()
	var played []*Move
	for _, mv := range moves {
		rm := RemoteMove{From: mv[:2], To: mv[2:4]}
		if len(mv) > 4 {
			rm.Promotion = mv[4:]
		}
		m, err := g.ApplyRemoteMove(rm)
		if err != nil {
			t.Fatalf("move %s: %v", mv, err)
		}
		played = append(played, m)
	}
	return played
}

func square(t *testing.T, name string) Position {
	t.Helper()
	pos, err := ParseSquare(name)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", name, err)
	}
	return pos
}

func loadFEN(t *testing.T, fen string) *Board {
	t.Helper()
	b, err := LoadFEN(fen)
	if err != nil {
		t.Fatalf("LoadFEN(%q): %v", fen, err)
	}
	return b
}

// moveOnBoard executes from-to directly on b and returns its SAN.
func moveOnBoard(t *testing.T, b *Board, from, to string, promotion PieceType) (*Move, MoveResult, string) {
	t.Helper()
	before := b.Clone()
	m, err := b.NewMove(square(t, from), square(t, to), promotion)
	if err != nil {
		t.Fatalf("NewMove %s%s: %v", from, to, err)
	}
	res, err := b.MovePiece(m)
	if err != nil {
		t.Fatalf("MovePiece %s%s: %v", from, to, err)
	}
	return m, res, EncodeSAN(before, m, res)
}

func hasSquare(positions []Position, pos Position) bool {
	return containsPosition(positions, pos)
}
