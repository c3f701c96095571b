package model

import (
	"testing"

	"github.com/benbeisheim/chess-backend/internal/testutil"
)

func TestInitialFEN(t *testing.T) {
	b := NewBoard()
	b.Setup()
	testutil.AssertEqual(t, b.FEN(), InitialFEN)
}

func TestFENRoundTrip(t *testing.T) {
	for _, fen := range []string{
		InitialFEN,
		"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1",
		"4k3/8/8/8/8/8/8/4K2R w K - 12 40",
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		"r1bqk2r/ppp1bppp/3p1n2/8/2BQP3/8/PPP2PPP/RNB2RK1 w kq - 0 8",
		"8/8/8/8/8/8/8/K6k b - - 3 60",
	} {
		t.Run(fen, func(t *testing.T) {
			testutil.AssertEqual(t, loadFEN(t, fen).FEN(), fen)
		})
	}
}

func TestLoadFENDefaults(t *testing.T) {
	b := loadFEN(t, "4k3/8/8/8/8/8/8/4K2R")
	testutil.AssertEqual(t, b.Turn(), White)
	testutil.AssertEqual(t, b.FEN(), "4k3/8/8/8/8/8/8/4K2R w - - 0 1")
}

func TestLoadFENInvalid(t *testing.T) {
	tests := []struct {
		name string
		fen  string
	}{
		{"empty", ""},
		{"too few ranks", "8/8/8 w - - 0 1"},
		{"short rank", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBN w KQkq - 0 1"},
		{"long rank", "4k4/8/8/8/8/8/8/4K3 w - - 0 1"},
		{"unknown piece", "4k3/8/8/8/8/8/8/4K2X w - - 0 1"},
		{"missing white king", "4k3/8/8/8/8/8/8/8 w - - 0 1"},
		{"two black kings", "4k2k/8/8/8/8/8/8/4K3 w - - 0 1"},
		{"side to move", "4k3/8/8/8/8/8/8/4K3 x - - 0 1"},
		{"castling flag", "4k3/8/8/8/8/8/8/4K3 w Z - 0 1"},
		{"castling without rook", "4k3/8/8/8/8/8/8/4K3 w K - 0 1"},
		{"castling without king", "4k3/8/8/8/8/8/8/3K3R w K - 0 1"},
		{"en passant square", "4k3/8/8/8/8/8/8/4K3 w - z9 0 1"},
		{"en passant without pawn", "4k3/8/8/8/8/8/8/4K3 w - e3 0 1"},
		{"halfmove clock", "4k3/8/8/8/8/8/8/4K3 w - - x 1"},
		{"fullmove number", "4k3/8/8/8/8/8/8/4K3 w - - 0 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFEN(tt.fen)
			testutil.AssertErrorIs(t, err, ErrInvalidFEN)
		})
	}
}

func TestFENAfterMoves(t *testing.T) {
	g := newTestGame(t)

	play(t, g, "e2e4")
	testutil.AssertEqual(t, g.FEN(), "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")

	play(t, g, "e7e5")
	testutil.AssertEqual(t, g.FEN(), "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2")

	play(t, g, "g1f3")
	testutil.AssertEqual(t, g.FEN(), "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2")

	play(t, g, "e8e7")
	testutil.AssertEqual(t, g.FEN(), "rnbq1bnr/ppppkppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQ - 2 3")
}

func TestLoadedFENKeepsCastlingRights(t *testing.T) {
	b := loadFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w Kq - 0 1")
	king, err := b.King(White)
	testutil.AssertNoError(t, err)
	moves := b.AvailableMoves(king.ID)
	testutil.AssertTrue(t, hasSquare(moves, square(t, "g1")), "white may castle king side")
	testutil.AssertFalse(t, hasSquare(moves, square(t, "c1")), "white may not castle queen side")
}
