package pgn

import (
	"errors"
	"testing"

	"github.com/benbeisheim/chess-backend/internal/testutil"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"numbered", "1. e4 e5 2. Nf3", []string{"e4", "e5", "Nf3"}},
		{"compact", "1.e4 e5 2.Nf3 Nc6", []string{"e4", "e5", "Nf3", "Nc6"}},
		{"black continuation", "12... Nf6 13. O-O", []string{"Nf6", "O-O"}},
		{"comments", "1. e4 {main line} e5 ; rest ignored\n2. Nf3", []string{"e4", "e5", "Nf3"}},
		{"nested variations", "1. e4 (1. d4 (1. c4 c5) d5) e5", []string{"e4", "e5"}},
		{"glyphs and NAGs", "1. e4! e5?? $2 2. Nf3!?", []string{"e4", "e5", "Nf3"}},
		{"result", "1. e4 e5 1/2-1/2", []string{"e4", "e5"}},
		{"unfinished", "1. d4 *", []string{"d4"}},
		{"zero castling", "0-0 0-0-0+", []string{"O-O", "O-O-O+"}},
		{"tags", "[Event \"Casual\"]\n[Site \"?\"]\n\n1. e4 0-1", []string{"e4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.text)
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, got, tt.want)
		})
	}
}

func TestTokenizeUnterminated(t *testing.T) {
	for _, text := range []string{"1. e4 {oops", "1. e4 (1. d4", "[Event \"x\"  1. e4"} {
		_, err := Tokenize(text)
		testutil.AssertErrorIs(t, err, ErrUnterminated)
	}
}

func TestParseFlags(t *testing.T) {
	moves, err := Parse("1. e4 e5 2. Nf3 Nc6 3. Bb5 a6 4. Bxc6 dxc6 5. O-O")
	testutil.AssertNoError(t, err)

	want := []Move{
		{SAN: "e4", From: "e2", To: "e4", Color: "w", Flags: FlagBigPawn},
		{SAN: "e5", From: "e7", To: "e5", Color: "b", Flags: FlagBigPawn},
		{SAN: "Nf3", From: "g1", To: "f3", Color: "w", Flags: FlagNormal},
		{SAN: "Nc6", From: "b8", To: "c6", Color: "b", Flags: FlagNormal},
		{SAN: "Bb5", From: "f1", To: "b5", Color: "w", Flags: FlagNormal},
		{SAN: "a6", From: "a7", To: "a6", Color: "b", Flags: FlagNormal},
		{SAN: "Bxc6", From: "b5", To: "c6", Color: "w", Flags: FlagCapture},
		{SAN: "dxc6", From: "d7", To: "c6", Color: "b", Flags: FlagCapture},
		{SAN: "O-O", From: "e1", To: "g1", Color: "w", Flags: FlagKingsideCastle},
	}
	testutil.AssertEqual(t, moves, want)
}

func TestParseEnPassant(t *testing.T) {
	moves, err := Parse("1. e4 a6 2. e5 d5 3. exd6")
	testutil.AssertNoError(t, err)

	last := moves[len(moves)-1]
	testutil.AssertEqual(t, last, Move{SAN: "exd6", From: "e5", To: "d6", Color: "w", Flags: FlagEnPassant})
}

func TestParsePromotion(t *testing.T) {
	moves, err := Parse("1. h4 g5 2. hxg5 h6 3. gxh6 Bg7 4. hxg7 Nf6 5. gxh8=Q")
	testutil.AssertNoError(t, err)

	last := moves[len(moves)-1]
	testutil.AssertEqual(t, last.From, "g7")
	testutil.AssertEqual(t, last.To, "h8")
	testutil.AssertEqual(t, last.Promotion, "q")
	testutil.AssertEqual(t, last.Flags, FlagCapture+FlagPromotion)
}

func TestParseLooseCheckSuffix(t *testing.T) {
	moves, err := Parse("1. e4+ e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(moves), 7)
	testutil.AssertEqual(t, moves[6].To, "f7")
}

func TestParseStopsAtIllegalMove(t *testing.T) {
	moves, err := Parse("1. e4 e5 2. Ke3 Nc6")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	testutil.AssertEqual(t, pe.Ply, 3)
	testutil.AssertEqual(t, pe.Token, "Ke3")
	testutil.AssertErrorIs(t, err, ErrIllegal)
	testutil.AssertEqual(t, len(moves), 2)
}

func TestParseEmpty(t *testing.T) {
	for _, text := range []string{"", "  ", "[Event \"x\"]", "1-0"} {
		_, err := Parse(text)
		testutil.AssertErrorIs(t, err, ErrEmpty)
	}
}
