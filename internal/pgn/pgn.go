// Package pgn turns PGN movetext into a sequence of (from, to) square moves.
// SAN resolution is delegated to github.com/notnil/chess, which tracks the
// position while the movetext is walked.
package pgn

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/notnil/chess"
)

var (
	// ErrEmpty is returned when the text holds no moves at all.
	ErrEmpty = errors.New("no moves in movetext")

	// ErrUnterminated is returned for an unclosed comment or variation.
	ErrUnterminated = errors.New("unterminated comment or variation")

	// ErrIllegal is returned when a token does not name a legal move.
	ErrIllegal = errors.New("illegal or ambiguous move")
)

// Move flags, one letter each.
const (
	FlagNormal          = "n"
	FlagCapture         = "c"
	FlagBigPawn         = "b"
	FlagEnPassant       = "e"
	FlagPromotion       = "p"
	FlagKingsideCastle  = "k"
	FlagQueensideCastle = "q"
)

// Move is one decoded ply. Squares are algebraic ("e2"), Color is "w" or
// "b" and Promotion is a lowercase piece letter or empty.
type Move struct {
	SAN       string `json:"san"`
	From      string `json:"from"`
	To        string `json:"to"`
	Color     string `json:"color"`
	Flags     string `json:"flags"`
	Promotion string `json:"promotion,omitempty"`
}

// ParseError reports the token at which decoding stopped.
type ParseError struct {
	Ply   int // 1-based
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pgn: ply %d %q: %v", e.Ply, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse decodes movetext, optionally preceded by tag pairs. On failure the
// moves decoded before the bad token are returned together with a
// *ParseError.
func Parse(text string) ([]Move, error) {
	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, ErrEmpty
	}

	game := chess.NewGame()
	moves := make([]Move, 0, len(tokens))
	for i, tok := range tokens {
		pos := game.Position()
		m, err := decode(pos, tok)
		if err != nil {
			return moves, &ParseError{Ply: i + 1, Token: tok, Err: err}
		}
		moves = append(moves, describe(pos, m, tok))
		if err := game.Move(m); err != nil {
			return moves[:len(moves)-1], &ParseError{Ply: i + 1, Token: tok, Err: fmt.Errorf("%w: %v", ErrIllegal, err)}
		}
	}
	return moves, nil
}

// decode tries the token as written, then with its check suffix dropped or
// supplied, since movetext in the wild is loose about both.
func decode(pos *chess.Position, tok string) (*chess.Move, error) {
	bare := strings.TrimRight(tok, "+#")
	for _, candidate := range []string{tok, bare, bare + "+", bare + "#"} {
		if m, err := (chess.AlgebraicNotation{}).Decode(pos, candidate); err == nil {
			return m, nil
		}
	}
	return nil, ErrIllegal
}

func describe(pos *chess.Position, m *chess.Move, tok string) Move {
	out := Move{
		SAN:   tok,
		From:  m.S1().String(),
		To:    m.S2().String(),
		Color: "w",
	}
	if pos.Turn() == chess.Black {
		out.Color = "b"
	}

	var flags string
	piece := pos.Board().Piece(m.S1())
	rankDelta := int(m.S2().Rank()) - int(m.S1().Rank())
	switch {
	case m.HasTag(chess.KingSideCastle):
		flags += FlagKingsideCastle
	case m.HasTag(chess.QueenSideCastle):
		flags += FlagQueensideCastle
	case m.HasTag(chess.EnPassant):
		flags += FlagEnPassant
	case m.HasTag(chess.Capture):
		flags += FlagCapture
	case piece.Type() == chess.Pawn && (rankDelta == 2 || rankDelta == -2):
		flags += FlagBigPawn
	}
	if promo := promotionLetter(m.Promo()); promo != "" {
		out.Promotion = promo
		flags += FlagPromotion
	}
	if flags == "" {
		flags = FlagNormal
	}
	out.Flags = flags
	return out
}

func promotionLetter(t chess.PieceType) string {
	switch t {
	case chess.Queen:
		return "q"
	case chess.Rook:
		return "r"
	case chess.Bishop:
		return "b"
	case chess.Knight:
		return "n"
	}
	return ""
}

// Tokenize strips tag pairs, comments, variations, NAGs, move numbers,
// annotation glyphs and the result, returning the SAN tokens in order.
// Castling written with zeros is normalized to letters.
func Tokenize(text string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		depth   int // variation nesting
		inBrace bool
		inTag   bool
		inLine  bool // ';' comment
	)
	flush := func() {
		if current.Len() == 0 {
			return
		}
		if tok := normalize(current.String()); tok != "" {
			tokens = append(tokens, tok)
		}
		current.Reset()
	}

	for _, r := range text {
		switch {
		case inLine:
			if r == '\n' {
				inLine = false
			}
			continue
		case inBrace:
			if r == '}' {
				inBrace = false
			}
			continue
		case inTag:
			if r == ']' {
				inTag = false
			}
			continue
		}

		switch {
		case r == '{':
			flush()
			inBrace = true
		case r == ';':
			flush()
			inLine = true
		case r == '[' && depth == 0:
			flush()
			inTag = true
		case r == '(':
			flush()
			depth++
		case r == ')':
			flush()
			if depth > 0 {
				depth--
			}
		case depth > 0:
		case unicode.IsSpace(r):
			flush()
		case r == '.':
			// "12." and "12..." glue onto the next move in compact text.
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	if inBrace || inTag || depth > 0 {
		return tokens, ErrUnterminated
	}
	return tokens, nil
}

// normalize returns the SAN of a raw token or "" for tokens that are not
// moves.
func normalize(tok string) string {
	if strings.HasPrefix(tok, "$") {
		return ""
	}
	switch tok {
	case "1-0", "0-1", "1/2-1/2", "*":
		return ""
	}
	if isDigits(tok) {
		return ""
	}
	tok = strings.TrimRight(tok, "!?")
	switch strings.TrimRight(tok, "+#") {
	case "0-0", "0-0-0":
		tok = strings.ReplaceAll(tok, "0", "O")
	}
	return tok
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
