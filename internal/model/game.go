package model

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// PendingPromotion is a pawn move onto the last rank waiting for the
// player's choice of piece.
type PendingPromotion struct {
	Piece PieceID  `json:"piece"`
	From  Position `json:"from"`
	To    Position `json:"to"`
}

// RemoteMove is the wire form of a move exchanged with an opponent.
// Squares are algebraic; Promotion is a letter, a type name or a
// "COLOR_TYPE" choice.
type RemoteMove struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// Game drives one board: piece selection, the promotion choice, an
// optional computer opponent and the move history.
type Game struct {
	board *Board

	playerColor   Color
	opponentColor Color
	computer      bool

	pastMoves []*Move
	cursor    int // index into pastMoves of the displayed position, -1 for the start
	initial   *Snapshot

	selected  PieceID
	available []Position
	pending   *PendingPromotion

	started bool
	outcome Outcome

	rng *rand.Rand
	log zerolog.Logger
}

type Option func(*Game)

func AsWhite() Option {
	return func(g *Game) {
		g.playerColor, g.opponentColor = White, Black
	}
}

func AsBlack() Option {
	return func(g *Game) {
		g.playerColor, g.opponentColor = Black, White
	}
}

// AgainstComputer makes the opponent color play random legal moves.
func AgainstComputer() Option {
	return func(g *Game) {
		g.computer = true
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(g *Game) {
		g.log = log
	}
}

// WithRand sets the source used for computer moves.
func WithRand(rng *rand.Rand) Option {
	return func(g *Game) {
		g.rng = rng
	}
}

// NewGame returns a game that has not started. The player is White unless
// AsBlack is given.
func NewGame(opts ...Option) *Game {
	g := &Game{
		board:         NewBoard(),
		playerColor:   White,
		opponentColor: Black,
		cursor:        -1,
		selected:      NoPiece,
		outcome:       Ongoing,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g
}

// Start sets up the starting position, orients the board for the player
// and lets the computer open when it plays White.
func (g *Game) Start() error {
	g.board.Setup()
	if g.board.Flipped() != (g.playerColor == Black) {
		g.board.Flip()
	}
	g.resetHistory()
	g.started = true
	g.log.Info().Str("player", string(g.playerColor)).Bool("computer", g.computer).Msg("game started")

	if g.computerToMove() {
		if _, err := g.MakeComputerMove(); err != nil {
			return err
		}
	}
	return nil
}

func (g *Game) resetHistory() {
	g.pastMoves = nil
	g.cursor = -1
	g.initial = g.board.TakeSnapshot()
	g.outcome = g.board.Outcome()
	g.clearSelection()
	g.pending = nil
}

func (g *Game) clearSelection() {
	g.selected = NoPiece
	g.available = nil
}

// Board exposes the live board. Callers must not mutate it.
func (g *Game) Board() *Board {
	return g.board
}

func (g *Game) PlayerColor() Color {
	return g.playerColor
}

func (g *Game) OpponentColor() Color {
	return g.opponentColor
}

func (g *Game) Computer() bool {
	return g.computer
}

func (g *Game) Turn() Color {
	return g.board.Turn()
}

func (g *Game) Started() bool {
	return g.started
}

// Outcome is the state after the latest move.
func (g *Game) Outcome() Outcome {
	return g.outcome
}

func (g *Game) Finished() bool {
	return g.outcome != Ongoing
}

// Flip turns the display around.
func (g *Game) Flip() {
	g.board.Flip()
}

// Selected returns the selected piece and its cached destinations.
func (g *Game) Selected() (PieceID, []Position) {
	return g.selected, g.available
}

func (g *Game) PendingPromotion() *PendingPromotion {
	return g.pending
}

func (g *Game) computerToMove() bool {
	return g.computer && g.outcome == Ongoing && g.board.Turn() == g.opponentColor
}

// checkActive reports why no move may be made right now.
func (g *Game) checkActive() error {
	switch {
	case !g.started || g.outcome != Ongoing:
		return ErrGameNotActive
	case !g.atLatest():
		return ErrNotAtLatestMove
	case g.pending != nil:
		return ErrPromotionPending
	}
	return nil
}

// SelectPiece selects id and caches its legal destinations. It is a no-op
// returning false unless the game is active and it is that piece's turn.
func (g *Game) SelectPiece(id PieceID) bool {
	if g.checkActive() != nil {
		return false
	}
	p, err := g.board.Piece(id)
	if err != nil || p.Captured || p.Color != g.board.Turn() {
		return false
	}
	if g.computer && p.Color == g.opponentColor {
		return false
	}
	g.selected = id
	g.available = g.board.AvailableMoves(id)
	return true
}

// MoveSelectedPiece moves the selected piece to dest. A pawn reaching the
// last rank without a promotion choice is parked as a pending promotion
// and ErrPromotionChoiceNeeded is returned.
func (g *Game) MoveSelectedPiece(dest Position, promotion PieceType) (*Move, error) {
	if err := g.checkActive(); err != nil {
		return nil, err
	}
	if g.selected == NoPiece {
		return nil, ErrNothingSelected
	}
	if !containsPosition(g.available, dest) {
		return nil, fmt.Errorf("%s: %w", dest, ErrIllegalMove)
	}

	p, err := g.board.Piece(g.selected)
	if err != nil {
		return nil, err
	}
	if g.board.RequiresPromotion(p.Position, dest) {
		if promotion == NoPieceType {
			g.pending = &PendingPromotion{Piece: p.ID, From: p.Position, To: dest}
			g.clearSelection()
			return nil, ErrPromotionChoiceNeeded
		}
		if !promotion.Promotable() {
			return nil, fmt.Errorf("%q: %w", promotion, ErrInvalidPromotion)
		}
	}
	return g.play(p.ID, dest, promotion)
}

// ResolvePromotion completes the pending promotion with kind.
func (g *Game) ResolvePromotion(kind PieceType) (*Move, error) {
	if g.pending == nil {
		return nil, ErrNoPendingPromotion
	}
	if !kind.Promotable() {
		return nil, fmt.Errorf("%q: %w", kind, ErrInvalidPromotion)
	}
	pending := g.pending
	g.pending = nil
	return g.play(pending.Piece, pending.To, kind)
}

// ApplyRemoteMove plays a move received from the other side of a
// connection. The move must be legal for the side to move.
func (g *Game) ApplyRemoteMove(rm RemoteMove) (*Move, error) {
	if err := g.checkActive(); err != nil {
		return nil, err
	}
	from, err := ParseSquare(rm.From)
	if err != nil {
		return nil, err
	}
	to, err := ParseSquare(rm.To)
	if err != nil {
		return nil, err
	}
	promotion, err := ParsePromotion(rm.Promotion)
	if err != nil {
		return nil, err
	}
	p, ok := g.board.PieceAt(from)
	if !ok {
		return nil, fmt.Errorf("%s: %w", from, ErrNoPieceAt)
	}
	if p.Color != g.board.Turn() {
		return nil, ErrNotYourTurn
	}
	if !containsPosition(g.board.AvailableMoves(p.ID), to) {
		return nil, fmt.Errorf("%s%s: %w", from, to, ErrIllegalMove)
	}
	if g.board.RequiresPromotion(from, to) && promotion == NoPieceType {
		return nil, ErrPromotionChoiceNeeded
	}
	return g.play(p.ID, to, promotion)
}

// Outbound converts an executed move into its wire form.
func (g *Game) Outbound(m *Move) RemoteMove {
	rm := RemoteMove{From: m.From.String(), To: m.To.String()}
	if m.Promotion != NoPieceType {
		rm.Promotion = strings.ToUpper(string(m.Color) + "_" + string(m.Promotion))
	}
	return rm
}

// play executes a move and, when the computer is to move next, its reply.
// The returned move is the one requested.
func (g *Game) play(id PieceID, to Position, promotion PieceType) (*Move, error) {
	m, err := g.execute(id, to, promotion, true)
	if err != nil {
		return nil, err
	}
	if g.computerToMove() {
		if _, err := g.MakeComputerMove(); err != nil {
			return m, err
		}
	}
	return m, nil
}

// execute runs one move through the board and computes its notation.
func (g *Game) execute(id PieceID, to Position, promotion PieceType, record bool) (*Move, error) {
	p, err := g.board.Piece(id)
	if err != nil {
		return nil, err
	}
	if !g.board.RequiresPromotion(p.Position, to) {
		promotion = NoPieceType
	}

	before := g.board.Clone()
	m := &Move{Piece: id, From: p.Position, To: to, Promotion: promotion}
	res, err := g.board.MovePiece(m)
	if err != nil {
		return nil, err
	}
	m.PGN = EncodeSAN(before, m, res)

	if res.Captured != nil {
		g.log.Debug().Str("move", m.PGN).Str("captured", res.Captured.String()).Msg("capture")
	}
	if record {
		g.pastMoves = append(g.pastMoves, m)
		g.cursor = len(g.pastMoves) - 1
	}
	g.outcome = res.Outcome
	g.clearSelection()
	if g.outcome != Ongoing {
		g.log.Info().Str("outcome", string(g.outcome)).Str("pgn", g.PGN()).Msg("game over")
	}
	return m, nil
}

// PGN returns the movetext of the recorded history, numbered from the
// starting position's fullmove counter.
func (g *Game) PGN() string {
	fullmove := 1
	if g.initial != nil {
		fullmove = g.initial.Fullmoves
	}
	return FormatMovetext(g.pastMoves, fullmove)
}

// FEN exports the displayed position.
func (g *Game) FEN() string {
	return g.board.FEN()
}

func containsPosition(positions []Position, pos Position) bool {
	for _, p := range positions {
		if p == pos {
			return true
		}
	}
	return false
}
