package service

import (
	"github.com/benbeisheim/chess-backend/internal/model"
)

// GameState is the JSON view of a session sent to clients.
type GameState struct {
	ID             string              `json:"id"`
	FEN            string              `json:"fen"`
	PGN            string              `json:"pgn"`
	ToMove         model.Color         `json:"toMove"`
	Outcome        model.Outcome       `json:"outcome"`
	IsCheck        bool                `json:"isCheck"`
	Pieces         []model.Piece       `json:"pieces"`
	LegalMoves     map[string][]string `json:"legalMoves"`
	MoveHistory    []HistoryEntry      `json:"moveHistory"`
	LastMove       *model.RemoteMove   `json:"lastMove"`
	CapturedPieces CapturedPieces      `json:"capturedPieces"`
	Players        Players             `json:"players"`
	Computer       bool                `json:"computer"`
	Expired        model.Color         `json:"expired,omitempty"`
}

type HistoryEntry struct {
	SAN   string      `json:"san"`
	From  string      `json:"from"`
	To    string      `json:"to"`
	Color model.Color `json:"color"`
}

type CapturedPieces struct {
	White []model.Piece `json:"white"`
	Black []model.Piece `json:"black"`
}

type Players struct {
	White model.ClientPlayer `json:"white"`
	Black model.ClientPlayer `json:"black"`
}

// buildState reads everything it needs from the session. The caller holds
// the session lock.
func (s *Session) buildState() GameState {
	game := s.game
	board := game.Board()
	turn := board.Turn()

	state := GameState{
		ID:             s.ID,
		FEN:            game.FEN(),
		PGN:            game.PGN(),
		ToMove:         turn,
		Outcome:        game.Outcome(),
		Pieces:         append(board.ActivePieces(model.White), board.ActivePieces(model.Black)...),
		LegalMoves:     make(map[string][]string),
		MoveHistory:    make([]HistoryEntry, 0),
		CapturedPieces: CapturedPieces{White: make([]model.Piece, 0), Black: make([]model.Piece, 0)},
		Computer:       s.computer,
		Expired:        s.expired,
	}
	state.IsCheck, _ = board.KingAttacked(turn)

	if game.Outcome() == model.Ongoing && s.expired == "" {
		for _, c := range board.LegalMoves(turn) {
			p, err := board.Piece(c.Piece)
			if err != nil {
				continue
			}
			from := p.Position.String()
			state.LegalMoves[from] = append(state.LegalMoves[from], c.To.String())
		}
	}

	for _, m := range game.PastMoves() {
		state.MoveHistory = append(state.MoveHistory, HistoryEntry{
			SAN:   m.PGN,
			From:  m.From.String(),
			To:    m.To.String(),
			Color: m.Color,
		})
		if m.Captured == nil {
			continue
		}
		// Pieces are listed under the color that captured them.
		if m.Color == model.White {
			state.CapturedPieces.White = append(state.CapturedPieces.White, *m.Captured)
		} else {
			state.CapturedPieces.Black = append(state.CapturedPieces.Black, *m.Captured)
		}
	}
	if last := game.LastMove(); last != nil {
		rm := game.Outbound(last)
		state.LastMove = &rm
	}

	state.Players.White = s.clientPlayer(model.White)
	state.Players.Black = s.clientPlayer(model.Black)
	return state
}

func (s *Session) clientPlayer(color model.Color) model.ClientPlayer {
	cp := model.ClientPlayer{ID: s.players[color], Color: color}
	if s.computer && color == s.game.OpponentColor() {
		cp.ID = model.ComputerPlayerID
		cp.Computer = true
	}
	if clock := s.clocks[color]; clock != nil {
		cp.TimeLeft = clock.Client().TimeLeft
	}
	return cp
}
