// service/game_manager.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrGameNotFound       = errors.New("game not found")
	ErrGameFull           = errors.New("game is full")
	ErrNotInGame          = errors.New("player not in game")
	ErrWaitingForOpponent = errors.New("waiting for opponent")
	ErrAlreadyConnected   = errors.New("connection already exists")
	ErrInvalidColor       = errors.New("invalid color")
	ErrInvalidTimeControl = errors.New("invalid time control")
)

// GameOptions configures a new session.
type GameOptions struct {
	VsComputer bool
	Color      model.Color // the creator's color; empty means White
	Clock      time.Duration
	Increment  time.Duration
}

type GameManager struct {
	games map[string]*Session
	mu    sync.RWMutex
	log   zerolog.Logger
	newID func() string
}

func NewGameManager(log zerolog.Logger) *GameManager {
	return &GameManager{
		games: make(map[string]*Session),
		log:   log,
		newID: func() string { return uuid.New().String() },
	}
}

// WatchClocks checks the running clocks every interval until ctx is done
// and broadcasts sessions whose flag has fallen.
func (gm *GameManager) WatchClocks(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, s := range gm.sessions() {
				if s.expireIfFlagged() {
					s.broadcast()
				}
			}
		}
	}
}

func (gm *GameManager) sessions() []*Session {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	sessions := make([]*Session, 0, len(gm.games))
	for _, s := range gm.games {
		sessions = append(sessions, s)
	}
	return sessions
}

// CreateGame starts a game and seats playerID at the requested color.
func (gm *GameManager) CreateGame(playerID string, opts GameOptions) (string, model.Color, error) {
	gameOpts, err := gm.gameOptions(opts)
	if err != nil {
		return "", "", err
	}
	gameID := gm.newID()
	log := gm.log.With().Str("game", gameID).Logger()
	game := model.NewGame(append(gameOpts, model.WithLogger(log))...)
	if err := game.Start(); err != nil {
		return "", "", fmt.Errorf("failed to start game: %w", err)
	}

	s := newSession(gameID, game, opts, log)
	color := s.seat(playerID, game.PlayerColor())

	gm.mu.Lock()
	gm.games[gameID] = s
	gm.mu.Unlock()
	log.Info().Str("player", playerID).Bool("computer", opts.VsComputer).Msg("game created")
	return gameID, color, nil
}

func (gm *GameManager) gameOptions(opts GameOptions) ([]model.Option, error) {
	var gameOpts []model.Option
	switch opts.Color {
	case "", model.White:
		gameOpts = append(gameOpts, model.AsWhite())
	case model.Black:
		gameOpts = append(gameOpts, model.AsBlack())
	default:
		return nil, fmt.Errorf("%q: %w", opts.Color, ErrInvalidColor)
	}
	if opts.VsComputer {
		gameOpts = append(gameOpts, model.AgainstComputer())
	}
	return gameOpts, nil
}

// ImportGame creates an untimed two-player game from PGN movetext. The
// importer sits at the side to move.
func (gm *GameManager) ImportGame(playerID, movetext string) (string, model.Color, error) {
	gameID := gm.newID()
	log := gm.log.With().Str("game", gameID).Logger()
	game := model.NewGame(model.WithLogger(log))
	if err := game.SetBoard(movetext, true); err != nil {
		return "", "", err
	}

	s := newSession(gameID, game, GameOptions{}, log)
	color := s.seat(playerID, game.Turn())

	gm.mu.Lock()
	gm.games[gameID] = s
	gm.mu.Unlock()
	log.Info().Str("player", playerID).Int("plies", len(game.PastMoves())).Msg("game imported")
	return gameID, color, nil
}

func (gm *GameManager) GetSession(gameID string) (*Session, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	s, exists := gm.games[gameID]
	if !exists {
		return nil, fmt.Errorf("%s: %w", gameID, ErrGameNotFound)
	}
	return s, nil
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (model.Color, error) {
	s, err := gm.GetSession(gameID)
	if err != nil {
		return "", err
	}
	color, err := s.addPlayer(playerID)
	if err != nil {
		return "", err
	}
	s.broadcast()
	return color, nil
}

func (gm *GameManager) GetGameState(gameID string) (GameState, error) {
	s, err := gm.GetSession(gameID)
	if err != nil {
		return GameState{}, err
	}
	return s.state(), nil
}

// MakeMove plays a move for playerID and broadcasts the new state.
func (gm *GameManager) MakeMove(gameID string, playerID string, move model.RemoteMove) (*model.Move, error) {
	s, err := gm.GetSession(gameID)
	if err != nil {
		return nil, err
	}
	m, err := s.move(playerID, move)
	if err != nil {
		return nil, err
	}
	s.broadcast()
	return m, nil
}

func (gm *GameManager) ExportPGN(gameID string) (string, error) {
	s, err := gm.GetSession(gameID)
	if err != nil {
		return "", err
	}
	return s.pgn(), nil
}

// RegisterConnection attaches conn to the game and sends it the current
// state. The returned writer is the only safe way to write to conn while it
// stays registered.
func (gm *GameManager) RegisterConnection(gameID string, playerID string, conn Conn) (Conn, error) {
	s, err := gm.GetSession(gameID)
	if err != nil {
		return nil, err
	}
	writer, err := s.register(playerID, conn)
	if err != nil {
		return nil, err
	}
	if err := s.send(writer); err != nil {
		s.unregister(playerID, conn)
		return nil, err
	}
	return writer, nil
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string, conn Conn) {
	s, err := gm.GetSession(gameID)
	if err != nil {
		return
	}
	s.unregister(playerID, conn)
}
