package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
)

// CreateGameRequest is the body of POST /api/game/create.
type CreateGameRequest struct {
	VsComputer       bool   `json:"vsComputer"`
	Color            string `json:"color"`
	ClockSeconds     *int   `json:"clockSeconds"`
	IncrementSeconds *int   `json:"incrementSeconds"`
}

// Defaults apply to create requests that leave the time control out.
type Defaults struct {
	Clock     time.Duration
	Increment time.Duration
}

type GameService struct {
	gameManager *GameManager
	defaults    Defaults
	encoder     *zstd.Encoder
	log         zerolog.Logger
}

func NewGameService(gameManager *GameManager, defaults Defaults, log zerolog.Logger) (*GameService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return &GameService{
		gameManager: gameManager,
		defaults:    defaults,
		encoder:     encoder,
		log:         log,
	}, nil
}

func (gs *GameService) CreateGame(playerID string, req CreateGameRequest) (string, model.Color, error) {
	clock, increment := gs.defaults.Clock, gs.defaults.Increment
	if req.ClockSeconds != nil {
		clock = seconds(*req.ClockSeconds)
	}
	if req.IncrementSeconds != nil {
		increment = seconds(*req.IncrementSeconds)
	}
	if clock < 0 || increment < 0 {
		return "", "", fmt.Errorf("negative time control: %w", ErrInvalidTimeControl)
	}

	opts := GameOptions{
		VsComputer: req.VsComputer,
		Color:      model.Color(strings.ToLower(req.Color)),
		Clock:      clock,
		Increment:  increment,
	}
	gameID, color, err := gs.gameManager.CreateGame(playerID, opts)
	if err != nil {
		return "", "", fmt.Errorf("failed to create game: %w", err)
	}
	return gameID, color, nil
}

func (gs *GameService) ImportGame(playerID, movetext string) (string, model.Color, error) {
	return gs.gameManager.ImportGame(playerID, movetext)
}

func (gs *GameService) JoinGame(gameID string, playerID string) (model.Color, error) {
	return gs.gameManager.AddPlayerToGame(gameID, playerID)
}

func (gs *GameService) GetGameState(gameID string) (GameState, error) {
	return gs.gameManager.GetGameState(gameID)
}

func (gs *GameService) HandleMove(gameID string, playerID string, move model.RemoteMove) error {
	_, err := gs.gameManager.MakeMove(gameID, playerID, move)
	return err
}

// ExportPGN returns the movetext of a game, zstd-compressed when compress
// is set.
func (gs *GameService) ExportPGN(gameID string, compress bool) ([]byte, error) {
	movetext, err := gs.gameManager.ExportPGN(gameID)
	if err != nil {
		return nil, err
	}
	if !compress {
		return []byte(movetext), nil
	}
	out := gs.encoder.EncodeAll([]byte(movetext), nil)
	gs.log.Debug().Str("game", gameID).Int("raw", len(movetext)).Int("compressed", len(out)).Msg("pgn compressed")
	return out, nil
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn Conn) (Conn, error) {
	return gs.gameManager.RegisterConnection(gameID, playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn Conn) {
	gs.gameManager.UnregisterConnection(gameID, playerID, conn)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
