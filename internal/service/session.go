package service

import (
	"fmt"
	"sync"

	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/ws"
	"github.com/rs/zerolog"
)

// Conn is the write side of a client connection.
type Conn interface {
	WriteJSON(v interface{}) error
}

// lockedConn serializes writes to one connection. The websocket allows a
// single writer at a time, and broadcasts from different goroutines share it.
type lockedConn struct {
	mu   sync.Mutex
	conn Conn
}

func (l *lockedConn) WriteJSON(v interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.WriteJSON(v)
}

// The connections for a specific game
type sessionConnections struct {
	connections map[string]*lockedConn // playerID -> connection
	mu          sync.RWMutex
}

// Session serializes every operation on one game and fans its state out to
// the connected clients.
type Session struct {
	ID string

	mu       sync.Mutex
	game     *model.Game
	players  map[model.Color]string
	computer bool
	clocks   map[model.Color]*model.Clock // nil entries when untimed
	expired  model.Color                  // side whose flag fell

	connections *sessionConnections
	log         zerolog.Logger
}

func newSession(id string, game *model.Game, opts GameOptions, log zerolog.Logger) *Session {
	s := &Session{
		ID:       id,
		game:     game,
		players:  make(map[model.Color]string),
		computer: game.Computer(),
		clocks:   make(map[model.Color]*model.Clock),
		connections: &sessionConnections{
			connections: make(map[string]*lockedConn),
		},
		log: log,
	}
	if opts.Clock > 0 {
		for _, color := range []model.Color{model.White, model.Black} {
			if s.computer && color == game.OpponentColor() {
				continue
			}
			s.clocks[color] = model.NewClock(opts.Clock, opts.Increment, log.With().Str("clock", string(color)).Logger())
		}
	}
	return s
}

// addPlayer seats playerID at the first free color, or returns the color
// already held.
func (s *Session) addPlayer(playerID string) (model.Color, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if color, ok := s.colorOf(playerID); ok {
		return color, nil
	}
	seats := []model.Color{model.White, model.Black}
	if s.computer {
		seats = []model.Color{s.game.PlayerColor()}
	}
	for _, color := range seats {
		if s.players[color] == "" {
			s.players[color] = playerID
			s.log.Info().Str("player", playerID).Str("color", string(color)).Msg("player seated")
			if s.ready() {
				s.startClock()
			}
			return color, nil
		}
	}
	return "", ErrGameFull
}

// seat puts the creator at color, leaving the other seat open.
func (s *Session) seat(playerID string, color model.Color) model.Color {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.players[color] = playerID
	if s.ready() {
		s.startClock()
	}
	return color
}

func (s *Session) colorOf(playerID string) (model.Color, bool) {
	for color, id := range s.players {
		if id == playerID {
			return color, true
		}
	}
	return "", false
}

// ready reports whether every human seat is taken.
func (s *Session) ready() bool {
	if s.computer {
		return s.players[s.game.PlayerColor()] != ""
	}
	return s.players[model.White] != "" && s.players[model.Black] != ""
}

func (s *Session) hasFreeSeat() bool {
	return !s.ready()
}

func (s *Session) startClock() {
	if s.game.Finished() || s.expired != "" {
		return
	}
	if clock := s.clocks[s.game.Turn()]; clock != nil {
		clock.Start()
	}
}

// move applies a move sent by playerID.
func (s *Session) move(playerID string, rm model.RemoteMove) (*model.Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	color, ok := s.colorOf(playerID)
	if !ok {
		return nil, ErrNotInGame
	}
	if !s.ready() {
		return nil, ErrWaitingForOpponent
	}
	if s.expired != "" {
		return nil, fmt.Errorf("%s: %w", s.expired, model.ErrTimeExpired)
	}
	if color != s.game.Turn() {
		return nil, model.ErrNotYourTurn
	}
	clock := s.clocks[color]
	if clock != nil && clock.Expired() {
		clock.Stop(false)
		s.expired = color
		s.log.Info().Str("color", string(color)).Msg("flag fell")
		return nil, fmt.Errorf("%s: %w", color, model.ErrTimeExpired)
	}

	m, err := s.game.ApplyRemoteMove(rm)
	if err != nil {
		if m == nil {
			return nil, err
		}
		// The move itself was played; only the computer reply failed.
		s.log.Error().Err(err).Msg("computer reply failed")
	}
	if clock != nil {
		clock.Stop(true)
	}
	s.startClock()
	s.log.Debug().Str("player", playerID).Str("move", m.PGN).Msg("move played")
	return m, nil
}

func (s *Session) state() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildState()
}

func (s *Session) pgn() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.PGN()
}

// register adds a connection for playerID. A player may hold only one.
// Every later write to conn must go through the returned writer.
func (s *Session) register(playerID string, conn Conn) (Conn, error) {
	s.mu.Lock()
	_, inGame := s.colorOf(playerID)
	authorized := inGame || s.hasFreeSeat()
	s.mu.Unlock()

	if !authorized {
		return nil, ErrNotInGame
	}

	s.connections.mu.Lock()
	defer s.connections.mu.Unlock()
	if _, exists := s.connections.connections[playerID]; exists {
		return nil, ErrAlreadyConnected
	}
	writer := &lockedConn{conn: conn}
	s.connections.connections[playerID] = writer
	s.log.Debug().Str("player", playerID).Msg("connection registered")
	return writer, nil
}

// unregister drops conn if it is still the one held for playerID.
func (s *Session) unregister(playerID string, conn Conn) {
	s.connections.mu.Lock()
	defer s.connections.mu.Unlock()

	if current, exists := s.connections.connections[playerID]; exists && current.conn == conn {
		delete(s.connections.connections, playerID)
		s.log.Debug().Str("player", playerID).Msg("connection unregistered")
	}
}

// broadcast sends the current state to every connection. The state is
// built under the session lock and written outside it; connections that
// fail to receive it are dropped.
func (s *Session) broadcast() {
	msg, err := ws.NewMessage(ws.MessageTypeGameState, s.state())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal state")
		return
	}

	s.connections.mu.RLock()
	active := make(map[string]*lockedConn, len(s.connections.connections))
	for playerID, conn := range s.connections.connections {
		active[playerID] = conn
	}
	s.connections.mu.RUnlock()

	for playerID, conn := range active {
		if err := conn.WriteJSON(msg); err != nil {
			s.log.Warn().Err(err).Str("player", playerID).Msg("failed to send state")
			s.unregister(playerID, conn.conn)
		}
	}
}

// send writes the current state to a single connection.
func (s *Session) send(conn Conn) error {
	msg, err := ws.NewMessage(ws.MessageTypeGameState, s.state())
	if err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// expireIfFlagged marks the side to move as out of time when its clock has
// run down, so that observers learn about it without waiting for a move.
func (s *Session) expireIfFlagged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expired != "" || s.game.Finished() {
		return false
	}
	color := s.game.Turn()
	clock := s.clocks[color]
	if clock == nil || !clock.Expired() {
		return false
	}
	clock.Stop(false)
	s.expired = color
	s.log.Info().Str("color", string(color)).Msg("flag fell")
	return true
}
