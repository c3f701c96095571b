package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/testutil"
	"github.com/benbeisheim/chess-backend/internal/ws"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
)

var errConnClosed = errors.New("connection closed")

type fakeConn struct {
	mu       sync.Mutex
	messages []ws.Message
	fail     bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errConnClosed
	}
	f.messages = append(f.messages, v.(ws.Message))
	return nil
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeConn) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

// lastState decodes the newest game state the connection received.
func (f *fakeConn) lastState(t *testing.T) GameState {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		t.Fatal("no messages received")
	}
	msg := f.messages[len(f.messages)-1]
	testutil.AssertEqual(t, msg.Type, ws.MessageTypeGameState)
	var state GameState
	if err := json.Unmarshal(msg.Payload, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return state
}

type registrar interface {
	RegisterConnection(gameID, playerID string, conn Conn) (Conn, error)
}

// connect registers conn and fails the test on error.
func connect(t *testing.T, r registrar, gameID, playerID string, conn Conn, msgAndArgs ...interface{}) Conn {
	t.Helper()
	writer, err := r.RegisterConnection(gameID, playerID, conn)
	testutil.AssertNoError(t, err, msgAndArgs...)
	return writer
}

func connectErr(r registrar, gameID, playerID string, conn Conn) error {
	_, err := r.RegisterConnection(gameID, playerID, conn)
	return err
}

func newTestService(t *testing.T) (*GameService, *GameManager) {
	t.Helper()
	gm := NewGameManager(zerolog.Nop())
	gs, err := NewGameService(gm, Defaults{}, zerolog.Nop())
	testutil.AssertNoError(t, err)
	return gs, gm
}

func move(from, to string) model.RemoteMove {
	return model.RemoteMove{From: from, To: to}
}

func TestCreateJoinAndMove(t *testing.T) {
	gs, _ := newTestService(t)

	gameID, color, err := gs.CreateGame("alice", CreateGameRequest{})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, color, model.White)

	color, err = gs.JoinGame(gameID, "bob")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, color, model.Black)

	color, err = gs.JoinGame(gameID, "bob")
	testutil.AssertNoError(t, err, "joining twice returns the held seat")
	testutil.AssertEqual(t, color, model.Black)

	_, err = gs.JoinGame(gameID, "carol")
	testutil.AssertErrorIs(t, err, ErrGameFull)

	alice, bob := &fakeConn{}, &fakeConn{}
	connect(t, gs, gameID, "alice", alice)
	connect(t, gs, gameID, "bob", bob)
	testutil.AssertEqual(t, alice.count(), 1, "state is sent on connect")

	testutil.AssertErrorIs(t, gs.HandleMove(gameID, "bob", move("e7", "e5")), model.ErrNotYourTurn)
	testutil.AssertErrorIs(t, gs.HandleMove(gameID, "alice", move("e2", "e5")), model.ErrIllegalMove)
	testutil.AssertNoError(t, gs.HandleMove(gameID, "alice", move("e2", "e4")))

	for _, conn := range []*fakeConn{alice, bob} {
		state := conn.lastState(t)
		testutil.AssertEqual(t, state.PGN, "1. e4")
		testutil.AssertEqual(t, state.ToMove, model.Black)
		testutil.AssertEqual(t, state.LastMove, &model.RemoteMove{From: "e2", To: "e4"})
		testutil.AssertEqual(t, len(state.LegalMoves), 10)
		testutil.AssertEqual(t, state.Players.White.ID, "alice")
		testutil.AssertEqual(t, state.Players.Black.ID, "bob")
	}
	testutil.AssertEqual(t, bob.count(), 2)
}

func TestMoveRequiresSeatedOpponent(t *testing.T) {
	gs, _ := newTestService(t)
	gameID, _, err := gs.CreateGame("alice", CreateGameRequest{})
	testutil.AssertNoError(t, err)

	testutil.AssertErrorIs(t, gs.HandleMove(gameID, "alice", move("e2", "e4")), ErrWaitingForOpponent)
	testutil.AssertErrorIs(t, gs.HandleMove(gameID, "mallory", move("e2", "e4")), ErrNotInGame)
	testutil.AssertErrorIs(t, gs.HandleMove("missing", "alice", move("e2", "e4")), ErrGameNotFound)

	_, err = gs.GetGameState("missing")
	testutil.AssertErrorIs(t, err, ErrGameNotFound)
}

func TestCreateGameValidation(t *testing.T) {
	gs, _ := newTestService(t)

	_, _, err := gs.CreateGame("alice", CreateGameRequest{Color: "green"})
	testutil.AssertErrorIs(t, err, ErrInvalidColor)

	negative := -1
	_, _, err = gs.CreateGame("alice", CreateGameRequest{ClockSeconds: &negative})
	testutil.AssertErrorIs(t, err, ErrInvalidTimeControl)

	_, color, err := gs.CreateGame("alice", CreateGameRequest{Color: "BLACK"})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, color, model.Black)
}

func TestCreateGameDefaults(t *testing.T) {
	gs, err := NewGameService(NewGameManager(zerolog.Nop()), Defaults{Clock: time.Minute, Increment: 2 * time.Second}, zerolog.Nop())
	testutil.AssertNoError(t, err)

	gameID, _, err := gs.CreateGame("alice", CreateGameRequest{})
	testutil.AssertNoError(t, err)
	_, err = gs.JoinGame(gameID, "bob")
	testutil.AssertNoError(t, err)
	full, err := gs.GetGameState(gameID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, full.Players.Black.TimeLeft, int64(60000))

	thirty := 30
	gameID, _, err = gs.CreateGame("alice", CreateGameRequest{ClockSeconds: &thirty})
	testutil.AssertNoError(t, err)
	full, err = gs.GetGameState(gameID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, full.Players.White.TimeLeft, int64(30000))
}

func TestComputerGame(t *testing.T) {
	gs, _ := newTestService(t)

	gameID, color, err := gs.CreateGame("alice", CreateGameRequest{VsComputer: true, Color: "black"})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, color, model.Black)

	state, err := gs.GetGameState(gameID)
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, state.Computer)
	testutil.AssertEqual(t, len(state.MoveHistory), 1, "computer opens as white")
	testutil.AssertEqual(t, state.Players.White.ID, model.ComputerPlayerID)
	testutil.AssertTrue(t, state.Players.White.Computer)

	_, err = gs.JoinGame(gameID, "bob")
	testutil.AssertErrorIs(t, err, ErrGameFull)

	testutil.AssertNoError(t, gs.HandleMove(gameID, "alice", move("g8", "f6")))
	state, err = gs.GetGameState(gameID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(state.MoveHistory), 3)
	testutil.AssertEqual(t, state.ToMove, model.Black)
}

func TestFullGameState(t *testing.T) {
	gs, _ := newTestService(t)
	gameID, _, err := gs.CreateGame("alice", CreateGameRequest{})
	testutil.AssertNoError(t, err)
	_, err = gs.JoinGame(gameID, "bob")
	testutil.AssertNoError(t, err)

	players := map[model.Color]string{model.White: "alice", model.Black: "bob"}
	turn := model.White
	for _, mv := range []model.RemoteMove{
		move("e2", "e4"), move("f7", "f5"),
		move("e4", "f5"), move("g7", "g5"),
		move("d1", "h5"),
	} {
		testutil.AssertNoError(t, gs.HandleMove(gameID, players[turn], mv))
		turn = turn.Opposite()
	}

	state, err := gs.GetGameState(gameID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, state.Outcome, model.Checkmate)
	testutil.AssertEqual(t, state.PGN, "1. e4 f5 2. exf5 g5 3. Qh5# 1-0")
	testutil.AssertTrue(t, state.IsCheck)
	testutil.AssertEqual(t, len(state.LegalMoves), 0)
	testutil.AssertEqual(t, len(state.CapturedPieces.White), 1)
	testutil.AssertEqual(t, state.CapturedPieces.White[0].Type, model.Pawn)
	testutil.AssertEqual(t, len(state.CapturedPieces.Black), 0)

	testutil.AssertErrorIs(t, gs.HandleMove(gameID, "bob", move("a7", "a6")), model.ErrGameNotActive)
}

func TestConnections(t *testing.T) {
	gs, _ := newTestService(t)
	gameID, _, err := gs.CreateGame("alice", CreateGameRequest{})
	testutil.AssertNoError(t, err)

	first, second := &fakeConn{}, &fakeConn{}
	connect(t, gs, gameID, "alice", first)
	testutil.AssertErrorIs(t, connectErr(gs, gameID, "alice", second), ErrAlreadyConnected)

	// A stale connection does not remove the live one.
	gs.UnregisterConnection(gameID, "alice", second)
	testutil.AssertErrorIs(t, connectErr(gs, gameID, "alice", second), ErrAlreadyConnected)

	gs.UnregisterConnection(gameID, "alice", first)
	connect(t, gs, gameID, "alice", second)

	_, err = gs.JoinGame(gameID, "bob")
	testutil.AssertNoError(t, err)
	testutil.AssertErrorIs(t, connectErr(gs, gameID, "carol", &fakeConn{}), ErrNotInGame)

	broken := &fakeConn{fail: true}
	testutil.AssertErrorIs(t, connectErr(gs, gameID, "bob", broken), errConnClosed)
}

func TestBroadcastDropsFailedConnection(t *testing.T) {
	gs, _ := newTestService(t)
	gameID, _, err := gs.CreateGame("alice", CreateGameRequest{})
	testutil.AssertNoError(t, err)
	_, err = gs.JoinGame(gameID, "bob")
	testutil.AssertNoError(t, err)

	alice, bob := &fakeConn{}, &fakeConn{}
	connect(t, gs, gameID, "alice", alice)
	connect(t, gs, gameID, "bob", bob)

	bob.setFail(true)
	testutil.AssertNoError(t, gs.HandleMove(gameID, "alice", move("d2", "d4")))
	testutil.AssertEqual(t, alice.count(), 2)

	connect(t, gs, gameID, "bob", &fakeConn{}, "bob reconnects after the drop")
}

// overlapConn records whether two writes were ever in flight at once.
type overlapConn struct {
	inFlight int32
	overlap  atomic.Bool
	writes   atomic.Int32
}

func (o *overlapConn) WriteJSON(v interface{}) error {
	if atomic.AddInt32(&o.inFlight, 1) > 1 {
		o.overlap.Store(true)
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&o.inFlight, -1)
	o.writes.Add(1)
	return nil
}

func TestConnectionWritesAreSerialized(t *testing.T) {
	gs, gm := newTestService(t)
	gameID, _, err := gs.CreateGame("alice", CreateGameRequest{})
	testutil.AssertNoError(t, err)
	_, err = gs.JoinGame(gameID, "bob")
	testutil.AssertNoError(t, err)

	conn := &overlapConn{}
	writer := connect(t, gs, gameID, "alice", conn)
	s, err := gm.GetSession(gameID)
	testutil.AssertNoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.broadcast()
		}()
		go func() {
			defer wg.Done()
			_ = writer.WriteJSON(ws.NewError("not your turn"))
		}()
	}
	wg.Wait()

	testutil.AssertFalse(t, conn.overlap.Load(), "concurrent writes reached the connection")
	testutil.AssertEqual(t, conn.writes.Load(), int32(17))
}

func TestClockExpiry(t *testing.T) {
	_, gm := newTestService(t)

	gameID, _, err := gm.CreateGame("alice", GameOptions{Clock: time.Millisecond})
	testutil.AssertNoError(t, err)
	_, err = gm.AddPlayerToGame(gameID, "bob")
	testutil.AssertNoError(t, err)
	time.Sleep(20 * time.Millisecond)

	_, err = gm.MakeMove(gameID, "alice", move("e2", "e4"))
	testutil.AssertErrorIs(t, err, model.ErrTimeExpired)

	state, err := gm.GetGameState(gameID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, state.Expired, model.White)
	testutil.AssertEqual(t, len(state.LegalMoves), 0)
	testutil.AssertEqual(t, state.Players.White.TimeLeft, int64(0))

	_, err = gm.MakeMove(gameID, "bob", move("e7", "e5"))
	testutil.AssertErrorIs(t, err, model.ErrTimeExpired)
}

func TestClockIncrementAfterMove(t *testing.T) {
	_, gm := newTestService(t)

	gameID, _, err := gm.CreateGame("alice", GameOptions{Clock: time.Minute, Increment: time.Minute})
	testutil.AssertNoError(t, err)
	_, err = gm.AddPlayerToGame(gameID, "bob")
	testutil.AssertNoError(t, err)
	_, err = gm.MakeMove(gameID, "alice", move("e2", "e4"))
	testutil.AssertNoError(t, err)

	state, err := gm.GetGameState(gameID)
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, state.Players.White.TimeLeft > 60000, "white gained the increment: %d", state.Players.White.TimeLeft)
	testutil.AssertTrue(t, state.Players.Black.TimeLeft <= 60000)
}

func TestWatchClocksBroadcastsFlag(t *testing.T) {
	_, gm := newTestService(t)

	gameID, _, err := gm.CreateGame("alice", GameOptions{Clock: time.Millisecond})
	testutil.AssertNoError(t, err)
	_, err = gm.AddPlayerToGame(gameID, "bob")
	testutil.AssertNoError(t, err)
	conn := &fakeConn{}
	connect(t, gm, gameID, "bob", conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go gm.WatchClocks(ctx, time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for conn.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("no state broadcast after the flag fell")
		}
		time.Sleep(5 * time.Millisecond)
	}
	testutil.AssertEqual(t, conn.lastState(t).Expired, model.White)
}

func TestExportPGN(t *testing.T) {
	gs, _ := newTestService(t)
	gameID, _, err := gs.CreateGame("alice", CreateGameRequest{})
	testutil.AssertNoError(t, err)
	_, err = gs.JoinGame(gameID, "bob")
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, gs.HandleMove(gameID, "alice", move("e2", "e4")))
	testutil.AssertNoError(t, gs.HandleMove(gameID, "bob", move("e7", "e5")))

	plain, err := gs.ExportPGN(gameID, false)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(plain), "1. e4 e5")

	compressed, err := gs.ExportPGN(gameID, true)
	testutil.AssertNoError(t, err)
	decoder, err := zstd.NewReader(nil)
	testutil.AssertNoError(t, err)
	defer decoder.Close()
	decoded, err := decoder.DecodeAll(compressed, nil)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(decoded), "1. e4 e5")

	_, err = gs.ExportPGN("missing", false)
	testutil.AssertErrorIs(t, err, ErrGameNotFound)
}

func TestImportGame(t *testing.T) {
	gs, _ := newTestService(t)

	gameID, color, err := gs.ImportGame("alice", "1. e4 e5 2. Nf3")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, color, model.Black, "importer plays the side to move")

	color, err = gs.JoinGame(gameID, "bob")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, color, model.White)

	testutil.AssertNoError(t, gs.HandleMove(gameID, "alice", move("b8", "c6")))
	state, err := gs.GetGameState(gameID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, state.PGN, "1. e4 e5 2. Nf3 Nc6")

	_, _, err = gs.ImportGame("alice", "1. e4 e4")
	var replayErr *model.ReplayError
	testutil.AssertTrue(t, errors.As(err, &replayErr), "error = %v, want *model.ReplayError", err)
}
