package gameserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/ClaytonMcArthur/not-kahoot/internal/wireproto"
)

func newTestDispatcher() (*Dispatcher, *Registry) {
	registry := NewRegistry()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(registry, log), registry
}

// newTestConn returns a Connection backed by an in-memory pipe so Send
// never blocks or errors in these tests.
func newTestConn(t *testing.T) *Connection {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	go io.Copy(io.Discard, client)
	return NewConnection(server)
}

func frameFrom(t *testing.T, v map[string]any) *wireproto.Frame {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshaling test frame: %v", err)
	}
	f, err := wireproto.ParseFrame(data)
	if err != nil {
		t.Fatalf("parsing test frame: %v", err)
	}
	return f
}

func typeOf(t *testing.T, payload []byte) string {
	t.Helper()
	var v struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		t.Fatalf("unmarshaling effect payload: %v", err)
	}
	return v.Type
}

func TestRegisterRejectsEmptyUsername(t *testing.T) {
	d, _ := newTestDispatcher()
	conn := newTestConn(t)

	effects := d.Handle(conn, frameFrom(t, map[string]any{"type": "REGISTER"}))

	if len(effects) != 1 || typeOf(t, effects[0].Payload) != "ERROR" {
		t.Fatalf("expected ERROR effect, got %+v", effects)
	}
	if conn.Username != "" {
		t.Fatal("username should not be set on empty REGISTER")
	}
}

func TestRegisterThenCreateGame(t *testing.T) {
	d, _ := newTestDispatcher()
	conn := newTestConn(t)

	d.Handle(conn, frameFrom(t, map[string]any{"type": "REGISTER", "username": "alice"}))
	effects := d.Handle(conn, frameFrom(t, map[string]any{
		"type": "CREATE_GAME", "theme": "science", "isPublic": true,
	}))

	if len(effects) != 1 || typeOf(t, effects[0].Payload) != "GAME_CREATED" {
		t.Fatalf("expected GAME_CREATED, got %+v", effects)
	}
	if conn.CurrentPin == "" {
		t.Fatal("expected CurrentPin to be set after CREATE_GAME")
	}
}

func TestCreateGameRequiresRegistration(t *testing.T) {
	d, _ := newTestDispatcher()
	conn := newTestConn(t)

	effects := d.Handle(conn, frameFrom(t, map[string]any{"type": "CREATE_GAME"}))
	if len(effects) != 1 || typeOf(t, effects[0].Payload) != "ERROR" {
		t.Fatalf("expected ERROR effect, got %+v", effects)
	}
}

func TestJoinGameFullRejectsExtraPlayers(t *testing.T) {
	d, registry := newTestDispatcher()

	host := newTestConn(t)
	d.Handle(host, frameFrom(t, map[string]any{"type": "REGISTER", "username": "alice"}))
	d.Handle(host, frameFrom(t, map[string]any{"type": "CREATE_GAME", "maxPlayers": 1}))
	pin := host.CurrentPin

	joiner := newTestConn(t)
	d.Handle(joiner, frameFrom(t, map[string]any{"type": "REGISTER", "username": "bob"}))
	effects := d.Handle(joiner, frameFrom(t, map[string]any{"type": "JOIN_GAME", "pin": pin}))

	if len(effects) != 1 || typeOf(t, effects[0].Payload) != "ERROR" {
		t.Fatalf("expected ERROR for full game, got %+v", effects)
	}

	registry.mu.Lock()
	g := registry.get(pin)
	registry.mu.Unlock()
	if g.hasPlayer("bob") {
		t.Fatal("bob should not have joined a full game")
	}
}

func TestStartGameOnlyHostAndRequiresQuestions(t *testing.T) {
	d, _ := newTestDispatcher()

	host := newTestConn(t)
	d.Handle(host, frameFrom(t, map[string]any{"type": "REGISTER", "username": "alice"}))
	d.Handle(host, frameFrom(t, map[string]any{"type": "CREATE_GAME"}))
	pin := host.CurrentPin

	other := newTestConn(t)
	d.Handle(other, frameFrom(t, map[string]any{"type": "REGISTER", "username": "bob"}))
	d.Handle(other, frameFrom(t, map[string]any{"type": "JOIN_GAME", "pin": pin}))

	effects := d.Handle(other, frameFrom(t, map[string]any{"type": "START_GAME", "pin": pin}))
	if len(effects) != 1 || typeOf(t, effects[0].Payload) != "ERROR" {
		t.Fatalf("non-host start should error, got %+v", effects)
	}

	effects = d.Handle(host, frameFrom(t, map[string]any{"type": "START_GAME", "pin": pin}))
	if len(effects) != 1 || typeOf(t, effects[0].Payload) != "ERROR" {
		t.Fatalf("host start with no questions should error, got %+v", effects)
	}

	d.Handle(host, frameFrom(t, map[string]any{
		"type": "SUBMIT_QUESTION", "pin": pin, "question": "2+2=4?", "answerTrue": true,
	}))
	effects = d.Handle(host, frameFrom(t, map[string]any{"type": "START_GAME", "pin": pin}))
	if len(effects) == 0 || typeOf(t, effects[0].Payload) != "GAME_STARTED" {
		t.Fatalf("expected GAME_STARTED, got %+v", effects)
	}
}

func TestAnswerDuplicateDoesNotDoubleScore(t *testing.T) {
	d, registry := newTestDispatcher()

	host := newTestConn(t)
	d.Handle(host, frameFrom(t, map[string]any{"type": "REGISTER", "username": "alice"}))
	d.Handle(host, frameFrom(t, map[string]any{"type": "CREATE_GAME"}))
	pin := host.CurrentPin
	d.Handle(host, frameFrom(t, map[string]any{
		"type": "SUBMIT_QUESTION", "pin": pin, "question": "q", "answerTrue": true,
	}))
	d.Handle(host, frameFrom(t, map[string]any{"type": "START_GAME", "pin": pin}))

	first := d.Handle(host, frameFrom(t, map[string]any{"type": "ANSWER", "pin": pin, "correct": true}))
	second := d.Handle(host, frameFrom(t, map[string]any{"type": "ANSWER", "pin": pin, "correct": true}))

	var firstMsg, secondMsg scoreUpdate
	if err := json.Unmarshal(first[0].Payload, &firstMsg); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(second[0].Payload, &secondMsg); err != nil {
		t.Fatal(err)
	}
	if firstMsg.Duplicate {
		t.Fatal("first answer should not be flagged duplicate")
	}
	if !secondMsg.Duplicate {
		t.Fatal("second answer to the same question should be flagged duplicate")
	}

	registry.mu.Lock()
	score := registry.get(pin).Scores["alice"]
	registry.mu.Unlock()
	if score != answerPoints {
		t.Fatalf("expected score %d after one correct answer, got %d", answerPoints, score)
	}
}

func TestExitGamePromotesNewHostAndDeletesWhenEmpty(t *testing.T) {
	d, registry := newTestDispatcher()

	host := newTestConn(t)
	d.Handle(host, frameFrom(t, map[string]any{"type": "REGISTER", "username": "alice"}))
	d.Handle(host, frameFrom(t, map[string]any{"type": "CREATE_GAME"}))
	pin := host.CurrentPin

	joiner := newTestConn(t)
	d.Handle(joiner, frameFrom(t, map[string]any{"type": "REGISTER", "username": "bob"}))
	d.Handle(joiner, frameFrom(t, map[string]any{"type": "JOIN_GAME", "pin": pin}))

	d.Handle(host, frameFrom(t, map[string]any{"type": "EXIT_GAME"}))

	registry.mu.Lock()
	g := registry.get(pin)
	registry.mu.Unlock()
	if g.Host != "bob" {
		t.Fatalf("expected bob promoted to host, got %q", g.Host)
	}

	d.Handle(joiner, frameFrom(t, map[string]any{"type": "EXIT_GAME"}))
	registry.mu.Lock()
	gone := registry.get(pin)
	registry.mu.Unlock()
	if gone != nil {
		t.Fatal("expected game to be deleted once empty")
	}
}

func TestUnknownMessageTypeReturnsError(t *testing.T) {
	d, _ := newTestDispatcher()
	conn := newTestConn(t)

	effects := d.Handle(conn, frameFrom(t, map[string]any{"type": "NOT_A_REAL_TYPE"}))
	if len(effects) != 1 || typeOf(t, effects[0].Payload) != "ERROR" {
		t.Fatalf("expected ERROR for unknown type, got %+v", effects)
	}
}

func TestNextQuestionPastLastIndexEndsGame(t *testing.T) {
	d, registry := newTestDispatcher()

	host := newTestConn(t)
	d.Handle(host, frameFrom(t, map[string]any{"type": "REGISTER", "username": "alice"}))
	d.Handle(host, frameFrom(t, map[string]any{"type": "CREATE_GAME"}))
	pin := host.CurrentPin
	d.Handle(host, frameFrom(t, map[string]any{
		"type": "SUBMIT_QUESTION", "pin": pin, "question": "q", "answerTrue": true,
	}))
	d.Handle(host, frameFrom(t, map[string]any{"type": "START_GAME", "pin": pin}))

	effects := d.Handle(host, frameFrom(t, map[string]any{"type": "NEXT_QUESTION", "pin": pin}))
	if len(effects) != 1 || typeOf(t, effects[0].Payload) != "GAME_ENDED" {
		t.Fatalf("expected GAME_ENDED past the last question, got %+v", effects)
	}

	registry.mu.Lock()
	g := registry.get(pin)
	registry.mu.Unlock()
	if g.State != StateEnded {
		t.Fatalf("expected state ended, got %q", g.State)
	}
}

func TestEndGameIsIdempotent(t *testing.T) {
	d, registry := newTestDispatcher()

	host := newTestConn(t)
	d.Handle(host, frameFrom(t, map[string]any{"type": "REGISTER", "username": "alice"}))
	d.Handle(host, frameFrom(t, map[string]any{"type": "CREATE_GAME"}))
	pin := host.CurrentPin
	d.Handle(host, frameFrom(t, map[string]any{
		"type": "SUBMIT_QUESTION", "pin": pin, "question": "q", "answerTrue": true,
	}))
	d.Handle(host, frameFrom(t, map[string]any{"type": "START_GAME", "pin": pin}))

	first := d.Handle(host, frameFrom(t, map[string]any{"type": "END_GAME", "pin": pin}))
	if len(first) != 1 || typeOf(t, first[0].Payload) != "GAME_ENDED" {
		t.Fatalf("expected GAME_ENDED on first END_GAME, got %+v", first)
	}

	registry.mu.Lock()
	endedAt := registry.get(pin).endedAt
	registry.mu.Unlock()

	second := d.Handle(host, frameFrom(t, map[string]any{"type": "END_GAME", "pin": pin}))
	if len(second) != 0 {
		t.Fatalf("expected no re-broadcast on repeat END_GAME, got %+v", second)
	}

	registry.mu.Lock()
	stillEndedAt := registry.get(pin).endedAt
	registry.mu.Unlock()
	if !stillEndedAt.Equal(endedAt) {
		t.Fatalf("expected endedAt to stay %v, got %v", endedAt, stillEndedAt)
	}
}

func TestChatBroadcastsToAllPlayersInPin(t *testing.T) {
	d, registry := newTestDispatcher()

	host := newTestConn(t)
	d.Handle(host, frameFrom(t, map[string]any{"type": "REGISTER", "username": "alice"}))
	d.Handle(host, frameFrom(t, map[string]any{"type": "CREATE_GAME"}))
	pin := host.CurrentPin
	registry.addConn(host)

	joiner := newTestConn(t)
	d.Handle(joiner, frameFrom(t, map[string]any{"type": "REGISTER", "username": "bob"}))
	d.Handle(joiner, frameFrom(t, map[string]any{"type": "JOIN_GAME", "pin": pin}))
	registry.addConn(joiner)

	effects := d.Handle(host, frameFrom(t, map[string]any{
		"type": "CHAT", "pin": pin, "message": "hi",
	}))

	if len(effects) != 1 || typeOf(t, effects[0].Payload) != "CHAT" {
		t.Fatalf("expected one CHAT effect, got %+v", effects)
	}
	if len(effects[0].Targets) != 2 {
		t.Fatalf("expected one CHAT broadcast per active player in the pin, got %d targets", len(effects[0].Targets))
	}
}
