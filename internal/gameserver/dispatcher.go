package gameserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClaytonMcArthur/not-kahoot/internal/wireproto"
)

const answerPoints = 100

// Dispatcher implements the per-message-type state machine described in
// spec.md §4.3. Handle acquires the registry's mutex for the full
// mutate-and-marshal step so that every broadcast's recipient list and
// payload are snapshotted at the same linearization point as the state
// transition that produced them (spec §5) — then returns the resulting
// Effects for the caller to deliver with the lock already released, so a
// slow socket write never holds up the next message.
type Dispatcher struct {
	registry *Registry
	log      *slog.Logger
	now      func() time.Time
}

// NewDispatcher returns a Dispatcher backed by registry.
func NewDispatcher(registry *Registry, log *slog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, log: log, now: time.Now}
}

// Handle runs one inbound frame to completion and returns the Effects that
// must still be delivered.
func (d *Dispatcher) Handle(conn *Connection, frame *wireproto.Frame) []Effect {
	d.registry.mu.Lock()
	defer d.registry.mu.Unlock()

	switch frame.Type {
	case "REGISTER":
		return d.handleRegister(conn, frame)
	case "LIST_GAMES":
		return d.handleListGames(conn)
	case "CREATE_GAME":
		return d.handleCreateGame(conn, frame)
	case "JOIN_GAME":
		return d.handleJoinGame(conn, frame)
	case "EXIT_GAME":
		return d.handleExitGame(conn, frame)
	case "SUBMIT_QUESTION":
		return d.handleSubmitQuestion(conn, frame)
	case "START_GAME":
		return d.handleStartGame(conn, frame)
	case "ANSWER":
		return d.handleAnswer(conn, frame)
	case "NEXT_QUESTION":
		return d.handleNextQuestion(conn, frame)
	case "END_GAME":
		return d.handleEndGame(conn, frame)
	case "CHAT":
		return d.handleChat(conn, frame)
	default:
		return d.errorTo(conn, fmt.Sprintf("Unknown type: %s", frame.Type))
	}
}

// departGame removes username from game, promoting a new host and
// deleting the game entirely if it's now empty. Reports whether the game
// was deleted (in which case no PLAYER_LEFT broadcast should be sent).
func (d *Dispatcher) departGame(pin string, game *Game, username string) (deleted bool) {
	game.removePlayer(username)
	if game.State == StateLobby {
		delete(game.Scores, username)
	}
	if game.Host == username && len(game.Players) > 0 {
		game.Host = game.Players[0]
	}
	if len(game.Players) == 0 {
		d.registry.remove(pin)
		return true
	}
	return false
}

// actorOf resolves the acting username: the message's own username field
// overrides the connection's registered identity (spec §4.3's resolution
// rule), falling back to "Unknown" when neither is set.
func actorOf(conn *Connection, frame *wireproto.Frame) string {
	if u := frame.String("username"); u != "" {
		return u
	}
	if conn.Username != "" {
		return conn.Username
	}
	return "Unknown"
}

func (d *Dispatcher) errorTo(conn *Connection, message string) []Effect {
	return []Effect{d.effect([]*Connection{conn}, errorMessage{Type: "ERROR", Message: message})}
}

func (d *Dispatcher) effect(targets []*Connection, v any) Effect {
	payload, err := json.Marshal(v)
	if err != nil {
		d.log.Error("marshaling outbound frame", "error", err)
		return Effect{}
	}
	payload = append(payload, '\n')
	return Effect{Targets: targets, Payload: payload}
}

func (d *Dispatcher) handleRegister(conn *Connection, frame *wireproto.Frame) []Effect {
	username := frame.String("username")
	if username == "" {
		return d.errorTo(conn, "username is required")
	}
	conn.Username = username
	return []Effect{d.effect([]*Connection{conn}, registerOK{Type: "REGISTER_OK", Username: username})}
}

func (d *Dispatcher) handleListGames(conn *Connection) []Effect {
	d.registry.sweepEnded(d.now())
	games := d.registry.listPublicLobbies()
	return []Effect{d.effect([]*Connection{conn}, gamesList{Type: "GAMES_LIST", Games: games})}
}

func (d *Dispatcher) handleCreateGame(conn *Connection, frame *wireproto.Frame) []Effect {
	if conn.Username == "" {
		return d.errorTo(conn, "Register first")
	}
	host := actorOf(conn, frame)
	theme := frame.String("theme")
	isPublic := frame.Bool("isPublic")
	maxPlayers, _ := frame.Int("maxPlayers")

	pin := d.registry.allocatePin()
	game := NewGame(pin, host, theme, isPublic, maxPlayers, d.now())
	d.registry.put(game)
	conn.CurrentPin = pin

	return []Effect{d.effect([]*Connection{conn}, gameCreated{Type: "GAME_CREATED", Game: game})}
}

func (d *Dispatcher) handleJoinGame(conn *Connection, frame *wireproto.Frame) []Effect {
	pin := frame.String("pin")
	game := d.registry.get(pin)
	if game == nil {
		return d.errorTo(conn, "Game not found")
	}
	if game.State != StateLobby {
		return d.errorTo(conn, "Game already started")
	}
	username := actorOf(conn, frame)
	if !game.hasPlayer(username) && game.isFull() {
		return d.errorTo(conn, "Game is full")
	}

	game.addPlayer(username)
	conn.CurrentPin = pin

	effects := []Effect{d.effect([]*Connection{conn}, joinedGame{Type: "JOINED_GAME", Game: game})}
	effects = append(effects, d.effect(d.connectionsAt(pin, conn), playerJoined{
		Type: "PLAYER_JOINED", Pin: pin, Game: game,
	}))
	return effects
}

func (d *Dispatcher) handleExitGame(conn *Connection, frame *wireproto.Frame) []Effect {
	if conn.Username == "" || conn.CurrentPin == "" {
		return d.errorTo(conn, "Not in a game")
	}
	pin := frame.StringOr("pin", conn.CurrentPin)
	game := d.registry.get(pin)
	if game == nil {
		return d.errorTo(conn, "Game not found")
	}

	conn.CurrentPin = ""
	if d.departGame(pin, game, conn.Username) {
		return nil
	}
	return []Effect{d.effect(d.connectionsAt(pin), playerLeft{Type: "PLAYER_LEFT", Pin: pin, Game: game})}
}

func (d *Dispatcher) handleSubmitQuestion(conn *Connection, frame *wireproto.Frame) []Effect {
	if conn.Username == "" {
		return d.errorTo(conn, "Register first")
	}
	pin := frame.String("pin")
	game := d.registry.get(pin)
	if game == nil {
		return d.errorTo(conn, "Game not found")
	}
	if game.State != StateLobby {
		return d.errorTo(conn, "Game already started")
	}

	actor := actorOf(conn, frame)
	text := frame.String("question")
	answerTrue := frame.Truthy("answerTrue")
	game.Questions = append(game.Questions, Question{
		Author: actor, Text: text, AnswerTrue: answerTrue,
	})

	return []Effect{d.effect(d.connectionsAt(pin), questionSubmitted{
		Type: "QUESTION_SUBMITTED", Pin: pin, Username: actor,
		Question: text, AnswerTrue: answerTrue,
	})}
}

func (d *Dispatcher) handleStartGame(conn *Connection, frame *wireproto.Frame) []Effect {
	pin := frame.StringOr("pin", conn.CurrentPin)
	game := d.registry.get(pin)
	if game == nil {
		return d.errorTo(conn, "Game not found")
	}
	actor := actorOf(conn, frame)
	if actor != game.Host {
		return d.errorTo(conn, "Only host can start")
	}
	if game.State != StateLobby {
		return d.errorTo(conn, "Game already started")
	}
	if len(game.Questions) == 0 {
		return d.errorTo(conn, "Add at least 1 question before starting")
	}

	game.State = StateInProgress
	game.CurrentQuestionIndex = 0
	game.resetAnswers()

	return []Effect{d.effect(d.connectionsAt(pin), gameStarted{Type: "GAME_STARTED", Pin: pin, Game: game})}
}

func (d *Dispatcher) handleAnswer(conn *Connection, frame *wireproto.Frame) []Effect {
	pin := frame.StringOr("pin", conn.CurrentPin)
	game := d.registry.get(pin)
	if game == nil {
		return d.errorTo(conn, "Game not found")
	}
	if game.State != StateInProgress {
		return d.errorTo(conn, "Game is not in progress")
	}

	actor := actorOf(conn, frame)
	game.addPlayer(actor)
	idx := game.CurrentQuestionIndex
	correct := frame.Bool("correct")

	if game.hasAnswered(idx, actor) {
		return []Effect{d.effect(d.connectionsAt(pin), scoreUpdate{
			Type: "SCORE_UPDATE", Pin: pin, Game: game,
			AnsweredBy: actor, Correct: correct, Duplicate: true,
		})}
	}

	game.markAnswered(idx, actor)
	if correct {
		game.Scores[actor] += answerPoints
	}

	return []Effect{d.effect(d.connectionsAt(pin), scoreUpdate{
		Type: "SCORE_UPDATE", Pin: pin, Game: game,
		AnsweredBy: actor, Correct: correct, Duplicate: false,
	})}
}

func (d *Dispatcher) handleNextQuestion(conn *Connection, frame *wireproto.Frame) []Effect {
	pin := frame.StringOr("pin", conn.CurrentPin)
	game := d.registry.get(pin)
	if game == nil {
		return d.errorTo(conn, "Game not found")
	}
	actor := actorOf(conn, frame)
	if actor != game.Host {
		return d.errorTo(conn, "Only host can advance questions")
	}
	if game.State != StateInProgress {
		return d.errorTo(conn, "Game is not in progress")
	}

	idx := game.CurrentQuestionIndex + 1
	if idx >= len(game.Questions) {
		game.State = StateEnded
		game.endedAt = d.now()
		return []Effect{d.effect(d.connectionsAt(pin), gameEnded{Type: "GAME_ENDED", Pin: pin, Game: game})}
	}

	game.CurrentQuestionIndex = idx
	return []Effect{d.effect(d.connectionsAt(pin), nextQuestion{Type: "NEXT_QUESTION", Pin: pin, Game: game})}
}

func (d *Dispatcher) handleEndGame(conn *Connection, frame *wireproto.Frame) []Effect {
	pin := frame.StringOr("pin", conn.CurrentPin)
	game := d.registry.get(pin)
	if game == nil {
		return d.errorTo(conn, "Game not found")
	}
	actor := actorOf(conn, frame)
	if actor != game.Host {
		return d.errorTo(conn, "Only host can end the game")
	}
	if game.State == StateEnded {
		return nil
	}

	game.State = StateEnded
	game.endedAt = d.now()
	return []Effect{d.effect(d.connectionsAt(pin), gameEnded{Type: "GAME_ENDED", Pin: pin, Game: game})}
}

func (d *Dispatcher) handleChat(conn *Connection, frame *wireproto.Frame) []Effect {
	pin := frame.StringOr("pin", conn.CurrentPin)
	game := d.registry.get(pin)
	if game == nil {
		return d.errorTo(conn, "Game not found")
	}
	actor := actorOf(conn, frame)
	message := frame.String("message")

	return []Effect{d.effect(d.connectionsAt(pin), chatMessage{
		Type: "CHAT", Pin: pin, From: actor, Message: message,
	})}
}

// connectionsAt returns every connection currently joined to pin, via the
// listener's live connection index. extra connections (e.g. the sender,
// even when it is not in that index) are appended without duplication.
func (d *Dispatcher) connectionsAt(pin string, extra ...*Connection) []*Connection {
	targets := d.registry.connectionsByPin(pin)
	for _, e := range extra {
		found := false
		for _, t := range targets {
			if t == e {
				found = true
				break
			}
		}
		if !found {
			targets = append(targets, e)
		}
	}
	return targets
}
