package gameserver

import "time"

// State is one of the three phases a Game moves through, monotonically.
type State string

const (
	StateLobby      State = "lobby"
	StateInProgress State = "inProgress"
	StateEnded      State = "ended"
)

// DefaultMaxPlayers is used when CREATE_GAME omits maxPlayers or supplies
// a non-positive value.
const DefaultMaxPlayers = 20

// Question is one submitted true/false question.
type Question struct {
	Author     string `json:"author"`
	Text       string `json:"text"`
	AnswerTrue bool   `json:"answerTrue"`
}

// Game is the authoritative record for one live game. Its json tags double
// as the outbound wire representation (spec §4.3's "serialized game"
// shape) — fields not part of that shape are unexported.
//
// A Game is only ever mutated while its owning Registry's mutex is held;
// see dispatcher.go.
type Game struct {
	Pin                  string         `json:"pin"`
	Host                 string         `json:"host"`
	State                State          `json:"state"`
	Theme                string         `json:"theme"`
	IsPublic             bool           `json:"isPublic"`
	MaxPlayers           int            `json:"maxPlayers"`
	Players              []string       `json:"players"`
	Scores               map[string]int `json:"scores"`
	Questions            []Question     `json:"questions"`
	CurrentQuestionIndex int            `json:"currentQuestionIndex"`

	answeredByIndex map[int]map[string]bool
	createdAt       time.Time
	endedAt         time.Time
}

// NewGame creates a game in the lobby state with host as its sole player.
func NewGame(pin, host, theme string, isPublic bool, maxPlayers int, now time.Time) *Game {
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayers
	}
	g := &Game{
		Pin:             pin,
		Host:            host,
		State:           StateLobby,
		Theme:           theme,
		IsPublic:        isPublic,
		MaxPlayers:      maxPlayers,
		Players:         nil,
		Scores:          map[string]int{},
		Questions:       nil,
		answeredByIndex: map[int]map[string]bool{},
		createdAt:       now,
	}
	g.addPlayer(host)
	return g
}

func (g *Game) hasPlayer(username string) bool {
	for _, p := range g.Players {
		if p == username {
			return true
		}
	}
	return false
}

// addPlayer appends username to the ordered player list (if not already
// present) and ensures a score entry exists.
func (g *Game) addPlayer(username string) {
	if !g.hasPlayer(username) {
		g.Players = append(g.Players, username)
	}
	if _, ok := g.Scores[username]; !ok {
		g.Scores[username] = 0
	}
}

// removePlayer removes username from the ordered player list, preserving
// the relative order of the rest. It does not touch Scores — callers
// decide whether to drop the score entry (spec §9: only in the lobby).
func (g *Game) removePlayer(username string) {
	for i, p := range g.Players {
		if p == username {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			return
		}
	}
}

func (g *Game) isFull() bool {
	return len(g.Players) >= g.MaxPlayers
}

func (g *Game) hasAnswered(idx int, username string) bool {
	return g.answeredByIndex[idx][username]
}

func (g *Game) markAnswered(idx int, username string) {
	set, ok := g.answeredByIndex[idx]
	if !ok {
		set = map[string]bool{}
		g.answeredByIndex[idx] = set
	}
	set[username] = true
}

// resetAnswers clears the answered-set, used when a game starts.
func (g *Game) resetAnswers() {
	g.answeredByIndex = map[int]map[string]bool{}
}
