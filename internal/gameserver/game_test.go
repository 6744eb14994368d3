package gameserver

import (
	"testing"
	"time"
)

func TestNewGameAddsHostAsPlayer(t *testing.T) {
	g := NewGame("123456", "alice", "science", true, 0, time.Now())

	if g.MaxPlayers != DefaultMaxPlayers {
		t.Fatalf("expected default max players %d, got %d", DefaultMaxPlayers, g.MaxPlayers)
	}
	if !g.hasPlayer("alice") {
		t.Fatal("expected host to be a player")
	}
	if g.Scores["alice"] != 0 {
		t.Fatalf("expected host score 0, got %d", g.Scores["alice"])
	}
	if g.State != StateLobby {
		t.Fatalf("expected lobby state, got %s", g.State)
	}
}

func TestRemovePlayerPreservesOrder(t *testing.T) {
	g := NewGame("123456", "alice", "", false, 3, time.Now())
	g.addPlayer("bob")
	g.addPlayer("carol")

	g.removePlayer("bob")

	want := []string{"alice", "carol"}
	if len(g.Players) != len(want) {
		t.Fatalf("expected %v, got %v", want, g.Players)
	}
	for i, p := range want {
		if g.Players[i] != p {
			t.Fatalf("expected %v, got %v", want, g.Players)
		}
	}
}

func TestIsFullRespectsMaxPlayers(t *testing.T) {
	g := NewGame("123456", "alice", "", false, 2, time.Now())
	if g.isFull() {
		t.Fatal("game with 1/2 players should not be full")
	}
	g.addPlayer("bob")
	if !g.isFull() {
		t.Fatal("game with 2/2 players should be full")
	}
}

func TestMarkAnsweredIsPerQuestionIndex(t *testing.T) {
	g := NewGame("123456", "alice", "", false, 0, time.Now())
	g.markAnswered(0, "alice")

	if !g.hasAnswered(0, "alice") {
		t.Fatal("expected alice to have answered question 0")
	}
	if g.hasAnswered(1, "alice") {
		t.Fatal("answering question 0 should not mark question 1 answered")
	}

	g.resetAnswers()
	if g.hasAnswered(0, "alice") {
		t.Fatal("resetAnswers should clear prior answers")
	}
}
