package gameserver

import (
	"testing"
	"time"
)

func TestAllocatePinIsSixDigitsAndUnique(t *testing.T) {
	r := NewRegistry()
	r.mu.Lock()
	defer r.mu.Unlock()

	pin := r.allocatePin()
	if len(pin) != 6 {
		t.Fatalf("expected 6-digit pin, got %q", pin)
	}
	r.put(NewGame(pin, "alice", "", false, 0, time.Now()))

	other := r.allocatePin()
	if other == pin {
		t.Fatal("allocatePin returned a pin already in use")
	}
}

func TestSweepEndedRemovesOldEndedGames(t *testing.T) {
	r := NewRegistry()
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	fresh := NewGame("111111", "alice", "", false, 0, now)
	fresh.State = StateEnded
	fresh.endedAt = now.Add(-1 * time.Second)
	r.put(fresh)

	stale := NewGame("222222", "bob", "", false, 0, now)
	stale.State = StateEnded
	stale.endedAt = now.Add(-3 * time.Minute)
	r.put(stale)

	r.sweepEnded(now)

	if r.get("111111") == nil {
		t.Fatal("recently-ended game should not have been swept")
	}
	if r.get("222222") != nil {
		t.Fatal("game ended over the TTL ago should have been swept")
	}
}

func TestListPublicLobbiesFiltersStateAndVisibility(t *testing.T) {
	r := NewRegistry()
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	public := NewGame("111111", "alice", "", true, 0, now)
	r.put(public)

	private := NewGame("222222", "bob", "", false, 0, now)
	r.put(private)

	started := NewGame("333333", "carol", "", true, 0, now)
	started.State = StateInProgress
	r.put(started)

	lobbies := r.listPublicLobbies()
	if len(lobbies) != 1 || lobbies[0].Pin != "111111" {
		t.Fatalf("expected only the public lobby game, got %+v", lobbies)
	}
}
