package bridge

import (
	"testing"
	"time"
)

func TestHubPublishDeliversToSubscriber(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe("alice")
	defer hub.Unsubscribe("alice", ch)

	hub.Publish("alice", []byte(`{"type":"CHAT"}`))

	select {
	case got := <-ch:
		if string(got) != `{"type":"CHAT"}` {
			t.Fatalf("unexpected payload: %s", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestHubPublishIgnoresOtherUsernames(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe("alice")
	defer hub.Unsubscribe("alice", ch)

	hub.Publish("bob", []byte(`{"type":"CHAT"}`))

	select {
	case got := <-ch:
		t.Fatalf("unexpected delivery: %s", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe("alice")
	hub.Unsubscribe("alice", ch)

	hub.Publish("alice", []byte(`{"type":"CHAT"}`))

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected no delivery after unsubscribe")
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubPublishErrorEncodesMessage(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe("alice")
	defer hub.Unsubscribe("alice", ch)

	hub.PublishError("alice", "boom")

	select {
	case got := <-ch:
		if string(got) != `{"message":"boom","type":"ERROR"}` {
			t.Fatalf("unexpected payload: %s", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error event")
	}
}
