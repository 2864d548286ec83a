package cache

import (
	"context"
	"testing"

	"bps/internal/game"
)

func TestPublisher_Interface(t *testing.T) {
	// Verify that Publisher implements game.Notifier
	var _ game.Notifier = (*Publisher)(nil)
}

func TestNewPublisher_NilService(t *testing.T) {
	p := NewPublisher(nil)
	if p != nil {
		t.Errorf("NewPublisher(nil) = %v, want nil", p)
	}

	// A nil publisher must be safe to call
	p.Notify(game.Event{Type: game.EventGameCreated, Creator: "alice", GameID: "g1"})

	if _, err := p.GetSnapshot(context.Background(), "alice", "g1"); err == nil {
		t.Error("GetSnapshot() on nil publisher should return an error")
	}
}
