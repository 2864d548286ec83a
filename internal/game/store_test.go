package game

import (
	"context"
	"errors"
	"testing"
)

func storedGame(id string) *Game {
	return &Game{
		GameID:        id,
		FirstPlayer:   testCreator,
		StakeMint:     testMint,
		AmountToMatch: testStake,
		State:         StateCreated,
	}
}

func TestMemoryStore_RollbackOnError(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.Atomic(ctx, func(tx Tx) error {
		if err := tx.Credit(testCreator, 500); err != nil {
			return err
		}
		if err := tx.CreateGame(storedGame("g-rb")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Atomic() error = %v, want boom", err)
	}

	if got, _ := store.Balance(ctx, testCreator); got != 0 {
		t.Errorf("balance after rollback = %d, want 0", got)
	}
	if _, err := store.GetGame(ctx, testCreator, "g-rb"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("GetGame() after rollback error = %v, want ErrGameNotFound", err)
	}
}

func TestMemoryStore_CommitIsVisible(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.Atomic(ctx, func(tx Tx) error {
		if err := tx.Credit(testCreator, 500); err != nil {
			return err
		}
		return tx.CreateGame(storedGame("g-ok"))
	})
	if err != nil {
		t.Fatalf("Atomic() error = %v", err)
	}

	if got, _ := store.Balance(ctx, testCreator); got != 500 {
		t.Errorf("balance = %d, want 500", got)
	}
	g, err := store.GetGame(ctx, testCreator, "g-ok")
	if err != nil {
		t.Fatalf("GetGame() error = %v", err)
	}
	if g.State != StateCreated {
		t.Errorf("state = %v, want %v", g.State, StateCreated)
	}
}

func TestMemoryStore_VersionConflict(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Atomic(ctx, func(tx Tx) error {
		return tx.CreateGame(storedGame("g-cas"))
	}); err != nil {
		t.Fatalf("seed error = %v", err)
	}

	stale, err := store.GetGame(ctx, testCreator, "g-cas")
	if err != nil {
		t.Fatalf("GetGame() error = %v", err)
	}

	// Another transition bumps the version underneath the stale copy.
	if err := store.Atomic(ctx, func(tx Tx) error {
		g, err := tx.GetGame(testCreator, "g-cas")
		if err != nil {
			return err
		}
		g.State = StateAwaitingReveal
		return tx.UpdateGame(g)
	}); err != nil {
		t.Fatalf("first update error = %v", err)
	}

	err = store.Atomic(ctx, func(tx Tx) error {
		return tx.UpdateGame(stale)
	})
	if !errors.Is(err, ErrIllegalState) {
		t.Errorf("stale UpdateGame() error = %v, want ErrIllegalState", err)
	}

	g, err := store.GetGame(ctx, testCreator, "g-cas")
	if err != nil {
		t.Fatalf("GetGame() error = %v", err)
	}
	if g.State != StateAwaitingReveal {
		t.Errorf("state = %v, stale write must not land", g.State)
	}
}

func TestMemoryStore_DuplicateCreate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Atomic(ctx, func(tx Tx) error {
		return tx.CreateGame(storedGame("g-dup"))
	}); err != nil {
		t.Fatalf("first create error = %v", err)
	}

	err := store.Atomic(ctx, func(tx Tx) error {
		return tx.CreateGame(storedGame("g-dup"))
	})
	if !errors.Is(err, ErrDuplicateGame) {
		t.Errorf("second create error = %v, want ErrDuplicateGame", err)
	}
}

func TestMemoryStore_Ledger(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	t.Run("overdraft rejected", func(t *testing.T) {
		err := store.Atomic(ctx, func(tx Tx) error {
			return tx.Deposit(testCreator, "escrow:x", 100)
		})
		if !errors.Is(err, ErrInsufficientBalance) {
			t.Errorf("Deposit() error = %v, want ErrInsufficientBalance", err)
		}
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		err := store.Atomic(ctx, func(tx Tx) error {
			if err := tx.Credit(testCreator, 100); err != nil {
				return err
			}
			return tx.Deposit(testCreator, "escrow:x", -1)
		})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Deposit() error = %v, want ErrInvalidAmount", err)
		}
		if got, _ := store.Balance(ctx, testCreator); got != 0 {
			t.Errorf("credit survived failed transaction: %d", got)
		}
	})

	t.Run("burn is counted", func(t *testing.T) {
		err := store.Atomic(ctx, func(tx Tx) error {
			if err := tx.Credit("escrow:y", 300); err != nil {
				return err
			}
			return tx.Burn("escrow:y", 120)
		})
		if err != nil {
			t.Fatalf("Atomic() error = %v", err)
		}
		if got, _ := store.Balance(ctx, "escrow:y"); got != 180 {
			t.Errorf("escrow balance = %d, want 180", got)
		}
		if got := store.TotalBurned(); got != 120 {
			t.Errorf("total burned = %d, want 120", got)
		}
	})

	t.Run("burn overdraft rejected", func(t *testing.T) {
		err := store.Atomic(ctx, func(tx Tx) error {
			return tx.Burn("escrow:y", 10_000)
		})
		if !errors.Is(err, ErrInsufficientBalance) {
			t.Errorf("Burn() error = %v, want ErrInsufficientBalance", err)
		}
	})
}

func TestMemoryStore_CloneIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Atomic(ctx, func(tx Tx) error {
		return tx.CreateGame(storedGame("g-iso"))
	}); err != nil {
		t.Fatalf("seed error = %v", err)
	}

	g, err := store.GetGame(ctx, testCreator, "g-iso")
	if err != nil {
		t.Fatalf("GetGame() error = %v", err)
	}
	g.State = StateDraw
	winner := "mallory"
	g.Winner = &winner

	fresh, err := store.GetGame(ctx, testCreator, "g-iso")
	if err != nil {
		t.Fatalf("GetGame() error = %v", err)
	}
	if fresh.State != StateCreated || fresh.Winner != nil {
		t.Errorf("caller mutation leaked into the store: %+v", fresh)
	}
}
