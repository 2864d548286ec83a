package game

import (
	"context"
	"fmt"
	"log"
	"time"
)

const (
	GAME_ID_MIN_LEN = 3
	GAME_ID_MAX_LEN = 24

	// Upper bound keeps pot arithmetic (2A*9) far from int64 overflow.
	MAX_STAKE_AMOUNT = int64(1_000_000_000_000_000)

	// FEE_VAULT_ACCOUNT collects the per-move protocol fee, outside the pot.
	FEE_VAULT_ACCOUNT = "bps:fee_vault"
)

// Engine owns the game state machine. Every operation is one atomic
// transition against the store: the record write and the fund movements
// it authorizes commit together or not at all. Concurrent transitions
// on the same game serialize through the store's transaction and the
// record's version; a stale precondition fails cleanly.
type Engine struct {
	store    Store
	settings Settings
	notifier Notifier
	now      func() time.Time
}

func NewEngine(store Store, settings Settings, notifier Notifier) *Engine {
	return &Engine{
		store:    store,
		settings: settings,
		notifier: notifier,
		now:      time.Now,
	}
}

// Settings returns the injected configuration (read-only).
func (e *Engine) Settings() Settings {
	return e.settings
}

type CreateParams struct {
	GameID     string
	StakeMint  string
	Amount     int64
	Player     string
	Commitment Commitment
}

// Create opens a game: the first player posts a commitment and deposits
// the stake into a fresh escrow scoped to this game and player.
func (e *Engine) Create(ctx context.Context, p CreateParams) (*Game, error) {
	if n := len(p.GameID); n < GAME_ID_MIN_LEN || n > GAME_ID_MAX_LEN {
		return nil, fmt.Errorf("game id %q: %w", p.GameID, ErrInvalidGameID)
	}
	if p.Amount <= 0 || p.Amount > MAX_STAKE_AMOUNT {
		return nil, fmt.Errorf("stake %d: %w", p.Amount, ErrInvalidAmount)
	}

	g := &Game{
		GameID:                p.GameID,
		StakeMint:             p.StakeMint,
		AmountToMatch:         p.Amount,
		FirstPlayer:           p.Player,
		FirstPlayerCommitment: p.Commitment,
		State:                 StateCreated,
		CreatedAt:             e.now(),
		Version:               1,
	}

	err := e.store.Atomic(ctx, func(tx Tx) error {
		if err := tx.CreateGame(g); err != nil {
			return err
		}
		if err := e.chargeMoveFee(tx, p.Player); err != nil {
			return err
		}
		return tx.Deposit(p.Player, g.FirstPlayerEscrow(), p.Amount)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[GAME] %s created by %s (stake %d %s)", g.Key(), p.Player, p.Amount, p.StakeMint)
	e.notify(Event{Type: EventGameCreated, Creator: g.FirstPlayer, GameID: g.GameID, State: g.State, Game: g})
	return g, nil
}

// Cancel removes a game nobody has joined yet and refunds the creator.
func (e *Engine) Cancel(ctx context.Context, creator, gameID, caller string) error {
	err := e.store.Atomic(ctx, func(tx Tx) error {
		g, err := tx.GetGame(creator, gameID)
		if err != nil {
			return err
		}
		if g.State != StateCreated {
			return fmt.Errorf("cancel %s in state %s: %w", g.Key(), g.State, ErrIllegalState)
		}
		if caller != g.FirstPlayer {
			return fmt.Errorf("cancel %s by %s: %w", g.Key(), caller, ErrUnauthorized)
		}
		if err := tx.Transfer(g.FirstPlayerEscrow(), g.FirstPlayer, g.AmountToMatch); err != nil {
			return err
		}
		return tx.DeleteGame(creator, gameID)
	})
	if err != nil {
		return err
	}

	log.Printf("[GAME] %s/%s cancelled", creator, gameID)
	e.notify(Event{Type: EventGameCancelled, Creator: creator, GameID: gameID})
	return nil
}

type JoinParams struct {
	Player     string
	Commitment Commitment
}

// Join matches the stake, stores the second commitment, and moves the
// game to awaiting reveal.
func (e *Engine) Join(ctx context.Context, creator, gameID string, p JoinParams) (*Game, error) {
	var joined *Game
	err := e.store.Atomic(ctx, func(tx Tx) error {
		g, err := tx.GetGame(creator, gameID)
		if err != nil {
			return err
		}
		if g.State != StateCreated {
			return fmt.Errorf("join %s in state %s: %w", g.Key(), g.State, ErrIllegalState)
		}
		if p.Player == g.FirstPlayer {
			return fmt.Errorf("join %s: %w", g.Key(), ErrSelfJoin)
		}

		if err := e.chargeMoveFee(tx, p.Player); err != nil {
			return err
		}
		if err := tx.Deposit(p.Player, g.SecondPlayerEscrow(), g.AmountToMatch); err != nil {
			return err
		}

		player := p.Player
		commitment := p.Commitment
		g.SecondPlayer = &player
		g.SecondPlayerCommitment = &commitment
		g.State = StateAwaitingReveal
		if err := tx.UpdateGame(g); err != nil {
			return err
		}
		joined = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[GAME] %s joined by %s", joined.Key(), p.Player)
	e.notify(Event{Type: EventGameJoined, Creator: creator, GameID: gameID, State: joined.State, Game: joined})
	return joined, nil
}

type RevealParams struct {
	Player string
	Choice Choice
	Secret []byte
}

// Reveal discloses a (choice, secret) pair, verified against the
// caller's stored commitment. The state stays AWAITING_REVEAL until
// both players have revealed.
func (e *Engine) Reveal(ctx context.Context, creator, gameID string, p RevealParams) (*Game, error) {
	var revealed *Game
	err := e.store.Atomic(ctx, func(tx Tx) error {
		g, err := tx.GetGame(creator, gameID)
		if err != nil {
			return err
		}
		if g.State.Terminal() {
			return fmt.Errorf("reveal %s: %w", g.Key(), ErrAlreadyResolved)
		}
		if g.State != StateAwaitingReveal {
			return fmt.Errorf("reveal %s in state %s: %w", g.Key(), g.State, ErrIllegalState)
		}

		side, ok := g.PlayerSide(p.Player)
		if !ok {
			return fmt.Errorf("reveal %s by %s: %w", g.Key(), p.Player, ErrUnauthorized)
		}

		var commitment Commitment
		switch side {
		case SideFirst:
			if g.FirstPlayerChoice != nil {
				return fmt.Errorf("reveal %s: first player already revealed: %w", g.Key(), ErrIllegalState)
			}
			commitment = g.FirstPlayerCommitment
		case SideSecond:
			if g.SecondPlayerChoice != nil {
				return fmt.Errorf("reveal %s: second player already revealed: %w", g.Key(), ErrIllegalState)
			}
			commitment = *g.SecondPlayerCommitment
		}

		if err := Verify(commitment, p.Choice, p.Secret); err != nil {
			return fmt.Errorf("reveal %s by %s: %w", g.Key(), p.Player, err)
		}

		choice := p.Choice
		now := e.now()
		switch side {
		case SideFirst:
			g.FirstPlayerChoice = &choice
			g.FirstPlayerRevealedAt = &now
		case SideSecond:
			g.SecondPlayerChoice = &choice
			g.SecondPlayerRevealedAt = &now
		}
		if err := tx.UpdateGame(g); err != nil {
			return err
		}
		revealed = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[GAME] %s: %s revealed %s", revealed.Key(), p.Player, p.Choice)
	e.notify(Event{Type: EventChoiceRevealed, Creator: creator, GameID: gameID, State: revealed.State, Game: revealed})
	return revealed, nil
}

// Claim settles the pot once both players have revealed, or once a lone
// reveal has outlived the grace period (forfeiture). Anyone may call it.
func (e *Engine) Claim(ctx context.Context, creator, gameID string) (*Game, error) {
	var resolved *Game
	err := e.store.Atomic(ctx, func(tx Tx) error {
		g, err := tx.GetGame(creator, gameID)
		if err != nil {
			return err
		}
		if g.State.Terminal() {
			return fmt.Errorf("claim %s: %w", g.Key(), ErrAlreadyResolved)
		}
		if g.State != StateAwaitingReveal {
			return fmt.Errorf("claim %s in state %s: %w", g.Key(), g.State, ErrIllegalState)
		}

		now := e.now()
		var outcome Outcome
		if g.BothRevealed() {
			outcome = Resolve(*g.FirstPlayerChoice, *g.SecondPlayerChoice)
		} else {
			forfeit := ShouldForfeit(g, e.settings, now)
			if !forfeit.Forfeited {
				return fmt.Errorf("claim %s: %w", g.Key(), ErrNotYetClaimable)
			}
			outcome = Outcome{Winner: forfeit.Winner}
		}

		if outcome.Draw {
			if err := e.settleDraw(tx, g, now); err != nil {
				return err
			}
		} else if err := e.settleWin(tx, g, outcome.Winner); err != nil {
			return err
		}

		if err := tx.UpdateGame(g); err != nil {
			return err
		}
		resolved = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[GAME] %s resolved: %s", resolved.Key(), resolved.State)
	e.notify(Event{Type: EventGameResolved, Creator: creator, GameID: gameID, State: resolved.State, Game: resolved})
	return resolved, nil
}

// AdminUnwind refunds both stakes of an abandoned match and removes the
// record. Only the settings authority may call it, and only before any
// reveal; forfeiture covers everything after the first reveal.
func (e *Engine) AdminUnwind(ctx context.Context, creator, gameID, caller string) error {
	err := e.store.Atomic(ctx, func(tx Tx) error {
		if caller != e.settings.Authority {
			return fmt.Errorf("unwind %s/%s by %s: %w", creator, gameID, caller, ErrUnauthorized)
		}
		g, err := tx.GetGame(creator, gameID)
		if err != nil {
			return err
		}
		if g.State != StateAwaitingReveal {
			return fmt.Errorf("unwind %s in state %s: %w", g.Key(), g.State, ErrIllegalState)
		}
		if g.FirstPlayerRevealedAt != nil || g.SecondPlayerRevealedAt != nil {
			return fmt.Errorf("unwind %s after a reveal: %w", g.Key(), ErrIllegalState)
		}

		if err := tx.Transfer(g.FirstPlayerEscrow(), g.FirstPlayer, g.AmountToMatch); err != nil {
			return err
		}
		if err := tx.Transfer(g.SecondPlayerEscrow(), *g.SecondPlayer, g.AmountToMatch); err != nil {
			return err
		}
		return tx.DeleteGame(creator, gameID)
	})
	if err != nil {
		return err
	}

	log.Printf("[GAME] %s/%s unwound by %s", creator, gameID, caller)
	e.notify(Event{Type: EventGameUnwound, Creator: creator, GameID: gameID})
	return nil
}

// View returns the current record with derived flags for presentation.
func (e *Engine) View(ctx context.Context, creator, gameID string) (*GameView, error) {
	g, err := e.store.GetGame(ctx, creator, gameID)
	if err != nil {
		return nil, err
	}
	return NewGameView(g, e.settings, e.now()), nil
}

func (e *Engine) settleDraw(tx Tx, g *Game, now time.Time) error {
	if err := tx.Transfer(g.FirstPlayerEscrow(), g.FirstPlayer, g.AmountToMatch); err != nil {
		return err
	}
	if err := tx.Transfer(g.SecondPlayerEscrow(), *g.SecondPlayer, g.AmountToMatch); err != nil {
		return err
	}
	drawnAt := now
	g.DrawnAt = &drawnAt
	g.State = StateDraw
	return nil
}

func (e *Engine) settleWin(tx Tx, g *Game, side Side) error {
	won, burned := SplitPot(g.AmountToMatch)

	var winner, loser string
	switch side {
	case SideFirst:
		winner, loser = g.FirstPlayer, *g.SecondPlayer
		g.State = StateFirstPlayerWon
	case SideSecond:
		winner, loser = *g.SecondPlayer, g.FirstPlayer
		g.State = StateSecondPlayerWon
	}

	// The winner's share drains the first escrow entirely and part of
	// the second; what's left in the second escrow is exactly the burn
	// share, so the pot always balances to 2A.
	if err := tx.Transfer(g.FirstPlayerEscrow(), winner, g.AmountToMatch); err != nil {
		return err
	}
	if err := tx.Transfer(g.SecondPlayerEscrow(), winner, won-g.AmountToMatch); err != nil {
		return err
	}
	if err := tx.Burn(g.SecondPlayerEscrow(), burned); err != nil {
		return err
	}

	g.Winner = &winner
	g.Loser = &loser
	g.AmountWon = &won
	g.AmountBurned = &burned
	return nil
}

func (e *Engine) chargeMoveFee(tx Tx, player string) error {
	if e.settings.MoveFee <= 0 {
		return nil
	}
	return tx.Deposit(player, FEE_VAULT_ACCOUNT, e.settings.MoveFee)
}

func (e *Engine) notify(ev Event) {
	if e.notifier != nil {
		e.notifier.Notify(ev)
	}
}
