package game

import (
	"context"
	"fmt"
	"sync"
)

// Store is the durable home of game records and the escrow ledger.
type Store interface {
	// Atomic applies fn as one transaction: every record write and fund
	// movement inside commits together or not at all.
	Atomic(ctx context.Context, fn func(tx Tx) error) error

	// GetGame reads the current record without locking it.
	GetGame(ctx context.Context, creator, gameID string) (*Game, error)

	// Balance reads an account's balance in smallest units.
	Balance(ctx context.Context, account string) (int64, error)
}

// Tx is the transactional view a state transition runs against. Record
// writes and ledger movements issued here are a single atomic unit.
type Tx interface {
	CreateGame(g *Game) error                  // create-if-absent, ErrDuplicateGame otherwise
	GetGame(creator, gameID string) (*Game, error)
	UpdateGame(g *Game) error                  // compare-and-swap on Version
	DeleteGame(creator, gameID string) error

	// Ledger operations. Deposit moves stake from a player account into
	// an escrow, Transfer pays out of an escrow, Burn destroys escrowed
	// units, Credit mints into an account (admin/test funding).
	Deposit(account, escrow string, amount int64) error
	Transfer(escrow, account string, amount int64) error
	Burn(escrow string, amount int64) error
	Credit(account string, amount int64) error
}

// MemoryStore is the in-process Store used by tests and local runs.
// A single mutex serializes transactions; each transaction stages a
// copy of the state and swaps it in only on success.
type MemoryStore struct {
	mu       sync.Mutex
	games    map[string]*Game
	accounts map[string]int64
	burned   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:    make(map[string]*Game),
		accounts: make(map[string]int64),
	}
}

func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		games:    make(map[string]*Game, len(s.games)),
		accounts: make(map[string]int64, len(s.accounts)),
		burned:   s.burned,
	}
	for k, g := range s.games {
		tx.games[k] = g.Clone()
	}
	for k, v := range s.accounts {
		tx.accounts[k] = v
	}

	if err := fn(tx); err != nil {
		return err
	}

	s.games = tx.games
	s.accounts = tx.accounts
	s.burned = tx.burned
	return nil
}

func (s *MemoryStore) GetGame(ctx context.Context, creator, gameID string) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[creator+"/"+gameID]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", creator, gameID, ErrGameNotFound)
	}
	return g.Clone(), nil
}

func (s *MemoryStore) Balance(ctx context.Context, account string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[account], nil
}

// TotalBurned reports the cumulative burned units, for conservation checks.
func (s *MemoryStore) TotalBurned() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.burned
}

type memoryTx struct {
	games    map[string]*Game
	accounts map[string]int64
	burned   int64
}

func (t *memoryTx) CreateGame(g *Game) error {
	key := g.Key()
	if _, exists := t.games[key]; exists {
		return fmt.Errorf("%s: %w", key, ErrDuplicateGame)
	}
	t.games[key] = g.Clone()
	return nil
}

func (t *memoryTx) GetGame(creator, gameID string) (*Game, error) {
	g, ok := t.games[creator+"/"+gameID]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", creator, gameID, ErrGameNotFound)
	}
	return g.Clone(), nil
}

func (t *memoryTx) UpdateGame(g *Game) error {
	key := g.Key()
	stored, ok := t.games[key]
	if !ok {
		return fmt.Errorf("%s: %w", key, ErrGameNotFound)
	}
	if stored.Version != g.Version {
		// A concurrent transition won; the caller's precondition is stale.
		return fmt.Errorf("%s: version %d != %d: %w", key, g.Version, stored.Version, ErrIllegalState)
	}
	next := g.Clone()
	next.Version++
	t.games[key] = next
	return nil
}

func (t *memoryTx) DeleteGame(creator, gameID string) error {
	key := creator + "/" + gameID
	if _, ok := t.games[key]; !ok {
		return fmt.Errorf("%s: %w", key, ErrGameNotFound)
	}
	delete(t.games, key)
	return nil
}

func (t *memoryTx) Deposit(account, escrow string, amount int64) error {
	return t.move(account, escrow, amount)
}

func (t *memoryTx) Transfer(escrow, account string, amount int64) error {
	return t.move(escrow, account, amount)
}

func (t *memoryTx) Burn(escrow string, amount int64) error {
	if t.accounts[escrow] < amount {
		return fmt.Errorf("burn %d from %s: %w", amount, escrow, ErrInsufficientBalance)
	}
	t.accounts[escrow] -= amount
	t.burned += amount
	return nil
}

func (t *memoryTx) Credit(account string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("credit %d to %s: %w", amount, account, ErrInvalidAmount)
	}
	t.accounts[account] += amount
	return nil
}

func (t *memoryTx) move(from, to string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("move %d: %w", amount, ErrInvalidAmount)
	}
	if t.accounts[from] < amount {
		return fmt.Errorf("move %d from %s: %w", amount, from, ErrInsufficientBalance)
	}
	t.accounts[from] -= amount
	t.accounts[to] += amount
	return nil
}
