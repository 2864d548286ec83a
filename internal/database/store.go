package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bps/internal/game"
)

// GameStore is the Postgres-backed game.Store. Record writes and ledger
// movements issued inside Atomic share one SQL transaction, so a failed
// transition leaves nothing behind.
type GameStore struct {
	db *sql.DB
}

func NewGameStore(db *sql.DB) *GameStore {
	return &GameStore{db: db}
}

const gameColumns = `creator, game_id, stake_mint, amount_to_match,
	first_player_commitment, first_player_choice, first_player_revealed_at,
	second_player, second_player_commitment, second_player_choice, second_player_revealed_at,
	winner, loser, amount_won, amount_burned, drawn_at,
	state, created_at, version`

func (s *GameStore) Atomic(ctx context.Context, fn func(tx game.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&pgTx{ctx: ctx, tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *GameStore) GetGame(ctx context.Context, creator, gameID string) (*game.Game, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE creator = $1 AND game_id = $2`,
		creator, gameID)
	return scanGame(row, creator, gameID)
}

func (s *GameStore) Balance(ctx context.Context, account string) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE account = $1`, account).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading balance of %s: %w", account, err)
	}
	return balance, nil
}

// TotalBurned sums the burn ledger, for reconciliation.
func (s *GameStore) TotalBurned(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM burns`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing burns: %w", err)
	}
	return total, nil
}

type pgTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *pgTx) CreateGame(g *game.Game) error {
	res, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO games (`+gameColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		 ON CONFLICT (creator, game_id) DO NOTHING`,
		gameArgs(g)...)
	if err != nil {
		return fmt.Errorf("inserting game %s: %w", g.Key(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", g.Key(), game.ErrDuplicateGame)
	}
	return nil
}

func (t *pgTx) GetGame(creator, gameID string) (*game.Game, error) {
	// FOR UPDATE holds the row until commit, so concurrent transitions
	// on the same game serialize here instead of failing the version check.
	row := t.tx.QueryRowContext(t.ctx,
		`SELECT `+gameColumns+` FROM games WHERE creator = $1 AND game_id = $2 FOR UPDATE`,
		creator, gameID)
	return scanGame(row, creator, gameID)
}

func (t *pgTx) UpdateGame(g *game.Game) error {
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE games SET
			stake_mint = $3, amount_to_match = $4,
			first_player_commitment = $5, first_player_choice = $6, first_player_revealed_at = $7,
			second_player = $8, second_player_commitment = $9, second_player_choice = $10, second_player_revealed_at = $11,
			winner = $12, loser = $13, amount_won = $14, amount_burned = $15, drawn_at = $16,
			state = $17, created_at = $18, version = version + 1
		 WHERE creator = $1 AND game_id = $2 AND version = $19`,
		gameArgs(g)...)
	if err != nil {
		return fmt.Errorf("updating game %s: %w", g.Key(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := t.tx.QueryRowContext(t.ctx,
			`SELECT EXISTS (SELECT 1 FROM games WHERE creator = $1 AND game_id = $2)`,
			g.FirstPlayer, g.GameID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%s: %w", g.Key(), game.ErrGameNotFound)
		}
		return fmt.Errorf("%s: stale version %d: %w", g.Key(), g.Version, game.ErrIllegalState)
	}
	return nil
}

func (t *pgTx) DeleteGame(creator, gameID string) error {
	res, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM games WHERE creator = $1 AND game_id = $2`, creator, gameID)
	if err != nil {
		return fmt.Errorf("deleting game %s/%s: %w", creator, gameID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", creator, gameID, game.ErrGameNotFound)
	}
	return nil
}

func (t *pgTx) Deposit(account, escrow string, amount int64) error {
	return t.move(account, escrow, amount)
}

func (t *pgTx) Transfer(escrow, account string, amount int64) error {
	return t.move(escrow, account, amount)
}

func (t *pgTx) Burn(escrow string, amount int64) error {
	if err := t.debit(escrow, amount); err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO burns (escrow, amount) VALUES ($1, $2)`, escrow, amount); err != nil {
		return fmt.Errorf("recording burn of %d from %s: %w", amount, escrow, err)
	}
	return nil
}

func (t *pgTx) Credit(account string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("credit %d to %s: %w", amount, account, game.ErrInvalidAmount)
	}
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO accounts (account, balance) VALUES ($1, $2)
		 ON CONFLICT (account) DO UPDATE SET balance = accounts.balance + EXCLUDED.balance`,
		account, amount)
	if err != nil {
		return fmt.Errorf("crediting %d to %s: %w", amount, account, err)
	}
	return nil
}

func (t *pgTx) move(from, to string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("move %d: %w", amount, game.ErrInvalidAmount)
	}
	if err := t.debit(from, amount); err != nil {
		return err
	}
	return t.Credit(to, amount)
}

func (t *pgTx) debit(account string, amount int64) error {
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE accounts SET balance = balance - $2
		 WHERE account = $1 AND balance >= $2`,
		account, amount)
	if err != nil {
		return fmt.Errorf("debiting %d from %s: %w", amount, account, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("debit %d from %s: %w", amount, account, game.ErrInsufficientBalance)
	}
	return nil
}

func gameArgs(g *game.Game) []any {
	return []any{
		g.FirstPlayer, g.GameID, g.StakeMint, g.AmountToMatch,
		g.FirstPlayerCommitment.String(), choiceArg(g.FirstPlayerChoice), timeArg(g.FirstPlayerRevealedAt),
		g.SecondPlayer, commitmentArg(g.SecondPlayerCommitment), choiceArg(g.SecondPlayerChoice), timeArg(g.SecondPlayerRevealedAt),
		g.Winner, g.Loser, g.AmountWon, g.AmountBurned, timeArg(g.DrawnAt),
		string(g.State), g.CreatedAt, g.Version,
	}
}

func choiceArg(c *game.Choice) any {
	if c == nil {
		return nil
	}
	return int16(*c)
}

func commitmentArg(c *game.Commitment) any {
	if c == nil {
		return nil
	}
	return c.String()
}

func timeArg(ts *time.Time) any {
	if ts == nil {
		return nil
	}
	return *ts
}

func scanGame(row *sql.Row, creator, gameID string) (*game.Game, error) {
	var (
		g                game.Game
		firstCommitment  string
		firstChoice      sql.NullInt16
		firstRevealedAt  sql.NullTime
		secondCommitment sql.NullString
		secondChoice     sql.NullInt16
		secondRevealedAt sql.NullTime
		drawnAt          sql.NullTime
		state            string
	)

	err := row.Scan(
		&g.FirstPlayer, &g.GameID, &g.StakeMint, &g.AmountToMatch,
		&firstCommitment, &firstChoice, &firstRevealedAt,
		&g.SecondPlayer, &secondCommitment, &secondChoice, &secondRevealedAt,
		&g.Winner, &g.Loser, &g.AmountWon, &g.AmountBurned, &drawnAt,
		&state, &g.CreatedAt, &g.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", creator, gameID, game.ErrGameNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning game %s/%s: %w", creator, gameID, err)
	}

	g.State = game.State(state)

	g.FirstPlayerCommitment, err = game.ParseCommitment(firstCommitment)
	if err != nil {
		return nil, fmt.Errorf("game %s/%s: first commitment: %w", creator, gameID, err)
	}
	if secondCommitment.Valid {
		c, err := game.ParseCommitment(secondCommitment.String)
		if err != nil {
			return nil, fmt.Errorf("game %s/%s: second commitment: %w", creator, gameID, err)
		}
		g.SecondPlayerCommitment = &c
	}

	if firstChoice.Valid {
		c := game.Choice(firstChoice.Int16)
		g.FirstPlayerChoice = &c
	}
	if secondChoice.Valid {
		c := game.Choice(secondChoice.Int16)
		g.SecondPlayerChoice = &c
	}
	if firstRevealedAt.Valid {
		ts := firstRevealedAt.Time
		g.FirstPlayerRevealedAt = &ts
	}
	if secondRevealedAt.Valid {
		ts := secondRevealedAt.Time
		g.SecondPlayerRevealedAt = &ts
	}
	if drawnAt.Valid {
		ts := drawnAt.Time
		g.DrawnAt = &ts
	}

	return &g, nil
}
