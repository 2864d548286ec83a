package game

import "time"

type State string

const (
	StateCreated         State = "CREATED"
	StateAwaitingReveal  State = "AWAITING_REVEAL"
	StateFirstPlayerWon  State = "FIRST_PLAYER_WON"
	StateSecondPlayerWon State = "SECOND_PLAYER_WON"
	StateDraw            State = "DRAW"
)

// Terminal reports whether no further transition may touch the game.
func (s State) Terminal() bool {
	return s == StateFirstPlayerWon || s == StateSecondPlayerWon || s == StateDraw
}

// Game is the authoritative record of one match, keyed by
// (first player, game id). Fields that exist only after an event are
// pointers so an absent value can never be confused with a zero one.
type Game struct {
	GameID        string `json:"game_id"`
	StakeMint     string `json:"stake_mint"`
	AmountToMatch int64  `json:"amount_to_match"`

	FirstPlayer           string     `json:"first_player"`
	FirstPlayerCommitment Commitment `json:"first_player_commitment"`
	FirstPlayerChoice     *Choice    `json:"first_player_choice,omitempty"`
	FirstPlayerRevealedAt *time.Time `json:"first_player_revealed_at,omitempty"`

	SecondPlayer           *string     `json:"second_player,omitempty"`
	SecondPlayerCommitment *Commitment `json:"second_player_commitment,omitempty"`
	SecondPlayerChoice     *Choice     `json:"second_player_choice,omitempty"`
	SecondPlayerRevealedAt *time.Time  `json:"second_player_revealed_at,omitempty"`

	Winner       *string    `json:"winner,omitempty"`
	Loser        *string    `json:"loser,omitempty"`
	AmountWon    *int64     `json:"amount_won,omitempty"`
	AmountBurned *int64     `json:"amount_burned,omitempty"`
	DrawnAt      *time.Time `json:"drawn_at,omitempty"`

	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`

	// Version guards compare-and-swap updates; bumped on every write.
	Version int64 `json:"-"`
}

// Key is the derived identity: unique per (creator, game id) pair.
func (g *Game) Key() string {
	return g.FirstPlayer + "/" + g.GameID
}

// Escrow account identities are derived from the game key the same way
// for every implementation, so funds are always scoped to one game and
// one player.
func (g *Game) FirstPlayerEscrow() string {
	return "escrow:" + g.Key() + ":first_player"
}

func (g *Game) SecondPlayerEscrow() string {
	return "escrow:" + g.Key() + ":second_player"
}

// PlayerSide maps an account to its side in this game.
func (g *Game) PlayerSide(player string) (Side, bool) {
	if player == g.FirstPlayer {
		return SideFirst, true
	}
	if g.SecondPlayer != nil && player == *g.SecondPlayer {
		return SideSecond, true
	}
	return 0, false
}

// BothRevealed reports whether settlement can proceed without forfeiture.
func (g *Game) BothRevealed() bool {
	return g.FirstPlayerRevealedAt != nil && g.SecondPlayerRevealedAt != nil
}

// Clone deep-copies the record so staged transaction state never aliases
// committed state.
func (g *Game) Clone() *Game {
	c := *g
	c.FirstPlayerChoice = cloneptr(g.FirstPlayerChoice)
	c.FirstPlayerRevealedAt = cloneptr(g.FirstPlayerRevealedAt)
	c.SecondPlayer = cloneptr(g.SecondPlayer)
	c.SecondPlayerCommitment = cloneptr(g.SecondPlayerCommitment)
	c.SecondPlayerChoice = cloneptr(g.SecondPlayerChoice)
	c.SecondPlayerRevealedAt = cloneptr(g.SecondPlayerRevealedAt)
	c.Winner = cloneptr(g.Winner)
	c.Loser = cloneptr(g.Loser)
	c.AmountWon = cloneptr(g.AmountWon)
	c.AmountBurned = cloneptr(g.AmountBurned)
	c.DrawnAt = cloneptr(g.DrawnAt)
	return &c
}

func cloneptr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// GameView is the read-only presentation of a game with derived flags.
type GameView struct {
	*Game
	IsClaimable  bool `json:"is_claimable"`
	IsForfeited  bool `json:"is_forfeited"`
	IsRevealable bool `json:"is_revealable"`
}

// NewGameView computes the derived flags at a point in time.
func NewGameView(g *Game, settings Settings, now time.Time) *GameView {
	forfeit := ShouldForfeit(g, settings, now)
	return &GameView{
		Game:         g,
		IsClaimable:  g.State == StateAwaitingReveal && (g.BothRevealed() || forfeit.Forfeited),
		IsForfeited:  forfeit.Forfeited,
		IsRevealable: g.State == StateAwaitingReveal && !g.BothRevealed(),
	}
}
