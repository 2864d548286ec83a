package game

import "time"

// ForfeitResult reports whether a non-revealing player has run out the
// grace period, and which side wins if so.
type ForfeitResult struct {
	Forfeited bool `json:"forfeited"`
	Winner    Side `json:"winner,omitempty"`
}

// ShouldForfeit is a pure predicate: no timers, no side effects. It is
// evaluated lazily whenever a caller invokes Claim or the read query.
//
// Forfeiture applies only while the game awaits reveals, only when
// exactly one player has revealed, and only once the grace period from
// that reveal has fully elapsed (inclusive boundary: forfeited at
// exactly revealedAt+grace). With zero reveals the only recovery path
// is the administrative unwind.
func ShouldForfeit(g *Game, settings Settings, now time.Time) ForfeitResult {
	if g.State != StateAwaitingReveal {
		return ForfeitResult{}
	}

	firstRevealed := g.FirstPlayerRevealedAt != nil
	secondRevealed := g.SecondPlayerRevealedAt != nil
	if firstRevealed == secondRevealed {
		// Both revealed (normal claim applies) or neither (no forfeiture).
		return ForfeitResult{}
	}

	var revealedAt time.Time
	var winner Side
	if firstRevealed {
		revealedAt = *g.FirstPlayerRevealedAt
		winner = SideFirst
	} else {
		revealedAt = *g.SecondPlayerRevealedAt
		winner = SideSecond
	}

	if now.Before(revealedAt.Add(settings.GracePeriod)) {
		return ForfeitResult{}
	}
	return ForfeitResult{Forfeited: true, Winner: winner}
}
