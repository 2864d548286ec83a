package game

import (
	"testing"
	"time"
)

func awaitingGame(t *testing.T) *Game {
	t.Helper()
	second := "player-two"
	commitment := Commitment{1}
	return &Game{
		GameID:                 "forfeit-game",
		AmountToMatch:          1000,
		FirstPlayer:            "player-one",
		FirstPlayerCommitment:  Commitment{2},
		SecondPlayer:           &second,
		SecondPlayerCommitment: &commitment,
		State:                  StateAwaitingReveal,
		CreatedAt:              time.Unix(1_700_000_000, 0),
	}
}

func TestShouldForfeit_Boundary(t *testing.T) {
	settings := Settings{GracePeriod: 7 * 24 * time.Hour}
	revealedAt := time.Unix(1_700_000_100, 0)
	deadline := revealedAt.Add(settings.GracePeriod)

	g := awaitingGame(t)
	g.FirstPlayerRevealedAt = &revealedAt
	choice := ChoiceBonk
	g.FirstPlayerChoice = &choice

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"immediately after reveal", revealedAt, false},
		{"one second before deadline", deadline.Add(-time.Second), false},
		{"exactly at deadline", deadline, true}, // inclusive boundary
		{"after deadline", deadline.Add(time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldForfeit(g, settings, tt.now)
			if got.Forfeited != tt.want {
				t.Errorf("ShouldForfeit() forfeited = %v, want %v", got.Forfeited, tt.want)
			}
			if got.Forfeited && got.Winner != SideFirst {
				t.Errorf("ShouldForfeit() winner = %v, want SideFirst", got.Winner)
			}
		})
	}
}

func TestShouldForfeit_SecondPlayerRevealed(t *testing.T) {
	settings := Settings{GracePeriod: time.Hour}
	revealedAt := time.Unix(1_700_000_100, 0)

	g := awaitingGame(t)
	g.SecondPlayerRevealedAt = &revealedAt
	choice := ChoicePaper
	g.SecondPlayerChoice = &choice

	got := ShouldForfeit(g, settings, revealedAt.Add(2*time.Hour))
	if !got.Forfeited || got.Winner != SideSecond {
		t.Errorf("ShouldForfeit() = %+v, want forfeited win for SideSecond", got)
	}
}

func TestShouldForfeit_NotApplicable(t *testing.T) {
	settings := Settings{GracePeriod: time.Hour}
	revealedAt := time.Unix(1_700_000_100, 0)
	longAfter := revealedAt.Add(100 * time.Hour)

	t.Run("no reveals", func(t *testing.T) {
		g := awaitingGame(t)
		if got := ShouldForfeit(g, settings, longAfter); got.Forfeited {
			t.Errorf("ShouldForfeit() = %+v, want no forfeiture with zero reveals", got)
		}
	})

	t.Run("both revealed", func(t *testing.T) {
		g := awaitingGame(t)
		first, second := ChoiceBonk, ChoiceScissors
		g.FirstPlayerChoice, g.FirstPlayerRevealedAt = &first, &revealedAt
		g.SecondPlayerChoice, g.SecondPlayerRevealedAt = &second, &revealedAt
		if got := ShouldForfeit(g, settings, longAfter); got.Forfeited {
			t.Errorf("ShouldForfeit() = %+v, want none once both revealed", got)
		}
	})

	t.Run("game not awaiting reveal", func(t *testing.T) {
		g := awaitingGame(t)
		g.State = StateFirstPlayerWon
		g.FirstPlayerRevealedAt = &revealedAt
		if got := ShouldForfeit(g, settings, longAfter); got.Forfeited {
			t.Errorf("ShouldForfeit() = %+v, want none in terminal state", got)
		}
	})
}
