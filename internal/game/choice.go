package game

import (
	"fmt"
	"strings"
)

// Choice is a player's move. The byte values are committed into the
// SHA-256 hash, so they are fixed forever: 0 stays reserved as the
// "unset" sentinel and must never become a valid choice.
type Choice byte

const (
	ChoiceBonk     Choice = 1
	ChoicePaper    Choice = 2
	ChoiceScissors Choice = 3
)

func (c Choice) Valid() bool {
	return c == ChoiceBonk || c == ChoicePaper || c == ChoiceScissors
}

func (c Choice) String() string {
	switch c {
	case ChoiceBonk:
		return "bonk"
	case ChoicePaper:
		return "paper"
	case ChoiceScissors:
		return "scissors"
	default:
		return fmt.Sprintf("choice(%d)", byte(c))
	}
}

// Beats reports whether c wins against other: bonk beats scissors,
// scissors beats paper, paper beats bonk.
func (c Choice) Beats(other Choice) bool {
	switch {
	case c == ChoiceBonk && other == ChoiceScissors:
		return true
	case c == ChoiceScissors && other == ChoicePaper:
		return true
	case c == ChoicePaper && other == ChoiceBonk:
		return true
	default:
		return false
	}
}

// ParseChoice converts a wire string ("bonk", "paper", "scissors") to a Choice.
func ParseChoice(s string) (Choice, error) {
	switch strings.ToLower(s) {
	case "bonk":
		return ChoiceBonk, nil
	case "paper":
		return ChoicePaper, nil
	case "scissors":
		return ChoiceScissors, nil
	default:
		return 0, fmt.Errorf("invalid choice %q", s)
	}
}
