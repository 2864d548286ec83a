package game

// Side identifies one of the two players in a game.
type Side int

const (
	SideFirst Side = iota + 1
	SideSecond
)

func (s Side) String() string {
	switch s {
	case SideFirst:
		return "first_player"
	case SideSecond:
		return "second_player"
	default:
		return "unknown"
	}
}

// Outcome is the result of settling two revealed choices.
type Outcome struct {
	Draw   bool
	Winner Side // set only when Draw is false
}

// Resolve applies the fixed rules: bonk beats scissors, scissors beats
// paper, paper beats bonk. Equal choices are a draw.
func Resolve(first, second Choice) Outcome {
	switch {
	case first.Beats(second):
		return Outcome{Winner: SideFirst}
	case second.Beats(first):
		return Outcome{Winner: SideSecond}
	default:
		return Outcome{Draw: true}
	}
}

// SplitPot divides a pot of two matched stakes 90/10 between winner and
// burn. All arithmetic is integer smallest-units; the remainder rounds
// toward the burn side so won+burned always equals the pot exactly.
func SplitPot(amountToMatch int64) (won, burned int64) {
	pot := 2 * amountToMatch
	won = pot * 9 / 10
	burned = pot - won
	return won, burned
}
