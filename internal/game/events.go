package game

type EventType string

const (
	EventGameCreated    EventType = "game_created"
	EventGameCancelled  EventType = "game_cancelled"
	EventGameJoined     EventType = "game_joined"
	EventChoiceRevealed EventType = "choice_revealed"
	EventGameResolved   EventType = "game_resolved"
	EventGameUnwound    EventType = "game_unwound"
)

// Event is emitted on every successful state transition. Delivery is
// fire-and-forget; settlement correctness never depends on a subscriber
// receiving it.
type Event struct {
	Type    EventType `json:"type"`
	Creator string    `json:"creator"`
	GameID  string    `json:"game_id"`
	State   State     `json:"state,omitempty"` // empty when the game was removed
	Game    *Game     `json:"game,omitempty"`
}

// Notifier receives transition events. Implementations must not block.
type Notifier interface {
	Notify(ev Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ev Event)

func (f NotifierFunc) Notify(ev Event) { f(ev) }

// MultiNotifier fans an event out to several sinks.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ev Event) {
	for _, n := range m {
		n.Notify(ev)
	}
}
