package models

// State is the raffle lifecycle state. Entries are admitted only while
// open; a randomness request moves the raffle to calculating, and the
// fulfillment callback moves it back. No other transitions exist.
type State string

const (
	StateOpen        State = "open"
	StateCalculating State = "calculating"
)

// IsValid reports whether s is one of the two known states.
func (s State) IsValid() bool {
	return s == StateOpen || s == StateCalculating
}

func (s State) String() string {
	return string(s)
}
