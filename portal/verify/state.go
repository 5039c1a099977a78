package verify

import (
	"fmt"
	"time"
)

// State of a verification poller.
type State int

// Poller states.
const (
	Idle State = iota
	Polling
	Succeeded
	Exhausted
	Cancelled
)

var stateNames = map[State]string{
	Idle:      "idle",
	Polling:   "polling",
	Succeeded: "succeeded",
	Exhausted: "exhausted",
	Cancelled: "cancelled",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Status is a snapshot of a poller, as sent to the page.
type Status struct {
	State             State      `json:"state"`
	Attempts          int        `json:"attempts"`
	MaxAttempts       int        `json:"maxAttempts"`
	Email             string     `json:"email,omitempty"`
	ResendEnabled     bool       `json:"resendEnabled"`
	ResendAvailableAt *time.Time `json:"resendAvailableAt,omitempty"`
	Message           string     `json:"message,omitempty"`
	Location          string     `json:"location,omitempty"`
	DelayMs           int        `json:"delayMs,omitempty"`
}
