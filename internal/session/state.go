package session

import "github.com/clearbrook/screend/internal/events"

// State is the ephemeral, never-persisted slice of a live session that
// every connected participant mirrors. It exists only for the lifetime of
// a subscription: a reconnecting participant starts from the zero value
// until the next patch or navigation event arrives.
type State struct {
	CurrentItemIndex int             `json:"current_item_index"`
	IsTimerRunning   bool            `json:"is_timer_running"`
	TimerSeconds     int             `json:"timer_seconds"`
	Pointer          events.Position `json:"pointer"`
}

// Apply folds one patch into a state and returns the result. Fields absent
// from the patch are untouched; present fields replace the prior value
// (last write wins, per publish order). Apply is pure: the input state is
// never mutated.
func Apply(s State, p events.EphemeralPatch) State {
	if p.CurrentItemIndex != nil {
		s.CurrentItemIndex = *p.CurrentItemIndex
	}
	if p.IsTimerRunning != nil {
		s.IsTimerRunning = *p.IsTimerRunning
	}
	if p.TimerSeconds != nil {
		s.TimerSeconds = *p.TimerSeconds
	}
	if p.Pointer != nil {
		s.Pointer = *p.Pointer
	}
	return s
}
