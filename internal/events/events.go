// Package events carries live-session traffic over the pub/sub bus.
//
// Two kinds of traffic share the bus and are never conflated: durable
// change notifications (session row replaced, response appended), published
// only after the corresponding store write succeeded, and ephemeral state
// patches (timer, pointer), which are best-effort and never persisted.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/clearbrook/screend/internal/model"
)

// ChannelKind names one of the per-session traffic lanes.
type ChannelKind string

const (
	// ChannelState carries authoritative session-row replacements.
	ChannelState ChannelKind = "state"
	// ChannelResponse carries appended response records.
	ChannelResponse ChannelKind = "response"
	// ChannelEphemeral carries best-effort partial-state patches.
	ChannelEphemeral ChannelKind = "ephemeral"
)

// Channel identifies one session's traffic lane as a value type, so a
// malformed interpolated subject can never leak traffic across sessions.
type Channel struct {
	Kind      ChannelKind
	SessionID string
}

// Subject returns the bus subject for the channel.
func (c Channel) Subject() string {
	return "screen.session." + c.SessionID + "." + string(c.Kind)
}

// Valid reports whether the channel names a session and a known kind.
func (c Channel) Valid() bool {
	if c.SessionID == "" {
		return false
	}
	switch c.Kind {
	case ChannelState, ChannelResponse, ChannelEphemeral:
		return true
	}
	return false
}

// SessionChannels returns the wildcard channel subject covering all lanes
// of one session, for subscribers that want the full feed.
func SessionChannels(sessionID string) string {
	return "screen.session." + sessionID + ".>"
}

// SessionChanged is published on ChannelState after a durable session write.
// Subscribers replace their local session wholesale from the carried row.
type SessionChanged struct {
	Session *model.Session `json:"session"`
}

// ResponseRecorded is published on ChannelResponse after a durable append.
type ResponseRecorded struct {
	Response *model.ResponseRecord `json:"response"`
}

// EphemeralPatch is published on ChannelEphemeral. Absent fields leave the
// subscriber's value untouched; present fields replace it (last write wins).
type EphemeralPatch struct {
	CurrentItemIndex *int      `json:"current_item_index,omitempty"`
	IsTimerRunning   *bool     `json:"is_timer_running,omitempty"`
	TimerSeconds     *int      `json:"timer_seconds,omitempty"`
	Pointer          *Position `json:"pointer,omitempty"`
	SentAt           time.Time `json:"sent_at"`
}

// Position is a pointer/cursor location shared for proctor awareness.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Envelope wraps every bus payload with its lane so wildcard subscribers
// can demultiplex without re-parsing the subject.
type Envelope struct {
	Kind    ChannelKind     `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Publisher is the interface for emitting events on a session channel.
type Publisher interface {
	Publish(ctx context.Context, ch Channel, event any) error
	Close() error
}

// Subscriber receives events from the bus.
type Subscriber interface {
	// Subscribe delivers raw envelope payloads for every lane of the given
	// session on the returned channel. Call the returned cancel function to
	// unsubscribe and close the channel.
	Subscribe(sessionID string) (<-chan []byte, func(), error)
	Close() error
}
