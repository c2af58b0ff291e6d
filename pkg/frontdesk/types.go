package frontdesk

import (
	"time"

	"github.com/google/uuid"
)

// Result wraps an operation outcome for APIs that report rich errors.
type Result[T any] struct {
	Data    T
	Error   *SessionError
	Success bool
}

func Ok[T any](data T) Result[T] {
	return Result[T]{Data: data, Success: true}
}

func Err[T any](err *SessionError) Result[T] {
	return Result[T]{Error: err, Success: false}
}

// ConnectionState enum
type ConnectionState string

const (
	Disconnected    ConnectionState = "disconnected"
	Connecting      ConnectionState = "connecting"
	Connected       ConnectionState = "connected"
	ConnectionError ConnectionState = "error"
)

// Speaker identifies which side of the conversation produced an utterance.
type Speaker string

const (
	SpeakerNone  Speaker = ""
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// TranscriptEntry is one utterance in the ordered conversation log.
// ID is stable across in-place updates to the same utterance; IsFinal
// transitions at most once, false to true.
type TranscriptEntry struct {
	ID        string
	Speaker   Speaker
	Text      string
	CreatedAt time.Time
	IsFinal   bool
}

// QueueTicket holds the structured facts mined from the agent's dialogue.
// It is created once per session on the first confident match and never
// updated afterwards.
type QueueTicket struct {
	TicketNumber string
	ETAMinutes   int
	CallerName   string
	PhoneNumber  string
}

// SessionIdentity addresses the duplex channel endpoint. Generated once
// at controller construction and stable for the controller's lifetime.
type SessionIdentity struct {
	UserID    string
	SessionID string
}

func NewSessionIdentity() SessionIdentity {
	return SessionIdentity{
		UserID:    "user-" + uuid.NewString()[:8],
		SessionID: "session-" + uuid.NewString()[:8],
	}
}

// EventKind enum for normalized inbound events.
type EventKind string

const (
	EventText   EventKind = "text"
	EventAudio  EventKind = "audio"
	EventTicket EventKind = "ticket"
)

// NormalizedEvent is the single internal representation produced by the
// codec from either wire dialect. Text events carry Replace=true when the
// dialect delivers full replacement text per update (flat dialect) and
// Replace=false when it delivers incremental deltas (nested dialect).
type NormalizedEvent struct {
	Kind    EventKind
	Speaker Speaker
	Text    string
	Final   bool
	Replace bool
	Audio   []byte
	Ticket  *QueueTicket
}

// SessionToken authenticates the websocket handshake when token auth is on.
type SessionToken struct {
	Token     string
	ExpiresAt int64 // Unix timestamp in milliseconds
}

// Handler types
type FrameHandler func(frame []byte)
type RawMessageHandler func(raw []byte)
type StateHandler func(ConnectionState)
type ErrorHandler func(*SessionError)
type TranscriptHandler func(entries []TranscriptEntry)
type TicketHandler func(ticket QueueTicket)
