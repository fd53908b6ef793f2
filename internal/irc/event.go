package irc

import "errors"

// ErrMalformedPing is reported for a PING without a payload token.
var ErrMalformedPing = errors.New("irc: PING without payload")

type EventKind int

const (
	EventWelcome EventKind = iota + 1
	EventPing
	EventMessage
)

func (k EventKind) String() string {
	switch k {
	case EventWelcome:
		return "welcome"
	case EventPing:
		return "ping"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Message is a channel message. Channel has no leading '#'.
type Message struct {
	Sender  string
	Channel string
	Text    string
}

type Event struct {
	Kind EventKind
	// Payload is the PONG argument for EventPing.
	Payload string
	Message Message
}

// Decoder turns raw inbound chunks into events. welcomed reports whether
// the end of MOTD has already been seen.
type Decoder interface {
	Decode(chunk string, welcomed bool) ([]Event, error)
}
