package irc

import (
	"strings"
	"unicode"

	"github.com/ergochat/irc-go/ircmsg"
)

const noMOTD = "422"

// MaxPendingLine caps the bytes LineDecoder keeps while waiting for a
// newline. IRC lines are at most 512 bytes plus tags.
const MaxPendingLine = 8 * 1024

// LineDecoder frames the stream on newlines and parses every line on its
// own, so several commands arriving in one chunk are all seen. PING is
// answered in every phase, and 422 (no MOTD) also counts as welcome.
// A partial trailing line is kept until the next chunk completes it; a
// partial line longer than MaxPendingLine is dropped.
type LineDecoder struct {
	pending strings.Builder
}

func NewLineDecoder() *LineDecoder { return &LineDecoder{} }

func (d *LineDecoder) Decode(chunk string, welcomed bool) ([]Event, error) {
	d.pending.WriteString(chunk)
	buf := d.pending.String()
	last := strings.LastIndexByte(buf, '\n')
	if last < 0 {
		if len(buf) > MaxPendingLine {
			d.pending.Reset()
		}
		return nil, nil
	}
	complete, rest := buf[:last], buf[last+1:]
	d.pending.Reset()
	if len(rest) <= MaxPendingLine {
		d.pending.WriteString(rest)
	}

	var (
		events []Event
		perr   error
	)
	for _, raw := range strings.Split(complete, "\n") {
		msg, err := ircmsg.ParseLine(strings.TrimRight(raw, "\r"))
		if err != nil {
			continue
		}
		switch strings.ToUpper(msg.Command) {
		case "PING":
			if len(msg.Params) == 0 || msg.Params[0] == "" {
				perr = ErrMalformedPing
				continue
			}
			events = append(events, Event{Kind: EventPing, Payload: ":" + msg.Params[0]})
		case endOfMOTD, noMOTD:
			if !welcomed {
				events = append(events, Event{Kind: EventWelcome})
				welcomed = true
			}
		case "PRIVMSG":
			if m, ok := lineMessage(&msg); ok {
				events = append(events, Event{Kind: EventMessage, Message: m})
			}
		}
	}
	return events, perr
}

func lineMessage(msg *ircmsg.Message) (Message, bool) {
	if len(msg.Params) < 2 || !strings.HasPrefix(msg.Params[0], "#") {
		return Message{}, false
	}
	// Server-sourced lines have no '!' and carry no nick.
	if !strings.Contains(msg.Source, "!") {
		return Message{}, false
	}
	nick := msg.Nick()
	text := stripControl(msg.Params[1])
	if nick == "" || text == "" {
		return Message{}, false
	}
	return Message{Sender: nick, Channel: strings.TrimPrefix(msg.Params[0], "#"), Text: text}, true
}

// stripControl removes C0 and C1 control characters, which includes IRC
// formatting codes.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
