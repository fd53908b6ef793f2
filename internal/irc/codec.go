package irc

import (
	"regexp"
	"strings"
)

const endOfMOTD = "376"

var (
	senderPattern  = regexp.MustCompile(`:([^!]+)!`)
	privmsgPattern = regexp.MustCompile(`PRIVMSG #([^ ]+) :([^\x00-\x1F\x7F-\x9F]+)`)
)

// ChunkDecoder matches on whole chunks without splitting them into lines.
// A chunk that starts with PING is consumed as a PING even when it also
// carries a PRIVMSG, and at most one message is taken from a chunk.
type ChunkDecoder struct{}

func (ChunkDecoder) Decode(chunk string, welcomed bool) ([]Event, error) {
	if !welcomed {
		if strings.Contains(chunk, endOfMOTD) {
			return []Event{{Kind: EventWelcome}}, nil
		}
		return nil, nil
	}
	if strings.HasPrefix(chunk, "PING") {
		fields := strings.Fields(chunk)
		if len(fields) < 2 {
			return nil, ErrMalformedPing
		}
		return []Event{{Kind: EventPing, Payload: fields[1]}}, nil
	}
	if msg, ok := MatchMessage(chunk); ok {
		return []Event{{Kind: EventMessage, Message: msg}}, nil
	}
	return nil, nil
}

// MatchMessage applies the sender and PRIVMSG patterns to text
// independently and succeeds only when both match.
func MatchMessage(text string) (Message, bool) {
	sm := senderPattern.FindStringSubmatch(text)
	if sm == nil {
		return Message{}, false
	}
	pm := privmsgPattern.FindStringSubmatch(text)
	if pm == nil {
		return Message{}, false
	}
	return Message{Sender: sm[1], Channel: pm[1], Text: pm[2]}, true
}
