package irc

import "strings"

func Nick(nick string) string { return "NICK " + nick }

func User(nick string) string {
	return "USER " + nick + " " + nick + " " + nick + " :" + nick
}

func Join(channel string) string { return "JOIN " + channel }

func Pong(payload string) string { return "PONG " + payload }

func Privmsg(target, line string) string { return "PRIVMSG " + target + " :" + line }

// ReplyLines splits text on line breaks and drops blank lines.
// Kept lines are not trimmed.
func ReplyLines(text string) []string {
	var out []string
	for _, line := range strings.FieldsFunc(text, isLineBreak) {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// SendReply sends one PRIVMSG per non-blank line of text, in order.
// It stops at the first failed write.
func SendReply(s Sender, target, text string) error {
	for _, line := range ReplyLines(text) {
		if err := s.Send(Privmsg(target, line)); err != nil {
			return err
		}
	}
	return nil
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}
