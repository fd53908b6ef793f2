package irc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkDecoder_WelcomeOnlyBeforeJoin(t *testing.T) {
	var d ChunkDecoder

	ev, err := d.Decode(":srv 375 bot :- MOTD -\r\n", false)
	require.NoError(t, err)
	assert.Empty(t, ev)

	ev, err = d.Decode(":srv 376 bot :End of /MOTD command.\r\n", false)
	require.NoError(t, err)
	assert.Equal(t, []Event{{Kind: EventWelcome}}, ev)

	// Before welcome nothing else is recognized.
	ev, err = d.Decode("PING :abc\r\n", false)
	require.NoError(t, err)
	assert.Empty(t, ev)
}

func TestChunkDecoder_Ping(t *testing.T) {
	var d ChunkDecoder
	ev, err := d.Decode("PING :irc.example.org\r\n", true)
	require.NoError(t, err)
	require.Len(t, ev, 1)
	assert.Equal(t, EventPing, ev[0].Kind)
	assert.Equal(t, ":irc.example.org", ev[0].Payload)
	assert.Equal(t, "PONG :irc.example.org", Pong(ev[0].Payload))

	_, err = d.Decode("PING\r\n", true)
	assert.ErrorIs(t, err, ErrMalformedPing)
}

func TestChunkDecoder_PingStarvesMessageInSameChunk(t *testing.T) {
	var d ChunkDecoder
	ev, err := d.Decode("PING :x\r\n:alice!a@h PRIVMSG #test :hello\r\n", true)
	require.NoError(t, err)
	require.Len(t, ev, 1)
	assert.Equal(t, EventPing, ev[0].Kind)
}

func TestChunkDecoder_Message(t *testing.T) {
	var d ChunkDecoder
	ev, err := d.Decode(":alice!x@y PRIVMSG #test :hello bot\r\n", true)
	require.NoError(t, err)
	require.Len(t, ev, 1)
	assert.Equal(t, Message{Sender: "alice", Channel: "test", Text: "hello bot"}, ev[0].Message)
}

func TestChunkDecoder_OnlyFirstMessageInChunk(t *testing.T) {
	var d ChunkDecoder
	ev, err := d.Decode(":alice!x@y PRIVMSG #test :one\r\n:bob!x@y PRIVMSG #test :two\r\n", true)
	require.NoError(t, err)
	require.Len(t, ev, 1)
	assert.Equal(t, "alice", ev[0].Message.Sender)
	assert.Equal(t, "one", ev[0].Message.Text)
}

func TestChunkDecoder_NoMatch(t *testing.T) {
	var d ChunkDecoder
	for _, chunk := range []string{
		":srv NOTICE bot :hello\r\n",
		":alice!x@y PRIVMSG bot :direct\r\n",
		":alice!x@y PRIVMSG #test :\r\n",
		"PRIVMSG #test :no sender\r\n",
	} {
		ev, err := d.Decode(chunk, true)
		require.NoError(t, err)
		assert.Empty(t, ev, chunk)
	}
}

func TestMatchMessage_TextExcludesControlRange(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{":a!b@c PRIVMSG #t :plain\r\n", "plain"},
		{":a!b@c PRIVMSG #t :bold\x02part\r\n", "bold"},
		{":a!b@c PRIVMSG #t :c1\u0085tail", "c1"},
		{":a!b@c PRIVMSG #t :del\x7fx", "del"},
		{":a!b@c PRIVMSG #t :ünïcødé ok", "ünïcødé ok"},
	} {
		msg, ok := MatchMessage(tc.in)
		require.True(t, ok, tc.in)
		assert.Equal(t, tc.want, msg.Text)
		for _, r := range msg.Text {
			assert.False(t, r <= 0x1f || (r >= 0x7f && r <= 0x9f), "control rune %U in %q", r, msg.Text)
		}
	}
}

func TestReplyLines(t *testing.T) {
	assert.Equal(t, []string{"first", "  second", "third"}, ReplyLines("first\n\n  second\r\n   \nthird\n"))
	assert.Empty(t, ReplyLines("\n \n"))
	assert.Equal(t, []string{"hi alice"}, ReplyLines("hi alice"))
}

type recordingSender struct{ lines []string }

func (r *recordingSender) Send(line string) error {
	r.lines = append(r.lines, line)
	return nil
}

func TestCommands(t *testing.T) {
	assert.Equal(t, "NICK bot", Nick("bot"))
	assert.Equal(t, "USER bot bot bot :bot", User("bot"))
	assert.Equal(t, "JOIN #test", Join("#test"))

	s := &recordingSender{}
	require.NoError(t, SendReply(s, "#test", "one\n\ntwo"))
	assert.Equal(t, []string{"PRIVMSG #test :one", "PRIVMSG #test :two"}, s.lines)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "welcome", EventWelcome.String())
	assert.Equal(t, "ping", EventPing.String())
	assert.Equal(t, "message", EventMessage.String())
	assert.Equal(t, "unknown", EventKind(0).String())
}
