package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRecorder_AppendAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	rec, err := NewFileRecorder(dir)
	require.NoError(t, err)

	require.NoError(t, rec.Append("alice",
		Turn{Role: RoleUser, Message: "hello bot"},
		Turn{Role: RoleChatbot, Message: "hi alice"},
	))
	require.NoError(t, rec.Append("bob", Turn{Role: RoleUser, Message: "<b>&</b>"}))

	turns, err := rec.Load("alice")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, RoleChatbot, turns[1].Role)

	raw, err := os.ReadFile(filepath.Join(dir, "alice_log.txt"))
	require.NoError(t, err)
	assert.Equal(t,
		`{"role":"USER","message":"hello bot"}`+"\n"+`{"role":"CHATBOT","message":"hi alice"}`+"\n",
		string(raw))

	raw, err = os.ReadFile(filepath.Join(dir, "bob_log.txt"))
	require.NoError(t, err)
	assert.Equal(t, `{"role":"USER","message":"<b>&</b>"}`+"\n", string(raw))

	keys, err := rec.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, keys)
}

func TestFileRecorder_LoadMissing(t *testing.T) {
	rec, err := NewFileRecorder(t.TempDir())
	require.NoError(t, err)

	turns, err := rec.Load("nobody")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestFileRecorder_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewFileRecorder(dir)
	require.NoError(t, err)

	cases := map[string]string{
		"not json":   `{"role":"USER","message":"one"}` + "\nnot json\n",
		"blank line": `{"role":"USER","message":"one"}` + "\n\n" + `{"role":"CHATBOT","message":"two"}` + "\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "test_log.txt"), []byte(body), 0o644))
			_, err := rec.Load("test")
			require.ErrorIs(t, err, ErrCorruptLog)
			assert.Contains(t, err.Error(), "test_log.txt:2")
		})
	}
}

func TestFileRecorder_KeysDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewFileRecorder(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "a%2Fb_log.txt"), rec.Path("a/b"))
	assert.NotEqual(t, rec.Path("a/b"), rec.Path("a_b"))
	assert.NotEqual(t, rec.Path("a/b"), rec.Path("a%2Fb"))

	for _, key := range []string{"a/b", "a_b", "a%2Fb", `a\b`} {
		require.NoError(t, rec.Append(key, Turn{Role: RoleUser, Message: key}))
	}
	keys, err := rec.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a/b", "a_b", "a%2Fb", `a\b`}, keys)

	turns, err := rec.Load("a/b")
	require.NoError(t, err)
	assert.Equal(t, []Turn{{Role: RoleUser, Message: "a/b"}}, turns)
}

func TestRunLog_AppendsChunks(t *testing.T) {
	p := filepath.Join(t.TempDir(), "run", "irc_log.txt")
	l, err := OpenRunLog(p)
	require.NoError(t, err)
	_, err = l.Write([]byte(":srv 001 bot :hi\r\n"))
	require.NoError(t, err)
	_, err = l.Write([]byte("PING :x\r\n"))
	require.NoError(t, err)
	require.NoError(t, l.Close())

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, ":srv 001 bot :hi\r\nPING :x\r\n", string(raw))
}
