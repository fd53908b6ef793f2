package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"irc-chatter/internal/config"
	"irc-chatter/internal/irc"
)

func TestNewDecoder(t *testing.T) {
	_, ok := newDecoder(config.ParseChunk).(irc.ChunkDecoder)
	assert.True(t, ok)
	_, ok = newDecoder(config.ParseLine).(*irc.LineDecoder)
	assert.True(t, ok)
}

func TestReadSystemPrompt(t *testing.T) {
	p := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(p, []byte("  be helpful\n"), 0o644))
	assert.Equal(t, "be helpful", readSystemPrompt(p, zap.NewNop()))
	assert.Equal(t, "", readSystemPrompt(filepath.Join(t.TempDir(), "missing"), zap.NewNop()))
	assert.Equal(t, "", readSystemPrompt("", zap.NewNop()))
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger(true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))
}
