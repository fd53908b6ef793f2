package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_JSONDefaults(t *testing.T) {
	p := writeFile(t, "config.json", `{
		"server": "irc.example.org",
		"port": 6667,
		"nickname": "relaybot",
		"channel": "#test",
		"cohere_api_key": "secret"
	}`)

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "irc.example.org:6667", cfg.Addr())
	assert.Equal(t, ByUser, cfg.StorageMode)
	assert.Equal(t, ParseChunk, cfg.ParseMode)
	assert.Equal(t, ProviderCohere, cfg.Provider)
	assert.Equal(t, "logs", cfg.LogsDir)
	assert.Equal(t, "irc_log.txt", cfg.RunLogPath)
	assert.Equal(t, 16, cfg.QueueSize)
	assert.Equal(t, "secret", cfg.CohereAPIKey)
	assert.Zero(t, cfg.BackendTimeout.Duration)
}

func TestLoad_YAMLWithDuration(t *testing.T) {
	p := writeFile(t, "config.yaml", `
server: irc.example.org
port: 6697
nickname: relaybot
channel: "#ops"
chat_history_storage_mode: by_channel
history_limit: 20
backend_timeout: 45s
`)

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ByChannel, cfg.StorageMode)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.Equal(t, 45*time.Second, cfg.BackendTimeout.Duration)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	p := writeFile(t, "config.json", `{"server":"a","port":6667,"nickname":"n","channel":"#c"}`)
	t.Setenv("IRC_SERVER", "b.example.org")
	t.Setenv("PARSE_MODE", "line")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "b.example.org", cfg.Server)
	assert.Equal(t, ParseLine, cfg.ParseMode)
	assert.Equal(t, "n", cfg.Nickname)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing fields": `{"server":"a"}`,
		"bad mode":       `{"server":"a","port":1,"nickname":"n","channel":"#c","chat_history_storage_mode":"by_moon"}`,
		"bad parse mode": `{"server":"a","port":1,"nickname":"n","channel":"#c","parse_mode":"words"}`,
		"negative limit": `{"server":"a","port":1,"nickname":"n","channel":"#c","history_limit":-1}`,
		"malformed":      `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.json", body))
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
