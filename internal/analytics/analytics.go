package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"irc-chatter/internal/relay"
	"irc-chatter/internal/storage"
)

// Stats summarizes every chat log known to a recorder.
type Stats struct {
	Keys       int                 `json:"keys"`
	UserTurns  int                 `json:"user_turns"`
	BotTurns   int                 `json:"bot_turns"`
	Failures   int                 `json:"failures"`
	PerKey     map[string]KeyStats `json:"per_key"`
	Unbalanced []string            `json:"unbalanced,omitempty"`
}

// KeyStats covers one sender or channel log.
type KeyStats struct {
	Key       string `json:"key"`
	UserTurns int    `json:"user_turns"`
	BotTurns  int    `json:"bot_turns"`
	// Failures counts replies that were the backend placeholder.
	Failures int `json:"failures"`
}

func Analyze(rec storage.Recorder) (*Stats, error) {
	keys, err := rec.Keys()
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	stats := &Stats{PerKey: make(map[string]KeyStats, len(keys))}
	for _, key := range keys {
		turns, err := rec.Load(key)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		ks := AnalyzeTurns(key, turns)
		stats.PerKey[key] = ks
		stats.Keys++
		stats.UserTurns += ks.UserTurns
		stats.BotTurns += ks.BotTurns
		stats.Failures += ks.Failures
		// Every exchange writes a USER and a CHATBOT line.
		if ks.UserTurns != ks.BotTurns {
			stats.Unbalanced = append(stats.Unbalanced, key)
		}
	}
	return stats, nil
}

func AnalyzeTurns(key string, turns []storage.Turn) KeyStats {
	ks := KeyStats{Key: key}
	for _, t := range turns {
		switch t.Role {
		case storage.RoleUser:
			ks.UserTurns++
		case storage.RoleChatbot:
			ks.BotTurns++
			if t.Message == relay.Placeholder {
				ks.Failures++
			}
		}
	}
	return ks
}

// Summary renders a short plain-text report, keys sorted by activity.
func (s *Stats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chat logs: %d\n", s.Keys)
	fmt.Fprintf(&b, "Exchanges: %d (failed replies: %d)\n", s.UserTurns, s.Failures)

	per := make([]KeyStats, 0, len(s.PerKey))
	for _, ks := range s.PerKey {
		per = append(per, ks)
	}
	sort.Slice(per, func(i, j int) bool {
		if per[i].UserTurns != per[j].UserTurns {
			return per[i].UserTurns > per[j].UserTurns
		}
		return per[i].Key < per[j].Key
	})
	for _, ks := range per {
		fmt.Fprintf(&b, "- %s: %d messages", ks.Key, ks.UserTurns)
		if ks.Failures > 0 {
			fmt.Fprintf(&b, ", %d failed", ks.Failures)
		}
		b.WriteString("\n")
	}
	if len(s.Unbalanced) > 0 {
		fmt.Fprintf(&b, "Unbalanced logs: %s\n", strings.Join(s.Unbalanced, ", "))
	}
	return b.String()
}

func (s *Stats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
