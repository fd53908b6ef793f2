// Package history keeps the conversation context handed to the backend.
package history

import (
	"fmt"
	"sync"

	"irc-chatter/internal/config"
	"irc-chatter/internal/storage"
)

type Options struct {
	// HistoryLimit keeps only the newest N turns of a context. 0 keeps all.
	HistoryLimit int
	// RememberUserTurns makes by_user contexts grow in memory. When false
	// a sender's context stays as first created and only the log grows.
	RememberUserTurns bool
}

// Store owns the per-key contexts for one storage mode. A context exists
// for every key once it has been referenced.
type Store struct {
	mu       sync.Mutex
	mode     config.StorageMode
	opts     Options
	rec      storage.Recorder
	contexts map[string][]storage.Turn
}

func NewStore(mode config.StorageMode, rec storage.Recorder, opts Options) *Store {
	return &Store{
		mode:     mode,
		opts:     opts,
		rec:      rec,
		contexts: make(map[string][]storage.Turn),
	}
}

func (s *Store) Mode() config.StorageMode { return s.mode }

// Key picks the context key for a message: the sender in by_user mode,
// the channel in by_channel mode.
func (s *Store) Key(sender, channel string) string {
	if s.mode == config.ByChannel {
		return channel
	}
	return sender
}

// Context returns the history for key, oldest first. In by_channel mode
// it is rebuilt from the key's log on every call. The returned slice is a
// copy.
func (s *Store) Context(key string) ([]storage.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns, ok := s.contexts[key]
	if !ok {
		turns = []storage.Turn{}
		s.contexts[key] = turns
	}
	if s.mode == config.ByChannel {
		loaded, err := s.rec.Load(key)
		if err != nil {
			return nil, fmt.Errorf("load %s history: %w", key, err)
		}
		turns = loaded
	}
	return s.bounded(turns), nil
}

// Record appends the USER turn and then the CHATBOT turn to key's log.
func (s *Store) Record(key, userText, reply string) error {
	user := storage.Turn{Role: storage.RoleUser, Message: userText}
	bot := storage.Turn{Role: storage.RoleChatbot, Message: reply}
	if err := s.rec.Append(key, user, bot); err != nil {
		return fmt.Errorf("record %s turns: %w", key, err)
	}
	if s.mode == config.ByUser && s.opts.RememberUserTurns {
		s.mu.Lock()
		s.contexts[key] = append(s.contexts[key], user, bot)
		s.mu.Unlock()
	}
	return nil
}

// Known reports whether key has been referenced.
func (s *Store) Known(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.contexts[key]
	return ok
}

func (s *Store) bounded(turns []storage.Turn) []storage.Turn {
	if n := s.opts.HistoryLimit; n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]storage.Turn, len(turns))
	copy(out, turns)
	return out
}
