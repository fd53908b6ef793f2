package storage

// Role tags who produced a conversation turn.
type Role string

const (
	RoleUser    Role = "USER"
	RoleChatbot Role = "CHATBOT"
)

// Turn is one line of a chat log. Turns are appended in chronological
// order and the file position is the only ordering.
type Turn struct {
	Role    Role   `json:"role"`
	Message string `json:"message"`
}

// Recorder abstracts persistence of conversation turns, one log per key.
// Load returns turns oldest first and an empty slice for unknown keys.
// Implementations must be safe for concurrent use.
type Recorder interface {
	Append(key string, turns ...Turn) error
	Load(key string) ([]Turn, error)
	Keys() ([]string, error)
}
