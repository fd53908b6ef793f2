package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

type LLMProvider string

const (
	ProviderCohere LLMProvider = "cohere"
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
	ProviderGemini LLMProvider = "gemini"
)

// StorageMode selects how conversation history is keyed.
type StorageMode string

const (
	ByUser    StorageMode = "by_user"
	ByChannel StorageMode = "by_channel"
)

// ParseMode selects how inbound chunks are scanned.
type ParseMode string

const (
	ParseChunk ParseMode = "chunk"
	ParseLine  ParseMode = "line"
)

const DefaultPath = "config/config.json"

// Config is read once at startup and not changed afterwards.
// Env tags only override values that are present in the environment.
type Config struct {
	// IRC
	Server   string `json:"server" yaml:"server" env:"IRC_SERVER"`
	Port     int    `json:"port" yaml:"port" env:"IRC_PORT"`
	Nickname string `json:"nickname" yaml:"nickname" env:"IRC_NICKNAME"`
	Channel  string `json:"channel" yaml:"channel" env:"IRC_CHANNEL"`

	// History
	StorageMode       StorageMode `json:"chat_history_storage_mode" yaml:"chat_history_storage_mode" env:"CHAT_HISTORY_STORAGE_MODE"`
	HistoryLimit      int         `json:"history_limit" yaml:"history_limit" env:"HISTORY_LIMIT"`
	RememberUserTurns bool        `json:"remember_user_turns" yaml:"remember_user_turns" env:"REMEMBER_USER_TURNS"`
	LogsDir           string      `json:"logs_dir" yaml:"logs_dir" env:"LOGS_DIR"`
	RunLogPath        string      `json:"run_log_path" yaml:"run_log_path" env:"RUN_LOG_PATH"`

	// Protocol
	ParseMode ParseMode `json:"parse_mode" yaml:"parse_mode" env:"PARSE_MODE"`
	QueueSize int       `json:"queue_size" yaml:"queue_size" env:"QUEUE_SIZE"`

	// LLM settings
	Provider         LLMProvider `json:"provider" yaml:"provider" env:"LLM_PROVIDER"`
	Model            string      `json:"model" yaml:"model" env:"LLM_MODEL"`
	CohereAPIKey     string      `json:"cohere_api_key" yaml:"cohere_api_key" env:"COHERE_API_KEY"`
	OpenAIAPIKey     string      `json:"openai_api_key" yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `json:"openai_base_url" yaml:"openai_base_url" env:"OPENAI_BASE_URL"`
	YandexOAuthToken string      `json:"yandex_oauth_token" yaml:"yandex_oauth_token" env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `json:"yandex_folder_id" yaml:"yandex_folder_id" env:"YANDEX_FOLDER_ID"`
	GeminiAPIKey     string      `json:"gemini_api_key" yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	BackendTimeout   Duration    `json:"backend_timeout" yaml:"backend_timeout" env:"BACKEND_TIMEOUT"`

	// Prompts
	SystemPromptPath string `json:"system_prompt_path" yaml:"system_prompt_path" env:"SYSTEM_PROMPT_PATH"`

	// Ops
	MetricsAddr    string `json:"metrics_addr" yaml:"metrics_addr" env:"METRICS_ADDR"`
	ReportSchedule string `json:"report_schedule" yaml:"report_schedule" env:"REPORT_SCHEDULE"`
}

// Duration accepts "30s" style strings in JSON, YAML and env.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Load reads the config file, applies environment overrides, fills defaults
// and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse json config: %w", err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.StorageMode == "" {
		c.StorageMode = ByUser
	}
	if c.ParseMode == "" {
		c.ParseMode = ParseChunk
	}
	if c.Provider == "" {
		c.Provider = ProviderCohere
	}
	if c.LogsDir == "" {
		c.LogsDir = "logs"
	}
	if c.RunLogPath == "" {
		c.RunLogPath = "irc_log.txt"
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 16
	}
}

func (c *Config) Validate() error {
	var missing []string
	if c.Server == "" {
		missing = append(missing, "server")
	}
	if c.Port <= 0 || c.Port > 65535 {
		missing = append(missing, "port")
	}
	if c.Nickname == "" {
		missing = append(missing, "nickname")
	}
	if c.Channel == "" {
		missing = append(missing, "channel")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing or invalid %s", strings.Join(missing, ", "))
	}
	switch c.StorageMode {
	case ByUser, ByChannel:
	default:
		return fmt.Errorf("config: unknown chat_history_storage_mode %q", c.StorageMode)
	}
	switch c.ParseMode {
	case ParseChunk, ParseLine:
	default:
		return fmt.Errorf("config: unknown parse_mode %q", c.ParseMode)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("config: history_limit must not be negative")
	}
	return nil
}

// Addr is the host:port pair used to dial the server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server, c.Port)
}
