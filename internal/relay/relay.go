// Package relay answers channel messages with text from the LLM backend.
package relay

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"irc-chatter/internal/console"
	"irc-chatter/internal/history"
	"irc-chatter/internal/irc"
	"irc-chatter/internal/llm"
	"irc-chatter/internal/storage"
	"irc-chatter/internal/telemetry"
)

// Placeholder is sent instead of a reply when the backend fails.
const Placeholder = "Error: Unable to generate response."

type Options struct {
	// Nickname is the bot's own nick, used when printing replies.
	Nickname string
	// Target is where replies are sent, normally the configured channel.
	Target       string
	SystemPrompt string
	// Timeout bounds each backend call. Zero means no limit.
	Timeout time.Duration
}

type Relay struct {
	llmClient llm.Client
	store     *history.Store
	out       irc.Sender
	printer   *console.Printer
	metrics   *telemetry.Metrics
	logger    *zap.Logger
	opts      Options
}

func New(llmClient llm.Client, store *history.Store, out irc.Sender, printer *console.Printer, metrics *telemetry.Metrics, logger *zap.Logger, opts Options) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		llmClient: llmClient,
		store:     store,
		out:       out,
		printer:   printer,
		metrics:   metrics,
		logger:    logger,
		opts:      opts,
	}
}

// Handle answers one channel message. Backend failures are replaced by
// Placeholder. A history that cannot be loaded, a cancelled ctx or a
// failed write to the server is returned.
func (r *Relay) Handle(ctx context.Context, msg irc.Message) error {
	r.printer.Chat(msg.Channel, msg.Sender, msg.Text)
	r.logger.Debug("incoming message",
		zap.String("sender", msg.Sender),
		zap.String("channel", msg.Channel),
		zap.String("text", msg.Text))

	key := r.store.Key(msg.Sender, msg.Channel)
	if !r.store.Known(key) {
		r.logger.Info("new conversation", zap.String("key", key))
	}
	turns, err := r.store.Context(key)
	if err != nil {
		r.printer.Error("An error occurred while loading chat history", err)
		return err
	}

	reply := r.generate(ctx, turns, msg.Text)
	// Shutdown interrupted the backend call; the placeholder is not a reply.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.store.Record(key, msg.Text, reply); err != nil {
		r.logger.Error("failed to record turns", zap.String("key", key), zap.Error(err))
	}

	if err := irc.SendReply(r.out, r.opts.Target, reply); err != nil {
		return fmt.Errorf("send reply to %s: %w", r.opts.Target, err)
	}
	r.metrics.IncRelayed()
	r.printer.Chat(msg.Channel, r.opts.Nickname, reply)
	return nil
}

func (r *Relay) generate(ctx context.Context, turns []storage.Turn, text string) string {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := r.llmClient.Generate(ctx, BuildMessages(r.opts.SystemPrompt, turns, text))
	r.metrics.ObserveBackend(time.Since(start))
	if err != nil {
		r.metrics.IncBackendFailures()
		r.logger.Error("failed to generate text", zap.Error(err))
		return Placeholder
	}

	r.logger.Info("LLM response",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.PromptTokens),
		zap.Int("completion_tokens", resp.CompletionTokens),
		zap.Int("total_tokens", resp.TotalTokens))
	return resp.Content
}

// BuildMessages lays out the backend request: optional system prompt,
// prior turns oldest first, then the new user text.
func BuildMessages(systemPrompt string, turns []storage.Turn, text string) []llm.Message {
	msgs := make([]llm.Message, 0, len(turns)+2)
	if systemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	}
	for _, t := range turns {
		role := llm.RoleUser
		if t.Role == storage.RoleChatbot {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Message})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: text})
}
