// Package session drives one IRC connection from registration to close.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"irc-chatter/internal/console"
	"irc-chatter/internal/irc"
	"irc-chatter/internal/telemetry"
)

type Phase int

const (
	Connecting Phase = iota
	Registering
	AwaitingWelcome
	Joined
	Closed
)

func (p Phase) String() string {
	switch p {
	case Connecting:
		return "connecting"
	case Registering:
		return "registering"
	case AwaitingWelcome:
		return "awaiting_welcome"
	case Joined:
		return "joined"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Transport is the connection a session owns.
type Transport interface {
	irc.Sender
	Receive() ([]byte, error)
	Close() error
}

// Handler answers channel messages. A returned error ends the session.
type Handler interface {
	Handle(ctx context.Context, msg irc.Message) error
}

type Options struct {
	Nickname string
	Channel  string
	// QueueSize bounds how many channel messages may wait for a reply.
	QueueSize int
}

type Session struct {
	conn    Transport
	decoder irc.Decoder
	handler Handler
	printer *console.Printer
	runLog  io.Writer
	metrics *telemetry.Metrics
	logger  *zap.Logger
	opts    Options

	mu        sync.Mutex
	phase     Phase
	closeOnce sync.Once
}

func New(conn Transport, decoder irc.Decoder, handler Handler, printer *console.Printer, runLog io.Writer, metrics *telemetry.Metrics, logger *zap.Logger, opts Options) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runLog == nil {
		runLog = io.Discard
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	return &Session{
		conn:    conn,
		decoder: decoder,
		handler: handler,
		printer: printer,
		runLog:  runLog,
		metrics: metrics,
		logger:  logger,
		opts:    opts,
		phase:   Connecting,
	}
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	prev := s.phase
	s.phase = p
	s.mu.Unlock()
	s.metrics.SetPhase(int(p))
	if prev != p {
		s.logger.Debug("session phase", zap.Stringer("from", prev), zap.Stringer("to", p))
	}
}

// Run registers with the server and serves the connection until the server
// closes it, a read, decode or write fails, or ctx is cancelled. The transport is
// closed exactly once before Run returns. A clean close by either side
// returns nil.
func (s *Session) Run(ctx context.Context) error {
	defer s.close()

	if err := s.register(); err != nil {
		return err
	}

	events := make(chan irc.Message, s.opts.QueueSize)
	readerDone := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(readerDone)
		defer close(events)
		return s.readLoop(gctx, events)
	})
	g.Go(func() error {
		return s.replyLoop(gctx, events)
	})
	// Closing the transport is the only way to unblock a pending Receive.
	g.Go(func() error {
		select {
		case <-gctx.Done():
			s.closeConn()
		case <-readerDone:
		}
		return nil
	})

	err := g.Wait()
	if err != nil {
		s.logger.Error("session ended with error", zap.Error(err))
		return err
	}
	s.logger.Info("session ended")
	return nil
}

func (s *Session) register() error {
	if err := s.conn.Send(irc.Nick(s.opts.Nickname)); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	s.setPhase(Registering)
	if err := s.conn.Send(irc.User(s.opts.Nickname)); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	s.setPhase(AwaitingWelcome)
	s.logger.Info("registration sent", zap.String("nickname", s.opts.Nickname))
	return nil
}

func (s *Session) readLoop(ctx context.Context, out chan<- irc.Message) error {
	for {
		chunk, err := s.conn.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				s.logger.Info("server closed the connection")
				return nil
			}
			s.printer.Error("An error occurred during IRC communication", err)
			return err
		}
		s.metrics.IncChunks()
		text := strings.ToValidUTF8(string(chunk), "")
		if _, err := io.WriteString(s.runLog, text); err != nil {
			s.logger.Warn("failed to write run log", zap.Error(err))
		}

		welcomed := s.Phase() == Joined
		if !welcomed {
			s.printer.ServerText(text)
		}
		events, decodeErr := s.decoder.Decode(text, welcomed)
		for _, ev := range events {
			if err := s.dispatch(ctx, ev, out); err != nil {
				return err
			}
		}
		if decodeErr != nil {
			s.printer.Error("An error occurred during IRC communication", decodeErr)
			return fmt.Errorf("decode: %w", decodeErr)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (s *Session) dispatch(ctx context.Context, ev irc.Event, out chan<- irc.Message) error {
	s.logger.Debug("inbound event", zap.Stringer("kind", ev.Kind), zap.Stringer("phase", s.Phase()))
	switch ev.Kind {
	case irc.EventWelcome:
		if s.Phase() != AwaitingWelcome {
			return nil
		}
		if err := s.conn.Send(irc.Join(s.opts.Channel)); err != nil {
			return fmt.Errorf("join %s: %w", s.opts.Channel, err)
		}
		s.setPhase(Joined)
		s.logger.Info("joined channel", zap.String("channel", s.opts.Channel))
	case irc.EventPing:
		if err := s.conn.Send(irc.Pong(ev.Payload)); err != nil {
			return fmt.Errorf("pong: %w", err)
		}
		s.metrics.IncPongs()
		s.printer.Pong(ev.Payload)
	case irc.EventMessage:
		if s.Phase() != Joined {
			return nil
		}
		select {
		case out <- ev.Message:
		case <-ctx.Done():
		}
	}
	return nil
}

// replyLoop handles messages one at a time, in arrival order.
func (s *Session) replyLoop(ctx context.Context, in <-chan irc.Message) error {
	for {
		select {
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			if err := s.handler.Handle(ctx, msg); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Session) closeConn() {
	s.closeOnce.Do(func() {
		if err := s.conn.Close(); err != nil {
			s.logger.Debug("close transport", zap.Error(err))
		}
	})
}

func (s *Session) close() {
	s.closeConn()
	s.setPhase(Closed)
}
