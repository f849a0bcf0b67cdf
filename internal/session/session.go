package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pretend1111/Claude-clone-sub000/internal/api"
	"github.com/pretend1111/Claude-clone-sub000/internal/logger"
	"github.com/pretend1111/Claude-clone-sub000/internal/models"
	"github.com/pretend1111/Claude-clone-sub000/internal/stream"
	"github.com/pretend1111/Claude-clone-sub000/internal/timeline"
)

// State is the lifecycle position of a stream session. Terminal states never
// transition further; a new send always gets a new Session.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateStreaming
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Streamer is what a session needs from the API layer.
type Streamer interface {
	StreamChat(ctx context.Context, req api.ChatRequest) (io.ReadCloser, error)
}

// DefaultIdleTimeout fails a session that receives no bytes for this long.
// The wire protocol itself defines no timeout, so this is the client's own
// liveness guard against an unbounded hang.
const DefaultIdleTimeout = 90 * time.Second

// Session drives one request/response cycle: it issues the send, decodes and
// routes frames, and applies events to the trailing assistant message. Every
// timeline mutation is gated on the session token, so a superseded session
// can never write again regardless of in-flight network timing.
type Session struct {
	id       string
	token    *Token
	store    *timeline.Store
	streamer Streamer
	req      api.ChatRequest
	idle     time.Duration
	log      zerolog.Logger

	mu        sync.Mutex
	state     State
	cancel    context.CancelFunc
	cancelled bool
	timedOut  bool

	done  chan struct{}
	final State
}

// Option configures a Session.
type Option func(*Session)

// WithIdleTimeout overrides the liveness timeout.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Session) { s.idle = d }
}

// New creates a session bound to its identity token.
func New(token *Token, store *timeline.Store, streamer Streamer, req api.ChatRequest, opts ...Option) *Session {
	s := &Session{
		id:       uuid.New().String(),
		token:    token,
		store:    store,
		streamer: streamer,
		req:      req,
		idle:     DefaultIdleTimeout,
		log:      logger.Component("session"),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("session_id", s.id).Logger()
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Cancel requests cooperative cancellation. The token goes stale at once,
// which blocks any further timeline mutation even before the read loop
// observes the cancelled context.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	cancel := s.cancel
	s.mu.Unlock()

	wasLive := s.token.Invalidate()
	if cancel != nil {
		cancel()
	}
	// The deferred streaming-flag reset in run is token-gated and the token
	// just went stale, so the flag is cleared here instead. A session whose
	// token was already stale must not touch its successor's flag.
	if wasLive {
		s.store.SetStreaming(false)
	}
}

// apply writes one event into the trailing assistant message, checking the
// token immediately before the mutation.
func (s *Session) apply(ev models.StreamEvent) {
	if !s.token.Live() {
		return
	}
	s.store.ApplyToLast(models.RoleAssistant, func(m *models.Message) {
		switch e := ev.(type) {
		case models.TextDelta:
			// The server sends the running total, so replace, never append.
			m.Content = e.FullText
			m.IsThinking = false
		case models.ThinkingDelta:
			m.Thinking = e.FullText
			m.IsThinking = true
		case models.ThinkingSummary:
			m.ThinkingSummary = e.Text
			m.IsThinking = false
		case models.StatusUpdate:
			m.SearchStatus = e.Message
		case models.SearchSources:
			m.AddCitations(e.Sources)
			if e.Query != "" {
				m.MergeSearchLog(e.Query, e.Sources)
			}
		case models.DocumentCreated:
			doc := e.Doc
			m.Document = &doc
		}
	})
}

// fail writes a human-readable error into the assistant placeholder so the
// timeline never shows a mysteriously empty turn. An explicit error always
// supersedes whatever partial text had accumulated.
func (s *Session) fail(message string) {
	s.setState(StateFailed)
	if !s.token.Live() {
		return
	}
	s.store.ApplyToLast(models.RoleAssistant, func(m *models.Message) {
		m.Content = "Error: " + message
		m.IsThinking = false
		m.SearchStatus = ""
	})
}

// finalize freezes the assistant message after a clean termination.
func (s *Session) finalize() {
	s.setState(StateCompleted)
	if !s.token.Live() {
		return
	}
	s.store.ApplyToLast(models.RoleAssistant, func(m *models.Message) {
		m.IsThinking = false
		m.SearchStatus = ""
	})
}

// Run executes the session to a terminal state and returns it. The caller
// appends the assistant placeholder before calling Run; Run only ever writes
// into that trailing message.
func (s *Session) Run(ctx context.Context) State {
	st := s.run(ctx)
	s.mu.Lock()
	s.final = st
	s.mu.Unlock()
	close(s.done)
	return st
}

// Wait blocks until Run finishes and returns the terminal state.
func (s *Session) Wait() State {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.final
}

func (s *Session) run(ctx context.Context) State {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		s.setState(StateCancelled)
		return StateCancelled
	}
	s.cancel = cancel
	s.state = StateRequesting
	s.mu.Unlock()

	body, err := s.streamer.StreamChat(ctx, s.req)
	if err != nil {
		if s.wasCancelled() {
			s.setState(StateCancelled)
			return StateCancelled
		}
		s.log.Warn().Err(err).Msg("chat request failed")
		s.fail(requestErrorMessage(err))
		return StateFailed
	}
	defer body.Close()

	s.setState(StateStreaming)
	if s.token.Live() {
		s.store.SetStreaming(true)
		defer func() {
			if s.token.Live() {
				s.store.SetStreaming(false)
			}
		}()
	}

	// Liveness watchdog: no bytes for the idle window fails the session.
	watchdog := time.AfterFunc(s.idle, func() {
		s.mu.Lock()
		s.timedOut = true
		s.mu.Unlock()
		cancel()
	})
	defer watchdog.Stop()

	decoder := stream.NewFrameDecoder(body)
	for {
		payload, ok := decoder.Next()
		if !ok {
			break
		}
		watchdog.Reset(s.idle)

		ev, ok := stream.Route(payload)
		if !ok {
			// Decode noise and unknown kinds are transparent.
			continue
		}

		// User cancellation wins over a concurrent watchdog firing; a
		// watchdog-cancelled context must still report the timeout.
		if s.wasCancelled() {
			s.setState(StateCancelled)
			return StateCancelled
		}
		if s.timedOutLocked() {
			s.log.Warn().Dur("idle", s.idle).Msg("stream idle timeout")
			s.fail(fmt.Sprintf("no response received for %s", s.idle))
			return StateFailed
		}
		if ctx.Err() != nil {
			s.setState(StateCancelled)
			return StateCancelled
		}

		switch e := ev.(type) {
		case models.MessageStop:
			s.finalize()
			return StateCompleted
		case models.ErrorEvent:
			s.log.Warn().Str("message", e.Message).Msg("server error frame")
			s.fail(e.Message)
			return StateFailed
		default:
			s.apply(ev)
		}
	}

	// Stream ended without an in-band terminal event.
	switch {
	case s.wasCancelled():
		s.setState(StateCancelled)
		return StateCancelled
	case s.timedOutLocked():
		s.log.Warn().Dur("idle", s.idle).Msg("stream idle timeout")
		s.fail(fmt.Sprintf("no response received for %s", s.idle))
		return StateFailed
	case decoder.SawDone():
		s.finalize()
		return StateCompleted
	case decoder.Err() != nil:
		s.log.Warn().Err(decoder.Err()).Msg("stream read failed")
		s.fail("connection lost while receiving the response")
		return StateFailed
	default:
		// Clean EOF without [DONE]; treat it as completion rather than
		// discarding a fully-delivered answer.
		s.finalize()
		return StateCompleted
	}
}

func (s *Session) wasCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (s *Session) timedOutLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timedOut
}

func requestErrorMessage(err error) string {
	var se *api.ServerError
	if errors.As(err, &se) {
		return se.Message
	}
	return "failed to reach the server"
}
