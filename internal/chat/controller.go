// Package chat wires the timeline, session, and API layers into the
// controllers the UI drives: sending, cancelling, editing, and the
// best-effort reconciliation that follows a completed turn.
package chat

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pretend1111/Claude-clone-sub000/internal/api"
	"github.com/pretend1111/Claude-clone-sub000/internal/logger"
	"github.com/pretend1111/Claude-clone-sub000/internal/models"
	"github.com/pretend1111/Claude-clone-sub000/internal/recovery"
	"github.com/pretend1111/Claude-clone-sub000/internal/session"
	"github.com/pretend1111/Claude-clone-sub000/internal/timeline"
)

// Backend is what the controller needs from the API layer.
type Backend interface {
	CreateConversation(ctx context.Context, model string) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*api.ConversationDetail, error)
	DeleteMessagesFrom(ctx context.Context, convID, fromMessageID string) error
	StreamChat(ctx context.Context, req api.ChatRequest) (io.ReadCloser, error)
	UploadFile(ctx context.Context, fileName, mimeType string, r io.Reader, progress api.ProgressFunc) (*api.UploadResult, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// ErrStreamActive is returned when a send is attempted while a stream
// session is still live for this conversation.
var ErrStreamActive = errors.New("a response is still streaming")

// ErrCreationInFlight is returned when a send is attempted while the
// conversation resource is still being created.
var ErrCreationInFlight = errors.New("conversation creation in flight")

// defaultTitleDelays staggers the best-effort title re-fetches. Title
// generation is asynchronous server-side work with no completion signal, so
// the client polls a few times and then gives up quietly.
var defaultTitleDelays = []time.Duration{0, 2 * time.Second, 5 * time.Second, 10 * time.Second}

// Controller owns the conversation lifecycle for one active conversation:
// it creates the resource on first send, starts stream sessions, and keeps
// at most one of them live.
type Controller struct {
	backend  Backend
	store    *timeline.Store
	sessions *session.Registry
	log      zerolog.Logger

	mu          sync.Mutex
	conv        models.Conversation
	creating    bool
	current     *session.Session
	titleDelays []time.Duration
	onTitle     func(string)
	sessionOpts []session.Option
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithTitleDelays overrides the title reconciliation schedule.
func WithTitleDelays(delays []time.Duration) ControllerOption {
	return func(c *Controller) { c.titleDelays = delays }
}

// WithSessionOptions passes options through to every stream session.
func WithSessionOptions(opts ...session.Option) ControllerOption {
	return func(c *Controller) { c.sessionOpts = opts }
}

// WithTitleHandler registers a callback invoked when a reconciled title
// lands.
func WithTitleHandler(fn func(title string)) ControllerOption {
	return func(c *Controller) { c.onTitle = fn }
}

// NewController creates a controller for a conversation that may not exist
// yet (empty ID) on the given model.
func NewController(backend Backend, store *timeline.Store, registry *session.Registry, model string, opts ...ControllerOption) *Controller {
	c := &Controller{
		backend:     backend,
		store:       store,
		sessions:    registry,
		conv:        models.Conversation{Model: model},
		titleDelays: defaultTitleDelays,
		log:         logger.Component("chat"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Conversation returns a snapshot of the active conversation.
func (c *Controller) Conversation() models.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv
}

// LoadConversation adopts an existing conversation and its history.
func (c *Controller) LoadConversation(conv models.Conversation, history []models.Message) {
	c.mu.Lock()
	c.conv = conv
	c.mu.Unlock()
	c.store.Replace(history)
}

// CanReload reports whether a conversation-identity-keyed reload is safe.
// While creation is in flight the conversation exists server-side before the
// client has adopted its ID, so reads are suppressed.
func (c *Controller) CanReload() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.creating
}

// Timeline exposes the store for observers.
func (c *Controller) Timeline() *timeline.Store {
	return c.store
}

// Send performs one logical send: it creates the conversation resource if
// this is the first send, appends the optimistic user message and the
// assistant placeholder, and starts a stream session. The returned session
// is already running; callers may Wait on it or keep going.
func (c *Controller) Send(ctx context.Context, text string, attachments []models.AttachmentRef) (*session.Session, error) {
	c.mu.Lock()
	if c.creating {
		c.mu.Unlock()
		return nil, ErrCreationInFlight
	}
	if c.current != nil && !c.current.State().Terminal() {
		c.mu.Unlock()
		return nil, ErrStreamActive
	}

	if !c.conv.Persisted() {
		c.creating = true
		model := c.conv.Model
		c.mu.Unlock()

		conv, err := c.backend.CreateConversation(ctx, model)

		c.mu.Lock()
		c.creating = false
		if err != nil {
			c.mu.Unlock()
			c.log.Error().Err(err).Msg("conversation creation failed")
			// The send is aborted: nothing was persisted as sent. The
			// timeline still gets a populated assistant turn so the
			// failure is visible where the answer would have been.
			c.store.Append(models.Message{
				Role:    models.RoleAssistant,
				Content: "Error: could not start the conversation",
			})
			return nil, err
		}
		// The ID transitions empty -> set exactly once, here.
		c.conv.ID = conv.ID
		if conv.Title != "" {
			c.conv.Title = conv.Title
		}
	}
	convID := c.conv.ID
	c.mu.Unlock()

	c.store.Append(models.NewUserMessage(text, attachments))
	c.store.Append(models.NewAssistantPlaceholder())

	return c.startSession(ctx, convID, text, attachments), nil
}

// startSession begins a new stream session for convID, invalidating any
// prior one before the first mutation can happen.
func (c *Controller) startSession(ctx context.Context, convID, text string, attachments []models.AttachmentRef) *session.Session {
	req := api.ChatRequest{
		ConversationID: convID,
		Message:        text,
	}
	for _, a := range attachments {
		req.Attachments = append(req.Attachments, api.ChatAttachment{FileID: a.FileID})
	}

	token := c.sessions.Begin(convID)
	sess := session.New(token, c.store, c.backend, req, c.sessionOpts...)

	c.mu.Lock()
	c.current = sess
	c.mu.Unlock()

	recovery.Go("stream-session", func() {
		if sess.Run(ctx) == session.StateCompleted {
			c.scheduleTitleReconciliation(convID)
		}
	})
	return sess
}

// CancelStream cancels the live stream session, if any. Cancellation is a
// user-intended terminal state, not an error.
func (c *Controller) CancelStream() {
	c.mu.Lock()
	sess := c.current
	c.mu.Unlock()
	if sess != nil && !sess.State().Terminal() {
		sess.Cancel()
	}
}

// Streaming reports whether a stream session is currently live.
func (c *Controller) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && !c.current.State().Terminal()
}

func (c *Controller) setTitle(title string) {
	c.mu.Lock()
	c.conv.Title = title
	fn := c.onTitle
	c.mu.Unlock()
	if fn != nil {
		fn(title)
	}
}
