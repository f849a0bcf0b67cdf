// Package emulator is a local chat backend speaking the client's wire
// protocol with in-memory state: streamed chat, conversation CRUD, file
// upload, and delayed title generation. It exists for development and for
// integration tests of the streaming pipeline.
package emulator

import (
	"bufio"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/pretend1111/Claude-clone-sub000/internal/logger"
	"github.com/pretend1111/Claude-clone-sub000/internal/models"
)

// DefaultTitleDelay is how long title generation lags the first completed
// turn, mimicking asynchronous server-side work.
const DefaultTitleDelay = 500 * time.Millisecond

type serverMessage struct {
	models.Message
	ID string `json:"serverId"`
}

type conversation struct {
	conv     models.Conversation
	messages []serverMessage
}

type storedFile struct {
	ID       string
	Name     string
	MimeType string
	Size     int64
}

// Server is the in-memory chat backend.
type Server struct {
	app      *fiber.App
	validate *validator.Validate
	log      zerolog.Logger

	mu         sync.Mutex
	convs      map[string]*conversation
	files      map[string]storedFile
	responder  Responder
	frameDelay time.Duration
	titleDelay time.Duration
}

// ServerOption configures the emulator.
type ServerOption func(*Server)

// WithResponder replaces the default echo script.
func WithResponder(r Responder) ServerOption {
	return func(s *Server) { s.responder = r }
}

// WithFrameDelay inserts a pause between streamed frames.
func WithFrameDelay(d time.Duration) ServerOption {
	return func(s *Server) { s.frameDelay = d }
}

// WithTitleDelay overrides the title generation lag.
func WithTitleDelay(d time.Duration) ServerOption {
	return func(s *Server) { s.titleDelay = d }
}

// NewServer builds the emulator with its routes registered.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		app:        fiber.New(fiber.Config{DisableStartupMessage: true}),
		validate:   validator.New(),
		log:        logger.Component("emulator"),
		convs:      make(map[string]*conversation),
		files:      make(map[string]storedFile),
		responder:  EchoResponder,
		titleDelay: DefaultTitleDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Post("/chat", s.handleChat)
	s.app.Post("/conversations", s.handleCreateConversation)
	s.app.Get("/conversations", s.handleListConversations)
	s.app.Get("/conversations/:id", s.handleGetConversation)
	s.app.Patch("/conversations/:id", s.handleRenameConversation)
	s.app.Delete("/conversations/:id", s.handleDeleteConversation)
	s.app.Delete("/conversations/:id/messages/:messageId", s.handleDeleteMessagesFrom)
	s.app.Post("/files", s.handleUploadFile)
	s.app.Delete("/files/:id", s.handleDeleteFile)
}

// Serve accepts connections on ln until the listener closes.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Listen serves on addr.
func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("emulator listening")
	return s.app.Listen(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func errJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// chatRequest mirrors the client's POST /chat body.
type chatRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Message        string `json:"message" validate:"required"`
	Attachments    []struct {
		FileID string `json:"fileId" validate:"required"`
	} `json:"attachments"`
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	s.mu.Lock()
	conv, ok := s.convs[req.ConversationID]
	if !ok {
		s.mu.Unlock()
		return errJSON(c, fiber.StatusNotFound, "conversation not found")
	}

	// Record the user message before streaming a reply.
	userMsg := serverMessage{Message: models.NewUserMessage(req.Message, nil), ID: uuid.New().String()}
	for _, a := range req.Attachments {
		if f, ok := s.files[a.FileID]; ok {
			userMsg.Attachments = append(userMsg.Attachments, models.AttachmentRef{
				FileID: f.ID, FileName: f.Name, FileType: f.MimeType,
			})
		}
	}
	conv.messages = append(conv.messages, userMsg)
	convCopy := conv.conv
	frames := s.responder(&convCopy, req.Message)
	frameDelay := s.frameDelay
	firstTurn := len(conv.messages) == 1
	s.mu.Unlock()

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		var finalText string
		for _, frame := range frames {
			if _, err := fmt.Fprintf(w, "data: %s\n", frame); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
			if full, ok := extractTextDelta(frame); ok {
				finalText = full
			}
			if frameDelay > 0 {
				time.Sleep(frameDelay)
			}
		}
		if _, err := fmt.Fprint(w, "data: [DONE]\n"); err != nil {
			return
		}
		_ = w.Flush()

		s.recordAssistantReply(req.ConversationID, finalText)
		if firstTurn {
			s.scheduleTitle(req.ConversationID, req.Message)
		}
	}))
	return nil
}

func (s *Server) recordAssistantReply(convID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[convID]
	if !ok {
		return
	}
	msg := serverMessage{ID: uuid.New().String()}
	msg.Role = models.RoleAssistant
	msg.Content = text
	now := time.Now()
	msg.CreatedAt = &now
	conv.messages = append(conv.messages, msg)
}

// scheduleTitle sets the conversation title after a lag, the way a real
// backend generates titles out of band.
func (s *Server) scheduleTitle(convID, firstMessage string) {
	time.AfterFunc(s.titleDelay, func() {
		title := firstMessage
		if len(title) > 40 {
			title = title[:40]
		}
		s.mu.Lock()
		if conv, ok := s.convs[convID]; ok && conv.conv.Title == "" {
			conv.conv.Title = title
		}
		s.mu.Unlock()
	})
}

type createConversationRequest struct {
	Model string `json:"model" validate:"required"`
}

func (s *Server) handleCreateConversation(c *fiber.Ctx) error {
	var req createConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	now := time.Now()
	conv := &conversation{conv: models.Conversation{
		ID:        uuid.New().String(),
		Model:     req.Model,
		CreatedAt: &now,
	}}

	s.mu.Lock()
	s.convs[conv.conv.ID] = conv
	s.mu.Unlock()

	s.log.Debug().Str("conversation_id", conv.conv.ID).Msg("conversation created")
	return c.JSON(conv.conv)
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	s.mu.Lock()
	out := make([]models.Conversation, 0, len(s.convs))
	for _, conv := range s.convs {
		out = append(out, conv.conv)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt == nil || out[j].CreatedAt == nil {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(*out[j].CreatedAt)
	})
	return c.JSON(out)
}

func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	s.mu.Lock()
	conv, ok := s.convs[c.Params("id")]
	if !ok {
		s.mu.Unlock()
		return errJSON(c, fiber.StatusNotFound, "conversation not found")
	}
	msgs := make([]models.Message, len(conv.messages))
	for i, m := range conv.messages {
		msgs[i] = m.Message
		msgs[i].ServerID = m.ID
	}
	detail := fiber.Map{"conversation": conv.conv, "messages": msgs}
	s.mu.Unlock()
	return c.JSON(detail)
}

type renameConversationRequest struct {
	Title string `json:"title" validate:"required"`
}

func (s *Server) handleRenameConversation(c *fiber.Ctx) error {
	var req renameConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[c.Params("id")]
	if !ok {
		return errJSON(c, fiber.StatusNotFound, "conversation not found")
	}
	conv.conv.Title = req.Title
	return c.JSON(conv.conv)
}

func (s *Server) handleDeleteConversation(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.convs[c.Params("id")]; !ok {
		return errJSON(c, fiber.StatusNotFound, "conversation not found")
	}
	delete(s.convs, c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleDeleteMessagesFrom(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[c.Params("id")]
	if !ok {
		return errJSON(c, fiber.StatusNotFound, "conversation not found")
	}
	target := c.Params("messageId")
	for i, m := range conv.messages {
		if m.ID == target {
			conv.messages = conv.messages[:i]
			return c.SendStatus(fiber.StatusNoContent)
		}
	}
	return errJSON(c, fiber.StatusNotFound, "message not found")
}

func (s *Server) handleUploadFile(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "no file provided")
	}

	stored := storedFile{
		ID:       uuid.New().String(),
		Name:     file.Filename,
		MimeType: file.Header.Get("Content-Type"),
		Size:     file.Size,
	}

	s.mu.Lock()
	s.files[stored.ID] = stored
	s.mu.Unlock()

	s.log.Debug().Str("file_id", stored.ID).Str("name", stored.Name).Msg("file uploaded")
	return c.JSON(fiber.Map{"fileId": stored.ID, "fileType": stored.MimeType})
}

func (s *Server) handleDeleteFile(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[c.Params("id")]; !ok {
		return errJSON(c, fiber.StatusNotFound, "file not found")
	}
	delete(s.files, c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}
