package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pretend1111/Claude-clone-sub000/internal/api"
	"github.com/pretend1111/Claude-clone-sub000/internal/emulator"
	"github.com/pretend1111/Claude-clone-sub000/internal/models"
	"github.com/pretend1111/Claude-clone-sub000/internal/timeline"
)

// stubStreamer serves a scripted frame sequence as a response body. With
// hang set, the body blocks after the script until the request context is
// cancelled, the way a real chat response does.
type stubStreamer struct {
	frames [][]byte
	done   bool
	hang   bool
	err    error
}

func (s *stubStreamer) StreamChat(ctx context.Context, _ api.ChatRequest) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	var buf bytes.Buffer
	for _, f := range s.frames {
		fmt.Fprintf(&buf, "data: %s\n", f)
	}
	if s.done {
		buf.WriteString("data: [DONE]\n")
	}
	if !s.hang {
		return io.NopCloser(&buf), nil
	}
	return &hangingBody{ctx: ctx, buf: &buf}, nil
}

type hangingBody struct {
	ctx context.Context
	buf *bytes.Buffer
}

func (b *hangingBody) Read(p []byte) (int, error) {
	if b.buf.Len() > 0 {
		return b.buf.Read(p)
	}
	<-b.ctx.Done()
	return 0, b.ctx.Err()
}

func (b *hangingBody) Close() error { return nil }

func newSessionUnderTest(t *testing.T, streamer Streamer, opts ...Option) (*Session, *timeline.Store, *Token) {
	t.Helper()
	store := timeline.NewStore()
	store.Append(models.NewUserMessage("hi", nil))
	store.Append(models.NewAssistantPlaceholder())

	registry := NewRegistry()
	token := registry.Begin("conv-1")
	sess := New(token, store, streamer, api.ChatRequest{ConversationID: "conv-1", Message: "hi"}, opts...)
	return sess, store, token
}

func TestSessionCompletesOnMessageStop(t *testing.T) {
	streamer := &stubStreamer{
		frames: [][]byte{
			emulator.ThinkingDeltaFrame("Reading."),
			emulator.StatusFrame("Searching the web"),
			emulator.TextDeltaFrame("Hello"),
			emulator.TextDeltaFrame("Hello world"),
			emulator.StopFrame(),
		},
		done: true,
	}
	sess, store, _ := newSessionUnderTest(t, streamer)

	state := sess.Run(context.Background())
	assert.Equal(t, StateCompleted, state)
	assert.Equal(t, StateCompleted, sess.Wait())

	last, ok := store.Last()
	require.True(t, ok)
	assert.Equal(t, "Hello world", last.Content)
	assert.Equal(t, "Reading.", last.Thinking)
	assert.False(t, last.IsThinking)
	assert.Empty(t, last.SearchStatus)
	assert.False(t, store.Streaming())
}

func TestSessionReplacesRatherThanAppends(t *testing.T) {
	// Each delta carries the running total; the applied content must equal
	// the last total, never a concatenation of them.
	streamer := &stubStreamer{
		frames: [][]byte{
			emulator.TextDeltaFrame("a"),
			emulator.TextDeltaFrame("ab"),
			emulator.TextDeltaFrame("abc"),
			emulator.StopFrame(),
		},
		done: true,
	}
	sess, store, _ := newSessionUnderTest(t, streamer)
	sess.Run(context.Background())

	last, _ := store.Last()
	assert.Equal(t, "abc", last.Content)
}

func TestSessionAppliesSearchAndDocumentEvents(t *testing.T) {
	sources := []models.Citation{
		{URL: "https://a.example", Title: "A"},
		{URL: "https://b.example", Title: "B"},
	}
	streamer := &stubStreamer{
		frames: [][]byte{
			emulator.SearchSourcesFrame("go schedulers", sources),
			emulator.SearchSourcesFrame("go schedulers", sources), // repeated batch
			emulator.ThinkingSummaryFrame("Compared two schedulers."),
			emulator.DocumentFrame(models.DocumentRef{ID: "doc-1", Title: "Notes"}),
			emulator.TextDeltaFrame("See the notes."),
			emulator.StopFrame(),
		},
		done: true,
	}
	sess, store, _ := newSessionUnderTest(t, streamer)
	require.Equal(t, StateCompleted, sess.Run(context.Background()))

	last, _ := store.Last()
	assert.Len(t, last.Citations, 2)
	require.Len(t, last.SearchLogs, 1)
	assert.Len(t, last.SearchLogs[0].Results, 2)
	assert.Equal(t, "Compared two schedulers.", last.ThinkingSummary)
	require.NotNil(t, last.Document)
	assert.Equal(t, "doc-1", last.Document.ID)
}

func TestSessionErrorFrameSupersedesPartialContent(t *testing.T) {
	streamer := &stubStreamer{
		frames: [][]byte{
			emulator.TextDeltaFrame("partial answ"),
			emulator.ErrorFrame("model overloaded"),
		},
		done: true,
	}
	sess, store, _ := newSessionUnderTest(t, streamer)

	assert.Equal(t, StateFailed, sess.Run(context.Background()))
	last, _ := store.Last()
	assert.Equal(t, "Error: model overloaded", last.Content)
}

func TestSessionUnknownFramesAreTransparent(t *testing.T) {
	streamer := &stubStreamer{
		frames: [][]byte{
			[]byte(`{"type":"rate_limit_notice","retry_after":30}`),
			[]byte(`not even json`),
			emulator.TextDeltaFrame("fine"),
			emulator.StopFrame(),
		},
		done: true,
	}
	sess, store, _ := newSessionUnderTest(t, streamer)

	assert.Equal(t, StateCompleted, sess.Run(context.Background()))
	last, _ := store.Last()
	assert.Equal(t, "fine", last.Content)
}

func TestSessionCleanEOFWithoutDoneCompletes(t *testing.T) {
	streamer := &stubStreamer{
		frames: [][]byte{emulator.TextDeltaFrame("whole answer")},
		done:   false,
	}
	sess, store, _ := newSessionUnderTest(t, streamer)

	assert.Equal(t, StateCompleted, sess.Run(context.Background()))
	last, _ := store.Last()
	assert.Equal(t, "whole answer", last.Content)
}

func TestSessionRequestFailure(t *testing.T) {
	t.Run("ServerErrorMessageSurfaces", func(t *testing.T) {
		streamer := &stubStreamer{err: &api.ServerError{StatusCode: 503, Message: "backend unavailable"}}
		sess, store, _ := newSessionUnderTest(t, streamer)

		assert.Equal(t, StateFailed, sess.Run(context.Background()))
		last, _ := store.Last()
		assert.Equal(t, "Error: backend unavailable", last.Content)
	})

	t.Run("TransportErrorGetsGenericMessage", func(t *testing.T) {
		streamer := &stubStreamer{err: fmt.Errorf("dial tcp: connection refused")}
		sess, store, _ := newSessionUnderTest(t, streamer)

		assert.Equal(t, StateFailed, sess.Run(context.Background()))
		last, _ := store.Last()
		assert.Equal(t, "Error: failed to reach the server", last.Content)
	})
}

func TestSessionCancelBeforeRun(t *testing.T) {
	streamer := &stubStreamer{frames: [][]byte{emulator.TextDeltaFrame("x")}, done: true}
	sess, store, _ := newSessionUnderTest(t, streamer)

	sess.Cancel()
	assert.Equal(t, StateCancelled, sess.Run(context.Background()))

	// Nothing was applied after cancellation.
	last, _ := store.Last()
	assert.Empty(t, last.Content)
}

func TestSessionCancelMidStream(t *testing.T) {
	streamer := &stubStreamer{
		frames: [][]byte{emulator.TextDeltaFrame("partial")},
		hang:   true,
	}
	sess, store, _ := newSessionUnderTest(t, streamer)

	applied := make(chan struct{}, 8)
	store.SetChangeHandler(func() {
		select {
		case applied <- struct{}{}:
		default:
		}
	})

	go sess.Run(context.Background())

	// Wait for the first delta to land, then cancel.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-applied:
		case <-deadline:
			t.Fatal("first delta never applied")
		}
		if last, ok := store.Last(); ok && last.Content == "partial" {
			break
		}
	}
	sess.Cancel()

	assert.Equal(t, StateCancelled, sess.Wait())
	last, _ := store.Last()
	assert.Equal(t, "partial", last.Content, "cancellation keeps accumulated content")
	assert.False(t, store.Streaming())
}

func TestSessionIdleTimeout(t *testing.T) {
	streamer := &stubStreamer{
		frames: [][]byte{emulator.TextDeltaFrame("start")},
		hang:   true,
	}
	sess, store, _ := newSessionUnderTest(t, streamer, WithIdleTimeout(50*time.Millisecond))

	assert.Equal(t, StateFailed, sess.Run(context.Background()))
	last, _ := store.Last()
	assert.Contains(t, last.Content, "Error: no response received")
}

type streamerFunc func(ctx context.Context, req api.ChatRequest) (io.ReadCloser, error)

func (f streamerFunc) StreamChat(ctx context.Context, req api.ChatRequest) (io.ReadCloser, error) {
	return f(ctx, req)
}

// lateFrameBody delivers one frame, stalls until the request context is
// cancelled, then delivers one final buffered frame before EOF, the way a
// transport buffer can still hold data when a watchdog fires.
type lateFrameBody struct {
	ctx   context.Context
	early *bytes.Buffer
	late  *bytes.Buffer
	stall bool
}

func (b *lateFrameBody) Read(p []byte) (int, error) {
	if !b.stall {
		if b.early.Len() > 0 {
			return b.early.Read(p)
		}
		b.stall = true
		<-b.ctx.Done()
	}
	if b.late.Len() > 0 {
		return b.late.Read(p)
	}
	return 0, io.EOF
}

func (b *lateFrameBody) Close() error { return nil }

func TestSessionIdleTimeoutReportedDespiteLateFrame(t *testing.T) {
	streamer := streamerFunc(func(ctx context.Context, _ api.ChatRequest) (io.ReadCloser, error) {
		early := &bytes.Buffer{}
		fmt.Fprintf(early, "data: %s\n", emulator.TextDeltaFrame("start"))
		late := &bytes.Buffer{}
		fmt.Fprintf(late, "data: %s\n", emulator.TextDeltaFrame("start, resumed"))
		return &lateFrameBody{ctx: ctx, early: early, late: late}, nil
	})
	sess, store, _ := newSessionUnderTest(t, streamer, WithIdleTimeout(30*time.Millisecond))

	assert.Equal(t, StateFailed, sess.Run(context.Background()))
	last, _ := store.Last()
	assert.Contains(t, last.Content, "Error: no response received")
}

func TestStaleSessionNeverMutates(t *testing.T) {
	store := timeline.NewStore()
	store.Append(models.NewUserMessage("hi", nil))
	store.Append(models.NewAssistantPlaceholder())

	registry := NewRegistry()
	token := registry.Begin("conv-1")
	streamer := &stubStreamer{
		frames: [][]byte{
			emulator.TextDeltaFrame("stale write"),
			emulator.StopFrame(),
		},
		done: true,
	}
	sess := New(token, store, streamer, api.ChatRequest{ConversationID: "conv-1", Message: "hi"})

	// A newer session takes over before the old one runs. Whatever frames
	// the old response still delivers must not touch the timeline.
	registry.Begin("conv-1")

	sess.Run(context.Background())
	last, _ := store.Last()
	assert.Empty(t, last.Content)
	assert.False(t, store.Streaming())
}

func TestCancelOfSupersededSessionLeavesSuccessorLive(t *testing.T) {
	store := timeline.NewStore()
	store.Append(models.NewUserMessage("hi", nil))
	store.Append(models.NewAssistantPlaceholder())

	registry := NewRegistry()
	tokenA := registry.Begin("conv-1")
	sessA := New(tokenA, store, &stubStreamer{hang: true}, api.ChatRequest{ConversationID: "conv-1", Message: "hi"})

	// A replacement session takes over, then the old one gets cancelled
	// (an Esc racing an edit replay). The replacement's identity and its
	// streaming flag must survive.
	tokenB := registry.Begin("conv-1")
	store.SetStreaming(true)

	sessA.Cancel()
	assert.True(t, tokenB.Live())
	assert.True(t, store.Streaming())
}

func TestStateStringAndTerminal(t *testing.T) {
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "cancelled", StateCancelled.String())
	assert.False(t, StateStreaming.Terminal())
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateFailed.Terminal())
}
