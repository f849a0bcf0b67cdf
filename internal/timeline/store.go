// Package timeline holds the ordered message list for the active
// conversation. The store is the single source of truth the UI observes;
// stream sessions and controllers mutate it, nothing else does.
package timeline

import (
	"sync"

	"github.com/pretend1111/Claude-clone-sub000/internal/models"
)

// Store is the ordered, mutable message sequence for one conversation.
type Store struct {
	mu        sync.RWMutex
	messages  []models.Message
	streaming bool
	loading   bool
	onChange  func()
}

// NewStore creates an empty timeline.
func NewStore() *Store {
	return &Store{}
}

// SetChangeHandler registers a callback invoked after every mutation. The
// callback runs outside the store lock.
func (s *Store) SetChangeHandler(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Messages returns a snapshot of the current timeline.
func (s *Store) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Last returns the final message, if any.
func (s *Store) Last() (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.messages) == 0 {
		return models.Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Append adds a message to the end of the timeline.
func (s *Store) Append(msg models.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.notify()
}

// Replace swaps in a full message list, used when loading history.
func (s *Store) Replace(msgs []models.Message) {
	s.mu.Lock()
	s.messages = make([]models.Message, len(msgs))
	copy(s.messages, msgs)
	s.mu.Unlock()
	s.notify()
}

// ApplyToLast runs mutate against the final message, but only when that
// message has the expected role. Streaming deltas target the trailing
// assistant placeholder; a false return means the timeline has moved on and
// the update was dropped.
func (s *Store) ApplyToLast(role models.Role, mutate func(*models.Message)) bool {
	s.mu.Lock()
	if len(s.messages) == 0 || s.messages[len(s.messages)-1].Role != role {
		s.mu.Unlock()
		return false
	}
	mutate(&s.messages[len(s.messages)-1])
	s.mu.Unlock()
	s.notify()
	return true
}

// TruncateFrom removes the message at index and everything after it. The
// first index messages keep their order unchanged. Out-of-range indices are
// no-ops.
func (s *Store) TruncateFrom(index int) {
	s.mu.Lock()
	if index < 0 || index >= len(s.messages) {
		s.mu.Unlock()
		return
	}
	s.messages = s.messages[:index]
	s.mu.Unlock()
	s.notify()
}

// SetStreaming flags whether a stream session is actively writing.
func (s *Store) SetStreaming(v bool) {
	s.mu.Lock()
	s.streaming = v
	s.mu.Unlock()
	s.notify()
}

// Streaming reports whether a stream session is actively writing.
func (s *Store) Streaming() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streaming
}

// SetLoading flags whether history is being fetched.
func (s *Store) SetLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
	s.notify()
}

// Loading reports whether history is being fetched.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}
