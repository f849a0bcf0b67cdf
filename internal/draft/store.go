// Package draft preserves unsent composer state across navigation, keyed by
// conversation identity.
package draft

import (
	"encoding/gob"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pretend1111/Claude-clone-sub000/internal/models"
)

func init() {
	// Cache entries are gob-encoded through an interface when persisted.
	gob.Register(models.Draft{})
}

// NewConversationKey keys the draft for a conversation that has not been
// created yet.
const NewConversationKey = "new"

const (
	retention       = 24 * time.Hour
	cleanupInterval = 10 * time.Minute
)

// Store holds one draft per conversation key. Drafts expire after the
// retention window; stale composer state is worse than none.
type Store struct {
	cache *gocache.Cache
	path  string
}

// NewStore creates an empty, memory-only draft store.
func NewStore() *Store {
	return &Store{cache: gocache.New(retention, cleanupInterval)}
}

// NewPersistentStore creates a store backed by a file, loading any drafts a
// previous run flushed there. A missing or unreadable file starts empty.
func NewPersistentStore(path string) *Store {
	s := &Store{cache: gocache.New(retention, cleanupInterval), path: path}
	_ = s.cache.LoadFile(path)
	return s
}

// Flush writes the current drafts to the backing file, if any.
func (s *Store) Flush() error {
	if s.path == "" {
		return nil
	}
	return s.cache.SaveFile(s.path)
}

// Save keeps a draft for later restoration. Trivial drafts (no text, no
// attachments) clear any existing entry instead of being stored.
func (s *Store) Save(key string, d models.Draft) {
	if key == "" {
		key = NewConversationKey
	}
	if d.Empty() {
		s.cache.Delete(key)
		return
	}
	// Copy the attachment slice so later composer edits cannot reach into
	// the stored draft.
	if len(d.Attachments) > 0 {
		atts := make([]models.PendingAttachment, len(d.Attachments))
		copy(atts, d.Attachments)
		d.Attachments = atts
	}
	s.cache.SetDefault(key, d)
}

// Load restores and removes the draft for key: a one-shot restore, so a
// second load returns nothing. Attachments whose upload failed are dropped
// on the way out; their remote object no longer exists.
func (s *Store) Load(key string) (models.Draft, bool) {
	if key == "" {
		key = NewConversationKey
	}
	v, ok := s.cache.Get(key)
	if !ok {
		return models.Draft{}, false
	}
	s.cache.Delete(key)

	d := v.(models.Draft)
	if len(d.Attachments) > 0 {
		kept := d.Attachments[:0]
		for _, a := range d.Attachments {
			if a.Status != models.UploadStatusError {
				kept = append(kept, a)
			}
		}
		d.Attachments = kept
	}
	return d, true
}
