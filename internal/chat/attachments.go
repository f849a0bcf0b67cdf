package chat

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pretend1111/Claude-clone-sub000/internal/logger"
	"github.com/pretend1111/Claude-clone-sub000/internal/models"
	"github.com/pretend1111/Claude-clone-sub000/internal/recovery"
)

// AttachmentManager tracks the composer's pending attachments through their
// upload lifecycle. Each attachment transitions uploading -> done|error
// exactly once and can be removed at any state; removing an uploaded
// attachment also deletes the remote object.
type AttachmentManager struct {
	backend  Backend
	log      zerolog.Logger
	mu       sync.Mutex
	pending  []models.PendingAttachment
	onChange func()
}

// NewAttachmentManager creates an empty manager.
func NewAttachmentManager(backend Backend) *AttachmentManager {
	return &AttachmentManager{
		backend: backend,
		log:     logger.Component("attachments"),
	}
}

// SetChangeHandler registers a callback invoked after every state change.
func (m *AttachmentManager) SetChangeHandler(fn func()) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

func (m *AttachmentManager) notify() {
	m.mu.Lock()
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Add registers a selected file and starts its upload in the background.
// Returns the local attachment ID.
func (m *AttachmentManager) Add(ctx context.Context, fileName, mimeType string, size int64, r io.Reader) string {
	att := models.PendingAttachment{
		ID:       uuid.New().String(),
		FileName: fileName,
		MimeType: mimeType,
		Size:     size,
		Status:   models.UploadStatusUploading,
	}

	m.mu.Lock()
	m.pending = append(m.pending, att)
	m.mu.Unlock()
	m.notify()

	recovery.Go("attachment-upload", func() {
		m.upload(ctx, att.ID, fileName, mimeType, r)
	})
	return att.ID
}

func (m *AttachmentManager) upload(ctx context.Context, id, fileName, mimeType string, r io.Reader) {
	progress := func(written, total int64) {
		if total <= 0 {
			return
		}
		m.update(id, func(a *models.PendingAttachment) {
			a.Progress = int(written * 100 / total)
		})
	}

	result, err := m.backend.UploadFile(ctx, fileName, mimeType, r, progress)
	if err != nil {
		m.log.Warn().Err(err).Str("file", fileName).Msg("upload failed")
		m.update(id, func(a *models.PendingAttachment) {
			if a.Status == models.UploadStatusUploading {
				a.Status = models.UploadStatusError
			}
		})
		return
	}

	m.update(id, func(a *models.PendingAttachment) {
		if a.Status == models.UploadStatusUploading {
			a.Status = models.UploadStatusDone
			a.Progress = 100
			a.RemoteID = result.FileID
			if result.FileType != "" {
				a.MimeType = result.FileType
			}
		}
	})
}

// update mutates the attachment with the given ID if it is still tracked.
func (m *AttachmentManager) update(id string, mutate func(*models.PendingAttachment)) {
	m.mu.Lock()
	for i := range m.pending {
		if m.pending[i].ID == id {
			mutate(&m.pending[i])
			break
		}
	}
	m.mu.Unlock()
	m.notify()
}

// Remove discards an attachment at any state. If it already uploaded, the
// remote object is deleted best-effort.
func (m *AttachmentManager) Remove(id string) {
	m.mu.Lock()
	var removed *models.PendingAttachment
	kept := m.pending[:0]
	for i := range m.pending {
		if m.pending[i].ID == id {
			a := m.pending[i]
			removed = &a
			continue
		}
		kept = append(kept, m.pending[i])
	}
	m.pending = kept
	m.mu.Unlock()
	m.notify()

	if removed != nil && removed.Uploaded() {
		remoteID := removed.RemoteID
		recovery.Go("attachment-delete", func() {
			if err := m.backend.DeleteFile(context.Background(), remoteID); err != nil {
				m.log.Warn().Err(err).Str("file_id", remoteID).Msg("remote attachment delete failed")
			}
		})
	}
}

// Pending returns a snapshot of the tracked attachments.
func (m *AttachmentManager) Pending() []models.PendingAttachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.PendingAttachment, len(m.pending))
	copy(out, m.pending)
	return out
}

// Restore adopts attachments from a saved draft.
func (m *AttachmentManager) Restore(atts []models.PendingAttachment) {
	m.mu.Lock()
	m.pending = make([]models.PendingAttachment, len(atts))
	copy(m.pending, atts)
	m.mu.Unlock()
	m.notify()
}

// Clear drops all tracked attachments without touching remote objects,
// used after a successful send consumed them.
func (m *AttachmentManager) Clear() {
	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()
	m.notify()
}

// Refs returns the references for all finished uploads and whether every
// tracked attachment has finished.
func (m *AttachmentManager) Refs() ([]models.AttachmentRef, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	refs := make([]models.AttachmentRef, 0, len(m.pending))
	ready := true
	for i := range m.pending {
		switch m.pending[i].Status {
		case models.UploadStatusDone:
			refs = append(refs, m.pending[i].Ref())
		case models.UploadStatusUploading:
			ready = false
		}
	}
	return refs, ready
}
