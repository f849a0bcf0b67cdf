package models

// UploadStatus tracks a pending attachment through its upload lifecycle.
type UploadStatus string

const (
	UploadStatusUploading UploadStatus = "uploading"
	UploadStatusDone      UploadStatus = "done"
	UploadStatusError     UploadStatus = "error"
)

// PendingAttachment is a file the user selected for the next message. It is
// created on selection, transitions uploading -> done|error exactly once, and
// is removable at any state.
type PendingAttachment struct {
	ID       string       `json:"id"`
	FileName string       `json:"fileName"`
	MimeType string       `json:"mimeType"`
	Size     int64        `json:"size"`
	Status   UploadStatus `json:"status"`
	Progress int          `json:"progress"` // 0-100
	RemoteID string       `json:"remoteId,omitempty"`
}

// Uploaded reports whether the attachment finished uploading and can be
// referenced in a send.
func (a *PendingAttachment) Uploaded() bool {
	return a.Status == UploadStatusDone && a.RemoteID != ""
}

// Ref converts a finished upload into the reference sent with a message.
func (a *PendingAttachment) Ref() AttachmentRef {
	return AttachmentRef{FileID: a.RemoteID, FileName: a.FileName, FileType: a.MimeType}
}
