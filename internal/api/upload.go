package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// UploadResult is the server's record of an uploaded file.
type UploadResult struct {
	FileID   string `json:"fileId"`
	FileType string `json:"fileType"`
}

// ProgressFunc receives upload progress as bytes written out of total.
type ProgressFunc func(written, total int64)

// progressReader counts bytes as the HTTP transport consumes the body.
type progressReader struct {
	r        io.Reader
	total    int64
	written  int64
	progress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.written += int64(n)
		if p.progress != nil {
			p.progress(p.written, p.total)
		}
	}
	return n, err
}

// UploadFile sends one file as multipart form data. progress may be nil.
func (c *Client) UploadFile(ctx context.Context, fileName, mimeType string, r io.Reader, progress ProgressFunc) (*UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("buffering file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing form: %w", err)
	}

	pr := &progressReader{r: &body, total: int64(body.Len()), progress: progress}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", pr)
	if err != nil {
		return nil, fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.ContentLength = pr.total

	resp, err := c.crud.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", fileName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeServerError(resp)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}
	if result.FileType == "" {
		result.FileType = mimeType
	}
	return &result, nil
}

// DeleteFile removes an uploaded file, used when the user discards a
// pending attachment that already finished uploading.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/files/"+fileID, nil, nil)
}
