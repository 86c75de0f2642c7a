// Package upload stores node images and serves them back by URL.
package upload

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// MaxBytes is the default upload size cap.
const MaxBytes = 2 * 1024 * 1024

// extByMIME whitelists the accepted image types. The type is sniffed
// from file content, never taken from the client.
var extByMIME = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Uploader validates and stores image files.
type Uploader struct {
	dir      string
	maxBytes int64
}

// New creates an uploader storing files under dir.
func New(dir string, maxBytes int64) (*Uploader, error) {
	if maxBytes <= 0 {
		maxBytes = MaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Uploader{dir: dir, maxBytes: maxBytes}, nil
}

// Result describes a stored upload.
type Result struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	MIME     string `json:"mime"`
}

// Store validates the stream and writes it under a fresh random
// filename. The original filename is discarded entirely.
func (u *Uploader) Store(r io.Reader) (*Result, error) {
	// Read one byte past the cap so an oversized file is detected
	// without buffering all of it.
	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > u.maxBytes {
		return nil, fmt.Errorf("uploading image: file exceeds the %d byte limit", u.maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("uploading image: empty file")
	}

	mime := http.DetectContentType(data)
	ext, ok := extByMIME[mime]
	if !ok {
		return nil, fmt.Errorf("uploading image: unsupported file type %s", mime)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(u.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing upload: %w", err)
	}
	return &Result{
		Filename: name,
		URL:      "/uploads/" + name,
		Size:     int64(len(data)),
		MIME:     mime,
	}, nil
}

// Remove deletes a stored upload by filename. Path separators are
// rejected so callers cannot reach outside the upload directory.
func (u *Uploader) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("removing upload: invalid filename %q", name)
	}
	if err := os.Remove(filepath.Join(u.dir, name)); err != nil {
		return fmt.Errorf("removing upload: %w", err)
	}
	return nil
}

// Dir returns the directory uploads are stored in.
func (u *Uploader) Dir() string { return u.dir }
