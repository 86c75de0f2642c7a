package builder

import "fmt"

// Image staging: the upload dialog previews a picked image before the
// reference is placed onto the edit form. Nothing touches the model
// until the edit itself is committed.

// OpenImageUpload opens the image upload dialog for the current
// selection.
func (e *Engine) OpenImageUpload() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selectedID == "" {
		return fmt.Errorf("opening image upload: no selection")
	}
	e.uploadOpen = true
	e.stagedURL = ""
	return nil
}

// ImageUploadOpen reports whether the upload dialog is open.
func (e *Engine) ImageUploadOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.uploadOpen
}

// StageImage records the previewed image reference (an uploaded file's
// URL) without applying it anywhere.
func (e *Engine) StageImage(url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.uploadOpen {
		return fmt.Errorf("staging image: upload dialog is not open")
	}
	e.stagedURL = url
	return nil
}

// ConfirmImage closes the dialog and returns the staged reference for
// the edit form's image field.
func (e *Engine) ConfirmImage() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.uploadOpen {
		return "", fmt.Errorf("confirming image: upload dialog is not open")
	}
	if e.stagedURL == "" {
		return "", fmt.Errorf("confirming image: no image staged")
	}
	url := e.stagedURL
	e.uploadOpen = false
	e.stagedURL = ""
	return url, nil
}

// CancelImage discards the staged reference and closes the dialog.
func (e *Engine) CancelImage() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.uploadOpen = false
	e.stagedURL = ""
}
