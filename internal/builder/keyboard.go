package builder

// Action is what a keyboard event asks the transport to do next.
// Deletion always goes through a confirmation step, so the engine hands
// it back as an ActionConfirmDelete rather than deleting directly.
type Action int

const (
	ActionNone Action = iota
	ActionConfirmDelete
	ActionDeselected
	ActionSave
)

// Key names as delivered by the transport.
const (
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
	KeyEscape    = "Escape"
	KeyS         = "s"
)

// KeyEvent describes one keyboard event in the builder.
type KeyEvent struct {
	Key         string
	Ctrl        bool // Ctrl or Cmd
	InTextField bool // focus is in an input or textarea
}

// HandleKey dispatches a builder keyboard shortcut:
//
//	Delete/Backspace  request deletion of the selection
//	Escape            deselect
//	Ctrl/Cmd+S        request a save
//
// Delete and Backspace are ignored while focus is in a text field so
// normal text editing is unaffected.
func (e *Engine) HandleKey(ev KeyEvent) Action {
	switch ev.Key {
	case KeyDelete, KeyBackspace:
		if ev.InTextField {
			return ActionNone
		}
		e.mu.Lock()
		hasSelection := e.selectedID != ""
		e.mu.Unlock()
		if !hasSelection {
			return ActionNone
		}
		return ActionConfirmDelete
	case KeyEscape:
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.uploadOpen {
			e.uploadOpen = false
			e.stagedURL = ""
			return ActionNone
		}
		if e.selectedID == "" {
			return ActionNone
		}
		e.selectedID = ""
		e.state = StateIdle
		return ActionDeselected
	case KeyS:
		if ev.Ctrl {
			return ActionSave
		}
	}
	return ActionNone
}
