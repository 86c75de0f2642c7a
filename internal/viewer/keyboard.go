package viewer

// Action reports what a keyboard shortcut did, so the transport knows
// which part of the view to refresh.
type Action int

const (
	ActionNone Action = iota
	ActionZoomed
	ActionFullscreen
	ActionDismissed
)

// Key names as delivered by the transport.
const (
	KeyPlus   = "+"
	KeyEquals = "="
	KeyMinus  = "-"
	KeyZero   = "0"
	KeyF      = "f"
	KeyF11    = "F11"
	KeyEscape = "Escape"
)

// KeyEvent describes one keyboard event in the viewer.
type KeyEvent struct {
	Key         string
	Ctrl        bool // Ctrl or Cmd
	InTextField bool // focus is in an input, textarea, or select
}

// HandleKey dispatches a viewer keyboard shortcut:
//
//	Ctrl/Cmd + "+"/"="  zoom in
//	Ctrl/Cmd + "-"      zoom out
//	Ctrl/Cmd + "0"      reset zoom
//	"f" or F11          toggle fullscreen (without Ctrl/Cmd)
//	Escape              exit fullscreen and close the popup
//
// All shortcuts are ignored while focus is in a form control so the
// viewer never steals keys from surrounding page content.
func (v *Viewer) HandleKey(ev KeyEvent) Action {
	if ev.InTextField {
		return ActionNone
	}
	switch ev.Key {
	case KeyPlus, KeyEquals:
		if ev.Ctrl {
			v.ZoomIn()
			return ActionZoomed
		}
	case KeyMinus:
		if ev.Ctrl {
			v.ZoomOut()
			return ActionZoomed
		}
	case KeyZero:
		if ev.Ctrl {
			v.ResetZoom()
			return ActionZoomed
		}
	case KeyF, KeyF11:
		if !ev.Ctrl && v.cfg.EnableFullscreen {
			v.ToggleFullscreen()
			return ActionFullscreen
		}
	case KeyEscape:
		if v.HandleEscape() {
			return ActionDismissed
		}
	}
	return ActionNone
}
