package model

// DisplayConfig controls how a chart is presented by the viewer. It is
// resolved from defaults, then theme settings, then per-embed overrides
// (block configuration or shortcode attributes).
type DisplayConfig struct {
	ShowTitle         bool   `json:"show_title"`
	ShowControls      bool   `json:"show_controls"`
	EnableFullscreen  bool   `json:"enable_fullscreen"`
	MaxWidth          string `json:"max_width"`
	MaxHeight         string `json:"max_height"`
	LazyLoading       bool   `json:"lazy_loading"`
	AnimationEnabled  bool   `json:"animation_enabled"`
	AnimationDuration int    `json:"animation_duration"` // milliseconds
	HorizontalScroll  bool   `json:"horizontal_scroll"`
}

// DefaultDisplayConfig returns the baseline display configuration.
func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		ShowTitle:         true,
		ShowControls:      true,
		EnableFullscreen:  true,
		MaxWidth:          "100%",
		MaxHeight:         "auto",
		LazyLoading:       true,
		AnimationEnabled:  true,
		AnimationDuration: 300,
	}
}
