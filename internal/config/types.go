package config

// Config is the top-level orgchart configuration, corresponding to .orgchart.yml.
type Config struct {
	Port            int           `yaml:"port" koanf:"port"`
	DataDir         string        `yaml:"data_dir" koanf:"data_dir"`
	BaseURL         string        `yaml:"base_url" koanf:"base_url"`
	AllowAllOrigins bool          `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	DefaultTheme    string        `yaml:"default_theme" koanf:"default_theme"`
	Upload          UploadConfig  `yaml:"upload" koanf:"upload"`
	Builder         BuilderConfig `yaml:"builder" koanf:"builder"`
}

// UploadConfig holds image upload settings.
type UploadConfig struct {
	Dir      string `yaml:"dir" koanf:"dir"`
	MaxBytes int64  `yaml:"max_bytes" koanf:"max_bytes"`
}

// BuilderConfig holds defaults for the chart builder surface.
type BuilderConfig struct {
	SnapGrid         int `yaml:"snap_grid" koanf:"snap_grid"`
	CanvasWidth      int `yaml:"canvas_width" koanf:"canvas_width"`
	CanvasHeight     int `yaml:"canvas_height" koanf:"canvas_height"`
	AutosaveInterval int `yaml:"autosave_interval" koanf:"autosave_interval"` // seconds
	AutosaveDebounce int `yaml:"autosave_debounce" koanf:"autosave_debounce"` // milliseconds
}
