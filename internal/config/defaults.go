package config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:    8640,
		DataDir: "data",
		BaseURL: "http://localhost:8640",
		Upload: UploadConfig{
			Dir:      "data/uploads",
			MaxBytes: 2 * 1024 * 1024,
		},
		Builder: BuilderConfig{
			SnapGrid:         20,
			CanvasWidth:      3000,
			CanvasHeight:     2000,
			AutosaveInterval: 30,
			AutosaveDebounce: 2000,
		},
	}
}
