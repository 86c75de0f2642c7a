package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to the given path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to orgchart! Let's configure your installation.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Server port.
	portPrompt := promptui.Prompt{
		Label:   "Server port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port prompt: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 2. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory (SQLite database and uploads)",
		Default: cfg.DataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir prompt: %w", err)
	}
	cfg.DataDir = dataDir
	cfg.Upload.Dir = dataDir + "/uploads"

	// 3. Public base URL (used to build uploaded image URLs).
	urlPrompt := promptui.Prompt{
		Label:   "Public base URL",
		Default: fmt.Sprintf("http://localhost:%d", cfg.Port),
	}
	baseURL, err := urlPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("base url prompt: %w", err)
	}
	cfg.BaseURL = baseURL

	// 4. Grid snapping.
	snapPrompt := promptui.Select{
		Label: "Builder grid snapping",
		Items: []string{
			"20px — default grid",
			"10px — fine grid",
			"off  — free positioning",
		},
	}
	snapIdx, _, err := snapPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("snap selection: %w", err)
	}
	snaps := []int{20, 10, 0}
	cfg.Builder.SnapGrid = snaps[snapIdx]

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", path)
	return cfg, nil
}
