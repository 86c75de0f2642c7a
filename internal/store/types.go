package store

import (
	"encoding/json"
	"time"

	"github.com/orgkit/orgchart/internal/model"
)

// Chart is a stored organization chart.
type Chart struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	ThemeID      string    `json:"theme_id,omitempty"`
	ElementCount int       `json:"element_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Theme is a reusable display style. Settings holds partial display
// configuration as JSON; keys it omits fall through to the defaults.
type Theme struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Settings  json.RawMessage `json:"settings"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ChartData is the full edit/view payload for one chart.
type ChartData struct {
	Chart    *Chart          `json:"chart"`
	Elements []model.Element `json:"elements"`
	Themes   []Theme         `json:"themes"`
}

// Stats summarizes the chart inventory for the dashboard.
type Stats struct {
	TotalCharts   int     `json:"total_charts"`
	TotalElements int     `json:"total_elements"`
	TotalThemes   int     `json:"total_themes"`
	RecentCharts  []Chart `json:"recent_charts"`
}
