// Package audit records who changed which chart, when, and how.
package audit

import "time"

// ActorType identifies who performed an action.
type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorSystem ActorType = "system"
)

// Action describes what was done.
type Action string

const (
	ActionChartCreated    Action = "chart_created"
	ActionChartUpdated    Action = "chart_updated"
	ActionChartSaved      Action = "chart_saved"
	ActionChartDeleted    Action = "chart_deleted"
	ActionChartDuplicated Action = "chart_duplicated"
	ActionChartImported   Action = "chart_imported"
	ActionChartExported   Action = "chart_exported"
	ActionThemeChanged    Action = "theme_changed"
	ActionImageUploaded   Action = "image_uploaded"
)

// Entry is a single audit trail record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorType ActorType `json:"actor_type"`
	ActorID   string    `json:"actor_id"`
	Action    Action    `json:"action"`
	ChartID   string    `json:"chart_id,omitempty"`
	Summary   string    `json:"summary"`
	Detail    string    `json:"detail,omitempty"`
}
