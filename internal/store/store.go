// Package store persists charts, their elements, and display themes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/orgkit/orgchart/internal/builder"
	"github.com/orgkit/orgchart/internal/db"
	"github.com/orgkit/orgchart/internal/model"
)

// Store provides CRUD operations for charts, elements, and themes.
type Store struct {
	db *db.DB
}

// NewStore creates a new chart store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// CreateChart inserts a new chart.
func (s *Store) CreateChart(ctx context.Context, c *Chart) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO charts (id, name, description, theme_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, nullable(c.ThemeID), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating chart: %w", err)
	}
	return nil
}

// GetChart retrieves a chart by ID.
func (s *Store) GetChart(ctx context.Context, id string) (*Chart, error) {
	c := &Chart{}
	var themeID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT c.id, c.name, c.description, c.theme_id, c.created_at, c.updated_at,
		        (SELECT COUNT(*) FROM chart_elements e WHERE e.chart_id = c.id)
		 FROM charts c WHERE c.id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &themeID, &c.CreatedAt, &c.UpdatedAt, &c.ElementCount)
	if err != nil {
		return nil, fmt.Errorf("getting chart: %w", err)
	}
	c.ThemeID = themeID.String
	return c, nil
}

// ListCharts returns all charts with their element counts.
func (s *Store) ListCharts(ctx context.Context) ([]Chart, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.description, c.theme_id, c.created_at, c.updated_at,
		        (SELECT COUNT(*) FROM chart_elements e WHERE e.chart_id = c.id)
		 FROM charts c ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("listing charts: %w", err)
	}
	defer rows.Close()
	return scanCharts(rows)
}

// UpdateChart updates a chart's name, description, and theme.
func (s *Store) UpdateChart(ctx context.Context, c *Chart) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE charts SET name = ?, description = ?, theme_id = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Description, nullable(c.ThemeID), c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating chart: %w", err)
	}
	return requireRow(res, "chart", c.ID)
}

// RenameChart changes just the chart name (the list view's quick edit).
func (s *Store) RenameChart(ctx context.Context, id, name string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE charts SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("renaming chart: %w", err)
	}
	return requireRow(res, "chart", id)
}

// DeleteChart removes a chart and all of its elements in one
// transaction.
func (s *Store) DeleteChart(ctx context.Context, id string) error {
	n, err := s.deleteChartTx(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("chart %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

func (s *Store) deleteChartTx(ctx context.Context, id string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("deleting chart: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chart_elements WHERE chart_id = ?`, id); err != nil {
		return 0, fmt.Errorf("deleting chart elements: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM charts WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("deleting chart: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("deleting chart: %w", err)
	}
	return n, nil
}

// ListElements returns a chart's elements ordered by weight.
func (s *Store) ListElements(ctx context.Context, chartID string) ([]model.Element, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chart_id, parent_id, title, description, image_url, link_url,
		        position_x, position_y, theme_id, weight
		 FROM chart_elements WHERE chart_id = ? ORDER BY weight, id`, chartID)
	if err != nil {
		return nil, fmt.Errorf("listing elements: %w", err)
	}
	defer rows.Close()

	var elements []model.Element
	for rows.Next() {
		var el model.Element
		var parentID, themeID sql.NullString
		if err := rows.Scan(&el.ID, &el.ChartID, &parentID, &el.Title, &el.Description,
			&el.ImageURL, &el.LinkURL, &el.PositionX, &el.PositionY, &themeID, &el.Weight); err != nil {
			return nil, fmt.Errorf("scanning element: %w", err)
		}
		el.ParentID = parentID.String
		el.ThemeID = themeID.String
		elements = append(elements, el)
	}
	return elements, rows.Err()
}

// SaveElements replaces a chart's elements with the given batch in one
// transaction. Temporary ids are swapped for persisted ones, parent
// references included, and the persisted batch is returned. Every
// non-root element's parent must be in the batch.
func (s *Store) SaveElements(ctx context.Context, chartID string, elements []model.Element) ([]model.Element, error) {
	idMap := make(map[string]string, len(elements))
	for _, el := range elements {
		if model.IsTempID(el.ID) {
			idMap[el.ID] = uuid.NewString()
		} else {
			idMap[el.ID] = el.ID
		}
	}
	persisted := make([]model.Element, len(elements))
	for i, el := range elements {
		el.ChartID = chartID
		el.ID = idMap[el.ID]
		if el.ParentID != "" {
			mapped, ok := idMap[el.ParentID]
			if !ok {
				return nil, fmt.Errorf("saving elements: parent %s is not part of the chart", el.ParentID)
			}
			el.ParentID = mapped
		}
		persisted[i] = el
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("saving elements: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chart_elements WHERE chart_id = ?`, chartID); err != nil {
		return nil, fmt.Errorf("clearing elements: %w", err)
	}
	for _, el := range persisted {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO chart_elements (id, chart_id, parent_id, title, description, image_url,
			                             link_url, position_x, position_y, theme_id, weight)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			el.ID, el.ChartID, nullable(el.ParentID), el.Title, el.Description, el.ImageURL,
			el.LinkURL, el.PositionX, el.PositionY, nullable(el.ThemeID), el.Weight,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting element: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, `UPDATE charts SET updated_at = ? WHERE id = ?`, time.Now().UTC(), chartID)
	if err != nil {
		return nil, fmt.Errorf("touching chart: %w", err)
	}
	if err := requireRow(res, "chart", chartID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("saving elements: %w", err)
	}
	return persisted, nil
}

// SaveChart adapts SaveElements to the builder's persistence boundary.
func (s *Store) SaveChart(ctx context.Context, chartID string, elements []model.Element) (builder.SaveResult, error) {
	persisted, err := s.SaveElements(ctx, chartID, elements)
	if err != nil {
		return builder.SaveResult{Success: false, Message: err.Error()}, nil
	}
	return builder.SaveResult{Success: true, Elements: persisted}, nil
}

// LoadChart returns the full payload the builder and viewer start from.
func (s *Store) LoadChart(ctx context.Context, id string) (*ChartData, error) {
	chart, err := s.GetChart(ctx, id)
	if err != nil {
		return nil, err
	}
	elements, err := s.ListElements(ctx, id)
	if err != nil {
		return nil, err
	}
	themes, err := s.ListThemes(ctx)
	if err != nil {
		return nil, err
	}
	if elements == nil {
		elements = []model.Element{}
	}
	if themes == nil {
		themes = []Theme{}
	}
	return &ChartData{Chart: chart, Elements: elements, Themes: themes}, nil
}

// DuplicateChart copies a chart and all its elements. The copy's
// elements get fresh ids with parent references remapped, shifted by a
// small offset so the two charts do not overlap pixel for pixel. An
// empty name defaults to the source name with a Copy suffix.
func (s *Store) DuplicateChart(ctx context.Context, id, name string) (*Chart, error) {
	src, err := s.GetChart(ctx, id)
	if err != nil {
		return nil, err
	}
	elements, err := s.ListElements(ctx, id)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = src.Name + " (Copy)"
	}
	dup := &Chart{Name: name, Description: src.Description, ThemeID: src.ThemeID}
	if err := s.CreateChart(ctx, dup); err != nil {
		return nil, err
	}

	// Two passes: mint the new ids first, then remap parents.
	idMap := make(map[string]string, len(elements))
	for _, el := range elements {
		idMap[el.ID] = uuid.NewString()
	}
	for i := range elements {
		elements[i].ID = idMap[elements[i].ID]
		if elements[i].ParentID != "" {
			elements[i].ParentID = idMap[elements[i].ParentID]
		}
		elements[i].PositionX += 50
		elements[i].PositionY += 50
	}
	if _, err := s.SaveElements(ctx, dup.ID, elements); err != nil {
		return nil, err
	}
	dup.ElementCount = len(elements)
	return dup, nil
}

// CreateTheme inserts a new display theme.
func (s *Store) CreateTheme(ctx context.Context, t *Theme) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if len(t.Settings) == 0 {
		t.Settings = json.RawMessage(`{}`)
	}
	if !json.Valid(t.Settings) {
		return fmt.Errorf("creating theme: settings is not valid JSON")
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chart_themes (id, name, settings, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Name, string(t.Settings), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating theme: %w", err)
	}
	return nil
}

// GetTheme retrieves a theme by ID.
func (s *Store) GetTheme(ctx context.Context, id string) (*Theme, error) {
	t := &Theme{}
	var settings string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, settings, created_at, updated_at FROM chart_themes WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &settings, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting theme: %w", err)
	}
	t.Settings = json.RawMessage(settings)
	return t, nil
}

// ListThemes returns all themes ordered by name.
func (s *Store) ListThemes(ctx context.Context) ([]Theme, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, settings, created_at, updated_at FROM chart_themes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing themes: %w", err)
	}
	defer rows.Close()

	var themes []Theme
	for rows.Next() {
		var t Theme
		var settings string
		if err := rows.Scan(&t.ID, &t.Name, &settings, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning theme: %w", err)
		}
		t.Settings = json.RawMessage(settings)
		themes = append(themes, t)
	}
	return themes, rows.Err()
}

// UpdateTheme updates a theme's name and settings.
func (s *Store) UpdateTheme(ctx context.Context, t *Theme) error {
	if len(t.Settings) == 0 {
		t.Settings = json.RawMessage(`{}`)
	}
	if !json.Valid(t.Settings) {
		return fmt.Errorf("updating theme: settings is not valid JSON")
	}
	t.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE chart_themes SET name = ?, settings = ?, updated_at = ? WHERE id = ?`,
		t.Name, string(t.Settings), t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating theme: %w", err)
	}
	return requireRow(res, "theme", t.ID)
}

// DeleteTheme removes a theme. Charts referencing it fall back to the
// default display settings.
func (s *Store) DeleteTheme(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chart_themes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting theme: %w", err)
	}
	return requireRow(res, "theme", id)
}

// Stats returns dashboard totals plus the five most recently updated
// charts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM charts),
		        (SELECT COUNT(*) FROM chart_elements),
		        (SELECT COUNT(*) FROM chart_themes)`,
	).Scan(&st.TotalCharts, &st.TotalElements, &st.TotalThemes)
	if err != nil {
		return nil, fmt.Errorf("counting charts: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.description, c.theme_id, c.created_at, c.updated_at,
		        (SELECT COUNT(*) FROM chart_elements e WHERE e.chart_id = c.id)
		 FROM charts c ORDER BY c.updated_at DESC LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("listing recent charts: %w", err)
	}
	defer rows.Close()
	st.RecentCharts, err = scanCharts(rows)
	if err != nil {
		return nil, err
	}
	if st.RecentCharts == nil {
		st.RecentCharts = []Chart{}
	}
	return st, nil
}

// DeleteCharts removes several charts at once. Unknown ids are skipped;
// it returns how many were actually deleted.
func (s *Store) DeleteCharts(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for _, id := range ids {
		n, err := s.deleteChartTx(ctx, id)
		if err != nil {
			return deleted, err
		}
		deleted += int(n)
	}
	return deleted, nil
}

func scanCharts(rows *sql.Rows) ([]Chart, error) {
	var charts []Chart
	for rows.Next() {
		var c Chart
		var themeID sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &themeID, &c.CreatedAt, &c.UpdatedAt, &c.ElementCount); err != nil {
			return nil, fmt.Errorf("scanning chart: %w", err)
		}
		c.ThemeID = themeID.String
		charts = append(charts, c)
	}
	return charts, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, sql.ErrNoRows)
	}
	return nil
}
