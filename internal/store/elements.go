package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orgkit/orgchart/internal/model"
)

// Single-element operations backing the admin AJAX endpoints. The
// builder session saves whole charts through SaveElements; these exist
// for callers that edit one node at a time.

// GetElement fetches one element of a chart.
func (s *Store) GetElement(ctx context.Context, chartID, id string) (*model.Element, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, chart_id, parent_id, title, description, image_url, link_url,
		        position_x, position_y, theme_id, weight
		 FROM chart_elements WHERE chart_id = ? AND id = ?`, chartID, id)

	var el model.Element
	var parentID, themeID sql.NullString
	err := row.Scan(&el.ID, &el.ChartID, &parentID, &el.Title, &el.Description,
		&el.ImageURL, &el.LinkURL, &el.PositionX, &el.PositionY, &themeID, &el.Weight)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("element %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting element: %w", err)
	}
	el.ParentID = parentID.String
	el.ThemeID = themeID.String
	return &el, nil
}

// AddElement inserts a new element. A temporary id is replaced with a
// persisted one; a non-empty parent must already exist in the chart.
func (s *Store) AddElement(ctx context.Context, chartID string, el *model.Element) error {
	if el.ID == "" || model.IsTempID(el.ID) {
		el.ID = uuid.NewString()
	}
	el.ChartID = chartID
	if el.ParentID != "" {
		if _, err := s.GetElement(ctx, chartID, el.ParentID); err != nil {
			return fmt.Errorf("adding element: parent %s not found", el.ParentID)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chart_elements (id, chart_id, parent_id, title, description, image_url,
		                             link_url, position_x, position_y, theme_id, weight)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		el.ID, el.ChartID, nullable(el.ParentID), el.Title, el.Description, el.ImageURL,
		el.LinkURL, el.PositionX, el.PositionY, nullable(el.ThemeID), el.Weight,
	)
	if err != nil {
		return fmt.Errorf("adding element: %w", err)
	}
	return s.touchChart(ctx, chartID)
}

// UpdateElement overwrites an element's editable fields.
func (s *Store) UpdateElement(ctx context.Context, chartID string, el *model.Element) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chart_elements
		 SET parent_id = ?, title = ?, description = ?, image_url = ?, link_url = ?,
		     position_x = ?, position_y = ?, theme_id = ?, weight = ?
		 WHERE chart_id = ? AND id = ?`,
		nullable(el.ParentID), el.Title, el.Description, el.ImageURL, el.LinkURL,
		el.PositionX, el.PositionY, nullable(el.ThemeID), el.Weight, chartID, el.ID,
	)
	if err != nil {
		return fmt.Errorf("updating element: %w", err)
	}
	if err := requireRow(res, "element", el.ID); err != nil {
		return err
	}
	return s.touchChart(ctx, chartID)
}

// MoveElement updates only an element's canvas position.
func (s *Store) MoveElement(ctx context.Context, chartID, id string, x, y int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chart_elements SET position_x = ?, position_y = ? WHERE chart_id = ? AND id = ?`,
		x, y, chartID, id,
	)
	if err != nil {
		return fmt.Errorf("moving element: %w", err)
	}
	if err := requireRow(res, "element", id); err != nil {
		return err
	}
	return s.touchChart(ctx, chartID)
}

// DeleteElement removes an element and all of its descendants in one
// transaction, returning the removed ids.
func (s *Store) DeleteElement(ctx context.Context, chartID, id string) ([]string, error) {
	elements, err := s.ListElements(ctx, chartID)
	if err != nil {
		return nil, err
	}
	col := model.NewCollection(chartID)
	col.Load(elements)
	if col.Get(id) == nil {
		return nil, fmt.Errorf("element %s not found", id)
	}
	removed := col.RemoveSubtree(id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("deleting element: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(removed)), ",")
	args := make([]interface{}, 0, len(removed)+1)
	args = append(args, chartID)
	for _, rid := range removed {
		args = append(args, rid)
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM chart_elements WHERE chart_id = ? AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("deleting element: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE charts SET updated_at = ? WHERE id = ?`, time.Now().UTC(), chartID); err != nil {
		return nil, fmt.Errorf("touching chart: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("deleting element: %w", err)
	}
	return removed, nil
}

// DuplicateElement copies a single element (not its subtree) under the
// same parent, offset on the canvas with a " (Copy)" title suffix.
func (s *Store) DuplicateElement(ctx context.Context, chartID, id string) (*model.Element, error) {
	src, err := s.GetElement(ctx, chartID, id)
	if err != nil {
		return nil, err
	}
	dup := *src
	dup.ID = uuid.NewString()
	dup.Title = src.Title + " (Copy)"
	dup.PositionX += 50
	dup.PositionY += 50
	if err := s.AddElement(ctx, chartID, &dup); err != nil {
		return nil, err
	}
	return &dup, nil
}

func (s *Store) touchChart(ctx context.Context, chartID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE charts SET updated_at = ? WHERE id = ?`, time.Now().UTC(), chartID)
	if err != nil {
		return fmt.Errorf("touching chart: %w", err)
	}
	return requireRow(res, "chart", chartID)
}
