package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/evorbrain/internal/model"
	"github.com/nhle/evorbrain/internal/validate"
)

// CreateLifeArea inserts a new life area at the end of the sort order.
func (s *SQLiteStore) CreateLifeArea(ctx context.Context, area model.LifeArea) (*model.LifeArea, error) {
	name, err := validate.Name("name", area.Name)
	if err != nil {
		return nil, err
	}
	if err := validate.Join(validate.Description(area.Description), validate.Color(area.Color)); err != nil {
		return nil, err
	}
	area.Name = name
	if area.ID == "" {
		area.ID = uuid.New().String()
	}
	now := s.now()
	area.CreatedAt = now
	area.UpdatedAt = now
	area.ArchivedAt = nil

	if area.SortOrder == 0 {
		var maxOrder int
		_ = s.db.GetContext(ctx, &maxOrder,
			"SELECT COALESCE(MAX(sort_order), 0) FROM life_areas")
		area.SortOrder = maxOrder + 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO life_areas (id, name, description, color, icon, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		area.ID, area.Name, area.Description, area.Color, area.Icon,
		area.SortOrder, area.CreatedAt, area.UpdatedAt,
	)
	if err != nil {
		return nil, dbErr("creating life area", err)
	}
	return &area, nil
}

// GetLifeArea retrieves a single life area by ID, archived or not.
func (s *SQLiteStore) GetLifeArea(ctx context.Context, id string) (*model.LifeArea, error) {
	var area model.LifeArea
	err := s.db.GetContext(ctx, &area, "SELECT * FROM life_areas WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(model.KindLifeArea, id)
	}
	if err != nil {
		return nil, dbErr(fmt.Sprintf("getting life area %s", id), err)
	}
	return &area, nil
}

// GetLifeAreas retrieves all life areas in sort order, optionally
// including archived ones.
func (s *SQLiteStore) GetLifeAreas(ctx context.Context, includeArchived bool) ([]model.LifeArea, error) {
	query := "SELECT * FROM life_areas"
	if !includeArchived {
		query += " WHERE archived_at IS NULL"
	}
	query += " ORDER BY sort_order, name"

	areas := []model.LifeArea{}
	if err := s.db.SelectContext(ctx, &areas, query); err != nil {
		return nil, dbErr("querying life areas", err)
	}
	return areas, nil
}

// UpdateLifeArea applies the non-nil fields of upd.
func (s *SQLiteStore) UpdateLifeArea(ctx context.Context, id string, upd model.LifeAreaUpdate) (*model.LifeArea, error) {
	if upd.Empty() {
		return nil, &validate.Error{Field: "update", Message: "at least one field must be provided"}
	}

	var sets []string
	var args []any
	if upd.Name != nil {
		name, err := validate.Name("name", *upd.Name)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "name = ?")
		args = append(args, name)
	}
	if upd.Description != nil {
		if err := validate.Description(*upd.Description); err != nil {
			return nil, err
		}
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Color != nil {
		if err := validate.Color(*upd.Color); err != nil {
			return nil, err
		}
		sets = append(sets, "color = ?")
		args = append(args, *upd.Color)
	}
	if upd.Icon != nil {
		sets = append(sets, "icon = ?")
		args = append(args, *upd.Icon)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, s.now(), id)

	result, err := s.db.ExecContext(ctx,
		"UPDATE life_areas SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, dbErr(fmt.Sprintf("updating life area %s", id), err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, notFound(model.KindLifeArea, id)
	}
	return s.GetLifeArea(ctx, id)
}

// ReorderLifeAreas moves the areas in ids to the front in that order.
// Every other area follows in its previous order, so sort_order stays
// 1..n with no duplicates.
func (s *SQLiteStore) ReorderLifeAreas(ctx context.Context, ids []string) error {
	listed := make(map[string]bool, len(ids))
	for _, id := range ids {
		if listed[id] {
			return &validate.Error{Field: "ids", Message: fmt.Sprintf("%s is listed twice", id)}
		}
		listed[id] = true
	}

	return s.inTx(ctx, "reorder", func(tx *sqlx.Tx) error {
		var current []string
		if err := tx.SelectContext(ctx, &current,
			"SELECT id FROM life_areas ORDER BY sort_order, name"); err != nil {
			return dbErr("listing life areas", err)
		}
		known := make(map[string]bool, len(current))
		for _, id := range current {
			known[id] = true
		}

		order := make([]string, 0, len(current))
		for _, id := range ids {
			if !known[id] {
				return notFound(model.KindLifeArea, id)
			}
			order = append(order, id)
		}
		for _, id := range current {
			if !listed[id] {
				order = append(order, id)
			}
		}

		now := s.now()
		for i, id := range order {
			if _, err := tx.ExecContext(ctx,
				"UPDATE life_areas SET sort_order = ?, updated_at = ? WHERE id = ?",
				i+1, now, id); err != nil {
				return dbErr(fmt.Sprintf("reordering life area %s", id), err)
			}
		}
		return nil
	})
}

// DeleteLifeArea hard-deletes an empty life area.
func (s *SQLiteStore) DeleteLifeArea(ctx context.Context, id string) error {
	return s.HardDelete(ctx, model.KindLifeArea, id)
}
