package store

import (
	"context"
	"fmt"

	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
)

const exerciseColumns = `id, name, description, level, category, category_detail, category_id, image_url, video_url,
		is_active, created_at, updated_at`

const categoryColumns = `id, parent_id, name, code, display_order`

func scanExercise(row scanner) (model.Exercise, error) {
	var e model.Exercise
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Description,
		&e.Level,
		&e.Category,
		&e.CategoryDetail,
		&e.CategoryID,
		&e.ImageURL,
		&e.VideoURL,
		&e.IsActive,
		&e.CreatedAt,
		&e.UpdatedAt)

	return e, err
}

func scanCategory(row scanner) (model.ExerciseCategory, error) {
	var c model.ExerciseCategory
	err := row.Scan(&c.ID, &c.ParentID, &c.Name, &c.Code, &c.DisplayOrder)
	return c, err
}

func (s *PostgresStore) GetExercise(ctx context.Context, id int64) (model.Exercise, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+exerciseColumns+" FROM exercises WHERE id=$1", id)

	e, err := scanExercise(row)
	if err != nil {
		return e, mapScanErr(err, "get exercise")
	}

	return e, nil
}

func (s *PostgresStore) ListExercises(ctx context.Context, r ListExercisesRequest) ([]model.Exercise, int, error) {
	var w where
	if r.Level != nil {
		w.add("level = $%d", *r.Level)
	}
	if r.Category != nil {
		w.add("category = $%d", *r.Category)
	}
	if r.CategoryID != nil {
		w.add("category_id = $%d", *r.CategoryID)
	}
	if r.Search != "" {
		w.add("(name ILIKE $%d OR description ILIKE $%d)", "%"+r.Search+"%")
	}
	if r.ActiveOnly {
		w.conds = append(w.conds, "is_active")
	}

	total, err := s.count(ctx, "exercises", &w)
	if err != nil {
		return nil, 0, err
	}

	limit, args := w.page(r.Limit, r.Offset)
	rows, err := s.db.QueryContext(ctx, "SELECT "+exerciseColumns+" FROM exercises"+w.String()+" ORDER BY name, id"+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query exercises: %w", err)
	}
	defer rows.Close()

	var exercises []model.Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan exercise: %w", err)
		}
		exercises = append(exercises, e)
	}

	return exercises, total, rows.Err()
}

func (s *PostgresStore) InsertExercise(ctx context.Context, e model.Exercise) (model.Exercise, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO exercises (name, description, level, category, category_detail, category_id, image_url, video_url, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+exerciseColumns,
		e.Name,
		e.Description,
		e.Level,
		e.Category,
		e.CategoryDetail,
		e.CategoryID,
		e.ImageURL,
		e.VideoURL,
		e.IsActive)

	out, err := scanExercise(row)
	if err != nil {
		return out, mapWriteErr(err, "insert exercise")
	}

	return out, nil
}

func (s *PostgresStore) UpdateExercise(ctx context.Context, e model.Exercise) (model.Exercise, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE exercises
		 SET name=$2, description=$3, level=$4, category=$5, category_detail=$6, category_id=$7,
		     image_url=$8, video_url=$9, is_active=$10, updated_at=NOW()
		 WHERE id=$1
		 RETURNING `+exerciseColumns,
		e.ID,
		e.Name,
		e.Description,
		e.Level,
		e.Category,
		e.CategoryDetail,
		e.CategoryID,
		e.ImageURL,
		e.VideoURL,
		e.IsActive)

	out, err := scanExercise(row)
	if err != nil {
		return out, mapScanErr(err, "update exercise")
	}

	return out, nil
}

// DeleteExercise yields ErrInUse while any routine slot still points at the exercise.
func (s *PostgresStore) DeleteExercise(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM exercises WHERE id=$1", id)
	if err != nil {
		return mapDeleteErr(err, "delete exercise")
	}

	return expectAffected(res, "delete exercise")
}

func (s *PostgresStore) ToggleExercise(ctx context.Context, id int64) (model.Exercise, error) {
	row := s.db.QueryRowContext(ctx,
		"UPDATE exercises SET is_active = NOT is_active, updated_at=NOW() WHERE id=$1 RETURNING "+exerciseColumns, id)

	e, err := scanExercise(row)
	if err != nil {
		return e, mapScanErr(err, "toggle exercise")
	}

	return e, nil
}

func (s *PostgresStore) GetCategory(ctx context.Context, id int) (model.ExerciseCategory, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM exercise_categories WHERE id=$1", id)

	c, err := scanCategory(row)
	if err != nil {
		return c, mapScanErr(err, "get category")
	}

	return c, nil
}

// ListCategories returns all categories flat, ordered by display order.
func (s *PostgresStore) ListCategories(ctx context.Context) ([]model.ExerciseCategory, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM exercise_categories ORDER BY display_order, id")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var cats []model.ExerciseCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}

	return cats, rows.Err()
}

func (s *PostgresStore) InsertCategory(ctx context.Context, c model.ExerciseCategory) (model.ExerciseCategory, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO exercise_categories (parent_id, name, code, display_order)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+categoryColumns,
		c.ParentID, c.Name, c.Code, c.DisplayOrder)

	out, err := scanCategory(row)
	if err != nil {
		return out, mapWriteErr(err, "insert category")
	}

	return out, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, c model.ExerciseCategory) (model.ExerciseCategory, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE exercise_categories SET parent_id=$2, name=$3, code=$4, display_order=$5
		 WHERE id=$1
		 RETURNING `+categoryColumns,
		c.ID, c.ParentID, c.Name, c.Code, c.DisplayOrder)

	out, err := scanCategory(row)
	if err != nil {
		return out, mapScanErr(err, "update category")
	}

	return out, nil
}

// DeleteCategory yields ErrInUse while the category still has children.
func (s *PostgresStore) DeleteCategory(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM exercise_categories WHERE id=$1", id)
	if err != nil {
		return mapDeleteErr(err, "delete category")
	}

	return expectAffected(res, "delete category")
}

func (s *PostgresStore) SetCategoryOrder(ctx context.Context, id int, displayOrder int) error {
	res, err := s.db.ExecContext(ctx, "UPDATE exercise_categories SET display_order=$2 WHERE id=$1", id, displayOrder)
	if err != nil {
		return fmt.Errorf("set category order: %w", err)
	}

	return expectAffected(res, "set category order")
}

func (s *PostgresStore) WithCatalogTx(ctx context.Context, fn func(tx CatalogStore) error) error {
	return s.WithTx(ctx, func(tx *PostgresStore) error {
		return fn(tx)
	})
}
