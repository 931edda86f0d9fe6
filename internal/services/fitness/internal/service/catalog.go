package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/store"
)

const (
	maxExerciseName = 100
	maxCategoryName = 50
	maxCategoryCode = 20
)

// Catalog manages exercises and their category tree. Reads are public, writes need an admin.
type Catalog struct {
	store store.CatalogStore
}

func NewCatalog(st store.CatalogStore) *Catalog {
	return &Catalog{store: st}
}

type ListExercisesRequest struct {
	PageRequest
	Level      string
	Category   string
	CategoryID *int
	Search     string
	ActiveOnly bool
}

func (c *Catalog) ListExercises(ctx context.Context, r ListExercisesRequest) (model.Page[model.Exercise], error) {
	limit, offset, err := r.bounds()
	if err != nil {
		return model.Page[model.Exercise]{}, err
	}

	q := store.ListExercisesRequest{
		CategoryID: r.CategoryID,
		Search:     strings.TrimSpace(r.Search),
		ActiveOnly: r.ActiveOnly,
		Limit:      limit,
		Offset:     offset,
	}
	if r.Level != "" {
		lvl, err := model.ParseLevel(r.Level)
		if err != nil {
			return model.Page[model.Exercise]{}, enumErr(err)
		}
		q.Level = &lvl
	}
	if r.Category != "" {
		cat, err := model.ParseCategory(r.Category)
		if err != nil {
			return model.Page[model.Exercise]{}, enumErr(err)
		}
		q.Category = &cat
	}

	items, total, err := c.store.ListExercises(ctx, q)
	if err != nil {
		return model.Page[model.Exercise]{}, fmt.Errorf("list exercises: %w", err)
	}

	return model.NewPage(items, r.Page, r.PageSize, total), nil
}

func (c *Catalog) GetExercise(ctx context.Context, id int64) (model.Exercise, error) {
	e, err := c.store.GetExercise(ctx, id)
	return e, storeErr(err, "exercise", id)
}

type ExerciseInput struct {
	Name           string
	Description    *string
	Level          string
	Category       string
	CategoryDetail *string
	CategoryID     *int
	ImageURL       *string
	VideoURL       *string
	// IsActive defaults to true on create and keeps the stored value on update.
	IsActive *bool
}

func (in ExerciseInput) apply(e *model.Exercise) error {
	if err := required("name", in.Name, maxExerciseName); err != nil {
		return err
	}

	lvl, err := model.ParseLevel(in.Level)
	if err != nil {
		return enumErr(err)
	}
	cat, err := model.ParseCategory(in.Category)
	if err != nil {
		return enumErr(err)
	}
	if err := positive("category id", in.CategoryID); err != nil {
		return err
	}

	e.Name = strings.TrimSpace(in.Name)
	e.Description = in.Description
	e.Level = lvl
	e.Category = cat
	e.CategoryDetail = in.CategoryDetail
	e.CategoryID = in.CategoryID
	e.ImageURL = in.ImageURL
	e.VideoURL = in.VideoURL
	if in.IsActive != nil {
		e.IsActive = *in.IsActive
	}
	return nil
}

func (c *Catalog) CreateExercise(ctx context.Context, actor Actor, in ExerciseInput) (model.Exercise, error) {
	if err := requireAdmin(actor); err != nil {
		return model.Exercise{}, err
	}

	e := model.Exercise{IsActive: true}
	if err := in.apply(&e); err != nil {
		return model.Exercise{}, err
	}

	e, err := c.store.InsertExercise(ctx, e)
	if err != nil {
		return model.Exercise{}, storeErr(err, "exercise category", nil)
	}

	slog.Info("exercise created", "exercise_id", e.ID, "name", e.Name)
	return e, nil
}

func (c *Catalog) UpdateExercise(ctx context.Context, actor Actor, id int64, in ExerciseInput) (model.Exercise, error) {
	if err := requireAdmin(actor); err != nil {
		return model.Exercise{}, err
	}

	e, err := c.store.GetExercise(ctx, id)
	if err != nil {
		return model.Exercise{}, storeErr(err, "exercise", id)
	}

	if err := in.apply(&e); err != nil {
		return model.Exercise{}, err
	}

	e, err = c.store.UpdateExercise(ctx, e)
	return e, storeErr(err, "exercise", id)
}

// DeleteExercise fails with a conflict while a routine slot still uses the exercise.
func (c *Catalog) DeleteExercise(ctx context.Context, actor Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	return storeErr(c.store.DeleteExercise(ctx, id), "exercise", id)
}

func (c *Catalog) ToggleExercise(ctx context.Context, actor Actor, id int64) (model.Exercise, error) {
	if err := requireAdmin(actor); err != nil {
		return model.Exercise{}, err
	}

	e, err := c.store.ToggleExercise(ctx, id)
	return e, storeErr(err, "exercise", id)
}

// ListCategories returns the categories as a tree of roots, or flat when asked.
func (c *Catalog) ListCategories(ctx context.Context, flat bool) ([]model.ExerciseCategory, error) {
	cats, err := c.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	if flat {
		if cats == nil {
			cats = []model.ExerciseCategory{}
		}
		return cats, nil
	}

	return categoryTree(cats), nil
}

// GetCategory returns the category with its subtree.
func (c *Catalog) GetCategory(ctx context.Context, id int) (model.ExerciseCategory, error) {
	cat, err := c.store.GetCategory(ctx, id)
	if err != nil {
		return model.ExerciseCategory{}, storeErr(err, "category", id)
	}

	all, err := c.store.ListCategories(ctx)
	if err != nil {
		return model.ExerciseCategory{}, fmt.Errorf("list categories: %w", err)
	}
	cat.Children = children(all, cat.ID, map[int]bool{cat.ID: true})

	return cat, nil
}

type CategoryInput struct {
	ParentID     *int
	Name         string
	Code         string
	DisplayOrder int
}

func (in CategoryInput) validate() error {
	if err := required("name", in.Name, maxCategoryName); err != nil {
		return err
	}
	if err := required("code", in.Code, maxCategoryCode); err != nil {
		return err
	}
	return positive("parent id", in.ParentID)
}

func (c *Catalog) CreateCategory(ctx context.Context, actor Actor, in CategoryInput) (model.ExerciseCategory, error) {
	if err := requireAdmin(actor); err != nil {
		return model.ExerciseCategory{}, err
	}
	if err := in.validate(); err != nil {
		return model.ExerciseCategory{}, err
	}

	cat, err := c.store.InsertCategory(ctx, model.ExerciseCategory{
		ParentID:     in.ParentID,
		Name:         strings.TrimSpace(in.Name),
		Code:         strings.TrimSpace(in.Code),
		DisplayOrder: in.DisplayOrder,
	})
	return cat, storeErr(err, "category", nil)
}

func (c *Catalog) UpdateCategory(ctx context.Context, actor Actor, id int, in CategoryInput) (model.ExerciseCategory, error) {
	if err := requireAdmin(actor); err != nil {
		return model.ExerciseCategory{}, err
	}
	if err := in.validate(); err != nil {
		return model.ExerciseCategory{}, err
	}
	if in.ParentID != nil && *in.ParentID == id {
		return model.ExerciseCategory{}, invalid("category cannot be its own parent")
	}

	cat, err := c.store.UpdateCategory(ctx, model.ExerciseCategory{
		ID:           id,
		ParentID:     in.ParentID,
		Name:         strings.TrimSpace(in.Name),
		Code:         strings.TrimSpace(in.Code),
		DisplayOrder: in.DisplayOrder,
	})
	return cat, storeErr(err, "category", id)
}

// DeleteCategory refuses categories that still have children.
func (c *Catalog) DeleteCategory(ctx context.Context, actor Actor, id int) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	return storeErr(c.store.DeleteCategory(ctx, id), "category", id)
}

type CategoryOrder struct {
	ID           int
	DisplayOrder int
}

// ReorderCategories applies all display orders or none.
func (c *Catalog) ReorderCategories(ctx context.Context, actor Actor, orders []CategoryOrder) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if len(orders) == 0 {
		return invalid("at least one category order is required")
	}

	return c.store.WithCatalogTx(ctx, func(tx store.CatalogStore) error {
		for _, o := range orders {
			if err := tx.SetCategoryOrder(ctx, o.ID, o.DisplayOrder); err != nil {
				return storeErr(err, "category", o.ID)
			}
		}
		return nil
	})
}

func categoryTree(all []model.ExerciseCategory) []model.ExerciseCategory {
	roots := []model.ExerciseCategory{}
	for _, c := range all {
		if c.ParentID == nil {
			c.Children = children(all, c.ID, map[int]bool{c.ID: true})
			roots = append(roots, c)
		}
	}
	return roots
}

// children keeps the display order of all, which the store already sorted.
// seen stops a parent cycle from recursing forever.
func children(all []model.ExerciseCategory, parentID int, seen map[int]bool) []model.ExerciseCategory {
	out := []model.ExerciseCategory{}
	for _, c := range all {
		if c.ParentID == nil || *c.ParentID != parentID || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		c.Children = children(all, c.ID, seen)
		out = append(out, c)
	}
	return out
}
