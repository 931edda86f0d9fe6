package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCatalogStore struct {
	store.CatalogStore

	getExerciseFunc      func(ctx context.Context, id int64) (model.Exercise, error)
	listExercisesFunc    func(ctx context.Context, r store.ListExercisesRequest) ([]model.Exercise, int, error)
	insertExerciseFunc   func(ctx context.Context, e model.Exercise) (model.Exercise, error)
	updateExerciseFunc   func(ctx context.Context, e model.Exercise) (model.Exercise, error)
	deleteExerciseFunc   func(ctx context.Context, id int64) error
	listCategoriesFunc   func(ctx context.Context) ([]model.ExerciseCategory, error)
	getCategoryFunc      func(ctx context.Context, id int) (model.ExerciseCategory, error)
	deleteCategoryFunc   func(ctx context.Context, id int) error
	setCategoryOrderFunc func(ctx context.Context, id int, displayOrder int) error
}

func (m *mockCatalogStore) GetExercise(ctx context.Context, id int64) (model.Exercise, error) {
	return m.getExerciseFunc(ctx, id)
}

func (m *mockCatalogStore) ListExercises(ctx context.Context, r store.ListExercisesRequest) ([]model.Exercise, int, error) {
	return m.listExercisesFunc(ctx, r)
}

func (m *mockCatalogStore) InsertExercise(ctx context.Context, e model.Exercise) (model.Exercise, error) {
	return m.insertExerciseFunc(ctx, e)
}

func (m *mockCatalogStore) UpdateExercise(ctx context.Context, e model.Exercise) (model.Exercise, error) {
	return m.updateExerciseFunc(ctx, e)
}

func (m *mockCatalogStore) DeleteExercise(ctx context.Context, id int64) error {
	return m.deleteExerciseFunc(ctx, id)
}

func (m *mockCatalogStore) ListCategories(ctx context.Context) ([]model.ExerciseCategory, error) {
	return m.listCategoriesFunc(ctx)
}

func (m *mockCatalogStore) GetCategory(ctx context.Context, id int) (model.ExerciseCategory, error) {
	return m.getCategoryFunc(ctx, id)
}

func (m *mockCatalogStore) DeleteCategory(ctx context.Context, id int) error {
	return m.deleteCategoryFunc(ctx, id)
}

func (m *mockCatalogStore) SetCategoryOrder(ctx context.Context, id int, displayOrder int) error {
	return m.setCategoryOrderFunc(ctx, id, displayOrder)
}

func (m *mockCatalogStore) WithCatalogTx(ctx context.Context, fn func(tx store.CatalogStore) error) error {
	return fn(m)
}

func TestCatalog_ListExercises(t *testing.T) {
	var got store.ListExercisesRequest
	svc := NewCatalog(&mockCatalogStore{
		listExercisesFunc: func(_ context.Context, r store.ListExercisesRequest) ([]model.Exercise, int, error) {
			got = r
			return []model.Exercise{{ID: 1, Name: "Squat"}}, 41, nil
		},
	})

	page, err := svc.ListExercises(context.Background(), ListExercisesRequest{
		PageRequest: PageRequest{Page: 3, PageSize: 20},
		Level:       "beginner",
		Category:    "lower_body",
		Search:      "  squat ",
		ActiveOnly:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, 20, got.Limit)
	assert.Equal(t, 40, got.Offset)
	assert.Equal(t, model.LevelBeginner, *got.Level)
	assert.Equal(t, model.CategoryLowerBody, *got.Category)
	assert.Equal(t, "squat", got.Search)
	assert.True(t, got.ActiveOnly)

	assert.Equal(t, 41, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 1)

	_, err = svc.ListExercises(context.Background(), ListExercisesRequest{Category: "arms"})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = svc.ListExercises(context.Background(), ListExercisesRequest{PageRequest: PageRequest{Page: -1}})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestCatalog_CreateExercise(t *testing.T) {
	svc := NewCatalog(&mockCatalogStore{
		insertExerciseFunc: func(_ context.Context, e model.Exercise) (model.Exercise, error) {
			if e.CategoryID != nil && *e.CategoryID == 404 {
				return model.Exercise{}, store.ErrNotFound
			}
			e.ID = 3
			return e, nil
		},
	})
	ctx := context.Background()
	in := ExerciseInput{Name: " Squat ", Level: "beginner", Category: "lower_body"}

	_, err := svc.CreateExercise(ctx, member, in)
	requireStatus(t, err, http.StatusForbidden)

	e, err := svc.CreateExercise(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, "Squat", e.Name)
	assert.True(t, e.IsActive)

	in.CategoryID = ptr(404)
	_, err = svc.CreateExercise(ctx, admin, in)
	requireStatus(t, err, http.StatusNotFound)

	_, err = svc.CreateExercise(ctx, admin, ExerciseInput{Name: "x", Level: "guru", Category: "core"})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestCatalog_UpdateExercise_KeepsActiveFlag(t *testing.T) {
	svc := NewCatalog(&mockCatalogStore{
		getExerciseFunc: func(_ context.Context, id int64) (model.Exercise, error) {
			return model.Exercise{ID: id, Name: "Old", IsActive: false}, nil
		},
		updateExerciseFunc: func(_ context.Context, e model.Exercise) (model.Exercise, error) {
			return e, nil
		},
	})

	e, err := svc.UpdateExercise(context.Background(), admin, 3, ExerciseInput{Name: "New", Level: "advanced", Category: "core"})
	require.NoError(t, err)
	assert.Equal(t, "New", e.Name)
	assert.False(t, e.IsActive)
}

func TestCatalog_DeleteExercise_InUse(t *testing.T) {
	svc := NewCatalog(&mockCatalogStore{
		deleteExerciseFunc: func(context.Context, int64) error {
			return store.ErrInUse
		},
	})

	err := svc.DeleteExercise(context.Background(), admin, 5)
	requireStatus(t, err, http.StatusConflict)
}

func testCategories() []model.ExerciseCategory {
	return []model.ExerciseCategory{
		{ID: 1, Name: "Strength", Code: "STR", DisplayOrder: 0},
		{ID: 3, ParentID: ptr(1), Name: "Push", Code: "PUSH", DisplayOrder: 0},
		{ID: 2, Name: "Cardio", Code: "CAR", DisplayOrder: 1},
		{ID: 4, ParentID: ptr(1), Name: "Pull", Code: "PULL", DisplayOrder: 1},
		{ID: 5, ParentID: ptr(3), Name: "Chest", Code: "CHEST", DisplayOrder: 0},
	}
}

func TestCatalog_ListCategories(t *testing.T) {
	svc := NewCatalog(&mockCatalogStore{
		listCategoriesFunc: func(context.Context) ([]model.ExerciseCategory, error) {
			return testCategories(), nil
		},
	})

	tree, err := svc.ListCategories(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "Strength", tree[0].Name)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "Push", tree[0].Children[0].Name)
	assert.Equal(t, "Chest", tree[0].Children[0].Children[0].Name)
	assert.Equal(t, "Pull", tree[0].Children[1].Name)
	assert.Empty(t, tree[1].Children)

	flat, err := svc.ListCategories(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, flat, 5)
}

func TestCatalog_GetCategory_Cycle(t *testing.T) {
	cats := []model.ExerciseCategory{
		{ID: 1, ParentID: ptr(2), Name: "A"},
		{ID: 2, ParentID: ptr(1), Name: "B"},
	}
	svc := NewCatalog(&mockCatalogStore{
		getCategoryFunc: func(_ context.Context, id int) (model.ExerciseCategory, error) {
			return cats[id-1], nil
		},
		listCategoriesFunc: func(context.Context) ([]model.ExerciseCategory, error) {
			return cats, nil
		},
	})

	c, err := svc.GetCategory(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, c.Children, 1)
	assert.Empty(t, c.Children[0].Children)
}

func TestCatalog_Categories_Mutations(t *testing.T) {
	ctx := context.Background()
	orders := map[int]int{}
	svc := NewCatalog(&mockCatalogStore{
		deleteCategoryFunc: func(context.Context, int) error {
			return store.ErrInUse
		},
		setCategoryOrderFunc: func(_ context.Context, id, order int) error {
			if id == 404 {
				return store.ErrNotFound
			}
			orders[id] = order
			return nil
		},
	})

	requireStatus(t, svc.DeleteCategory(ctx, admin, 1), http.StatusConflict)

	require.NoError(t, svc.ReorderCategories(ctx, admin, []CategoryOrder{{ID: 1, DisplayOrder: 2}, {ID: 2, DisplayOrder: 1}}))
	assert.Equal(t, map[int]int{1: 2, 2: 1}, orders)

	requireStatus(t, svc.ReorderCategories(ctx, admin, []CategoryOrder{{ID: 404}}), http.StatusNotFound)
	requireStatus(t, svc.ReorderCategories(ctx, member, []CategoryOrder{{ID: 1}}), http.StatusForbidden)

	_, err := svc.UpdateCategory(ctx, admin, 3, CategoryInput{ParentID: ptr(3), Name: "Loop", Code: "LOOP"})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = svc.CreateCategory(ctx, admin, CategoryInput{Name: "No code"})
	requireStatus(t, err, http.StatusBadRequest)
}
