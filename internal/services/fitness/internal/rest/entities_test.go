package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/serr"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/testutil"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/media"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCatalog struct {
	catalogService

	listExercisesFunc     func(ctx context.Context, r service.ListExercisesRequest) (model.Page[model.Exercise], error)
	toggleExerciseFunc    func(ctx context.Context, actor service.Actor, id int64) (model.Exercise, error)
	listCategoriesFunc    func(ctx context.Context, flat bool) ([]model.ExerciseCategory, error)
	reorderCategoriesFunc func(ctx context.Context, actor service.Actor, orders []service.CategoryOrder) error
}

func (m *mockCatalog) ListExercises(ctx context.Context, r service.ListExercisesRequest) (model.Page[model.Exercise], error) {
	return m.listExercisesFunc(ctx, r)
}

func (m *mockCatalog) ToggleExercise(ctx context.Context, actor service.Actor, id int64) (model.Exercise, error) {
	return m.toggleExerciseFunc(ctx, actor, id)
}

func (m *mockCatalog) ListCategories(ctx context.Context, flat bool) ([]model.ExerciseCategory, error) {
	return m.listCategoriesFunc(ctx, flat)
}

func (m *mockCatalog) ReorderCategories(ctx context.Context, actor service.Actor, orders []service.CategoryOrder) error {
	return m.reorderCategoriesFunc(ctx, actor, orders)
}

type mockUsers struct {
	userService

	getUserFunc       func(ctx context.Context, actor service.Actor, id int64) (model.User, error)
	updateUserFunc    func(ctx context.Context, actor service.Actor, id int64, in service.UpdateUserInput) (model.User, error)
	upsertProfileFunc func(ctx context.Context, actor service.Actor, userID int64, in service.ProfileInput) (model.UserProfile, error)
}

func (m *mockUsers) GetUser(ctx context.Context, actor service.Actor, id int64) (model.User, error) {
	return m.getUserFunc(ctx, actor, id)
}

func (m *mockUsers) UpdateUser(ctx context.Context, actor service.Actor, id int64, in service.UpdateUserInput) (model.User, error) {
	return m.updateUserFunc(ctx, actor, id, in)
}

func (m *mockUsers) UpsertProfile(ctx context.Context, actor service.Actor, userID int64, in service.ProfileInput) (model.UserProfile, error) {
	return m.upsertProfileFunc(ctx, actor, userID, in)
}

type mockRecords struct {
	recordService

	listBodyRecordsFunc       func(ctx context.Context, actor service.Actor, r service.ListRecordsRequest) (model.Page[model.BodyRecord], error)
	latestBodyRecordFunc      func(ctx context.Context, actor service.Actor, userID int64) (model.BodyRecord, error)
	bulkCreateBodyRecordsFunc func(ctx context.Context, actor service.Actor, in []service.BodyRecordInput) ([]model.BodyRecord, error)
	createWorkoutRecordFunc   func(ctx context.Context, actor service.Actor, in service.WorkoutRecordInput) (model.WorkoutRecord, error)
}

func (m *mockRecords) ListBodyRecords(ctx context.Context, actor service.Actor, r service.ListRecordsRequest) (model.Page[model.BodyRecord], error) {
	return m.listBodyRecordsFunc(ctx, actor, r)
}

func (m *mockRecords) LatestBodyRecord(ctx context.Context, actor service.Actor, userID int64) (model.BodyRecord, error) {
	return m.latestBodyRecordFunc(ctx, actor, userID)
}

func (m *mockRecords) BulkCreateBodyRecords(ctx context.Context, actor service.Actor, in []service.BodyRecordInput) ([]model.BodyRecord, error) {
	return m.bulkCreateBodyRecordsFunc(ctx, actor, in)
}

func (m *mockRecords) CreateWorkoutRecord(ctx context.Context, actor service.Actor, in service.WorkoutRecordInput) (model.WorkoutRecord, error) {
	return m.createWorkoutRecordFunc(ctx, actor, in)
}

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func TestListExercises(t *testing.T) {
	catalog := &mockCatalog{
		listExercisesFunc: func(ctx context.Context, r service.ListExercisesRequest) (model.Page[model.Exercise], error) {
			assert.Equal(t, "squat", r.Search)
			assert.Equal(t, 4, *r.CategoryID)
			assert.True(t, r.ActiveOnly)
			return model.NewPage([]model.Exercise{{ID: 5, Name: "Back Squat", Level: model.LevelAdvanced, IsActive: true}}, 1, 20, 1), nil
		},
	}
	api := newTestAPI(WithCatalog(catalog))

	rec := testutil.SendRequest(t, api, "GET", "/exercises?search=squat&categoryId=4&activeOnly=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := testutil.ParseResponse[pageResponse[exerciseResponse]](t, rec)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Back Squat", resp.Items[0].Name)
	assert.Equal(t, "advanced", resp.Items[0].Level)
}

func TestToggleExercise_NeedsAdmin(t *testing.T) {
	var calls int
	catalog := &mockCatalog{
		toggleExerciseFunc: func(ctx context.Context, actor service.Actor, id int64) (model.Exercise, error) {
			calls++
			return model.Exercise{ID: id, IsActive: false}, nil
		},
	}
	api := newTestAPI(WithCatalog(catalog))

	rec := testutil.SendRequest(t, api, "PATCH", "/exercises/5/toggle-status", nil, testutil.WithBearer(memberToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, calls)

	rec = testutil.SendRequest(t, api, "PATCH", "/exercises/5/toggle-status", nil, testutil.WithBearer(adminToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, testutil.ParseResponse[exerciseResponse](t, rec).IsActive)
	assert.Equal(t, 1, calls)
}

func TestAdminRoutes_RejectMembers(t *testing.T) {
	api := newTestAPI(WithCatalog(&mockCatalog{}), WithUsers(&mockUsers{}))

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{"POST", "/exercises", `{"name":"Squat"}`},
		{"PUT", "/exercises/5", `{"name":"Squat"}`},
		{"DELETE", "/exercises/5", nil},
		{"PATCH", "/exercises/5/toggle-status", nil},
		{"POST", "/categories", `{"name":"Legs"}`},
		{"PUT", "/categories/reorder", `[]`},
		{"PUT", "/categories/4", `{"name":"Legs"}`},
		{"DELETE", "/categories/4", nil},
		{"GET", "/users", nil},
		{"POST", "/users", `{"email":"a@b.com","name":"A"}`},
		{"DELETE", "/users/10", nil},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := testutil.SendRequest(t, api, tt.method, tt.path, tt.body, testutil.WithBearer(memberToken))
			assert.Equal(t, http.StatusForbidden, rec.Code)

			rec = testutil.SendRequest(t, api, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestCategories(t *testing.T) {
	catalog := &mockCatalog{
		listCategoriesFunc: func(ctx context.Context, flat bool) ([]model.ExerciseCategory, error) {
			if flat {
				return []model.ExerciseCategory{{ID: 1, Name: "Strength"}, {ID: 2, ParentID: ptr(1), Name: "Chest"}}, nil
			}
			return []model.ExerciseCategory{{ID: 1, Name: "Strength", Children: []model.ExerciseCategory{{ID: 2, ParentID: ptr(1), Name: "Chest"}}}}, nil
		},
		reorderCategoriesFunc: func(ctx context.Context, actor service.Actor, orders []service.CategoryOrder) error {
			assert.Equal(t, []service.CategoryOrder{{ID: 1, DisplayOrder: 2}, {ID: 2, DisplayOrder: 1}}, orders)
			return nil
		},
	}
	api := newTestAPI(WithCatalog(catalog))

	rec := testutil.SendRequest(t, api, "GET", "/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tree := testutil.ParseResponse[[]categoryResponse](t, rec)
	require.Len(t, tree, 1)
	assert.Equal(t, "Chest", tree[0].Children[0].Name)

	rec = testutil.SendRequest(t, api, "GET", "/categories?flat=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, testutil.ParseResponse[[]categoryResponse](t, rec), 2)

	rec = testutil.SendRequest(t, api, "PUT", "/categories/reorder", `[{"id":1,"displayOrder":2},{"id":2,"displayOrder":1}]`, testutil.WithBearer(adminToken))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUsers(t *testing.T) {
	users := &mockUsers{
		getUserFunc: func(ctx context.Context, actor service.Actor, id int64) (model.User, error) {
			if !actor.CanAccessUser(id) {
				return model.User{}, serr.NewServiceError(nil, http.StatusForbidden, "forbidden")
			}
			return model.User{ID: id, Email: "m@example.com", Role: model.RoleMember}, nil
		},
		updateUserFunc: func(ctx context.Context, actor service.Actor, id int64, in service.UpdateUserInput) (model.User, error) {
			assert.Nil(t, in.Email)
			assert.Equal(t, "Mina K", *in.Name)
			return model.User{ID: id, Name: *in.Name}, nil
		},
	}
	api := newTestAPI(WithUsers(users))

	rec := testutil.SendRequest(t, api, "GET", "/users/10", nil, testutil.WithBearer(memberToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(10), testutil.ParseResponse[userResponse](t, rec).ID)

	rec = testutil.SendRequest(t, api, "GET", "/users/11", nil, testutil.WithBearer(memberToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = testutil.SendRequest(t, api, "PUT", "/users/10", `{"name":"Mina K"}`, testutil.WithBearer(memberToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mina K", testutil.ParseResponse[userResponse](t, rec).Name)
}

func TestUpsertProfile(t *testing.T) {
	users := &mockUsers{
		upsertProfileFunc: func(ctx context.Context, actor service.Actor, userID int64, in service.ProfileInput) (model.UserProfile, error) {
			require.NotNil(t, in.BirthDate)
			assert.Equal(t, day("1994-03-02"), *in.BirthDate)
			g := model.GenderFemale
			return model.UserProfile{UserID: userID, BirthDate: in.BirthDate, Gender: &g, HeightCm: in.HeightCm}, nil
		},
	}
	api := newTestAPI(WithUsers(users))

	body := `{"birthDate":"1994-03-02","gender":"female","heightCm":168.5}`
	rec := testutil.SendRequest(t, api, "PUT", "/userprofiles/10/upsert", body, testutil.WithBearer(memberToken))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := testutil.ParseResponse[map[string]any](t, rec)
	assert.Equal(t, "1994-03-02", resp["birthDate"])
	assert.Equal(t, "female", resp["gender"])
	assert.Equal(t, 168.5, resp["heightCm"])

	rec = testutil.SendRequest(t, api, "PUT", "/userprofiles/10/upsert", `{"birthDate":"02/03/1994"}`, testutil.WithBearer(memberToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBodyRecords(t *testing.T) {
	records := &mockRecords{
		listBodyRecordsFunc: func(ctx context.Context, actor service.Actor, r service.ListRecordsRequest) (model.Page[model.BodyRecord], error) {
			assert.Equal(t, memberActor, actor)
			assert.Equal(t, day("2026-09-01"), *r.From)
			assert.Nil(t, r.To)
			return model.NewPage([]model.BodyRecord{{ID: 1, UserID: 10, RecordedDate: day("2026-09-03")}}, 1, 20, 1), nil
		},
		latestBodyRecordFunc: func(ctx context.Context, actor service.Actor, userID int64) (model.BodyRecord, error) {
			return model.BodyRecord{}, serr.NewServiceError(nil, http.StatusNotFound, "body record not found")
		},
		bulkCreateBodyRecordsFunc: func(ctx context.Context, actor service.Actor, in []service.BodyRecordInput) ([]model.BodyRecord, error) {
			require.Len(t, in, 2)
			out := make([]model.BodyRecord, 0, len(in))
			for i, r := range in {
				out = append(out, model.BodyRecord{ID: int64(i + 1), UserID: actor.UserID, RecordedDate: r.RecordedDate, WeightKg: r.WeightKg})
			}
			return out, nil
		},
	}
	api := newTestAPI(WithRecords(records))

	rec := testutil.SendRequest(t, api, "GET", "/bodyrecords?from=2026-09-01", nil, testutil.WithBearer(memberToken))
	require.Equal(t, http.StatusOK, rec.Code)
	page := testutil.ParseResponse[map[string]any](t, rec)
	item := page["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "2026-09-03", item["recordedDate"])

	rec = testutil.SendRequest(t, api, "GET", "/bodyrecords?from=yesterday", nil, testutil.WithBearer(memberToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.SendRequest(t, api, "GET", "/bodyrecords/user/10/latest", nil, testutil.WithBearer(memberToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := `[{"recordedDate":"2026-09-01","weightKg":71.2},{"recordedDate":"2026-09-08T07:30:00Z","weightKg":70.8}]`
	rec = testutil.SendRequest(t, api, "POST", "/bodyrecords/bulk", body, testutil.WithBearer(memberToken))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := testutil.ParseResponse[[]bodyRecordResponse](t, rec)
	require.Len(t, created, 2)
	assert.Equal(t, 70.8, *created[1].WeightKg)
}

func TestCreateWorkoutRecord(t *testing.T) {
	records := &mockRecords{
		createWorkoutRecordFunc: func(ctx context.Context, actor service.Actor, in service.WorkoutRecordInput) (model.WorkoutRecord, error) {
			assert.JSONEq(t, `[{"reps":10,"weight":60}]`, string(in.SetsData))
			return model.WorkoutRecord{ID: 4, UserID: actor.UserID, ExerciseID: in.ExerciseID, WorkoutDate: in.WorkoutDate, SetsData: in.SetsData}, nil
		},
	}
	api := newTestAPI(WithRecords(records))

	body := `{"exerciseId":5,"workoutDate":"2026-09-30","setsData":[{"reps":10,"weight":60}]}`
	rec := testutil.SendRequest(t, api, "POST", "/workoutrecords", body, testutil.WithBearer(memberToken))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp workoutRecordResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(10), resp.UserID)
	assert.JSONEq(t, `[{"reps":10,"weight":60}]`, string(resp.SetsData))
}

func TestMedia(t *testing.T) {
	root := t.TempDir()
	store, err := media.NewStore(media.Config{Root: root, ServeRoot: "/api/v1/media/", MaxWidth: 64, MaxHeight: 64})
	require.NoError(t, err)
	api := newTestAPI(WithMedia(store, root), WithMaxMediaSize(1<<20))

	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 32, 32))))
	upload := testutil.TestFile{Name: "thumb.png", FieldName: "image", Content: bytes.NewReader(buf.Bytes())}

	rec := testutil.SendFile(t, api, "POST", "/media", upload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	upload.Content = bytes.NewReader(buf.Bytes())
	rec = testutil.SendFile(t, api, "POST", "/media", upload, testutil.WithBearer(memberToken))
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := testutil.ParseResponse[uploadMediaResponse](t, rec)
	require.True(t, strings.HasPrefix(resp.URL, "/api/v1/media/"))
	name := strings.TrimPrefix(resp.URL, "/api/v1/media/")
	_, err = os.Stat(filepath.Join(root, name))
	require.NoError(t, err)

	rec = testutil.SendRequest(t, api, "GET", "/media/"+name, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	served, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), served)

	rec = testutil.SendFile(t, api, "POST", "/media", testutil.TestFile{
		Name:      "notes.txt",
		FieldName: "image",
		Content:   strings.NewReader("not an image"),
	}, testutil.WithBearer(memberToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
