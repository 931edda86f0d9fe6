package rest

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/middleware"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/router"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/oauth"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/service"
)

type authService interface {
	Login(ctx context.Context, assertion string) (service.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (service.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	LoginURL(env oauth.Env, r service.LoginRequest) (string, error)
	AuthCallback(ctx context.Context, env oauth.Env, r service.AuthCallbackRequest) (service.AuthCallbackResponse, error)
	RedeemCode(ctx context.Context, code string) (service.TokenPair, error)
}

type routineService interface {
	CreateRoutine(ctx context.Context, actor service.Actor, r service.CreateRoutineRequest) (model.RoutineDetail, error)
	AddSlots(ctx context.Context, actor service.Actor, routineID int64, specs []service.SlotSpec) ([]service.SlotResult, error)
	AddSlot(ctx context.Context, actor service.Actor, routineID int64, spec service.SlotSpec) (model.Slot, error)
	InsertSlotAt(ctx context.Context, actor service.Actor, routineID int64, spec service.SlotSpec) (model.Slot, error)
	ReorderSlots(ctx context.Context, actor service.Actor, routineID int64, slotIDs []int64) ([]model.Slot, error)
	UpdateSlot(ctx context.Context, actor service.Actor, r service.UpdateSlotRequest) (model.Slot, error)
	RemoveSlot(ctx context.Context, actor service.Actor, routineID, slotID int64) (model.Slot, error)
	GetDetail(ctx context.Context, routineID int64) ([]model.Slot, error)
	GetRoutine(ctx context.Context, id int64) (model.RoutineDetail, error)
	ListRoutines(ctx context.Context, r service.ListRoutinesRequest) (model.Page[model.Routine], error)
	UpdateRoutine(ctx context.Context, actor service.Actor, r service.UpdateRoutineRequest) (model.Routine, error)
	DeleteRoutine(ctx context.Context, actor service.Actor, id int64) error
}

type catalogService interface {
	ListExercises(ctx context.Context, r service.ListExercisesRequest) (model.Page[model.Exercise], error)
	GetExercise(ctx context.Context, id int64) (model.Exercise, error)
	CreateExercise(ctx context.Context, actor service.Actor, in service.ExerciseInput) (model.Exercise, error)
	UpdateExercise(ctx context.Context, actor service.Actor, id int64, in service.ExerciseInput) (model.Exercise, error)
	DeleteExercise(ctx context.Context, actor service.Actor, id int64) error
	ToggleExercise(ctx context.Context, actor service.Actor, id int64) (model.Exercise, error)
	ListCategories(ctx context.Context, flat bool) ([]model.ExerciseCategory, error)
	GetCategory(ctx context.Context, id int) (model.ExerciseCategory, error)
	CreateCategory(ctx context.Context, actor service.Actor, in service.CategoryInput) (model.ExerciseCategory, error)
	UpdateCategory(ctx context.Context, actor service.Actor, id int, in service.CategoryInput) (model.ExerciseCategory, error)
	DeleteCategory(ctx context.Context, actor service.Actor, id int) error
	ReorderCategories(ctx context.Context, actor service.Actor, orders []service.CategoryOrder) error
}

type userService interface {
	ListUsers(ctx context.Context, actor service.Actor, r service.ListUsersRequest) (model.Page[model.User], error)
	GetUser(ctx context.Context, actor service.Actor, id int64) (model.User, error)
	CreateUser(ctx context.Context, actor service.Actor, in service.CreateUserInput) (model.User, error)
	UpdateUser(ctx context.Context, actor service.Actor, id int64, in service.UpdateUserInput) (model.User, error)
	DeactivateUser(ctx context.Context, actor service.Actor, id int64) error
	GetProfile(ctx context.Context, actor service.Actor, userID int64) (model.UserProfile, error)
	CreateProfile(ctx context.Context, actor service.Actor, userID int64, in service.ProfileInput) (model.UserProfile, error)
	UpdateProfile(ctx context.Context, actor service.Actor, userID int64, in service.ProfileInput) (model.UserProfile, error)
	UpsertProfile(ctx context.Context, actor service.Actor, userID int64, in service.ProfileInput) (model.UserProfile, error)
	DeleteProfile(ctx context.Context, actor service.Actor, userID int64) error
}

type recordService interface {
	ListBodyRecords(ctx context.Context, actor service.Actor, r service.ListRecordsRequest) (model.Page[model.BodyRecord], error)
	LatestBodyRecord(ctx context.Context, actor service.Actor, userID int64) (model.BodyRecord, error)
	GetBodyRecord(ctx context.Context, actor service.Actor, id int64) (model.BodyRecord, error)
	CreateBodyRecord(ctx context.Context, actor service.Actor, in service.BodyRecordInput) (model.BodyRecord, error)
	BulkCreateBodyRecords(ctx context.Context, actor service.Actor, in []service.BodyRecordInput) ([]model.BodyRecord, error)
	UpdateBodyRecord(ctx context.Context, actor service.Actor, id int64, in service.BodyRecordInput) (model.BodyRecord, error)
	DeleteBodyRecord(ctx context.Context, actor service.Actor, id int64) error
	ListWorkoutRecords(ctx context.Context, actor service.Actor, r service.ListRecordsRequest) (model.Page[model.WorkoutRecord], error)
	GetWorkoutRecord(ctx context.Context, actor service.Actor, id int64) (model.WorkoutRecord, error)
	CreateWorkoutRecord(ctx context.Context, actor service.Actor, in service.WorkoutRecordInput) (model.WorkoutRecord, error)
	BulkCreateWorkoutRecords(ctx context.Context, actor service.Actor, in []service.WorkoutRecordInput) ([]model.WorkoutRecord, error)
	UpdateWorkoutRecord(ctx context.Context, actor service.Actor, id int64, in service.WorkoutRecordInput) (model.WorkoutRecord, error)
	DeleteWorkoutRecord(ctx context.Context, actor service.Actor, id int64) error
}

type mediaService interface {
	Upload(img io.Reader) (string, error)
}

type APIOption func(*API) *API

func WithAuth(srv authService) APIOption {
	return func(api *API) *API {
		api.auth = srv
		return api
	}
}

func WithRoutines(srv routineService) APIOption {
	return func(api *API) *API {
		api.routines = srv
		return api
	}
}

func WithCatalog(srv catalogService) APIOption {
	return func(api *API) *API {
		api.catalog = srv
		return api
	}
}

func WithUsers(srv userService) APIOption {
	return func(api *API) *API {
		api.users = srv
		return api
	}
}

func WithRecords(srv recordService) APIOption {
	return func(api *API) *API {
		api.records = srv
		return api
	}
}

// WithMedia enables uploads. Stored files are served from root.
func WithMedia(srv mediaService, root string) APIOption {
	return func(api *API) *API {
		api.media = srv
		api.mediaRoot = root
		return api
	}
}

func WithMaxMediaSize(size int64) APIOption {
	return func(api *API) *API {
		api.maxMediaSize = size
		return api
	}
}

// WithTokenParser sets how bearer tokens are verified on protected routes.
func WithTokenParser(parse middleware.TokenParser) APIOption {
	return func(api *API) *API {
		api.parse = parse
		return api
	}
}

func WithClock(now func() time.Time) APIOption {
	return func(api *API) *API {
		api.now = now
		return api
	}
}

// API serves the /api/v1 surface. Paths are registered without the prefix.
type API struct {
	auth         authService
	routines     routineService
	catalog      catalogService
	users        userService
	records      recordService
	media        mediaService
	mediaRoot    string
	maxMediaSize int64
	parse        middleware.TokenParser
	now          func() time.Time
	mux          *router.Router
}

func NewAPI(opts ...APIOption) *API {
	api := &API{
		maxMediaSize: 5 << 20,
		now:          time.Now,
		mux:          router.New(),
	}

	for _, opt := range opts {
		api = opt(api)
	}

	switch {
	case api.parse == nil:
		panic("token parser is required")
	case api.auth == nil:
		panic("auth service is required")
	case api.routines == nil:
		panic("routine service is required")
	case api.catalog == nil:
		panic("catalog service is required")
	case api.users == nil:
		panic("user service is required")
	case api.records == nil:
		panic("record service is required")
	}

	api.mount()
	return api
}

func (api *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.mux.ServeHTTP(w, r)
}

func (api *API) mount() {
	public := api.mux
	authed := api.mux.With(middleware.Auth(api.parse))
	admin := authed.With(middleware.RequireRole(string(model.RoleAdmin)))

	public.HandleFunc("POST /auth/login", api.handleLogin)
	public.HandleFunc("POST /auth/refresh", api.handleRefresh)
	public.HandleFunc("POST /auth/logout", api.handleLogout)
	public.HandleFunc("GET /auth/status", api.handleStatus)
	authed.HandleFunc("GET /auth/verify-token", api.handleVerifyToken)
	public.HandleFunc("GET /auth/{provider}/login", api.handleProviderLogin)
	public.HandleFunc("GET /auth/{provider}/callback", api.handleProviderCallback)
	public.HandleFunc("POST /auth/redeem", api.handleRedeem)

	public.HandleFunc("GET /routines", api.handleListRoutines)
	public.HandleFunc("GET /routines/{id}", api.handleGetRoutine)
	authed.HandleFunc("POST /routines", api.handleCreateRoutine)
	authed.HandleFunc("PUT /routines/{id}", api.handleUpdateRoutine)
	authed.HandleFunc("DELETE /routines/{id}", api.handleDeleteRoutine)
	public.HandleFunc("GET /routines/{id}/exercises", api.handleGetSlots)
	authed.HandleFunc("POST /routines/{id}/exercises", api.handleAddSlot)
	authed.HandleFunc("POST /routines/{id}/exercises/batch", api.handleAddSlots)
	authed.HandleFunc("PUT /routines/{id}/exercises/order", api.handleReorderSlots)
	authed.HandleFunc("PUT /routines/{id}/exercises/{slotId}", api.handleUpdateSlot)
	authed.HandleFunc("DELETE /routines/{id}/exercises/{slotId}", api.handleRemoveSlot)

	public.HandleFunc("GET /exercises", api.handleListExercises)
	public.HandleFunc("GET /exercises/{id}", api.handleGetExercise)
	admin.HandleFunc("POST /exercises", api.handleCreateExercise)
	admin.HandleFunc("PUT /exercises/{id}", api.handleUpdateExercise)
	admin.HandleFunc("DELETE /exercises/{id}", api.handleDeleteExercise)
	admin.HandleFunc("PATCH /exercises/{id}/toggle-status", api.handleToggleExercise)

	public.HandleFunc("GET /categories", api.handleListCategories)
	public.HandleFunc("GET /categories/{id}", api.handleGetCategory)
	admin.HandleFunc("POST /categories", api.handleCreateCategory)
	admin.HandleFunc("PUT /categories/reorder", api.handleReorderCategories)
	admin.HandleFunc("PUT /categories/{id}", api.handleUpdateCategory)
	admin.HandleFunc("DELETE /categories/{id}", api.handleDeleteCategory)

	admin.HandleFunc("GET /users", api.handleListUsers)
	admin.HandleFunc("POST /users", api.handleCreateUser)
	authed.HandleFunc("GET /users/{id}", api.handleGetUser)
	authed.HandleFunc("PUT /users/{id}", api.handleUpdateUser)
	admin.HandleFunc("DELETE /users/{id}", api.handleDeactivateUser)

	authed.HandleFunc("GET /userprofiles/{userId}", api.handleGetProfile)
	authed.HandleFunc("POST /userprofiles/{userId}", api.handleCreateProfile)
	authed.HandleFunc("PUT /userprofiles/{userId}", api.handleUpdateProfile)
	authed.HandleFunc("PUT /userprofiles/{userId}/upsert", api.handleUpsertProfile)
	authed.HandleFunc("DELETE /userprofiles/{userId}", api.handleDeleteProfile)

	authed.HandleFunc("GET /bodyrecords", api.handleListBodyRecords)
	authed.HandleFunc("POST /bodyrecords", api.handleCreateBodyRecord)
	authed.HandleFunc("POST /bodyrecords/bulk", api.handleBulkBodyRecords)
	authed.HandleFunc("GET /bodyrecords/user/{userId}/latest", api.handleLatestBodyRecord)
	authed.HandleFunc("GET /bodyrecords/{id}", api.handleGetBodyRecord)
	authed.HandleFunc("PUT /bodyrecords/{id}", api.handleUpdateBodyRecord)
	authed.HandleFunc("DELETE /bodyrecords/{id}", api.handleDeleteBodyRecord)

	authed.HandleFunc("GET /workoutrecords", api.handleListWorkoutRecords)
	authed.HandleFunc("POST /workoutrecords", api.handleCreateWorkoutRecord)
	authed.HandleFunc("POST /workoutrecords/bulk", api.handleBulkWorkoutRecords)
	authed.HandleFunc("GET /workoutrecords/{id}", api.handleGetWorkoutRecord)
	authed.HandleFunc("PUT /workoutrecords/{id}", api.handleUpdateWorkoutRecord)
	authed.HandleFunc("DELETE /workoutrecords/{id}", api.handleDeleteWorkoutRecord)

	if api.media != nil {
		authed.HandleFunc("POST /media", api.handleUploadMedia)
		public.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(api.mediaRoot))))
	}
}

func actor(r *http.Request) service.Actor {
	p, _ := middleware.PrincipalFromContext(r.Context())
	return service.Actor{UserID: p.UserID, Role: model.Role(p.Role)}
}
