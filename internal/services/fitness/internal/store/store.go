package store

import (
	"context"
	"errors"
	"time"

	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
	ErrInUse    = errors.New("still referenced")
	ErrInvalid  = errors.New("constraint violated")
)

type Store interface {
	UserStore
	RoutineStore
	CatalogStore
	ProfileStore
	RecordStore
	Ping(ctx context.Context) error
}

type UserStore interface {
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (model.User, error)
	ListUsers(ctx context.Context, r ListUsersRequest) ([]model.User, int, error)
	CreateUser(ctx context.Context, r CreateUserRequest) (model.User, error)
	UpdateUser(ctx context.Context, r UpdateUserRequest) (model.User, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	SetUserActive(ctx context.Context, id int64, active bool) error
}

// RoutineStore covers routines and their slots. Slot mutations are expected to run
// inside WithRoutineTx after LockRoutine.
type RoutineStore interface {
	GetRoutine(ctx context.Context, id int64) (model.Routine, error)
	ListRoutines(ctx context.Context, r ListRoutinesRequest) ([]model.Routine, int, error)
	InsertRoutine(ctx context.Context, r InsertRoutineRequest) (model.Routine, error)
	UpdateRoutine(ctx context.Context, r UpdateRoutineRequest) (model.Routine, error)
	DeleteRoutine(ctx context.Context, id int64) error
	LockRoutine(ctx context.Context, id int64) (model.Routine, error)

	ListSlots(ctx context.Context, routineID int64) ([]model.Slot, error)
	GetSlot(ctx context.Context, id int64) (model.Slot, error)
	InsertSlot(ctx context.Context, r InsertSlotRequest) (model.Slot, error)
	UpdateSlot(ctx context.Context, r UpdateSlotRequest) (model.Slot, error)
	DeleteSlot(ctx context.Context, id int64) error
	ShiftSlots(ctx context.Context, r ShiftSlotsRequest) error
	SetSlotOrder(ctx context.Context, slotID int64, orderIndex int) error
	DeferSlotOrderCheck(ctx context.Context) error

	Savepoint(ctx context.Context, fn func() error) error
	WithRoutineTx(ctx context.Context, fn func(tx RoutineStore) error) error
}

type CatalogStore interface {
	GetExercise(ctx context.Context, id int64) (model.Exercise, error)
	ListExercises(ctx context.Context, r ListExercisesRequest) ([]model.Exercise, int, error)
	InsertExercise(ctx context.Context, e model.Exercise) (model.Exercise, error)
	UpdateExercise(ctx context.Context, e model.Exercise) (model.Exercise, error)
	DeleteExercise(ctx context.Context, id int64) error
	ToggleExercise(ctx context.Context, id int64) (model.Exercise, error)

	GetCategory(ctx context.Context, id int) (model.ExerciseCategory, error)
	ListCategories(ctx context.Context) ([]model.ExerciseCategory, error)
	InsertCategory(ctx context.Context, c model.ExerciseCategory) (model.ExerciseCategory, error)
	UpdateCategory(ctx context.Context, c model.ExerciseCategory) (model.ExerciseCategory, error)
	DeleteCategory(ctx context.Context, id int) error
	SetCategoryOrder(ctx context.Context, id int, displayOrder int) error

	WithCatalogTx(ctx context.Context, fn func(tx CatalogStore) error) error
}

type ProfileStore interface {
	GetProfile(ctx context.Context, userID int64) (model.UserProfile, error)
	InsertProfile(ctx context.Context, p model.UserProfile) (model.UserProfile, error)
	UpdateProfile(ctx context.Context, p model.UserProfile) (model.UserProfile, error)
	UpsertProfile(ctx context.Context, p model.UserProfile) (model.UserProfile, error)
	DeleteProfile(ctx context.Context, userID int64) error
}

type RecordStore interface {
	GetBodyRecord(ctx context.Context, id int64) (model.BodyRecord, error)
	LatestBodyRecord(ctx context.Context, userID int64) (model.BodyRecord, error)
	ListBodyRecords(ctx context.Context, r ListRecordsRequest) ([]model.BodyRecord, int, error)
	InsertBodyRecord(ctx context.Context, r model.BodyRecord) (model.BodyRecord, error)
	UpdateBodyRecord(ctx context.Context, r model.BodyRecord) (model.BodyRecord, error)
	DeleteBodyRecord(ctx context.Context, id int64) error

	GetWorkoutRecord(ctx context.Context, id int64) (model.WorkoutRecord, error)
	ListWorkoutRecords(ctx context.Context, r ListRecordsRequest) ([]model.WorkoutRecord, int, error)
	InsertWorkoutRecord(ctx context.Context, r model.WorkoutRecord) (model.WorkoutRecord, error)
	UpdateWorkoutRecord(ctx context.Context, r model.WorkoutRecord) (model.WorkoutRecord, error)
	DeleteWorkoutRecord(ctx context.Context, id int64) error

	WithRecordTx(ctx context.Context, fn func(tx RecordStore) error) error
}

type ListUsersRequest struct {
	Search string
	Active *bool
	Limit  int
	Offset int
}

type CreateUserRequest struct {
	GoogleID        *string
	Email           string
	Name            string
	ProfileImageURL *string
	Role            model.Role
	IsActive        bool
	LastLoginAt     *time.Time
}

type UpdateUserRequest struct {
	ID              int64
	Email           string
	Name            string
	ProfileImageURL *string
	Role            model.Role
	IsActive        bool
}

type ListRoutinesRequest struct {
	// OwnerID nil selects system routines.
	OwnerID  *int64
	Level    *model.Level
	Category *model.Category
	Limit    int
	Offset   int
}

type InsertRoutineRequest struct {
	Name              string
	Description       *string
	Level             model.Level
	Category          model.Category
	EstimatedDuration *int
	ThumbnailURL      *string
	OwnerID           *int64
}

type UpdateRoutineRequest struct {
	ID                int64
	Name              string
	Description       *string
	Level             model.Level
	Category          model.Category
	EstimatedDuration *int
	ThumbnailURL      *string
}

type InsertSlotRequest struct {
	RoutineID       int64
	ExerciseID      int64
	OrderIndex      int
	Sets            *int
	Reps            *int
	DurationSeconds *int
	RestSeconds     *int
}

type UpdateSlotRequest struct {
	ID              int64
	ExerciseID      int64
	OrderIndex      int
	Sets            *int
	Reps            *int
	DurationSeconds *int
	RestSeconds     *int
}

// ShiftSlotsRequest moves every slot of a routine with order_index >= From by Delta.
type ShiftSlotsRequest struct {
	RoutineID int64
	From      int
	Delta     int
}

type ListExercisesRequest struct {
	Level      *model.Level
	Category   *model.Category
	CategoryID *int
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}

type ListRecordsRequest struct {
	UserID     *int64
	ExerciseID *int64
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
