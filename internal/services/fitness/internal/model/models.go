package model

import (
	"encoding/json"
	"time"
)

type Model struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	Model
	ID              int64
	GoogleID        *string
	Email           string
	Name            string
	ProfileImageURL *string
	Role            Role
	IsActive        bool
	LastLoginAt     *time.Time
}

type Routine struct {
	Model
	ID                int64
	Name              string
	Description       *string
	Level             Level
	Category          Category
	EstimatedDuration *int
	ThumbnailURL      *string
	OwnerID           *int64
}

// IsSystem reports whether the routine was authored by an admin rather than a user.
func (r Routine) IsSystem() bool {
	return r.OwnerID == nil
}

// Slot is one exercise placement within a routine.
type Slot struct {
	ID              int64
	RoutineID       int64
	ExerciseID      int64
	ExerciseName    string
	OrderIndex      int
	Sets            *int
	Reps            *int
	DurationSeconds *int
	RestSeconds     *int
	CreatedAt       time.Time
}

type RoutineDetail struct {
	Routine
	Slots []Slot
}

type Exercise struct {
	Model
	ID             int64
	Name           string
	Description    *string
	Level          Level
	Category       Category
	CategoryDetail *string
	CategoryID     *int
	ImageURL       *string
	VideoURL       *string
	IsActive       bool
}

type ExerciseCategory struct {
	ID           int
	ParentID     *int
	Name         string
	Code         string
	DisplayOrder int
	Children     []ExerciseCategory
}

type UserProfile struct {
	Model
	UserID          int64
	BirthDate       *time.Time
	Gender          *Gender
	HeightCm        *float64
	CurrentWeightKg *float64
	FitnessGoal     *string
	FitnessLevel    *Level
}

type BodyRecord struct {
	ID                int64
	UserID            int64
	RecordedDate      time.Time
	WeightKg          *float64
	BodyFatPercentage *float64
	MuscleMassKg      *float64
	Notes             *string
	CreatedAt         time.Time
}

type WorkoutRecord struct {
	ID                   int64
	UserID               int64
	ExerciseID           *int64
	WorkoutDate          time.Time
	SetsData             json.RawMessage
	TotalDurationMinutes *int
	Notes                *string
	CreatedAt            time.Time
}

type Page[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	TotalCount int
	TotalPages int
}

func NewPage[T any](items []T, page, pageSize, total int) Page[T] {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	if items == nil {
		items = []T{}
	}

	return Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: pages,
	}
}
