package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/fn"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/httpx"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/serr"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
)

const dateLayout = time.DateOnly

// date accepts both "2006-01-02" and RFC 3339 timestamps and renders as a plain date.
type date time.Time

func (d *date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	t, err := parseDate(s)
	if err != nil {
		return err
	}

	*d = date(t)
	return nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func (d date) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d).Format(dateLayout))
}

func (d *date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	return &t
}

func toDate(t *time.Time) *date {
	if t == nil {
		return nil
	}
	d := date(*t)
	return &d
}

func readBody(r *http.Request, out any) error {
	if err := httpx.ReadJSON(r, out); err != nil {
		return serr.NewServiceError(err, http.StatusBadRequest, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, resp any) {
	if err := httpx.WriteJSON(w, status, resp); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
	}
}

// queryDate parses an optional date query parameter.
func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}

	t, err := parseDate(raw)
	if err != nil {
		return nil, serr.NewServiceError(err, http.StatusBadRequest, "invalid %s", name)
	}
	return &t, nil
}

func queryBool(r *http.Request, name string) bool {
	return strings.EqualFold(r.URL.Query().Get(name), "true")
}

type pageResponse[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

func toPage[M, T any](p model.Page[M], conv func(M) T) pageResponse[T] {
	return pageResponse[T]{
		Items:      fn.Map(p.Items, conv),
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalCount: p.TotalCount,
		TotalPages: p.TotalPages,
	}
}

type userResponse struct {
	ID              int64      `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	ProfileImageURL *string    `json:"profileImageUrl"`
	Role            string     `json:"role"`
	IsActive        bool       `json:"isActive"`
	LastLoginAt     *time.Time `json:"lastLoginAt"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func toUser(u model.User) userResponse {
	return userResponse{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		ProfileImageURL: u.ProfileImageURL,
		Role:            string(u.Role),
		IsActive:        u.IsActive,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

type routineResponse struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Description       *string   `json:"description"`
	Level             string    `json:"level"`
	Category          string    `json:"category"`
	EstimatedDuration *int      `json:"estimatedDuration"`
	ThumbnailURL      *string   `json:"thumbnailUrl"`
	CreatedBy         *int64    `json:"createdBy"`
	IsSystem          bool      `json:"isSystem"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func toRoutine(r model.Routine) routineResponse {
	return routineResponse{
		ID:                r.ID,
		Name:              r.Name,
		Description:       r.Description,
		Level:             string(r.Level),
		Category:          string(r.Category),
		EstimatedDuration: r.EstimatedDuration,
		ThumbnailURL:      r.ThumbnailURL,
		CreatedBy:         r.OwnerID,
		IsSystem:          r.IsSystem(),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type routineDetailResponse struct {
	routineResponse
	Exercises []slotResponse `json:"exerciseInfo"`
}

func toRoutineDetail(d model.RoutineDetail) routineDetailResponse {
	return routineDetailResponse{
		routineResponse: toRoutine(d.Routine),
		Exercises:       fn.Map(d.Slots, toSlot),
	}
}

type slotResponse struct {
	ID              int64     `json:"id"`
	RoutineID       int64     `json:"routineId"`
	ExerciseID      int64     `json:"exerciseId"`
	ExerciseName    string    `json:"exerciseName"`
	OrderIndex      int       `json:"orderIndex"`
	Sets            *int      `json:"sets"`
	Reps            *int      `json:"reps"`
	DurationSeconds *int      `json:"durationSeconds"`
	RestSeconds     *int      `json:"restSeconds"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toSlot(s model.Slot) slotResponse {
	return slotResponse{
		ID:              s.ID,
		RoutineID:       s.RoutineID,
		ExerciseID:      s.ExerciseID,
		ExerciseName:    s.ExerciseName,
		OrderIndex:      s.OrderIndex,
		Sets:            s.Sets,
		Reps:            s.Reps,
		DurationSeconds: s.DurationSeconds,
		RestSeconds:     s.RestSeconds,
		CreatedAt:       s.CreatedAt,
	}
}

type exerciseResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description"`
	Level          string    `json:"level"`
	Category       string    `json:"category"`
	CategoryDetail *string   `json:"categoryDetail"`
	CategoryID     *int      `json:"categoryId"`
	ImageURL       *string   `json:"imageUrl"`
	VideoURL       *string   `json:"videoUrl"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toExercise(e model.Exercise) exerciseResponse {
	return exerciseResponse{
		ID:             e.ID,
		Name:           e.Name,
		Description:    e.Description,
		Level:          string(e.Level),
		Category:       string(e.Category),
		CategoryDetail: e.CategoryDetail,
		CategoryID:     e.CategoryID,
		ImageURL:       e.ImageURL,
		VideoURL:       e.VideoURL,
		IsActive:       e.IsActive,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

type categoryResponse struct {
	ID           int                `json:"id"`
	ParentID     *int               `json:"parentId"`
	Name         string             `json:"name"`
	Code         string             `json:"code"`
	DisplayOrder int                `json:"displayOrder"`
	Children     []categoryResponse `json:"children,omitempty"`
}

func toCategory(c model.ExerciseCategory) categoryResponse {
	var children []categoryResponse
	if len(c.Children) > 0 {
		children = fn.Map(c.Children, toCategory)
	}

	return categoryResponse{
		ID:           c.ID,
		ParentID:     c.ParentID,
		Name:         c.Name,
		Code:         c.Code,
		DisplayOrder: c.DisplayOrder,
		Children:     children,
	}
}

type profileResponse struct {
	UserID          int64     `json:"userId"`
	BirthDate       *date     `json:"birthDate"`
	Gender          *string   `json:"gender"`
	HeightCm        *float64  `json:"heightCm"`
	CurrentWeightKg *float64  `json:"currentWeightKg"`
	FitnessGoal     *string   `json:"fitnessGoal"`
	FitnessLevel    *string   `json:"fitnessLevel"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toProfile(p model.UserProfile) profileResponse {
	resp := profileResponse{
		UserID:          p.UserID,
		BirthDate:       toDate(p.BirthDate),
		HeightCm:        p.HeightCm,
		CurrentWeightKg: p.CurrentWeightKg,
		FitnessGoal:     p.FitnessGoal,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.Gender != nil {
		g := string(*p.Gender)
		resp.Gender = &g
	}
	if p.FitnessLevel != nil {
		l := string(*p.FitnessLevel)
		resp.FitnessLevel = &l
	}

	return resp
}

type bodyRecordResponse struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"userId"`
	RecordedDate      date      `json:"recordedDate"`
	WeightKg          *float64  `json:"weightKg"`
	BodyFatPercentage *float64  `json:"bodyFatPercentage"`
	MuscleMassKg      *float64  `json:"muscleMassKg"`
	Notes             *string   `json:"notes"`
	CreatedAt         time.Time `json:"createdAt"`
}

func toBodyRecord(b model.BodyRecord) bodyRecordResponse {
	return bodyRecordResponse{
		ID:                b.ID,
		UserID:            b.UserID,
		RecordedDate:      date(b.RecordedDate),
		WeightKg:          b.WeightKg,
		BodyFatPercentage: b.BodyFatPercentage,
		MuscleMassKg:      b.MuscleMassKg,
		Notes:             b.Notes,
		CreatedAt:         b.CreatedAt,
	}
}

type workoutRecordResponse struct {
	ID                   int64           `json:"id"`
	UserID               int64           `json:"userId"`
	ExerciseID           *int64          `json:"exerciseId"`
	WorkoutDate          date            `json:"workoutDate"`
	SetsData             json.RawMessage `json:"setsData,omitempty"`
	TotalDurationMinutes *int            `json:"totalDurationMinutes"`
	Notes                *string         `json:"notes"`
	CreatedAt            time.Time       `json:"createdAt"`
}

func toWorkoutRecord(w model.WorkoutRecord) workoutRecordResponse {
	return workoutRecordResponse{
		ID:                   w.ID,
		UserID:               w.UserID,
		ExerciseID:           w.ExerciseID,
		WorkoutDate:          date(w.WorkoutDate),
		SetsData:             w.SetsData,
		TotalDurationMinutes: w.TotalDurationMinutes,
		Notes:                w.Notes,
		CreatedAt:            w.CreatedAt,
	}
}
