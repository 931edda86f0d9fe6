package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/fn"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/httpx"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/service"
)

func recordsQuery(r *http.Request) (service.ListRecordsRequest, error) {
	page, err := pageFromQuery(r)
	if err != nil {
		return service.ListRecordsRequest{}, err
	}
	userID, err := httpx.QueryInt64Ptr(r, "userId")
	if err != nil {
		return service.ListRecordsRequest{}, err
	}
	exerciseID, err := httpx.QueryInt64Ptr(r, "exerciseId")
	if err != nil {
		return service.ListRecordsRequest{}, err
	}
	from, err := queryDate(r, "from")
	if err != nil {
		return service.ListRecordsRequest{}, err
	}
	to, err := queryDate(r, "to")
	if err != nil {
		return service.ListRecordsRequest{}, err
	}

	return service.ListRecordsRequest{
		PageRequest: page,
		UserID:      userID,
		ExerciseID:  exerciseID,
		From:        from,
		To:          to,
	}, nil
}

type bodyRecordRequest struct {
	UserID            int64    `json:"userId"`
	RecordedDate      date     `json:"recordedDate"`
	WeightKg          *float64 `json:"weightKg"`
	BodyFatPercentage *float64 `json:"bodyFatPercentage"`
	MuscleMassKg      *float64 `json:"muscleMassKg"`
	Notes             *string  `json:"notes"`
}

func (b bodyRecordRequest) input() service.BodyRecordInput {
	return service.BodyRecordInput{
		UserID:            b.UserID,
		RecordedDate:      time.Time(b.RecordedDate),
		WeightKg:          b.WeightKg,
		BodyFatPercentage: b.BodyFatPercentage,
		MuscleMassKg:      b.MuscleMassKg,
		Notes:             b.Notes,
	}
}

func (api *API) handleListBodyRecords(w http.ResponseWriter, r *http.Request) {
	q, err := recordsQuery(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	page, err := api.records.ListBodyRecords(r.Context(), actor(r), q)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toPage(page, toBodyRecord))
}

func (api *API) handleLatestBodyRecord(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.PathID(r, "userId")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	rec, err := api.records.LatestBodyRecord(r.Context(), actor(r), userID)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toBodyRecord(rec))
}

func (api *API) handleGetBodyRecord(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	rec, err := api.records.GetBodyRecord(r.Context(), actor(r), id)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toBodyRecord(rec))
}

func (api *API) handleCreateBodyRecord(w http.ResponseWriter, r *http.Request) {
	var req bodyRecordRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	rec, err := api.records.CreateBodyRecord(r.Context(), actor(r), req.input())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toBodyRecord(rec))
}

func (api *API) handleBulkBodyRecords(w http.ResponseWriter, r *http.Request) {
	var req []bodyRecordRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	recs, err := api.records.BulkCreateBodyRecords(r.Context(), actor(r), fn.Map(req, bodyRecordRequest.input))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, fn.Map(recs, toBodyRecord))
}

func (api *API) handleUpdateBodyRecord(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req bodyRecordRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	rec, err := api.records.UpdateBodyRecord(r.Context(), actor(r), id, req.input())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toBodyRecord(rec))
}

func (api *API) handleDeleteBodyRecord(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := api.records.DeleteBodyRecord(r.Context(), actor(r), id); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type workoutRecordRequest struct {
	UserID               int64           `json:"userId"`
	ExerciseID           *int64          `json:"exerciseId"`
	WorkoutDate          date            `json:"workoutDate"`
	SetsData             json.RawMessage `json:"setsData"`
	TotalDurationMinutes *int            `json:"totalDurationMinutes"`
	Notes                *string         `json:"notes"`
}

func (wr workoutRecordRequest) input() service.WorkoutRecordInput {
	return service.WorkoutRecordInput{
		UserID:               wr.UserID,
		ExerciseID:           wr.ExerciseID,
		WorkoutDate:          time.Time(wr.WorkoutDate),
		SetsData:             wr.SetsData,
		TotalDurationMinutes: wr.TotalDurationMinutes,
		Notes:                wr.Notes,
	}
}

func (api *API) handleListWorkoutRecords(w http.ResponseWriter, r *http.Request) {
	q, err := recordsQuery(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	page, err := api.records.ListWorkoutRecords(r.Context(), actor(r), q)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toPage(page, toWorkoutRecord))
}

func (api *API) handleGetWorkoutRecord(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	rec, err := api.records.GetWorkoutRecord(r.Context(), actor(r), id)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toWorkoutRecord(rec))
}

func (api *API) handleCreateWorkoutRecord(w http.ResponseWriter, r *http.Request) {
	var req workoutRecordRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	rec, err := api.records.CreateWorkoutRecord(r.Context(), actor(r), req.input())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toWorkoutRecord(rec))
}

func (api *API) handleBulkWorkoutRecords(w http.ResponseWriter, r *http.Request) {
	var req []workoutRecordRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	recs, err := api.records.BulkCreateWorkoutRecords(r.Context(), actor(r), fn.Map(req, workoutRecordRequest.input))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, fn.Map(recs, toWorkoutRecord))
}

func (api *API) handleUpdateWorkoutRecord(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req workoutRecordRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	rec, err := api.records.UpdateWorkoutRecord(r.Context(), actor(r), id, req.input())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toWorkoutRecord(rec))
}

func (api *API) handleDeleteWorkoutRecord(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := api.records.DeleteWorkoutRecord(r.Context(), actor(r), id); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
