package rest

import (
	"errors"
	"net/http"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/fn"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/httpx"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/serr"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/service"
)

type slotRequest struct {
	ExerciseID      int64 `json:"exerciseId"`
	OrderIndex      int   `json:"orderIndex"`
	Sets            *int  `json:"sets"`
	Reps            *int  `json:"reps"`
	DurationSeconds *int  `json:"durationSeconds"`
	RestSeconds     *int  `json:"restSeconds"`
}

func (s slotRequest) spec() service.SlotSpec {
	return service.SlotSpec{
		ExerciseID:      s.ExerciseID,
		OrderIndex:      s.OrderIndex,
		Sets:            s.Sets,
		Reps:            s.Reps,
		DurationSeconds: s.DurationSeconds,
		RestSeconds:     s.RestSeconds,
	}
}

type routineRequest struct {
	Name              string  `json:"name"`
	Description       *string `json:"description"`
	Level             string  `json:"level"`
	Category          string  `json:"category"`
	EstimatedDuration *int    `json:"estimatedDuration"`
	ThumbnailURL      *string `json:"thumbnailUrl"`
}

func (r routineRequest) header() service.RoutineHeader {
	return service.RoutineHeader{
		Name:              r.Name,
		Description:       r.Description,
		Level:             r.Level,
		Category:          r.Category,
		EstimatedDuration: r.EstimatedDuration,
		ThumbnailURL:      r.ThumbnailURL,
	}
}

type createRoutineRequest struct {
	routineRequest
	ExerciseInfo []slotRequest `json:"exerciseInfo"`
}

func (api *API) handleListRoutines(w http.ResponseWriter, r *http.Request) {
	req, err := pageFromQuery(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
	userID, err := httpx.QueryInt64Ptr(r, "userId")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	page, err := api.routines.ListRoutines(r.Context(), service.ListRoutinesRequest{
		PageRequest: req,
		UserID:      userID,
		Level:       r.URL.Query().Get("level"),
		Category:    r.URL.Query().Get("category"),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toPage(page, toRoutine))
}

func (api *API) handleGetRoutine(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	rt, err := api.routines.GetRoutine(r.Context(), id)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toRoutineDetail(rt))
}

func (api *API) handleCreateRoutine(w http.ResponseWriter, r *http.Request) {
	var req createRoutineRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	specs := fn.Map(req.ExerciseInfo, slotRequest.spec)

	rt, err := api.routines.CreateRoutine(r.Context(), actor(r), service.CreateRoutineRequest{
		RoutineHeader: req.header(),
		Slots:         specs,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toRoutineDetail(rt))
}

func (api *API) handleUpdateRoutine(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req routineRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	rt, err := api.routines.UpdateRoutine(r.Context(), actor(r), service.UpdateRoutineRequest{
		ID:            id,
		RoutineHeader: req.header(),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toRoutine(rt))
}

func (api *API) handleDeleteRoutine(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := api.routines.DeleteRoutine(r.Context(), actor(r), id); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (api *API) handleGetSlots(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	slots, err := api.routines.GetDetail(r.Context(), id)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, fn.Map(slots, toSlot))
}

// handleAddSlot keeps the supplied order index. With ?insert=true the slots at and after
// that index move up by one instead of conflicting.
func (api *API) handleAddSlot(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req slotRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	add := api.routines.AddSlot
	if queryBool(r, "insert") {
		add = api.routines.InsertSlotAt
	}

	slot, err := add(r.Context(), actor(r), id, req.spec())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toSlot(slot))
}

type addSlotsRequest struct {
	ExerciseInfo []slotRequest `json:"exerciseInfo"`
}

type slotResultResponse struct {
	Success      bool          `json:"success"`
	Slot         *slotResponse `json:"slot,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
}

type addSlotsResponse struct {
	Success      bool                 `json:"success"`
	ErrorMessage string               `json:"errorMessage,omitempty"`
	Results      []slotResultResponse `json:"results"`
}

func toSlotResult(res service.SlotResult) slotResultResponse {
	if res.Err != nil {
		return slotResultResponse{ErrorMessage: clientMessage(res.Err)}
	}

	slot := toSlot(res.Slot)
	return slotResultResponse{Success: true, Slot: &slot}
}

// handleAddSlots reports one result per submitted slot in request order, also when some failed.
func (api *API) handleAddSlots(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req addSlotsRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	specs := fn.Map(req.ExerciseInfo, slotRequest.spec)

	results, err := api.routines.AddSlots(r.Context(), actor(r), id, specs)
	var se *serr.ServiceError
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusCreated, addSlotsResponse{
			Success: true,
			Results: fn.Map(results, toSlotResult),
		})
	case len(results) > 0 && errors.As(err, &se):
		httpx.LogErr(r, err)
		writeJSON(w, r, se.StatusCode, addSlotsResponse{
			ErrorMessage: se.Msg,
			Results:      fn.Map(results, toSlotResult),
		})
	default:
		httpx.HandleErr(w, r, err)
	}
}

type reorderSlotsRequest struct {
	SlotIDs []int64 `json:"slotIds"`
}

func (api *API) handleReorderSlots(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req reorderSlotsRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	slots, err := api.routines.ReorderSlots(r.Context(), actor(r), id, req.SlotIDs)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, fn.Map(slots, toSlot))
}

func (api *API) handleUpdateSlot(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
	slotID, err := httpx.PathID(r, "slotId")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req slotRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	slot, err := api.routines.UpdateSlot(r.Context(), actor(r), service.UpdateSlotRequest{
		RoutineID: id,
		SlotID:    slotID,
		SlotSpec:  req.spec(),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toSlot(slot))
}

func (api *API) handleRemoveSlot(w http.ResponseWriter, r *http.Request) {
	routineID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
	slotID, err := httpx.PathID(r, "slotId")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if _, err := api.routines.RemoveSlot(r.Context(), actor(r), routineID, slotID); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func pageFromQuery(r *http.Request) (service.PageRequest, error) {
	page, err := httpx.QueryInt(r, "page", 0)
	if err != nil {
		return service.PageRequest{}, err
	}
	size, err := httpx.QueryInt(r, "pageSize", 0)
	if err != nil {
		return service.PageRequest{}, err
	}

	return service.PageRequest{Page: page, PageSize: size}, nil
}

// clientMessage is the text of err that may be shown to the caller.
func clientMessage(err error) string {
	var se *serr.ServiceError
	if errors.As(err, &se) {
		return se.Msg
	}
	return http.StatusText(http.StatusInternalServerError)
}
