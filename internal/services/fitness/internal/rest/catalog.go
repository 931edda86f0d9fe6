package rest

import (
	"net/http"
	"strconv"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/fn"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/httpx"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/serr"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/service"
)

type exerciseRequest struct {
	Name           string  `json:"name"`
	Description    *string `json:"description"`
	Level          string  `json:"level"`
	Category       string  `json:"category"`
	CategoryDetail *string `json:"categoryDetail"`
	CategoryID     *int    `json:"categoryId"`
	ImageURL       *string `json:"imageUrl"`
	VideoURL       *string `json:"videoUrl"`
	IsActive       *bool   `json:"isActive"`
}

func (e exerciseRequest) input() service.ExerciseInput {
	return service.ExerciseInput{
		Name:           e.Name,
		Description:    e.Description,
		Level:          e.Level,
		Category:       e.Category,
		CategoryDetail: e.CategoryDetail,
		CategoryID:     e.CategoryID,
		ImageURL:       e.ImageURL,
		VideoURL:       e.VideoURL,
		IsActive:       e.IsActive,
	}
}

func (api *API) handleListExercises(w http.ResponseWriter, r *http.Request) {
	req, err := pageFromQuery(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
	categoryID, err := queryIntPtr(r, "categoryId")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	q := r.URL.Query()
	page, err := api.catalog.ListExercises(r.Context(), service.ListExercisesRequest{
		PageRequest: req,
		Level:       q.Get("level"),
		Category:    q.Get("category"),
		CategoryID:  categoryID,
		Search:      q.Get("search"),
		ActiveOnly:  queryBool(r, "activeOnly"),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toPage(page, toExercise))
}

func (api *API) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	e, err := api.catalog.GetExercise(r.Context(), id)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toExercise(e))
}

func (api *API) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var req exerciseRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	e, err := api.catalog.CreateExercise(r.Context(), actor(r), req.input())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toExercise(e))
}

func (api *API) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req exerciseRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	e, err := api.catalog.UpdateExercise(r.Context(), actor(r), id, req.input())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toExercise(e))
}

func (api *API) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := api.catalog.DeleteExercise(r.Context(), actor(r), id); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (api *API) handleToggleExercise(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	e, err := api.catalog.ToggleExercise(r.Context(), actor(r), id)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toExercise(e))
}

type categoryRequest struct {
	ParentID     *int   `json:"parentId"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	DisplayOrder int    `json:"displayOrder"`
}

func (c categoryRequest) input() service.CategoryInput {
	return service.CategoryInput{
		ParentID:     c.ParentID,
		Name:         c.Name,
		Code:         c.Code,
		DisplayOrder: c.DisplayOrder,
	}
}

func (api *API) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := api.catalog.ListCategories(r.Context(), queryBool(r, "flat"))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, fn.Map(cats, toCategory))
}

func (api *API) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := categoryID(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	cat, err := api.catalog.GetCategory(r.Context(), id)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toCategory(cat))
}

func (api *API) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	cat, err := api.catalog.CreateCategory(r.Context(), actor(r), req.input())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toCategory(cat))
}

func (api *API) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := categoryID(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req categoryRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	cat, err := api.catalog.UpdateCategory(r.Context(), actor(r), id, req.input())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toCategory(cat))
}

func (api *API) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := categoryID(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := api.catalog.DeleteCategory(r.Context(), actor(r), id); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type categoryOrderRequest struct {
	ID           int `json:"id"`
	DisplayOrder int `json:"displayOrder"`
}

func (api *API) handleReorderCategories(w http.ResponseWriter, r *http.Request) {
	var req []categoryOrderRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	orders := fn.Map(req, func(o categoryOrderRequest) service.CategoryOrder {
		return service.CategoryOrder{ID: o.ID, DisplayOrder: o.DisplayOrder}
	})

	if err := api.catalog.ReorderCategories(r.Context(), actor(r), orders); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, successResponse{Success: true})
}

func categoryID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, serr.NewServiceError(err, http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func queryIntPtr(r *http.Request, name string) (*int, error) {
	v, err := httpx.QueryInt64Ptr(r, name)
	if err != nil || v == nil {
		return nil, err
	}

	i := int(*v)
	return &i, nil
}
