package rest

import (
	"context"
	"net/http"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/httpx"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/model"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/service"
)

func (api *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	req, err := pageFromQuery(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var active *bool
	if r.URL.Query().Has("isActive") {
		v := queryBool(r, "isActive")
		active = &v
	}

	page, err := api.users.ListUsers(r.Context(), actor(r), service.ListUsersRequest{
		PageRequest: req,
		Search:      r.URL.Query().Get("search"),
		Active:      active,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toPage(page, toUser))
}

func (api *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	u, err := api.users.GetUser(r.Context(), actor(r), id)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toUser(u))
}

type createUserRequest struct {
	GoogleID        *string `json:"googleId"`
	Email           string  `json:"email"`
	Name            string  `json:"name"`
	ProfileImageURL *string `json:"profileImageUrl"`
	Role            string  `json:"role"`
}

func (api *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	u, err := api.users.CreateUser(r.Context(), actor(r), service.CreateUserInput{
		GoogleID:        req.GoogleID,
		Email:           req.Email,
		Name:            req.Name,
		ProfileImageURL: req.ProfileImageURL,
		Role:            req.Role,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toUser(u))
}

type updateUserRequest struct {
	Email           *string `json:"email"`
	Name            *string `json:"name"`
	ProfileImageURL *string `json:"profileImageUrl"`
	Role            *string `json:"role"`
	IsActive        *bool   `json:"isActive"`
}

func (api *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req updateUserRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	u, err := api.users.UpdateUser(r.Context(), actor(r), id, service.UpdateUserInput{
		Email:           req.Email,
		Name:            req.Name,
		ProfileImageURL: req.ProfileImageURL,
		Role:            req.Role,
		IsActive:        req.IsActive,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toUser(u))
}

// handleDeactivateUser soft deletes. Users are never removed.
func (api *API) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := api.users.DeactivateUser(r.Context(), actor(r), id); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type profileRequest struct {
	BirthDate       *date    `json:"birthDate"`
	Gender          *string  `json:"gender"`
	HeightCm        *float64 `json:"heightCm"`
	CurrentWeightKg *float64 `json:"currentWeightKg"`
	FitnessGoal     *string  `json:"fitnessGoal"`
	FitnessLevel    *string  `json:"fitnessLevel"`
}

func (p profileRequest) input() service.ProfileInput {
	return service.ProfileInput{
		BirthDate:       p.BirthDate.ptr(),
		Gender:          p.Gender,
		HeightCm:        p.HeightCm,
		CurrentWeightKg: p.CurrentWeightKg,
		FitnessGoal:     p.FitnessGoal,
		FitnessLevel:    p.FitnessLevel,
	}
}

type profileWriter func(ctx context.Context, actor service.Actor, userID int64, in service.ProfileInput) (model.UserProfile, error)

func (api *API) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.PathID(r, "userId")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	p, err := api.users.GetProfile(r.Context(), actor(r), userID)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toProfile(p))
}

func (api *API) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	api.writeProfile(w, r, api.users.CreateProfile, http.StatusCreated)
}

func (api *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	api.writeProfile(w, r, api.users.UpdateProfile, http.StatusOK)
}

func (api *API) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	api.writeProfile(w, r, api.users.UpsertProfile, http.StatusOK)
}

func (api *API) writeProfile(w http.ResponseWriter, r *http.Request, write profileWriter, status int) {
	userID, err := httpx.PathID(r, "userId")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req profileRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	p, err := write(r.Context(), actor(r), userID, req.input())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, status, toProfile(p))
}

func (api *API) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.PathID(r, "userId")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := api.users.DeleteProfile(r.Context(), actor(r), userID); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
