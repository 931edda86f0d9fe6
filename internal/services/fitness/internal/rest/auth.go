package rest

import (
	"net/http"
	"time"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/httpx"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/middleware"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/oauth"
	"github.com/gunheehan/FitnessPT-api/internal/services/fitness/internal/service"
)

const oauthCookieScope = "oauth"

type loginRequest struct {
	IdentityToken string `json:"identity_token"`
}

type authResponse struct {
	Success      bool         `json:"success"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	User         userResponse `json:"user"`
	IsNewUser    bool         `json:"isNewUser"`
}

func toAuth(res service.AuthResult) authResponse {
	return authResponse{
		Success:      true,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt,
		User:         toUser(res.User),
		IsNewUser:    res.IsNewUser,
	}
}

func (api *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	res, err := api.auth.Login(r.Context(), req.IdentityToken)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toAuth(res))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (api *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	res, err := api.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toAuth(res))
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (api *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := api.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, successResponse{Success: true, Message: "logged out"})
}

type tokenInfoResponse struct {
	Success   bool      `json:"success"`
	Valid     bool      `json:"valid"`
	UserID    int64     `json:"userId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (api *API) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	writeJSON(w, r, http.StatusOK, tokenInfoResponse{
		Success:   true,
		Valid:     true,
		UserID:    p.UserID,
		Email:     p.Email,
		Role:      p.Role,
		ExpiresAt: p.ExpiresAt,
	})
}

type statusResponse struct {
	Authenticated bool       `json:"authenticated"`
	UserID        int64      `json:"userId,omitempty"`
	Role          string     `json:"role,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	ServerTime    time.Time  `json:"serverTime"`
}

// handleStatus never fails. An absent or invalid bearer token reports an anonymous caller.
func (api *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{ServerTime: api.now().UTC()}

	if raw := middleware.BearerToken(r); raw != "" {
		if p, err := api.parse(raw); err == nil && p.UserID > 0 {
			resp.Authenticated = true
			resp.UserID = p.UserID
			resp.Role = p.Role
			resp.ExpiresAt = &p.ExpiresAt
		}
	}

	writeJSON(w, r, http.StatusOK, resp)
}

func (api *API) handleProviderLogin(w http.ResponseWriter, r *http.Request) {
	url, err := api.auth.LoginURL(oauth.NewHTTPEnv(oauthCookieScope, w, r), service.LoginRequest{
		Provider:    r.PathValue("provider"),
		RedirectURL: r.URL.Query().Get("redirect"),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (api *API) handleProviderCallback(w http.ResponseWriter, r *http.Request) {
	env := oauth.NewHTTPEnv(oauthCookieScope, w, r)
	resp, err := api.auth.AuthCallback(r.Context(), env, service.AuthCallbackRequest{
		Provider: r.PathValue("provider"),
		Code:     r.URL.Query().Get("code"),
		State:    r.URL.Query().Get("state"),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	env.Clear(oauth.KeyState, oauth.KeyNonce, service.KeyRedirect)
	http.Redirect(w, r, resp.RedirectURL, http.StatusFound)
}

type redeemRequest struct {
	Code string `json:"code"`
}

type tokenPairResponse struct {
	Success      bool      `json:"success"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func (api *API) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := readBody(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	pair, err := api.auth.RedeemCode(r.Context(), req.Code)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, tokenPairResponse{
		Success:      true,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}
